package services

import (
	"testing"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	evbus "github.com/asaskevich/EventBus"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

type salesFixture struct {
	store    repositories.Store
	settings SettingsService
	sales    SalesService
	notifs   NotificationService
}

func newSalesFixture(t *testing.T) *salesFixture {
	t.Helper()
	store, err := repositories.NewFileStore(t.TempDir())
	require.NoError(t, err)

	bus := evbus.New()
	settings := NewSettingsService(store)
	notifs := NewNotificationService(store, settings, bus)
	t.Cleanup(notifs.Stop)
	dm := NewDataManager(store, bus)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &salesFixture{
		store:    store,
		settings: settings,
		sales:    NewSalesService(store, settings, notifs, dm, node),
		notifs:   notifs,
	}
}

func (f *salesFixture) seedProduct(t *testing.T, name string, price float64, qty int, minLevel *int) int64 {
	t.Helper()
	id, err := f.store.Products().Create(&models.Product{
		UserID:        1,
		Name:          name,
		Price:         price,
		Quantity:      qty,
		MinStockLevel: minLevel,
	})
	require.NoError(t, err)
	return id
}

func TestProcessSaleComputesGST(t *testing.T) {
	f := newSalesFixture(t)
	teaID := f.seedProduct(t, "Tea", 100, 5, nil)
	sugarID := f.seedProduct(t, "Sugar", 50, 5, nil)

	sale, err := f.sales.ProcessSale(1, CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: teaID, Quantity: 2},
			{ProductID: sugarID, Quantity: 1},
		},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	require.InDelta(t, 250.0, sale.Subtotal, 0.001)
	require.InDelta(t, 45.0, sale.GSTAmount, 0.001) // 18% default
	require.InDelta(t, 295.0, sale.Total, 0.001)
	require.Len(t, sale.Items, 2)
	require.Equal(t, "Tea", sale.Items[0].ProductName)

	// Stock was decremented per line.
	tea, err := f.store.Products().GetByID(1, teaID)
	require.NoError(t, err)
	require.Equal(t, 3, tea.Quantity)
	sugar, err := f.store.Products().GetByID(1, sugarID)
	require.NoError(t, err)
	require.Equal(t, 4, sugar.Quantity)

	// And the sale landed in history.
	sales, total, err := f.sales.GetSales(1, models.SaleFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, sale.ID, sales[0].ID)
}

func TestProcessSaleUsesConfiguredGSTRate(t *testing.T) {
	f := newSalesFixture(t)
	id := f.seedProduct(t, "Tea", 100, 5, nil)

	_, err := f.settings.Set(1, UpdateSettingRequest{
		SettingKey:   models.SettingGSTRate,
		SettingValue: "0.05",
	})
	require.NoError(t, err)

	sale, err := f.sales.ProcessSale(1, CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: id, Quantity: 1}},
		PaymentMethod: models.PaymentMethodUPI,
	})
	require.NoError(t, err)
	require.InDelta(t, 5.0, sale.GSTAmount, 0.001)
	require.InDelta(t, 105.0, sale.Total, 0.001)
}

func TestProcessSaleInsufficientStockRollsBack(t *testing.T) {
	f := newSalesFixture(t)
	teaID := f.seedProduct(t, "Tea", 100, 5, nil)
	sugarID := f.seedProduct(t, "Sugar", 50, 1, nil)

	_, err := f.sales.ProcessSale(1, CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: teaID, Quantity: 2},
			{ProductID: sugarID, Quantity: 10},
		},
		PaymentMethod: models.PaymentMethodCard,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "Sugar")
	require.Contains(t, err.Error(), "available 1")
	require.Contains(t, err.Error(), "requested 10")

	// The first line's decrement must not survive the failure.
	tea, err := f.store.Products().GetByID(1, teaID)
	require.NoError(t, err)
	require.Equal(t, 5, tea.Quantity)

	_, total, err := f.sales.GetSales(1, models.SaleFilters{})
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestProcessSaleUnknownProduct(t *testing.T) {
	f := newSalesFixture(t)

	_, err := f.sales.ProcessSale(1, CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: 404, Quantity: 1}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestProcessSaleRejectsBadPaymentMethod(t *testing.T) {
	f := newSalesFixture(t)
	id := f.seedProduct(t, "Tea", 100, 5, nil)

	_, err := f.sales.ProcessSale(1, CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: id, Quantity: 1}},
		PaymentMethod: "barter",
	})
	require.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestProcessSaleEmitsLowStockNotification(t *testing.T) {
	f := newSalesFixture(t)
	id := f.seedProduct(t, "Tea", 100, 3, intp(5))

	_, err := f.sales.ProcessSale(1, CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: id, Quantity: 3}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	list, err := f.notifs.List(1)
	require.NoError(t, err)

	var sawOutOfStock bool
	for _, n := range list {
		if n.Type == models.NotificationError && n.Category == "stock" {
			sawOutOfStock = true
			require.Equal(t, models.PriorityHigh, n.Priority)
			require.True(t, n.Persistent)
		}
	}
	require.True(t, sawOutOfStock, "expected an out-of-stock notification")
}

func TestProcessSaleFailureEmitsErrorNotification(t *testing.T) {
	f := newSalesFixture(t)
	id := f.seedProduct(t, "Tea", 100, 1, nil)

	_, err := f.sales.ProcessSale(1, CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: id, Quantity: 5}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The failure shows up in the notification list, not just the response.
	list, nerr := f.notifs.List(1)
	require.NoError(t, nerr)
	require.NotEmpty(t, list)

	var sawFailure bool
	for _, n := range list {
		if n.Type == models.NotificationError && n.Title == "Sale failed" {
			sawFailure = true
			require.Contains(t, n.Message, "Tea")
			require.Equal(t, models.PriorityHigh, n.Priority)
		}
	}
	require.True(t, sawFailure, "expected an error notification after a failed sale")
}

func TestProcessSaleDepletesStockExactly(t *testing.T) {
	f := newSalesFixture(t)
	id := f.seedProduct(t, "Rice", 20, 5, nil)

	// Selling the entire stock in one sale is allowed.
	sale, err := f.sales.ProcessSale(1, CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: id, Quantity: 5}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.InDelta(t, 100.0, sale.Subtotal, 0.001)
	require.InDelta(t, 18.0, sale.GSTAmount, 0.001)
	require.InDelta(t, 118.0, sale.Total, 0.001)

	rice, err := f.store.Products().GetByID(1, id)
	require.NoError(t, err)
	require.Equal(t, 0, rice.Quantity)

	// The same sale again must fail outright and leave history untouched.
	_, err = f.sales.ProcessSale(1, CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: id, Quantity: 5}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, total, err := f.sales.GetSales(1, models.SaleFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestGetSalesFilterByPaymentMethod(t *testing.T) {
	f := newSalesFixture(t)
	id := f.seedProduct(t, "Tea", 100, 10, nil)

	for _, method := range []string{models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodCash} {
		_, err := f.sales.ProcessSale(1, CreateSaleRequest{
			Items:         []SaleItemRequest{{ProductID: id, Quantity: 1}},
			PaymentMethod: method,
		})
		require.NoError(t, err)
	}

	cash := models.PaymentMethodCash
	sales, total, err := f.sales.GetSales(1, models.SaleFilters{PaymentMethod: &cash})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	for _, s := range sales {
		require.Equal(t, models.PaymentMethodCash, s.PaymentMethod)
	}
}
