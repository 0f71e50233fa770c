package services

import (
	"strings"
	"testing"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	"github.com/stretchr/testify/require"
)

func newReportFixture(t *testing.T) (ReportService, repositories.Store) {
	t.Helper()
	store, err := repositories.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewReportService(store), store
}

func seedReportProducts(t *testing.T, store repositories.Store) {
	t.Helper()
	seed := []models.Product{
		{UserID: 1, Name: "Atta", Category: "Grocery", Price: 60, Quantity: 0},
		{UserID: 1, Name: "Biscuits", Category: "Snacks", Price: 20, Quantity: 2, MinStockLevel: intp(5)},
		{UserID: 1, Name: "Chips", Category: "Snacks", Price: 30, Quantity: 50},
	}
	for i := range seed {
		_, err := store.Products().Create(&seed[i])
		require.NoError(t, err)
	}
}

func TestInventoryReportStatuses(t *testing.T) {
	rs, store := newReportFixture(t)
	seedReportProducts(t, store)

	rows, err := rs.InventoryReport(1)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byName := map[string]InventoryReportRow{}
	for _, r := range rows {
		byName[r.Name] = r
	}
	require.Equal(t, "out", byName["Atta"].Status)
	require.Equal(t, "low", byName["Biscuits"].Status)
	require.Equal(t, "ok", byName["Chips"].Status)
	require.InDelta(t, 1500.0, byName["Chips"].StockValue, 0.001)
}

func TestExportInventoryCSV(t *testing.T) {
	rs, store := newReportFixture(t)
	seedReportProducts(t, store)

	data, contentType, err := rs.ExportInventory(1, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", contentType)

	out := string(data)
	require.Contains(t, out, "name,category,supplier,price,quantity,stock_value,status")
	require.Contains(t, out, "Biscuits")
	require.Contains(t, out, "low")
}

func TestExportInventoryXLSX(t *testing.T) {
	rs, store := newReportFixture(t)
	seedReportProducts(t, store)

	data, contentType, err := rs.ExportInventory(1, FormatXLSX)
	require.NoError(t, err)
	require.Equal(t, contentTypeXLSX, contentType)
	// XLSX files are zip archives.
	require.True(t, strings.HasPrefix(string(data), "PK"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	rs, _ := newReportFixture(t)
	_, _, err := rs.ExportInventory(1, "pdf")
	require.ErrorIs(t, err, ErrValidation)
}

func TestExportSalesCSV(t *testing.T) {
	rs, store := newReportFixture(t)

	customer := "Ravi"
	err := store.Sales().Create(&models.Sale{
		ID: 1001, UserID: 1, Subtotal: 100, GSTAmount: 18, Total: 118,
		CustomerName: &customer, PaymentMethod: models.PaymentMethodCash,
		Items: []models.SaleItem{{ProductID: 1, ProductName: "Atta", Quantity: 2, UnitPrice: 50, Total: 100}},
	})
	require.NoError(t, err)

	data, _, err := rs.ExportSales(1, models.SaleFilters{}, FormatCSV)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, "sale_id")
	require.Contains(t, out, "1001")
	require.Contains(t, out, "Ravi")
	require.Contains(t, out, "118")
}
