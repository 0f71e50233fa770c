package services

import (
	"testing"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	evbus "github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/require"
)

func newProductFixture(t *testing.T) ProductService {
	t.Helper()
	store, err := repositories.NewFileStore(t.TempDir())
	require.NoError(t, err)
	bus := evbus.New()
	settings := NewSettingsService(store)
	notifs := NewNotificationService(store, settings, bus)
	t.Cleanup(notifs.Stop)
	return NewProductService(store, NewDataManager(store, bus), notifs)
}

func TestCreateProductValidation(t *testing.T) {
	ps := newProductFixture(t)

	_, err := ps.CreateProduct(1, CreateProductRequest{Name: "   "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = ps.CreateProduct(1, CreateProductRequest{Name: "Tea", Price: -1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = ps.CreateProduct(1, CreateProductRequest{Name: "Tea", Quantity: -2})
	require.ErrorIs(t, err, ErrValidation)

	_, err = ps.CreateProduct(1, CreateProductRequest{
		Name:          "Tea",
		MinStockLevel: intp(10),
		MaxStockLevel: intp(5),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateProductDuplicateName(t *testing.T) {
	ps := newProductFixture(t)

	_, err := ps.CreateProduct(1, CreateProductRequest{Name: "Tea", Price: 40})
	require.NoError(t, err)

	_, err = ps.CreateProduct(1, CreateProductRequest{Name: "Tea", Price: 50})
	require.ErrorIs(t, err, ErrProductNameExists)
}

func TestUpdateProductPartial(t *testing.T) {
	ps := newProductFixture(t)

	created, err := ps.CreateProduct(1, CreateProductRequest{
		Name:     "Tea",
		Category: "Beverages",
		Price:    40,
		Quantity: 10,
	})
	require.NoError(t, err)

	newPrice := 45.0
	updated, err := ps.UpdateProduct(1, created.ID, UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)

	// Only price changed; the rest is untouched.
	require.Equal(t, 45.0, updated.Price)
	require.Equal(t, "Tea", updated.Name)
	require.Equal(t, "Beverages", updated.Category)
	require.Equal(t, 10, updated.Quantity)

	_, err = ps.UpdateProduct(1, 999, UpdateProductRequest{Price: &newPrice})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	ps := newProductFixture(t)

	created, err := ps.CreateProduct(1, CreateProductRequest{Name: "Tea", Price: 40})
	require.NoError(t, err)

	require.NoError(t, ps.DeleteProduct(1, created.ID))
	require.ErrorIs(t, ps.DeleteProduct(1, created.ID), ErrProductNotFound)
}

func TestGetProductsRejectsBadFilters(t *testing.T) {
	ps := newProductFixture(t)

	bad := "backordered"
	_, _, err := ps.GetProducts(1, models.ProductFilters{StockBucket: &bad})
	require.ErrorIs(t, err, ErrValidation)

	badPreset := "fortnight"
	_, _, err = ps.GetProducts(1, models.ProductFilters{DatePreset: &badPreset})
	require.ErrorIs(t, err, ErrValidation)
}
