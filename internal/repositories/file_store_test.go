package repositories

import (
	"errors"
	"testing"

	"retail_pos_backend/internal/models"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	return store, dir
}

func intPtr(v int) *int { return &v }

func TestFileStoreProductCRUD(t *testing.T) {
	store, dir := newTestStore(t)

	product := &models.Product{
		UserID:        1,
		Name:          "Masala Tea",
		Category:      "Beverages",
		Price:         40,
		Quantity:      12,
		MinStockLevel: intPtr(5),
	}
	id, err := store.Products().Create(product)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	got, err := store.Products().GetByID(1, id)
	require.NoError(t, err)
	require.Equal(t, "Masala Tea", got.Name)
	require.Equal(t, 12, got.Quantity)

	// Another account must not see it.
	_, err = store.Products().GetByID(2, id)
	require.ErrorIs(t, err, ErrNotFound)

	got.Price = 45
	require.NoError(t, store.Products().Update(got))

	// Data survives a reload from disk.
	reloaded, err := NewFileStore(dir)
	require.NoError(t, err)
	again, err := reloaded.Products().GetByID(1, id)
	require.NoError(t, err)
	require.Equal(t, float64(45), again.Price)

	require.NoError(t, store.Products().Delete(1, id))
	_, err = store.Products().GetByID(1, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreDuplicateProductName(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Products().Create(&models.Product{UserID: 1, Name: "Sugar", Price: 50})
	require.NoError(t, err)
	_, err = store.Products().Create(&models.Product{UserID: 1, Name: "sugar", Price: 55})
	require.ErrorIs(t, err, ErrDuplicateKey)

	// Same name under a different account is fine.
	_, err = store.Products().Create(&models.Product{UserID: 2, Name: "Sugar", Price: 50})
	require.NoError(t, err)
}

func TestFileStoreDecrementStockGuard(t *testing.T) {
	store, _ := newTestStore(t)

	id, err := store.Products().Create(&models.Product{UserID: 1, Name: "Rice", Price: 80, Quantity: 3})
	require.NoError(t, err)

	remaining, err := store.Products().DecrementStock(1, id, 2)
	require.NoError(t, err)
	require.Equal(t, 1, remaining)

	_, err = store.Products().DecrementStock(1, id, 2)
	require.ErrorIs(t, err, ErrStockBelowZero)

	got, err := store.Products().GetByID(1, id)
	require.NoError(t, err)
	require.Equal(t, 1, got.Quantity)

	_, err = store.Products().DecrementStock(1, 999, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreWithinTxRollback(t *testing.T) {
	store, _ := newTestStore(t)

	id, err := store.Products().Create(&models.Product{UserID: 1, Name: "Oil", Price: 120, Quantity: 10})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTx(func(tx Store) error {
		if _, err := tx.Products().DecrementStock(1, id, 4); err != nil {
			return err
		}
		if err := tx.Sales().Create(&models.Sale{ID: 77, UserID: 1, Total: 480}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Products().GetByID(1, id)
	require.NoError(t, err)
	require.Equal(t, 10, got.Quantity)

	_, err = store.Sales().GetByID(1, 77)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreWithinTxCommit(t *testing.T) {
	store, dir := newTestStore(t)

	id, err := store.Products().Create(&models.Product{UserID: 1, Name: "Ghee", Price: 500, Quantity: 6})
	require.NoError(t, err)

	err = store.WithinTx(func(tx Store) error {
		if _, err := tx.Products().DecrementStock(1, id, 2); err != nil {
			return err
		}
		return tx.Sales().Create(&models.Sale{ID: 42, UserID: 1, Subtotal: 1000, GSTAmount: 180, Total: 1180, PaymentMethod: models.PaymentMethodCash})
	})
	require.NoError(t, err)

	got, err := store.Products().GetByID(1, id)
	require.NoError(t, err)
	require.Equal(t, 4, got.Quantity)

	// Committed state reaches disk.
	reloaded, err := NewFileStore(dir)
	require.NoError(t, err)
	sale, err := reloaded.Sales().GetByID(1, 42)
	require.NoError(t, err)
	require.Equal(t, float64(1180), sale.Total)
}

func TestFileStoreProductFilters(t *testing.T) {
	store, _ := newTestStore(t)

	seed := []models.Product{
		{UserID: 1, Name: "Atta", Category: "Grocery", Price: 60, Quantity: 0},
		{UserID: 1, Name: "Biscuits", Category: "Snacks", Price: 20, Quantity: 2, MinStockLevel: intPtr(5)},
		{UserID: 1, Name: "Chips", Category: "Snacks", Price: 30, Quantity: 50},
	}
	for i := range seed {
		_, err := store.Products().Create(&seed[i])
		require.NoError(t, err)
	}

	out := models.StockBucketOut
	products, total, err := store.Products().GetAll(1, models.ProductFilters{StockBucket: &out})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Atta", products[0].Name)

	low := models.StockBucketLow
	products, total, err = store.Products().GetAll(1, models.ProductFilters{StockBucket: &low})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Biscuits", products[0].Name)

	snacks := "Snacks"
	products, total, err = store.Products().GetAll(1, models.ProductFilters{Category: &snacks})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, products, 2)

	// Pagination cuts the sorted list.
	products, total, err = store.Products().GetAll(1, models.ProductFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, products, 1)
	require.Equal(t, "Chips", products[0].Name)
}

func TestFileStoreSettingsUpsert(t *testing.T) {
	store, _ := newTestStore(t)

	val := "0.12"
	setting := &models.Setting{UserID: 1, SettingKey: models.SettingGSTRate, SettingValue: &val}
	require.NoError(t, store.Settings().Upsert(setting))
	firstID := setting.ID

	newVal := "0.05"
	setting2 := &models.Setting{UserID: 1, SettingKey: models.SettingGSTRate, SettingValue: &newVal}
	require.NoError(t, store.Settings().Upsert(setting2))
	require.Equal(t, firstID, setting2.ID)

	got, err := store.Settings().Get(1, models.SettingGSTRate)
	require.NoError(t, err)
	require.Equal(t, "0.05", *got.SettingValue)

	require.NoError(t, store.Settings().Delete(1, models.SettingGSTRate))
	_, err = store.Settings().Get(1, models.SettingGSTRate)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreUsers(t *testing.T) {
	store, _ := newTestStore(t)

	user := &models.User{Username: "asha", Role: models.RoleAdmin}
	id, err := store.Users().CreateUser(user, "hashed-secret")
	require.NoError(t, err)
	require.True(t, user.IsActive)

	_, err = store.Users().CreateUser(&models.User{Username: "Asha"}, "x")
	require.ErrorIs(t, err, ErrDuplicateKey)

	found, hash, err := store.Users().FindUserByUsername("asha")
	require.NoError(t, err)
	require.Equal(t, id, found.ID)
	require.Equal(t, "hashed-secret", hash)

	byID, err := store.Users().FindUserByID(id)
	require.NoError(t, err)
	require.Equal(t, "asha", byID.Username)
}
