package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	evbus "github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/require"
)

// countingStore is a Store stub that serves a fixed product list and counts
// fetches, so cache behavior is observable.
type countingStore struct {
	mu         sync.Mutex
	products   []models.Product
	fetchCount int
	failNext   bool
}

type countingProductRepo struct {
	s *countingStore
}

func (s *countingStore) Products() repositories.ProductRepository { return &countingProductRepo{s: s} }
func (s *countingStore) Sales() repositories.SaleRepository       { return nil }
func (s *countingStore) Settings() repositories.SettingRepository { return nil }
func (s *countingStore) Notifications() repositories.NotificationRepository {
	return nil
}
func (s *countingStore) Users() repositories.AuthRepository { return nil }
func (s *countingStore) WithinTx(fn func(repositories.Store) error) error {
	return fn(s)
}

func (r *countingProductRepo) GetAll(userID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.fetchCount++
	if r.s.failNext {
		r.s.failNext = false
		return nil, 0, errors.New("store unavailable")
	}
	out := make([]models.Product, len(r.s.products))
	copy(out, r.s.products)
	return out, len(out), nil
}

func (r *countingProductRepo) Create(*models.Product) (int64, error)        { return 0, nil }
func (r *countingProductRepo) GetByID(int64, int64) (*models.Product, error) { return nil, nil }
func (r *countingProductRepo) Update(*models.Product) error                 { return nil }
func (r *countingProductRepo) Delete(int64, int64) error                    { return nil }
func (r *countingProductRepo) DecrementStock(int64, int64, int) (int, error) {
	return 0, nil
}

func (s *countingStore) fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCount
}

func newTestDataManager(store repositories.Store) DataManager {
	return NewDataManager(store, evbus.New())
}

func TestDataManagerServesFromCache(t *testing.T) {
	store := &countingStore{products: []models.Product{
		{ID: 1, UserID: 7, Name: "Soap", Price: 30, Quantity: 10},
	}}
	dm := newTestDataManager(store)

	first, err := dm.GetProducts(7, false)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, store.fetches())

	// A second read within the TTL never reaches the store.
	second, err := dm.GetProducts(7, false)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, store.fetches())

	// Force bypasses the cache.
	_, err = dm.GetProducts(7, true)
	require.NoError(t, err)
	require.Equal(t, 2, store.fetches())
}

func TestDataManagerPerUserIsolation(t *testing.T) {
	store := &countingStore{}
	dm := newTestDataManager(store)

	_, err := dm.GetProducts(1, false)
	require.NoError(t, err)
	_, err = dm.GetProducts(2, false)
	require.NoError(t, err)
	require.Equal(t, 2, store.fetches())
}

func TestDataManagerServesStaleOnError(t *testing.T) {
	store := &countingStore{products: []models.Product{
		{ID: 1, UserID: 7, Name: "Soap", Price: 30, Quantity: 10},
	}}
	dm := newTestDataManager(store)

	_, err := dm.GetProducts(7, false)
	require.NoError(t, err)

	store.mu.Lock()
	store.failNext = true
	store.mu.Unlock()

	// Refresh fails underneath; the cached value is served instead.
	products, err := dm.GetProducts(7, true)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Soap", products[0].Name)
}

func TestDataManagerEmptyOnColdMissFailure(t *testing.T) {
	store := &countingStore{failNext: true}
	dm := newTestDataManager(store)

	// Nothing cached and the store is down: the read degrades to empty
	// instead of failing.
	products, err := dm.GetProducts(7, false)
	require.NoError(t, err)
	require.Empty(t, products)

	stats, err := dm.GetDashboardStats(7, false)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalProducts)
}

func TestDataManagerTTLExpiry(t *testing.T) {
	store := &countingStore{products: []models.Product{
		{ID: 1, UserID: 7, Name: "Soap", Price: 30, Quantity: 10},
	}}
	dm := NewDataManagerWithTTLs(store, evbus.New(), map[string]time.Duration{
		DatasetProducts: 50 * time.Millisecond,
	})

	_, err := dm.GetProducts(7, false)
	require.NoError(t, err)
	require.Equal(t, 1, store.fetches())

	time.Sleep(80 * time.Millisecond)

	// The entry aged out, so the next read refetches.
	_, err = dm.GetProducts(7, false)
	require.NoError(t, err)
	require.Equal(t, 2, store.fetches())
}

func TestDataManagerDerivedDatasets(t *testing.T) {
	store := &countingStore{products: []models.Product{
		{ID: 1, UserID: 7, Name: "Soap", Category: "Care", Price: 30, Quantity: 10},
		{ID: 2, UserID: 7, Name: "Shampoo", Category: "Care", Price: 120, Quantity: 0},
		{ID: 3, UserID: 7, Name: "Candles", Category: "Home", Price: 50, Quantity: 2, MinStockLevel: intp(8)},
	}}
	dm := newTestDataManager(store)

	stats, err := dm.GetDashboardStats(7, false)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalProducts)
	require.Equal(t, 1, stats.OutOfStockCount)
	require.Equal(t, 1, stats.LowStockCount)
	require.Equal(t, 2, stats.CategoryCount)
	require.InDelta(t, 400.0, stats.InventoryValue, 0.001) // 300 + 0 + 100
	require.InDelta(t, 200.0/3.0, stats.AveragePrice, 0.001)

	alerts, err := dm.GetStockAlerts(7, false)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, "Shampoo", alerts[0].ProductName) // ratio 0 sorts first
	bySeverity := map[string]models.StockAlert{}
	for _, a := range alerts {
		bySeverity[a.ProductName] = a
	}
	// Critical means out of stock; anything remaining is low however deep
	// below its minimum it sits.
	require.Equal(t, models.AlertSeverityCritical, bySeverity["Shampoo"].Severity)
	require.Equal(t, models.AlertSeverityLow, bySeverity["Candles"].Severity)
}

func TestDataManagerSubscribeReplaysCache(t *testing.T) {
	store := &countingStore{products: []models.Product{
		{ID: 1, UserID: 7, Name: "Soap", Price: 30, Quantity: 10},
	}}
	dm := newTestDataManager(store)

	_, err := dm.GetProducts(7, false)
	require.NoError(t, err)

	var mu sync.Mutex
	var received [][]models.Product
	unsubscribe, err := dm.Subscribe(DatasetProducts, 7, func(v interface{}) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, v.([]models.Product))
	})
	require.NoError(t, err)
	defer unsubscribe()

	// The cached value is replayed synchronously on subscribe.
	mu.Lock()
	require.Len(t, received, 1)
	mu.Unlock()

	// A forced refresh fans out to the subscriber.
	_, err = dm.GetProducts(7, true)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestDataManagerSubscriberPanicIsContained(t *testing.T) {
	store := &countingStore{}
	dm := newTestDataManager(store)

	unsubscribe, err := dm.Subscribe(DatasetProducts, 7, func(interface{}) {
		panic("subscriber bug")
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.NotPanics(t, func() {
		_, err := dm.GetProducts(7, true)
		require.NoError(t, err)
	})
}

func TestDataManagerRejectsUnknownDataset(t *testing.T) {
	dm := newTestDataManager(&countingStore{})
	_, err := dm.Subscribe("ordersByMoonPhase", 7, func(interface{}) {})
	require.ErrorIs(t, err, ErrValidation)
}

func intp(v int) *int { return &v }
