package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/pkg/utils"

	evbus "github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
)

// Dataset names served by the DataManager.
const (
	DatasetProducts       = "products"
	DatasetDashboardStats = "dashboardStats"
	DatasetStockAlerts    = "stockAlerts"
)

// Per-dataset cache lifetimes. Stats go stale fastest because every sale
// moves them; the raw product list is refreshed explicitly after mutations.
var datasetTTLs = map[string]time.Duration{
	DatasetProducts:       5 * time.Minute,
	DatasetDashboardStats: 1 * time.Minute,
	DatasetStockAlerts:    2 * time.Minute,
}

// activeUserWindow is how long after their last read a user keeps getting
// background cache warm-ups.
const activeUserWindow = 10 * time.Minute

type cacheEntry struct {
	value     interface{}
	fetchedAt time.Time
}

// DataManager is the read-side cache between handlers and the store. Each
// (dataset, user) pair is cached with its own TTL, refreshed in the
// background for recently active users, and fanned out to subscribers on
// every update. Concurrent refreshes of the same key are fenced by a
// per-key generation counter so a slow, superseded fetch can never clobber
// a newer result.
type DataManager interface {
	GetProducts(userID int64, force bool) ([]models.Product, error)
	GetDashboardStats(userID int64, force bool) (*models.DashboardStats, error)
	GetStockAlerts(userID int64, force bool) ([]models.StockAlert, error)

	// Subscribe registers fn for one dataset of one account and replays the
	// cached value synchronously when present. The returned func detaches.
	Subscribe(dataset string, userID int64, fn func(interface{})) (func(), error)

	// RefreshAll force-refreshes every dataset for the account. Called by
	// write paths after a mutation.
	RefreshAll(userID int64)

	Start()
	Stop()
}

type dataManager struct {
	store repositories.Store
	bus   evbus.Bus
	sched *cron.Cron
	ttls  map[string]time.Duration

	mu      sync.Mutex
	entries map[string]*cacheEntry
	seq     map[string]uint64    // per-key refresh generation, for fencing
	active  map[int64]time.Time  // userID -> last read
}

func NewDataManager(store repositories.Store, bus evbus.Bus) DataManager {
	return NewDataManagerWithTTLs(store, bus, nil)
}

// NewDataManagerWithTTLs overrides individual dataset TTLs; datasets absent
// from the map keep their defaults.
func NewDataManagerWithTTLs(store repositories.Store, bus evbus.Bus, overrides map[string]time.Duration) DataManager {
	ttls := make(map[string]time.Duration, len(datasetTTLs))
	for dataset, ttl := range datasetTTLs {
		ttls[dataset] = ttl
	}
	for dataset, ttl := range overrides {
		if _, ok := ttls[dataset]; ok {
			ttls[dataset] = ttl
		}
	}
	return &dataManager{
		store:   store,
		bus:     bus,
		sched:   cron.New(),
		ttls:    ttls,
		entries: make(map[string]*cacheEntry),
		seq:     make(map[string]uint64),
		active:  make(map[int64]time.Time),
	}
}

func cacheKey(dataset string, userID int64) string {
	return fmt.Sprintf("%s:%d", dataset, userID)
}

func validDataset(dataset string) bool {
	_, ok := datasetTTLs[dataset]
	return ok
}

// Start launches the background warm-up loop.
func (m *dataManager) Start() {
	_, err := m.sched.AddFunc("@every 30s", m.warmActiveUsers)
	if err != nil {
		utils.LogError(err, "failed to schedule cache warm-up")
		return
	}
	m.sched.Start()
}

func (m *dataManager) Stop() {
	ctx := m.sched.Stop()
	<-ctx.Done()
}

func (m *dataManager) GetProducts(userID int64, force bool) ([]models.Product, error) {
	v, err := m.get(DatasetProducts, userID, force)
	if err != nil {
		return nil, err
	}
	return v.([]models.Product), nil
}

func (m *dataManager) GetDashboardStats(userID int64, force bool) (*models.DashboardStats, error) {
	v, err := m.get(DatasetDashboardStats, userID, force)
	if err != nil {
		return nil, err
	}
	return v.(*models.DashboardStats), nil
}

func (m *dataManager) GetStockAlerts(userID int64, force bool) ([]models.StockAlert, error) {
	v, err := m.get(DatasetStockAlerts, userID, force)
	if err != nil {
		return nil, err
	}
	return v.([]models.StockAlert), nil
}

// get serves a dataset from cache when fresh, otherwise refreshes it.
// On refresh failure the previous value is served stale, or an empty
// collection when nothing was ever cached; reads never fail on a store
// outage, they degrade and log.
func (m *dataManager) get(dataset string, userID int64, force bool) (interface{}, error) {
	if !validDataset(dataset) {
		return nil, fmt.Errorf("%w: unknown dataset %q", ErrValidation, dataset)
	}
	key := cacheKey(dataset, userID)

	m.mu.Lock()
	m.active[userID] = time.Now()
	if !force {
		if e, ok := m.entries[key]; ok && time.Since(e.fetchedAt) < m.ttls[dataset] {
			v := e.value
			m.mu.Unlock()
			return v, nil
		}
	}
	m.seq[key]++
	gen := m.seq[key]
	m.mu.Unlock()

	value, err := m.fetch(dataset, userID)

	m.mu.Lock()
	if err != nil {
		if e, ok := m.entries[key]; ok {
			v := e.value
			m.mu.Unlock()
			utils.LogWarn("serving stale dataset after refresh failure", map[string]interface{}{
				"dataset": dataset, "user_id": userID, "error": err.Error(),
			})
			return v, nil
		}
		m.mu.Unlock()
		utils.LogWarn("dataset fetch failed with no cached value, serving empty", map[string]interface{}{
			"dataset": dataset, "user_id": userID, "error": err.Error(),
		})
		return emptyDataset(dataset), nil
	}
	if m.seq[key] != gen {
		// A newer refresh started while this one was in flight; its result
		// wins and this one is discarded.
		if e, ok := m.entries[key]; ok {
			v := e.value
			m.mu.Unlock()
			return v, nil
		}
		m.mu.Unlock()
		return value, nil
	}
	m.entries[key] = &cacheEntry{value: value, fetchedAt: time.Now()}
	m.mu.Unlock()

	m.bus.Publish(key, value)
	return value, nil
}

// emptyDataset is what a read returns when the store is down and there is
// no cached value to fall back on.
func emptyDataset(dataset string) interface{} {
	switch dataset {
	case DatasetDashboardStats:
		return &models.DashboardStats{}
	case DatasetStockAlerts:
		return []models.StockAlert{}
	}
	return []models.Product{}
}

// fetch loads a dataset from the store. Stats and alerts are derived from
// the full product list; they are never stored separately.
func (m *dataManager) fetch(dataset string, userID int64) (interface{}, error) {
	products, _, err := m.store.Products().GetAll(userID, models.ProductFilters{})
	if err != nil {
		return nil, err
	}
	switch dataset {
	case DatasetProducts:
		return products, nil
	case DatasetDashboardStats:
		return computeDashboardStats(products), nil
	case DatasetStockAlerts:
		return computeStockAlerts(products), nil
	}
	return nil, fmt.Errorf("%w: unknown dataset %q", ErrValidation, dataset)
}

func (m *dataManager) Subscribe(dataset string, userID int64, fn func(interface{})) (func(), error) {
	if !validDataset(dataset) {
		return nil, fmt.Errorf("%w: unknown dataset %q", ErrValidation, dataset)
	}
	wrapped := func(v interface{}) {
		defer func() {
			if r := recover(); r != nil {
				utils.LogWarn("dataset subscriber panicked", map[string]interface{}{
					"dataset": dataset, "user_id": userID, "panic": fmt.Sprint(r),
				})
			}
		}()
		fn(v)
	}
	key := cacheKey(dataset, userID)
	if err := m.bus.Subscribe(key, wrapped); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.active[userID] = time.Now()
	var cached interface{}
	var has bool
	if e, ok := m.entries[key]; ok {
		cached, has = e.value, true
	}
	m.mu.Unlock()
	if has {
		wrapped(cached)
	}

	return func() {
		if err := m.bus.Unsubscribe(key, wrapped); err != nil {
			utils.LogDebug("dataset unsubscribe", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}, nil
}

func (m *dataManager) RefreshAll(userID int64) {
	for dataset := range datasetTTLs {
		if _, err := m.get(dataset, userID, true); err != nil {
			utils.LogWarn("dataset refresh failed", map[string]interface{}{
				"dataset": dataset, "user_id": userID, "error": err.Error(),
			})
		}
	}
}

// warmActiveUsers re-fetches expired datasets for users seen recently, so an
// open dashboard keeps moving without its own polling.
func (m *dataManager) warmActiveUsers() {
	m.mu.Lock()
	now := time.Now()
	var users []int64
	for userID, last := range m.active {
		if now.Sub(last) <= activeUserWindow {
			users = append(users, userID)
		} else {
			delete(m.active, userID)
		}
	}
	var expired [][2]interface{}
	for _, userID := range users {
		for dataset, ttl := range m.ttls {
			e, ok := m.entries[cacheKey(dataset, userID)]
			if !ok || now.Sub(e.fetchedAt) >= ttl {
				expired = append(expired, [2]interface{}{dataset, userID})
			}
		}
	}
	m.mu.Unlock()

	for _, pair := range expired {
		if _, err := m.get(pair[0].(string), pair[1].(int64), true); err != nil {
			utils.LogDebug("cache warm-up fetch failed", map[string]interface{}{
				"dataset": pair[0], "user_id": pair[1], "error": err.Error(),
			})
		}
	}
}

func computeDashboardStats(products []models.Product) *models.DashboardStats {
	stats := &models.DashboardStats{TotalProducts: len(products)}
	categories := make(map[string]struct{})
	suppliers := make(map[string]struct{})
	var priceSum float64
	for _, p := range products {
		stats.InventoryValue += p.Price * float64(p.Quantity)
		priceSum += p.Price
		if p.Quantity == 0 {
			stats.OutOfStockCount++
		} else if p.MinStockLevel != nil && p.Quantity <= *p.MinStockLevel {
			stats.LowStockCount++
		}
		if p.Category != "" {
			categories[p.Category] = struct{}{}
		}
		if p.Supplier != nil && *p.Supplier != "" {
			suppliers[*p.Supplier] = struct{}{}
		}
	}
	stats.CategoryCount = len(categories)
	stats.SupplierCount = len(suppliers)
	if len(products) > 0 {
		stats.AveragePrice = priceSum / float64(len(products))
	}
	return stats
}

func computeStockAlerts(products []models.Product) []models.StockAlert {
	alerts := make([]models.StockAlert, 0)
	for _, p := range products {
		minLevel := 0
		if p.MinStockLevel != nil {
			minLevel = *p.MinStockLevel
		}
		if p.Quantity == 0 {
			alerts = append(alerts, models.StockAlert{
				ProductID:     p.ID,
				ProductName:   p.Name,
				Quantity:      0,
				MinStockLevel: minLevel,
				Severity:      models.AlertSeverityCritical,
				StockRatio:    0,
			})
			continue
		}
		if p.MinStockLevel == nil || p.Quantity > minLevel {
			continue
		}
		// Anything still in stock is a low alert; critical is reserved for
		// zero quantity. The ratio only drives sort order.
		alerts = append(alerts, models.StockAlert{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Quantity:      p.Quantity,
			MinStockLevel: minLevel,
			Severity:      models.AlertSeverityLow,
			StockRatio:    float64(p.Quantity) / float64(minLevel),
		})
	}
	// Most depleted first.
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].StockRatio != alerts[j].StockRatio {
			return alerts[i].StockRatio < alerts[j].StockRatio
		}
		return alerts[i].ProductName < alerts[j].ProductName
	})
	return alerts
}
