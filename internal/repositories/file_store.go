package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"retail_pos_backend/internal/models"
)

// File names used by the local fallback store. Each collection is kept in
// its own JSON document so a corrupted file only loses one dataset.
const (
	productsFile      = "products.json"
	salesFile         = "sales.json"
	notificationsFile = "notifications.json"
	settingsFile      = "settings.json"
	usersFile         = "users.json"
)

// storedUser wraps a user with its password hash, which the model itself
// never serializes.
type storedUser struct {
	User         models.User `json:"user"`
	PasswordHash string      `json:"password_hash"`
}

type fileData struct {
	Products      []models.Product      `json:"products"`
	Sales         []models.Sale         `json:"sales"`
	Notifications []models.Notification `json:"notifications"`
	Settings      []models.Setting      `json:"settings"`
	Users         []storedUser          `json:"users"`
}

// fileStore is the offline fallback Store: all data lives in memory, guarded
// by one mutex, and every mutation rewrites the affected JSON file via a
// temp-file rename. WithinTx stages mutations against a snapshot so a failed
// sale never half-applies.
type fileStore struct {
	dir    string
	mu     sync.Mutex
	data   fileData
	parent *fileStore // non-nil on a transaction view; the base holds the lock
}

// NewFileStore opens (or creates) a file-backed Store rooted at dir.
func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data dir %s: %v", ErrDatabaseError, dir, err)
	}
	s := &fileStore{dir: dir}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileStore) base() *fileStore {
	if s.parent != nil {
		return s.parent
	}
	return s
}

// lock acquires the store mutex and returns the matching unlock. Inside a
// transaction view the base already holds the lock, so both are no-ops.
func (s *fileStore) lock() func() {
	if s.parent != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *fileStore) loadAll() error {
	load := func(name string, v interface{}) error {
		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", ErrDatabaseError, name, err)
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("%w: parsing %s: %v", ErrDatabaseError, name, err)
		}
		return nil
	}
	if err := load(productsFile, &s.data.Products); err != nil {
		return err
	}
	if err := load(salesFile, &s.data.Sales); err != nil {
		return err
	}
	if err := load(notificationsFile, &s.data.Notifications); err != nil {
		return err
	}
	if err := load(settingsFile, &s.data.Settings); err != nil {
		return err
	}
	return load(usersFile, &s.data.Users)
}

// persist writes one collection to disk atomically. On a transaction view it
// is a no-op; the base store persists everything when the transaction commits.
func (s *fileStore) persist(name string, v interface{}) error {
	if s.parent != nil {
		return nil
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrDatabaseError, name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrDatabaseError, name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", ErrDatabaseError, name, err)
	}
	return nil
}

func (s *fileStore) persistAll() error {
	if err := s.persist(productsFile, s.data.Products); err != nil {
		return err
	}
	if err := s.persist(salesFile, s.data.Sales); err != nil {
		return err
	}
	if err := s.persist(notificationsFile, s.data.Notifications); err != nil {
		return err
	}
	if err := s.persist(settingsFile, s.data.Settings); err != nil {
		return err
	}
	return s.persist(usersFile, s.data.Users)
}

func (s *fileStore) Products() ProductRepository           { return &fileProducts{s: s} }
func (s *fileStore) Sales() SaleRepository                 { return &fileSales{s: s} }
func (s *fileStore) Settings() SettingRepository           { return &fileSettings{s: s} }
func (s *fileStore) Notifications() NotificationRepository { return &fileNotifications{s: s} }
func (s *fileStore) Users() AuthRepository                 { return &fileUsers{s: s} }

// WithinTx snapshots the in-memory data, runs fn against a view that defers
// all persistence, and on error restores the snapshot so no partial write
// survives. On success every collection is flushed in one pass.
func (s *fileStore) WithinTx(fn func(Store) error) error {
	if s.parent != nil {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	backup, err := s.snapshot()
	if err != nil {
		return err
	}
	view := &fileStore{dir: s.dir, parent: s}
	if err := fn(view); err != nil {
		s.data = backup
		return err
	}
	return s.persistAll()
}

// snapshot deep-copies the data set through a JSON round trip.
func (s *fileStore) snapshot() (fileData, error) {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fileData{}, fmt.Errorf("%w: snapshotting data: %v", ErrDatabaseError, err)
	}
	var copied fileData
	if err := json.Unmarshal(raw, &copied); err != nil {
		return fileData{}, fmt.Errorf("%w: restoring snapshot: %v", ErrDatabaseError, err)
	}
	return copied, nil
}

// --- products ---

type fileProducts struct {
	s *fileStore
}

func (r *fileProducts) Create(product *models.Product) (int64, error) {
	s := r.s.base()
	defer r.s.lock()()

	var maxID int64
	for _, p := range s.data.Products {
		if p.UserID == product.UserID && strings.EqualFold(p.Name, product.Name) {
			return 0, fmt.Errorf("%w: product name %q already exists", ErrDuplicateKey, product.Name)
		}
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	now := time.Now()
	product.ID = maxID + 1
	product.CreatedAt = now
	product.UpdatedAt = now
	s.data.Products = append(s.data.Products, *product)
	if err := r.s.persistBase(productsFile, s.data.Products); err != nil {
		return 0, err
	}
	return product.ID, nil
}

func (r *fileProducts) GetByID(userID, id int64) (*models.Product, error) {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Products {
		if s.data.Products[i].ID == id && s.data.Products[i].UserID == userID {
			p := s.data.Products[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileProducts) GetAll(userID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	s := r.s.base()
	defer r.s.lock()()

	var matched []models.Product
	for _, p := range s.data.Products {
		if p.UserID == userID && productMatches(p, filters, time.Now()) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
	})
	total := len(matched)
	return paginateProducts(matched, filters.Page, filters.PageSize), total, nil
}

func (r *fileProducts) Update(product *models.Product) error {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Products {
		existing := &s.data.Products[i]
		if existing.ID == product.ID && existing.UserID == product.UserID {
			product.CreatedAt = existing.CreatedAt
			product.UpdatedAt = time.Now()
			*existing = *product
			return r.s.persistBase(productsFile, s.data.Products)
		}
	}
	return ErrNotFound
}

func (r *fileProducts) Delete(userID, id int64) error {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Products {
		if s.data.Products[i].ID == id && s.data.Products[i].UserID == userID {
			s.data.Products = append(s.data.Products[:i], s.data.Products[i+1:]...)
			return r.s.persistBase(productsFile, s.data.Products)
		}
	}
	return ErrNotFound
}

func (r *fileProducts) DecrementStock(userID, productID int64, qty int) (int, error) {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Products {
		p := &s.data.Products[i]
		if p.ID == productID && p.UserID == userID {
			if p.Quantity < qty {
				return 0, ErrStockBelowZero
			}
			p.Quantity -= qty
			p.UpdatedAt = time.Now()
			if err := r.s.persistBase(productsFile, s.data.Products); err != nil {
				return 0, err
			}
			return p.Quantity, nil
		}
	}
	return 0, ErrNotFound
}

func productMatches(p models.Product, filters models.ProductFilters, now time.Time) bool {
	if filters.Category != nil && *filters.Category != "" && p.Category != *filters.Category {
		return false
	}
	if filters.Supplier != nil && *filters.Supplier != "" {
		if p.Supplier == nil || *p.Supplier != *filters.Supplier {
			return false
		}
	}
	if filters.StockBucket != nil {
		switch *filters.StockBucket {
		case models.StockBucketOut:
			if p.Quantity != 0 {
				return false
			}
		case models.StockBucketLow:
			if p.Quantity == 0 || p.MinStockLevel == nil || p.Quantity > *p.MinStockLevel {
				return false
			}
		}
	}
	if filters.DatePreset != nil {
		if start, ok := datePresetStart(*filters.DatePreset, now); ok && p.CreatedAt.Before(start) {
			return false
		}
	}
	return true
}

func paginateProducts(items []models.Product, page, pageSize int) []models.Product {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []models.Product{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// persistBase persists against the base store unless this is a transaction
// view, in which case the write is deferred to commit.
func (s *fileStore) persistBase(name string, v interface{}) error {
	if s.parent != nil {
		return nil
	}
	return s.persist(name, v)
}

// --- sales ---

type fileSales struct {
	s *fileStore
}

func (r *fileSales) Create(sale *models.Sale) error {
	s := r.s.base()
	defer r.s.lock()()

	if sale.SaleTime.IsZero() {
		sale.SaleTime = time.Now()
	}
	sale.CreatedAt = time.Now()
	var maxItemID int64
	for _, existing := range s.data.Sales {
		for _, item := range existing.Items {
			if item.ID > maxItemID {
				maxItemID = item.ID
			}
		}
	}
	for i := range sale.Items {
		maxItemID++
		sale.Items[i].ID = maxItemID
		sale.Items[i].SaleID = sale.ID
	}
	s.data.Sales = append(s.data.Sales, *sale)
	return r.s.persistBase(salesFile, s.data.Sales)
}

func (r *fileSales) GetAll(userID int64, filters models.SaleFilters) ([]models.Sale, int, error) {
	s := r.s.base()
	defer r.s.lock()()

	var matched []models.Sale
	for _, sale := range s.data.Sales {
		if sale.UserID != userID {
			continue
		}
		if filters.PaymentMethod != nil && *filters.PaymentMethod != "" && sale.PaymentMethod != *filters.PaymentMethod {
			continue
		}
		if filters.DatePreset != nil {
			if start, ok := datePresetStart(*filters.DatePreset, time.Now()); ok && sale.SaleTime.Before(start) {
				continue
			}
		}
		matched = append(matched, sale)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SaleTime.After(matched[j].SaleTime)
	})
	total := len(matched)
	return paginateSales(matched, filters.Page, filters.PageSize), total, nil
}

func (r *fileSales) GetByID(userID, id int64) (*models.Sale, error) {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Sales {
		if s.data.Sales[i].ID == id && s.data.Sales[i].UserID == userID {
			sale := s.data.Sales[i]
			return &sale, nil
		}
	}
	return nil, ErrNotFound
}

func paginateSales(items []models.Sale, page, pageSize int) []models.Sale {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []models.Sale{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- settings ---

type fileSettings struct {
	s *fileStore
}

func (r *fileSettings) GetAll(userID int64) ([]models.Setting, error) {
	s := r.s.base()
	defer r.s.lock()()

	var out []models.Setting
	for _, st := range s.data.Settings {
		if st.UserID == userID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettingKey < out[j].SettingKey })
	return out, nil
}

func (r *fileSettings) Get(userID int64, key string) (*models.Setting, error) {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Settings {
		if s.data.Settings[i].UserID == userID && s.data.Settings[i].SettingKey == key {
			st := s.data.Settings[i]
			return &st, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileSettings) Upsert(setting *models.Setting) error {
	s := r.s.base()
	defer r.s.lock()()

	now := time.Now()
	for i := range s.data.Settings {
		existing := &s.data.Settings[i]
		if existing.UserID == setting.UserID && existing.SettingKey == setting.SettingKey {
			existing.SettingValue = setting.SettingValue
			if setting.Description != nil {
				existing.Description = setting.Description
			}
			existing.UpdatedAt = now
			*setting = *existing
			return r.s.persistBase(settingsFile, s.data.Settings)
		}
	}
	var maxID int64
	for _, st := range s.data.Settings {
		if st.ID > maxID {
			maxID = st.ID
		}
	}
	setting.ID = maxID + 1
	setting.CreatedAt = now
	setting.UpdatedAt = now
	s.data.Settings = append(s.data.Settings, *setting)
	return r.s.persistBase(settingsFile, s.data.Settings)
}

func (r *fileSettings) Delete(userID int64, key string) error {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Settings {
		if s.data.Settings[i].UserID == userID && s.data.Settings[i].SettingKey == key {
			s.data.Settings = append(s.data.Settings[:i], s.data.Settings[i+1:]...)
			return r.s.persistBase(settingsFile, s.data.Settings)
		}
	}
	return ErrNotFound
}

// --- notifications ---

type fileNotifications struct {
	s *fileStore
}

func (r *fileNotifications) LoadAll(userID int64) ([]models.Notification, error) {
	s := r.s.base()
	defer r.s.lock()()

	var out []models.Notification
	for _, n := range s.data.Notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fileNotifications) SaveAll(userID int64, notifications []models.Notification) error {
	s := r.s.base()
	defer r.s.lock()()

	kept := s.data.Notifications[:0]
	for _, n := range s.data.Notifications {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	s.data.Notifications = append(kept, notifications...)
	return r.s.persistBase(notificationsFile, s.data.Notifications)
}

// --- users ---

type fileUsers struct {
	s *fileStore
}

func (r *fileUsers) CreateUser(user *models.User, hashedPassword string) (int64, error) {
	s := r.s.base()
	defer r.s.lock()()

	var maxID int64
	for _, u := range s.data.Users {
		if strings.EqualFold(u.User.Username, user.Username) {
			return 0, fmt.Errorf("%w: username %q already exists", ErrDuplicateKey, user.Username)
		}
		if u.User.ID > maxID {
			maxID = u.User.ID
		}
	}
	now := time.Now()
	user.ID = maxID + 1
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	s.data.Users = append(s.data.Users, storedUser{User: *user, PasswordHash: hashedPassword})
	if err := r.s.persistBase(usersFile, s.data.Users); err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (r *fileUsers) FindUserByUsername(username string) (*models.User, string, error) {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Users {
		if strings.EqualFold(s.data.Users[i].User.Username, username) {
			u := s.data.Users[i].User
			return &u, s.data.Users[i].PasswordHash, nil
		}
	}
	return nil, "", ErrNotFound
}

func (r *fileUsers) FindUserByID(userID int64) (*models.User, error) {
	s := r.s.base()
	defer r.s.lock()()

	for i := range s.data.Users {
		if s.data.Users[i].User.ID == userID {
			u := s.data.Users[i].User
			return &u, nil
		}
	}
	return nil, ErrNotFound
}
