package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"retail_pos_backend/internal/models"
)

// ProductRepository is the store adapter contract for the product catalog.
type ProductRepository interface {
	Create(product *models.Product) (int64, error)
	GetByID(userID, id int64) (*models.Product, error)
	GetAll(userID int64, filters models.ProductFilters) ([]models.Product, int, error)
	Update(product *models.Product) error
	Delete(userID, id int64) error
	// DecrementStock subtracts qty from the product quantity. The update is
	// guarded by quantity >= qty so it can never drive stock negative;
	// ErrStockBelowZero is returned instead and nothing is written.
	DecrementStock(userID, productID int64, qty int) (int, error)
}

// SaleRepository is the store adapter contract for the append-only sales history.
type SaleRepository interface {
	Create(sale *models.Sale) error
	GetAll(userID int64, filters models.SaleFilters) ([]models.Sale, int, error)
	GetByID(userID, id int64) (*models.Sale, error)
}

// SettingRepository is the store adapter contract for per-account settings.
type SettingRepository interface {
	GetAll(userID int64) ([]models.Setting, error)
	Get(userID int64, key string) (*models.Setting, error)
	Upsert(setting *models.Setting) error
	Delete(userID int64, key string) error
}

// NotificationRepository persists the capped notification list as a whole.
type NotificationRepository interface {
	LoadAll(userID int64) ([]models.Notification, error)
	SaveAll(userID int64, notifications []models.Notification) error
}

// AuthRepository is the store adapter contract for user accounts.
type AuthRepository interface {
	CreateUser(user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)
}

// Store bundles all repositories behind one handle so services stay agnostic
// of whether data lives in Postgres or in the local file fallback.
// WithinTx runs fn against a store view whose writes either all apply or none
// do; it is the unit the sale coordinator uses for its stock decrements.
type Store interface {
	Products() ProductRepository
	Sales() SaleRepository
	Settings() SettingRepository
	Notifications() NotificationRepository
	Users() AuthRepository
	WithinTx(fn func(Store) error) error
}

// --- SQL-backed Store ---

type sqlStore struct {
	db   *sql.DB
	exec SQLExecutor // *sql.DB normally, *sql.Tx inside WithinTx
}

// NewSQLStore creates a Store backed by a PostgreSQL connection pool.
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{db: db, exec: db}
}

func (s *sqlStore) Products() ProductRepository {
	return &productRepository{exec: s.exec}
}

func (s *sqlStore) Sales() SaleRepository {
	return &saleRepository{exec: s.exec}
}

func (s *sqlStore) Settings() SettingRepository {
	return &settingRepository{exec: s.exec}
}

func (s *sqlStore) Notifications() NotificationRepository {
	return &notificationRepository{exec: s.exec}
}

func (s *sqlStore) Users() AuthRepository {
	return &authRepository{exec: s.exec}
}

func (s *sqlStore) WithinTx(fn func(Store) error) error {
	if _, alreadyTx := s.exec.(*sql.Tx); alreadyTx {
		return fn(s)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(&sqlStore{db: s.db, exec: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}

// datePresetStart resolves a date range preset to its inclusive lower bound.
// The second return value is false for "all" (no bound) and unknown presets.
func datePresetStart(preset string, now time.Time) (time.Time, bool) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch preset {
	case models.DatePresetToday:
		return startOfDay, true
	case models.DatePresetWeek:
		return startOfDay.AddDate(0, 0, -7), true
	case models.DatePresetMonth:
		return startOfDay.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}
