package models

import "time"

// Product represents an item in the store catalog. Every product belongs to
// exactly one account (UserID); stock quantity is never negative.
type Product struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Name          string    `json:"name" db:"name" binding:"required"`
	Category      string    `json:"category" db:"category"`
	Price         float64   `json:"price" db:"price" binding:"required,gte=0"`
	Quantity      int       `json:"quantity" db:"quantity" binding:"gte=0"`
	MinStockLevel *int      `json:"min_stock_level,omitempty" db:"min_stock_level"`
	MaxStockLevel *int      `json:"max_stock_level,omitempty" db:"max_stock_level"`
	Supplier      *string   `json:"supplier,omitempty" db:"supplier"`
	Location      *string   `json:"location,omitempty" db:"location"`
	Unit          *string   `json:"unit,omitempty" db:"unit"`
	TaxRate       *float64  `json:"tax_rate,omitempty" db:"tax_rate"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Stock bucket filter values.
const (
	StockBucketAll = "all"
	StockBucketLow = "low"
	StockBucketOut = "out"
)

// Date range preset filter values.
const (
	DatePresetAll   = "all"
	DatePresetToday = "today"
	DatePresetWeek  = "week"
	DatePresetMonth = "month"
)

// ProductFilters defines the available filters for querying products.
// Each dimension is an explicit field validated at the handler boundary.
type ProductFilters struct {
	Category    *string `form:"category"`
	Supplier    *string `form:"supplier"`
	StockBucket *string `form:"stock_bucket"` // all|low|out
	DatePreset  *string `form:"date_preset"`  // all|today|week|month
	Page        int     `form:"page"`
	PageSize    int     `form:"page_size"`
}

// StockAlert severity values.
const (
	AlertSeverityCritical = "critical"
	AlertSeverityLow      = "low"
)

// StockAlert flags a product at or below its minimum stock threshold.
// Alerts are derived from the product list on every refresh, never persisted.
type StockAlert struct {
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Quantity      int     `json:"quantity"`
	MinStockLevel int     `json:"min_stock_level"`
	Severity      string  `json:"severity"` // critical|low
	StockRatio    float64 `json:"stock_ratio"`
}
