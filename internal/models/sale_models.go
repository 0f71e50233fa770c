package models

import "time"

// Payment method values accepted on a sale.
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
	PaymentMethodUPI  = "upi"
)

// Sale is an immutable, append-only record of a completed checkout.
// Subtotal is the sum of line totals; Total = Subtotal + GSTAmount.
type Sale struct {
	ID            int64      `json:"id" db:"id"`
	UserID        int64      `json:"user_id" db:"user_id"`
	Items         []SaleItem `json:"items"`
	Subtotal      float64    `json:"subtotal" db:"subtotal"`
	GSTAmount     float64    `json:"gst_amount" db:"gst_amount"`
	Total         float64    `json:"total" db:"total"`
	CustomerName  *string    `json:"customer_name,omitempty" db:"customer_name"`
	PaymentMethod string     `json:"payment_method" db:"payment_method"`
	SaleTime      time.Time  `json:"sale_time" db:"sale_time"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// SaleItem is one line of a sale. ProductName is a snapshot taken at sale
// time so the history survives later catalog edits and deletes.
type SaleItem struct {
	ID          int64   `json:"id" db:"id"`
	SaleID      int64   `json:"sale_id" db:"sale_id"`
	ProductID   int64   `json:"product_id" db:"product_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	Quantity    int     `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	Total       float64 `json:"total" db:"total"`
}

// SaleFilters defines the available filters for querying sales history.
type SaleFilters struct {
	PaymentMethod *string `form:"payment_method"`
	DatePreset    *string `form:"date_preset"` // all|today|week|month
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}
