package models

// DashboardStats holds the derived inventory totals shown on the dashboard.
// Computed from the product list at read time, never stored.
type DashboardStats struct {
	TotalProducts  int     `json:"total_products"`
	InventoryValue float64 `json:"inventory_value"`
	LowStockCount  int     `json:"low_stock_count"`
	OutOfStockCount int    `json:"out_of_stock_count"`
	CategoryCount  int     `json:"category_count"`
	SupplierCount  int     `json:"supplier_count"`
	AveragePrice   float64 `json:"average_price"`
}
