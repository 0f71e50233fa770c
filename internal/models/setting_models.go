package models

import "time"

// Well-known setting keys.
const (
	SettingGSTRate          = "gst_rate"
	SettingShopName         = "shop_name"
	SettingShopAddress      = "shop_address"
	SettingShopPhone        = "shop_phone"
	SettingLowStockWebhook  = "low_stock_webhook_url"
	SettingNotifySound      = "notify_sound_enabled"
)

// Setting represents a per-account key-value configuration entry
// (business profile, tax rate, feature flags).
type Setting struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	SettingKey   string    `json:"setting_key" db:"setting_key" binding:"required"`
	SettingValue *string   `json:"setting_value,omitempty" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
