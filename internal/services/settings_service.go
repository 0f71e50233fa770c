package services

import (
	"errors"
	"fmt"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	"github.com/spf13/cast"
)

// DefaultGSTRate applies when an account has no gst_rate setting stored.
const DefaultGSTRate = 0.18

// UpdateSettingRequest sets one key for the calling account.
type UpdateSettingRequest struct {
	SettingKey   string  `json:"setting_key" binding:"required"`
	SettingValue string  `json:"setting_value" binding:"required"`
	Description  *string `json:"description"`
}

// SettingsService manages per-account configuration: business profile,
// GST rate, low-stock webhook.
type SettingsService interface {
	GetAll(userID int64) ([]models.Setting, error)
	Get(userID int64, key string) (*models.Setting, error)
	Set(userID int64, req UpdateSettingRequest) (*models.Setting, error)
	Delete(userID int64, key string) error

	// GSTRate returns the account's tax rate as a fraction (0.18 = 18%).
	// Falls back to DefaultGSTRate when unset or unreadable.
	GSTRate(userID int64) float64
	// LowStockWebhookURL returns the configured webhook endpoint, or "".
	LowStockWebhookURL(userID int64) string
}

type settingsService struct {
	store repositories.Store
}

func NewSettingsService(store repositories.Store) SettingsService {
	return &settingsService{store: store}
}

func (s *settingsService) GetAll(userID int64) ([]models.Setting, error) {
	return s.store.Settings().GetAll(userID)
}

func (s *settingsService) Get(userID int64, key string) (*models.Setting, error) {
	setting, err := s.store.Settings().Get(userID, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return setting, nil
}

func (s *settingsService) Set(userID int64, req UpdateSettingRequest) (*models.Setting, error) {
	if err := validateSetting(req.SettingKey, req.SettingValue); err != nil {
		return nil, err
	}
	value := req.SettingValue
	setting := &models.Setting{
		UserID:       userID,
		SettingKey:   req.SettingKey,
		SettingValue: &value,
		Description:  req.Description,
	}
	if err := s.store.Settings().Upsert(setting); err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *settingsService) Delete(userID int64, key string) error {
	err := s.store.Settings().Delete(userID, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrSettingNotFound
	}
	return err
}

func (s *settingsService) GSTRate(userID int64) float64 {
	setting, err := s.store.Settings().Get(userID, models.SettingGSTRate)
	if err != nil || setting.SettingValue == nil {
		return DefaultGSTRate
	}
	rate, err := cast.ToFloat64E(*setting.SettingValue)
	if err != nil || rate < 0 || rate > 1 {
		return DefaultGSTRate
	}
	return rate
}

func (s *settingsService) LowStockWebhookURL(userID int64) string {
	setting, err := s.store.Settings().Get(userID, models.SettingLowStockWebhook)
	if err != nil || setting.SettingValue == nil {
		return ""
	}
	return *setting.SettingValue
}

func validateSetting(key, value string) error {
	switch key {
	case models.SettingGSTRate:
		rate, err := cast.ToFloat64E(value)
		if err != nil {
			return fmt.Errorf("%w: gst_rate must be a number, got %q", ErrValidation, value)
		}
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%w: gst_rate must be between 0 and 1, got %v", ErrValidation, rate)
		}
	case models.SettingNotifySound:
		if _, err := cast.ToBoolE(value); err != nil {
			return fmt.Errorf("%w: %s must be a boolean, got %q", ErrValidation, key, value)
		}
	}
	return nil
}
