package services

import (
	"testing"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	"github.com/stretchr/testify/require"
)

func newSettingsFixture(t *testing.T) SettingsService {
	t.Helper()
	store, err := repositories.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewSettingsService(store)
}

func TestGSTRateDefaultsWhenUnset(t *testing.T) {
	ss := newSettingsFixture(t)
	require.InDelta(t, DefaultGSTRate, ss.GSTRate(1), 0.0001)
}

func TestGSTRateFromSetting(t *testing.T) {
	ss := newSettingsFixture(t)

	_, err := ss.Set(1, UpdateSettingRequest{SettingKey: models.SettingGSTRate, SettingValue: "0.12"})
	require.NoError(t, err)
	require.InDelta(t, 0.12, ss.GSTRate(1), 0.0001)

	// Another account still sees the default.
	require.InDelta(t, DefaultGSTRate, ss.GSTRate(2), 0.0001)
}

func TestGSTRateValidation(t *testing.T) {
	ss := newSettingsFixture(t)

	_, err := ss.Set(1, UpdateSettingRequest{SettingKey: models.SettingGSTRate, SettingValue: "eighteen percent"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = ss.Set(1, UpdateSettingRequest{SettingKey: models.SettingGSTRate, SettingValue: "1.5"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSettingsLifecycle(t *testing.T) {
	ss := newSettingsFixture(t)

	_, err := ss.Set(1, UpdateSettingRequest{SettingKey: models.SettingShopName, SettingValue: "Sharma General Store"})
	require.NoError(t, err)

	got, err := ss.Get(1, models.SettingShopName)
	require.NoError(t, err)
	require.Equal(t, "Sharma General Store", *got.SettingValue)

	all, err := ss.GetAll(1)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, ss.Delete(1, models.SettingShopName))
	_, err = ss.Get(1, models.SettingShopName)
	require.ErrorIs(t, err, ErrSettingNotFound)
	require.ErrorIs(t, ss.Delete(1, models.SettingShopName), ErrSettingNotFound)
}

func TestLowStockWebhookURL(t *testing.T) {
	ss := newSettingsFixture(t)
	require.Empty(t, ss.LowStockWebhookURL(1))

	_, err := ss.Set(1, UpdateSettingRequest{
		SettingKey:   models.SettingLowStockWebhook,
		SettingValue: "https://example.com/hooks/stock",
	})
	require.NoError(t, err)
	require.Equal(t, "https://example.com/hooks/stock", ss.LowStockWebhookURL(1))
}
