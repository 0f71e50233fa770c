package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_pos_backend/internal/models"
)

type settingRepository struct {
	exec SQLExecutor
}

func (r *settingRepository) GetAll(userID int64) ([]models.Setting, error) {
	settings := []models.Setting{}
	query := `SELECT id, user_id, setting_key, setting_value, description, created_at, updated_at
	          FROM settings
	          WHERE user_id = $1
	          ORDER BY setting_key`
	rows, err := r.exec.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.ID, &s.UserID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning setting: %v", ErrDatabaseError, err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating settings: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingRepository) Get(userID int64, key string) (*models.Setting, error) {
	setting := &models.Setting{}
	query := `SELECT id, user_id, setting_key, setting_value, description, created_at, updated_at
	          FROM settings
	          WHERE user_id = $1 AND setting_key = $2`
	err := r.exec.QueryRow(query, userID, key).Scan(
		&setting.ID, &setting.UserID, &setting.SettingKey, &setting.SettingValue,
		&setting.Description, &setting.CreatedAt, &setting.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting setting '%s': %v", ErrDatabaseError, key, err)
	}
	return setting, nil
}

func (r *settingRepository) Upsert(setting *models.Setting) error {
	query := `INSERT INTO settings (user_id, setting_key, setting_value, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $5)
	          ON CONFLICT (user_id, setting_key)
	          DO UPDATE SET setting_value = EXCLUDED.setting_value,
	                        description = COALESCE(EXCLUDED.description, settings.description),
	                        updated_at = EXCLUDED.updated_at
	          RETURNING id`
	err := r.exec.QueryRow(query,
		setting.UserID, setting.SettingKey, setting.SettingValue, setting.Description, time.Now(),
	).Scan(&setting.ID)
	if err != nil {
		return fmt.Errorf("%w: upserting setting '%s': %v", ErrDatabaseError, setting.SettingKey, err)
	}
	return nil
}

func (r *settingRepository) Delete(userID int64, key string) error {
	query := `DELETE FROM settings WHERE user_id = $1 AND setting_key = $2`
	result, err := r.exec.Exec(query, userID, key)
	if err != nil {
		return fmt.Errorf("%w: deleting setting '%s': %v", ErrDatabaseError, key, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
