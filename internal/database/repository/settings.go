package repository

import (
	"context"
	"database/sql"
)

// Setting keys.
const (
	SettingBaseCurrency         = "base_currency"
	SettingBiometricGateEnabled = "biometric_gate_enabled"
	SettingDriveFolderID        = "drive_folder_id"
)

// SettingsRepo handles the flat key/value app_settings table.
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Set upserts a setting. A nil value stores NULL.
func (r *SettingsRepo) Set(ctx context.Context, key string, value *string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO app_settings(key, value) VALUES(?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Get returns the stored value and whether the key exists. A present key with
// a NULL value comes back as (nil, true, nil); an absent key as
// (nil, false, nil).
func (r *SettingsRepo) Get(ctx context.Context, key string) (*string, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key)
	var v sql.NullString
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !v.Valid {
		return nil, true, nil
	}
	return &v.String, true, nil
}

// GetAll returns every setting; NULL values map to nil.
func (r *SettingsRepo) GetAll(ctx context.Context) (map[string]*string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]*string{}
	for rows.Next() {
		var key string
		var v sql.NullString
		if err := rows.Scan(&key, &v); err != nil {
			return nil, err
		}
		if v.Valid {
			val := v.String
			out[key] = &val
		} else {
			out[key] = nil
		}
	}
	return out, rows.Err()
}

// Delete removes a setting. Idempotent.
func (r *SettingsRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM app_settings WHERE key = ?`, key)
	return err
}
