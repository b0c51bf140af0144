package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// Migration is one versioned schema change. Versions are strictly increasing
// and a released migration is never edited; schema evolution always adds a
// new migration with a higher version.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

const ledgerDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// migrations is the full ordered history. Each entry runs in its own
// transaction together with its ledger insert.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Statements: []string{
			`CREATE TABLE categories (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE expenses (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				description     TEXT NOT NULL,
				amount_native   REAL NOT NULL CHECK (amount_native > 0),
				currency_code   TEXT NOT NULL CHECK (length(currency_code) = 3),
				fx_rate_to_base REAL NOT NULL CHECK (fx_rate_to_base > 0),
				base_amount     REAL NOT NULL CHECK (base_amount >= 0),
				date            TEXT NOT NULL CHECK (length(date) = 10),
				category_id     INTEGER REFERENCES categories(id) ON DELETE SET NULL,
				notes           TEXT,
				created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE app_settings (
				key    TEXT PRIMARY KEY,
				value  TEXT
			)`,
			`CREATE INDEX idx_expenses_date ON expenses(date)`,
			`CREATE INDEX idx_expenses_category ON expenses(category_id)`,
		},
	},
	{
		Version: 2,
		Name:    "add_export_queue",
		Statements: []string{
			`CREATE TABLE export_queue (
				id          TEXT PRIMARY KEY,
				filename    TEXT NOT NULL,
				file_path   TEXT NOT NULL,
				status      TEXT NOT NULL CHECK (status IN ('pending','uploading','completed','failed')),
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX idx_export_queue_status ON export_queue(status)`,
		},
	},
	{
		Version: 3,
		Name:    "add_export_queue_upload_fields",
		Statements: []string{
			`ALTER TABLE export_queue ADD COLUMN uploaded_at DATETIME`,
			`ALTER TABLE export_queue ADD COLUMN drive_file_id TEXT`,
			`CREATE INDEX idx_export_queue_uploaded_at ON export_queue(uploaded_at)`,
			`CREATE INDEX idx_export_queue_drive_file_id ON export_queue(drive_file_id)`,
		},
	},
	{
		Version: 4,
		Name:    "add_export_queue_file_uri",
		Statements: []string{
			`ALTER TABLE export_queue ADD COLUMN file_uri TEXT`,
			`UPDATE export_queue SET file_uri = file_path WHERE file_uri IS NULL`,
		},
	},
}

// LatestVersion returns the highest version in the static migration list
// without touching storage.
func LatestVersion() int {
	latest := 0
	for _, m := range migrations {
		if m.Version > latest {
			latest = m.Version
		}
	}
	return latest
}

// CurrentVersion reads the highest applied version from the ledger, 0 for a
// fresh database.
func CurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	if _, err := db.ExecContext(ctx, ledgerDDL); err != nil {
		return 0, fmt.Errorf("ensure ledger: %w", err)
	}
	var v int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Migrate brings the database schema to the latest version, applying any
// missing migrations strictly in ascending order. Each migration runs
// all-or-nothing: its statements and the ledger insert commit together, so a
// failure leaves the database at the last fully applied version. Returns the
// number of migrations applied; zero means already up to date.
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return 0, err
	}

	// declaration order is not trusted; apply strictly ascending
	ordered := slices.Clone(migrations)
	slices.SortFunc(ordered, func(a, b Migration) int { return a.Version - b.Version })

	applied := 0
	for _, m := range ordered {
		if m.Version <= current {
			continue
		}
		err := WithTx(db, func(tx *sql.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
				m.Version, m.Name); err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}
