package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateFreshDatabase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	require.Equal(t, len(migrations), applied)

	v, err := CurrentVersion(ctx, db)
	require.NoError(t, err)
	require.Equal(t, LatestVersion(), v)

	// all tables exist
	for _, table := range []string{"categories", "expenses", "app_settings", "export_queue", "schema_migrations"} {
		var n int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		require.Equal(t, 1, n, "missing table %s", table)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	_, err := Migrate(ctx, db)
	require.NoError(t, err)

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	require.Zero(t, applied, "second run must apply nothing")
}

func TestMigrateResumesInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	// bring the database to version 2 by hand
	_, err := db.ExecContext(ctx, ledgerDDL)
	require.NoError(t, err)
	for _, m := range migrations[:2] {
		for _, stmt := range m.Statements {
			_, err := db.ExecContext(ctx, stmt)
			require.NoError(t, err)
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name)
		require.NoError(t, err)
	}

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 2, applied, "only versions 3 and 4 should run")

	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY applied_at, version`)
	require.NoError(t, err)
	defer rows.Close()
	var versions []int
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []int{1, 2, 3, 4}, versions)
}

func TestMigrateFileURIBackfill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	// version 3 schema with an existing queue row, then migration 4 backfills
	_, err := db.ExecContext(ctx, ledgerDDL)
	require.NoError(t, err)
	for _, m := range migrations[:3] {
		for _, stmt := range m.Statements {
			_, err := db.ExecContext(ctx, stmt)
			require.NoError(t, err)
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name)
		require.NoError(t, err)
	}
	_, err = db.ExecContext(ctx, `
	INSERT INTO export_queue(id, filename, file_path, status)
	VALUES('exp_1', 'a.csv', '/tmp/a.csv', 'pending')`)
	require.NoError(t, err)

	_, err = Migrate(ctx, db)
	require.NoError(t, err)

	var uri string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT file_uri FROM export_queue WHERE id = 'exp_1'`).Scan(&uri))
	require.Equal(t, "/tmp/a.csv", uri)
}

// No t.Parallel: swaps the global migration list for the duration of the test.
func TestMigrateFailingMigrationRollsBackWhole(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := Migrate(ctx, db)
	require.NoError(t, err)
	base := LatestVersion()

	saved := migrations
	migrations = append(slices.Clone(migrations), Migration{
		Version: base + 1,
		Name:    "broken_change",
		Statements: []string{
			`CREATE TABLE ledger_notes (id INTEGER PRIMARY KEY)`,
			`INSERT INTO no_such_table (id) VALUES (1)`,
		},
	})
	defer func() { migrations = saved }()

	applied, err := Migrate(ctx, db)
	require.Error(t, err)
	require.Zero(t, applied)

	v, err := CurrentVersion(ctx, db)
	require.NoError(t, err)
	require.Equal(t, base, v, "failed migration must not be recorded")

	// the statement that succeeded before the failure rolled back with it
	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='ledger_notes'`).Scan(&n))
	require.Zero(t, n)
}

// No t.Parallel: swaps the global migration list for the duration of the test.
func TestMigrateSortsDeclarationOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	// version 4 alters the table version 2 creates, so applying in this
	// declaration order only succeeds if Migrate sorts by version first
	saved := migrations
	shuffled := slices.Clone(migrations)
	shuffled[0], shuffled[len(shuffled)-1] = shuffled[len(shuffled)-1], shuffled[0]
	migrations = shuffled
	defer func() { migrations = saved }()

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	require.Equal(t, len(migrations), applied)

	v, err := CurrentVersion(ctx, db)
	require.NoError(t, err)
	require.Equal(t, LatestVersion(), v)
}

func TestLatestVersion(t *testing.T) {
	t.Parallel()
	require.Equal(t, 4, LatestVersion())
}
