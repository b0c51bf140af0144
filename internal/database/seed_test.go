package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pocketledger/internal/database/repository"
)

func TestSeedDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	_, err := Migrate(ctx, db)
	require.NoError(t, err)
	require.NoError(t, SeedDefaults(ctx, db))

	cats, err := repository.NewCategoryRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, len(defaultCategories))

	// base currency placeholder present with a NULL value
	val, present, err := repository.NewSettingsRepo(db).Get(ctx, repository.SettingBaseCurrency)
	require.NoError(t, err)
	require.True(t, present)
	require.Nil(t, val)
}

func TestSeedDefaultsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	_, err := Migrate(ctx, db)
	require.NoError(t, err)
	require.NoError(t, SeedDefaults(ctx, db))

	// user renames nothing but sets a base currency; reseeding must not undo it
	settings := repository.NewSettingsRepo(db)
	aud := "AUD"
	require.NoError(t, settings.Set(ctx, repository.SettingBaseCurrency, &aud))

	require.NoError(t, SeedDefaults(ctx, db))

	cats, err := repository.NewCategoryRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, len(defaultCategories))

	val, present, err := settings.Get(ctx, repository.SettingBaseCurrency)
	require.NoError(t, err)
	require.True(t, present)
	require.NotNil(t, val)
	require.Equal(t, "AUD", *val)
}
