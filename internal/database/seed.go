package database

import (
	"context"
	"database/sql"
	"fmt"

	"pocketledger/internal/database/repository"
)

// defaultCategories is the baseline category set for a fresh database.
var defaultCategories = []string{
	"Groceries",
	"Dining & Drinks",
	"Transport",
	"Bills & Utilities",
	"Entertainment",
	"Shopping",
	"Health",
	"Travel",
	"Other",
}

// SeedDefaults ensures baseline rows exist after migration: the default
// categories and the base-currency placeholder setting. Idempotent and safe
// to run on every startup; existing rows are never rewritten.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)
	for _, name := range defaultCategories {
		existing, err := catRepo.GetByName(ctx, name)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		if existing != nil {
			continue
		}
		if _, err := catRepo.Create(ctx, name); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}

	settings := repository.NewSettingsRepo(db)
	_, present, err := settings.Get(ctx, repository.SettingBaseCurrency)
	if err != nil {
		return fmt.Errorf("seed base currency: %w", err)
	}
	if !present {
		if err := settings.Set(ctx, repository.SettingBaseCurrency, nil); err != nil {
			return fmt.Errorf("seed base currency: %w", err)
		}
	}
	return nil
}
