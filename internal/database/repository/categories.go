package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CategoryRepo handles categories.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create inserts a category and returns the stored row. A case-insensitive
// duplicate name fails on the schema's unique constraint.
func (r *CategoryRepo) Create(ctx context.Context, name string) (Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories(name) VALUES(?)`, name)
	if err != nil {
		return Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Category{}, fmt.Errorf("resolve category id: %w", ErrUnreadableRow)
	}
	created, err := r.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if created == nil {
		return Category{}, fmt.Errorf("category %d: %w", id, ErrUnreadableRow)
	}
	return *created, nil
}

// Update renames a category by id. Returns ErrNotFound when the id does not
// exist.
func (r *CategoryRepo) Update(ctx context.Context, id int64, name string) (Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return Category{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Category{}, err
	}
	if n == 0 {
		return Category{}, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	updated, err := r.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if updated == nil {
		return Category{}, fmt.Errorf("category %d: %w", id, ErrUnreadableRow)
	}
	return *updated, nil
}

// Delete removes a category unconditionally; expenses referencing it get a
// NULL category via the schema's ON DELETE SET NULL. Reference protection is
// the orchestrator's business rule, not enforced here. Idempotent.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// Get returns the category or nil when absent.
func (r *CategoryRepo) Get(ctx context.Context, id int64) (*Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM categories WHERE id = ?`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetByName returns the category whose name matches case-insensitively after
// trimming whitespace, or nil when absent.
func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM categories WHERE name = ? COLLATE NOCASE`,
		strings.TrimSpace(name))
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// List returns all categories sorted case-insensitively by name.
func (r *CategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM categories ORDER BY name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
