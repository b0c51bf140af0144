package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ExpenseFilters defines list filters, combined with AND semantics.
type ExpenseFilters struct {
	CategoryID *int64
	StartDate  string // inclusive, YYYY-MM-DD; empty = no lower bound
	EndDate    string // inclusive, YYYY-MM-DD; empty = no upper bound
	Limit      int    // 0 = no limit
	Offset     int
}

// ExpenseRepo handles expenses.
type ExpenseRepo struct {
	db *sql.DB
}

func NewExpenseRepo(db *sql.DB) *ExpenseRepo { return &ExpenseRepo{db: db} }

const expenseColumns = `id, description, amount_native, currency_code, fx_rate_to_base, base_amount, date, category_id, notes, created_at, updated_at`

// Create inserts a new expense and returns the stored row, including the
// storage-assigned id and timestamps.
func (r *ExpenseRepo) Create(ctx context.Context, e Expense) (Expense, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO expenses(description, amount_native, currency_code, fx_rate_to_base, base_amount, date, category_id, notes)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Description, e.AmountNative, e.CurrencyCode, e.FxRateToBase, e.BaseAmount, e.Date, e.CategoryID, e.Notes)
	if err != nil {
		return Expense{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Expense{}, fmt.Errorf("resolve expense id: %w", ErrUnreadableRow)
	}
	created, err := r.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if created == nil {
		return Expense{}, fmt.Errorf("expense %d: %w", id, ErrUnreadableRow)
	}
	return *created, nil
}

// Update rewrites the mutable fields of an expense by id. Returns ErrNotFound
// when the id does not exist, otherwise the re-read row with the refreshed
// updated_at.
func (r *ExpenseRepo) Update(ctx context.Context, e Expense) (Expense, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE expenses SET
	 description = ?, amount_native = ?, currency_code = ?, fx_rate_to_base = ?,
	 base_amount = ?, date = ?, category_id = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		e.Description, e.AmountNative, e.CurrencyCode, e.FxRateToBase, e.BaseAmount, e.Date, e.CategoryID, e.Notes, e.ID)
	if err != nil {
		return Expense{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Expense{}, err
	}
	if n == 0 {
		return Expense{}, fmt.Errorf("expense %d: %w", e.ID, ErrNotFound)
	}
	updated, err := r.Get(ctx, e.ID)
	if err != nil {
		return Expense{}, err
	}
	if updated == nil {
		return Expense{}, fmt.Errorf("expense %d: %w", e.ID, ErrUnreadableRow)
	}
	return *updated, nil
}

// Delete removes an expense. Deleting an id that does not exist is not an
// error.
func (r *ExpenseRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	return err
}

// Get returns the expense or nil when absent.
func (r *ExpenseRepo) Get(ctx context.Context, id int64) (*Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// List returns expenses matching the filters, newest first (date descending,
// id descending as the stable tie-break).
func (r *ExpenseRepo) List(ctx context.Context, f ExpenseFilters) ([]Expense, error) {
	var where []string
	var args []any

	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.StartDate != "" {
		where = append(where, "date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where = append(where, "date <= ?")
		args = append(args, f.EndDate)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"
	if f.Limit > 0 || f.Offset > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = -1 // sqlite: no limit, offset still applies
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByCategory returns how many expenses reference the category. Used by
// the orchestrator to block category deletion while references exist.
func (r *ExpenseRepo) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE category_id = ?`, categoryID).Scan(&n)
	return n, err
}

// scanner handles both Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (Expense, error) {
	var e Expense
	var category sql.NullInt64
	var notes sql.NullString
	if err := row.Scan(&e.ID, &e.Description, &e.AmountNative, &e.CurrencyCode, &e.FxRateToBase,
		&e.BaseAmount, &e.Date, &category, &notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Expense{}, err
	}
	if category.Valid {
		e.CategoryID = &category.Int64
	}
	if notes.Valid {
		e.Notes = &notes.String
	}
	return e, nil
}
