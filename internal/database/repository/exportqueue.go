package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ExportQueueRepo handles the durable export queue.
type ExportQueueRepo struct {
	db *sql.DB
}

func NewExportQueueRepo(db *sql.DB) *ExportQueueRepo { return &ExportQueueRepo{db: db} }

const exportColumns = `id, filename, file_path, file_uri, status, created_at, updated_at, uploaded_at, drive_file_id, last_error`

// Create inserts a queue item with its client-generated id and returns the
// stored row.
func (r *ExportQueueRepo) Create(ctx context.Context, item ExportItem) (ExportItem, error) {
	if item.Status == "" {
		item.Status = StatusPending
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO export_queue(id, filename, file_path, file_uri, status)
	VALUES(?, ?, ?, ?, ?)`,
		item.ID, item.Filename, item.FilePath, item.FileURI, item.Status)
	if err != nil {
		return ExportItem{}, err
	}
	created, err := r.Get(ctx, item.ID)
	if err != nil {
		return ExportItem{}, err
	}
	if created == nil {
		return ExportItem{}, fmt.Errorf("export item %s: %w", item.ID, ErrUnreadableRow)
	}
	return *created, nil
}

// Update applies a sparse patch. Absent fields leave their columns untouched;
// a null patch writes NULL. With an empty patch the call is a no-op and
// performs no storage access at all. updated_at refreshes whenever anything
// is written. Returns ErrNotFound when the id does not exist.
func (r *ExportQueueRepo) Update(ctx context.Context, id string, p ExportItemPatch) (*ExportItem, error) {
	var set []string
	var args []any

	add := func(column string, arg any) {
		set = append(set, column+" = ?")
		args = append(args, arg)
	}
	if p.Status.Present() {
		add("status", p.Status.Arg())
	}
	if p.FileURI.Present() {
		add("file_uri", p.FileURI.Arg())
	}
	if p.UploadedAt.Present() {
		add("uploaded_at", p.UploadedAt.Arg())
	}
	if p.DriveFileID.Present() {
		add("drive_file_id", p.DriveFileID.Arg())
	}
	if p.LastError.Present() {
		add("last_error", p.LastError.Arg())
	}
	if len(set) == 0 {
		return nil, nil
	}

	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		`UPDATE export_queue SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("export item %s: %w", id, ErrNotFound)
	}
	updated, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("export item %s: %w", id, ErrUnreadableRow)
	}
	return updated, nil
}

// Delete removes a queue item. Item ids are client-chosen, so a missing row
// usually means a caller bug; unlike the other repositories this surfaces
// ErrNotFound on zero rows affected.
func (r *ExportQueueRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM export_queue WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("export item %s: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns the queue item or nil when absent.
func (r *ExportQueueRepo) Get(ctx context.Context, id string) (*ExportItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM export_queue WHERE id = ?`, id)
	item, err := scanExportItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// List returns the whole queue in stored order, oldest first.
func (r *ExportQueueRepo) List(ctx context.Context) ([]ExportItem, error) {
	return r.list(ctx, `SELECT `+exportColumns+` FROM export_queue ORDER BY created_at ASC, id ASC`)
}

// Pending returns pending items in stored order, oldest first.
func (r *ExportQueueRepo) Pending(ctx context.Context) ([]ExportItem, error) {
	return r.list(ctx,
		`SELECT `+exportColumns+` FROM export_queue WHERE status = ? ORDER BY created_at ASC, id ASC`,
		StatusPending)
}

// ClearFinished deletes every completed and failed item in one transaction
// and returns the removed rows so the caller can best-effort delete the
// underlying files.
func (r *ExportQueueRepo) ClearFinished(ctx context.Context) ([]ExportItem, error) {
	removed, err := r.list(ctx,
		`SELECT `+exportColumns+` FROM export_queue WHERE status IN (?, ?) ORDER BY created_at ASC, id ASC`,
		StatusCompleted, StatusFailed)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx,
		`DELETE FROM export_queue WHERE status IN (?, ?)`, StatusCompleted, StatusFailed)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *ExportQueueRepo) list(ctx context.Context, query string, args ...any) ([]ExportItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExportItem
	for rows.Next() {
		item, err := scanExportItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanExportItem(row scanner) (ExportItem, error) {
	var item ExportItem
	var fileURI, driveFileID, lastError sql.NullString
	var uploadedAt sql.NullTime
	if err := row.Scan(&item.ID, &item.Filename, &item.FilePath, &fileURI, &item.Status,
		&item.CreatedAt, &item.UpdatedAt, &uploadedAt, &driveFileID, &lastError); err != nil {
		return ExportItem{}, err
	}
	if fileURI.Valid {
		item.FileURI = &fileURI.String
	}
	if uploadedAt.Valid {
		item.UploadedAt = &uploadedAt.Time
	}
	if driveFileID.Valid {
		item.DriveFileID = &driveFileID.String
	}
	if lastError.Valid {
		item.LastError = &lastError.String
	}
	return item, nil
}
