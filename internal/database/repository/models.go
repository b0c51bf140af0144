package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors shared by all repositories.
var (
	// ErrNotFound means the targeted row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnreadableRow means a write succeeded but the row could not be read
	// back. This signals a storage consistency fault and is never swallowed.
	ErrUnreadableRow = errors.New("row unreadable after write")
)

// Expense represents an expense row. BaseAmount is always caller-derived
// (amount times fx rate, rounded); the repository stores it verbatim.
type Expense struct {
	ID           int64
	Description  string
	AmountNative float64
	CurrencyCode string
	FxRateToBase float64
	BaseAmount   float64
	Date         string // YYYY-MM-DD
	CategoryID   *int64
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Category represents a category row. Names are unique case-insensitively.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Export queue item statuses.
const (
	StatusPending   = "pending"
	StatusUploading = "uploading"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExportItem represents an export queue row.
type ExportItem struct {
	ID          string
	Filename    string
	FilePath    string
	FileURI     *string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UploadedAt  *time.Time
	DriveFileID *string
	LastError   *string
}

// NewExportID returns a client-generated queue item id, unique by
// construction (millisecond timestamp plus a uuid fragment).
func NewExportID(now time.Time) string {
	return fmt.Sprintf("exp_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Patch carries one updatable field in three states: unset (leave the column
// untouched), null (write NULL) or a concrete value. A plain pointer cannot
// tell "leave unchanged" from "set to null", so sparse updates use this.
type Patch[T any] struct {
	present bool
	null    bool
	value   T
}

// SetTo returns a patch writing value.
func SetTo[T any](value T) Patch[T] {
	return Patch[T]{present: true, value: value}
}

// SetNull returns a patch writing NULL.
func SetNull[T any]() Patch[T] {
	return Patch[T]{present: true, null: true}
}

// Present reports whether the patch carries a write at all.
func (p Patch[T]) Present() bool { return p.present }

// Arg returns the SQL bind value: nil for a null patch, the value otherwise.
// Only meaningful when Present.
func (p Patch[T]) Arg() any {
	if p.null {
		return nil
	}
	return p.value
}

// ExportItemPatch is a sparse update of an export queue row. Absent fields
// leave their columns untouched.
type ExportItemPatch struct {
	Status      Patch[string]
	FileURI     Patch[string]
	UploadedAt  Patch[time.Time]
	DriveFileID Patch[string]
	LastError   Patch[string]
}
