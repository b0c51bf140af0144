package app

import (
	"pocketledger/internal/database/repository"
	"pocketledger/internal/drive"
	"pocketledger/internal/export"
)

// Intent messages posted by the presentation layer or lifecycle hooks.
type (
	// CreateExpenseMsg validates and stores a new expense.
	CreateExpenseMsg struct{ Expense repository.Expense }
	// UpdateExpenseMsg rewrites an existing expense by id.
	UpdateExpenseMsg struct{ Expense repository.Expense }
	// DeleteExpenseMsg removes an expense.
	DeleteExpenseMsg struct{ ID int64 }

	// CreateCategoryMsg adds a category.
	CreateCategoryMsg struct{ Name string }
	// RenameCategoryMsg renames a category.
	RenameCategoryMsg struct {
		ID   int64
		Name string
	}
	// DeleteCategoryMsg removes a category unless expenses still reference it.
	DeleteCategoryMsg struct{ ID int64 }

	// SetFilterMsg replaces the expense list filters and reloads.
	SetFilterMsg struct{ Filters repository.ExpenseFilters }

	// SetBaseCurrencyMsg persists the base currency setting.
	SetBaseCurrencyMsg struct{ Code string }

	// ToggleGateMsg enables or disables the biometric gate.
	ToggleGateMsg struct{ Enabled bool }

	// QueueExportMsg builds a CSV artifact and enqueues it for upload.
	QueueExportMsg struct{}
	// UploadMsg drains pending queue items to the remote store.
	UploadMsg struct{ Interactive bool }
	// RetryExportMsg re-queues a failed item as pending.
	RetryExportMsg struct{ ID string }
	// RemoveExportMsg deletes one queue item and best-effort removes its file.
	RemoveExportMsg struct{ ID string }
	// ClearFinishedMsg removes all completed and failed items.
	ClearFinishedMsg struct{}

	// BackgroundedMsg records that the app left the foreground.
	BackgroundedMsg struct{}
	// ForegroundedMsg re-evaluates the lock decision, exactly once.
	ForegroundedMsg struct{}
	// UnlockRequestMsg runs the credential-gate challenge.
	UnlockRequestMsg struct{}

	// NetworkStatusMsg reports reachability changes.
	NetworkStatusMsg struct{ Online bool }

	// DismissErrorMsg clears the rolling error slot.
	DismissErrorMsg struct{}
)

// Completion messages posted by commands.
type (
	snapshotMsg struct {
		expenses   []repository.Expense
		categories []repository.Category
		settings   map[string]*string
		queue      []repository.ExportItem
		err        error
	}

	mutationDoneMsg struct{ err error }

	categoryDeleteBlockedMsg struct{ count int }

	exportDoneMsg struct {
		artifact export.Artifact
		err      error
	}

	uploadDoneMsg struct {
		summary *drive.Summary
		err     error
	}

	unlockResultMsg struct{ err error }

	gateProvisionedMsg struct{ err error }
)
