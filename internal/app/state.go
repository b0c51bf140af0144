// Package app is the application data orchestrator: one reducer-driven state
// container composing the repositories, the CSV exporter and the Drive
// uploader. All state transitions go through Model.Update; side effects run
// as commands whose completion posts a follow-up message.
package app

import (
	"time"

	"pocketledger/internal/database/repository"
)

// LockThreshold is how long the app may stay backgrounded before the
// credential gate re-arms.
const LockThreshold = 5 * time.Minute

// State is the orchestrator-owned in-memory snapshot. It is always re-derived
// from repository results, never mutated in place by other components.
type State struct {
	Expenses   []repository.Expense
	Categories []repository.Category
	Settings   map[string]*string
	Queue      []repository.ExportItem

	Filters      repository.ExpenseFilters
	TotalBase    float64 // sum of filtered base amounts, banker's-rounded
	BaseCurrency string

	Locked      bool
	GateEnabled bool

	Online    bool
	Exporting bool
	Uploading bool
	Loading   bool

	// Err is the single rolling error slot: it holds the most recent failure
	// message, cleared by dismissal or by the next operation's start.
	Err string

	lastBackgrounded *time.Time
}

// LastBackgrounded exposes the pending background timestamp, nil when none.
func (s State) LastBackgrounded() *time.Time { return s.lastBackgrounded }
