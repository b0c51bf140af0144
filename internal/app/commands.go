package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"pocketledger/internal/database/repository"
	"pocketledger/internal/export"
)

// refreshCmd reloads the whole snapshot from the repositories.
func (m Model) refreshCmd(filters repository.ExpenseFilters) tea.Cmd {
	deps := m.deps
	ctx := m.ctx
	return func() tea.Msg {
		expenses, err := deps.Expenses.List(ctx, filters)
		if err != nil {
			return snapshotMsg{err: err}
		}
		categories, err := deps.Categories.List(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		settings, err := deps.Settings.GetAll(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		queue, err := deps.Queue.List(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{expenses: expenses, categories: categories, settings: settings, queue: queue}
	}
}

func (m Model) createExpenseCmd(e repository.Expense) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		_, err := deps.Expenses.Create(ctx, e)
		return mutationDoneMsg{err: err}
	}
}

func (m Model) updateExpenseCmd(e repository.Expense) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		_, err := deps.Expenses.Update(ctx, e)
		return mutationDoneMsg{err: err}
	}
}

func (m Model) deleteExpenseCmd(id int64) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{err: deps.Expenses.Delete(ctx, id)}
	}
}

func (m Model) createCategoryCmd(name string) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		_, err := deps.Categories.Create(ctx, name)
		return mutationDoneMsg{err: err}
	}
}

func (m Model) renameCategoryCmd(id int64, name string) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		_, err := deps.Categories.Update(ctx, id, name)
		return mutationDoneMsg{err: err}
	}
}

// deleteCategoryCmd enforces the reference guard: deletion is blocked while
// expenses still point at the category. The storage layer itself would allow
// it (nullifying references), so this business rule lives here.
func (m Model) deleteCategoryCmd(id int64) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		n, err := deps.Expenses.CountByCategory(ctx, id)
		if err != nil {
			return mutationDoneMsg{err: err}
		}
		if n > 0 {
			return categoryDeleteBlockedMsg{count: n}
		}
		return mutationDoneMsg{err: deps.Categories.Delete(ctx, id)}
	}
}

func (m Model) setSettingCmd(key string, value *string) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{err: deps.Settings.Set(ctx, key, value)}
	}
}

// queueExportCmd materializes a CSV of the full expense set and inserts the
// pending queue item tracking it.
func (m Model) queueExportCmd() tea.Cmd {
	deps, ctx := m.deps, m.ctx
	now := m.now
	return func() tea.Msg {
		expenses, err := deps.Expenses.List(ctx, repository.ExpenseFilters{})
		if err != nil {
			return exportDoneMsg{err: err}
		}
		categories, err := deps.Categories.List(ctx)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		ts := now()
		doc := export.BuildCSV(expenses, categories)
		artifact, err := deps.Writer.Write(export.Filename(ts), doc)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		if _, err := deps.Queue.Create(ctx, repository.ExportItem{
			ID:       repository.NewExportID(ts),
			Filename: artifact.Filename,
			FilePath: artifact.Path,
		}); err != nil {
			return exportDoneMsg{artifact: artifact, err: err}
		}
		return exportDoneMsg{artifact: artifact}
	}
}

func (m Model) uploadCmd(interactive bool) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		summary, err := deps.Uploader.UploadPending(ctx, interactive)
		return uploadDoneMsg{summary: summary, err: err}
	}
}

func (m Model) retryExportCmd(id string) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		_, err := deps.Queue.Update(ctx, id, repository.ExportItemPatch{
			Status:    repository.SetTo(repository.StatusPending),
			LastError: repository.SetNull[string](),
		})
		return mutationDoneMsg{err: err}
	}
}

// removeExportCmd deletes the queue row, then best-effort removes the local
// file; a file already gone never surfaces as an error.
func (m Model) removeExportCmd(id string) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		item, err := deps.Queue.Get(ctx, id)
		if err != nil {
			return mutationDoneMsg{err: err}
		}
		if item == nil {
			return mutationDoneMsg{err: fmt.Errorf("export item %s: %w", id, repository.ErrNotFound)}
		}
		if err := deps.Queue.Delete(ctx, id); err != nil {
			return mutationDoneMsg{err: err}
		}
		deps.Writer.Remove(item.FilePath)
		return mutationDoneMsg{}
	}
}

func (m Model) clearFinishedCmd() tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		removed, err := deps.Queue.ClearFinished(ctx)
		if err != nil {
			return mutationDoneMsg{err: err}
		}
		for _, item := range removed {
			deps.Writer.Remove(item.FilePath)
		}
		return mutationDoneMsg{}
	}
}

func (m Model) unlockCmd() tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		return unlockResultMsg{err: deps.Gate.Authenticate(ctx, "Unlock PocketLedger")}
	}
}

func (m Model) provisionGateCmd() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		if deps.GateStore == nil {
			return gateProvisionedMsg{}
		}
		return gateProvisionedMsg{err: deps.GateStore.Provision()}
	}
}
