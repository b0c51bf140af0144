package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"pocketledger/internal/database/repository"
	"pocketledger/internal/drive"
	"pocketledger/internal/export"
	"pocketledger/internal/gate"
	"pocketledger/internal/money"
	"pocketledger/internal/validate"
)

// Deps are the collaborators the orchestrator composes. Repositories borrow
// the single shared database handle; the gate and uploader wrap the external
// collaborators.
type Deps struct {
	Expenses   *repository.ExpenseRepo
	Categories *repository.CategoryRepo
	Settings   *repository.SettingsRepo
	Queue      *repository.ExportQueueRepo
	Writer     *export.Writer
	Uploader   *drive.Uploader
	Gate       gate.Authenticator
	GateStore  *gate.Store
	Log        *zap.SugaredLogger
}

// Model is the reducer-driven state container. Update is the single entry
// point for state transitions; commands perform storage and network work
// asynchronously and post completion messages back into Update.
type Model struct {
	ctx   context.Context
	deps  Deps
	now   func() time.Time
	state State
}

func New(ctx context.Context, deps Deps) Model {
	return Model{
		ctx:  ctx,
		deps: deps,
		now:  time.Now,
		state: State{
			Loading: true,
		},
	}
}

// State returns the current snapshot.
func (m Model) State() State { return m.state }

// WithClock replaces the time source, for deterministic lock-timer tests.
func (m Model) WithClock(now func() time.Time) Model {
	m.now = now
	return m
}

// Init loads everything: the startup sequence is migrate → seed (done by the
// caller before constructing the model) → load.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd(m.state.Filters)
}

// Update applies one message. Each action produces a new state from the
// previous one; concurrent commands may be in flight, but their effects land
// here one at a time.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case snapshotMsg:
		m.state.Loading = false
		if msg.err != nil {
			m.state.Err = msg.err.Error()
			return m, nil
		}
		m.state.Expenses = msg.expenses
		m.state.Categories = msg.categories
		m.state.Settings = msg.settings
		m.state.Queue = msg.queue
		m.state.BaseCurrency = settingValue(msg.settings, repository.SettingBaseCurrency)
		m.state.GateEnabled = settingValue(msg.settings, repository.SettingBiometricGateEnabled) == "true"
		amounts := make([]float64, len(msg.expenses))
		for i, e := range msg.expenses {
			amounts[i] = e.BaseAmount
		}
		m.state.TotalBase = money.Sum(amounts, 2)
		return m, nil

	case CreateExpenseMsg:
		m.state.Err = ""
		if err := validate.Expense(msg.Expense); err != nil {
			m.state.Err = err.Error()
			return m, nil
		}
		return m, m.createExpenseCmd(msg.Expense)

	case UpdateExpenseMsg:
		m.state.Err = ""
		if err := validate.Expense(msg.Expense); err != nil {
			m.state.Err = err.Error()
			return m, nil
		}
		return m, m.updateExpenseCmd(msg.Expense)

	case DeleteExpenseMsg:
		m.state.Err = ""
		return m, m.deleteExpenseCmd(msg.ID)

	case CreateCategoryMsg:
		m.state.Err = ""
		if err := validate.CategoryName(msg.Name, m.state.Categories, 0); err != nil {
			m.state.Err = err.Error()
			return m, nil
		}
		return m, m.createCategoryCmd(strings.TrimSpace(msg.Name))

	case RenameCategoryMsg:
		m.state.Err = ""
		if err := validate.CategoryName(msg.Name, m.state.Categories, msg.ID); err != nil {
			m.state.Err = err.Error()
			return m, nil
		}
		return m, m.renameCategoryCmd(msg.ID, strings.TrimSpace(msg.Name))

	case DeleteCategoryMsg:
		m.state.Err = ""
		return m, m.deleteCategoryCmd(msg.ID)

	case categoryDeleteBlockedMsg:
		m.state.Err = fmt.Sprintf("category is used by %d expense(s); reassign them first", msg.count)
		return m, nil

	case SetFilterMsg:
		m.state.Err = ""
		m.state.Filters = msg.Filters
		m.state.Loading = true
		return m, m.refreshCmd(msg.Filters)

	case SetBaseCurrencyMsg:
		m.state.Err = ""
		if !money.ValidCurrency(msg.Code) {
			m.state.Err = fmt.Sprintf("%q is not a recognized ISO-4217 code", msg.Code)
			return m, nil
		}
		code := msg.Code
		return m, m.setSettingCmd(repository.SettingBaseCurrency, &code)

	case ToggleGateMsg:
		m.state.Err = ""
		if msg.Enabled {
			// arm the clock so the very next backgrounding starts fresh
			now := m.now()
			m.state.lastBackgrounded = &now
			m.state.GateEnabled = true
			enabled := "true"
			return m, tea.Batch(
				m.setSettingCmd(repository.SettingBiometricGateEnabled, &enabled),
				m.provisionGateCmd(),
			)
		}
		m.state.GateEnabled = false
		m.state.Locked = false
		m.state.lastBackgrounded = nil
		if m.deps.GateStore != nil {
			m.deps.GateStore.Reset() // best effort
		}
		disabled := "false"
		return m, m.setSettingCmd(repository.SettingBiometricGateEnabled, &disabled)

	case QueueExportMsg:
		if m.state.Exporting {
			return m, nil
		}
		m.state.Err = ""
		m.state.Exporting = true
		return m, m.queueExportCmd()

	case exportDoneMsg:
		m.state.Exporting = false
		if msg.err != nil {
			m.state.Err = msg.err.Error()
			return m, m.refreshCmd(m.state.Filters)
		}
		m.logf("queued export %s (%d bytes)", msg.artifact.Filename, msg.artifact.Size)
		cmds := []tea.Cmd{m.refreshCmd(m.state.Filters)}
		if m.state.Online && !m.state.Uploading {
			m.state.Uploading = true
			cmds = append(cmds, m.uploadCmd(false))
		}
		return m, tea.Batch(cmds...)

	case UploadMsg:
		if m.state.Uploading {
			return m, nil
		}
		m.state.Err = ""
		m.state.Uploading = true
		return m, m.uploadCmd(msg.Interactive)

	case uploadDoneMsg:
		m.state.Uploading = false
		if msg.err != nil {
			m.state.Err = msg.err.Error()
			return m, m.refreshCmd(m.state.Filters)
		}
		if msg.summary == nil {
			// another run was already in flight; nothing happened
			return m, nil
		}
		if msg.summary.RequiresAuth {
			m.state.Err = "Drive authentication required: reconnect your account"
		}
		m.logf("upload run: uploaded=%d failed=%d skipped=%d",
			msg.summary.Uploaded, msg.summary.Failed, msg.summary.Skipped)
		return m, m.refreshCmd(m.state.Filters)

	case RetryExportMsg:
		m.state.Err = ""
		return m, m.retryExportCmd(msg.ID)

	case RemoveExportMsg:
		m.state.Err = ""
		return m, m.removeExportCmd(msg.ID)

	case ClearFinishedMsg:
		m.state.Err = ""
		return m, m.clearFinishedCmd()

	case BackgroundedMsg:
		now := m.now()
		m.state.lastBackgrounded = &now
		return m, nil

	case ForegroundedMsg:
		// evaluated exactly once per foreground transition: clearing the
		// timestamp makes a re-delivered message a no-op
		if m.state.GateEnabled && m.state.lastBackgrounded != nil &&
			m.now().Sub(*m.state.lastBackgrounded) >= LockThreshold {
			m.state.Locked = true
		}
		m.state.lastBackgrounded = nil
		return m, nil

	case UnlockRequestMsg:
		return m, m.unlockCmd()

	case unlockResultMsg:
		if msg.err != nil {
			m.state.Err = "Authentication failed, try again"
			return m, nil
		}
		m.state.Locked = false
		m.state.Err = ""
		return m, nil

	case gateProvisionedMsg:
		if msg.err != nil {
			m.state.Err = msg.err.Error()
		}
		return m, nil

	case NetworkStatusMsg:
		wasOnline := m.state.Online
		m.state.Online = msg.Online
		if msg.Online && !wasOnline && !m.state.Uploading && m.hasPending() {
			m.state.Uploading = true
			return m, m.uploadCmd(false)
		}
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.state.Err = msg.err.Error()
		}
		return m, m.refreshCmd(m.state.Filters)

	case DismissErrorMsg:
		m.state.Err = ""
		return m, nil
	}

	return m, nil
}

func (m Model) hasPending() bool {
	for _, item := range m.state.Queue {
		if item.Status == repository.StatusPending {
			return true
		}
	}
	return false
}

func (m Model) logf(format string, args ...any) {
	if m.deps.Log != nil {
		m.deps.Log.Infof(format, args...)
	}
}

func settingValue(settings map[string]*string, key string) string {
	if v, ok := settings[key]; ok && v != nil {
		return *v
	}
	return ""
}
