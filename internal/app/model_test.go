package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"pocketledger/internal/database"
	"pocketledger/internal/database/repository"
	"pocketledger/internal/drive"
	"pocketledger/internal/export"
	"pocketledger/internal/gate"
)

type stubTokens struct {
	token string
	err   error
	calls int
}

func (s *stubTokens) Token(ctx context.Context, interactive bool) (string, error) {
	s.calls++
	return s.token, s.err
}

type stubStore struct {
	folders map[string]*drive.Folder
	uploads []string
	created int
}

func (s *stubStore) GetFolder(ctx context.Context, token, id string) (*drive.Folder, error) {
	f, ok := s.folders[id]
	if !ok {
		return nil, &drive.StatusError{StatusCode: http.StatusNotFound}
	}
	return f, nil
}

func (s *stubStore) CreateFolder(ctx context.Context, token, name string) (string, error) {
	s.created++
	id := fmt.Sprintf("folder-%d", s.created)
	s.folders[id] = &drive.Folder{ID: id, Name: name}
	return id, nil
}

func (s *stubStore) Upload(ctx context.Context, token, folderID, filename string, content []byte) (string, error) {
	s.uploads = append(s.uploads, filename)
	return fmt.Sprintf("drv-%d", len(s.uploads)), nil
}

type stubGate struct{ err error }

func (g *stubGate) Authenticate(ctx context.Context, prompt string) error { return g.err }

type testEnv struct {
	store  *stubStore
	tokens *stubTokens
	gate   *stubGate
	deps   Deps
}

func newTestModel(t *testing.T) (Model, *testEnv) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.Migrate(ctx, db)
	require.NoError(t, err)
	require.NoError(t, database.SeedDefaults(ctx, db))

	env := &testEnv{
		store:  &stubStore{folders: map[string]*drive.Folder{}},
		tokens: &stubTokens{token: "tok"},
		gate:   &stubGate{},
	}
	queue := repository.NewExportQueueRepo(db)
	settings := repository.NewSettingsRepo(db)
	env.deps = Deps{
		Expenses:   repository.NewExpenseRepo(db),
		Categories: repository.NewCategoryRepo(db),
		Settings:   settings,
		Queue:      queue,
		Writer:     export.NewWriter(t.TempDir()),
		Uploader: &drive.Uploader{
			Queue:    queue,
			Settings: settings,
			Store:    env.store,
			Tokens:   env.tokens,
		},
		Gate:      env.gate,
		GateStore: gate.NewStoreAt(t.TempDir()),
	}
	return New(ctx, env.deps), env
}

// apply runs a command tree to completion, feeding every resulting message
// back through Update. Batches run in order.
func apply(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = apply(t, m, c)
		}
		return m
	}
	next, cmd := m.Update(msg)
	return apply(t, next, cmd)
}

// step dispatches one intent and settles all resulting commands.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return apply(t, next, cmd)
}

func sampleExpense(desc string, amount float64) repository.Expense {
	return repository.Expense{
		Description:  desc,
		AmountNative: amount,
		CurrencyCode: "USD",
		FxRateToBase: 1,
		BaseAmount:   amount,
		Date:         "2026-01-15",
	}
}

func TestInitLoadsSeededSnapshot(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	st := m.State()
	require.False(t, st.Loading)
	require.Empty(t, st.Err)
	require.Len(t, st.Categories, 9)
	require.Empty(t, st.Expenses)
	require.Empty(t, st.BaseCurrency, "seeded base currency is present but unset")
	require.False(t, st.GateEnabled)
}

func TestCreateExpenseValidationStopsBeforeStorage(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	bad := sampleExpense("", -1)
	next, cmd := m.Update(CreateExpenseMsg{Expense: bad})
	require.Nil(t, cmd, "invalid input must not reach storage")
	require.Contains(t, next.State().Err, "description")
	require.Contains(t, next.State().Err, "amount_native")
}

func TestCreateExpenseRoundTrip(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	m = step(t, m, CreateExpenseMsg{Expense: sampleExpense("Coffee", 10.25)})
	m = step(t, m, CreateExpenseMsg{Expense: sampleExpense("Lunch", 5.50)})

	st := m.State()
	require.Empty(t, st.Err)
	require.Len(t, st.Expenses, 2)
	require.Equal(t, 15.75, st.TotalBase)
}

func TestNewIntentClearsErrorSlot(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	next, _ := m.Update(CreateExpenseMsg{Expense: sampleExpense("", 1)})
	require.NotEmpty(t, next.State().Err)

	next = step(t, next, CreateExpenseMsg{Expense: sampleExpense("Valid", 1)})
	require.Empty(t, next.State().Err)
}

func TestCategoryDeleteBlockedWhileReferenced(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	m = step(t, m, CreateCategoryMsg{Name: "Gadgets"})
	var catID int64
	for _, c := range m.State().Categories {
		if c.Name == "Gadgets" {
			catID = c.ID
		}
	}
	require.NotZero(t, catID)

	e := sampleExpense("Keyboard", 80)
	e.CategoryID = &catID
	m = step(t, m, CreateExpenseMsg{Expense: e})

	m = step(t, m, DeleteCategoryMsg{ID: catID})
	require.Contains(t, m.State().Err, "used by 1 expense")
	require.Len(t, m.State().Categories, 10, "category must survive a blocked delete")

	m = step(t, m, DeleteExpenseMsg{ID: m.State().Expenses[0].ID})
	m = step(t, m, DeleteCategoryMsg{ID: catID})
	require.Empty(t, m.State().Err)
	require.Len(t, m.State().Categories, 9)
}

func TestSetBaseCurrency(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	next, cmd := m.Update(SetBaseCurrencyMsg{Code: "XYZ"})
	require.Nil(t, cmd)
	require.Contains(t, next.State().Err, "XYZ")

	m = step(t, m, SetBaseCurrencyMsg{Code: "EUR"})
	require.Equal(t, "EUR", m.State().BaseCurrency)
}

func TestFilterReload(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	jan := sampleExpense("January", 1)
	jan.Date = "2026-01-05"
	feb := sampleExpense("February", 2)
	feb.Date = "2026-02-05"
	m = step(t, m, CreateExpenseMsg{Expense: jan})
	m = step(t, m, CreateExpenseMsg{Expense: feb})

	m = step(t, m, SetFilterMsg{Filters: repository.ExpenseFilters{StartDate: "2026-02-01"}})
	require.Len(t, m.State().Expenses, 1)
	require.Equal(t, "February", m.State().Expenses[0].Description)
	require.Equal(t, 2.0, m.State().TotalBase, "total follows the filtered view")

	m = step(t, m, SetFilterMsg{Filters: repository.ExpenseFilters{}})
	require.Len(t, m.State().Expenses, 2)
}

func TestLockMachine(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	m = step(t, m, ToggleGateMsg{Enabled: true})
	require.True(t, m.State().GateEnabled)
	require.False(t, m.State().Locked)

	// short absence: under the threshold, no lock
	m = step(t, m, BackgroundedMsg{})
	base = base.Add(LockThreshold - time.Second)
	m = step(t, m, ForegroundedMsg{})
	require.False(t, m.State().Locked)
	require.Nil(t, m.State().LastBackgrounded())

	// long absence locks
	m = step(t, m, BackgroundedMsg{})
	base = base.Add(LockThreshold)
	m = step(t, m, ForegroundedMsg{})
	require.True(t, m.State().Locked)

	// a duplicate foreground event re-evaluates nothing
	base = base.Add(time.Hour)
	m = step(t, m, ForegroundedMsg{})
	require.True(t, m.State().Locked)
}

func TestBackgroundedTwiceUsesLatestTimestamp(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	m = step(t, m, ToggleGateMsg{Enabled: true})
	m = step(t, m, BackgroundedMsg{})
	base = base.Add(10 * time.Minute)
	m = step(t, m, BackgroundedMsg{}) // overwrites the earlier mark
	base = base.Add(time.Minute)
	m = step(t, m, ForegroundedMsg{})
	require.False(t, m.State().Locked, "only the latest backgrounding counts")
}

func TestUnlock(t *testing.T) {
	m, env := newTestModel(t)
	m = apply(t, m, m.Init())

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m = step(t, m, ToggleGateMsg{Enabled: true})
	m = step(t, m, BackgroundedMsg{})
	base = base.Add(time.Hour)
	m = step(t, m, ForegroundedMsg{})
	require.True(t, m.State().Locked)

	env.gate.err = errors.New("denied")
	m = step(t, m, UnlockRequestMsg{})
	require.True(t, m.State().Locked, "failed challenge keeps the lock")
	require.NotEmpty(t, m.State().Err)

	env.gate.err = nil
	m = step(t, m, UnlockRequestMsg{})
	require.False(t, m.State().Locked)
	require.Empty(t, m.State().Err)
}

func TestDisablingGateForcesUnlock(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m = step(t, m, ToggleGateMsg{Enabled: true})
	m = step(t, m, BackgroundedMsg{})
	base = base.Add(time.Hour)
	m = step(t, m, ForegroundedMsg{})
	require.True(t, m.State().Locked)

	m = step(t, m, ToggleGateMsg{Enabled: false})
	st := m.State()
	require.False(t, st.Locked)
	require.False(t, st.GateEnabled)
	require.Nil(t, st.LastBackgrounded())

	// persisted off: a fresh snapshot agrees
	m = apply(t, m, m.refreshCmd(st.Filters))
	require.False(t, m.State().GateEnabled)
}

func TestQueueExportUploadsOpportunistically(t *testing.T) {
	m, env := newTestModel(t)
	m = apply(t, m, m.Init())
	m = step(t, m, NetworkStatusMsg{Online: true})
	m = step(t, m, CreateExpenseMsg{Expense: sampleExpense("Coffee", 4.20)})

	m = step(t, m, QueueExportMsg{})

	st := m.State()
	require.Empty(t, st.Err)
	require.False(t, st.Exporting)
	require.False(t, st.Uploading)
	require.Len(t, st.Queue, 1)
	require.Equal(t, repository.StatusCompleted, st.Queue[0].Status)
	require.NotNil(t, st.Queue[0].DriveFileID)
	require.Len(t, env.store.uploads, 1)
	require.Equal(t, 1, env.store.created, "destination folder created on first run")
}

func TestQueueExportOfflineStaysPending(t *testing.T) {
	m, env := newTestModel(t)
	m = apply(t, m, m.Init())
	m = step(t, m, CreateExpenseMsg{Expense: sampleExpense("Coffee", 4.20)})

	m = step(t, m, QueueExportMsg{})

	require.Len(t, m.State().Queue, 1)
	require.Equal(t, repository.StatusPending, m.State().Queue[0].Status)
	require.Empty(t, env.store.uploads)
	require.Zero(t, env.tokens.calls, "offline run never asks for credentials")
}

func TestComingOnlineDrainsPending(t *testing.T) {
	m, env := newTestModel(t)
	m = apply(t, m, m.Init())
	m = step(t, m, CreateExpenseMsg{Expense: sampleExpense("Coffee", 4.20)})
	m = step(t, m, QueueExportMsg{})
	require.Equal(t, repository.StatusPending, m.State().Queue[0].Status)

	m = step(t, m, NetworkStatusMsg{Online: true})

	require.Equal(t, repository.StatusCompleted, m.State().Queue[0].Status)
	require.Len(t, env.store.uploads, 1)

	// a repeat report with no transition does nothing
	before := env.tokens.calls
	m = step(t, m, NetworkStatusMsg{Online: true})
	require.Equal(t, before, env.tokens.calls)
}

func TestUploadWithoutCredentials(t *testing.T) {
	m, env := newTestModel(t)
	m = apply(t, m, m.Init())
	env.tokens.token = ""
	m = step(t, m, CreateExpenseMsg{Expense: sampleExpense("Coffee", 4.20)})
	m = step(t, m, QueueExportMsg{})

	m = step(t, m, UploadMsg{Interactive: false})

	st := m.State()
	require.False(t, st.Uploading)
	require.Contains(t, st.Err, "authentication required")
	require.Equal(t, repository.StatusPending, st.Queue[0].Status, "skipped items keep their status")
}

func TestExportGuardDropsOverlappingRequest(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	m.state.Exporting = true
	_, cmd := m.Update(QueueExportMsg{})
	require.Nil(t, cmd)

	m.state.Exporting = false
	m.state.Uploading = true
	_, cmd = m.Update(UploadMsg{})
	require.Nil(t, cmd)
}

func TestRetryRemoveAndClearFinished(t *testing.T) {
	m, env := newTestModel(t)
	m = apply(t, m, m.Init())
	m = step(t, m, CreateExpenseMsg{Expense: sampleExpense("Coffee", 4.20)})
	m = step(t, m, QueueExportMsg{})
	id := m.State().Queue[0].ID

	// mark it failed out of band, then retry re-queues it
	_, err := env.deps.Queue.Update(context.Background(), id, repository.ExportItemPatch{
		Status:    repository.SetTo(repository.StatusFailed),
		LastError: repository.SetTo("boom"),
	})
	require.NoError(t, err)
	m = step(t, m, RetryExportMsg{ID: id})
	require.Equal(t, repository.StatusPending, m.State().Queue[0].Status)
	require.Nil(t, m.State().Queue[0].LastError)

	m = step(t, m, RemoveExportMsg{ID: id})
	require.Empty(t, m.State().Err)
	require.Empty(t, m.State().Queue)

	m = step(t, m, RemoveExportMsg{ID: id})
	require.Contains(t, m.State().Err, "not found")

	m = step(t, m, DismissErrorMsg{})
	require.Empty(t, m.State().Err)

	// clear-finished removes completed and failed, leaves pending
	m = step(t, m, QueueExportMsg{})
	m = step(t, m, NetworkStatusMsg{Online: true})
	require.Equal(t, repository.StatusCompleted, m.State().Queue[0].Status)
	m = step(t, m, NetworkStatusMsg{Online: false})
	m = step(t, m, QueueExportMsg{})
	require.Len(t, m.State().Queue, 2)

	m = step(t, m, ClearFinishedMsg{})
	require.Len(t, m.State().Queue, 1)
	require.Equal(t, repository.StatusPending, m.State().Queue[0].Status)
}

func TestCategoryNameValidationUsesLoadedSet(t *testing.T) {
	m, _ := newTestModel(t)
	m = apply(t, m, m.Init())

	next, cmd := m.Update(CreateCategoryMsg{Name: "groceries"})
	require.Nil(t, cmd)
	require.Contains(t, next.State().Err, "already exists")
}
