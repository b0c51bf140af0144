// Package tui is the terminal front end: a thin view over the app orchestrator.
// It owns cursor position and pane focus; everything else lives in app.State
// and changes only through app messages.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"pocketledger/internal/app"
)

type pane int

const (
	paneExpenses pane = iota
	paneQueue
)

type Model struct {
	app    app.Model
	keys   keyMap
	width  int
	height int
	focus  pane
	cursor int
}

func New(appModel app.Model) Model {
	return Model{app: appModel, keys: defaultKeys()}
}

func (m Model) Init() tea.Cmd {
	return m.app.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.app.State().Locked {
			if key.Matches(msg, m.keys.Unlock) {
				return m.forward(app.UnlockRequestMsg{})
			}
			return m, nil
		}
		return m.handleKey(msg)

	case tea.FocusMsg:
		return m.forward(app.ForegroundedMsg{})
	case tea.BlurMsg:
		return m.forward(app.BackgroundedMsg{})
	}

	return m.forward(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.app.State()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.focusedLen()-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Switch):
		if m.focus == paneExpenses {
			m.focus = paneQueue
		} else {
			m.focus = paneExpenses
		}
		m.cursor = 0
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if m.focus == paneExpenses && m.cursor < len(st.Expenses) {
			return m.forward(app.DeleteExpenseMsg{ID: st.Expenses[m.cursor].ID})
		}
		return m, nil
	case key.Matches(msg, m.keys.Export):
		return m.forward(app.QueueExportMsg{})
	case key.Matches(msg, m.keys.Upload):
		return m.forward(app.UploadMsg{Interactive: true})
	case key.Matches(msg, m.keys.Retry):
		if id, ok := m.selectedQueueID(); ok {
			return m.forward(app.RetryExportMsg{ID: id})
		}
		return m, nil
	case key.Matches(msg, m.keys.Remove):
		if id, ok := m.selectedQueueID(); ok {
			return m.forward(app.RemoveExportMsg{ID: id})
		}
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		return m.forward(app.ClearFinishedMsg{})
	case key.Matches(msg, m.keys.Gate):
		return m.forward(app.ToggleGateMsg{Enabled: !st.GateEnabled})
	case key.Matches(msg, m.keys.Dismiss):
		return m.forward(app.DismissErrorMsg{})
	}
	return m, nil
}

// forward routes a message into the orchestrator and clamps the cursor, since
// any state change may shrink the focused list.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.app, cmd = m.app.Update(msg)
	if n := m.focusedLen(); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	return m, cmd
}

func (m Model) focusedLen() int {
	st := m.app.State()
	if m.focus == paneQueue {
		return len(st.Queue)
	}
	return len(st.Expenses)
}

func (m Model) selectedQueueID() (string, bool) {
	st := m.app.State()
	if m.focus != paneQueue || m.cursor >= len(st.Queue) {
		return "", false
	}
	return st.Queue[m.cursor].ID, true
}
