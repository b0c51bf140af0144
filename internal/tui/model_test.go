package tui

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"pocketledger/internal/app"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// lockedModel drives the orchestrator into the locked state through its
// public messages, with a controllable clock. Commands are discarded, so no
// dependencies are needed.
func lockedModel(t *testing.T) Model {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := app.New(context.Background(), app.Deps{}).WithClock(func() time.Time { return now })

	a, _ = a.Update(app.ToggleGateMsg{Enabled: true})
	a, _ = a.Update(app.BackgroundedMsg{})
	now = now.Add(app.LockThreshold)
	a, _ = a.Update(app.ForegroundedMsg{})
	require.True(t, a.State().Locked)

	return New(a)
}

func TestQuitKey(t *testing.T) {
	m := New(app.New(context.Background(), app.Deps{}))
	_, cmd := m.Update(keyRune('q'))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLockedScreenBlocksKeys(t *testing.T) {
	m := lockedModel(t)

	require.Contains(t, m.View(), "locked")

	// action keys are swallowed while locked
	for _, r := range []rune{'e', 'u', 'd', 'g', 'c'} {
		_, cmd := m.Update(keyRune(r))
		require.Nil(t, cmd, "key %q must be ignored while locked", r)
	}

	// the unlock challenge still goes through
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	// quit always works
	_, cmd = m.Update(keyRune('q'))
	require.NotNil(t, cmd)
}

func TestViewRendersEmptyState(t *testing.T) {
	m := New(app.New(context.Background(), app.Deps{}))
	view := m.View()
	require.Contains(t, view, "PocketLedger")
	require.Contains(t, view, "no expenses")
	require.Contains(t, view, "queue empty")
}

func TestFocusSwitchResetsCursor(t *testing.T) {
	m := New(app.New(context.Background(), app.Deps{}))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	tm := next.(Model)
	require.Equal(t, paneQueue, tm.focus)
	require.Zero(t, tm.cursor)

	next, _ = tm.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, paneExpenses, next.(Model).focus)
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	require.Equal(t, "héllo", truncate("héllo", 5))
	require.Equal(t, "crème…", truncate("crème brûlée", 6))
	require.Equal(t, "ば", truncate("ばんごはん", 1))
	for _, s := range []string{"crème brûlée", "ばんごはん", "naïveté"} {
		for w := 1; w < 8; w++ {
			require.True(t, utf8.ValidString(truncate(s, w)), "truncate(%q, %d)", s, w)
		}
	}
}

func TestBlurAndFocusDriveLockTimer(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := app.New(context.Background(), app.Deps{}).WithClock(func() time.Time { return now })
	a, _ = a.Update(app.ToggleGateMsg{Enabled: true})
	m := New(a)

	next, _ := m.Update(tea.BlurMsg{})
	now = now.Add(app.LockThreshold + time.Minute)
	next, _ = next.(Model).Update(tea.FocusMsg{})

	require.True(t, next.(Model).app.State().Locked)
}
