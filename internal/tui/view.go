package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pocketledger/internal/app"
	"pocketledger/internal/database/repository"
	"pocketledger/internal/money"
)

func (m Model) View() string {
	st := m.app.State()

	if st.Locked {
		box := lockBoxStyle.Render(
			headerStyle.Render("PocketLedger is locked") + "\n\n" +
				mutedStyle.Render("enter to unlock, q to quit"))
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
		}
		return box
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(st))
	b.WriteString("\n")

	expenses := m.renderExpenses(st)
	queue := m.renderQueue(st)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, expenses, " ", queue))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(st))
	b.WriteString("\n")
	b.WriteString(m.renderHelp(st))
	return b.String()
}

func (m Model) renderHeader(st app.State) string {
	currency := st.BaseCurrency
	if currency == "" {
		currency = "???"
	}
	title := headerStyle.Render("PocketLedger")
	total := totalStyle.Render(fmt.Sprintf("%s %s", money.Format2(st.TotalBase), currency))
	badges := make([]string, 0, 3)
	if st.GateEnabled {
		badges = append(badges, "gate on")
	}
	if !st.Online {
		badges = append(badges, "offline")
	}
	if st.Exporting {
		badges = append(badges, "exporting")
	}
	if st.Uploading {
		badges = append(badges, "uploading")
	}
	suffix := ""
	if len(badges) > 0 {
		suffix = "  " + mutedStyle.Render("["+strings.Join(badges, " | ")+"]")
	}
	return title + "  " + total + suffix
}

func (m Model) renderExpenses(st app.State) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("%-10s  %-24s  %12s  %12s", "DATE", "DESCRIPTION", "AMOUNT", "BASE")))
	if len(st.Expenses) == 0 {
		rows = append(rows, mutedStyle.Render("no expenses"))
	}
	for i, e := range st.Expenses {
		line := fmt.Sprintf("%-10s  %-24s  %9s %s  %12s",
			e.Date, truncate(e.Description, 24),
			money.Format2(e.AmountNative), e.CurrencyCode,
			money.Format2(e.BaseAmount))
		if m.focus == paneExpenses && i == m.cursor {
			line = selectedRowStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return m.pane(paneExpenses, "Expenses", rows)
}

func (m Model) renderQueue(st app.State) string {
	var rows []string
	if len(st.Queue) == 0 {
		rows = append(rows, mutedStyle.Render("queue empty"))
	}
	for i, item := range st.Queue {
		line := statusGlyph(item.Status) + " " + item.Filename
		if item.LastError != nil {
			line += " " + failedStyle.Render(truncate(*item.LastError, 32))
		}
		if m.focus == paneQueue && i == m.cursor {
			line = selectedRowStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return m.pane(paneQueue, "Export queue", rows)
}

func (m Model) pane(p pane, title string, rows []string) string {
	style := paneStyle
	if m.focus == p {
		style = focusedPaneStyle
	}
	return style.Render(headerStyle.Render(title) + "\n" + strings.Join(rows, "\n"))
}

func (m Model) renderStatus(st app.State) string {
	if st.Err != "" {
		return statusErrStyle.Render(" " + st.Err + " ")
	}
	if st.Loading {
		return statusOkStyle.Render(" loading ")
	}
	return statusOkStyle.Render(fmt.Sprintf(" %d expenses, %d queued ", len(st.Expenses), len(st.Queue)))
}

func (m Model) renderHelp(st app.State) string {
	parts := make([]string, 0, 12)
	for _, b := range m.keys.helpBindings(st.Locked) {
		h := b.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func statusGlyph(status string) string {
	switch status {
	case repository.StatusPending:
		return pendingStyle.Render("●")
	case repository.StatusUploading:
		return uploadingStyle.Render("◐")
	case repository.StatusCompleted:
		return completedStyle.Render("✓")
	case repository.StatusFailed:
		return failedStyle.Render("✗")
	}
	return "?"
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
