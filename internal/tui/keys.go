package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Switch  key.Binding
	Delete  key.Binding
	Export  key.Binding
	Upload  key.Binding
	Retry   key.Binding
	Remove  key.Binding
	Clear   key.Binding
	Gate    key.Binding
	Dismiss key.Binding
	Unlock  key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Switch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete expense")),
		Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export csv")),
		Upload:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry item")),
		Remove:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove item")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear finished")),
		Gate:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle lock gate")),
		Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss error")),
		Unlock:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "unlock")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpBindings is the footer order.
func (k keyMap) helpBindings(locked bool) []key.Binding {
	if locked {
		return []key.Binding{k.Unlock, k.Quit}
	}
	return []key.Binding{k.Up, k.Down, k.Switch, k.Delete, k.Export, k.Upload, k.Retry, k.Remove, k.Clear, k.Gate, k.Quit}
}
