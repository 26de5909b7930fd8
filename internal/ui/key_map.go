package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up   key.Binding
	down key.Binding
	help key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.help, k.quit},
	}
}
