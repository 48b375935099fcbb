package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	yes   key.Binding
	skip  key.Binding
	force key.Binding
	no    key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		yes:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "apply")),
		skip:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		force: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "apply all")),
		no:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "abort")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.yes, k.skip},
		{k.force, k.no},
		{k.quit},
	}
}
