// file: internal/tui/keys.go
// version: 1.0.0
// guid: 4b6d8f0a-2c3e-4a5b-9d7f-1e3a5c7b9d02

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the browser's own bindings. Navigation and filtering
// come from the list component.
type KeyMap struct {
	CycleGenre  key.Binding
	CycleStatus key.Binding
	Delete      key.Binding
	Refresh     key.Binding
	Quit        key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		CycleGenre: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "genre"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "reading status"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

// ShortHelp lists the bindings shown under the list.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CycleGenre, k.CycleStatus, k.Delete, k.Refresh}
}
