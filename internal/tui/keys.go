package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit   key.Binding
	Train  key.Binding
	Focus  key.Binding
	Blur   key.Binding
	Submit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
	Train: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "train an agent"),
	),
	Focus: key.NewBinding(
		key.WithKeys("i", "tab"),
		key.WithHelp("i", "type"),
	),
	Blur: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back to log"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
}
