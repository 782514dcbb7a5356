package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle    key.Binding
	Stabilize key.Binding
	Reset     key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	ResetView key.Binding
	Fetch     key.Binding
	Deselect  key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stabilize, k.Reset, k.ZoomIn, k.ZoomOut, k.ResetView, k.Fetch, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stabilize, k.Reset},
		{k.ZoomIn, k.ZoomOut, k.ResetView},
		{k.Fetch, k.Deselect, k.Quit},
	}
}

var keys = keyMap{
	Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/play")),
	Stabilize: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stabilize")),
	Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	ResetView: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
	Fetch:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fetch")),
	Deselect:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
