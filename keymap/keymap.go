package keymap

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type Mapping struct {
	OctaveDown     key.Binding
	OctaveUp       key.Binding
	NextInstrument key.Binding
	Quit           key.Binding
}

var DefaultMapping = Mapping{
	OctaveDown: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "octave down"),
	),
	OctaveUp: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "octave up"),
	),
	NextInstrument: key.NewBinding(
		key.WithKeys(tea.KeyTab.String()),
		key.WithHelp("tab", "next instrument"),
	),
	Quit: key.NewBinding(
		key.WithKeys(tea.KeyCtrlC.String(), "esc"),
		key.WithHelp("ctrl+c", "quit"),
	),
}
