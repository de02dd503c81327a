// Package tui renders an interactive piano keyboard in the terminal.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rapidmidiex/gopiano"
	"github.com/rapidmidiex/gopiano/keybed"
	"github.com/rapidmidiex/gopiano/keymap"
	"github.com/rapidmidiex/gopiano/notemsg"
	"github.com/rapidmidiex/gopiano/remote"
	"github.com/rapidmidiex/gopiano/styles"
	"golang.org/x/term"
)

// noteHold is how long a struck key keeps sounding. Terminals report key
// presses, not releases, so every note gets the same gate time.
const noteHold = 300 * time.Millisecond

type (
	errMsg struct{ err error }

	noteOffMsg struct {
		qwerty string
	}

	model struct {
		piano *gopiano.Piano
		// Optional session client. Nil when playing solo.
		session *remote.Client

		octave keybed.Octave
		// Bindings for the current octave, in keyboard order.
		bindings keybed.Bindings
		// Bindings indexed by qwerty key. Ex: {"a": {A-4 key, "a"}}
		bound keybed.BindingMap
		// Currently sounding qwerty keys
		activeKeys map[string]struct{}

		err error
	}
)

type Option func(*model)

// WithSession broadcasts played notes to a jam session.
func WithSession(c *remote.Client) Option {
	return func(m *model) { m.session = c }
}

func New(p *gopiano.Piano, opts ...Option) tea.Model {
	m := model{
		piano:      p,
		octave:     keybed.C4,
		activeKeys: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.rebind()
	return m
}

func (m *model) rebind() {
	m.bindings = m.piano.Keys().OctaveBindings(m.octave)
	m.bound = m.bindings.ToMap()
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keymap.DefaultMapping.Quit):
			m.piano.StopAll()
			return m, tea.Quit

		case key.Matches(msg, keymap.DefaultMapping.OctaveDown):
			if m.octave > keybed.C1 {
				m.octave--
				m.rebind()
			}

		case key.Matches(msg, keymap.DefaultMapping.OctaveUp):
			if m.octave < keybed.C7 {
				m.octave++
				m.rebind()
			}

		case key.Matches(msg, keymap.DefaultMapping.NextInstrument):
			if err := m.piano.LoadInstrument(nextInstrument(m.piano.Instrument())); err != nil {
				m.err = err
			}

		default:
			b, ok := m.bound[msg.String()]
			if !ok {
				break
			}
			cmds = append(cmds, m.strike(b))
		}
		// *** End KeyMsg ***
		return m, tea.Batch(cmds...)

	case noteOffMsg:
		if b, ok := m.bound[msg.qwerty]; ok {
			m.piano.NoteOff(b.Key.Note())
			if m.session != nil {
				// Best effort. A dropped note-off only sticks for the peers.
				_ = m.session.Send(notemsg.NOTE_OFF, b.Key.Note())
			}
		}
		delete(m.activeKeys, msg.qwerty)

	case errMsg:
		m.err = msg.err
	}

	return m, tea.Batch(cmds...)
}

// strike sounds the bound key and schedules its release.
func (m *model) strike(b keybed.Binding) tea.Cmd {
	note := b.Key.Note()
	if err := m.piano.NoteOn(note); err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	m.err = nil
	m.activeKeys[b.Qwerty] = struct{}{}
	cmds := []tea.Cmd{
		tea.Tick(noteHold, func(time.Time) tea.Msg {
			return noteOffMsg{qwerty: b.Qwerty}
		}),
	}
	if m.session != nil {
		cmds = append(cmds, func() tea.Msg {
			if err := m.session.Send(notemsg.NOTE_ON, note); err != nil {
				return errMsg{fmt.Errorf("send note: %w", err)}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m model) View() string {
	physicalWidth, _, _ := term.GetSize(int(os.Stdout.Fd()))
	doc := strings.Builder{}

	docStyle := styles.DocStyle
	if physicalWidth > 0 {
		docStyle = docStyle.MaxWidth(physicalWidth)
	}

	// Keyboard
	rendered := make([]string, 0, len(m.bindings))
	for _, b := range m.bindings {
		style := styles.NaturalKey
		if b.Key.IsAccidental {
			style = styles.AccidentalKey
		}
		if _, active := m.activeKeys[b.Qwerty]; active {
			style = styles.ActiveKey
		}
		label := b.Key.Note().String() + "\n\n(" + b.Qwerty + ")"
		rendered = append(rendered, style.Render(label))
	}
	doc.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	doc.WriteString("\n\n")

	// Status bar
	status := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.StatusStyle.Render(m.piano.Instrument()),
		styles.StatusText.Render(fmt.Sprintf("octave %s · driver %s", octaveName(m.octave), driverName(m.piano))),
	)
	doc.WriteString(status + "\n")

	if m.err != nil {
		doc.WriteString("\n" + styles.RenderError(m.err.Error()) + "\n")
	}

	doc.WriteString(styles.HelpMenu.Render("z/x: octave · tab: instrument · esc: quit"))
	return docStyle.Render(doc.String())
}

func octaveName(o keybed.Octave) string {
	return fmt.Sprintf("C%d", int(o))
}

func driverName(p *gopiano.Piano) string {
	if p.Driver() == "" {
		return "default"
	}
	return p.Driver()
}

// nextInstrument cycles through the General MIDI piano bank.
func nextInstrument(current string) string {
	names := gopiano.InstrumentNames()
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

// Run takes over the terminal with the piano keyboard until the player quits.
func Run(p *gopiano.Piano, opts ...Option) error {
	prog := tea.NewProgram(New(p, opts...), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
