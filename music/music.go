// Package music contains the note containers the piano can play: single
// notes, chords, bars and tracks. Containers know how to lay themselves out
// on a timeline at a given tempo; everything below that (synthesis, timing
// against a clock) is the engine's business.
package music

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultVelocity is used when a note carries no dynamics of its own.
	DefaultVelocity = 64

	// Quarter is the note value of a quarter note. Note values follow the
	// usual convention: 1 = whole, 2 = half, 4 = quarter, 8 = eighth.
	Whole   = 1.0
	Half    = 2.0
	Quarter = 4.0
	Eighth  = 8.0
)

type (
	// Note is a single pitch in scientific-ish notation, ex: {"C#", 4}.
	Note struct {
		// Letter name plus accidentals, ex: "C", "F#", "Bb".
		Name string
		// Octave number. Middle C is octave 4.
		Octave int
		// MIDI velocity (0-127). Zero means DefaultVelocity.
		Velocity int
	}

	// Chord is a set of notes struck together.
	Chord []Note

	// Meter is a time signature, ex: {4, 4}.
	Meter struct {
		Beats int
		Value int
	}

	// Bar is a measure of chords placed at note values.
	Bar struct {
		Meter   Meter
		entries []entry
		// Filled space in whole-note units.
		filled float64
	}

	// Track is a sequence of bars.
	Track struct {
		Bars []*Bar
	}

	entry struct {
		// Note value the chord occupies (4 = quarter, ...).
		value float64
		chord Chord
	}

	// Event is a note laid out on a timeline.
	Event struct {
		Start    time.Duration
		Duration time.Duration
		// MIDI note number.
		Key      int
		Velocity int
	}

	// Container is anything the piano can play in one call.
	Container interface {
		// NoteNames lists the distinct notes in the container in
		// "C#-4" form, sorted.
		NoteNames() []string
		// Events lays the contained notes out on a timeline at the
		// given tempo (quarter notes per minute).
		Events(bpm float64) []Event
	}
)

var semitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FromMIDI spells a MIDI note number as a note, using sharps.
func FromMIDI(midi int) (Note, error) {
	if midi < 0 || midi > 127 {
		return Note{}, fmt.Errorf("MIDI note number out of range: %d", midi)
	}
	return Note{Name: sharpNames[midi%12], Octave: midi/12 - 1}, nil
}

// ParseNote parses a note in "<NAME><ACCIDENTALS>-<OCTAVE>" form, ex: "C-4",
// "F#-3", "Bb-0".
func ParseNote(s string) (Note, error) {
	name, oct, ok := strings.Cut(s, "-")
	if !ok {
		return Note{}, fmt.Errorf("parse note %q: want <NAME>-<OCTAVE>, ex: \"C#-4\"", s)
	}
	octave, err := strconv.Atoi(oct)
	if err != nil {
		return Note{}, fmt.Errorf("parse note %q: bad octave: %w", s, err)
	}
	n := Note{Name: name, Octave: octave}
	if _, err := n.MIDI(); err != nil {
		return Note{}, err
	}
	return n, nil
}

// MustNote is ParseNote for statically known note names.
func MustNote(s string) Note {
	n, err := ParseNote(s)
	if err != nil {
		panic(err)
	}
	return n
}

// MIDI returns the MIDI note number, C4 = 60.
func (n Note) MIDI() (int, error) {
	if n.Name == "" {
		return 0, fmt.Errorf("empty note name")
	}
	tone, ok := semitones[n.Name[0]]
	if !ok {
		return 0, fmt.Errorf("unknown note name %q", n.Name)
	}
	for _, acc := range n.Name[1:] {
		switch acc {
		case '#':
			tone++
		case 'b':
			tone--
		default:
			return 0, fmt.Errorf("unknown accidental %q in note %q", acc, n.Name)
		}
	}
	return (n.Octave+1)*12 + tone, nil
}

func (n Note) String() string {
	return fmt.Sprintf("%s-%d", n.Name, n.Octave)
}

func (n Note) velocity() int {
	if n.Velocity == 0 {
		return DefaultVelocity
	}
	return n.Velocity
}

func (n Note) NoteNames() []string { return []string{n.String()} }

// Events plays the note as a single quarter note.
func (n Note) Events(bpm float64) []Event {
	key, _ := n.MIDI()
	return []Event{{
		Duration: noteDuration(Quarter, bpm),
		Key:      key,
		Velocity: n.velocity(),
	}}
}

func (c Chord) NoteNames() []string { return distinctNames(c) }

// Events strikes all notes of the chord together as quarter notes.
func (c Chord) Events(bpm float64) []Event {
	events := make([]Event, 0, len(c))
	for _, n := range c {
		key, _ := n.MIDI()
		events = append(events, Event{
			Duration: noteDuration(Quarter, bpm),
			Key:      key,
			Velocity: n.velocity(),
		})
	}
	return events
}

// NewBar returns an empty bar in the given meter. The zero Meter means 4/4.
func NewBar(m Meter) *Bar {
	if m.Beats == 0 || m.Value == 0 {
		m = Meter{4, 4}
	}
	return &Bar{Meter: m}
}

// Capacity returns the bar length in whole-note units, ex: 1.0 for 4/4.
func (b *Bar) Capacity() float64 {
	return float64(b.Meter.Beats) / float64(b.Meter.Value)
}

// Full reports whether no further note fits in the bar.
func (b *Bar) Full() bool {
	return b.filled >= b.Capacity()
}

// Place appends notes struck together at the given note value. It fails when
// the remaining space in the bar is too small for the value.
func (b *Bar) Place(value float64, notes ...Note) error {
	if value <= 0 {
		return fmt.Errorf("place: bad note value %v", value)
	}
	if b.filled+1/value > b.Capacity()+1e-9 {
		return fmt.Errorf("place: no room left in %d/%d bar for note value %v",
			b.Meter.Beats, b.Meter.Value, value)
	}
	b.entries = append(b.entries, entry{value: value, chord: Chord(notes)})
	b.filled += 1 / value
	return nil
}

// Rest advances the bar by the given note value without sounding anything.
func (b *Bar) Rest(value float64) error {
	return b.Place(value)
}

func (b *Bar) NoteNames() []string {
	var all Chord
	for _, e := range b.entries {
		all = append(all, e.chord...)
	}
	return distinctNames(all)
}

func (b *Bar) Events(bpm float64) []Event {
	var events []Event
	at := time.Duration(0)
	for _, e := range b.entries {
		d := noteDuration(e.value, bpm)
		for _, n := range e.chord {
			key, _ := n.MIDI()
			events = append(events, Event{
				Start:    at,
				Duration: d,
				Key:      key,
				Velocity: n.velocity(),
			})
		}
		at += d
	}
	return events
}

// span returns the full bar length at the given tempo, independent of how
// much of the bar is placed.
func (b *Bar) span(bpm float64) time.Duration {
	return time.Duration(float64(b.Capacity()) * 4 * float64(noteDuration(Quarter, bpm)))
}

// Add appends a bar to the track.
func (t *Track) Add(b *Bar) {
	t.Bars = append(t.Bars, b)
}

func (t *Track) NoteNames() []string {
	var all Chord
	for _, b := range t.Bars {
		for _, e := range b.entries {
			all = append(all, e.chord...)
		}
	}
	return distinctNames(all)
}

func (t *Track) Events(bpm float64) []Event {
	var events []Event
	at := time.Duration(0)
	for _, b := range t.Bars {
		for _, ev := range b.Events(bpm) {
			ev.Start += at
			events = append(events, ev)
		}
		at += b.span(bpm)
	}
	return events
}

// Span returns the end of the last event, ie. the playing length of the
// container at the given tempo.
func Span(c Container, bpm float64) time.Duration {
	var end time.Duration
	for _, ev := range c.Events(bpm) {
		if t := ev.Start + ev.Duration; t > end {
			end = t
		}
	}
	return end
}

func noteDuration(value, bpm float64) time.Duration {
	if bpm <= 0 {
		bpm = 120
	}
	beat := time.Duration(float64(time.Minute) / bpm)
	return time.Duration(float64(beat) * Quarter / value)
}

func distinctNames(notes []Note) []string {
	seen := make(map[string]struct{}, len(notes))
	names := make([]string, 0, len(notes))
	for _, n := range notes {
		s := n.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}
