// Package keybed models the 88-key piano keybed: key numbers 1-88 mapped to
// MIDI notes A0-C8, with qwerty bindings for the interactive keyboard.
package keybed

import (
	"fmt"

	"github.com/rapidmidiex/gopiano/music"
)

const (
	// NumKeys is the number of keys on a full piano keybed.
	NumKeys = 88
	// LowMIDI is the MIDI number of the lowest key (A0).
	LowMIDI = 21
	// HighMIDI is the MIDI number of the highest key (C8).
	HighMIDI = 108
)

type (
	// Key is one physical piano key.
	Key struct {
		// Key number counted from the bass end, 1-88.
		Number int
		// MIDI note number, based on C4=60.
		MIDI int
		// Name of the note, ex: "C", "F#/Gb"
		Name string
		// Denotes if note is sharp/flat ie. "black" key.
		IsAccidental bool
	}

	Keys []Key

	// Octave names the C an octave starts at, for the qwerty key rows.
	Octave int
)

// C1 is the lowest full C octave on an 88-key piano; the keys below it
// (A0, A#0, B0) do not fill a qwerty row.
const (
	C1 Octave = iota + 1
	C2
	C3
	C4
	C5
	C6
	C7
)

var noteNames = []struct {
	name         string
	sharp        string
	isAccidental bool
}{
	{name: "A", sharp: "A"},
	{name: "A#/Bb", sharp: "A#", isAccidental: true},
	{name: "B", sharp: "B"},
	{name: "C", sharp: "C"},
	{name: "C#/Db", sharp: "C#", isAccidental: true},
	{name: "D", sharp: "D"},
	{name: "D#/Eb", sharp: "D#", isAccidental: true},
	{name: "E", sharp: "E"},
	{name: "F", sharp: "F"},
	{name: "F#/Gb", sharp: "F#", isAccidental: true},
	{name: "G", sharp: "G"},
	{name: "G#/Ab", sharp: "G#", isAccidental: true},
}

// New returns the full 88-key keybed, bass to treble.
func New() Keys {
	keys := make(Keys, 0, NumKeys)
	for n := 1; n <= NumKeys; n++ {
		k := noteNames[(n-1)%len(noteNames)]
		keys = append(keys, Key{
			Number:       n,
			MIDI:         n + LowMIDI - 1,
			Name:         k.name,
			IsAccidental: k.isAccidental,
		})
	}
	return keys
}

// Key returns the key with the given number, 1-88.
func (keys Keys) Key(number int) (Key, error) {
	if number < 1 || number > len(keys) {
		return Key{}, fmt.Errorf("no key %d on an %d-key piano", number, len(keys))
	}
	return keys[number-1], nil
}

// Contains reports whether the note is on the keybed.
func (keys Keys) Contains(n music.Note) bool {
	midi, err := n.MIDI()
	if err != nil {
		return false
	}
	return InRange(midi)
}

// Note returns the key's pitch as a playable note, spelled with sharps.
func (k Key) Note() music.Note {
	i := (k.Number - 1) % len(noteNames)
	// A0 is MIDI 21; MIDI octaves roll over at C.
	octave := (k.MIDI / 12) - 1
	return music.Note{Name: noteNames[i].sharp, Octave: octave}
}

// InRange reports whether a MIDI note number is on an 88-key piano.
func InRange(midiNum int) bool {
	return midiNum >= LowMIDI && midiNum <= HighMIDI
}

type (
	// Binding ties a qwerty key to a piano key for the on-screen keyboard.
	Binding struct {
		Key Key
		// qwerty keyboard key, ex: "a".
		Qwerty string
	}

	Bindings []Binding

	// BindingMap indexes bindings by their qwerty key.
	BindingMap map[string]Binding
)

// qwerty keys ordered to allow for fingering similar to a real piano: home
// row for naturals, q-row for accidentals.
var qwertyKeys = []string{"a", "w", "s", "e", "d", "f", "t", "g", "y", "h", "u", "j", "k", "o", "l", "p", ";", "'"}

// OctaveBindings maps an octave and a half of keys starting at the given C
// onto the qwerty keyboard.
func (keys Keys) OctaveBindings(o Octave) Bindings {
	bindings := make(Bindings, 0, len(qwertyKeys))
	midi := (int(o) + 1) * 12 // MIDI number of the octave's C
	for i, q := range qwertyKeys {
		number := midi + i - LowMIDI + 1
		k, err := keys.Key(number)
		if err != nil {
			break
		}
		bindings = append(bindings, Binding{Key: k, Qwerty: q})
	}
	return bindings
}

func (bs Bindings) ToMap() BindingMap {
	m := make(BindingMap, len(bs))
	for _, b := range bs {
		m[b.Qwerty] = b
	}
	return m
}
