package gopiano

import "sort"

// DefaultInstrument is the instrument selected when none is configured.
const DefaultInstrument = "Acoustic Grand Piano"

// DefaultInstruments maps the piano section of the General MIDI instrument
// set to program numbers.
// https://en.wikipedia.org/wiki/General_MIDI
var DefaultInstruments = map[string]int{
	"Acoustic Grand Piano":  0,
	"Bright Acoustic Piano": 1,
	"Electric Grand Piano":  2,
	"Honky-tonk Piano":      3,
	"Electric Piano 1":      4,
	"Electric Piano 2":      5,
	"Harpsichord":           6,
	"Clavi":                 7,
}

// InstrumentNames lists the known instrument names in program order.
func InstrumentNames() []string {
	names := make([]string, 0, len(DefaultInstruments))
	for name := range DefaultInstruments {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return DefaultInstruments[names[i]] < DefaultInstruments[names[j]]
	})
	return names
}
