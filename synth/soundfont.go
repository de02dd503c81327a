package synth

import (
	"errors"
	"os"
	"path/filepath"
)

// SoundFont filenames worth trying when no explicit path is configured.
var defaultFontNames = []string{
	"FluidR3_GM.sf2",
	"GeneralUser_GS.sf2",
	"default.sf2",
}

// Directories searched for a default SoundFont, in order.
var fontSearchDirs = []string{
	"sound_fonts",
	".",
	"/usr/share/sounds/sf2",
	"/usr/share/soundfonts",
}

var ErrFontNotFound = errors.New("no soundfont found")

// FindSoundFont resolves a SoundFont path. An explicit path is checked and
// returned as-is; with an empty path the well-known locations are searched
// for a General MIDI font.
func FindSoundFont(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	for _, dir := range fontSearchDirs {
		for _, name := range defaultFontNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", ErrFontNotFound
}
