package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rapidmidiex/gopiano/config"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "Acoustic Grand Piano", cfg.Instrument)
	require.Equal(t, float64(120), cfg.BPM)
	require.Equal(t, 44100, cfg.SampleRate)
	require.Equal(t, 4, cfg.Record.TailSeconds)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.SoundFont)
	require.Empty(t, cfg.Driver)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gopiano.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
soundfont: /opt/fonts/FluidR3_GM.sf2
driver: alsa
instrument: Harpsichord
bpm: 90
record:
  tail_seconds: 2
log:
  level: debug
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "/opt/fonts/FluidR3_GM.sf2", cfg.SoundFont)
	require.Equal(t, "alsa", cfg.Driver)
	require.Equal(t, "Harpsichord", cfg.Instrument)
	require.Equal(t, float64(90), cfg.BPM)
	require.Equal(t, 2, cfg.Record.TailSeconds)
	require.Equal(t, "debug", cfg.Log.Level)
	// Untouched fields still get defaults.
	require.Equal(t, 44100, cfg.SampleRate)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("driver: [unclosed"), 0o644))
		_, err := config.Load(path)
		require.Error(t, err)
	})
}
