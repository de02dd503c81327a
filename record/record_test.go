package record_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rapidmidiex/gopiano/record"
	"github.com/rapidmidiex/gopiano/synth"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")

	w, err := record.NewWriter(path, 44100)
	require.NoError(t, err)
	require.Equal(t, path, w.Path())

	// Two silent takes, written back to back.
	require.NoError(t, w.Append(synth.NewClip(4410)))
	require.NoError(t, w.Append(synth.NewClip(4410)))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 44, "more than a bare WAV header")
	require.Equal(t, "RIFF", string(data[:4]))
	require.Equal(t, "WAVE", string(data[8:12]))
}

func TestWriterClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	w, err := record.NewWriter(path, 44100)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.ErrorIs(t, w.Append(synth.NewClip(1)), record.ErrClosed)
	require.ErrorIs(t, w.Close(), record.ErrClosed)
}

func TestWriterBadPath(t *testing.T) {
	_, err := record.NewWriter(filepath.Join(t.TempDir(), "no", "such", "dir.wav"), 44100)
	require.Error(t, err)
}
