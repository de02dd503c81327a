// Package record captures rendered audio to WAV files.
package record

import (
	"errors"
	"fmt"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

var ErrClosed = errors.New("recording already closed")

// Writer accumulates takes for one WAV file. The file is created up front so
// a bad path fails before anything is rendered; the audio itself is encoded
// when the recording is closed.
type Writer struct {
	file   *os.File
	format beep.Format
	takes  []beep.Streamer
	closed bool
}

// NewWriter opens a WAV recording at the given path.
func NewWriter(path string, sampleRate int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	return &Writer{
		file: f,
		format: beep.Format{
			SampleRate:  beep.SampleRate(sampleRate),
			NumChannels: 2,
			Precision:   2,
		},
	}, nil
}

// Path returns the file being recorded to.
func (w *Writer) Path() string { return w.file.Name() }

// Append adds a take to the recording. Takes are written back to back.
func (w *Writer) Append(s beep.Streamer) error {
	if w.closed {
		return ErrClosed
	}
	w.takes = append(w.takes, s)
	return nil
}

// Close encodes all appended takes and finalizes the file.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	if err := wav.Encode(w.file, beep.Seq(w.takes...), w.format); err != nil {
		w.file.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	return w.file.Close()
}
