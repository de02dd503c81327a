// Package synth adapts the meltysynth SoundFont synthesizer to the piano.
// It owns the synthesizer and SoundFont lifecycle and renders note events to
// stereo PCM; everything audible goes through here.
package synth

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rapidmidiex/gopiano/music"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

const (
	// DefaultSampleRate is the render rate used when none is configured.
	DefaultSampleRate = 44100

	// channel is the MIDI channel all piano notes are played on.
	channel int32 = 0
)

var (
	ErrNoSoundFont = errors.New("no soundfont loaded")
	ErrBadProgram  = errors.New("program number out of range")
)

// Engine wraps a meltysynth synthesizer behind a mutex so the live audio
// callback and callers can share it.
type Engine struct {
	mu       sync.Mutex
	settings *meltysynth.SynthesizerSettings
	synth    *meltysynth.Synthesizer
	font     *meltysynth.SoundFont
	fontPath string
}

// New returns an engine with no SoundFont loaded. Rate 0 means
// DefaultSampleRate.
func New(rate int) *Engine {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Engine{
		settings: meltysynth.NewSynthesizerSettings(int32(rate)),
	}
}

// SampleRate returns the engine's render rate in frames per second.
func (e *Engine) SampleRate() int {
	return int(e.settings.SampleRate)
}

// LoadSoundFont reads and parses a SoundFont file and rebuilds the
// synthesizer on it. Any previously loaded font is dropped first.
func (e *Engine) LoadSoundFont(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open soundfont: %w", err)
	}
	defer f.Close()

	font, err := meltysynth.NewSoundFont(f)
	if err != nil {
		return fmt.Errorf("parse soundfont %s: %w", path, err)
	}

	synthesizer, err := meltysynth.NewSynthesizer(font, e.settings)
	if err != nil {
		return fmt.Errorf("build synthesizer: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.font = font
	e.synth = synthesizer
	e.fontPath = path
	return nil
}

// UnloadSoundFont drops the current font and synthesizer.
func (e *Engine) UnloadSoundFont() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.font = nil
	e.synth = nil
	e.fontPath = ""
}

// FontPath returns the path of the loaded SoundFont, or "".
func (e *Engine) FontPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fontPath
}

// SetProgram selects a bank and program (instrument) on the piano channel.
func (e *Engine) SetProgram(bank, program int) error {
	if program < 0 || program > 127 {
		return fmt.Errorf("%w: %d", ErrBadProgram, program)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synth == nil {
		return ErrNoSoundFont
	}
	// Bank select (CC 0) followed by program change.
	e.synth.ProcessMidiMessage(channel, 0xB0, 0x00, int32(bank))
	e.synth.ProcessMidiMessage(channel, 0xC0, int32(program), 0)
	return nil
}

// Reset drops all sounding voices and restores default channel state.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synth != nil {
		e.synth.Reset()
	}
}

// NoteOn starts a note sounding on the live stream.
func (e *Engine) NoteOn(key, velocity int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synth == nil {
		return ErrNoSoundFont
	}
	e.synth.NoteOn(channel, int32(key), int32(velocity))
	return nil
}

// NoteOff releases a sounding note.
func (e *Engine) NoteOff(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synth != nil {
		e.synth.NoteOff(channel, int32(key))
	}
}

// AllNotesOff releases every sounding note.
func (e *Engine) AllNotesOff() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synth != nil {
		e.synth.NoteOffAll(false)
	}
}

// render fills the buffers from the synthesizer, or with silence when no
// font is loaded.
func (e *Engine) render(left, right []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synth == nil {
		for i := range left {
			left[i], right[i] = 0, 0
		}
		return
	}
	e.synth.Render(left, right)
}

// Frames converts a duration to a frame count at the engine rate.
func (e *Engine) Frames(d time.Duration) int {
	return int(float64(e.settings.SampleRate) * d.Seconds())
}

// RenderScore renders timed note events offline into a Clip of the given
// total length. Events past the end of the clip are clipped to it.
func (e *Engine) RenderScore(events []music.Event, total time.Duration) (*Clip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synth == nil {
		return nil, ErrNoSoundFont
	}

	frames := int(float64(e.settings.SampleRate) * total.Seconds())
	clip := NewClip(frames)

	type change struct {
		frame    int
		on       bool
		key, vel int
	}
	changes := make([]change, 0, 2*len(events))
	for _, ev := range events {
		changes = append(changes,
			change{frame: e.frameAt(ev.Start), on: true, key: ev.Key, vel: ev.Velocity},
			change{frame: e.frameAt(ev.Start + ev.Duration), key: ev.Key},
		)
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].frame < changes[j].frame })

	cursor := 0
	for _, c := range changes {
		at := c.frame
		if at > frames {
			at = frames
		}
		if at > cursor {
			e.synth.Render(clip.left[cursor:at], clip.right[cursor:at])
			cursor = at
		}
		if c.on {
			e.synth.NoteOn(channel, int32(c.key), int32(c.vel))
		} else {
			e.synth.NoteOff(channel, int32(c.key))
		}
	}
	if cursor < frames {
		e.synth.Render(clip.left[cursor:], clip.right[cursor:])
	}

	// Leave nothing ringing into the next render.
	e.synth.NoteOffAll(true)
	return clip, nil
}

func (e *Engine) frameAt(t time.Duration) int {
	return int(float64(e.settings.SampleRate) * t.Seconds())
}
