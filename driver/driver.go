// Package driver manages the audio output lifecycle. Driver names are
// validated here; the actual platform backend is picked by the playback
// engine underneath. Start and stop are guarded so the device is never torn
// down twice, which crashes the engine.
package driver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// ErrUnknownDriver is returned for driver names not on the Valid list.
var ErrUnknownDriver = errors.New("unknown audio driver")

// Valid driver names. The empty name lets the engine pick the platform
// default. Not all drivers are available on every platform.
var Valid = []string{
	"",
	"alsa",
	"oss",
	"jack",
	"portaudio",
	"sndmgr",
	"coreaudio",
	"dsound",
	// Alias for dsound kept for callers using the long form.
	"Direct Sound",
	"pulseaudio",
}

// Buffer length for the output device.
// Bigger -> less CPU, slower response
// Lower -> more CPU, faster response
const bufLen = time.Millisecond * 100

// Output is a named audio output device.
type Output struct {
	mu     sync.Mutex
	name   string
	active bool
}

// New returns an output for the given driver name.
func New(name string) (*Output, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q, must be one of %q", ErrUnknownDriver, name, Valid)
	}
	return &Output{name: name}, nil
}

// Name returns the configured driver name.
func (o *Output) Name() string { return o.name }

// Active reports whether the output device is up.
func (o *Output) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Start brings the output device up at the given sample rate. Starting an
// active output is a no-op.
func (o *Output) Start(sampleRate int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active {
		return nil
	}
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(bufLen)); err != nil {
		return fmt.Errorf("start audio output (%s): %w", o.describe(), err)
	}
	o.active = true
	return nil
}

// Stop tears the output device down. Stopping an inactive output is a no-op;
// tearing down twice crashes the engine, so the guard matters.
func (o *Output) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.active {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	o.active = false
	return nil
}

// Play hands a streamer to the device and returns immediately.
func (o *Output) Play(s beep.Streamer) {
	speaker.Play(s)
}

// PlayAndWait hands a streamer to the device and blocks until it drains.
func (o *Output) PlayAndWait(s beep.Streamer) {
	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))
	<-done
}

// Clear drops everything queued on the device.
func (o *Output) Clear() {
	speaker.Clear()
}

func (o *Output) describe() string {
	if o.name == "" {
		return "default driver"
	}
	return o.name
}

func validName(name string) bool {
	for _, v := range Valid {
		if name == v {
			return true
		}
	}
	return false
}
