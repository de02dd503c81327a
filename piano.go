// Package gopiano is a keyboard-oriented layer over a SoundFont synthesizer.
// It plays notes, chords, bars and tracks through the audio output or records
// them to WAV files, validating everything against an 88-key piano first.
// The synthesizer and the audio device do the real work; this layer tracks
// their lifecycles and dispatches to them.
package gopiano

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/faiface/beep"
	"go.uber.org/zap"

	"github.com/rapidmidiex/gopiano/driver"
	"github.com/rapidmidiex/gopiano/keybed"
	"github.com/rapidmidiex/gopiano/music"
	"github.com/rapidmidiex/gopiano/record"
	"github.com/rapidmidiex/gopiano/synth"
)

var (
	ErrInvalidNotes      = errors.New("notes not on an 88-key piano")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrNoRecordingPath   = errors.New("no recording path given")
)

type (
	// Engine is the synthesizer underneath the piano. *synth.Engine is the
	// real one.
	Engine interface {
		SampleRate() int
		LoadSoundFont(path string) error
		UnloadSoundFont()
		FontPath() string
		SetProgram(bank, program int) error
		Reset()
		NoteOn(key, velocity int) error
		NoteOff(key int)
		AllNotesOff()
		RenderScore(events []music.Event, total time.Duration) (*synth.Clip, error)
	}

	// Output is the audio device the piano sounds through. *driver.Output
	// is the real one.
	Output interface {
		Name() string
		Start(sampleRate int) error
		Stop() error
		Play(s beep.Streamer)
		PlayAndWait(s beep.Streamer)
		Clear()
	}

	// Piano plays validated notes through an Engine, either live through an
	// Output or offline into a WAV recording.
	Piano struct {
		engine Engine
		output Output
		keys   keybed.Keys
		log    *zap.Logger

		bpm        float64
		sampleRate int
		driverName string

		// Lifecycle state.
		fontPath     string
		fontLoaded   bool
		defaultFont  bool
		outputActive bool
		instrument   string
		program      int

		rec     *record.Writer
		recTail time.Duration
	}

	// RecordOpts controls one recorded take.
	RecordOpts struct {
		// Path of the WAV file. May be empty when a recording is already
		// open.
		Path string
		// Tail rendered after the last note, for the release to ring out.
		// Zero means the piano's default tail.
		Tail time.Duration
		// KeepOpen leaves the recording open so further takes append to
		// the same file and audio output stays down.
		KeepOpen bool
	}

	Option func(*Piano)
)

// WithSoundFont sets an explicit SoundFont path instead of searching the
// well-known locations.
func WithSoundFont(path string) Option { return func(p *Piano) { p.fontPath = path } }

// WithDriver names the audio driver to use.
func WithDriver(name string) Option { return func(p *Piano) { p.driverName = name } }

// WithInstrument selects a General MIDI instrument by name.
func WithInstrument(name string) Option { return func(p *Piano) { p.instrument = name } }

// WithBPM sets the playback tempo in quarter notes per minute.
func WithBPM(bpm float64) Option { return func(p *Piano) { p.bpm = bpm } }

// WithSampleRate sets the render rate in frames per second.
func WithSampleRate(rate int) Option { return func(p *Piano) { p.sampleRate = rate } }

// WithRecordTail sets the default release tail for recordings.
func WithRecordTail(d time.Duration) Option { return func(p *Piano) { p.recTail = d } }

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option { return func(p *Piano) { p.log = log } }

// WithEngine injects a synthesizer, mainly for tests.
func WithEngine(e Engine) Option { return func(p *Piano) { p.engine = e } }

// WithOutput injects an audio output, mainly for tests.
func WithOutput(o Output) Option { return func(p *Piano) { p.output = o } }

// New builds a piano: resolves and loads the SoundFont, validates the audio
// driver, and selects the instrument. Audio output itself comes up lazily on
// the first Play.
func New(opts ...Option) (*Piano, error) {
	p := &Piano{
		keys:       keybed.New(),
		log:        zap.NewNop(),
		bpm:        120,
		instrument: DefaultInstrument,
		program:    -1,
		recTail:    4 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.engine == nil {
		p.engine = synth.New(p.sampleRate)
	}
	if p.output == nil {
		out, err := driver.New(p.driverName)
		if err != nil {
			return nil, err
		}
		p.output = out
	}

	// No explicit font means the bundled/default General MIDI font; named
	// instrument selection is only validated against that one.
	fontPath := p.fontPath
	discovered := false
	if fontPath == "" {
		found, err := synth.FindSoundFont("")
		if err != nil {
			return nil, fmt.Errorf("resolve soundfont: %w", err)
		}
		fontPath = found
		discovered = true
	}
	if err := p.LoadSoundFont(fontPath); err != nil {
		return nil, err
	}
	p.defaultFont = discovered

	// Named instruments only exist for the default font; with a custom one
	// the caller selects a raw program, so a configured name is dropped
	// rather than reported as applied.
	if p.defaultFont {
		if err := p.LoadInstrument(p.instrument); err != nil {
			return nil, err
		}
	} else {
		p.instrument = ""
	}
	return p, nil
}

// LoadSoundFont loads a SoundFont file, unloading the previous one first.
func (p *Piano) LoadSoundFont(path string) error {
	p.log.Debug("loading sound fonts", zap.String("path", path))

	if p.fontLoaded {
		p.unloadSoundFont()
	}

	if err := p.engine.LoadSoundFont(path); err != nil {
		return fmt.Errorf("load sound fonts from %s: %w", path, err)
	}
	p.fontLoaded = true
	p.fontPath = path
	// A font loaded by path is a custom font; named instrument lookup is
	// only trusted on the discovered default font.
	p.defaultFont = false

	// Switching fonts drops the channel program; bring the instrument back.
	if p.program >= 0 {
		if err := p.engine.SetProgram(0, p.program); err != nil {
			return err
		}
	}

	p.log.Debug("sound fonts initialized", zap.String("path", path))
	return nil
}

func (p *Piano) unloadSoundFont() {
	if !p.fontLoaded {
		p.log.Debug("no active sound fonts")
		return
	}
	p.log.Debug("unloading sound fonts", zap.String("path", p.fontPath))
	p.engine.UnloadSoundFont()
	p.fontLoaded = false
}

// LoadInstrument selects a General MIDI instrument by name. Names are only
// known for the default SoundFont; with a custom font use LoadProgram.
func (p *Piano) LoadInstrument(name string) error {
	p.log.Info("setting instrument", zap.String("instrument", name))

	if !p.defaultFont {
		return fmt.Errorf("%w: %q, custom soundfont loaded, select instruments with LoadProgram", ErrUnknownInstrument, name)
	}
	program, ok := DefaultInstruments[name]
	if !ok {
		return fmt.Errorf("%w: %q, must be one of %q", ErrUnknownInstrument, name, InstrumentNames())
	}
	if err := p.engine.SetProgram(0, program); err != nil {
		return err
	}
	p.instrument = name
	p.program = program
	return nil
}

// LoadProgram selects an instrument by raw program number, for custom
// SoundFonts.
func (p *Piano) LoadProgram(program int) error {
	p.log.Info("setting program", zap.Int("program", program))

	if err := p.engine.SetProgram(0, program); err != nil {
		return err
	}
	p.instrument = fmt.Sprintf("program %d", program)
	p.program = program
	return nil
}

// Instrument returns the name of the selected instrument.
func (p *Piano) Instrument() string { return p.instrument }

// BPM returns the playback tempo.
func (p *Piano) BPM() float64 { return p.bpm }

// Driver returns the configured audio driver name.
func (p *Piano) Driver() string { return p.driverName }

// Keys returns the piano's keybed.
func (p *Piano) Keys() keybed.Keys { return p.keys }

// Play validates the container and plays it through the audio output,
// blocking until it has sounded.
func (p *Piano) Play(c music.Container) error {
	if err := p.lint(c); err != nil {
		return err
	}

	p.log.Info("playing",
		zap.Strings("notes", c.NoteNames()),
		zap.Float64("bpm", p.bpm))

	if err := p.startOutput(); err != nil {
		return err
	}

	clip, err := p.engine.RenderScore(c.Events(p.bpm), music.Span(c, p.bpm)+liveTail)
	if err != nil {
		return err
	}
	p.output.PlayAndWait(clip)
	return nil
}

// PlayNote plays a single note given in "C#-4" form.
func (p *Piano) PlayNote(name string) error {
	n, err := music.ParseNote(name)
	if err != nil {
		return err
	}
	return p.Play(n)
}

// PlayKey plays a piano key by number, 1-88.
func (p *Piano) PlayKey(number int) error {
	k, err := p.keys.Key(number)
	if err != nil {
		return err
	}
	return p.Play(k.Note())
}

// liveTail lets releases ring out after the last note of a live container.
const liveTail = 500 * time.Millisecond

// Record validates the container, switches audio output off, renders the
// container offline and writes it to a WAV file. Unless the take is kept
// open, the recording is finalized and audio output brought back up.
func (p *Piano) Record(c music.Container, opts RecordOpts) error {
	if err := p.lint(c); err != nil {
		return err
	}

	tail := opts.Tail
	if tail == 0 {
		tail = p.recTail
	}

	w, err := p.recorder(opts.Path)
	if err != nil {
		return err
	}

	p.log.Info("recording",
		zap.Strings("notes", c.NoteNames()),
		zap.String("file", w.Path()))

	// Live output and offline rendering share the synthesizer; output goes
	// down for the duration of the take.
	if err := p.stopOutput(); err != nil {
		return err
	}

	clip, err := p.engine.RenderScore(c.Events(p.bpm), music.Span(c, p.bpm)+tail)
	if err != nil {
		return err
	}
	if err := w.Append(clip); err != nil {
		return err
	}

	if opts.KeepOpen {
		p.rec = w
		p.log.Info("take appended, recording left open", zap.String("file", w.Path()))
		return nil
	}
	p.rec = nil
	if err := w.Close(); err != nil {
		return err
	}
	return p.startOutput()
}

// recorder returns the open recording or starts a new one at path.
func (p *Piano) recorder(path string) (*record.Writer, error) {
	if p.rec != nil {
		if path == "" || path == p.rec.Path() {
			return p.rec, nil
		}
		// A new path finalizes the previous recording.
		if err := p.rec.Close(); err != nil {
			return nil, err
		}
		p.rec = nil
	}
	if path == "" {
		return nil, ErrNoRecordingPath
	}
	return record.NewWriter(path, p.engine.SampleRate())
}

// StopRecording finalizes an open recording and brings audio output back up.
func (p *Piano) StopRecording() error {
	if p.rec == nil {
		return nil
	}
	err := p.rec.Close()
	p.rec = nil
	if err != nil {
		return err
	}
	return p.startOutput()
}

// Stop silences a playing container: single notes and chords get their keys
// released, anything larger stops everything.
func (p *Piano) Stop(c music.Container) {
	switch c := c.(type) {
	case music.Note:
		p.noteOff(c)
	case music.Chord:
		for _, n := range c {
			p.noteOff(n)
		}
	default:
		p.StopAll()
	}
}

// StopAll releases every sounding note and drops anything queued on the
// output.
func (p *Piano) StopAll() {
	p.engine.AllNotesOff()
	if p.outputActive {
		p.output.Clear()
	}
}

func (p *Piano) noteOff(n music.Note) {
	if key, err := n.MIDI(); err == nil {
		p.engine.NoteOff(key)
	}
}

// NoteOn starts a key sounding live, for interactive playing. The audio
// output comes up if it is down.
func (p *Piano) NoteOn(n music.Note) error {
	if !p.keys.Contains(n) {
		return fmt.Errorf("%w: %s", ErrInvalidNotes, n)
	}
	if err := p.startOutput(); err != nil {
		return err
	}
	key, err := n.MIDI()
	if err != nil {
		return err
	}
	vel := n.Velocity
	if vel == 0 {
		vel = music.DefaultVelocity
	}
	return p.engine.NoteOn(key, vel)
}

// NoteOff releases a live-sounding key.
func (p *Piano) NoteOff(n music.Note) {
	p.noteOff(n)
}

// Pause blocks for the given duration.
func Pause(d time.Duration) {
	time.Sleep(d)
}

// Close stops everything, finalizes any open recording, and releases the
// audio device and SoundFont.
func (p *Piano) Close() error {
	p.StopAll()

	var errs []error
	if p.rec != nil {
		if err := p.rec.Close(); err != nil {
			errs = append(errs, err)
		}
		p.rec = nil
	}
	if err := p.stopOutput(); err != nil {
		errs = append(errs, err)
	}
	p.unloadSoundFont()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// startOutput brings the audio device up and attaches the live stream.
// Starting an active output is a no-op.
func (p *Piano) startOutput() error {
	if p.outputActive {
		p.log.Debug("audio output already active")
		return nil
	}
	p.log.Debug("starting audio output", zap.String("driver", p.output.Name()))

	if err := p.output.Start(p.engine.SampleRate()); err != nil {
		return err
	}
	p.output.Play(synthLive(p.engine))
	p.outputActive = true
	return p.resetProgram()
}

// stopOutput tears the audio device down. The device crashes on a double
// teardown, so an inactive output is left alone.
func (p *Piano) stopOutput() error {
	if !p.outputActive {
		p.log.Debug("audio output already inactive")
		return nil
	}
	p.log.Debug("stopping audio output", zap.String("driver", p.output.Name()))

	if err := p.output.Stop(); err != nil {
		return err
	}
	p.outputActive = false
	return p.resetProgram()
}

// resetProgram resets the synthesizer channels and reapplies the selected
// instrument, mirroring the engine's program reset after output changes.
func (p *Piano) resetProgram() error {
	p.engine.Reset()
	if p.program >= 0 {
		return p.engine.SetProgram(0, p.program)
	}
	return nil
}

// lint checks a container for notes that are not on an 88-key piano.
func (p *Piano) lint(c music.Container) error {
	var invalid []string
	for _, name := range c.NoteNames() {
		n, err := music.ParseNote(name)
		if err != nil || !p.keys.Contains(n) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidNotes, strings.Join(invalid, ", "))
	}
	return nil
}

// synthLive returns the engine's live stream. Split out so a fake Engine in
// tests can satisfy it too.
func synthLive(e Engine) beep.Streamer {
	if se, ok := e.(*synth.Engine); ok {
		return synth.NewLive(se)
	}
	return beep.Silence(-1)
}
