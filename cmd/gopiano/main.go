package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rapidmidiex/gopiano"
	"github.com/rapidmidiex/gopiano/config"
	"github.com/rapidmidiex/gopiano/logging"
	"github.com/rapidmidiex/gopiano/music"
	"github.com/rapidmidiex/gopiano/remote"
	"github.com/rapidmidiex/gopiano/tui"
)

var (
	configVar     string
	soundFontVar  string
	driverVar     string
	instrumentVar string
	bpmVar        float64
	playVar       string
	recordVar     string
	tailVar       time.Duration
	remoteVar     string
	sessionsVar   string
)

func init() {
	flag.StringVar(&configVar, "config", "", "Config file path")
	flag.StringVar(&soundFontVar, "sf2", "", "SoundFont file path")
	flag.StringVar(&driverVar, "driver", "", "Audio driver (alsa, pulseaudio, coreaudio, ...)")
	flag.StringVar(&instrumentVar, "instrument", "", "General MIDI instrument name")
	flag.Float64Var(&bpmVar, "bpm", 0, "Playback tempo, quarter notes per minute")
	flag.StringVar(&playVar, "play", "", `Score to play, ex: "C-4 E-4 C-4+E-4+G-4"`)
	flag.StringVar(&recordVar, "record", "", "Record the score to this WAV file instead of playing it")
	flag.DurationVar(&tailVar, "tail", 0, "Release tail rendered after the last note")
	flag.StringVar(&remoteVar, "remote", "", "Jam session websocket URL")
	flag.StringVar(&sessionsVar, "sessions", "", "List jam sessions at this API URL and exit")
}

func main() {
	flag.Parse()

	if sessionsVar != "" {
		sessions, err := remote.Sessions(sessionsVar)
		bail(err)
		for _, s := range sessions {
			fmt.Printf("%s  %s (%d players)\n", s.Id, s.Name, s.PlayerCount)
		}
		return
	}

	cfg, err := config.Load(configVar)
	bail(err)

	log := logging.New(cfg.Log)
	defer log.Sync()

	p, err := gopiano.New(pianoOptions(cfg, log)...)
	bail(err)
	defer p.Close()

	if playVar != "" {
		bail(playScore(p))
		return
	}
	if recordVar != "" {
		bail(fmt.Errorf("-record needs a score, pass -play as well"))
	}

	var tuiOpts []tui.Option
	if remoteVar != "" {
		client, err := remote.Dial(remoteVar, p, log)
		bail(err)
		defer client.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := client.Listen(ctx); err != nil {
				log.Error("session closed", zap.Error(err))
			}
		}()
		tuiOpts = append(tuiOpts, tui.WithSession(client))
	}

	bail(tui.Run(p, tuiOpts...))
}

// pianoOptions folds the config file and flag overrides into piano options.
// Flags win.
func pianoOptions(cfg *config.Config, log *zap.Logger) []gopiano.Option {
	if soundFontVar != "" {
		cfg.SoundFont = soundFontVar
	}
	if driverVar != "" {
		cfg.Driver = driverVar
	}
	if instrumentVar != "" {
		cfg.Instrument = instrumentVar
	}
	if bpmVar > 0 {
		cfg.BPM = bpmVar
	}
	tail := time.Duration(cfg.Record.TailSeconds) * time.Second
	if tailVar > 0 {
		tail = tailVar
	}

	opts := []gopiano.Option{
		gopiano.WithLogger(log),
		gopiano.WithDriver(cfg.Driver),
		gopiano.WithInstrument(cfg.Instrument),
		gopiano.WithBPM(cfg.BPM),
		gopiano.WithSampleRate(cfg.SampleRate),
		gopiano.WithRecordTail(tail),
	}
	if cfg.SoundFont != "" {
		opts = append(opts, gopiano.WithSoundFont(cfg.SoundFont))
	}
	return opts
}

func playScore(p *gopiano.Piano) error {
	track, err := parseScore(playVar)
	if err != nil {
		return err
	}
	if recordVar != "" {
		return p.Record(track, gopiano.RecordOpts{Path: recordVar})
	}
	return p.Play(track)
}

// parseScore reads a space-separated sequence of quarter notes into 4/4 bars.
// "+" joins the notes of a chord, "-" alone is a rest. Ex:
// "C-4 E-4 - C-4+E-4+G-4".
func parseScore(score string) (*music.Track, error) {
	track := &music.Track{}
	bar := music.NewBar(music.Meter{})
	for _, tok := range strings.Fields(score) {
		if bar.Full() {
			track.Add(bar)
			bar = music.NewBar(music.Meter{})
		}
		if tok == "-" {
			if err := bar.Rest(music.Quarter); err != nil {
				return nil, err
			}
			continue
		}
		var chord music.Chord
		for _, name := range strings.Split(tok, "+") {
			n, err := music.ParseNote(name)
			if err != nil {
				return nil, err
			}
			chord = append(chord, n)
		}
		if err := bar.Place(music.Quarter, chord...); err != nil {
			return nil, err
		}
	}
	track.Add(bar)
	return track, nil
}

func bail(err error) {
	if err != nil {
		fmt.Printf("Uh oh, there was an error: %v\n", err)
		os.Exit(1)
	}
}
