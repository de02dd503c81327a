// Package config loads the piano configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level piano configuration.
type Config struct {
	// SoundFont is the path to a .sf2 file. Empty means search the
	// well-known locations.
	SoundFont string `yaml:"soundfont"`
	// Driver is the audio driver name. Empty means platform default.
	Driver string `yaml:"driver"`
	// Instrument is the General MIDI instrument name used with the default
	// SoundFont.
	Instrument string `yaml:"instrument"`
	// BPM is the playback tempo in quarter notes per minute.
	BPM float64 `yaml:"bpm"`
	// SampleRate is the render rate in frames per second.
	SampleRate int          `yaml:"sample_rate"`
	Record     RecordConfig `yaml:"record"`
	Log        LogConfig    `yaml:"log"`
}

// RecordConfig controls WAV capture.
type RecordConfig struct {
	// TailSeconds of release tail rendered after the last note.
	TailSeconds int `yaml:"tail_seconds"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// File is a log file path. Empty logs to stderr.
	File string `yaml:"file"`
	// MaxSizeMB before the log file is rotated.
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
}

// Load reads and validates a config file. A missing path returns defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	setDefaults(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Instrument == "" {
		cfg.Instrument = "Acoustic Grand Piano"
	}
	if cfg.BPM == 0 {
		cfg.BPM = 120
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Record.TailSeconds == 0 {
		cfg.Record.TailSeconds = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
}
