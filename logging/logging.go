// Package logging builds the zap logger the piano and CLI log through.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rapidmidiex/gopiano/config"
)

// New builds a logger from the log config. With a file configured the log is
// rotated by size; otherwise it goes to stderr.
func New(cfg config.LogConfig) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	var sink zapcore.WriteSyncer
	encCfg := zap.NewProductionEncoderConfig()
	if cfg.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
		encCfg = zap.NewDevelopmentEncoderConfig()
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, level)
	return zap.New(core)
}
