package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rapidmidiex/gopiano/config"
	"github.com/rapidmidiex/gopiano/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("falls back to info on a bad level", func(t *testing.T) {
		log := logging.New(config.LogConfig{Level: "shouting"})
		require.NotNil(t, log)
		log.Info("still alive")
	})

	t.Run("writes to the configured file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gopiano.log")
		log := logging.New(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1})

		log.Debug("note on", zap.Int("key", 60))
		require.NoError(t, log.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(data), "note on")
	})
}
