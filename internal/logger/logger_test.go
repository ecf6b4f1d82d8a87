package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_FileOutputJSON(t *testing.T) {
	previous, level, timeFormat := log.Logger, zerolog.GlobalLevel(), zerolog.TimeFieldFormat
	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = timeFormat
	})

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Setup(LogConfig{Level: "debug", Format: "json", Output: path}))

	l := WithComponent("ledger")
	l.Debug().Str("invoice_id", "in_1").Msg("Retrieved invoice")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"ledger"`)
	assert.Contains(t, string(data), `"invoice_id":"in_1"`)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_InvalidLevel(t *testing.T) {
	assert.Error(t, Setup(LogConfig{Level: "loud"}))
}
