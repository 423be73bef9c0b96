package testlog

import (
	"testing"

	"github.com/danmuck/msgsink/internal/logging"
	"github.com/rs/zerolog"
)

// Start configures test logging and returns a logger that writes through t,
// so output shows up only for failing or verbose tests.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	logger := zerolog.New(zerolog.NewTestWriter(t)).
		Level(zerolog.DebugLevel).
		With().
		Str("test", t.Name()).
		Logger()
	logger.Debug().Msg("test start")
	return logger
}
