package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/andrewwphillips/restaurantql/internal/logging"
)

func TestNew(t *testing.T) {
	tests := map[string]struct {
		level, format string
		ok            bool
	}{
		"json":        {"info", "json", true},
		"console":     {"debug", "console", true},
		"default":     {"warn", "", true},
		"bad_level":   {"loud", "json", false},
		"bad_format":  {"info", "xml", false},
		"error_level": {"error", "json", true},
	}
	for name, tt := range tests {
		l, err := logging.New(tt.level, tt.format)
		if !tt.ok {
			assert.Error(t, err, name)
			continue
		}
		require.NoError(t, err, name)
		assert.NotNil(t, l, name)
	}
}

func TestLeveled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logging.NewLeveled(zap.New(core))

	l.Debug("d", "k", 1)
	l.Info("i")
	l.Warn("w", "attempt", 2)
	l.Error("e", "err", "boom")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(1), entries[0].ContextMap()["k"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["err"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", logging.Truncate("abc", 3))
	assert.Equal(t, "ab...", logging.Truncate("abc", 2))
}
