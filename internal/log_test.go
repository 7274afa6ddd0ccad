package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel(" debug "))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLoggerRespectsLevel(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(zcore), LogLevelWarn)

	logger.Info("dropped %d", 1)
	logger.Warn("kept %d", 2)
	logger.Error("kept %d", 3)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "kept 2", entries[0].Message)
		assert.Equal(t, "kept 3", entries[1].Message)
	}
}

func TestLoggerWithAddsContext(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(zcore), LogLevelInfo).With("column", "age")

	logger.Info("flagged %d rows", 2)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "age", entries[0].ContextMap()["column"])
	}
}
