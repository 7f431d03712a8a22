package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(build(LoggerConfig{Level: zerolog.DebugLevel, Writer: buf}))
	defer SetLogger(zerolog.Nop())

	Info("loaded feed", "trips", 12, "url", "http://x", "error", errors.New("boom"))

	line := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "loaded feed", line["message"])
	assert.Equal(t, float64(12), line["trips"])
	assert.Equal(t, "http://x", line["url"])
	assert.Equal(t, "boom", line["error"])

	buf.Reset()
	Warn("map fields", map[string]interface{}{"route": "R1"})
	line = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "R1", line["route"])
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(build(LoggerConfig{Level: zerolog.WarnLevel, Writer: buf}))
	defer SetLogger(zerolog.Nop())

	Debug("hidden")
	Info("hidden")
	assert.Equal(t, 0, buf.Len())

	Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNopByDefault(t *testing.T) {
	// No writers configured gives a logger that drops everything.
	l := build(LoggerConfig{Level: zerolog.DebugLevel})
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}
