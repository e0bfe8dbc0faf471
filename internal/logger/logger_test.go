package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestDefaultLoggerSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := newDefault(&buf)

	l.Debug("decoding step", "step", 1)
	assert.Empty(t, buf.String())

	l.Info("generation started")
	assert.Contains(t, buf.String(), "generation started")
	assert.Equal(t, zerolog.InfoLevel, Log.z.GetLevel())
}

func TestSetupWriterJSON(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")

	Log.Debug("hidden")
	Log.With("request_id", "r1").Info("generation finished", "steps", 3, "err", errors.New("boom"), "dangling")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "generation finished", entry["message"])
	assert.Equal(t, "r1", entry["request_id"])
	assert.EqualValues(t, 3, entry["steps"])
	assert.Equal(t, "boom", entry["err"])
	assert.NotContains(t, entry, "dangling")
}
