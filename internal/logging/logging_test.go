package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, l)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, Options{Level: "warn", Format: FormatJSON})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("skipping object", "addr", "0x1000", "kind", "struct")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "skipping object", rec["msg"])
	assert.Equal(t, "0x1000", rec["addr"])
	assert.Equal(t, "struct", rec["kind"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, Options{Format: FormatText})
	require.NoError(t, err)

	log.Debug("dropped")
	log.Info("generation finished", "objects", 3)
	assert.Contains(t, buf.String(), "msg=\"generation finished\" objects=3")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewAutoPicksJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))

	log, err := New(&buf, Options{Format: FormatAuto})
	require.NoError(t, err)
	log.Info("hello")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewErrors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, Options{Level: "loud"})
	assert.Error(t, err)
}
