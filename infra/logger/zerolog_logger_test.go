package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestWriterCarriesComponent(t *testing.T) {
	defer SetVerbose(false)
	SetVerbose(false)

	var buf bytes.Buffer
	l := NewWithWriter("scheduler", &buf)
	l.Debugf("hidden")
	l.Infof("1/%d done", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "scheduler", rec["component"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "1/3 done", rec["message"])

	SetVerbose(true)
	buf.Reset()
	l.Debugw("fields", map[string]any{"run": 2})
	assert.Contains(t, buf.String(), `"run":2`)
}

func TestSetVerbose(t *testing.T) {
	defer SetVerbose(false)
	SetVerbose(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	SetVerbose(false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
