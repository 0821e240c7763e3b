package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"Unknown level", Options{Level: "chatty"}},
		{"Unknown format", Options{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestNew_Levels(t *testing.T) {
	logger, err := New(Options{Level: "WARN"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	logger, err = New(Options{})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	logger, err := New(Options{Level: "debug", Format: FormatJSON, File: path})
	require.NoError(t, err)

	logger.With(zap.String("run_id", "abc")).Debug("copied", zap.String("source", "a.sub"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "copied", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "a.sub", entry["source"])
	assert.Equal(t, "debug", entry["level"])
}
