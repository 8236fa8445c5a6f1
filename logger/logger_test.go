package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithLogFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "goopy-sheets.log")

	log, err := New(Config{Level: "info", Format: "console", File: file, MaxSize: 1})
	require.NoError(t, err)

	log.Sugar().Infof("Row %v. %v: %v --> %v: %v", 1, "status", "done", "status", "X")
	log.Sugar().Debugf("not logged at info level")
	_ = log.Sync()

	b, err := os.ReadFile(file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"message":"Row 1. status: done --> status: X"`)
	assert.Contains(t, lines[0], `"level":"info"`)
}

func TestNewWithInvalidLevel(t *testing.T) {
	log, err := New(Config{Level: "chatty"})
	require.NoError(t, err)

	assert.True(t, log.Core().Enabled(0))
	assert.False(t, log.Core().Enabled(-1))
}
