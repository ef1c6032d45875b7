package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_WritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "app.log")

	lg, err := NewLogger(Config{Level: "info", File: file, Production: true})
	require.NoError(t, err)

	lg.Info("document saved", zap.Int64(FieldVersion, 6))
	_ = lg.Sync()

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"version":6`)
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	assert.Error(t, err)
}
