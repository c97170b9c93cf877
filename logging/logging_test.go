package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/ringbook/config"
)

func TestNewWritesToLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "ringbook.log")

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello from test"))
	assert.True(t, strings.Contains(string(data), `"app":"ringbook"`))
}

func TestNewRejectsBadLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "ringbook.log")
	cfg.LogLevel = "chatty"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "ringbook.log")

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Debug("invisible")
	_ = logger.Sync()

	data, _ := os.ReadFile(cfg.LogFile)
	assert.False(t, strings.Contains(string(data), "invisible"))
}
