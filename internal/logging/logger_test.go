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
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/kpilens/internal/config"
)

func fileOnly(dir, level string) config.LogConfig {
	return config.LogConfig{
		Level:              level,
		Format:             "none",
		FileLoggingEnabled: true,
		Directory:          dir,
		Filename:           "kpilens.log",
		MaxSize:            1,
		MaxBackups:         1,
		MaxAge:             1,
	}
}

func TestNewLogger_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	logger, err := NewLogger(fileOnly(dir, "info"))
	require.NoError(t, err)

	logger.Named("calculator").Info("series registered", zap.String("series_id", "cpu"))
	logger.Debug("dropped below level")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(filepath.Join(dir, "kpilens.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "calculator", entry["logger"])
	assert.Equal(t, "series registered", entry["msg"])
	assert.Equal(t, "cpu", entry["series_id"])
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(fileOnly(t.TempDir(), "loud"))
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_NoOutputs(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "info", Format: "none"})
	assert.Error(t, err)
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{FormatConsole, FormatJSON} {
		logger, err := NewLogger(config.LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), format)
	}
}
