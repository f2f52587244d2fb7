package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(16*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{".xlsx", ".csv"}, cfg.Upload.AllowedTypes)
	assert.Empty(t, cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Preview.Rows)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TABULA_SERVER_ADDR", ":9999")
	t.Setenv("TABULA_UPLOAD_MAXBYTES", "1024")
	t.Setenv("TABULA_LOG_DEVELOPMENT", "true")
	t.Setenv("TABULA_STORE_PATH", "/tmp/tabula.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "/tmp/tabula.db", cfg.Store.Path)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabula.yaml")
	content := "server:\n  addr: \":7000\"\nupload:\n  allowedtypes: [\".csv\"]\npreview:\n  rows: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, []string{".csv"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 3, cfg.Preview.Rows)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TABULA_UPLOAD_MAXBYTES", "0")
	_, err := Load("")
	assert.ErrorContains(t, err, "upload.maxbytes")
}

func TestLogConfig_NewLogger(t *testing.T) {
	logger, err := LogConfig{Level: "debug"}.NewLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = LogConfig{Level: "warn", Development: true}.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = LogConfig{Level: "loud"}.NewLogger()
	assert.Error(t, err)
}
