package common

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "syncora.db", cfg.Database.DSN)
	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "google/gemma-3-27b-it", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTTTL)
	assert.Equal(t, "eng", cfg.OCR.Lang)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Positive(t, cfg.OCR.Workers)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes)
}

func TestLoadConfig_LegacyEnvNames(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("APP_JWT_SECRET", "jwt-secret")
	t.Setenv("SECRET_KEY", "session")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csecret")
	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/syncora")
	t.Setenv("PIPELINE_REQUEST_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "or-key", cfg.LLM.APIKey)
	assert.Equal(t, "jwt-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "session", cfg.Auth.SessionSecret)
	assert.Equal(t, "cid", cfg.Auth.GoogleClientID)
	assert.Equal(t, "postgres://u:p@localhost:5432/syncora", cfg.Database.DSN)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.RequestTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_WriteTimeoutOutlivesHandler(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.HandlerTimeout())
	assert.Equal(t, cfg.HandlerTimeout()+5*time.Second, cfg.WriteTimeout())

	t.Setenv("PIPELINE_REQUEST_TIMEOUT", "5m")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute+30*time.Second, cfg.HandlerTimeout())
	assert.Greater(t, cfg.WriteTimeout(), cfg.HandlerTimeout())

	t.Setenv("SERVER_WRITE_TIMEOUT", "10m")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.WriteTimeout())
}

func TestConfigValidate_MissingSecrets(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var ae *AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "CONFIG_ERROR", ae.Code)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	NewLogger(LogConfig{Level: "bogus", Format: "text"}, &buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
