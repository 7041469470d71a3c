package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"PORT", "ENV", "DATA_DIR", "CORPUS_FILES", "SETTINGS_FILE", "UPLOAD_DIR",
	"ADMIN_PASSWORD", "JWT_SECRET", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RATE_LIMIT_PER_MINUTE", "ALLOWED_ORIGINS", "ENABLE_HSTS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, errs := Load("")
	require.Empty(t, errs)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultCorpusFiles(), cfg.CorpusFiles)
	assert.Equal(t, filepath.Join(DefaultDataDir, "settings.json"), cfg.SettingsFile)
	assert.Equal(t, DefaultRateLimitPerMinute, cfg.RateLimitPerMinute)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.EnableHSTS)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
env: staging
data_dir: /srv/odds
corpus_files:
  "2023": /srv/odds/2023.jsonl
admin_password: from-file
rate_limit_per_minute: 10
allowed_origins:
  - https://odds.example.com
`), 0644))

	cfg, errs := Load(path)
	require.Empty(t, errs)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, map[string]string{"2023": "/srv/odds/2023.jsonl"}, cfg.CorpusFiles)
	assert.Equal(t, "/srv/odds/settings.json", cfg.SettingsFile)
	assert.Equal(t, "from-file", cfg.AdminPassword)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"https://odds.example.com"}, cfg.AllowedOrigins)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9090\nadmin_password: from-file\n"), 0644))

	t.Setenv("PORT", "7000")
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("CORPUS_FILES", "2024=a.jsonl, 2025=b.jsonl")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://x.example.com")
	t.Setenv("ENABLE_HSTS", "true")

	cfg, errs := Load(path)
	require.Empty(t, errs)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "from-env", cfg.AdminPassword)
	assert.Equal(t, map[string]string{"2024": "a.jsonl", "2025": "b.jsonl"}, cfg.CorpusFiles)
	assert.Equal(t, []string{"http://localhost:3000", "https://x.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.EnableHSTS)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{"bad port", map[string]string{"PORT": "eighty"}, ErrInvalidPort},
		{"bad corpus files", map[string]string{"CORPUS_FILES": "2024"}, ErrInvalidCorpusFiles},
		{"production without secret", map[string]string{"ENV": "production"}, ErrMissingJWTSecret},
		{"zero rate limit", map[string]string{"RATE_LIMIT_PER_MINUTE": "-1"}, ErrInvalidRateLimit},
		{"bad redis db", map[string]string{"REDIS_DB": "one"}, ErrInvalidInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, errs := Load("")
			require.NotEmpty(t, errs)
			assert.ErrorIs(t, errors.Join(errs...), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, errs := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Nil(t, cfg)
	assert.Len(t, errs, 1)
}

func TestParseCorpusFiles(t *testing.T) {
	got, err := ParseCorpusFiles(" 2024 = data/a.jsonl ,2025=data/b.jsonl,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024": "data/a.jsonl", "2025": "data/b.jsonl"}, got)

	_, err = ParseCorpusFiles("2024=")
	assert.ErrorIs(t, err, ErrInvalidCorpusFiles)
}

func TestLogSummaryMasksSecrets(t *testing.T) {
	cfg := &Config{
		Port:          8000,
		AdminPassword: "supersecretpassword",
		JWTSecret:     "short",
		CorpusFiles:   map[string]string{"2025": "b", "2024": "a"},
	}
	s := cfg.LogSummary()
	assert.Equal(t, "supe****", s["admin_password"])
	assert.Equal(t, "****", s["jwt_secret"])
	assert.Equal(t, "<not set>", s["redis_password"])
	assert.Equal(t, "2024,2025", s["corpus_years"])
}
