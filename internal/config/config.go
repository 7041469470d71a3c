// Package config loads service configuration from an optional YAML file and
// the environment. Environment variables take precedence over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the server
type Config struct {
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	DataDir      string            `koanf:"data_dir"`
	CorpusFiles  map[string]string `koanf:"corpus_files"`
	SettingsFile string            `koanf:"settings_file"`
	UploadDir    string            `koanf:"upload_dir"`

	AdminPassword string `koanf:"admin_password"`
	JWTSecret     string `koanf:"jwt_secret"`

	RedisAddr          string `koanf:"redis_addr"`
	RedisPassword      string `koanf:"redis_password"`
	RedisDB            int    `koanf:"redis_db"`
	RateLimitPerMinute int    `koanf:"rate_limit_per_minute"`

	AllowedOrigins []string `koanf:"allowed_origins"`
	EnableHSTS     bool     `koanf:"enable_hsts"`
}

var (
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
	ErrInvalidInteger     = errors.New("value must be a valid integer")
	ErrInvalidCorpusFiles = errors.New("CORPUS_FILES entries must look like YEAR=PATH")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required in production")
	ErrInvalidRateLimit   = errors.New("RATE_LIMIT_PER_MINUTE must be positive")
)

const (
	DefaultPort               = 8000
	DefaultEnv                = "development"
	DefaultDataDir            = "./data"
	DefaultRateLimitPerMinute = 30
	DefaultJWTSecret          = "paper-odds-development-secret"

	defaultHistoryDir = "nips_history_data"
)

// DefaultCorpusFiles returns the historical files looked up when none are configured
func DefaultCorpusFiles() map[string]string {
	return map[string]string{
		"2024": filepath.Join(defaultHistoryDir, "ICLR_2024_formatted.jsonl"),
		"2025": filepath.Join(defaultHistoryDir, "ICLR_2025_formatted.jsonl"),
	}
}

// Load reads configuration from the environment and an optional config file.
// It returns the config and a slice of validation errors (empty if valid).
// A config file that cannot be loaded is returned as the only error.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, err := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if err != nil {
		loadErrs = append(loadErrs, fmt.Errorf("%w: %v", ErrInvalidPort, err))
	}

	redisDB, err := getEnvIntOrDefault("REDIS_DB", k.Int("redis_db"), 0)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	rateLimit, err := getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", k.Int("rate_limit_per_minute"), DefaultRateLimitPerMinute)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	corpusFiles := k.StringMap("corpus_files")
	if val := os.Getenv("CORPUS_FILES"); val != "" {
		parsed, err := ParseCorpusFiles(val)
		if err != nil {
			loadErrs = append(loadErrs, err)
		} else {
			corpusFiles = parsed
		}
	}
	if len(corpusFiles) == 0 {
		corpusFiles = DefaultCorpusFiles()
	}

	dataDir := getEnvOrDefault("DATA_DIR", k.String("data_dir"), DefaultDataDir)

	origins := k.Strings("allowed_origins")
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		origins = splitList(val)
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	enableHSTS := k.Bool("enable_hsts")
	if val := os.Getenv("ENABLE_HSTS"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("ENABLE_HSTS must be a boolean: %w", err))
		} else {
			enableHSTS = b
		}
	}

	cfg := &Config{
		Port:               port,
		Env:                getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		DataDir:            dataDir,
		CorpusFiles:        corpusFiles,
		SettingsFile:       getEnvOrDefault("SETTINGS_FILE", k.String("settings_file"), filepath.Join(dataDir, "settings.json")),
		UploadDir:          getEnvOrDefault("UPLOAD_DIR", k.String("upload_dir"), "uploads"),
		AdminPassword:      getEnvOrKoanf("ADMIN_PASSWORD", k, "admin_password"),
		JWTSecret:          getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		RedisAddr:          getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		RedisPassword:      getEnvOrKoanf("REDIS_PASSWORD", k, "redis_password"),
		RedisDB:            redisDB,
		RateLimitPerMinute: rateLimit,
		AllowedOrigins:     origins,
		EnableHSTS:         enableHSTS,
	}

	errs := append(loadErrs, cfg.Validate()...)
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = DefaultJWTSecret
	}
	return cfg, errs
}

// ParseCorpusFiles parses "2024=a.jsonl,2025=b.jsonl" into a year -> path map
func ParseCorpusFiles(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, entry := range splitList(raw) {
		year, path, ok := strings.Cut(entry, "=")
		year, path = strings.TrimSpace(year), strings.TrimSpace(path)
		if !ok || year == "" || path == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCorpusFiles, entry)
		}
		out[year] = path
	}
	return out, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the loaded values
func (c *Config) Validate() []error {
	var errs []error
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	return errs
}

// LogSummary returns the configuration with secrets masked
func (c *Config) LogSummary() map[string]string {
	years := make([]string, 0, len(c.CorpusFiles))
	for y := range c.CorpusFiles {
		years = append(years, y)
	}
	sort.Strings(years)

	return map[string]string{
		"port":                  strconv.Itoa(c.Port),
		"env":                   c.Env,
		"data_dir":              c.DataDir,
		"corpus_years":          strings.Join(years, ","),
		"settings_file":         c.SettingsFile,
		"admin_password":        maskSecret(c.AdminPassword),
		"jwt_secret":            maskSecret(c.JWTSecret),
		"redis_addr":            c.RedisAddr,
		"redis_password":        maskSecret(c.RedisPassword),
		"rate_limit_per_minute": strconv.Itoa(c.RateLimitPerMinute),
		"allowed_origins":       strings.Join(c.AllowedOrigins, ","),
	}
}

func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the env value as int if set, otherwise the koanf
// value, or the default when the koanf value is zero
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal, fmt.Errorf("%s: %w", envKey, ErrInvalidInteger)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// maskSecret shows only the first 4 characters of secrets of 8 or more characters
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}
