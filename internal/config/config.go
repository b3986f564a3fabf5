package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings docwatch needs to reach DocsOps.
type Config struct {
	APIBaseURL           string        `validate:"required,url"`
	Token                string        `validate:"-"`
	TokenFile            string        `validate:"-"`
	PollInterval         time.Duration `validate:"min=500ms"`
	NotificationInterval time.Duration `validate:"min=1s"`
	SearchDebounce       time.Duration `validate:"min=0,max=5s"`
	SearchCacheTTL       time.Duration `validate:"min=0"`
	SearchCacheSize      int           `validate:"gte=0,lte=10000"`
	RequestTimeout       time.Duration `validate:"min=1s"`
	LogFile              string        `validate:"required"`
	LogLevel             string        `validate:"oneof=debug info warn error"`
	MetricsAddr          string        `validate:"omitempty,hostname_port"`
	StoragePublicURL     string        `validate:"omitempty,url"`
}

const (
	defaultConfigPath           = "~/.config/docwatch/config.toml"
	defaultAPIBaseURL           = "https://api.docsops.me/api/v1"
	defaultLogFile              = "~/.local/state/docwatch/docwatch.log"
	defaultLogLevel             = "info"
	defaultPollInterval         = 3 * time.Second
	defaultNotificationInterval = 15 * time.Second
	defaultSearchDebounce       = 300 * time.Millisecond
	defaultSearchCacheTTL       = 30 * time.Second
	defaultSearchCacheSize      = 64
	defaultRequestTimeout       = 10 * time.Second
	defaultStoragePublicURL     = "https://rtdqjujwbaotbvuioawp.supabase.co/storage/v1/object/public"
)

// Environment variables that override the file.
const (
	EnvAPIURL    = "DOCWATCH_API_URL"
	EnvToken     = "DOCWATCH_TOKEN"
	EnvTokenFile = "DOCWATCH_TOKEN_FILE"
	EnvLogLevel  = "DOCWATCH_LOG_LEVEL"
)

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBaseURL:           defaultAPIBaseURL,
		PollInterval:         defaultPollInterval,
		NotificationInterval: defaultNotificationInterval,
		SearchDebounce:       defaultSearchDebounce,
		SearchCacheTTL:       defaultSearchCacheTTL,
		SearchCacheSize:      defaultSearchCacheSize,
		RequestTimeout:       defaultRequestTimeout,
		LogFile:              mustExpand(defaultLogFile),
		LogLevel:             defaultLogLevel,
		StoragePublicURL:     defaultStoragePublicURL,
	}
}

// Load locates and parses the docwatch config, falling back to defaults when
// missing. A .env file in the working directory is read first; environment
// variables then override file values.
func Load(path string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := cfg.readFile(resolved); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	APIBaseURL           string `toml:"api_base_url"`
	Token                string `toml:"token"`
	TokenFile            string `toml:"token_file"`
	PollInterval         string `toml:"poll_interval"`
	NotificationInterval string `toml:"notification_interval"`
	SearchDebounce       string `toml:"search_debounce"`
	SearchCacheTTL       string `toml:"search_cache_ttl"`
	SearchCacheSize      *int   `toml:"search_cache_size"`
	RequestTimeout       string `toml:"request_timeout"`
	LogFile              string `toml:"log_file"`
	LogLevel             string `toml:"log_level"`
	MetricsAddr          string `toml:"metrics_addr"`
	StoragePublicURL     string `toml:"storage_public_url"`
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&c.APIBaseURL, raw.APIBaseURL)
	setString(&c.Token, raw.Token)
	setString(&c.TokenFile, raw.TokenFile)
	setString(&c.LogFile, raw.LogFile)
	setString(&c.LogLevel, strings.ToLower(raw.LogLevel))
	setString(&c.MetricsAddr, raw.MetricsAddr)
	setString(&c.StoragePublicURL, raw.StoragePublicURL)
	if raw.SearchCacheSize != nil {
		c.SearchCacheSize = *raw.SearchCacheSize
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"poll_interval", raw.PollInterval, &c.PollInterval},
		{"notification_interval", raw.NotificationInterval, &c.NotificationInterval},
		{"search_debounce", raw.SearchDebounce, &c.SearchDebounce},
		{"search_cache_ttl", raw.SearchCacheTTL, &c.SearchCacheTTL},
		{"request_timeout", raw.RequestTimeout, &c.RequestTimeout},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key, d.raw); err != nil {
			return err
		}
	}

	c.LogFile = mustExpand(c.LogFile)
	if c.TokenFile != "" {
		c.TokenFile = mustExpand(c.TokenFile)
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	c.StoragePublicURL = strings.TrimRight(c.StoragePublicURL, "/")
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTokenFile)); v != "" {
		c.TokenFile = mustExpand(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// PublicURL returns the browser URL for a stored file, or "" without a path.
func (c Config) PublicURL(storagePath string) string {
	storagePath = strings.TrimLeft(strings.TrimSpace(storagePath), "/")
	if storagePath == "" || c.StoragePublicURL == "" {
		return ""
	}
	return c.StoragePublicURL + "/" + storagePath
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func setString(dst *string, raw string) {
	if v := strings.TrimSpace(raw); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, raw string) error {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
