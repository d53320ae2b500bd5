// Package config loads culina's configuration: built-in defaults, then an
// optional YAML file, then CULINA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CULINA_"

// Config is the full application configuration.
type Config struct {
	Catalog CatalogConfig `koanf:"catalog"`
	Storage StorageConfig `koanf:"storage"`
	Engine  EngineConfig  `koanf:"engine"`
	Auth    AuthConfig    `koanf:"auth"`
	Log     LogConfig     `koanf:"log"`
}

// CatalogConfig configures the remote recipe catalog.
type CatalogConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// URL returns the catalog root. Without an explicit base URL the public
// endpoint is keyed by APIKey, or the shared test key "1".
func (c CatalogConfig) URL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	key := c.APIKey
	if key == "" {
		key = "1"
	}
	return "https://www.themealdb.com/api/json/v1/" + key
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	Path        string `koanf:"path"`
	SessionFile string `koanf:"session_file"`
}

// NoQueryTimeout is the normalized EngineConfig.QueryTimeout for a
// disabled bound.
const NoQueryTimeout time.Duration = -1

// EngineConfig tunes the state controller.
type EngineConfig struct {
	DefaultCategories []string `koanf:"default_categories"`
	DefaultLimit      int      `koanf:"default_limit"`

	// QueryTimeout bounds each remote call. Unset or zero means the 15s
	// default; any negative value such as -1s disables the bound.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// AuthConfig configures sign-in.
type AuthConfig struct {
	FirebaseAPIKey     string `koanf:"firebase_api_key"`
	IdentityBaseURL    string `koanf:"identity_base_url"`
	GoogleClientID     string `koanf:"google_client_id"`
	GoogleClientSecret string `koanf:"google_client_secret"`
	GoogleRedirectURL  string `koanf:"google_redirect_url"`
}

// GoogleEnabled reports whether Google sign-in can run.
func (a AuthConfig) GoogleEnabled() bool {
	return a.GoogleClientID != "" && a.GoogleClientSecret != ""
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// Dir returns culina's home directory (~/.culina).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".culina"), nil
}

// Load reads configuration. An empty path means ~/.culina/config.yaml,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// CULINA_CATALOG_BASE_URL -> catalog.base_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Engine.DefaultLimit < 0 {
		return fmt.Errorf("engine.default_limit must not be negative, got %d", c.Engine.DefaultLimit)
	}
	if c.Catalog.Timeout < 0 {
		return fmt.Errorf("catalog.timeout must not be negative, got %s", c.Catalog.Timeout)
	}
	switch c.Log.Level {
	case "off", "quiet", "none", "info", "normal", "debug", "verbose":
	default:
		return fmt.Errorf("log.level %q is not one of off, info, debug", c.Log.Level)
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 15 * time.Second
	}
	if cfg.Engine.DefaultLimit == 0 {
		cfg.Engine.DefaultLimit = 10
	}
	if cfg.Engine.QueryTimeout == 0 {
		cfg.Engine.QueryTimeout = 15 * time.Second
	}
	if cfg.Engine.QueryTimeout < 0 {
		cfg.Engine.QueryTimeout = NoQueryTimeout
	}
	if len(cfg.Engine.DefaultCategories) == 0 {
		cfg.Engine.DefaultCategories = []string{"Seafood", "Chicken", "Beef", "Dessert", "Vegetarian"}
	}
	if cfg.Auth.GoogleRedirectURL == "" {
		cfg.Auth.GoogleRedirectURL = "http://localhost"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Storage.Path == "" || cfg.Storage.SessionFile == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if cfg.Storage.Path == "" {
			cfg.Storage.Path = filepath.Join(dir, "culina.db")
		}
		if cfg.Storage.SessionFile == "" {
			cfg.Storage.SessionFile = filepath.Join(dir, "session.json")
		}
	}
	return nil
}
