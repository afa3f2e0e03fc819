// Package config provides configuration loading and structs for the recipebox server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Index   IndexConfig   `yaml:"index"`
	Auth    AuthConfig    `yaml:"auth"`
	Watch   WatchConfig   `yaml:"watch"`
}

// WatchConfig holds import directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string  `yaml:"host"`
	Port           int     `yaml:"port"`
	RateLimit      float64 `yaml:"rate_limit"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	// OpenWatchAdmin lets anonymous clients add and remove watched
	// directories when accounts are off. With accounts, a login is required.
	OpenWatchAdmin bool `yaml:"open_watch_admin"`
}

// StorageConfig selects the recipe store and holds paths for it and the keyword index.
type StorageConfig struct {
	Kind           string `yaml:"kind"`
	DatabasePath   string `yaml:"database_path"`
	FilePath       string `yaml:"file_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// IngredientMatch is "exact" or "substring". Empty picks by store kind:
	// exact for the file store, substring for SQLite.
	IngredientMatch string `yaml:"ingredient_match"`
	SuggestDistance int    `yaml:"suggest_distance"`
}

// IndexConfig holds ingredient ledger settings.
type IndexConfig struct {
	// PruneOnDelete drops ingredients from the ledger once no recipe lists them.
	PruneOnDelete bool `yaml:"prune_on_delete"`
}

// AuthConfig holds account settings.
type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// Load reads and parses the config file at path, applies environment
// overrides, expands paths, and applies defaults. A missing file is not an
// error when path is empty; defaults and environment are used instead.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.FilePath = expandPath(cfg.Storage.FilePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files (default ".env") into
// the process environment. Missing files are ignored; existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Environment variables that override file values.
const (
	EnvDebug         = "RECIPEBOX_DEBUG"
	EnvHost          = "RECIPEBOX_HOST"
	EnvPort          = "RECIPEBOX_PORT"
	EnvStoreKind     = "RECIPEBOX_STORE"
	EnvDatabasePath  = "RECIPEBOX_DB_PATH"
	EnvFilePath      = "RECIPEBOX_FILE_PATH"
	EnvBleveIndex    = "RECIPEBOX_BLEVE_PATH"
	EnvIngredientMat = "RECIPEBOX_INGREDIENT_MATCH"
)

// ApplyEnv overrides cfg fields from RECIPEBOX_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvDebug); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDebug, err)
		}
		cfg.Debug = b
	}
	if v, ok := os.LookupEnv(EnvPort); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		cfg.Server.Port = p
	}
	overrides := []struct {
		env string
		dst *string
	}{
		{EnvHost, &cfg.Server.Host},
		{EnvStoreKind, &cfg.Storage.Kind},
		{EnvDatabasePath, &cfg.Storage.DatabasePath},
		{EnvFilePath, &cfg.Storage.FilePath},
		{EnvBleveIndex, &cfg.Storage.BleveIndexPath},
		{EnvIngredientMat, &cfg.Search.IngredientMatch},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.dst = v
		}
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
