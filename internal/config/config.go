package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:7410"
	DefaultDBFileName = ".teamboard.db"
	DefaultLogLevel   = "info"

	configFileName  = ".teamboard.toml"
	configDirEnvKey = "TEAMBOARD_CONFIG_DIR"

	apiURLEnvKey    = "TEAMBOARD_API_URL"
	dbPathEnvKey    = "TEAMBOARD_DB"
	secretKeyEnvKey = "TEAMBOARD_SECRET_KEY"
)

// GithubConfig holds defaults for the GitHub sync engine. Per-scope
// credentials live in the store; this only carries process-wide settings.
type GithubConfig struct {
	APIBaseURL string `toml:"api_base_url"`
}

// Config defines runtime configuration for teamboard.
type Config struct {
	APIURL    string       `toml:"api_url"`
	DBPath    string       `toml:"db_path"`
	LogLevel  string       `toml:"log_level"`
	SecretKey string       `toml:"secret_key"`
	Github    GithubConfig `toml:"github"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		DBPath:   "",
		LogLevel: DefaultLogLevel,
	}
}

// Load builds the effective configuration: defaults, then the config
// file (TEAMBOARD_CONFIG_DIR or the home directory), then env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
			return nil, err
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if secretKey := os.Getenv(secretKeyEnvKey); secretKey != "" {
		cfg.SecretKey = secretKey
	}

	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func overrideConfigPath() (string, bool) {
	dir := os.Getenv(configDirEnvKey)
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}
