package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setConfigEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv(configDirEnvKey, dir)
	t.Setenv(apiURLEnvKey, "")
	t.Setenv(dbPathEnvKey, "")
	t.Setenv(secretKeyEnvKey, "")
}

func TestLoadDefaults(t *testing.T) {
	setConfigEnv(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
	if filepath.Base(cfg.DBPath) != DefaultDBFileName {
		t.Fatalf("expected db path to default into the working directory, got %q", cfg.DBPath)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	setConfigEnv(t, dir)

	content := `
api_url = "http://127.0.0.1:9999"
db_path = "/tmp/custom.db"
log_level = "debug"

[github]
api_base_url = "http://127.0.0.1:8888"
`
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected file api url, got %q", cfg.APIURL)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Fatalf("expected file db path, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected file log level, got %q", cfg.LogLevel)
	}
	if cfg.Github.APIBaseURL != "http://127.0.0.1:8888" {
		t.Fatalf("expected github base url, got %q", cfg.Github.APIBaseURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	setConfigEnv(t, dir)

	content := `api_url = "http://127.0.0.1:9999"` + "\n"
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(apiURLEnvKey, "http://127.0.0.1:7777")
	t.Setenv(dbPathEnvKey, "/tmp/env.db")
	t.Setenv(secretKeyEnvKey, "abc123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:7777" {
		t.Fatalf("env must beat the file, got %q", cfg.APIURL)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}
	if cfg.SecretKey != "abc123" {
		t.Fatalf("expected env secret key, got %q", cfg.SecretKey)
	}
}

func TestLoadRejectsBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	setConfigEnv(t, dir)

	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte("not toml ==="), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable config file")
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	setConfigEnv(t, filepath.Join(t.TempDir(), "does-not-exist"))

	if _, err := Load(); err != nil {
		t.Fatalf("missing config file must not fail: %v", err)
	}
}
