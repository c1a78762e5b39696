package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo-gpt.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
	if cfg.GetServerAddr() != "0.0.0.0:8000" {
		t.Errorf("Expected server addr 0.0.0.0:8000, got %s", cfg.GetServerAddr())
	}
	if len(cfg.CORS.AllowedOrigins) != len(DefaultAllowedOrigins) {
		t.Errorf("Expected %d default origins, got %v", len(DefaultAllowedOrigins), cfg.CORS.AllowedOrigins)
	}
	if cfg.RedisEnabled() {
		t.Error("Expected redis to be disabled by default")
	}
	if cfg.IsProduction() {
		t.Error("Expected development environment by default")
	}
	if cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting to be opt-in")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9090
environment = "production"
read_timeout = "5s"

[database]
driver = "sqlite"
path = "/tmp/todos.db"

[cors]
allowed_origins = ["https://example.test"]
`)
	for _, key := range []string{"PORT", "APP_ENV", "DB_DRIVER", "DATABASE_URL", "DB_PATH", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.IsProduction() {
		t.Error("Expected production environment")
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Expected read timeout 5s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 15*time.Second {
		t.Errorf("Expected untouched write timeout to keep its default, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.DSN() != "/tmp/todos.db" {
		t.Errorf("Expected sqlite DSN to be the path, got %s", cfg.DSN())
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://example.test" {
		t.Errorf("Unexpected origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9090
`)
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Expected env port 7070, got %d", cfg.Server.Port)
	}
	if !cfg.RedisEnabled() || cfg.GetRedisAddr() != "cache.internal:6379" {
		t.Errorf("Expected redis at cache.internal:6379, got %s", cfg.GetRedisAddr())
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 origins from env, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Database.AutoMigrate {
		t.Error("Expected auto migrate to be disabled from env")
	}
	if !cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled from env")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected error for missing config file")
	}

	if _, err := LoadConfig(writeConfigFile(t, "[server\nport=")); err == nil {
		t.Error("Expected error for malformed TOML")
	}

	_, err := LoadConfig(writeConfigFile(t, "[database]\ndriver = \"mysql\"\n"))
	if err == nil || !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("Expected unsupported driver error, got %v", err)
	}
}

func TestDSN_Postgres(t *testing.T) {
	cfg := Default()
	cfg.Database.Password = "secret"

	dsn := cfg.DSN()
	for _, part := range []string{"host=localhost", "port=5432", "user=postgres", "password=secret", "dbname=todos", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("Expected DSN to contain %q, got %s", part, dsn)
		}
	}

	cfg.Database.URL = "postgres://u:p@db/todos"
	if cfg.DSN() != cfg.Database.URL {
		t.Errorf("Expected URL to take precedence, got %s", cfg.DSN())
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected invalid port to fail validation")
	}

	cfg = Default()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.BurstSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected zero burst to fail validation when rate limiting is on")
	}

	cfg.RateLimit.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected disabled rate limiting to skip burst check, got %v", err)
	}
}
