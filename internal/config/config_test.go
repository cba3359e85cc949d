package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
port: "8081"
databasePath: /tmp/books.db
jwtSecret: from-file
logLevel: debug
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("AUTH_RATE_WINDOW", "30s")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://books.example.com,")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8081" || cfg.DatabasePath != "/tmp/books.db" || cfg.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.JWTSecret)
	}
	if cfg.AuthRateWin != 30*time.Second {
		t.Fatalf("unexpected rate window: %s", cfg.AuthRateWin)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://books.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("default bcrypt cost lost: %d", cfg.BcryptCost)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("READSYNC_CONFIG", "")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "5000" || cfg.AuthRateWin != time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("READSYNC_CONFIG", "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=dotenv-secret\nPORT=9000\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv never overrides variables that are already set; t.Setenv
	// restores the originals afterwards.
	for _, key := range []string{"JWT_SECRET", "PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != "dotenv-secret" || cfg.Port != "9000" {
		t.Fatalf(".env not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing secret to fail")
	}
	cfg.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	cfg.RedisAddr = "localhost:6379"
	cfg.AuthRateLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected rate limit validation error")
	}
}
