package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when READSYNC_CONFIG is not set. A missing file is fine.
const DefaultPath = "config.yaml"

// Config is the server configuration: defaults, then the YAML file, then
// .env and the process environment.
type Config struct {
	Port          string        `yaml:"port"`
	DatabasePath  string        `yaml:"databasePath"`
	JWTSecret     string        `yaml:"jwtSecret"`
	BcryptCost    int           `yaml:"bcryptCost"`
	LogLevel      string        `yaml:"logLevel"`
	GinMode       string        `yaml:"ginMode"`
	StaticDir     string        `yaml:"staticDir"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	AuthRateLimit int           `yaml:"authRateLimit"`
	AuthRateWin   time.Duration `yaml:"authRateWindow"`
	LookupBaseURL string        `yaml:"lookupBaseURL"`
	CORSOrigins   []string      `yaml:"corsOrigins"`
}

func Defaults() Config {
	return Config{
		Port:          "5000",
		DatabasePath:  "./data/readsync.db",
		JWTSecret:     "",
		BcryptCost:    12,
		LogLevel:      "info",
		GinMode:       "release",
		StaticDir:     "./frontend",
		AuthRateLimit: 20,
		AuthRateWin:   time.Minute,
		LookupBaseURL: "https://openlibrary.org",
		CORSOrigins:   []string{"*"},
	}
}

// Load builds the config. path overrides READSYNC_CONFIG when non-empty.
func Load(path string) (Config, error) {
	cfg := Defaults()

	// .env first so it can point at the config file too.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("READSYNC_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"PORT":            &cfg.Port,
		"DATABASE_PATH":   &cfg.DatabasePath,
		"JWT_SECRET":      &cfg.JWTSecret,
		"LOG_LEVEL":       &cfg.LogLevel,
		"GIN_MODE":        &cfg.GinMode,
		"STATIC_DIR":      &cfg.StaticDir,
		"REDIS_ADDR":      &cfg.RedisAddr,
		"REDIS_PASSWORD":  &cfg.RedisPassword,
		"LOOKUP_BASE_URL": &cfg.LookupBaseURL,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = n
	}
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: AUTH_RATE_LIMIT: %w", err)
		}
		cfg.AuthRateLimit = n
	}
	durations := map[string]*time.Duration{
		"AUTH_RATE_WINDOW": &cfg.AuthRateWin,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	if c.DatabasePath == "" {
		return errors.New("config: databasePath is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or JWT_SECRET)")
	}
	if c.RedisAddr != "" && (c.AuthRateLimit <= 0 || c.AuthRateWin <= 0) {
		return errors.New("config: authRateLimit and authRateWindow must be positive when redisAddr is set")
	}
	return nil
}
