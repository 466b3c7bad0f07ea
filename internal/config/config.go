// Package config loads server settings from defaults, an optional YAML
// file and the environment, in that order of precedence (lowest first).
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Database is the optional postgres used for the mutation audit trail.
type Database struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// Enabled reports whether any connection setting was given.
func (d Database) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

// DSN returns the URL if set, otherwise a lib/pq key=value string.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	parts := []string{
		"host=" + d.Host,
		"port=" + d.Port,
		"user=" + d.User,
		"dbname=" + d.Name,
		"sslmode=" + d.SSLMode,
	}
	if d.Password != "" {
		parts = append(parts, "password="+d.Password)
	}
	return strings.Join(parts, " ")
}

// Config is the full server configuration.
type Config struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	BackendURL     string        `yaml:"backend_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`

	SessionSecret string `yaml:"session_secret"`
	SecureCookies bool   `yaml:"secure_cookies"`
	// TrustProxy takes client addresses from X-Forwarded-For/X-Real-IP.
	TrustProxy bool `yaml:"trust_proxy"`

	// Identity used until the visitor picks one on /profile.
	DefaultUserID string `yaml:"default_user_id"`
	DefaultPFNo   string `yaml:"default_pf_no"`

	WorkspaceCacheSize int     `yaml:"workspace_cache_size"`
	MutationRPS        float64 `yaml:"mutation_rps"`
	MutationBurst      int     `yaml:"mutation_burst"`

	LogLevel string `yaml:"log_level"`
	Dev      bool   `yaml:"dev"`

	Database Database `yaml:"database"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		BackendURL:         "http://127.0.0.1:8000/api/profile/",
		BackendTimeout:     15 * time.Second,
		SessionSecret:      "dev-insecure-secret-change-me-now",
		DefaultUserID:      "5318",
		DefaultPFNo:        "5318",
		WorkspaceCacheSize: 1024,
		MutationRPS:        5,
		MutationBurst:      10,
		LogLevel:           "info",
		Database: Database{
			Port:    "5432",
			User:    "postgres",
			Name:    "faculty_profile",
			SSLMode: "disable",
		},
	}
}

// Load reads .env (if present), then file (if non-empty), then the
// environment.
func Load(file string) (Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse %s", file)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Host = getenv("HOST", c.Host)
	c.Port = getenv("PORT", c.Port)
	c.BackendURL = getenv("BACKEND_URL", c.BackendURL)
	c.SessionSecret = getenv("SESSION_SECRET", c.SessionSecret)
	c.DefaultUserID = getenv("DEFAULT_USER_ID", c.DefaultUserID)
	c.DefaultPFNo = getenv("DEFAULT_PF_NO", c.DefaultPFNo)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	if v := os.Getenv("APP_HTTPS"); v != "" {
		c.SecureCookies = v == "1"
	}
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		c.TrustProxy = v == "1"
	}

	var err error
	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if c.BackendTimeout, err = time.ParseDuration(v); err != nil {
			return errors.Wrap(err, "BACKEND_TIMEOUT")
		}
	}
	if v := os.Getenv("WORKSPACE_CACHE_SIZE"); v != "" {
		if c.WorkspaceCacheSize, err = strconv.Atoi(v); err != nil {
			return errors.Wrap(err, "WORKSPACE_CACHE_SIZE")
		}
	}
	if v := os.Getenv("MUTATION_RPS"); v != "" {
		if c.MutationRPS, err = strconv.ParseFloat(v, 64); err != nil {
			return errors.Wrap(err, "MUTATION_RPS")
		}
	}
	if v := os.Getenv("MUTATION_BURST"); v != "" {
		if c.MutationBurst, err = strconv.Atoi(v); err != nil {
			return errors.Wrap(err, "MUTATION_BURST")
		}
	}

	// DATABASE_URL > POSTGRES_DSN > separate POSTGRES_* variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	} else if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Database.URL = v
	}
	c.Database.Host = getenv("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = getenv("POSTGRES_PORT", c.Database.Port)
	c.Database.User = getenv("POSTGRES_USER", c.Database.User)
	c.Database.Password = getenv("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.Name = getenv("POSTGRES_DB", c.Database.Name)
	c.Database.SSLMode = getenv("POSTGRES_SSLMODE", c.Database.SSLMode)
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || !u.IsAbs() {
		return errors.Errorf("backend url %q must be absolute", c.BackendURL)
	}
	if c.WorkspaceCacheSize < 1 {
		return errors.Errorf("workspace cache size must be at least 1, got %d", c.WorkspaceCacheSize)
	}
	if c.MutationRPS <= 0 || c.MutationBurst < 1 {
		return errors.New("mutation rate limit must be positive")
	}
	if c.SessionSecret == "" {
		return errors.New("session secret is required")
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
