package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Supported values for AUTH_BACKEND.
const (
	AuthBackendSimulated = "simulated"
	AuthBackendSurreal   = "surreal"
)

// Provider exposes configuration values to the rest of the application.
type Provider interface {
	GetServerAddr() string
	GetSessionSecret() string
	GetAppTitle() string
	GetAppDescription() string
	GetAppLocale() string
	GetAuthBackend() string
	GetAuthDelay() time.Duration
	GetSuccessRedirect() string
	GetFormTTL() time.Duration
	GetDBUrl() string
	GetDBNs() string
	GetDBDb() string
	GetDBAccess() string
}

// Config holds all configuration for the application.
type Config struct {
	ServerAddr      string
	SessionSecret   string
	AppTitle        string
	AppDescription  string
	AppLocale       string
	AuthBackend     string
	AuthDelay       time.Duration
	SuccessRedirect string
	FormTTL         time.Duration
	DBUrl           string
	DBNs            string
	DBDb            string
	DBAccess        string
}

// New loads configuration from a .env file, if present, and the environment.
// It exits the process when the configuration is unusable.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := Load(os.Getenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Load builds a Config from getenv, applying defaults and validating values.
func Load(getenv func(string) string) (*Config, error) {
	cfg, err := parse(getenv)
	if err != nil {
		return nil, err
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}

	switch cfg.AuthBackend {
	case AuthBackendSimulated:
	case AuthBackendSurreal:
		if err := cfg.requireDB(); err != nil {
			return nil, fmt.Errorf("AUTH_BACKEND=surreal: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown AUTH_BACKEND: %s", cfg.AuthBackend)
	}

	return cfg, nil
}

// LoadDB builds a Config for tools that only talk to SurrealDB. It skips the
// server settings and requires the connection settings whatever the
// AUTH_BACKEND.
func LoadDB(getenv func(string) string) (*Config, error) {
	cfg, err := parse(getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.requireDB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) requireDB() error {
	var missing []string
	for _, kv := range [][2]string{{"SURREAL_URL", c.DBUrl}, {"SURREAL_NS", c.DBNs}, {"SURREAL_DB", c.DBDb}} {
		if kv[1] == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func parse(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		ServerAddr:      withDefault(getenv("SERVER_ADDR"), ":8080"),
		SessionSecret:   getenv("SESSION_SECRET"),
		AppTitle:        withDefault(getenv("APP_TITLE"), "next.js"),
		AppDescription:  withDefault(getenv("APP_DESCRIPTION"), "Gen..."),
		AuthBackend:     strings.ToLower(withDefault(getenv("AUTH_BACKEND"), AuthBackendSimulated)),
		SuccessRedirect: getenv("SUCCESS_REDIRECT"),
		DBUrl:           getenv("SURREAL_URL"),
		DBNs:            getenv("SURREAL_NS"),
		DBDb:            getenv("SURREAL_DB"),
		DBAccess:        withDefault(getenv("SURREAL_ACCESS"), "account"),
	}

	tag, err := language.Parse(withDefault(getenv("APP_LOCALE"), "zh-CN"))
	if err != nil {
		return nil, fmt.Errorf("APP_LOCALE: %w", err)
	}
	cfg.AppLocale = tag.String()

	if cfg.AuthDelay, err = parseDuration(getenv("AUTH_DELAY"), time.Second); err != nil {
		return nil, fmt.Errorf("AUTH_DELAY: %w", err)
	}
	if cfg.FormTTL, err = parseDuration(getenv("FORM_TTL"), 30*time.Minute); err != nil {
		return nil, fmt.Errorf("FORM_TTL: %w", err)
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDuration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", v)
	}
	return d, nil
}

func (c *Config) GetServerAddr() string { return c.ServerAddr }
func (c *Config) GetSessionSecret() string { return c.SessionSecret }
func (c *Config) GetAppTitle() string { return c.AppTitle }
func (c *Config) GetAppDescription() string { return c.AppDescription }
func (c *Config) GetAppLocale() string { return c.AppLocale }
func (c *Config) GetAuthBackend() string { return c.AuthBackend }
func (c *Config) GetAuthDelay() time.Duration { return c.AuthDelay }
func (c *Config) GetSuccessRedirect() string { return c.SuccessRedirect }
func (c *Config) GetFormTTL() time.Duration { return c.FormTTL }
func (c *Config) GetDBUrl() string { return c.DBUrl }
func (c *Config) GetDBNs() string { return c.DBNs }
func (c *Config) GetDBDb() string { return c.DBDb }
func (c *Config) GetDBAccess() string { return c.DBAccess }
