package app

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aussiebroadwan/portal/pkg/httpx"
)

type Config struct {
	APIURL         string        `mapstructure:"PORTAL_API_URL"`         // Backend base URL (default: http://localhost:8080)
	Env            string        `mapstructure:"PORTAL_ENV"`             // Environment (dev, prod) (default: prod)
	DataFile       string        `mapstructure:"PORTAL_DATA_FILE"`       // SQLite file holding the session; empty keeps it in memory (default: portal.db)
	RequestTimeout time.Duration `mapstructure:"PORTAL_REQUEST_TIMEOUT"` // Per-call timeout (default: 10s)
	RateLimit      int           `mapstructure:"PORTAL_RATE_LIMIT"`      // Outgoing requests per second, 0 disables (default: 20)
	RateBurst      int           `mapstructure:"PORTAL_RATE_BURST"`      // Outgoing burst (default: 10)
	LogLevel       string        `mapstructure:"LOG_LEVEL"`              // Log level (debug, info, warn, error) (default: warn)
	LogFormat      string        `mapstructure:"LOG_FORMAT"`             // Log format (json, text) (default: text)

	MockAddr            string        `mapstructure:"PORTAL_MOCK_ADDR"`      // Listen address of `portal mock` (default: :8080)
	ShutdownGracePeriod time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"` // Graceful shutdown timeout (default: 10s)

	// LogOutput overrides where logs go. Not loaded from the environment.
	LogOutput io.Writer `mapstructure:"-"`
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads envFile (if present) and the environment. Environment
// variables win over the file.
func LoadConfigFrom(envFile string) (Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing file is fine

	v.AutomaticEnv()

	v.SetDefault("PORTAL_API_URL", "http://localhost:8080")
	v.SetDefault("PORTAL_ENV", "prod")
	v.SetDefault("PORTAL_DATA_FILE", "portal.db")
	v.SetDefault("PORTAL_REQUEST_TIMEOUT", "10s")
	v.SetDefault("PORTAL_RATE_LIMIT", httpx.DefaultLimit.RequestsPerWindow)
	v.SetDefault("PORTAL_RATE_BURST", httpx.DefaultLimit.Burst)
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("PORTAL_MOCK_ADDR", ":8080")
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", "10s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	// AutomaticEnv skips empty variables, but an empty data file is meaningful.
	if file, ok := os.LookupEnv("PORTAL_DATA_FILE"); ok {
		cfg.DataFile = file
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: PORTAL_API_URL must be an absolute URL, got %q", c.APIURL)
	}
	switch c.Env {
	case "dev", "prod":
	default:
		return fmt.Errorf("config: PORTAL_ENV must be dev or prod, got %q", c.Env)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: PORTAL_REQUEST_TIMEOUT must be positive")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("config: PORTAL_RATE_LIMIT and PORTAL_RATE_BURST must not be negative")
	}
	return nil
}

// Dev reports whether development diagnostics are enabled.
func (c Config) Dev() bool { return strings.EqualFold(c.Env, "dev") }

// Limit is the outgoing rate limit.
func (c Config) Limit() httpx.RateLimitConfig {
	return httpx.RateLimitConfig{
		RequestsPerWindow: c.RateLimit,
		Window:            time.Second,
		Burst:             c.RateBurst,
	}
}
