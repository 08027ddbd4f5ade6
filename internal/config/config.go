package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr       string        `envconfig:"ADDR" default:":8080"`
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:5000/api"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`

	// Session
	SessionSecret  string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"memory"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	CookieSecure   bool          `envconfig:"COOKIE_SECURE" default:"false"`

	// Timezone the calendar-day filters and labels are computed in.
	Timezone string `envconfig:"TIMEZONE" default:"Local"`

	// Cross-origin callers allowed with credentials; empty means same
	// origin only.
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`
	LoginRate   float64  `envconfig:"LOGIN_RATE" default:"1"`
	LoginBurst  int      `envconfig:"LOGIN_BURST" default:"5"`
}

// Load reads .env when present, then the environment.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	return c, c.validate()
}

func (c Config) validate() error {
	switch c.SessionBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("SESSION_BACKEND=postgres requires DATABASE_URL")
		}
	case "redis":
		if c.RedisURL == "" {
			return errors.New("SESSION_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if slices.Contains(c.CORSOrigins, "*") {
		return errors.New("CORS_ORIGINS cannot be * with credentialed requests, list the origins")
	}
	if len(strings.TrimSpace(c.SessionSecret)) < 16 {
		return errors.New("SESSION_SECRET must be at least 16 characters")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}
