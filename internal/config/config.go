package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/deadline"
	"wedding-rsvp/internal/rsvp"
)

// deadlineLayouts are tried in order when RSVP_DEADLINE is set
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Config holds the application configuration
type Config struct {
	DataDir         string        `env:"RSVP_DATA_DIR" envDefault:"data"`
	StoreBackend    string        `env:"RSVP_STORE_BACKEND" envDefault:"csv"`
	Deadline        string        `env:"RSVP_DEADLINE"`
	Timezone        string        `env:"RSVP_TIMEZONE" envDefault:"UTC"`
	WarningLead     time.Duration `env:"RSVP_WARNING_LEAD" envDefault:"168h"`
	GracePeriod     time.Duration `env:"RSVP_GRACE_PERIOD" envDefault:"24h"`
	LockTimeout     time.Duration `env:"RSVP_LOCK_TIMEOUT" envDefault:"5s"`
	TolerateCorrupt bool          `env:"RSVP_TOLERATE_CORRUPT" envDefault:"false"`
	LogLevel        string        `env:"RSVP_LOG_LEVEL" envDefault:"info"`

	WeddingCouple   string `env:"WEDDING_COUPLE" envDefault:"Bride & Groom"`
	WeddingDate     string `env:"WEDDING_DATE" envDefault:"Saturday, January 1, 2025"`
	WeddingLocation string `env:"WEDDING_LOCATION" envDefault:"Venue TBD"`

	WhatsAppCountryCode string `env:"WHATSAPP_COUNTRY_CODE"`

	MenuStarters []string `env:"RSVP_MENU_STARTERS" envSeparator:","`
	MenuMains    []string `env:"RSVP_MENU_MAINS" envSeparator:","`
	MenuDesserts []string `env:"RSVP_MENU_DESSERTS" envSeparator:","`

	location *time.Location
	policy   deadline.Policy
	level    zerolog.Level
}

// LoadConfig parses the environment and validates it once
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the raw values and fills in the derived fields
func (c *Config) Validate() error {
	var errs []error

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("RSVP_TIMEZONE: %w", err))
		loc = time.UTC
	}
	c.location = loc

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case "csv", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("RSVP_STORE_BACKEND: unknown backend %q", c.StoreBackend))
	}

	if c.WarningLead < 0 {
		errs = append(errs, errors.New("RSVP_WARNING_LEAD must not be negative"))
	}
	if c.GracePeriod < 0 {
		errs = append(errs, errors.New("RSVP_GRACE_PERIOD must not be negative"))
	}
	if c.LockTimeout <= 0 {
		errs = append(errs, errors.New("RSVP_LOCK_TIMEOUT must be positive"))
	}

	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		errs = append(errs, fmt.Errorf("RSVP_LOG_LEVEL: %w", err))
	}
	c.level = level

	c.policy = deadline.Policy{WarningLead: c.WarningLead, Grace: c.GracePeriod}
	if strings.TrimSpace(c.Deadline) != "" {
		at, err := parseDeadline(c.Deadline, loc)
		if err != nil {
			errs = append(errs, err)
		}
		c.policy.Deadline = at
	}

	c.MenuStarters = cleanList(c.MenuStarters)
	c.MenuMains = cleanList(c.MenuMains)
	c.MenuDesserts = cleanList(c.MenuDesserts)

	return errors.Join(errs...)
}

// Location is the event time zone
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Policy is the deadline policy; without RSVP_DEADLINE it is always open
func (c *Config) Policy() deadline.Policy {
	return c.policy
}

// Level is the parsed log level
func (c *Config) Level() zerolog.Level {
	return c.level
}

// Menu returns the configured menu restrictions
func (c *Config) Menu() rsvp.Menu {
	return rsvp.Menu{
		Starters: c.MenuStarters,
		Mains:    c.MenuMains,
		Desserts: c.MenuDesserts,
	}
}

func parseDeadline(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range deadlineLayouts {
		if at, err := time.ParseInLocation(layout, value, loc); err == nil {
			if layout == "2006-01-02" {
				// a bare date means the end of that day
				at = at.AddDate(0, 0, 1).Add(-time.Second)
			}
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("RSVP_DEADLINE: cannot parse %q, use RFC 3339 or \"2006-01-02 15:04\"", value)
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
