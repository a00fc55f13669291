package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	"buddy/pkg/catalog"
	"buddy/pkg/schema"
)

// Config is read from the environment (and .env, autoloaded in main).
type Config struct {
	Port         string        `env:"PORT"                envDefault:"8080"`
	CDNBaseURL   string        `env:"BUDDY_CDN_BASE_URL"`
	CDNSubfolder string        `env:"BUDDY_CDN_SUBFOLDER"`
	Resolution   string        `env:"BUDDY_RESOLUTION"    envDefault:"2x"`
	Character    string        `env:"BUDDY_CHARACTER"     envDefault:"orange-cat"`
	FetchTimeout time.Duration `env:"BUDDY_FETCH_TIMEOUT" envDefault:"10s"`
	Tick         time.Duration `env:"BUDDY_TICK"          envDefault:"1s"`
	SpinnerDelay time.Duration `env:"BUDDY_SPINNER_DELAY" envDefault:"250ms"`
	CacheTTL     time.Duration `env:"BUDDY_CACHE_TTL"     envDefault:"1h"`
	LogLevel     string        `env:"BUDDY_LOG_LEVEL"     envDefault:"info"`
	EventLogPath string        `env:"BUDDY_EVENT_LOG"     envDefault:"EventLog.json"`
}

// Load parses the environment over the catalog defaults and validates the
// result.
func Load() (Config, error) {
	cfg := Config{
		CDNBaseURL:   catalog.DefaultCDNBaseURL,
		CDNSubfolder: catalog.DefaultSubfolder,
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := schema.ParseResolution(c.Resolution); err != nil {
		return err
	}
	switch c.CDNSubfolder {
	case catalog.SubfolderBuddies, catalog.SubfolderCroppedParts:
	default:
		log.Warn("unrecognized CDN subfolder", "subfolder", c.CDNSubfolder)
	}
	if _, err := catalog.Character(c.Character); err != nil {
		return err
	}
	if c.Tick <= 0 {
		return fmt.Errorf("BUDDY_TICK must be positive, got %s", c.Tick)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("BUDDY_LOG_LEVEL: %w", err)
	}
	return nil
}

func (c Config) ResolutionValue() schema.Resolution {
	r, _ := schema.ParseResolution(c.Resolution)
	return r
}

func (c Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

func (c Config) Addr() string {
	return ":" + c.Port
}
