package commands

import (
	"fmt"
	"strings"

	"guildexp/internal/components/chrono"
	"guildexp/internal/pipeline"
	"guildexp/internal/roster"
	"guildexp/internal/scraper"
	"guildexp/lib/configutil"
	configlibsql "guildexp/lib/configutil/libsql"
	"guildexp/lib/timezone"
)

type Config struct {
	World       string `json:"world" env:"WORLD"`
	URLTemplate string `json:"url_template" env:"TARGET_URL_TEMPLATE"`
	// standard 5 field cron expression, evaluated in Timezone
	Schedule      string              `json:"schedule" env:"CRON_SCHEDULE"`
	RosterBaseUrl string              `json:"roster_base_url" env:"ROSTER_BASE_URL"`
	Timezone      string              `json:"timezone" env:"TIMEZONE"`
	Workers       int                 `json:"workers" env:"WORKERS"`
	Layout        scraper.Layout      `json:"layout"`
	Database      configlibsql.Struct `json:"database" envPrefix:"DATABASE_"`
}

func (c *Config) applyDefaults() {
	if c.Schedule == "" {
		c.Schedule = pipeline.DefaultSchedule
	}
	if c.RosterBaseUrl == "" {
		c.RosterBaseUrl = roster.DefaultBaseUrl
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Database.File == "" && c.Database.Url == "" {
		c.Database.File = "guildexp.db"
	}
}

// validate only checks what every command needs, commands that fetch
// listings also require URLTemplate.
func (c Config) validate() error {
	if strings.TrimSpace(c.World) == "" {
		return fmt.Errorf("world is not configured (set WORLD or \"world\")")
	}
	err := chrono.ValidateSpec(c.Schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}
	return nil
}

// LoadConfig reads the config file (optional), applies environment
// overrides and defaults, and switches the process timezone.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.Load[Config](path)
	if err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()

	err = timezone.Load(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}
