package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"
)

type DispatchConfig struct {
	AdminEmail    string        `env:"ADMIN_EMAIL"`
	AdminBCC      []string      `env:"ADMIN_BCC" envSeparator:","`
	LookaheadDays []int         `env:"DISPATCH_LOOKAHEAD_DAYS" envSeparator:"," envDefault:"1"`
	Simulate      bool          `env:"DISPATCH_SIMULATE" envDefault:"false"`
	Timezone      string        `env:"DISPATCH_TIMEZONE" envDefault:"America/Bogota"`
	LockTTL       time.Duration `env:"DISPATCH_LOCK_TTL" envDefault:"10m"`
}

func LoadDispatchConfig() (*DispatchConfig, error) {
	var c DispatchConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("failed to parse dispatch config: %w", err)
	}
	return &c, nil
}

// Location resolves the time zone that defines "today" for a run.
func (c *DispatchConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, c.Timezone)
	}
	return loc, nil
}
