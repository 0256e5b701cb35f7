package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_URL"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate     bool          `env:"DATABASE_AUTO_MIGRATE" envDefault:"false"`
}

func LoadDatabaseConfig() (*DatabaseConfig, error) {
	var c DatabaseConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	return &c, nil
}

func (c *DatabaseConfig) Validate() error {
	if c == nil || c.DSN == "" {
		return ErrDatabaseDSNMissing
	}
	return nil
}
