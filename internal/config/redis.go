package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// RedisConfig backs the run guard. An empty address disables it.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	TLS      bool   `env:"REDIS_TLS" envDefault:"false"`
}

func LoadRedisConfig() (*RedisConfig, error) {
	var c RedisConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("failed to parse redis config: %w", err)
	}
	return &c, nil
}

func (c *RedisConfig) Enabled() bool {
	return c != nil && c.Addr != ""
}
