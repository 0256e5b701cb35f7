package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	LogLevel  slog.Level
	Database  *DatabaseConfig
	Redis     *RedisConfig
	Dispatch  *DispatchConfig
	Mail      *MailConfig
	Messaging *MessagingConfig
}

type serverConfig struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then every configuration section
// from the environment. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var server serverConfig
	if err := env.Parse(&server); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	databaseConfig, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	redisConfig, err := LoadRedisConfig()
	if err != nil {
		return nil, err
	}

	dispatchConfig, err := LoadDispatchConfig()
	if err != nil {
		return nil, err
	}

	mailConfig, err := LoadMailConfig()
	if err != nil {
		return nil, err
	}

	messagingConfig, err := LoadMessagingConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:      server.Port,
		LogLevel:  parseLogLevel(server.LogLevel),
		Database:  databaseConfig,
		Redis:     redisConfig,
		Dispatch:  dispatchConfig,
		Mail:      mailConfig,
		Messaging: messagingConfig,
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
