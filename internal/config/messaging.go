package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type MessagingConfig struct {
	GatewayURL     string        `env:"MESSAGING_GATEWAY_URL"`
	GatewayToken   string        `env:"MESSAGING_GATEWAY_TOKEN"`
	GatewayTimeout time.Duration `env:"MESSAGING_GATEWAY_TIMEOUT" envDefault:"10s"`

	TasksProjectID      string `env:"MESSAGING_TASKS_PROJECT_ID"`
	TasksLocationID     string `env:"MESSAGING_TASKS_LOCATION_ID"`
	TasksQueueID        string `env:"MESSAGING_TASKS_QUEUE_ID"`
	TasksTargetURL      string `env:"MESSAGING_TASKS_TARGET_URL"`
	TasksServiceAccount string `env:"MESSAGING_TASKS_SERVICE_ACCOUNT"`
	TasksEndpoint       string `env:"MESSAGING_TASKS_ENDPOINT"`
}

func LoadMessagingConfig() (*MessagingConfig, error) {
	var c MessagingConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("failed to parse messaging config: %w", err)
	}
	return &c, nil
}
