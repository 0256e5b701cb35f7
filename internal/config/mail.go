package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type MailConfig struct {
	Host      string        `env:"SMTP_HOST"`
	Port      int           `env:"SMTP_PORT" envDefault:"587"`
	Username  string        `env:"SMTP_USERNAME"`
	Password  string        `env:"SMTP_PASSWORD"`
	TLSPolicy string        `env:"SMTP_TLS_POLICY" envDefault:"mandatory"`
	Timeout   time.Duration `env:"SMTP_TIMEOUT" envDefault:"15s"`
	From      string        `env:"MAIL_FROM"`
	FromName  string        `env:"MAIL_FROM_NAME" envDefault:"Cala Asociados"`
	LogoURL   string        `env:"MAIL_LOGO_URL"`
}

func LoadMailConfig() (*MailConfig, error) {
	var c MailConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("failed to parse mail config: %w", err)
	}
	return &c, nil
}

func (c *MailConfig) Validate() error {
	if c.Host == "" {
		return ErrSMTPHostMissing
	}
	if c.From == "" {
		return ErrMailFromMissing
	}
	switch c.TLSPolicy {
	case "mandatory", "opportunistic", "none":
		return nil
	default:
		return ErrInvalidSMTPTLSPolicy
	}
}
