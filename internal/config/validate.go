package config

import (
	"errors"
	"fmt"

	"github.com/KasumiMercury/primind-tax-reminder/internal/service/recipient"
)

// ValidateForRun checks everything a dispatch run needs before any I/O.
func ValidateForRun(cfg *Config) error {
	var errs []error

	if err := cfg.Database.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch {
	case cfg.Dispatch.AdminEmail == "":
		errs = append(errs, ErrAdminEmailMissing)
	case !recipient.IsValidEmail(cfg.Dispatch.AdminEmail):
		errs = append(errs, ErrInvalidAdminEmail)
	}

	for _, d := range cfg.Dispatch.LookaheadDays {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidLookaheadDays, d))
			break
		}
	}

	if _, err := cfg.Dispatch.Location(); err != nil {
		errs = append(errs, err)
	}

	if err := cfg.Mail.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := cfg.Messaging.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}

	return nil
}
