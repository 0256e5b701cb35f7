package config

import "errors"

var (
	ErrDatabaseDSNMissing     = errors.New("DATABASE_URL is required")
	ErrAdminEmailMissing      = errors.New("ADMIN_EMAIL is required")
	ErrInvalidAdminEmail      = errors.New("ADMIN_EMAIL must be a valid email address")
	ErrInvalidLookaheadDays   = errors.New("DISPATCH_LOOKAHEAD_DAYS must contain non-negative integers")
	ErrInvalidTimezone        = errors.New("DISPATCH_TIMEZONE must be a valid IANA time zone")
	ErrSMTPHostMissing        = errors.New("SMTP_HOST is required")
	ErrMailFromMissing        = errors.New("MAIL_FROM is required")
	ErrInvalidSMTPTLSPolicy   = errors.New("SMTP_TLS_POLICY must be one of mandatory, opportunistic, none")
	ErrMessagingGatewayNeeded = errors.New("MESSAGING_GATEWAY_URL is required")
)
