package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSourceUnavailable = errors.New("obligation source unavailable")
	ErrInvalidLookahead  = errors.New("lookahead days must be non-negative")
	ErrReportingFailed   = errors.New("admin digest delivery failed")
	ErrRunInProgress     = errors.New("dispatch run already in progress")
	ErrNoAdminRecipient  = errors.New("admin recipient is not configured")
	ErrStoreWriteFailed  = errors.New("obligation store write failed")
)

// SendError is returned by channel senders when one delivery fails.
type SendError struct {
	Channel   Channel
	Recipient string
	Reason    string
	Err       error
}

func NewSendError(ch Channel, recipient, reason string, err error) *SendError {
	return &SendError{
		Channel:   ch,
		Recipient: recipient,
		Reason:    reason,
		Err:       err,
	}
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s send to %s failed: %s: %v", e.Channel, e.Recipient, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s send to %s failed: %s", e.Channel, e.Recipient, e.Reason)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// RunInProgressError reports who holds the run guard. It matches
// ErrRunInProgress with errors.Is.
type RunInProgressError struct {
	Key       string
	HeldSince time.Time
}

func (e *RunInProgressError) Error() string {
	if e.HeldSince.IsZero() {
		return fmt.Sprintf("%s: %s", ErrRunInProgress, e.Key)
	}
	return fmt.Sprintf("%s: %s held since %s", ErrRunInProgress, e.Key, e.HeldSince.Format(time.RFC3339))
}

func (e *RunInProgressError) Unwrap() error {
	return ErrRunInProgress
}
