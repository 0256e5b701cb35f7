//go:build gcloud

package config

import (
	"errors"
	"fmt"
)

func (c *MessagingConfig) Validate() error {
	var errs []error

	if c.TasksProjectID == "" {
		errs = append(errs, errors.New("MESSAGING_TASKS_PROJECT_ID is required"))
	}
	if c.TasksLocationID == "" {
		errs = append(errs, errors.New("MESSAGING_TASKS_LOCATION_ID is required"))
	}
	if c.TasksQueueID == "" {
		errs = append(errs, errors.New("MESSAGING_TASKS_QUEUE_ID is required"))
	}
	if c.TasksTargetURL == "" {
		errs = append(errs, errors.New("MESSAGING_TASKS_TARGET_URL is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("messaging configuration errors: %w", errors.Join(errs...))
	}

	return nil
}
