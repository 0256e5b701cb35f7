//go:build gcloud

package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/KasumiMercury/primind-tax-reminder/internal/config"
	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/infra/messaging"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/logging"
)

func newMessageSender(ctx context.Context, cfg *config.MessagingConfig) (domain.MessageSender, func() error, error) {
	sender, err := messaging.NewCloudTasksSender(ctx, messaging.CloudTasksOptions{
		ProjectID:        cfg.TasksProjectID,
		LocationID:       cfg.TasksLocationID,
		QueueID:          cfg.TasksQueueID,
		TargetURL:        cfg.TasksTargetURL,
		ServiceAccount:   cfg.TasksServiceAccount,
		DispatchDeadline: cfg.GatewayTimeout,
		Endpoint:         cfg.TasksEndpoint,
	})
	if err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "messaging initialized",
		slog.String("type", "cloud_tasks"),
		slog.String("project", cfg.TasksProjectID),
		slog.String("location", cfg.TasksLocationID),
		slog.String("queue", cfg.TasksQueueID),
	)

	return sender, sender.Close, nil
}

// InitObservability installs the global telemetry providers. Logs go to w.
func InitObservability(ctx context.Context, version string, level slog.Level, w io.Writer) (*observability.Resources, error) {
	serviceName := os.Getenv("K_SERVICE")
	if serviceName == "" {
		serviceName = "tax-reminder"
	}

	env := logging.EnvProd
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GCLOUD_PROJECT_ID")
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  version,
			Revision: os.Getenv("K_REVISION"),
		},
		Environment:   env,
		GCPProjectID:  projectID,
		SamplingRate:  1.0,
		DefaultModule: logging.Module("tax-reminder"),
		LogLevel:      level,
		LogWriter:     w,
	})
}
