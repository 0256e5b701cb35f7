//go:build !gcloud

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
	sender := messaging.NewGatewayClient(messaging.GatewayOptions{
		BaseURL: cfg.GatewayURL,
		Token:   cfg.GatewayToken,
		Timeout: cfg.GatewayTimeout,
	})

	slog.InfoContext(ctx, "messaging initialized",
		slog.String("type", "http_gateway"),
		slog.String("url", cfg.GatewayURL),
	)

	return sender, nil, nil
}

// InitObservability installs the global telemetry providers. Logs go to w.
func InitObservability(ctx context.Context, version string, level slog.Level, w io.Writer) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "tax-reminder"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:    serviceName,
			Version: version,
		},
		Environment:   env,
		SamplingRate:  1.0,
		DefaultModule: logging.Module("tax-reminder"),
		LogLevel:      level,
		LogWriter:     w,
	})
}
