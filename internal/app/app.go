package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-tax-reminder/internal/config"
	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/infra/mailer"
	"github.com/KasumiMercury/primind-tax-reminder/internal/infra/repository"
	"github.com/KasumiMercury/primind-tax-reminder/internal/infra/runlock"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/dispatch"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/importer"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/planner"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/report"
)

// App holds the wired dispatch engine and the connections it owns.
type App struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Dispatcher *dispatch.Service
	Importer   *importer.Service

	closers []func() error
}

// New connects every adapter named by cfg and builds the dispatch service.
// cfg must have passed config.ValidateForRun.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.DB, err = OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return repository.Close(a.DB) })

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, a.DB); err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "database schema migrated")
	}

	var runGuard domain.RunGuard
	if cfg.Redis.Enabled() {
		a.Redis, err = connectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.Redis.Close)
		runGuard = runlock.NewGuard(a.Redis, cfg.Dispatch.LockTTL)
	} else {
		slog.WarnContext(ctx, "REDIS_ADDR not set, overlapping run guard disabled")
	}

	smtp, err := mailer.NewMailer(mailer.Options{
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		Username:  cfg.Mail.Username,
		Password:  cfg.Mail.Password,
		TLSPolicy: cfg.Mail.TLSPolicy,
		Timeout:   cfg.Mail.Timeout,
		From:      cfg.Mail.From,
		FromName:  cfg.Mail.FromName,
		LogoURL:   cfg.Mail.LogoURL,
		AdminBCC:  cfg.Dispatch.AdminBCC,
	})
	if err != nil {
		return nil, err
	}

	messageSender, closeMessaging, err := newMessageSender(ctx, cfg.Messaging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging: %w", err)
	}
	if closeMessaging != nil {
		a.closers = append(a.closers, closeMessaging)
	}

	dispatchMetrics, err := metrics.NewDispatchMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dispatch metrics: %w", err)
	}

	loc, err := cfg.Dispatch.Location()
	if err != nil {
		return nil, err
	}

	obligations := repository.NewObligationRepository(a.DB)
	a.Importer = importer.NewService(obligations)

	a.Dispatcher = dispatch.NewService(
		obligations,
		smtp,
		messageSender,
		planner.New(),
		report.NewReporter(smtp),
		runGuard,
		dispatchMetrics,
		dispatch.Settings{
			AdminRecipient: cfg.Dispatch.AdminEmail,
			LookaheadDays:  cfg.Dispatch.LookaheadDays,
			Simulate:       cfg.Dispatch.Simulate,
			Location:       loc,
		},
	)

	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func OpenDatabase(ctx context.Context, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := repository.Open(ctx, repository.DatabaseOptions{
		DSN:             cfg.DSN,
		MaxIdleConns:    cfg.MaxIdleConns,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "database connected")
	return db, nil
}

func connectRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument redis metrics: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	slog.InfoContext(ctx, "redis connected",
		slog.String("addr", cfg.Addr),
	)
	return client, nil
}
