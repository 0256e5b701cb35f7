package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/KasumiMercury/primind-tax-reminder/internal/app"
	"github.com/KasumiMercury/primind-tax-reminder/internal/config"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/dispatch"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/report"
)

type dispatcher interface {
	Run(ctx context.Context, req dispatch.RunRequest) (*dispatch.Result, error)
}

type runOptions struct {
	simulate bool
	date     string
	days     []int
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one dispatch and print the result as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.ValidateForRun(cfg); err != nil {
				return err
			}

			obs, err := app.InitObservability(ctx, Version, cfg.LogLevel, os.Stderr)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := obs.Shutdown(shutdownCtx); err != nil {
					slog.Warn("observability shutdown error", slog.String("error", err.Error()))
				}
			}()
			slog.SetDefault(obs.Logger())

			application, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					slog.Warn("failed to close application resources", slog.String("error", err.Error()))
				}
			}()

			return execute(ctx, application.Dispatcher, req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.simulate, "simulate", false, "plan notifications without sending them")
	cmd.Flags().StringVar(&opts.date, "date", "", "query obligations due on this date (YYYY-MM-DD)")
	cmd.Flags().IntSliceVar(&opts.days, "days", nil, "look-ahead days, e.g. 1,3")

	return cmd
}

// request leaves unset flags nil so the configured defaults apply.
func (o runOptions) request(cmd *cobra.Command) (dispatch.RunRequest, error) {
	var req dispatch.RunRequest

	if cmd.Flags().Changed("simulate") {
		simulate := o.simulate
		req.Simulate = &simulate
	}

	if o.date != "" {
		date, err := civil.ParseDate(o.date)
		if err != nil {
			return req, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", o.date)
		}
		req.Date = &date
	}

	if len(o.days) > 0 {
		req.LookaheadDays = o.days
	}

	return req, nil
}

func execute(ctx context.Context, d dispatcher, req dispatch.RunRequest, w io.Writer) error {
	result, err := d.Run(ctx, req)
	if err != nil {
		return err
	}

	resp := report.BuildCallerResponse(result.Summary).WithReporting(result.ReportingError)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
