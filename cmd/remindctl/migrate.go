package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/KasumiMercury/primind-tax-reminder/internal/app"
	"github.com/KasumiMercury/primind-tax-reminder/internal/config"
	"github.com/KasumiMercury/primind-tax-reminder/internal/infra/repository"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the obligations table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Database.Validate(); err != nil {
				return err
			}

			db, err := app.OpenDatabase(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				if err := repository.Close(db); err != nil {
					slog.Warn("failed to close database", slog.String("error", err.Error()))
				}
			}()

			if err := repository.Migrate(ctx, db); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			return nil
		},
	}
}
