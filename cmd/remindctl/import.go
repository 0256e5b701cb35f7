package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/KasumiMercury/primind-tax-reminder/internal/app"
	"github.com/KasumiMercury/primind-tax-reminder/internal/config"
	"github.com/KasumiMercury/primind-tax-reminder/internal/infra/repository"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/importer"
)

type obligationImporter interface {
	Import(ctx context.Context, r io.Reader) (*importer.Result, error)
}

func newImportCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Load obligations from a spreadsheet and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if migrate {
				if err := repository.Migrate(ctx, db); err != nil {
					return err
				}
			}

			imp := importer.NewService(repository.NewObligationRepository(db))
			return importFile(ctx, imp, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "create or update the obligations table before importing")

	return cmd
}

func importFile(ctx context.Context, imp obligationImporter, path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	result, err := imp.Import(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(struct {
		Message string `json:"message"`
		*importer.Result
	}{Message: result.Message(), Result: result})
}
