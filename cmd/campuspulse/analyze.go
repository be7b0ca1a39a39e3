package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"campuspulse/internal/infrastructure"
	"campuspulse/internal/services"
	"campuspulse/internal/sheets"
	"campuspulse/internal/validation"
	"campuspulse/pkg/contracts/domain"
)

func newAnalyzeCommand(c *cli) *cobra.Command {
	var question string

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Parse a spreadsheet and print its summary or the answer to a question",
		Example: `  campuspulse analyze admissions.xlsx
  campuspulse analyze admissions.csv --query "predict students for the next 6 months"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets := c.datasets()
			ds, err := c.loadFile(cmd.Context(), datasets, args[0])
			if err != nil {
				return err
			}
			return c.report(cmd.Context(), cmd.OutOrStdout(), datasets, ds, question)
		},
	}

	cmd.Flags().StringVarP(&question, "query", "q", "", "free-text question to answer instead of the summary")
	return cmd
}

func newSheetsCommand(c *cli) *cobra.Command {
	var (
		question string
		endpoint string
	)

	cmd := &cobra.Command{
		Use:   "sheets SPREADSHEET_ID",
		Short: "Analyze a Google Sheets spreadsheet",
		Long: `Fetch every tab of a Google Sheets spreadsheet and analyze it like a file.

Credentials come from google_sheets.credentials_json, then
google_sheets.credentials_file, then Application Default Credentials.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []option.ClientOption
			if endpoint != "" {
				opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
			}

			src, err := sheets.NewSource(cmd.Context(), c.cfg.GoogleSheets, c.logger, opts...)
			if err != nil {
				return err
			}
			tabs, err := src.FetchSheets(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			datasets := c.datasets()
			ds, err := datasets.LoadSheets(cmd.Context(), "sheets:"+args[0], tabs)
			if err != nil {
				return err
			}
			return c.report(cmd.Context(), cmd.OutOrStdout(), datasets, ds, question)
		},
	}

	cmd.Flags().StringVarP(&question, "query", "q", "", "free-text question to answer instead of the summary")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Sheets API endpoint, for emulators")
	_ = cmd.Flags().MarkHidden("endpoint")
	return cmd
}

func (c *cli) datasets() *services.DatasetService {
	return services.NewDatasetService(c.cfg.Upload, infrastructure.NoopBusinessMetrics(), c.logger)
}

func (c *cli) loadFile(ctx context.Context, datasets *services.DatasetService, path string) (*domain.Dataset, error) {
	if err := validation.NewFileValidator(c.logger).ValidateSpreadsheet(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return datasets.Upload(ctx, filepath.Base(path), f)
}

func (c *cli) report(ctx context.Context, out io.Writer, datasets *services.DatasetService, ds *domain.Dataset, question string) error {
	fmt.Fprintf(out, "%s [%s]: %d record(s)\n\n", ds.Source, ds.Sheet, ds.Series.Len())

	analytics := services.NewAnalyticsService(datasets, c.cfg.Analytics, infrastructure.NoopBusinessMetrics(), c.logger)
	if question == "" {
		_, err := fmt.Fprintln(out, analytics.Overview(ctx))
		return err
	}

	_, err := fmt.Fprintln(out, analytics.Query(ctx, question).Report)
	return err
}
