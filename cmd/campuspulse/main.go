// Command campuspulse serves the CampusPulse API and runs one-shot analyses
// of admission spreadsheets from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"campuspulse/internal/app"
	"campuspulse/internal/config"
	"campuspulse/internal/infrastructure"
	"campuspulse/pkg/contracts"
)

// cli carries what PersistentPreRunE resolves for every subcommand
type cli struct {
	configFile string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "campuspulse",
		Short:         "Admission and fee analytics for campus spreadsheets",
		Version:       contracts.CurrentBuild().String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "YAML config file (default: config.yaml or configs/config.yaml when present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCommand(c),
		newAnalyzeCommand(c),
		newExportCommand(c),
		newSheetsCommand(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		cfg, err = config.LoadFrom(c.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	// Reports go to stdout, so one-shot commands keep logs off it
	if cmd.Name() != "serve" && cfg.Logging.Output == "console" {
		cfg.Logging.Output = "stderr"
		cfg.Logging.Format = "text"
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	c.cfg = cfg
	c.logger = logger
	cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))
	return nil
}

func newServeCommand(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live dashboard feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = port
			}

			a, err := app.NewApplication(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer infrastructure.CloseLogFile()

			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}
