package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsNarrator/internal/app"
	"NewsNarrator/internal/config"
	"NewsNarrator/internal/logging"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "newsnarrator",
		Short: "Company news sentiment and narration service",
		Long: `newsnarrator finds recent articles about a company, summarizes and
scores them, tags topics and narrates each summary as Hindi audio.

Example usage:
  newsnarrator serve                 # HTTP API on http.addr
  newsnarrator fetch Tesla           # one run, JSON on stdout
  newsnarrator fetch Tesla --narrate # also write audio files`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	load := func() (config.Config, *slog.Logger) {
		cfg := config.Load()
		if verbose {
			cfg.Logging.Level = "debug"
		}
		return cfg, logging.NewWithWriter(os.Stderr, cfg.Logging.Level)
	}

	root.AddCommand(newServeCmd(load), newFetchCmd(load))
	return root
}

type loader func() (config.Config, *slog.Logger)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the audio retention sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger := load()
			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Serve(ctx); err != nil {
				logger.Error("application stopped", "error", err)
				return err
			}
			return nil
		},
	}
}

func newFetchCmd(load loader) *cobra.Command {
	var narrate bool

	cmd := &cobra.Command{
		Use:   "fetch <company>",
		Short: "Run the pipeline once and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger := load()
			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.Fetch(ctx, args[0], narrate)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().BoolVar(&narrate, "narrate", false, "write an audio narration per record")
	return cmd
}

