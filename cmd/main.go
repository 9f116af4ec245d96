// Package main provides the CLI entrypoint for the waitlist service.
// It wires subcommands (serve, setup-list, pprof-token), loads configuration, and initializes logging.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"waitlist/internal/config"
	"waitlist/pkg/brevo"
	"waitlist/pkg/logger"
	"waitlist/pkg/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getBrevo creates a Brevo API client using configuration values. Every call
// is bounded by the configured Brevo timeout.
func getBrevo(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *brevo.Client {
	if cfg.Brevo.APIKey == "" {
		logger.Fatal(ctx, "BREVO_API_KEY is not set")
	}

	return brevo.New(
		&http.Client{Timeout: cfg.Brevo.Timeout},
		cfg.Brevo.APIKey,
		brevo.WithBaseURL(cfg.Brevo.BaseURL),
		brevo.WithMetrics(m),
	)
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use:   "waitlist",
		Short: "VergabeMeister waitlist signup service",
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	configPath := flag.String("c", "config.yml", "The config file path")
	flag.Parse()

	log.Println("loading config ...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file", err)
	}

	logger.Setup(cfg.Environment)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		serveCommand(cfg),
		setupListCommand(cfg),
		pprofTokenCommand(cfg),
	)

	err = rootCmd.Execute()
	_ = logger.Get(ctx).Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
