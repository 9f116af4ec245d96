package main

import (
	"context"
	"fmt"
	"waitlist/internal/config"
	"waitlist/internal/waitlist"
	"waitlist/pkg/logger"
	"waitlist/pkg/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setupListCommand constructs the 'setup-list' subcommand that creates the
// waitlist contact list in Brevo and prints the variable to configure.
func setupListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "setup-list",
		Short: "Creates the waitlist contact list in Brevo",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			client := getBrevo(ctx, cfg, metrics.Noop())
			id, err := waitlist.ProvisionList(ctx, client)
			if err != nil {
				logger.Fatal(ctx, "could not set up waitlist list", zap.Error(err))
			}

			logger.Info(ctx, "waitlist list created", zap.Int64("list_id", int64(id)))
			fmt.Printf("BREVO_LIST_ID=%d\n", id) //nolint: forbidigo
		},
	}
}
