package main

import (
	"context"
	"fmt"
	"time"
	"waitlist/internal/config"
	"waitlist/pkg/controller"
	"waitlist/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// signPprofToken signs an RS256 token for subject that expires after ttl. The
// server accepts it on controller.PprofPrefix when its JWT_PUBLIC_KEY matches
// privateKeyPEM.
func signPprofToken(privateKeyPEM, subject string, ttl time.Duration, now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("could not parse RSA private key: %w", err)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}

	return signed, nil
}

// pprofTokenCommand constructs the 'pprof-token' subcommand. It prints a
// bearer token for the profiling endpoints.
func pprofTokenCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pprof-token",
		Aliases: []string{"jwt"},
		Short:   "Generates a bearer token for the " + controller.PprofPrefix + " profiling endpoints",
		Long: "Signs an RS256 token with JWT_PRIVATE_KEY. The server mounts " + controller.PprofPrefix +
			" only when JWT_PUBLIC_KEY is set and requires\n" +
			"\"Authorization: Bearer <token>\" there, e.g.\n\n" +
			"  go tool pprof -http :8081 -H \"Authorization: Bearer $TOKEN\" http://localhost:3000" +
			controller.PprofPrefix + "profile",
		Run: func(cmd *cobra.Command, _ []string) {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			signed, err := signPprofToken(cfg.JWT.PrivateKey, subject, ttl, time.Now())
			if err != nil {
				logger.Fatal(context.Background(), "could not create pprof token", zap.Error(err))
			}
			if cfg.JWT.PublicKey == "" {
				logger.Warn(context.Background(), "JWT_PUBLIC_KEY is not set, the server does not mount the pprof endpoints")
			}

			fmt.Fprintln(cmd.OutOrStdout(), signed) //nolint: errcheck
		},
	}

	cmd.Flags().String("subject", "", "Operator the token is issued to, logged with every pprof request")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime (e.g., 30s, 15m, 1h)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
