package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bbdeals/wacrm/internal/auth"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin API token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.ExpiresIn()
			}
			token, expiresAt, err := auth.GenerateToken(subject, cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.jwt_expires_in)")
	return cmd
}
