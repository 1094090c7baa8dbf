package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/middleware"
)

var (
	tokenUser  string
	tokenEmail string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the clip API",
	Long: `Signs a JWT with auth.jwtSecret from the config file or
YTCLIPPER_AUTH_JWTSECRET. Send it as "Authorization: Bearer <token>" when the
API runs with auth.enabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwtSecret is not configured")
		}
		if tokenTTL <= 0 {
			return fmt.Errorf("--ttl must be positive, got %s", tokenTTL)
		}

		middleware.SetJWTSecret(cfg.Auth.JWTSecret)
		token, err := middleware.GenerateToken(tokenUser, tokenEmail, tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "clipctl", "user ID to embed in the token")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email to embed in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
