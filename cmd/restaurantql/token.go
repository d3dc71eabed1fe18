package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/andrewwphillips/restaurantql"
	"github.com/andrewwphillips/restaurantql/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token that allows mutations",
	Long: `token signs a JWT with the configured auth secret (` + config.KeyAuthSecret + `).
Send it in an "Authorization: Bearer <token>" header to run mutations.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("subject", "", "Who the token is for (required).")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "How long the token is valid.")
}

func runToken(cmd *cobra.Command, _ []string) error {
	v, err := loadViper(cmd)
	if err != nil {
		return err
	}
	subject, ttl := v.GetString("subject"), v.GetDuration("ttl")
	if subject == "" {
		return errors.New("--subject is required")
	}
	if ttl <= 0 {
		return errors.New("--ttl must be positive")
	}
	secret := v.GetString(config.KeyAuthSecret)
	if secret == "" {
		return errors.Errorf("no auth secret configured (set %s_AUTH_SECRET)", config.EnvPrefix)
	}

	token, err := restaurantql.IssueToken(secret, subject, ttl)
	if err != nil {
		return errors.Wrap(err, "signing token")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
