package main

import (
	"fmt"
	"time"

	"github.com/nozzip/seccional/internal/config"
	"github.com/nozzip/seccional/internal/middleware"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
)

// Accounts live outside this service; operators get tokens minted here.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for the API",
	Example: `  seccionalctl token --user ana --role operator
  seccionalctl token --user admin --role admin --ttl 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = time.Duration(cfg.JWTExpirationHours) * time.Hour
		}
		tok, err := middleware.IssueToken(cfg.JWTSecret, tokenUser, tokenRole, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "username stored in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", middleware.RoleOperator, "operator, supervisor or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to JWT_EXPIRATION_HOURS)")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
