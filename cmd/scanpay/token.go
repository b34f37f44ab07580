package main

import (
	"fmt"
	"time"

	"scanpay/internal/models"
	"scanpay/internal/utils"

	"github.com/spf13/cobra"
)

var (
	tokenClient string
	tokenRole   string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token signed with JWT_SECRET",
	Long: `Mint a bearer token for the transaction API.

Payers may create and update their own attempts. Operators may also
register beneficiaries and run reconciliation. Export the result as
API_TOKEN for the pay, scan and reconcile commands.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenClient, "client", "scanpay-cli", "client id recorded in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", models.RolePayer, "payer or operator")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default TOKEN_EXPIRY)")
}

func runToken(cmd *cobra.Command, args []string) error {
	if tokenRole != models.RolePayer && tokenRole != models.RoleOperator {
		return fmt.Errorf("unknown role %q", tokenRole)
	}
	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.TokenExpiry
	}

	token, err := utils.GenerateToken(cfg.JWTSecret, tokenClient, tokenRole, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
