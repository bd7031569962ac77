package cmd

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenAdmin bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for the payroll API",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User ID recorded in the token")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant admin privileges")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	token, expiresAt, err := svc.GenerateAccessToken(tokenUser, tokenAdmin)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"access_token": token,
			"expires_at":   time.Unix(expiresAt, 0).UTC().Format(time.RFC3339),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
