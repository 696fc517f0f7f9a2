package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"give-stripe-extended/internal/auth"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Issue an admin token signed with ADMIN_JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
	cmd.Flags().String("role", auth.RoleAdmin, "Role claim")
	cmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET"))
	if secret == "" {
		return errors.New("ADMIN_JWT_SECRET not set")
	}
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	token, err := auth.Sign([]byte(secret), args[0], role, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
