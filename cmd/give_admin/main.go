package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "give-admin",
		Short:        "Admin tooling for the Give Stripe refund service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(importDonationsCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
