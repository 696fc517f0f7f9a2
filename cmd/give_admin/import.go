package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"give-stripe-extended/internal/config"
	"give-stripe-extended/internal/dynamo"
	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
)

type donationWriter interface {
	PutDonation(ctx context.Context, d models.Donation) error
}

func importDonationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-donations [file.json]",
		Short: "Copy donation records exported by the host into the table",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportDonations,
	}
}

func runImportDonations(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AwsRegion))
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := importDonations(ctx, f, dynamo.New(client, cfg.DynamoTableName), utils.NewLogger())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d donations\n", n)
	return nil
}

// importDonations reads a JSON array of donations. Records without an id or
// with an unknown status are rejected before anything is written.
func importDonations(ctx context.Context, r io.Reader, w donationWriter, logger *utils.Logger) (int, error) {
	var donations []models.Donation
	if err := json.NewDecoder(r).Decode(&donations); err != nil {
		return 0, fmt.Errorf("decode donations: %w", err)
	}
	for i, d := range donations {
		if strings.TrimSpace(d.ID) == "" {
			return 0, fmt.Errorf("donation %d has no id", i)
		}
		if !d.Status.Valid() {
			return 0, fmt.Errorf("donation %s has invalid status %q", d.ID, d.Status)
		}
	}
	for _, d := range donations {
		if err := w.PutDonation(ctx, d); err != nil {
			return 0, fmt.Errorf("put donation %s: %w", d.ID, err)
		}
		logger.Info("donation_imported", map[string]interface{}{"donationId": d.ID, "status": d.Status})
	}
	return len(donations), nil
}
