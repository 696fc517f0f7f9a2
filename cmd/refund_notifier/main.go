package main

import (
	"context"
	"log"

	"give-stripe-extended/internal/config"
	"give-stripe-extended/internal/dynamo"
	"give-stripe-extended/internal/notify"
	"give-stripe-extended/internal/utils"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadNotifier()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AwsRegion))
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	logger := utils.NewLogger()
	store := dynamo.New(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTableName)
	n := notify.New(store, sesv2.NewFromConfig(awsCfg), cfg.SESFromEmail, cfg.EmailFromName, logger)

	logger.Info("refund_notifier_started", map[string]interface{}{"env": cfg.Env, "table": cfg.DynamoTableName})
	lambda.Start(n.HandleSQS)
}
