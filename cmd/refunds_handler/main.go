package main

import (
	"context"
	"encoding/json"
	"log"

	"give-stripe-extended/internal/app"
	"give-stripe-extended/internal/config"
	"give-stripe-extended/internal/utils"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AwsRegion))
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	logger := utils.NewLogger()
	a := app.New(cfg, awsCfg, logger)
	adapter := httpadapter.NewV2(a.Router)

	logger.Info("refunds_handler_started", map[string]interface{}{
		"env":          cfg.Env,
		"table":        cfg.DynamoTableName,
		"eventsQueue":  cfg.RefundEventsQueueURL != "",
		"inlineEmails": cfg.RefundEventsQueueURL == "" && cfg.SESFromEmail != "",
		"dedupe":       cfg.RefundDedupe,
		"adminAuth":    cfg.AdminJWTSecret != "",
	})

	handler := func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var apiEvent events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &apiEvent); err == nil {
			if apiEvent.RequestContext.HTTP.Method != "" {
				return adapter.ProxyWithContext(ctx, apiEvent)
			}
		}

		var ebEvent events.EventBridgeEvent
		if err := json.Unmarshal(raw, &ebEvent); err == nil {
			if len(ebEvent.Detail) > 0 {
				return a.Handler.HandleEventBridge(ctx, ebEvent)
			}
		}

		logger.Error("event_not_recognized", map[string]interface{}{})
		return map[string]string{"status": "ignored"}, nil
	}

	lambda.Start(handler)
}
