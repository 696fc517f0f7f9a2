// Package app wires the refund service from configuration. The Lambda
// entry point and the admin CLI's local server share it.
package app

import (
	"net/http"

	"give-stripe-extended/internal/accounts"
	"give-stripe-extended/internal/auth"
	"give-stripe-extended/internal/config"
	"give-stripe-extended/internal/dynamo"
	"give-stripe-extended/internal/events"
	"give-stripe-extended/internal/handlers"
	"give-stripe-extended/internal/metadata"
	"give-stripe-extended/internal/notify"
	"give-stripe-extended/internal/refund"
	"give-stripe-extended/internal/router"
	"give-stripe-extended/internal/settings"
	"give-stripe-extended/internal/stripeclient"
	"give-stripe-extended/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type App struct {
	Store    *dynamo.Store
	Settings settings.Store
	Stripe   *stripeclient.Client
	// Events receives donation_refunded in process, before the queue.
	Events   *events.Listeners
	Handler  *handlers.Handler
	Router   http.Handler
}

type Option func(*options)

type options struct {
	settings settings.Store
	dynamo   dynamo.API
}

// WithSettings replaces the DynamoDB settings item, e.g. with a
// settings.Static loaded from a file for local runs.
func WithSettings(s settings.Store) Option {
	return func(o *options) { o.settings = s }
}

// WithDynamo replaces the DynamoDB client.
func WithDynamo(api dynamo.API) Option {
	return func(o *options) { o.dynamo = api }
}

func New(cfg config.Config, awsCfg aws.Config, logger *utils.Logger, opts ...Option) *App {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.dynamo == nil {
		o.dynamo = dynamodb.NewFromConfig(awsCfg, func(do *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				do.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
	}
	store := dynamo.New(o.dynamo, cfg.DynamoTableName)
	if o.settings == nil {
		o.settings = dynamo.NewSettingsStore(store)
	}

	stripeOpts := []stripeclient.Option{stripeclient.WithAppName(cfg.StripeAppName)}
	if cfg.StripeAPIURL != "" {
		stripeOpts = append(stripeOpts, stripeclient.WithBackend(stripeclient.NewBackend(cfg.StripeAPIURL)))
	}
	stripeClient := stripeclient.New(cfg.StripeSecretKey, stripeOpts...)

	listeners := events.NewListeners()
	var publisher events.Publisher = listeners
	if cfg.RefundEventsQueueURL != "" {
		publisher = events.Multi{listeners, events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.RefundEventsQueueURL)}
	} else if cfg.SESFromEmail != "" {
		n := notify.New(store, sesv2.NewFromConfig(awsCfg), cfg.SESFromEmail, cfg.EmailFromName, logger)
		listeners.On(events.TypeDonationRefunded, n.OnRefunded)
	}

	refundOpts := []refund.Option{
		refund.WithAppInfo(&accounts.AppInfo{
			Settings: o.settings,
			Gateway:  stripeClient,
			Errors:   store,
			Log:      logger,
		}),
	}
	if cfg.RefundDedupe {
		refundOpts = append(refundOpts, refund.WithDedupe(store))
	}
	refunds := refund.NewHandler(o.settings, store, stripeClient, store, publisher, logger, refundOpts...)

	h := handlers.NewHandler(store, o.settings, logger, refunds)
	h.Enricher = &metadata.Enricher{Settings: o.settings, Donations: store}

	return &App{
		Store:    store,
		Settings: o.settings,
		Stripe:   stripeClient,
		Events:   listeners,
		Handler:  h,
		Router:   router.New(h, auth.New(cfg.AdminJWTSecret, logger)),
	}
}
