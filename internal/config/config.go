package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAppName       = "Give - Stripe Extended"
	DefaultEmailFromName = "Give"
)

type Config struct {
	StripeSecretKey      string
	StripeAPIURL         string
	StripeAppName        string
	DynamoTableName      string
	AwsRegion            string
	Env                  string
	RefundEventsQueueURL string
	RefundDedupe         bool
	AdminJWTSecret       string
	DynamoEndpoint       string
	// SESFromEmail enables in-process refund emails when no events queue
	// is configured.
	SESFromEmail         string
	EmailFromName        string
}

// NotifierConfig configures the refund email consumer.
type NotifierConfig struct {
	DynamoTableName string
	AwsRegion       string
	Env             string
	SESFromEmail    string
	EmailFromName   string
}

func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		StripeSecretKey:      strings.TrimSpace(getenv("STRIPE_SECRET_KEY")),
		StripeAPIURL:         strings.TrimSpace(getenv("STRIPE_API_URL")),
		StripeAppName:        strings.TrimSpace(getenv("STRIPE_APP_NAME")),
		DynamoTableName:      strings.TrimSpace(getenv("DYNAMO_TABLE_NAME")),
		AwsRegion:            strings.TrimSpace(getenv("AWS_REGION")),
		Env:                  strings.TrimSpace(getenv("ENV")),
		RefundEventsQueueURL: strings.TrimSpace(getenv("REFUND_EVENTS_QUEUE_URL")),
		AdminJWTSecret:       strings.TrimSpace(getenv("ADMIN_JWT_SECRET")),
		DynamoEndpoint:       strings.TrimSpace(getenv("DYNAMO_ENDPOINT")),
		SESFromEmail:         strings.TrimSpace(getenv("SES_FROM_EMAIL")),
		EmailFromName:        strings.TrimSpace(getenv("EMAIL_FROM_NAME")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = DefaultEmailFromName
	}
	if cfg.StripeAppName == "" {
		cfg.StripeAppName = DefaultAppName
	}
	if raw := strings.TrimSpace(getenv("REFUND_DEDUPE")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("REFUND_DEDUPE invalid: %w", err)
		}
		cfg.RefundDedupe = v
	}

	if cfg.StripeSecretKey == "" {
		return Config{}, errors.New("STRIPE_SECRET_KEY not set")
	}
	if cfg.DynamoTableName == "" {
		return Config{}, errors.New("DYNAMO_TABLE_NAME not set")
	}
	if cfg.AwsRegion == "" {
		return Config{}, errors.New("AWS_REGION not set")
	}

	return cfg, nil
}

func LoadNotifier() (NotifierConfig, error) {
	_ = godotenv.Load()
	return NotifierFromEnv(os.Getenv)
}

func NotifierFromEnv(getenv func(string) string) (NotifierConfig, error) {
	cfg := NotifierConfig{
		DynamoTableName: strings.TrimSpace(getenv("DYNAMO_TABLE_NAME")),
		AwsRegion:       strings.TrimSpace(getenv("AWS_REGION")),
		Env:             strings.TrimSpace(getenv("ENV")),
		SESFromEmail:    strings.TrimSpace(getenv("SES_FROM_EMAIL")),
		EmailFromName:   strings.TrimSpace(getenv("EMAIL_FROM_NAME")),
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = DefaultEmailFromName
	}

	if cfg.DynamoTableName == "" {
		return NotifierConfig{}, errors.New("DYNAMO_TABLE_NAME not set")
	}
	if cfg.AwsRegion == "" {
		return NotifierConfig{}, errors.New("AWS_REGION not set")
	}
	if cfg.SESFromEmail == "" {
		return NotifierConfig{}, errors.New("SES_FROM_EMAIL not set")
	}
	return cfg, nil
}
