package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

const TypeDonationRefunded = "donation_refunded"

type Event struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	DonationID string `json:"donation_id"`
	CreatedAt  string `json:"created_at"`
}

func DonationRefunded(donationID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeDonationRefunded,
		DonationID: donationID,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(ctx context.Context, e Event) error { return nil }

// Listeners fans an event out to in-process subscribers, in registration order.
type Listeners struct {
	mu   sync.RWMutex
	subs map[string][]func(ctx context.Context, e Event) error
}

func NewListeners() *Listeners {
	return &Listeners{subs: map[string][]func(ctx context.Context, e Event) error{}}
}

func (l *Listeners) On(eventType string, fn func(ctx context.Context, e Event) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs[eventType] = append(l.subs[eventType], fn)
}

func (l *Listeners) Publish(ctx context.Context, e Event) error {
	l.mu.RLock()
	subs := append([]func(ctx context.Context, e Event) error(nil), l.subs[e.Type]...)
	l.mu.RUnlock()

	var errs []error
	for _, fn := range subs {
		if err := fn(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Multi publishes to every publisher and joins the failures.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQSPublisher struct {
	Client   SQSAPI
	QueueURL string
}

func NewSQSPublisher(client SQSAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{Client: client, QueueURL: queueURL}
}

func (p *SQSPublisher) Publish(ctx context.Context, e Event) error {
	if p.QueueURL == "" {
		return errors.New("REFUND_EVENTS_QUEUE_URL not set")
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = p.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.QueueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(e.Type),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send %s event: %w", e.Type, err)
	}
	return nil
}
