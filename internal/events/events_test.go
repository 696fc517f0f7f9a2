package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestDonationRefunded(t *testing.T) {
	e := DonationRefunded("77")
	if e.Type != TypeDonationRefunded || e.DonationID != "77" || e.ID == "" || e.CreatedAt == "" {
		t.Fatalf("event = %+v", e)
	}
}

func TestSQSPublisher(t *testing.T) {
	m := &mockSQS{}
	p := NewSQSPublisher(m, "https://sqs.us-east-1.amazonaws.com/1/refunds")
	e := DonationRefunded("12")
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if len(m.inputs) != 1 {
		t.Fatalf("sent %d messages", len(m.inputs))
	}
	in := m.inputs[0]
	if aws.ToString(in.QueueUrl) != p.QueueURL {
		t.Errorf("queue = %q", aws.ToString(in.QueueUrl))
	}
	var decoded Event
	if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded != e {
		t.Errorf("decoded = %+v, want %+v", decoded, e)
	}
	if aws.ToString(in.MessageAttributes["type"].StringValue) != TypeDonationRefunded {
		t.Errorf("type attribute missing")
	}
}

func TestSQSPublisherErrors(t *testing.T) {
	if err := NewSQSPublisher(&mockSQS{}, "").Publish(context.Background(), DonationRefunded("1")); err == nil {
		t.Error("expected error without queue url")
	}
	m := &mockSQS{err: errors.New("denied")}
	if err := NewSQSPublisher(m, "q").Publish(context.Background(), DonationRefunded("1")); err == nil {
		t.Error("expected send error")
	}
}

func TestListeners(t *testing.T) {
	l := NewListeners()
	var order []string
	l.On(TypeDonationRefunded, func(ctx context.Context, e Event) error {
		order = append(order, "a:"+e.DonationID)
		return nil
	})
	l.On(TypeDonationRefunded, func(ctx context.Context, e Event) error {
		order = append(order, "b:"+e.DonationID)
		return errors.New("b failed")
	})
	l.On("other", func(ctx context.Context, e Event) error {
		order = append(order, "other")
		return nil
	})

	err := l.Publish(context.Background(), DonationRefunded("3"))
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(order) != 2 || order[0] != "a:3" || order[1] != "b:3" {
		t.Fatalf("order = %v", order)
	}
}

func TestMulti(t *testing.T) {
	m1, m2 := &mockSQS{}, &mockSQS{err: errors.New("down")}
	multi := Multi{NewSQSPublisher(m1, "q1"), NewSQSPublisher(m2, "q2"), Nop{}}
	if err := multi.Publish(context.Background(), DonationRefunded("8")); err == nil {
		t.Fatal("expected error from second publisher")
	}
	if len(m1.inputs) != 1 || len(m2.inputs) != 1 {
		t.Fatal("every publisher should be attempted")
	}
}
