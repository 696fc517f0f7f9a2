package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	domainevents "give-stripe-extended/internal/events"
	"give-stripe-extended/internal/metadata"
	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/utils"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const refundSubject = "Your donation has been refunded"

var errNoRecipient = errors.New("donor has no email address")

type Donations interface {
	GetDonation(ctx context.Context, id string) (models.Donation, error)
}

type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier emails donors when their donation was refunded in Stripe.
type Notifier struct {
	donations Donations
	ses       SESAPI
	from      string
	log       *utils.Logger
}

func New(donations Donations, ses SESAPI, fromEmail, fromName string, logger *utils.Logger) *Notifier {
	from := (&mail.Address{Name: fromName, Address: fromEmail}).String()
	return &Notifier{donations: donations, ses: ses, from: from, log: logger}
}

// HandleSQS reports failed sends as batch item failures so only those
// messages are retried.
func (n *Notifier) HandleSQS(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, record := range ev.Records {
		var e domainevents.Event
		if err := json.Unmarshal([]byte(record.Body), &e); err != nil {
			n.log.Warn("refund_event_invalid", map[string]interface{}{"messageId": record.MessageId, "error": err.Error()})
			continue
		}
		if e.Type != domainevents.TypeDonationRefunded || e.DonationID == "" {
			continue
		}

		err := n.Notify(ctx, e.DonationID)
		switch {
		case errors.Is(err, errNoRecipient):
			n.log.Info("refund_email_skipped", map[string]interface{}{"donationId": e.DonationID, "reason": err.Error()})
		case err != nil:
			n.log.Error("refund_email_failed", map[string]interface{}{"donationId": e.DonationID, "messageId": record.MessageId, "error": err.Error()})
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		default:
			n.log.Info("refund_email_sent", map[string]interface{}{"donationId": e.DonationID})
		}
	}
	return resp, nil
}

// OnRefunded sends the refund email for an in-process donation_refunded
// event. Donors without an email address are skipped.
func (n *Notifier) OnRefunded(ctx context.Context, e domainevents.Event) error {
	if e.Type != domainevents.TypeDonationRefunded || e.DonationID == "" {
		return nil
	}
	err := n.Notify(ctx, e.DonationID)
	if errors.Is(err, errNoRecipient) {
		n.log.Info("refund_email_skipped", map[string]interface{}{"donationId": e.DonationID, "reason": err.Error()})
		return nil
	}
	if err != nil {
		return err
	}
	n.log.Info("refund_email_sent", map[string]interface{}{"donationId": e.DonationID})
	return nil
}

func (n *Notifier) Notify(ctx context.Context, donationID string) error {
	d, err := n.donations.GetDonation(ctx, donationID)
	if err != nil {
		return fmt.Errorf("get donation: %w", err)
	}
	donor := metadata.DonorFromMeta(d.Meta)
	if strings.TrimSpace(donor.Email) == "" {
		return errNoRecipient
	}

	_, err = n.ses.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{donor.Email},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(refundSubject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(refundBody(d, donor))},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func refundBody(d models.Donation, donor metadata.Donor) string {
	name := strings.TrimSpace(donor.FirstName)
	if name == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	if d.Amount > 0 {
		fmt.Fprintf(&b, "Your donation #%s of %s %s has been refunded.", d.ID, formatAmount(d.Amount), strings.ToUpper(d.Currency))
	} else {
		fmt.Fprintf(&b, "Your donation #%s has been refunded.", d.ID)
	}
	if donor.Campaign != "" {
		fmt.Fprintf(&b, " It was made to %s.", donor.Campaign)
	}
	b.WriteString("\n\nThe refund can take 5 to 10 business days to appear on your statement.\n")
	return b.String()
}

// formatAmount renders minor units with two decimals.
func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
