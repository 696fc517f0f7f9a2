package metadata

import (
	"context"
	"fmt"

	"give-stripe-extended/internal/settings"

	"github.com/stripe/stripe-go/v78"
)

// KeyDonationID is the metadata key the gateway add-on stores the donation id under.
const KeyDonationID = "Donation Post ID"

type Donations interface {
	Meta(ctx context.Context, donationID string) (map[string][]string, error)
	FormID(ctx context.Context, donationID string) (string, error)
	FormTitle(ctx context.Context, formID string) (string, error)
}

// Enricher fills application fee, description and reporting metadata on
// outgoing Stripe requests.
type Enricher struct {
	Settings  settings.Store
	Donations Donations
}

type enrichment struct {
	fee         int64
	description string
	appName     string
	campaign    string
	donor       Donor
}

func (e *Enricher) build(ctx context.Context, amount int64, descDonationID, metaDonationID string) (enrichment, error) {
	s, err := e.Settings.Load(ctx)
	if err != nil {
		return enrichment{}, fmt.Errorf("load settings: %w", err)
	}

	out := enrichment{
		fee:      s.ApplicationFeeAmount(amount),
		appName:  s.ApplicationName,
		campaign: s.CampaignName,
	}

	out.description = s.ApplicationName + " - " + s.CampaignName
	if descDonationID != "" {
		formID, err := e.Donations.FormID(ctx, descDonationID)
		if err != nil {
			return enrichment{}, fmt.Errorf("form id: %w", err)
		}
		title, err := e.Donations.FormTitle(ctx, formID)
		if err != nil {
			return enrichment{}, fmt.Errorf("form title: %w", err)
		}
		if title != "" {
			out.description += " - " + title
		}
		out.description += " - Donation ID #" + descDonationID
	}

	meta := map[string][]string{}
	if metaDonationID != "" {
		meta, err = e.Donations.Meta(ctx, metaDonationID)
		if err != nil {
			return enrichment{}, fmt.Errorf("donation meta: %w", err)
		}
	}
	out.donor = DonorFromMeta(meta)
	return out, nil
}

func (en enrichment) appMetadata() map[string]string {
	return map[string]string{
		"Application Name": en.appName,
		"Campaign Name":    en.campaign,
	}
}

func merge(dst map[string]string, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (e *Enricher) ChargeParams(ctx context.Context, p *stripe.ChargeParams) error {
	id := p.Metadata[KeyDonationID]
	en, err := e.build(ctx, stripe.Int64Value(p.Amount), id, id)
	if err != nil {
		return err
	}
	p.ApplicationFeeAmount = stripe.Int64(en.fee)
	p.Description = stripe.String(en.description)
	p.Metadata = merge(p.Metadata, en.appMetadata())
	p.Metadata = merge(p.Metadata, en.donor.Metadata())
	return nil
}

// SEPAChargeParams enriches SEPA debits the same way as card charges.
func (e *Enricher) SEPAChargeParams(ctx context.Context, p *stripe.ChargeParams) error {
	return e.ChargeParams(ctx, p)
}

func (e *Enricher) PaymentIntentParams(ctx context.Context, p *stripe.PaymentIntentParams) error {
	id := p.Metadata[KeyDonationID]
	en, err := e.build(ctx, stripe.Int64Value(p.Amount), id, id)
	if err != nil {
		return err
	}
	p.ApplicationFeeAmount = stripe.Int64(en.fee)
	p.Description = stripe.String(en.description)
	p.Metadata = merge(p.Metadata, en.appMetadata())
	p.Metadata = merge(p.Metadata, en.donor.Metadata())
	return nil
}

// CheckoutSessionParams only touches sessions that carry payment intent data.
// The fee is taken from the first line item.
func (e *Enricher) CheckoutSessionParams(ctx context.Context, p *stripe.CheckoutSessionParams) error {
	if p.PaymentIntentData == nil {
		return nil
	}

	var amount int64
	if len(p.LineItems) > 0 && p.LineItems[0] != nil {
		item := p.LineItems[0]
		if item.PriceData != nil {
			amount = stripe.Int64Value(item.PriceData.UnitAmount)
		}
		if q := stripe.Int64Value(item.Quantity); q > 1 {
			amount *= q
		}
	}

	en, err := e.build(ctx, amount, p.PaymentIntentData.Metadata[KeyDonationID], p.Metadata[KeyDonationID])
	if err != nil {
		return err
	}
	pid := p.PaymentIntentData
	pid.ApplicationFeeAmount = stripe.Int64(en.fee)
	pid.Description = stripe.String(en.description)
	pid.Metadata = merge(pid.Metadata, en.appMetadata())
	p.Metadata = merge(p.Metadata, en.donor.Metadata())
	return nil
}

// CustomerParams uses the donor name as the customer description.
func (e *Enricher) CustomerParams(p *stripe.CustomerParams) {
	if p.Name != nil {
		p.Description = stripe.String(*p.Name)
		return
	}
	p.Description = nil
}
