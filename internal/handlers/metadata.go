package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"give-stripe-extended/internal/dynamo"
	"give-stripe-extended/internal/metadata"
	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/utils"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v78"
)

// Preview kinds accepted by StripeMetadata in the "type" query parameter.
const (
	PreviewPaymentIntent = "payment_intent"
	PreviewCharge        = "charge"
	PreviewSEPA          = "sepa"
	PreviewCheckout      = "checkout"
	PreviewCustomer      = "customer"
)

type metadataPreview struct {
	Type                 string            `json:"type"`
	DonationID           string            `json:"donationId"`
	Amount               int64             `json:"amount"`
	ApplicationFeeAmount int64             `json:"application_fee_amount"`
	Description          string            `json:"description"`
	Metadata             map[string]string `json:"metadata"`
	SessionMetadata      map[string]string `json:"session_metadata,omitempty"`
}

type previewFunc func(ctx context.Context, e Enricher, d models.Donation, out *metadataPreview) error

var previews = map[string]previewFunc{
	PreviewPaymentIntent: previewPaymentIntent,
	PreviewCharge:        previewCharge(false),
	PreviewSEPA:          previewCharge(true),
	PreviewCheckout:      previewCheckout,
	PreviewCustomer:      previewCustomer,
}

// StripeMetadata previews the fee, description and metadata a Stripe request
// of the given type would be sent with for this donation.
func (h *Handler) StripeMetadata(w http.ResponseWriter, r *http.Request) {
	if h.Enricher == nil {
		utils.RespondError(w, http.StatusNotImplemented, "metadata enrichment not configured")
		return
	}
	kind := strings.TrimSpace(r.URL.Query().Get("type"))
	if kind == "" {
		kind = PreviewPaymentIntent
	}
	preview, ok := previews[kind]
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "invalid preview type")
		return
	}

	donationID := strings.TrimSpace(mux.Vars(r)["id"])
	d, err := h.Donations.GetDonation(r.Context(), donationID)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "donation not found")
			return
		}
		h.Log.Error("donation_lookup_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to load donation")
		return
	}
	d.ID = donationID

	out := metadataPreview{Type: kind, DonationID: donationID, Amount: d.Amount}
	if err := preview(r.Context(), h.Enricher, d, &out); err != nil {
		h.Log.Error("stripe_metadata_failed", map[string]interface{}{"donationId": donationID, "type": kind, "error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to build metadata")
		return
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

func currency(d models.Donation) *string {
	if d.Currency == "" {
		return nil
	}
	return stripe.String(strings.ToLower(d.Currency))
}

func previewPaymentIntent(ctx context.Context, e Enricher, d models.Donation, out *metadataPreview) error {
	p := &stripe.PaymentIntentParams{Amount: stripe.Int64(d.Amount), Currency: currency(d)}
	p.AddMetadata(metadata.KeyDonationID, d.ID)
	if err := e.PaymentIntentParams(ctx, p); err != nil {
		return err
	}
	out.ApplicationFeeAmount = stripe.Int64Value(p.ApplicationFeeAmount)
	out.Description = stripe.StringValue(p.Description)
	out.Metadata = p.Metadata
	return nil
}

func previewCharge(sepa bool) previewFunc {
	return func(ctx context.Context, e Enricher, d models.Donation, out *metadataPreview) error {
		p := &stripe.ChargeParams{Amount: stripe.Int64(d.Amount), Currency: currency(d)}
		p.AddMetadata(metadata.KeyDonationID, d.ID)
		enrich := e.ChargeParams
		if sepa {
			enrich = e.SEPAChargeParams
		}
		if err := enrich(ctx, p); err != nil {
			return err
		}
		out.ApplicationFeeAmount = stripe.Int64Value(p.ApplicationFeeAmount)
		out.Description = stripe.StringValue(p.Description)
		out.Metadata = p.Metadata
		return nil
	}
}

func previewCheckout(ctx context.Context, e Enricher, d models.Donation, out *metadataPreview) error {
	p := &stripe.CheckoutSessionParams{
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{metadata.KeyDonationID: d.ID},
		},
		Metadata: map[string]string{metadata.KeyDonationID: d.ID},
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   currency(d),
				UnitAmount: stripe.Int64(d.Amount),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if err := e.CheckoutSessionParams(ctx, p); err != nil {
		return err
	}
	pid := p.PaymentIntentData
	out.ApplicationFeeAmount = stripe.Int64Value(pid.ApplicationFeeAmount)
	out.Description = stripe.StringValue(pid.Description)
	out.Metadata = pid.Metadata
	out.SessionMetadata = p.Metadata
	return nil
}

// previewCustomer shows the customer record a donor would be saved with.
func previewCustomer(ctx context.Context, e Enricher, d models.Donation, out *metadataPreview) error {
	donor := metadata.DonorFromMeta(d.Meta)
	p := &stripe.CustomerParams{}
	if name := strings.TrimSpace(donor.FirstName + " " + donor.LastName); name != "" {
		p.Name = stripe.String(name)
	}
	if donor.Email != "" {
		p.Email = stripe.String(donor.Email)
	}
	e.CustomerParams(p)
	out.Description = stripe.StringValue(p.Description)
	out.Metadata = map[string]string{}
	return nil
}
