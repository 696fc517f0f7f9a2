package refund

import (
	"context"
	"errors"
	"fmt"

	"give-stripe-extended/internal/events"
	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/settings"
	"give-stripe-extended/internal/stripeclient"
	"give-stripe-extended/internal/utils"

	"github.com/stripe/stripe-go/v78"
)

type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

type Donations interface {
	TransactionID(ctx context.Context, donationID string) (string, error)
	FormID(ctx context.Context, donationID string) (string, error)
	Notes(ctx context.Context, donationID string) ([]models.Note, error)
	AddNote(ctx context.Context, donationID, content string) error
}

type Gateway interface {
	CreateRefund(ctx context.Context, req stripeclient.RefundRequest) (*stripe.Refund, error)
}

// AppInfo prepares the gateway client (application name, bound account)
// before a call is made on behalf of a form.
type AppInfo interface {
	Apply(ctx context.Context, req models.RequestContext, formID string) error
}

type ErrorLog interface {
	RecordGatewayError(ctx context.Context, title, message string) error
}

type Claimer interface {
	ClaimRefund(ctx context.Context, donationID, status string) (bool, error)
}

// ShouldProcessFunc may override whether a transition qualifies for a refund.
// It receives the decision based on the previous status.
type ShouldProcessFunc func(ctx context.Context, decision bool, donationID string, newStatus, oldStatus models.DonationStatus) bool

type Handler struct {
	settings  SettingsLoader
	donations Donations
	gateway   Gateway
	appInfo   AppInfo
	errors    ErrorLog
	events    events.Publisher
	log       *utils.Logger

	shouldProcess ShouldProcessFunc
	dedupe        Claimer
}

type Option func(*Handler)

func WithShouldProcess(fn ShouldProcessFunc) Option {
	return func(h *Handler) {
		h.shouldProcess = fn
	}
}

func WithDedupe(c Claimer) Option {
	return func(h *Handler) {
		h.dedupe = c
	}
}

func WithAppInfo(a AppInfo) Option {
	return func(h *Handler) {
		h.appInfo = a
	}
}

func NewHandler(s SettingsLoader, donations Donations, gateway Gateway, errLog ErrorLog, publisher events.Publisher, logger *utils.Logger, opts ...Option) *Handler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	h := &Handler{
		settings:  s,
		donations: donations,
		gateway:   gateway,
		errors:    errLog,
		events:    publisher,
		log:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnStatusChanged runs after the host has persisted a donation status change.
// Unmet preconditions return nil without side effects. Errors reported by
// Stripe are written to the gateway error log and swallowed; any other failure
// returns a *HaltError that must abort the host request.
func (h *Handler) OnStatusChanged(ctx context.Context, req models.RequestContext, donationID string, newStatus, oldStatus models.DonationStatus) error {
	if !models.Truthy(req.FormValue(models.FieldOptRefund)) {
		return nil
	}

	should := oldStatus == models.DonationStatusPublish
	if h.shouldProcess != nil {
		should = h.shouldProcess(ctx, should, donationID, newStatus, oldStatus)
	}
	if !should {
		return nil
	}

	if newStatus != models.DonationStatusRefunded {
		return nil
	}

	chargeID, err := h.chargeID(ctx, donationID)
	if err != nil {
		h.log.Error("refund_charge_lookup_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
		return halt(err)
	}
	if chargeID == "" {
		return nil
	}

	if h.dedupe != nil {
		claimed, err := h.dedupe.ClaimRefund(ctx, donationID, string(newStatus))
		if err != nil {
			h.log.Error("refund_claim_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
			return halt(err)
		}
		if !claimed {
			h.log.Info("refund_already_requested", map[string]interface{}{"donationId": donationID})
			return nil
		}
	}

	formID, err := h.donations.FormID(ctx, donationID)
	if err != nil {
		h.log.Warn("refund_form_lookup_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
	}
	if h.appInfo != nil {
		if err := h.appInfo.Apply(ctx, req, formID); err != nil {
			h.log.Warn("stripe_app_info_failed", map[string]interface{}{"donationId": donationID, "formId": formID, "error": err.Error()})
		}
	}

	refundID, err := h.refund(ctx, donationID, chargeID)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			h.recordGatewayError(ctx, donationID, stripeErr)
			return nil
		}
		h.log.Error("refund_failed", map[string]interface{}{"donationId": donationID, "chargeId": chargeID, "error": err.Error()})
		return halt(err)
	}
	if refundID == "" {
		return nil
	}

	h.log.Info("donation_refunded", map[string]interface{}{"donationId": donationID, "chargeId": chargeID, "refundId": refundID})
	if err := h.events.Publish(ctx, events.DonationRefunded(donationID)); err != nil {
		h.log.Error("refund_event_publish_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
	}
	return nil
}

func (h *Handler) chargeID(ctx context.Context, donationID string) (string, error) {
	id, err := h.donations.TransactionID(ctx, donationID)
	if err != nil {
		return "", fmt.Errorf("transaction id: %w", err)
	}
	if id != "" && id != donationID {
		return id, nil
	}
	notes, err := h.donations.Notes(ctx, donationID)
	if err != nil {
		return "", fmt.Errorf("donation notes: %w", err)
	}
	return txnIDFromNotes(notes), nil
}

func (h *Handler) refund(ctx context.Context, donationID, chargeID string) (string, error) {
	s, err := h.settings.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}

	r, err := h.gateway.CreateRefund(ctx, stripeclient.NewRefundRequest(chargeID, s.ConnectedAccountID))
	if err != nil {
		return "", err
	}
	if r == nil || r.ID == "" {
		return "", nil
	}

	if err := h.donations.AddNote(ctx, donationID, fmt.Sprintf("Charge refunded in Stripe: %s", r.ID)); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (h *Handler) recordGatewayError(ctx context.Context, donationID string, stripeErr *stripe.Error) {
	msg := gatewayErrorMessage(stripeErr.Msg, string(stripeErr.Code))
	if err := h.errors.RecordGatewayError(ctx, gatewayErrorTitle, msg); err != nil {
		h.log.Error("gateway_error_record_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
	}
	h.log.Warn("refund_gateway_error", map[string]interface{}{
		"donationId": donationID,
		"type":       string(stripeErr.Type),
		"code":       string(stripeErr.Code),
		"message":    stripeErr.Msg,
	})
}
