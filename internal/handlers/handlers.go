package handlers

import (
	"context"
	"net/http"
	"strings"

	"give-stripe-extended/internal/auth"
	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/settings"
	"give-stripe-extended/internal/utils"

	"github.com/stripe/stripe-go/v78"
)

const (
	headerScreen      = "X-Give-Screen"
	headerAdmin       = "X-Give-Admin"
	headerRequestedBy = "X-Requested-With"
)

type DonationStore interface {
	UpdateDonationStatus(ctx context.Context, id string, status models.DonationStatus) (models.DonationStatus, error)
	GetDonation(ctx context.Context, id string) (models.Donation, error)
	Notes(ctx context.Context, donationID string) ([]models.Note, error)
}

// StatusListener runs after a donation status change has been saved.
type StatusListener interface {
	OnStatusChanged(ctx context.Context, req models.RequestContext, donationID string, newStatus, oldStatus models.DonationStatus) error
}

type Enricher interface {
	ChargeParams(ctx context.Context, p *stripe.ChargeParams) error
	SEPAChargeParams(ctx context.Context, p *stripe.ChargeParams) error
	PaymentIntentParams(ctx context.Context, p *stripe.PaymentIntentParams) error
	CheckoutSessionParams(ctx context.Context, p *stripe.CheckoutSessionParams) error
	CustomerParams(p *stripe.CustomerParams)
}

type Handler struct {
	Donations DonationStore
	Settings  settings.Store
	Listeners []StatusListener
	Enricher  Enricher
	Log       *utils.Logger
}

func NewHandler(donations DonationStore, settingsStore settings.Store, logger *utils.Logger, listeners ...StatusListener) *Handler {
	return &Handler{
		Donations: donations,
		Settings:  settingsStore,
		Listeners: listeners,
		Log:       logger,
	}
}

// requestContext reads what the filters need to know about the caller. The
// admin UI sends its screen id, ajax calls identify themselves the usual way.
// With token auth enabled only an admin token makes the caller an admin.
func requestContext(r *http.Request) models.RequestContext {
	screen := strings.TrimSpace(r.Header.Get(headerScreen))
	admin := screen != "" || models.Truthy(r.Header.Get(headerAdmin))
	if auth.Enabled(r.Context()) {
		admin = auth.IsAdmin(r.Context())
	}
	return models.RequestContext{
		IsAdmin: admin,
		Ajax:    strings.EqualFold(r.Header.Get(headerRequestedBy), "XMLHttpRequest"),
		Screen:  screen,
		Action:  strings.TrimSpace(r.Form.Get("action")),
		Form:    r.Form,
	}
}

func (h *Handler) notifyStatusChanged(ctx context.Context, req models.RequestContext, donationID string, newStatus, oldStatus models.DonationStatus) error {
	for _, l := range h.Listeners {
		if err := l.OnStatusChanged(ctx, req, donationID, newStatus, oldStatus); err != nil {
			return err
		}
	}
	return nil
}
