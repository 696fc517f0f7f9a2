package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/refund"

	"github.com/aws/aws-lambda-go/events"
)

const DetailTypeStatusChanged = "donation.status_changed"

// statusChangedDetail is published by the donation platform after it has
// saved a status change.
type statusChangedDetail struct {
	DonationID string            `json:"donationId"`
	NewStatus  string            `json:"newStatus"`
	OldStatus  string            `json:"oldStatus"`
	Form       map[string]string `json:"form"`
	Admin      bool              `json:"admin"`
	Ajax       bool              `json:"ajax"`
	Screen     string            `json:"screen"`
}

func (d statusChangedDetail) requestContext() models.RequestContext {
	form := url.Values{}
	for k, v := range d.Form {
		form.Set(k, v)
	}
	return models.RequestContext{
		IsAdmin: d.Admin || d.Screen != "",
		Ajax:    d.Ajax,
		Screen:  d.Screen,
		Action:  form.Get("action"),
		Form:    form,
	}
}

func (h *Handler) HandleEventBridge(ctx context.Context, ebEvent events.EventBridgeEvent) (map[string]string, error) {
	h.Log.Info("eventbridge_received", map[string]interface{}{
		"id":         ebEvent.ID,
		"source":     ebEvent.Source,
		"detailType": ebEvent.DetailType,
		"time":       ebEvent.Time.Format(time.RFC3339),
	})

	if ebEvent.DetailType != DetailTypeStatusChanged {
		return map[string]string{"status": "ignored"}, nil
	}

	var detail statusChangedDetail
	if err := json.Unmarshal(ebEvent.Detail, &detail); err != nil {
		h.Log.Error("eventbridge_detail_invalid", map[string]interface{}{"error": err.Error()})
		return map[string]string{"status": "invalid"}, nil
	}
	donationID := strings.TrimSpace(detail.DonationID)
	newStatus := models.DonationStatus(detail.NewStatus)
	oldStatus := models.DonationStatus(detail.OldStatus)
	if donationID == "" || !newStatus.Valid() {
		h.Log.Error("eventbridge_detail_invalid", map[string]interface{}{"eventId": ebEvent.ID, "donationId": donationID, "newStatus": detail.NewStatus})
		return map[string]string{"status": "invalid"}, nil
	}
	if newStatus == oldStatus {
		return map[string]string{"status": "ignored"}, nil
	}

	if err := h.notifyStatusChanged(ctx, detail.requestContext(), donationID, newStatus, oldStatus); err != nil {
		var halt *refund.HaltError
		if errors.As(err, &halt) {
			h.Log.Error("status_change_halted", map[string]interface{}{"eventId": ebEvent.ID, "donationId": donationID, "error": halt.Message})
			return map[string]string{"status": "halted", "error": halt.Message}, nil
		}
		h.Log.Error("status_listener_failed", map[string]interface{}{"eventId": ebEvent.ID, "donationId": donationID, "error": err.Error()})
		return map[string]string{"status": "error"}, err
	}

	h.Log.Info("eventbridge_processed", map[string]interface{}{"eventId": ebEvent.ID, "donationId": donationID})
	return map[string]string{"status": "ok"}, nil
}
