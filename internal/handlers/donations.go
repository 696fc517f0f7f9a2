package handlers

import (
	"errors"
	"net/http"
	"strings"

	"give-stripe-extended/internal/dynamo"
	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/refund"
	"give-stripe-extended/internal/utils"

	"github.com/gorilla/mux"
)

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	donationID := strings.TrimSpace(mux.Vars(r)["id"])
	if donationID == "" {
		utils.RespondError(w, http.StatusBadRequest, "donation id is required")
		return
	}
	if err := r.ParseForm(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	status := models.DonationStatus(strings.TrimSpace(r.PostForm.Get("status")))
	if !status.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "invalid status")
		return
	}

	old, err := h.Donations.UpdateDonationStatus(r.Context(), donationID, status)
	switch {
	case errors.Is(err, dynamo.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "donation not found")
		return
	case errors.Is(err, dynamo.ErrStatusConflict):
		utils.RespondError(w, http.StatusConflict, "donation status changed, reload and try again")
		return
	case err != nil:
		h.Log.Error("donation_status_update_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to update donation")
		return
	}

	resp := map[string]string{
		"donationId": donationID,
		"status":     string(status),
		"oldStatus":  string(old),
	}
	if old == status {
		utils.RespondJSON(w, http.StatusOK, resp)
		return
	}
	h.Log.Info("donation_status_changed", map[string]interface{}{"donationId": donationID, "from": string(old), "to": string(status)})

	if err := h.notifyStatusChanged(r.Context(), requestContext(r), donationID, status, old); err != nil {
		var halt *refund.HaltError
		if errors.As(err, &halt) {
			utils.RespondError(w, halt.Status, halt.Message)
			return
		}
		h.Log.Error("status_listener_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to process status change")
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) Notes(w http.ResponseWriter, r *http.Request) {
	donationID := strings.TrimSpace(mux.Vars(r)["id"])
	if _, err := h.Donations.GetDonation(r.Context(), donationID); err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "donation not found")
			return
		}
		h.Log.Error("donation_lookup_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to load donation")
		return
	}

	notes, err := h.Donations.Notes(r.Context(), donationID)
	if err != nil {
		h.Log.Error("donation_notes_failed", map[string]interface{}{"donationId": donationID, "error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to load notes")
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"donationId": donationID,
		"notes":      notes,
	})
}
