package handlers

import (
	"encoding/json"
	"net/http"

	"give-stripe-extended/internal/accounts"
	"give-stripe-extended/internal/settings"
	"give-stripe-extended/internal/utils"
)

var baseGroups = []settings.Group{
	{ID: settings.GroupGeneral, Name: "General Settings"},
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.Load(r.Context())
	if err != nil {
		h.Log.Error("settings_load_failed", map[string]interface{}{"error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	utils.RespondJSON(w, http.StatusOK, s.Redacted())
}

// PutSettings replaces the stored options. Secret keys left empty keep their
// stored value since reads never return them.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var in settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	current, err := h.Settings.Load(r.Context())
	if err != nil {
		h.Log.Error("settings_load_failed", map[string]interface{}{"error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if in.ConnectedSecretKey == "" {
		in.ConnectedSecretKey = current.ConnectedSecretKey
	}
	keepAccountSecrets(&in, current)

	if err := in.Validate(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Settings.Save(r.Context(), in); err != nil {
		h.Log.Error("settings_save_failed", map[string]interface{}{"error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	h.Log.Info("settings_saved", map[string]interface{}{"connectedAccount": in.ConnectedAccountID, "accounts": len(in.Accounts)})
	utils.RespondJSON(w, http.StatusOK, in.Redacted())
}

func keepAccountSecrets(in *settings.Settings, current settings.Settings) {
	stored := current.AccountSet()
	for i, a := range in.Accounts {
		prev, ok := stored.Get(a.Key())
		if !ok {
			continue
		}
		if a.LiveSecretKey == "" {
			a.LiveSecretKey = prev.LiveSecretKey
		}
		if a.TestSecretKey == "" {
			a.TestSecretKey = prev.TestSecretKey
		}
		in.Accounts[i] = a
	}
}

func (h *Handler) SettingsFields(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"groups": settings.RegisterGroups(baseGroups),
		"fields": settings.AfterGeneralFields(nil),
	})
}

// Accounts lists the Stripe accounts as the caller would see them.
func (h *Handler) Accounts(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid query")
		return
	}
	s, err := h.Settings.Load(r.Context())
	if err != nil {
		h.Log.Error("settings_load_failed", map[string]interface{}{"error": err.Error()})
		utils.RespondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	req := requestContext(r)
	all := accounts.FilterAll(req, s.AccountSet(), s)
	list := all.List()
	for i := range list {
		list[i].LiveSecretKey = ""
		list[i].TestSecretKey = ""
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"accounts":        list,
		"default_account": accounts.FilterDefault(req, s.DefaultAccount, all),
	})
}
