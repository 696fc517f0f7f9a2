package router

import (
	"net/http"

	"give-stripe-extended/internal/auth"
	"give-stripe-extended/internal/handlers"
	"give-stripe-extended/internal/utils"

	"github.com/gorilla/mux"
)

func New(h *handlers.Handler, authn *auth.Authenticator) *mux.Router {
	r := mux.NewRouter()
	r.Use(utils.CorsMiddleware)
	r.Use(authn.Middleware)
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.HandleFunc("/donations/{id}/status", auth.RequireAdmin(h.UpdateStatus)).Methods(http.MethodPost)
	r.HandleFunc("/donations/{id}/notes", auth.RequireAdmin(h.Notes)).Methods(http.MethodGet)
	r.HandleFunc("/donations/{id}/stripe-metadata", auth.RequireAdmin(h.StripeMetadata)).Methods(http.MethodGet)
	r.HandleFunc("/settings", auth.RequireAdmin(h.GetSettings)).Methods(http.MethodGet)
	r.HandleFunc("/settings", auth.RequireAdmin(h.PutSettings)).Methods(http.MethodPut)
	r.HandleFunc("/settings/fields", h.SettingsFields).Methods(http.MethodGet)
	r.HandleFunc("/stripe/accounts", h.Accounts).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health(r)).Methods(http.MethodGet)
	return r
}
