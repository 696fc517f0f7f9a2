package handlers

import (
	"net/http"
	"sort"
	"time"

	"give-stripe-extended/internal/utils"

	"github.com/gorilla/mux"
)

type routeInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func listRoutes(router *mux.Router) []routeInfo {
	routes := make([]routeInfo, 0)
	_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil || len(methods) == 0 {
			return nil
		}
		for _, method := range methods {
			routes = append(routes, routeInfo{Method: method, Path: path})
		}
		return nil
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	return routes
}

// Health reports the mounted routes and whether the plugin options can be
// read and point at a connected account.
func (h *Handler) Health(router *mux.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()

		settingsStatus := "ok"
		connected := false
		if s, err := h.Settings.Load(r.Context()); err != nil {
			settingsStatus = "error"
			h.Log.Warn("health_settings_unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			connected = s.ConnectedAccountID != ""
		}

		routes := listRoutes(router)
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"message":          "online",
			"utc_now":          now.Format(time.RFC3339),
			"settings":         settingsStatus,
			"connectedAccount": connected,
			"listeners":        len(h.Listeners),
			"routes":           routes,
			"routeCount":       len(routes),
		})
	}
}
