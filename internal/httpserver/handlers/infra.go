package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
)

type componentStatus struct {
	OK             bool   `json:"ok"`
	Mode           string `json:"mode,omitempty"`
	Impact         string `json:"impact,omitempty"`
	Error          string `json:"error,omitempty"`
	SessionsStored *int   `json:"sessions_stored,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of each component the service depends on.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store":  checkStore(r.Context(), d),
			"events": checkEvents(d),
			"auditor": {
				OK:   true,
				Mode: auditorMode(d),
			},
		}
		if store := components["store"]; store.OK {
			if metas, err := d.Service.Sessions(r.Context(), ""); err == nil {
				n := len(metas)
				store.SessionsStored = &n
				components["store"] = store
			}
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	if store, exists := components["store"]; exists && !store.OK {
		return "critical" // nothing can be read or saved
	}
	if ev, exists := components["events"]; exists && !ev.OK {
		return "degraded" // surfaces must poll instead of listening
	}
	return "ok"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Mode: d.Backend, Error: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: d.Backend, Impact: "bookmarks-unavailable", Error: "timeout"}
	}
	return componentStatus{OK: true, Mode: d.Backend}
}

func checkEvents(d deps.Deps) componentStatus {
	if d.Events == nil {
		return componentStatus{OK: false, Impact: "live-updates-disabled", Error: "dispatcher not initialized"}
	}
	return componentStatus{OK: true, Mode: "sse"}
}

func auditorMode(d deps.Deps) string {
	if d.AuditTrigger == nil {
		return "disabled"
	}
	return "scheduled"
}
