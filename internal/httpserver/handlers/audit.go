package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
)

type auditResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Audit triggers an orphan audit outside the schedule.
func Audit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.AuditTrigger == nil {
			writeJSON(w, http.StatusNotFound, auditResponse{Message: "auditor disabled"})
			return
		}

		if d.AuditTrigger() {
			d.Logger.Info("manual orphan audit triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, auditResponse{Triggered: true, Message: "audit triggered"})
			return
		}

		d.Logger.Warn("orphan audit already pending",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusTooManyRequests, auditResponse{Message: "audit already pending, please wait"})
	}
}
