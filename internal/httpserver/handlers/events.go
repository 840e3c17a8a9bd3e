package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/events"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
)

const defaultHeartbeat = 15 * time.Second

// Events streams change notifications for a session as server-sent
// events. Settings changes arrive on every stream.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionParam(r)
		if session == "" {
			badRequest(w, d, "missing session id")
			return
		}
		if d.Events == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "events are disabled"})
			return
		}

		rc := http.NewResponseController(w)
		// Streams outlive the server write timeout.
		_ = rc.SetWriteDeadline(time.Time{})

		stream, cancel := d.Events.Subscribe(r.Context(), session)
		defer cancel()

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			d.Logger.Warn("event stream cannot flush", logger.Error(err))
			return
		}

		interval := d.Heartbeat
		if interval <= 0 {
			interval = defaultHeartbeat
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev := <-stream:
				if err := writeEvent(w, ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, ev events.SessionChanged) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}
