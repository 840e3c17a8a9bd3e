package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/mw"
)

func init() { Register(registerEvents) }

// Event streams are long lived and skip the request timeout.
func registerEvents(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/api/sessions/{session}/events", handlers.Events(d))
}
