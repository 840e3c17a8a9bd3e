package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/mw"
)

func init() { Register(registerSettings) }

func registerSettings(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), bounded(d)).Get("/api/settings", handlers.GetSettings(d))
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), bounded(d)).Put("/api/settings", handlers.UpdateSettings(d))
}
