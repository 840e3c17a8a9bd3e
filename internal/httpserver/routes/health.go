package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), bounded(d))
		r.Get("/readyz", handlers.Readyz(d))
		r.Get("/infra", handlers.Infra(d))
		r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/api/audit", handlers.Audit(d))
	})
}
