package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/mw"
)

func init() { Register(registerSessions) }

func registerSessions(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger), bounded(d))

		r.Get("/api/sessions", handlers.Sessions(d))
		r.Delete("/api/sessions/{session}", handlers.DeleteSession(d))
		r.Get("/api/sessions/{session}/meta", handlers.GetMeta(d))
		r.Put("/api/sessions/{session}/meta", handlers.SaveMeta(d))
		r.Get("/api/sessions/{session}/tree", handlers.Tree(d))
		r.Get("/api/sessions/{session}/orphans", handlers.Orphans(d))
		r.Get("/api/sessions/{session}/search", handlers.Search(d))
		r.Post("/api/sessions/{session}/normalize", handlers.Normalize(d))
		r.Get("/api/sessions/{session}/export", handlers.Export(d))
		r.Post("/api/sessions/{session}/import", handlers.Import(d))
	})
}
