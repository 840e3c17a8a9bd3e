package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger), bounded(d))

		const base = "/api/sessions/{session}"
		r.Get(base+"/bookmarks", handlers.ListBookmarks(d))
		r.Post(base+"/bookmarks", handlers.AddBookmark(d))
		r.Patch(base+"/bookmarks", handlers.UpdateMany(d))
		r.Delete(base+"/bookmarks", handlers.DeleteSessionBookmarks(d))
		r.Post(base+"/folders", handlers.CreateFolder(d))
		r.Post(base+"/capture", handlers.Capture(d))

		r.Patch(base+"/bookmarks/{id}", handlers.UpdateBookmark(d))
		r.Delete(base+"/bookmarks/{id}", handlers.DeleteBookmark(d))
		r.Post(base+"/bookmarks/{id}/move", handlers.Move(d))
		r.Post(base+"/bookmarks/{id}/resolve", handlers.Resolve(d))

		r.Delete("/api/bookmarks", handlers.DeleteAll(d))
	})
}
