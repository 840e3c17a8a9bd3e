package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
)

// Sessions lists known sessions, optionally filtered by ?provider=.
func Sessions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := providerParam(r.URL.Query().Get("provider"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		metas, err := d.Service.Sessions(r.Context(), provider)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if metas == nil {
			metas = []domain.SessionMeta{}
		}
		writeJSON(w, http.StatusOK, metas)
	}
}

func GetMeta(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := d.Service.Meta(r.Context(), sessionParam(r))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, meta)
	}
}

type metaRequest struct {
	Title    string `json:"title"`
	Provider string `json:"provider"`
}

// SaveMeta replaces the title and provider of a session.
func SaveMeta(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req metaRequest
		if !decode(w, r, d, &req) {
			return
		}
		provider, err := providerParam(req.Provider)
		if err != nil {
			writeError(w, d, err)
			return
		}
		meta, err := d.Service.SaveMeta(r.Context(), domain.SessionMeta{
			SessionID: sessionParam(r),
			Title:     req.Title,
			Provider:  provider,
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, meta)
	}
}

// DeleteSession removes every record of a session along with its meta.
func DeleteSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Service.DeleteSession(r.Context(), sessionParam(r)); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Search ranks the bookmarks of a session against ?q=.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			badRequest(w, d, "missing query parameter q")
			return
		}
		results, err := d.Service.Search(r.Context(), sessionParam(r), q)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
