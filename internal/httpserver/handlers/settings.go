package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
)

func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Service.Settings(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// UpdateSettings merges a partial update into the stored settings.
func UpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.SettingsPatch
		if !decode(w, r, d, &patch) {
			return
		}
		s, err := d.Service.UpdateSettings(r.Context(), patch)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
