package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/service"
)

type captureRequest struct {
	HTML         string        `json:"html"`
	Provider     string        `json:"provider"`
	Start        *int          `json:"start"`
	End          *int          `json:"end"`
	Needle       string        `json:"needle"`
	Save         bool          `json:"save"`
	DisplayName  string        `json:"displayName"`
	Note         string        `json:"note"`
	ParentID     domain.Parent `json:"parentId"`
	SessionTitle string        `json:"sessionTitle"`
}

// Capture builds an anchor from a selection inside a posted document.
// With save set the anchor is stored as a bookmark as well.
func Capture(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req captureRequest
		if !decode(w, r, d, &req) {
			return
		}
		provider, err := providerParam(req.Provider)
		if err != nil {
			writeError(w, d, err)
			return
		}

		res, err := d.Service.Capture(r.Context(), service.CaptureRequest{
			SessionID:    sessionParam(r),
			HTML:         req.HTML,
			Provider:     provider,
			Start:        req.Start,
			End:          req.End,
			Needle:       req.Needle,
			Save:         req.Save,
			DisplayName:  req.DisplayName,
			Note:         req.Note,
			Parent:       req.ParentID,
			SessionTitle: req.SessionTitle,
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		status := http.StatusOK
		if res.Bookmark != nil {
			status = http.StatusCreated
		}
		writeJSON(w, status, res)
	}
}

type resolveRequest struct {
	HTML     string `json:"html"`
	Provider string `json:"provider"`
}

// Resolve locates a stored bookmark inside the posted document.
func Resolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if !decode(w, r, d, &req) {
			return
		}
		provider, err := providerParam(req.Provider)
		if err != nil {
			writeError(w, d, err)
			return
		}
		nav, err := d.Service.Resolve(r.Context(), sessionParam(r), idParam(r), req.HTML, provider)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, nav)
	}
}
