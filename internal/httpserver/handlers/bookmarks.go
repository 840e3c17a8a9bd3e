package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/reorder"
	"github.com/MrSnakeDoc/chatmark/internal/service"
)

// ListBookmarks returns the flat record list of a session in sibling order.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Service.List(r.Context(), sessionParam(r))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// Tree returns the nested view of a session.
func Tree(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodes, err := d.Service.Tree(r.Context(), sessionParam(r))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, nodes)
	}
}

// Orphans lists records whose parent no longer exists.
func Orphans(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Service.Orphans(r.Context(), sessionParam(r))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

type addRequest struct {
	Anchor       domain.Anchor `json:"anchor"`
	DisplayName  string        `json:"displayName"`
	Note         string        `json:"note"`
	Provider     string        `json:"provider"`
	ParentID     domain.Parent `json:"parentId"`
	SessionTitle string        `json:"sessionTitle"`
}

// AddBookmark stores a text bookmark from an anchor captured client side.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if !decode(w, r, d, &req) {
			return
		}
		provider, err := providerParam(req.Provider)
		if err != nil {
			writeError(w, d, err)
			return
		}

		b, err := d.Service.AddBookmark(r.Context(), service.AddParams{
			SessionID:    sessionParam(r),
			Anchor:       req.Anchor,
			DisplayName:  req.DisplayName,
			Note:         req.Note,
			Provider:     provider,
			Parent:       req.ParentID,
			SessionTitle: req.SessionTitle,
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

type folderRequest struct {
	DisplayName string        `json:"displayName"`
	ParentID    domain.Parent `json:"parentId"`
}

func CreateFolder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req folderRequest
		if !decode(w, r, d, &req) {
			return
		}
		b, err := d.Service.CreateFolder(r.Context(), service.FolderParams{
			SessionID:   sessionParam(r),
			DisplayName: req.DisplayName,
			Parent:      req.ParentID,
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

// UpdateBookmark renames a record or edits its note.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.Patch
		if !decode(w, r, d, &patch) {
			return
		}
		b, err := d.Service.Update(r.Context(), sessionParam(r), domain.Update{ID: idParam(r), Patch: patch})
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

type batchRequest struct {
	Updates []domain.Update `json:"updates"`
}

// UpdateMany applies a batch of updates atomically.
func UpdateMany(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if !decode(w, r, d, &req) {
			return
		}
		records, err := d.Service.UpdateMany(r.Context(), sessionParam(r), req.Updates)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

var errMissingPosition = errors.New("move needs a position or a pointer offset")

// moveRequest names the drop position directly or gives the pointer
// geometry over the target so the server classifies it.
type moveRequest struct {
	Target   string   `json:"target"`
	Position string   `json:"position"`
	OffsetY  *float64 `json:"offsetY"`
	Height   float64  `json:"height"`
	CanNest  *bool    `json:"canNest"`
}

func (m moveRequest) gesture(moving string) (reorder.Gesture, error) {
	g := reorder.Gesture{Moving: moving, Target: m.Target}
	if m.Target == "" {
		return g, nil
	}
	if m.Position != "" {
		p, err := reorder.ParsePosition(m.Position)
		if err != nil {
			return g, err
		}
		g.Position = p
		return g, nil
	}
	if m.OffsetY == nil {
		return g, errMissingPosition
	}
	canNest := true
	if m.CanNest != nil {
		canNest = *m.CanNest
	}
	g.Position = reorder.Classify(*m.OffsetY, m.Height, canNest)
	return g, nil
}

// Move applies a drag-and-drop gesture to a record.
func Move(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveRequest
		if !decode(w, r, d, &req) {
			return
		}
		g, err := req.gesture(idParam(r))
		if err != nil {
			badRequest(w, d, "%v", err)
			return
		}
		res, err := d.Service.Move(r.Context(), sessionParam(r), g)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type deleteResponse struct {
	Removed []string `json:"removed"`
}

// DeleteBookmark removes a record and its descendants.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := d.Service.Delete(r.Context(), sessionParam(r), idParam(r))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Removed: removed})
	}
}

// DeleteSessionBookmarks removes every record of a session but keeps its meta.
func DeleteSessionBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Service.List(r.Context(), sessionParam(r))
		if err != nil {
			writeError(w, d, err)
			return
		}
		var removed []string
		for _, b := range records {
			if !b.Parent.IsRoot() {
				continue
			}
			ids, err := d.Service.Delete(r.Context(), sessionParam(r), b.ID)
			if err != nil {
				writeError(w, d, err)
				return
			}
			removed = append(removed, ids...)
		}
		writeJSON(w, http.StatusOK, deleteResponse{Removed: removed})
	}
}

// DeleteAll removes every record of every session.
func DeleteAll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Service.DeleteAll(r.Context()); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type normalizeResponse struct {
	Renumbered int `json:"renumbered"`
}

// Normalize closes order gaps in every sibling group of a session.
func Normalize(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := d.Service.Normalize(r.Context(), sessionParam(r))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, normalizeResponse{Renumbered: n})
	}
}
