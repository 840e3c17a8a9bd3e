package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/transfer"
)

const yamlContentType = "application/yaml"

// Export writes the session tree as a YAML document.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionParam(r)
		doc, err := d.Service.Export(r.Context(), session)
		if err != nil {
			writeError(w, d, err)
			return
		}
		w.Header().Set("Content-Type", yamlContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", session+".yaml"))
		if err := transfer.Write(w, doc); err != nil {
			d.Logger.Error("failed to write export", logger.String("session", session), logger.Error(err))
		}
	}
}

// Import appends the records of a YAML export document to the session.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := d.MaxBodyBytes
		if limit <= 0 {
			limit = defaultMaxBodyBytes
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			badRequest(w, d, "failed to read body: %v", err)
			return
		}
		doc, err := transfer.Parse(data)
		if err != nil {
			badRequest(w, d, "%v", err)
			return
		}
		records, err := d.Service.Import(r.Context(), sessionParam(r), doc)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, records)
	}
}
