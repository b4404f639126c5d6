// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/log"
)

// SourcesResponse lists the catalogue in document order.
type SourcesResponse struct {
	Selected string           `json:"selected"`
	Sources  []catalog.Source `json:"sources"`
}

// SelectSourceRequest selects a catalogue entry by key.
type SelectSourceRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Session.Status())
}

func (s *Server) handleListSources(w http.ResponseWriter, _ *http.Request) {
	sources := s.deps.Session.Sources()
	if sources == nil {
		sources = []catalog.Source{}
	}
	writeJSON(w, http.StatusOK, SourcesResponse{
		Selected: s.deps.Session.SelectedKey(),
		Sources:  sources,
	})
}

func (s *Server) handleSelectSource(w http.ResponseWriter, r *http.Request) {
	var req SelectSourceRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if req.Key == "" {
		writeProblem(w, r, http.StatusBadRequest, "invalid_request", "key is required")
		return
	}
	if err := s.deps.Session.SelectSource(r.Context(), req.Key); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Session.Status())
}

func (s *Server) handleReloadSources(w http.ResponseWriter, r *http.Request) {
	if s.deps.Catalog == nil {
		writeProblem(w, r, http.StatusNotImplemented, "not_supported", "catalogue reload is not configured")
		return
	}
	if err := s.deps.Catalog.Reload(); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldEvent, "catalog.reload_failed").Msg("catalogue reload requested over API failed")
		writeProblem(w, r, http.StatusUnprocessableEntity, "catalog_invalid", err.Error())
		return
	}
	s.handleListSources(w, r)
}
