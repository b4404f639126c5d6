// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/elnormous/contenttype"
	"gopkg.in/yaml.v3"

	"github.com/fivegmag/awareapp/internal/m8"
	"github.com/fivegmag/awareapp/internal/session"
)

// EntryPointView is an entry point with its derived streaming format.
type EntryPointView struct {
	m8.EntryPoint
	Format m8.Format `json:"format"`
}

// StreamView is one selectable service list entry.
type StreamView struct {
	Index                 int              `json:"index"`
	Label                 string           `json:"label"`
	Name                  string           `json:"name"`
	ProvisioningSessionID string           `json:"provisioningSessionId"`
	EntryPoints           []EntryPointView `json:"entryPoints"`
}

// StreamsResponse lists the streams of the current model.
type StreamsResponse struct {
	Selected int          `json:"selected"`
	Streams  []StreamView `json:"streams"`
}

// SelectStreamRequest selects a service list entry by position.
type SelectStreamRequest struct {
	Index *int `json:"index"`
}

func streamView(i int, e m8.ServiceListEntry) StreamView {
	eps := make([]EntryPointView, 0, len(e.EntryPoints))
	for _, ep := range e.EntryPoints {
		eps = append(eps, EntryPointView{EntryPoint: ep, Format: ep.Format()})
	}
	return StreamView{
		Index:                 i,
		Label:                 e.Label(),
		Name:                  e.Name,
		ProvisioningSessionID: e.ProvisioningSessionID,
		EntryPoints:           eps,
	}
}

// handleGetModel returns the current model as JSON or, when asked for, YAML.
func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	model, ok := s.deps.Session.Current()
	if !ok {
		writeError(w, r, session.ErrNoModel)
		return
	}

	mt, _, err := contenttype.GetAcceptableMediaType(r, []contenttype.MediaType{mediaJSON, mediaYAML})
	if err != nil {
		writeProblem(w, r, http.StatusNotAcceptable, "not_acceptable", "supported: application/json, application/yaml")
		return
	}
	if mt.Subtype == mediaYAML.Subtype {
		out, err := yaml.Marshal(model)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (s *Server) handleListStreams(w http.ResponseWriter, r *http.Request) {
	model, selected, ok := s.deps.Session.Streams()
	if !ok {
		writeError(w, r, session.ErrNoModel)
		return
	}
	if selected >= model.Len() {
		selected = -1
	}
	streams := make([]StreamView, 0, model.Len())
	for i, e := range model.ServiceList {
		streams = append(streams, streamView(i, e))
	}
	writeJSON(w, http.StatusOK, StreamsResponse{Selected: selected, Streams: streams})
}

func (s *Server) handleGetSelectedStream(w http.ResponseWriter, r *http.Request) {
	i, entry, err := s.deps.Session.SelectedStream()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, streamView(i, entry))
}

func (s *Server) handleSelectStream(w http.ResponseWriter, r *http.Request) {
	var req SelectStreamRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if req.Index == nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_request", "index is required")
		return
	}
	if err := s.deps.Session.SelectStream(*req.Index); err != nil {
		writeError(w, r, err)
		return
	}
	i, entry, err := s.deps.Session.SelectedStream()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, streamView(i, entry))
}
