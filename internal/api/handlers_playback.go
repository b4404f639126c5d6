// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/fivegmag/awareapp/internal/bus"
	"github.com/fivegmag/awareapp/internal/playback"
)

// PlaybackResponse reports the stream handed to the player.
type PlaybackResponse struct {
	Stream StreamView `json:"stream"`
}

func (s *Server) handleLoadStream(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.Session.LoadStream(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	i, _, _ := s.deps.Session.SelectedStream()
	writeJSON(w, http.StatusOK, PlaybackResponse{Stream: streamView(i, entry)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFormatEvent ingests a downstream format change reported by the player.
func (s *Server) handleFormatEvent(w http.ResponseWriter, r *http.Request) {
	var ev playback.DownstreamFormatChangedEvent
	if err := decodeJSON(r, &ev); err != nil {
		badBody(w, r, err)
		return
	}

	if s.deps.Bus == nil {
		s.deps.Representations.Handle(ev)
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if err := s.deps.Bus.Publish(r.Context(), bus.TopicFormatChanged, ev); err != nil {
		writeProblem(w, r, http.StatusServiceUnavailable, "event_dropped", err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleRepresentation(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Representations.Latest()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
