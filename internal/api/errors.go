// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/m8"
	"github.com/fivegmag/awareapp/internal/playback"
	"github.com/fivegmag/awareapp/internal/resolver"
	"github.com/fivegmag/awareapp/internal/session"
)

// Problem is the JSON error body of every failed request.
type Problem struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, kind, detail string) {
	writeJSON(w, code, Problem{
		Error:     kind,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// writeError maps err to a status code and problem kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := classify(err)
	if code >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "api.request_failed").
			Str(log.FieldPath, r.URL.Path).
			Int("status", code).
			Msg("request failed")
	}
	writeProblem(w, r, code, kind, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrUnknownKey):
		return http.StatusNotFound, "unknown_source"
	case errors.Is(err, session.ErrNoCatalog):
		return http.StatusServiceUnavailable, "no_catalog"
	case errors.Is(err, session.ErrNoModel):
		return http.StatusConflict, "no_model"
	case errors.Is(err, session.ErrStreamIndex):
		return http.StatusUnprocessableEntity, "stream_index_out_of_range"
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict, "superseded"
	case errors.Is(err, playback.ErrNoRepresentation):
		return http.StatusNotFound, "no_representation"
	case errors.Is(err, resolver.ErrTimeout):
		return http.StatusGatewayTimeout, "m8_timeout"
	case errors.Is(err, resolver.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "m8_circuit_open"
	case errors.Is(err, resolver.ErrRateLimited):
		return http.StatusTooManyRequests, "m8_rate_limited"
	case errors.Is(err, resolver.ErrNotFound),
		errors.Is(err, resolver.ErrAssetNotFound),
		errors.Is(err, resolver.ErrForbidden),
		errors.Is(err, resolver.ErrUpstreamUnavailable),
		errors.Is(err, resolver.ErrUpstreamError),
		errors.Is(err, resolver.ErrBadResponse),
		errors.Is(err, resolver.ErrInvalidLocation):
		return http.StatusBadGateway, "m8_unavailable"
	case errors.Is(err, m8.ErrMalformed),
		errors.Is(err, m8.ErrNotObject),
		errors.Is(err, m8.ErrMissingServiceList),
		errors.Is(err, m8.ErrInvalidArray):
		return http.StatusBadGateway, "m8_invalid"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
