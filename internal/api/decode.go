// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
)

const maxBodyBytes = 64 << 10

var (
	mediaJSON = contenttype.NewMediaType("application/json")
	mediaYAML = contenttype.NewMediaType("application/yaml")

	errUnsupportedMediaType = errors.New("request body must be application/json")
)

// decodeJSON reads a single JSON object from the request body into v.
// An absent Content-Type is accepted.
func decodeJSON(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "" {
		mt, err := contenttype.GetMediaType(r)
		if err != nil || !isJSON(mt) {
			return errUnsupportedMediaType
		}
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if dec.More() {
		return errors.New("decode request body: trailing data")
	}
	return nil
}

func isJSON(mt contenttype.MediaType) bool {
	return mt.Type == "application" && (mt.Subtype == "json" || strings.HasSuffix(mt.Subtype, "+json"))
}

// badBody writes 415 or 400 depending on why decodeJSON failed.
func badBody(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errUnsupportedMediaType) {
		writeProblem(w, r, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
		return
	}
	writeProblem(w, r, http.StatusBadRequest, "invalid_request", err.Error())
}
