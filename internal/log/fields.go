// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldProvisioning  = "provisioning_session_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Source / M8 fields
	FieldSourceKey   = "source_key"
	FieldLocation    = "location"
	FieldSourceKind  = "source_kind"
	FieldBaseURL     = "base_url"
	FieldServices    = "services"
	FieldStreamIndex = "stream_index"
	FieldGeneration  = "generation"

	// Path / URL fields
	FieldPath = "path"
	FieldURL  = "url"
)
