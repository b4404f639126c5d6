// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by awareapp spans.
const (
	SourceKeyKey      = "aware.source.key"
	SourceKindKey     = "aware.source.kind"
	SourceLocationKey = "aware.source.location"

	M8BaseURLKey  = "aware.m8.base_url"
	M8ServicesKey = "aware.m8.services"
	M8BytesKey    = "aware.m8.bytes"
	M8CachedKey   = "aware.m8.cached"

	StreamIndexKey  = "aware.stream.index"
	ProvisioningKey = "aware.provisioning_session_id"
	EntryPointsKey  = "aware.stream.entry_points"
	GenerationKey   = "aware.session.generation"

	ErrorTypeKey = "error.type"
)

// SourceAttributes describes the catalogue source being resolved.
func SourceAttributes(key, kind, location string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if key != "" {
		attrs = append(attrs, attribute.String(SourceKeyKey, key))
	}
	attrs = append(attrs,
		attribute.String(SourceKindKey, kind),
		attribute.String(SourceLocationKey, location),
	)
	return attrs
}

// ModelAttributes describes a resolved M8 model.
func ModelAttributes(baseURL string, services int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(M8BaseURLKey, baseURL),
		attribute.Int(M8ServicesKey, services),
	}
}

// StreamAttributes describes a service list entry handed to playback.
func StreamAttributes(index int, provisioningSessionID string, entryPoints int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(StreamIndexKey, index),
		attribute.String(ProvisioningKey, provisioningSessionID),
		attribute.Int(EntryPointsKey, entryPoints),
	}
}

// HTTPAttributes describes a served request. status is omitted while zero.
func HTTPAttributes(method, route, target string, status int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.HTTPMethodKey.String(method),
		semconv.HTTPTargetKey.String(target),
	}
	if route != "" {
		attrs = append(attrs, semconv.HTTPRouteKey.String(route))
	}
	if status != 0 {
		attrs = append(attrs, semconv.HTTPStatusCodeKey.Int(status))
	}
	return attrs
}

// RecordError marks span as failed with err. errType is recorded as error.type.
func RecordError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errType != "" {
		span.SetAttributes(attribute.String(ErrorTypeKey, errType))
	}
}
