// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{name: "nil context", ctx: nil, requestID: "test-id-123", want: "test-id-123"},
		{name: "background context", ctx: context.Background(), requestID: "req-456", want: "req-456"},
		{name: "empty request ID", ctx: context.Background(), requestID: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			assert.Equal(t, tt.want, RequestIDFromContext(ctx))
		})
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	assert.Empty(t, RequestIDFromContext(nil))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestWithContext_AddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")

	l := WithContext(ctx, base)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry[FieldRequestID])
	assert.Equal(t, "corr-1", entry[FieldCorrelationID])
}

func TestWithContext_NoFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := WithContext(context.Background(), base)
	l.Info().Msg("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, hasRequestID := entry[FieldRequestID]
	assert.False(t, hasRequestID)
}

func TestConfigure_ServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "awareapp-test", Version: "v0.0.1"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("resolver")
	l.Info().Str(FieldEvent, "test.event").Msg("component log")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "awareapp-test", entry["service"])
	assert.Equal(t, "v0.0.1", entry["version"])
	assert.Equal(t, "resolver", entry[FieldComponent])
	assert.Equal(t, "test.event", entry[FieldEvent])
}

func TestMiddleware_LogsStatus(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/m8", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "rid-42"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request.handled", entry[FieldEvent])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "/api/v1/m8", entry[FieldPath])
	assert.Equal(t, "rid-42", entry[FieldRequestID])
	assert.Equal(t, "warn", entry["level"])
}
