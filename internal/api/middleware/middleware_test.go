// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/telemetry"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "client-abc.1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-abc.1", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, `bad"id`)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, `bad"id`, seen)
	assert.Len(t, seen, 36)
}

func TestRecoverer(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/m8", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal_error", body["error"])
	assert.Equal(t, rec.Header().Get(HeaderRequestID), body["requestId"])
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, APICSP, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRateLimit_EnforcesLimit(t *testing.T) {
	limited := RateLimit(RateLimitConfig{RequestLimit: 3, WindowSize: time.Minute})(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	// Other clients are unaffected.
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.2:12345"
	rec = httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	provider, err := telemetry.NewProviderWithExporter(context.Background(), telemetry.Config{
		ServiceName:  "awareapp-test",
		SamplingRate: 1,
	}, sdktrace.WithSyncer(exp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r := chi.NewRouter()
	r.Use(Tracing("test"))
	r.Get("/api/v1/sources/{key}", okHandler)
	r.Get("/healthz", okHandler)
	r.Get("/fail", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for _, path := range []string{"/api/v1/sources/Local", "/healthz", "/fail"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /api/v1/sources/{key}", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("http.route", "/api/v1/sources/{key}"))
	assert.Equal(t, "GET /fail", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}

func TestStack_EndToEnd(t *testing.T) {
	r := NewRouter(StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
		RateLimitPerMinute:    100,
	})
	r.Get("/api/v1/m8", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/m8", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", strings.TrimSpace(rec.Body.String()))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
