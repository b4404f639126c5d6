// SPDX-License-Identifier: MIT

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordM8Fetch(t *testing.T) {
	before := testutil.ToFloat64(m8FetchTotal.WithLabelValues("remote", ResultSuccess))
	RecordM8Fetch("remote", ResultSuccess, 20*time.Millisecond)
	after := testutil.ToFloat64(m8FetchTotal.WithLabelValues("remote", ResultSuccess))
	assert.Equal(t, before+1, after)
}

func TestRecordM8ParseFailure_DefaultsReason(t *testing.T) {
	before := testutil.ToFloat64(m8ParseFailures.WithLabelValues("unknown"))
	RecordM8ParseFailure("")
	assert.Equal(t, before+1, testutil.ToFloat64(m8ParseFailures.WithLabelValues("unknown")))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("example.com", "open")
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("example.com", "open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("example.com", "closed")))

	SetCircuitBreakerState("example.com", "closed")
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("example.com", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("example.com", "closed")))
}

func TestIncBusDropReason_EmptyLabels(t *testing.T) {
	before := testutil.ToFloat64(BusDroppedTotal.WithLabelValues("unknown", "unknown"))
	IncBusDropReason("", "")
	assert.Equal(t, before+1, testutil.ToFloat64(BusDroppedTotal.WithLabelValues("unknown", "unknown")))
}

func TestSessionGauges(t *testing.T) {
	SetActiveServices(3)
	SetCatalogSources(4)
	assert.Equal(t, 3.0, testutil.ToFloat64(activeServices))
	assert.Equal(t, 4.0, testutil.ToFloat64(catalogSources))

	RecordFormatChange(true)
	RecordFormatChange(false)
	assert.GreaterOrEqual(t, testutil.ToFloat64(formatChanges.WithLabelValues("video")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(formatChanges.WithLabelValues("other")), 1.0)
}

func TestPromhttpExposure(t *testing.T) {
	RecordSourceSelection("applied")
	RecordCatalogReload(true)

	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := new(strings.Builder)
	_, err = io.Copy(body, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "awareapp_source_selections_total")
	assert.Contains(t, body.String(), "awareapp_catalog_reloads_total")
}
