// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/fivegmag/awareapp/internal/metrics"
	"github.com/fivegmag/awareapp/internal/resilience"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound            = errors.New("m8 source: document not found")
	ErrForbidden           = errors.New("m8 source: access forbidden")
	ErrUpstreamUnavailable = errors.New("m8 source: host unreachable or transport failure")
	ErrUpstreamError       = errors.New("m8 source: internal error (5xx)")
	ErrBadResponse         = errors.New("m8 source: invalid response")
	ErrTimeout             = errors.New("m8 source: request timed out")
	ErrCircuitOpen         = errors.New("m8 source: circuit breaker open")
	ErrAssetNotFound       = errors.New("m8 source: bundled asset not found")
	ErrInvalidLocation     = errors.New("m8 source: invalid location")
	ErrRateLimited         = errors.New("m8 source: outbound rate limit exceeded")
)

// FetchError wraps a sentinel with the context of the failed fetch.
type FetchError struct {
	Sentinel  error
	Operation string
	Location  string
	Status    int
	Err       error // lower-level cause, e.g. a net.Error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Operation, e.Location, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Sentinel
}

// wrapError classifies a transport error or an HTTP status into a FetchError.
// A nil err with a 2xx status returns nil.
func wrapError(op, location string, err error, status int) error {
	if err == nil && status >= 200 && status < 300 {
		return nil
	}

	fe := &FetchError{Operation: op, Location: location, Status: status, Err: err}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		fe.Sentinel = ErrCircuitOpen
		fe.Err = nil
	case errors.Is(err, context.Canceled):
		fe.Sentinel = context.Canceled
		fe.Err = nil
	case errors.Is(err, context.DeadlineExceeded):
		fe.Sentinel = ErrTimeout
	case err != nil:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			fe.Sentinel = ErrTimeout
		} else {
			fe.Sentinel = ErrUpstreamUnavailable
		}
	case status == http.StatusNotFound || status == http.StatusGone:
		fe.Sentinel = ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		fe.Sentinel = ErrForbidden
	case status >= 500:
		fe.Sentinel = ErrUpstreamError
	default:
		fe.Sentinel = ErrBadResponse
	}
	return fe
}

// countsAgainstBreaker reports whether err indicates an unhealthy host.
func countsAgainstBreaker(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamError) ||
		errors.Is(err, ErrTimeout)
}

// resultLabel maps an error to the metrics result label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAssetNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrCircuitOpen):
		return metrics.ResultCircuitOpen
	case errors.Is(err, ErrTimeout):
		return metrics.ResultTimeout
	case errors.Is(err, ErrRateLimited):
		return metrics.ResultRateLimited
	case errors.Is(err, ErrUpstreamUnavailable):
		return metrics.ResultUnavailable
	case errors.Is(err, ErrUpstreamError):
		return metrics.ResultUpstream
	case parseReason(err) != "unknown":
		return metrics.ResultMalformed
	default:
		return metrics.ResultBadResponse
	}
}
