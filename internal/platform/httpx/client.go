// SPDX-License-Identifier: MIT

// Package httpx builds the hardened HTTP clients used for outbound requests.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 3 * time.Second
	defaultIdleConnTimeout       = 30 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 16
	defaultMaxIdleConnsPerHost   = 4
)

// Options configures a client built by New.
type Options struct {
	// Timeout bounds the whole request including body read. Zero selects the default.
	Timeout time.Duration
	// UserAgent is set on requests that do not carry one already.
	UserAgent string
	// Traced wraps the transport with otelhttp so outbound calls produce client spans
	// and propagate trace context.
	Traced bool
}

// NewClient returns a hardened HTTP client with the given overall timeout.
func NewClient(timeout time.Duration) *http.Client {
	return New(Options{Timeout: timeout})
}

// New returns a hardened HTTP client built from opts.
func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	dialTimeout := min(timeout, defaultDialTimeout)
	responseHeaderTimeout := min(timeout, defaultResponseHeaderTimeout)

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
	if opts.UserAgent != "" {
		rt = &userAgentTransport{next: rt, userAgent: opts.UserAgent}
	}
	if opts.Traced {
		rt = otelhttp.NewTransport(rt)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}
