// SPDX-License-Identifier: MIT

// Package resolver fetches M8 service-discovery documents from bundled assets
// or remote HTTP endpoints and parses them into m8.Model values.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/fivegmag/awareapp/internal/cache"
	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/m8"
	"github.com/fivegmag/awareapp/internal/metrics"
	"github.com/fivegmag/awareapp/internal/platform/httpx"
	"github.com/fivegmag/awareapp/internal/resilience"
	"github.com/fivegmag/awareapp/internal/telemetry"
)

// MaxDocumentSize bounds the size of an M8 document.
const MaxDocumentSize = 1 << 20

const (
	defaultDocumentName = "m8.json"
	defaultTimeout      = 10 * time.Second
)

// Options configures a Resolver. Zero values select defaults.
type Options struct {
	// Assets is the file system bundled asset locations are read from.
	Assets fs.FS
	// Client performs remote fetches. Defaults to a traced httpx client.
	Client *http.Client
	// DocumentName is appended to remote locations that do not name a .json file.
	DocumentName string
	Timeout      time.Duration
	UserAgent    string

	// RateLimit and RateBurst bound outbound requests. A zero RateLimit disables limiting.
	RateLimit float64
	RateBurst int

	// Cache stores raw remote documents for CacheTTL. Nil or a zero TTL disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Breakers guards remote hosts. Nil disables circuit breaking.
	Breakers *resilience.Registry
}

// Resolver turns a location into an m8.Model. It is safe for concurrent use;
// concurrent resolves of the same location share one fetch.
type Resolver struct {
	assets       fs.FS
	client       *http.Client
	documentName string
	timeout      time.Duration
	userAgent    string
	limiter      *rate.Limiter
	cache        cache.Cache
	cacheTTL     time.Duration
	breakers     *resilience.Registry
	group        singleflight.Group
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// Result is a resolved model plus the details of how it was obtained.
type Result struct {
	Model       m8.Model
	Kind        catalog.Kind
	DocumentURL string
	Bytes       int
	Cached      bool
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	if opts.DocumentName == "" {
		opts.DocumentName = defaultDocumentName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = httpx.New(httpx.Options{Timeout: opts.Timeout, UserAgent: opts.UserAgent, Traced: true})
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	c := opts.Cache
	if c == nil || opts.CacheTTL <= 0 {
		c = cache.NewNoOpCache()
	}

	return &Resolver{
		assets:       opts.Assets,
		client:       client,
		documentName: opts.DocumentName,
		timeout:      opts.Timeout,
		userAgent:    opts.UserAgent,
		limiter:      limiter,
		cache:        c,
		cacheTTL:     opts.CacheTTL,
		breakers:     opts.Breakers,
		logger:       log.WithComponent("resolver"),
		tracer:       telemetry.Tracer("awareapp.resolver"),
	}
}

// Resolve fetches and parses the M8 document at location.
func (r *Resolver) Resolve(ctx context.Context, location string) (m8.Model, error) {
	res, err := r.ResolveDetailed(ctx, location)
	if err != nil {
		return m8.Model{}, err
	}
	return res.Model, nil
}

// ResolveDetailed is Resolve returning fetch details alongside the model.
func (r *Resolver) ResolveDetailed(ctx context.Context, location string) (Result, error) {
	kind, err := Classify(location)
	if err != nil {
		return Result{}, err
	}

	ch := r.group.DoChan(string(kind)+"|"+location, func() (any, error) {
		// Shared fetches must not die with the first caller.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.resolve(fetchCtx, kind, location)
	})
	select {
	case <-ctx.Done():
		return Result{}, wrapError("resolve", location, ctx.Err(), 0)
	case out := <-ch:
		if out.Err != nil {
			return Result{}, out.Err
		}
		return out.Val.(Result), nil
	}
}

func (r *Resolver) resolve(ctx context.Context, kind catalog.Kind, location string) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "m8.resolve", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(telemetry.SourceAttributes("", string(kind), location)...)

	start := time.Now()
	var (
		res Result
		err error
	)
	switch kind {
	case catalog.KindRemote:
		res, err = r.fetchRemote(ctx, location)
	default:
		res, err = r.fetchAsset(location)
	}
	res.Kind = kind

	if err != nil {
		metrics.RecordM8Fetch(string(kind), resultLabel(err), time.Since(start))
		telemetry.RecordError(span, err, resultLabel(err))
		return Result{}, err
	}

	span.SetAttributes(
		attribute.Int(telemetry.M8BytesKey, res.Bytes),
		attribute.Bool(telemetry.M8CachedKey, res.Cached),
	)
	span.SetAttributes(telemetry.ModelAttributes(res.Model.BaseURL, res.Model.Len())...)

	result := metrics.ResultSuccess
	if res.Cached {
		result = metrics.ResultCacheHit
	}
	metrics.RecordM8Fetch(string(kind), result, time.Since(start))

	r.logger.Debug().
		Str(log.FieldEvent, "m8.resolved").
		Str(log.FieldSourceKind, string(kind)).
		Str(log.FieldLocation, location).
		Str(log.FieldBaseURL, res.Model.BaseURL).
		Int(log.FieldServices, res.Model.Len()).
		Bool("cached", res.Cached).
		Dur("duration", time.Since(start)).
		Msg("m8 document resolved")
	return res, nil
}

func (r *Resolver) fetchAsset(location string) (Result, error) {
	if r.assets == nil {
		return Result{}, &FetchError{Sentinel: ErrAssetNotFound, Operation: "read asset", Location: location, Err: errors.New("no assets directory configured")}
	}
	name, err := assetPath(location)
	if err != nil {
		return Result{}, err
	}

	f, err := r.assets.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, &FetchError{Sentinel: ErrAssetNotFound, Operation: "read asset", Location: location}
		}
		return Result{}, &FetchError{Sentinel: ErrBadResponse, Operation: "read asset", Location: location, Err: err}
	}
	defer func() { _ = f.Close() }()

	data, err := readLimited(f)
	if err != nil {
		return Result{}, &FetchError{Sentinel: ErrBadResponse, Operation: "read asset", Location: location, Err: err}
	}
	model, err := parse(location, data)
	if err != nil {
		return Result{}, err
	}
	return Result{Model: model, DocumentURL: name, Bytes: len(data)}, nil
}

func (r *Resolver) fetchRemote(ctx context.Context, location string) (Result, error) {
	docURL, err := DocumentURL(location, r.documentName)
	if err != nil {
		return Result{}, err
	}

	if data, ok := r.cache.Get(ctx, docURL); ok {
		if model, perr := m8.Parse(data); perr == nil {
			return Result{Model: model, DocumentURL: docURL, Bytes: len(data), Cached: true}, nil
		}
		r.cache.Delete(ctx, docURL)
	}

	// Local throttling is not a property of the host and stays outside the breaker.
	if err := r.wait(ctx, docURL); err != nil {
		return Result{}, err
	}

	var data []byte
	fetch := func() error {
		var ferr error
		data, ferr = r.get(ctx, docURL)
		return ferr
	}
	if cb := r.breakers.For(hostOf(docURL)); cb != nil {
		err = cb.Execute(fetch, countsAgainstBreaker)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			err = wrapError("fetch m8", docURL, err, 0)
		}
	} else {
		err = fetch()
	}
	if err != nil {
		return Result{}, err
	}

	model, err := parse(docURL, data)
	if err != nil {
		return Result{}, err
	}
	r.cache.Set(ctx, docURL, data, r.cacheTTL)
	return Result{Model: model, DocumentURL: docURL, Bytes: len(data)}, nil
}

// wait blocks until the outbound limiter admits one request.
func (r *Resolver) wait(ctx context.Context, docURL string) error {
	if r.limiter == nil {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return wrapError("fetch m8", docURL, ctxErr, 0)
		}
		return &FetchError{Sentinel: ErrRateLimited, Operation: "fetch m8", Location: docURL, Err: err}
	}
	return nil
}

func (r *Resolver) get(ctx context.Context, docURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, &FetchError{Sentinel: ErrInvalidLocation, Operation: "fetch m8", Location: docURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, wrapError("fetch m8", docURL, err, 0)
	}
	defer func() { _ = resp.Body.Close() }()

	if werr := wrapError("fetch m8", docURL, nil, resp.StatusCode); werr != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, werr
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, &FetchError{Sentinel: ErrBadResponse, Operation: "fetch m8", Location: docURL, Status: resp.StatusCode, Err: err}
		}
		return nil, wrapError("fetch m8", docURL, err, 0)
	}
	metrics.ObserveM8DocumentSize(len(data))
	return data, nil
}

var errTooLarge = fmt.Errorf("document exceeds %d bytes", MaxDocumentSize)

func readLimited(rd io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(rd, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, errTooLarge
	}
	return data, nil
}

func parse(location string, data []byte) (m8.Model, error) {
	model, err := m8.Parse(data)
	if err != nil {
		metrics.RecordM8ParseFailure(parseReason(err))
		return m8.Model{}, fmt.Errorf("parse m8 document %s: %w", location, err)
	}
	return model, nil
}

func parseReason(err error) string {
	switch {
	case errors.Is(err, m8.ErrMalformed):
		return "malformed"
	case errors.Is(err, m8.ErrMissingServiceList):
		return "missing_service_list"
	case errors.Is(err, m8.ErrInvalidArray):
		return "invalid_array"
	case errors.Is(err, m8.ErrNotObject):
		return "not_object"
	default:
		return "unknown"
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	return u.Host
}
