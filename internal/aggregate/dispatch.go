// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate fans a resolved product out to the per-source scraper
// services, joins their answers into one combined list, and groups that
// list by source for display.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ommathur/quickpick/internal/httputil"
	"github.com/ommathur/quickpick/pkg/types"
)

// Fetcher performs one aggregate request against a source's scraper service.
type Fetcher interface {
	Fetch(ctx context.Context, req types.SourceRequest) ([]types.ItemRecord, error)
}

// HTTPFetcher is the production Fetcher. It issues a single GET per request
// and never retries.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// Fetch implements Fetcher. Any transport, status or decode failure is
// reported as types.ErrUpstreamUnavailable.
func (f *HTTPFetcher) Fetch(ctx context.Context, req types.SourceRequest) ([]types.ItemRecord, error) {
	target, err := EncodeURL(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrUpstreamUnavailable, req.Source, err)
	}

	headers := make(map[string]string, len(req.Headers)+1)
	if f.UserAgent != "" {
		headers["User-Agent"] = f.UserAgent
	}
	for k, v := range req.Headers {
		headers[k] = v
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	var items []types.ItemRecord
	if err := httputil.GetJSON(ctx, client, target, headers, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrUpstreamUnavailable, req.Source, err)
	}
	return items, nil
}

// BuildRequests creates one aggregate request per resolved source, in
// resolution order. Sources without URLs or disabled in cfg get none.
func BuildRequests(resolved types.ResolvedLinks, caller types.Caller, cfg types.AggregateConfig) []types.SourceRequest {
	var reqs []types.SourceRequest
	for _, sl := range resolved {
		if len(sl.URLs) == 0 {
			continue
		}
		sc := cfg.Source(sl.Source)
		if sc.Disabled {
			continue
		}
		reqs = append(reqs, types.SourceRequest{
			Source:   sl.Source,
			Endpoint: sc.Endpoint,
			URLs:     append([]string(nil), sl.URLs...),
			CallerID: caller.ID,
			Headers:  sc.Headers,
			Timeout:  cfg.TimeoutFor(sl.Source),
		})
	}
	return reqs
}

// EncodeURL returns the request URL: the endpoint with every storefront URL
// as a repeated url parameter followed by user_id.
func EncodeURL(req types.SourceRequest) (string, error) {
	u, err := url.Parse(req.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint for %s: %w", req.Source, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("endpoint for %s is not absolute: %q", req.Source, req.Endpoint)
	}
	q := u.Query()
	for _, link := range req.URLs {
		q.Add("url", link)
	}
	q.Set("user_id", req.CallerID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Pending is an in-flight aggregate request.
type Pending struct {
	Request types.SourceRequest

	done    chan struct{}
	items   []types.ItemRecord
	err     error
	elapsed time.Duration
}

// Wait blocks until the request settles.
func (p *Pending) Wait() ([]types.ItemRecord, error) {
	<-p.done
	return p.items, p.err
}

// Elapsed reports how long the request took. Valid after Wait returns.
func (p *Pending) Elapsed() time.Duration {
	return p.elapsed
}

// Dispatcher issues aggregate requests concurrently.
type Dispatcher struct {
	Fetcher Fetcher
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

// Dispatch starts every request at once and returns their pending handles
// in the order of reqs. It returns types.ErrNoLinksToFetch without issuing
// anything when reqs is empty. Each request runs under its own timeout so
// one slow source cannot hold the join past its deadline.
func (d *Dispatcher) Dispatch(ctx context.Context, reqs []types.SourceRequest) ([]*Pending, error) {
	if len(reqs) == 0 {
		return nil, types.ErrNoLinksToFetch
	}

	if d.Fetcher == nil {
		return nil, fmt.Errorf("dispatcher has no fetcher")
	}

	pending := make([]*Pending, len(reqs))
	for i, req := range reqs {
		p := &Pending{Request: req, done: make(chan struct{})}
		pending[i] = p
		d.logger().Debug("dispatching", "source", req.Source, "urls", len(req.URLs))
		go d.run(ctx, p)
	}
	return pending, nil
}

func (d *Dispatcher) run(ctx context.Context, p *Pending) {
	defer close(p.done)

	req := p.Request
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	ctx, span := d.tracer().Start(ctx, "quickpick.fetch", trace.WithAttributes(
		attribute.String("quickpick.source", string(req.Source)),
		attribute.Int("quickpick.url_count", len(req.URLs)),
	))
	defer span.End()

	start := time.Now()
	p.items, p.err = d.Fetcher.Fetch(ctx, req)
	p.elapsed = time.Since(start)

	if p.err != nil {
		span.RecordError(p.err)
		span.SetStatus(codes.Error, "source failed")
		return
	}
	span.SetAttributes(attribute.Int("quickpick.item_count", len(p.items)))
}

func (d *Dispatcher) tracer() trace.Tracer {
	if d.Tracer != nil {
		return d.Tracer
	}
	return defaultTracer()
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
