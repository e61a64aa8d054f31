// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ommathur/quickpick/internal/aggregate"
	"github.com/ommathur/quickpick/internal/identity"
	"github.com/ommathur/quickpick/internal/resolve"
	"github.com/ommathur/quickpick/pkg/types"
)

const testSecret = "server-test-secret"

// --- fakes ---

type fakeDirectory struct {
	records  map[string]types.ProductLinkRecord
	products []types.ProductSummary
	err      error
}

func (d *fakeDirectory) Lookup(_ context.Context, name string) (types.ProductLinkRecord, error) {
	rec, ok := d.records[strings.ToLower(name)]
	if !ok {
		return types.ProductLinkRecord{}, types.ErrProductNotFound
	}
	return rec, nil
}

func (d *fakeDirectory) Categories(context.Context) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return []string{"Bakery", "Dairy"}, nil
}

func (d *fakeDirectory) Products(_ context.Context, category string) ([]types.ProductSummary, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.products, nil
}

func (d *fakeDirectory) Close() error { return nil }

// echoFetcher returns one item per URL, or fails for sources in down.
type echoFetcher struct {
	down map[types.SourceID]bool
	seen chan string
}

func (f *echoFetcher) Fetch(_ context.Context, req types.SourceRequest) ([]types.ItemRecord, error) {
	if f.seen != nil {
		f.seen <- req.CallerID
	}
	if f.down[req.Source] {
		return nil, types.ErrUpstreamUnavailable
	}
	var out []types.ItemRecord
	for _, u := range req.URLs {
		out = append(out, types.ItemRecord{URL: u, DisplayName: u, Available: true, Price: decimal.NewFromInt(20)})
	}
	return out, nil
}

func newTestServer(t *testing.T, fetcher *echoFetcher, opts Options) *httptest.Server {
	t.Helper()
	dir := &fakeDirectory{
		records: map[string]types.ProductLinkRecord{
			"milk 1l": {Name: "Milk 1L", BlinkitLinks: "https://blinkit.com/a", ZeptoLinks: "https://www.zeptonow.com/b"},
			"ghost":   {Name: "Ghost"},
		},
		products: []types.ProductSummary{
			{Name: "Milk 1L", SubCategory: "Milk"},
			{Name: "Curd", SubCategory: "Curd"},
			{Name: "Toned Milk", SubCategory: "Milk"},
		},
	}
	opts.Directory = dir
	opts.Logger = slog.New(slog.DiscardHandler)
	opts.Pipeline = &aggregate.Pipeline{
		Resolver:   &resolve.Resolver{Directory: dir},
		Dispatcher: &aggregate.Dispatcher{Fetcher: fetcher},
		Config: types.AggregateConfig{Sources: map[string]types.SourceConfig{
			"blinkit":   {Endpoint: "http://a.invalid"},
			"bigbasket": {Endpoint: "http://b.invalid"},
			"zepto":     {Endpoint: "http://c.invalid"},
		}},
		Logger: opts.Logger,
	}
	ts := httptest.NewServer(New(opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	claims := identity.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func get(t *testing.T, url, auth string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeProblem(t *testing.T, resp *http.Response) Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	var p Problem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	return p
}

// --- lookup ---

func TestLookupWithToken(t *testing.T) {
	fetcher := &echoFetcher{seen: make(chan string, 3)}
	ts := newTestServer(t, fetcher, Options{Verifier: identity.NewVerifier(testSecret)})

	resp := get(t, ts.URL+"/api/lookup?name=milk+1l", bearer(t, "user-9"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var report aggregate.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "milk 1l", report.Product)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, types.SourceBlinkit, report.Groups[0].Source)
	assert.Equal(t, types.SourceZepto, report.Groups[1].Source)

	assert.Equal(t, "user-9", <-fetcher.seen)
	assert.Equal(t, "user-9", <-fetcher.seen)
}

func TestLookupAuthFailures(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		auth string
	}{
		{"missing header", Options{Verifier: identity.NewVerifier(testSecret)}, ""},
		{"not bearer", Options{Verifier: identity.NewVerifier(testSecret)}, "Basic dXNlcjpwYXNz"},
		{"bad token", Options{Verifier: identity.NewVerifier(testSecret)}, "Bearer not-a-jwt"},
		{"no auth configured", Options{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &echoFetcher{}
			ts := newTestServer(t, fetcher, tt.opts)
			resp := get(t, ts.URL+"/api/lookup?name=Milk+1L", tt.auth)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			p := decodeProblem(t, resp)
			assert.Equal(t, "/api/lookup", p.Instance)
			assert.Equal(t, resp.Header.Get("X-Request-ID"), p.TraceID)
		})
	}
}

func TestLookupDevUser(t *testing.T) {
	fetcher := &echoFetcher{seen: make(chan string, 3)}
	ts := newTestServer(t, fetcher, Options{DevUser: "dev"})

	resp := get(t, ts.URL+"/api/lookup?name=Milk+1L", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dev", <-fetcher.seen)
}

func TestLookupErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		down   map[types.SourceID]bool
		status int
		detail string
	}{
		{"missing name", "", nil, http.StatusBadRequest, "name is required"},
		{"unknown product", "name=Unknown+Item", nil, http.StatusNotFound, "Product not found in the directory."},
		{"no links", "name=ghost", nil, http.StatusUnprocessableEntity, "No links to fetch."},
		{"all sources down", "name=Milk+1L", map[types.SourceID]bool{types.SourceBlinkit: true, types.SourceZepto: true},
			http.StatusBadGateway, "No results could be retrieved from any store."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &echoFetcher{down: tt.down}, Options{DevUser: "dev"})
			resp := get(t, ts.URL+"/api/lookup?"+tt.query, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.detail, decodeProblem(t, resp).Detail)
		})
	}
}

func TestRequestIDReused(t *testing.T) {
	ts := newTestServer(t, &echoFetcher{}, Options{})
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

// --- directory routes ---

func TestCategories(t *testing.T) {
	ts := newTestServer(t, &echoFetcher{}, Options{})
	resp := get(t, ts.URL+"/api/categories", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body CategoriesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"Bakery", "Dairy"}, body.Categories)
}

func TestProducts(t *testing.T) {
	ts := newTestServer(t, &echoFetcher{}, Options{})

	resp := get(t, ts.URL+"/api/products?category=Dairy&sub=Milk", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ProductsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Dairy", body.Category)
	assert.Equal(t, []string{"Milk", "Curd"}, body.Subcategories)
	require.Len(t, body.Products, 2)
	assert.Equal(t, "Toned Milk", body.Products[1].Name)

	resp = get(t, ts.URL+"/api/products", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, statusFor(types.ErrUpstreamUnavailable))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk full")))
}
