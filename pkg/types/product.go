// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the quickpick pipeline:
// directory records, resolved links, per-source requests, normalized items,
// and the configuration consumed by each stage.
package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SourceID identifies one upstream retail data provider.
type SourceID string

const (
	SourceBlinkit   SourceID = "blinkit"
	SourceBigBasket SourceID = "bigbasket"
	SourceZepto     SourceID = "zepto"
)

// KnownSources lists every source in dispatch and display order.
var KnownSources = []SourceID{SourceBlinkit, SourceBigBasket, SourceZepto}

// Label returns the human-readable storefront name.
func (s SourceID) Label() string {
	switch s {
	case SourceBlinkit:
		return "Blinkit"
	case SourceBigBasket:
		return "BigBasket"
	case SourceZepto:
		return "Zepto"
	default:
		return string(s)
	}
}

// Marker returns the lowercase substring that storefront URLs of this
// source contain. It is used only when an item carries no source tag.
func (s SourceID) Marker() string {
	return strings.ToLower(string(s))
}

// ParseSourceID maps a case-insensitive name to a known source.
func ParseSourceID(name string) (SourceID, bool) {
	id := SourceID(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range KnownSources {
		if id == known {
			return known, true
		}
	}
	return "", false
}

// ProductLinkRecord is one row of the product directory. Each link field is
// a comma-separated list of storefront URLs and may be empty.
type ProductLinkRecord struct {
	Name           string `json:"product_name" yaml:"product_name"`
	Category       string `json:"category,omitempty" yaml:"category,omitempty"`
	SubCategory    string `json:"sub_category,omitempty" yaml:"sub_category,omitempty"`
	BlinkitLinks   string `json:"blinkit_link,omitempty" yaml:"blinkit_link,omitempty"`
	BigBasketLinks string `json:"bigbasket_link,omitempty" yaml:"bigbasket_link,omitempty"`
	ZeptoLinks     string `json:"zepto_link,omitempty" yaml:"zepto_link,omitempty"`
}

// Links returns the raw link list stored for source s.
func (r ProductLinkRecord) Links(s SourceID) string {
	switch s {
	case SourceBlinkit:
		return r.BlinkitLinks
	case SourceBigBasket:
		return r.BigBasketLinks
	case SourceZepto:
		return r.ZeptoLinks
	default:
		return ""
	}
}

// ProductSummary is the listing view of a directory row used when browsing
// a category.
type ProductSummary struct {
	Name        string `json:"product_name" yaml:"product_name"`
	SubCategory string `json:"sub_category" yaml:"sub_category"`
}

// SourceLinks holds the trimmed, non-empty URLs resolved for one source.
type SourceLinks struct {
	Source SourceID `json:"source" yaml:"source"`
	URLs   []string `json:"urls" yaml:"urls"`
}

// ResolvedLinks maps sources to their URLs in dispatch order. A source
// appears only when it has at least one URL.
type ResolvedLinks []SourceLinks

// Get returns the URLs for source s, or nil if s is absent.
func (r ResolvedLinks) Get(s SourceID) []string {
	for _, sl := range r {
		if sl.Source == s {
			return sl.URLs
		}
	}
	return nil
}

// Sources returns the sources present, in order.
func (r ResolvedLinks) Sources() []SourceID {
	ids := make([]SourceID, len(r))
	for i, sl := range r {
		ids[i] = sl.Source
	}
	return ids
}

// SourceRequest is one aggregate call to a source's scraper service. It is
// never built for a source without URLs.
type SourceRequest struct {
	Source   SourceID          `json:"source"`
	Endpoint string            `json:"endpoint"`
	URLs     []string          `json:"urls"`
	CallerID string            `json:"user_id"`
	Headers  map[string]string `json:"headers,omitempty"`

	// Timeout bounds this request; expiry counts as a source failure.
	Timeout time.Duration `json:"-"`
}

func init() {
	// Prices are JSON numbers on the wire in both directions.
	decimal.MarshalJSONWithoutQuotes = true
}

// ItemRecord is the normalized unit of output. Price is meaningful only when
// Available is true. Source is set by the dispatcher, not by the upstream.
type ItemRecord struct {
	URL         string          `json:"url" yaml:"url"`
	DisplayName string          `json:"display_name" yaml:"display_name"`
	Unit        string          `json:"unit" yaml:"unit"`
	Available   bool            `json:"available" yaml:"available"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Source      SourceID        `json:"source,omitempty" yaml:"source,omitempty"`
}

// FetchState describes what happened to one source during a run.
type FetchState string

const (
	// FetchSkipped means the product had no links for the source.
	FetchSkipped FetchState = "skipped"
	// FetchOK means the source answered with at least one item.
	FetchOK FetchState = "ok"
	// FetchEmpty means the source answered with an empty list.
	FetchEmpty FetchState = "empty"
	// FetchFailed means the request or the body decode failed.
	FetchFailed FetchState = "failed"
)

// SourceStatus reports the outcome for one source.
type SourceStatus struct {
	Source SourceID   `json:"source" yaml:"source"`
	State  FetchState `json:"state" yaml:"state"`
	Items  int        `json:"items" yaml:"items"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// CombinedResult is the flattened item list of one run, in dispatch order,
// with the per-source outcomes that produced it.
type CombinedResult struct {
	Items    []ItemRecord   `json:"items" yaml:"items"`
	Statuses []SourceStatus `json:"statuses" yaml:"statuses"`
}

// Failed returns the sources whose fetch failed.
func (c CombinedResult) Failed() []SourceStatus {
	var out []SourceStatus
	for _, st := range c.Statuses {
		if st.State == FetchFailed {
			out = append(out, st)
		}
	}
	return out
}

// Caller identifies the user on whose behalf a run executes. ID is the
// opaque token forwarded to upstream services as user_id.
type Caller struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
