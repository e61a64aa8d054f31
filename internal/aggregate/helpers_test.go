// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ommathur/quickpick/pkg/types"
)

// --- fake fetcher ---

type fakeResult struct {
	items []types.ItemRecord
	err   error
	delay time.Duration
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []types.SourceRequest
	results map[types.SourceID]fakeResult
}

func (f *fakeFetcher) Fetch(ctx context.Context, req types.SourceRequest) ([]types.ItemRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	r := f.results[req.Source]
	f.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.items, r.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func item(url, name string, price int64) types.ItemRecord {
	return types.ItemRecord{
		URL:         url,
		DisplayName: name,
		Unit:        "1 l",
		Available:   price > 0,
		Price:       decimal.NewFromInt(price),
	}
}

func req(s types.SourceID, urls ...string) types.SourceRequest {
	return types.SourceRequest{Source: s, Endpoint: "http://scraper.invalid", URLs: urls, CallerID: "user-1"}
}
