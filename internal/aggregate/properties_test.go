// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ommathur/quickpick/pkg/types"
)

// scenario builds resolved links and a fake fetcher from per-source URL
// counts, delays (ms) and failure flags, all indexed by KnownSources.
func scenario(counts, delays []int, fails []bool) (types.ResolvedLinks, *fakeFetcher) {
	var resolved types.ResolvedLinks
	f := &fakeFetcher{results: map[types.SourceID]fakeResult{}}
	for i, s := range types.KnownSources {
		if counts[i] == 0 {
			continue
		}
		var urls []string
		var items []types.ItemRecord
		for j := 0; j < counts[i]; j++ {
			u := fmt.Sprintf("https://%s.example/%d", s, j)
			urls = append(urls, u)
			items = append(items, item(u, u, int64(j+1)))
		}
		resolved = append(resolved, types.SourceLinks{Source: s, URLs: urls})
		r := fakeResult{items: items, delay: time.Duration(delays[i]) * time.Millisecond}
		if fails[i] {
			r = fakeResult{err: errors.New("down"), delay: r.delay}
		}
		f.results[s] = r
	}
	return resolved, f
}

func TestDispatchProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	counts := gen.SliceOfN(3, gen.IntRange(0, 3))
	delays := gen.SliceOfN(3, gen.IntRange(0, 5))
	fails := gen.SliceOfN(3, gen.Bool())
	caller := types.Caller{ID: "user-1"}
	cfg := types.AggregateConfig{Sources: map[string]types.SourceConfig{
		"blinkit":   {Endpoint: "http://a.invalid"},
		"bigbasket": {Endpoint: "http://b.invalid"},
		"zepto":     {Endpoint: "http://c.invalid"},
	}}

	properties.Property("one request per source with links", prop.ForAll(
		func(counts, delays []int, fails []bool) bool {
			resolved, f := scenario(counts, delays, fails)
			d := &Dispatcher{Fetcher: f, Logger: quietLogger()}
			pending, err := d.Dispatch(context.Background(), BuildRequests(resolved, caller, cfg))
			if len(resolved) == 0 {
				return errors.Is(err, types.ErrNoLinksToFetch) && f.callCount() == 0
			}
			if err != nil {
				return false
			}
			_, _ = Normalize(pending, quietLogger())
			return len(pending) == len(resolved) && f.callCount() == len(resolved)
		},
		counts, delays, fails,
	))

	properties.Property("combined items follow dispatch order", prop.ForAll(
		func(counts, delays []int, fails []bool) bool {
			resolved, f := scenario(counts, delays, fails)
			if len(resolved) == 0 {
				return true
			}
			d := &Dispatcher{Fetcher: f, Logger: quietLogger()}
			pending, err := d.Dispatch(context.Background(), BuildRequests(resolved, caller, cfg))
			if err != nil {
				return false
			}
			out, _ := Normalize(pending, quietLogger())

			var want []string
			for i, s := range types.KnownSources {
				if counts[i] == 0 || fails[i] {
					continue
				}
				want = append(want, resolved.Get(s)...)
			}
			if len(out.Items) != len(want) {
				return false
			}
			for i, it := range out.Items {
				if it.URL != want[i] {
					return false
				}
			}
			return true
		},
		counts, delays, fails,
	))

	properties.Property("empty result only when every source failed", prop.ForAll(
		func(counts, delays []int, fails []bool) bool {
			resolved, f := scenario(counts, delays, fails)
			if len(resolved) == 0 {
				return true
			}
			d := &Dispatcher{Fetcher: f, Logger: quietLogger()}
			pending, err := d.Dispatch(context.Background(), BuildRequests(resolved, caller, cfg))
			if err != nil {
				return false
			}
			_, err = Normalize(pending, quietLogger())

			allFailed := true
			for i := range types.KnownSources {
				if counts[i] > 0 && !fails[i] {
					allFailed = false
				}
			}
			return errors.Is(err, types.ErrEmptyResult) == allFailed
		},
		counts, delays, fails,
	))

	properties.Property("partition preserves every tagged item", prop.ForAll(
		func(counts, delays []int, fails []bool) bool {
			resolved, f := scenario(counts, delays, fails)
			if len(resolved) == 0 {
				return true
			}
			d := &Dispatcher{Fetcher: f, Logger: quietLogger()}
			pending, err := d.Dispatch(context.Background(), BuildRequests(resolved, caller, cfg))
			if err != nil {
				return false
			}
			out, _ := Normalize(pending, quietLogger())
			v := Partition(out.Items)
			if v.Len() != len(out.Items) {
				return false
			}
			for s, items := range v {
				if len(items) == 0 {
					return false
				}
				for _, it := range items {
					if it.Source != s {
						return false
					}
				}
			}
			return true
		},
		counts, delays, fails,
	))

	properties.TestingRun(t)
}
