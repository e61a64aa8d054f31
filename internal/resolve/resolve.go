// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns a product name into per-source storefront URLs.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/ommathur/quickpick/internal/directory"
	"github.com/ommathur/quickpick/pkg/types"
)

// Resolver looks products up in a directory.
type Resolver struct {
	Directory directory.Directory
}

// Resolve finds the single directory record matching name and splits its
// link lists. It has no side effects beyond the directory read.
func (r *Resolver) Resolve(ctx context.Context, caller types.Caller, name string) (types.ResolvedLinks, error) {
	if caller.ID == "" {
		return nil, types.ErrUnauthenticated
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty product name", types.ErrProductNotFound)
	}

	rec, err := r.Directory.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return FromRecord(rec), nil
}

// FromRecord builds ResolvedLinks from a directory record in dispatch
// order. Sources whose list is empty after trimming are omitted.
func FromRecord(rec types.ProductLinkRecord) types.ResolvedLinks {
	var out types.ResolvedLinks
	for _, s := range types.KnownSources {
		if urls := SplitLinks(rec.Links(s)); len(urls) > 0 {
			out = append(out, types.SourceLinks{Source: s, URLs: urls})
		}
	}
	return out
}

// SplitLinks splits a comma-separated link list, trims each piece and drops
// the empty ones.
func SplitLinks(s string) []string {
	var urls []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			urls = append(urls, part)
		}
	}
	return urls
}
