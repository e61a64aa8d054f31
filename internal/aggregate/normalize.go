// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"log/slog"

	"github.com/ommathur/quickpick/pkg/types"
)

// Normalize waits for every pending request, tags each item with the source
// that produced it, and flattens the lists in dispatch order regardless of
// arrival order. A failed source contributes nothing and is recorded in the
// statuses. It returns types.ErrEmptyResult only when no item was produced
// and every request failed; sources that answered with empty lists are a
// valid, empty result.
func Normalize(pending []*Pending, logger *slog.Logger) (types.CombinedResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var out types.CombinedResult
	failed := 0
	for _, p := range pending {
		items, err := p.Wait()
		st := types.SourceStatus{Source: p.Request.Source}

		switch {
		case err != nil:
			failed++
			st.State = types.FetchFailed
			st.Error = err.Error()
			logger.Warn("source failed", "source", p.Request.Source, "elapsed", p.Elapsed(), "err", err)
		case len(items) == 0:
			st.State = types.FetchEmpty
			logger.Info("source returned no items", "source", p.Request.Source, "elapsed", p.Elapsed())
		default:
			st.State = types.FetchOK
			st.Items = len(items)
			for _, it := range items {
				it.Source = p.Request.Source
				out.Items = append(out.Items, it)
			}
			logger.Info("source answered", "source", p.Request.Source, "items", len(items), "elapsed", p.Elapsed())
		}
		out.Statuses = append(out.Statuses, st)
	}

	if len(out.Items) == 0 && len(pending) > 0 && failed == len(pending) {
		return out, types.ErrEmptyResult
	}
	return out, nil
}
