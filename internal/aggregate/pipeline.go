// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ommathur/quickpick/internal/identity"
	"github.com/ommathur/quickpick/internal/resolve"
	"github.com/ommathur/quickpick/pkg/types"
)

const tracerName = "github.com/ommathur/quickpick/internal/aggregate"

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// State is a step of one lookup run. A run moves forward only.
type State string

const (
	StateIdle        State = "idle"
	StateResolving   State = "resolving"
	StateResolved    State = "resolved"
	StateDispatching State = "dispatching"
	StateAwaitingAll State = "awaiting_all"
	StateNormalizing State = "normalizing"
	StateReady       State = "ready"
	StateFailed      State = "failed"
)

// Result is the outcome of one run. On failure State is StateFailed,
// Failure holds the step at which the run stopped, and the fields
// computed before that step are populated.
type Result struct {
	RunID    string               `json:"run_id" yaml:"run_id"`
	Product  string               `json:"product" yaml:"product"`
	State    State                `json:"state" yaml:"state"`
	Failure  State                `json:"failed_at,omitempty" yaml:"failed_at,omitempty"`
	Caller   types.Caller         `json:"-" yaml:"-"`
	Resolved types.ResolvedLinks  `json:"resolved" yaml:"resolved"`
	Combined types.CombinedResult `json:"combined" yaml:"combined"`
	View     View                 `json:"-" yaml:"-"`
}

// Pipeline runs product lookups. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	Identity   identity.Provider
	Resolver   *resolve.Resolver
	Dispatcher *Dispatcher
	Config     types.AggregateConfig
	Logger     *slog.Logger
	Tracer     trace.Tracer
}

// Run performs one lookup: identity check, resolution, concurrent
// dispatch, the joined wait, normalization and partitioning. Terminal
// errors are types.ErrUnauthenticated, types.ErrProductNotFound,
// types.ErrNoLinksToFetch and types.ErrEmptyResult, possibly wrapped.
// RunTimeout, when set, bounds the whole run. A source still outstanding at
// the deadline counts as failed.
func (p *Pipeline) Run(ctx context.Context, product string) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Product: product, State: StateIdle}
	log := p.logger().With("run_id", res.RunID, "product", product)

	ctx, span := p.tracer().Start(ctx, "quickpick.lookup", trace.WithAttributes(
		attribute.String("quickpick.run_id", res.RunID),
		attribute.String("quickpick.product", product),
	))
	defer span.End()

	if p.Config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Config.RunTimeout)
		defer cancel()
	}

	fail := func(err error) (*Result, error) {
		res.Failure = res.State
		res.State = StateFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("lookup failed", "at", res.Failure, "err", err)
		return res, err
	}
	advance := func(next State) {
		log.Debug("transition", "from", res.State, "to", next)
		res.State = next
	}

	caller, err := p.Identity.CurrentUser(ctx)
	if err != nil {
		return fail(err)
	}
	res.Caller = caller

	advance(StateResolving)
	resolved, err := p.Resolver.Resolve(ctx, caller, product)
	if err != nil {
		return fail(err)
	}
	res.Resolved = resolved
	advance(StateResolved)

	advance(StateDispatching)
	reqs := BuildRequests(resolved, caller, p.Config)
	span.SetAttributes(attribute.Int("quickpick.source_count", len(reqs)))
	d := p.dispatcher(log)
	pending, err := d.Dispatch(ctx, reqs)
	if err != nil {
		return fail(err)
	}

	advance(StateAwaitingAll)
	advance(StateNormalizing)
	combined, err := Normalize(pending, log)
	combined.Statuses = withSkipped(combined.Statuses)
	res.Combined = combined
	if err != nil {
		return fail(err)
	}

	res.View = Partition(combined.Items)
	advance(StateReady)
	span.SetAttributes(attribute.Int("quickpick.item_count", len(combined.Items)))
	log.Info("lookup ready", "items", len(combined.Items), "groups", len(res.View))
	return res, nil
}

// withSkipped returns a status for every known source in display order,
// marking sources that were not dispatched as skipped.
func withSkipped(dispatched []types.SourceStatus) []types.SourceStatus {
	out := make([]types.SourceStatus, 0, len(types.KnownSources))
	for _, s := range types.KnownSources {
		st := types.SourceStatus{Source: s, State: types.FetchSkipped}
		for _, d := range dispatched {
			if d.Source == s {
				st = d
			}
		}
		out = append(out, st)
	}
	return out
}

// dispatcher returns a copy of p.Dispatcher bound to the run logger.
func (p *Pipeline) dispatcher(log *slog.Logger) *Dispatcher {
	var d Dispatcher
	if p.Dispatcher != nil {
		d = *p.Dispatcher
	}
	if d.Fetcher == nil {
		d.Fetcher = &HTTPFetcher{Client: http.DefaultClient}
	}
	if d.Logger == nil {
		d.Logger = log
	}
	if d.Tracer == nil {
		d.Tracer = p.Tracer
	}
	return &d
}

func (p *Pipeline) tracer() trace.Tracer {
	if p.Tracer != nil {
		return p.Tracer
	}
	return defaultTracer()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// UserMessage returns the single human-readable message that replaces the
// results view when a run fails.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, types.ErrUnauthenticated):
		return "User not logged in."
	case errors.Is(err, types.ErrProductNotFound):
		return "Product not found in the directory."
	case errors.Is(err, types.ErrNoLinksToFetch):
		return "No links to fetch."
	case errors.Is(err, types.ErrEmptyResult):
		return "No results could be retrieved from any store."
	case errors.Is(err, context.DeadlineExceeded):
		return "Lookup timed out."
	default:
		return err.Error()
	}
}
