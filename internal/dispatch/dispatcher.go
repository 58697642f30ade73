package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"datacustody/internal/domain"
	"datacustody/internal/export"
	"datacustody/internal/platform/metrics"
)

var tracer = otel.Tracer("datacustody/dispatch")

// Failure captures one handler's error for a broadcast round. Failures are
// reported alongside the aggregate, never silently absorbed into it.
type Failure struct {
	Domain string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("domain %s: %v", f.Domain, f.Err)
}

// outcome is one handler's raw result within a round, kept at the handler's
// registry index so parallel execution cannot perturb merge order.
type outcome[T any] struct {
	domain string
	value  T
	err    error
}

// Dispatcher broadcasts a named operation to every registered handler,
// isolating each handler's failure from the others and from the caller.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	parallel bool
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithParallel runs handler invocations concurrently. Outcomes are still
// collected first and merged in registry order, so aggregation stays
// deterministic.
func WithParallel() Option {
	return func(d *Dispatcher) { d.parallel = true }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a dispatcher over the given registry.
func New(registry *Registry, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry exposes the registry backing this dispatcher.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// ExportAll invokes the export operation on every domain and merges the
// successful documents, in registry order, into one tree. Failed domains are
// excluded from the merge and returned for the caller to log or surface.
func (d *Dispatcher) ExportAll(ctx context.Context, userID int64) (*export.Document, []Failure) {
	outcomes := broadcast(ctx, d, "export", func(ctx context.Context, h Handler) (*export.Document, error) {
		return h.Export(ctx, userID)
	})

	root := export.NewDocument()
	var failures []Failure
	for _, o := range outcomes {
		if o.err != nil {
			failures = append(failures, Failure{Domain: o.domain, Err: o.err})
			continue
		}
		root.Merge(o.value)
	}
	return root, failures
}

// DeleteAll invokes the delete operation on every domain and aggregates the
// per-domain deletion reports keyed by domain name. Domains that had nothing
// to report are omitted from the map entirely; callers distinguish "nothing
// to report" from "failed" by key absence plus the failure list.
func (d *Dispatcher) DeleteAll(ctx context.Context, userID int64, wipeType domain.WipeType) (map[string]domain.DeletionReport, []Failure) {
	outcomes := broadcast(ctx, d, "delete", func(ctx context.Context, h Handler) (domain.DeletionReport, error) {
		return h.Delete(ctx, userID, wipeType)
	})

	reports := make(map[string]domain.DeletionReport)
	var failures []Failure
	for _, o := range outcomes {
		if o.err != nil {
			failures = append(failures, Failure{Domain: o.domain, Err: o.err})
			continue
		}
		if o.value == nil || o.value.Empty() {
			continue
		}
		reports[o.domain] = o.value
	}
	return reports, failures
}

// BulletpointsAll invokes the bulletpoint preview operation on every domain
// and concatenates the resulting strings in registry order, without
// deduplication.
func (d *Dispatcher) BulletpointsAll(ctx context.Context, userID int64, wipeType domain.WipeType) ([]string, []Failure) {
	outcomes := broadcast(ctx, d, "bulletpoints", func(ctx context.Context, h Handler) ([]string, error) {
		return h.Bulletpoints(ctx, userID, wipeType)
	})

	var lines []string
	var failures []Failure
	for _, o := range outcomes {
		if o.err != nil {
			failures = append(failures, Failure{Domain: o.domain, Err: o.err})
			continue
		}
		lines = append(lines, o.value...)
	}
	return lines, failures
}

// broadcast runs op against every registered handler. Panics and errors from
// one handler never prevent the remaining handlers from running; they are
// captured as failure outcomes at that handler's index.
func broadcast[T any](ctx context.Context, d *Dispatcher, operation string, op func(context.Context, Handler) (T, error)) []outcome[T] {
	handlers := d.registry.Handlers()
	outcomes := make([]outcome[T], len(handlers))

	ctx, span := tracer.Start(ctx, "dispatch.broadcast")
	span.SetAttributes(
		attribute.String("operation", operation),
		attribute.Int("domains", len(handlers)),
	)
	defer span.End()

	invoke := func(i int, h Handler) {
		value, err := safeInvoke(ctx, h, op)
		outcomes[i] = outcome[T]{domain: h.Name(), value: value, err: err}
	}

	if d.parallel {
		var g errgroup.Group
		for i, h := range handlers {
			g.Go(func() error {
				invoke(i, h)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, h := range handlers {
			invoke(i, h)
		}
	}

	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			span.RecordError(o.err)
			d.logger.WarnContext(ctx, "domain handler failed",
				"operation", operation,
				"domain", o.domain,
				"error", o.err,
			)
			if d.metrics != nil {
				d.metrics.IncDomainFailure(operation, o.domain)
			}
		}
	}
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d domains failed", failed, len(handlers)))
	}

	return outcomes
}

// safeInvoke isolates a single handler call, converting panics into errors so
// one misbehaving domain cannot abort the round.
func safeInvoke[T any](ctx context.Context, h Handler, op func(context.Context, Handler) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return op(ctx, h)
}
