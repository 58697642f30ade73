// Package dispatch defines the contract between the coordinator and the
// independently-failing data-domain handlers, and the broadcast machinery
// that invokes them. Each handler owns one category of personal data and
// implements the export/delete/bulletpoint operations over it.
package dispatch

import (
	"context"
	"fmt"

	"datacustody/internal/domain"
	"datacustody/internal/export"
)

// Handler is implemented once per data-owning domain. All three operations
// may be partially implemented: a domain with nothing to export returns an
// empty (but present) document, never an error.
type Handler interface {
	// Name is the stable machine identifier of the domain, e.g. "loginguard".
	Name() string

	// Export assembles everything this domain knows about the user.
	Export(ctx context.Context, userID int64) (*export.Document, error)

	// Delete removes the domain's records for the user and reports the
	// identifiers of what was deleted. Identifiers only - no personal data.
	Delete(ctx context.Context, userID int64, wipeType domain.WipeType) (domain.DeletionReport, error)

	// Bulletpoints returns human-readable preview strings describing what an
	// erasure of this user would do.
	Bulletpoints(ctx context.Context, userID int64, wipeType domain.WipeType) ([]string, error)
}

// Registry enumerates the currently-active domain handlers. Registration
// order is the broadcast order, which in turn is the deterministic merge
// order of the aggregator; for a fixed registry state every round is
// reproducible.
type Registry struct {
	handlers []Handler
	byName   map[string]Handler
}

// NewRegistry builds a registry from the given handlers, preserving order.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{byName: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a handler. Duplicate domain names are rejected because
// the name keys the deletion-report aggregate.
func (r *Registry) Register(h Handler) error {
	name := h.Name()
	if name == "" {
		return fmt.Errorf("handler has empty name")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.byName[name] = h
	r.handlers = append(r.handlers, h)
	return nil
}

// Handlers returns the registered handlers in registration order.
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// Get looks up a handler by domain name.
func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.byName[name]
	return h, ok
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}
