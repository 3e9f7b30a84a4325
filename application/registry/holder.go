package registry

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/ports"
)

var _ ports.RuleRegistry = (*Holder)(nil)

// Holder serves the current registry and swaps in a fresh one on Reload.
// A loaded rule set is never mutated; callers that already hold a set
// keep using it.
type Holder struct {
	current atomic.Pointer[Registry]
	factory func() *Registry
	logger  *slog.Logger
	reloads atomic.Int64
}

// NewHolder creates a holder whose registries come from factory.
func NewHolder(factory func() *Registry, logger *slog.Logger) *Holder {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Holder{factory: factory, logger: logger}
	h.current.Store(factory())
	return h
}

// Load delegates to the current registry.
func (h *Holder) Load(ctx context.Context, category entities.Category) (*entities.RuleSet, error) {
	return h.current.Load().Load(ctx, category)
}

// Current returns the registry currently served.
func (h *Holder) Current() *Registry {
	return h.current.Load()
}

// Reload replaces the current registry with a fresh one. Categories that
// were loaded before are preloaded again; their errors are logged.
func (h *Holder) Reload(ctx context.Context, reason string) {
	prev := h.current.Load()
	next := h.factory()
	if err := next.Preload(ctx, prev.Loaded()...); err != nil {
		h.logger.Warn("rule reload finished with errors",
			slog.String("reason", reason),
			slog.String("error", err.Error()))
	}
	h.current.Store(next)
	n := h.reloads.Add(1)
	h.logger.Info("rule registry reloaded",
		slog.String("reason", reason),
		slog.Int64("generation", n))
}

// Generation returns how many times the registry has been reloaded.
func (h *Holder) Generation() int64 {
	return h.reloads.Load()
}
