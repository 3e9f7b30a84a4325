package policy

import (
	"log/slog"
	"sync"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/ports"
)

// Ensure implementations satisfy the interface.
var _ ports.ViolationHandler = (*SlogViolationHandler)(nil)
var _ ports.ViolationHandler = (*NopViolationHandler)(nil)
var _ ports.ViolationHandler = (*CollectingViolationHandler)(nil)

// SlogViolationHandler logs violations as structured records.
type SlogViolationHandler struct {
	Logger *slog.Logger
}

func (h *SlogViolationHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *SlogViolationHandler) OnViolation(v entities.Violation) {
	h.logger().Warn("forbidden capability reachable",
		slog.String("category", string(v.Category)),
		slog.String("root", v.Root.FullName()),
		slog.String("target", v.Target.FullName()),
		slog.String("rule", v.Rule),
		slog.Int("depth", len(v.Path)-1))
}

func (h *SlogViolationHandler) OnDependencyViolation(v entities.DependencyViolation) {
	h.logger().Warn("forbidden package dependency",
		slog.String("root", v.Root),
		slog.String("dependency", v.Dependency),
		slog.String("package", v.Package))
}

// NopViolationHandler does nothing.
type NopViolationHandler struct{}

func (h *NopViolationHandler) OnViolation(entities.Violation) {}

func (h *NopViolationHandler) OnDependencyViolation(entities.DependencyViolation) {}

// CollectingViolationHandler records every callback; safe for concurrent use.
type CollectingViolationHandler struct {
	mu           sync.Mutex
	Violations   []entities.Violation
	Dependencies []entities.DependencyViolation
}

func (h *CollectingViolationHandler) OnViolation(v entities.Violation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Violations = append(h.Violations, v)
}

func (h *CollectingViolationHandler) OnDependencyViolation(v entities.DependencyViolation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Dependencies = append(h.Dependencies, v)
}
