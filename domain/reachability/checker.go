// Package reachability decides whether forbidden callables are transitively
// reachable from untrusted code, and whether classes transitively depend on
// types outside the allow-listed packages.
//
// Both checks walk their graph breadth-first with an explicit queue and a
// per-root visited set, so cycles terminate and every root and branch is
// enumerated. A node that matches is reported once per root and its branch
// is not expanded further.
package reachability

import (
	"context"
	"log/slog"
	"sort"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/policy"
	"github.com/reglet-dev/reglet-verify/domain/ports"
)

// checkerConfig holds configuration for the Checker.
type checkerConfig struct {
	logger        *slog.Logger
	trusted       ports.PackageScope
	handler       ports.ViolationHandler
	maxPathLength int // 0 keeps full paths
}

func defaultCheckerConfig() checkerConfig {
	return checkerConfig{
		logger:  slog.Default(),
		handler: &policy.NopViolationHandler{},
	}
}

// CheckerOption configures the Checker.
type CheckerOption func(*checkerConfig)

// WithLogger sets the logger for traversal diagnostics.
func WithLogger(l *slog.Logger) CheckerOption {
	return func(c *checkerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTrustedScope stops traversal at nodes whose package is trusted.
// A trusted node can still be reported if it matches a rule.
func WithTrustedScope(scope ports.PackageScope) CheckerOption {
	return func(c *checkerConfig) {
		c.trusted = scope
	}
}

// WithViolationHandler registers a callback invoked for every violation.
func WithViolationHandler(h ports.ViolationHandler) CheckerOption {
	return func(c *checkerConfig) {
		if h != nil {
			c.handler = h
		}
	}
}

// WithMaxPathLength caps the number of nodes kept in a reported path.
// Traversal depth is not affected. Truncated paths keep the root and
// the target.
func WithMaxPathLength(n int) CheckerOption {
	return func(c *checkerConfig) {
		if n >= 0 {
			c.maxPathLength = n
		}
	}
}

// Checker runs reachability checks. It holds no per-call state and is safe
// for concurrent use.
type Checker struct {
	config checkerConfig
}

// NewChecker creates a new Checker.
func NewChecker(opts ...CheckerOption) *Checker {
	cfg := defaultCheckerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Checker{config: cfg}
}

// Check reports every forbidden callable reachable from each root. An edge
// whose target's full name matches the rule set yields a violation and is
// not expanded. Violations are ordered by root, then target.
func (c *Checker) Check(ctx context.Context, graph *entities.CallGraph, roots []entities.NodeID, rules *entities.RuleSet) ([]entities.Violation, error) {
	if graph == nil || rules == nil || rules.Len() == 0 {
		return nil, nil
	}

	var violations []entities.Violation
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := c.checkRoot(graph, root, rules)
		for _, v := range found {
			c.config.handler.OnViolation(v)
		}
		violations = append(violations, found...)
	}

	sort.SliceStable(violations, func(i, j int) bool {
		ri, rj := violations[i].Root.FullName(), violations[j].Root.FullName()
		if ri != rj {
			return ri < rj
		}
		return violations[i].Target.FullName() < violations[j].Target.FullName()
	})
	return violations, nil
}

func (c *Checker) checkRoot(graph *entities.CallGraph, root entities.NodeID, rules *entities.RuleSet) []entities.Violation {
	parent := map[entities.NodeID]entities.NodeID{}
	visited := map[entities.NodeID]struct{}{root: {}}
	reported := map[entities.NodeID]struct{}{}
	queue := []entities.NodeID{root}

	var out []entities.Violation
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, next := range graph.Successors(node) {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			parent[next] = node

			if rule, ok := rules.Match(next.FullName()); ok {
				if _, dup := reported[next]; !dup {
					reported[next] = struct{}{}
					out = append(out, entities.Violation{
						Category: rules.Category(),
						Root:     root,
						Target:   next,
						Rule:     rule,
						Path:     c.trim(walkBack(parent, root, next)),
					})
				}
				continue
			}
			if c.config.trusted != nil && c.config.trusted.Allows(next.Package()) {
				continue
			}
			queue = append(queue, next)
		}
	}

	c.config.logger.Debug("reachability traversal finished",
		slog.String("root", root.FullName()),
		slog.String("category", string(rules.Category())),
		slog.Int("visited", len(visited)),
		slog.Int("violations", len(out)))
	return out
}

// walkBack rebuilds the root-to-target path from the parent map.
func walkBack[T comparable](parent map[T]T, root, target T) []T {
	path := []T{target}
	for n := target; n != root; {
		n = parent[n]
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (c *Checker) trim(path []entities.NodeID) []entities.NodeID {
	limit := c.config.maxPathLength
	if limit <= 0 || len(path) <= limit {
		return path
	}
	if limit == 1 {
		return path[len(path)-1:]
	}
	return append(path[:limit-1:limit-1], path[len(path)-1])
}

// Roots returns the declared callables whose package is outside the
// allow-list, sorted by full name. A nil scope makes every declared
// callable a root.
func Roots(graph *entities.CallGraph, allowed ports.PackageScope) []entities.NodeID {
	if graph == nil {
		return nil
	}
	var roots []entities.NodeID
	for _, n := range graph.Declared() {
		if allowed != nil && allowed.Allows(n.Package()) {
			continue
		}
		roots = append(roots, n)
	}
	return roots
}
