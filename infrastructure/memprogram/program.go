// Package memprogram provides an in-memory observed program: a fixed set of
// class snapshots plus call and type-dependency graphs.
package memprogram

import (
	"context"
	"sort"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/errors"
	"github.com/reglet-dev/reglet-verify/domain/ports"
)

var _ ports.Program = (*Program)(nil)

// programConfig holds configuration for a Program.
type programConfig struct {
	calls *entities.CallGraph
	deps  *entities.DependencyGraph
}

// Option configures a Program.
type Option func(*programConfig)

// WithCallGraph sets the call graph. Default is an empty graph.
func WithCallGraph(g *entities.CallGraph) Option {
	return func(c *programConfig) {
		c.calls = g
	}
}

// WithDependencyGraph sets the type-dependency graph. Default is an empty graph.
func WithDependencyGraph(g *entities.DependencyGraph) Option {
	return func(c *programConfig) {
		c.deps = g
	}
}

// Program is a read-only observed program.
type Program struct {
	byName   map[string]*entities.ObservedClass
	bySimple map[string][]*entities.ObservedClass
	ids      []entities.ClassIdentity
	calls    *entities.CallGraph
	deps     *entities.DependencyGraph
}

// New creates a Program from class snapshots. Later classes with the same
// qualified name replace earlier ones.
func New(classes []*entities.ObservedClass, opts ...Option) *Program {
	var cfg programConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.calls == nil {
		cfg.calls = entities.NewCallGraph()
	}
	if cfg.deps == nil {
		cfg.deps = entities.NewDependencyGraph()
	}

	p := &Program{
		byName:   make(map[string]*entities.ObservedClass, len(classes)),
		bySimple: make(map[string][]*entities.ObservedClass),
		calls:    cfg.calls,
		deps:     cfg.deps,
	}
	for _, c := range classes {
		if c == nil {
			continue
		}
		p.byName[c.Identity.QualifiedName()] = c
	}
	for _, c := range p.byName {
		p.ids = append(p.ids, c.Identity)
		p.bySimple[c.Identity.Name] = append(p.bySimple[c.Identity.Name], c)
	}
	sort.Slice(p.ids, func(i, j int) bool {
		return p.ids[i].QualifiedName() < p.ids[j].QualifiedName()
	})
	return p
}

// ResolveClass looks a class up by qualified name. An identity without a
// package also resolves by simple name when exactly one class has it.
func (p *Program) ResolveClass(ctx context.Context, id entities.ClassIdentity) (*entities.ObservedClass, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c, ok := p.byName[id.QualifiedName()]; ok {
		return c, nil
	}
	if id.Package == "" {
		if cs := p.bySimple[id.Name]; len(cs) == 1 {
			return cs[0], nil
		}
	}
	return nil, &errors.NotFoundError{Identity: id}
}

// Classes returns the identities of every class, sorted by qualified name.
func (p *Program) Classes() []entities.ClassIdentity {
	return append([]entities.ClassIdentity(nil), p.ids...)
}

// CallGraph returns the call graph.
func (p *Program) CallGraph() *entities.CallGraph {
	return p.calls
}

// DependencyGraph returns the type-dependency graph.
func (p *Program) DependencyGraph() *entities.DependencyGraph {
	return p.deps
}
