package entities

import (
	"sort"
	"strings"
)

// NodeID identifies a callable by its owner type and signature.
type NodeID struct {
	// Owner is the fully qualified name of the declaring type.
	Owner string `json:"owner"`

	// Signature is the callable name, optionally with a parameter list
	// ("readString" or "readString(java.nio.file.Path)").
	Signature string `json:"signature"`
}

// FullName returns "Owner.Signature", the string forbidden rules match against.
func (n NodeID) FullName() string {
	if n.Owner == "" {
		return n.Signature
	}
	return n.Owner + "." + n.Signature
}

// String implements fmt.Stringer.
func (n NodeID) String() string {
	return n.FullName()
}

// Package returns the package of the owner type.
func (n NodeID) Package() string {
	return PackageOf(n.Owner)
}

// PackageOf returns everything before the last dot of a qualified name.
func PackageOf(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[:i]
	}
	return ""
}

// CallGraph is a directed graph of callables. Nodes are either declared in
// the program under test or external (library) targets. Cycles are allowed.
type CallGraph struct {
	declared map[NodeID]struct{}
	edges    map[NodeID][]NodeID
	edgeSet  map[[2]NodeID]struct{}
	nodes    map[NodeID]struct{}
}

// NewCallGraph creates an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		declared: make(map[NodeID]struct{}),
		edges:    make(map[NodeID][]NodeID),
		edgeSet:  make(map[[2]NodeID]struct{}),
		nodes:    make(map[NodeID]struct{}),
	}
}

// AddDeclared registers a callable declared by the program under test.
func (g *CallGraph) AddDeclared(n NodeID) {
	g.nodes[n] = struct{}{}
	g.declared[n] = struct{}{}
}

// AddEdge records that from invokes to. Duplicate edges are ignored.
func (g *CallGraph) AddEdge(from, to NodeID) {
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}
	key := [2]NodeID{from, to}
	if _, ok := g.edgeSet[key]; ok {
		return
	}
	g.edgeSet[key] = struct{}{}
	g.edges[from] = append(g.edges[from], to)
}

// Successors returns the callees of n in insertion order.
// The returned slice must not be modified.
func (g *CallGraph) Successors(n NodeID) []NodeID {
	return g.edges[n]
}

// IsDeclared reports whether n is declared by the program under test.
func (g *CallGraph) IsDeclared(n NodeID) bool {
	_, ok := g.declared[n]
	return ok
}

// Declared returns the declared nodes sorted by full name.
func (g *CallGraph) Declared() []NodeID {
	return sortedNodes(g.declared)
}

// Nodes returns every node sorted by full name.
func (g *CallGraph) Nodes() []NodeID {
	return sortedNodes(g.nodes)
}

// EdgeCount returns the number of distinct edges.
func (g *CallGraph) EdgeCount() int {
	return len(g.edgeSet)
}

func sortedNodes(set map[NodeID]struct{}) []NodeID {
	out := make([]NodeID, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullName() < out[j].FullName()
	})
	return out
}

// DependencyGraph maps qualified type names to the types they depend on.
type DependencyGraph struct {
	deps map[string][]string
	seen map[[2]string]struct{}
}

// NewDependencyGraph creates an empty type-dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		deps: make(map[string][]string),
		seen: make(map[[2]string]struct{}),
	}
}

// AddDependency records that from depends on to. Self and duplicate
// dependencies are ignored.
func (g *DependencyGraph) AddDependency(from, to string) {
	if from == to || to == "" {
		return
	}
	key := [2]string{from, to}
	if _, ok := g.seen[key]; ok {
		return
	}
	g.seen[key] = struct{}{}
	g.deps[from] = append(g.deps[from], to)
}

// Dependencies returns the direct dependencies of a type in insertion order.
// The returned slice must not be modified.
func (g *DependencyGraph) Dependencies(typeName string) []string {
	return g.deps[typeName]
}
