package entities

// Violation records that a forbidden callable is reachable from a root.
type Violation struct {
	Category Category `json:"category"`

	// Root is the in-scope callable the traversal started from.
	Root NodeID `json:"root"`

	// Target is the forbidden callable that was reached.
	Target NodeID `json:"target"`

	// Rule is the rule-file entry that matched Target.
	Rule string `json:"rule"`

	// Path lists the callables from Root to Target inclusive.
	Path []NodeID `json:"path,omitempty"`
}

// DependencyViolation records a transitive dependency on a type whose
// package is not allow-listed.
type DependencyViolation struct {
	// Root is the qualified name of the checked class.
	Root string `json:"root"`

	// Dependency is the qualified name of the offending type.
	Dependency string `json:"dependency"`

	// Package is the owning package of Dependency.
	Package string `json:"package"`

	// Path lists the types from Root to Dependency inclusive.
	Path []string `json:"path,omitempty"`
}
