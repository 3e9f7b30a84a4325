package ports

import (
	"context"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// Program is the observed-program resolver. It hands out read-only
// snapshots; callers must not modify what it returns.
type Program interface {
	// ResolveClass returns the observed class for an identity, or a
	// *errors.NotFoundError when the program declares no such class.
	ResolveClass(ctx context.Context, id entities.ClassIdentity) (*entities.ObservedClass, error)

	// Classes lists every class declared by the program.
	Classes() []entities.ClassIdentity

	// CallGraph returns the program's call graph.
	CallGraph() *entities.CallGraph

	// DependencyGraph returns the program's type-dependency graph.
	DependencyGraph() *entities.DependencyGraph
}
