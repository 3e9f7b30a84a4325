package reachability

import (
	"context"
	"log/slog"
	"sort"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/ports"
)

// CheckDependencies walks the transitive type dependencies of root and
// reports every dependency whose package is not allow-listed. Reported
// dependencies are not expanded. A nil scope allows nothing.
func (c *Checker) CheckDependencies(ctx context.Context, graph *entities.DependencyGraph, root string, allowed ports.PackageScope) ([]entities.DependencyViolation, error) {
	if graph == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parent := map[string]string{}
	visited := map[string]struct{}{root: {}}
	queue := []string{root}

	var out []entities.DependencyViolation
	for len(queue) > 0 {
		typ := queue[0]
		queue = queue[1:]

		for _, dep := range graph.Dependencies(typ) {
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			parent[dep] = typ

			pkg := entities.PackageOf(dep)
			if allowed == nil || !allowed.Allows(pkg) {
				v := entities.DependencyViolation{
					Root:       root,
					Dependency: dep,
					Package:    pkg,
					Path:       walkBack(parent, root, dep),
				}
				c.config.handler.OnDependencyViolation(v)
				out = append(out, v)
				continue
			}
			queue = append(queue, dep)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Dependency < out[j].Dependency
	})
	c.config.logger.Debug("dependency traversal finished",
		slog.String("root", root),
		slog.Int("visited", len(visited)),
		slog.Int("violations", len(out)))
	return out, nil
}

// DependencyRoots returns the sorted, de-duplicated qualified names of the
// given classes.
func DependencyRoots(classes []entities.ClassIdentity) []string {
	seen := make(map[string]struct{}, len(classes))
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		q := c.QualifiedName()
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}
