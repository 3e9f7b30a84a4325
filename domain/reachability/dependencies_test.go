package reachability_test

import (
	"context"
	"testing"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/policy"
	"github.com/reglet-dev/reglet-verify/domain/reachability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDependencies(t *testing.T) {
	graph := entities.NewDependencyGraph()
	graph.AddDependency("core.A", "core.B")
	graph.AddDependency("core.B", "other.Helper")
	graph.AddDependency("other.Helper", "evil.Thing")
	graph.AddDependency("core.B", "core.A")

	allowed := policy.NewPackageScope([]string{"core"})
	handler := &policy.CollectingViolationHandler{}
	checker := reachability.NewChecker(reachability.WithViolationHandler(handler))

	got, err := checker.CheckDependencies(context.Background(), graph, "core.A", allowed)
	require.NoError(t, err)
	require.Len(t, got, 1, "flagged dependencies are not expanded")
	assert.Equal(t, entities.DependencyViolation{
		Root:       "core.A",
		Dependency: "other.Helper",
		Package:    "other",
		Path:       []string{"core.A", "core.B", "other.Helper"},
	}, got[0])
	assert.Equal(t, got, handler.Dependencies)
}

func TestCheckDependencies_EnumeratesAll(t *testing.T) {
	graph := entities.NewDependencyGraph()
	graph.AddDependency("core.A", "java.util.List")
	graph.AddDependency("core.A", "java.net.Socket")
	graph.AddDependency("core.A", "core.B")
	graph.AddDependency("core.B", "java.io.File")
	graph.AddDependency("core.B", "java.net.Socket")

	allowed := policy.NewPackageScope([]string{"core", "java.util"})
	got, err := reachability.NewChecker().CheckDependencies(context.Background(), graph, "core.A", allowed)
	require.NoError(t, err)

	deps := make([]string, len(got))
	for i, v := range got {
		deps[i] = v.Dependency
	}
	assert.Equal(t, []string{"java.io.File", "java.net.Socket"}, deps)
}

func TestCheckDependencies_GlobScope(t *testing.T) {
	graph := entities.NewDependencyGraph()
	graph.AddDependency("core.A", "core.util.Strings")
	graph.AddDependency("core.util.Strings", "java.lang.String")

	allowed := policy.NewPackageScope([]string{"core.**", "java.lang"})
	got, err := reachability.NewChecker().CheckDependencies(context.Background(), graph, "core.A", allowed)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckDependencies_NilScopeAllowsNothing(t *testing.T) {
	graph := entities.NewDependencyGraph()
	graph.AddDependency("core.A", "core.B")

	got, err := reachability.NewChecker().CheckDependencies(context.Background(), graph, "core.A", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "core.B", got[0].Dependency)
}

func TestDependencyRoots(t *testing.T) {
	roots := reachability.DependencyRoots([]entities.ClassIdentity{
		{Name: "B", Package: "core"},
		{Name: "A", Package: "core"},
		{Name: "B", Package: "core"},
		{Name: "Main"},
	})
	assert.Equal(t, []string{"Main", "core.A", "core.B"}, roots)
}
