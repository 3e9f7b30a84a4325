package policy_test

import (
	"testing"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixMatcher(t *testing.T) {
	m := policy.PrefixMatcher{}

	tests := []struct {
		name     string
		rule     string
		fullName string
		want     bool
	}{
		{"Type family open", "pkg.Type.", "pkg.Type.open", true},
		{"Type family delete", "pkg.Type.", "pkg.Type.delete", true},
		{"Subpackage", "java.net.", "java.net.http.HttpClient.send", true},
		{"Exact entry", "java.lang.System.exit", "java.lang.System.exit", true},
		{"Different type", "pkg.Type.", "pkg.Other.open", false},
		{"Shorter name", "pkg.Type.open", "pkg.Type", false},
		{"Empty rule never matches", "", "pkg.Type.open", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.rule, tt.fullName))
		})
	}
}

func TestExactMatcher(t *testing.T) {
	m := policy.ExactMatcher{}

	assert.True(t, m.Matches("java.lang.System.exit", "java.lang.System.exit"))
	assert.False(t, m.Matches("java.lang.System.", "java.lang.System.exit"))
	assert.False(t, m.Matches("", ""))
}

func TestGlobMatcher(t *testing.T) {
	m := policy.NewGlobMatcher()

	tests := []struct {
		name     string
		rule     string
		fullName string
		want     bool
	}{
		{"Single level", "java.io.*.delete", "java.io.File.delete", true},
		{"Single level does not cross packages", "java.io.*.delete", "java.io.x.File.delete", false},
		{"Package tree", "java.net.**", "java.net.http.HttpClient.send", true},
		{"Parameter list kept whole", "java.lang.Runtime.exec(*)", "java.lang.Runtime.exec(java.lang.String)", true},
		{"Alternatives", "java.lang.{Runtime,ProcessBuilder}.*", "java.lang.ProcessBuilder.start", true},
		{"Invalid pattern never matches", "java.io.[", "java.io.[", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.rule, tt.fullName))
		})
	}
}

func TestNewSignatureMatcher(t *testing.T) {
	for _, strategy := range []string{"", policy.StrategyPrefix, policy.StrategyExact, policy.StrategyGlob} {
		m, err := policy.NewSignatureMatcher(strategy)
		require.NoError(t, err)
		if strategy == "" {
			assert.Equal(t, policy.StrategyPrefix, m.Strategy())
			continue
		}
		assert.Equal(t, strategy, m.Strategy())
	}

	_, err := policy.NewSignatureMatcher("regex")
	assert.Error(t, err)
}

func TestRuleSet_MatchUsesStrategy(t *testing.T) {
	sigs := []string{"java.nio.file.Files.", "java.io.File."}

	prefix := entities.NewRuleSet(entities.CategoryFilesystem, sigs, policy.PrefixMatcher{})
	rule, ok := prefix.Match("java.nio.file.Files.readString")
	require.True(t, ok)
	assert.Equal(t, "java.nio.file.Files.", rule)

	exact := entities.NewRuleSet(entities.CategoryFilesystem, sigs, policy.ExactMatcher{})
	_, ok = exact.Match("java.nio.file.Files.readString")
	assert.False(t, ok)
}

func TestPackageScope_Allows(t *testing.T) {
	scope := policy.NewPackageScope([]string{"core", "java.lang", "com.acme.**", " "})

	assert.True(t, scope.Allows("core"))
	assert.True(t, scope.Allows("java.lang"))
	assert.True(t, scope.Allows("com.acme.util"))
	assert.False(t, scope.Allows("core.util"), "exact entries do not cover subpackages by default")
	assert.False(t, scope.Allows("other"))
	assert.False(t, scope.Allows(""))
	assert.Equal(t, []string{"core", "java.lang"}, scope.Entries())
}

func TestPackageScope_Subpackages(t *testing.T) {
	scope := policy.NewPackageScope([]string{"core"}, policy.WithSubpackages(true))

	assert.True(t, scope.Allows("core"))
	assert.True(t, scope.Allows("core.util.io"))
	assert.False(t, scope.Allows("corex"))
}

func TestPackageScope_Nil(t *testing.T) {
	var scope *policy.PackageScope
	assert.False(t, scope.Allows("core"))
}

func TestCollectingViolationHandler(t *testing.T) {
	h := &policy.CollectingViolationHandler{}
	h.OnViolation(entities.Violation{Category: entities.CategoryNetwork, Rule: "java.net."})
	h.OnDependencyViolation(entities.DependencyViolation{Root: "core.A", Dependency: "other.B", Package: "other"})

	require.Len(t, h.Violations, 1)
	require.Len(t, h.Dependencies, 1)
	assert.Equal(t, "other", h.Dependencies[0].Package)
}
