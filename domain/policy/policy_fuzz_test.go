package policy_test

import (
	"strings"
	"testing"

	"github.com/reglet-dev/reglet-verify/domain/policy"
)

func FuzzPrefixMatcher(f *testing.F) {
	m := policy.PrefixMatcher{}
	f.Add("java.io.File.", "java.io.File.delete")
	f.Add("pkg.Type.", "pkg.Other.open")
	f.Add("", "")

	f.Fuzz(func(t *testing.T, rule, name string) {
		got := m.Matches(rule, name)
		want := rule != "" && strings.HasPrefix(name, rule)
		if got != want {
			t.Fatalf("Matches(%q, %q) = %v, want %v", rule, name, got, want)
		}
	})
}

func FuzzGlobMatcher(f *testing.F) {
	m := policy.NewGlobMatcher()
	f.Add("java.net.**", "java.net.Socket.connect")
	f.Add("java.io.[", "java.io.File")
	f.Add("{a,b}.*", "a.x")

	f.Fuzz(func(t *testing.T, rule, name string) {
		// We just ensure it doesn't panic
		m.Matches(rule, name)
	})
}

func FuzzPackageScope(f *testing.F) {
	scope := policy.NewPackageScope([]string{"core", "com.acme.**"}, policy.WithSubpackages(true))
	f.Add("core.util")
	f.Add("com.acme")
	f.Add("..")

	f.Fuzz(func(t *testing.T, pkg string) {
		scope.Allows(pkg)
	})
}
