package policy

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/reglet-verify/domain/ports"
)

var _ ports.PackageScope = (*PackageScope)(nil)

// scopeConfig holds configuration for a PackageScope.
type scopeConfig struct {
	subpackages bool // Entries also cover their subpackages
}

// ScopeOption configures a PackageScope.
type ScopeOption func(*scopeConfig)

// WithSubpackages makes every exact entry also allow its subpackages,
// so "core" allows "core.util". Default is false (exact membership).
func WithSubpackages(enabled bool) ScopeOption {
	return func(c *scopeConfig) {
		c.subpackages = enabled
	}
}

// PackageScope is the allow-listed package set. Plain entries match by
// package name; entries containing glob metacharacters are doublestar
// patterns over dot-separated segments ("com.acme.**").
type PackageScope struct {
	config scopeConfig
	exact  map[string]struct{}
	globs  []string
}

// NewPackageScope builds a scope from allow-list entries. Blank entries are
// ignored; invalid glob patterns never match.
func NewPackageScope(entries []string, opts ...ScopeOption) *PackageScope {
	var cfg scopeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &PackageScope{config: cfg, exact: make(map[string]struct{})}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.ContainsAny(e, "*?[{") {
			if p := dotsToSlashes(e); doublestar.ValidatePattern(p) {
				s.globs = append(s.globs, p)
			}
			continue
		}
		s.exact[e] = struct{}{}
	}
	return s
}

// Allows reports whether pkg is allow-listed. A nil scope allows nothing.
func (s *PackageScope) Allows(pkg string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.exact[pkg]; ok {
		return true
	}
	if s.config.subpackages {
		for p := pkg; p != ""; {
			i := strings.LastIndexByte(p, '.')
			if i < 0 {
				break
			}
			p = p[:i]
			if _, ok := s.exact[p]; ok {
				return true
			}
		}
	}
	path := dotsToSlashes(pkg)
	for _, g := range s.globs {
		if matched, _ := doublestar.Match(g, path); matched {
			return true
		}
	}
	return false
}

// Entries returns the plain entries of the scope, sorted.
func (s *PackageScope) Entries() []string {
	out := make([]string, 0, len(s.exact))
	for e := range s.exact {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
