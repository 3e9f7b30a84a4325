package policy

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// Matching strategies understood by NewSignatureMatcher.
const (
	StrategyPrefix = "prefix"
	StrategyExact  = "exact"
	StrategyGlob   = "glob"
)

// NewSignatureMatcher returns the matcher for a strategy name.
// An empty name selects the prefix strategy.
func NewSignatureMatcher(strategy string) (entities.SignatureMatcher, error) {
	switch strategy {
	case "", StrategyPrefix:
		return PrefixMatcher{}, nil
	case StrategyExact:
		return ExactMatcher{}, nil
	case StrategyGlob:
		return NewGlobMatcher(), nil
	default:
		return nil, fmt.Errorf("unknown signature matching strategy %q", strategy)
	}
}

// PrefixMatcher matches when the callable's full name starts with the rule.
// A rule such as "java.nio.file.Files." covers every member of the type.
type PrefixMatcher struct{}

func (PrefixMatcher) Strategy() string { return StrategyPrefix }

func (PrefixMatcher) Matches(rule, fullName string) bool {
	return rule != "" && strings.HasPrefix(fullName, rule)
}

// ExactMatcher matches only identical full names.
type ExactMatcher struct{}

func (ExactMatcher) Strategy() string { return StrategyExact }

func (ExactMatcher) Matches(rule, fullName string) bool {
	return rule != "" && rule == fullName
}

// GlobMatcher matches doublestar patterns where dots act as path
// separators: "java.io.*.delete" covers one type level, "java.net.**"
// covers a whole package tree. Invalid patterns never match.
type GlobMatcher struct {
	cache sync.Map // key: rule, value: compiledGlob
}

type compiledGlob struct {
	pattern string
	valid   bool
}

// NewGlobMatcher creates a GlobMatcher with an empty pattern cache.
func NewGlobMatcher() *GlobMatcher {
	return &GlobMatcher{}
}

func (m *GlobMatcher) Strategy() string { return StrategyGlob }

func (m *GlobMatcher) Matches(rule, fullName string) bool {
	c := m.compile(rule)
	if !c.valid {
		return false
	}
	matched, _ := doublestar.Match(c.pattern, dotsToSlashes(fullName))
	return matched
}

func (m *GlobMatcher) compile(rule string) compiledGlob {
	if v, ok := m.cache.Load(rule); ok {
		return v.(compiledGlob)
	}
	pattern := dotsToSlashes(rule)
	c := compiledGlob{pattern: pattern, valid: rule != "" && doublestar.ValidatePattern(pattern)}
	m.cache.Store(rule, c)
	return c
}

// dotsToSlashes rewrites a dotted name into a doublestar path. Dots inside
// a parameter list are kept so that "(java.lang.String)" stays one segment.
func dotsToSlashes(s string) string {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return strings.ReplaceAll(s, ".", "/")
	}
	return strings.ReplaceAll(s[:open], ".", "/") + s[open:]
}
