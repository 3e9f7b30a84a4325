// Package structure implements the structural matcher: it compares one
// observed class against one oracle record and reports, per expected
// entity, which of name, type, modifiers and annotations are correct.
//
// The matcher holds no mutable state. Running it twice on the same inputs
// yields identical results, and one Matcher may be shared by goroutines.
package structure

import (
	"log/slog"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// matcherConfig holds configuration for the Matcher.
type matcherConfig struct {
	logger *slog.Logger
}

func defaultMatcherConfig() matcherConfig {
	return matcherConfig{
		logger: slog.Default(),
	}
}

// MatcherOption configures the Matcher.
type MatcherOption func(*matcherConfig)

// WithLogger sets the logger used for malformed oracle entries.
func WithLogger(l *slog.Logger) MatcherOption {
	return func(c *matcherConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Matcher compares observed classes against expected class records.
type Matcher struct {
	config matcherConfig
}

// NewMatcher creates a new Matcher.
func NewMatcher(opts ...MatcherOption) *Matcher {
	cfg := defaultMatcherConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Matcher{config: cfg}
}

// MatchRecord runs every facet present in the expected record against the
// observed class and assembles a ClassReport. observed must not be nil;
// resolving the class is the caller's job.
func (m *Matcher) MatchRecord(observed *entities.ObservedClass, expected *entities.ExpectedClass) entities.ClassReport {
	report := entities.ClassReport{
		Identity: expected.Identity(),
		Found:    true,
	}
	if expected.ChecksClass() {
		report.Class = m.MatchClass(observed, expected.Class)
	}
	report.Attributes = m.MatchAttributes(observed, expected.Attributes)
	report.Constructors = m.MatchConstructors(observed, expected.Constructors)
	report.Methods = m.MatchMethods(observed, expected.Methods)
	report.Enum = m.MatchEnumValues(observed, expected.EnumValues)
	return report
}

// parseExpectedType parses an oracle type, logging and reporting failure
// for malformed entries. Malformed expectations never match.
func (m *Matcher) parseExpectedType(owner entities.ClassIdentity, what, raw string) (entities.TypeRef, bool) {
	t, err := entities.ParseTypeRef(raw)
	if err != nil {
		m.config.logger.Warn("malformed type in oracle",
			slog.String("class", owner.QualifiedName()),
			slog.String("entity", what),
			slog.String("type", raw),
			slog.String("error", err.Error()))
		return entities.TypeRef{}, false
	}
	return t, true
}

// parseExpectedTypes parses a parameter list; ok is false if any entry is malformed.
func (m *Matcher) parseExpectedTypes(owner entities.ClassIdentity, what string, raw []string) ([]entities.TypeRef, bool) {
	out := make([]entities.TypeRef, 0, len(raw))
	ok := true
	for _, r := range raw {
		t, good := m.parseExpectedType(owner, what, r)
		ok = ok && good
		out = append(out, t)
	}
	return out, ok
}
