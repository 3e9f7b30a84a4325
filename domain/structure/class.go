package structure

import (
	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// MatchClass checks the class-level facet: kind, superclass and interfaces
// form the type flag, followed by class modifiers and class annotations.
// It returns nil when the oracle has no class sub-record. A nil observed
// class yields a result with every flag false.
func (m *Matcher) MatchClass(observed *entities.ObservedClass, expected *entities.ExpectedClassProperties) *entities.MatchResult {
	if expected == nil {
		return nil
	}
	owner := expected.Identity()
	res := &entities.MatchResult{Kind: entities.MemberClass, Owner: owner, Expected: owner.QualifiedName()}
	if observed == nil {
		return res
	}
	settle(res, observed.Identity.QualifiedName(),
		m.hierarchyMatches(observed, expected),
		modifiersMatch(expected.Modifiers, observed.Modifiers),
		annotationsMatch(expected.Annotations, observed.Annotations))
	return res
}

func (m *Matcher) hierarchyMatches(observed *entities.ObservedClass, expected *entities.ExpectedClassProperties) bool {
	if expected.Kind != "" && expected.Kind != observed.Kind {
		return false
	}
	if expected.Superclass != "" {
		want, ok := m.parseExpectedType(expected.Identity(), "superclass", expected.Superclass)
		if !ok || observed.Superclass == nil || !want.Matches(*observed.Superclass) {
			return false
		}
	}
	for _, raw := range expected.Interfaces {
		want, ok := m.parseExpectedType(expected.Identity(), "interface", raw)
		if !ok || !implements(want, observed.Interfaces) {
			return false
		}
	}
	return true
}

func implements(want entities.TypeRef, interfaces []entities.TypeRef) bool {
	for _, i := range interfaces {
		if want.Matches(i) {
			return true
		}
	}
	return false
}

// MatchEnumValues compares expected enum value names against the constants
// of the observed enumeration. It reports only the first missing name (in
// oracle order) and the first unexpected name (in declaration order). It
// returns nil when the oracle has no enum-values facet.
func (m *Matcher) MatchEnumValues(observed *entities.ObservedClass, expected []string) *entities.EnumResult {
	if expected == nil {
		return nil
	}
	res := &entities.EnumResult{Owner: observed.Identity}
	if !observed.IsEnum() {
		return res
	}
	res.IsEnum = true

	observedSet := make(map[string]struct{}, len(observed.EnumConstants))
	for _, c := range observed.EnumConstants {
		observedSet[c] = struct{}{}
	}
	expectedSet := make(map[string]struct{}, len(expected))
	for _, e := range expected {
		expectedSet[e] = struct{}{}
	}

	for _, e := range expected {
		if _, ok := observedSet[e]; !ok {
			res.Missing = e
			break
		}
	}
	for _, c := range observed.EnumConstants {
		if _, ok := expectedSet[c]; !ok {
			res.Unexpected = c
			break
		}
	}
	return res
}
