package structure

import (
	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// settle records one candidate's flags on res and reports whether the
// candidate is a full match.
func settle(res *entities.MatchResult, observed string, typeOK, modsOK, annsOK bool) bool {
	res.NameFound = true
	res.Observed = observed
	res.TypeCorrect = typeOK
	res.ModifiersCorrect = modsOK
	res.AnnotationsCorrect = annsOK
	return typeOK && modsOK && annsOK
}

// MatchAttributes matches each expected attribute against the fields
// declared directly on the class. It returns nil when the oracle has no
// attributes facet.
func (m *Matcher) MatchAttributes(observed *entities.ObservedClass, expected []entities.ExpectedAttribute) []entities.MatchResult {
	if expected == nil {
		return nil
	}
	owner := observed.Identity
	results := make([]entities.MatchResult, 0, len(expected))
	for _, want := range expected {
		res := entities.MatchResult{Kind: entities.MemberAttribute, Owner: owner, Expected: want.Name}
		wantType, typeParsed := m.parseExpectedType(owner, want.Name, want.Type)

		for _, field := range observed.FieldsNamed(want.Name) {
			typeOK := typeParsed && wantType.Matches(field.Type)
			if settle(&res, field.Name+" "+field.Type.String(), typeOK,
				modifiersMatch(want.Modifiers, field.Modifiers),
				annotationsMatch(want.Annotations, field.Annotations)) {
				break
			}
		}
		results = append(results, res)
	}
	return results
}

// MatchConstructors matches each expected constructor against the declared
// constructors. Constructors share the class name, so the name flag holds
// whenever the class declares any constructor; among several, the first
// full match wins, otherwise the last one examined is reported.
func (m *Matcher) MatchConstructors(observed *entities.ObservedClass, expected []entities.ExpectedConstructor) []entities.MatchResult {
	if expected == nil {
		return nil
	}
	owner := observed.Identity
	results := make([]entities.MatchResult, 0, len(expected))
	for _, want := range expected {
		sig := owner.Name + want.Signature()
		res := entities.MatchResult{Kind: entities.MemberConstructor, Owner: owner, Expected: sig}
		wantParams, paramsParsed := m.parseExpectedTypes(owner, sig, want.Parameters)

		for _, ctor := range observed.Constructors {
			typeOK := paramsParsed && parametersMatch(wantParams, ctor.Parameters)
			if settle(&res, owner.Name+renderParameters(ctor.Parameters), typeOK,
				modifiersMatch(want.Modifiers, ctor.Modifiers),
				annotationsMatch(want.Annotations, ctor.Annotations)) {
				break
			}
		}
		results = append(results, res)
	}
	return results
}

// MatchMethods matches each expected method against the declared methods
// of the same name. Overloads are examined in declaration order; the first
// full match wins, otherwise the last one examined is reported.
func (m *Matcher) MatchMethods(observed *entities.ObservedClass, expected []entities.ExpectedMethod) []entities.MatchResult {
	if expected == nil {
		return nil
	}
	owner := observed.Identity
	results := make([]entities.MatchResult, 0, len(expected))
	for _, want := range expected {
		res := entities.MatchResult{Kind: entities.MemberMethod, Owner: owner, Expected: want.Signature()}

		var wantParams []entities.TypeRef
		paramsParsed := true
		if want.Parameters != nil {
			wantParams, paramsParsed = m.parseExpectedTypes(owner, want.Name, want.Parameters)
		}
		var wantReturn entities.TypeRef
		returnParsed := true
		if want.ReturnType != "" {
			wantReturn, returnParsed = m.parseExpectedType(owner, want.Name, want.ReturnType)
		}

		for _, method := range observed.MethodsNamed(want.Name) {
			typeOK := paramsParsed && returnParsed
			if typeOK && want.Parameters != nil {
				typeOK = parametersMatch(wantParams, method.Parameters)
			}
			if typeOK && want.ReturnType != "" {
				typeOK = wantReturn.Matches(method.ReturnType)
			}
			if settle(&res, method.Name+renderParameters(method.Parameters), typeOK,
				modifiersMatch(want.Modifiers, method.Modifiers),
				annotationsMatch(want.Annotations, method.Annotations)) {
				break
			}
		}
		results = append(results, res)
	}
	return results
}
