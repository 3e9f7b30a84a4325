package structure

import (
	"strings"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// modifiersMatch reports whether the observed modifier set equals the
// expected one. Order, case and blank tokens are ignored. A nil
// expectation is not checked.
func modifiersMatch(expected, observed []string) bool {
	if expected == nil {
		return true
	}
	want := modifierSet(expected)
	got := modifierSet(observed)
	if len(want) != len(got) {
		return false
	}
	for m := range want {
		if _, ok := got[m]; !ok {
			return false
		}
	}
	return true
}

func modifierSet(mods []string) map[string]struct{} {
	set := make(map[string]struct{}, len(mods))
	for _, m := range mods {
		for _, tok := range strings.Fields(m) {
			set[strings.ToLower(tok)] = struct{}{}
		}
	}
	return set
}

// annotationsMatch reports whether every expected annotation is present on
// the observed entity with every specified argument. Extra annotations and
// extra arguments are allowed. A nil expectation is not checked.
func annotationsMatch(expected []entities.ExpectedAnnotation, observed []entities.Annotation) bool {
	for _, want := range expected {
		if !hasAnnotation(want, observed) {
			return false
		}
	}
	return true
}

func hasAnnotation(want entities.ExpectedAnnotation, observed []entities.Annotation) bool {
	name := strings.TrimPrefix(strings.TrimSpace(want.Name), "@")
	for _, got := range observed {
		if !entities.NamesEqual(name, strings.TrimPrefix(got.Name, "@")) {
			continue
		}
		if argumentsMatch(want.Arguments, got.Arguments) {
			return true
		}
	}
	return false
}

func argumentsMatch(want, got map[string]string) bool {
	for k, v := range want {
		gv, ok := got[k]
		if !ok || normalizeValue(gv) != normalizeValue(v) {
			return false
		}
	}
	return true
}

// normalizeValue strips whitespace and one level of string quotes so that
// `"x"` in source compares equal to `x` in the oracle.
func normalizeValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	return v
}

// parametersMatch compares parameter lists position by position.
func parametersMatch(expected, observed []entities.TypeRef) bool {
	if len(expected) != len(observed) {
		return false
	}
	for i := range expected {
		if !expected[i].Matches(observed[i]) {
			return false
		}
	}
	return true
}

// renderParameters formats observed parameter types as "(T1, T2)".
func renderParameters(params []entities.TypeRef) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
