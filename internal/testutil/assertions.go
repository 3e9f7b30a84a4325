// Package testutil provides common test utilities and assertions for verifier tests
package testutil

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Flags is the expected value of the four MatchResult reason flags.
type Flags struct {
	Name, Type, Modifiers, Annotations bool
}

// AllTrue and AllFalse are shorthand Flags values.
var (
	AllTrue  = Flags{true, true, true, true}
	AllFalse = Flags{}
)

// AssertFlags asserts the four reason flags of a MatchResult
func AssertFlags(t *testing.T, want Flags, got entities.MatchResult, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, Flags{
		Name:        got.NameFound,
		Type:        got.TypeCorrect,
		Modifiers:   got.ModifiersCorrect,
		Annotations: got.AnnotationsCorrect,
	}, msgAndArgs...)
}

// ViolationKeys renders violations as sorted "root -> target" strings
func ViolationKeys(vs []entities.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Root.FullName() + " -> " + v.Target.FullName()
	}
	sort.Strings(out)
	return out
}

// AssertViolations asserts the set of (root, target) pairs, ignoring order
func AssertViolations(t *testing.T, want []string, got []entities.Violation, msgAndArgs ...interface{}) {
	t.Helper()
	w := append([]string(nil), want...)
	sort.Strings(w)
	if len(w) == 0 {
		assert.Empty(t, got, msgAndArgs...)
		return
	}
	assert.Equal(t, w, ViolationKeys(got), msgAndArgs...)
}

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}
