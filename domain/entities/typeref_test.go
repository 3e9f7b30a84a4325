package entities_test

import (
	"testing"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		input string
		want  entities.TypeRef
	}{
		{"int", entities.TypeRef{Name: "int"}},
		{"java.lang.String", entities.TypeRef{Name: "java.lang.String"}},
		{"int[][]", entities.TypeRef{Name: "int", Dims: 2}},
		{"String...", entities.TypeRef{Name: "String", Dims: 1}},
		{"List<String>", entities.TypeRef{Name: "List", Args: []entities.TypeRef{{Name: "String"}}}},
		{"Map<String, List<Integer>>", entities.TypeRef{Name: "Map", Args: []entities.TypeRef{
			{Name: "String"},
			{Name: "List", Args: []entities.TypeRef{{Name: "Integer"}}},
		}}},
		{"List<?>", entities.TypeRef{Name: "List", Args: []entities.TypeRef{{Wildcard: "?"}}}},
		{"List<? extends Number>", entities.TypeRef{Name: "List", Args: []entities.TypeRef{{Wildcard: "? extends", Name: "Number"}}}},
		{"Comparator<? super T>[]", entities.TypeRef{Name: "Comparator", Dims: 1, Args: []entities.TypeRef{{Wildcard: "? super", Name: "T"}}}},
		{"  Outer$Inner  ", entities.TypeRef{Name: "Outer$Inner"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := entities.ParseTypeRef(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTypeRef_Malformed(t *testing.T) {
	for _, input := range []string{"", "List<", "List<String", "Map<String,>", "<T>", "int]", "List<String>>"} {
		t.Run(input, func(t *testing.T) {
			_, err := entities.ParseTypeRef(input)
			assert.Error(t, err)
		})
	}
}

func TestTypeRefString(t *testing.T) {
	for _, s := range []string{"int[]", "Map<String, List<Integer>>", "List<? extends Number>", "List<?>"} {
		assert.Equal(t, s, entities.MustParseTypeRef(s).String())
	}
	assert.Equal(t, "String[]", entities.MustParseTypeRef("String...").String())
}

func TestTypeRefMatches(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		observed string
		want     bool
	}{
		{"Identical", "int", "int", true},
		{"Simple against qualified", "String", "java.lang.String", true},
		{"Qualified against simple", "java.util.List<String>", "List<String>", true},
		{"Different qualified names", "java.util.List", "java.awt.List", false},
		{"Raw accepts parameterized", "List", "List<String>", true},
		{"Parameterized rejects raw", "List<String>", "List", false},
		{"Argument mismatch", "Map<String, Integer>", "Map<String, Long>", false},
		{"Nested match", "Map<String, List<Integer>>", "java.util.Map<java.lang.String, java.util.List<Integer>>", true},
		{"Array dims differ", "int[]", "int", false},
		{"Varargs equals array", "String...", "String[]", true},
		{"Wildcard bound", "List<? extends Number>", "List<? extends java.lang.Number>", true},
		{"Wildcard kind differs", "List<? extends Number>", "List<? super Number>", false},
		{"Unbounded wildcard", "List<?>", "List<?>", true},
		{"Different simple names", "Integer", "Long", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := entities.MustParseTypeRef(tt.expected)
			o := entities.MustParseTypeRef(tt.observed)
			assert.Equal(t, tt.want, e.Matches(o))
		})
	}
}

func TestNamesEqual(t *testing.T) {
	assert.True(t, entities.NamesEqual("Override", "java.lang.Override"))
	assert.True(t, entities.NamesEqual("a.B", "a.B"))
	assert.False(t, entities.NamesEqual("a.B", "c.B"))
	assert.False(t, entities.NamesEqual("B", "C"))
	assert.Equal(t, "Map", entities.SimpleName("java.util.Map"))
}

func FuzzParseTypeRef(f *testing.F) {
	for _, seed := range []string{"int", "List<String>", "Map<K, List<? super V>>[]", "String...", "<", "?"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, input string) {
		ref, err := entities.ParseTypeRef(input)
		if err != nil {
			return
		}
		// A parsed reference renders to a form that parses back to itself.
		again, err := entities.ParseTypeRef(ref.String())
		if err != nil {
			t.Fatalf("rendered form %q of %q does not parse: %v", ref.String(), input, err)
		}
		if !ref.Matches(again) || !again.Matches(ref) {
			t.Fatalf("round trip of %q changed meaning: %q", input, ref.String())
		}
	})
}
