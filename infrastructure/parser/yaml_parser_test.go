package parser_test

import (
	"testing"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	domainerrors "github.com/reglet-dev/reglet-verify/domain/errors"
	"github.com/reglet-dev/reglet-verify/infrastructure/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYamlOracleParser_Parse(t *testing.T) {
	p := parser.NewYamlOracleParser()

	t.Run("JSON array", func(t *testing.T) {
		doc := `[
		  {"class": {"name": "Penguin", "package": "zoo", "superclass": "Bird", "interfaces": ["Swimmer"]},
		   "attributes": [{"name": "friends", "type": "List<Penguin>",
		                   "annotations": [{"name": "Column", "arguments": {"name": "friends"}}]}],
		   "constructors": [{"parameters": ["String"], "modifiers": ["public"]}],
		   "methods": [{"name": "swim", "parameters": [], "returnType": "void"}]},
		  {"class": {"name": "Color", "kind": "enum"}, "enumValues": ["RED", "GREEN"]}
		]`
		oracle, err := p.Parse([]byte(doc))
		require.NoError(t, err)
		require.Len(t, oracle.Classes, 2)

		penguin := oracle.Classes[0]
		assert.Equal(t, entities.ClassIdentity{Name: "Penguin", Package: "zoo"}, penguin.Identity())
		assert.Equal(t, "Bird", penguin.Class.Superclass)
		require.Len(t, penguin.Attributes, 1)
		assert.Equal(t, "List<Penguin>", penguin.Attributes[0].Type)
		assert.Equal(t, map[string]string{"name": "friends"}, penguin.Attributes[0].Annotations[0].Arguments)
		assert.Equal(t, []string{"String"}, penguin.Constructors[0].Parameters)
		require.Len(t, penguin.Methods, 1)
		assert.NotNil(t, penguin.Methods[0].Parameters, "an explicit empty list is kept")
		assert.Empty(t, penguin.Methods[0].Parameters)
		assert.Nil(t, penguin.EnumValues)

		color := oracle.Classes[1]
		assert.Equal(t, entities.ClassKindEnum, color.Class.Kind)
		assert.Equal(t, []string{"RED", "GREEN"}, color.EnumValues)
	})

	t.Run("YAML mapping", func(t *testing.T) {
		doc := `
classes:
  - class:
      name: Penguin
    methods:
      - name: swim
        modifiers: [public]
`
		oracle, err := p.Parse([]byte(doc))
		require.NoError(t, err)
		require.Len(t, oracle.Classes, 1)
		assert.Nil(t, oracle.Classes[0].Methods[0].Parameters, "absent parameters are not checked")
	})

	t.Run("Empty document", func(t *testing.T) {
		oracle, err := p.Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, oracle.Classes)
		assert.False(t, oracle.HasFacets())
	})

	errorCases := []struct {
		name string
		doc  string
		want string
	}{
		{"Malformed", `[{"class": `, ""},
		{"Scalar", `hello`, "sequence of records"},
		{"Missing attribute type", `[{"class": {"name": "P"}, "attributes": [{"name": "a"}]}]`, `"required"`},
		{"Unknown kind", `[{"class": {"name": "P", "kind": "struct"}}]`, `"oneof"`},
		{"Duplicate class", `[{"class": {"name": "P"}}, {"class": {"name": "P"}}]`, "declared twice"},
		{"Missing class", `[{"enumValues": ["A"]}]`, "no class identity"},
		{"Wrong shape", `[{"class": {"name": ["P"]}}]`, ""},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tc.doc))
			require.Error(t, err)
			var pe *domainerrors.ParseError
			assert.ErrorAs(t, err, &pe)
			if tc.want != "" {
				assert.Contains(t, err.Error(), tc.want)
			}
		})
	}
}
