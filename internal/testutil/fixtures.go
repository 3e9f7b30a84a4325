package testutil

import (
	"strings"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// Node parses "pkg.Type.method" into a NodeID split at the last dot.
func Node(full string) entities.NodeID {
	i := strings.LastIndex(full, ".")
	if i < 0 {
		return entities.NodeID{Signature: full}
	}
	return entities.NodeID{Owner: full[:i], Signature: full[i+1:]}
}

// Graph builds a call graph from "from -> to" edge specs. Every node whose
// owner package starts with one of declaredPrefixes is marked declared.
func Graph(declaredPrefixes []string, edges ...string) *entities.CallGraph {
	g := entities.NewCallGraph()
	declare := func(n entities.NodeID) {
		for _, p := range declaredPrefixes {
			if strings.HasPrefix(n.Owner, p) {
				g.AddDeclared(n)
				return
			}
		}
	}
	for _, e := range edges {
		parts := strings.SplitN(e, "->", 2)
		from, to := Node(strings.TrimSpace(parts[0])), Node(strings.TrimSpace(parts[1]))
		declare(from)
		declare(to)
		g.AddEdge(from, to)
	}
	return g
}

// Type parses a type reference and panics on malformed input.
func Type(s string) entities.TypeRef {
	return entities.MustParseTypeRef(s)
}

// Types parses a list of type references.
func Types(ss ...string) []entities.TypeRef {
	out := make([]entities.TypeRef, len(ss))
	for i, s := range ss {
		out[i] = Type(s)
	}
	return out
}

// PenguinClass returns an observed class used across structural tests.
func PenguinClass() *entities.ObservedClass {
	super := Type("Bird")
	return &entities.ObservedClass{
		Identity:   entities.ClassIdentity{Name: "Penguin", Package: "zoo"},
		Kind:       entities.ClassKindClass,
		Modifiers:  []string{"public", "final"},
		Superclass: &super,
		Interfaces: Types("Swimmer", "java.lang.Comparable<Penguin>"),
		Annotations: []entities.Annotation{
			{Name: "Entity", Arguments: map[string]string{"table": `"penguins"`}},
		},
		Fields: []entities.ObservedField{
			{Name: "name", Type: Type("java.lang.String"), Modifiers: []string{"private", "final"}},
			{Name: "friends", Type: Type("java.util.List<Penguin>"), Modifiers: []string{"private"},
				Annotations: []entities.Annotation{{Name: "Deprecated"}}},
			{Name: "COUNT", Type: Type("int"), Modifiers: []string{"public", "static"}},
		},
		Constructors: []entities.ObservedConstructor{
			{Modifiers: []string{"public"}},
			{Parameters: Types("String"), Modifiers: []string{"public"}},
		},
		Methods: []entities.ObservedMethod{
			{Name: "swim", ReturnType: Type("void"), Modifiers: []string{"public"}},
			{Name: "swim", Parameters: Types("int"), ReturnType: Type("void"), Modifiers: []string{"public"},
				Annotations: []entities.Annotation{{Name: "Override"}}},
			{Name: "getFriends", ReturnType: Type("List<Penguin>"), Modifiers: []string{"public"}},
		},
	}
}

// ColorEnum returns an observed enum with the constants RED and BLUE.
func ColorEnum() *entities.ObservedClass {
	return &entities.ObservedClass{
		Identity:      entities.ClassIdentity{Name: "Color", Package: "paint"},
		Kind:          entities.ClassKindEnum,
		Modifiers:     []string{"public"},
		EnumConstants: []string{"RED", "BLUE"},
	}
}
