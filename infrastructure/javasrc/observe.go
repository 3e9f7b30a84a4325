package javasrc

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// observe builds the class snapshot of d. Implicit members and modifiers
// follow the Java language rules so that the snapshot matches what the
// compiled class exposes.
func (x *index) observe(d *typeDecl) *entities.ObservedClass {
	s := x.scopeOf(d)
	c := &entities.ObservedClass{
		Identity:    entities.ClassIdentity{Name: d.name, Package: d.file.pkg},
		Kind:        d.kind,
		Modifiers:   x.classModifiers(d),
		Annotations: s.annotations(d.node),
	}
	d.fields = make(map[string]entities.TypeRef)
	d.returns = make(map[string]entities.TypeRef)

	switch d.kind {
	case entities.ClassKindClass:
		c.Superclass = &entities.TypeRef{Name: "java.lang.Object"}
		if sc := d.node.ChildByFieldName("superclass"); sc != nil {
			if ts := typeNodes(sc); len(ts) > 0 {
				t := s.typeRef(ts[0])
				c.Superclass = &t
			}
		}
	case entities.ClassKindEnum:
		c.Superclass = &entities.TypeRef{Name: "java.lang.Enum"}
	case entities.ClassKindRecord:
		c.Superclass = &entities.TypeRef{Name: "java.lang.Record"}
	}
	ifaces := d.node.ChildByFieldName("interfaces")
	if ifaces == nil {
		ifaces = childOfType(d.node, "extends_interfaces")
	}
	for _, n := range typeNodes(ifaces) {
		c.Interfaces = append(c.Interfaces, s.typeRef(n))
	}

	var canonical *entities.ObservedConstructor
	accessors := make(map[string]int)
	if d.kind == entities.ClassKindRecord {
		params := s.parameters(d.node.ChildByFieldName("parameters"))
		names := parameterNames(d.file, d.node.ChildByFieldName("parameters"))
		for i, p := range params {
			c.Fields = append(c.Fields, entities.ObservedField{
				Name:      names[i],
				Type:      p,
				Modifiers: []string{"private", "final"},
			})
			d.fields[names[i]] = p
			d.returns[names[i]] = p
			accessors[names[i]] = len(c.Methods)
			c.Methods = append(c.Methods, entities.ObservedMethod{
				Name:       names[i],
				ReturnType: p,
				Modifiers:  []string{"public"},
			})
		}
		canonical = &entities.ObservedConstructor{
			Parameters: params,
			Modifiers:  accessOf(c.Modifiers),
		}
	}

	for _, m := range memberNodes(d.node) {
		switch m.Type() {
		case "enum_constant":
			name := d.file.text(m.ChildByFieldName("name"))
			c.EnumConstants = append(c.EnumConstants, name)
			self := entities.TypeRef{Name: d.qualified}
			c.Fields = append(c.Fields, entities.ObservedField{
				Name:        name,
				Type:        self,
				Modifiers:   []string{"public", "static", "final"},
				Annotations: s.annotations(m),
			})
			d.fields[name] = self

		case "field_declaration", "constant_declaration":
			for _, f := range x.fieldsOf(d, m) {
				c.Fields = append(c.Fields, f)
				d.fields[f.Name] = f.Type
			}

		case "method_declaration", "annotation_type_element_declaration":
			method := x.methodOf(d, m)
			if i, ok := accessors[method.Name]; ok && len(method.Parameters) == 0 {
				c.Methods[i] = method
				continue
			}
			c.Methods = append(c.Methods, method)
			if _, ok := d.returns[method.Name]; !ok {
				d.returns[method.Name] = method.ReturnType
			}

		case "constructor_declaration":
			ms := s.withTypeParameters(m)
			ctor := entities.ObservedConstructor{
				Parameters:  ms.parameters(m.ChildByFieldName("parameters")),
				Modifiers:   modifiers(d.file, m),
				Annotations: s.annotations(m),
			}
			if d.kind == entities.ClassKindEnum && len(accessOf(ctor.Modifiers)) == 0 {
				ctor.Modifiers = append(ctor.Modifiers, "private")
			}
			c.Constructors = append(c.Constructors, ctor)
			if canonical != nil && slices.EqualFunc(ctor.Parameters, canonical.Parameters, entities.TypeRef.Matches) {
				canonical = nil
			}

		case "compact_constructor_declaration":
			if canonical != nil {
				canonical.Modifiers = modifiers(d.file, m)
				canonical.Annotations = s.annotations(m)
				c.Constructors = append(c.Constructors, *canonical)
				canonical = nil
			}
		}
	}

	if canonical != nil {
		c.Constructors = append(c.Constructors, *canonical)
	}
	if len(c.Constructors) == 0 {
		switch d.kind {
		case entities.ClassKindClass:
			c.Constructors = []entities.ObservedConstructor{{Modifiers: accessOf(c.Modifiers)}}
		case entities.ClassKindEnum:
			c.Constructors = []entities.ObservedConstructor{{Modifiers: []string{"private"}}}
		}
	}

	d.class = c
	return c
}

func (x *index) fieldsOf(d *typeDecl, n *sitter.Node) []entities.ObservedField {
	s := x.scopeOf(d)
	base := s.typeRef(n.ChildByFieldName("type"))
	mods := modifiers(d.file, n)
	if d.kind == entities.ClassKindInterface || d.kind == entities.ClassKindAnnotation {
		mods = addModifiers(mods, "public", "static", "final")
	}
	anns := s.annotations(n)

	var out []entities.ObservedField
	for _, decl := range namedChildren(n) {
		if decl.Type() != "variable_declarator" {
			continue
		}
		t := base
		t.Dims += countDims(d.file, decl.ChildByFieldName("dimensions"))
		out = append(out, entities.ObservedField{
			Name:        d.file.text(decl.ChildByFieldName("name")),
			Type:        t,
			Modifiers:   mods,
			Annotations: anns,
		})
	}
	return out
}

func (x *index) methodOf(d *typeDecl, n *sitter.Node) entities.ObservedMethod {
	s := x.scopeOf(d).withTypeParameters(n)
	ret := s.typeRef(n.ChildByFieldName("type"))
	ret.Dims += countDims(d.file, n.ChildByFieldName("dimensions"))

	mods := modifiers(d.file, n)
	if d.kind == entities.ClassKindInterface || d.kind == entities.ClassKindAnnotation {
		isDefault := slices.Contains(mods, "default")
		mods = slices.DeleteFunc(mods, func(m string) bool { return m == "default" })
		if !slices.Contains(mods, "private") {
			mods = addModifiers(mods, "public")
		}
		hasBody := n.ChildByFieldName("body") != nil
		if !hasBody && !isDefault && !slices.Contains(mods, "static") && !slices.Contains(mods, "private") {
			mods = addModifiers(mods, "abstract")
		}
	}

	return entities.ObservedMethod{
		Name:        d.file.text(n.ChildByFieldName("name")),
		Parameters:  s.parameters(n.ChildByFieldName("parameters")),
		ReturnType:  ret,
		Modifiers:   mods,
		Annotations: s.annotations(n),
	}
}

// classModifiers returns the declared modifiers plus the implicit ones of
// the declaration kind.
func (x *index) classModifiers(d *typeDecl) []string {
	mods := modifiers(d.file, d.node)
	nested := d.outer != nil
	if nested && (d.outer.kind == entities.ClassKindInterface || d.outer.kind == entities.ClassKindAnnotation) {
		mods = addModifiers(mods, "public", "static")
	}
	switch d.kind {
	case entities.ClassKindInterface, entities.ClassKindAnnotation:
		mods = addModifiers(mods, "abstract")
		if nested {
			mods = addModifiers(mods, "static")
		}
	case entities.ClassKindEnum:
		if nested {
			mods = addModifiers(mods, "static")
		}
		if !enumHasConstantBodies(d.node) {
			mods = addModifiers(mods, "final")
		}
	case entities.ClassKindRecord:
		mods = addModifiers(mods, "final")
		if nested {
			mods = addModifiers(mods, "static")
		}
	}
	return mods
}

func enumHasConstantBodies(n *sitter.Node) bool {
	for _, m := range memberNodes(n) {
		if m.Type() == "enum_constant" && m.ChildByFieldName("body") != nil {
			return true
		}
	}
	return false
}

// modifiers returns the modifier keywords of a declaration in source order.
func modifiers(f *sourceFile, n *sitter.Node) []string {
	mods := childOfType(n, "modifiers")
	if mods == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(mods.ChildCount()); i++ {
		c := mods.Child(i)
		if c.IsNamed() {
			continue
		}
		if kw := strings.TrimSpace(f.text(c)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func hasModifier(f *sourceFile, n *sitter.Node, keyword string) bool {
	return slices.Contains(modifiers(f, n), keyword)
}

func addModifiers(mods []string, add ...string) []string {
	out := slices.Clone(mods)
	for _, m := range add {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

// accessOf returns the access modifier in mods, if any.
func accessOf(mods []string) []string {
	for _, m := range mods {
		switch m {
		case "public", "protected", "private":
			return []string{m}
		}
	}
	return nil
}

// annotations returns the annotations in the modifiers of n.
func (s scope) annotations(n *sitter.Node) []entities.Annotation {
	var out []entities.Annotation
	for _, c := range namedChildren(childOfType(n, "modifiers")) {
		if c.Type() != "annotation" && c.Type() != "marker_annotation" {
			continue
		}
		a := entities.Annotation{Name: s.resolve(s.file.text(c.ChildByFieldName("name")))}
		for _, arg := range namedChildren(c.ChildByFieldName("arguments")) {
			if a.Arguments == nil {
				a.Arguments = make(map[string]string)
			}
			if arg.Type() == "element_value_pair" {
				a.Arguments[s.file.text(arg.ChildByFieldName("key"))] = s.file.text(arg.ChildByFieldName("value"))
				continue
			}
			a.Arguments["value"] = s.file.text(arg)
		}
		out = append(out, a)
	}
	return out
}

// parameters returns the parameter types of a formal_parameters node.
// Varargs add one array dimension.
func (s scope) parameters(n *sitter.Node) []entities.TypeRef {
	var out []entities.TypeRef
	for _, p := range namedChildren(n) {
		switch p.Type() {
		case "formal_parameter":
			t := s.typeRef(p.ChildByFieldName("type"))
			t.Dims += countDims(s.file, p.ChildByFieldName("dimensions"))
			out = append(out, t)
		case "spread_parameter":
			for _, c := range namedChildren(p) {
				if c.Type() == "modifiers" || c.Type() == "variable_declarator" {
					continue
				}
				t := s.typeRef(c)
				t.Dims++
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// parameterNames returns the parameter names of a formal_parameters node.
func parameterNames(f *sourceFile, n *sitter.Node) []string {
	var out []string
	for _, p := range namedChildren(n) {
		switch p.Type() {
		case "formal_parameter":
			out = append(out, f.text(p.ChildByFieldName("name")))
		case "spread_parameter":
			if v := childOfType(p, "variable_declarator"); v != nil {
				out = append(out, f.text(v.ChildByFieldName("name")))
			}
		}
	}
	return out
}

// typeRef converts a type node into a resolved reference.
func (s scope) typeRef(n *sitter.Node) entities.TypeRef {
	if n == nil {
		return entities.TypeRef{}
	}
	switch n.Type() {
	case "generic_type":
		var t entities.TypeRef
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "type_identifier", "scoped_type_identifier":
				t.Name = s.resolve(baseTypeName(s.file, c))
			case "type_arguments":
				for _, a := range namedChildren(c) {
					if a.Type() == "annotation" || a.Type() == "marker_annotation" {
						continue
					}
					t.Args = append(t.Args, s.typeRef(a))
				}
			}
		}
		return t
	case "array_type":
		t := s.typeRef(n.ChildByFieldName("element"))
		t.Dims += countDims(s.file, n.ChildByFieldName("dimensions"))
		return t
	case "annotated_type":
		cs := namedChildren(n)
		if len(cs) == 0 {
			return entities.TypeRef{}
		}
		return s.typeRef(cs[len(cs)-1])
	case "wildcard":
		t := entities.TypeRef{Wildcard: "?"}
		lower := false
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "super":
				lower = true
			case "annotation", "marker_annotation":
			default:
				bound := s.typeRef(c)
				t.Name, t.Args, t.Dims = bound.Name, bound.Args, bound.Dims
				t.Wildcard = "? extends"
				if lower {
					t.Wildcard = "? super"
				}
			}
		}
		return t
	case "type_identifier", "scoped_type_identifier":
		return entities.TypeRef{Name: s.resolve(baseTypeName(s.file, n))}
	default:
		return entities.TypeRef{Name: s.file.text(n)}
	}
}

func countDims(f *sourceFile, n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return strings.Count(f.text(n), "[")
}
