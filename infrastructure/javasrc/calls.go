package javasrc

import (
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

const (
	initName   = "<init>"
	clinitName = "<clinit>"
)

// knownFields types well-known JDK static fields.
var knownFields = map[string]string{
	"java.lang.System.out": "java.io.PrintStream",
	"java.lang.System.err": "java.io.PrintStream",
	"java.lang.System.in":  "java.io.InputStream",
}

// knownReturns types well-known JDK methods whose result is usually the
// receiver of a further call.
var knownReturns = map[string]string{
	"java.lang.ProcessBuilder.start":         "java.lang.Process",
	"java.lang.Runtime.exec":                 "java.lang.Process",
	"java.lang.Class.forName":                "java.lang.Class",
	"java.lang.Class.getMethod":              "java.lang.reflect.Method",
	"java.lang.Class.getDeclaredMethod":      "java.lang.reflect.Method",
	"java.lang.Class.getField":               "java.lang.reflect.Field",
	"java.lang.Class.getDeclaredField":       "java.lang.reflect.Field",
	"java.lang.Class.getConstructor":         "java.lang.reflect.Constructor",
	"java.lang.Class.getDeclaredConstructor": "java.lang.reflect.Constructor",
	"java.nio.file.Paths.get":                "java.nio.file.Path",
	"java.nio.file.Path.of":                  "java.nio.file.Path",
	"java.nio.file.Path.toFile":              "java.io.File",
	"java.io.File.toPath":                    "java.nio.file.Path",
	"java.net.URL.openConnection":            "java.net.URLConnection",
	"java.net.URL.openStream":                "java.io.InputStream",
	"java.net.Socket.getInputStream":         "java.io.InputStream",
	"java.net.Socket.getOutputStream":        "java.io.OutputStream",
}

// universalReturns types methods every object has.
var universalReturns = map[string]string{
	"getClass": "java.lang.Class",
	"toString": "java.lang.String",
}

// collect adds the callables of d, the calls they make and the types d
// depends on. Every class must have been observed first.
func (x *index) collect(d *typeDecl, calls *entities.CallGraph, deps *entities.DependencyGraph) {
	s := x.scopeOf(d)
	owner := d.qualified
	init := entities.NodeID{Owner: owner, Signature: initName}
	clinit := entities.NodeID{Owner: owner, Signature: clinitName}
	newWalker := func(sc scope, caller entities.NodeID) *walker {
		calls.AddDeclared(caller)
		return &walker{s: sc, caller: caller, calls: calls, deps: deps, locals: make(map[string]entities.TypeRef)}
	}

	x.structuralDependencies(d, deps)
	if d.kind == entities.ClassKindClass || d.kind == entities.ClassKindEnum || d.kind == entities.ClassKindRecord {
		calls.AddDeclared(init)
	}

	for _, m := range memberNodes(d.node) {
		switch m.Type() {
		case "method_declaration", "annotation_type_element_declaration":
			ms := s.withTypeParameters(m)
			for _, b := range ms.typeParameterBounds(m) {
				addTypeDependency(deps, d, b)
			}
			w := newWalker(ms, entities.NodeID{Owner: owner, Signature: d.file.text(m.ChildByFieldName("name"))})
			if body := m.ChildByFieldName("body"); body != nil {
				w.declare(m.ChildByFieldName("parameters"))
				w.declare(body)
				w.walk(body)
			}

		case "constructor_declaration", "compact_constructor_declaration":
			cs := s.withTypeParameters(m)
			for _, b := range cs.typeParameterBounds(m) {
				addTypeDependency(deps, d, b)
			}
			w := newWalker(cs, init)
			w.declare(m.ChildByFieldName("parameters"))
			if body := m.ChildByFieldName("body"); body != nil {
				w.declare(body)
				w.walk(body)
			}

		case "field_declaration", "constant_declaration":
			caller := init
			if d.kind == entities.ClassKindInterface || d.kind == entities.ClassKindAnnotation || hasModifier(d.file, m, "static") {
				caller = clinit
			}
			for _, decl := range namedChildren(m) {
				if decl.Type() != "variable_declarator" {
					continue
				}
				if value := decl.ChildByFieldName("value"); value != nil {
					w := newWalker(s, caller)
					w.declare(value)
					w.walk(value)
				}
			}

		case "static_initializer":
			w := newWalker(s, clinit)
			w.declare(m)
			w.walk(m)

		case "block":
			w := newWalker(s, init)
			w.declare(m)
			w.walk(m)

		case "enum_constant":
			w := newWalker(s, clinit)
			calls.AddEdge(clinit, init)
			w.declare(m)
			w.walk(m)
		}
	}
}

// structuralDependencies records the types named by the declaration of d.
func (x *index) structuralDependencies(d *typeDecl, deps *entities.DependencyGraph) {
	c := d.class
	add := func(t entities.TypeRef) { addTypeDependency(deps, d, t) }
	addAnnotations := func(anns []entities.Annotation) {
		for _, a := range anns {
			add(entities.TypeRef{Name: a.Name})
		}
	}

	if d.outer != nil {
		deps.AddDependency(d.qualified, d.outer.qualified)
	}
	if c.Superclass != nil && d.kind == entities.ClassKindClass {
		add(*c.Superclass)
	}
	for _, b := range x.scopeOf(d).typeParameterBounds(d.node) {
		add(b)
	}
	for _, t := range c.Interfaces {
		add(t)
	}
	addAnnotations(c.Annotations)
	for _, f := range c.Fields {
		add(f.Type)
		addAnnotations(f.Annotations)
	}
	for _, ctor := range c.Constructors {
		for _, p := range ctor.Parameters {
			add(p)
		}
		addAnnotations(ctor.Annotations)
	}
	for _, m := range c.Methods {
		add(m.ReturnType)
		for _, p := range m.Parameters {
			add(p)
		}
		addAnnotations(m.Annotations)
	}
}

// typeParameterBounds resolves the bounds of the type parameters declared
// on n, e.g. Comparable<T> and Serializable in <T extends Comparable<T> & Serializable>.
func (s scope) typeParameterBounds(n *sitter.Node) []entities.TypeRef {
	var out []entities.TypeRef
	for _, p := range namedChildren(n.ChildByFieldName("type_parameters")) {
		if p.Type() != "type_parameter" {
			continue
		}
		for _, c := range namedChildren(p) {
			if c.Type() != "type_bound" {
				continue
			}
			for _, b := range namedChildren(c) {
				out = append(out, s.typeRef(b))
			}
		}
	}
	return out
}

// addTypeDependency records a dependency of d on t and its type arguments.
// Primitives, type variables and unresolved simple names are skipped.
func addTypeDependency(deps *entities.DependencyGraph, d *typeDecl, t entities.TypeRef) {
	if strings.Contains(t.Name, ".") {
		deps.AddDependency(d.qualified, t.Name)
	}
	for _, a := range t.Args {
		addTypeDependency(deps, d, a)
	}
}

// walker records the calls made by one callable body.
type walker struct {
	s      scope
	caller entities.NodeID
	calls  *entities.CallGraph
	deps   *entities.DependencyGraph
	locals map[string]entities.TypeRef
}

func (w *walker) text(n *sitter.Node) string {
	return w.s.file.text(n)
}

func (w *walker) dependOn(t entities.TypeRef) {
	addTypeDependency(w.deps, w.s.decl, t)
}

func (w *walker) edge(owner, name string) {
	w.calls.AddEdge(w.caller, entities.NodeID{Owner: owner, Signature: name})
	w.dependOn(entities.TypeRef{Name: owner})
}

// declare records the local variables and parameters below n in source
// order.
func (w *walker) declare(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "local_variable_declaration":
		base := w.s.typeRef(n.ChildByFieldName("type"))
		for _, decl := range namedChildren(n) {
			if decl.Type() != "variable_declarator" {
				continue
			}
			t := base
			if t.Name == "var" {
				t = entities.TypeRef{Name: w.typeOf(decl.ChildByFieldName("value"))}
			}
			t.Dims += countDims(w.s.file, decl.ChildByFieldName("dimensions"))
			w.local(decl.ChildByFieldName("name"), t)
		}
	case "formal_parameter", "resource", "enhanced_for_statement":
		if typ := n.ChildByFieldName("type"); typ != nil {
			if t := w.s.typeRef(typ); t.Name != "var" {
				w.local(n.ChildByFieldName("name"), t)
			}
		}
	case "spread_parameter":
		for _, c := range namedChildren(n) {
			if c.Type() == "modifiers" || c.Type() == "variable_declarator" {
				continue
			}
			t := w.s.typeRef(c)
			t.Dims++
			if v := childOfType(n, "variable_declarator"); v != nil {
				w.local(v.ChildByFieldName("name"), t)
			}
			break
		}
	case "catch_formal_parameter":
		if ct := childOfType(n, "catch_type"); ct != nil {
			if types := namedChildren(ct); len(types) > 0 {
				w.local(n.ChildByFieldName("name"), w.s.typeRef(types[0]))
			}
		}
	case "instanceof_expression":
		if name := n.ChildByFieldName("name"); name != nil {
			w.local(name, w.s.typeRef(n.ChildByFieldName("right")))
		}
	}
	for _, c := range namedChildren(n) {
		w.declare(c)
	}
}

func (w *walker) local(name *sitter.Node, t entities.TypeRef) {
	if name == nil || t.Name == "" {
		return
	}
	w.locals[w.text(name)] = t
	w.dependOn(t)
}

// walk records the calls below n.
func (w *walker) walk(n *sitter.Node) {
	switch n.Type() {
	case "method_invocation":
		name := w.text(n.ChildByFieldName("name"))
		if owner := w.invocationOwner(n); owner != "" {
			w.edge(owner, name)
		} else {
			w.s.x.logger.Debug("call receiver not resolved",
				slog.String("caller", w.caller.FullName()),
				slog.String("call", w.text(n)),
				slog.Int("line", int(n.StartPoint().Row)+1))
		}
	case "object_creation_expression":
		t := w.s.typeRef(n.ChildByFieldName("type"))
		if t.Name != "" {
			w.edge(t.Name, initName)
			w.dependOn(t)
		}
	case "explicit_constructor_invocation":
		switch ctor := n.ChildByFieldName("constructor"); {
		case ctor == nil:
		case ctor.Type() == "this":
			w.edge(w.s.decl.qualified, initName)
		case ctor.Type() == "super":
			w.edge(w.superOf(w.s.decl), initName)
		}
	case "method_reference":
		w.reference(n)
	case "cast_expression", "instanceof_expression":
		field := "type"
		if n.Type() == "instanceof_expression" {
			field = "right"
		}
		w.dependOn(w.s.typeRef(n.ChildByFieldName(field)))
	}
	for _, c := range namedChildren(n) {
		w.walk(c)
	}
}

func (w *walker) reference(n *sitter.Node) {
	cs := namedChildren(n)
	if len(cs) == 0 {
		return
	}
	recv := cs[0]
	name := initName
	if childOfType(n, "new") == nil {
		last := cs[len(cs)-1]
		if last == recv || last.Type() != "identifier" {
			return
		}
		name = w.text(last)
	}

	var owner string
	switch recv.Type() {
	case "type_identifier", "scoped_type_identifier", "generic_type", "array_type":
		owner = w.s.typeRef(recv).Name
	default:
		owner = w.typeOf(recv)
	}
	if owner != "" {
		w.edge(owner, name)
	}
}

// invocationOwner returns the type a method invocation is dispatched on.
func (w *walker) invocationOwner(n *sitter.Node) string {
	if obj := n.ChildByFieldName("object"); obj != nil {
		return w.typeOf(obj)
	}
	name := w.text(n.ChildByFieldName("name"))
	x := w.s.x
	for d := w.s.decl; d != nil; d = d.outer {
		if x.methodOwner(d, name) != nil {
			return d.qualified
		}
	}
	if owner, ok := w.s.file.staticImports[name]; ok {
		return w.s.resolve(owner)
	}
	for _, t := range w.s.file.staticOnDemand {
		if d, ok := x.types[w.s.resolve(t)]; ok && x.methodOwner(d, name) != nil {
			return d.qualified
		}
	}
	if len(w.s.file.staticOnDemand) > 0 {
		return w.s.resolve(w.s.file.staticOnDemand[0])
	}
	return w.s.decl.qualified
}

// typeOf returns the qualified static type of an expression, or "" when it
// cannot be determined from source.
func (w *walker) typeOf(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	x := w.s.x
	switch n.Type() {
	case "this":
		return w.s.decl.qualified
	case "super":
		return w.superOf(w.s.decl)
	case "identifier", "type_identifier":
		name := w.text(n)
		if t, ok := w.locals[name]; ok {
			return t.Name
		}
		if t, ok := w.fieldType(name); ok {
			return t.Name
		}
		if q := w.s.resolve(name); q != name || startsUpper(name) {
			return q
		}
		return ""
	case "field_access":
		return w.fieldAccessType(n)
	case "method_invocation":
		owner := w.invocationOwner(n)
		name := w.text(n.ChildByFieldName("name"))
		if t, ok := universalReturns[name]; ok {
			return t
		}
		if d, ok := x.types[owner]; ok {
			if t, ok := x.returnType(d, name); ok {
				if w.s.isTypeVar(t.Name) {
					return "java.lang.Object"
				}
				return t.Name
			}
		}
		if t, ok := knownReturns[owner+"."+name]; ok {
			return t
		}
		return owner
	case "object_creation_expression":
		return w.s.typeRef(n.ChildByFieldName("type")).Name
	case "cast_expression":
		return w.s.typeRef(n.ChildByFieldName("type")).Name
	case "parenthesized_expression":
		if cs := namedChildren(n); len(cs) > 0 {
			return w.typeOf(cs[0])
		}
	case "array_access":
		return w.typeOf(n.ChildByFieldName("array"))
	case "string_literal", "text_block":
		return "java.lang.String"
	case "class_literal":
		return "java.lang.Class"
	case "scoped_identifier", "scoped_type_identifier", "generic_type":
		return w.s.typeRef(n).Name
	}
	return ""
}

func (w *walker) fieldAccessType(n *sitter.Node) string {
	x := w.s.x
	field := w.text(n.ChildByFieldName("field"))
	obj := n.ChildByFieldName("object")

	if path, ok := w.packagePath(n); ok {
		return w.s.resolve(path)
	}
	owner := w.typeOf(obj)
	if owner == "" {
		return ""
	}
	if d, ok := x.types[owner]; ok {
		if t, ok := x.fieldOf(d, field); ok {
			return t.Name
		}
		if nested, ok := d.nested[field]; ok {
			return nested.qualified
		}
	}
	if t, ok := knownFields[owner+"."+field]; ok {
		return t
	}
	return ""
}

// packagePath reports whether a field access chain starts with a name that
// is neither a variable nor a type, which makes the whole chain a
// qualified type name such as java.nio.file.Files.
func (w *walker) packagePath(n *sitter.Node) (string, bool) {
	var parts []string
	cur := n
	for cur.Type() == "field_access" {
		parts = append(parts, w.text(cur.ChildByFieldName("field")))
		cur = cur.ChildByFieldName("object")
		if cur == nil {
			return "", false
		}
	}
	if cur.Type() != "identifier" {
		return "", false
	}
	head := w.text(cur)
	if _, ok := w.locals[head]; ok {
		return "", false
	}
	if _, ok := w.fieldType(head); ok {
		return "", false
	}
	if startsUpper(head) {
		return "", false
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return head + "." + strings.Join(parts, "."), true
}

// fieldType looks a field up on the enclosing declarations.
func (w *walker) fieldType(name string) (entities.TypeRef, bool) {
	for d := w.s.decl; d != nil; d = d.outer {
		if t, ok := w.s.x.fieldOf(d, name); ok {
			return t, true
		}
	}
	return entities.TypeRef{}, false
}

func (w *walker) superOf(d *typeDecl) string {
	if d.class != nil && d.class.Superclass != nil {
		return d.class.Superclass.Name
	}
	return "java.lang.Object"
}

// fieldOf finds a field declared on d or a source supertype of d.
func (x *index) fieldOf(d *typeDecl, name string) (entities.TypeRef, bool) {
	var found entities.TypeRef
	ok := x.eachSupertype(d, func(s *typeDecl) bool {
		t, has := s.fields[name]
		if has {
			found = t
		}
		return has
	})
	return found, ok
}

// returnType finds the return type of a method declared on d or a source
// supertype of d.
func (x *index) returnType(d *typeDecl, name string) (entities.TypeRef, bool) {
	var found entities.TypeRef
	ok := x.eachSupertype(d, func(s *typeDecl) bool {
		t, has := s.returns[name]
		if has {
			found = t
		}
		return has
	})
	return found, ok
}

// methodOwner returns the declaration of d's type hierarchy that declares
// a method called name, or nil.
func (x *index) methodOwner(d *typeDecl, name string) *typeDecl {
	var owner *typeDecl
	x.eachSupertype(d, func(s *typeDecl) bool {
		if _, has := s.returns[name]; has {
			owner = s
			return true
		}
		return false
	})
	return owner
}

// eachSupertype visits d and then its source supertypes breadth first
// until visit returns true.
func (x *index) eachSupertype(d *typeDecl, visit func(*typeDecl) bool) bool {
	seen := map[*typeDecl]struct{}{}
	queue := []*typeDecl{d}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		if visit(s) {
			return true
		}
		queue = append(queue, x.supertypes(s)...)
	}
	return false
}
