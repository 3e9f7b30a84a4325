package javasrc

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

var declKinds = map[string]entities.ClassKind{
	"class_declaration":           entities.ClassKindClass,
	"interface_declaration":       entities.ClassKindInterface,
	"enum_declaration":            entities.ClassKindEnum,
	"record_declaration":          entities.ClassKindRecord,
	"annotation_type_declaration": entities.ClassKindAnnotation,
}

// typeDecl is a type declared in the sources. Nested member types use the
// binary name ("Outer$Inner") so that their package stays intact.
type typeDecl struct {
	file      *sourceFile
	node      *sitter.Node
	kind      entities.ClassKind
	simple    string
	name      string
	qualified string
	outer     *typeDecl
	nested    map[string]*typeDecl
	typeVars  map[string]struct{}

	supers     []*typeDecl
	supersDone bool

	// Set by observe.
	class   *entities.ObservedClass
	fields  map[string]entities.TypeRef
	returns map[string]entities.TypeRef
}

func (d *typeDecl) isStatic() bool {
	return hasModifier(d.file, d.node, "static")
}

// index holds every declaration of the program and resolves names.
type index struct {
	logger   *slog.Logger
	decls    []*typeDecl
	types    map[string]*typeDecl
	packages map[string]map[string]*typeDecl
}

func newIndex(logger *slog.Logger) *index {
	return &index{
		logger:   logger,
		types:    make(map[string]*typeDecl),
		packages: make(map[string]map[string]*typeDecl),
	}
}

func (x *index) addFile(f *sourceFile) {
	for _, n := range namedChildren(f.root) {
		x.addDecl(f, n, nil)
	}
}

func (x *index) addDecl(f *sourceFile, n *sitter.Node, outer *typeDecl) {
	kind, ok := declKinds[n.Type()]
	if !ok {
		return
	}
	simple := f.text(n.ChildByFieldName("name"))
	if simple == "" {
		return
	}

	d := &typeDecl{
		file:   f,
		node:   n,
		kind:   kind,
		simple: simple,
		name:   simple,
		outer:  outer,
		nested: make(map[string]*typeDecl),
	}
	if outer != nil {
		d.name = outer.name + "$" + simple
	}
	d.qualified = qualify(f.pkg, d.name)

	if prev, dup := x.types[d.qualified]; dup {
		x.logger.Warn("duplicate type declaration ignored",
			slog.String("type", d.qualified),
			slog.String("path", f.path),
			slog.String("first", prev.file.path))
		return
	}
	x.types[d.qualified] = d
	x.decls = append(x.decls, d)
	if outer == nil {
		if x.packages[f.pkg] == nil {
			x.packages[f.pkg] = make(map[string]*typeDecl)
		}
		x.packages[f.pkg][simple] = d
	} else {
		outer.nested[simple] = d
	}

	d.typeVars = make(map[string]struct{})
	if outer != nil && !d.isStatic() && kind == entities.ClassKindClass {
		for v := range outer.typeVars {
			d.typeVars[v] = struct{}{}
		}
	}
	addTypeParameters(f, n.ChildByFieldName("type_parameters"), d.typeVars)

	for _, m := range memberNodes(n) {
		x.addDecl(f, m, d)
	}
}

// memberNodes returns the member declarations in a type body.
func memberNodes(n *sitter.Node) []*sitter.Node {
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []*sitter.Node
	for _, c := range namedChildren(body) {
		if c.Type() == "enum_body_declarations" {
			out = append(out, namedChildren(c)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

func addTypeParameters(f *sourceFile, params *sitter.Node, into map[string]struct{}) {
	for _, p := range namedChildren(params) {
		if p.Type() != "type_parameter" {
			continue
		}
		for _, c := range namedChildren(p) {
			if c.Type() == "type_identifier" || c.Type() == "identifier" {
				into[f.text(c)] = struct{}{}
				break
			}
		}
	}
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// javaLang lists the java.lang types visible without an import.
var javaLang = map[string]struct{}{
	"Object": {}, "String": {}, "Class": {}, "Enum": {}, "Record": {}, "Void": {},
	"Boolean": {}, "Byte": {}, "Character": {}, "Short": {}, "Integer": {}, "Long": {},
	"Float": {}, "Double": {}, "Number": {}, "Math": {}, "StrictMath": {},
	"CharSequence": {}, "Comparable": {}, "Cloneable": {}, "Iterable": {}, "AutoCloseable": {},
	"Runnable": {}, "Thread": {}, "ThreadLocal": {}, "Runtime": {}, "System": {},
	"Process": {}, "ProcessBuilder": {}, "ProcessHandle": {}, "ClassLoader": {}, "Module": {},
	"StringBuilder": {}, "StringBuffer": {}, "SecurityManager": {}, "StackWalker": {},
	"Throwable": {}, "Exception": {}, "RuntimeException": {}, "Error": {},
	"IllegalArgumentException": {}, "IllegalStateException": {}, "NullPointerException": {},
	"UnsupportedOperationException": {}, "IndexOutOfBoundsException": {},
	"ArithmeticException": {}, "ClassCastException": {}, "InterruptedException": {},
	"CloneNotSupportedException": {}, "ReflectiveOperationException": {},
	"ClassNotFoundException": {}, "NoSuchMethodException": {}, "NoSuchFieldException": {},
	"SecurityException": {}, "AssertionError": {}, "OutOfMemoryError": {},
	"StackOverflowError": {}, "Override": {}, "Deprecated": {}, "SuppressWarnings": {},
	"FunctionalInterface": {}, "SafeVarargs": {},
}

var primitives = map[string]struct{}{
	"boolean": {}, "byte": {}, "char": {}, "short": {}, "int": {},
	"long": {}, "float": {}, "double": {}, "void": {}, "var": {},
}

// scope is the naming context of a declaration or a callable body.
type scope struct {
	x    *index
	file *sourceFile
	decl *typeDecl
	vars map[string]struct{}
}

func (x *index) scopeOf(d *typeDecl) scope {
	return scope{x: x, file: d.file, decl: d}
}

// withTypeParameters returns a scope that also sees the method-level type
// parameters declared on n.
func (s scope) withTypeParameters(n *sitter.Node) scope {
	params := n.ChildByFieldName("type_parameters")
	if params == nil {
		return s
	}
	vars := make(map[string]struct{}, len(s.vars))
	for v := range s.vars {
		vars[v] = struct{}{}
	}
	addTypeParameters(s.file, params, vars)
	s.vars = vars
	return s
}

func (s scope) isTypeVar(name string) bool {
	if _, ok := s.vars[name]; ok {
		return true
	}
	if s.decl != nil {
		_, ok := s.decl.typeVars[name]
		return ok
	}
	return false
}

// resolve turns a source type name into a qualified name. Names that cannot
// be resolved are returned unchanged.
func (s scope) resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if _, ok := primitives[name]; ok || s.isTypeVar(name) {
		return name
	}

	head, rest, dotted := strings.Cut(name, ".")
	if !dotted {
		if q := s.resolveSimple(name); q != "" {
			return q
		}
		return name
	}
	if q := s.resolveSimple(head); q != "" {
		return s.x.nestedPath(q, rest)
	}
	if d, ok := s.x.types[name]; ok {
		return d.qualified
	}
	return s.x.qualifiedNested(name)
}

func (s scope) resolveSimple(name string) string {
	for d := s.decl; d != nil; d = d.outer {
		if d.simple == name {
			return d.qualified
		}
		if n, ok := d.nested[name]; ok {
			return n.qualified
		}
		if n := s.x.inheritedNested(d, name); n != nil {
			return n.qualified
		}
	}
	if q, ok := s.file.imports[name]; ok {
		if d, known := s.x.types[q]; known {
			return d.qualified
		}
		return s.x.qualifiedNested(q)
	}
	if d, ok := s.x.packages[s.file.pkg][name]; ok {
		return d.qualified
	}
	for _, p := range s.file.onDemand {
		if d, ok := s.x.packages[p][name]; ok {
			return d.qualified
		}
		if owner, ok := s.x.types[p]; ok {
			if n, ok := owner.nested[name]; ok {
				return n.qualified
			}
		}
	}
	if _, ok := javaLang[name]; ok {
		return "java.lang." + name
	}
	if len(s.file.onDemand) > 0 && startsUpper(name) {
		return s.file.onDemand[0] + "." + name
	}
	return ""
}

// inheritedNested finds a member type declared on a source superclass or
// superinterface of d.
func (x *index) inheritedNested(d *typeDecl, name string) *typeDecl {
	seen := map[*typeDecl]struct{}{d: {}}
	queue := x.supertypes(d)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		if n, ok := s.nested[name]; ok {
			return n
		}
		queue = append(queue, x.supertypes(s)...)
	}
	return nil
}

// supertypes returns the source declarations d extends or implements.
// Supertype names are resolved in the scope enclosing d, which keeps the
// lookup free of recursion through d's own members.
func (x *index) supertypes(d *typeDecl) []*typeDecl {
	if d.supersDone {
		return d.supers
	}
	outer := scope{x: x, file: d.file, decl: d.outer}
	for _, n := range superTypeNodes(d.node) {
		name := outer.resolveShallow(baseTypeName(d.file, n))
		if s, ok := x.types[name]; ok {
			d.supers = append(d.supers, s)
		}
	}
	d.supersDone = true
	return d.supers
}

// resolveShallow resolves without consulting inherited member types.
func (s scope) resolveShallow(name string) string {
	head, rest, _ := strings.Cut(name, ".")
	for d := s.decl; d != nil; d = d.outer {
		if d.simple == head {
			return s.x.nestedPath(d.qualified, rest)
		}
		if n, ok := d.nested[head]; ok {
			return s.x.nestedPath(n.qualified, rest)
		}
	}
	return scope{x: s.x, file: s.file}.resolve(name)
}

// nestedPath appends dotted member type segments to a resolved type.
func (x *index) nestedPath(base, rest string) string {
	if rest == "" {
		return base
	}
	for _, seg := range strings.Split(rest, ".") {
		d, ok := x.types[base]
		if !ok {
			base = base + "." + seg
			continue
		}
		n, ok := d.nested[seg]
		if !ok {
			base = base + "." + seg
			continue
		}
		base = n.qualified
	}
	return base
}

// qualifiedNested maps a canonical name such as "p.Outer.Inner" onto the
// binary name of a source declaration when one exists.
func (x *index) qualifiedNested(name string) string {
	parts := strings.Split(name, ".")
	for i := len(parts) - 1; i > 0; i-- {
		prefix := strings.Join(parts[:i], ".")
		if _, ok := x.types[prefix]; ok {
			return x.nestedPath(prefix, strings.Join(parts[i:], "."))
		}
	}
	return name
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// superTypeNodes returns the type nodes after "extends" and "implements".
func superTypeNodes(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		out = append(out, typeNodes(sc)...)
	}
	if si := n.ChildByFieldName("interfaces"); si != nil {
		out = append(out, typeNodes(si)...)
	}
	if ei := childOfType(n, "extends_interfaces"); ei != nil {
		out = append(out, typeNodes(ei)...)
	}
	return out
}

// typeNodes flattens type_list wrappers.
func typeNodes(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == "type_list" {
			out = append(out, typeNodes(c)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// baseTypeName returns the type name of a type node without arguments,
// annotations or array dimensions.
func baseTypeName(f *sourceFile, n *sitter.Node) string {
	switch n.Type() {
	case "generic_type":
		for _, c := range namedChildren(n) {
			if c.Type() == "type_identifier" || c.Type() == "scoped_type_identifier" {
				return baseTypeName(f, c)
			}
		}
		return ""
	case "array_type":
		return baseTypeName(f, n.ChildByFieldName("element"))
	case "annotated_type":
		cs := namedChildren(n)
		if len(cs) == 0 {
			return ""
		}
		return baseTypeName(f, cs[len(cs)-1])
	case "scoped_type_identifier":
		var parts []string
		for _, c := range namedChildren(n) {
			if c.Type() == "annotation" || c.Type() == "marker_annotation" {
				continue
			}
			parts = append(parts, baseTypeName(f, c))
		}
		return strings.Join(parts, ".")
	default:
		return f.text(n)
	}
}
