package javasrc

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// sourceFile is one parsed compilation unit.
type sourceFile struct {
	path    string
	content []byte
	tree    *sitter.Tree
	root    *sitter.Node

	pkg string

	// imports maps simple names to single-type imports.
	imports map[string]string
	// onDemand lists packages or types imported with ".*", in order.
	onDemand []string
	// staticImports maps member names to their owner type.
	staticImports map[string]string
	// staticOnDemand lists types whose static members are all imported.
	staticOnDemand []string
}

func (f *sourceFile) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.content)
}

// readHeader records the package declaration and imports.
func (f *sourceFile) readHeader() {
	f.imports = make(map[string]string)
	f.staticImports = make(map[string]string)

	for _, child := range namedChildren(f.root) {
		switch child.Type() {
		case "package_declaration":
			for _, c := range namedChildren(child) {
				if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
					f.pkg = f.text(c)
				}
			}
		case "import_declaration":
			f.readImport(child)
		}
	}
}

func (f *sourceFile) readImport(n *sitter.Node) {
	var name string
	var static, wildcard bool
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "static":
			static = true
		case "asterisk":
			wildcard = true
		case "scoped_identifier", "identifier":
			name = f.text(c)
		}
	}
	if name == "" {
		return
	}

	switch {
	case static && wildcard:
		f.staticOnDemand = append(f.staticOnDemand, name)
	case static:
		owner, member := splitLast(name)
		f.staticImports[member] = owner
	case wildcard:
		f.onDemand = append(f.onDemand, name)
	default:
		_, simple := splitLast(name)
		f.imports[simple] = name
	}
}

// splitLast splits "a.b.C" into "a.b" and "C".
func splitLast(name string) (string, string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// childOfType returns the first direct child of the given type.
func childOfType(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}
