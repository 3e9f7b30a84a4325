package entities

import (
	"fmt"
	"strings"
)

// TypeRef is a resolved, possibly parameterized type reference.
type TypeRef struct {
	// Name is the simple or fully qualified type name ("List", "java.util.List", "int").
	Name string `json:"name"`

	// Args holds generic type arguments in declaration order.
	Args []TypeRef `json:"args,omitempty"`

	// Dims is the number of array dimensions.
	Dims int `json:"dims,omitempty"`

	// Wildcard is "?", "? extends" or "? super" for wildcard arguments.
	// For bounded wildcards Name holds the bound.
	Wildcard string `json:"wildcard,omitempty"`
}

// String renders the reference in source form.
func (t TypeRef) String() string {
	var b strings.Builder
	if t.Wildcard != "" {
		b.WriteString(t.Wildcard)
		if t.Name == "" {
			return b.String()
		}
		b.WriteByte(' ')
	}
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	for i := 0; i < t.Dims; i++ {
		b.WriteString("[]")
	}
	return b.String()
}

// SimpleName returns the last dotted segment of the type name.
func (t TypeRef) SimpleName() string {
	return SimpleName(t.Name)
}

// SimpleName returns the last dotted segment of a possibly qualified name.
func SimpleName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// NamesEqual reports whether two possibly qualified names denote the same
// type: they are identical, or one is unqualified and equals the other's
// simple name. Two different qualified names never match.
func NamesEqual(a, b string) bool {
	if a == b {
		return true
	}
	aq, bq := strings.Contains(a, "."), strings.Contains(b, ".")
	if aq && bq {
		return false
	}
	return SimpleName(a) == SimpleName(b)
}

// Matches reports whether the observed reference o satisfies t used as an
// expectation. A raw expectation (no type arguments) accepts any
// parameterization; otherwise arguments are compared exactly and
// recursively.
func (t TypeRef) Matches(o TypeRef) bool {
	if t.Wildcard != o.Wildcard || t.Dims != o.Dims {
		return false
	}
	if t.Name != "" || o.Name != "" {
		if !NamesEqual(t.Name, o.Name) {
			return false
		}
	}
	if len(t.Args) == 0 {
		return true
	}
	if len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Matches(o.Args[i]) {
			return false
		}
	}
	return true
}

// ParseTypeRef parses a source-form type such as "Map<String, List<Integer>>",
// "int[][]", "String..." or "? extends Number".
func ParseTypeRef(s string) (TypeRef, error) {
	p := &typeParser{src: s}
	t, err := p.parse()
	if err != nil {
		return TypeRef{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeRef{}, fmt.Errorf("unexpected %q at offset %d in type %q", p.src[p.pos:], p.pos, s)
	}
	return t, nil
}

// MustParseTypeRef is like ParseTypeRef but panics on malformed input.
func MustParseTypeRef(s string) TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *typeParser) parse() (TypeRef, error) {
	p.skipSpace()
	var t TypeRef

	if p.peek() == '?' {
		p.pos++
		t.Wildcard = "?"
		p.skipSpace()
		for _, kw := range []string{"extends", "super"} {
			if strings.HasPrefix(p.src[p.pos:], kw+" ") {
				t.Wildcard = "? " + kw
				p.pos += len(kw)
				break
			}
		}
		if t.Wildcard == "?" {
			return t, nil
		}
		p.skipSpace()
	}

	start := p.pos
	for p.pos < len(p.src) && isTypeNameByte(p.src[p.pos]) {
		if strings.HasPrefix(p.src[p.pos:], "...") {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return TypeRef{}, fmt.Errorf("expected type name at offset %d in %q", start, p.src)
	}
	t.Name = p.src[start:p.pos]

	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return TypeRef{}, err
			}
			t.Args = append(t.Args, arg)
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return TypeRef{}, fmt.Errorf("unterminated type arguments in %q", p.src)
			}
			break
		}
	}

	for {
		p.skipSpace()
		if strings.HasPrefix(p.src[p.pos:], "[]") {
			t.Dims++
			p.pos += 2
			continue
		}
		if strings.HasPrefix(p.src[p.pos:], "...") {
			t.Dims++
			p.pos += 3
			continue
		}
		break
	}
	return t, nil
}

func isTypeNameByte(c byte) bool {
	return c == '.' || c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
