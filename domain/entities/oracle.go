package entities

import (
	"fmt"
	"strings"
)

// ClassIdentity names a class by its simple name and owning package.
type ClassIdentity struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
}

// QualifiedName returns "package.Name", or just the name for the default package.
func (c ClassIdentity) QualifiedName() string {
	if c.Package == "" {
		return c.Name
	}
	return c.Package + "." + c.Name
}

// String implements fmt.Stringer.
func (c ClassIdentity) String() string {
	return c.QualifiedName()
}

// IdentityFromQualified splits a qualified class name at its last dot.
func IdentityFromQualified(qualified string) ClassIdentity {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return ClassIdentity{Name: qualified[i+1:], Package: qualified[:i]}
	}
	return ClassIdentity{Name: qualified}
}

// ExpectedAnnotation is an annotation the oracle requires on an entity.
// Arguments, when present, must all be found on the observed annotation.
type ExpectedAnnotation struct {
	Name      string            `json:"name" yaml:"name" validate:"required"`
	Arguments map[string]string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// ExpectedClassProperties describes the class itself.
// Every field except the identity is optional; an empty field is not checked.
type ExpectedClassProperties struct {
	Name        string               `json:"name" yaml:"name" validate:"required"`
	Package     string               `json:"package,omitempty" yaml:"package,omitempty"`
	Kind        ClassKind            `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=class interface enum record annotation"`
	Modifiers   []string             `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Superclass  string               `json:"superclass,omitempty" yaml:"superclass,omitempty"`
	Interfaces  []string             `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Annotations []ExpectedAnnotation `json:"annotations,omitempty" yaml:"annotations,omitempty" validate:"omitempty,dive"`
}

// Identity returns the class identity of the properties record.
func (p *ExpectedClassProperties) Identity() ClassIdentity {
	return ClassIdentity{Name: p.Name, Package: p.Package}
}

// ExpectedAttribute describes one expected field.
type ExpectedAttribute struct {
	Name        string               `json:"name" yaml:"name" validate:"required"`
	Type        string               `json:"type" yaml:"type" validate:"required"`
	Modifiers   []string             `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Annotations []ExpectedAnnotation `json:"annotations,omitempty" yaml:"annotations,omitempty" validate:"omitempty,dive"`
}

// ExpectedConstructor describes one expected constructor.
type ExpectedConstructor struct {
	Parameters  []string             `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Modifiers   []string             `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Annotations []ExpectedAnnotation `json:"annotations,omitempty" yaml:"annotations,omitempty" validate:"omitempty,dive"`
}

// Signature renders the constructor as "(T1, T2)".
func (c ExpectedConstructor) Signature() string {
	return "(" + strings.Join(c.Parameters, ", ") + ")"
}

// ExpectedMethod describes one expected method. Methods may be overloaded,
// so Name is not unique within a class.
type ExpectedMethod struct {
	Name        string               `json:"name" yaml:"name" validate:"required"`
	Parameters  []string             `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType  string               `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	Modifiers   []string             `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Annotations []ExpectedAnnotation `json:"annotations,omitempty" yaml:"annotations,omitempty" validate:"omitempty,dive"`
}

// Signature renders the method as "name(T1, T2)".
func (m ExpectedMethod) Signature() string {
	return m.Name + "(" + strings.Join(m.Parameters, ", ") + ")"
}

// ExpectedClass is one record of the oracle document. Presence of a facet
// signals "check this facet"; a nil facet is skipped.
type ExpectedClass struct {
	Class        *ExpectedClassProperties `json:"class,omitempty" yaml:"class,omitempty" jsonschema:"required" validate:"omitempty"`
	Attributes   []ExpectedAttribute      `json:"attributes,omitempty" yaml:"attributes,omitempty" validate:"omitempty,dive"`
	EnumValues   []string                 `json:"enumValues,omitempty" yaml:"enumValues,omitempty"`
	Constructors []ExpectedConstructor    `json:"constructors,omitempty" yaml:"constructors,omitempty" validate:"omitempty,dive"`
	Methods      []ExpectedMethod         `json:"methods,omitempty" yaml:"methods,omitempty" validate:"omitempty,dive"`
}

// Identity returns the identity of the expected class, or the zero value
// when the record has no class sub-record.
func (e *ExpectedClass) Identity() ClassIdentity {
	if e.Class == nil {
		return ClassIdentity{}
	}
	return e.Class.Identity()
}

// HasFacets reports whether the record asks for at least one check. A
// class sub-record naming a class is a facet of its own: the class must
// exist.
func (e *ExpectedClass) HasFacets() bool {
	return e.ChecksClass() ||
		e.Attributes != nil ||
		e.EnumValues != nil ||
		e.Constructors != nil ||
		e.Methods != nil
}

// ChecksClass reports whether the class-level facet should be matched.
// An identity-only sub-record is an existence check whose unspecified
// parts hold trivially.
func (e *ExpectedClass) ChecksClass() bool {
	return e.Class != nil && strings.TrimSpace(e.Class.Name) != ""
}

// Oracle is an in-memory oracle document.
type Oracle struct {
	Classes []ExpectedClass `json:"classes" yaml:"classes" validate:"dive"`
}

// Validate enforces the document invariants: every record names a class
// and no identity appears twice.
func (o *Oracle) Validate() error {
	seen := make(map[string]int, len(o.Classes))
	for i := range o.Classes {
		c := &o.Classes[i]
		if c.Class == nil || c.Class.Name == "" {
			return fmt.Errorf("record %d has no class identity", i)
		}
		key := c.Identity().QualifiedName()
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("class %s declared twice (records %d and %d)", key, prev, i)
		}
		seen[key] = i
	}
	return nil
}

// HasFacets reports whether any record asks for any check.
func (o *Oracle) HasFacets() bool {
	if o == nil {
		return false
	}
	for i := range o.Classes {
		if o.Classes[i].HasFacets() {
			return true
		}
	}
	return false
}
