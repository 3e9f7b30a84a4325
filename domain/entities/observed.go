package entities

// ClassKind distinguishes the flavours of a type declaration.
type ClassKind string

const (
	ClassKindClass      ClassKind = "class"
	ClassKindInterface  ClassKind = "interface"
	ClassKindEnum       ClassKind = "enum"
	ClassKindRecord     ClassKind = "record"
	ClassKindAnnotation ClassKind = "annotation"
)

// Annotation is an annotation as present on an observed entity.
type Annotation struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// ObservedField is a field declared directly on an observed class.
type ObservedField struct {
	Name        string       `json:"name"`
	Type        TypeRef      `json:"type"`
	Modifiers   []string     `json:"modifiers,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// ObservedConstructor is a constructor declared on an observed class.
type ObservedConstructor struct {
	Parameters  []TypeRef    `json:"parameters,omitempty"`
	Modifiers   []string     `json:"modifiers,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// ObservedMethod is a method declared directly on an observed class.
type ObservedMethod struct {
	Name        string       `json:"name"`
	Parameters  []TypeRef    `json:"parameters,omitempty"`
	ReturnType  TypeRef      `json:"returnType"`
	Modifiers   []string     `json:"modifiers,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// ObservedClass is a read-only snapshot of a class in the program under test.
// Members are listed in declaration order; inherited members are absent.
type ObservedClass struct {
	Identity      ClassIdentity         `json:"identity"`
	Kind          ClassKind             `json:"kind"`
	Modifiers     []string              `json:"modifiers,omitempty"`
	Annotations   []Annotation          `json:"annotations,omitempty"`
	Superclass    *TypeRef              `json:"superclass,omitempty"`
	Interfaces    []TypeRef             `json:"interfaces,omitempty"`
	Fields        []ObservedField       `json:"fields,omitempty"`
	Constructors  []ObservedConstructor `json:"constructors,omitempty"`
	Methods       []ObservedMethod      `json:"methods,omitempty"`
	EnumConstants []string              `json:"enumConstants,omitempty"`
}

// IsEnum reports whether the class is a variant-closed enumeration.
func (c *ObservedClass) IsEnum() bool {
	return c != nil && c.Kind == ClassKindEnum
}

// MethodsNamed returns the declared methods with the given name in declaration order.
func (c *ObservedClass) MethodsNamed(name string) []ObservedMethod {
	var out []ObservedMethod
	for _, m := range c.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// FieldsNamed returns the declared fields with the given name.
func (c *ObservedClass) FieldsNamed(name string) []ObservedField {
	var out []ObservedField
	for _, f := range c.Fields {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}
