// Package hierarchy models the reflective view of a class hierarchy: types,
// their declared fields and methods, and the constraint annotations attached to
// each declaration slot.
//
// # Overview
//
// The model is language neutral. A Type is either a class (single superclass,
// any number of interfaces) or an interface (super-interfaces only). Every class
// chain ends in one universal root type whose members are never inspected.
//
// The Hierarchy interface is the capability the rest of the module depends on;
// Graph is the static, precomputed implementation loaded from a model file:
//
//	g, err := hierarchy.LoadFile("model.yaml")
//	if err != nil {
//		return err
//	}
//	sub, _ := g.Lookup("com.acme.Sub")
//	for _, m := range sub.Methods {
//		overridden := hierarchy.OverriddenMethods(g, m)
//		...
//	}
package hierarchy

import (
	"fmt"
	"sort"
	"strings"
)

// VoidType is the return type name of methods without a return value.
const VoidType = "void"

// TypeRef references a declared type by its erased name.
type TypeRef struct {
	Name  string
	Array bool
}

// ParseTypeRef parses a declared type such as "String", "int[]" or
// "List<String>". Generic arguments are erased.
func ParseTypeRef(s string) TypeRef {
	s = strings.TrimSpace(s)
	ref := TypeRef{}
	if strings.HasSuffix(s, "[]") {
		ref.Array = true
		s = strings.TrimSuffix(s, "[]")
		// int[][] is still an array of arrays; the element shape does not matter here
		s = strings.TrimRight(s, "[]")
	}
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	ref.Name = strings.TrimSpace(s)
	return ref
}

// String returns the declared form of the reference.
func (r TypeRef) String() string {
	if r.Array {
		return r.Name + "[]"
	}
	return r.Name
}

// IsVoid reports whether the reference denotes the absence of a value.
func (r TypeRef) IsVoid() bool {
	return r.Name == "" || r.Name == VoidType
}

// Annotation is a raw constraint declaration as produced by a front-end.
type Annotation struct {
	Name       string            `yaml:"name"`
	Groups     []string          `yaml:"groups,omitempty"`
	Payload    []string          `yaml:"payload,omitempty"`
	Message    string            `yaml:"message,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// Conversion is a raw group conversion declaration (from -> to).
type Conversion struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Slot is one declaration point that can carry constraints: a field, a method
// parameter or a method return value.
type Slot struct {
	Type          TypeRef      `yaml:"type"`
	Valid         bool         `yaml:"valid,omitempty"`
	Constraints   []Annotation `yaml:"constraints,omitempty"`
	ConvertGroups []Conversion `yaml:"convert_groups,omitempty"`
}

// HasConstraints reports whether the slot declares at least one constraint.
func (s Slot) HasConstraints() bool {
	return len(s.Constraints) > 0
}

// IsConstrained reports whether the slot carries anything constraint-relevant.
func (s Slot) IsConstrained() bool {
	return len(s.Constraints) > 0 || s.Valid || len(s.ConvertGroups) > 0
}

// Field is a field declared on a type.
type Field struct {
	Name string `yaml:"name"`
	Slot `yaml:",inline"`

	Declaring *Type `yaml:"-"`
}

// Method is a method declared on a type.
type Method struct {
	Name    string `yaml:"name"`
	Params  []Slot `yaml:"params,omitempty"`
	Return  Slot   `yaml:"returns,omitempty"`
	Static  bool   `yaml:"static,omitempty"`
	Private bool   `yaml:"private,omitempty"`

	Declaring *Type `yaml:"-"`
}

// Signature returns the name and erased parameter types, e.g. "find(List,String[])".
// Two methods can only override each other when their signatures are equal.
func (m *Method) Signature() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type.String()
	}
	return m.Name + "(" + strings.Join(params, ",") + ")"
}

// QualifiedName returns the declaring type name and the signature.
func (m *Method) QualifiedName() string {
	if m.Declaring == nil {
		return m.Signature()
	}
	return m.Declaring.Name + "#" + m.Signature()
}

// String implements fmt.Stringer.
func (m *Method) String() string {
	return m.QualifiedName()
}

// HasReturnValue reports whether the method returns a value.
func (m *Method) HasReturnValue() bool {
	return !m.Return.Type.IsVoid()
}

// Overridable reports whether the method takes part in overriding at all.
func (m *Method) Overridable() bool {
	return !m.Static && !m.Private
}

// IsGetter reports whether the method is a property accessor and returns the
// property name.
func (m *Method) IsGetter() (string, bool) {
	if len(m.Params) != 0 || m.Static || !m.HasReturnValue() {
		return "", false
	}
	for _, prefix := range []string{"get", "is", "has"} {
		if len(m.Name) > len(prefix) && strings.HasPrefix(m.Name, prefix) {
			if prefix != "get" && m.Return.Type.Name != "boolean" && m.Return.Type.Name != "bool" {
				continue
			}
			rest := m.Name[len(prefix):]
			return strings.ToLower(rest[:1]) + rest[1:], true
		}
	}
	return "", false
}

// Type is a class or interface in the hierarchy.
type Type struct {
	Name          string       `yaml:"name"`
	Interface     bool         `yaml:"interface,omitempty"`
	Super         string       `yaml:"super,omitempty"`
	Interfaces    []string     `yaml:"interfaces,omitempty"`
	Constraints   []Annotation `yaml:"constraints,omitempty"`
	GroupSequence []string     `yaml:"group_sequence,omitempty"`
	Fields        []*Field     `yaml:"fields,omitempty"`
	Methods       []*Method    `yaml:"methods,omitempty"`
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// SimpleName returns the name without its package qualifier.
func (t *Type) SimpleName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Field returns the field declared on this type with the given name.
func (t *Type) Field(name string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Method returns the method declared on this type with the given signature.
func (t *Type) Method(signature string) (*Method, bool) {
	for _, m := range t.Methods {
		if m.Signature() == signature {
			return m, true
		}
	}
	return nil, false
}

// MethodsNamed returns all declared overloads with the given name.
func (t *Type) MethodsNamed(name string) []*Method {
	var out []*Method
	for _, m := range t.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Getter returns the declared accessor for a property.
func (t *Type) Getter(property string) (*Method, bool) {
	for _, m := range t.Methods {
		if name, ok := m.IsGetter(); ok && name == property {
			return m, true
		}
	}
	return nil, false
}

// link sets the back references from members to the type and validates
// that no member is declared twice.
func (t *Type) link() error {
	fields := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if fields[f.Name] {
			return fmt.Errorf("field %s declared twice on %s", f.Name, t.Name)
		}
		fields[f.Name] = true
		f.Declaring = t
	}
	sigs := make(map[string]bool, len(t.Methods))
	for _, m := range t.Methods {
		sig := m.Signature()
		if sigs[sig] {
			return fmt.Errorf("method %s declared twice on %s", sig, t.Name)
		}
		sigs[sig] = true
		m.Declaring = t
	}
	return nil
}

// sortTypes orders types by name for deterministic iteration.
func sortTypes(types []*Type) {
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
}
