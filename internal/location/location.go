// Package location normalizes constraint declaration sites (type, field,
// getter, method return value, method parameter) into one comparable Location
// value used by every downstream component.
package location

import (
	"fmt"

	"github.com/conduit-lang/beanmeta/internal/hierarchy"
)

// Kind tags the attachment point of a constraint.
type Kind int

const (
	KindType Kind = iota
	KindField
	KindGetter
	KindReturn
	KindParameter
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindField:
		return "field"
	case KindGetter:
		return "getter"
	case KindReturn:
		return "return"
	case KindParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// Location identifies exactly one attachment point. It is comparable and can
// be used as a map key.
type Location struct {
	Kind      Kind
	Declaring string            // Qualified name of the declaring type
	Member    string            // Field name or method signature; empty for KindType
	Index     int               // Parameter index; -1 for every other kind
	Type      hierarchy.TypeRef // Type of the value found at this location
}

// ForType returns the class-level location of t.
func ForType(t *hierarchy.Type) Location {
	return Location{
		Kind:      KindType,
		Declaring: t.Name,
		Index:     -1,
		Type:      hierarchy.TypeRef{Name: t.Name},
	}
}

// ForField returns the location of a field.
func ForField(f *hierarchy.Field) Location {
	return Location{
		Kind:      KindField,
		Declaring: declaringName(f.Declaring),
		Member:    f.Name,
		Index:     -1,
		Type:      f.Type,
	}
}

// ForGetter returns the location of a property accessor.
func ForGetter(m *hierarchy.Method) Location {
	return Location{
		Kind:      KindGetter,
		Declaring: declaringName(m.Declaring),
		Member:    m.Signature(),
		Index:     -1,
		Type:      m.Return.Type,
	}
}

// ForReturn returns the location of a method's return value.
func ForReturn(m *hierarchy.Method) Location {
	return Location{
		Kind:      KindReturn,
		Declaring: declaringName(m.Declaring),
		Member:    m.Signature(),
		Index:     -1,
		Type:      m.Return.Type,
	}
}

// ForResult returns the location of the value a method produces: the getter
// location for property accessors, the return location otherwise.
func ForResult(m *hierarchy.Method) Location {
	if _, ok := m.IsGetter(); ok {
		return ForGetter(m)
	}
	return ForReturn(m)
}

// ForParameter returns the location of the parameter at index.
func ForParameter(m *hierarchy.Method, index int) Location {
	return Location{
		Kind:      KindParameter,
		Declaring: declaringName(m.Declaring),
		Member:    m.Signature(),
		Index:     index,
		Type:      m.Params[index].Type,
	}
}

// IsArray reports whether the value at the location is an array.
func (l Location) IsArray() bool {
	return l.Type.Array
}

// IsExecutable reports whether the location belongs to a method: an accessor,
// a return value or a parameter.
func (l Location) IsExecutable() bool {
	return l.Kind == KindGetter || l.Kind == KindReturn || l.Kind == KindParameter
}

// String returns a readable form such as "acme.Person.age" or
// "acme.Person#find(List)[0]".
func (l Location) String() string {
	switch l.Kind {
	case KindType:
		return l.Declaring
	case KindField:
		return l.Declaring + "." + l.Member
	case KindGetter:
		return l.Declaring + "#" + l.Member
	case KindReturn:
		return l.Declaring + "#" + l.Member + "<return>"
	case KindParameter:
		return fmt.Sprintf("%s#%s[%d]", l.Declaring, l.Member, l.Index)
	default:
		return "<unknown>"
	}
}

func declaringName(t *hierarchy.Type) string {
	if t == nil {
		return ""
	}
	return t.Name
}
