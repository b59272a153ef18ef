// Package constraint builds the normalized constraint records that the
// aggregator combines into bean metadata.
//
// A Record is one constraint (predicate, groups, payload) bound to exactly one
// location. An Element groups all records of one location together with the
// cascading and group-conversion settings of that location. Elements come from
// a Source: the annotation source reads the hierarchy model, the mapping
// package produces elements from external descriptors.
package constraint

import (
	"sort"
	"strings"

	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/location"
)

// DefaultGroup is the group every constraint belongs to when no group is given.
const DefaultGroup = "Default"

// Origin identifies the front-end that supplied a declaration.
type Origin int

const (
	OriginAnnotation Origin = iota
	OriginMapping
)

// String returns the string representation of the origin
func (o Origin) String() string {
	switch o {
	case OriginAnnotation:
		return "annotation"
	case OriginMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Cascade describes how the runtime validator descends into a location.
type Cascade int

const (
	// CascadeNone means the value is not validated recursively.
	CascadeNone Cascade = iota
	// CascadeObject means the value itself is validated as a bean.
	CascadeObject
	// CascadeArrayElement means every element of the array is validated as a bean.
	CascadeArrayElement
)

// String returns the string representation of the cascade kind
func (c Cascade) String() string {
	switch c {
	case CascadeNone:
		return "none"
	case CascadeObject:
		return "object"
	case CascadeArrayElement:
		return "array-element"
	default:
		return "unknown"
	}
}

// Record is an immutable constraint bound to one location.
type Record struct {
	location   location.Location
	predicate  string
	groups     []string
	payload    []string
	message    string
	attributes map[string]string
	origin     Origin
}

// Location returns the attachment point of the constraint.
func (r *Record) Location() location.Location { return r.location }

// Predicate returns the qualified identifier of the constraint predicate.
func (r *Record) Predicate() string { return r.predicate }

// Message returns the message template, if any.
func (r *Record) Message() string { return r.message }

// Origin returns the front-end the record was built from.
func (r *Record) Origin() Origin { return r.origin }

// Groups returns the groups the constraint belongs to.
func (r *Record) Groups() []string {
	return append([]string(nil), r.groups...)
}

// Payload returns the payload identifiers of the constraint.
func (r *Record) Payload() []string {
	return append([]string(nil), r.payload...)
}

// Attributes returns a copy of the constraint attributes.
func (r *Record) Attributes() map[string]string {
	out := make(map[string]string, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = v
	}
	return out
}

// InGroup reports whether the constraint belongs to group.
func (r *Record) InGroup(group string) bool {
	for _, g := range r.groups {
		if g == group {
			return true
		}
	}
	return false
}

// String returns a compact form such as "NotNull@acme.Person.name".
func (r *Record) String() string {
	return r.predicate + "@" + r.location.String()
}

// Element is everything configured for one location.
type Element struct {
	Origin           Origin
	Location         location.Location
	Constraints      []*Record
	Cascade          Cascade
	GroupConversions map[string]string // from -> to
}

// IsCascading reports whether the runtime validator descends into the location.
func (e *Element) IsCascading() bool {
	return e.Cascade != CascadeNone
}

// IsConstrained reports whether the element carries anything to validate.
func (e *Element) IsConstrained() bool {
	return len(e.Constraints) > 0 || e.IsCascading()
}

// Source supplies the elements declared on one type.
type Source interface {
	ElementsFor(t *hierarchy.Type) ([]*Element, error)
}

// Qualify resolves an unqualified class name relative to defaultPackage.
// Names that already contain a package, and the default group, are returned
// unchanged.
func Qualify(name, defaultPackage string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == DefaultGroup || defaultPackage == "" || strings.Contains(name, ".") {
		return name
	}
	return defaultPackage + "." + name
}

// SortRecords orders records by location and predicate for stable output.
func SortRecords(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		li, lj := records[i].location.String(), records[j].location.String()
		if li != lj {
			return li < lj
		}
		return records[i].predicate < records[j].predicate
	})
}
