// Package beanmeta aggregates the constraint elements of a type and all of its
// supertypes into one immutable BeanMetaData, and caches it per type in a
// Registry.
package beanmeta

import (
	"sort"

	"github.com/conduit-lang/beanmeta/internal/constraint"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/location"
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

// GroupSequenceProvider computes the default group sequence of a bean from
// its state.
type GroupSequenceProvider interface {
	GroupSequence(bean any) []string
}

// GroupSequenceProviderFunc adapts a function to GroupSequenceProvider.
type GroupSequenceProviderFunc func(bean any) []string

// GroupSequence implements GroupSequenceProvider.
func (f GroupSequenceProviderFunc) GroupSequence(bean any) []string {
	return f(bean)
}

// BeanMetaData is the aggregated, read-only constraint metadata of one type.
// It is safe for concurrent use; accessors return copies.
type BeanMetaData struct {
	beanType       *hierarchy.Type
	constraints    []*constraint.Record
	direct         []*constraint.Record
	elements       map[location.Location]*constraint.Element
	cascaded       []location.Location
	staticSequence []string
	provider       GroupSequenceProvider
	executables    map[string]*ExecutableMetaData
	classHierarchy []*hierarchy.Type
	properties     map[string]bool
}

// BeanType returns the type the metadata describes.
func (b *BeanMetaData) BeanType() *hierarchy.Type {
	return b.beanType
}

// MetaConstraints returns every constraint of the type, including those
// declared on superclasses and interfaces.
func (b *BeanMetaData) MetaConstraints() []*constraint.Record {
	return append([]*constraint.Record(nil), b.constraints...)
}

// DirectMetaConstraints returns the constraints declared on the type itself
// and on the interfaces it implements directly.
func (b *BeanMetaData) DirectMetaConstraints() []*constraint.Record {
	return append([]*constraint.Record(nil), b.direct...)
}

// HasConstraints reports whether anything on the type needs validation.
func (b *BeanMetaData) HasConstraints() bool {
	if len(b.constraints) > 0 || len(b.cascaded) > 0 {
		return true
	}
	for _, e := range b.executables {
		if e.IsConstrained() {
			return true
		}
	}
	return false
}

// ConstraintsAt returns the constraints attached to one location.
func (b *BeanMetaData) ConstraintsAt(loc location.Location) []*constraint.Record {
	e, ok := b.elements[loc]
	if !ok {
		return nil
	}
	return append([]*constraint.Record(nil), e.Constraints...)
}

// CascadedLocations returns every location marked for cascaded validation
// across the hierarchy, in a stable order.
func (b *BeanMetaData) CascadedLocations() []location.Location {
	return append([]location.Location(nil), b.cascaded...)
}

// CascadeAt returns the cascade kind and group conversions of a location.
func (b *BeanMetaData) CascadeAt(loc location.Location) (constraint.Cascade, map[string]string) {
	e, ok := b.elements[loc]
	if !ok {
		return constraint.CascadeNone, nil
	}
	return e.Cascade, copyConversions(e.GroupConversions)
}

// DefaultGroupSequence returns the default group sequence for bean. With a
// provider the sequence is computed from the bean and must contain the bean
// type; otherwise the static redefinition, or the bean type alone, is
// returned.
func (b *BeanMetaData) DefaultGroupSequence(bean any) ([]string, error) {
	if b.provider != nil {
		sequence := b.provider.GroupSequence(bean)
		if !contains(sequence, b.beanType.Name) {
			return nil, metaerr.NewConfigurationError(b.beanType.Name, "",
				"group sequence provider result %v must contain the bean type", sequence)
		}
		return append([]string(nil), sequence...), nil
	}
	if len(b.staticSequence) > 0 {
		return append([]string(nil), b.staticSequence...), nil
	}
	return []string{b.beanType.Name}, nil
}

// DefaultGroupSequenceIsRedefined reports whether the default group sequence
// is anything other than the bean type alone.
func (b *BeanMetaData) DefaultGroupSequenceIsRedefined() bool {
	return b.provider != nil || len(b.staticSequence) > 0
}

// HasGroupSequenceProvider reports whether the sequence is computed per bean.
func (b *BeanMetaData) HasGroupSequenceProvider() bool {
	return b.provider != nil
}

// MetaDataFor returns the aggregated metadata of a method visible on the type.
// Any method of the same override identity resolves to the same metadata.
func (b *BeanMetaData) MetaDataFor(m *hierarchy.Method) (*ExecutableMetaData, bool) {
	if m == nil {
		return nil, false
	}
	return b.MetaDataForSignature(m.Signature())
}

// MetaDataForSignature looks up method metadata by signature, e.g. "find(List)".
func (b *BeanMetaData) MetaDataForSignature(signature string) (*ExecutableMetaData, bool) {
	e, ok := b.executables[signature]
	return e, ok
}

// Executables returns the metadata of every visible method ordered by
// signature.
func (b *BeanMetaData) Executables() []*ExecutableMetaData {
	out := make([]*ExecutableMetaData, 0, len(b.executables))
	for _, e := range b.executables {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature() < out[j].Signature() })
	return out
}

// IsPropertyPresent reports whether a field or accessor named property is
// declared anywhere in the hierarchy.
func (b *BeanMetaData) IsPropertyPresent(property string) bool {
	return b.properties[property]
}

// ClassHierarchy returns the type followed by its superclasses, nearest
// first, excluding the root type.
func (b *BeanMetaData) ClassHierarchy() []*hierarchy.Type {
	return append([]*hierarchy.Type(nil), b.classHierarchy...)
}

// ParameterMetaData is the aggregated view of one method parameter.
type ParameterMetaData struct {
	Index            int
	Type             hierarchy.TypeRef
	Constraints      []*constraint.Record
	Cascade          constraint.Cascade
	GroupConversions map[string]string
}

// IsConstrained reports whether the parameter needs validation.
func (p ParameterMetaData) IsConstrained() bool {
	return len(p.Constraints) > 0 || p.Cascade != constraint.CascadeNone
}

func (p ParameterMetaData) clone() ParameterMetaData {
	p.Constraints = append([]*constraint.Record(nil), p.Constraints...)
	p.GroupConversions = copyConversions(p.GroupConversions)
	return p
}

// ExecutableMetaData is the aggregated view of one method identity: the most
// specific declaration visible on the bean and every method it overrides.
type ExecutableMetaData struct {
	method            *hierarchy.Method
	overridden        []*hierarchy.Method
	returnConstraints []*constraint.Record
	returnCascade     constraint.Cascade
	returnConversions map[string]string
	params            []ParameterMetaData
}

// Method returns the most specific declaration.
func (e *ExecutableMetaData) Method() *hierarchy.Method { return e.method }

// Signature returns the signature shared by the whole override identity.
func (e *ExecutableMetaData) Signature() string { return e.method.Signature() }

// Overridden returns the methods merged into this view besides Method.
func (e *ExecutableMetaData) Overridden() []*hierarchy.Method {
	return append([]*hierarchy.Method(nil), e.overridden...)
}

// ReturnValueConstraints returns the return value constraints of every
// declaration in the identity.
func (e *ExecutableMetaData) ReturnValueConstraints() []*constraint.Record {
	return append([]*constraint.Record(nil), e.returnConstraints...)
}

// ReturnValueCascade returns how the return value is cascaded.
func (e *ExecutableMetaData) ReturnValueCascade() constraint.Cascade {
	return e.returnCascade
}

// ReturnValueGroupConversions returns the group conversions of the return value.
func (e *ExecutableMetaData) ReturnValueGroupConversions() map[string]string {
	return copyConversions(e.returnConversions)
}

// Parameters returns the aggregated parameters in declaration order.
func (e *ExecutableMetaData) Parameters() []ParameterMetaData {
	out := make([]ParameterMetaData, len(e.params))
	for i, p := range e.params {
		out[i] = p.clone()
	}
	return out
}

// IsConstrained reports whether calling the method requires validation.
func (e *ExecutableMetaData) IsConstrained() bool {
	if len(e.returnConstraints) > 0 || e.returnCascade != constraint.CascadeNone {
		return true
	}
	for _, p := range e.params {
		if p.IsConstrained() {
			return true
		}
	}
	return false
}

func copyConversions(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
