package constraint

import (
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/location"
)

// AnnotationSource reads the constraint annotations of the hierarchy model.
// Constraints on locations suppressed by a descriptor pass are dropped;
// cascading and group conversions are kept.
type AnnotationSource struct {
	builder        *Builder
	suppressions   *Suppressions
	defaultPackage string
}

var _ Source = (*AnnotationSource)(nil)

// NewAnnotationSource creates a source honoring the given suppressions (may be nil).
func NewAnnotationSource(suppressions *Suppressions, defaultPackage string, opts ...BuilderOption) *AnnotationSource {
	return &AnnotationSource{
		builder:        NewBuilder(OriginAnnotation, nil, opts...),
		suppressions:   suppressions,
		defaultPackage: defaultPackage,
	}
}

// ElementsFor implements Source.
func (s *AnnotationSource) ElementsFor(t *hierarchy.Type) ([]*Element, error) {
	var elements []*Element

	add := func(loc location.Location, slot hierarchy.Slot) error {
		if !slot.IsConstrained() {
			return nil
		}
		member := MemberFromSlot(slot)
		if s.suppressions.IgnoresMember(loc) {
			member.Constraints = nil
		}
		element, err := s.builder.Build(loc, member, s.defaultPackage)
		if err != nil {
			return err
		}
		if element.IsConstrained() || len(element.GroupConversions) > 0 {
			elements = append(elements, element)
		}
		return nil
	}

	if len(t.Constraints) > 0 {
		if err := add(location.ForType(t), hierarchy.Slot{Constraints: t.Constraints}); err != nil {
			return nil, err
		}
	}

	for _, f := range t.Fields {
		if err := add(location.ForField(f), f.Slot); err != nil {
			return nil, err
		}
	}

	for _, m := range t.Methods {
		if m.Static {
			continue
		}
		if m.HasReturnValue() {
			if err := add(location.ForResult(m), m.Return); err != nil {
				return nil, err
			}
		}
		for i, p := range m.Params {
			if err := add(location.ForParameter(m, i), p); err != nil {
				return nil, err
			}
		}
	}

	return elements, nil
}
