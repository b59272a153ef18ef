package mapping

import (
	"github.com/google/uuid"

	"github.com/conduit-lang/beanmeta/internal/constraint"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
)

// Result is the immutable outcome of one descriptor pass.
type Result struct {
	id             uuid.UUID
	elements       map[string][]*constraint.Element
	groupSequences map[string][]string
	suppressions   *constraint.Suppressions
	beans          []string
}

var _ constraint.Source = (*Result)(nil)

// ID identifies the pass in log output.
func (r *Result) ID() uuid.UUID { return r.id }

// ElementsFor implements constraint.Source.
func (r *Result) ElementsFor(t *hierarchy.Type) ([]*constraint.Element, error) {
	return append([]*constraint.Element(nil), r.elements[t.Name]...), nil
}

// GroupSequences returns the default group sequences redefined by the pass,
// keyed by bean name.
func (r *Result) GroupSequences() map[string][]string {
	out := make(map[string][]string, len(r.groupSequences))
	for k, v := range r.groupSequences {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Suppressions returns the frozen annotation suppressions of the pass.
func (r *Result) Suppressions() *constraint.Suppressions {
	return r.suppressions
}

// Beans returns the sorted names of every bean the pass configured.
func (r *Result) Beans() []string {
	return append([]string(nil), r.beans...)
}
