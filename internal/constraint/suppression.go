package constraint

import (
	"sync"

	"github.com/conduit-lang/beanmeta/internal/location"
)

// SuppressionRegistry records which annotation-origin constraints an external
// descriptor wants ignored. It lives for one descriptor pass; writers are
// serialized and readers use the frozen Suppressions produced at the end of
// the pass.
type SuppressionRegistry struct {
	mu      sync.Mutex
	members map[location.Location]bool
	classes map[string]bool
}

// NewSuppressionRegistry creates an empty registry.
func NewSuppressionRegistry() *SuppressionRegistry {
	return &SuppressionRegistry{
		members: make(map[location.Location]bool),
		classes: make(map[string]bool),
	}
}

// IgnoreMember records whether annotation constraints on loc are ignored.
// The last write for a location wins.
func (r *SuppressionRegistry) IgnoreMember(loc location.Location, ignore bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[loc] = ignore
}

// IgnoreClass records the default for every member of a class that has no
// member-level setting.
func (r *SuppressionRegistry) IgnoreClass(name string, ignore bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = ignore
}

// Freeze returns a read-only snapshot of the registry.
func (r *SuppressionRegistry) Freeze() *Suppressions {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Suppressions{
		members: make(map[location.Location]bool, len(r.members)),
		classes: make(map[string]bool, len(r.classes)),
	}
	for k, v := range r.members {
		s.members[k] = v
	}
	for k, v := range r.classes {
		s.classes[k] = v
	}
	return s
}

// Suppressions is the frozen result of a descriptor pass. A nil *Suppressions
// ignores nothing.
type Suppressions struct {
	members map[location.Location]bool
	classes map[string]bool
}

// IgnoresMember reports whether annotation constraints on loc are ignored.
func (s *Suppressions) IgnoresMember(loc location.Location) bool {
	if s == nil {
		return false
	}
	if ignore, ok := s.members[loc]; ok {
		return ignore
	}
	return s.classes[loc.Declaring]
}

// IgnoresClass reports whether annotations are ignored by default on a class.
func (s *Suppressions) IgnoresClass(name string) bool {
	if s == nil {
		return false
	}
	return s.classes[name]
}

// Merge combines several snapshots; later snapshots win on conflicts.
func Merge(all ...*Suppressions) *Suppressions {
	out := &Suppressions{
		members: make(map[location.Location]bool),
		classes: make(map[string]bool),
	}
	for _, s := range all {
		if s == nil {
			continue
		}
		for k, v := range s.members {
			out.members[k] = v
		}
		for k, v := range s.classes {
			out.classes[k] = v
		}
	}
	return out
}
