package hierarchy

// Ancestors returns every supertype of t (superclasses and all directly or
// transitively implemented interfaces) in breadth-first order: at each level the
// superclass comes before the interfaces. The root type and t itself are
// excluded, and each type appears once even when reachable through several
// paths.
func Ancestors(h Hierarchy, t *Type) []*Type {
	if t == nil {
		return nil
	}

	var result []*Type
	visited := map[*Type]bool{t: true}
	queue := []*Type{t}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		next := h.InterfacesOf(current)
		if super, ok := h.SuperTypeOf(current); ok {
			next = append([]*Type{super}, next...)
		}

		for _, candidate := range next {
			if visited[candidate] || h.IsRoot(candidate) {
				continue
			}
			visited[candidate] = true
			result = append(result, candidate)
			queue = append(queue, candidate)
		}
	}

	return result
}

// Superclasses returns the superclass chain of t, nearest first, stopping
// before the root type.
func Superclasses(h Hierarchy, t *Type) []*Type {
	var result []*Type
	for super, ok := h.SuperTypeOf(t); ok && !h.IsRoot(super); super, ok = h.SuperTypeOf(super) {
		result = append(result, super)
	}
	return result
}

// DirectInterfaces returns the interfaces t implements itself, together with
// their super-interfaces. Interfaces reached only through a superclass are not
// included.
func DirectInterfaces(h Hierarchy, t *Type) []*Type {
	var result []*Type
	visited := make(map[*Type]bool)
	queue := append([]*Type(nil), h.InterfacesOf(t)...)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		result = append(result, current)
		queue = append(queue, h.InterfacesOf(current)...)
	}

	return result
}

// IsSubtype reports whether sub is sup or one of its descendants.
func IsSubtype(h Hierarchy, sub, sup *Type) bool {
	if sub == nil || sup == nil {
		return false
	}
	if sub == sup || h.IsRoot(sup) {
		return true
	}
	for _, ancestor := range Ancestors(h, sub) {
		if ancestor == sup {
			return true
		}
	}
	return false
}

// AllMethods returns the methods declared on t followed by the methods it
// inherits, most specific type first. Members of the root type are never
// returned.
func AllMethods(h Hierarchy, t *Type) []*Method {
	if t == nil || h.IsRoot(t) {
		return nil
	}
	methods := append([]*Method(nil), h.MethodsOf(t)...)
	for _, ancestor := range Ancestors(h, t) {
		methods = append(methods, h.MethodsOf(ancestor)...)
	}
	return methods
}

// OverriddenMethods finds every method that m overrides or implements.
//
// The interfaces of the declaring type are inspected first. Then the
// superclass chain is walked one level at a time; at each level the class
// itself and its own interfaces are inspected. The walk stops at the root type.
// The result is deduplicated by identity, so a method reachable through several
// interface paths appears once.
func OverriddenMethods(h Hierarchy, m *Method) []*Method {
	if m == nil || m.Declaring == nil || !m.Overridable() {
		return nil
	}
	current := m.Declaring

	var result []*Method
	seen := make(map[*Method]bool)
	add := func(found *Method) {
		if found != nil && !seen[found] {
			seen[found] = true
			result = append(result, found)
		}
	}

	for _, iface := range h.InterfacesOf(current) {
		add(overriddenIn(h, current, iface, m))
	}

	for parent, ok := h.SuperTypeOf(current); ok && !h.IsRoot(parent); parent, ok = h.SuperTypeOf(parent) {
		add(overriddenIn(h, current, parent, m))
		for _, iface := range h.InterfacesOf(parent) {
			add(overriddenIn(h, current, iface, m))
		}
	}

	return result
}

// overriddenIn returns the first member of other (declared or inherited) that
// m overrides when viewed from current.
func overriddenIn(h Hierarchy, current, other *Type, m *Method) *Method {
	if h.IsRoot(other) {
		return nil
	}
	for _, candidate := range AllMethods(h, other) {
		if h.Overrides(m, candidate, current) {
			return candidate
		}
	}
	return nil
}
