package hierarchy

import (
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

// DefaultRoot is the name of the universal root type.
const DefaultRoot = "Object"

// Hierarchy is the reflective capability the checker and the aggregator work
// against. Implementations must be safe for concurrent reads.
type Hierarchy interface {
	// Lookup returns the type with the given qualified name.
	Lookup(name string) (*Type, bool)

	// SuperTypeOf returns the superclass of t. Interfaces and the root type have none.
	SuperTypeOf(t *Type) (*Type, bool)

	// InterfacesOf returns the interfaces t directly implements (or extends).
	InterfacesOf(t *Type) []*Type

	// MethodsOf returns the methods declared on t.
	MethodsOf(t *Type) []*Method

	// Overrides reports whether overrider overrides overridden when viewed as a
	// member of the type in.
	Overrides(overrider, overridden *Method, in *Type) bool

	// IsRoot reports whether t is the universal root type.
	IsRoot(t *Type) bool
}

// Graph is a static, precomputed Hierarchy. It is immutable once built.
type Graph struct {
	root  *Type
	types map[string]*Type
	order []*Type
}

var _ Hierarchy = (*Graph)(nil)

// NewGraph links the given types into a hierarchy rooted at root. Classes
// without an explicit superclass extend the root. The root type is created
// when it is not part of types.
func NewGraph(root string, types ...*Type) (*Graph, error) {
	if root == "" {
		root = DefaultRoot
	}

	g := &Graph{types: make(map[string]*Type, len(types)+1)}
	for _, t := range types {
		if t == nil || t.Name == "" {
			return nil, metaerr.NewConfigurationError("<model>", "", "type without a name")
		}
		if _, exists := g.types[t.Name]; exists {
			return nil, metaerr.NewConfigurationError(t.Name, "", "type declared more than once")
		}
		if err := t.link(); err != nil {
			return nil, metaerr.NewConfigurationError(t.Name, "", "%v", err)
		}
		g.types[t.Name] = t
	}

	rootType, ok := g.types[root]
	if !ok {
		rootType = &Type{Name: root}
		g.types[root] = rootType
	}
	rootType.Super = ""
	g.root = rootType

	for _, t := range g.types {
		if err := g.resolve(t); err != nil {
			return nil, err
		}
	}
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	g.order = make([]*Type, 0, len(g.types))
	for _, t := range g.types {
		g.order = append(g.order, t)
	}
	sortTypes(g.order)

	return g, nil
}

// resolve validates the supertype references of t.
func (g *Graph) resolve(t *Type) error {
	if t == g.root {
		return nil
	}
	if t.Interface {
		if t.Super != "" {
			return metaerr.NewConfigurationError(t.Name, "", "interface cannot declare superclass %s", t.Super)
		}
	} else {
		if t.Super == "" {
			t.Super = g.root.Name
		}
		super, ok := g.types[t.Super]
		if !ok {
			return metaerr.NewTypeNotFoundError(t.Super)
		}
		if super.Interface {
			return metaerr.NewConfigurationError(t.Name, "", "superclass %s is an interface", t.Super)
		}
	}
	for _, name := range t.Interfaces {
		iface, ok := g.types[name]
		if !ok {
			return metaerr.NewTypeNotFoundError(name)
		}
		if !iface.Interface {
			return metaerr.NewConfigurationError(t.Name, "", "%s is not an interface", name)
		}
	}
	return nil
}

// checkAcyclic rejects supertype cycles so that every traversal terminates.
func (g *Graph) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Type]int, len(g.types))

	var visit func(t *Type) error
	visit = func(t *Type) error {
		switch state[t] {
		case visiting:
			return metaerr.NewConfigurationError(t.Name, "", "cyclic supertype hierarchy")
		case done:
			return nil
		}
		state[t] = visiting
		if super, ok := g.SuperTypeOf(t); ok {
			if err := visit(super); err != nil {
				return err
			}
		}
		for _, iface := range g.InterfacesOf(t) {
			if err := visit(iface); err != nil {
				return err
			}
		}
		state[t] = done
		return nil
	}

	for _, t := range g.types {
		if err := visit(t); err != nil {
			return err
		}
	}
	return nil
}

// Root returns the universal root type.
func (g *Graph) Root() *Type {
	return g.root
}

// Types returns all types ordered by name, the root included.
func (g *Graph) Types() []*Type {
	out := make([]*Type, len(g.order))
	copy(out, g.order)
	return out
}

// Lookup implements Hierarchy.
func (g *Graph) Lookup(name string) (*Type, bool) {
	t, ok := g.types[name]
	return t, ok
}

// SuperTypeOf implements Hierarchy.
func (g *Graph) SuperTypeOf(t *Type) (*Type, bool) {
	if t == nil || t == g.root || t.Interface || t.Super == "" {
		return nil, false
	}
	super, ok := g.types[t.Super]
	return super, ok
}

// InterfacesOf implements Hierarchy.
func (g *Graph) InterfacesOf(t *Type) []*Type {
	if t == nil {
		return nil
	}
	out := make([]*Type, 0, len(t.Interfaces))
	for _, name := range t.Interfaces {
		if iface, ok := g.types[name]; ok {
			out = append(out, iface)
		}
	}
	return out
}

// MethodsOf implements Hierarchy.
func (g *Graph) MethodsOf(t *Type) []*Method {
	if t == nil {
		return nil
	}
	return t.Methods
}

// IsRoot implements Hierarchy.
func (g *Graph) IsRoot(t *Type) bool {
	return t != nil && t == g.root
}

// Overrides implements Hierarchy using the usual override rules: equal names,
// equal erased parameter lists, no static or private participant, distinct
// declaring types, both declared on supertypes of in, and the overridden
// method not declared below the overrider.
func (g *Graph) Overrides(overrider, overridden *Method, in *Type) bool {
	if overrider == nil || overridden == nil || overrider == overridden {
		return false
	}
	if overrider.Declaring == overridden.Declaring {
		return false
	}
	if overrider.Name != overridden.Name || overrider.Static || !overridden.Overridable() {
		return false
	}
	if len(overrider.Params) != len(overridden.Params) {
		return false
	}
	for i := range overrider.Params {
		if overrider.Params[i].Type != overridden.Params[i].Type {
			return false
		}
	}
	if IsSubtype(g, overridden.Declaring, overrider.Declaring) {
		return false
	}
	return IsSubtype(g, in, overrider.Declaring) && IsSubtype(g, in, overridden.Declaring)
}
