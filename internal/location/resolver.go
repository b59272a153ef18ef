package location

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

// Site is a raw declaration site as named by an external descriptor.
type Site struct {
	Kind   Kind
	Bean   string   // Qualified type name
	Member string   // Field, property or method name
	Params []string // Declared parameter types for method sites
	Index  int      // Parameter index for KindParameter
}

// Resolver maps declaration sites to Locations. Only members declared on the
// named type itself are considered; inherited members are configured on the
// type that declares them.
type Resolver struct {
	h hierarchy.Hierarchy
}

// NewResolver creates a resolver over h.
func NewResolver(h hierarchy.Hierarchy) *Resolver {
	return &Resolver{h: h}
}

// Type looks up a bean type by name.
func (r *Resolver) Type(name string) (*hierarchy.Type, error) {
	t, ok := r.h.Lookup(name)
	if !ok {
		return nil, metaerr.NewTypeNotFoundError(name)
	}
	return t, nil
}

// Resolve produces the Location for a site.
func (r *Resolver) Resolve(site Site) (Location, error) {
	bean, err := r.Type(site.Bean)
	if err != nil {
		return Location{}, err
	}

	switch site.Kind {
	case KindType:
		return ForType(bean), nil
	case KindField:
		f, err := r.field(bean, site.Member)
		if err != nil {
			return Location{}, err
		}
		return ForField(f), nil
	case KindGetter:
		m, err := r.getter(bean, site.Member)
		if err != nil {
			return Location{}, err
		}
		return ForGetter(m), nil
	case KindReturn:
		m, err := r.method(bean, site.Member, site.Params)
		if err != nil {
			return Location{}, err
		}
		return ForReturn(m), nil
	case KindParameter:
		m, err := r.method(bean, site.Member, site.Params)
		if err != nil {
			return Location{}, err
		}
		if site.Index < 0 || site.Index >= len(m.Params) {
			return Location{}, metaerr.NewNotFoundError("parameter", bean.Name, fmt.Sprintf("%s[%d]", m.Signature(), site.Index))
		}
		return ForParameter(m, site.Index), nil
	default:
		return Location{}, metaerr.NewConfigurationError(bean.Name, site.Member, "unsupported site kind %s", site.Kind)
	}
}

func (r *Resolver) field(bean *hierarchy.Type, name string) (*hierarchy.Field, error) {
	f, ok := bean.Field(name)
	if !ok {
		return nil, metaerr.NewNotFoundError("field", bean.Name, name)
	}
	return f, nil
}

func (r *Resolver) getter(bean *hierarchy.Type, property string) (*hierarchy.Method, error) {
	m, ok := bean.Getter(property)
	if !ok {
		return nil, metaerr.NewNotFoundError("getter", bean.Name, property)
	}
	return m, nil
}

func (r *Resolver) method(bean *hierarchy.Type, name string, params []string) (*hierarchy.Method, error) {
	refs := make([]string, len(params))
	for i, p := range params {
		refs[i] = hierarchy.ParseTypeRef(p).String()
	}
	signature := name + "(" + strings.Join(refs, ",") + ")"

	m, ok := bean.Method(signature)
	if !ok {
		return nil, metaerr.NewNotFoundError("method", bean.Name, signature)
	}
	return m, nil
}

// Pass resolves the members configured for one bean by one descriptor. A
// member may be configured only once per pass, and so may the value an
// accessor produces, whether configured as a getter or as a method.
type Pass struct {
	resolver *Resolver
	bean     *hierarchy.Type
	seen     map[string]bool
	results  map[Location]bool
}

// NewPass starts a descriptor pass for bean.
func (r *Resolver) NewPass(bean *hierarchy.Type) *Pass {
	return &Pass{
		resolver: r,
		bean:     bean,
		seen:     make(map[string]bool),
		results:  make(map[Location]bool),
	}
}

// Bean returns the type this pass configures.
func (p *Pass) Bean() *hierarchy.Type {
	return p.bean
}

// Field resolves a field, failing if it was already configured in this pass.
func (p *Pass) Field(name string) (*hierarchy.Field, error) {
	if err := p.markProcessed("field:"+name, name); err != nil {
		return nil, err
	}
	return p.resolver.field(p.bean, name)
}

// Getter resolves a property accessor, failing if it was already configured
// in this pass.
func (p *Pass) Getter(property string) (*hierarchy.Method, error) {
	if err := p.markProcessed("getter:"+property, property); err != nil {
		return nil, err
	}
	m, err := p.resolver.getter(p.bean, property)
	if err != nil {
		return nil, err
	}
	if err := p.markResult(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Method resolves a method by name and parameter types, failing if the same
// signature was already configured in this pass.
func (p *Pass) Method(name string, params []string) (*hierarchy.Method, error) {
	m, err := p.resolver.method(p.bean, name, params)
	if err != nil {
		return nil, err
	}
	if err := p.markProcessed("method:"+m.Signature(), m.Signature()); err != nil {
		return nil, err
	}
	if err := p.markResult(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Pass) markProcessed(key, member string) error {
	if p.seen[key] {
		return metaerr.NewDefinedTwiceError(p.bean.Name, member)
	}
	p.seen[key] = true
	return nil
}

func (p *Pass) markResult(m *hierarchy.Method) error {
	loc := ForResult(m)
	if p.results[loc] {
		return metaerr.NewDefinedTwiceError(p.bean.Name, loc.Member)
	}
	p.results[loc] = true
	return nil
}
