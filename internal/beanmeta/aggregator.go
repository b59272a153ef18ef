package beanmeta

import (
	"sort"

	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/constraint"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/location"
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

// Aggregator combines the constraint elements of a type hierarchy into
// BeanMetaData. It holds no per-type state and may be shared.
type Aggregator struct {
	h         hierarchy.Hierarchy
	providers map[string]GroupSequenceProvider
	sequences map[string][]string
	logger    *zap.Logger
}

// NewAggregator creates an aggregator over h.
func NewAggregator(h hierarchy.Hierarchy, opts ...Option) *Aggregator {
	cfg := newConfig(opts)
	return cfg.aggregator(h)
}

// Aggregate builds the metadata of t from elements. Elements located on
// types outside t's hierarchy are ignored.
func (a *Aggregator) Aggregate(t *hierarchy.Type, elements []*constraint.Element) (*BeanMetaData, error) {
	if t == nil {
		return nil, metaerr.NewTypeNotFoundError("<nil>")
	}

	ancestors := hierarchy.Ancestors(a.h, t)
	inHierarchy := map[string]bool{t.Name: true}
	for _, ancestor := range ancestors {
		inHierarchy[ancestor.Name] = true
	}
	direct := map[string]bool{t.Name: true}
	for _, iface := range hierarchy.DirectInterfaces(a.h, t) {
		direct[iface.Name] = true
	}

	merged, order, err := mergeElements(elements, inHierarchy)
	if err != nil {
		return nil, err
	}

	md := &BeanMetaData{
		beanType:       t,
		elements:       merged,
		classHierarchy: append([]*hierarchy.Type{t}, hierarchy.Superclasses(a.h, t)...),
		properties:     a.properties(t, ancestors),
	}

	for _, loc := range order {
		e := merged[loc]
		md.constraints = append(md.constraints, e.Constraints...)
		if direct[loc.Declaring] {
			md.direct = append(md.direct, e.Constraints...)
		}
		if e.IsCascading() {
			md.cascaded = append(md.cascaded, loc)
		}
	}
	constraint.SortRecords(md.constraints)
	constraint.SortRecords(md.direct)

	if err := a.groupSequence(md); err != nil {
		return nil, err
	}

	md.executables = a.executables(t, merged)

	a.logger.Debug("aggregated bean metadata",
		zap.String("bean", t.Name),
		zap.Int("constraints", len(md.constraints)),
		zap.Int("direct", len(md.direct)),
		zap.Int("cascaded", len(md.cascaded)),
		zap.Int("executables", len(md.executables)),
		zap.Bool("sequence_redefined", md.DefaultGroupSequenceIsRedefined()),
	)
	return md, nil
}

// mergeElements folds the elements of every in-hierarchy location into one
// element per location. Records accumulate, cascading is kept when any
// origin requests it and group conversions must agree.
func mergeElements(elements []*constraint.Element, inHierarchy map[string]bool) (map[location.Location]*constraint.Element, []location.Location, error) {
	merged := make(map[location.Location]*constraint.Element)
	var order []location.Location

	for _, e := range elements {
		if e == nil || !inHierarchy[e.Location.Declaring] {
			continue
		}
		existing, ok := merged[e.Location]
		if !ok {
			existing = &constraint.Element{
				Origin:           e.Origin,
				Location:         e.Location,
				GroupConversions: make(map[string]string),
			}
			merged[e.Location] = existing
			order = append(order, e.Location)
		}

		existing.Constraints = append(existing.Constraints, e.Constraints...)
		if e.Cascade > existing.Cascade {
			existing.Cascade = e.Cascade
		}
		for from, to := range e.GroupConversions {
			if prev, exists := existing.GroupConversions[from]; exists && prev != to {
				return nil, nil, metaerr.NewConfigurationError(e.Location.Declaring, e.Location.Member,
					"conflicting group conversions for %s at %s: %s and %s", from, e.Location, prev, to)
			}
			existing.GroupConversions[from] = to
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].String() < order[j].String() })
	return merged, order, nil
}

func (a *Aggregator) groupSequence(md *BeanMetaData) error {
	t := md.beanType
	provider := a.providers[t.Name]

	static := a.sequences[t.Name]
	if len(static) == 0 {
		static = t.GroupSequence
	}

	if provider != nil && len(static) > 0 {
		return metaerr.NewConfigurationError(t.Name, "",
			"a default group sequence and a group sequence provider cannot both be defined")
	}

	if len(static) > 0 {
		if !contains(static, t.Name) {
			return metaerr.NewConfigurationError(t.Name, "",
				"the default group sequence %v must contain the bean type", static)
		}
		if contains(static, constraint.DefaultGroup) {
			return metaerr.NewConfigurationError(t.Name, "",
				"the default group sequence %v must not contain the %s group", static, constraint.DefaultGroup)
		}
		md.staticSequence = append([]string(nil), static...)
	}
	md.provider = provider
	return nil
}

// executables aggregates every method visible on t, keyed by signature. The
// most specific declaration wins; every method it overrides in the context of
// t contributes its elements.
func (a *Aggregator) executables(t *hierarchy.Type, merged map[location.Location]*constraint.Element) map[string]*ExecutableMetaData {
	out := make(map[string]*ExecutableMetaData)
	methods := implementationsFirst(t, hierarchy.AllMethods(a.h, t))

	for _, m := range methods {
		if m.Static || (m.Private && m.Declaring != t) {
			continue
		}
		sig := m.Signature()
		if _, exists := out[sig]; exists {
			continue
		}

		identity := a.identity(t, m, methods)
		exec := &ExecutableMetaData{
			method:            m,
			overridden:        identity[1:],
			returnConversions: make(map[string]string),
			params:            make([]ParameterMetaData, len(m.Params)),
		}
		for i, p := range m.Params {
			exec.params[i] = ParameterMetaData{
				Index:            i,
				Type:             p.Type,
				GroupConversions: make(map[string]string),
			}
		}

		for _, decl := range identity {
			if decl.HasReturnValue() {
				if e, ok := merged[location.ForResult(decl)]; ok {
					exec.returnConstraints = append(exec.returnConstraints, e.Constraints...)
					if e.Cascade > exec.returnCascade {
						exec.returnCascade = e.Cascade
					}
					mergeConversions(exec.returnConversions, e.GroupConversions)
				}
			}
			for i := range decl.Params {
				if i >= len(exec.params) {
					break
				}
				e, ok := merged[location.ForParameter(decl, i)]
				if !ok {
					continue
				}
				p := &exec.params[i]
				p.Constraints = append(p.Constraints, e.Constraints...)
				if e.Cascade > p.Cascade {
					p.Cascade = e.Cascade
				}
				mergeConversions(p.GroupConversions, e.GroupConversions)
			}
		}

		out[sig] = exec
	}
	return out
}

// identity returns m followed by every method of t it overrides or
// implements. An inherited declaration can implement an interface that only t
// declares, so overriding is decided in the context of t.
func (a *Aggregator) identity(t *hierarchy.Type, m *hierarchy.Method, methods []*hierarchy.Method) []*hierarchy.Method {
	identity := []*hierarchy.Method{m}
	seen := map[*hierarchy.Method]bool{m: true}
	for _, candidate := range methods {
		if seen[candidate] || !a.h.Overrides(m, candidate, t) {
			continue
		}
		seen[candidate] = true
		identity = append(identity, candidate)
	}
	return identity
}

// implementationsFirst orders methods so that declarations of t come first,
// then class declarations, then interface declarations. Relative order is kept.
func implementationsFirst(t *hierarchy.Type, methods []*hierarchy.Method) []*hierarchy.Method {
	rank := func(m *hierarchy.Method) int {
		switch {
		case m.Declaring == t:
			return 0
		case !m.Declaring.Interface:
			return 1
		default:
			return 2
		}
	}
	out := append([]*hierarchy.Method(nil), methods...)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

// mergeConversions adds src to dst; conversions of more specific declarations,
// merged first, are kept.
func mergeConversions(dst, src map[string]string) {
	for from, to := range src {
		if _, exists := dst[from]; !exists {
			dst[from] = to
		}
	}
}

func (a *Aggregator) properties(t *hierarchy.Type, ancestors []*hierarchy.Type) map[string]bool {
	props := make(map[string]bool)
	for _, typ := range append([]*hierarchy.Type{t}, ancestors...) {
		if a.h.IsRoot(typ) {
			continue
		}
		for _, f := range typ.Fields {
			props[f.Name] = true
		}
		for _, m := range a.h.MethodsOf(typ) {
			if name, ok := m.IsGetter(); ok {
				props[name] = true
			}
		}
	}
	return props
}
