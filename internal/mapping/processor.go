package mapping

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/constraint"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/location"
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

// Processor applies descriptors to one hierarchy.
type Processor struct {
	resolver *location.Resolver
	logger   *zap.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for pass diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor creates a processor over h.
func NewProcessor(h hierarchy.Hierarchy, opts ...Option) *Processor {
	p := &Processor{
		resolver: location.NewResolver(h),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// pass holds the state of one descriptor pass. The suppression registry is
// owned by the pass and frozen into the Result when the pass completes.
type pass struct {
	id           uuid.UUID
	resolver     *location.Resolver
	suppressions *constraint.SuppressionRegistry
	builder      *constraint.Builder
	logger       *zap.Logger

	configured map[string]string // bean -> descriptor source
	elements   map[string][]*constraint.Element
	sequences  map[string][]string
}

// Process runs one pass over the given descriptors. A bean may be configured
// by at most one bean mapping across all descriptors of the pass.
func (p *Processor) Process(descriptors ...*Descriptor) (*Result, error) {
	id := uuid.New()
	logger := p.logger.With(zap.String("pass", id.String()))
	registry := constraint.NewSuppressionRegistry()

	ps := &pass{
		id:           id,
		resolver:     p.resolver,
		suppressions: registry,
		builder:      constraint.NewBuilder(constraint.OriginMapping, registry, constraint.WithLogger(logger)),
		logger:       logger,
		configured:   make(map[string]string),
		elements:     make(map[string][]*constraint.Element),
		sequences:    make(map[string][]string),
	}

	logger.Debug("starting mapping pass", zap.Int("descriptors", len(descriptors)))

	for _, d := range descriptors {
		if d == nil {
			continue
		}
		for i := range d.Beans {
			if err := ps.bean(d, &d.Beans[i]); err != nil {
				logger.Debug("mapping pass failed", zap.String("source", d.Source), zap.Error(err))
				return nil, err
			}
		}
	}

	result := &Result{
		id:             id,
		elements:       ps.elements,
		groupSequences: ps.sequences,
		suppressions:   registry.Freeze(),
	}
	for name := range ps.configured {
		result.beans = append(result.beans, name)
	}
	sort.Strings(result.beans)

	logger.Info("mapping pass complete", zap.Int("beans", len(result.beans)))
	return result, nil
}

func (ps *pass) bean(d *Descriptor, bm *BeanMapping) error {
	name := constraint.Qualify(bm.Class, d.DefaultPackage)
	if name == "" {
		return metaerr.NewConfigurationError(d.Source, "", "bean mapping without a class")
	}
	if prev, ok := ps.configured[name]; ok {
		return metaerr.NewConfigurationError(name, "", "bean is configured more than once (first in %q)", prev)
	}
	ps.configured[name] = d.Source

	bean, err := ps.resolver.Type(name)
	if err != nil {
		return err
	}
	rp := ps.resolver.NewPass(bean)
	pkg := d.DefaultPackage

	if bm.IgnoreAnnotations != nil {
		ps.suppressions.IgnoreClass(bean.Name, *bm.IgnoreAnnotations)
	}

	if err := ps.classLevel(bean, bm, pkg); err != nil {
		return err
	}
	if err := ps.fields(rp, bm.Fields, pkg); err != nil {
		return err
	}
	if err := ps.getters(rp, bm.Getters, pkg); err != nil {
		return err
	}
	if err := ps.methods(rp, bm.Methods, pkg); err != nil {
		return err
	}

	if len(bm.GroupSequence) > 0 {
		sequence := make([]string, 0, len(bm.GroupSequence))
		for _, g := range bm.GroupSequence {
			sequence = append(sequence, constraint.Qualify(g, pkg))
		}
		ps.sequences[bean.Name] = sequence
	}

	ps.logger.Debug("configured bean",
		zap.String("bean", bean.Name),
		zap.Int("elements", len(ps.elements[bean.Name])),
	)
	return nil
}

func (ps *pass) classLevel(bean *hierarchy.Type, bm *BeanMapping, pkg string) error {
	if len(bm.Constraints) == 0 && bm.ClassIgnoreAnnotations == nil {
		return nil
	}
	return ps.build(location.ForType(bean), constraint.Member{
		Constraints:       bm.Constraints,
		IgnoreAnnotations: bm.ClassIgnoreAnnotations,
	}, pkg)
}

func (ps *pass) fields(rp *location.Pass, fields []MemberMapping, pkg string) error {
	for _, fm := range fields {
		f, err := rp.Field(fm.Name)
		if err != nil {
			return err
		}
		if err := ps.build(location.ForField(f), memberOf(fm), pkg); err != nil {
			return err
		}
	}
	return nil
}

func (ps *pass) getters(rp *location.Pass, getters []MemberMapping, pkg string) error {
	for _, gm := range getters {
		m, err := rp.Getter(gm.Name)
		if err != nil {
			return err
		}
		if err := ps.build(location.ForGetter(m), memberOf(gm), pkg); err != nil {
			return err
		}
	}
	return nil
}

func (ps *pass) methods(rp *location.Pass, methods []MethodMapping, pkg string) error {
	for _, mm := range methods {
		m, err := rp.Method(mm.Name, mm.ParamTypes())
		if err != nil {
			return err
		}

		for i, pm := range mm.Params {
			member := slotMember(pm.SlotMapping)
			if member.IgnoreAnnotations == nil {
				member.IgnoreAnnotations = mm.IgnoreAnnotations
			}
			if err := ps.build(location.ForParameter(m, i), member, pkg); err != nil {
				return err
			}
		}

		if !m.HasReturnValue() {
			if mm.Returns != nil && (len(mm.Returns.Constraints) > 0 || mm.Returns.Valid) {
				return metaerr.NewConfigurationError(m.Declaring.Name, m.Signature(), "method has no return value to configure")
			}
			continue
		}

		var member constraint.Member
		if mm.Returns != nil {
			member = slotMember(*mm.Returns)
		}
		if member.IgnoreAnnotations == nil {
			member.IgnoreAnnotations = mm.IgnoreAnnotations
		}
		if err := ps.build(location.ForResult(m), member, pkg); err != nil {
			return err
		}
	}
	return nil
}

func (ps *pass) build(loc location.Location, member constraint.Member, pkg string) error {
	element, err := ps.builder.Build(loc, member, pkg)
	if err != nil {
		return err
	}
	if element.IsConstrained() {
		ps.elements[loc.Declaring] = append(ps.elements[loc.Declaring], element)
	}
	return nil
}

func memberOf(m MemberMapping) constraint.Member {
	return constraint.Member{
		Constraints:       m.Constraints,
		Valid:             m.Valid,
		ConvertGroups:     m.ConvertGroups,
		IgnoreAnnotations: m.IgnoreAnnotations,
	}
}

func slotMember(s SlotMapping) constraint.Member {
	return constraint.Member{
		Constraints:       s.Constraints,
		Valid:             s.Valid,
		ConvertGroups:     s.ConvertGroups,
		IgnoreAnnotations: s.IgnoreAnnotations,
	}
}
