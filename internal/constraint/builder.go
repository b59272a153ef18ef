package constraint

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/location"
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

// Member is the raw configuration of one location as supplied by a front-end.
type Member struct {
	Constraints   []hierarchy.Annotation
	Valid         bool
	ConvertGroups []hierarchy.Conversion

	// IgnoreAnnotations, when set, asks for annotation-origin constraints on
	// this location to be ignored (true) or explicitly honored (false).
	IgnoreAnnotations *bool
}

// MemberFromSlot converts an annotated slot of the model into a Member.
func MemberFromSlot(slot hierarchy.Slot) Member {
	return Member{
		Constraints:   slot.Constraints,
		Valid:         slot.Valid,
		ConvertGroups: slot.ConvertGroups,
	}
}

// Builder turns raw member declarations into Elements.
type Builder struct {
	origin       Origin
	suppressions *SuppressionRegistry
	logger       *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder for declarations of the given origin.
// suppressions may be nil when the front-end never requests suppression.
func NewBuilder(origin Origin, suppressions *SuppressionRegistry, opts ...BuilderOption) *Builder {
	b := &Builder{
		origin:       origin,
		suppressions: suppressions,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates the Element for loc. Unqualified predicate, group and
// conversion names are resolved relative to defaultPackage.
func (b *Builder) Build(loc location.Location, member Member, defaultPackage string) (*Element, error) {
	records := make([]*Record, 0, len(member.Constraints))
	for _, ann := range member.Constraints {
		record, err := b.BuildRecord(loc, ann, defaultPackage)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	conversions, err := b.buildConversions(loc, member, defaultPackage)
	if err != nil {
		return nil, err
	}

	element := &Element{
		Origin:           b.origin,
		Location:         loc,
		Constraints:      records,
		Cascade:          cascadeFor(loc, member.Valid),
		GroupConversions: conversions,
	}

	if member.IgnoreAnnotations != nil {
		if b.suppressions == nil {
			return nil, metaerr.NewConfigurationError(loc.Declaring, loc.Member, "annotation suppression requested outside of a descriptor pass")
		}
		b.suppressions.IgnoreMember(loc, *member.IgnoreAnnotations)
	}

	b.logger.Debug("built constrained element",
		zap.String("location", loc.String()),
		zap.Stringer("origin", b.origin),
		zap.Int("constraints", len(records)),
		zap.Stringer("cascade", element.Cascade),
	)

	return element, nil
}

// BuildRecord creates a single Record from an annotation.
func (b *Builder) BuildRecord(loc location.Location, ann hierarchy.Annotation, defaultPackage string) (*Record, error) {
	predicate := Qualify(ann.Name, defaultPackage)
	if predicate == "" {
		return nil, metaerr.NewConfigurationError(loc.Declaring, loc.Member, "constraint without a predicate at %s", loc)
	}

	groups := make([]string, 0, len(ann.Groups))
	seen := make(map[string]bool, len(ann.Groups))
	for _, g := range ann.Groups {
		q := Qualify(g, defaultPackage)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		groups = append(groups, q)
	}
	if len(groups) == 0 {
		groups = append(groups, DefaultGroup)
	}

	payload := make([]string, 0, len(ann.Payload))
	for _, p := range ann.Payload {
		payload = append(payload, Qualify(p, defaultPackage))
	}

	attributes := make(map[string]string, len(ann.Attributes))
	for k, v := range ann.Attributes {
		attributes[k] = v
	}

	return &Record{
		location:   loc,
		predicate:  predicate,
		groups:     groups,
		payload:    payload,
		message:    ann.Message,
		attributes: attributes,
		origin:     b.origin,
	}, nil
}

func (b *Builder) buildConversions(loc location.Location, member Member, defaultPackage string) (map[string]string, error) {
	conversions := make(map[string]string, len(member.ConvertGroups))
	if len(member.ConvertGroups) == 0 {
		return conversions, nil
	}
	if !member.Valid {
		return nil, metaerr.NewConfigurationError(loc.Declaring, loc.Member, "group conversion at %s requires cascaded validation", loc)
	}

	for _, c := range member.ConvertGroups {
		from := Qualify(c.From, defaultPackage)
		to := Qualify(c.To, defaultPackage)
		if from == "" || to == "" {
			return nil, metaerr.NewConfigurationError(loc.Declaring, loc.Member, "incomplete group conversion at %s", loc)
		}
		if _, exists := conversions[from]; exists {
			return nil, metaerr.NewConfigurationError(loc.Declaring, loc.Member, "group %s is converted more than once at %s", from, loc)
		}
		conversions[from] = to
	}
	return conversions, nil
}

// cascadeFor tags array-typed locations distinctly so that the runtime
// validator walks their elements instead of the array itself.
func cascadeFor(loc location.Location, valid bool) Cascade {
	if !valid {
		return CascadeNone
	}
	if loc.IsArray() {
		return CascadeArrayElement
	}
	return CascadeObject
}
