package overridecheck

import (
	"sort"

	"github.com/conduit-lang/beanmeta/internal/diagnostics"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
)

// Rule is one override-consistency rule. The checker is generic over rules:
// NeedsCheck gates whether a method is inspected at all and Consistent
// compares two declarations of the same method identity.
type Rule struct {
	Name       string
	MessageKey string
	NeedsCheck func(m *hierarchy.Method) bool
	Consistent func(current, other *hierarchy.Method) bool
}

// CascadingUnchanged forbids adding or removing cascaded validation on the
// return value or any parameter of an overriding method.
var CascadingUnchanged = Rule{
	Name:       "cascading-unchanged",
	MessageKey: diagnostics.KeyAlteredCascading,
	NeedsCheck: hasCheckableSlots,
	Consistent: func(current, other *hierarchy.Method) bool {
		if current.Return.Valid != other.Return.Valid {
			return false
		}
		if len(current.Params) != len(other.Params) {
			return false
		}
		for i := range current.Params {
			if current.Params[i].Valid != other.Params[i].Valid {
				return false
			}
		}
		return true
	},
}

// GroupConversionUnchanged forbids changing the group conversions of the
// return value or any parameter of an overriding method.
var GroupConversionUnchanged = Rule{
	Name:       "group-conversion-unchanged",
	MessageKey: diagnostics.KeyAlteredGroupConversion,
	NeedsCheck: hasCheckableSlots,
	Consistent: func(current, other *hierarchy.Method) bool {
		if !sameConversions(current.Return.ConvertGroups, other.Return.ConvertGroups) {
			return false
		}
		if len(current.Params) != len(other.Params) {
			return false
		}
		for i := range current.Params {
			if !sameConversions(current.Params[i].ConvertGroups, other.Params[i].ConvertGroups) {
				return false
			}
		}
		return true
	},
}

// ParameterConstraintsUnchanged forbids parameter constraints on overriding
// methods and on methods declared in parallel by unrelated supertypes.
// Parameter constraints may only be declared on the original declaration, so
// an overrider that repeats them unchanged is rejected as well.
var ParameterConstraintsUnchanged = Rule{
	Name:       "parameter-constraints-unchanged",
	MessageKey: diagnostics.KeyParameterConstraints,
	NeedsCheck: func(m *hierarchy.Method) bool {
		return m.Overridable() && len(m.Params) > 0
	},
	Consistent: func(current, _ *hierarchy.Method) bool {
		return !hasParameterConstraints(current)
	},
}

// ReturnValueCascadedOnce forbids marking a return value for cascaded
// validation more than once along an override chain.
var ReturnValueCascadedOnce = Rule{
	Name:       "return-value-cascaded-once",
	MessageKey: diagnostics.KeyReturnValueCascading,
	NeedsCheck: func(m *hierarchy.Method) bool {
		return m.Overridable() && m.HasReturnValue() && m.Return.Valid
	},
	Consistent: func(current, other *hierarchy.Method) bool {
		return !(current.Return.Valid && other.Return.Valid)
	},
}

// DefaultRules returns the rules checked when none are configured.
func DefaultRules() []Rule {
	return []Rule{CascadingUnchanged, GroupConversionUnchanged, ParameterConstraintsUnchanged}
}

// AllRules returns every built-in rule.
func AllRules() []Rule {
	return append(DefaultRules(), ReturnValueCascadedOnce)
}

// RuleByName looks up a built-in rule.
func RuleByName(name string) (Rule, bool) {
	for _, r := range AllRules() {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// RuleNames returns the names of every built-in rule.
func RuleNames() []string {
	rules := AllRules()
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	sort.Strings(names)
	return names
}

func hasCheckableSlots(m *hierarchy.Method) bool {
	return m.Overridable() && (m.HasReturnValue() || len(m.Params) > 0)
}

func sameConversions(a, b []hierarchy.Conversion) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[hierarchy.Conversion]bool, len(a))
	for _, c := range a {
		set[c] = true
	}
	for _, c := range b {
		if !set[c] {
			return false
		}
	}
	return true
}

func hasParameterConstraints(m *hierarchy.Method) bool {
	for _, p := range m.Params {
		if p.HasConstraints() {
			return true
		}
	}
	return false
}
