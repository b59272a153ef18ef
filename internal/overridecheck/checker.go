// Package overridecheck detects illegal overriding of constrained methods.
//
// A Checker runs Rules over a method and everything it overrides or
// implements. When a method overrides two or more independent supertype
// methods, every ordered pair of those is checked and all disagreements are
// reported. Only when the overridden methods agree with each other is the
// method itself compared against each of them, stopping at the first
// mismatch.
package overridecheck

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/diagnostics"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
)

// Issue is one override-consistency violation reported on a method.
type Issue struct {
	Severity diagnostics.Severity
	Method   *hierarchy.Method

	// Annotation refines the location of the issue; override issues never
	// point at a single annotation and leave it nil.
	Annotation *hierarchy.Annotation

	MessageKey string
	Args       []string
}

// Ancestor returns the qualified name of the conflicting supertype.
func (i Issue) Ancestor() string {
	if len(i.Args) == 0 {
		return ""
	}
	return i.Args[0]
}

// Diagnostic converts the issue into its diagnostic tuple.
func (i Issue) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.Diagnostic{
		Severity:   i.Severity,
		MessageKey: i.MessageKey,
		Args:       append([]string(nil), i.Args...),
		Method:     i.Method.QualifiedName(),
	}
}

func (i Issue) key() string {
	return i.Method.QualifiedName() + "\x00" + i.MessageKey + "\x00" + strings.Join(i.Args, "\x00")
}

// Checker runs override rules against a hierarchy.
type Checker struct {
	h      hierarchy.Hierarchy
	rules  []Rule
	logger *zap.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithRules replaces the rules used by CheckAll, CheckType and CheckTypes.
func WithRules(rules ...Rule) Option {
	return func(c *Checker) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a checker over h using DefaultRules unless configured
// otherwise.
func NewChecker(h hierarchy.Hierarchy, opts ...Option) *Checker {
	c := &Checker{
		h:      h,
		rules:  DefaultRules(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the configured rules.
func (c *Checker) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Check applies one rule to m.
func (c *Checker) Check(m *hierarchy.Method, rule Rule) []Issue {
	if m == nil || rule.NeedsCheck == nil || !rule.NeedsCheck(m) {
		return nil
	}

	overridden := hierarchy.OverriddenMethods(c.h, m)
	if len(overridden) == 0 {
		return nil
	}

	if len(overridden) > 1 {
		var issues []Issue
		for _, first := range overridden {
			for _, second := range overridden {
				if first == second {
					continue
				}
				if !rule.Consistent(first, second) {
					issues = append(issues, c.issue(m, rule, second))
				}
			}
		}
		if len(issues) > 0 {
			c.logger.Debug("overridden methods disagree",
				zap.String("method", m.QualifiedName()),
				zap.String("rule", rule.Name),
				zap.Int("issues", len(issues)),
			)
			return normalize(issues)
		}
	}

	for _, other := range overridden {
		if !rule.Consistent(m, other) {
			c.logger.Debug("override alters declaration",
				zap.String("method", m.QualifiedName()),
				zap.String("rule", rule.Name),
				zap.String("ancestor", other.Declaring.Name),
			)
			return []Issue{c.issue(m, rule, other)}
		}
	}
	return nil
}

// CheckAll applies several rules to m; with no rules given the configured
// rules are used.
func (c *Checker) CheckAll(m *hierarchy.Method, rules ...Rule) []Issue {
	if len(rules) == 0 {
		rules = c.rules
	}
	var issues []Issue
	for _, rule := range rules {
		issues = append(issues, c.Check(m, rule)...)
	}
	return normalize(issues)
}

// CheckType applies the configured rules to every method declared on t.
// Members of the root type are never inspected.
func (c *Checker) CheckType(t *hierarchy.Type) []Issue {
	if t == nil || c.h.IsRoot(t) {
		return nil
	}
	var issues []Issue
	for _, m := range c.h.MethodsOf(t) {
		issues = append(issues, c.CheckAll(m)...)
	}
	return normalize(issues)
}

// CheckTypes checks every type in name order.
func (c *Checker) CheckTypes(types []*hierarchy.Type) []Issue {
	sorted := append([]*hierarchy.Type(nil), types...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var issues []Issue
	for _, t := range sorted {
		issues = append(issues, c.CheckType(t)...)
	}

	c.logger.Debug("checked hierarchy",
		zap.Int("types", len(sorted)),
		zap.Int("issues", len(issues)),
	)
	return normalize(issues)
}

// CheckHierarchy checks every type of g.
func (c *Checker) CheckHierarchy(g *hierarchy.Graph) []Issue {
	return c.CheckTypes(g.Types())
}

func (c *Checker) issue(m *hierarchy.Method, rule Rule, ancestor *hierarchy.Method) Issue {
	return Issue{
		Severity:   diagnostics.Error,
		Method:     m,
		MessageKey: rule.MessageKey,
		Args:       []string{ancestor.Declaring.Name},
	}
}

// normalize removes duplicate issues and orders the rest by method, message
// key and arguments.
func normalize(issues []Issue) []Issue {
	if len(issues) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(issues))
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		k := issue.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, issue)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].key() < out[j].key()
	})
	return out
}

// Diagnostics converts issues into diagnostic tuples.
func Diagnostics(issues []Issue) []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, len(issues))
	for i, issue := range issues {
		out[i] = issue.Diagnostic()
	}
	return out
}
