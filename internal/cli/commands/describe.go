package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/beanmeta/internal/beanmeta"
	"github.com/conduit-lang/beanmeta/internal/cli/config"
	"github.com/conduit-lang/beanmeta/internal/cli/ui"
	"github.com/conduit-lang/beanmeta/internal/constraint"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

// NewDescribeCommand creates the describe command
func NewDescribeCommand(flags *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "describe [type]",
		Short: "Print the aggregated constraint metadata of a type",
		Long: `Print the aggregated constraint metadata of a type: its class hierarchy,
default group sequence, every constraint visible on it, cascaded locations
and constrained methods.

Unqualified names are resolved against the configured default package.

Examples:
  beanmeta describe com.acme.Person
  beanmeta describe Person --format json
  beanmeta describe --all`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.settings(cmd)
			if err != nil {
				return err
			}
			logger, err := flags.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			p, err := loadProject(cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if all {
				return describeAll(out, p)
			}
			return describeType(out, p, args[0])
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every type of the model")

	return cmd
}

// lookup resolves name as given, then qualified with the default package.
func (p *project) lookup(name string) (*hierarchy.Type, bool) {
	if t, ok := p.graph.Lookup(name); ok {
		return t, true
	}
	return p.graph.Lookup(constraint.Qualify(name, p.cfg.DefaultPackage))
}

func describeType(w io.Writer, p *project, name string) error {
	t, ok := p.lookup(name)
	if !ok {
		if p.cfg.Output.Format != config.FormatJSON {
			fmt.Fprint(w, ui.TypeNotFound(name, ui.FindSimilar(name, p.typeNames()), p.cfg.Output.NoColor))
		}
		return metaerr.NewTypeNotFoundError(name)
	}

	md, err := p.registry.BeanMetaDataFor(t)
	if err != nil {
		if metaerr.IsConfiguration(err) && p.cfg.Output.Format != config.FormatJSON {
			fmt.Fprint(w, ui.ConfigurationProblem(err, p.cfg.Output.NoColor))
		}
		return err
	}

	view, err := newTypeView(md)
	if err != nil {
		return err
	}

	if p.cfg.Output.Format == config.FormatJSON {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format metadata: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	view.render(w, p.cfg.Output.NoColor)
	return nil
}

func describeAll(w io.Writer, p *project) error {
	names := p.typeNames()

	type entry struct {
		Name        string `json:"name"`
		Kind        string `json:"kind"`
		Super       string `json:"super,omitempty"`
		Constraints int    `json:"constraints"`
		Mapped      bool   `json:"mapped"`
	}

	mapped := make(map[string]bool)
	for _, b := range p.mappings.Beans() {
		mapped[b] = true
	}

	entries := make([]entry, 0, len(names))
	for _, name := range names {
		t, _ := p.graph.Lookup(name)
		md, err := p.registry.BeanMetaDataFor(t)
		if err != nil {
			return err
		}
		e := entry{
			Name:        name,
			Kind:        "class",
			Constraints: len(md.MetaConstraints()),
			Mapped:      mapped[name],
		}
		if t.Interface {
			e.Kind = "interface"
		}
		if super, ok := p.graph.SuperTypeOf(t); ok && !p.graph.IsRoot(super) {
			e.Super = super.Name
		}
		entries = append(entries, e)
	}

	if p.cfg.Output.Format == config.FormatJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format types: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	table := ui.NewTable(w, p.cfg.Output.NoColor, "TYPE", "KIND", "SUPER", "CONSTRAINTS", "MAPPED")
	for _, e := range entries {
		mappedCell := ""
		if e.Mapped {
			mappedCell = "yes"
		}
		table.AddRow(e.Name, e.Kind, e.Super, fmt.Sprint(e.Constraints), mappedCell)
	}
	table.Render()
	return nil
}

// typeView is the printable form of one BeanMetaData
type typeView struct {
	Type           string           `json:"type"`
	ClassHierarchy []string         `json:"class_hierarchy"`
	GroupSequence  []string         `json:"default_group_sequence"`
	Redefined      bool             `json:"group_sequence_redefined"`
	Constraints    []constraintView `json:"constraints"`
	Cascaded       []cascadeView    `json:"cascaded"`
	Executables    []executableView `json:"executables"`
}

type constraintView struct {
	Location   string   `json:"location"`
	Constraint string   `json:"constraint"`
	Groups     []string `json:"groups"`
	Origin     string   `json:"origin"`
	Direct     bool     `json:"direct"`
}

type cascadeView struct {
	Location    string            `json:"location"`
	Cascade     string            `json:"cascade"`
	Conversions map[string]string `json:"conversions,omitempty"`
}

type executableView struct {
	Method     string   `json:"method"`
	Return     string   `json:"return,omitempty"`
	Parameters []string `json:"parameters,omitempty"`
	Overrides  []string `json:"overrides,omitempty"`
}

func newTypeView(md *beanmeta.BeanMetaData) (*typeView, error) {
	// No bean instance exists outside a running validator
	sequence, err := md.DefaultGroupSequence(nil)
	if err != nil {
		return nil, err
	}

	view := &typeView{
		Type:          md.BeanType().Name,
		GroupSequence: sequence,
		Redefined:     md.DefaultGroupSequenceIsRedefined(),
	}
	for _, t := range md.ClassHierarchy() {
		view.ClassHierarchy = append(view.ClassHierarchy, t.Name)
	}

	direct := make(map[*constraint.Record]bool)
	for _, r := range md.DirectMetaConstraints() {
		direct[r] = true
	}
	for _, r := range md.MetaConstraints() {
		view.Constraints = append(view.Constraints, constraintView{
			Location:   r.Location().String(),
			Constraint: r.Predicate(),
			Groups:     r.Groups(),
			Origin:     r.Origin().String(),
			Direct:     direct[r],
		})
	}

	for _, loc := range md.CascadedLocations() {
		cascade, conversions := md.CascadeAt(loc)
		cv := cascadeView{Location: loc.String(), Cascade: cascade.String()}
		if len(conversions) > 0 {
			cv.Conversions = conversions
		}
		view.Cascaded = append(view.Cascaded, cv)
	}

	for _, e := range md.Executables() {
		if !e.IsConstrained() {
			continue
		}
		ev := executableView{Method: e.Method().QualifiedName()}
		ev.Return = summarizeSlot(e.ReturnValueConstraints(), e.ReturnValueCascade())
		for _, param := range e.Parameters() {
			ev.Parameters = append(ev.Parameters,
				fmt.Sprintf("[%d] %s", param.Index, summarizeSlot(param.Constraints, param.Cascade)))
		}
		for _, m := range e.Overridden() {
			ev.Overrides = append(ev.Overrides, m.QualifiedName())
		}
		sort.Strings(ev.Overrides)
		view.Executables = append(view.Executables, ev)
	}

	return view, nil
}

// summarizeSlot renders the predicates of a slot and its cascade, e.g.
// "NotNull, Size (valid)".
func summarizeSlot(records []*constraint.Record, cascade constraint.Cascade) string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Predicate())
	}
	s := strings.Join(names, ", ")
	if cascade != constraint.CascadeNone {
		if s != "" {
			s += " "
		}
		s += "(valid)"
	}
	if s == "" {
		s = "-"
	}
	return s
}

func (v *typeView) render(w io.Writer, noColor bool) {
	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("Type", v.Type)
	kv.AddRow("Class hierarchy", strings.Join(v.ClassHierarchy, " → "))
	sequence := strings.Join(v.GroupSequence, ", ")
	if v.Redefined {
		sequence += " (redefined)"
	}
	kv.AddRow("Default group sequence", sequence)
	kv.Render()

	fmt.Fprintln(w)
	ui.Header(w, "Constraints", noColor)
	if len(v.Constraints) == 0 {
		fmt.Fprintln(w, "(none)")
	} else {
		table := ui.NewTable(w, noColor, "LOCATION", "CONSTRAINT", "GROUPS", "ORIGIN")
		for _, c := range v.Constraints {
			table.AddRow(c.Location, c.Constraint, strings.Join(c.Groups, ","), c.Origin)
		}
		table.Render()
	}

	if len(v.Cascaded) > 0 {
		fmt.Fprintln(w)
		ui.Header(w, "Cascaded", noColor)
		table := ui.NewTable(w, noColor, "LOCATION", "CASCADE", "CONVERSIONS")
		for _, c := range v.Cascaded {
			table.AddRow(c.Location, c.Cascade, formatConversions(c.Conversions))
		}
		table.Render()
	}

	if len(v.Executables) > 0 {
		fmt.Fprintln(w)
		ui.Header(w, "Methods", noColor)
		table := ui.NewTable(w, noColor, "METHOD", "RETURN", "PARAMETERS", "OVERRIDES")
		for _, e := range v.Executables {
			table.AddRow(e.Method, e.Return, strings.Join(e.Parameters, "; "), strings.Join(e.Overrides, ", "))
		}
		table.Render()
	}
}

func formatConversions(conversions map[string]string) string {
	from := make([]string, 0, len(conversions))
	for k := range conversions {
		from = append(from, k)
	}
	sort.Strings(from)
	parts := make([]string, len(from))
	for i, k := range from {
		parts[i] = k + "->" + conversions[k]
	}
	return strings.Join(parts, ", ")
}
