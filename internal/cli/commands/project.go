package commands

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/beanmeta"
	"github.com/conduit-lang/beanmeta/internal/cli/config"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/mapping"
	"github.com/conduit-lang/beanmeta/internal/overridecheck"
	"github.com/conduit-lang/beanmeta/internal/utils"
)

// project is a loaded model with its mapping descriptors applied
type project struct {
	cfg      *config.Config
	logger   *zap.Logger
	graph    *hierarchy.Graph
	mappings *mapping.Result
	registry *beanmeta.Registry
}

// loadProject reads the model and every mapping descriptor named by cfg.
// Mapping directories contribute every descriptor file below them.
// Descriptors without a default package inherit the configured one.
func loadProject(cfg *config.Config, logger *zap.Logger) (*project, error) {
	graph, err := hierarchy.LoadFile(cfg.Model)
	if err != nil {
		return nil, err
	}

	paths, err := utils.ExpandPaths(cfg.Mappings)
	if err != nil {
		return nil, err
	}

	descriptors := make([]*mapping.Descriptor, 0, len(paths))
	for _, path := range paths {
		d, err := mapping.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if d.DefaultPackage == "" {
			d.DefaultPackage = cfg.DefaultPackage
		}
		descriptors = append(descriptors, d)
	}

	result, err := mapping.NewProcessor(graph, mapping.WithLogger(logger)).Process(descriptors...)
	if err != nil {
		return nil, fmt.Errorf("failed to process mappings: %w", err)
	}

	registry := beanmeta.NewRegistry(graph,
		beanmeta.WithLogger(logger),
		beanmeta.WithMappings(result),
		beanmeta.WithDefaultPackage(cfg.DefaultPackage),
		beanmeta.WithParallelism(cfg.Parallelism),
	)

	logger.Debug("loaded project",
		zap.String("model", cfg.Model),
		zap.Int("types", len(graph.Types())),
		zap.Int("mappings", len(descriptors)),
		zap.Stringer("pass", result.ID()),
	)

	return &project{
		cfg:      cfg,
		logger:   logger,
		graph:    graph,
		mappings: result,
		registry: registry,
	}, nil
}

// typeNames returns the names of every non-root type, sorted.
func (p *project) typeNames() []string {
	var names []string
	for _, t := range p.graph.Types() {
		if !p.graph.IsRoot(t) {
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)
	return names
}

// rules resolves the configured rule names; none configured means the
// default rules.
func (p *project) rules() ([]overridecheck.Rule, error) {
	if len(p.cfg.Rules) == 0 {
		return overridecheck.DefaultRules(), nil
	}
	rules := make([]overridecheck.Rule, 0, len(p.cfg.Rules))
	for _, name := range p.cfg.Rules {
		rule, ok := overridecheck.RuleByName(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown rule %q (available: %s)", name, strings.Join(overridecheck.RuleNames(), ", "))
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
