package beanmeta

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/constraint"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/mapping"
)

// Option configures an Aggregator or a Registry.
type Option func(*config)

type config struct {
	logger         *zap.Logger
	providers      map[string]GroupSequenceProvider
	sequences      map[string][]string
	sources        []constraint.Source
	mappings       []*mapping.Result
	defaultPackage string
	parallelism    int
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:      zap.NewNop(),
		providers:   make(map[string]GroupSequenceProvider),
		sequences:   make(map[string][]string),
		parallelism: 4,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithGroupSequenceProvider registers a dynamic default group sequence for
// the named bean type.
func WithGroupSequenceProvider(bean string, provider GroupSequenceProvider) Option {
	return func(c *config) {
		c.providers[bean] = provider
	}
}

// WithGroupSequences redefines the static default group sequence of bean
// types, keyed by type name. These take precedence over sequences declared in
// the model and in mapping results.
func WithGroupSequences(sequences map[string][]string) Option {
	return func(c *config) {
		for bean, seq := range sequences {
			c.sequences[bean] = append([]string(nil), seq...)
		}
	}
}

// WithSources adds constraint sources besides the model annotations.
func WithSources(sources ...constraint.Source) Option {
	return func(c *config) {
		c.sources = append(c.sources, sources...)
	}
}

// WithMappings adds the results of descriptor passes: their elements, their
// redefined group sequences and their annotation suppressions.
func WithMappings(results ...*mapping.Result) Option {
	return func(c *config) {
		for _, r := range results {
			if r != nil {
				c.mappings = append(c.mappings, r)
			}
		}
	}
}

// WithDefaultPackage sets the package used to qualify names in model
// annotations.
func WithDefaultPackage(pkg string) Option {
	return func(c *config) {
		c.defaultPackage = pkg
	}
}

// WithParallelism bounds the number of concurrent builds during WarmUp.
func WithParallelism(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

func (c *config) aggregator(h hierarchy.Hierarchy) *Aggregator {
	sequences := make(map[string][]string)
	for _, r := range c.mappings {
		for bean, seq := range r.GroupSequences() {
			sequences[bean] = seq
		}
	}
	for bean, seq := range c.sequences {
		sequences[bean] = seq
	}

	providers := make(map[string]GroupSequenceProvider, len(c.providers))
	for bean, p := range c.providers {
		providers[bean] = p
	}

	return &Aggregator{
		h:         h,
		providers: providers,
		sequences: sequences,
		logger:    c.logger,
	}
}

// allSources returns the annotation source, honoring the suppressions of
// every mapping result, followed by the mapping results and extra sources.
func (c *config) allSources() []constraint.Source {
	suppressions := make([]*constraint.Suppressions, 0, len(c.mappings))
	for _, r := range c.mappings {
		suppressions = append(suppressions, r.Suppressions())
	}

	sources := []constraint.Source{
		constraint.NewAnnotationSource(constraint.Merge(suppressions...), c.defaultPackage, constraint.WithLogger(c.logger)),
	}
	for _, r := range c.mappings {
		sources = append(sources, r)
	}
	return append(sources, c.sources...)
}
