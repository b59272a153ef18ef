package beanmeta

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/conduit-lang/beanmeta/internal/constraint"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

// Registry builds BeanMetaData on first request and publishes it exactly
// once per type. Published metadata is immutable and shared without locks.
type Registry struct {
	h           hierarchy.Hierarchy
	aggregator  *Aggregator
	sources     []constraint.Source
	logger      *zap.Logger
	parallelism int

	cache sync.Map // type name -> *BeanMetaData
	group singleflight.Group
}

// NewRegistry creates a registry over h. The model annotations are always a
// source; mapping results and extra sources are added through options.
func NewRegistry(h hierarchy.Hierarchy, opts ...Option) *Registry {
	cfg := newConfig(opts)
	return &Registry{
		h:           h,
		aggregator:  cfg.aggregator(h),
		sources:     cfg.allSources(),
		logger:      cfg.logger,
		parallelism: cfg.parallelism,
	}
}

// BeanMetaData returns the metadata of the named type, building it if needed.
func (r *Registry) BeanMetaData(name string) (*BeanMetaData, error) {
	// Fast path: already published
	if md, ok := r.cache.Load(name); ok {
		return md.(*BeanMetaData), nil
	}

	v, err, shared := r.group.Do(name, func() (interface{}, error) {
		if md, ok := r.cache.Load(name); ok {
			return md, nil
		}

		t, ok := r.h.Lookup(name)
		if !ok {
			return nil, metaerr.NewTypeNotFoundError(name)
		}
		md, err := r.build(t)
		if err != nil {
			return nil, err
		}

		actual, loaded := r.cache.LoadOrStore(name, md)
		if !loaded {
			r.logger.Debug("published bean metadata", zap.String("bean", name))
		}
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("shared bean metadata build", zap.String("bean", name))
	}
	return v.(*BeanMetaData), nil
}

// BeanMetaDataFor returns the metadata of t.
func (r *Registry) BeanMetaDataFor(t *hierarchy.Type) (*BeanMetaData, error) {
	if t == nil {
		return nil, metaerr.NewTypeNotFoundError("<nil>")
	}
	return r.BeanMetaData(t.Name)
}

// WarmUp builds the metadata of every named type in parallel. It stops
// scheduling builds when ctx is done and returns the first error. Once every
// build has succeeded it returns nil, even if ctx is done by then.
func (r *Registry) WarmUp(ctx context.Context, names []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	scheduled := 0
	for _, name := range names {
		if gctx.Err() != nil {
			break
		}
		scheduled++
		name := name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := r.BeanMetaData(name); err != nil {
				return fmt.Errorf("failed to build metadata for %s: %w", name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if scheduled < len(names) {
		return ctx.Err()
	}
	return nil
}

// Published returns the names of every type whose metadata has been built.
func (r *Registry) Published() []string {
	var names []string
	r.cache.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

func (r *Registry) build(t *hierarchy.Type) (*BeanMetaData, error) {
	types := append([]*hierarchy.Type{t}, hierarchy.Ancestors(r.h, t)...)

	var elements []*constraint.Element
	for _, source := range r.sources {
		for _, typ := range types {
			found, err := source.ElementsFor(typ)
			if err != nil {
				return nil, fmt.Errorf("failed to read constraints of %s: %w", typ.Name, err)
			}
			elements = append(elements, found...)
		}
	}

	return r.aggregator.Aggregate(t, elements)
}
