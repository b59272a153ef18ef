package beanmeta

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/conduit-lang/beanmeta/internal/constraint"
	"github.com/conduit-lang/beanmeta/internal/hierarchy"
	"github.com/conduit-lang/beanmeta/internal/location"
	"github.com/conduit-lang/beanmeta/internal/mapping"
	"github.com/conduit-lang/beanmeta/internal/metaerr"
)

const beanModel = `
types:
  - name: acme.Named
    interface: true
    methods:
      - name: getName
        returns:
          type: String
          constraints:
            - name: acme.NotBlank
  - name: acme.Audited
    interface: true
    constraints:
      - name: acme.AuditTrail
  - name: acme.Identified
    interface: true
    interfaces: [acme.Audited]
    methods:
      - name: getId
        returns:
          type: Long
          constraints:
            - name: acme.NotNull
  - name: acme.Base
    interfaces: [acme.Audited]
    constraints:
      - name: acme.ValidBase
    fields:
      - name: id
        type: Long
        constraints:
          - name: acme.NotNull
    methods:
      - name: validate
        returns: {type: Report, valid: true}
      - name: save
        params:
          - type: String
            constraints:
              - name: acme.NotNull
      - name: isActive
        returns: {type: boolean}
      - name: audit
        private: true
        returns: {type: Report}
  - name: acme.Person
    super: acme.Base
    interfaces: [acme.Named, acme.Identified]
    fields:
      - name: age
        type: int
        constraints:
          - name: acme.Min
      - name: addresses
        type: Address[]
        valid: true
    methods:
      - name: getName
        returns: {type: String}
      - name: save
        params:
          - type: String
            valid: true
      - name: validate
        returns:
          type: Report
          valid: true
          convert_groups:
            - {from: Default, to: acme.Basic}
      - name: of
        static: true
        returns: {type: acme.Person}
  - name: acme.Employee
    super: acme.Person
    group_sequence: [acme.Employee, acme.Strict]
  - name: acme.Unsequenced
    group_sequence: [acme.Strict]
  - name: acme.DefaultSequenced
    group_sequence: [acme.DefaultSequenced, Default]
`

func newGraph(t *testing.T) *hierarchy.Graph {
	t.Helper()
	g, err := hierarchy.Decode(strings.NewReader(beanModel))
	require.NoError(t, err)
	return g
}

func newRegistry(t *testing.T, opts ...Option) (*Registry, *hierarchy.Graph) {
	t.Helper()
	g := newGraph(t)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewRegistry(g, opts...), g
}

func predicates(records []*constraint.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.String()
	}
	return out
}

func TestMetaConstraints(t *testing.T) {
	r, _ := newRegistry(t)
	md, err := r.BeanMetaData("acme.Person")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"acme.AuditTrail@acme.Audited",
		"acme.ValidBase@acme.Base",
		"acme.NotNull@acme.Base.id",
		"acme.NotNull@acme.Base#save(String)[0]",
		"acme.NotNull@acme.Identified#getId()",
		"acme.NotBlank@acme.Named#getName()",
		"acme.Min@acme.Person.age",
	}, predicates(md.MetaConstraints()))

	assert.ElementsMatch(t, []string{
		"acme.AuditTrail@acme.Audited",
		"acme.NotNull@acme.Identified#getId()",
		"acme.NotBlank@acme.Named#getName()",
		"acme.Min@acme.Person.age",
	}, predicates(md.DirectMetaConstraints()))

	assert.True(t, md.HasConstraints())
}

func TestMetaConstraintsContainDirectConstraints(t *testing.T) {
	r, g := newRegistry(t)
	for _, typ := range g.Types() {
		if g.IsRoot(typ) || len(typ.GroupSequence) > 0 {
			continue
		}
		md, err := r.BeanMetaDataFor(typ)
		require.NoError(t, err, typ.Name)

		all := make(map[*constraint.Record]bool)
		for _, rec := range md.MetaConstraints() {
			all[rec] = true
		}
		for _, rec := range md.DirectMetaConstraints() {
			assert.True(t, all[rec], "%s: %s", typ.Name, rec)
		}
	}
}

func TestCascadedLocations(t *testing.T) {
	r, g := newRegistry(t)
	md, err := r.BeanMetaData("acme.Person")
	require.NoError(t, err)

	var got []string
	for _, loc := range md.CascadedLocations() {
		got = append(got, loc.String())
	}
	assert.Equal(t, []string{
		"acme.Base#validate()<return>",
		"acme.Person#save(String)[0]",
		"acme.Person#validate()<return>",
		"acme.Person.addresses",
	}, got)

	person, _ := g.Lookup("acme.Person")
	addresses, _ := person.Field("addresses")
	cascade, conversions := md.CascadeAt(location.ForField(addresses))
	assert.Equal(t, constraint.CascadeArrayElement, cascade)
	assert.Empty(t, conversions)

	age, _ := person.Field("age")
	cascade, _ = md.CascadeAt(location.ForField(age))
	assert.Equal(t, constraint.CascadeNone, cascade)
	assert.Equal(t, []string{"acme.Min@acme.Person.age"}, predicates(md.ConstraintsAt(location.ForField(age))))
}

func TestExecutableMetaData(t *testing.T) {
	r, g := newRegistry(t)
	md, err := r.BeanMetaData("acme.Person")
	require.NoError(t, err)

	var signatures []string
	for _, e := range md.Executables() {
		signatures = append(signatures, e.Signature())
	}
	assert.Equal(t, []string{"getId()", "getName()", "isActive()", "save(String)", "validate()"}, signatures)

	t.Run("return constraints merged from interface", func(t *testing.T) {
		e, ok := md.MetaDataForSignature("getName()")
		require.True(t, ok)
		assert.Equal(t, "acme.Person", e.Method().Declaring.Name)
		require.Len(t, e.Overridden(), 1)
		assert.Equal(t, "acme.Named", e.Overridden()[0].Declaring.Name)
		assert.Equal(t, []string{"acme.NotBlank@acme.Named#getName()"}, predicates(e.ReturnValueConstraints()))
		assert.True(t, e.IsConstrained())
	})

	t.Run("cascading and conversions merged from superclass", func(t *testing.T) {
		base, _ := g.Lookup("acme.Base")
		baseValidate, _ := base.Method("validate()")

		// any declaration of the identity resolves to the same view
		e, ok := md.MetaDataFor(baseValidate)
		require.True(t, ok)
		assert.Equal(t, "acme.Person", e.Method().Declaring.Name)
		assert.Equal(t, constraint.CascadeObject, e.ReturnValueCascade())
		assert.Equal(t, map[string]string{constraint.DefaultGroup: "acme.Basic"}, e.ReturnValueGroupConversions())
	})

	t.Run("parameters merged", func(t *testing.T) {
		e, ok := md.MetaDataForSignature("save(String)")
		require.True(t, ok)
		params := e.Parameters()
		require.Len(t, params, 1)
		assert.Equal(t, 0, params[0].Index)
		assert.Equal(t, "String", params[0].Type.String())
		assert.Equal(t, []string{"acme.NotNull@acme.Base#save(String)[0]"}, predicates(params[0].Constraints))
		assert.Equal(t, constraint.CascadeObject, params[0].Cascade)
		assert.True(t, params[0].IsConstrained())

		params[0].Constraints = nil
		assert.Len(t, e.Parameters()[0].Constraints, 1)
	})

	t.Run("unconstrained accessor", func(t *testing.T) {
		e, ok := md.MetaDataForSignature("isActive()")
		require.True(t, ok)
		assert.False(t, e.IsConstrained())
	})

	t.Run("static and inherited private methods are not visible", func(t *testing.T) {
		_, ok := md.MetaDataForSignature("of()")
		assert.False(t, ok)
		_, ok = md.MetaDataForSignature("audit()")
		assert.False(t, ok)
		_, ok = md.MetaDataFor(nil)
		assert.False(t, ok)
	})
}

const inheritedImplementationModel = `
types:
  - name: acme.Finder
    interface: true
    methods:
      - name: find
        params:
          - type: String
            constraints:
              - name: acme.NotNull
        returns:
          type: String
          constraints:
            - name: acme.NotBlank
  - name: acme.Base
    methods:
      - name: find
        params:
          - type: String
        returns: {type: String}
  - name: acme.Mid
    super: acme.Base
  - name: acme.Repo
    super: acme.Base
    interfaces: [acme.Finder]
  - name: acme.DeepRepo
    super: acme.Mid
    interfaces: [acme.Finder]
`

func TestExecutableMetaDataInheritedImplementation(t *testing.T) {
	g, err := hierarchy.Decode(strings.NewReader(inheritedImplementationModel))
	require.NoError(t, err)
	r := NewRegistry(g, WithLogger(zaptest.NewLogger(t)))

	for _, name := range []string{"acme.Repo", "acme.DeepRepo"} {
		t.Run(name, func(t *testing.T) {
			md, err := r.BeanMetaData(name)
			require.NoError(t, err)

			e, ok := md.MetaDataForSignature("find(String)")
			require.True(t, ok)
			assert.Equal(t, "acme.Base", e.Method().Declaring.Name)
			require.Len(t, e.Overridden(), 1)
			assert.Equal(t, "acme.Finder", e.Overridden()[0].Declaring.Name)
			assert.Equal(t, []string{"acme.NotBlank@acme.Finder#find(String)<return>"}, predicates(e.ReturnValueConstraints()))

			params := e.Parameters()
			require.Len(t, params, 1)
			assert.Equal(t, []string{"acme.NotNull@acme.Finder#find(String)[0]"}, predicates(params[0].Constraints))
			assert.True(t, e.IsConstrained())
		})
	}

	t.Run("superclass alone keeps its own view", func(t *testing.T) {
		md, err := r.BeanMetaData("acme.Base")
		require.NoError(t, err)
		e, ok := md.MetaDataForSignature("find(String)")
		require.True(t, ok)
		assert.Empty(t, e.Overridden())
		assert.False(t, e.IsConstrained())
	})
}

func TestPropertiesAndClassHierarchy(t *testing.T) {
	r, _ := newRegistry(t)
	md, err := r.BeanMetaData("acme.Employee")
	require.NoError(t, err)

	for _, name := range []string{"age", "addresses", "id", "name", "active"} {
		assert.True(t, md.IsPropertyPresent(name), name)
	}
	assert.False(t, md.IsPropertyPresent("salary"))
	assert.False(t, md.IsPropertyPresent("validate"))

	var names []string
	for _, typ := range md.ClassHierarchy() {
		names = append(names, typ.Name)
	}
	assert.Equal(t, []string{"acme.Employee", "acme.Person", "acme.Base"}, names)
}

func TestDefaultGroupSequence(t *testing.T) {
	t.Run("identity sequence", func(t *testing.T) {
		r, _ := newRegistry(t)
		md, err := r.BeanMetaData("acme.Person")
		require.NoError(t, err)

		seq, err := md.DefaultGroupSequence(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"acme.Person"}, seq)
		assert.False(t, md.DefaultGroupSequenceIsRedefined())
		assert.False(t, md.HasGroupSequenceProvider())
	})

	t.Run("static sequence from model", func(t *testing.T) {
		r, _ := newRegistry(t)
		md, err := r.BeanMetaData("acme.Employee")
		require.NoError(t, err)

		seq, err := md.DefaultGroupSequence(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"acme.Employee", "acme.Strict"}, seq)
		assert.True(t, md.DefaultGroupSequenceIsRedefined())

		seq[0] = "MODIFIED"
		again, _ := md.DefaultGroupSequence(nil)
		assert.Equal(t, "acme.Employee", again[0])
	})

	t.Run("static sequence from options", func(t *testing.T) {
		r, _ := newRegistry(t, WithGroupSequences(map[string][]string{
			"acme.Person": {"acme.First", "acme.Person"},
		}))
		md, err := r.BeanMetaData("acme.Person")
		require.NoError(t, err)
		seq, err := md.DefaultGroupSequence(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"acme.First", "acme.Person"}, seq)
	})

	t.Run("provider", func(t *testing.T) {
		provider := GroupSequenceProviderFunc(func(bean any) []string {
			if bean == "premium" {
				return []string{"acme.Person", "acme.Premium"}
			}
			if bean == "broken" {
				return []string{"acme.Premium"}
			}
			return []string{"acme.Person"}
		})
		r, _ := newRegistry(t, WithGroupSequenceProvider("acme.Person", provider))
		md, err := r.BeanMetaData("acme.Person")
		require.NoError(t, err)
		assert.True(t, md.HasGroupSequenceProvider())
		assert.True(t, md.DefaultGroupSequenceIsRedefined())

		seq, err := md.DefaultGroupSequence("premium")
		require.NoError(t, err)
		assert.Equal(t, []string{"acme.Person", "acme.Premium"}, seq)

		_, err = md.DefaultGroupSequence("broken")
		assert.True(t, metaerr.IsConfiguration(err))
	})

	t.Run("provider and static sequence", func(t *testing.T) {
		provider := GroupSequenceProviderFunc(func(any) []string { return []string{"acme.Employee"} })
		r, _ := newRegistry(t, WithGroupSequenceProvider("acme.Employee", provider))
		_, err := r.BeanMetaData("acme.Employee")
		require.Error(t, err)
		assert.True(t, errors.Is(err, metaerr.ErrConfiguration))
	})

	t.Run("sequence without bean type", func(t *testing.T) {
		r, _ := newRegistry(t)
		_, err := r.BeanMetaData("acme.Unsequenced")
		assert.True(t, metaerr.IsConfiguration(err))
	})

	t.Run("sequence containing the default group", func(t *testing.T) {
		r, _ := newRegistry(t)
		_, err := r.BeanMetaData("acme.DefaultSequenced")
		assert.True(t, metaerr.IsConfiguration(err))
	})
}

func TestAggregateConflictingConversions(t *testing.T) {
	g := newGraph(t)
	person, _ := g.Lookup("acme.Person")
	addresses, _ := person.Field("addresses")
	loc := location.ForField(addresses)

	elements := []*constraint.Element{
		{Origin: constraint.OriginAnnotation, Location: loc, Cascade: constraint.CascadeArrayElement, GroupConversions: map[string]string{"A": "B"}},
		{Origin: constraint.OriginMapping, Location: loc, Cascade: constraint.CascadeArrayElement, GroupConversions: map[string]string{"A": "C"}},
	}

	_, err := NewAggregator(g).Aggregate(person, elements)
	assert.True(t, metaerr.IsConfiguration(err))
}

func TestAggregateIgnoresForeignElements(t *testing.T) {
	g := newGraph(t)
	person, _ := g.Lookup("acme.Person")
	unsequenced, _ := g.Lookup("acme.Unsequenced")

	foreign, err := constraint.NewBuilder(constraint.OriginMapping, nil).Build(location.ForType(unsequenced),
		constraint.Member{Constraints: []hierarchy.Annotation{{Name: "acme.Foreign"}}}, "")
	require.NoError(t, err)

	md, err := NewAggregator(g).Aggregate(person, []*constraint.Element{foreign})
	require.NoError(t, err)
	assert.Empty(t, md.MetaConstraints())
	assert.False(t, md.HasConstraints())
}

func TestRegistryWithMappings(t *testing.T) {
	g := newGraph(t)
	d, err := mapping.Decode(strings.NewReader(`
default_package: acme
beans:
  - class: Person
    group_sequence: [Person, Extended]
    fields:
      - name: age
        ignore_annotations: true
        constraints:
          - name: Max
`))
	require.NoError(t, err)

	result, err := mapping.NewProcessor(g).Process(d)
	require.NoError(t, err)

	r := NewRegistry(g, WithMappings(result), WithLogger(zaptest.NewLogger(t)))
	md, err := r.BeanMetaData("acme.Person")
	require.NoError(t, err)

	person, _ := g.Lookup("acme.Person")
	age, _ := person.Field("age")
	ageConstraints := md.ConstraintsAt(location.ForField(age))
	require.Len(t, ageConstraints, 1)
	assert.Equal(t, "acme.Max", ageConstraints[0].Predicate())
	assert.Equal(t, constraint.OriginMapping, ageConstraints[0].Origin())

	seq, err := md.DefaultGroupSequence(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.Person", "acme.Extended"}, seq)
}

func TestRegistryPublishesOnce(t *testing.T) {
	r, _ := newRegistry(t)

	const workers = 64
	results := make([]*BeanMetaData, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			md, err := r.BeanMetaData("acme.Person")
			if err == nil {
				results[i] = md
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.NotNil(t, results[0])
	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, []string{"acme.Person"}, r.Published())
}

func TestRegistryUnknownType(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.BeanMetaData("acme.Ghost")
	assert.True(t, metaerr.IsNotFound(err))

	_, err = r.BeanMetaDataFor(nil)
	assert.True(t, metaerr.IsNotFound(err))
	assert.Empty(t, r.Published())
}

func TestWarmUp(t *testing.T) {
	t.Run("builds every type", func(t *testing.T) {
		r, _ := newRegistry(t, WithParallelism(2))
		names := []string{"acme.Base", "acme.Person", "acme.Employee", "acme.Named"}
		require.NoError(t, r.WarmUp(context.Background(), names))
		assert.Equal(t, []string{"acme.Base", "acme.Employee", "acme.Named", "acme.Person"}, r.Published())
	})

	t.Run("reports the first error", func(t *testing.T) {
		r, _ := newRegistry(t)
		err := r.WarmUp(context.Background(), []string{"acme.Unsequenced"})
		require.Error(t, err)
		assert.True(t, metaerr.IsConfiguration(err))
		assert.Contains(t, err.Error(), "acme.Unsequenced")
	})

	t.Run("cancelled context", func(t *testing.T) {
		r, _ := newRegistry(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := r.WarmUp(ctx, []string{"acme.Person"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, r.Published())
	})

	t.Run("context done after every build succeeded", func(t *testing.T) {
		r, _ := newRegistry(t)
		names := []string{"acme.Base", "acme.Person"}
		require.NoError(t, r.WarmUp(lateCancelContext{context.Background()}, names))
		assert.Equal(t, []string{"acme.Base", "acme.Person"}, r.Published())
	})
}

// lateCancelContext reports cancellation without ever closing Done, so the
// builds it spawns still run to completion.
type lateCancelContext struct {
	context.Context
}

func (lateCancelContext) Err() error { return context.Canceled }
