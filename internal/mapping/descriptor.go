// Package mapping applies external constraint descriptors to the hierarchy.
//
// A descriptor configures beans from outside the model: class-level
// constraints, fields, getters, method return values and parameters, a
// redefined default group sequence, and whether the annotations of the model
// are ignored for a member or a whole class. One call to Processor.Process is
// one descriptor pass; its Result is a constraint.Source for the aggregator.
package mapping

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/beanmeta/internal/hierarchy"
)

// Descriptor is the on-disk form of a mapping file.
//
//	default_package: com.acme
//	beans:
//	  - class: Person
//	    ignore_annotations: true
//	    fields:
//	      - name: age
//	        constraints:
//	          - name: Min
//	            attributes: {value: "18"}
type Descriptor struct {
	DefaultPackage string        `yaml:"default_package,omitempty"`
	Beans          []BeanMapping `yaml:"beans"`

	// Source names the file the descriptor was read from, if any.
	Source string `yaml:"-"`
}

// BeanMapping configures one bean type.
type BeanMapping struct {
	Class string `yaml:"class"`

	// IgnoreAnnotations is the default for every member of the class that
	// has no setting of its own.
	IgnoreAnnotations *bool `yaml:"ignore_annotations,omitempty"`

	// ClassIgnoreAnnotations applies to the class-level constraints only.
	ClassIgnoreAnnotations *bool                  `yaml:"class_ignore_annotations,omitempty"`
	Constraints            []hierarchy.Annotation `yaml:"constraints,omitempty"`
	GroupSequence          []string               `yaml:"group_sequence,omitempty"`

	Fields  []MemberMapping `yaml:"fields,omitempty"`
	Getters []MemberMapping `yaml:"getters,omitempty"`
	Methods []MethodMapping `yaml:"methods,omitempty"`
}

// MemberMapping configures a field or a getter by name.
type MemberMapping struct {
	Name              string                 `yaml:"name"`
	IgnoreAnnotations *bool                  `yaml:"ignore_annotations,omitempty"`
	Valid             bool                   `yaml:"valid,omitempty"`
	ConvertGroups     []hierarchy.Conversion `yaml:"convert_groups,omitempty"`
	Constraints       []hierarchy.Annotation `yaml:"constraints,omitempty"`
}

// SlotMapping configures a method parameter or return value.
type SlotMapping struct {
	IgnoreAnnotations *bool                  `yaml:"ignore_annotations,omitempty"`
	Valid             bool                   `yaml:"valid,omitempty"`
	ConvertGroups     []hierarchy.Conversion `yaml:"convert_groups,omitempty"`
	Constraints       []hierarchy.Annotation `yaml:"constraints,omitempty"`
}

// ParamMapping configures one parameter; Type selects the overload.
type ParamMapping struct {
	Type        string `yaml:"type"`
	SlotMapping `yaml:",inline"`
}

// MethodMapping configures one method, selected by name and parameter types.
type MethodMapping struct {
	Name              string         `yaml:"name"`
	IgnoreAnnotations *bool          `yaml:"ignore_annotations,omitempty"`
	Params            []ParamMapping `yaml:"params,omitempty"`
	Returns           *SlotMapping   `yaml:"returns,omitempty"`
}

// ParamTypes returns the declared parameter types that select the overload.
func (m MethodMapping) ParamTypes() []string {
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	return types
}

// Decode reads one descriptor. Unknown keys are rejected.
func Decode(r io.Reader) (*Descriptor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return &d, nil
		}
		return nil, fmt.Errorf("failed to decode mapping: %w", err)
	}
	return &d, nil
}

// LoadFile reads a descriptor from disk.
func LoadFile(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping %s: %w", path, err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	return d, nil
}
