package hierarchy

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Model is the on-disk form of a hierarchy as written by a front-end.
//
//	root: Object
//	types:
//	  - name: com.acme.Base
//	    methods:
//	      - name: validate
//	        returns: {type: Report, valid: true}
//	  - name: com.acme.Sub
//	    super: com.acme.Base
type Model struct {
	Root  string  `yaml:"root,omitempty"`
	Types []*Type `yaml:"types"`
}

// UnmarshalYAML decodes a TypeRef from its declared form ("String[]").
func (r *TypeRef) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: type reference must be a string: %w", value.Line, err)
	}
	*r = ParseTypeRef(s)
	return nil
}

// MarshalYAML encodes a TypeRef in its declared form.
func (r TypeRef) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// Decode reads a model document and links it into a Graph.
func Decode(r io.Reader) (*Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var model Model
	if err := dec.Decode(&model); err != nil {
		if err == io.EOF {
			return NewGraph(DefaultRoot)
		}
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}

	return NewGraph(model.Root, model.Types...)
}

// LoadFile reads a model file from disk.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", path, err)
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
