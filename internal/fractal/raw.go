package fractal

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fractalzoo/internal/logging"
)

// RawDescriptor is one catalog metadata record as supplied by the loader.
type RawDescriptor struct {
	Path       string    `yaml:"path" json:"path"`
	Name       string    `yaml:"name" json:"name"`
	Class      string    `yaml:"class" json:"class"`
	Shaders    string    `yaml:"shaders,omitempty" json:"shaders,omitempty"`
	Parameters ParamList `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Thumbnail  string    `yaml:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Palette    string    `yaml:"palette,omitempty" json:"palette,omitempty"`
}

// Param is one named parameter value.
type Param struct {
	Name  string
	Value float32
}

// ParamList keeps parameters in document order.
type ParamList []Param

func (l *ParamList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("parameters: line %d: expected a mapping", n.Line)
	}
	out := make(ParamList, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var v float32
		if err := val.Decode(&v); err != nil {
			return fmt.Errorf("parameter %q: %w", key.Value, err)
		}
		out = append(out, Param{Name: key.Value, Value: v})
	}
	*l = out
	return nil
}

func (l ParamList) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range l {
		var k, v yaml.Node
		if err := k.Encode(p.Name); err != nil {
			return nil, err
		}
		if err := v.Encode(p.Value); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &k, &v)
	}
	return n, nil
}

// SplitPath splits a pipe-delimited catalog path. Trailing empty segments
// are dropped and a leading root label is stripped.
func SplitPath(path string) []string {
	segs := strings.Split(path, "|")
	for len(segs) > 0 && segs[len(segs)-1] == "" {
		segs = segs[:len(segs)-1]
	}
	if len(segs) > 0 && segs[0] == RootLabel {
		segs = segs[1:]
	}
	return segs
}

// DecodeCatalog reads a list of metadata records. JSON documents are
// accepted since they are valid YAML. Records that fail to decode are logged
// and skipped; the error is non-nil only when the document itself is not a
// list.
func DecodeCatalog(r io.Reader) ([]RawDescriptor, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	seq := &doc
	if seq.Kind == yaml.DocumentNode && len(seq.Content) == 1 {
		seq = seq.Content[0]
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, ErrNotSequence
	}

	log := logging.Logger()
	out := make([]RawDescriptor, 0, len(seq.Content))
	for i, n := range seq.Content {
		var raw RawDescriptor
		if err := n.Decode(&raw); err != nil {
			log.Warn("skipping catalog entry", "err", &EntryError{Index: i, Wrapped: err})
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}
