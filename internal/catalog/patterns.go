package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// PatternSet maps labels to pattern lists and keeps labels in insertion order,
// so a saved catalog lists them the way the user wrote them.
type PatternSet struct {
	labels   []string
	patterns map[string][]string
}

// NewPatternSet builds a set from label/patterns pairs in order
func NewPatternSet(pairs ...LabeledPatterns) PatternSet {
	var ps PatternSet
	for _, p := range pairs {
		ps.Set(p.Label, p.Patterns)
	}
	return ps
}

// LabeledPatterns is one entry of a PatternSet
type LabeledPatterns struct {
	Label    string
	Patterns []string
}

// Get returns the patterns under label
func (ps *PatternSet) Get(label string) ([]string, bool) {
	patterns, ok := ps.patterns[label]
	if !ok {
		return nil, false
	}
	return slices.Clone(patterns), true
}

// Set stores patterns under label. An existing label keeps its position.
func (ps *PatternSet) Set(label string, patterns []string) {
	if ps.patterns == nil {
		ps.patterns = make(map[string][]string)
	}
	if _, ok := ps.patterns[label]; !ok {
		ps.labels = append(ps.labels, label)
	}
	if patterns == nil {
		patterns = []string{}
	}
	ps.patterns[label] = slices.Clone(patterns)
}

// Labels returns the labels in order
func (ps *PatternSet) Labels() []string {
	return slices.Clone(ps.labels)
}

func (ps *PatternSet) Len() int {
	return len(ps.labels)
}

// UnmarshalYAML reads a mapping of label to pattern list, keeping document order
func (ps *PatternSet) UnmarshalYAML(node *yaml.Node) error {
	*ps = PatternSet{}
	if node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: patterns must map labels to lists of patterns", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		var label string
		if err := node.Content[i].Decode(&label); err != nil {
			return fmt.Errorf("line %d: invalid pattern label: %w", node.Content[i].Line, err)
		}
		var patterns []string
		if err := node.Content[i+1].Decode(&patterns); err != nil {
			return fmt.Errorf("line %d: patterns for %q must be a list of strings: %w", node.Content[i+1].Line, label, err)
		}
		ps.Set(label, patterns)
	}
	return nil
}

// MarshalYAML writes the set as an ordered mapping
func (ps PatternSet) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, label := range ps.labels {
		var key, value yaml.Node
		if err := key.Encode(label); err != nil {
			return nil, err
		}
		if err := value.Encode(ps.patterns[label]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, &value)
	}
	return node, nil
}

// MarshalJSON writes the set as a JSON object in label order
func (ps PatternSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range ps.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(ps.patterns[label])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Equal reports whether both sets hold the same labels, in the same order,
// with the same patterns.
func (ps PatternSet) Equal(other PatternSet) bool {
	if !slices.Equal(ps.labels, other.labels) {
		return false
	}
	for _, label := range ps.labels {
		if !slices.Equal(ps.patterns[label], other.patterns[label]) {
			return false
		}
	}
	return true
}
