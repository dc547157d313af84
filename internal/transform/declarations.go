package transform

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Substitution is a regular expression rewrite. Replacements may use \1 or
// \g<name> group references.
type Substitution struct {
	Pattern *string `yaml:"pattern" json:"pattern"`
	Rep     *string `yaml:"rep" json:"rep"`
}

// Declaration describes how one output field is derived. Field is the
// destination path; without Source the field's own value is used.
type Declaration struct {
	Field      string
	Source     *string
	Split      *string
	Substitute *Substitution
	Embed      string
	Type       string
}

type declarationYAML struct {
	Source     *string       `yaml:"source"`
	Split      yaml.Node     `yaml:"split"`
	Substitute *Substitution `yaml:"substitute"`
	Embed      string        `yaml:"embed"`
	Type       string        `yaml:"type"`
}

// UnmarshalYAML decodes the body of a declaration. Field is set by the
// enclosing Declarations. split accepts a separator string, or true for
// runs of whitespace.
func (d *Declaration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: transform declaration must be a mapping", node.Line)
	}
	var raw declarationYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	d.Source = raw.Source
	d.Substitute = raw.Substitute
	d.Embed = strings.TrimSpace(raw.Embed)
	d.Type = strings.TrimSpace(raw.Type)

	split := raw.Split
	switch {
	case split.Kind == 0:
	case split.ShortTag() == "!!null":
	case split.ShortTag() == "!!bool":
		var on bool
		if err := split.Decode(&on); err != nil {
			return err
		}
		if on {
			empty := ""
			d.Split = &empty
		}
	default:
		sep := split.Value
		d.Split = &sep
	}
	return nil
}

// Declarations are applied in order; later ones may read fields written by
// earlier ones
type Declarations []Declaration

// UnmarshalYAML reads a mapping of field path to declaration, keeping the
// mapping order
func (ds *Declarations) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		*ds = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: transform must be a mapping of field to declaration", node.Line)
	}
	out := make(Declarations, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var d Declaration
		if err := node.Content[i+1].Decode(&d); err != nil {
			return fmt.Errorf("transform %q: %w", node.Content[i].Value, err)
		}
		d.Field = node.Content[i].Value
		out = append(out, d)
	}
	*ds = out
	return nil
}

// ParseDeclarations decodes declarations from YAML or JSON text
func ParseDeclarations(data []byte) (Declarations, error) {
	var ds Declarations
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse transform declarations: %w", err)
	}
	return ds, nil
}
