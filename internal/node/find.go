package node

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// Attr is one attribute filter of a Searcher
type Attr struct {
	Name string
	// Value is matched exactly; an empty Value with Present set only
	// requires the attribute to exist
	Value   string
	Present bool
	Absent  bool
}

// Searcher is a structured node search: any of Tags, filtered by Attrs.
// It is written as {args: [tags, attrs], kwargs: {name: value}}.
type Searcher struct {
	Tags  []string
	Attrs []Attr
}

// Selector translates the search into a CSS selector group
func (s Searcher) Selector() string {
	var filters strings.Builder
	for _, a := range s.Attrs {
		switch {
		case a.Absent:
			fmt.Fprintf(&filters, ":not([%s])", a.Name)
		case a.Present:
			fmt.Fprintf(&filters, "[%s]", a.Name)
		case a.Name == "class" && !strings.ContainsAny(a.Value, " \t\n"):
			fmt.Fprintf(&filters, "[class~=%s]", cssQuote(a.Value))
		default:
			fmt.Fprintf(&filters, "[%s=%s]", a.Name, cssQuote(a.Value))
		}
	}

	tags := s.Tags
	if len(tags) == 0 {
		tags = []string{"*"}
	}
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = tag + filters.String()
	}
	return strings.Join(parts, ", ")
}

func cssQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// UnmarshalYAML reads the {args, kwargs} form
func (s *Searcher) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Args   []yaml.Node          `yaml:"args"`
		Kwargs map[string]yaml.Node `yaml:"kwargs"`
	}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: invalid searcher: %w", node.Line, err)
	}

	out := Searcher{}
	if len(raw.Args) > 0 {
		tags, err := decodeTags(&raw.Args[0])
		if err != nil {
			return err
		}
		out.Tags = tags
	}
	if len(raw.Args) > 1 {
		var attrs map[string]yaml.Node
		if err := raw.Args[1].Decode(&attrs); err != nil {
			return fmt.Errorf("line %d: searcher attrs must be a mapping: %w", raw.Args[1].Line, err)
		}
		if err := out.addAttrs(attrs); err != nil {
			return err
		}
	}
	if err := out.addAttrs(raw.Kwargs); err != nil {
		return err
	}

	*s = out
	return nil
}

func decodeTags(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil, nil
		}
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		var tags []string
		if err := n.Decode(&tags); err != nil {
			return nil, fmt.Errorf("line %d: searcher tags must be strings: %w", n.Line, err)
		}
		return tags, nil
	}
	return nil, fmt.Errorf("line %d: searcher tags must be a string or a list", n.Line)
}

func (s *Searcher) addAttrs(attrs map[string]yaml.Node) error {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := attrs[name]
		attr := Attr{Name: strings.TrimSuffix(name, "_")}
		switch v.ShortTag() {
		case "!!bool":
			var b bool
			if err := v.Decode(&b); err != nil {
				return err
			}
			attr.Present = b
			attr.Absent = !b
		case "!!null":
			attr.Absent = true
		default:
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: searcher attribute %q must be a scalar", v.Line, name)
			}
			attr.Value = v.Value
		}
		s.Attrs = append(s.Attrs, attr)
	}
	return nil
}

// Step is one narrowing stage of a search. A zero Step keeps its input.
type Step struct {
	CSS      string
	Searcher *Searcher
}

// CSSStep builds a step from a selector string
func CSSStep(selector string) Step {
	return Step{CSS: selector}
}

// Self reports whether the step returns its input nodes unchanged
func (s Step) Self() bool {
	return s.CSS == "" && s.Searcher == nil
}

// Selector returns the CSS selector the step runs
func (s Step) Selector() string {
	if s.Searcher != nil {
		return s.Searcher.Selector()
	}
	return s.CSS
}

// UnmarshalYAML accepts a selector string, null or a searcher mapping
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			*s = Step{}
			return nil
		}
		*s = Step{CSS: strings.TrimSpace(node.Value)}
		return nil
	case yaml.MappingNode:
		var searcher Searcher
		if err := searcher.UnmarshalYAML(node); err != nil {
			return err
		}
		*s = Step{Searcher: &searcher}
		return nil
	}
	return fmt.Errorf("line %d: search step must be a selector, null or {args, kwargs}", node.Line)
}

// Chain is a sequence of steps, each searching inside the previous result
type Chain []Step

// UnmarshalYAML accepts a single step or a list of steps
func (c *Chain) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		var step Step
		if err := step.UnmarshalYAML(node); err != nil {
			return err
		}
		*c = Chain{step}
		return nil
	}

	out := make(Chain, 0, len(node.Content))
	for _, item := range node.Content {
		var step Step
		if err := step.UnmarshalYAML(item); err != nil {
			return err
		}
		out = append(out, step)
	}
	*c = out
	return nil
}

// Find runs every step of chain against roots in turn.
// An empty chain returns roots.
func Find(chain Chain, roots *goquery.Selection) *goquery.Selection {
	sel := roots
	for _, step := range chain {
		if sel == nil || sel.Length() == 0 {
			break
		}
		if step.Self() {
			continue
		}
		sel = sel.Find(step.Selector())
	}
	return sel
}

// Nodes splits a selection into single-node selections
func Nodes(sel *goquery.Selection) []*goquery.Selection {
	if sel == nil {
		return nil
	}
	out := make([]*goquery.Selection, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}
