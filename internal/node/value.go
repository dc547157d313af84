package node

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/extracthttp-go/internal/record"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

// Descriptor is a field descriptor: one format string, or a list of them
// each searching inside the matches of the previous one
type Descriptor []string

// UnmarshalYAML accepts a string or a list of strings
func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*d = Descriptor{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return fmt.Errorf("line %d: descriptor list must hold strings: %w", node.Line, err)
		}
		*d = Descriptor(items)
		return nil
	}
	return fmt.Errorf("line %d: descriptor must be a string or a list of strings", node.Line)
}

// String joins the chain for diagnostics
func (d Descriptor) String() string {
	return strings.Join(d, " | ")
}

// Parse parses every element of the chain. Cell descriptors may omit the
// selector to read the node itself.
func (d Descriptor) Parse(cell bool) ([]Format, error) {
	if len(d) == 0 {
		return nil, &FormatError{Format: "", Reason: "empty descriptor"}
	}
	out := make([]Format, len(d))
	for i, s := range d {
		var (
			f   Format
			err error
		)
		if cell {
			f, err = ParseCellFormat(s)
		} else {
			f, err = ParseFormat(s)
		}
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Resolver turns parsed descriptors into record values
type Resolver struct {
	markdown MarkdownConverter
	logger   *utils.Logger
}

// ResolverOptions configures a Resolver
type ResolverOptions struct {
	Markdown MarkdownConverter
	Logger   *utils.Logger
}

// NewResolver creates a resolver
func NewResolver(opts ResolverOptions) *Resolver {
	return &Resolver{
		markdown: opts.Markdown,
		logger:   utils.OrNop(opts.Logger).WithComponent("node"),
	}
}

// Value parses desc and resolves it against roots
func (r *Resolver) Value(desc Descriptor, roots *goquery.Selection) (record.Value, error) {
	formats, err := desc.Parse(false)
	if err != nil {
		return record.Null(), err
	}
	return r.Resolve(formats, roots), nil
}

// Resolve walks the format chain from roots. Every format narrows the node
// set by its selector (and index, when given); the last one decides what is
// read. Without an index the result is a list with one entry per match.
// Nothing matched, or an index out of range, yields Null.
func (r *Resolver) Resolve(formats []Format, roots *goquery.Selection) record.Value {
	if len(formats) == 0 || roots == nil {
		return record.Null()
	}

	sel := roots
	for i, f := range formats {
		if f.Selector != "" {
			sel = sel.Find(f.Selector)
		}
		if sel.Length() == 0 {
			return record.Null()
		}
		if f.Index == nil || i == len(formats)-1 {
			continue
		}
		picked, ok := pick(sel, *f.Index)
		if !ok {
			r.warnIndex(f, sel.Length())
			return record.Null()
		}
		sel = picked
	}

	last := formats[len(formats)-1]
	if last.Index == nil {
		nodes := Nodes(sel)
		items := make([]record.Value, len(nodes))
		for i, n := range nodes {
			items[i] = r.read(n, last)
		}
		return record.List(items...)
	}

	picked, ok := pick(sel, *last.Index)
	if !ok {
		r.warnIndex(last, sel.Length())
		return record.Null()
	}
	return r.read(picked, last)
}

func (r *Resolver) read(n *goquery.Selection, f Format) record.Value {
	s, ok := Read(n, f.Source, f.SubSource, r.markdown)
	if !ok {
		return record.Null()
	}
	return record.String(Normalize(s))
}

func (r *Resolver) warnIndex(f Format, matches int) {
	r.logger.Warn().
		Str("descriptor", f.String()).
		Int("index", *f.Index).
		Int("matches", matches).
		Msg("Node index out of range")
}

// pick returns the node at index; negative indices count from the end
func pick(sel *goquery.Selection, index int) (*goquery.Selection, bool) {
	n := sel.Length()
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, false
	}
	return sel.Eq(index), true
}
