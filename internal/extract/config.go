package extract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/node"
	"github.com/quantmind-br/extracthttp-go/internal/record"
	"github.com/quantmind-br/extracthttp-go/internal/table"
	"github.com/quantmind-br/extracthttp-go/internal/transform"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Config describes one extraction: where the document comes from, how it is
// read and how the resulting records are transformed
type Config struct {
	Name string              `yaml:"name"`
	Type domain.DocumentType `yaml:"type"`
	// URL and File may hold {param} placeholders
	URL  string `yaml:"url"`
	File string `yaml:"file"`
	// Params are query parameters; runtime params override declared values
	Params map[string]string `yaml:"params"`

	// Content narrows html pages before locate groups run: "readability"
	// or a CSS selector
	Content          string     `yaml:"content"`
	Sanitize         bool       `yaml:"sanitize"`
	RemoveNavigation bool       `yaml:"remove_navigation"`
	RenderJS         RenderMode `yaml:"render_js"`
	WaitFor          string     `yaml:"wait_for"`

	Locate []LocateGroup `yaml:"locate"`
	// Transform applies to json documents; html groups carry their own
	Transform transform.Declarations `yaml:"transform"`
}

// RenderMode selects when html pages go through the headless browser
type RenderMode string

const (
	RenderOff  RenderMode = ""
	RenderOn   RenderMode = "always"
	RenderAuto RenderMode = "auto"
)

// UnmarshalYAML accepts a boolean or "auto"
func (m *RenderMode) UnmarshalYAML(n *yaml.Node) error {
	if n.ShortTag() == "!!bool" {
		var on bool
		if err := n.Decode(&on); err != nil {
			return err
		}
		*m = RenderOff
		if on {
			*m = RenderOn
		}
		return nil
	}
	switch v := RenderMode(strings.ToLower(strings.TrimSpace(n.Value))); v {
	case RenderOff, RenderOn, RenderAuto:
		*m = v
		return nil
	case "false", "never":
		*m = RenderOff
		return nil
	case "true":
		*m = RenderOn
		return nil
	}
	return fmt.Errorf("line %d: render_js must be true, false or auto", n.Line)
}

// Field pairs an output field name with the descriptor that reads it
type Field struct {
	Name       string
	Descriptor node.Descriptor
}

// Fields keep the order they were declared in
type Fields []Field

// UnmarshalYAML reads a mapping of field name to descriptor
func (fs *Fields) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of field to descriptor", n.Line)
	}
	out := make(Fields, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var d node.Descriptor
		if err := n.Content[i+1].Decode(&d); err != nil {
			return fmt.Errorf("field %q: %w", n.Content[i].Value, err)
		}
		out = append(out, Field{Name: n.Content[i].Value, Descriptor: d})
	}
	*fs = out
	return nil
}

// Names returns the field names in order
func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// KeyValue reads one key and one value per node
type KeyValue struct {
	Key   node.Descriptor `yaml:"key"`
	Value node.Descriptor `yaml:"value"`
}

// TableSpec describes how the tables under a group's roots are read
type TableSpec struct {
	Orientation table.Orientation `yaml:"orientation"`
	Index       int               `yaml:"index"`
	Keys        table.KeyMap      `yaml:"keys"`
	Rows        node.Chain        `yaml:"rows"`
	Cells       node.Chain        `yaml:"cells"`
}

// LocateGroup finds its roots with SearchRoot, then reads them in exactly
// one of the values, lists, array or table shapes
type LocateGroup struct {
	SearchRoot node.Chain             `yaml:"search_root"`
	Values     Fields                 `yaml:"values"`
	Lists      Fields                 `yaml:"lists"`
	Array      *KeyValue              `yaml:"array"`
	Record     *KeyValue              `yaml:"record"`
	Table      *TableSpec             `yaml:"table"`
	Transform  transform.Declarations `yaml:"transform"`
}

// Shape names the way a group reads its roots
type Shape string

const (
	ShapeValues Shape = "values"
	ShapeLists  Shape = "lists"
	ShapeArray  Shape = "array"
	ShapeTable  Shape = "table"
)

// Shape returns the group's shape, or an error unless exactly one is set
func (g *LocateGroup) Shape() (Shape, error) {
	var shapes []Shape
	if len(g.Values) > 0 {
		shapes = append(shapes, ShapeValues)
	}
	if len(g.Lists) > 0 {
		shapes = append(shapes, ShapeLists)
	}
	if g.Array != nil || g.Record != nil {
		shapes = append(shapes, ShapeArray)
	}
	if g.Table != nil {
		shapes = append(shapes, ShapeTable)
	}
	if len(shapes) != 1 {
		return "", fmt.Errorf("expected exactly one of values, lists, array, record or table, got %d", len(shapes))
	}
	return shapes[0], nil
}

// KeyValue returns the array or record block
func (g *LocateGroup) KeyValue() *KeyValue {
	if g.Array != nil {
		return g.Array
	}
	return g.Record
}

// Validate checks that the config names a type, a source and, for html, at
// least one locate group
func (c *Config) Validate() error {
	if c.Type == "" {
		return domain.NewConfigError("type", "extraction type is required")
	}
	if !c.Type.Valid() {
		return domain.NewFormatError("type", fmt.Sprintf("unknown extraction type %q", c.Type))
	}
	if strings.TrimSpace(c.URL) == "" && strings.TrimSpace(c.File) == "" {
		return domain.NewConfigError("url", "url or file is required")
	}
	if c.Type != domain.TypeHTML {
		return nil
	}

	if len(c.Locate) == 0 {
		return domain.NewConfigError("locate", "html extraction needs at least one locate group")
	}
	for i := range c.Locate {
		g := &c.Locate[i]
		if _, err := g.Shape(); err != nil {
			return domain.NewConfigError(fmt.Sprintf("locate[%d]", i), err.Error())
		}
		if kv := g.KeyValue(); kv != nil && (len(kv.Key) == 0 || len(kv.Value) == 0) {
			return domain.NewConfigError(fmt.Sprintf("locate[%d]", i), "array needs both key and value")
		}
	}
	return nil
}

// Source is a config's resolved location. Exactly one of URL and File is set.
type Source struct {
	// BaseURL is URL without the query params, used to resolve relative links
	BaseURL string
	URL     string
	File    string
}

// String returns the location for logs and errors
func (s Source) String() string {
	if s.File != "" {
		return s.File
	}
	return s.URL
}

// Resolve fills the placeholders of url and file from the declared params
// overlaid with params, then appends the query. Only declared params become
// query parameters.
func (c *Config) Resolve(params map[string]string) (Source, error) {
	merged := make(map[string]string, len(c.Params)+len(params))
	for k, v := range c.Params {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	file, err := fill("file", c.File, merged)
	if err != nil {
		return Source{}, err
	}
	if strings.TrimSpace(file) != "" {
		return Source{File: file}, nil
	}

	base, err := fill("url", c.URL, merged)
	if err != nil {
		return Source{}, err
	}
	u, err := url.Parse(base)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidURL, base, err)
	}
	if len(c.Params) > 0 {
		q := u.Query()
		for k := range c.Params {
			q.Set(k, merged[k])
		}
		u.RawQuery = q.Encode()
	}
	return Source{BaseURL: base, URL: u.String()}, nil
}

// fill renders {param} placeholders in s
func fill(field, s string, params map[string]string) (string, error) {
	if !strings.ContainsAny(s, "{}") {
		return s, nil
	}
	tmpl, err := transform.ParseTemplate(s)
	if err != nil {
		return "", &domain.ConfigError{Field: field, Message: err.Error(), Err: domain.ErrInvalidTemplate}
	}
	for _, name := range tmpl.Fields() {
		if _, ok := params[name]; !ok {
			return "", domain.NewConfigError(field, fmt.Sprintf("no value for placeholder {%s}", name))
		}
	}
	out, err := tmpl.Render(func(name string) record.Value {
		return record.String(params[name])
	}, time.Now(), message.NewPrinter(language.English))
	if err != nil {
		return "", &domain.ConfigError{Field: field, Message: err.Error(), Err: domain.ErrInvalidTemplate}
	}
	return out, nil
}
