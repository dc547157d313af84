package table

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/node"
	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// Orientation tells where a table keeps its field names
type Orientation uint8

const (
	// HeaderRow tables name their columns in one row
	HeaderRow Orientation = iota
	// IndexCol tables name their rows in one column
	IndexCol
)

// String returns the config token of the orientation
func (o Orientation) String() string {
	if o == IndexCol {
		return "index_col"
	}
	return "header_row"
}

// ParseOrientation maps a config token to an Orientation. An empty
// token means HeaderRow.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "header_row":
		return HeaderRow, nil
	case "index_col":
		return IndexCol, nil
	}
	return HeaderRow, domain.NewFormatError("orientation", fmt.Sprintf("unknown table orientation %q", s))
}

// UnmarshalYAML reads the orientation token
func (o *Orientation) UnmarshalYAML(n *yaml.Node) error {
	parsed, err := ParseOrientation(n.Value)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Table is a grid split into field names and data rows
type Table struct {
	header []string
	rows   [][]*Cell
}

// Table splits the grid into a header and data rows. With IndexCol the
// grid is transposed first. The header is grid row index; every other
// row is data. An index outside the grid gives an empty table.
func (m *Matrix) Table(orient Orientation, index int) *Table {
	g := m
	if orient == IndexCol {
		g = m.Transpose()
	}
	if index < 0 || index >= g.height {
		return &Table{}
	}

	t := &Table{header: make([]string, g.width)}
	for j, c := range g.grid[index] {
		t.header[j] = c.Text()
	}
	for i, row := range g.grid {
		if i == index {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Header returns the field names in column order
func (t *Table) Header() []string {
	return t.header
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Decoder turns the cell under a field name into a value
type Decoder func(key string, cell *Cell) record.Value

// TextDecoder reads every cell as its stripped text
func TextDecoder(_ string, cell *Cell) record.Value {
	if cell == nil || cell.Node == nil {
		return record.Null()
	}
	return record.String(cell.Text())
}

// Export builds one record per data row. Rows without any cell are
// skipped. A cell that is missing or decodes to nothing takes the value
// already set for its field in the same row, or else the value of the
// previous record, so spanning cells carry downward.
func (t *Table) Export(decode Decoder) []*record.Record {
	if decode == nil {
		decode = TextDecoder
	}

	var (
		out  []*record.Record
		prev *record.Record
	)
	for _, row := range t.rows {
		if empty(row) {
			continue
		}
		rec := record.New()
		for j, cell := range row {
			key := t.header[j]
			v := record.Null()
			if cell != nil {
				v = decode(key, cell)
			}
			if !v.Truthy() {
				if cur, ok := rec.Field(key); ok && cur.Truthy() {
					continue
				}
				if old, ok := prev.Field(key); ok {
					v = old
				}
			}
			rec.Set(key, v)
		}
		out = append(out, rec)
		prev = rec
	}
	return out
}

func empty(row []*Cell) bool {
	for _, c := range row {
		if c != nil {
			return false
		}
	}
	return true
}

// Merge outer-joins other into t on the field names both share, matching
// cells by markup. Unmatched rows of either side are kept with their
// missing fields empty. Without shared fields rows are joined by position.
func (t *Table) Merge(other *Table) *Table {
	if other == nil || len(other.header) == 0 {
		return t
	}
	if len(t.header) == 0 {
		return other
	}

	selfCol := firstIndex(t.header)
	otherCol := firstIndex(other.header)

	var shared []string
	for _, name := range t.header {
		if _, ok := otherCol[name]; ok && !contains(shared, name) {
			shared = append(shared, name)
		}
	}

	// columns of other that t lacks, in other's order
	var extra []int
	for j, name := range other.header {
		if _, ok := selfCol[name]; !ok {
			extra = append(extra, j)
		}
	}

	out := &Table{header: append([]string(nil), t.header...)}
	for _, j := range extra {
		out.header = append(out.header, other.header[j])
	}

	join := func(left, right []*Cell) []*Cell {
		row := make([]*Cell, len(out.header))
		copy(row, left)
		for i, j := range extra {
			if right != nil {
				row[len(t.header)+i] = right[j]
			}
		}
		if left == nil && right != nil {
			for name, j := range selfCol {
				if k, ok := otherCol[name]; ok {
					row[j] = right[k]
				}
			}
		}
		return row
	}

	if len(shared) == 0 {
		n := max(len(t.rows), len(other.rows))
		for i := 0; i < n; i++ {
			var left, right []*Cell
			if i < len(t.rows) {
				left = t.rows[i]
			}
			if i < len(other.rows) {
				right = other.rows[i]
			}
			out.rows = append(out.rows, join(left, right))
		}
		return out
	}

	matched := make([]bool, len(other.rows))
	for _, left := range t.rows {
		found := false
		for k, right := range other.rows {
			if !sameKeys(shared, selfCol, otherCol, left, right) {
				continue
			}
			found = true
			matched[k] = true
			out.rows = append(out.rows, join(left, right))
		}
		if !found {
			out.rows = append(out.rows, join(left, nil))
		}
	}
	for k, right := range other.rows {
		if !matched[k] {
			out.rows = append(out.rows, join(nil, right))
		}
	}
	return out
}

func sameKeys(shared []string, selfCol, otherCol map[string]int, left, right []*Cell) bool {
	for _, name := range shared {
		if left[selfCol[name]].Markup() != right[otherCol[name]].Markup() {
			return false
		}
	}
	return true
}

func firstIndex(names []string) map[string]int {
	out := make(map[string]int, len(names))
	for i, n := range names {
		if _, ok := out[n]; !ok {
			out[n] = i
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// KeyMap maps field names to the cell descriptor that decodes them
type KeyMap map[string]node.Descriptor

// DefaultCellFormat is used for fields the KeyMap does not name
const DefaultCellFormat = "$stripText"

// NewDecoder builds a Decoder from keys. Descriptors are parsed up front so
// a bad one fails before any table is read. A descriptor without an index
// that matches several nodes yields the first.
func NewDecoder(resolver *node.Resolver, keys KeyMap) (Decoder, error) {
	def, err := node.ParseCellFormat(DefaultCellFormat)
	if err != nil {
		return nil, err
	}
	parsed := make(map[string][]node.Format, len(keys))
	for key, desc := range keys {
		formats, err := desc.Parse(true)
		if err != nil {
			return nil, fmt.Errorf("table key %q: %w", key, err)
		}
		parsed[key] = formats
	}

	return func(key string, cell *Cell) record.Value {
		if cell == nil || cell.Node == nil {
			return record.Null()
		}
		formats, ok := parsed[key]
		if !ok {
			formats = []node.Format{def}
		}
		v := resolver.Resolve(formats, cell.Node)
		if v.IsList() {
			if v.Len() == 0 {
				return record.Null()
			}
			return v.Items()[0]
		}
		return v
	}, nil
}

// Extract builds, orients, merges and exports every table in tables
func Extract(tables *goquery.Selection, opts Options, decode Decoder) []*record.Record {
	var merged *Table
	for _, tbl := range node.Nodes(tables) {
		t := Build(Rows(tbl, opts.Rows, opts.Cells)).Table(opts.Orientation, opts.Index)
		if merged == nil {
			merged = t
			continue
		}
		merged = merged.Merge(t)
	}
	if merged == nil {
		return nil
	}
	return merged.Export(decode)
}

// Options describe how tables are read
type Options struct {
	Orientation Orientation
	Index       int
	Rows        node.Chain
	Cells       node.Chain
}
