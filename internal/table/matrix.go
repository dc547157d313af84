// Package table lays HTML tables with row and column spans out on a
// rectangular grid and exports them as records.
package table

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/quantmind-br/extracthttp-go/internal/node"
)

// Cell is one table cell with its spans
type Cell struct {
	Node    *goquery.Selection
	RowSpan int
	ColSpan int
}

// NewCell reads the rowspan and colspan attributes of n. Missing or
// unusable spans count as 1.
func NewCell(n *goquery.Selection) *Cell {
	return &Cell{
		Node:    n,
		RowSpan: span(n, "rowspan"),
		ColSpan: span(n, "colspan"),
	}
}

func span(n *goquery.Selection, attr string) int {
	if n == nil {
		return 1
	}
	v, ok := n.Attr(attr)
	if !ok {
		return 1
	}
	s, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || s < 1 {
		return 1
	}
	return s
}

func (c *Cell) rowSpan() int {
	if c.RowSpan < 1 {
		return 1
	}
	return c.RowSpan
}

func (c *Cell) colSpan() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

// Markup returns the outer HTML of the cell, used as its identity when
// tables are merged
func (c *Cell) Markup() string {
	if c == nil || c.Node == nil {
		return ""
	}
	html, err := goquery.OuterHtml(c.Node)
	if err != nil {
		return ""
	}
	return html
}

// Text returns the whitespace-collapsed, normalized text of the cell
func (c *Cell) Text() string {
	if c == nil || c.Node == nil {
		return ""
	}
	return node.Normalize(node.StripText(c.Node.Text()))
}

var (
	defaultRows  = node.Chain{{Searcher: &node.Searcher{Tags: []string{"tr"}}}}
	defaultCells = node.Chain{{Searcher: &node.Searcher{Tags: []string{"td", "th"}}}}
)

// Rows collects the cells of every row of tbl. Nil chains default to
// tr rows holding td and th cells.
func Rows(tbl *goquery.Selection, rows, cells node.Chain) [][]*Cell {
	if len(rows) == 0 {
		rows = defaultRows
	}
	if len(cells) == 0 {
		cells = defaultCells
	}

	var out [][]*Cell
	for _, tr := range node.Nodes(node.Find(rows, tbl)) {
		var row []*Cell
		for _, td := range node.Nodes(node.Find(cells, tr)) {
			row = append(row, NewCell(td))
		}
		out = append(out, row)
	}
	return out
}

// Matrix is a grid of cell references. A spanning cell occupies every
// slot it covers; unfilled slots are nil.
type Matrix struct {
	grid   [][]*Cell
	width  int
	height int
}

// Build places rows of cells on a grid. The width is the total colspan of
// the first row and the height the total rowspan of the first cell of
// every row. Each row starts on the lowest grid row that still has an
// empty slot, but never before the row after the previous one; each cell
// takes the first empty slot of that grid row and fills its span, clipped
// to the grid.
func Build(rows [][]*Cell) *Matrix {
	m := &Matrix{}
	if len(rows) == 0 {
		return m
	}

	for _, c := range rows[0] {
		m.width += c.colSpan()
	}
	for _, row := range rows {
		if len(row) == 0 {
			m.height++
			continue
		}
		m.height += row[0].rowSpan()
	}
	if m.width == 0 || m.height == 0 {
		return &Matrix{}
	}

	m.grid = make([][]*Cell, m.height)
	for i := range m.grid {
		m.grid[i] = make([]*Cell, m.width)
	}

	r := -1
	for _, row := range rows {
		r = max(r+1, m.nextOpenRow())
		if r >= m.height {
			break
		}
		for _, c := range row {
			col := m.nextOpenCol(r)
			if col < 0 {
				continue
			}
			m.fill(r, col, c)
		}
	}
	return m
}

func (m *Matrix) nextOpenRow() int {
	for r, row := range m.grid {
		for _, c := range row {
			if c == nil {
				return r
			}
		}
	}
	return -1
}

func (m *Matrix) nextOpenCol(r int) int {
	for col, c := range m.grid[r] {
		if c == nil {
			return col
		}
	}
	return -1
}

func (m *Matrix) fill(r, col int, c *Cell) {
	for i := r; i < min(m.height, r+c.rowSpan()); i++ {
		for j := col; j < min(m.width, col+c.colSpan()); j++ {
			m.grid[i][j] = c
		}
	}
}

// Width returns the number of grid columns
func (m *Matrix) Width() int {
	return m.width
}

// Height returns the number of grid rows
func (m *Matrix) Height() int {
	return m.height
}

// At returns the cell covering slot (r, c), nil when empty or out of range
func (m *Matrix) At(r, c int) *Cell {
	if r < 0 || r >= m.height || c < 0 || c >= m.width {
		return nil
	}
	return m.grid[r][c]
}

// Transpose swaps rows and columns
func (m *Matrix) Transpose() *Matrix {
	out := &Matrix{width: m.height, height: m.width}
	out.grid = make([][]*Cell, out.height)
	for i := range out.grid {
		out.grid[i] = make([]*Cell, out.width)
		for j := range out.grid[i] {
			out.grid[i][j] = m.grid[j][i]
		}
	}
	return out
}
