// Package broadcast zips value columns of uneven length, treating scalars
// and exhausted lists as placeholders instead of stopping early.
package broadcast

import "github.com/quantmind-br/extracthttp-go/internal/record"

// Iterator walks a list value element by element. Any non-list value,
// Null included, yields itself exactly once.
type Iterator struct {
	items     []record.Value
	pos       int
	last      record.Value
	exhausted bool
}

// NewIterator creates an iterator over v
func NewIterator(v record.Value) *Iterator {
	if v.IsList() {
		return &Iterator{items: v.Items()}
	}
	return &Iterator{items: []record.Value{v}}
}

// Next returns the next element. Once the input runs out it keeps returning
// ok=false together with the last element produced (Null if there was none).
func (it *Iterator) Next() (record.Value, bool) {
	if it.pos >= len(it.items) {
		it.exhausted = true
		return it.last, false
	}
	it.last = it.items[it.pos]
	it.pos++
	return it.last, true
}

// Exhausted reports whether Next has run past the end of the input
func (it *Iterator) Exhausted() bool {
	return it.exhausted
}

// Last returns the most recent element produced
func (it *Iterator) Last() record.Value {
	return it.last
}

// Row is one step of a zip: one cell per input column
type Row []record.Value

// Zip steps every column in lockstep. A row is produced while at least one
// column still has elements; exhausted columns contribute Null, or their last
// element when repeatLast is set. Zip stops the first time every column is
// exhausted in the same step.
func Zip(repeatLast bool, cols ...record.Value) []Row {
	if len(cols) == 0 {
		return nil
	}
	its := make([]*Iterator, len(cols))
	for i, c := range cols {
		its[i] = NewIterator(c)
	}

	var rows []Row
	for {
		row := make(Row, len(its))
		live := false
		for i, it := range its {
			v, ok := it.Next()
			switch {
			case ok:
				live = true
				row[i] = v
			case repeatLast:
				row[i] = v
			default:
				row[i] = record.Null()
			}
		}
		if !live {
			return rows
		}
		rows = append(rows, row)
	}
}

// ZipRecords zips named columns into records, keeping the order of names
func ZipRecords(repeatLast bool, names []string, cols []record.Value) []*record.Record {
	rows := Zip(repeatLast, cols...)
	out := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		r := record.New()
		for i, name := range names {
			if i < len(row) {
				r.Set(name, row[i])
			}
		}
		out = append(out, r)
	}
	return out
}
