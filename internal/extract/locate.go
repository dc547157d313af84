package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/quantmind-br/extracthttp-go/internal/broadcast"
	"github.com/quantmind-br/extracthttp-go/internal/node"
	"github.com/quantmind-br/extracthttp-go/internal/record"
	"github.com/quantmind-br/extracthttp-go/internal/table"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

// locator reads the records of one locate group out of a parsed page
type locator struct {
	resolver *node.Resolver
	logger   *utils.Logger
}

// locate finds the group's roots under doc and reads them in the group's
// shape. Descriptors are parsed before any node is read.
func (l *locator) locate(g *LocateGroup, doc *goquery.Selection) ([]*record.Record, error) {
	shape, err := g.Shape()
	if err != nil {
		return nil, err
	}
	roots := node.Find(g.SearchRoot, doc)

	switch shape {
	case ShapeValues:
		cols, err := l.columns(g.Values, roots)
		if err != nil {
			return nil, err
		}
		return broadcast.ZipRecords(false, g.Values.Names(), cols), nil

	case ShapeLists:
		cols, err := l.columns(g.Lists, roots)
		if err != nil {
			return nil, err
		}
		rec := record.New()
		for i, f := range g.Lists {
			rec.Set(f.Name, cols[i])
		}
		return []*record.Record{rec}, nil

	case ShapeArray:
		rec, err := l.keyed(g.KeyValue(), roots)
		if err != nil {
			return nil, err
		}
		return []*record.Record{rec}, nil

	default:
		spec := g.Table
		decode, err := table.NewDecoder(l.resolver, spec.Keys)
		if err != nil {
			return nil, err
		}
		return table.Extract(roots, table.Options{
			Orientation: spec.Orientation,
			Index:       spec.Index,
			Rows:        spec.Rows,
			Cells:       spec.Cells,
		}, decode), nil
	}
}

// columns resolves every field against the whole root set
func (l *locator) columns(fields Fields, roots *goquery.Selection) ([]record.Value, error) {
	cols := make([]record.Value, len(fields))
	for i, f := range fields {
		formats, err := f.Descriptor.Parse(false)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		cols[i] = l.resolver.Resolve(formats, roots)
	}
	return cols, nil
}

// keyed maps the key of every root node to its value. A key descriptor
// matching several nodes uses the first.
func (l *locator) keyed(kv *KeyValue, roots *goquery.Selection) (*record.Record, error) {
	keyFormats, err := kv.Key.Parse(false)
	if err != nil {
		return nil, fmt.Errorf("array key: %w", err)
	}
	valueFormats, err := kv.Value.Parse(false)
	if err != nil {
		return nil, fmt.Errorf("array value: %w", err)
	}

	rec := record.New()
	for i, n := range node.Nodes(roots) {
		key := l.resolver.Resolve(keyFormats, n)
		if key.IsList() {
			key = first(key)
		}
		if key.IsNull() {
			l.logger.Warn().Int("node", i).Str("descriptor", kv.Key.String()).Msg("Array key not found, node skipped")
			continue
		}
		rec.Set(key.Text(), l.resolver.Resolve(valueFormats, n))
	}
	return rec, nil
}

func first(v record.Value) record.Value {
	if v.Len() == 0 {
		return record.Null()
	}
	return v.Items()[0]
}
