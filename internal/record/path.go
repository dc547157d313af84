package record

import "strings"

// DefaultDelimiter separates nested key segments in path strings
const DefaultDelimiter = ">>>"

// Path is an ordered sequence of key segments, consumed left to right
type Path []string

// ParsePath splits s on delimiter. An empty delimiter means DefaultDelimiter.
func ParsePath(s, delimiter string) Path {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return Path(strings.Split(s, delimiter))
}

// Join renders the path back into a delimited string
func (p Path) Join(delimiter string) string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return strings.Join(p, delimiter)
}

// PutOptions controls how Put treats lists met on the way to the target
type PutOptions struct {
	// IterateLists feeds list values one element per list slot instead of
	// replacing the slot wholesale.
	IterateLists bool
	// ReplaceListItems turns non-record list elements into empty records when
	// the path continues below them. When false those elements are skipped.
	ReplaceListItems bool
}

// DefaultPutOptions iterates lists and replaces non-record list items
var DefaultPutOptions = PutOptions{IterateLists: true, ReplaceListItems: true}

// Get resolves p. Missing keys, dead ends and, when iterate is false, lists
// met before the end of the path all report false. Iterating descends into
// every record element of a list and flattens list results by one level.
func (r *Record) Get(p Path, iterate bool) (Value, bool) {
	if len(p) == 0 {
		return FromRecord(r), r != nil
	}
	v, ok := r.Field(p[0])
	if !ok {
		return Null(), false
	}
	rest := p[1:]
	if len(rest) == 0 {
		return v, true
	}

	switch v.kind {
	case KindRecord:
		return v.rec.Get(rest, iterate)
	case KindList:
		if !iterate {
			return Null(), false
		}
		out := make([]Value, 0, len(v.items))
		for _, item := range v.items {
			if item.kind != KindRecord {
				out = append(out, item)
				continue
			}
			sub, found := item.rec.Get(rest, iterate)
			switch {
			case !found:
				out = append(out, Null())
			case sub.kind == KindList:
				out = append(out, sub.items...)
			default:
				out = append(out, sub)
			}
		}
		return List(out...), true
	default:
		return Null(), false
	}
}

// GetOr resolves p, returning def when nothing is found
func (r *Record) GetOr(p Path, def Value, iterate bool) Value {
	if v, ok := r.Get(p, iterate); ok {
		return v
	}
	return def
}

// Lookup is Get for a delimited path string
func (r *Record) Lookup(path, delimiter string, iterate bool) (Value, bool) {
	return r.Get(ParsePath(path, delimiter), iterate)
}

// Put writes v at p, creating intermediate records as needed.
//
// With IterateLists set, a list v is consumed one element per list slot met
// on the way: an existing list at the target takes as many elements as it
// already holds and never grows, and records inside intermediate lists take
// one element each. Without it, v lands whole at the target (and in every
// element of an intermediate list).
func (r *Record) Put(p Path, v Value, opts PutOptions) {
	q := &feed{whole: v}
	if v.kind == KindList {
		q.items = append([]Value(nil), v.items...)
		q.spread = true
	} else {
		q.items = []Value{v}
	}
	r.put(p, q, opts)
}

// PutItems is Put with the element sequence given explicitly, so elements
// that are themselves lists are written as single values.
func (r *Record) PutItems(p Path, items []Value, opts PutOptions) {
	q := &feed{
		whole:  List(items...),
		items:  append([]Value(nil), items...),
		spread: true,
	}
	r.put(p, q, opts)
}

// feed is the shared element queue consumed while a Put walks the tree
type feed struct {
	whole     Value
	items     []Value
	spread    bool
	traversed bool
}

func (q *feed) pop() Value {
	if len(q.items) == 0 {
		return Null()
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v
}

func (q *feed) take(n int) []Value {
	if n > len(q.items) {
		n = len(q.items)
	}
	out := make([]Value, n)
	copy(out, q.items[:n])
	q.items = q.items[n:]
	return out
}

func (q *feed) rest() []Value {
	return q.take(len(q.items))
}

func (r *Record) put(p Path, q *feed, opts PutOptions) {
	if len(p) == 0 {
		return
	}
	if opts.IterateLists && len(q.items) == 0 {
		return
	}

	key, rest := p[0], p[1:]
	cur, exists := r.Field(key)

	if len(rest) == 0 {
		switch {
		case !opts.IterateLists:
			// every list element reached gets its own copy
			r.Set(key, q.whole.Clone())
		case exists && cur.kind == KindList:
			r.Set(key, List(q.take(len(cur.items))...))
		case q.spread && !q.traversed:
			// no list on the way to take elements from: the sequence lands whole
			r.Set(key, List(q.rest()...))
		default:
			r.Set(key, q.pop())
		}
		return
	}

	if !exists {
		child := New()
		r.Set(key, FromRecord(child))
		child.put(rest, q, opts)
		return
	}

	switch cur.kind {
	case KindRecord:
		cur.rec.put(rest, q, opts)
	case KindList:
		q.traversed = true
		items := append([]Value(nil), cur.items...)
		for i, item := range items {
			if item.kind != KindRecord {
				if !opts.ReplaceListItems {
					continue
				}
				item = FromRecord(New())
				items[i] = item
			}
			item.rec.put(rest, q, opts)
		}
		r.Set(key, List(items...))
	default:
		child := New()
		r.Set(key, FromRecord(child))
		child.put(rest, q, opts)
	}
}
