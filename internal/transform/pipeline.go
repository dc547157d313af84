package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/quantmind-br/extracthttp-go/internal/broadcast"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/record"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

// Mode tells how a derived value is written back into the record
type Mode uint8

const (
	// ModeScalar values replace the destination slot
	ModeScalar Mode = iota
	// ModeNative lists came from a field that holds a list itself and
	// replace the destination slot whole
	ModeNative
	// ModeIterated lists were collected across the elements of a list of
	// records and are fed back one element per record
	ModeIterated
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeNative:
		return "native"
	case ModeIterated:
		return "iterated"
	}
	return "scalar"
}

// EmbedURL is the only embed kind: fetch the value as a URL
const EmbedURL = "url"

// Options configures a Pipeline
type Options struct {
	// Delimiter separates path segments; empty means record.DefaultDelimiter
	Delimiter string
	// Fetcher serves embed declarations
	Fetcher domain.PayloadFetcher
	// Workers bounds concurrent embed fetches per field
	Workers int
	// Language localizes the 'n' format type; undefined means English
	Language language.Tag
	Logger   *utils.Logger
	// Now is the clock behind magic keywords
	Now func() time.Time
}

type step struct {
	field  string
	path   record.Path
	source *Template
	split  *string
	sub    *Substituter
	// subSkipped is set when a substitute block lacks pattern or rep
	subSkipped bool
	embed      bool
	coerce     Coercion
}

func (s *step) identity() bool {
	return s.source == nil
}

func (s *step) hasSecondary() bool {
	return s.split != nil || s.sub != nil || s.embed || s.coerce != CoerceNone
}

// Pipeline applies compiled declarations to records, one field at a time
// in declaration order
type Pipeline struct {
	steps   []*step
	delim   string
	fetcher domain.PayloadFetcher
	workers int
	printer *message.Printer
	logger  *utils.Logger
	now     func() time.Time
}

// New compiles decls. Templates, regular expressions and embed kinds are
// checked here, so configuration errors surface before any record is
// touched.
func New(decls Declarations, opts Options) (*Pipeline, error) {
	p := &Pipeline{
		delim:   opts.Delimiter,
		fetcher: opts.Fetcher,
		workers: opts.Workers,
		logger:  utils.OrNop(opts.Logger).WithComponent("transform"),
		now:     opts.Now,
	}
	if p.delim == "" {
		p.delim = record.DefaultDelimiter
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	if p.now == nil {
		p.now = time.Now
	}
	tag := opts.Language
	if tag == language.Und {
		tag = language.English
	}
	p.printer = message.NewPrinter(tag)

	for _, d := range decls {
		s, err := p.compile(d)
		if err != nil {
			return nil, err
		}
		p.steps = append(p.steps, s)
	}
	return p, nil
}

func (p *Pipeline) compile(d Declaration) (*step, error) {
	if strings.TrimSpace(d.Field) == "" {
		return nil, domain.NewConfigError("transform", "declaration without a field name")
	}
	s := &step{
		field:  d.Field,
		path:   record.ParsePath(d.Field, p.delim),
		split:  d.Split,
		coerce: ParseCoercion(d.Type),
	}

	if d.Source != nil && *d.Source != "" {
		tmpl, err := ParseTemplate(*d.Source)
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", d.Field, err)
		}
		s.source = tmpl
	}

	if sub := d.Substitute; sub != nil {
		if sub.Pattern == nil || *sub.Pattern == "" || sub.Rep == nil {
			s.subSkipped = true
		} else {
			compiled, err := NewSubstituter(*sub.Pattern, *sub.Rep)
			if err != nil {
				return nil, domain.NewFormatError(d.Field+".substitute", err.Error())
			}
			s.sub = compiled
		}
	}

	switch strings.ToLower(d.Embed) {
	case "":
	case EmbedURL:
		if p.fetcher == nil {
			return nil, domain.NewConfigError(d.Field+".embed", "embed requires a fetcher")
		}
		s.embed = true
	default:
		return nil, domain.NewFormatError(d.Field+".embed", fmt.Sprintf("unknown embed kind %q", d.Embed))
	}
	return s, nil
}

// Len returns the number of compiled declarations
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Apply runs every declaration against rec, mutating it in place. baseURL
// resolves relative embed addresses. Missing data and per-element failures
// are logged, never returned; the only error is a cancelled ctx.
func (p *Pipeline) Apply(ctx context.Context, rec *record.Record, baseURL string) error {
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.applyStep(ctx, rec, s, baseURL)
	}
	return ctx.Err()
}

// ApplyAll applies the pipeline to every record in turn
func (p *Pipeline) ApplyAll(ctx context.Context, recs []*record.Record, baseURL string) error {
	for _, rec := range recs {
		if err := p.Apply(ctx, rec, baseURL); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) applyStep(ctx context.Context, rec *record.Record, s *step, baseURL string) {
	log := p.logger.WithField(s.field)

	v, mode, ok := p.resolve(rec, s, log)
	if !ok {
		return
	}
	if s.identity() && !s.hasSecondary() && !s.subSkipped {
		return
	}

	if s.split != nil {
		v = Split(v, *s.split)
	}
	if s.subSkipped {
		log.Warn().Msg("Substitution needs both pattern and rep, skipping")
	} else if s.sub != nil {
		v = s.sub.Apply(v)
	}
	if s.embed {
		v = p.embedURLs(ctx, v, baseURL, log)
	}
	v = Coerce(v, s.coerce)

	p.write(rec, s.path, v, mode)
}

// resolve produces the value a declaration starts from, and how it must be
// written back
func (p *Pipeline) resolve(rec *record.Record, s *step, log *utils.Logger) (record.Value, Mode, bool) {
	if s.identity() {
		v, found := rec.Get(s.path, true)
		if !found || !v.Truthy() {
			log.Warn().Msg("Source not found for transform field, skipping")
			return record.Null(), ModeScalar, false
		}
		return v, p.modeOf(rec, s.path, v), true
	}

	fields := s.source.Fields()
	cols := make([]record.Value, len(fields))
	index := make(map[string]int, len(fields))
	mode := ModeScalar
	for i, name := range fields {
		path := record.ParsePath(name, p.delim)
		cols[i] = rec.GetOr(path, record.Null(), true)
		index[name] = i
		if mode == ModeScalar && cols[i].IsList() {
			mode = p.modeOf(rec, path, cols[i])
		}
	}

	if len(fields) == 0 {
		out, err := s.source.Render(nil, p.now(), p.printer)
		if err != nil {
			log.Warn().Err(err).Msg("Transform expression failed")
			return record.Null(), ModeScalar, true
		}
		return record.String(out), ModeScalar, true
	}

	rows := broadcast.Zip(true, cols...)
	out := make([]record.Value, 0, len(rows))
	for i, row := range rows {
		str, err := s.source.Render(func(name string) record.Value {
			return row[index[name]]
		}, p.now(), p.printer)
		if err != nil {
			log.Warn().Err(err).Int("row", i).Msg("Transform expression failed")
			out = append(out, record.Null())
			continue
		}
		out = append(out, record.String(str))
	}

	if mode != ModeScalar {
		return record.List(out...), mode, true
	}
	if len(out) == 0 {
		return record.Null(), ModeScalar, true
	}
	return out[0], ModeScalar, true
}

// modeOf tells a list stored at path apart from one collected across the
// records of an intermediate list
func (p *Pipeline) modeOf(rec *record.Record, path record.Path, v record.Value) Mode {
	if !v.IsList() {
		return ModeScalar
	}
	if native, ok := rec.Get(path, false); ok && native.IsList() {
		return ModeNative
	}
	return ModeIterated
}

func (p *Pipeline) write(rec *record.Record, path record.Path, v record.Value, mode Mode) {
	switch mode {
	case ModeIterated:
		rec.PutItems(path, v.Items(), record.DefaultPutOptions)
	default:
		rec.Put(path, v, record.PutOptions{IterateLists: false, ReplaceListItems: true})
	}
}

// embedURLs fetches every string inside v as a URL, concurrently, keeping
// the shape of v. A failed fetch leaves Null in its place.
func (p *Pipeline) embedURLs(ctx context.Context, v record.Value, baseURL string, log *utils.Logger) record.Value {
	var urls []string
	mapScalars(v, func(s record.Value) record.Value {
		urls = append(urls, s.Text())
		return s
	})
	if len(urls) == 0 {
		return v
	}

	results := make([]record.Value, len(urls))
	indices := make([]int, len(urls))
	for i := range indices {
		indices[i] = i
	}

	errs := utils.ParallelForEach(ctx, indices, p.workers, func(ctx context.Context, i int) error {
		target := strings.TrimSpace(urls[i])
		if target == "" {
			return nil
		}
		if baseURL != "" {
			if resolved, err := utils.ResolveURL(baseURL, target); err == nil {
				target = resolved
			}
		}
		payload, err := p.fetcher.FetchPayload(ctx, target, domain.EncodingBase64Text)
		if err != nil {
			return fmt.Errorf("embed %s: %w", target, err)
		}
		results[i] = payload
		return nil
	})
	for _, err := range utils.CollectErrors(errs) {
		log.Warn().Err(err).Msg("Embed fetch failed")
	}

	n := 0
	return mapScalars(v, func(record.Value) record.Value {
		r := results[n]
		n++
		return r
	})
}
