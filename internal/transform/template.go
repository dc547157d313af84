// Package transform derives record fields from declarative transform
// declarations: template formatting with inline operations, followed by
// split, substitute, embed and type coercion.
package transform

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// TemplateError reports a source template that cannot be parsed
type TemplateError struct {
	Template string
	Pos      int
	Reason   string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid template %q at %d: %s", e.Template, e.Pos, e.Reason)
}

func (e *TemplateError) Unwrap() error {
	return domain.ErrInvalidTemplate
}

// CalculationError reports an inline operation or number format applied to
// a value it cannot handle
type CalculationError struct {
	Op      string
	Operand string
	Err     error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("cannot execute %s on %q: %v", e.Op, e.Operand, e.Err)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

// Template is a parsed source string: literal text with {path:spec$ops}
// placeholders. {{ and }} escape braces.
type Template struct {
	raw    string
	parts  []part
	fields []string
}

type part struct {
	literal string
	field   *placeholder
}

type placeholder struct {
	name string
	conv byte
	spec Spec
	ops  []Op
}

// ParseTemplate parses s
func ParseTemplate(s string) (*Template, error) {
	t := &Template{raw: s}
	seen := make(map[string]bool)

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(s[i+1:], "{}")
			if end < 0 {
				return nil, &TemplateError{Template: s, Pos: i, Reason: "unclosed '{'"}
			}
			end += i + 1
			if s[end] == '{' {
				return nil, &TemplateError{Template: s, Pos: end, Reason: "nested replacement fields are not supported"}
			}
			ph, err := parsePlaceholder(s[i+1 : end])
			if err != nil {
				return nil, &TemplateError{Template: s, Pos: i, Reason: err.Error()}
			}
			flush()
			t.parts = append(t.parts, part{field: ph})
			if !seen[ph.name] {
				seen[ph.name] = true
				t.fields = append(t.fields, ph.name)
			}
			i = end
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &TemplateError{Template: s, Pos: i, Reason: "single '}' encountered"}
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

func parsePlaceholder(body string) (*placeholder, error) {
	name, rest := body, ""
	if i := strings.IndexAny(body, "!:"); i >= 0 {
		name, rest = body[:i], body[i:]
	}
	if name == "" {
		return nil, fmt.Errorf("empty field name")
	}
	ph := &placeholder{name: name}

	if strings.HasPrefix(rest, "!") {
		if len(rest) < 2 || (rest[1] != 's' && rest[1] != 'r') {
			return nil, fmt.Errorf("unknown conversion in {%s}", body)
		}
		ph.conv = rest[1]
		rest = rest[2:]
		if rest != "" && rest[0] != ':' {
			return nil, fmt.Errorf("expected ':' after conversion in {%s}", body)
		}
	}

	spec := strings.TrimPrefix(rest, ":")
	if i := strings.IndexByte(spec, '$'); i >= 0 {
		ph.ops = ParseOps(spec[i+1:])
		spec = spec[:i]
	}
	parsed, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	ph.spec = parsed
	return ph, nil
}

// String returns the source text
func (t *Template) String() string {
	return t.raw
}

// Fields returns the distinct placeholder paths in order of appearance
func (t *Template) Fields() []string {
	return t.fields
}

// Render formats the template, looking placeholder values up by path.
// Magic keywords in literal text are expanded against now.
func (t *Template) Render(lookup func(name string) record.Value, now time.Time, p *message.Printer) (string, error) {
	var b strings.Builder
	for _, pt := range t.parts {
		if pt.field == nil {
			b.WriteString(expandKeywords(pt.literal, now))
			continue
		}
		ph := pt.field
		v := lookup(ph.name)
		if len(ph.ops) > 0 {
			var err error
			if v, err = ApplyOps(v, ph.ops); err != nil {
				return "", err
			}
		}
		switch ph.conv {
		case 's':
			v = record.String(v.Text())
		case 'r':
			v = record.String(repr(v))
		}
		s, err := FormatValue(v, ph.spec, p)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func repr(v record.Value) string {
	if s, ok := v.Str(); ok {
		return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
	}
	return v.Text()
}

// Magic keywords expanded in template literals
const (
	KeywordUTCISO  = "%%UTC_ISO"
	KeywordUTCUnix = "%%UTC_UNIX"
)

func expandKeywords(s string, now time.Time) string {
	if !strings.Contains(s, "%%") {
		return s
	}
	now = now.UTC()
	if strings.Contains(s, KeywordUTCISO) {
		iso := now.Format("2006-01-02T15:04:05")
		if us := now.Nanosecond() / 1000; us > 0 {
			iso += "." + fmt.Sprintf("%06d", us)
		}
		s = strings.ReplaceAll(s, KeywordUTCISO, iso)
	}
	if strings.Contains(s, KeywordUTCUnix) {
		unix := float64(now.UnixMicro()) / 1e6
		s = strings.ReplaceAll(s, KeywordUTCUnix, record.FormatFloat(unix))
	}
	return s
}
