package transform

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// Spec is a parsed format spec:
// [[fill]align][sign][z][#][0][width][grouping][.precision][type]
type Spec struct {
	Fill      rune
	Align     byte
	Sign      byte
	NoNegZero bool
	Alt       bool
	Zero      bool
	Width     int
	Grouping  byte
	Precision int
	Type      byte
}

const (
	numericTypes = "bcdeEfFgGnoxX%"
	integerTypes = "bcdoxX"
)

var errNotInteger = errors.New("value is not an integer")

// ParseSpec parses a format spec. The empty spec formats values plainly.
func ParseSpec(s string) (Spec, error) {
	sp := Spec{Fill: ' ', Precision: -1}
	rs := []rune(s)
	i := 0

	isAlign := func(r rune) bool { return r == '<' || r == '>' || r == '=' || r == '^' }
	switch {
	case len(rs) >= 2 && isAlign(rs[1]):
		sp.Fill, sp.Align = rs[0], byte(rs[1])
		i = 2
	case len(rs) >= 1 && isAlign(rs[0]):
		sp.Align = byte(rs[0])
		i = 1
	}
	if i < len(rs) && (rs[i] == '+' || rs[i] == '-' || rs[i] == ' ') {
		sp.Sign = byte(rs[i])
		i++
	}
	if i < len(rs) && rs[i] == 'z' {
		sp.NoNegZero = true
		i++
	}
	if i < len(rs) && rs[i] == '#' {
		sp.Alt = true
		i++
	}
	if i < len(rs) && rs[i] == '0' {
		sp.Zero = true
		i++
	}
	start := i
	for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
		i++
	}
	if i > start {
		sp.Width, _ = strconv.Atoi(string(rs[start:i]))
	}
	if i < len(rs) && (rs[i] == ',' || rs[i] == '_') {
		sp.Grouping = byte(rs[i])
		i++
	}
	if i < len(rs) && rs[i] == '.' {
		i++
		start = i
		for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
			i++
		}
		if i == start {
			return sp, fmt.Errorf("format spec %q: missing precision", s)
		}
		sp.Precision, _ = strconv.Atoi(string(rs[start:i]))
	}
	if i < len(rs) {
		if rs[i] != 's' && !strings.ContainsRune(numericTypes, rs[i]) {
			return sp, fmt.Errorf("format spec %q: unknown format code %q", s, rs[i])
		}
		sp.Type = byte(rs[i])
		i++
	}
	if i != len(rs) {
		return sp, fmt.Errorf("invalid format spec %q", s)
	}

	if sp.Zero && sp.Align == 0 {
		sp.Fill, sp.Align = '0', '='
	}
	if sp.Precision >= 0 && strings.IndexByte(integerTypes, sp.Type) >= 0 {
		return sp, fmt.Errorf("format spec %q: precision not allowed with %q", s, sp.Type)
	}
	switch sp.Grouping {
	case ',':
		if sp.Type != 0 && strings.IndexByte("deEfFgG%", sp.Type) < 0 {
			return sp, fmt.Errorf("format spec %q: cannot use ',' with %q", s, sp.Type)
		}
	case '_':
		if sp.Type != 0 && strings.IndexByte("bdeEfFgGoxX%", sp.Type) < 0 {
			return sp, fmt.Errorf("format spec %q: cannot use '_' with %q", s, sp.Type)
		}
	}
	return sp, nil
}

// wantsNumber reports whether the format only makes sense for numbers, in
// which case string values are parsed before formatting
func (s Spec) wantsNumber() bool {
	if s.Type != 0 && strings.IndexByte(numericTypes, s.Type) >= 0 {
		return true
	}
	return s.Sign != 0 || s.Grouping != 0 || s.Align == '=' || s.Alt
}

// FormatValue renders v under spec. Null renders as an empty string; lists
// and records render as compact JSON. Strings are parsed as numbers when the
// spec asks for one. p localizes the 'n' type.
func FormatValue(v record.Value, spec Spec, p *message.Printer) (string, error) {
	switch v.Kind() {
	case record.KindNull:
		return pad("", "", spec, '<'), nil
	case record.KindList, record.KindRecord:
		return formatString(v.Text(), spec), nil
	}

	switch x := v.Raw().(type) {
	case int64:
		return formatNumber(number{i: x, isInt: true}, spec, p)
	case float64:
		return formatNumber(number{f: x}, spec, p)
	case bool:
		if spec.wantsNumber() {
			n := number{isInt: true}
			if x {
				n.i = 1
			}
			return formatNumber(n, spec, p)
		}
	case string:
		if spec.wantsNumber() {
			n, ok := parseNumber(x)
			if !ok {
				return "", &CalculationError{Op: "format", Operand: x, Err: domain.ErrNotNumeric}
			}
			return formatNumber(n, spec, p)
		}
	}
	return formatString(v.Text(), spec), nil
}

func formatString(s string, spec Spec) string {
	if spec.Precision >= 0 && utf8.RuneCountInString(s) > spec.Precision {
		s = string([]rune(s)[:spec.Precision])
	}
	return pad("", s, spec, '<')
}

func formatNumber(n number, spec Spec, p *message.Printer) (string, error) {
	switch {
	case spec.Type == 's':
		return formatString(n.value().Text(), spec), nil
	case spec.Type == 'n' && !n.isInt && !n.integral():
		g := spec
		g.Type, g.Grouping = 'g', ','
		return formatFloat(n.f, g), nil
	}
	if strings.IndexByte(integerTypes, spec.Type) >= 0 || spec.Type == 'n' {
		if !n.isInt {
			if !n.integral() {
				return "", &CalculationError{Op: "format", Operand: record.FormatFloat(n.f), Err: fmt.Errorf("%w: %w", domain.ErrNotNumeric, errNotInteger)}
			}
			n = number{i: int64(n.f), isInt: true}
		}
		return formatInt(n.i, spec, p), nil
	}
	if n.isInt && spec.Type == 0 && spec.Precision < 0 {
		return formatInt(n.i, spec, p), nil
	}
	return formatFloat(n.float(), spec), nil
}

func formatInt(i int64, spec Spec, p *message.Printer) string {
	neg := i < 0
	mag := uint64(i)
	if neg {
		mag = uint64(-i)
	}

	var digits, prefix string
	switch spec.Type {
	case 'b':
		digits, prefix = strconv.FormatUint(mag, 2), "0b"
	case 'o':
		digits, prefix = strconv.FormatUint(mag, 8), "0o"
	case 'x':
		digits, prefix = strconv.FormatUint(mag, 16), "0x"
	case 'X':
		digits, prefix = strings.ToUpper(strconv.FormatUint(mag, 16)), "0X"
	case 'c':
		return pad("", string(rune(i)), spec, '<')
	case 'n':
		if p == nil {
			p = message.NewPrinter(language.English)
		}
		digits = p.Sprintf("%d", mag)
	default:
		digits = strconv.FormatUint(mag, 10)
	}
	if !spec.Alt {
		prefix = ""
	}

	switch spec.Grouping {
	case ',':
		digits = group(digits, ',', 3)
	case '_':
		size := 3
		if spec.Type == 'b' || spec.Type == 'o' || spec.Type == 'x' || spec.Type == 'X' {
			size = 4
		}
		digits = group(digits, '_', size)
	}
	return pad(signOf(neg, spec)+prefix, digits, spec, '>')
}

func formatFloat(f float64, spec Spec) string {
	neg := math.Signbit(f)
	if spec.NoNegZero && f == 0 {
		neg = false
	}
	mag := math.Abs(f)
	prec := spec.Precision
	upper := spec.Type == 'E' || spec.Type == 'F' || spec.Type == 'G'

	var body string
	switch {
	case math.IsInf(mag, 0):
		body = "inf"
	case math.IsNaN(mag):
		body = "nan"
		neg = false
	default:
		switch spec.Type {
		case 'e', 'E':
			body = strconv.FormatFloat(mag, 'e', precOr(prec, 6), 64)
			if spec.Alt && prec == 0 {
				body = strings.Replace(body, "e", ".e", 1)
			}
		case 'f', 'F':
			body = strconv.FormatFloat(mag, 'f', precOr(prec, 6), 64)
			if spec.Alt && prec == 0 {
				body += "."
			}
		case '%':
			body = strconv.FormatFloat(mag*100, 'f', precOr(prec, 6), 64)
		case 'g', 'G':
			body = strconv.FormatFloat(mag, 'g', max(precOr(prec, 6), 1), 64)
		default:
			if prec < 0 {
				body = record.FormatFloat(mag)
			} else {
				body = strconv.FormatFloat(mag, 'g', max(prec, 1), 64)
				if !strings.ContainsAny(body, ".e") {
					body += ".0"
				}
			}
		}
	}
	if upper {
		body = strings.ToUpper(body)
	}

	if spec.Grouping != 0 {
		end := strings.IndexFunc(body, func(r rune) bool { return r < '0' || r > '9' })
		if end < 0 {
			end = len(body)
		}
		body = group(body[:end], rune(spec.Grouping), 3) + body[end:]
	}
	if spec.Type == '%' {
		body += "%"
	}
	return pad(signOf(neg, spec), body, spec, '>')
}

func precOr(prec, def int) int {
	if prec < 0 {
		return def
	}
	return prec
}

func signOf(neg bool, spec Spec) string {
	switch {
	case neg:
		return "-"
	case spec.Sign == '+':
		return "+"
	case spec.Sign == ' ':
		return " "
	}
	return ""
}

// group inserts sep every size digits counting from the right
func group(digits string, sep rune, size int) string {
	if len(digits) <= size {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % size
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += size {
		if b.Len() > 0 {
			b.WriteRune(sep)
		}
		b.WriteString(digits[i : i+size])
	}
	return b.String()
}

// pad applies width, fill and alignment. With '=' alignment the fill goes
// between head (sign and prefix) and body.
func pad(head, body string, spec Spec, defAlign byte) string {
	n := spec.Width - utf8.RuneCountInString(head) - utf8.RuneCountInString(body)
	if n <= 0 {
		return head + body
	}
	align := spec.Align
	if align == 0 {
		align = defAlign
	}
	fill := string(spec.Fill)
	switch align {
	case '<':
		return head + body + strings.Repeat(fill, n)
	case '^':
		left := n / 2
		return strings.Repeat(fill, left) + head + body + strings.Repeat(fill, n-left)
	case '=':
		return head + strings.Repeat(fill, n) + body
	default:
		return strings.Repeat(fill, n) + head + body
	}
}
