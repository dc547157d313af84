package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// Coercion is a type conversion target
type Coercion uint8

const (
	CoerceNone Coercion = iota
	CoerceInt
	CoerceFloat
	CoerceStr
	CoerceBool
	CoerceBytes
)

// ParseCoercion maps a type name to a Coercion. The empty name means no
// conversion; unknown names convert to strings.
func ParseCoercion(name string) Coercion {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return CoerceNone
	case "int":
		return CoerceInt
	case "float":
		return CoerceFloat
	case "bool":
		return CoerceBool
	case "bytes":
		return CoerceBytes
	default:
		return CoerceStr
	}
}

// String returns the type name
func (c Coercion) String() string {
	switch c {
	case CoerceInt:
		return "int"
	case CoerceFloat:
		return "float"
	case CoerceStr:
		return "str"
	case CoerceBool:
		return "bool"
	case CoerceBytes:
		return "bytes"
	}
	return ""
}

// truthy words accepted by bool coercion, compared after trimming and
// lower casing
var truthy = map[string]bool{
	"yes": true, "true": true, "y": true, "ja": true, "sí": true,
	"oui": true, "si": true, "evet": true, "sim": true, "tak": true,
	"ya": true, "да": true, "是": true,
}

// Coerce converts every scalar inside v. Values that cannot be converted,
// nulls and records are left unchanged.
func Coerce(v record.Value, to Coercion) record.Value {
	if to == CoerceNone {
		return v
	}
	return mapScalars(v, func(s record.Value) record.Value {
		if out, ok := coerceScalar(s, to); ok {
			return out
		}
		return s
	})
}

func coerceScalar(v record.Value, to Coercion) (record.Value, bool) {
	switch to {
	case CoerceInt:
		switch x := v.Raw().(type) {
		case int64:
			return v, true
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) >= 1<<63 {
				return v, false
			}
			return record.Int(int64(x)), true
		case bool:
			if x {
				return record.Int(1), true
			}
			return record.Int(0), true
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return v, false
			}
			return record.Int(i), true
		}
	case CoerceFloat:
		switch x := v.Raw().(type) {
		case int64:
			return record.Float(float64(x)), true
		case float64:
			return v, true
		case bool:
			if x {
				return record.Float(1), true
			}
			return record.Float(0), true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return v, false
			}
			return record.Float(f), true
		}
	case CoerceStr:
		return record.String(v.Text()), true
	case CoerceBool:
		switch x := v.Raw().(type) {
		case bool:
			return v, true
		case int64:
			return record.Bool(x != 0), true
		case float64:
			return record.Bool(x != 0), true
		}
		return record.Bool(truthy[strings.ToLower(strings.TrimSpace(v.Text()))]), true
	case CoerceBytes:
		if _, ok := v.Raw().([]byte); ok {
			return v, true
		}
		return record.Bytes([]byte(v.Text())), true
	}
	return v, false
}

// Split splits every string inside v on sep, trimming the parts. An empty
// sep splits on runs of whitespace.
func Split(v record.Value, sep string) record.Value {
	return mapScalars(v, func(s record.Value) record.Value {
		str, ok := s.Str()
		if !ok {
			return s
		}
		var parts []string
		if sep == "" {
			parts = strings.Fields(str)
		} else {
			parts = strings.Split(str, sep)
		}
		items := make([]record.Value, len(parts))
		for i, p := range parts {
			items[i] = record.String(strings.TrimSpace(p))
		}
		return record.List(items...)
	})
}

// Substituter rewrites strings with a compiled regular expression
type Substituter struct {
	re  *regexp.Regexp
	rep string
}

// NewSubstituter compiles pattern and translates \1 and \g<name> group
// references in rep into the ${1} form
func NewSubstituter(pattern, rep string) (*Substituter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Substituter{re: re, rep: translateReplacement(rep)}, nil
}

// Apply rewrites every string inside v
func (s *Substituter) Apply(v record.Value) record.Value {
	return mapScalars(v, func(sv record.Value) record.Value {
		str, ok := sv.Str()
		if !ok {
			return sv
		}
		return record.String(s.re.ReplaceAllString(str, s.rep))
	})
}

func translateReplacement(rep string) string {
	var b strings.Builder
	for i := 0; i < len(rep); i++ {
		c := rep[i]
		if c == '$' {
			b.WriteString("$$")
			continue
		}
		if c != '\\' || i+1 == len(rep) {
			b.WriteByte(c)
			continue
		}
		next := rep[i+1]
		switch {
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(rep) && j < i+3 && rep[j] >= '0' && rep[j] <= '9' {
				j++
			}
			b.WriteString("${" + rep[i+1:j] + "}")
			i = j - 1
		case next == 'g' && i+2 < len(rep) && rep[i+2] == '<':
			end := strings.IndexByte(rep[i+3:], '>')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteString("${" + rep[i+3:i+3+end] + "}")
			i += 3 + end
		case next == 'n':
			b.WriteByte('\n')
			i++
		case next == 't':
			b.WriteByte('\t')
			i++
		case next == '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// mapScalars applies fn to every non-list value inside v, keeping the list
// structure. Nulls and records are passed through.
func mapScalars(v record.Value, fn func(record.Value) record.Value) record.Value {
	switch v.Kind() {
	case record.KindList:
		items := v.Items()
		out := make([]record.Value, len(items))
		for i, item := range items {
			out[i] = mapScalars(item, fn)
		}
		return record.List(out...)
	case record.KindScalar:
		return fn(v)
	}
	return v
}
