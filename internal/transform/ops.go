package transform

import (
	"errors"
	"math"
	"math/bits"
	"regexp"
	"strconv"
	"strings"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// OpKind selects an inline operation
type OpKind uint8

const (
	// OpIdentity leaves the value unchanged; unknown names map to it
	OpIdentity OpKind = iota
	OpUpper
	OpLower
	OpStrip
	OpSum
	OpMinus
	OpMul
	OpDiv
	OpMax
	OpMin
	OpPower
)

var opNames = map[string]OpKind{
	"upper": OpUpper,
	"lower": OpLower,
	"strip": OpStrip,
	"sum":   OpSum,
	"minus": OpMinus,
	"mul":   OpMul,
	"div":   OpDiv,
	"max":   OpMax,
	"min":   OpMin,
	"power": OpPower,
}

// ParseOpKind maps an operation name to its kind, case-insensitively
func ParseOpKind(name string) OpKind {
	return opNames[strings.ToLower(name)]
}

// String returns the operation name
func (k OpKind) String() string {
	for name, kind := range opNames {
		if kind == k {
			return name
		}
	}
	return "identity"
}

func (k OpKind) arithmetic() bool {
	return k >= OpSum
}

// Op is one inline operation with its raw arguments
type Op struct {
	Kind OpKind
	Name string
	Args []string
}

var opPattern = regexp.MustCompile(`(\w+)(?:\(([^)]+)\))?,?`)

// ParseOps parses "name(arg,arg),name2" into operations, in order
func ParseOps(s string) []Op {
	var ops []Op
	for _, m := range opPattern.FindAllStringSubmatch(s, -1) {
		op := Op{Kind: ParseOpKind(m[1]), Name: m[1]}
		if m[2] != "" {
			op.Args = strings.Split(m[2], ",")
		}
		ops = append(ops, op)
	}
	return ops
}

// ApplyOps runs ops left to right. String operations yield strings;
// arithmetic coerces the value and every argument to a number first and
// fails with a *CalculationError when one is not numeric.
func ApplyOps(v record.Value, ops []Op) (record.Value, error) {
	for _, op := range ops {
		switch op.Kind {
		case OpUpper:
			v = record.String(strings.ToUpper(v.Text()))
		case OpLower:
			v = record.String(strings.ToLower(v.Text()))
		case OpStrip:
			cut := " "
			if len(op.Args) > 0 {
				cut = op.Args[0]
			}
			v = record.String(strings.ReplaceAll(v.Text(), cut, ""))
		case OpIdentity:
		default:
			n, err := calculate(op, v)
			if err != nil {
				return record.Null(), err
			}
			v = n.value()
		}
	}
	return v, nil
}

var errDivideByZero = errors.New("division by zero")

func calculate(op Op, v record.Value) (number, error) {
	operands := make([]number, 0, len(op.Args)+1)
	first, ok := numberOf(v)
	if !ok {
		return number{}, &CalculationError{Op: op.Kind.String(), Operand: v.Text(), Err: domain.ErrNotNumeric}
	}
	operands = append(operands, first)
	for _, arg := range op.Args {
		n, ok := parseNumber(arg)
		if !ok {
			return number{}, &CalculationError{Op: op.Kind.String(), Operand: arg, Err: domain.ErrNotNumeric}
		}
		operands = append(operands, n)
	}

	acc := operands[0]
	for _, n := range operands[1:] {
		switch op.Kind {
		case OpSum:
			acc = acc.add(n)
		case OpMinus:
			acc = acc.add(n.neg())
		case OpMul:
			acc = acc.mul(n)
		case OpDiv:
			if n.float() == 0 {
				return number{}, &CalculationError{Op: op.Kind.String(), Operand: v.Text(), Err: errDivideByZero}
			}
			acc = number{f: acc.float() / n.float()}
		case OpMax:
			if n.float() > acc.float() {
				acc = n
			}
		case OpMin:
			if n.float() < acc.float() {
				acc = n
			}
		case OpPower:
			p, err := acc.pow(n)
			if err != nil {
				return number{}, &CalculationError{Op: op.Kind.String(), Operand: v.Text(), Err: err}
			}
			acc = p
		}
	}
	return acc, nil
}

// number is an integer or a float, kept apart so integer arithmetic stays exact
type number struct {
	i     int64
	f     float64
	isInt bool
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n number) integral() bool {
	if n.isInt {
		return true
	}
	return !math.IsInf(n.f, 0) && n.f == math.Trunc(n.f) && math.Abs(n.f) < 1<<63
}

func (n number) value() record.Value {
	if n.isInt {
		return record.Int(n.i)
	}
	return record.Float(n.f)
}

func (n number) neg() number {
	if n.isInt && n.i != math.MinInt64 {
		return number{i: -n.i, isInt: true}
	}
	return number{f: -n.float()}
}

// add and mul leave integers for floats when the result overflows int64
func (n number) add(o number) number {
	if n.isInt && o.isInt {
		sum := n.i + o.i
		if (n.i >= 0) != (o.i >= 0) || (sum >= 0) == (n.i >= 0) {
			return number{i: sum, isInt: true}
		}
	}
	return number{f: n.float() + o.float()}
}

func (n number) mul(o number) number {
	if n.isInt && o.isInt {
		hi, lo := bits.Mul64(magnitude(n.i), magnitude(o.i))
		if hi == 0 && lo <= math.MaxInt64 {
			return number{i: n.i * o.i, isInt: true}
		}
	}
	return number{f: n.float() * o.float()}
}

func magnitude(i int64) uint64 {
	if i < 0 {
		return uint64(-(i + 1)) + 1
	}
	return uint64(i)
}

func (n number) pow(o number) (number, error) {
	if n.float() == 0 && o.float() < 0 {
		return number{}, errDivideByZero
	}
	r := math.Pow(n.float(), o.float())
	if n.isInt && o.isInt && o.i >= 0 && math.Abs(r) < 1<<63 {
		return number{i: int64(r), isInt: true}, nil
	}
	return number{f: r}, nil
}

// numberOf reads v as a number. Integral floats and booleans become
// integers; strings are parsed.
func numberOf(v record.Value) (number, bool) {
	switch x := v.Raw().(type) {
	case int64:
		return number{i: x, isInt: true}, true
	case float64:
		n := number{f: x}
		if n.integral() {
			return number{i: int64(x), isInt: true}, true
		}
		return n, true
	case bool:
		if x {
			return number{i: 1, isInt: true}, true
		}
		return number{isInt: true}, true
	case string:
		return parseNumber(x)
	}
	return number{}, false
}

// parseNumber parses s as a number, surrounding whitespace allowed.
// Integral results are integers.
func parseNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return number{i: i, isInt: true}, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return number{}, false
	}
	n := number{f: f}
	if n.integral() {
		return number{i: int64(f), isInt: true}, true
	}
	return n, true
}
