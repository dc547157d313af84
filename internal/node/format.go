package node

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quantmind-br/extracthttp-go/internal/domain"
)

// SourceKind selects what is read out of a matched node
type SourceKind uint8

const (
	// SourceInnerHTML is the markup inside the node
	SourceInnerHTML SourceKind = iota
	// SourceInnerText is the concatenated text of the node
	SourceInnerText
	// SourceStripText is the node text with whitespace runs collapsed
	SourceStripText
	// SourceAttr is one attribute of the node
	SourceAttr
	// SourceOuterHTML is the markup of the node itself
	SourceOuterHTML
	// SourceMarkdown is the inner markup converted to Markdown
	SourceMarkdown
)

var sourceNames = map[SourceKind]string{
	SourceInnerHTML: "innerHTML",
	SourceInnerText: "innerText",
	SourceStripText: "stripText",
	SourceAttr:      "attr",
	SourceOuterHTML: "outerHTML",
	SourceMarkdown:  "markdown",
}

// String returns the descriptor token of the kind
func (k SourceKind) String() string {
	if name, ok := sourceNames[k]; ok {
		return name
	}
	return sourceNames[SourceInnerHTML]
}

// ParseSourceKind maps a descriptor token to its kind. Unknown tokens map
// to SourceInnerHTML with ok=false.
func ParseSourceKind(s string) (SourceKind, bool) {
	for kind, name := range sourceNames {
		if name == s {
			return kind, true
		}
	}
	return SourceInnerHTML, false
}

// DefaultAttr is the attribute read when an attr source names none
const DefaultAttr = "id"

// Format is the parsed form of a node value descriptor
// selector[#index][$source[[sub]]]
type Format struct {
	Selector string
	// Index picks one match; nil returns every match as a list
	Index     *int
	Source    SourceKind
	SubSource string
}

// FormatError reports a descriptor that does not follow the grammar
type FormatError struct {
	Format string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%q is not a valid node value descriptor: %s", e.Format, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return domain.ErrInvalidDescriptor
}

var formatPattern = regexp.MustCompile(
	`^(?P<selector>[^$>\s][^$]*?)?(?:#(?P<index>-?\d+))?(?:\$(?P<source>[A-Za-z]+)(?:\[(?P<sub>[^\]]+)\])?)?$`,
)

// ParseFormat parses a descriptor. The selector is mandatory; descriptors
// starting with '$' or '>' are rejected.
func ParseFormat(s string) (Format, error) {
	return parseFormat(s, false)
}

// ParseCellFormat parses a descriptor whose selector may be empty, meaning
// the node being read itself. Used for table cells.
func ParseCellFormat(s string) (Format, error) {
	return parseFormat(s, true)
}

func parseFormat(s string, allowEmptySelector bool) (Format, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Format{}, &FormatError{Format: s, Reason: "empty descriptor"}
	}
	if !allowEmptySelector && (s[0] == '$' || s[0] == '>') {
		return Format{}, &FormatError{Format: s, Reason: "descriptor must start with a selector"}
	}

	m := formatPattern.FindStringSubmatch(s)
	if m == nil {
		return Format{}, &FormatError{Format: s, Reason: "unrecognised syntax"}
	}

	f := Format{Selector: strings.TrimSpace(m[formatPattern.SubexpIndex("selector")])}
	if f.Selector == "" && !allowEmptySelector {
		return Format{}, &FormatError{Format: s, Reason: "missing selector"}
	}

	if idx := m[formatPattern.SubexpIndex("index")]; idx != "" {
		n, err := strconv.Atoi(idx)
		if err != nil {
			return Format{}, &FormatError{Format: s, Reason: "index out of integer range"}
		}
		f.Index = &n
	}

	if src := m[formatPattern.SubexpIndex("source")]; src != "" {
		kind, ok := ParseSourceKind(src)
		if !ok {
			return Format{}, &FormatError{Format: s, Reason: fmt.Sprintf("unknown source %q", src)}
		}
		f.Source = kind
	}

	f.SubSource = m[formatPattern.SubexpIndex("sub")]
	if f.Source == SourceAttr && f.SubSource == "" {
		f.SubSource = DefaultAttr
	}
	if f.Source != SourceAttr && f.SubSource != "" {
		return Format{}, &FormatError{Format: s, Reason: "only attr sources take a [name]"}
	}

	return f, nil
}

// String renders the canonical descriptor. ParseFormat(f.String()) == f.
func (f Format) String() string {
	var b strings.Builder
	b.WriteString(f.Selector)
	if f.Index != nil {
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(*f.Index))
	}
	b.WriteByte('$')
	b.WriteString(f.Source.String())
	if f.Source == SourceAttr {
		b.WriteByte('[')
		b.WriteString(f.SubSource)
		b.WriteByte(']')
	}
	return b.String()
}

// IndexOf returns a pointer to n, for building a Format by hand
func IndexOf(n int) *int {
	return &n
}
