package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes v with record keys in insertion order.
// Byte scalars encode as base64 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON encodes the record with keys in insertion order
func (r *Record) MarshalJSON() ([]byte, error) {
	return FromRecord(r).MarshalJSON()
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindRecord:
		buf.WriteByte('{')
		for i, k := range v.rec.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := v.rec.values[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		if f, ok := v.scalar.(float64); ok {
			if math.IsInf(f, 0) || math.IsNaN(f) {
				buf.WriteString("null")
				return nil
			}
			// keep integral floats distinguishable from ints
			buf.WriteString(FormatFloat(f))
			return nil
		}
		data, err := json.Marshal(v.scalar)
		if err != nil {
			return fmt.Errorf("failed to encode scalar: %w", err)
		}
		buf.Write(data)
	}
	return nil
}

// UnmarshalJSON decodes any JSON document, keeping object key order
func (v *Value) UnmarshalJSON(data []byte) error {
	out, err := DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// UnmarshalJSON decodes a JSON object, keeping key order
func (r *Record) UnmarshalJSON(data []byte) error {
	v, err := DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if !v.IsRecord() {
		return fmt.Errorf("expected a JSON object, got %s", v.Kind())
	}
	*r = *v.rec
	return nil
}

// DecodeJSON reads one JSON document from rd
func DecodeJSON(rd io.Reader) (Value, error) {
	dec := json.NewDecoder(rd)
	dec.UseNumber()
	v, err := decodeToken(dec)
	if err != nil {
		return Null(), fmt.Errorf("failed to decode JSON: %w", err)
	}
	return v, nil
}

// ParseJSON is DecodeJSON over a byte slice
func ParseJSON(data []byte) (Value, error) {
	return DecodeJSON(bytes.NewReader(data))
}

func decodeToken(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			r := New()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null(), fmt.Errorf("unexpected object key %v", keyTok)
				}
				item, err := decodeToken(dec)
				if err != nil {
					return Null(), err
				}
				r.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return FromRecord(r), nil
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeToken(dec)
				if err != nil {
					return Null(), err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return List(items...), nil
		default:
			return Null(), fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	default:
		return ValueOf(t), nil
	}
}

// UnmarshalYAML decodes a YAML node, keeping mapping key order
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	out, err := FromYAMLNode(node)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// UnmarshalYAML decodes a YAML mapping, keeping key order
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	v, err := FromYAMLNode(node)
	if err != nil {
		return err
	}
	if !v.IsRecord() {
		return fmt.Errorf("line %d: expected a mapping, got %s", node.Line, v.Kind())
	}
	*r = *v.rec
	return nil
}

// DecodeYAML reads the first YAML document from rd
func DecodeYAML(rd io.Reader) (Value, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(rd).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Null(), nil
		}
		return Null(), fmt.Errorf("failed to decode YAML: %w", err)
	}
	return FromYAMLNode(&root)
}

// FromYAMLNode converts a parsed YAML node tree into a Value
func FromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return FromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null(), nil
		}
		return FromYAMLNode(n.Alias)
	case yaml.MappingNode:
		r := New()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, val := n.Content[i], n.Content[i+1]
			if k.Tag == "!!merge" {
				merged, err := FromYAMLNode(val)
				if err != nil {
					return Null(), err
				}
				merged.Record().Each(func(key string, mv Value) {
					if !r.Has(key) {
						r.Set(key, mv)
					}
				})
				continue
			}
			item, err := FromYAMLNode(val)
			if err != nil {
				return Null(), err
			}
			r.Set(k.Value, item)
		}
		return FromRecord(r), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := FromYAMLNode(c)
			if err != nil {
				return Null(), err
			}
			items = append(items, item)
		}
		return List(items...), nil
	case yaml.ScalarNode:
		return yamlScalar(n), nil
	default:
		return Null(), fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func yamlScalar(n *yaml.Node) Value {
	switch n.ShortTag() {
	case "!!null":
		return Null()
	case "!!bool":
		if b, err := strconv.ParseBool(n.Value); err == nil {
			return Bool(b)
		}
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return Int(i)
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return Float(f)
		}
	}
	return String(n.Value)
}

// MarshalYAML renders v as a YAML node tree with record keys in order
func (v Value) MarshalYAML() (any, error) {
	return v.yamlNode(), nil
}

// MarshalYAML renders the record as an ordered YAML mapping
func (r *Record) MarshalYAML() (any, error) {
	return FromRecord(r).yamlNode(), nil
}

func (v Value) yamlNode() *yaml.Node {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			n.Content = append(n.Content, item.yamlNode())
		}
		return n
	case KindRecord:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.rec.Each(func(k string, item Value) {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				item.yamlNode(),
			)
		})
		return n
	}
	switch s := v.scalar.(type) {
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(s, 10)}
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: FormatFloat(s)}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(s)}
	case []byte:
		b64, _ := v.Base64()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: b64}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text()}
}
