package stacksh

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EncodeJSON writes a value as JSON with record key order preserved.
// Values JSON cannot express are mapped: blocks to their source, errors to
// their info record, futures to their id, nil and markers to null.
func EncodeJSON(v Value, pretty bool) string {
	var buf bytes.Buffer
	writeJSON(&buf, v, pretty, 0)
	return buf.String()
}

func writeJSONString(buf *bytes.Buffer, s string) {
	// json.Marshal of a string cannot fail
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func writeIndent(buf *bytes.Buffer, pretty bool, level int) {
	if !pretty {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat("  ", level))
}

func writeJSON(buf *bytes.Buffer, v Value, pretty bool, level int) {
	switch val := v.(type) {
	case Str:
		writeJSONString(buf, string(val))
	case Number:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
		} else {
			buf.WriteString(FormatNumber(val))
		}
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case List:
		if len(val) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeIndent(buf, pretty, level+1)
			writeJSON(buf, item, pretty, level+1)
		}
		writeIndent(buf, pretty, level)
		buf.WriteByte(']')
	case *Record:
		if val.Len() == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteByte('{')
		for i, k := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeIndent(buf, pretty, level+1)
			writeJSONString(buf, k)
			buf.WriteByte(':')
			if pretty {
				buf.WriteByte(' ')
			}
			writeJSON(buf, val.values[k], pretty, level+1)
		}
		writeIndent(buf, pretty, level)
		buf.WriteByte('}')
	case *Block:
		writeJSONString(buf, val.Source)
	case *ErrorValue:
		writeJSON(buf, val.Info(), pretty, level)
	case *Future:
		writeJSONString(buf, val.ID())
	default:
		buf.WriteString("null")
	}
}

// encodeDelimited writes a table as CSV (or any single-rune delimiter)
// with a header row
func encodeDelimited(rows List, comma rune) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if len(rows) > 0 {
		cols := rows[0].(*Record).Keys()
		if err := w.Write(cols); err != nil {
			return "", errors.Wrap(err, "write header")
		}
		record := make([]string, len(cols))
		for _, row := range rows {
			rec := row.(*Record)
			for i, col := range cols {
				v, _ := rec.Get(col)
				record[i] = serializeInline(v)
			}
			if err := w.Write(record); err != nil {
				return "", errors.Wrap(err, "write row")
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flush csv")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// yamlNode builds an order-preserving YAML node for a value
func yamlNode(v Value) *yaml.Node {
	switch val := v.(type) {
	case Str:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(val)}
	case Number:
		f := float64(val)
		switch {
		case math.IsNaN(f):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".nan"}
		case math.IsInf(f, 1):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".inf"}
		case math.IsInf(f, -1):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: "-.inf"}
		case f == math.Trunc(f) && math.Abs(f) < 1e15:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: FormatNumber(val)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: FormatNumber(val)}
	case Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(val))}
	case List:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			node.Content = append(node.Content, yamlNode(item))
		}
		return node
	case *Record:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range val.keys {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(val.values[k]))
		}
		return node
	case *ErrorValue:
		return yamlNode(val.Info())
	case Nil, Marker:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: serializeInline(v)}
}

// encodeYAML writes a value as a YAML document without the trailing newline
func encodeYAML(v Value) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return "", errors.Wrap(err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "encode yaml")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
