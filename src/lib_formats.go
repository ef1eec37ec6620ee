package stacksh

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DecodeJSON parses JSON text into a Value, keeping object key order
func DecodeJSON(text string) (Value, error) {
	data := []byte(strings.TrimSpace(text))
	if len(data) == 0 {
		return nil, errors.New("empty JSON input")
	}
	value, dataType, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	if rest := strings.TrimSpace(string(data[end:])); rest != "" {
		return nil, errors.Errorf("invalid JSON: unexpected %q after value", firstToken(rest))
	}
	return jsonValue(value, dataType)
}

func firstToken(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}

func jsonValue(raw []byte, dataType jsonparser.ValueType) (Value, error) {
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return nil, errors.Wrap(err, "invalid JSON string")
		}
		return Str(s), nil
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(raw)
		if err != nil {
			return nil, errors.Wrap(err, "invalid JSON number")
		}
		return Number(f), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return nil, errors.Wrap(err, "invalid JSON boolean")
		}
		return Bool(b), nil
	case jsonparser.Null:
		return Nil{}, nil
	case jsonparser.Array:
		items := List{}
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			item, err := jsonValue(value, dt)
			if err != nil {
				inner = err
				return
			}
			items = append(items, item)
		})
		if err == nil {
			err = inner
		}
		if err != nil {
			return nil, errors.Wrap(err, "invalid JSON array")
		}
		return items, nil
	case jsonparser.Object:
		b := NewRecordBuilder(4)
		err := jsonparser.ObjectEach(raw, func(key []byte, value []byte, dt jsonparser.ValueType, _ int) error {
			item, err := jsonValue(value, dt)
			if err != nil {
				return err
			}
			b.Set(string(key), item)
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "invalid JSON object")
		}
		return b.Build(), nil
	}
	return nil, errors.Errorf("unsupported JSON value %q", string(raw))
}

// DecodeCSV parses comma separated text with a header row into a table of
// strings
func DecodeCSV(text string) (Value, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "invalid CSV")
	}
	return tableFromRows(records)
}

var tsvUnescaper = strings.NewReplacer("\\\\", "\\", "\\t", "\t", "\\n", "\n", "\\r", "\r")

// DecodeTSV parses tab separated text with a header row, undoing the
// escapes the outbound serializer applies
func DecodeTSV(text string) (Value, error) {
	var rows [][]string
	for _, line := range splitLines(text) {
		fields := strings.Split(line, "\t")
		for i, f := range fields {
			fields[i] = tsvUnescaper.Replace(f)
		}
		rows = append(rows, fields)
	}
	return tableFromRows(rows)
}

func tableFromRows(rows [][]string) (Value, error) {
	if len(rows) == 0 {
		return List{}, nil
	}
	header := rows[0]
	out := make(List, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, errors.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(header))
		}
		b := NewRecordBuilder(len(header))
		for j, col := range header {
			b.Set(col, Str(row[j]))
		}
		out = append(out, b.Build())
	}
	return out, nil
}

// DecodeKV parses key=value lines into a record. Blank lines and lines
// starting with # are skipped.
func DecodeKV(text string) (Value, error) {
	b := NewRecordBuilder(8)
	for i, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Errorf("line %d is not key=value: %q", i+1, line)
		}
		b.Set(strings.TrimSpace(key), Str(value))
	}
	return b.Build(), nil
}

// DecodeLines splits text into a list of lines without terminators
func DecodeLines(text string) (Value, error) {
	lines := splitLines(text)
	out := make(List, len(lines))
	for i, l := range lines {
		out[i] = Str(l)
	}
	return out, nil
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// DecodeYAML parses a YAML document, keeping mapping order
func DecodeYAML(text string) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, errors.Wrap(err, "invalid YAML")
	}
	if doc.Kind == 0 {
		return Nil{}, nil
	}
	return yamlValue(&doc)
}

func yamlValue(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Nil{}, nil
		}
		return yamlValue(node.Content[0])
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.SequenceNode:
		out := make(List, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := yamlValue(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		b := NewRecordBuilder(len(node.Content) / 2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := yamlValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			b.Set(node.Content[i].Value, v)
		}
		return b.Build(), nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return Nil{}, nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return nil, errors.Wrap(err, "invalid YAML bool")
			}
			return Bool(b), nil
		case "!!int", "!!float":
			var f float64
			if err := node.Decode(&f); err != nil {
				return nil, errors.Wrap(err, "invalid YAML number")
			}
			return Number(f), nil
		}
		return Str(node.Value), nil
	}
	return nil, errors.Errorf("unsupported YAML node at line %d", node.Line)
}

type decoder func(string) (Value, error)

var decoders = map[string]decoder{
	"json":  DecodeJSON,
	"csv":   DecodeCSV,
	"tsv":   DecodeTSV,
	"kv":    DecodeKV,
	"lines": DecodeLines,
	"yaml":  DecodeYAML,
}

// encodeAs converts a value to text in the named format
func encodeAs(c *Context, format string, v Value) (string, error) {
	switch format {
	case "json":
		return EncodeJSON(v, false), nil
	case "json-pretty":
		return EncodeJSON(v, true), nil
	case "yaml":
		return encodeYAML(v)
	case "text":
		return Serialize(v), nil
	case "csv", "tsv":
		rows, ok := v.(List)
		if !ok {
			return "", c.Errorf(TypeError, "to-%s expects a table, got %s", format, TypeName(v))
		}
		if _, err := tableColumns(c, rows); err != nil {
			return "", err
		}
		if format == "tsv" {
			if len(rows) == 0 {
				return "", nil
			}
			return serializeTable(rows), nil
		}
		return encodeDelimited(rows, ',')
	case "kv":
		rec, ok := v.(*Record)
		if !ok {
			return "", c.Errorf(TypeError, "to-kv expects a record, got %s", TypeName(v))
		}
		return Serialize(rec), nil
	case "lines":
		items, ok := v.(List)
		if !ok {
			return "", c.Errorf(TypeError, "to-lines expects a list, got %s", TypeName(v))
		}
		lines := make([]string, len(items))
		for i, item := range items {
			lines[i] = serializeInline(item)
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", c.Errorf(EvalError, "unknown format %s", strconv.Quote(format))
}

// RegisterFormatsLib registers the explicit parse (into-*) and render
// (to-*) operators. Parsing is never implicit.
// Module: formats
func (s *Session) RegisterFormatsLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("formats", name, sigs...)
	}

	decode := func(c *Context, format, text string) error {
		dec, ok := decoders[format]
		if !ok {
			return c.Errorf(EvalError, "unknown format %s", strconv.Quote(format))
		}
		v, err := dec(text)
		if err != nil {
			return c.Errorf(TypeError, "%s: %s", c.Command, err.Error())
		}
		c.Logger().DebugCat(CatIO, "%s decoded %d bytes", c.Command, len(text))
		c.Push(v)
		return nil
	}

	for format := range decoders {
		format := format
		reg("into-"+format, Sig(func(c *Context) error {
			return decode(c, format, c.Str(0))
		}, KindStr))
	}
	// text "format" into
	reg("into", Sig(func(c *Context) error {
		return decode(c, c.Str(1), c.Str(0))
	}, KindStr, KindStr))

	for _, format := range []string{"json", "json-pretty", "yaml", "text", "csv", "tsv", "kv", "lines"} {
		format := format
		reg("to-"+format, Sig(func(c *Context) error {
			text, err := encodeAs(c, format, c.Args[0])
			if err != nil {
				return err
			}
			c.Push(Str(text))
			return nil
		}, KindAny))
	}
	// value "format" to
	reg("to", Sig(func(c *Context) error {
		text, err := encodeAs(c, c.Str(1), c.Args[0])
		if err != nil {
			return err
		}
		c.Push(Str(text))
		return nil
	}, KindAny, KindStr))
}
