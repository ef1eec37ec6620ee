package stacksh

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a number canonically: integral values without a
// decimal point, everything else in shortest round-trip form
func FormatNumber(n Number) string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Repr returns the display form of a value, as shown by the REPL and `show`
func Repr(v Value) string {
	var sb strings.Builder
	writeRepr(&sb, v)
	return sb.String()
}

func writeRepr(sb *strings.Builder, v Value) {
	switch val := v.(type) {
	case Str:
		sb.WriteString(strconv.Quote(string(val)))
	case Number:
		sb.WriteString(FormatNumber(val))
	case Bool:
		sb.WriteString(strconv.FormatBool(bool(val)))
	case Nil:
		sb.WriteString("nil")
	case Marker:
		sb.WriteString("<marker>")
	case List:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, item)
		}
		sb.WriteByte(']')
	case *Record:
		sb.WriteByte('{')
		for i, k := range val.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			writeRepr(sb, val.values[k])
		}
		sb.WriteByte('}')
	case *Block:
		sb.WriteString("[ ")
		sb.WriteString(val.Source)
		sb.WriteString(" ]")
	case *ErrorValue:
		sb.WriteByte('<')
		sb.WriteString(string(val.Type))
		sb.WriteString(": ")
		sb.WriteString(val.Message)
		sb.WriteByte('>')
	case *Future:
		sb.WriteString("<future ")
		sb.WriteString(val.ShortID())
		sb.WriteByte(' ')
		sb.WriteString(val.Status().String())
		sb.WriteByte('>')
	default:
		sb.WriteString("<unknown>")
	}
}

// Serialize returns the text a value becomes when it crosses into an
// external process or is forced to text with `raw` / `to-text`:
//
//	table        TSV, header row then one row per record
//	list         one element per line
//	record       key=value lines
//	string       verbatim
//	number/bool  canonical text
//	nil          empty string
//
// Nested structured values inside a line or cell are written as compact JSON.
func Serialize(v Value) string {
	switch val := v.(type) {
	case List:
		if IsTable(val) {
			return serializeTable(val)
		}
		lines := make([]string, len(val))
		for i, item := range val {
			lines[i] = serializeInline(item)
		}
		return strings.Join(lines, "\n")
	case *Record:
		lines := make([]string, len(val.keys))
		for i, k := range val.keys {
			lines[i] = k + "=" + serializeInline(val.values[k])
		}
		return strings.Join(lines, "\n")
	}
	return serializeInline(v)
}

// serializeInline renders a value that must fit on one line or in one cell
func serializeInline(v Value) string {
	switch val := v.(type) {
	case Str:
		return string(val)
	case Number:
		return FormatNumber(val)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Nil, Marker:
		return ""
	case List, *Record:
		return EncodeJSON(val, false)
	case *Block:
		return val.Source
	case *ErrorValue:
		return val.Error()
	case *Future:
		return "future:" + val.ID()
	}
	return ""
}

var tsvEscaper = strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r")

func serializeTable(rows List) string {
	cols := rows[0].(*Record).keys
	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte('\t')
		}
		sb.WriteString(tsvEscaper.Replace(c))
	}
	for _, row := range rows {
		rec := row.(*Record)
		sb.WriteByte('\n')
		for i, c := range cols {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(tsvEscaper.Replace(serializeInline(rec.values[c])))
		}
	}
	return sb.String()
}
