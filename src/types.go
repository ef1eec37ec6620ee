package stacksh

import (
	"sort"
)

// Kind identifies a Value variant
type Kind int

const (
	KindAny Kind = iota // Wildcard used only in operator signatures
	KindStr
	KindNumber
	KindBool
	KindNil
	KindList
	KindRecord
	KindBlock
	KindError
	KindFuture
	KindMarker
)

var kindNames = map[Kind]string{
	KindAny:    "any",
	KindStr:    "string",
	KindNumber: "number",
	KindBool:   "bool",
	KindNil:    "nil",
	KindList:   "list",
	KindRecord: "record",
	KindBlock:  "block",
	KindError:  "error",
	KindFuture: "future",
	KindMarker: "marker",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is the closed set of data the evaluator operates on.
// Only types declared in this package implement it.
type Value interface {
	Kind() Kind
	isValue()
}

// Str is a text value. Output captured from external commands is a plain Str.
type Str string

// Number is a double-precision number
type Number float64

// Bool is a boolean value
type Bool bool

// Nil is the empty value
type Nil struct{}

// Marker bounds a variable-length run of stack items for collect/record/exec
type Marker struct{}

// List is an ordered, heterogeneous, immutable sequence.
// Operators never modify a List in place; they build a new one.
type List []Value

func (Str) Kind() Kind     { return KindStr }
func (Number) Kind() Kind  { return KindNumber }
func (Bool) Kind() Kind    { return KindBool }
func (Nil) Kind() Kind     { return KindNil }
func (Marker) Kind() Kind  { return KindMarker }
func (List) Kind() Kind    { return KindList }
func (*Record) Kind() Kind { return KindRecord }
func (*Block) Kind() Kind  { return KindBlock }

func (Str) isValue()     {}
func (Number) isValue()  {}
func (Bool) isValue()    {}
func (Nil) isValue()     {}
func (Marker) isValue()  {}
func (List) isValue()    {}
func (*Record) isValue() {}
func (*Block) isValue()  {}

// Block is an unevaluated expression sequence. Blocks capture no environment;
// free variable references resolve against the scope active when applied.
type Block struct {
	Exprs  []Expr
	Source string
}

// NewBlock creates a block from parsed expressions
func NewBlock(exprs []Expr, source string) *Block {
	return &Block{Exprs: exprs, Source: source}
}

// Record is an insertion-ordered, string-keyed map.
// Like List it is immutable once built; With/Without return copies.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// RecordBuilder accumulates fields before freezing them into a Record
type RecordBuilder struct {
	rec *Record
}

// NewRecordBuilder starts a record with capacity for n fields
func NewRecordBuilder(n int) *RecordBuilder {
	return &RecordBuilder{rec: &Record{
		keys:   make([]string, 0, n),
		values: make(map[string]Value, n),
	}}
}

// Set adds or replaces a field. Replacing keeps the original position.
func (b *RecordBuilder) Set(key string, value Value) *RecordBuilder {
	if _, exists := b.rec.values[key]; !exists {
		b.rec.keys = append(b.rec.keys, key)
	}
	b.rec.values[key] = value
	return b
}

// Build returns the finished record; the builder must not be used afterwards
func (b *RecordBuilder) Build() *Record {
	rec := b.rec
	b.rec = nil
	return rec
}

// Keys returns the keys in insertion order
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields
func (r *Record) Len() int {
	return len(r.keys)
}

// Get returns the value stored under key
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// With returns a copy of the record with key set to value
func (r *Record) With(key string, value Value) *Record {
	b := NewRecordBuilder(len(r.keys) + 1)
	for _, k := range r.keys {
		b.Set(k, r.values[k])
	}
	return b.Set(key, value).Build()
}

// Without returns a copy of the record with key removed
func (r *Record) Without(key string) *Record {
	b := NewRecordBuilder(len(r.keys))
	for _, k := range r.keys {
		if k != key {
			b.Set(k, r.values[k])
		}
	}
	return b.Build()
}

// Merge returns a record holding r's fields overlaid with other's.
// Keys of r keep their position; keys only in other are appended.
func (r *Record) Merge(other *Record) *Record {
	b := NewRecordBuilder(len(r.keys) + len(other.keys))
	for _, k := range r.keys {
		b.Set(k, r.values[k])
	}
	for _, k := range other.keys {
		b.Set(k, other.values[k])
	}
	return b.Build()
}

// Values returns the field values in key order
func (r *Record) Values() List {
	out := make(List, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.values[k]
	}
	return out
}

// sameKeySet reports whether both records have exactly the same keys (any order)
func (r *Record) sameKeySet(other *Record) bool {
	if len(r.keys) != len(other.keys) {
		return false
	}
	for _, k := range r.keys {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// IsTable reports whether the list is non-empty and every element is a record
// sharing the key set of the first element
func IsTable(l List) bool {
	if len(l) == 0 {
		return false
	}
	first, ok := l[0].(*Record)
	if !ok {
		return false
	}
	for _, item := range l[1:] {
		rec, ok := item.(*Record)
		if !ok || !rec.sameKeySet(first) {
			return false
		}
	}
	return true
}

// TypeName returns the user-visible type name of a value
func TypeName(v Value) string {
	if l, ok := v.(List); ok && IsTable(l) {
		return "table"
	}
	return v.Kind().String()
}

// isScalar reports whether v can be passed as a command-line argument
func isScalar(v Value) bool {
	switch v.(type) {
	case Str, Number, Bool:
		return true
	}
	return false
}

// sortedKeys returns map keys in lexical order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
