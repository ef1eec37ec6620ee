package stacksh

import (
	"fmt"
	"math"
	"sort"
)

// RegisterTypesLib registers type inspection and conversion operators
// Module: types
func (s *Session) RegisterTypesLib() {

	s.RegisterOperatorInModule("types", "typeof", Sig(func(c *Context) error {
		c.Push(Str(TypeName(c.Args[0])))
		return nil
	}, KindAny))

	// to-number is the explicit string→number coercion
	s.RegisterOperatorInModule("types", "to-number",
		Sig(func(c *Context) error {
			c.Push(c.Args[0])
			return nil
		}, KindNumber),
		Sig(func(c *Context) error {
			n, ok := parseNumericString(c.Str(0))
			if !ok {
				return c.Errorf(TypeError, "cannot convert %q to number", c.Str(0))
			}
			c.Push(n)
			return nil
		}, KindStr),
		Sig(func(c *Context) error {
			if c.Args[0].(Bool) {
				c.Push(Number(1))
			} else {
				c.Push(Number(0))
			}
			return nil
		}, KindBool),
	)

	s.RegisterOperatorInModule("types", "to-string", Sig(func(c *Context) error {
		c.Push(Str(Serialize(c.Args[0])))
		return nil
	}, KindAny))

	kindPredicates := map[string]Kind{
		"string?": KindStr,
		"number?": KindNumber,
		"bool?":   KindBool,
		"nil?":    KindNil,
		"list?":   KindList,
		"record?": KindRecord,
		"block?":  KindBlock,
		"future?": KindFuture,
	}
	for name, kind := range kindPredicates {
		kind := kind
		s.RegisterOperatorInModule("types", name, Sig(func(c *Context) error {
			return predicate(c, c.Args[0].Kind() == kind)
		}, KindAny))
	}

	s.RegisterOperatorInModule("types", "table?", Sig(func(c *Context) error {
		l, ok := c.Args[0].(List)
		return predicate(c, ok && IsTable(l))
	}, KindAny))
}

// ValueFromGo converts decoded Go data (viper settings, YAML, host values)
// into a Value. Maps without an inherent order get sorted keys.
func ValueFromGo(x interface{}) Value {
	switch v := x.(type) {
	case nil:
		return Nil{}
	case Value:
		return v
	case string:
		return Str(v)
	case bool:
		return Bool(v)
	case int:
		return Number(v)
	case int32:
		return Number(v)
	case int64:
		return Number(v)
	case uint:
		return Number(v)
	case uint64:
		return Number(v)
	case float32:
		return Number(v)
	case float64:
		return Number(v)
	case []string:
		out := make(List, len(v))
		for i, item := range v {
			out[i] = Str(item)
		}
		return out
	case []interface{}:
		out := make(List, len(v))
		for i, item := range v {
			out[i] = ValueFromGo(item)
		}
		return out
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b := NewRecordBuilder(len(keys))
		for _, k := range keys {
			b.Set(k, ValueFromGo(v[k]))
		}
		return b.Build()
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, item := range v {
			m[fmt.Sprint(k)] = item
		}
		return ValueFromGo(m)
	}
	return Str(fmt.Sprint(x))
}

// ValueToGo converts a Value into plain Go data. Records become maps, so
// key order is lost; use EncodeJSON when order matters.
func ValueToGo(v Value) interface{} {
	switch val := v.(type) {
	case Str:
		return string(val)
	case Number:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case Bool:
		return bool(val)
	case Nil, Marker:
		return nil
	case List:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = ValueToGo(item)
		}
		return out
	case *Record:
		out := make(map[string]interface{}, val.Len())
		for _, k := range val.Keys() {
			item, _ := val.Get(k)
			out[k] = ValueToGo(item)
		}
		return out
	case *ErrorValue:
		return val.Error()
	}
	return Serialize(v)
}
