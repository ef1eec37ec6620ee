package stacksh

import (
	"unicode/utf8"
)

// recordFromPairs builds a record from alternating keys and values
func recordFromPairs(c *Context, items []Value) (*Record, error) {
	if len(items)%2 != 0 {
		return nil, c.Errorf(TypeError, "record needs key/value pairs, got %d value(s)", len(items))
	}
	b := NewRecordBuilder(len(items) / 2)
	for i := 0; i < len(items); i += 2 {
		key, ok := items[i].(Str)
		if !ok {
			return nil, c.Errorf(TypeError, "record key must be a string, got %s", TypeName(items[i]))
		}
		b.Set(string(key), items[i+1])
	}
	return b.Build(), nil
}

// listIndex resolves a possibly negative index against a length
func listIndex(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// column extracts one field from every row, naming the column when a row
// lacks it
func column(c *Context, rows List, key string) (List, error) {
	out := make(List, len(rows))
	for i, row := range rows {
		rec, ok := row.(*Record)
		if !ok {
			return nil, c.Errorf(TypeError, "row %d is %s, not a record", i, TypeName(row))
		}
		v, ok := rec.Get(key)
		if !ok {
			return nil, c.Errorf(TypeError, "row %d has no column %q", i, key)
		}
		out[i] = v
	}
	return out, nil
}

// RegisterStructLib registers record operators
// Module: struct
func (s *Session) RegisterStructLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("struct", name, sigs...)
	}

	// record takes key/value pairs above the topmost marker, or the whole
	// stack when there is no marker
	reg("record", Sig(func(c *Context) error {
		items, found := c.Stack().PopToMarker()
		if !found {
			if c.Stack().Len()%2 != 0 {
				return c.Errorf(TypeError, "record needs key/value pairs, got %d value(s)", c.Stack().Len())
			}
			items, _ = c.Stack().PopN(c.Stack().Len())
		}
		rec, err := recordFromPairs(c, items)
		if err != nil {
			return err
		}
		c.Push(rec)
		return nil
	}))

	reg("get",
		Sig(func(c *Context) error {
			v, ok := c.RecordArg(0).Get(c.Str(1))
			if !ok {
				c.Push(Nil{})
				c.SetStatus(false)
				return nil
			}
			c.Push(v)
			return nil
		}, KindRecord, KindStr),
		Sig(func(c *Context) error {
			i, err := c.Int(1)
			if err != nil {
				return err
			}
			items := c.ListArg(0)
			idx, ok := listIndex(i, len(items))
			if !ok {
				c.Push(Nil{})
				c.SetStatus(false)
				return nil
			}
			c.Push(items[idx])
			return nil
		}, KindList, KindNumber),
		Sig(func(c *Context) error {
			col, err := column(c, c.ListArg(0), c.Str(1))
			if err != nil {
				return err
			}
			c.Push(col)
			return nil
		}, KindList, KindStr),
	)

	reg("set",
		Sig(func(c *Context) error {
			c.Push(c.RecordArg(0).With(c.Str(1), c.Args[2]))
			return nil
		}, KindRecord, KindStr, KindAny),
		Sig(func(c *Context) error {
			i, err := c.Int(1)
			if err != nil {
				return err
			}
			items := c.ListArg(0)
			idx, ok := listIndex(i, len(items))
			if !ok {
				return c.Errorf(EvalError, "index %d out of range for list of %d", i, len(items))
			}
			out := make(List, len(items))
			copy(out, items)
			out[idx] = c.Args[2]
			c.Push(out)
			return nil
		}, KindList, KindNumber, KindAny),
		Sig(func(c *Context) error {
			rows := c.ListArg(0)
			out := make(List, len(rows))
			for i, row := range rows {
				rec, ok := row.(*Record)
				if !ok {
					return c.Errorf(TypeError, "row %d is %s, not a record", i, TypeName(row))
				}
				out[i] = rec.With(c.Str(1), c.Args[2])
			}
			c.Push(out)
			return nil
		}, KindList, KindStr, KindAny),
	)

	reg("del", Sig(func(c *Context) error {
		c.Push(c.RecordArg(0).Without(c.Str(1)))
		return nil
	}, KindRecord, KindStr))

	reg("keys", Sig(func(c *Context) error {
		keys := c.RecordArg(0).Keys()
		out := make(List, len(keys))
		for i, k := range keys {
			out[i] = Str(k)
		}
		c.Push(out)
		return nil
	}, KindRecord))

	reg("values", Sig(func(c *Context) error {
		c.Push(c.RecordArg(0).Values())
		return nil
	}, KindRecord))

	reg("merge", Sig(func(c *Context) error {
		c.Push(c.RecordArg(0).Merge(c.RecordArg(1)))
		return nil
	}, KindRecord, KindRecord))

	reg("has?", Sig(func(c *Context) error {
		return predicate(c, c.RecordArg(0).Has(c.Str(1)))
	}, KindRecord, KindStr))

	reg("len",
		Sig(func(c *Context) error {
			c.Push(Number(len(c.ListArg(0))))
			return nil
		}, KindList),
		Sig(func(c *Context) error {
			c.Push(Number(c.RecordArg(0).Len()))
			return nil
		}, KindRecord),
		Sig(func(c *Context) error {
			c.Push(Number(utf8.RuneCountInString(c.Str(0))))
			return nil
		}, KindStr),
	)
}
