package stacksh

import (
	"math"

	"github.com/shopspring/decimal"
)

// tableColumns verifies the table invariant and returns the column order
// of the first row. An empty list is an empty table.
func tableColumns(c *Context, rows List) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	first, ok := rows[0].(*Record)
	if !ok {
		return nil, c.Errorf(TypeError, "%s expects a table, row 0 is %s", c.Command, TypeName(rows[0]))
	}
	cols := first.Keys()
	for i, row := range rows[1:] {
		rec, ok := row.(*Record)
		if !ok {
			return nil, c.Errorf(TypeError, "%s expects a table, row %d is %s", c.Command, i+1, TypeName(row))
		}
		for _, col := range cols {
			if !rec.Has(col) {
				return nil, c.Errorf(TypeError, "row %d is missing column %q", i+1, col)
			}
		}
		if rec.Len() != len(cols) {
			for _, k := range rec.Keys() {
				if !first.Has(k) {
					return nil, c.Errorf(TypeError, "row 0 is missing column %q", k)
				}
			}
		}
	}
	return cols, nil
}

// requireColumn verifies the table and that it has col
func requireColumn(c *Context, rows List, col string) error {
	cols, err := tableColumns(c, rows)
	if err != nil || len(rows) == 0 {
		return err
	}
	for _, have := range cols {
		if have == col {
			return nil
		}
	}
	return c.Errorf(TypeError, "table has no column %q", col)
}

// stringList converts a list of Str into names
func stringList(c *Context, l List) ([]string, error) {
	out := make([]string, len(l))
	for i, v := range l {
		s, ok := v.(Str)
		if !ok {
			return nil, c.Errorf(TypeError, "column names must be strings, got %s", TypeName(v))
		}
		out[i] = string(s)
	}
	return out, nil
}

// numbersOf coerces aggregate inputs, reporting the first non-number
func numbersOf(c *Context, values List) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		n, err := numericOperand(c, v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// preciseSum adds without binary drift, so 0.1 + 0.2 is 0.3. Decimal has
// no NaN or Inf, so any non-finite input falls back to IEEE addition.
func preciseSum(nums []float64) float64 {
	total := decimal.Zero
	for _, n := range nums {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return floatSum(nums)
		}
		total = total.Add(decimal.NewFromFloat(n))
	}
	return total.InexactFloat64()
}

func floatSum(nums []float64) float64 {
	var total float64
	for _, n := range nums {
		total += n
	}
	return total
}

// RegisterTableLib registers table construction, query and aggregate
// operators
// Module: table
func (s *Session) RegisterTableLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("table", name, sigs...)
	}

	// aggregate resolves either a plain list or one table column
	aggregate := func(fn func(c *Context, values List) error) []Signature {
		return []Signature{
			Sig(func(c *Context) error {
				rows := c.ListArg(0)
				if err := requireColumn(c, rows, c.Str(1)); err != nil {
					return err
				}
				values, err := column(c, rows, c.Str(1))
				if err != nil {
					return err
				}
				return fn(c, values)
			}, KindList, KindStr),
			Sig(func(c *Context) error {
				return fn(c, c.ListArg(0))
			}, KindList),
		}
	}

	// rows table verifies the invariant and normalizes column order
	reg("table",
		Sig(func(c *Context) error {
			rows := c.ListArg(0)
			cols, err := tableColumns(c, rows)
			if err != nil {
				return err
			}
			out := make(List, len(rows))
			for i, row := range rows {
				rec := row.(*Record)
				b := NewRecordBuilder(len(cols))
				for _, col := range cols {
					v, _ := rec.Get(col)
					b.Set(col, v)
				}
				out[i] = b.Build()
			}
			c.Push(out)
			return nil
		}, KindList),
	)

	// header rows tabulate builds records from a header list and row lists
	reg("tabulate",
		Sig(func(c *Context) error {
			header, err := stringList(c, c.ListArg(0))
			if err != nil {
				return err
			}
			rows := c.ListArg(1)
			out := make(List, len(rows))
			for i, row := range rows {
				cells, ok := row.(List)
				if !ok || len(cells) != len(header) {
					return c.Errorf(TypeError, "row %d must be a list of %d cells", i, len(header))
				}
				b := NewRecordBuilder(len(header))
				for j, col := range header {
					b.Set(col, cells[j])
				}
				out[i] = b.Build()
			}
			c.Push(out)
			return nil
		}, KindList, KindList),
	)

	reg("columns", Sig(func(c *Context) error {
		cols, err := tableColumns(c, c.ListArg(0))
		if err != nil {
			return err
		}
		out := make(List, len(cols))
		for i, col := range cols {
			out[i] = Str(col)
		}
		c.Push(out)
		return nil
	}, KindList))

	// table [cond] where keeps rows whose condition succeeds
	reg("where", Sig(func(c *Context) error {
		rows := c.ListArg(0)
		if _, err := tableColumns(c, rows); err != nil {
			return err
		}
		out := make(List, 0, len(rows))
		for _, row := range rows {
			ok, err := c.ev.testItem(c.ctx, row, c.BlockArg(1), c.Command)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, row)
			}
		}
		c.Push(out)
		return nil
	}, KindList, KindBlock))

	reg("sort-by", Sig(func(c *Context) error {
		sorted, err := sortRowsBy(c, c.ListArg(0), c.Str(1), false)
		if err != nil {
			return err
		}
		c.Push(sorted)
		return nil
	}, KindList, KindStr))

	reg("sort-by-desc", Sig(func(c *Context) error {
		sorted, err := sortRowsBy(c, c.ListArg(0), c.Str(1), true)
		if err != nil {
			return err
		}
		c.Push(sorted)
		return nil
	}, KindList, KindStr))

	// group-by → record of tables keyed by the serialized column value,
	// groups in first-seen order
	reg("group-by", Sig(func(c *Context) error {
		rows, key := c.ListArg(0), c.Str(1)
		if err := requireColumn(c, rows, key); err != nil {
			return err
		}
		values, err := column(c, rows, key)
		if err != nil {
			return err
		}
		var order []string
		groups := make(map[string]List)
		for i, v := range values {
			k := Serialize(v)
			if _, seen := groups[k]; !seen {
				order = append(order, k)
			}
			groups[k] = append(groups[k], rows[i])
		}
		b := NewRecordBuilder(len(order))
		for _, k := range order {
			b.Set(k, groups[k])
		}
		c.Push(b.Build())
		return nil
	}, KindList, KindStr))

	project := func(keep bool) Handler {
		return func(c *Context) error {
			var names []string
			switch sel := c.Args[1].(type) {
			case Str:
				names = []string{string(sel)}
			case List:
				var err error
				if names, err = stringList(c, sel); err != nil {
					return err
				}
			}
			pick := func(rec *Record) (*Record, error) {
				if keep {
					b := NewRecordBuilder(len(names))
					for _, n := range names {
						v, ok := rec.Get(n)
						if !ok {
							return nil, c.Errorf(TypeError, "no column %q", n)
						}
						b.Set(n, v)
					}
					return b.Build(), nil
				}
				out := rec
				for _, n := range names {
					out = out.Without(n)
				}
				return out, nil
			}
			switch target := c.Args[0].(type) {
			case *Record:
				rec, err := pick(target)
				if err != nil {
					return err
				}
				c.Push(rec)
				return nil
			case List:
				if _, err := tableColumns(c, target); err != nil {
					return err
				}
				out := make(List, len(target))
				for i, row := range target {
					rec, err := pick(row.(*Record))
					if err != nil {
						return err
					}
					out[i] = rec
				}
				c.Push(out)
				return nil
			}
			return c.Errorf(TypeError, "%s expects a table or record, got %s", c.Command, TypeName(c.Args[0]))
		}
	}
	for name, keep := range map[string]bool{"select": true, "reject": false} {
		reg(name,
			Sig(project(keep), KindAny, KindStr),
			Sig(project(keep), KindAny, KindList),
		)
	}

	reg("sum", aggregate(func(c *Context, values List) error {
		nums, err := numbersOf(c, values)
		if err != nil {
			return err
		}
		c.Push(Number(preciseSum(nums)))
		return nil
	})...)

	reg("avg", aggregate(func(c *Context, values List) error {
		nums, err := numbersOf(c, values)
		if err != nil {
			return err
		}
		if len(nums) == 0 {
			c.Push(Nil{})
			c.SetStatus(false)
			return nil
		}
		total := preciseSum(nums)
		if math.IsNaN(total) || math.IsInf(total, 0) {
			c.Push(Number(total / float64(len(nums))))
			return nil
		}
		avg := decimal.NewFromFloat(total).Div(decimal.NewFromInt(int64(len(nums))))
		c.Push(Number(avg.InexactFloat64()))
		return nil
	})...)

	extreme := func(wantMax bool) func(c *Context, values List) error {
		return func(c *Context, values List) error {
			if len(values) == 0 {
				c.Push(Nil{})
				c.SetStatus(false)
				return nil
			}
			numeric := columnIsNumeric(values)
			best := values[0]
			for _, v := range values[1:] {
				var cmp int
				if numeric {
					a, b := numericValue(v), numericValue(best)
					switch {
					case a < b:
						cmp = -1
					case a > b:
						cmp = 1
					}
				} else {
					cmp = Compare(v, best)
				}
				if (wantMax && cmp > 0) || (!wantMax && cmp < 0) {
					best = v
				}
			}
			c.Push(best)
			return nil
		}
	}
	pairExtreme := func(wantMax bool) Signature {
		return Sig(func(c *Context) error {
			a, b := c.Num(0), c.Num(1)
			if (wantMax && b > a) || (!wantMax && b < a) {
				a = b
			}
			c.Push(Number(a))
			return nil
		}, KindNumber, KindNumber)
	}
	reg("min", append([]Signature{pairExtreme(false)}, aggregate(extreme(false))...)...)
	reg("max", append([]Signature{pairExtreme(true)}, aggregate(extreme(true))...)...)

	reg("count",
		Sig(func(c *Context) error {
			n := 0
			for _, item := range c.ListArg(0) {
				ok, err := c.ev.testItem(c.ctx, item, c.BlockArg(1), c.Command)
				if err != nil {
					return err
				}
				if ok {
					n++
				}
			}
			c.Push(Number(n))
			return nil
		}, KindList, KindBlock),
		Sig(func(c *Context) error {
			c.Push(Number(len(c.ListArg(0))))
			return nil
		}, KindList),
	)
}
