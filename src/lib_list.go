package stacksh

import (
	"context"
	"math"
	"sort"
)

// maxRangeLen bounds the list a single range may build
const maxRangeLen = 1 << 24

// testItem runs a condition block with item on top of an isolated stack
// and returns its exit signal
func (ev *Evaluator) testItem(ctx context.Context, item Value, cond *Block, command string) (bool, error) {
	ev.stack.Push(item)
	ok, err := ev.runCondition(ctx, cond, command)
	ev.stack.Pop()
	return ok, err
}

// mapItem applies body to item and returns every value it left
func (ev *Evaluator) mapItem(ctx context.Context, item Value, body *Block) ([]Value, error) {
	base := ev.stack.Len()
	ev.stack.Push(item)
	if err := ev.ApplyBlock(ctx, body); err != nil {
		if extra := ev.stack.Len() - base; extra > 0 {
			ev.stack.PopN(extra)
		}
		return nil, err
	}
	if ev.stack.Len() < base {
		return nil, NewError(StackUnderflow, "map body consumed values below its item")
	}
	produced, _ := ev.stack.PopN(ev.stack.Len() - base)
	return produced, nil
}

// RegisterListLib registers list operators
// Module: list
func (s *Session) RegisterListLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("list", name, sigs...)
	}

	reg("marker", Sig(func(c *Context) error {
		c.Push(Marker{})
		return nil
	}))

	// marker a b c collect → [a, b, c]
	reg("collect", Sig(func(c *Context) error {
		items, found := c.Stack().PopToMarker()
		if !found {
			return c.Errorf(EvalError, "collect found no marker on the stack")
		}
		c.Push(List(items))
		return nil
	}))

	reg("spread", Sig(func(c *Context) error {
		c.Push(c.ListArg(0)...)
		return nil
	}, KindList))

	reg("first", Sig(func(c *Context) error {
		items := c.ListArg(0)
		if len(items) == 0 {
			c.Push(Nil{})
			c.SetStatus(false)
			return nil
		}
		c.Push(items[0])
		return nil
	}, KindList))

	reg("last", Sig(func(c *Context) error {
		items := c.ListArg(0)
		if len(items) == 0 {
			c.Push(Nil{})
			c.SetStatus(false)
			return nil
		}
		c.Push(items[len(items)-1])
		return nil
	}, KindList))

	reg("nth", Sig(func(c *Context) error {
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
	}, KindList, KindNumber))

	reg("append", Sig(func(c *Context) error {
		items := c.ListArg(0)
		out := make(List, len(items), len(items)+1)
		copy(out, items)
		c.Push(append(out, c.Args[1]))
		return nil
	}, KindList, KindAny))

	reg("concat",
		Sig(func(c *Context) error {
			a, b := c.ListArg(0), c.ListArg(1)
			out := make(List, 0, len(a)+len(b))
			c.Push(append(append(out, a...), b...))
			return nil
		}, KindList, KindList),
		Sig(func(c *Context) error {
			c.Push(Str(c.Str(0) + c.Str(1)))
			return nil
		}, KindStr, KindStr),
	)

	reg("reverse",
		Sig(func(c *Context) error {
			items := c.ListArg(0)
			out := make(List, len(items))
			for i, item := range items {
				out[len(items)-1-i] = item
			}
			c.Push(out)
			return nil
		}, KindList),
		Sig(func(c *Context) error {
			r := []rune(c.Str(0))
			for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
				r[i], r[j] = r[j], r[i]
			}
			c.Push(Str(string(r)))
			return nil
		}, KindStr),
	)

	// 1 5 range → [1, 2, 3, 4, 5]; descending when start > end
	reg("range", Sig(func(c *Context) error {
		start, end := c.Num(0), c.Num(1)
		if math.IsInf(start, 0) || math.IsInf(end, 0) || start != math.Trunc(start) || end != math.Trunc(end) {
			return c.Errorf(TypeError, "range bounds must be finite integers")
		}
		step := 1.0
		if end < start {
			step = -1
		}
		span := math.Abs(end - start)
		if span >= maxRangeLen {
			return c.Errorf(EvalError, "range of %s values exceeds the limit of %d", FormatNumber(Number(span+1)), maxRangeLen)
		}
		n := int(span) + 1
		out := make(List, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, Number(start+float64(i)*step))
		}
		c.Push(out)
		return nil
	}, KindNumber, KindNumber))

	// list [body] each runs body with every item pushed in turn
	reg("each", Sig(func(c *Context) error {
		return applyEach(c.ctx, c.ev, c.ListArg(0), c.BlockArg(1))
	}, KindList, KindBlock))

	reg("map", Sig(func(c *Context) error {
		items := c.ListArg(0)
		out := make(List, 0, len(items))
		for _, item := range items {
			produced, err := c.ev.mapItem(c.ctx, item, c.BlockArg(1))
			if isSignal(err, signalBreak) {
				break
			}
			if err != nil {
				return err
			}
			out = append(out, produced...)
		}
		c.Push(out)
		return nil
	}, KindList, KindBlock))

	reg("filter", Sig(func(c *Context) error {
		items := c.ListArg(0)
		out := make(List, 0, len(items))
		for _, item := range items {
			ok, err := c.ev.testItem(c.ctx, item, c.BlockArg(1), c.Command)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, item)
			}
		}
		c.Push(out)
		return nil
	}, KindList, KindBlock))

	// list init [body] reduce: body sees ( acc item -- acc )
	reg("reduce", Sig(func(c *Context) error {
		acc := c.Args[1]
		body := c.BlockArg(2)
		for _, item := range c.ListArg(0) {
			base := c.Stack().Len()
			c.Push(acc, item)
			if err := c.Apply(body); err != nil {
				return err
			}
			if c.Stack().Len() != base+1 {
				return c.Errorf(EvalError, "reduce body must leave exactly one value, left %d", c.Stack().Len()-base)
			}
			acc, _ = c.Stack().Pop()
		}
		c.Push(acc)
		return nil
	}, KindList, KindAny, KindBlock))

	reg("sort", Sig(func(c *Context) error {
		items := c.ListArg(0)
		out := make(List, len(items))
		copy(out, items)
		sort.SliceStable(out, func(i, j int) bool {
			return Compare(out[i], out[j]) < 0
		})
		c.Push(out)
		return nil
	}, KindList))

	reg("uniq", Sig(func(c *Context) error {
		items := c.ListArg(0)
		out := make(List, 0, len(items))
		for _, item := range items {
			seen := false
			for _, kept := range out {
				if Equal(kept, item) {
					seen = true
					break
				}
			}
			if !seen {
				out = append(out, item)
			}
		}
		c.Push(out)
		return nil
	}, KindList))
}
