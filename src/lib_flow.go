package stacksh

import (
	"context"
)

// loopStep interprets the outcome of one loop body run: a break ends the
// loop cleanly, anything else that failed propagates
func loopStep(err error) (stop bool, out error) {
	if err == nil {
		return false, nil
	}
	if isSignal(err, signalBreak) {
		return true, nil
	}
	return true, err
}

// RegisterFlowLib registers conditionals, loops, block application and
// error handling
// Module: flow
func (s *Session) RegisterFlowLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("flow", name, sigs...)
	}

	// [block] @ applies a block
	reg("@", Sig(func(c *Context) error {
		return c.Apply(c.BlockArg(0))
	}, KindBlock))

	// [cond] [then] [else] if
	reg("if", Sig(func(c *Context) error {
		ok, err := c.ev.runCondition(c.ctx, c.Args[0], c.Command)
		if err != nil {
			return err
		}
		c.Logger().DebugCat(CatFlow, "if condition %v", ok)
		if ok {
			return c.Apply(c.BlockArg(1))
		}
		return c.Apply(c.BlockArg(2))
	}, KindAny, KindBlock, KindBlock))

	// [cond] [then] when has no else branch
	reg("when", Sig(func(c *Context) error {
		ok, err := c.ev.runCondition(c.ctx, c.Args[0], c.Command)
		if err != nil || !ok {
			return err
		}
		return c.Apply(c.BlockArg(1))
	}, KindAny, KindBlock))

	conditional := func(until bool) Handler {
		return func(c *Context) error {
			cond, body := c.Args[0], c.BlockArg(1)
			for {
				if err := c.ctx.Err(); err != nil {
					return contextError(c.ctx, err)
				}
				ok, err := c.ev.runCondition(c.ctx, cond, c.Command)
				if err != nil {
					return err
				}
				if ok == until {
					return nil
				}
				if stop, err := loopStep(c.Apply(body)); stop {
					return err
				}
			}
		}
	}
	reg("while", Sig(conditional(false), KindAny, KindBlock))
	reg("until", Sig(conditional(true), KindAny, KindBlock))

	times := func(c *Context, n int, body *Block) error {
		for i := 0; i < n; i++ {
			if err := c.ctx.Err(); err != nil {
				return contextError(c.ctx, err)
			}
			if stop, err := loopStep(c.Apply(body)); stop {
				return err
			}
		}
		return nil
	}
	reg("times",
		Sig(func(c *Context) error {
			n, err := c.Int(0)
			if err != nil {
				return err
			}
			return times(c, n, c.BlockArg(1))
		}, KindNumber, KindBlock),
		Sig(func(c *Context) error {
			n, err := c.Int(1)
			if err != nil {
				return err
			}
			return times(c, n, c.BlockArg(0))
		}, KindBlock, KindNumber),
	)

	reg("break", Sig(func(c *Context) error {
		return signalBreak
	}))

	reg("return", Sig(func(c *Context) error {
		return signalReturn
	}))

	// [block] try pushes the error instead of propagating it. The stack is
	// restored to its state before the block first.
	reg("try", Sig(func(c *Context) error {
		snapshot := c.Stack().Snapshot()
		err := c.Apply(c.BlockArg(0))
		if err == nil {
			c.SetStatus(true)
			return nil
		}
		if _, ok := err.(flowSignal); ok {
			return err
		}
		if ctxErr := c.ctx.Err(); ctxErr != nil {
			return err
		}
		ev := asErrorValue(err, "")
		c.Stack().Restore(snapshot)
		c.Push(ev)
		c.SetStatus(false)
		c.Logger().DebugCat(CatFlow, "try caught %s", ev.Error())
		return nil
	}, KindBlock))

	// [block] [handler] catch runs handler with the error on the stack
	reg("catch", Sig(func(c *Context) error {
		snapshot := c.Stack().Snapshot()
		err := c.Apply(c.BlockArg(0))
		if err == nil {
			return nil
		}
		if _, ok := err.(flowSignal); ok || c.ctx.Err() != nil {
			return err
		}
		c.Stack().Restore(snapshot)
		c.Push(asErrorValue(err, ""))
		return c.Apply(c.BlockArg(1))
	}, KindBlock, KindBlock))

	reg("error?", Sig(func(c *Context) error {
		_, ok := c.Args[0].(*ErrorValue)
		return predicate(c, ok)
	}, KindAny))

	reg("throw",
		Sig(func(c *Context) error {
			return c.Args[0].(*ErrorValue)
		}, KindError),
		Sig(func(c *Context) error {
			return c.Errorf(EvalError, "%s", c.Str(0))
		}, KindStr),
	)

	reg("error-info", Sig(func(c *Context) error {
		c.Push(c.Args[0].(*ErrorValue).Info())
		return nil
	}, KindError))

	reg("true", Sig(func(c *Context) error {
		return predicate(c, true)
	}))
	reg("false", Sig(func(c *Context) error {
		return predicate(c, false)
	}))

	// not inverts a Bool, or the previous exit signal when no Bool is on top
	reg("not",
		Sig(func(c *Context) error {
			return predicate(c, !bool(c.Args[0].(Bool)))
		}, KindBool),
		Sig(func(c *Context) error {
			c.SetStatus(!c.LastStatus())
			return nil
		}),
	)

	reg("and", Sig(func(c *Context) error {
		return predicate(c, bool(c.Args[0].(Bool)) && bool(c.Args[1].(Bool)))
	}, KindBool, KindBool))
	reg("or", Sig(func(c *Context) error {
		return predicate(c, bool(c.Args[0].(Bool)) || bool(c.Args[1].(Bool)))
	}, KindBool, KindBool))

	reg("ok?", Sig(func(c *Context) error {
		return predicate(c, c.LastStatus())
	}))
}

// applyEach runs body once per item with the item pushed, honouring break
func applyEach(ctx context.Context, ev *Evaluator, items List, body *Block) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return contextError(ctx, err)
		}
		ev.stack.Push(item)
		if stop, err := loopStep(ev.ApplyBlock(ctx, body)); stop {
			return err
		}
	}
	return nil
}
