package stacksh

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// sleepContext waits for d or until ctx ends
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return contextError(ctx, ctx.Err())
	}
}

// tryWithInterval calls fn up to maxTimes, waiting interval between failed
// attempts. The last error is returned.
func tryWithInterval(ctx context.Context, maxTimes int, interval time.Duration, fn func(attempt int) error) (err error) {
	for i := 0; i < maxTimes; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if _, ok := err.(flowSignal); ok {
			return err
		}
		if i < maxTimes-1 {
			if serr := sleepContext(ctx, interval); serr != nil {
				return serr
			}
		}
	}
	return err
}

// awaitValue waits for a future and converts its outcome
func awaitValue(c *Context, f *Future) (Value, error) {
	value, failure, err := f.Wait(c.ctx)
	if err != nil {
		return nil, err
	}
	switch f.Status() {
	case FutureCompleted:
		return value, nil
	case FutureCancelled:
		return nil, c.Errorf(EvalError, "future cancelled")
	}
	return nil, failure
}

// runParallel applies each task on its own forked evaluator with at most
// limit running at once. Results keep input order; the first failure
// cancels the rest.
func runParallel(c *Context, n int, limit int, task func(ctx context.Context, worker *Evaluator, i int) (Value, *ErrorValue)) (List, error) {
	if limit <= 0 {
		limit = c.ev.session.config.ParallelLimit
	}
	g, gctx := errgroup.WithContext(c.ctx)
	g.SetLimit(limit)
	results := make(List, n)
	for i := 0; i < n; i++ {
		i := i
		worker := c.ev.fork()
		g.Go(func() error {
			v, err := task(gctx, worker, i)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// blocksOf checks that every element of a list is a block
func blocksOf(c *Context, items List) ([]*Block, error) {
	blocks := make([]*Block, len(items))
	for i, item := range items {
		b, ok := item.(*Block)
		if !ok {
			return nil, c.Errorf(TypeError, "%s expects a list of blocks, element %d is %s", c.Command, i, TypeName(item))
		}
		blocks[i] = b
	}
	return blocks, nil
}

// RegisterFibersLib registers futures and bounded parallel execution
// Module: fibers
func (s *Session) RegisterFibersLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("fibers", name, sigs...)
	}

	// [block] async runs the block in the background and pushes a future
	reg("async", Sig(func(c *Context) error {
		f := c.ev.spawn(c.BlockArg(0))
		c.Logger().DebugCat(CatAsync, "spawned future %s", f.ShortID())
		c.Push(f)
		return nil
	}, KindBlock))

	reg("await",
		Sig(func(c *Context) error {
			v, err := awaitValue(c, c.Args[0].(*Future))
			if err != nil {
				return err
			}
			c.Push(v)
			return nil
		}, KindFuture),
		Sig(func(c *Context) error {
			items := c.ListArg(0)
			out := make(List, len(items))
			for i, item := range items {
				f, ok := item.(*Future)
				if !ok {
					return c.Errorf(TypeError, "await expects futures, element %d is %s", i, TypeName(item))
				}
				v, err := awaitValue(c, f)
				if err != nil {
					return err
				}
				out[i] = v
			}
			c.Push(out)
			return nil
		}, KindList),
	)

	// future-status and future-result leave the future in place
	reg("future-status", Sig(func(c *Context) error {
		f := c.Args[0].(*Future)
		c.Push(f, Str(f.Status().String()))
		return nil
	}, KindFuture))

	reg("future-result", Sig(func(c *Context) error {
		f := c.Args[0].(*Future)
		value, failure, done := f.Result()
		c.Push(f)
		switch {
		case !done:
			c.Push(Nil{})
			c.SetStatus(false)
		case failure != nil:
			c.Push(failure)
			c.SetStatus(false)
		default:
			c.Push(value)
		}
		return nil
	}, KindFuture))

	reg("future-cancel", Sig(func(c *Context) error {
		f := c.Args[0].(*Future)
		c.SetStatus(f.Cancel())
		c.Logger().DebugCat(CatAsync, "cancelled future %s", f.ShortID())
		return nil
	}, KindFuture))

	// ms delay sleeps, interrupted by cancellation
	reg("delay", Sig(func(c *Context) error {
		return sleepContext(c.ctx, millis(c.Num(0)))
	}, KindNumber))

	// ms delay-async sleeps and pushes the milliseconds waited, for use as
	// a placeholder workload inside async blocks
	reg("delay-async", Sig(func(c *Context) error {
		start := time.Now()
		if err := sleepContext(c.ctx, millis(c.Num(0))); err != nil {
			return err
		}
		c.Push(Number(time.Since(start).Milliseconds()))
		return nil
	}, KindNumber))

	parallel := func(c *Context, blocks []*Block, limit int) error {
		results, err := runParallel(c, len(blocks), limit, func(ctx context.Context, worker *Evaluator, i int) (Value, *ErrorValue) {
			return worker.runIsolated(ctx, blocks[i])
		})
		if err != nil {
			return err
		}
		c.Push(results)
		return nil
	}

	reg("parallel", Sig(func(c *Context) error {
		blocks, err := blocksOf(c, c.ListArg(0))
		if err != nil {
			return err
		}
		return parallel(c, blocks, 0)
	}, KindList))

	reg("parallel-n", Sig(func(c *Context) error {
		blocks, err := blocksOf(c, c.ListArg(0))
		if err != nil {
			return err
		}
		n, err := c.Int(1)
		if err != nil {
			return err
		}
		if n < 1 {
			return c.Errorf(EvalError, "parallel-n limit must be at least 1, got %d", n)
		}
		return parallel(c, blocks, n)
	}, KindList, KindNumber))

	parallelMap := func(c *Context, limit int) error {
		items, body := c.ListArg(0), c.BlockArg(1)
		results, err := runParallel(c, len(items), limit, func(ctx context.Context, worker *Evaluator, i int) (Value, *ErrorValue) {
			worker.stack.Push(items[i])
			return worker.runIsolated(ctx, body)
		})
		if err != nil {
			return err
		}
		c.Push(results)
		return nil
	}
	reg("parallel-map",
		Sig(func(c *Context) error {
			n, err := c.Int(2)
			if err != nil {
				return err
			}
			if n < 1 {
				return c.Errorf(EvalError, "parallel-map limit must be at least 1, got %d", n)
			}
			return parallelMap(c, n)
		}, KindList, KindBlock, KindNumber),
		Sig(func(c *Context) error {
			return parallelMap(c, 0)
		}, KindList, KindBlock),
	)

	// blocks race → value of the first block to succeed; the rest are
	// cancelled. When every block fails the last error is raised.
	reg("race", Sig(func(c *Context) error {
		blocks, err := blocksOf(c, c.ListArg(0))
		if err != nil {
			return err
		}
		if len(blocks) == 0 {
			return c.Errorf(EvalError, "race needs at least one block")
		}
		ctx, cancel := context.WithCancel(c.ctx)
		defer cancel()

		type outcome struct {
			value Value
			err   *ErrorValue
		}
		outcomes := make(chan outcome, len(blocks))
		var wg sync.WaitGroup
		for _, block := range blocks {
			worker := c.ev.fork()
			block := block
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := worker.runIsolated(ctx, block)
				outcomes <- outcome{v, err}
			}()
		}

		var last *ErrorValue
		var winner Value
		for range blocks {
			o := <-outcomes
			if o.err == nil && winner == nil {
				winner = o.value
				cancel()
				continue
			}
			if o.err != nil && winner == nil {
				last = o.err
			}
		}
		wg.Wait()
		if winner != nil {
			c.Push(winner)
			return nil
		}
		return last
	}, KindList))

	// [block] ms timeout runs the block on this stack under a deadline
	reg("timeout", Sig(func(c *Context) error {
		ms := c.Num(1)
		expired := c.Errorf(EvalError, "timed out after %sms", FormatNumber(Number(ms)))
		ctx, cancel := context.WithTimeoutCause(c.ctx, millis(ms), expired)
		defer cancel()
		snapshot := c.Stack().Snapshot()
		err := c.ev.ApplyBlock(ctx, c.BlockArg(0))
		if err != nil && ctx.Err() != nil && c.ctx.Err() == nil {
			c.Stack().Restore(snapshot)
			return expired
		}
		return err
	}, KindBlock, KindNumber))

	retry := func(c *Context, attempts int, interval time.Duration) error {
		if attempts < 1 {
			return c.Errorf(EvalError, "%s needs at least one attempt, got %d", c.Command, attempts)
		}
		snapshot := c.Stack().Snapshot()
		return tryWithInterval(c.ctx, attempts, interval, func(attempt int) error {
			c.Stack().Restore(snapshot)
			err := c.Apply(c.BlockArg(0))
			if err != nil {
				c.Logger().DebugCat(CatAsync, "%s attempt %d failed: %v", c.Command, attempt+1, err)
			}
			return err
		})
	}

	// [block] n retry makes up to n attempts
	reg("retry", Sig(func(c *Context) error {
		n, err := c.Int(1)
		if err != nil {
			return err
		}
		return retry(c, n, 0)
	}, KindBlock, KindNumber))

	// [block] n ms retry-delay waits ms between attempts
	reg("retry-delay", Sig(func(c *Context) error {
		n, err := c.Int(1)
		if err != nil {
			return err
		}
		return retry(c, n, millis(c.Num(2)))
	}, KindBlock, KindNumber, KindNumber))
}
