package stacksh

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncAwait(t *testing.T) {
	s, _ := newTestSession(t)

	require.NoError(t, s.Execute(`[ 50 delay-async ] async future-status`))
	stack := s.Stack()
	require.Len(t, stack, 2)
	assert.Equal(t, Str("pending"), stack[1])

	require.NoError(t, s.Execute(`drop await`))
	stack = s.Stack()
	require.Len(t, stack, 1)
	waited, ok := stack[0].(Number)
	require.True(t, ok, "got %s", Repr(stack[0]))
	assert.GreaterOrEqual(t, float64(waited), 40.0)

	t.Run("completed future keeps its value", func(t *testing.T) {
		stack := evalStack(t, `[ 7 ] async dup await swap future-status`)
		require.Len(t, stack, 3)
		assert.Equal(t, Number(7), stack[0])
		assert.Equal(t, Str("completed"), stack[2])
	})

	t.Run("multiple values fold into a list", func(t *testing.T) {
		expectStack(t, evalStack(t, `[ 1 2 ] async await`), nums(1, 2))
	})

	t.Run("await a list of futures", func(t *testing.T) {
		expectStack(t, evalStack(t, `marker [ 1 ] async [ 2 ] async collect await`), nums(1, 2))
	})

	t.Run("worker cannot see the caller stack", func(t *testing.T) {
		err := evalError(t, `1 [ plus ] async await`)
		assert.Equal(t, StackUnderflow, err.Type)
	})
}

func TestFutureOutlivesScopedOperators(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"timeout", `[ [ 50 delay-async ] async ] 1000 timeout await`},
		{"parallel", `marker [ [ 50 delay-async ] async ] collect parallel first await`},
		{"parallel-map", `1 1 range [ drop [ 50 delay-async ] async ] parallel-map first await`},
		{"race", `marker [ [ 50 delay-async ] async ] collect race await`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stack := evalStack(t, tc.source)
			require.Len(t, stack, 1)
			waited, ok := stack[0].(Number)
			require.True(t, ok, "got %s", Repr(stack[0]))
			assert.GreaterOrEqual(t, float64(waited), 40.0)
		})
	}
}

func TestFutureResult(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Execute(`[ 300 delay ] async future-result`))
	stack := s.Stack()
	require.Len(t, stack, 2)
	assert.Equal(t, Nil{}, stack[1])
	assert.False(t, s.Evaluator().Status(), "pending result clears the exit signal")

	stack = evalStack(t, `[ 3 ] async dup await drop future-result`)
	require.Len(t, stack, 2)
	assert.Equal(t, Number(3), stack[1])
}

func TestFailedFuture(t *testing.T) {
	err := evalError(t, `[ 1 0 div ] async await`)
	assert.Equal(t, EvalError, err.Type)

	stack := evalStack(t, `[ 1 0 div ] async dup [ await ] try drop future-status`)
	require.NotEmpty(t, stack)
	assert.Equal(t, Str("failed"), stack[len(stack)-1])
}

func TestFutureCancel(t *testing.T) {
	s, _ := newTestSession(t)
	start := time.Now()
	require.NoError(t, s.Execute(`[ 5000 delay ] async dup future-cancel future-status`))
	stack := s.Stack()
	require.Len(t, stack, 2)
	assert.Equal(t, Str("cancelled"), stack[1])

	err := s.Execute(`drop await`)
	ev, ok := err.(*ErrorValue)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, EvalError, ev.Type)
	assert.Contains(t, ev.Message, "cancelled")

	require.NoError(t, s.Close())
	assert.Less(t, time.Since(start), 2*time.Second, "cancelled worker should stop its delay")
}

func TestParallel(t *testing.T) {
	t.Run("results keep input order", func(t *testing.T) {
		stack := evalStack(t, `marker [ 30 delay 1 ] [ 2 3 ] [ ] collect parallel`)
		expectStack(t, stack, List{Number(1), nums(2, 3), Nil{}})
	})

	t.Run("failure propagates", func(t *testing.T) {
		err := evalError(t, `marker [ 1 ] [ 1 0 div ] collect parallel`)
		assert.Equal(t, EvalError, err.Type)
	})

	t.Run("elements must be blocks", func(t *testing.T) {
		err := evalError(t, `marker [ 1 ] 2 collect parallel`)
		assert.Equal(t, TypeError, err.Type)
	})

	t.Run("parallel-n rejects a zero limit", func(t *testing.T) {
		err := evalError(t, `marker [ 1 ] collect 0 parallel-n`)
		assert.Equal(t, EvalError, err.Type)
	})
}

func TestParallelMap(t *testing.T) {
	expectStack(t, evalStack(t, `1 5 range [ dup mul ] parallel-map`), nums(1, 4, 9, 16, 25))

	t.Run("respects the concurrency limit", func(t *testing.T) {
		s, _ := newTestSession(t)
		var running, peak int32
		s.RegisterOperator("track", Sig(func(c *Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			c.Push(Number(c.Num(0) * 10))
			return nil
		}, KindNumber))

		require.NoError(t, s.Execute(`1 6 range [ track ] 2 parallel-map`))
		expectStack(t, s.Stack(), nums(10, 20, 30, 40, 50, 60))
		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
		assert.Positive(t, atomic.LoadInt32(&peak))
	})
}

func TestRace(t *testing.T) {
	start := time.Now()
	expectStack(t, evalStack(t, `marker [ 2000 delay "slow" ] [ "fast" ] collect race`), Str("fast"))
	assert.Less(t, time.Since(start), time.Second, "losing blocks should be cancelled")

	err := evalError(t, `marker [ 1 0 div ] [ "x" throw ] collect race`)
	assert.Equal(t, EvalError, err.Type)

	err = evalError(t, `marker collect race`)
	assert.Equal(t, EvalError, err.Type)
}

func TestTimeout(t *testing.T) {
	err := evalError(t, `[ 2000 delay ] 50 timeout`)
	assert.Equal(t, EvalError, err.Type)
	assert.Equal(t, "timed out after 50ms", err.Message)

	expectStack(t, evalStack(t, `[ 1 ] 1000 timeout`), Number(1))
	expectStack(t, evalStack(t, `5 [ [ 1 2000 delay ] 20 timeout ] try error?`), Number(5), Bool(true))
}

func TestRetry(t *testing.T) {
	newFlaky := func(t *testing.T, failures int32) (*Session, *int32) {
		s, _ := newTestSession(t)
		var calls int32
		s.RegisterOperator("flaky", Sig(func(c *Context) error {
			if atomic.AddInt32(&calls, 1) <= failures {
				return c.Errorf(ExecError, "not yet")
			}
			c.Push(Str("ok"))
			return nil
		}))
		return s, &calls
	}

	t.Run("succeeds within attempts", func(t *testing.T) {
		s, calls := newFlaky(t, 2)
		require.NoError(t, s.Execute(`"base" [ flaky ] 3 retry`))
		expectStack(t, s.Stack(), Str("base"), Str("ok"))
		assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	})

	t.Run("gives up with the last error", func(t *testing.T) {
		s, calls := newFlaky(t, 5)
		err := s.Execute(`[ flaky ] 2 10 retry-delay`)
		ev, ok := err.(*ErrorValue)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, ExecError, ev.Type)
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	})

	t.Run("needs an attempt", func(t *testing.T) {
		err := evalError(t, `[ 1 ] 0 retry`)
		assert.Equal(t, EvalError, err.Type)
	})
}
