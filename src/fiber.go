package stacksh

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// FutureState is the lifecycle state of a Future. Terminal states are final.
type FutureState int

const (
	FuturePending FutureState = iota
	FutureCompleted
	FutureFailed
	FutureCancelled
)

func (s FutureState) String() string {
	switch s {
	case FuturePending:
		return "pending"
	case FutureCompleted:
		return "completed"
	case FutureFailed:
		return "failed"
	case FutureCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Future is a handle to a background computation. The worker publishes the
// outcome exactly once; readers wait on Done and may read any number of times.
type Future struct {
	id     uuid.UUID
	once   sync.Once
	done   chan struct{}
	cancel context.CancelCauseFunc

	// written once before done is closed, read-only afterwards
	state  FutureState
	result Value
	err    *ErrorValue
}

func (*Future) Kind() Kind { return KindFuture }
func (*Future) isValue()   {}

func newFuture(cancel context.CancelCauseFunc) *Future {
	return &Future{
		id:     uuid.New(),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// ID returns the future's unique id
func (f *Future) ID() string {
	return f.id.String()
}

// ShortID returns the first block of the id, for display
func (f *Future) ShortID() string {
	return f.id.String()[:8]
}

// Done is closed once the future leaves the pending state
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Status returns the current state without blocking
func (f *Future) Status() FutureState {
	select {
	case <-f.done:
		return f.state
	default:
		return FuturePending
	}
}

// Result returns the outcome without blocking. ok is false while pending.
func (f *Future) Result() (value Value, err *ErrorValue, ok bool) {
	select {
	case <-f.done:
		return f.result, f.err, true
	default:
		return nil, nil, false
	}
}

// Wait blocks until the future settles or ctx ends
func (f *Future) Wait(ctx context.Context) (Value, *ErrorValue, error) {
	select {
	case <-f.done:
		return f.result, f.err, nil
	case <-ctx.Done():
		return nil, nil, contextError(ctx, ctx.Err())
	}
}

// settle records the terminal state; only the first call has any effect
func (f *Future) settle(state FutureState, result Value, err *ErrorValue) bool {
	settled := false
	f.once.Do(func() {
		f.state = state
		f.result = result
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Cancel moves a pending future to cancelled and cancels its worker's
// context, which kills in-flight external processes and interrupts delays
func (f *Future) Cancel() bool {
	ok := f.settle(FutureCancelled, nil, NewError(EvalError, "future cancelled"))
	if f.cancel != nil {
		f.cancel(errFutureCancelled)
	}
	return ok
}

var errFutureCancelled = NewError(EvalError, "future cancelled")

// stackResult folds a finished worker stack into one value: nothing is nil,
// one value is itself, several become a list bottom→top
func stackResult(items []Value) Value {
	switch len(items) {
	case 0:
		return Nil{}
	case 1:
		return items[0]
	}
	return List(items)
}

// spawn runs block on a forked evaluator in its own goroutine. The worker
// context hangs off the session, not the spawning operator, so a future
// outlives scoped operators such as timeout or parallel. The worker is
// tracked by the session so Close can wait for it.
func (ev *Evaluator) spawn(block *Block) *Future {
	workerCtx, cancel := context.WithCancelCause(ev.session.ctx)
	future := newFuture(cancel)
	worker := ev.fork()
	logger := ev.session.logger

	ev.session.workers.Add(1)
	go func() {
		defer ev.session.workers.Done()
		defer cancel(nil)

		logger.DebugCat(CatAsync, "future %s started", future.ShortID())
		value, err := worker.runIsolated(workerCtx, block)
		if err != nil {
			if workerCtx.Err() != nil && context.Cause(workerCtx) == errFutureCancelled {
				future.settle(FutureCancelled, nil, errFutureCancelled)
			} else {
				future.settle(FutureFailed, nil, err)
			}
			logger.DebugCat(CatAsync, "future %s ended: %s", future.ShortID(), future.Status())
			return
		}
		future.settle(FutureCompleted, value, nil)
		logger.DebugCat(CatAsync, "future %s completed", future.ShortID())
	}()
	return future
}

// runIsolated applies block on this evaluator and folds its stack into a
// result. Control signals escaping the block become errors.
func (ev *Evaluator) runIsolated(ctx context.Context, block *Block) (Value, *ErrorValue) {
	err := ev.ApplyBlock(ctx, block)
	if isSignal(err, signalReturn) {
		err = nil
	}
	if err != nil {
		if sig, ok := err.(flowSignal); ok {
			return nil, NewError(EvalError, "%s", sig.Error())
		}
		return nil, asErrorValue(err, "")
	}
	return stackResult(ev.stack.Items()), nil
}
