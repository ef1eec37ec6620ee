package stacksh

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Evaluator executes expressions against its own stack and scope.
// One evaluator is never used by two goroutines at once; background work
// gets a fresh evaluator from fork.
type Evaluator struct {
	session *Session
	stack   *Stack
	scope   *Scope
	defs    *Registry
	env     *Environment
	depth   int
	status  bool

	// condDepth > 0 while a condition block runs; external command
	// failures only clear the status there
	condDepth int

	// pipeInput is consumed by the next external command as its stdin
	pipeInput Value
}

func newEvaluator(session *Session, defs *Registry, env *Environment, scope *Scope) *Evaluator {
	return &Evaluator{
		session: session,
		stack:   NewStack(),
		scope:   scope,
		defs:    defs,
		env:     env,
		status:  true,
	}
}

// fork creates an isolated evaluator for a background task: empty stack,
// a copy of the visible bindings, a snapshot of definitions and a copy of
// the environment. Nothing mutable is shared with the parent.
func (ev *Evaluator) fork() *Evaluator {
	bindings := ev.scope.Flatten()
	child := newEvaluator(ev.session, ev.defs.Snapshot(), ev.env.Clone(), ScopeFromBindings(bindings))
	child.depth = ev.depth
	return child
}

// Stack returns the evaluator's stack
func (ev *Evaluator) Stack() *Stack {
	return ev.stack
}

// Status returns the exit signal of the last evaluation
func (ev *Evaluator) Status() bool {
	return ev.status
}

// Evaluate runs exprs in order. The first error aborts the rest.
func (ev *Evaluator) Evaluate(ctx context.Context, exprs []Expr) error {
	for i := range exprs {
		if err := ctx.Err(); err != nil {
			return contextError(ctx, err)
		}
		if err := ev.evalExpr(ctx, &exprs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (ev *Evaluator) evalExpr(ctx context.Context, expr *Expr) error {
	switch expr.Kind {
	case ExprLiteral:
		if expr.Template != nil {
			ev.stack.Push(Str(ev.interpolate(expr.Template)))
		} else {
			ev.stack.Push(expr.Value)
		}
		return nil
	case ExprBlock:
		ev.stack.Push(expr.Block)
		return nil
	case ExprVarRef:
		v, err := ev.resolveVariable(expr.Name)
		if err != nil {
			err.Position = expr.Position
			return err
		}
		ev.stack.Push(v)
		return nil
	case ExprWord:
		return ev.attach(ev.evalWord(ctx, expr.Name, expr.Position), expr)
	}
	return NewError(EvalError, "unknown expression kind %s", expr.Kind)
}

// attach tags an error with the position and command of the word that
// raised it, unless a deeper word already did
func (ev *Evaluator) attach(err error, expr *Expr) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(flowSignal); ok {
		return err
	}
	e := asErrorValue(err, expr.Name)
	if e.Position != nil && e.Command != "" {
		return e
	}
	// error values may be shared with other stacks, so tag a copy
	tagged := *e
	if tagged.Position == nil {
		tagged.Position = expr.Position
	}
	if tagged.Command == "" {
		tagged.Command = expr.Name
	}
	return &tagged
}

// ApplyBlock runs a block on the same stack in a fresh scope frame.
// The frame is always popped, whatever the block does.
func (ev *Evaluator) ApplyBlock(ctx context.Context, block *Block) error {
	if err := ev.enter(); err != nil {
		return err
	}
	defer ev.leave()
	ev.scope.Push()
	defer ev.scope.Pop()
	ev.status = true
	return ev.Evaluate(ctx, block.Exprs)
}

// enter increments the nesting depth, failing past the configured ceiling
func (ev *Evaluator) enter() error {
	if ev.depth >= ev.session.config.MaxRecursionDepth {
		return NewError(RecursionLimitExceeded, "maximum recursion depth %d exceeded", ev.session.config.MaxRecursionDepth)
	}
	ev.depth++
	return nil
}

func (ev *Evaluator) leave() {
	ev.depth--
}

// runCondition evaluates a condition in isolation and returns its exit
// signal. The stack is restored afterwards. A Bool is its own answer.
func (ev *Evaluator) runCondition(ctx context.Context, cond Value, command string) (bool, error) {
	switch c := cond.(type) {
	case Bool:
		return bool(c), nil
	case *Block:
		snapshot := ev.stack.Snapshot()
		ev.condDepth++
		err := ev.ApplyBlock(ctx, c)
		ev.condDepth--
		ev.stack.Restore(snapshot)
		if err != nil {
			return false, err
		}
		return ev.status, nil
	}
	return false, typeErrorf(command, "condition must be a block or bool, got %s", TypeName(cond))
}

// interpolate expands $name references in a double-quoted string.
// Unset names expand to nothing.
func (ev *Evaluator) interpolate(parts []TemplatePart) string {
	var sb strings.Builder
	for _, part := range parts {
		if part.Var == "" {
			sb.WriteString(part.Text)
			continue
		}
		if v, err := ev.resolveVariable(part.Var); err == nil {
			sb.WriteString(Serialize(v))
		}
	}
	return sb.String()
}

// contextError converts a finished context into the error scripts see
func contextError(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && cause != err {
		if ev := asErrorValue(cause, ""); ev != nil {
			return ev
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(EvalError, "timed out")
	}
	return NewError(EvalError, "cancelled")
}
