package stacksh

import (
	"context"
	"strings"
)

// resolveVariable looks a name up in the scope chain, then the session
// globals, then the environment
func (ev *Evaluator) resolveVariable(name string) (Value, *ErrorValue) {
	if v, ok := ev.scope.Lookup(name); ok {
		return v, nil
	}
	if v, ok := ev.session.global(name); ok {
		return v, nil
	}
	if s, ok := ev.env.Get(name); ok {
		return Str(s), nil
	}
	return nil, NewError(NameError, "undefined variable $%s", name)
}

// evalWord resolves a word: `:name` defines, then user definitions, then
// builtins, then the external command fallback
func (ev *Evaluator) evalWord(ctx context.Context, name string, pos *SourcePosition) error {
	if strings.HasPrefix(name, ":") && len(name) > 1 {
		return ev.define(name[1:])
	}
	if block, ok := ev.defs.Lookup(name); ok {
		ev.session.logger.DebugCat(CatCommand, "calling definition %s", name)
		return ev.callDefinition(ctx, name, block)
	}
	if op, ok := ev.session.operators.Lookup(name); ok {
		return ev.dispatch(ctx, op, pos)
	}
	return ev.runExternal(ctx, name, nil)
}

func (ev *Evaluator) define(name string) error {
	v, ok := ev.stack.Pop()
	if !ok {
		return &ErrorValue{Type: StackUnderflow, Message: ":" + name + " needs a block", Command: ":" + name}
	}
	block, ok := v.(*Block)
	if !ok {
		return typeErrorf(":"+name, "definition body must be a block, got %s", TypeName(v))
	}
	ev.defs.Define(name, block)
	ev.session.logger.DebugCat(CatVariable, "defined %s", name)
	return nil
}

// callDefinition runs a user definition. The Block was captured at lookup,
// so a concurrent redefinition does not affect this call.
func (ev *Evaluator) callDefinition(ctx context.Context, name string, block *Block) error {
	err := ev.ApplyBlock(ctx, block)
	if isSignal(err, signalReturn) {
		return nil
	}
	return err
}

// dispatch matches an operator signature against the stack, pops the
// operands and runs the handler
func (ev *Evaluator) dispatch(ctx context.Context, op *Operator, pos *SourcePosition) error {
	sig, err := op.match(ev.stack)
	if err != nil {
		return err
	}
	args, _ := ev.stack.PopN(len(sig.Kinds))
	c := &Context{
		Args:       args,
		Command:    op.Name,
		Position:   pos,
		ctx:        ctx,
		ev:         ev,
		prevStatus: ev.status,
	}
	ev.status = true
	return sig.Apply(c)
}

// Call runs a word by name on this evaluator, as if it appeared in source
func (ev *Evaluator) Call(ctx context.Context, name string) error {
	return ev.evalWord(ctx, name, nil)
}
