package stacksh

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Handler is the function signature for operator implementations.
// Operands matched by the signature are already popped into c.Args.
type Handler func(c *Context) error

// Signature is one typed overload of an operator. Kinds lists the operand
// kinds bottom→top; KindAny matches any value. A signature with no kinds
// receives the stack as is, for variadic operators.
type Signature struct {
	Kinds []Kind
	Apply Handler
}

// Sig builds a signature from a handler and operand kinds
func Sig(apply Handler, kinds ...Kind) Signature {
	return Signature{Kinds: kinds, Apply: apply}
}

// Operator is a named builtin with one or more signatures, tried in order
type Operator struct {
	Name       string
	Module     string
	Signatures []Signature
}

// minArity is the smallest operand count over all signatures
func (op *Operator) minArity() int {
	if len(op.Signatures) == 0 {
		return 0
	}
	n := len(op.Signatures[0].Kinds)
	for _, sig := range op.Signatures[1:] {
		n = min(n, len(sig.Kinds))
	}
	return n
}

// expected describes the accepted operand shapes for error messages
func (op *Operator) expected() string {
	shapes := make([]string, 0, len(op.Signatures))
	for _, sig := range op.Signatures {
		names := make([]string, len(sig.Kinds))
		for i, k := range sig.Kinds {
			names[i] = k.String()
		}
		shapes = append(shapes, "("+strings.Join(names, " ")+")")
	}
	return strings.Join(shapes, " or ")
}

// match returns the first signature whose kinds fit the top of the stack
func (op *Operator) match(stack *Stack) (*Signature, error) {
	for i := range op.Signatures {
		sig := &op.Signatures[i]
		if len(sig.Kinds) > stack.Len() {
			continue
		}
		ok := true
		for j, want := range sig.Kinds {
			v, _ := stack.Peek(len(sig.Kinds) - 1 - j)
			if want != KindAny && v.Kind() != want {
				ok = false
				break
			}
		}
		if ok {
			return sig, nil
		}
	}
	if need := op.minArity(); stack.Len() < need {
		return nil, &ErrorValue{
			Type:    StackUnderflow,
			Message: fmt.Sprintf("%s needs %d operand(s), stack has %d", op.Name, need, stack.Len()),
			Command: op.Name,
		}
	}
	actual := make([]string, 0, 3)
	for depth := min(stack.Len(), 3) - 1; depth >= 0; depth-- {
		v, _ := stack.Peek(depth)
		actual = append(actual, TypeName(v))
	}
	return nil, &ErrorValue{
		Type:    TypeError,
		Message: fmt.Sprintf("%s expects %s, got (%s)", op.Name, op.expected(), strings.Join(actual, " ")),
		Command: op.Name,
	}
}

// OperatorTable is the static name→operator registry shared by every
// evaluator of a session. It is filled at session start; embedders may add
// operators later, so reads are locked.
type OperatorTable struct {
	mu  sync.RWMutex
	ops map[string]*Operator
}

// NewOperatorTable creates an empty operator table
func NewOperatorTable() *OperatorTable {
	return &OperatorTable{ops: make(map[string]*Operator)}
}

// Register adds or replaces an operator
func (t *OperatorTable) Register(module, name string, sigs ...Signature) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops[name] = &Operator{Name: name, Module: module, Signatures: sigs}
}

// Alias registers an existing operator under another name
func (t *OperatorTable) Alias(alias, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if op, ok := t.ops[name]; ok {
		t.ops[alias] = &Operator{Name: alias, Module: op.Module, Signatures: op.Signatures}
	}
}

// Lookup returns the operator registered under name
func (t *OperatorTable) Lookup(name string) (*Operator, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	op, ok := t.ops[name]
	return op, ok
}

// Names returns the registered operator names, sorted
func (t *OperatorTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.ops)
}

// Context is passed to operator handlers during evaluation
type Context struct {
	Args     []Value // operands matched by the signature, bottom→top
	Command  string
	Position *SourcePosition
	ctx      context.Context
	ev       *Evaluator

	prevStatus bool // exit signal before this operator ran
}

// Ctx returns the evaluation context; blocking handlers must honour it
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Evaluator returns the evaluator running the handler
func (c *Context) Evaluator() *Evaluator {
	return c.ev
}

// Stack returns the evaluator's stack, for variadic operators
func (c *Context) Stack() *Stack {
	return c.ev.stack
}

// Push pushes results
func (c *Context) Push(values ...Value) {
	c.ev.stack.Push(values...)
}

// SetStatus sets the exit signal; operators succeed unless they say otherwise
func (c *Context) SetStatus(ok bool) {
	c.ev.status = ok
}

// LastStatus returns the exit signal left by whatever ran before this operator
func (c *Context) LastStatus() bool {
	return c.prevStatus
}

// Logger returns the session logger
func (c *Context) Logger() *Logger {
	return c.ev.session.logger
}

// Errorf builds an error attributed to the running operator
func (c *Context) Errorf(kind ErrorKind, format string, args ...interface{}) *ErrorValue {
	err := NewError(kind, format, args...)
	err.Command = c.Command
	return err
}

// Apply runs a block on the evaluator's stack in a new scope frame
func (c *Context) Apply(block *Block) error {
	return c.ev.ApplyBlock(c.ctx, block)
}

// Str returns argument i as a string; the signature guarantees the kind
func (c *Context) Str(i int) string {
	return string(c.Args[i].(Str))
}

// Num returns argument i as a float64; the signature guarantees the kind
func (c *Context) Num(i int) float64 {
	return float64(c.Args[i].(Number))
}

// Int returns argument i as an int, requiring an integral number
func (c *Context) Int(i int) (int, error) {
	n, ok := c.Args[i].(Number)
	if !ok {
		return 0, c.Errorf(TypeError, "expected number, got %s", TypeName(c.Args[i]))
	}
	if float64(n) != float64(int(n)) {
		return 0, c.Errorf(TypeError, "expected integer, got %s", FormatNumber(n))
	}
	return int(n), nil
}

// BlockArg returns argument i as a block
func (c *Context) BlockArg(i int) *Block {
	return c.Args[i].(*Block)
}

// ListArg returns argument i as a list
func (c *Context) ListArg(i int) List {
	return c.Args[i].(List)
}

// RecordArg returns argument i as a record
func (c *Context) RecordArg(i int) *Record {
	return c.Args[i].(*Record)
}
