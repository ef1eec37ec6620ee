package stacksh

import (
	"github.com/pkg/errors"
)

// Host is the call surface offered to plugins. Every method is synchronous
// and works on the calling evaluator's own stack.
type Host interface {
	PushString(s string)
	PushNumber(n float64)
	PushBool(b bool)
	PushJSON(text string) error
	PopString() (string, error)
	PopNumber() (float64, error)
	PopBool() (bool, error)
	PopJSON() (string, error)
	Depth() int
	ConfigValue(name string) (string, bool)
	Emit(text string)
}

var _ Host = (*Evaluator)(nil)

// PushString pushes a string
func (ev *Evaluator) PushString(s string) { ev.stack.Push(Str(s)) }

// PushNumber pushes a number
func (ev *Evaluator) PushNumber(n float64) { ev.stack.Push(Number(n)) }

// PushBool pushes a bool
func (ev *Evaluator) PushBool(b bool) { ev.stack.Push(Bool(b)) }

// PushJSON decodes a JSON composite and pushes it
func (ev *Evaluator) PushJSON(text string) error {
	v, err := DecodeJSON(text)
	if err != nil {
		return errors.Wrap(err, "push json")
	}
	ev.stack.Push(v)
	return nil
}

func (ev *Evaluator) popKind(kind Kind) (Value, error) {
	v, ok := ev.stack.Peek(0)
	if !ok {
		return nil, NewError(StackUnderflow, "host pop: stack is empty")
	}
	if kind != KindAny && v.Kind() != kind {
		return nil, NewError(TypeError, "host pop: expected %s, got %s", kind, TypeName(v))
	}
	ev.stack.Pop()
	return v, nil
}

// PopString pops a string; other kinds are a TypeError and stay on the stack
func (ev *Evaluator) PopString() (string, error) {
	v, err := ev.popKind(KindStr)
	if err != nil {
		return "", err
	}
	return string(v.(Str)), nil
}

// PopNumber pops a number
func (ev *Evaluator) PopNumber() (float64, error) {
	v, err := ev.popKind(KindNumber)
	if err != nil {
		return 0, err
	}
	return float64(v.(Number)), nil
}

// PopBool pops a bool
func (ev *Evaluator) PopBool() (bool, error) {
	v, err := ev.popKind(KindBool)
	if err != nil {
		return false, err
	}
	return bool(v.(Bool)), nil
}

// PopJSON pops any value and returns it JSON encoded
func (ev *Evaluator) PopJSON() (string, error) {
	v, err := ev.popKind(KindAny)
	if err != nil {
		return "", err
	}
	return EncodeJSON(v, false), nil
}

// Depth returns the stack depth
func (ev *Evaluator) Depth() int { return ev.stack.Len() }

// ConfigValue reads a named configuration value as text
func (ev *Evaluator) ConfigValue(name string) (string, bool) {
	settings := ev.session.config.Settings
	if !settings.IsSet(name) {
		return "", false
	}
	return Serialize(ValueFromGo(settings.Get(name))), true
}

// Emit writes text to the session output
func (ev *Evaluator) Emit(text string) { ev.session.Emit(text) }
