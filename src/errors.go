package stacksh

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind classifies runtime and parse failures
type ErrorKind string

const (
	ParseError             ErrorKind = "ParseError"
	NameError              ErrorKind = "NameError"
	TypeError              ErrorKind = "TypeError"
	StackUnderflow         ErrorKind = "StackUnderflow"
	RecursionLimitExceeded ErrorKind = "RecursionLimitExceeded"
	ExecError              ErrorKind = "ExecError"
	EvalError              ErrorKind = "EvalError"
)

// ErrorValue is both a Go error and a first-class Value, so `try` can
// capture any failure uniformly
type ErrorValue struct {
	Type     ErrorKind
	Message  string
	Code     int
	HasCode  bool
	Source   string
	Command  string
	Position *SourcePosition

	incomplete bool
}

func (*ErrorValue) Kind() Kind { return KindError }
func (*ErrorValue) isValue()   {}

func (e *ErrorValue) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Type))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Position != nil {
		fmt.Fprintf(&sb, " (line %d, column %d)", e.Position.Line, e.Position.Column)
	}
	return sb.String()
}

// Incomplete reports whether a parse error was caused by input ending inside
// a block or string; interactive readers keep reading when it is true
func (e *ErrorValue) Incomplete() bool {
	return e.incomplete
}

// Info converts the error into a record for inspection from scripts
func (e *ErrorValue) Info() *Record {
	b := NewRecordBuilder(5).
		Set("kind", Str(e.Type)).
		Set("message", Str(e.Message))
	if e.HasCode {
		b.Set("code", Number(e.Code))
	} else {
		b.Set("code", Nil{})
	}
	b.Set("source", Str(e.Source))
	b.Set("command", Str(e.Command))
	return b.Build()
}

// NewError creates an error value of the given kind
func NewError(kind ErrorKind, format string, args ...interface{}) *ErrorValue {
	return &ErrorValue{Type: kind, Message: fmt.Sprintf(format, args...)}
}

// typeErrorf reports an operand shape mismatch for a command
func typeErrorf(command, format string, args ...interface{}) *ErrorValue {
	err := NewError(TypeError, format, args...)
	err.Command = command
	return err
}

// asErrorValue converts any Go error into an ErrorValue, keeping the
// wrapped cause message. Nil stays nil.
func asErrorValue(err error, command string) *ErrorValue {
	if err == nil {
		return nil
	}
	var ev *ErrorValue
	if errors.As(err, &ev) {
		return ev
	}
	out := NewError(EvalError, "%s", err.Error())
	out.Command = command
	return out
}

// flowSignal is a control-flow transfer (break, return). It travels through
// the error channel but is never an ErrorValue, so `try` cannot swallow it.
type flowSignal int

const (
	signalBreak flowSignal = iota + 1
	signalReturn
)

func (s flowSignal) Error() string {
	switch s {
	case signalBreak:
		return "break outside loop"
	case signalReturn:
		return "return outside definition"
	}
	return "unknown control signal"
}

func isSignal(err error, sig flowSignal) bool {
	s, ok := err.(flowSignal)
	return ok && s == sig
}
