// Package stacksh provides a postfix, stack-based shell language that can be
// embedded in Go applications.
//
// This package re-exports the public API from the implementation in src/.
// For full documentation, see the implementation package.
//
// Basic usage:
//
//	s := stacksh.New(stacksh.DefaultConfig())
//	defer s.Close()
//	source := `"Hello, World!" print`
//	if err := s.Execute(source); err != nil {
//		s.ReportError(err, source)
//	}
package stacksh

import (
	impl "github.com/phroun/stacksh/src"
)

// =============================================================================
// CORE TYPES
// =============================================================================

// Session owns definitions, environment, builtins and background workers.
type Session = impl.Session

// Config holds configuration options for a session.
type Config = impl.Config

// Evaluator runs expressions against one stack.
type Evaluator = impl.Evaluator

// Context is passed to operator handlers during evaluation.
type Context = impl.Context

// Handler is the function signature for operator handlers.
type Handler = impl.Handler

// Signature pairs operand kinds with a handler.
type Signature = impl.Signature

// Operator is a named builtin with one or more signatures.
type Operator = impl.Operator

// Host is the synchronous call surface offered to plugins.
type Host = impl.Host

// Logger handles categorized logging for a session.
type Logger = impl.Logger

// LogCategory names the subsystem generating a log message.
type LogCategory = impl.LogCategory

// =============================================================================
// VALUE TYPES
// =============================================================================

// Value is any stack value.
type Value = impl.Value

// Kind identifies the type of a value.
type Kind = impl.Kind

// Str is a string value.
type Str = impl.Str

// Number is a numeric value.
type Number = impl.Number

// Bool is a boolean value.
type Bool = impl.Bool

// Nil is the absent value.
type Nil = impl.Nil

// List is an ordered sequence of values.
type List = impl.List

// Record is an insertion-ordered mapping from names to values.
type Record = impl.Record

// RecordBuilder assembles a record.
type RecordBuilder = impl.RecordBuilder

// Block is a quoted, unevaluated expression sequence.
type Block = impl.Block

// ErrorValue is both a Go error and a first-class value.
type ErrorValue = impl.ErrorValue

// ErrorKind classifies an ErrorValue.
type ErrorKind = impl.ErrorKind

// Future is the handle to a background computation.
type Future = impl.Future

// FutureState is the lifecycle state of a future.
type FutureState = impl.FutureState

// Stack is an evaluator's value stack.
type Stack = impl.Stack

// =============================================================================
// PARSER TYPES
// =============================================================================

// Expr is one parsed expression.
type Expr = impl.Expr

// Parser turns source text into expressions.
type Parser = impl.Parser

// SourcePosition locates an expression in its source.
type SourcePosition = impl.SourcePosition

// =============================================================================
// CONSTANTS
// =============================================================================

// Value kinds
const (
	KindAny    = impl.KindAny
	KindStr    = impl.KindStr
	KindNumber = impl.KindNumber
	KindBool   = impl.KindBool
	KindNil    = impl.KindNil
	KindList   = impl.KindList
	KindRecord = impl.KindRecord
	KindBlock  = impl.KindBlock
	KindError  = impl.KindError
	KindFuture = impl.KindFuture
	KindMarker = impl.KindMarker
)

// Error kinds
const (
	ParseError             = impl.ParseError
	NameError              = impl.NameError
	TypeError              = impl.TypeError
	StackUnderflow         = impl.StackUnderflow
	RecursionLimitExceeded = impl.RecursionLimitExceeded
	ExecError              = impl.ExecError
	EvalError              = impl.EvalError
)

// Future states
const (
	FuturePending   = impl.FuturePending
	FutureCompleted = impl.FutureCompleted
	FutureFailed    = impl.FutureFailed
	FutureCancelled = impl.FutureCancelled
)

// =============================================================================
// CONSTRUCTORS AND HELPERS
// =============================================================================

var (
	// New creates a session with the standard library registered.
	New = impl.New

	// DefaultConfig returns the default configuration.
	DefaultConfig = impl.DefaultConfig

	// ConfigFromViper builds a Config from viper settings.
	ConfigFromViper = impl.ConfigFromViper

	// Sig builds an operator signature.
	Sig = impl.Sig

	// Parse parses source into expressions.
	Parse = impl.Parse

	// NewParser creates a parser with a filename for positions.
	NewParser = impl.NewParser

	// NewError creates an ErrorValue.
	NewError = impl.NewError

	// NewRecordBuilder starts an ordered record.
	NewRecordBuilder = impl.NewRecordBuilder

	// Serialize renders a value as the text an external command receives.
	Serialize = impl.Serialize

	// Repr renders a value for display.
	Repr = impl.Repr

	// Equal reports structural equality.
	Equal = impl.Equal

	// Compare orders two values.
	Compare = impl.Compare

	// EncodeJSON renders a value as JSON, keeping record key order.
	EncodeJSON = impl.EncodeJSON

	// DecodeJSON parses JSON text into a value.
	DecodeJSON = impl.DecodeJSON

	// IsTable reports whether a list is a table.
	IsTable = impl.IsTable

	// TypeName names the type of a value.
	TypeName = impl.TypeName

	// ValueFromGo converts plain Go data into a value.
	ValueFromGo = impl.ValueFromGo

	// ValueToGo converts a value into plain Go data.
	ValueToGo = impl.ValueToGo
)
