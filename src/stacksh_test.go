package stacksh

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

// newTestSession creates a session whose output is captured
func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	return newTestSessionWith(t, DefaultConfig())
}

func newTestSessionWith(t *testing.T, cfg *Config) (*Session, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg.Stdout = out
	cfg.Stderr = &bytes.Buffer{}
	s := New(cfg)
	t.Cleanup(func() { s.Close() })
	return s, out
}

// evalStack runs source on a fresh session and returns the final stack
func evalStack(t *testing.T, source string) []Value {
	t.Helper()
	s, _ := newTestSession(t)
	if err := s.Execute(source); err != nil {
		t.Fatalf("Execute(%q) failed: %v", source, err)
	}
	return s.Stack()
}

// evalError runs source expecting it to fail with an ErrorValue
func evalError(t *testing.T, source string) *ErrorValue {
	t.Helper()
	s, _ := newTestSession(t)
	err := s.Execute(source)
	if err == nil {
		t.Fatalf("Execute(%q) succeeded, stack %v", source, s.Stack())
	}
	var ev *ErrorValue
	if !errors.As(err, &ev) {
		t.Fatalf("Execute(%q) returned %T, want *ErrorValue", source, err)
	}
	return ev
}

func expectStack(t *testing.T, got []Value, want ...Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("stack depth %d, want %d: %s", len(got), len(want), Repr(List(got)))
	}
	for i := range want {
		if !Equal(got[i], want[i]) {
			t.Errorf("stack[%d] = %s, want %s", i, Repr(got[i]), Repr(want[i]))
		}
	}
}

func TestBasicExecution(t *testing.T) {
	s, _ := newTestSession(t)

	called := false
	s.RegisterOperator("test", Sig(func(c *Context) error {
		called = true
		return nil
	}))

	if err := s.Execute("test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("Operator was not called")
	}
}

func TestOperatorReceivesTypedArguments(t *testing.T) {
	s, _ := newTestSession(t)

	var got []Value
	s.RegisterOperator("test-args", Sig(func(c *Context) error {
		got = c.Args
		return nil
	}, KindStr, KindNumber, KindBool))

	if err := s.Execute(`"hello" 42 true test-args`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// true pushed a Bool, so all three operands were consumed
	expectStack(t, s.Stack())
	expectStack(t, got, Str("hello"), Number(42), Bool(true))
}

func TestSignatureMismatch(t *testing.T) {
	t.Run("underflow", func(t *testing.T) {
		err := evalError(t, "1 plus")
		if err.Type != StackUnderflow {
			t.Errorf("Expected StackUnderflow, got %s", err.Type)
		}
		if err.Command != "plus" {
			t.Errorf("Expected command plus, got %q", err.Command)
		}
	})

	t.Run("type error names expected and actual", func(t *testing.T) {
		err := evalError(t, `[ 1 ] upper`)
		if err.Type != TypeError {
			t.Fatalf("Expected TypeError, got %s", err.Type)
		}
		err = evalError(t, `"x" [ 1 ] get`)
		if err.Type != TypeError {
			t.Errorf("Expected TypeError, got %s", err.Type)
		}
	})
}

func TestUnknownWord(t *testing.T) {
	err := evalError(t, "no-such-word-anywhere-xyz")
	if err.Type != NameError {
		t.Errorf("Expected NameError, got %s", err.Type)
	}
	if err.Position == nil || err.Position.Line != 1 {
		t.Errorf("Expected a position on line 1, got %+v", err.Position)
	}
}

func TestErrorHaltsEvaluation(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.Execute("1 0 div 99")
	if err == nil {
		t.Fatal("Expected division by zero to fail")
	}
	for _, v := range s.Stack() {
		if Equal(v, Number(99)) {
			t.Error("Evaluation continued past the failing word")
		}
	}
}

func TestParseErrorsPreventEvaluation(t *testing.T) {
	s, _ := newTestSession(t)

	err := s.Execute("1 2 [ plus")
	var ev *ErrorValue
	if !errors.As(err, &ev) || ev.Type != ParseError {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if !ev.Incomplete() {
		t.Error("Unterminated block should be incomplete")
	}
	if len(s.Stack()) != 0 {
		t.Errorf("Nothing should have been evaluated, stack %s", Repr(List(s.Stack())))
	}

	err = s.Execute("1 ] 2")
	if !errors.As(err, &ev) || ev.Incomplete() {
		t.Errorf("Stray ']' should be a complete parse error, got %v", err)
	}
}

func TestDefinitionsPersistAcrossExecutes(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Execute("[ dup mul ] :square"); err != nil {
		t.Fatal(err)
	}
	if err := s.Execute("7 square"); err != nil {
		t.Fatal(err)
	}
	expectStack(t, s.Stack(), Number(49))

	names := s.WordNames()
	if len(names) == 0 || names[0] != "square" {
		t.Errorf("Expected definitions first in WordNames, got %v", names[:min(3, len(names))])
	}
}

func TestExecuteContextCancellation(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.ExecuteContext(ctx, "[ true ] [ ] while", "")
	if err == nil {
		t.Fatal("Expected the loop to be interrupted")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Cancellation took %v", time.Since(start))
	}
}

func TestPrintWritesSerializedForm(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.Execute(`"hi" print 3 print marker 1 2 collect print`); err != nil {
		t.Fatal(err)
	}
	want := "hi\n3\n1\n2\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestScriptArguments(t *testing.T) {
	s, _ := newTestSession(t)
	s.SetArgs([]string{"one", "two"})
	if err := s.Execute(`$ARGC $ARGV 1 get`); err != nil {
		t.Fatal(err)
	}
	expectStack(t, s.Stack(), Number(2), Str("two"))
}
