package stacksh

import (
	"testing"
)

func TestConditionals(t *testing.T) {
	runStackCases(t, []stackCase{
		{"if with bool", `true [ "yes" ] [ "no" ] if`, []Value{Str("yes")}},
		{"if with block condition", `[ 1 2 lt ] [ "yes" ] [ "no" ] if`, []Value{Str("yes")}},
		{"condition stack is isolated", `5 [ drop false ] [ "yes" ] [ "no" ] if`, []Value{Number(5), Str("no")}},
		{"when skips", `[ false ] [ "ran" ] when`, nil},
		{"not inverts bool", `[ 1 2 gt not ] [ "yes" ] [ "no" ] if`, []Value{Str("yes")}},
		{"and/or", `true false and true false or`, []Value{Bool(false), Bool(true)}},
	})
}

func TestLoops(t *testing.T) {
	runStackCases(t, []stackCase{
		{"times", `0 [ 1 plus ] 5 times`, []Value{Number(5)}},
		{"times either order", `0 3 [ 2 plus ] times`, []Value{Number(6)}},
		{"while", `0 [ dup 4 lt ] [ 1 plus ] while`, []Value{Number(4)}},
		{"until with depth", `0 [ depth 3 ge ] [ 1 ] until`, []Value{Number(0), Number(1), Number(1)}},
		{"break ends a loop", `0 [ 1 plus dup 3 eq [ break ] [ ] if ] 10 times`, []Value{Number(3)}},
		{"each", `0 marker 1 2 3 collect [ plus ] each`, []Value{Number(6)}},
	})
}

func TestBreakPassesThroughTry(t *testing.T) {
	// try must not turn break into an error value
	stack := evalStack(t, `0 [ 1 plus [ break ] try ] 5 times`)
	expectStack(t, stack, Number(1))
}

func TestReturnEndsDefinition(t *testing.T) {
	stack := evalStack(t, `[ "first" return "never" ] :early early "after"`)
	expectStack(t, stack, Str("first"), Str("after"))
}

func TestTryCapturesErrors(t *testing.T) {
	runStackCases(t, []stackCase{
		{"error is a value", `[ 1 0 div ] try error?`, []Value{Bool(true)}},
		{"success leaves results", `[ 2 3 plus ] try`, []Value{Number(5)}},
		{"stack restored before error pushed", `7 [ 1 2 3 0 div ] try error-info "kind" get`, []Value{Number(7), Str("EvalError")}},
		{"catch handler", `[ "boom" throw ] [ error-info "message" get ] catch`, []Value{Str("boom")}},
		{"rethrow keeps kind", `[ [ 1 plus ] try throw ] try error-info "kind" get`, []Value{Str("StackUnderflow")}},
	})

	t.Run("try clears the exit signal", func(t *testing.T) {
		s, _ := newTestSession(t)
		if err := s.Execute(`[ 1 0 div ] try ok? nip`); err != nil {
			t.Fatal(err)
		}
		expectStack(t, s.Stack(), Bool(false))
	})
}

func TestLocalScoping(t *testing.T) {
	t.Run("nested shadowing", func(t *testing.T) {
		stack := evalStack(t, `[ "outer" "x" local [ "inner" "x" local $x ] @ $x ] @`)
		expectStack(t, stack, Str("inner"), Str("outer"))
	})

	t.Run("locals vanish on exit", func(t *testing.T) {
		err := evalError(t, `[ 1 "tmp" local ] @ $tmp`)
		if err.Type != NameError {
			t.Errorf("Expected NameError, got %s", err.Type)
		}
	})

	t.Run("environment restored after shadowing", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Environ = []string{"MODE=env"}
		s, _ := newTestSessionWith(t, cfg)
		if err := s.Execute(`[ "local" "MODE" local $MODE ] @ $MODE`); err != nil {
			t.Fatal(err)
		}
		expectStack(t, s.Stack(), Str("local"), Str("env"))
	})

	t.Run("restored even on error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Environ = []string{"MODE=env"}
		s, _ := newTestSessionWith(t, cfg)
		if err := s.Execute(`[ [ "temp" "MODE" local 1 0 div ] @ ] try drop $MODE`); err != nil {
			t.Fatal(err)
		}
		expectStack(t, s.Stack(), Str("env"))
	})

	t.Run("outside any frame", func(t *testing.T) {
		err := evalError(t, `1 "x" local`)
		if err.Type != EvalError {
			t.Errorf("Expected EvalError, got %s", err.Type)
		}
	})

	t.Run("interpolation", func(t *testing.T) {
		stack := evalStack(t, `[ "world" "who" local "hello $who${missing}!" ] @`)
		expectStack(t, stack, Str("hello world!"))
	})
}

func TestRecursionLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRecursionDepth = 50
	s, _ := newTestSessionWith(t, cfg)

	err := s.Execute(`[ recurse ] :recurse recurse`)
	ev, ok := err.(*ErrorValue)
	if !ok || ev.Type != RecursionLimitExceeded {
		t.Fatalf("Expected RecursionLimitExceeded, got %v", err)
	}

	// the depth counter unwinds, so the session stays usable
	if err := s.Execute(`clear [ 1 ] @`); err != nil {
		t.Fatalf("Session unusable after recursion limit: %v", err)
	}
	expectStack(t, s.Stack(), Number(1))
}

func TestRecursiveDefinition(t *testing.T) {
	source := `
		[ dup 1 le [ ] [ dup 1 minus fact mul ] if ] :fact
		5 fact
	`
	expectStack(t, evalStack(t, source), Number(120))
}

func TestScopeOperators(t *testing.T) {
	s, _ := newTestSession(t)
	source := `
		"v1" "STACKSH_TEST" export
		$STACKSH_TEST
		[ 1 ] :one
		"one" defined?
		"one" forget
		"one" defined?
	`
	if err := s.Execute(source); err != nil {
		t.Fatal(err)
	}
	expectStack(t, s.Stack(), Str("v1"), Bool(true), Bool(false))

	if err := s.Execute(`clear "STACKSH_TEST" unset env "STACKSH_TEST" has?`); err != nil {
		t.Fatal(err)
	}
	expectStack(t, s.Stack(), Bool(false))
}
