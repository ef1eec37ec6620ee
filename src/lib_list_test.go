package stacksh

import (
	"testing"
)

func nums(ns ...float64) List {
	out := make(List, len(ns))
	for i, n := range ns {
		out[i] = Number(n)
	}
	return out
}

func TestRecordOperators(t *testing.T) {
	runStackCases(t, []stackCase{
		{"record and get", `"name" "alice" record "name" get`, []Value{Str("alice")}},
		{"record above marker", `1 marker "a" 2 record "a" get`, []Value{Number(1), Number(2)}},
		{"missing key is nil", `"a" 1 record "b" get`, []Value{Nil{}}},
		{"set keeps order", `"a" 1 "b" 2 record "a" 9 set keys`, []Value{List{Str("a"), Str("b")}}},
		{"set appends new key", `"a" 1 record "z" 2 set values`, []Value{nums(1, 2)}},
		{"del", `"a" 1 "b" 2 record "a" del keys`, []Value{List{Str("b")}}},
		{"merge overrides", `marker "a" 1 "b" 2 record marker "b" 3 record merge "b" get`, []Value{Number(3)}},
		{"has?", `"a" 1 record "a" has?`, []Value{Bool(true)}},
		{"len of record", `"a" 1 "b" 2 record len`, []Value{Number(2)}},
	})

	t.Run("odd pairs", func(t *testing.T) {
		if err := evalError(t, `"a" 1 "b" record`); err.Type != TypeError {
			t.Errorf("Expected TypeError, got %s", err.Type)
		}
	})

	t.Run("records are values", func(t *testing.T) {
		// set returns a new record; the original is unchanged
		stack := evalStack(t, `"a" 1 record dup "a" 2 set swap "a" get`)
		expectStack(t, stack, NewRecordBuilder(1).Set("a", Number(2)).Build(), Number(1))
	})
}

func TestListOperators(t *testing.T) {
	runStackCases(t, []stackCase{
		{"collect", `marker 1 2 3 collect`, []Value{nums(1, 2, 3)}},
		{"collect empty", `marker collect`, []Value{List{}}},
		{"spread", `marker 1 2 collect spread`, []Value{Number(1), Number(2)}},
		{"first last", `marker 4 5 6 collect dup first swap last`, []Value{Number(4), Number(6)}},
		{"nth negative", `marker 4 5 6 collect -1 nth`, []Value{Number(6)}},
		{"get index", `marker 4 5 6 collect 1 get`, []Value{Number(5)}},
		{"out of range", `marker 4 collect 3 get`, []Value{Nil{}}},
		{"append", `marker 1 collect 2 append`, []Value{nums(1, 2)}},
		{"concat", `marker 1 collect marker 2 collect concat`, []Value{nums(1, 2)}},
		{"reverse", `marker 1 2 3 collect reverse`, []Value{nums(3, 2, 1)}},
		{"range up", `1 5 range`, []Value{nums(1, 2, 3, 4, 5)}},
		{"range down", `3 1 range`, []Value{nums(3, 2, 1)}},
		{"map", `1 3 range [ dup mul ] map`, []Value{nums(1, 4, 9)}},
		{"map collects every value", `1 2 range [ dup ] map`, []Value{nums(1, 1, 2, 2)}},
		{"filter", `1 6 range [ 2 % 0 eq ] filter`, []Value{nums(2, 4, 6)}},
		{"reduce", `1 4 range 0 [ plus ] reduce`, []Value{Number(10)}},
		{"sort", `marker 3 1 2 collect sort`, []Value{nums(1, 2, 3)}},
		{"uniq", `marker 1 2 1 3 2 collect uniq`, []Value{nums(1, 2, 3)}},
		{"set index", `marker 1 2 collect 0 9 set`, []Value{nums(9, 2)}},
	})

	t.Run("range rejects infinite bounds", func(t *testing.T) {
		if err := evalError(t, `0 1e308 10 mul range`); err.Type != TypeError {
			t.Errorf("Expected TypeError, got %s", err.Type)
		}
	})

	t.Run("range rejects huge spans", func(t *testing.T) {
		if err := evalError(t, `0 1e12 range`); err.Type != EvalError {
			t.Errorf("Expected EvalError, got %s", err.Type)
		}
	})

	t.Run("collect without marker", func(t *testing.T) {
		if err := evalError(t, `1 2 collect`); err.Type != EvalError {
			t.Errorf("Expected EvalError, got %s", err.Type)
		}
	})

	t.Run("reduce body must leave one value", func(t *testing.T) {
		if err := evalError(t, `1 3 range 0 [ dup ] reduce`); err.Type != EvalError {
			t.Errorf("Expected EvalError, got %s", err.Type)
		}
	})

	t.Run("map failure leaves no residue", func(t *testing.T) {
		stack := evalStack(t, `"base" [ 1 3 range [ 1 0 div ] map ] try drop`)
		expectStack(t, stack, Str("base"))
	})
}
