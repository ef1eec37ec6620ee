package stacksh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const people = `"name,age,team\nbob,30,red\namy,4,blue\ncat,100,red\ndan,30,blue" into-csv`

// evalTop runs source and returns the single value left on the stack
func evalTop(t *testing.T, source string) Value {
	t.Helper()
	stack := evalStack(t, source)
	require.Len(t, stack, 1, "stack: %s", Repr(List(stack)))
	return stack[0]
}

func strs(ss ...string) List {
	out := make(List, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}

func assertValue(t *testing.T, want, got Value) {
	t.Helper()
	assert.True(t, Equal(want, got), "want %s, got %s", Repr(want), Repr(got))
}

func TestTableFromCSV(t *testing.T) {
	v := evalTop(t, people)
	rows, ok := v.(List)
	require.True(t, ok)
	require.True(t, IsTable(rows))
	assert.Len(t, rows, 4)
	assertValue(t, strs("name", "age", "team"), evalTop(t, people+" columns"))
}

func TestSortBy(t *testing.T) {
	t.Run("numeric column sorts numerically", func(t *testing.T) {
		assertValue(t, strs("amy", "bob", "dan", "cat"), evalTop(t, people+` "age" sort-by "name" get`))
	})

	t.Run("stable for equal keys", func(t *testing.T) {
		// bob and dan share age 30 and keep their input order
		assertValue(t, strs("cat", "bob", "dan", "amy"), evalTop(t, people+` "age" sort-by-desc "name" get`))
	})

	t.Run("text column sorts lexically", func(t *testing.T) {
		assertValue(t, strs("amy", "bob", "cat", "dan"), evalTop(t, people+` "name" sort-by "name" get`))
	})

	t.Run("idempotent", func(t *testing.T) {
		assertValue(t, Bool(true), evalTop(t, people+` "age" sort-by dup "age" sort-by eq`))
	})

	t.Run("missing column names the column", func(t *testing.T) {
		err := evalError(t, `'[{"a":1},{"b":2}]' into-json "a" sort-by`)
		assert.Equal(t, TypeError, err.Type)
		assert.Contains(t, err.Message, `"a"`)
	})
}

func TestWhereSelectReject(t *testing.T) {
	assertValue(t, strs("bob", "cat", "dan"), evalTop(t, people+` [ "age" get 10 gt ] where "name" get`))
	assertValue(t, strs("name"), evalTop(t, people+` "name" select columns`))
	assertValue(t, strs("name", "team"), evalTop(t, people+` "age" reject columns`))
	assertValue(t, strs("team", "name"), evalTop(t, people+` marker "team" "name" collect select columns`))

	err := evalError(t, people+` "salary" select`)
	assert.Equal(t, TypeError, err.Type)
}

func TestGroupBy(t *testing.T) {
	groups := evalTop(t, people+` "team" group-by`)
	rec, ok := groups.(*Record)
	require.True(t, ok, "got %s", TypeName(groups))
	assert.Equal(t, []string{"red", "blue"}, rec.Keys(), "groups keep first-seen order")

	red, _ := rec.Get("red")
	assert.Len(t, red, 2)
	assertValue(t, Number(2), evalTop(t, people+` "team" group-by "blue" get len`))
}

func TestAggregates(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   Value
	}{
		{"decimal sum", `marker 0.1 0.2 collect sum`, Number(0.3)},
		{"column sum", people + ` "age" sum`, Number(164)},
		{"avg", people + ` "age" avg`, Number(41)},
		{"pair min", `3 7 min`, Number(3)},
		{"column max", people + ` "age" max`, Str("100")},
		{"list min", `marker 5 2 8 collect min`, Number(2)},
		{"count", people + ` count`, Number(4)},
		{"count matching", people + ` [ "team" get "red" eq ] count`, Number(2)},
		{"avg of nothing", `marker collect avg`, Nil{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertValue(t, tc.want, evalTop(t, tc.source))
		})
	}
}

func TestTableConstruction(t *testing.T) {
	v := evalTop(t, `marker "n" "v" collect marker marker 1 2 collect marker 3 4 collect collect tabulate "v" get`)
	assertValue(t, nums(2, 4), v)

	t.Run("table normalizes column order", func(t *testing.T) {
		v := evalTop(t, `'[{"a":1,"b":2},{"b":3,"a":4}]' into-json table 1 get keys`)
		assertValue(t, strs("a", "b"), v)
	})

	t.Run("table rejects mismatched rows", func(t *testing.T) {
		err := evalError(t, `'[{"a":1},{"a":2,"b":3}]' into-json table`)
		assert.Equal(t, TypeError, err.Type)
	})

	t.Run("column update", func(t *testing.T) {
		v := evalTop(t, people+` "team" "green" set "team" get uniq`)
		assertValue(t, strs("green"), v)
	})
}

func TestAggregatesNonFinite(t *testing.T) {
	t.Run("infinite sum", func(t *testing.T) {
		v := evalTop(t, `marker 1e308 10 mul 1 collect sum`)
		n, ok := v.(Number)
		require.True(t, ok, "got %s", Repr(v))
		assert.True(t, math.IsInf(float64(n), 1))
	})

	t.Run("nan average", func(t *testing.T) {
		v := evalTop(t, `marker 1e308 10 mul dup minus 2 collect avg`)
		n, ok := v.(Number)
		require.True(t, ok, "got %s", Repr(v))
		assert.True(t, math.IsNaN(float64(n)))
	})

	t.Run("nan text is not a number", func(t *testing.T) {
		err := evalError(t, `marker "nan" collect sum`)
		assert.Equal(t, TypeError, err.Type)
	})

	t.Run("finite sums stay decimal", func(t *testing.T) {
		assertValue(t, Number(0.6), evalTop(t, `marker 0.1 0.2 0.3 collect sum`))
	})
}

func TestSortByNonFinite(t *testing.T) {
	t.Run("nan numbers sort last", func(t *testing.T) {
		v := evalTop(t, `marker "v" collect marker marker 2 collect marker 1e308 10 mul dup minus collect marker 1 collect collect tabulate "v" sort-by "v" get`)
		col, ok := v.(List)
		require.True(t, ok)
		require.Len(t, col, 3)
		assertValue(t, Number(1), col[0])
		assertValue(t, Number(2), col[1])
		assert.True(t, math.IsNaN(float64(col[2].(Number))))
	})

	t.Run("nan text sorts lexically", func(t *testing.T) {
		assertValue(t, strs("10", "9", "nan"), evalTop(t, `"v\n9\nnan\n10" into-csv "v" sort-by "v" get`))
	})
}
