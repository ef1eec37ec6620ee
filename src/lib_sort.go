package stacksh

import (
	"math"
	"sort"
	"strings"
)

// columnIsNumeric reports whether every value parses as a number, which
// selects numeric ordering for the column
func columnIsNumeric(values List) bool {
	for _, v := range values {
		switch n := v.(type) {
		case Number:
		case Str:
			if _, ok := parseNumericString(string(n)); !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func numericValue(v Value) float64 {
	switch n := v.(type) {
	case Number:
		return float64(n)
	case Str:
		f, _ := parseNumericString(string(n))
		return float64(f)
	}
	return 0
}

// sortRowsBy stably orders table rows by one column. Numeric columns sort
// numerically, anything else lexically on the serialized form.
func sortRowsBy(c *Context, rows List, key string, descending bool) (List, error) {
	if _, err := tableColumns(c, rows); err != nil {
		return nil, err
	}
	keys, err := column(c, rows, key)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}

	var cmp func(a, b int) int
	if columnIsNumeric(keys) {
		nums := make([]float64, len(keys))
		for i, v := range keys {
			nums[i] = numericValue(v)
		}
		cmp = func(a, b int) int {
			// NaN sorts after every number
			na, nb := math.IsNaN(nums[a]), math.IsNaN(nums[b])
			switch {
			case na || nb:
				if na == nb {
					return 0
				}
				if na {
					return 1
				}
				return -1
			case nums[a] < nums[b]:
				return -1
			case nums[a] > nums[b]:
				return 1
			}
			return 0
		}
	} else {
		texts := make([]string, len(keys))
		for i, v := range keys {
			texts[i] = Serialize(v)
		}
		cmp = func(a, b int) int {
			return strings.Compare(texts[a], texts[b])
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		r := cmp(order[i], order[j])
		if descending {
			return r > 0
		}
		return r < 0
	})

	out := make(List, len(rows))
	for i, idx := range order {
		out[i] = rows[idx]
	}
	c.Logger().DebugCat(CatList, "sorted %d rows by %s", len(rows), key)
	return out, nil
}
