package stacksh

import (
	"strings"
)

// Equal compares two values structurally. Blocks, futures and errors compare
// by identity. No numeric/string coercion happens here.
func Equal(a, b Value) bool {
	switch va := a.(type) {
	case Str:
		vb, ok := b.(Str)
		return ok && va == vb
	case Number:
		vb, ok := b.(Number)
		return ok && va == vb
	case Bool:
		vb, ok := b.(Bool)
		return ok && va == vb
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Marker:
		_, ok := b.(Marker)
		return ok
	case List:
		vb, ok := b.(List)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	case *Record:
		vb, ok := b.(*Record)
		if !ok || va.Len() != vb.Len() {
			return false
		}
		// Same fields in the same order
		for i, k := range va.keys {
			if vb.keys[i] != k {
				return false
			}
			if !Equal(va.values[k], vb.values[k]) {
				return false
			}
		}
		return true
	case *Block:
		vb, ok := b.(*Block)
		return ok && va == vb
	case *Future:
		vb, ok := b.(*Future)
		return ok && va == vb
	case *ErrorValue:
		vb, ok := b.(*ErrorValue)
		return ok && va == vb
	}
	return false
}

// orderCategory places values of different kinds in a fixed order:
// nil < false < true < numbers < strings < everything else
func orderCategory(v Value) int {
	switch val := v.(type) {
	case Nil:
		return 0
	case Bool:
		if val {
			return 2
		}
		return 1
	case Number:
		return 3
	case Str:
		return 4
	}
	return 5
}

// Compare orders two values for `sort` and ordering predicates.
// Returns <0 if a<b, 0 if equal, >0 if a>b.
func Compare(a, b Value) int {
	ca, cb := orderCategory(a), orderCategory(b)
	if ca != cb {
		return ca - cb
	}
	switch va := a.(type) {
	case Number:
		vb := b.(Number)
		if va < vb {
			return -1
		} else if va > vb {
			return 1
		}
		return 0
	case Str:
		return strings.Compare(string(va), string(b.(Str)))
	case Nil, Bool:
		return 0
	}
	return strings.Compare(Serialize(a), Serialize(b))
}
