package stacksh

import (
	"math"
	"strings"
)

// numericOperand coerces an arithmetic operand. Numbers pass through and
// strings that parse as numbers are converted; anything else is a TypeError.
func numericOperand(c *Context, v Value) (float64, error) {
	switch n := v.(type) {
	case Number:
		return float64(n), nil
	case Str:
		if parsed, ok := parseNumericString(string(n)); ok {
			return float64(parsed), nil
		}
		return 0, c.Errorf(TypeError, "%s expects numbers, got non-numeric string %q", c.Command, string(n))
	}
	return 0, c.Errorf(TypeError, "%s expects numbers, got %s", c.Command, TypeName(v))
}

func binaryMath(fn func(c *Context, a, b float64) (float64, error)) Signature {
	return Sig(func(c *Context) error {
		a, err := numericOperand(c, c.Args[0])
		if err != nil {
			return err
		}
		b, err := numericOperand(c, c.Args[1])
		if err != nil {
			return err
		}
		result, err := fn(c, a, b)
		if err != nil {
			return err
		}
		c.Push(Number(result))
		return nil
	}, KindAny, KindAny)
}

func unaryMath(fn func(a float64) float64) Signature {
	return Sig(func(c *Context) error {
		a, err := numericOperand(c, c.Args[0])
		if err != nil {
			return err
		}
		c.Push(Number(fn(a)))
		return nil
	}, KindAny)
}

// orderOperands compares two values for the ordering predicates: numerically
// when both sides are numeric, lexically when both are strings
func orderOperands(c *Context) (int, error) {
	a, b := c.Args[0], c.Args[1]
	_, aNum := a.(Number)
	_, bNum := b.(Number)
	as, aStr := a.(Str)
	bs, bStr := b.(Str)
	if aStr && bStr {
		_, pa := parseNumericString(string(as))
		_, pb := parseNumericString(string(bs))
		if !(pa && pb) {
			return strings.Compare(string(as), string(bs)), nil
		}
	}
	if (aNum || aStr) && (bNum || bStr) {
		x, err := numericOperand(c, a)
		if err != nil {
			return 0, err
		}
		y, err := numericOperand(c, b)
		if err != nil {
			return 0, err
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	return 0, c.Errorf(TypeError, "%s cannot order %s and %s", c.Command, TypeName(a), TypeName(b))
}

// RegisterMathLib registers arithmetic and comparison operators.
// Arithmetic coerces numeric strings; comparisons set the exit signal.
// Module: math
func (s *Session) RegisterMathLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("math", name, sigs...)
	}

	reg("plus", binaryMath(func(c *Context, a, b float64) (float64, error) { return a + b, nil }))
	reg("minus", binaryMath(func(c *Context, a, b float64) (float64, error) { return a - b, nil }))
	reg("mul", binaryMath(func(c *Context, a, b float64) (float64, error) { return a * b, nil }))
	reg("div", binaryMath(func(c *Context, a, b float64) (float64, error) {
		if b == 0 {
			return 0, c.Errorf(EvalError, "division by zero")
		}
		return a / b, nil
	}))
	reg("mod", binaryMath(func(c *Context, a, b float64) (float64, error) {
		if b == 0 {
			return 0, c.Errorf(EvalError, "division by zero")
		}
		return math.Mod(a, b), nil
	}))
	reg("pow", binaryMath(func(c *Context, a, b float64) (float64, error) { return math.Pow(a, b), nil }))

	reg("neg", unaryMath(func(a float64) float64 { return -a }))
	reg("abs", unaryMath(math.Abs))
	reg("floor", unaryMath(math.Floor))
	reg("ceil", unaryMath(math.Ceil))
	reg("round", unaryMath(math.Round))
	reg("sqrt", unaryMath(math.Sqrt))

	for alias, name := range map[string]string{"+": "plus", "-": "minus", "*": "mul", "/": "div", "%": "mod"} {
		s.operators.Alias(alias, name)
	}

	reg("eq", Sig(func(c *Context) error {
		return predicate(c, Equal(c.Args[0], c.Args[1]))
	}, KindAny, KindAny))
	reg("ne", Sig(func(c *Context) error {
		return predicate(c, !Equal(c.Args[0], c.Args[1]))
	}, KindAny, KindAny))

	ordering := map[string]func(int) bool{
		"lt": func(c int) bool { return c < 0 },
		"le": func(c int) bool { return c <= 0 },
		"gt": func(c int) bool { return c > 0 },
		"ge": func(c int) bool { return c >= 0 },
	}
	for name, test := range ordering {
		test := test
		reg(name, Sig(func(c *Context) error {
			cmp, err := orderOperands(c)
			if err != nil {
				return err
			}
			return predicate(c, test(cmp))
		}, KindAny, KindAny))
	}

	for alias, name := range map[string]string{"==": "eq", "!=": "ne", "<": "lt", "<=": "le", ">": "gt", ">=": "ge"} {
		s.operators.Alias(alias, name)
	}
}
