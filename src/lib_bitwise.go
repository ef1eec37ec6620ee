package stacksh

// integerOperand reads an integral number (or numeric string) as int64
func integerOperand(c *Context, v Value) (int64, error) {
	f, err := numericOperand(c, v)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, c.Errorf(TypeError, "%s expects integers, got %s", c.Command, FormatNumber(Number(f)))
	}
	return int64(f), nil
}

func bitwiseBinary(op func(a, b int64) int64) Signature {
	return Sig(func(c *Context) error {
		a, err := integerOperand(c, c.Args[0])
		if err != nil {
			return err
		}
		b, err := integerOperand(c, c.Args[1])
		if err != nil {
			return err
		}
		c.Push(Number(op(a, b)))
		return nil
	}, KindAny, KindAny)
}

func bitwiseShift(op func(a int64, n uint) int64) Signature {
	return Sig(func(c *Context) error {
		a, err := integerOperand(c, c.Args[0])
		if err != nil {
			return err
		}
		n, err := integerOperand(c, c.Args[1])
		if err != nil {
			return err
		}
		if n < 0 || n > 63 {
			return c.Errorf(EvalError, "%s shift count %d out of range 0..63", c.Command, n)
		}
		c.Push(Number(op(a, uint(n))))
		return nil
	}, KindAny, KindAny)
}

// RegisterBitwiseLib registers integer bitwise operators
// Module: bitwise
func (s *Session) RegisterBitwiseLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("bitwise", name, sigs...)
	}

	reg("band", bitwiseBinary(func(a, b int64) int64 { return a & b }))
	reg("bor", bitwiseBinary(func(a, b int64) int64 { return a | b }))
	reg("bxor", bitwiseBinary(func(a, b int64) int64 { return a ^ b }))
	reg("shl", bitwiseShift(func(a int64, n uint) int64 { return a << n }))
	// arithmetic shift, sign preserved
	reg("shr", bitwiseShift(func(a int64, n uint) int64 { return a >> n }))

	reg("bnot", Sig(func(c *Context) error {
		a, err := integerOperand(c, c.Args[0])
		if err != nil {
			return err
		}
		c.Push(Number(^a))
		return nil
	}, KindAny))
}
