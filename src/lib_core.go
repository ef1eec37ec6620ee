package stacksh

import (
	"strings"
)

// RegisterCoreLib registers stack manipulation and output operators
// Module: core
func (s *Session) RegisterCoreLib() {

	// dup ( a -- a a )
	s.RegisterOperatorInModule("core", "dup", Sig(func(c *Context) error {
		c.Push(c.Args[0], c.Args[0])
		return nil
	}, KindAny))

	// drop ( a -- )
	s.RegisterOperatorInModule("core", "drop", Sig(func(c *Context) error {
		return nil
	}, KindAny))

	// swap ( a b -- b a )
	s.RegisterOperatorInModule("core", "swap", Sig(func(c *Context) error {
		c.Push(c.Args[1], c.Args[0])
		return nil
	}, KindAny, KindAny))

	// over ( a b -- a b a )
	s.RegisterOperatorInModule("core", "over", Sig(func(c *Context) error {
		c.Push(c.Args[0], c.Args[1], c.Args[0])
		return nil
	}, KindAny, KindAny))

	// rot ( a b c -- b c a )
	s.RegisterOperatorInModule("core", "rot", Sig(func(c *Context) error {
		c.Push(c.Args[1], c.Args[2], c.Args[0])
		return nil
	}, KindAny, KindAny, KindAny))

	// nip ( a b -- b )
	s.RegisterOperatorInModule("core", "nip", Sig(func(c *Context) error {
		c.Push(c.Args[1])
		return nil
	}, KindAny, KindAny))

	// tuck ( a b -- b a b )
	s.RegisterOperatorInModule("core", "tuck", Sig(func(c *Context) error {
		c.Push(c.Args[1], c.Args[0], c.Args[1])
		return nil
	}, KindAny, KindAny))

	// pick ( ... n -- ... x ) copies the value n below the top (0 = top)
	s.RegisterOperatorInModule("core", "pick", Sig(func(c *Context) error {
		n, err := c.Int(0)
		if err != nil {
			return err
		}
		v, ok := c.Stack().Peek(n)
		if !ok {
			return c.Errorf(StackUnderflow, "pick %d: stack has %d value(s)", n, c.Stack().Len())
		}
		c.Push(v)
		return nil
	}, KindNumber))

	s.RegisterOperatorInModule("core", "clear", Sig(func(c *Context) error {
		c.Stack().Clear()
		return nil
	}))

	s.RegisterOperatorInModule("core", "depth", Sig(func(c *Context) error {
		c.Push(Number(c.Stack().Len()))
		return nil
	}))

	// print writes the serialized form and a newline
	s.RegisterOperatorInModule("core", "print", Sig(func(c *Context) error {
		c.ev.session.Emit(Serialize(c.Args[0]) + "\n")
		return nil
	}, KindAny))

	// show writes the display form
	s.RegisterOperatorInModule("core", "show", Sig(func(c *Context) error {
		c.ev.session.Emit(Repr(c.Args[0]) + "\n")
		return nil
	}, KindAny))

	// .s dumps the stack, bottom first, without changing it
	dumpStack := func(c *Context) error {
		items := c.Stack().Items()
		var sb strings.Builder
		for i, v := range items {
			sb.WriteString(FormatNumber(Number(i)))
			sb.WriteString(": ")
			sb.WriteString(Repr(v))
			sb.WriteByte('\n')
		}
		if len(items) == 0 {
			sb.WriteString("(empty)\n")
		}
		c.ev.session.Emit(sb.String())
		return nil
	}
	s.RegisterOperatorInModule("core", ".s", Sig(dumpStack))
	s.RegisterOperatorInModule("core", "stack", Sig(dumpStack))

	// "key" config pushes a named setting, nil when unset
	s.RegisterOperatorInModule("core", "config", Sig(func(c *Context) error {
		settings := c.ev.session.config.Settings
		key := c.Str(0)
		if !settings.IsSet(key) {
			c.Push(Nil{})
			c.SetStatus(false)
			return nil
		}
		c.Push(ValueFromGo(settings.Get(key)))
		return nil
	}, KindStr))
}
