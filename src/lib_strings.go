package stacksh

import (
	"strings"
)

// RegisterStringsLib registers string operators
// Module: strings
func (s *Session) RegisterStringsLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("strings", name, sigs...)
	}
	unary := func(fn func(string) string) Signature {
		return Sig(func(c *Context) error {
			c.Push(Str(fn(c.Str(0))))
			return nil
		}, KindStr)
	}

	reg("upper", unary(strings.ToUpper))
	reg("lower", unary(strings.ToLower))
	reg("trim", unary(strings.TrimSpace))

	// "a,b" "," split → ["a", "b"]
	reg("split", Sig(func(c *Context) error {
		parts := strings.Split(c.Str(0), c.Str(1))
		out := make(List, len(parts))
		for i, p := range parts {
			out[i] = Str(p)
		}
		c.Push(out)
		return nil
	}, KindStr, KindStr))

	// fields splits on whitespace
	reg("fields", Sig(func(c *Context) error {
		parts := strings.Fields(c.Str(0))
		out := make(List, len(parts))
		for i, p := range parts {
			out[i] = Str(p)
		}
		c.Push(out)
		return nil
	}, KindStr))

	// list "," join → "a,b"; elements are serialized
	reg("join", Sig(func(c *Context) error {
		items := c.ListArg(0)
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = Serialize(item)
		}
		c.Push(Str(strings.Join(parts, c.Str(1))))
		return nil
	}, KindList, KindStr))

	// "text" "old" "new" replace
	reg("replace", Sig(func(c *Context) error {
		c.Push(Str(strings.ReplaceAll(c.Str(0), c.Str(1), c.Str(2))))
		return nil
	}, KindStr, KindStr, KindStr))

	reg("contains?", Sig(func(c *Context) error {
		return predicate(c, strings.Contains(c.Str(0), c.Str(1)))
	}, KindStr, KindStr), Sig(func(c *Context) error {
		for _, item := range c.ListArg(0) {
			if Equal(item, c.Args[1]) {
				return predicate(c, true)
			}
		}
		return predicate(c, false)
	}, KindList, KindAny))

	reg("starts-with?", Sig(func(c *Context) error {
		return predicate(c, strings.HasPrefix(c.Str(0), c.Str(1)))
	}, KindStr, KindStr))

	reg("ends-with?", Sig(func(c *Context) error {
		return predicate(c, strings.HasSuffix(c.Str(0), c.Str(1)))
	}, KindStr, KindStr))
}
