package stacksh

// RegisterScopeLib registers local variable, environment and definition
// operators
// Module: scope
func (s *Session) RegisterScopeLib() {
	reg := func(name string, sigs ...Signature) {
		s.RegisterOperatorInModule("scope", name, sigs...)
	}

	// value "name" local binds in the innermost frame
	reg("local", Sig(func(c *Context) error {
		name := c.Str(1)
		if !c.ev.scope.Bind(name, c.Args[0]) {
			return c.Errorf(EvalError, "local %q used outside any definition or block", name)
		}
		c.Logger().DebugCat(CatVariable, "local %s = %s", name, Repr(c.Args[0]))
		return nil
	}, KindAny, KindStr))

	// value "NAME" export sets a session environment variable
	reg("export", Sig(func(c *Context) error {
		c.ev.env.Set(c.Str(1), Serialize(c.Args[0]))
		return nil
	}, KindAny, KindStr))

	reg("unset", Sig(func(c *Context) error {
		c.ev.env.Unset(c.Str(0))
		return nil
	}, KindStr))

	reg("env", Sig(func(c *Context) error {
		vars := c.ev.env.Snapshot()
		b := NewRecordBuilder(len(vars))
		for _, k := range sortedKeys(vars) {
			b.Set(k, Str(vars[k]))
		}
		c.Push(b.Build())
		return nil
	}))

	reg("forget", Sig(func(c *Context) error {
		c.SetStatus(c.ev.defs.Forget(c.Str(0)))
		return nil
	}, KindStr))

	reg("defined?", Sig(func(c *Context) error {
		_, ok := c.ev.defs.Lookup(c.Str(0))
		return predicate(c, ok)
	}, KindStr))

	reg("words", Sig(func(c *Context) error {
		names := c.ev.defs.Names()
		out := make(List, len(names))
		for i, n := range names {
			out[i] = Str(n)
		}
		c.Push(out)
		return nil
	}))

	reg("builtins", Sig(func(c *Context) error {
		names := c.ev.session.operators.Names()
		out := make(List, len(names))
		for i, n := range names {
			out[i] = Str(n)
		}
		c.Push(out)
		return nil
	}))
}
