package stacksh

// RegisterStandardLibrary registers every builtin module
func (s *Session) RegisterStandardLibrary() {
	s.RegisterCoreLib()
	s.RegisterTypesLib()
	s.RegisterMathLib()
	s.RegisterBitwiseLib()
	s.RegisterStringsLib()
	s.RegisterScopeLib()
	s.RegisterFlowLib()
	s.RegisterStructLib()
	s.RegisterListLib()
	s.RegisterTableLib()
	s.RegisterSystemLib()
	s.RegisterFilesLib()
	s.RegisterFormatsLib()
	s.RegisterFibersLib()
	s.RegisterHashLib()
}

// predicate pushes a Bool and mirrors it into the exit signal
func predicate(c *Context, ok bool) error {
	c.Push(Bool(ok))
	c.SetStatus(ok)
	return nil
}
