package stacksh

import "sync"

// Frame holds the local bindings of one definition call or block application
type Frame struct {
	vars map[string]Value
}

// Scope is the stack of frames visible to one evaluator, innermost last.
// The top level has no frame, so `local` there is a usage error.
type Scope struct {
	frames []*Frame
}

// NewScope creates a scope with no frames
func NewScope() *Scope {
	return &Scope{}
}

// Push enters a new frame. Callers pair it with a deferred Pop.
func (s *Scope) Push() {
	s.frames = append(s.frames, &Frame{vars: make(map[string]Value)})
}

// Pop leaves the innermost frame, dropping every binding it introduced.
// Shadowed outer bindings become visible again.
func (s *Scope) Pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth returns the number of active frames
func (s *Scope) Depth() int {
	return len(s.frames)
}

// Bind sets a local in the innermost frame
func (s *Scope) Bind(name string, value Value) bool {
	if len(s.frames) == 0 {
		return false
	}
	s.frames[len(s.frames)-1].vars[name] = value
	return true
}

// Lookup resolves a name from the innermost frame outwards
func (s *Scope) Lookup(name string) (Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Flatten returns the visible bindings (inner shadows outer)
func (s *Scope) Flatten() map[string]Value {
	out := make(map[string]Value)
	for _, f := range s.frames {
		for k, v := range f.vars {
			out[k] = v
		}
	}
	return out
}

// ScopeFromBindings builds a one-frame scope holding the given bindings.
// Background workers start from this.
func ScopeFromBindings(bindings map[string]Value) *Scope {
	s := NewScope()
	s.Push()
	for k, v := range bindings {
		s.frames[0].vars[k] = v
	}
	return s
}

// Environment is the session's variable environment, seeded from the process
// environment at session start. It is shared by the evaluators of a session,
// so access is locked.
type Environment struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewEnvironment creates an environment from KEY=VALUE pairs
func NewEnvironment(pairs []string) *Environment {
	return &Environment{vars: environFromPairs(pairs)}
}

// Get returns a variable
func (e *Environment) Get(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[name]
	return v, ok
}

// Set sets a variable
func (e *Environment) Set(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = value
}

// Unset removes a variable
func (e *Environment) Unset(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.vars, name)
}

// Clone returns an independent copy for a background worker
func (e *Environment) Clone() *Environment {
	e.mu.RLock()
	defer e.mu.RUnlock()
	vars := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		vars[k] = v
	}
	return &Environment{vars: vars}
}

// Snapshot returns a copy of all variables
func (e *Environment) Snapshot() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// Pairs returns the environment as sorted KEY=VALUE pairs, with overlay
// entries replacing or adding to the stored ones
func (e *Environment) Pairs(overlay map[string]string) []string {
	merged := e.Snapshot()
	for k, v := range overlay {
		merged[k] = v
	}
	pairs := make([]string, 0, len(merged))
	for _, k := range sortedKeys(merged) {
		pairs = append(pairs, k+"="+merged[k])
	}
	return pairs
}
