package stacksh

import (
	"sort"
	"sync"
)

// Registry stores user definitions by name. A definition is replaced by
// swapping the pointer, so a call already running keeps the Block it
// looked up. Blocks never reference each other directly; recursion goes
// through a name lookup at call time.
type Registry struct {
	mu    sync.RWMutex
	words map[string]*Block
}

// NewRegistry creates an empty definition registry
func NewRegistry() *Registry {
	return &Registry{words: make(map[string]*Block)}
}

// Define installs or replaces a definition
func (r *Registry) Define(name string, block *Block) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.words[name] = block
}

// Lookup returns the current definition for name
func (r *Registry) Lookup(name string) (*Block, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.words[name]
	return b, ok
}

// Forget removes a definition
func (r *Registry) Forget(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.words[name]; !ok {
		return false
	}
	delete(r.words, name)
	return true
}

// Names returns all defined names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.words))
	for name := range r.words {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns an independent registry with the same definitions.
// Blocks are immutable, so sharing the pointers is safe.
func (r *Registry) Snapshot() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &Registry{words: make(map[string]*Block, len(r.words))}
	for k, v := range r.words {
		out.words[k] = v
	}
	return out
}
