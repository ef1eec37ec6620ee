package stacksh

// Stack is the LIFO value stack owned by exactly one evaluator.
// Index 0 is the bottom.
type Stack struct {
	items []Value
	low   int // smallest length since the last MarkLowWater
}

// NewStack creates an empty stack
func NewStack() *Stack {
	return &Stack{items: make([]Value, 0, 16)}
}

// Push pushes values in order, so the last argument ends up on top
func (s *Stack) Push(values ...Value) {
	s.items = append(s.items, values...)
}

// Pop removes and returns the top value
func (s *Stack) Pop() (Value, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	v := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	s.low = min(s.low, len(s.items))
	return v, true
}

// PopN removes the top n values and returns them bottom→top
func (s *Stack) PopN(n int) ([]Value, bool) {
	if n > len(s.items) {
		return nil, false
	}
	start := len(s.items) - n
	out := make([]Value, n)
	copy(out, s.items[start:])
	for i := start; i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = s.items[:start]
	s.low = min(s.low, start)
	return out, true
}

// Peek returns the value depth positions below the top (0 = top)
func (s *Stack) Peek(depth int) (Value, bool) {
	i := len(s.items) - 1 - depth
	if i < 0 || depth < 0 {
		return nil, false
	}
	return s.items[i], true
}

// Len returns the number of values on the stack
func (s *Stack) Len() int {
	return len(s.items)
}

// Items returns a copy of the stack contents, bottom first
func (s *Stack) Items() []Value {
	out := make([]Value, len(s.items))
	copy(out, s.items)
	return out
}

// Snapshot captures the stack so it can be restored after an isolated run.
// Values are immutable, so a shallow copy is enough.
func (s *Stack) Snapshot() []Value {
	return s.Items()
}

// Restore replaces the stack contents with a snapshot
func (s *Stack) Restore(snapshot []Value) {
	s.items = append(s.items[:0:0], snapshot...)
	s.low = min(s.low, len(s.items))
}

// Clear empties the stack
func (s *Stack) Clear() {
	s.items = s.items[:0]
	s.low = 0
}

// markerIndex returns the index of the topmost marker or -1
func (s *Stack) markerIndex() int {
	for i := len(s.items) - 1; i >= 0; i-- {
		if _, ok := s.items[i].(Marker); ok {
			return i
		}
	}
	return -1
}

// PopToMarker removes everything above the topmost marker (and the marker).
// found is false when the stack holds no marker; nothing is removed then.
func (s *Stack) PopToMarker() (values []Value, found bool) {
	idx := s.markerIndex()
	if idx < 0 {
		return nil, false
	}
	values = make([]Value, len(s.items)-idx-1)
	copy(values, s.items[idx+1:])
	for i := idx; i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = s.items[:idx]
	s.low = min(s.low, idx)
	return values, true
}

// MarkLowWater starts tracking the lowest depth reached and returns the
// previous mark so nested trackers can combine their results
func (s *Stack) MarkLowWater() (previous int) {
	previous = s.low
	s.low = len(s.items)
	return previous
}

// LowWater returns the lowest depth since MarkLowWater
func (s *Stack) LowWater() int {
	return s.low
}

// ResumeLowWater folds a nested tracker's result back into an outer mark
func (s *Stack) ResumeLowWater(previous int) {
	s.low = min(previous, s.low)
}
