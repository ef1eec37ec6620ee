package stacksh

import "testing"

func TestStackPushPop(t *testing.T) {
	s := NewStack()
	s.Push(Number(1), Number(2), Number(3))

	if s.Len() != 3 {
		t.Fatalf("Expected 3 items, got %d", s.Len())
	}
	top, _ := s.Peek(0)
	if !Equal(top, Number(3)) {
		t.Errorf("Expected 3 on top, got %s", Repr(top))
	}

	vals, ok := s.PopN(2)
	if !ok || len(vals) != 2 || !Equal(vals[0], Number(2)) || !Equal(vals[1], Number(3)) {
		t.Errorf("PopN should return bottom→top, got %v", vals)
	}
	if _, ok := s.PopN(5); ok {
		t.Error("PopN past the bottom should fail")
	}
	if s.Len() != 1 {
		t.Errorf("Failed PopN must not change the stack, len %d", s.Len())
	}

	s.Pop()
	if _, ok := s.Pop(); ok {
		t.Error("Pop on empty stack should fail")
	}
}

func TestStackSnapshotRestore(t *testing.T) {
	s := NewStack()
	s.Push(Str("a"), Str("b"))
	snap := s.Snapshot()

	s.Pop()
	s.Push(Number(9), Number(10))
	s.Restore(snap)

	items := s.Items()
	if len(items) != 2 || !Equal(items[1], Str("b")) {
		t.Errorf("Restore did not bring back the snapshot: %s", Repr(List(items)))
	}

	// the snapshot must not alias the live stack
	s.Push(Nil{})
	if len(snap) != 2 {
		t.Errorf("Snapshot was modified by a later push")
	}
}

func TestStackPopToMarker(t *testing.T) {
	s := NewStack()
	s.Push(Number(0), Marker{}, Number(1), Marker{}, Number(2), Number(3))

	vals, found := s.PopToMarker()
	if !found || len(vals) != 2 {
		t.Fatalf("Expected the two values above the topmost marker, got %v", vals)
	}
	if s.Len() != 3 {
		t.Errorf("Expected marker removed, len %d", s.Len())
	}

	s.Clear()
	s.Push(Number(1))
	if _, found := s.PopToMarker(); found {
		t.Error("No marker should be found")
	}
	if s.Len() != 1 {
		t.Error("Missing marker must leave the stack intact")
	}
}

func TestStackLowWater(t *testing.T) {
	s := NewStack()
	s.Push(Number(1), Number(2), Number(3))

	outer := s.MarkLowWater()
	s.Pop()
	s.Pop()
	s.Push(Number(4), Number(5), Number(6))

	if s.LowWater() != 1 {
		t.Errorf("Expected low water 1, got %d", s.LowWater())
	}

	inner := s.MarkLowWater()
	s.Pop()
	s.ResumeLowWater(inner)
	if s.LowWater() != 1 {
		t.Errorf("Resume should keep the outer minimum, got %d", s.LowWater())
	}
	s.ResumeLowWater(outer)
}
