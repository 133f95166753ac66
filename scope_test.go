package cadence

import (
	"testing"
)

func TestScopeAlloc(t *testing.T) {
	s := Factory.NewScope()

	ptrs := make([]*Position, 0, 200)
	for i := 0; i < 200; i++ {
		p := Alloc[Position](s)
		p.X = float64(i)
		ptrs = append(ptrs, p)
	}
	// Growth must not move earlier allocations
	for i, p := range ptrs {
		if p.X != float64(i) {
			t.Fatalf("Allocation %d changed to %v", i, p.X)
		}
	}
	if s.Allocated() != 200 {
		t.Errorf("Allocated() = %d, want 200", s.Allocated())
	}

	big := AllocSlice[int](s, 1000)
	if len(big) != 1000 || cap(big) != 1000 {
		t.Errorf("AllocSlice len/cap = %d/%d, want 1000/1000", len(big), cap(big))
	}
	if AllocSlice[int](s, 0) != nil {
		t.Error("Empty AllocSlice is not nil")
	}
}

func TestScopeResetZeroesAndReuses(t *testing.T) {
	s := Factory.NewScope()
	first := Alloc[Position](s)
	first.X = 42

	epoch := s.Epoch()
	s.Reset()
	if s.Epoch() != epoch+1 {
		t.Errorf("Epoch() = %d, want %d", s.Epoch(), epoch+1)
	}
	if s.Allocated() != 0 {
		t.Errorf("Allocated() = %d after reset", s.Allocated())
	}
	if first.X != 0 {
		t.Error("Reset did not zero the previous allocation")
	}

	second := Alloc[Position](s)
	if second != first {
		t.Error("Reset scope did not reuse its chunk")
	}
}

func TestVec(t *testing.T) {
	s := Factory.NewScope()
	v := NewVec[int](s, 2)

	for i := 0; i < 10; i++ {
		v.Push(i)
	}
	if v.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", v.Len())
	}
	for i, item := range v.All() {
		if item != i || v.At(i) != i {
			t.Errorf("item %d = %d", i, item)
		}
	}
	if got := v.Slice(); len(got) != 10 || got[9] != 9 {
		t.Errorf("Slice() = %v", got)
	}

	sum := 0
	for item := range v.Drain() {
		sum += item
	}
	if sum != 45 {
		t.Errorf("Drain yielded sum %d, want 45", sum)
	}
	if v.Len() != 0 {
		t.Errorf("Len() = %d after drain", v.Len())
	}

	v.Push(7)
	for item := range v.Drain() {
		if item != 7 {
			t.Errorf("Drain after reuse yielded %d", item)
		}
		v.Push(8) // lands after the drained items
	}
	if v.Len() != 1 || v.At(0) != 8 {
		t.Errorf("Push during drain produced %v", v.Slice())
	}
}

func TestVecUseAfterReset(t *testing.T) {
	s := Factory.NewScope()
	v := NewVec[Entity](s, 4)
	v.Push(Entity{ID: 1, Gen: 1})
	s.Reset()

	tests := []struct {
		name string
		use  func()
	}{
		{"Push", func() { v.Push(Entity{}) }},
		{"Len", func() { v.Len() }},
		{"Drain", func() {
			for range v.Drain() {
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectPanic[StaleScopeError](t, tt.use)
		})
	}
}
