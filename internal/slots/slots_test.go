package slots

import (
	"errors"
	"testing"

	"github.com/gogpu/imdraw/texture"
)

func TestResolveAssignsInOrder(t *testing.T) {
	a := New(4)
	for i, h := range []texture.Handle{10, 20, 30} {
		slot, err := a.Resolve(h)
		if err != nil {
			t.Fatalf("Resolve(%d) error: %v", h, err)
		}
		if slot != uint32(i+1) {
			t.Errorf("Resolve(%d) = %d, want %d", h, slot, i+1)
		}
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
}

func TestResolveIsStable(t *testing.T) {
	a := New(4)
	first, _ := a.Resolve(7)
	_, _ = a.Resolve(8)
	_, _ = a.Resolve(9)
	again, err := a.Resolve(7)
	if err != nil || again != first {
		t.Errorf("Resolve(7) = %d, %v; want %d", again, err, first)
	}
	if a.Len() != 3 {
		t.Errorf("repeat resolve grew the set to %d", a.Len())
	}
}

func TestZeroHandleIsSlotZero(t *testing.T) {
	a := New(0)
	slot, err := a.Resolve(0)
	if err != nil || slot != 0 {
		t.Errorf("Resolve(0) = %d, %v", slot, err)
	}
	if a.Len() != 0 {
		t.Error("zero handle occupied a slot")
	}
}

func TestExhaustion(t *testing.T) {
	a := New(2)
	_, _ = a.Resolve(1)
	_, _ = a.Resolve(2)

	if _, err := a.Resolve(3); !errors.Is(err, ErrSlotsExhausted) {
		t.Fatalf("Resolve beyond capacity = %v, want ErrSlotsExhausted", err)
	}
	// bound handles still resolve when full
	if slot, err := a.Resolve(2); err != nil || slot != 2 {
		t.Errorf("Resolve(2) when full = %d, %v", slot, err)
	}
	if a.Len() != 2 {
		t.Errorf("failed resolve changed Len to %d", a.Len())
	}
}

func TestResetFreesSlots(t *testing.T) {
	a := New(1)
	_, _ = a.Resolve(5)
	a.Reset()
	slot, err := a.Resolve(6)
	if err != nil || slot != 1 {
		t.Errorf("Resolve after Reset = %d, %v", slot, err)
	}
	if got := a.Bound(); len(got) != 1 || got[0] != 6 {
		t.Errorf("Bound() = %v", got)
	}
	if a.Capacity() != 1 {
		t.Errorf("Capacity() = %d", a.Capacity())
	}
}
