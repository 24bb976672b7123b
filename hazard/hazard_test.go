package hazard

import (
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
)

func TestRegistryProtected(t *testing.T) {
	c := qt.New(t)
	reg := NewRegistry()
	ts := reg.Register()
	slot := ts.Alloc()

	var a, b int
	addrA := unsafe.Pointer(&a)
	addrB := unsafe.Pointer(&b)

	c.Assert(reg.Protected(addrA), qt.IsFalse)
	slot.Set(addrA)
	c.Assert(reg.Protected(addrA), qt.IsTrue)
	c.Assert(reg.Protected(addrB), qt.IsFalse)

	ts.Release(slot)
	c.Assert(reg.Protected(addrA), qt.IsFalse)
}

func TestThreadSlotsBudget(t *testing.T) {
	c := qt.New(t)
	var ts ThreadSlots
	slots := make([]*Slot, 0, SlotsPerThread)
	for i := 0; i < SlotsPerThread; i++ {
		slots = append(slots, ts.Alloc())
	}
	c.Assert(func() { ts.Alloc() }, qt.PanicMatches, "hazard: thread exceeded its hazard slot budget")

	ts.Release(slots[0])
	// Freed slot can be reused.
	c.Assert(func() { ts.Alloc() }, qt.Not(qt.PanicMatches), ".*")
}

func TestRetireListDrain(t *testing.T) {
	c := qt.New(t)
	reg := NewRegistry()
	ts := reg.Register()
	slot := ts.Alloc()

	var nodeA, nodeB int
	addrA := unsafe.Pointer(&nodeA)
	addrB := unsafe.Pointer(&nodeB)
	slot.Set(addrA)

	var reclaimed []unsafe.Pointer
	var q RetireList
	q.Push(Retired{Addr: addrA, Reclaim: func() { reclaimed = append(reclaimed, addrA) }})
	q.Push(Retired{Addr: addrB, Reclaim: func() { reclaimed = append(reclaimed, addrB) }})

	q.Drain(reg)
	c.Assert(reclaimed, qt.DeepEquals, []unsafe.Pointer{addrB})
	c.Assert(q.Len(), qt.Equals, 1)

	ts.Release(slot)
	q.Drain(reg)
	c.Assert(reclaimed, qt.DeepEquals, []unsafe.Pointer{addrB, addrA})
	c.Assert(q.Len(), qt.Equals, 0)
}
