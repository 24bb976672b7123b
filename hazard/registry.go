// Package hazard implements the hazard-slot registry that backs
// package smr's Snap type. A hazard slot is a published address that
// tells every other thread "do not reclaim the node at this address
// while I hold this slot". Retirement consults the registry before
// freeing a node whose strong count has reached zero.
package hazard

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// SlotsPerThread bounds how many snapshots a single Cs can hold live
// at once. The largest per-operation holder in this module is the
// Natarajan-Mittal seek record with six snapshots (the list cursor
// has five: prev, curr, next, anchor, anchorNext); sixteen leaves
// headroom for short-lived helper snapshots on the same Cs.
const SlotsPerThread = 16

// Slot is a single hazard pointer slot. Get is safe to call from any
// thread (used during a retire scan); Set and Clear must only be
// called by the thread that owns the enclosing ThreadSlots.
//
// The slot holds an unsafe.Pointer, not a uintptr: a ThreadSlots bank
// is shared across every node type a Cs touches, so the slot can't be
// typed per-T, but it must still hold something the garbage collector
// recognizes as a pointer. unsafe.Pointer (unlike a bit-packed or
// plain uintptr) keeps its referent reachable for as long as the slot
// holds it, which is the entire point of "protecting" an address here
// — a slot whose representation the GC can't see through is not
// actually protecting anything.
type Slot struct {
	addr atomic.Pointer[byte]
}

// Set publishes p as the address currently protected by s.
func (s *Slot) Set(p unsafe.Pointer) { s.addr.Store((*byte)(p)) }

// Clear releases the protection held by s.
func (s *Slot) Clear() { s.addr.Store(nil) }

// Get returns the address currently protected by s, or nil.
func (s *Slot) Get() unsafe.Pointer { return unsafe.Pointer(s.addr.Load()) }

// ThreadSlots is one thread's fixed bank of hazard slots. It is owned
// exclusively by the Cs that allocated it: Alloc/Release are
// single-writer operations with no internal synchronization, which is
// sound because a Cs, per spec, is never shared between threads.
type ThreadSlots struct {
	slots [SlotsPerThread]Slot
	inUse [SlotsPerThread]bool
	next  *ThreadSlots
}

// Alloc reserves a free slot. It panics if the thread has exhausted
// its budget, which indicates a bug (an operation holding more live
// snapshots than any algorithm in this module requires).
func (ts *ThreadSlots) Alloc() *Slot {
	for i := range ts.inUse {
		if !ts.inUse[i] {
			ts.inUse[i] = true
			return &ts.slots[i]
		}
	}
	panic("hazard: thread exceeded its hazard slot budget")
}

// Release clears and frees s for reuse.
func (ts *ThreadSlots) Release(s *Slot) {
	s.Clear()
	for i := range ts.slots {
		if &ts.slots[i] == s {
			ts.inUse[i] = false
			return
		}
	}
	panic("hazard: Release called with a slot from a different ThreadSlots")
}

// Registry is the process-wide (or, in tests, domain-wide) set of all
// registered ThreadSlots banks. Registration is rare (once per Cs) so
// it is protected by a mutex; Protected, called on every retirement,
// only takes atomic loads on the scan path.
type Registry struct {
	mu   sync.Mutex
	head atomic.Pointer[ThreadSlots]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register allocates and links in a new ThreadSlots bank for a newly
// constructed Cs.
func (r *Registry) Register() *ThreadSlots {
	ts := &ThreadSlots{}
	r.mu.Lock()
	ts.next = r.head.Load()
	r.head.Store(ts)
	r.mu.Unlock()
	return ts
}

// Protected reports whether any registered hazard slot currently
// protects addr. The scan is lock-free: it walks the (append-only)
// linked list of ThreadSlots banks and does one atomic load per slot.
// A slot cleared a moment before this call may still be observed as
// protecting — that's conservative and safe, it only delays
// reclamation of an already-unreachable node, never frees one early.
func (r *Registry) Protected(addr unsafe.Pointer) bool {
	if addr == nil {
		return false
	}
	for ts := r.head.Load(); ts != nil; ts = ts.next {
		for i := range ts.slots {
			if ts.slots[i].Get() == addr {
				return true
			}
		}
	}
	return false
}
