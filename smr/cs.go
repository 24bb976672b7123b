package smr

import (
	"unsafe"

	"github.com/rogpeppe/lockfree/hazard"
)

// Cs is a per-thread reclamation handle. It owns a fixed bank of
// hazard slots (used to back Snap values allocated from it) and a
// retire list of nodes awaiting reclamation. A Cs must never be
// shared between threads; dropping a Cs while any Snap allocated from
// it is still live is a programmer error (the hazard slot would be
// reclaimed out from under a reader that believes it is still
// protected) — the same class of fatal, non-recoverable error spec.md
// §7 reserves for "dropping Cs while snapshots live".
type Cs struct {
	domain *Domain
	slots  *hazard.ThreadSlots
	retire hazard.RetireList
}

// Domain is the process-wide (or, in tests, per-benchmark) hazard
// registry that every Cs registers into. Structures share one Domain
// so that a node retired by one Cs is correctly protected against
// readers operating through any other Cs.
type Domain struct {
	reg *hazard.Registry
}

// NewDomain returns a fresh, empty reclamation domain.
func NewDomain() *Domain {
	return &Domain{reg: hazard.NewRegistry()}
}

// global is the default domain used by structures constructed with no
// explicit Domain, matching the teacher's convention of a package-level
// default (c.f. ctrie's package-level hash seed) — most callers only
// ever need one domain per process.
var global = NewDomain()

// NewCs returns a new reclamation handle registered into dom. Pass
// nil to use the shared process-wide domain.
func NewCs(dom *Domain) *Cs {
	if dom == nil {
		dom = global
	}
	return &Cs{domain: dom, slots: dom.reg.Register()}
}

// Alloc returns a new Snap backed by one of cs's hazard slots.
func Alloc[T Refable](cs *Cs) *Snap[T] {
	return &Snap[T]{cs: cs, slot: cs.slots.Alloc()}
}

// Release frees s's hazard slot back to its owning Cs. Per-operation
// cursors normally skip this and instead reuse the same Snap (via
// repeated Load calls) across many operations, since a reused Snap
// never needs a fresh Alloc; Release is for the rare Snap whose
// lifetime is shorter than its owning output holder.
func (s *Snap[T]) Release() {
	s.cs.slots.Release(s.slot)
	s.cur = Ptr[T]{}
}

// retireNode schedules addr for reclamation once no hazard slot protects
// it, and opportunistically drains a batch of the retire list so the
// queue does not grow without bound under sustained churn.
func retireNode[T Refable](cs *Cs, addr *T) {
	cs.retire.Push(hazard.Retired{
		Addr: unsafe.Pointer(addr),
		Reclaim: func() {
			if d, ok := any(addr).(Dropper); ok {
				d.DropChildren(cs)
			}
			if r, ok := any(addr).(reclaimHook); ok {
				r.OnReclaim()
			}
		},
	})
	cs.retire.Drain(cs.domain.reg)
}

// Dropper is optionally implemented by a node type to release the
// references it owns in its own ARef fields once the node itself has
// actually been reclaimed (strong count zero, no hazard protects it
// any longer). This is what lets releasing the head of an unlinked
// chain — a list's run of deleted nodes, a tree's pruned subtree —
// cascade through the rest of the chain automatically, the way a
// Rust Drop impl walks into its own fields: DropChildren takes over
// ownership of each child via ARef.Swap(NullRc) and releases it,
// which recurses into that child's own DropChildren if its count also
// reaches zero.
type Dropper interface {
	DropChildren(cs *Cs)
}

// reclaimHook is an optional hook a node type may implement to
// observe its own reclamation; used by tests to verify §8.1
// invariant 5 (a retired node is eventually freed) without relying on
// the garbage collector's timing.
type reclaimHook interface {
	OnReclaim()
}
