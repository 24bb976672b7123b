package smr

import (
	"unsafe"

	"github.com/rogpeppe/lockfree/hazard"
)

// Snap is a per-thread hazard slot protecting a loaded pointer from
// reclamation for as long as the snapshot is live. A Snap is obtained
// from a Cs (see Alloc) and is released back to it (Snap.Release)
// when the caller is done — per-operation cursors instead keep their
// Snaps for the life of the output holder and reuse them across calls
// and retries, so steady-state operation is allocation-free besides
// genuinely new nodes.
type Snap[T Refable] struct {
	cs   *Cs
	slot *hazard.Slot
	cur  Ptr[T]
}

// Load installs a hazard on the address currently held by src and
// stores the protected (pointer, tag) pair in s. It uses an
// install-then-revalidate loop: if the address read back from src
// after the hazard install differs from the one protected, a
// concurrent retirement might have missed the hazard (it ran before
// the install), so the read is retried. Once the two reads agree, the
// node cannot be reclaimed until s is cleared or reused, because
// retirement always rescans the registry after a node's strong count
// reaches zero and defers freeing anything still found.
func (s *Snap[T]) Load(src *ARef[T]) {
	for {
		p := src.Load()
		s.slot.Set(unsafe.Pointer(p.addr))
		p2 := src.Load()
		if p2.addr == p.addr {
			s.cur = p
			return
		}
	}
}

// Upgrade returns a new strong reference to the protected node. It
// fails safe (returning the null Rc) if the node's strong count has
// already reached zero — which can only happen for a node that is no
// longer reachable from any root, so failing is always a safe
// "treat this as absent" signal to the caller, never a lost update.
func (s *Snap[T]) Upgrade() Rc[T] {
	if s.cur.addr == nil {
		return Rc[T]{}
	}
	if !tryIncrementStrong(s.cur.addr) {
		return Rc[T]{}
	}
	return Rc[T]{s.cur}
}

// Swap exchanges which hazard slot and protected value belong to s
// and which belong to other. Used by list traversals to shift
// prev/curr/next along without re-installing a fresh hazard at every
// step.
func (s *Snap[T]) Swap(other *Snap[T]) {
	s.slot, other.slot = other.slot, s.slot
	s.cur, other.cur = other.cur, s.cur
}

// Clear releases the hazard protection held by s, making its node
// eligible for reclamation once its strong count also reaches zero.
func (s *Snap[T]) Clear() {
	s.slot.Clear()
	s.cur = Ptr[T]{}
}

// Tag returns the tag of the currently protected pointer.
func (s *Snap[T]) Tag() uint8 { return s.cur.tag }

// SetTag updates the tag recorded on the local snapshot. It does not
// touch the source ARef; callers that need to publish the change use
// ARef.CompareExchangeTag.
func (s *Snap[T]) SetTag(tag uint8) { s.cur.tag = tag }

// AsPtr returns the protected (pointer, tag) pair.
func (s *Snap[T]) AsPtr() Ptr[T] { return s.cur }

// AsRef safely dereferences the protected node, or returns nil if s
// protects the null pointer. The returned pointer is valid to
// dereference for as long as s remains live (until the next Load,
// Swap, or Clear on s, or until the owning Cs is dropped).
func (s *Snap[T]) AsRef() *T { return s.cur.addr }
