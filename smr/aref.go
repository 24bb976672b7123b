package smr

import "github.com/rogpeppe/lockfree/gatomic"

// ARef is an atomic slot holding either null or a strong reference to
// a heap node, plus a tag (0-3 bits) stored alongside the pointer and
// updated together with it (see gatomic.TaggedPointer). It is the fundamental shared-mutable field type
// every data structure in this module builds its nodes from (a list's
// next pointer, a tree's child pointers, the root slot).
//
// ARef owns exactly one strong-count unit for whatever it currently
// holds. Taking that value out (via Swap, or a successful
// CompareExchange) transfers that ownership to the caller, who must
// eventually call Release on it (directly, or by storing it into
// another ARef).
type ARef[T Refable] struct {
	slot gatomic.TaggedPointer[T]
}

// NewARef constructs an ARef that owns rc. rc's ownership is
// transferred to the slot.
func NewARef[T Refable](rc Rc[T]) *ARef[T] {
	a := &ARef[T]{}
	a.slot.Store(rc.addr, rc.tag)
	return a
}

// NullARef returns a newly allocated, empty ARef.
func NullARef[T Refable]() *ARef[T] { return &ARef[T]{} }

// Load performs a raw, unprotected load of the current pointer and
// tag. The result must not be dereferenced directly — go through
// Snap.Load first to protect it against concurrent reclamation.
func (a *ARef[T]) Load() Ptr[T] {
	addr, tag := a.slot.Load()
	return Ptr[T]{addr: addr, tag: tag}
}

// Store unconditionally replaces the slot's contents with rc,
// transferring rc's ownership to the slot. It must only be used to
// publish into a slot that the caller knows is uncontended (e.g. a
// freshly allocated node's own fields before the node itself is
// published) — anywhere else, use CompareExchange or Swap so a
// concurrent writer's update cannot be silently overwritten.
func (a *ARef[T]) Store(rc Rc[T]) {
	a.slot.Store(rc.addr, rc.tag)
}

// Swap unconditionally replaces the slot's contents with new,
// transferring new's ownership to the slot and returning the
// previously held reference (ownership transferred to the caller).
func (a *ARef[T]) Swap(new Rc[T]) Rc[T] {
	oldAddr, oldTag := a.slot.Swap(new.addr, new.tag)
	return Rc[T]{Ptr[T]{addr: oldAddr, tag: oldTag}}
}

// CasFailure reports a failed compare-exchange: the pointer actually
// observed in the slot, and the desired value the caller wanted to
// install (handed back so the caller can reclaim or retry with it).
type CasFailure[T Refable] struct {
	Current Ptr[T]
	Desired Rc[T]
}

// CompareExchange replaces the slot's (pointer, tag) with desired's
// if it currently equals expected, transferring desired's ownership
// to the slot and returning the replaced reference (ownership
// transferred to the caller) on success. On failure it returns the
// zero Rc and a CasFailure carrying the pointer actually observed.
func (a *ARef[T]) CompareExchange(expected Ptr[T], desired Rc[T]) (Rc[T], *CasFailure[T]) {
	if a.slot.CompareAndSwap(expected.addr, expected.tag, desired.addr, desired.tag) {
		return Rc[T]{expected}, nil
	}
	return Rc[T]{}, &CasFailure[T]{Current: a.Load(), Desired: desired}
}

// CompareExchangeTag updates only the tag of the slot, preserving the
// currently-held referent, if the slot still holds (expected.Addr(),
// expected.Tag()). It does not change which node is owned by the
// slot, so it does not touch any strong count.
func (a *ARef[T]) CompareExchangeTag(expected Ptr[T], newTag uint8) (Ptr[T], *CasFailure[T]) {
	if a.slot.CompareAndSwapTag(expected.addr, expected.tag, newTag) {
		return expected.WithTag(newTag), nil
	}
	return Ptr[T]{}, &CasFailure[T]{Current: a.Load()}
}
