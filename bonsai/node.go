// Package bonsai implements the Bonsai weight-balanced tree of
// spec.md §4.4: a purely functional, copy-on-write BST where every
// Insert and Remove rebuilds the root-to-leaf path as brand-new
// nodes, rebalances it with Adams' weight-balance rotations (W=2),
// and publishes the new version with a single CAS on the root.
// Readers never block and never observe a partially-rebuilt tree:
// they either see the whole old version or the whole new one.
//
// Grounded on
// original_source/src/ds_impl/circ_hp/bonsai_tree.rs, translated
// from circ's Rc/Snapshot/AtomicRc onto this module's smr package.
package bonsai

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

const weight = 2

// retiredTag marks an Rc returned by a rebuilding helper as poisoned:
// the root changed, or a child read raced a concurrent reclaim,
// partway through the rebuild. It is never stored into a live node's
// left/right field — it only ever travels as a return value, telling
// every caller up the call stack to unwind without publishing
// anything and let the top-level Insert/Remove loop retry.
const retiredTag uint8 = 1

type node[K cmp.Ordered, V any] struct {
	smr.Counted
	key   K
	value V
	size  int
	left  smr.ARef[node[K, V]]
	right smr.ARef[node[K, V]]
}

func (n *node[K, V]) RefBase() *smr.Counted { return &n.Counted }

func (n *node[K, V]) DropChildren(cs *smr.Cs) {
	l := n.left.Swap(smr.NullRc[node[K, V]]())
	r := n.right.Swap(smr.NullRc[node[K, V]]())
	l.Release(cs)
	r.Release(cs)
}

func retiredNode[K cmp.Ordered, V any]() smr.Rc[node[K, V]] {
	return smr.NullRc[node[K, V]]().WithTag(retiredTag)
}

func isRetired[K cmp.Ordered, V any](r smr.Rc[node[K, V]]) bool {
	return r.Tag()&retiredTag != 0
}

// isRetiredSpot reports whether r is itself the retired sentinel, or
// (if r is a real node) whether either of its live children currently
// carries the retired tag. The latter can only happen to a value a
// caller is about to feed back into a builder as a freshly-returned
// left/right, since no ARef in a live tree is ever stored with this
// tag — this mirrors the original's is_retired_spot check verbatim
// even though, for a node freshly loaded off the real tree, the
// second half can never fire.
func isRetiredSpot[K cmp.Ordered, V any](r smr.Rc[node[K, V]]) bool {
	if isRetired(r) {
		return true
	}
	if r.IsNull() {
		return false
	}
	nd := r.Addr()
	return nd.left.Load().Tag()&retiredTag != 0 || nd.right.Load().Tag()&retiredTag != 0
}

func nodeSize[K cmp.Ordered, V any](r smr.Rc[node[K, V]]) int {
	if r.IsNull() {
		return 0
	}
	return r.Addr().size
}

// loadChild reads a into an owned Rc: it hazard-protects the pointer
// just long enough to try to bump its strong count, then drops the
// hazard immediately since ownership alone keeps the node alive from
// here on. ok is false if the child was non-null but had already been
// reclaimed by a concurrent rebuild publishing ahead of us — that
// race is reported the same way a detected retired spot is, by
// unwinding the current rebuild attempt.
func loadChild[K cmp.Ordered, V any](a *smr.ARef[node[K, V]], cs *smr.Cs) (smr.Rc[node[K, V]], bool) {
	s := smr.Alloc[node[K, V]](cs)
	defer s.Release()
	s.Load(a)
	if s.AsRef() == nil {
		return smr.NullRc[node[K, V]](), true
	}
	rc := s.Upgrade()
	return rc, !rc.IsNull()
}

// mkNode allocates a fresh node over left/right, taking ownership of
// both. If either is a retired spot it releases them and propagates
// the sentinel instead of building anything.
func mkNode[K cmp.Ordered, V any](left, right smr.Rc[node[K, V]], key K, value V, cs *smr.Cs) smr.Rc[node[K, V]] {
	if isRetiredSpot(left) || isRetiredSpot(right) {
		left.Release(cs)
		right.Release(cs)
		return retiredNode[K, V]()
	}
	n := &node[K, V]{key: key, value: value, size: nodeSize(left) + nodeSize(right) + 1}
	rc := smr.NewRc(n)
	n.left.Store(left)
	n.right.Store(right)
	return rc
}
