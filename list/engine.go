package list

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

// finder walks the list looking for key, leaving out.prev/curr/next
// (and, for Harris, out.anchor/anchorNext) positioned per spec.md
// §4.2 and reports whether key was found at curr.
type finder[K cmp.Ordered, V any] func(head *smr.ARef[node[K, V]], key K, out *Output[K, V], cs *smr.Cs) bool

// engine holds the dummy head node and the two traversal strategies a
// variant needs: locate (used by Insert and Remove, which must end up
// with prev/curr straddling the splice point) and lookup (used by
// Get, which for Harris-Herlihy-Shavit is a cheaper wait-free path
// that never assists cleanup). Harris and Harris-Michael use the same
// function for both.
type engine[K cmp.Ordered, V any] struct {
	head   smr.ARef[node[K, V]]
	locate finder[K, V]
	lookup finder[K, V]
}

func newEngine[K cmp.Ordered, V any](locate, lookup finder[K, V]) *engine[K, V] {
	e := &engine[K, V]{locate: locate, lookup: lookup}
	dummy := newNode[K, V](z[K](), z[V](), smr.NullRc[node[K, V]]())
	e.head.Store(smr.NewRc(dummy))
	return e
}

func z[T any]() T {
	var v T
	return v
}

func (e *engine[K, V]) EmptyOutput(cs *smr.Cs) *Output[K, V] {
	return newOutput[K, V](cs)
}

func (e *engine[K, V]) Get(key K, out *Output[K, V], cs *smr.Cs) bool {
	return e.lookup(&e.head, key, out, cs)
}

// Insert retries until it either publishes a new node just before the
// position located for key, or finds key already present.
func (e *engine[K, V]) Insert(key K, value V, out *Output[K, V], cs *smr.Cs) bool {
	for {
		if e.locate(&e.head, key, out, cs) {
			return false
		}
		succ := out.curr.Upgrade()
		if out.curr.AsRef() != nil && succ.IsNull() {
			// curr was concurrently retired; the position we found is
			// stale.
			continue
		}
		expected := out.curr.AsPtr()
		newRc := smr.NewRc(newNode(key, value, succ))
		_, fail := out.prev.AsRef().next.CompareExchange(expected, newRc)
		if fail != nil {
			fail.Desired.Release(cs)
			continue
		}
		return true
	}
}

// Remove retries until it either logically then physically deletes
// key's node, or finds key absent.
func (e *engine[K, V]) Remove(key K, out *Output[K, V], cs *smr.Cs) bool {
	for {
		if !e.locate(&e.head, key, out, cs) {
			return false
		}
		next := out.next.AsPtr()
		if _, fail := out.curr.AsRef().next.CompareExchangeTag(next, markBit); fail != nil {
			// Someone else marked (or unlinked) curr first; restart.
			continue
		}
		// Best-effort physical unlink: ignore failure, the next
		// traversal through this region will finish the job.
		expected := out.curr.AsPtr()
		succ := out.next.Upgrade()
		if old, fail := out.prev.AsRef().next.CompareExchange(expected, succ); fail == nil {
			old.Release(cs)
		} else {
			fail.Desired.Release(cs)
		}
		return true
	}
}
