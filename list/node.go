// Package list implements the three singly-linked ordered-list
// variants of spec.md §4.2: Harris (optimistic, batched chain
// unlinking), Harris-Michael (single-node unlinking per traversal),
// and Harris-Herlihy-Shavit (wait-free lookup, never assists
// cleanup). All three share the same node shape and the same dummy
// head convention; they differ only in how find walks past and
// unlinks logically deleted nodes.
//
// Node and cursor shapes are grounded on the teacher's
// (github.com/rogpeppe/generic) ctrie.go sNode/iNode split, collapsed
// to the single {key, value, next} node spec.md §3.1 specifies, and
// on original_source/src/ds_impl/circ_hp/list.rs's Cursor field
// names.
package list

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

// markBit is the single tag bit used by every list variant: bit 0 of
// a node's outgoing next pointer is the logical-deletion mark.
const markBit = 1

type node[K cmp.Ordered, V any] struct {
	smr.Counted
	key   K
	value V
	next  smr.ARef[node[K, V]]
}

func (n *node[K, V]) RefBase() *smr.Counted { return &n.Counted }

// DropChildren releases n's outgoing edge once n itself has been
// reclaimed, letting the release of one end of an unlinked run of
// deleted nodes cascade through the rest of the run (see
// smr.Dropper) instead of every find variant walking and releasing
// each node by hand.
func (n *node[K, V]) DropChildren(cs *smr.Cs) {
	succ := n.next.Swap(smr.NullRc[node[K, V]]())
	succ.Release(cs)
}

// newNode allocates a node whose outgoing edge is published with the
// given next reference and no mark. Per spec.md §3.4, the link is
// considered "created" here but not yet reachable from the
// structure — the publishing CAS happens in the caller.
func newNode[K cmp.Ordered, V any](key K, value V, next smr.Rc[node[K, V]]) *node[K, V] {
	n := &node[K, V]{key: key, value: value}
	n.next.Store(next)
	return n
}

func isMarked(tag uint8) bool { return tag&markBit != 0 }
