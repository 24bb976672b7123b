// Package nmtree implements the Natarajan-Mittal external binary
// search tree of spec.md §4.3: keys live only at leaves, internal
// nodes route by key ordering, and removal proceeds in two phases
// (flag the edge to the leaf, then physically unlink it and its
// sibling) so that a helper can always finish a removal another
// thread started.
//
// Grounded on
// original_source/src/ds_impl/circ_hp/natarajan_mittal_tree.rs,
// translated from circ's Rc/Snapshot/AtomicRc machinery onto this
// module's smr package, and on the teacher's ctrie.go for the shape
// of a CAS-retry-then-help loop.
package nmtree

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

// mark bits packed into the tag of an ARef[node] edge, matching the
// Marks bitflags of the original: TAG freezes an edge during cleanup,
// FLAG marks the (parent, leaf) edge of an in-progress removal.
const (
	markTag  uint8 = 1
	markFlag uint8 = 2
	markNone uint8 = 0
)

func hasTag(t uint8) bool  { return t&markTag != 0 }
func hasFlag(t uint8) bool { return t&markFlag != 0 }

// nodeKey is spec.md's Key<K> = Fin(k) | Inf: Inf compares greater
// than every finite key and equal only to itself, used by the
// skeleton's three sentinel leaves so seek's ancestor/successor are
// always defined.
type nodeKey[K cmp.Ordered] struct {
	k   K
	inf bool
}

func finite[K cmp.Ordered](k K) nodeKey[K] { return nodeKey[K]{k: k} }
func infKey[K cmp.Ordered]() nodeKey[K]    { return nodeKey[K]{inf: true} }

// cmpKey reports -1/0/1 the way cmp.Compare does, with Inf sorting
// after every finite key.
func cmpKey[K cmp.Ordered](a nodeKey[K], b K) int {
	if a.inf {
		return 1
	}
	switch {
	case a.k < b:
		return -1
	case a.k > b:
		return 1
	default:
		return 0
	}
}

type dir uint8

const (
	left dir = iota
	right
)

type node[K cmp.Ordered, V any] struct {
	smr.Counted
	key      nodeKey[K]
	value    V
	isLeaf   bool
	children [2]smr.ARef[node[K, V]]
}

func (n *node[K, V]) RefBase() *smr.Counted { return &n.Counted }

func (n *node[K, V]) child(d dir) *smr.ARef[node[K, V]] { return &n.children[d] }

func (n *node[K, V]) DropChildren(cs *smr.Cs) {
	l := n.children[left].Swap(smr.NullRc[node[K, V]]())
	r := n.children[right].Swap(smr.NullRc[node[K, V]]())
	l.Release(cs)
	r.Release(cs)
}

func newLeaf[K cmp.Ordered, V any](key nodeKey[K], value V) *node[K, V] {
	return &node[K, V]{key: key, value: value, isLeaf: true}
}

// newInternal builds a routing node over lc/rc (ownership of both Rc
// values transfers in), keyed on the right subtree's minimum per
// spec.md's "node key equals its right subtree's minimum" convention.
func newInternal[K cmp.Ordered, V any](routeKey nodeKey[K], lc, rc smr.Rc[node[K, V]]) *node[K, V] {
	n := &node[K, V]{key: routeKey}
	n.children[left].Store(lc)
	n.children[right].Store(rc)
	return n
}
