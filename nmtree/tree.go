package nmtree

import (
	"cmp"

	"github.com/rogpeppe/lockfree/cmap"
	"github.com/rogpeppe/lockfree/smr"
)

func zero[T any]() T { var v T; return v }

func other(d dir) dir {
	if d == left {
		return right
	}
	return left
}

// Tree is a Natarajan-Mittal external BST: keys live only at leaves,
// and the root is seeded with the three-leaf, two-internal-node
// skeleton of infinite-key sentinels so seek's ancestor/successor are
// always well-defined even on an empty tree.
type Tree[K cmp.Ordered, V any] struct {
	root smr.ARef[node[K, V]]
}

// New returns an empty tree.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	inf0 := smr.NewRc(newLeaf[K, V](infKey[K](), zero[V]()))
	inf1 := smr.NewRc(newLeaf[K, V](infKey[K](), zero[V]()))
	inf2 := smr.NewRc(newLeaf[K, V](infKey[K](), zero[V]()))
	s := smr.NewRc(newInternal[K, V](infKey[K](), inf0, inf1))
	r := smr.NewRc(newInternal[K, V](infKey[K](), s, inf2))
	t := &Tree[K, V]{}
	t.root.Store(r)
	return t
}

func (t *Tree[K, V]) EmptyOutput(cs *smr.Cs) *Output[K, V] { return newOutput[K, V](cs) }

// seek walks from the root keeping ancestor as the deepest node whose
// outgoing edge toward the walk is untagged, successor as where a
// tagged run (if any) began below it, and parent/leaf/curr as the
// last three nodes visited. leaf is always left tag-clean: its tag is
// purely an addressing artifact used for key comparisons, never
// mistaken for the edge's real mark state (that's tracked separately
// via the per-iteration curr tag captured in prevTag).
func seek[K cmp.Ordered, V any](root *smr.ARef[node[K, V]], key K, out *Output[K, V], cs *smr.Cs) {
	out.ancestor.Load(root)
	out.parent.Load(out.ancestor.AsRef().child(left))
	out.successor.Clear()
	out.leaf.Load(out.parent.AsRef().child(left))
	out.leaf.SetTag(markNone)
	out.successorDir = left
	out.leafDir = left

	prevTag := hasTag(out.leaf.Tag())
	out.currDir = left
	out.curr.Load(out.leaf.AsRef().child(left))

	for out.curr.AsRef() != nil {
		currNode := out.curr.AsRef()
		if !prevTag {
			out.ancestor.Swap(out.parent)
			out.successor.Clear()
			out.successorDir = out.leafDir
		}
		currTag := out.curr.Tag()

		out.parent.Swap(out.leaf)
		out.leaf.Swap(out.curr)
		out.leafDir, out.currDir = out.currDir, out.leafDir
		out.leaf.SetTag(markNone)

		prevTag = hasTag(currTag)
		if cmpKey(currNode.key, key) > 0 {
			out.currDir = left
			out.curr.Load(currNode.child(left))
		} else {
			out.currDir = right
			out.curr.Load(currNode.child(right))
		}
	}
}

// seekLeaf is the cheaper two-pointer walk Get uses: it never needs
// ancestor/successor because it never calls cleanup.
func seekLeaf[K cmp.Ordered, V any](root *smr.ARef[node[K, V]], key K, out *Output[K, V], cs *smr.Cs) {
	out.ancestor.Load(root)
	out.parent.Load(out.ancestor.AsRef().child(left))
	out.leaf.Load(out.parent.AsRef().child(left))
	out.curr.Load(out.leaf.AsRef().child(left))
	out.curr.SetTag(markNone)

	for out.curr.AsRef() != nil {
		currNode := out.curr.AsRef()
		out.leaf.Swap(out.curr)
		if cmpKey(currNode.key, key) > 0 {
			out.curr.Load(currNode.child(left))
		} else {
			out.curr.Load(currNode.child(right))
		}
		out.curr.SetTag(markNone)
	}
}

func (t *Tree[K, V]) Get(key K, out *Output[K, V], cs *smr.Cs) bool {
	seekLeaf(&t.root, key, out, cs)
	out.leaf.Swap(out.found)
	return cmpKey(out.found.AsRef().key, key) == 0
}

// cleanup physically removes a flagged (parent, leaf) edge: it tags
// the sibling edge to freeze both of parent's outgoing edges, then
// CASes ancestor's edge from the run's start to the sibling,
// propagating the sibling's own flag so a nested removal directly
// above it is not lost.
func cleanup[K cmp.Ordered, V any](out *Output[K, V], cs *smr.Cs) bool {
	leafMarked := out.leafAddr().Load()
	siblingDir := out.leafDir
	if hasFlag(leafMarked.Tag()) {
		siblingDir = other(out.leafDir)
	}
	siblingAddr := out.parent.AsRef().child(siblingDir)

	for {
		out.curr.Load(siblingAddr)
		want := out.curr.Tag() | markTag
		if _, fail := siblingAddr.CompareExchangeTag(out.curr.AsPtr(), want); fail == nil {
			out.curr.SetTag(want)
			break
		}
	}

	expected := out.parent.AsPtr()
	if out.successor.AsRef() != nil {
		expected = out.successor.AsPtr()
	}
	newTag := markNone
	if hasFlag(out.curr.Tag()) {
		newTag = markFlag
	}
	sibling := out.curr.Upgrade()
	if sibling.IsNull() && out.curr.AsRef() != nil {
		return false
	}
	old, fail := out.successorAddr().CompareExchange(expected, sibling.WithTag(newTag))
	if fail != nil {
		fail.Desired.Release(cs)
		return false
	}
	old.Release(cs)
	return true
}

func (t *Tree[K, V]) Insert(key K, value V, out *Output[K, V], cs *smr.Cs) bool {
	newLeafRc := smr.NewRc(newLeaf[K, V](finite(key), value))
	newInternalRc := smr.NewRc(&node[K, V]{key: infKey[K]()})

	for {
		seek(&t.root, key, out, cs)
		leafNode := out.leaf.AsRef()

		if cmpKey(leafNode.key, key) == 0 {
			newLeafRc.Release(cs)
			newInternalRc.Release(cs)
			return false
		}

		oldLeafRc := out.leaf.Upgrade()
		if oldLeafRc.IsNull() {
			continue
		}

		newInternalNode := newInternalRc.Addr()
		var oldLeafDir dir
		if cmpKey(leafNode.key, key) > 0 {
			newInternalNode.key = leafNode.key
			newInternalNode.children[left].Store(newLeafRc)
			newInternalNode.children[right].Store(oldLeafRc)
			oldLeafDir = right
		} else {
			newInternalNode.key = finite(key)
			newInternalNode.children[left].Store(oldLeafRc)
			newInternalNode.children[right].Store(newLeafRc)
			oldLeafDir = left
		}

		expected := out.leaf.AsPtr()
		old, fail := out.leafAddr().CompareExchange(expected, newInternalRc)
		if fail == nil {
			// The edge's old ownership of leaf is now redundant: leaf
			// stays reachable only via the new internal node's child
			// slot we just published.
			old.Release(cs)
			return true
		}

		if fail.Current.Addr() == expected.Addr() {
			cleanup(out, cs)
		}
		newInternalRc = fail.Desired
		recoveredDir := other(oldLeafDir)
		newLeafRc = newInternalRc.Addr().children[recoveredDir].Swap(smr.NullRc[node[K, V]]())
	}
}

func (t *Tree[K, V]) Remove(key K, out *Output[K, V], cs *smr.Cs) bool {
	var target *node[K, V]
	for {
		seek(&t.root, key, out, cs)
		leafNode := out.leaf.AsRef()
		if cmpKey(leafNode.key, key) != 0 {
			return false
		}

		expected := out.leaf.AsPtr()
		if _, fail := out.leafAddr().CompareExchangeTag(expected, markFlag); fail == nil {
			if cleanup(out, cs) {
				out.leaf.Swap(out.found)
				return true
			}
			target = leafNode
			out.leaf.Swap(out.found)
			break
		} else if fail.Current.Addr() == expected.Addr() {
			cleanup(out, cs)
		}
	}

	for {
		seek(&t.root, key, out, cs)
		if out.leaf.AsRef() != target {
			return true
		}
		if cleanup(out, cs) {
			return true
		}
	}
}

var _ cmap.ConcurrentMap[int, string, *Output[int, string]] = (*Tree[int, string])(nil)
