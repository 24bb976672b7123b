package bonsai

import (
	"cmp"

	"github.com/rogpeppe/lockfree/cmap"
	"github.com/rogpeppe/lockfree/smr"
)

// Tree is a Bonsai weight-balanced BST. The zero Tree (via New) is
// empty; root is published by a single CAS per Insert/Remove once the
// whole replacement path has been rebuilt off to the side.
type Tree[K cmp.Ordered, V any] struct {
	root smr.ARef[node[K, V]]
}

func New[K cmp.Ordered, V any]() *Tree[K, V] { return &Tree[K, V]{} }

// Output holds the value a Get or Remove most recently exposed.
type Output[V any] struct{ value V }

func (o *Output[V]) Output() V { return o.value }

func (t *Tree[K, V]) EmptyOutput(cs *smr.Cs) *Output[V] { return &Output[V]{} }

// builder carries the state one Insert or Remove attempt threads
// through its recursive rebuild: which root version this attempt
// started from (so checkRoot can detect a concurrent commit that
// invalidates the in-progress rebuild) and the Cs every child read
// goes through.
type builder[K cmp.Ordered, V any] struct {
	root   *smr.ARef[node[K, V]]
	atRoot smr.Ptr[node[K, V]]
	cs     *smr.Cs
}

func (b *builder[K, V]) checkRoot() bool {
	return b.root.Load().Addr() == b.atRoot.Addr()
}

// mkBalanced rebuilds cur's position from freshly-built left/right
// subtrees, applying Adams' W=2 rotations if the result would be out
// of balance. cur is only read (its key/value), never consumed —
// callers release it themselves once they are done with it.
func (b *builder[K, V]) mkBalanced(cur, left, right smr.Rc[node[K, V]]) smr.Rc[node[K, V]] {
	if isRetiredSpot(cur) || isRetiredSpot(left) || isRetiredSpot(right) {
		left.Release(b.cs)
		right.Release(b.cs)
		return retiredNode[K, V]()
	}
	curNode := cur.Addr()
	key, value := curNode.key, curNode.value
	lSize, rSize := nodeSize(left), nodeSize(right)

	switch {
	case rSize > 0 && ((lSize > 0 && rSize > weight*lSize) || (lSize == 0 && rSize > weight)):
		return b.mkBalancedLeft(left, right, key, value)
	case lSize > 0 && ((rSize > 0 && lSize > weight*rSize) || (rSize == 0 && lSize > weight)):
		return b.mkBalancedRight(left, right, key, value)
	default:
		return mkNode(left, right, key, value, b.cs)
	}
}

func (b *builder[K, V]) mkBalancedLeft(left, right smr.Rc[node[K, V]], key K, value V) smr.Rc[node[K, V]] {
	rightNode := right.Addr()
	rl, ok := loadChild(&rightNode.left, b.cs)
	if !ok {
		left.Release(b.cs)
		right.Release(b.cs)
		return retiredNode[K, V]()
	}
	rr, ok := loadChild(&rightNode.right, b.cs)
	if !ok {
		left.Release(b.cs)
		right.Release(b.cs)
		rl.Release(b.cs)
		return retiredNode[K, V]()
	}
	if !b.checkRoot() || isRetiredSpot(rl) || isRetiredSpot(rr) {
		left.Release(b.cs)
		right.Release(b.cs)
		rl.Release(b.cs)
		rr.Release(b.cs)
		return retiredNode[K, V]()
	}
	if nodeSize(rl) < nodeSize(rr) {
		return b.singleLeft(left, right, rl, rr, key, value)
	}
	return b.doubleLeft(left, right, rl, rr, key, value)
}

func (b *builder[K, V]) singleLeft(left, right, rl, rr smr.Rc[node[K, V]], key K, value V) smr.Rc[node[K, V]] {
	rightNode := right.Addr()
	rKey, rValue := rightNode.key, rightNode.value
	newLeft := mkNode(left, rl, key, value, b.cs)
	res := mkNode(newLeft, rr, rKey, rValue, b.cs)
	right.Release(b.cs)
	return res
}

func (b *builder[K, V]) doubleLeft(left, right, rl, rr smr.Rc[node[K, V]], key K, value V) smr.Rc[node[K, V]] {
	rlNode := rl.Addr()
	rll, ok := loadChild(&rlNode.left, b.cs)
	if !ok {
		left.Release(b.cs)
		right.Release(b.cs)
		rl.Release(b.cs)
		rr.Release(b.cs)
		return retiredNode[K, V]()
	}
	rlr, ok := loadChild(&rlNode.right, b.cs)
	if !ok {
		left.Release(b.cs)
		right.Release(b.cs)
		rl.Release(b.cs)
		rr.Release(b.cs)
		rll.Release(b.cs)
		return retiredNode[K, V]()
	}
	if !b.checkRoot() || isRetiredSpot(rll) || isRetiredSpot(rlr) {
		left.Release(b.cs)
		right.Release(b.cs)
		rl.Release(b.cs)
		rr.Release(b.cs)
		rll.Release(b.cs)
		rlr.Release(b.cs)
		return retiredNode[K, V]()
	}
	rKey, rValue := right.Addr().key, right.Addr().value
	rlKey, rlValue := rl.Addr().key, rl.Addr().value
	newLeft := mkNode(left, rll, key, value, b.cs)
	newRight := mkNode(rlr, rr, rKey, rValue, b.cs)
	res := mkNode(newLeft, newRight, rlKey, rlValue, b.cs)
	right.Release(b.cs)
	rl.Release(b.cs)
	return res
}

func (b *builder[K, V]) mkBalancedRight(left, right smr.Rc[node[K, V]], key K, value V) smr.Rc[node[K, V]] {
	leftNode := left.Addr()
	ll, ok := loadChild(&leftNode.left, b.cs)
	if !ok {
		left.Release(b.cs)
		right.Release(b.cs)
		return retiredNode[K, V]()
	}
	lr, ok := loadChild(&leftNode.right, b.cs)
	if !ok {
		left.Release(b.cs)
		right.Release(b.cs)
		ll.Release(b.cs)
		return retiredNode[K, V]()
	}
	if !b.checkRoot() || isRetiredSpot(lr) || isRetiredSpot(ll) {
		left.Release(b.cs)
		right.Release(b.cs)
		ll.Release(b.cs)
		lr.Release(b.cs)
		return retiredNode[K, V]()
	}
	if nodeSize(lr) < nodeSize(ll) {
		return b.singleRight(left, right, lr, ll, key, value)
	}
	return b.doubleRight(left, right, lr, ll, key, value)
}

func (b *builder[K, V]) singleRight(left, right, lr, ll smr.Rc[node[K, V]], key K, value V) smr.Rc[node[K, V]] {
	lKey, lValue := left.Addr().key, left.Addr().value
	newRight := mkNode(lr, right, key, value, b.cs)
	res := mkNode(ll, newRight, lKey, lValue, b.cs)
	left.Release(b.cs)
	return res
}

func (b *builder[K, V]) doubleRight(left, right, lr, ll smr.Rc[node[K, V]], key K, value V) smr.Rc[node[K, V]] {
	lrNode := lr.Addr()
	lrl, ok := loadChild(&lrNode.left, b.cs)
	if !ok {
		left.Release(b.cs)
		right.Release(b.cs)
		lr.Release(b.cs)
		ll.Release(b.cs)
		return retiredNode[K, V]()
	}
	lrr, ok := loadChild(&lrNode.right, b.cs)
	if !ok {
		left.Release(b.cs)
		right.Release(b.cs)
		lr.Release(b.cs)
		ll.Release(b.cs)
		lrl.Release(b.cs)
		return retiredNode[K, V]()
	}
	if !b.checkRoot() || isRetiredSpot(lrl) || isRetiredSpot(lrr) {
		left.Release(b.cs)
		right.Release(b.cs)
		lr.Release(b.cs)
		ll.Release(b.cs)
		lrl.Release(b.cs)
		lrr.Release(b.cs)
		return retiredNode[K, V]()
	}
	lKey, lValue := left.Addr().key, left.Addr().value
	lrKey, lrValue := lr.Addr().key, lr.Addr().value
	newLeft := mkNode(ll, lrl, lKey, lValue, b.cs)
	newRight := mkNode(lrr, right, key, value, b.cs)
	res := mkNode(newLeft, newRight, lrKey, lrValue, b.cs)
	left.Release(b.cs)
	lr.Release(b.cs)
	return res
}

// doInsert rebuilds the path from n down to key, returning the new
// subtree root and whether key was freshly inserted. n's ownership is
// always consumed: either released once its key/value have been read
// and a replacement built, or returned unchanged (key already
// present).
func (b *builder[K, V]) doInsert(n smr.Rc[node[K, V]], key K, value V) (smr.Rc[node[K, V]], bool) {
	if isRetiredSpot(n) {
		n.Release(b.cs)
		return retiredNode[K, V](), false
	}
	if n.IsNull() {
		return mkNode(smr.NullRc[node[K, V]](), smr.NullRc[node[K, V]](), key, value, b.cs), true
	}
	nd := n.Addr()
	left, ok := loadChild(&nd.left, b.cs)
	if !ok {
		n.Release(b.cs)
		return retiredNode[K, V](), false
	}
	right, ok := loadChild(&nd.right, b.cs)
	if !ok {
		left.Release(b.cs)
		n.Release(b.cs)
		return retiredNode[K, V](), false
	}
	if !b.checkRoot() || isRetiredSpot(left) || isRetiredSpot(right) {
		left.Release(b.cs)
		right.Release(b.cs)
		n.Release(b.cs)
		return retiredNode[K, V](), false
	}

	switch {
	case nd.key == key:
		left.Release(b.cs)
		right.Release(b.cs)
		return n, false
	case nd.key < key:
		newRight, inserted := b.doInsert(right, key, value)
		res := b.mkBalanced(n, left, newRight)
		n.Release(b.cs)
		return res, inserted
	default:
		newLeft, inserted := b.doInsert(left, key, value)
		res := b.mkBalanced(n, newLeft, right)
		n.Release(b.cs)
		return res, inserted
	}
}

// doRemove mirrors doInsert; at the matched node it splices in the
// inorder predecessor (or successor, if the node has no left child)
// from whichever side is non-empty, storing the removed value through
// found.
func (b *builder[K, V]) doRemove(n smr.Rc[node[K, V]], key K, found *V) (smr.Rc[node[K, V]], bool) {
	if isRetiredSpot(n) {
		n.Release(b.cs)
		return retiredNode[K, V](), false
	}
	if n.IsNull() {
		return smr.NullRc[node[K, V]](), false
	}
	nd := n.Addr()
	left, ok := loadChild(&nd.left, b.cs)
	if !ok {
		n.Release(b.cs)
		return retiredNode[K, V](), false
	}
	right, ok := loadChild(&nd.right, b.cs)
	if !ok {
		left.Release(b.cs)
		n.Release(b.cs)
		return retiredNode[K, V](), false
	}
	if !b.checkRoot() || isRetiredSpot(left) || isRetiredSpot(right) {
		left.Release(b.cs)
		right.Release(b.cs)
		n.Release(b.cs)
		return retiredNode[K, V](), false
	}

	switch {
	case nd.key == key:
		*found = nd.value
		if nd.size == 1 {
			left.Release(b.cs)
			right.Release(b.cs)
			n.Release(b.cs)
			return smr.NullRc[node[K, V]](), true
		}
		if !left.IsNull() {
			newLeft, succ := b.pullRightmost(left)
			res := b.mkBalanced(succ, newLeft, right)
			succ.Release(b.cs)
			n.Release(b.cs)
			return res, true
		}
		newRight, succ := b.pullLeftmost(right)
		res := b.mkBalanced(succ, left, newRight)
		succ.Release(b.cs)
		n.Release(b.cs)
		return res, true
	case nd.key < key:
		newRight, found2 := b.doRemove(right, key, found)
		res := b.mkBalanced(n, left, newRight)
		n.Release(b.cs)
		return res, found2
	default:
		newLeft, found2 := b.doRemove(left, key, found)
		res := b.mkBalanced(n, newLeft, right)
		n.Release(b.cs)
		return res, found2
	}
}

// pullLeftmost descends to n's leftmost node, removing it and
// returning (the rebalanced remainder of n's subtree, a fresh
// single-node copy of the removed leftmost to splice in elsewhere).
func (b *builder[K, V]) pullLeftmost(n smr.Rc[node[K, V]]) (smr.Rc[node[K, V]], smr.Rc[node[K, V]]) {
	if isRetiredSpot(n) {
		n.Release(b.cs)
		return retiredNode[K, V](), retiredNode[K, V]()
	}
	nd := n.Addr()
	left, ok := loadChild(&nd.left, b.cs)
	if !ok {
		n.Release(b.cs)
		return retiredNode[K, V](), retiredNode[K, V]()
	}
	right, ok := loadChild(&nd.right, b.cs)
	if !ok {
		left.Release(b.cs)
		n.Release(b.cs)
		return retiredNode[K, V](), retiredNode[K, V]()
	}
	if !b.checkRoot() || isRetiredSpot(left) || isRetiredSpot(right) {
		left.Release(b.cs)
		right.Release(b.cs)
		n.Release(b.cs)
		return retiredNode[K, V](), retiredNode[K, V]()
	}
	if !left.IsNull() {
		newLeft, succ := b.pullLeftmost(left)
		res := b.mkBalanced(n, newLeft, right)
		n.Release(b.cs)
		return res, succ
	}
	left.Release(b.cs)
	succ := mkNode(smr.NullRc[node[K, V]](), smr.NullRc[node[K, V]](), nd.key, nd.value, b.cs)
	n.Release(b.cs)
	return right, succ
}

func (b *builder[K, V]) pullRightmost(n smr.Rc[node[K, V]]) (smr.Rc[node[K, V]], smr.Rc[node[K, V]]) {
	if isRetiredSpot(n) {
		n.Release(b.cs)
		return retiredNode[K, V](), retiredNode[K, V]()
	}
	nd := n.Addr()
	left, ok := loadChild(&nd.left, b.cs)
	if !ok {
		n.Release(b.cs)
		return retiredNode[K, V](), retiredNode[K, V]()
	}
	right, ok := loadChild(&nd.right, b.cs)
	if !ok {
		left.Release(b.cs)
		n.Release(b.cs)
		return retiredNode[K, V](), retiredNode[K, V]()
	}
	if !b.checkRoot() || isRetiredSpot(left) || isRetiredSpot(right) {
		left.Release(b.cs)
		right.Release(b.cs)
		n.Release(b.cs)
		return retiredNode[K, V](), retiredNode[K, V]()
	}
	if !right.IsNull() {
		newRight, succ := b.pullRightmost(right)
		res := b.mkBalanced(n, left, newRight)
		n.Release(b.cs)
		return res, succ
	}
	right.Release(b.cs)
	succ := mkNode(smr.NullRc[node[K, V]](), smr.NullRc[node[K, V]](), nd.key, nd.value, b.cs)
	n.Release(b.cs)
	return left, succ
}

// Get is a pure hazard-protected traversal: it never rebuilds
// anything, so it can never observe a retired spot and never retries.
func (t *Tree[K, V]) Get(key K, out *Output[V], cs *smr.Cs) bool {
	curr := smr.Alloc[node[K, V]](cs)
	next := smr.Alloc[node[K, V]](cs)
	defer curr.Release()
	defer next.Release()

	curr.Load(&t.root)
	for {
		cn := curr.AsRef()
		if cn == nil {
			return false
		}
		switch {
		case key == cn.key:
			out.value = cn.value
			return true
		case key < cn.key:
			next.Load(&cn.left)
		default:
			next.Load(&cn.right)
		}
		curr.Swap(next)
	}
}

func (t *Tree[K, V]) Insert(key K, value V, out *Output[V], cs *smr.Cs) bool {
	for {
		rootRc, ok := loadChild(&t.root, cs)
		if !ok {
			continue
		}
		b := &builder[K, V]{root: &t.root, atRoot: rootRc.Ptr, cs: cs}
		newRoot, inserted := b.doInsert(rootRc, key, value)
		if isRetired(newRoot) {
			newRoot.Release(cs)
			continue
		}
		old, fail := t.root.CompareExchange(b.atRoot, newRoot)
		if fail != nil {
			fail.Desired.Release(cs)
			continue
		}
		old.Release(cs)
		return inserted
	}
}

func (t *Tree[K, V]) Remove(key K, out *Output[V], cs *smr.Cs) bool {
	for {
		rootRc, ok := loadChild(&t.root, cs)
		if !ok {
			continue
		}
		b := &builder[K, V]{root: &t.root, atRoot: rootRc.Ptr, cs: cs}
		var found V
		newRoot, removed := b.doRemove(rootRc, key, &found)
		if isRetired(newRoot) {
			newRoot.Release(cs)
			continue
		}
		old, fail := t.root.CompareExchange(b.atRoot, newRoot)
		if fail != nil {
			fail.Desired.Release(cs)
			continue
		}
		old.Release(cs)
		if removed {
			out.value = found
		}
		return removed
	}
}

var _ cmap.ConcurrentMap[int, string, *Output[string]] = (*Tree[int, string])(nil)
