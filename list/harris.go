package list

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

// findHarris implements the optimistic, batched variant: a run of
// logically deleted nodes is walked over without touching memory,
// and only once the walk reaches a live node (or the end of the
// list) is the whole run unlinked with a single CAS from the anchor
// (the last live node seen before the run started) to curr. anchor
// is set on the first deletion observed since the last live node;
// anchorNext records the first deleted node in the run, which is
// what the commit CAS checks against.
func findHarris[K cmp.Ordered, V any](head *smr.ARef[node[K, V]], key K, out *Output[K, V], cs *smr.Cs) bool {
	for {
		out.resetAnchor()
		out.prev.Load(head)
		out.curr.Load(&out.prev.AsRef().next)

		found, retry := harrisWalk(out, key, cs)
		if retry {
			continue
		}
		return found
	}
}

func harrisWalk[K cmp.Ordered, V any](out *Output[K, V], key K, cs *smr.Cs) (found, retry bool) {
	for {
		currNode := out.curr.AsRef()
		if currNode == nil {
			return commitHarris(out, cs, false)
		}
		out.next.Load(&currNode.next)

		if isMarked(out.next.Tag()) {
			// Latch the run's start exactly once: anchor is the last
			// live node before the run, anchorNext the first deleted
			// node in it (what anchor.next must still equal for the
			// eventual commit CAS to succeed). Later marked nodes in
			// the same run leave both alone.
			if out.anchor.AsRef() == nil {
				out.anchor.Swap(out.prev)
				out.anchorNext.Swap(out.curr)
			}
			out.prev.Swap(out.curr)
			out.curr.Swap(out.next)
			continue
		}

		switch {
		case currNode.key < key:
			out.resetAnchor()
			out.prev.Swap(out.curr)
			out.curr.Swap(out.next)
		case currNode.key == key:
			return commitHarris(out, cs, true)
		default:
			return commitHarris(out, cs, false)
		}
	}
}

// commitHarris, once the walk has settled on a result, unlinks any
// pending run of deleted nodes recorded in anchor/anchorNext with a
// single CAS. Releasing the old chain's head lets the rest of the
// run's ownership cascade away via node.DropChildren (see
// smr.Dropper) instead of this function walking it node by node.
func commitHarris[K cmp.Ordered, V any](out *Output[K, V], cs *smr.Cs, found bool) (bool, bool) {
	anchorNode := out.anchor.AsRef()
	if anchorNode == nil {
		return found, false
	}

	expected := out.anchorNext.AsPtr()

	target := out.curr.Upgrade()
	if target.IsNull() && out.curr.AsRef() != nil {
		return false, true
	}

	old, fail := anchorNode.next.CompareExchange(expected, target.WithTag(0))
	if fail != nil {
		fail.Desired.Release(cs)
		return false, true
	}
	old.Release(cs)
	// prev must track curr's true immediate predecessor for Insert and
	// Remove's own CASes; after a commit that predecessor is anchor,
	// not whatever prev last held while walking the deleted run.
	out.prev.Swap(out.anchor)
	return found, false
}
