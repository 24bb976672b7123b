package list

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

// findHarrisMichael implements the single-node-at-a-time unlinking
// traversal: every logically deleted node encountered is physically
// spliced out immediately via one prev.next CAS before the walk
// continues, so no anchor state is needed. Shared by the
// Harris-Michael variant (for all three operations) and by
// Harris-Herlihy-Shavit (for Insert and Remove, which still need a
// stable prev to splice against; only its Get uses the faster
// findHHS).
func findHarrisMichael[K cmp.Ordered, V any](head *smr.ARef[node[K, V]], key K, out *Output[K, V], cs *smr.Cs) bool {
	for {
		out.prev.Load(head)
		out.curr.Load(&out.prev.AsRef().next)

		found, retry := harrisMichaelWalk(out, key, cs)
		if retry {
			continue
		}
		return found
	}
}

func harrisMichaelWalk[K cmp.Ordered, V any](out *Output[K, V], key K, cs *smr.Cs) (found, retry bool) {
	for {
		currNode := out.curr.AsRef()
		if currNode == nil {
			return false, false
		}
		out.next.Load(&currNode.next)

		if isMarked(out.next.Tag()) {
			succ := out.next.Upgrade()
			if succ.IsNull() && out.next.AsRef() != nil {
				return false, true
			}
			expected := out.curr.AsPtr()
			old, fail := out.prev.AsRef().next.CompareExchange(expected, succ.WithTag(0))
			if fail != nil {
				fail.Desired.Release(cs)
				return false, true
			}
			old.Release(cs)
			out.curr.Swap(out.next)
			continue
		}

		switch {
		case currNode.key < key:
			out.prev.Swap(out.curr)
			out.curr.Swap(out.next)
		case currNode.key == key:
			return true, false
		default:
			return false, false
		}
	}
}
