package list

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

// findHHS is the wait-free Harris-Herlihy-Shavit lookup: it walks
// forward following next pointers regardless of their mark bit and
// never attempts to unlink anything, so it can never be blocked or
// slowed by a concurrent remove. It only needs curr and next (no
// prev, no anchor state) since it never splices.
func findHHS[K cmp.Ordered, V any](head *smr.ARef[node[K, V]], key K, out *Output[K, V], cs *smr.Cs) bool {
	// head always points at the same never-retired dummy node, so
	// dereferencing it without a Snap is safe.
	out.curr.Load(&head.Load().Addr().next)
	_ = cs
	for {
		currNode := out.curr.AsRef()
		if currNode == nil {
			return false
		}
		out.next.Load(&currNode.next)
		switch {
		case currNode.key < key:
			out.curr.Swap(out.next)
		case currNode.key == key:
			// Ignoring the mark during descent is what makes this
			// wait-free; at the match point the mark is exactly
			// spec.md's "has curr been logically deleted" signal.
			return !isMarked(out.next.Tag())
		default:
			return false
		}
	}
}
