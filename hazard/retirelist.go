package hazard

import (
	"unsafe"

	"github.com/rogpeppe/lockfree/ring"
)

// Retired records a node that has lost its last strong reference and
// the closure that reclaims it once no hazard slot protects it. Addr
// is used only as a bookkeeping key compared against hazard slots
// during Drain; Reclaim's own closure is what keeps the node's real
// *T reachable until it actually runs.
type Retired struct {
	Addr    unsafe.Pointer
	Reclaim func()
}

// RetireList is a single-thread-owned queue of Retired records
// awaiting reclamation. Adapted from ring.Buffer[T] (package ring,
// same module): a Cs's retire list is only ever pushed to and drained
// by the thread that owns the Cs, so the ring buffer's plain,
// non-atomic slice indexing is exactly the right tool — no additional
// synchronization is needed on top of what ring.Buffer already does.
type RetireList struct {
	buf ring.Buffer[Retired]
}

// Push appends r to the end of the list.
func (q *RetireList) Push(r Retired) {
	q.buf.PushEnd(r)
}

// Len returns the number of records awaiting reclamation.
func (q *RetireList) Len() int {
	return q.buf.Len()
}

// Drain scans the list once, reclaiming every record no longer
// protected by reg and leaving the rest (in order) for the next call.
func (q *RetireList) Drain(reg *Registry) {
	n := q.buf.Len()
	for i := 0; i < n; i++ {
		r := q.buf.PopStart()
		if reg.Protected(r.Addr) {
			// Still observable by some in-flight reader; requeue and
			// try again on a later retirement.
			q.buf.PushEnd(r)
			continue
		}
		r.Reclaim()
	}
}
