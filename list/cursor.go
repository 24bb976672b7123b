package list

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

// Output is the per-operation cursor and result holder shared by all
// three list variants: five hazard snapshots named the way
// original_source/src/ds_impl/circ_hp/list.rs's Cursor names them
// (translated to Go field naming) — prev, curr, next, anchor, and
// anchorNext. Get and Remove expose their result through Output();
// Insert and Remove use the other four fields purely as traversal
// state.
//
// A caller performing many operations on the same goroutine allocates
// one Output (via a List's EmptyOutput) and reuses it across calls,
// so steady-state traversal touches no hazard-slot allocator.
type Output[K cmp.Ordered, V any] struct {
	prev       *smr.Snap[node[K, V]]
	curr       *smr.Snap[node[K, V]]
	next       *smr.Snap[node[K, V]]
	anchor     *smr.Snap[node[K, V]]
	anchorNext *smr.Snap[node[K, V]]
}

func newOutput[K cmp.Ordered, V any](cs *smr.Cs) *Output[K, V] {
	return &Output[K, V]{
		prev:       smr.Alloc[node[K, V]](cs),
		curr:       smr.Alloc[node[K, V]](cs),
		next:       smr.Alloc[node[K, V]](cs),
		anchor:     smr.Alloc[node[K, V]](cs),
		anchorNext: smr.Alloc[node[K, V]](cs),
	}
}

// Output returns the value found by Get or removed by Remove.
func (o *Output[K, V]) Output() V { return o.curr.AsRef().value }

func (o *Output[K, V]) resetAnchor() {
	o.anchor.Clear()
	o.anchorNext.Clear()
}
