package nmtree

import (
	"cmp"

	"github.com/rogpeppe/lockfree/smr"
)

// Output is the per-operation seek record: six hazard snapshots and
// three edge directions, named after
// original_source/src/ds_impl/circ_hp/natarajan_mittal_tree.rs's
// SeekRecord. All of ancestor/successor/parent/leaf/curr are
// traversal state; found is what Get and Remove leave Output()
// pointing at.
type Output[K cmp.Ordered, V any] struct {
	ancestor     *smr.Snap[node[K, V]]
	successor    *smr.Snap[node[K, V]]
	successorDir dir
	parent       *smr.Snap[node[K, V]]
	leaf         *smr.Snap[node[K, V]]
	leafDir      dir
	curr         *smr.Snap[node[K, V]]
	currDir      dir
	found        *smr.Snap[node[K, V]]
}

func newOutput[K cmp.Ordered, V any](cs *smr.Cs) *Output[K, V] {
	return &Output[K, V]{
		ancestor:  smr.Alloc[node[K, V]](cs),
		successor: smr.Alloc[node[K, V]](cs),
		parent:    smr.Alloc[node[K, V]](cs),
		leaf:      smr.Alloc[node[K, V]](cs),
		curr:      smr.Alloc[node[K, V]](cs),
		found:     smr.Alloc[node[K, V]](cs),
	}
}

// Output returns the value found by Get or removed by Remove.
func (o *Output[K, V]) Output() V { return o.found.AsRef().value }

// successorAddr returns the ARef that currently stands in for the
// edge from ancestor down the successor direction.
func (o *Output[K, V]) successorAddr() *smr.ARef[node[K, V]] {
	return o.ancestor.AsRef().child(o.successorDir)
}

// leafAddr returns the ARef for the (parent, leaf) edge.
func (o *Output[K, V]) leafAddr() *smr.ARef[node[K, V]] {
	return o.parent.AsRef().child(o.leafDir)
}
