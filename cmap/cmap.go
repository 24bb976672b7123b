// Package cmap defines the map interface every structure in this
// module implements, distilled from
// original_source/src/ds_impl/hp_brcu/concurrent_map.rs's
// ConcurrentMap trait.
package cmap

import "github.com/rogpeppe/lockfree/smr"

// Output is implemented by a structure's per-operation holder: after
// a successful Get or Remove, Output exposes a borrow of the value
// valid while the holder is held and the Cs that produced it is live.
type Output[V any] interface {
	Output() V
}

// ConcurrentMap is the uniform get/insert/remove interface every
// structure in this module implements. O is the structure's own
// reusable output holder type (Go has no associated types, so it is
// named explicitly rather than as a trait-associated type the way
// the Rust original expresses it).
type ConcurrentMap[K any, V any, O Output[V]] interface {
	// EmptyOutput returns a new, empty output holder bound to cs. It
	// owns the hazard snapshots the structure's operations need, so
	// allocating it is the only allocation a caller performing many
	// operations on the same thread needs to do.
	EmptyOutput(cs *smr.Cs) O

	// Get reports whether key is present. On true, out.Output()
	// exposes the associated value.
	Get(key K, out O, cs *smr.Cs) bool

	// Insert reports whether key was newly inserted (false if it was
	// already present, in which case the map is unchanged).
	Insert(key K, value V, out O, cs *smr.Cs) bool

	// Remove reports whether key was present. On true, out.Output()
	// exposes the removed value and the key is no longer present.
	Remove(key K, out O, cs *smr.Cs) bool
}
