// Package smr implements the safe memory reclamation substrate shared
// by every concurrent data structure in this module: an atomic
// counted reference (ARef), a hazard-protected snapshot (Snap), and a
// per-thread reclamation domain (Cs).
//
// The scheme is hybrid reference counting plus hazard protection, the
// shape described in original_source/src/ds_impl/hp_brcu and modeled
// here after the teacher's (github.com/rogpeppe/generic) GCAS/RDCSS
// machinery in ctrie.go, generalized from "one root pointer" to "any
// ARef field". Refcounting controls ownership and when a node becomes
// eligible for reclamation; hazard slots control whether a concurrent
// reader may still be dereferencing it. The two are independent and
// are never conflated: a node can have a positive strong count and
// still be unprotected, and (briefly) a zero strong count while still
// hazard-protected — in the latter case reclamation is deferred until
// the protecting hazard clears.
package smr

// Refable is implemented by every node type stored behind an ARef.
// Embed Counted by value and implement RefBase by returning its
// address; every node type in /list, /nmtree, and /bonsai does this.
type Refable interface {
	RefBase() *Counted
}

// Counted is the embeddable strong-reference count every SMR-managed
// node carries.
type Counted struct {
	strong int64
}

// Ptr is a pointer-plus-tag value, the common shape shared by Rc (an
// owning strong reference) and the result of Snap.AsPtr (a protected,
// non-owning view). It carries no ownership semantics of its own.
type Ptr[T Refable] struct {
	addr *T
	tag  uint8
}

// NullPtr returns the null pointer with tag 0.
func NullPtr[T Refable]() Ptr[T] { return Ptr[T]{} }

// IsNull reports whether p is the null pointer.
func (p Ptr[T]) IsNull() bool { return p.addr == nil }

// Tag returns p's tag bits.
func (p Ptr[T]) Tag() uint8 { return p.tag }

// WithTag returns a copy of p with its tag replaced.
func (p Ptr[T]) WithTag(tag uint8) Ptr[T] { return Ptr[T]{addr: p.addr, tag: tag} }

// Addr returns the raw node pointer, ignoring the tag. It exists for
// identity comparisons (e.g. "is this the same node I saw earlier");
// dereferencing the result without first protecting it through a Snap
// is a programmer error that spec.md explicitly calls out as fatal
// (see Cs doc comment).
func (p Ptr[T]) Addr() *T { return p.addr }

func z[V any]() V {
	var v V
	return v
}
