package list

import (
	"cmp"

	"github.com/rogpeppe/lockfree/cmap"
	"github.com/rogpeppe/lockfree/smr"
)

// Harris is the optimistic, batched-unlinking ordered list.
type Harris[K cmp.Ordered, V any] struct{ e *engine[K, V] }

// NewHarris returns an empty Harris list.
func NewHarris[K cmp.Ordered, V any]() *Harris[K, V] {
	return &Harris[K, V]{e: newEngine(findHarris[K, V], findHarris[K, V])}
}

func (l *Harris[K, V]) EmptyOutput(cs *smr.Cs) *Output[K, V]    { return l.e.EmptyOutput(cs) }
func (l *Harris[K, V]) Get(k K, o *Output[K, V], cs *smr.Cs) bool { return l.e.Get(k, o, cs) }
func (l *Harris[K, V]) Insert(k K, v V, o *Output[K, V], cs *smr.Cs) bool {
	return l.e.Insert(k, v, o, cs)
}
func (l *Harris[K, V]) Remove(k K, o *Output[K, V], cs *smr.Cs) bool { return l.e.Remove(k, o, cs) }

// HarrisMichael is the single-node-at-a-time unlinking ordered list.
type HarrisMichael[K cmp.Ordered, V any] struct{ e *engine[K, V] }

// NewHarrisMichael returns an empty Harris-Michael list.
func NewHarrisMichael[K cmp.Ordered, V any]() *HarrisMichael[K, V] {
	return &HarrisMichael[K, V]{e: newEngine(findHarrisMichael[K, V], findHarrisMichael[K, V])}
}

func (l *HarrisMichael[K, V]) EmptyOutput(cs *smr.Cs) *Output[K, V] { return l.e.EmptyOutput(cs) }
func (l *HarrisMichael[K, V]) Get(k K, o *Output[K, V], cs *smr.Cs) bool {
	return l.e.Get(k, o, cs)
}
func (l *HarrisMichael[K, V]) Insert(k K, v V, o *Output[K, V], cs *smr.Cs) bool {
	return l.e.Insert(k, v, o, cs)
}
func (l *HarrisMichael[K, V]) Remove(k K, o *Output[K, V], cs *smr.Cs) bool {
	return l.e.Remove(k, o, cs)
}

// HHS is the Harris-Herlihy-Shavit ordered list: Get is wait-free and
// never assists cleanup; Insert and Remove still locate splice points
// with the Harris-Michael traversal.
type HHS[K cmp.Ordered, V any] struct{ e *engine[K, V] }

// NewHHS returns an empty Harris-Herlihy-Shavit list.
func NewHHS[K cmp.Ordered, V any]() *HHS[K, V] {
	return &HHS[K, V]{e: newEngine(findHarrisMichael[K, V], findHHS[K, V])}
}

func (l *HHS[K, V]) EmptyOutput(cs *smr.Cs) *Output[K, V]    { return l.e.EmptyOutput(cs) }
func (l *HHS[K, V]) Get(k K, o *Output[K, V], cs *smr.Cs) bool { return l.e.Get(k, o, cs) }
func (l *HHS[K, V]) Insert(k K, v V, o *Output[K, V], cs *smr.Cs) bool {
	return l.e.Insert(k, v, o, cs)
}
func (l *HHS[K, V]) Remove(k K, o *Output[K, V], cs *smr.Cs) bool { return l.e.Remove(k, o, cs) }

var (
	_ cmap.ConcurrentMap[int, string, *Output[int, string]] = (*Harris[int, string])(nil)
	_ cmap.ConcurrentMap[int, string, *Output[int, string]] = (*HarrisMichael[int, string])(nil)
	_ cmap.ConcurrentMap[int, string, *Output[int, string]] = (*HHS[int, string])(nil)
)
