package bonsai

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	qt "github.com/frankban/quicktest"

	"github.com/rogpeppe/lockfree/smr"
)

func TestInsertGetRemove(t *testing.T) {
	c := qt.New(t)
	tr := New[int, string]()
	cs := smr.NewCs(nil)
	out := tr.EmptyOutput(cs)

	keys := []int{50, 10, 90, 30, 70, 20, 80, 40, 60, 0}
	for _, k := range keys {
		c.Assert(tr.Insert(k, "v", out, cs), qt.IsTrue)
		c.Assert(tr.Insert(k, "v2", out, cs), qt.IsFalse)
	}
	for _, k := range keys {
		c.Assert(tr.Get(k, out, cs), qt.IsTrue)
	}
	for i, k := range keys {
		if i%2 == 0 {
			c.Assert(tr.Remove(k, out, cs), qt.IsTrue)
			c.Assert(tr.Remove(k, out, cs), qt.IsFalse)
		}
	}
	var gotSurvivors, wantSurvivors []int
	for i, k := range keys {
		if tr.Get(k, out, cs) {
			gotSurvivors = append(gotSurvivors, k)
		}
		if i%2 != 0 {
			wantSurvivors = append(wantSurvivors, k)
		}
	}
	if diff := cmp.Diff(wantSurvivors, gotSurvivors, cmpopts.SortSlices(func(a, b int) bool { return a < b })); diff != "" {
		t.Errorf("surviving keys mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveExposesValue(t *testing.T) {
	c := qt.New(t)
	tr := New[int, string]()
	cs := smr.NewCs(nil)
	out := tr.EmptyOutput(cs)

	c.Assert(tr.Insert(1, "hello", out, cs), qt.IsTrue)
	c.Assert(tr.Remove(1, out, cs), qt.IsTrue)
	c.Assert(out.Output(), qt.Equals, "hello")
}

// TestConcurrentInsertRemove exercises the root-CAS retry loop under
// contention: many goroutines race to rebuild and publish the same
// tree, so most attempts must lose the race at least once and retry.
func TestConcurrentInsertRemove(t *testing.T) {
	c := qt.New(t)
	tr := New[int, string]()

	const goroutines = 8
	const perG = 300
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			cs := smr.NewCs(nil)
			out := tr.EmptyOutput(cs)
			r := rand.New(rand.NewSource(int64(g)))
			base := g * perG
			order := r.Perm(perG)
			for _, i := range order {
				tr.Insert(base+i, "x", out, cs)
			}
			for _, i := range order {
				if i%2 == 0 {
					tr.Remove(base+i, out, cs)
				}
			}
		}(g)
	}
	wg.Wait()

	cs := smr.NewCs(nil)
	out := tr.EmptyOutput(cs)
	for g := 0; g < goroutines; g++ {
		for i := 0; i < perG; i++ {
			want := i%2 != 0
			c.Assert(tr.Get(g*perG+i, out, cs), qt.Equals, want)
		}
	}
}

// checkBalance walks the whole tree and fails if any node is
// unbalanced enough that mkBalanced's own rotation thresholds would
// have fired on it — i.e. it asserts the postcondition every
// mkBalanced call is supposed to establish.
func checkBalance(c *qt.C, n *node[int, string]) int {
	if n == nil {
		return 0
	}
	lSize := checkBalance(c, n.left.Load().Addr())
	rSize := checkBalance(c, n.right.Load().Addr())

	leftHeavy := lSize > 0 && ((rSize > 0 && lSize > weight*rSize) || (rSize == 0 && lSize > weight))
	rightHeavy := rSize > 0 && ((lSize > 0 && rSize > weight*lSize) || (lSize == 0 && rSize > weight))
	c.Assert(leftHeavy, qt.IsFalse, qt.Commentf("key %v left-heavy: l=%d r=%d", n.key, lSize, rSize))
	c.Assert(rightHeavy, qt.IsFalse, qt.Commentf("key %v right-heavy: l=%d r=%d", n.key, lSize, rSize))
	c.Assert(n.size, qt.Equals, lSize+rSize+1)
	return n.size
}

// TestBalanceUnderLoad drives 8 threads inserting 1..10000 in random
// per-thread order, then checks every internal node still satisfies
// the W=2 weight-balance invariant and every key is reachable — the
// property mkBalanced's rotations exist to maintain under contention.
func TestBalanceUnderLoad(t *testing.T) {
	c := qt.New(t)
	tr := New[int, string]()

	const n = 10000
	const goroutines = 8
	perG := n / goroutines

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			cs := smr.NewCs(nil)
			out := tr.EmptyOutput(cs)
			r := rand.New(rand.NewSource(int64(g) + 1))
			order := r.Perm(perG)
			for _, i := range order {
				tr.Insert(g*perG+i+1, "x", out, cs)
			}
		}(g)
	}
	wg.Wait()

	cs := smr.NewCs(nil)
	out := tr.EmptyOutput(cs)
	for k := 1; k <= goroutines*perG; k++ {
		c.Assert(tr.Get(k, out, cs), qt.IsTrue, qt.Commentf("key %d", k))
	}

	checkBalance(c, tr.root.Load().Addr())
}
