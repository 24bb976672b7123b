// Command bench runs spec.md §8.3 Scenario 1 (the smoke workload: 30
// threads insert disjoint keys, 15 remove their share, the other 15
// get theirs) against any one of this module's five concurrent map
// structures, selected by -structure.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"

	"github.com/rogpeppe/lockfree/bonsai"
	"github.com/rogpeppe/lockfree/cmap"
	"github.com/rogpeppe/lockfree/hashmap"
	"github.com/rogpeppe/lockfree/list"
	"github.com/rogpeppe/lockfree/nmtree"
	"github.com/rogpeppe/lockfree/smr"
)

const (
	threads   = 30
	perThread = 1000
)

// runSmoke drives spec.md §8.3 Scenario 1 against m: 30 goroutines
// each insert their disjoint share of keys k*30+t, then the first 15
// remove their share and the remaining 15 get theirs, checking every
// op returns what the scenario says it must.
func runSmoke[O cmap.Output[string]](m cmap.ConcurrentMap[int, string, O], prog *progress) (bool, time.Duration) {
	start := time.Now()
	var failures int64

	var wg sync.WaitGroup
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			cs := smr.NewCs(nil)
			out := m.EmptyOutput(cs)
			for k := 0; k < perThread; k++ {
				key := k*threads + t
				if !m.Insert(key, fmt.Sprint(key), out, cs) {
					atomic.AddInt64(&failures, 1)
				}
				prog.bump()
			}
		}(t)
	}
	wg.Wait()

	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			cs := smr.NewCs(nil)
			out := m.EmptyOutput(cs)
			for k := 0; k < perThread; k++ {
				key := k*threads + t
				switch {
				case t < threads/2:
					if !m.Remove(key, out, cs) {
						atomic.AddInt64(&failures, 1)
					}
				default:
					if !m.Get(key, out, cs) || out.Output() != fmt.Sprint(key) {
						atomic.AddInt64(&failures, 1)
					}
				}
				prog.bump()
			}
		}(t)
	}
	wg.Wait()

	return atomic.LoadInt64(&failures) == 0, time.Since(start)
}

func main() {
	structure := flag.String("structure", "harris",
		"structure to run: harris, harrismichael, hhs, nmtree, bonsai, hashmap")
	flag.Parse()

	prog := newProgress()
	total := int64(threads*perThread) * 2
	go prog.report(total, *structure)

	var ok bool
	var dur time.Duration
	switch *structure {
	case "harris":
		ok, dur = runSmoke[*list.Output[int, string]](list.NewHarris[int, string](), prog)
	case "harrismichael":
		ok, dur = runSmoke[*list.Output[int, string]](list.NewHarrisMichael[int, string](), prog)
	case "hhs":
		ok, dur = runSmoke[*list.Output[int, string]](list.NewHHS[int, string](), prog)
	case "nmtree":
		ok, dur = runSmoke[*nmtree.Output[int, string]](nmtree.New[int, string](), prog)
	case "bonsai":
		ok, dur = runSmoke[*bonsai.Output[string]](bonsai.New[int, string](), prog)
	case "hashmap":
		ok, dur = runSmoke[*list.Output[int, string]](hashmap.New[int, string](), prog)
	default:
		fmt.Fprintf(os.Stderr, "unknown structure %q\n", *structure)
		os.Exit(2)
	}
	prog.finish()
	<-prog.done

	label := fmt.Sprintf("%s: %d threads x %d ops smoke in %s", *structure, threads, perThread, dur.Round(time.Millisecond))
	if ok {
		color.New(color.FgGreen, color.Bold).Println("PASS  " + label)
		return
	}
	color.New(color.FgRed, color.Bold).Println("FAIL  " + label)
	os.Exit(1)
}
