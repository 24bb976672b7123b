package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rogpeppe/lockfree/watcher"
)

// progress tracks completed operations across every worker goroutine
// and lets a separate reporter goroutine watch it for updates. It
// adapts the teacher's watcher.Value Set/Watch broadcast pattern
// (watcher/value.go) from "a single changing value" onto "a
// monotonically increasing op counter", batching updates so the
// broadcast itself never becomes the bottleneck.
type progress struct {
	count int64
	value *watcher.Value[int64]
	done  chan struct{}
}

func newProgress() *progress {
	return &progress{value: watcher.NewValue[int64](0), done: make(chan struct{})}
}

// bump records one completed op, publishing the running total every
// 250 ops so watchers aren't woken on every single increment.
func (p *progress) bump() {
	n := atomic.AddInt64(&p.count, 1)
	if n%250 == 0 {
		p.value.Set(n)
	}
}

// finish publishes the final count and closes the value, unblocking
// the reporter's Next loop.
func (p *progress) finish() {
	p.value.Set(atomic.LoadInt64(&p.count))
	p.value.Close()
}

// report prints a line each time the published count changes, until
// finish closes the value.
func (p *progress) report(total int64, label string) {
	defer close(p.done)
	w := p.value.Watch()
	start := time.Now()
	for w.Next() {
		fmt.Printf("\r%s: %8d/%-8d (%s)", label, w.Value(), total, time.Since(start).Round(time.Millisecond))
	}
	fmt.Println()
}
