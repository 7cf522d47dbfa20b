// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"sync"
	"testing"
)

func TestRingBasic(t *testing.T) {
	q := New[int](3)
	if q.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", q.Cap())
	}
	for i := range 4 {
		if !q.Enqueue(i + 100) {
			t.Fatalf("Enqueue(%d) failed", i)
		}
	}
	if q.Enqueue(999) {
		t.Fatal("Enqueue on full queue succeeded")
	}
	for i := range 4 {
		v, ok := q.Dequeue()
		if !ok {
			t.Fatalf("Dequeue %d failed", i)
		}
		if v != i+100 {
			t.Fatalf("Dequeue %d: got %d, want %d", i, v, i+100)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("Dequeue on empty queue succeeded")
	}
}

func TestRingWrap(t *testing.T) {
	q := New[int](2)
	for i := range 1000 {
		if !q.Enqueue(i) {
			t.Fatalf("Enqueue %d failed", i)
		}
		v, ok := q.Dequeue()
		if !ok || v != i {
			t.Fatalf("Dequeue %d: got (%d, %v)", i, v, ok)
		}
	}
}

// Saturation: producers × consumers over a small ring; every item must come
// out exactly once, in per-producer FIFO order.
func TestRingSaturation(t *testing.T) {
	const (
		producers = 8
		consumers = 4
	)
	perProducer := 100000
	if testing.Short() {
		perProducer = 10000
	}
	q := New[[2]int](1024)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := range perProducer {
				for !q.Enqueue([2]int{p, i}) {
				}
			}
		}(p)
	}

	var mu sync.Mutex
	counts := make([]int, producers)
	lastSeen := make([][]int, consumers)
	for c := range lastSeen {
		lastSeen[c] = make([]int, producers)
		for p := range lastSeen[c] {
			lastSeen[c][p] = -1
		}
	}

	var cwg sync.WaitGroup
	done := make(chan struct{})
	for c := range consumers {
		cwg.Add(1)
		go func(c int) {
			defer cwg.Done()
			for {
				v, ok := q.Dequeue()
				if !ok {
					select {
					case <-done:
						if v, ok = q.Dequeue(); !ok {
							return
						}
					default:
						continue
					}
				}
				p, i := v[0], v[1]
				if i <= lastSeen[c][p] {
					t.Errorf("consumer %d: producer %d went backwards (%d after %d)",
						c, p, i, lastSeen[c][p])
					return
				}
				lastSeen[c][p] = i
				mu.Lock()
				counts[p]++
				mu.Unlock()
			}
		}(c)
	}

	wg.Wait()
	close(done)
	cwg.Wait()

	total := 0
	for p, n := range counts {
		total += n
		if n != perProducer {
			t.Fatalf("producer %d: consumed %d, want %d", p, n, perProducer)
		}
	}
	if total != producers*perProducer {
		t.Fatalf("total consumed %d, want %d", total, producers*perProducer)
	}
}
