// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"container/heap"
	"time"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/fiber/internal/ring"
)

// eventLoop is the per-worker reactor: a monotonic timer heap plus a
// completion queue fed by detached I/O goroutines. The owning worker runs
// one non-blocking tick per scheduler round; nothing here ever blocks the
// worker thread.
type eventLoop struct {
	lock        Lock // guards timers
	timers      timerHeap
	completions *ring.Queue[func()]
}

func newEventLoop() *eventLoop {
	return &eventLoop{
		completions: ring.New[func()](1024),
	}
}

// post hands a completion to the loop, to run on the owning worker's next
// tick. Backs off while the queue is full.
func (l *eventLoop) post(fn func()) {
	bo := iox.Backoff{}
	for !l.completions.Enqueue(fn) {
		bo.Wait()
	}
}

// addTimer arms tb on this loop.
func (l *eventLoop) addTimer(tb *timerBlock) {
	l.lock.Acquire()
	heap.Push(&l.timers, tb)
	l.lock.Release()
}

// tick drains completions and fires due timers. Reports whether it did any
// work.
func (l *eventLoop) tick() bool {
	worked := false
	for {
		fn, ok := l.completions.Dequeue()
		if !ok {
			break
		}
		fn()
		worked = true
	}

	now := time.Now()
	for {
		l.lock.Acquire()
		if len(l.timers) == 0 || l.timers[0].when.After(now) {
			l.lock.Release()
			break
		}
		tb := l.timers[0]
		tb.repeats--
		last := tb.repeats == 0
		if last {
			heap.Pop(&l.timers)
		} else {
			tb.when = tb.when.Add(tb.period)
			heap.Fix(&l.timers, 0)
		}
		l.lock.Release()

		if last {
			tb.wait.SetResult(0)
		}
		tb.fut.Decrement()
		worked = true
	}
	return worked
}

// timerHeap orders armed timers by deadline.
type timerHeap []*timerBlock

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}

func (h *timerHeap) Push(x any) {
	tb := x.(*timerBlock)
	tb.heapIdx = len(*h)
	*h = append(*h, tb)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	tb := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	tb.heapIdx = -1
	return tb
}
