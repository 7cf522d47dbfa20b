// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"time"

	"code.hybscloud.com/fiber/mem"
)

// timerBlock is a pooled timer control block; it is also the waitable of
// the future it feeds, so freeing the future returns the block to the pool.
type timerBlock struct {
	node    mem.PoolNode
	wait    Waitable
	fut     *Future
	when    time.Time
	period  time.Duration
	repeats int64
	heapIdx int
}

// timerContext is the process-wide timer pool.
type timerContext struct {
	lock Lock
	pool *mem.Pool[timerBlock]
}

func (t *timerContext) init() {
	t.pool = mem.NewPool[timerBlock](256)
}

func (t *timerContext) alloc() *timerBlock {
	t.lock.Acquire()
	tb := t.pool.Alloc()
	t.lock.Release()
	return tb
}

func (t *timerContext) free(tb *timerBlock) {
	t.lock.Acquire()
	t.pool.Free(tb)
	t.lock.Release()
}

// StartTimer arms a countdown on the calling worker's event loop and
// returns its future, initialized to repeats. Every period elapsed
// decrements the future once; the final tick also publishes result 0 and
// disarms the timer, so the usual shape is
//
//	fiber.Await(fiber.StartTimer(10*time.Millisecond, 3)) // sleeps >= 30ms
//
// repeats must be positive; zero repeats (and a stopped runtime) return nil.
func StartTimer(period time.Duration, repeats int64) *Future {
	r := globalRuntime()
	if r == nil || repeats <= 0 {
		return nil
	}
	tb := r.timers.alloc()
	tb.period = period
	tb.repeats = repeats
	tb.when = time.Now().Add(period)
	tb.wait.Instance = tb
	tb.wait.Dtor = func(instance any) {
		r.timers.free(instance.(*timerBlock))
	}
	tb.fut = NewFuture(repeats, &tb.wait)
	r.currentLoop().addTimer(tb)
	return tb.fut
}

// Sleep parks the calling fiber for at least d.
func Sleep(d time.Duration) {
	if fut := StartTimer(d, 1); fut != nil {
		fut.WaitAndFree(0)
	}
}
