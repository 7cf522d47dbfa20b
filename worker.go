// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"runtime"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/fiber/internal/goid"
)

// worker is one cord: a goroutine locked to an OS thread, best-effort
// pinned to one CPU, running the scheduler loop over the shared pools.
type worker struct {
	id   int
	name string
	rt   *Runtime

	// schedPage is this worker's identity on the ready LIFO; dequeueing
	// one's own scheduler page is the shutdown signal.
	schedPage *fiberPage

	// curr is the fiber currently running on this worker, nil when the
	// scheduler itself runs.
	curr *Fiber

	// fibLock is set by a yielding fiber and released here after the
	// switch back completes. The single most load-bearing invariant in the
	// scheduler: the yielder holds the lock until it is truly parked.
	fibLock *Lock

	// yielded is the fiber-to-scheduler half of the context switch.
	yielded chan struct{}

	loop *eventLoop
}

// run is the scheduler loop: drain the ready LIFO, start one queued job on
// a fresh fiber, run one non-blocking event-loop tick, repeat. Idle rounds
// back off so an idle runtime does not pin its CPUs.
func (w *worker) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	setAffinity(w.id)

	r := w.rt
	r.register(goid.Get(), nil, w)
	r.initWG.Done()
	r.log.Debug().Str("worker", w.name).Msg("cord up")

	bo := iox.Backoff{}
	for {
		worked := false

		for {
			p := r.ready.Pop()
			if p == nil {
				break
			}
			page := (*fiberPage)(p)
			if page.id < 0 {
				if page == w.schedPage {
					r.log.Debug().Str("worker", w.name).Msg("cord down")
					r.doneWG.Done()
					return
				}
				// Another cord's poison; put it back for its owner.
				r.ready.Push(p)
				break
			}
			f := r.fiberByID(int64(page.id))
			worked = true
			w.resume(f)
			if f.job == nil {
				r.freeFiber(f)
			}
		}

		if j, ok := r.jobQueue.Dequeue(); ok {
			f := r.allocFiber("worker")
			f.job = j
			worked = true
			w.resume(f)
			if f.job == nil {
				r.freeFiber(f)
			}
		}

		if w.loop.tick() {
			worked = true
		}

		if worked {
			bo.Reset()
		} else {
			bo.Wait()
		}
	}
}

// resume switches to f and blocks until f yields or finishes. A lock the
// fiber yielded with is released here, after the switch back, never by the
// fiber itself.
func (w *worker) resume(f *Fiber) {
	w.curr = f
	f.resume <- w
	<-w.yielded
	w.curr = nil
	if lk := w.fibLock; lk != nil {
		w.fibLock = nil
		lk.Release()
	}
}
