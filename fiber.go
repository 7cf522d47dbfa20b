// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"runtime"
	"unsafe"

	"code.hybscloud.com/fiber/internal/goid"
	"code.hybscloud.com/fiber/mem"
)

// fiberPage is the off-heap header at the start of every fiber's 64 KiB
// arena slab. The first word doubles as the intrusive LIFO link for the
// ready and free lists, so pages can sit on a lifo.List with no allocation.
// Negative ids mark worker scheduler pages (the shutdown poison).
type fiberPage struct {
	link uintptr // lifo.List node word; must stay first
	id   int32
}

// Fiber is one cooperative task: a preallocated execution context that runs
// jobs to completion, yielding at explicit suspension points. A fiber is
// either running (owned by exactly one worker), ready (on the global ready
// LIFO), blocked (in a wait list), or free (on the free LIFO).
type Fiber struct {
	id     int32
	page   *fiberPage
	rt     *Runtime
	worker *worker
	job    *job
	name   string

	// scratch is invalidated when the current job completes.
	scratch mem.Region

	// resume is the handoff a parked fiber waits on; the resuming worker
	// passes itself through it, so worker is only ever written by the fiber
	// goroutine. A resume racing with a not-yet-parked fiber blocks on the
	// send instead of clobbering state. Closed at shutdown.
	resume chan *worker

	// waitNext links the fiber into a channel wait list. Owned by whichever
	// queue currently holds the fiber; the fiber itself stays owned by the
	// pool.
	waitNext *Fiber
}

// Name returns the fiber's debug name.
func (f *Fiber) Name() string { return f.name }

// run is the trampoline goroutine, parked until a worker resumes the fiber
// with a job installed.
func (f *Fiber) run() {
	r := f.rt
	r.register(goid.Get(), f, nil)
	r.initWG.Done()
	for {
		w, ok := <-f.resume
		if !ok {
			return
		}
		f.worker = w
		j := f.job
		if j == nil {
			panic("fiber: resumed without a job")
		}
		f.scratch.Init(r.alloc)
		ret := j.fn(j.arg)
		j.finish(ret)
		f.scratch.Release()
		f.name = ""
		f.job = nil
		f.worker.yielded <- struct{}{}
	}
}

// park hands control back to the fiber's worker and sleeps until resumed,
// possibly by a different worker. A shutdown while parked abandons the
// fiber mid-job.
func (f *Fiber) park(lk *Lock) {
	w := f.worker
	w.fibLock = lk
	w.yielded <- struct{}{}
	next, ok := <-f.resume
	if !ok {
		runtime.Goexit()
	}
	f.worker = next
}

// Yield suspends the calling fiber and reenters the scheduler.
//
// With lk == nil this is a cooperative reschedule: the fiber goes back onto
// the ready LIFO and runs again later. With a non-nil lk the fiber has put
// itself on a wait list guarded by lk and parks without self-readying; the
// lock stays held across the switch out and is released by the scheduler
// once the switch completes — the one sanctioned way to get off a wait list
// race-free (see [Lock]).
//
// From a non-fiber goroutine, Yield releases lk immediately and defers to
// the Go scheduler.
func Yield(lk *Lock) {
	f := currentFiber()
	if f == nil {
		if lk != nil {
			lk.Release()
		}
		runtime.Gosched()
		return
	}
	if lk == nil {
		Ready(f)
	}
	f.park(lk)
}

// Ready marks a fiber runnable. Every component that wakes fibers (future,
// channel, timer, I/O completion) funnels through exactly this.
func Ready(f *Fiber) {
	f.rt.ready.Push(unsafe.Pointer(f.page))
}

// Current returns the calling fiber, or nil outside fiber context.
func Current() *Fiber {
	return currentFiber()
}

// ScratchAlloc returns size bytes from the calling fiber's scratch region.
// The memory is invalidated when the fiber's current job completes. Returns
// nil outside fiber context.
func ScratchAlloc(size uintptr) unsafe.Pointer {
	f := currentFiber()
	if f == nil {
		return nil
	}
	return f.scratch.Alloc(size)
}

// ScratchBytes is ScratchAlloc exposed as a byte slice.
func ScratchBytes(n int) []byte {
	p := ScratchAlloc(uintptr(n))
	return mem.Bytes(p, uintptr(n))
}
