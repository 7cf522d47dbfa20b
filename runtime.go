// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"

	"code.hybscloud.com/fiber/internal/goid"
	"code.hybscloud.com/fiber/internal/ring"
	"code.hybscloud.com/fiber/lifo"
	"code.hybscloud.com/fiber/mem"
)

// Runtime is the process-wide context: the job queue, the ready and free
// LIFOs, the fiber pool, the workers, and the shared control-block pools.
// Exactly one runtime exists between Init and Shutdown.
type Runtime struct {
	opts Options
	log  zerolog.Logger

	arena *mem.Arena
	alloc *mem.BuddyCache

	jobQueue *ring.Queue[*job]
	ready    lifo.List
	freeList lifo.List

	fibers  []*Fiber
	workers []*worker

	timers timerContext
	aio    aioContext

	regMu       sync.Mutex
	fiberByGID  map[int64]*Fiber
	workerByGID map[int64]*worker

	initWG sync.WaitGroup // all fibers and workers registered
	doneWG sync.WaitGroup // workers drained their poison
}

var (
	initMu sync.Mutex
	rt     *Runtime
)

func globalRuntime() *Runtime { return rt }

// Init starts the runtime. opts may be nil for defaults; zero fields fall
// back to their defaults either way. Init and Shutdown must not race with
// use of the runtime.
func Init(opts *Options) error {
	initMu.Lock()
	defer initMu.Unlock()
	if rt != nil {
		return errors.New("fiber: runtime already initialized")
	}

	var o Options
	if opts != nil {
		o = *opts
	}
	o.fill()

	r := &Runtime{
		opts:        o,
		log:         *o.Logger,
		fiberByGID:  make(map[int64]*Fiber, o.Fibers),
		workerByGID: make(map[int64]*worker, o.Workers),
	}

	arena, err := mem.NewArena(o.ArenaSize, mem.ChunkSize)
	if err != nil {
		return err
	}
	r.arena = arena

	r.alloc = mem.NewBuddyCache(mem.VM, o.BuddyRegion, o.BuddyMin, o.Workers, r.currentWorkerIndex)
	if r.alloc == nil {
		arena.Destroy()
		return errors.New("fiber: buddy cache regions failed")
	}

	r.jobQueue = ring.New[*job](o.JobQueueCap)
	r.timers.init()
	r.aio.init()

	r.initWG.Add(o.Fibers + o.Workers)

	r.fibers = make([]*Fiber, o.Fibers)
	for i := range r.fibers {
		p := arena.Alloc()
		if p == nil {
			r.destroy()
			return errors.New("fiber: arena too small for fiber pool")
		}
		page := (*fiberPage)(p)
		page.id = int32(i + 1)
		f := &Fiber{
			id:     int32(i + 1),
			page:   page,
			rt:     r,
			resume: make(chan *worker),
		}
		r.fibers[i] = f
		r.freeList.Push(p)
		go f.run()
	}

	r.workers = make([]*worker, o.Workers)
	for i := range r.workers {
		p := arena.Alloc()
		if p == nil {
			for _, w := range r.workers[:i] {
				r.ready.Push(unsafe.Pointer(w.schedPage))
			}
			r.doneWG.Wait()
			r.destroy()
			return errors.New("fiber: arena too small for worker pages")
		}
		page := (*fiberPage)(p)
		page.id = int32(-(i + 1))
		w := &worker{
			id:        i,
			name:      fmt.Sprintf("worker_%d", i),
			rt:        r,
			schedPage: page,
			yielded:   make(chan struct{}),
			loop:      newEventLoop(),
		}
		r.workers[i] = w
		r.doneWG.Add(1)
		go w.run()
	}

	r.initWG.Wait()
	rt = r
	r.log.Info().
		Int("workers", o.Workers).
		Int("fibers", o.Fibers).
		Int("job_queue", r.jobQueue.Cap()).
		Uint64("arena", uint64(o.ArenaSize)).
		Msg("fiber runtime up")
	return nil
}

// Shutdown stops every worker and releases all runtime memory. All
// submitted jobs must have completed; fibers still parked in wait lists are
// abandoned.
func Shutdown() {
	initMu.Lock()
	defer initMu.Unlock()
	r := rt
	if r == nil {
		return
	}
	// Poison: each worker exits when it dequeues its own scheduler page.
	for _, w := range r.workers {
		r.ready.Push(unsafe.Pointer(w.schedPage))
	}
	r.doneWG.Wait()
	rt = nil
	r.destroy()
	r.log.Info().Msg("fiber runtime down")
}

func (r *Runtime) destroy() {
	for _, f := range r.fibers {
		if f != nil {
			close(f.resume)
		}
	}
	if r.alloc != nil {
		r.alloc.Destroy()
	}
	if r.arena != nil {
		r.arena.Destroy()
	}
}

// Running reports whether the runtime is up.
func Running() bool { return rt != nil }

func (r *Runtime) register(gid int64, f *Fiber, w *worker) {
	r.regMu.Lock()
	if f != nil {
		r.fiberByGID[gid] = f
	}
	if w != nil {
		r.workerByGID[gid] = w
	}
	r.regMu.Unlock()
}

func (r *Runtime) fiberByID(id int64) *Fiber {
	return r.fibers[id-1]
}

func currentFiber() *Fiber {
	r := rt
	if r == nil {
		return nil
	}
	return r.fiberByGID[goid.Get()]
}

func (r *Runtime) currentWorker() *worker {
	if f := r.fiberByGID[goid.Get()]; f != nil {
		return f.worker
	}
	return r.workerByGID[goid.Get()]
}

// currentWorkerIndex routes allocator traffic to the calling worker's buddy
// region; foreign goroutines share region 0.
func (r *Runtime) currentWorkerIndex() int {
	if w := r.currentWorker(); w != nil {
		return w.id
	}
	return 0
}

// currentLoop is the event loop timers and I/O completions should land on:
// the calling worker's, or worker 0's for external callers.
func (r *Runtime) currentLoop() *eventLoop {
	if w := r.currentWorker(); w != nil {
		return w.loop
	}
	return r.workers[0].loop
}

// Alloc exposes the runtime's general-purpose allocator (the per-worker
// buddy cache). Valid between Init and Shutdown.
func Alloc() mem.Allocator {
	r := rt
	if r == nil {
		return nil
	}
	return r.alloc
}

// allocFiber takes a fiber from the free LIFO. The pool is fixed: running
// out means Options.Fibers does not cover the peak number of in-flight
// jobs, which is a configuration bug.
func (r *Runtime) allocFiber(name string) *Fiber {
	p := r.freeList.Pop()
	if p == nil {
		r.log.Error().Msg("fiber pool exhausted")
		panic("fiber: fiber pool exhausted; raise Options.Fibers")
	}
	f := r.fiberByID(int64((*fiberPage)(p).id))
	f.name = name
	return f
}

func (r *Runtime) freeFiber(f *Fiber) {
	r.freeList.Push(unsafe.Pointer(f.page))
}
