// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fiber is a cooperative concurrency runtime: a job system over
// preallocated fibers, scheduled by one worker per CPU, with futures,
// channels, timers and an asynchronous I/O bridge, all standing on explicit
// off-heap memory infrastructure (see code.hybscloud.com/fiber/mem).
//
// # Quick start
//
//	err := fiber.Init(nil) // defaults: one worker per CPU
//	defer fiber.Shutdown()
//
//	results := make([]int64, 64)
//	jobs := make([]fiber.Job, 64)
//	for i := range jobs {
//	    n := int64(i)
//	    jobs[i] = fiber.Job{Func: func(any) int64 { return n }}
//	}
//	fut := fiber.RunJobs(jobs, results)
//	fiber.Await(fut) // results[i] == i
//
// # Model
//
// A worker ("cord") is one goroutine locked to an OS thread and, where the
// platform allows, pinned to one CPU. Each worker runs a scheduler loop:
// drain the global ready LIFO, start one queued job on a fresh fiber, run
// one non-blocking event-loop tick. A fiber suspends only at explicit yield
// sites ([Future.Wait], channel Get/Put, [Yield]), so scheduling is
// strictly cooperative: never spin on a condition another fiber must change
// without yielding.
//
// Fibers never migrate mid-run, but a suspended fiber may be resumed by any
// worker. Anything that wakes a fiber, whether a future reaching its target,
// a channel partner, a timer tick or an I/O completion, does so by pushing it
// onto the ready LIFO via [Ready].
//
// # Futures
//
// A Future is an atomic counter with up to four waiter slots. Producers call
// Increment/Decrement; a fiber calls Wait(v) and sleeps until the counter
// hits v. Most callers use the submit-then-await shape:
//
//	fut := fiber.RunJobs(jobs, nil)
//	res := fiber.Await(fut) // Wait(0) then Free; res is the last job's return
//
// # Blocking system calls
//
// File and process operations park the calling fiber instead of the worker:
//
//	fd := fiber.Await(fiber.Open(path, fiber.FileRead))
//	n := fiber.Await(fiber.Read(fd, buf, 0))
//	fiber.Await(fiber.Close(fd))
//
// Negative results are -errno. The worker keeps servicing jobs and timers
// while the operation runs.
//
// # Non-fiber callers
//
// Every entry point also works from plain goroutines: waits become polling
// with backoff and Yield degrades to the Go scheduler. The fast paths are
// fiber-only.
package fiber
