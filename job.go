// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "code.hybscloud.com/iox"

// Job describes one unit of work: a function and its opaque argument.
// Errors are encoded in the int64 return, not raised; a failing job
// publishes a negative result and terminates normally.
type Job struct {
	Func func(arg any) int64
	Arg  any
}

// job is the enqueued descriptor, pointing back at the shared request.
type job struct {
	fn  func(any) int64
	arg any
	fut *Future
	idx uint32
	req *jobRequest
}

// jobRequest is the per-batch record all descriptors share. It is the
// future's waitable, so the batch stays alive exactly as long as the future.
type jobRequest struct {
	wait    Waitable
	jobs    []job
	results []int64
}

// RunJobs submits a batch and returns a future counting down from
// len(jobs). Descriptors enter the global queue oldest first; order across
// workers is best-effort FIFO. Each completed job stores its return at
// results[i] (when results is non-nil) and overwrites the shared future
// result, so a plain [Await] yields the last job's return.
//
// A full queue makes RunJobs yield (fiber callers) or back off (others)
// until space frees. Returns nil when the runtime is not running.
func RunJobs(jobs []Job, results []int64) *Future {
	r := globalRuntime()
	if r == nil {
		return nil
	}
	n := len(jobs)
	if results != nil && len(results) < n {
		panic("fiber: results shorter than jobs")
	}

	req := &jobRequest{results: results}
	req.wait.Instance = req
	fut := NewFuture(int64(n), &req.wait)
	req.jobs = make([]job, n)
	for i := range jobs {
		req.jobs[i] = job{
			fn:  jobs[i].Func,
			arg: jobs[i].Arg,
			fut: fut,
			idx: uint32(i),
			req: req,
		}
	}

	fromFiber := currentFiber() != nil
	bo := iox.Backoff{}
	for i := range req.jobs {
		for !r.jobQueue.Enqueue(&req.jobs[i]) {
			if fromFiber {
				Yield(nil)
			} else {
				bo.Wait()
			}
		}
		bo.Reset()
	}
	return fut
}

// Go submits a single job.
func Go(fn func(arg any) int64, arg any) *Future {
	return RunJobs([]Job{{Func: fn, Arg: arg}}, nil)
}

// finish publishes the job's result and signals the batch future.
func (j *job) finish(ret int64) {
	if j.req.results != nil {
		j.req.results[j.idx] = ret
	}
	j.fut.waitable.SetResult(ret)
	j.fut.Decrement()
}
