// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"os"
	"os/exec"

	"code.hybscloud.com/fiber/mem"
)

// Async I/O bridge: every blocking system operation runs on a detached
// goroutine and completes through the issuing worker's event loop, which
// fills the result and decrements a single-waiter future. The calling fiber
// parks in Await while its worker keeps servicing jobs and timers.
//
// Results follow one convention: >= 0 is the operation's value (fd, byte
// count, entry count, exit code), < 0 is -errno. Spawn is the exception: it
// reports -1 when the process could not start.

// Stat is the file metadata record filled by [Stat].
type Stat struct {
	Exists  bool
	Dir     bool
	Size    int64
	ModTime int64 // unix seconds
}

// aioRequest is a pooled pending-operation control block; it is the
// waitable of the future it feeds.
type aioRequest struct {
	node mem.PoolNode
	wait Waitable
}

type aioContext struct {
	lock Lock
	pool *mem.Pool[aioRequest]
}

func (a *aioContext) init() {
	a.pool = mem.NewPool[aioRequest](256)
}

func (a *aioContext) alloc() *aioRequest {
	a.lock.Acquire()
	req := a.pool.Alloc()
	a.lock.Release()
	return req
}

func (a *aioContext) free(req *aioRequest) {
	a.lock.Acquire()
	a.pool.Free(req)
	a.lock.Release()
}

// submitIO wires one blocking operation into a future. Returns nil when the
// runtime is not running.
func submitIO(op func() int64) *Future {
	r := globalRuntime()
	if r == nil {
		return nil
	}
	req := r.aio.alloc()
	req.wait.Instance = req
	req.wait.Dtor = func(instance any) {
		r.aio.free(instance.(*aioRequest))
	}
	fut := NewFuture(1, &req.wait)
	loop := r.currentLoop()
	go func() {
		res := op()
		loop.post(func() {
			req.wait.SetResult(res)
			fut.Decrement()
		})
	}()
	return fut
}

// StatPath fills out with path's metadata before the future completes.
// A missing file is not an error: out.Exists stays false and the result is 0.
func StatPath(out *Stat, path string) *Future {
	return submitIO(func() int64 {
		info, err := os.Stat(path)
		if err != nil {
			*out = Stat{}
			if os.IsNotExist(err) {
				return 0
			}
			return errnoResult(err)
		}
		*out = Stat{
			Exists:  true,
			Dir:     info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		}
		return 0
	})
}

// ScanDir lists the entry names of a directory into *out. The result is the
// entry count, or -errno.
func ScanDir(path string, out *[]string) *Future {
	return submitIO(func() int64 {
		entries, err := os.ReadDir(path)
		if err != nil {
			return errnoResult(err)
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		*out = names
		return int64(len(names))
	})
}

// CopyFile copies src to dst, replacing dst. The result is the number of
// bytes copied, or -errno.
func CopyFile(src, dst string) *Future {
	return submitIO(func() int64 {
		data, err := os.ReadFile(src)
		if err != nil {
			return errnoResult(err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return errnoResult(err)
		}
		return int64(len(data))
	})
}

// Spawn runs a subprocess to completion. The result is the exit code, or -1
// when the process could not start.
func Spawn(name string, args ...string) *Future {
	return submitIO(func() int64 {
		cmd := exec.Command(name, args...)
		if err := cmd.Run(); err != nil {
			if ee, ok := err.(*exec.ExitError); ok {
				return int64(ee.ExitCode())
			}
			return -1
		}
		return 0
	})
}
