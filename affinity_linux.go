// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// setAffinity pins the calling thread to one CPU. Best effort: a failing
// sched_setaffinity (restricted cpusets, exotic containers) just leaves the
// thread floating.
func setAffinity(id int) {
	n := runtime.NumCPU()
	if n <= 1 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(id % n)
	_ = unix.SchedSetaffinity(0, &set)
}
