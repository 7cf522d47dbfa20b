// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Lock is a test-and-test-and-set spin lock with a pause between probes.
//
// Locks guard bookkeeping only: never hold one across I/O, across a resume,
// or across anything that can block — with one sanctioned exception. A fiber
// may park itself on a wait list and call Yield(&lk) while still holding lk;
// the scheduler releases the lock after the context switch completes, so no
// waker can observe the fiber both on the list and still running.
//
// The zero value is an unlocked Lock.
type Lock struct {
	v atomix.Int32
}

// Acquire spins until the lock is held.
func (l *Lock) Acquire() {
	sw := spin.Wait{}
	for {
		if l.v.LoadRelaxed() == 0 && l.v.CompareAndSwapAcqRel(0, 1) {
			return
		}
		sw.Once()
	}
}

// TryAcquire attempts the lock once without spinning.
func (l *Lock) TryAcquire() bool {
	return l.v.LoadRelaxed() == 0 && l.v.CompareAndSwapAcqRel(0, 1)
}

// Release unlocks. Calling Release on an unheld lock is a bug.
func (l *Lock) Release() {
	l.v.StoreRelease(0)
}
