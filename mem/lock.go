// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// spinLock is a test-and-test-and-set lock for the short critical sections
// inside allocators. Never held across anything that can block.
type spinLock struct {
	v atomix.Int32
}

func (l *spinLock) lock() {
	sw := spin.Wait{}
	for {
		if l.v.LoadRelaxed() == 0 && l.v.CompareAndSwapAcqRel(0, 1) {
			return
		}
		sw.Once()
	}
}

func (l *spinLock) unlock() {
	l.v.StoreRelease(0)
}
