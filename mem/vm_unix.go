// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package mem

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// vmMapping records the raw mmap slice behind an aligned reservation.
type vmMapping struct {
	raw []byte
}

// vmMap reserves size bytes of zeroed anonymous memory aligned to align.
// The kernel only guarantees page alignment, so the mapping is padded by
// align and the aligned base is carved out of it; the raw slice is kept for
// munmap. Returns a zero base on failure.
func vmMap(size, align uintptr) (vmMapping, uintptr) {
	raw, err := unix.Mmap(-1, 0, int(size+align),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return vmMapping{}, 0
	}
	base := alignUp(uintptr(unsafe.Pointer(&raw[0])), align)
	return vmMapping{raw: raw}, base
}

func vmUnmap(m vmMapping) {
	_ = unix.Munmap(m.raw)
}
