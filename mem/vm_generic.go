// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !unix

package mem

import "unsafe"

// vmMapping pins the backing slice of an aligned reservation so the Go
// collector keeps it alive; there is no real mapping to unmap.
type vmMapping struct {
	raw []byte
}

func vmMap(size, align uintptr) (vmMapping, uintptr) {
	raw := make([]byte, size+align)
	base := alignUp(uintptr(unsafe.Pointer(&raw[0])), align)
	return vmMapping{raw: raw}, base
}

func vmUnmap(vmMapping) {}
