// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "unsafe"

// ChunkSize is the granularity of slabs, fiber pages and overflow pages:
// 64 KiB, the smallest unit the arena serves and the alignment the
// lock-free LIFO requires of its nodes.
const ChunkSize = 1 << 16

// Allocator is the capability through which all memory flows.
//
// A single entry point realizes the whole malloc family:
//
//	Realloc(nil, 0, n)  allocates n bytes
//	Realloc(p, n, 0)    frees p (n bytes)
//	Realloc(p, o, n)    resizes p from o to n bytes
//
// A nil return reports exhaustion; implementations never panic on it.
// Returned memory is zeroed on fresh allocation unless documented otherwise.
type Allocator interface {
	Realloc(ptr unsafe.Pointer, oldSize, newSize uintptr) unsafe.Pointer
}

// Malloc allocates size bytes from a.
func Malloc(a Allocator, size uintptr) unsafe.Pointer {
	return a.Realloc(nil, 0, size)
}

// Free returns ptr (size bytes) to a.
func Free(a Allocator, ptr unsafe.Pointer, size uintptr) {
	if ptr != nil {
		a.Realloc(ptr, size, 0)
	}
}

// Realloc resizes ptr from oldSize to newSize bytes.
func Realloc(a Allocator, ptr unsafe.Pointer, oldSize, newSize uintptr) unsafe.Pointer {
	return a.Realloc(ptr, oldSize, newSize)
}

// Bytes exposes an allocation as a byte slice without copying.
func Bytes(ptr unsafe.Pointer, size uintptr) []byte {
	if ptr == nil || size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), size)
}

func memmove(dst, src unsafe.Pointer, n uintptr) {
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}

func memzero(p unsafe.Pointer, n uintptr) {
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
}
