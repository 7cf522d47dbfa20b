// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "unsafe"

// VM is the system allocator: page-granular, off-Go-heap memory straight
// from the operating system. It backs the arena reservation, buddy regions
// and region-allocator overflow pages. Allocations are rounded up to
// ChunkSize and aligned to ChunkSize, so VM memory is always eligible for
// the tagged LIFO.
var VM Allocator = &vmAllocator{}

type vmAllocator struct {
	mu       spinLock
	mappings map[uintptr]vmMapping
}

func (v *vmAllocator) Realloc(ptr unsafe.Pointer, oldSize, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		if newSize == 0 {
			return nil
		}
		return v.reserve(alignUp(newSize, ChunkSize), ChunkSize)
	}
	if newSize == 0 {
		v.release(ptr)
		return nil
	}
	if alignUp(newSize, ChunkSize) == alignUp(oldSize, ChunkSize) {
		return ptr
	}
	next := v.reserve(alignUp(newSize, ChunkSize), ChunkSize)
	if next == nil {
		return nil
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	memmove(next, ptr, n)
	v.release(ptr)
	return next
}

// ReserveAligned maps size bytes aligned to align (a power of two
// >= ChunkSize) and returns the aligned base, or nil on failure.
// The mapping is released with [ReleaseAligned].
func ReserveAligned(size, align uintptr) unsafe.Pointer {
	if !isPow2(align) || align < ChunkSize {
		panic("mem: alignment must be a power of two >= ChunkSize")
	}
	return VM.(*vmAllocator).reserve(size, align)
}

// ReleaseAligned unmaps a reservation returned by [ReserveAligned].
func ReleaseAligned(ptr unsafe.Pointer) {
	VM.(*vmAllocator).release(ptr)
}

func (v *vmAllocator) reserve(size, align uintptr) unsafe.Pointer {
	m, base := vmMap(size, align)
	if base == 0 {
		return nil
	}
	v.mu.lock()
	if v.mappings == nil {
		v.mappings = make(map[uintptr]vmMapping)
	}
	v.mappings[base] = m
	v.mu.unlock()
	return unsafe.Pointer(base)
}

func (v *vmAllocator) release(ptr unsafe.Pointer) {
	base := uintptr(ptr)
	v.mu.lock()
	m, ok := v.mappings[base]
	if ok {
		delete(v.mappings, base)
	}
	v.mu.unlock()
	if !ok {
		panic("mem: VM free of unknown pointer")
	}
	vmUnmap(m)
}
