// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "unsafe"

// regionInline is the embedded buffer served before any overflow page.
const regionInline = 1024

// regionPage is the header of an overflow page; the page's usable bytes
// follow it.
type regionPage struct {
	size uintptr
	next uintptr // previous page in the chain
}

const regionHeader = unsafe.Sizeof(regionPage{})

// Region is a bump allocator for fiber-local scratch memory: a small inline
// buffer plus a chain of overflow pages from a parent allocator. Individual
// frees are ignored; [Region.Release] drops everything at once. Not
// thread-safe: a region belongs to exactly one fiber.
//
// Region implements [Allocator], so scratch-hungry code can be handed a
// region where it expects a general allocator.
type Region struct {
	parent Allocator
	buf    [regionInline]byte
	used   uintptr
	cap    uintptr
	end    uintptr // next allocation address
	pages  uintptr // newest overflow page, 0 if none
}

// Init readies the region; parent backs overflow pages (nil means [VM]).
func (r *Region) Init(parent Allocator) {
	if parent == nil {
		parent = VM
	}
	r.parent = parent
	r.used = 0
	r.cap = regionInline
	r.end = uintptr(unsafe.Pointer(&r.buf[0]))
	r.pages = 0
}

// Alloc returns size bytes of scratch memory, or nil when the parent cannot
// provide an overflow page. The memory is not zeroed.
func (r *Region) Alloc(size uintptr) unsafe.Pointer {
	return r.Realloc(nil, 0, size)
}

// Realloc implements [Allocator]. Growth allocates fresh bytes and copies;
// frees are ignored until Release.
func (r *Region) Realloc(ptr unsafe.Pointer, oldSize, newSize uintptr) unsafe.Pointer {
	if newSize <= oldSize {
		if newSize == 0 {
			return nil
		}
		return ptr
	}
	size := alignUp(newSize, 8)
	if r.used+size > r.cap {
		if !r.grow(size) {
			return nil
		}
	}
	p := unsafe.Pointer(r.end)
	r.used += size
	r.end += size
	if ptr != nil {
		memmove(p, ptr, oldSize)
	}
	return p
}

func (r *Region) grow(size uintptr) bool {
	// min(ChunkSize, nextPow2) like the usual page sizing, except an
	// oversized single allocation gets a page big enough to hold it.
	pageSize := nextPow2(size + regionHeader)
	if pageSize > ChunkSize {
		pageSize = alignUp(size+regionHeader, ChunkSize)
	}
	raw := Malloc(r.parent, pageSize)
	if raw == nil {
		return false
	}
	page := (*regionPage)(raw)
	page.size = pageSize
	page.next = r.pages
	r.pages = uintptr(raw)
	r.used = regionHeader
	r.cap = pageSize
	r.end = uintptr(raw) + regionHeader
	return true
}

// Release frees every overflow page and rewinds to the inline buffer.
func (r *Region) Release() {
	for r.pages != 0 {
		page := (*regionPage)(unsafe.Pointer(r.pages))
		next := page.next
		Free(r.parent, unsafe.Pointer(r.pages), page.size)
		r.pages = next
	}
	r.used = 0
	r.cap = regionInline
	r.end = uintptr(unsafe.Pointer(&r.buf[0]))
}
