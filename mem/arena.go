// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import (
	"errors"
	"unsafe"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/fiber/lifo"
)

// Arena is a thread-safe slab allocator over one contiguous reservation.
//
// The reservation is aligned to the slab size (a power of two >= ChunkSize),
// so every slab the arena hands out has its low 16 bits zero and can serve
// directly as a [lifo.List] node. Freed slabs go onto a lock-free LIFO and
// are preferred over bumping the monotonic used cursor.
type Arena struct {
	free     lifo.List
	base     uintptr
	cap      uintptr
	used     atomix.Uintptr
	slabSize uintptr
}

// NewArena reserves total bytes served as slabs of slabSize.
// slabSize is forced to a power of two >= ChunkSize; total is rounded down
// to a whole number of slabs.
func NewArena(total, slabSize uintptr) (*Arena, error) {
	slabSize = nextPow2(slabSize)
	if slabSize < ChunkSize {
		slabSize = ChunkSize
	}
	total &^= slabSize - 1
	if total == 0 {
		return nil, errors.New("mem: arena capacity must hold at least one slab")
	}
	base := ReserveAligned(total, slabSize)
	if base == nil {
		return nil, errors.New("mem: arena reservation failed")
	}
	return &Arena{
		base:     uintptr(base),
		cap:      total,
		slabSize: slabSize,
	}, nil
}

// Alloc returns one slab, or nil when the arena is exhausted.
// The slab begins at an address aligned to the slab size. A slab reused
// from the free LIFO is not zeroed.
func (a *Arena) Alloc() unsafe.Pointer {
	if p := a.free.Pop(); p != nil {
		return p
	}
	used := a.used.AddAcqRel(a.slabSize)
	if used <= a.cap {
		return unsafe.Pointer(a.base + used - a.slabSize)
	}
	a.used.AddAcqRel(-a.slabSize)
	return nil
}

// Free returns a slab to the arena.
func (a *Arena) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	if uintptr(p) < a.base || uintptr(p) >= a.base+a.cap {
		panic("mem: foreign slab freed to arena")
	}
	a.free.Push(p)
}

// Realloc makes the arena usable as an [Allocator] for slab-sized requests.
func (a *Arena) Realloc(ptr unsafe.Pointer, oldSize, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		if newSize == 0 {
			return nil
		}
		if newSize != a.slabSize {
			panic("mem: arena serves whole slabs only")
		}
		return a.Alloc()
	}
	if newSize != 0 {
		panic("mem: arena slabs do not resize")
	}
	if oldSize != a.slabSize {
		panic("mem: arena free with wrong size")
	}
	a.Free(ptr)
	return nil
}

// SlabSize returns the fixed allocation unit.
func (a *Arena) SlabSize() uintptr { return a.slabSize }

// Cap returns the total reservation in bytes.
func (a *Arena) Cap() uintptr { return a.cap }

// Used returns the high-water mark of the bump cursor in bytes.
// Slabs sitting on the free LIFO still count as used.
func (a *Arena) Used() uintptr {
	u := a.used.LoadAcquire()
	if u > a.cap {
		return a.cap
	}
	return u
}

// Destroy releases the reservation. All slabs become invalid.
func (a *Arena) Destroy() {
	if a.base != 0 {
		ReleaseAligned(unsafe.Pointer(a.base))
		a.base = 0
	}
}
