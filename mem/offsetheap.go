// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "unsafe"

// InvalidOffset reports offset-heap exhaustion.
const InvalidOffset = ^uintptr(0)

// Allocation is a range carved out of an offset heap's logical space.
// Offset honors the requested alignment; Size is the carved size including
// any padding consumed in front of Offset to reach it.
type Allocation struct {
	Offset uintptr
	Size   uintptr
	pad    uintptr // bytes between the carved block start and Offset
}

// Valid reports whether a describes a real allocation.
func (a Allocation) Valid() bool {
	return !(a.Offset == InvalidOffset && a.Size == 0)
}

var invalidAllocation = Allocation{Offset: InvalidOffset}

// offsetBlock is one free range, indexed by both trees at once.
type offsetBlock struct {
	node PoolNode
	off  rbNode // key: block offset
	size rbNode // key: block size
}

func blockOfOff(n *rbNode) *offsetBlock {
	return (*offsetBlock)(unsafe.Pointer(uintptr(unsafe.Pointer(n)) - unsafe.Offsetof(offsetBlock{}.off)))
}

func blockOfSize(n *rbNode) *offsetBlock {
	return (*offsetBlock)(unsafe.Pointer(uintptr(unsafe.Pointer(n)) - unsafe.Offsetof(offsetBlock{}.size)))
}

// OffsetHeap is a general-purpose variable-size allocator over a logical
// address space [0, cap). It owns no memory: callers map offsets onto a GPU
// upload buffer, a file, or any other linear resource. Free blocks are held
// in two ordered maps (by offset for merging, by size for best-fit) whose
// nodes live in records from a slab pool. Not synchronized.
type OffsetHeap struct {
	cap       uintptr
	free      uintptr
	alignment uintptr
	offsets   rbTree
	sizes     rbTree
	blocks    *Pool[offsetBlock]
}

// NewOffsetHeap manages the space [0, size).
func NewOffsetHeap(size uintptr) *OffsetHeap {
	if size == 0 {
		panic("mem: offset heap over empty space")
	}
	h := &OffsetHeap{
		cap:    size,
		free:   size,
		blocks: NewPool[offsetBlock](ChunkSize / int(unsafe.Sizeof(offsetBlock{}))),
	}
	h.newBlock(0, size)
	h.alignment = alignDivisor(0, h.cap)
	return h
}

func (h *OffsetHeap) newBlock(offset, size uintptr) {
	b := h.blocks.Alloc()
	b.off.key = offset
	b.size.key = size
	h.offsets.insert(&b.off)
	h.sizes.insert(&b.size)
}

func (h *OffsetHeap) dropBlock(b *offsetBlock) {
	h.offsets.remove(&b.off)
	h.sizes.remove(&b.size)
	h.blocks.Free(b)
}

// Alloc carves size bytes aligned to alignment (a power of two) and returns
// the range, or an invalid allocation when no block fits. The returned Size
// includes any padding consumed to honor the alignment and must be passed
// back to Free unchanged.
func (h *OffsetHeap) Alloc(size, alignment uintptr) Allocation {
	if size == 0 || !isPow2(alignment) {
		panic("mem: bad offset heap request")
	}
	size = alignUp(size, alignment)
	if h.free < size {
		return invalidAllocation
	}
	// Every free block's offset is a multiple of h.alignment, so reaching
	// the next multiple of a coarser alignment costs at most the deficit.
	var extra uintptr
	if alignment > h.alignment {
		extra = alignment - h.alignment
	}
	n := h.sizes.lowerBound(size + extra)
	if n == nil {
		return invalidAllocation
	}
	b := blockOfSize(n)
	start := b.off.key
	aligned := alignUp(start, alignment)
	carved := size + aligned - start
	newOffset := start + carved
	newSize := b.size.key - carved
	h.dropBlock(b)
	if newSize > 0 {
		h.newBlock(newOffset, newSize)
	}
	h.free -= carved

	// Track the largest power of two still dividing every free block.
	if a := alignDivisor(start, h.cap); a < h.alignment {
		h.alignment = a
	}
	if a := alignDivisor(carved, h.cap); a < h.alignment {
		h.alignment = a
	}
	return Allocation{Offset: aligned, Size: carved, pad: aligned - start}
}

// Free returns a range to the heap, merging with offset-adjacent neighbors.
func (h *OffsetHeap) Free(a Allocation) {
	offset, size := a.Offset-a.pad, a.Size
	if !a.Valid() || size == 0 || offset+size > h.cap {
		panic("mem: bad offset heap free")
	}
	newOffset, newSize := offset, size

	next := h.offsets.lowerBound(offset)
	if next != nil && offset+size > next.key {
		panic("mem: offset heap free overlaps a free block")
	}
	var prev *rbNode
	if next != nil {
		prev = rbPrev(next)
	} else {
		// Freed range lies after every free block.
		for n := h.offsets.root; n != nil; n = n.right {
			prev = n
		}
	}

	if prev != nil {
		pb := blockOfOff(prev)
		if pb.off.key+pb.size.key > offset {
			panic("mem: offset heap double free")
		}
		if pb.off.key+pb.size.key == offset {
			newOffset = pb.off.key
			newSize += pb.size.key
			h.dropBlock(pb)
		}
	}
	if next != nil && offset+size == next.key {
		nb := blockOfOff(next)
		newSize += nb.size.key
		h.dropBlock(nb)
	}
	h.newBlock(newOffset, newSize)
	h.free += size

	if h.Empty() {
		h.alignment = alignDivisor(0, h.cap)
	}
}

// Empty reports whether the whole space is free.
func (h *OffsetHeap) Empty() bool { return h.free == h.cap }

// Full reports whether nothing is free.
func (h *OffsetHeap) Full() bool { return h.free == 0 }

// Cap returns the size of the managed space.
func (h *OffsetHeap) Cap() uintptr { return h.cap }

// FreeBytes returns the total free byte count.
func (h *OffsetHeap) FreeBytes() uintptr { return h.free }

// Used returns the allocated byte count.
func (h *OffsetHeap) Used() uintptr { return h.cap - h.free }

// Alignment returns the largest power of two currently dividing every free
// block's offset and size.
func (h *OffsetHeap) Alignment() uintptr { return h.alignment }

// FreeBlocks returns the number of free ranges (adjacent frees have merged).
func (h *OffsetHeap) FreeBlocks() int { return h.offsets.size() }
