// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "unsafe"

// Buddy cache: one power-of-two buddy allocator per worker, each over its
// own off-heap backing region, with lazily merged cross-worker frees.
//
// A free of a block that belongs to worker W's region lands on W's pending
// list, under that list's lock only, instead of touching W's buddy tree. The
// next time W allocates with more than gcThreshold pending bytes, its
// pending blocks are merged back into its region.

const (
	buddyMinSize = 64 // floor for min_size; one cache line, keeps free-list nodes inside blocks
	gcThreshold  = 4096
)

// blockNode is the intrusive doubly-linked free-list node overlaid on the
// first bytes of every free block. Off-heap memory only.
type blockNode struct {
	next uintptr
	prev uintptr
}

type blockList struct {
	head uintptr
}

func nodeAt(addr uintptr) *blockNode {
	return (*blockNode)(unsafe.Pointer(addr))
}

func (l *blockList) empty() bool { return l.head == 0 }

func (l *blockList) push(addr uintptr) {
	n := nodeAt(addr)
	n.prev = 0
	n.next = l.head
	if l.head != 0 {
		nodeAt(l.head).prev = addr
	}
	l.head = addr
}

func (l *blockList) pop() uintptr {
	addr := l.head
	if addr == 0 {
		return 0
	}
	l.remove(addr)
	return addr
}

func (l *blockList) remove(addr uintptr) {
	n := nodeAt(addr)
	if n.prev != 0 {
		nodeAt(n.prev).next = n.next
	} else {
		l.head = n.next
	}
	if n.next != 0 {
		nodeAt(n.next).prev = n.prev
	}
	n.next, n.prev = 0, 0
}

// buddyHeap is one worker's buddy tree over one backing region.
// Levels grow downward in block size: level 0 is the whole region,
// level nrLevels-1 is minSize.
type buddyHeap struct {
	cap       uintptr
	minSize   uintptr
	nrLevels  uint32
	data      uintptr // region base
	freeLists []blockList
	mergeBits []uint64 // parity bit per internal node: 1 iff exactly one child allocated
}

func newBuddyHeap(data, size, minSize uintptr) *buddyHeap {
	h := &buddyHeap{
		cap:      size,
		minSize:  minSize,
		nrLevels: uint32(log2(size/minSize)) + 1,
		data:     data,
	}
	h.freeLists = make([]blockList, h.nrLevels)
	numBlocks := uintptr(1) << h.nrLevels
	h.mergeBits = make([]uint64, numBlocks/2/64+1)
	h.freeLists[0].push(data)
	return h
}

func (h *buddyHeap) sizeAtLevel(level uint32) uintptr {
	return h.cap >> level
}

func (h *buddyHeap) levelAtSize(size uintptr) uint32 {
	if size < h.minSize {
		return h.nrLevels - 1
	}
	n := nextPow2(size) / h.minSize
	return h.nrLevels - uint32(log2(n)) - 1
}

func (h *buddyHeap) blockIndex(offset uintptr, level uint32) uintptr {
	return (uintptr(1) << level) + offset/h.sizeAtLevel(level) - 1
}

func (h *buddyHeap) buddyOffset(offset uintptr, level uint32) uintptr {
	size := h.sizeAtLevel(level)
	if h.blockIndex(offset, level)&1 != 0 {
		return (offset &^ (size - 1)) + size
	}
	return (offset &^ (size - 1)) - size
}

func (h *buddyHeap) bitToggle(index uintptr) {
	h.mergeBits[index/64] ^= 1 << (index % 64)
}

func (h *buddyHeap) bitTest(index uintptr) bool {
	return h.mergeBits[index/64]&(1<<(index%64)) != 0
}

func (h *buddyHeap) contains(addr uintptr) bool {
	return addr >= h.data && addr < h.data+h.cap
}

// allocBlock returns the region offset of a free block at level,
// splitting larger blocks as needed. Returns ok=false when the region
// cannot cover the request.
func (h *buddyHeap) allocBlock(level uint32) (uintptr, bool) {
	if !h.freeLists[level].empty() {
		addr := h.freeLists[level].pop()
		offset := addr - h.data
		if level > 0 {
			h.bitToggle(h.blockIndex(offset, level-1))
		}
		return offset, true
	}
	if level == 0 {
		return 0, false
	}
	offset, ok := h.allocBlock(level - 1)
	if !ok {
		return 0, false
	}
	// Split: the upper half becomes free at this level.
	h.freeLists[level].push(h.data + offset + h.sizeAtLevel(level))
	h.bitToggle(h.blockIndex(offset, level-1))
	return offset, true
}

// freeBlock releases the block at offset on level, merging with its buddy
// while the parity bit shows the buddy is free.
func (h *buddyHeap) freeBlock(offset uintptr, level uint32) {
	if level == 0 {
		h.freeLists[0].push(h.data + offset)
		return
	}
	index := h.blockIndex(offset, level-1)
	if h.bitTest(index) {
		buddy := h.buddyOffset(offset, level)
		h.freeLists[level].remove(h.data + buddy)
		h.bitToggle(index)
		if buddy < offset {
			offset = buddy
		}
		h.freeBlock(offset, level-1)
		return
	}
	h.freeLists[level].push(h.data + offset)
	h.bitToggle(index)
}

// workerCache is one worker's slice of the buddy cache.
type workerCache struct {
	lock spinLock // guards heap
	heap *buddyHeap

	pendingLock  spinLock // guards pending lists
	pending      []blockList
	pendingBytes uintptr

	_ [64 - 8]byte // keep caches off each other's lines
}

// BuddyCache is a power-of-two allocator with one buddy region per worker.
// It implements [Allocator]. Which worker's region serves a request is
// decided by the current-worker resolver supplied at creation.
type BuddyCache struct {
	parent   Allocator
	caches   []workerCache
	size     uintptr
	minSize  uintptr
	nrLevels uint32
	current  func() int
}

// NewBuddyCache creates one buddy region of size bytes per worker, backed by
// parent. minSize is rounded to a power of two >= 64. current resolves the
// calling worker's index in [0, workers); nil pins everything to region 0.
// Returns nil when the parent cannot back the regions.
func NewBuddyCache(parent Allocator, size, minSize uintptr, workers int, current func() int) *BuddyCache {
	size = nextPow2(size)
	minSize = nextPow2(minSize)
	if minSize < buddyMinSize {
		minSize = buddyMinSize
	}
	if workers < 1 {
		workers = 1
	}
	if current == nil {
		current = func() int { return 0 }
	}
	c := &BuddyCache{
		parent:  parent,
		caches:  make([]workerCache, workers),
		size:    size,
		minSize: minSize,
		current: current,
	}
	for i := range c.caches {
		data := Malloc(parent, size)
		if data == nil {
			for j := range i {
				Free(parent, unsafe.Pointer(c.caches[j].heap.data), size)
			}
			return nil
		}
		h := newBuddyHeap(uintptr(data), size, minSize)
		c.caches[i].heap = h
		c.caches[i].pending = make([]blockList, h.nrLevels)
	}
	c.nrLevels = c.caches[0].heap.nrLevels
	return c
}

// gc merges this worker's pending frees back into their owning regions.
func (c *BuddyCache) gc(wc *workerCache) {
	for level := uint32(0); level < c.nrLevels; level++ {
		for {
			wc.pendingLock.lock()
			addr := wc.pending[level].pop()
			if addr == 0 {
				wc.pendingLock.unlock()
				break
			}
			wc.pendingBytes -= wc.heap.sizeAtLevel(level)
			wc.pendingLock.unlock()

			owner := c.ownerOf(addr)
			if owner == nil {
				panic("mem: pointer does not originate from this cache")
			}
			owner.lock.lock()
			owner.heap.freeBlock(addr-owner.heap.data, level)
			owner.lock.unlock()
		}
	}
}

func (c *BuddyCache) ownerOf(addr uintptr) *workerCache {
	for i := range c.caches {
		if c.caches[i].heap.contains(addr) {
			return &c.caches[i]
		}
	}
	return nil
}

func (c *BuddyCache) alloc(size uintptr) unsafe.Pointer {
	if size == 0 || size > c.size {
		return nil
	}
	wc := &c.caches[c.current()]
	if wc.pendingBytes > gcThreshold {
		c.gc(wc)
	}
	level := wc.heap.levelAtSize(size)

	// Reuse a same-level pending block before touching the buddy tree.
	wc.pendingLock.lock()
	if addr := wc.pending[level].pop(); addr != 0 {
		wc.pendingBytes -= wc.heap.sizeAtLevel(level)
		wc.pendingLock.unlock()
		memzero(unsafe.Pointer(addr), wc.heap.sizeAtLevel(level))
		return unsafe.Pointer(addr)
	}
	wc.pendingLock.unlock()

	wc.lock.lock()
	offset, ok := wc.heap.allocBlock(level)
	wc.lock.unlock()
	if !ok {
		return nil
	}
	memzero(unsafe.Pointer(wc.heap.data+offset), wc.heap.sizeAtLevel(level))
	return unsafe.Pointer(wc.heap.data + offset)
}

func (c *BuddyCache) release(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil {
		return
	}
	wc := c.ownerOf(uintptr(ptr))
	if wc == nil {
		panic("mem: pointer does not originate from this cache")
	}
	level := wc.heap.levelAtSize(size)
	wc.pendingLock.lock()
	wc.pending[level].push(uintptr(ptr))
	wc.pendingBytes += wc.heap.sizeAtLevel(level)
	wc.pendingLock.unlock()
}

// Realloc implements [Allocator]. Storage moves only when the size level
// changes.
func (c *BuddyCache) Realloc(ptr unsafe.Pointer, oldSize, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		if newSize == 0 {
			return nil
		}
		return c.alloc(newSize)
	}
	if newSize == 0 {
		c.release(ptr, oldSize)
		return nil
	}
	wc := &c.caches[c.current()]
	if wc.heap.levelAtSize(oldSize) == wc.heap.levelAtSize(newSize) {
		return ptr
	}
	next := c.alloc(newSize)
	if next == nil {
		return nil
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	memmove(next, ptr, n)
	c.release(ptr, oldSize)
	return next
}

// Destroy returns every region to the parent allocator.
// Outstanding blocks become invalid.
func (c *BuddyCache) Destroy() {
	for i := range c.caches {
		Free(c.parent, unsafe.Pointer(c.caches[i].heap.data), c.size)
		c.caches[i].heap = nil
	}
}
