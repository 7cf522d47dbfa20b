// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "unsafe"

// Slab-object pool: a free-list allocator for fixed-size control blocks
// (timers, async I/O requests, offset-heap block records) embedded in a
// growing chain of slabs.
//
// Every slot begins with a [PoolNode] whose low two bits tag the word:
//
//	0  live object (word holds the slot's object id)
//	1  free-list link
//	2  slab link (last slot of a slab points at the next slab)
//
// The tag bits require 4-byte slot alignment, which Go guarantees for any
// struct starting with a uintptr. Slabs are Go-heap slices pinned by the
// pool, so objects may freely hold Go pointers.

const (
	poolTagMask = uintptr(3)
	poolTagFree = uintptr(1)
	poolTagSlab = uintptr(2)
)

// PoolNode must be the first field of every pool-allocated type.
type PoolNode struct {
	next uintptr
}

// Pool is a slab-object pool of T. T must embed [PoolNode] as its first
// field. Pool is not synchronized; callers guard it with their own lock.
type Pool[T any] struct {
	slabs   [][]T // pins every slab for the collector
	perSlab int
	free    uintptr // tagged free-list head; poolTagFree when empty
	end     uintptr // bump cursor: address of the next never-used slot
	nextID  uintptr
}

// NewPool creates a pool whose slabs hold perSlab objects each
// (minimum 2: one payload slot plus the slab-link slot).
func NewPool[T any](perSlab int) *Pool[T] {
	if perSlab < 2 {
		perSlab = 2
	}
	var probe T
	if unsafe.Sizeof(probe) < unsafe.Sizeof(PoolNode{}) {
		panic("mem: pool object smaller than its link")
	}
	p := &Pool[T]{perSlab: perSlab, free: poolTagFree, nextID: 4}
	p.end = p.addSlab(0)
	return p
}

// addSlab appends a slab, writes the slab-link tag into its last slot, and
// returns the address of its first slot. prevLast, when non-zero, is the
// previous slab's link slot to thread onto the new slab.
func (p *Pool[T]) addSlab(prevLast uintptr) uintptr {
	slab := make([]T, p.perSlab)
	p.slabs = append(p.slabs, slab)
	first := uintptr(unsafe.Pointer(&slab[0]))
	last := uintptr(unsafe.Pointer(&slab[p.perSlab-1]))
	(*PoolNode)(unsafe.Pointer(last)).next = poolTagSlab
	if prevLast != 0 {
		(*PoolNode)(unsafe.Pointer(prevLast)).next = first | poolTagSlab
	}
	return first
}

func (p *Pool[T]) objSize() uintptr {
	var probe T
	return unsafe.Sizeof(probe)
}

// Alloc returns a zeroed object, from the free list when possible.
func (p *Pool[T]) Alloc() *T {
	var addr uintptr
	if p.free&^poolTagMask != 0 {
		addr = p.free &^ poolTagMask
		p.free = (*PoolNode)(unsafe.Pointer(addr)).next
	} else {
		addr = p.end
		node := (*PoolNode)(unsafe.Pointer(addr))
		if node.next&poolTagMask == poolTagSlab {
			// Bump hit the slab link: grow by one slab.
			addr = p.addSlab(addr)
			node = (*PoolNode)(unsafe.Pointer(addr))
		}
		p.end = addr + p.objSize()
	}
	obj := (*T)(unsafe.Pointer(addr))
	var zero T
	*obj = zero
	(*PoolNode)(unsafe.Pointer(addr)).next = p.nextID
	p.nextID += 4
	return obj
}

// Free returns obj to the free list. Panics on double free: a freed slot's
// link is no longer live-tagged.
func (p *Pool[T]) Free(obj *T) {
	node := (*PoolNode)(unsafe.Pointer(obj))
	if node.next&poolTagMask != 0 {
		panic("mem: pool double free")
	}
	node.next = p.free
	p.free = uintptr(unsafe.Pointer(obj)) | poolTagFree
}
