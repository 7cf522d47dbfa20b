// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lifo provides an ABA-tagged lock-free LIFO (Treiber stack) over
// 64 KiB-aligned nodes.
//
// The head word packs a node address with a 16-bit modification tag in the
// low bits. Node addresses must therefore be aligned to 64 KiB so those bits
// are free; the alignment is enforced on Push. The tag increments on every
// push, which makes the classic ABA window (pop A, pop B, push A) require
// 65536 intervening pushes inside one CAS attempt to go unnoticed.
//
// Nodes live outside the Go heap (arena slabs, fiber pages). The list stores
// raw addresses only and never keeps a node alive for the garbage collector.
// The first pointer-sized word of each node is owned by the list while the
// node is linked.
package lifo

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// NodeAlign is the required alignment of node addresses.
const NodeAlign = 1 << 16

const tagMask = NodeAlign - 1

// List is a lock-free LIFO of 64 KiB-aligned nodes.
// The zero value is an empty list ready for use.
type List struct {
	head atomix.Uintptr
	_    [64 - unsafe.Sizeof(uintptr(0))]byte // pad to cache line
}

func nodeOf(word uintptr) uintptr { return word &^ uintptr(tagMask) }
func tagOf(word uintptr) uintptr  { return word & tagMask }

// Empty reports whether the list currently has no nodes.
func (l *List) Empty() bool {
	return nodeOf(l.head.LoadAcquire()) == 0
}

// Push links node onto the list.
// Panics unless node is 64 KiB-aligned and non-nil.
func (l *List) Push(node unsafe.Pointer) {
	addr := uintptr(node)
	if addr == 0 || addr&tagMask != 0 {
		panic("lifo: node must be a non-nil 64KiB-aligned address")
	}
	sw := spin.Wait{}
	for {
		head := l.head.LoadAcquire()
		*(*uintptr)(node) = nodeOf(head)
		next := addr | (tagOf(head)+1)&tagMask
		if l.head.CompareAndSwapAcqRel(head, next) {
			return
		}
		sw.Once()
	}
}

// Pop unlinks and returns the most recently pushed node,
// or nil when the list is empty.
func (l *List) Pop() unsafe.Pointer {
	sw := spin.Wait{}
	for {
		head := l.head.LoadAcquire()
		addr := nodeOf(head)
		if addr == 0 {
			return nil
		}
		next := *(*uintptr)(unsafe.Pointer(addr))
		if l.head.CompareAndSwapAcqRel(head, nodeOf(next)|tagOf(head)) {
			return unsafe.Pointer(addr)
		}
		sw.Once()
	}
}
