// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring provides the bounded MPMC ring under the runtime's job queue
// and the per-worker event-loop completion queues.
//
// The algorithm is the per-cell sequence-number design: each cell carries a
// sequence counter initialized to its index. A producer may write cell i
// when seq == pos, publishing seq = pos+1; a consumer may read when
// seq == pos+1, publishing seq = pos+capacity. Full and empty are reported
// as plain booleans: both are normal scheduler conditions, not errors.
package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

type cell[T any] struct {
	seq  atomix.Uint64
	data T
	_    [64 - 8]byte // pad to cache line
}

// Queue is a bounded multi-producer multi-consumer FIFO.
// Capacity rounds up to a power of two >= 2. FIFO holds per producer.
type Queue[T any] struct {
	_     [64]byte
	tail  atomix.Uint64 // producer index
	_     [64 - 8]byte
	head  atomix.Uint64 // consumer index
	_     [64 - 8]byte
	cells []cell[T]
	mask  uint64
}

// New creates a queue with at least the given capacity.
func New[T any](capacity int) *Queue[T] {
	if capacity < 2 {
		capacity = 2
	}
	n := uint64(1)
	for n < uint64(capacity) {
		n <<= 1
	}
	q := &Queue[T]{
		cells: make([]cell[T], n),
		mask:  n - 1,
	}
	for i := uint64(0); i < n; i++ {
		q.cells[i].seq.StoreRelaxed(i)
	}
	return q
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int { return int(q.mask + 1) }

// Enqueue appends v. Reports false when the queue is full.
func (q *Queue[T]) Enqueue(v T) bool {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadRelaxed()
		c := &q.cells[tail&q.mask]
		seq := c.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)
		if diff == 0 {
			if q.tail.CompareAndSwapRelaxed(tail, tail+1) {
				c.data = v
				c.seq.StoreRelease(tail + 1)
				return true
			}
		} else if diff < 0 {
			return false
		}
		sw.Once()
	}
}

// Dequeue removes the oldest element. Reports false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadRelaxed()
		c := &q.cells[head&q.mask]
		seq := c.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)
		if diff == 0 {
			if q.head.CompareAndSwapRelaxed(head, head+1) {
				v := c.data
				var zero T
				c.data = zero
				c.seq.StoreRelease(head + q.mask + 1)
				return v, true
			}
		} else if diff < 0 {
			var zero T
			return zero, false
		}
		sw.Once()
	}
}
