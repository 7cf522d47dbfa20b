// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "code.hybscloud.com/iox"

// fiberList is an intrusive FIFO of parked fibers. The links live inside
// the fibers (waitNext) and are owned by whichever list currently holds the
// fiber; the fiber itself stays owned by the pool.
type fiberList struct {
	head, tail *Fiber
}

func (l *fiberList) empty() bool { return l.head == nil }

func (l *fiberList) pushBack(f *Fiber) {
	f.waitNext = nil
	if l.tail == nil {
		l.head, l.tail = f, f
		return
	}
	l.tail.waitNext = f
	l.tail = f
}

func (l *fiberList) popFront() *Fiber {
	f := l.head
	if f == nil {
		return nil
	}
	l.head = f.waitNext
	if l.head == nil {
		l.tail = nil
	}
	f.waitNext = nil
	return f
}

func (l *fiberList) notifyOne() {
	if f := l.popFront(); f != nil {
		Ready(f)
	}
}

func (l *fiberList) notifyAll() {
	for f := l.popFront(); f != nil; f = l.popFront() {
		Ready(f)
	}
}

// Channel is a bounded rendezvous queue of values with blocking, fiber-aware
// Get and Put. Blocked fibers park on the producer or consumer wait list and
// are woken one at a time by their counterparts. A closed channel fails all
// operations; that is a normal outcome, not an error condition.
type Channel struct {
	lock      Lock
	producers fiberList
	consumers fiberList
	slots     []any
	head      uint32 // next write
	tail      uint32 // next read
	closed    bool
}

// NewChannel creates a channel holding up to capacity values.
func NewChannel(capacity int) *Channel {
	if capacity < 1 {
		capacity = 1
	}
	// One spare slot: head == tail must mean empty, not full.
	return &Channel{slots: make([]any, capacity+1)}
}

// Cap returns the channel capacity.
func (c *Channel) Cap() int { return len(c.slots) - 1 }

func (c *Channel) full() bool {
	return c.tail == (c.head+1)%uint32(len(c.slots))
}

func (c *Channel) empty() bool {
	return c.tail == c.head
}

// Put appends v, parking the calling fiber while the channel is full.
// Reports false when the channel is (or becomes) closed.
func (c *Channel) Put(v any) bool {
	f := currentFiber()
	bo := iox.Backoff{}
	for {
		c.lock.Acquire()
		if c.closed {
			c.lock.Release()
			return false
		}
		if !c.full() {
			c.slots[c.head] = v
			c.head = (c.head + 1) % uint32(len(c.slots))
			c.consumers.notifyOne()
			c.lock.Release()
			return true
		}
		if f != nil {
			c.producers.pushBack(f)
			Yield(&c.lock) // scheduler releases the lock once we are parked
		} else {
			c.lock.Release()
			bo.Wait()
		}
	}
}

// Get removes the oldest value, parking the calling fiber while the channel
// is empty. Reports false when the channel is (or becomes) closed.
func (c *Channel) Get() (any, bool) {
	f := currentFiber()
	bo := iox.Backoff{}
	for {
		c.lock.Acquire()
		if c.closed {
			c.lock.Release()
			return nil, false
		}
		if !c.empty() {
			v := c.slots[c.tail]
			c.slots[c.tail] = nil
			c.tail = (c.tail + 1) % uint32(len(c.slots))
			c.producers.notifyOne()
			c.lock.Release()
			return v, true
		}
		if f != nil {
			c.consumers.pushBack(f)
			Yield(&c.lock)
		} else {
			c.lock.Release()
			bo.Wait()
		}
	}
}

// TryPut appends v without blocking. Reports false when the channel is full
// or closed.
func (c *Channel) TryPut(v any) bool {
	c.lock.Acquire()
	if c.closed || c.full() {
		c.lock.Release()
		return false
	}
	c.slots[c.head] = v
	c.head = (c.head + 1) % uint32(len(c.slots))
	c.consumers.notifyOne()
	c.lock.Release()
	return true
}

// TryGet removes the oldest value without blocking. Reports false when the
// channel is empty or closed.
func (c *Channel) TryGet() (any, bool) {
	c.lock.Acquire()
	if c.closed || c.empty() {
		c.lock.Release()
		return nil, false
	}
	v := c.slots[c.tail]
	c.slots[c.tail] = nil
	c.tail = (c.tail + 1) % uint32(len(c.slots))
	c.producers.notifyOne()
	c.lock.Release()
	return v, true
}

// PutAsync runs Put as a single job and returns its future; the result is
// 1 on success, 0 on a closed channel.
func (c *Channel) PutAsync(v any) *Future {
	return Go(func(any) int64 {
		if c.Put(v) {
			return 1
		}
		return 0
	}, nil)
}

// GetAsync runs Get as a single job; out receives the value. The future's
// result is 1 on success, 0 on a closed channel.
func (c *Channel) GetAsync(out *any) *Future {
	return Go(func(any) int64 {
		v, ok := c.Get()
		if !ok {
			return 0
		}
		*out = v
		return 1
	}, nil)
}

// Close wakes every parked producer and consumer; all subsequent operations
// report failure. Closing twice is harmless.
func (c *Channel) Close() {
	c.lock.Acquire()
	if !c.closed {
		c.closed = true
		c.producers.notifyAll()
		c.consumers.notifyAll()
	}
	c.lock.Release()
}

// Destroy drops the channel's storage. The channel must be closed and all
// waiters drained.
func (c *Channel) Destroy() {
	c.lock.Acquire()
	c.slots = nil
	c.lock.Release()
}
