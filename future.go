// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

const futureSlots = 4

// Waitable is the payload a future can carry: an instance destroyed exactly
// once when the future is freed, and the int64 result handed to waiters.
// The last producer writes the result before its final decrement.
type Waitable struct {
	// Instance is passed to Dtor when the owning future is freed.
	Instance any
	// Dtor releases Instance. May be nil.
	Dtor func(instance any)

	result atomix.Int64
}

// SetResult publishes the result waiters will observe.
func (w *Waitable) SetResult(v int64) {
	w.result.StoreRelease(v)
}

// Result returns the published result.
func (w *Waitable) Result() int64 {
	return w.result.LoadAcquire()
}

// futSlot is one waiter registration.
//
// Lifecycle: a waiter claims the slot by CAS-ing its fiber id into fiber,
// writes target, then opens the slot with inuse = 0. A wake scan claims an
// open slot whose target matches by CAS-ing inuse back to 1, pushes the
// fiber onto the ready LIFO, and clears fiber. A slot is reusable when
// fiber == 0; inuse stays 1 between uses so scans never inspect a
// half-installed slot.
type futSlot struct {
	fiber  atomix.Int64 // waiting fiber id; 0 = empty
	inuse  atomix.Int64
	target int64
}

// Future is an atomic counter that parks fibers until it reaches a target
// value. Producers move the counter with Increment/Decrement; each movement
// scans the slots and wakes every registered fiber whose target equals the
// new value, exactly once.
type Future struct {
	value    atomix.Int64
	freed    atomix.Int32
	waitable *Waitable
	slots    [futureSlots]futSlot
}

// NewFuture creates a counter at value. waitable may be nil when no payload
// or result is needed.
func NewFuture(value int64, waitable *Waitable) *Future {
	c := &Future{waitable: waitable}
	c.value.StoreRelaxed(value)
	for i := range c.slots {
		c.slots[i].inuse.StoreRelaxed(1)
	}
	return c
}

// Value returns the current counter value.
func (c *Future) Value() int64 {
	return c.value.LoadAcquire()
}

func (c *Future) wakeup(v int64) {
	for i := range c.slots {
		s := &c.slots[i]
		if s.fiber.LoadAcquire() == 0 {
			continue
		}
		if s.inuse.LoadAcquire() != 0 {
			continue
		}
		if s.target != v {
			continue
		}
		if !s.inuse.CompareAndSwapAcqRel(0, 1) {
			continue
		}
		fid := s.fiber.LoadAcquire()
		Ready(globalRuntime().fiberByID(fid))
		s.fiber.StoreRelease(0)
	}
}

// Increment raises the counter and wakes matching waiters.
func (c *Future) Increment() int64 {
	v := c.value.AddAcqRel(1)
	c.wakeup(v)
	return v
}

// Decrement lowers the counter and wakes matching waiters.
func (c *Future) Decrement() int64 {
	v := c.value.AddAcqRel(-1)
	c.wakeup(v)
	return v
}

// addWaiter installs f into a free slot. installed reports whether a slot
// was claimed; done reports the target was already reached and the slot
// reclaimed, so no yield is needed.
func (c *Future) addWaiter(f *Fiber, target int64) (installed, done bool) {
	for i := range c.slots {
		s := &c.slots[i]
		if !s.fiber.CompareAndSwapAcqRel(0, int64(f.id)) {
			continue
		}
		s.target = target
		s.inuse.StoreRelease(0)

		// The counter may have hit the target between the caller's check
		// and the install; re-probe so the wake is never lost.
		probe := c.value.LoadRelaxed()
		if s.inuse.LoadAcquire() != 0 {
			// A concurrent wake claimed the slot already; park and let the
			// resume come through the ready LIFO.
			return true, false
		}
		if probe == target {
			if !s.inuse.CompareAndSwapAcqRel(0, 1) {
				return true, false
			}
			s.fiber.StoreRelease(0)
			return true, true
		}
		return true, false
	}
	return false, false
}

// Wait parks the calling fiber until the counter equals target, then
// returns the waitable's result (0 when there is no waitable).
//
// When every slot is occupied the waiter keeps rotating over them with
// backoff until one frees; there is no failure return. A caller that is not
// a fiber polls the counter with backoff instead of consuming a slot.
func (c *Future) Wait(target int64) int64 {
	if f := currentFiber(); f != nil {
		bo := iox.Backoff{}
		for {
			installed, done := c.addWaiter(f, target)
			if done {
				break
			}
			if installed {
				// Parked without self-readying: the wake scan owns the
				// resume.
				f.park(nil)
				break
			}
			bo.Wait()
		}
	} else {
		bo := iox.Backoff{}
		for c.value.LoadAcquire() != target {
			bo.Wait()
		}
	}
	if c.waitable == nil {
		return 0
	}
	return c.waitable.Result()
}

// Free runs the waitable's destructor. Exactly one Free takes effect;
// later calls are no-ops.
func (c *Future) Free() {
	if !c.freed.CompareAndSwapAcqRel(0, 1) {
		return
	}
	w := c.waitable
	if w != nil && w.Dtor != nil && w.Instance != nil {
		w.Dtor(w.Instance)
	}
}

// WaitAndFree waits for target, frees the future, and returns the result.
func (c *Future) WaitAndFree(target int64) int64 {
	r := c.Wait(target)
	c.Free()
	return r
}

// Await waits for the future to count down to zero and frees it: the shape
// nearly every producer/consumer pair in the engine uses.
func Await(c *Future) int64 {
	return c.WaitAndFree(0)
}
