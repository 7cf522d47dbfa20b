// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "code.hybscloud.com/atomix"

// Generational resource handles: every external reference to an engine
// resource is a Handle, never a pointer. A freed slot's generation changes,
// so a stale handle can only ever observe "gone": the typed dangling
// pointer is impossible by construction.

// Handle packs (generation:32 | index:32) into a resource slab.
// The zero Handle is never valid.
type Handle uint64

// Index returns the slot index.
func (h Handle) Index() uint32 { return uint32(h) }

// Generation returns the slot generation the handle was minted with.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

const (
	handleEmpty     = 0xFFFFFFFF // stored generation of an empty slot
	handleChunkObjs = 256
)

// handleGen is the process-global generation counter shared by every slab,
// so generations are monotonically increasing and never repeat across the
// process lifetime.
var handleGen atomix.Uint64

func nextGeneration() uint32 {
	for {
		g := uint32(handleGen.AddAcqRel(1))
		if g != handleEmpty && g != 0 {
			return g
		}
	}
}

type handleChunk[T any] struct {
	objs [handleChunkObjs]T
	gens [handleChunkObjs]atomix.Uint64
}

// HandleSlab is chunked storage of T addressed by generational handles.
// Alloc and Free synchronize through a spin lock; Get holds the lock only
// to look up the chunk and checks the generation without it.
// Slots are never deallocated, so a *T stays valid until its Free, but
// holding handles, not pointers, is the point.
type HandleSlab[T any] struct {
	lock   spinLock
	chunks []*handleChunk[T]
	free   []uint32
	next   uint32 // first never-used index
}

// NewHandleSlab creates an empty slab.
func NewHandleSlab[T any]() *HandleSlab[T] {
	return &HandleSlab[T]{}
}

// Alloc reserves a slot and returns its handle and pointer.
func (s *HandleSlab[T]) Alloc() (Handle, *T) {
	gen := nextGeneration()

	s.lock.lock()
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		index = s.next
		s.next++
		if int(index/handleChunkObjs) == len(s.chunks) {
			c := &handleChunk[T]{}
			for i := range c.gens {
				c.gens[i].StoreRelaxed(handleEmpty)
			}
			s.chunks = append(s.chunks, c)
		}
	}
	c := s.chunks[index/handleChunkObjs]
	i := index % handleChunkObjs
	var zero T
	c.objs[i] = zero
	c.gens[i].StoreRelease(uint64(gen))
	s.lock.unlock()

	return Handle(uint64(gen)<<32 | uint64(index)), &c.objs[i]
}

// Get returns the slot for h, or nil when h is stale or never existed.
func (s *HandleSlab[T]) Get(h Handle) *T {
	index := h.Index()
	s.lock.lock()
	var c *handleChunk[T]
	if int(index/handleChunkObjs) < len(s.chunks) {
		c = s.chunks[index/handleChunkObjs]
	}
	s.lock.unlock()
	if c == nil {
		return nil
	}
	i := index % handleChunkObjs
	if uint32(c.gens[i].LoadAcquire()) != h.Generation() {
		return nil
	}
	return &c.objs[i]
}

// Free releases the slot behind h. Freeing a stale handle is a no-op;
// the generation can only move forward.
func (s *HandleSlab[T]) Free(h Handle) {
	index := h.Index()
	s.lock.lock()
	if int(index/handleChunkObjs) >= len(s.chunks) {
		s.lock.unlock()
		return
	}
	c := s.chunks[index/handleChunkObjs]
	i := index % handleChunkObjs
	if uint32(c.gens[i].LoadAcquire()) != h.Generation() {
		s.lock.unlock()
		return
	}
	c.gens[i].StoreRelease(handleEmpty)
	s.free = append(s.free, index)
	s.lock.unlock()
}
