// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "testing"

type resource struct {
	kind int
}

func TestHandleSlabBasic(t *testing.T) {
	s := NewHandleSlab[resource]()

	h, obj := s.Alloc()
	if obj == nil {
		t.Fatal("Alloc returned nil slot")
	}
	obj.kind = 3

	got := s.Get(h)
	if got != obj {
		t.Fatalf("Get: got %p, want %p", got, obj)
	}
	if got.kind != 3 {
		t.Fatalf("slot content: got %d, want 3", got.kind)
	}

	s.Free(h)
	if s.Get(h) != nil {
		t.Fatal("stale handle resolved after Free")
	}
	// Freeing again is a no-op.
	s.Free(h)
}

func TestHandleGenerationsNeverRepeat(t *testing.T) {
	s := NewHandleSlab[resource]()
	seen := make(map[uint32]bool)
	var stale []Handle
	for range 1000 {
		h, _ := s.Alloc()
		if seen[h.Generation()] {
			t.Fatalf("generation %d repeated", h.Generation())
		}
		seen[h.Generation()] = true
		stale = append(stale, h)
		s.Free(h)
	}
	// Slots recycle; handles never do.
	for _, h := range stale {
		if s.Get(h) != nil {
			t.Fatalf("stale handle (gen %d) resolved", h.Generation())
		}
	}
}

func TestHandleChunkGrowth(t *testing.T) {
	s := NewHandleSlab[resource]()
	handles := make([]Handle, 1000)
	for i := range handles {
		h, obj := s.Alloc()
		obj.kind = i
		handles[i] = h
	}
	for i, h := range handles {
		obj := s.Get(h)
		if obj == nil || obj.kind != i {
			t.Fatalf("handle %d: lost across chunk growth", i)
		}
	}
}
