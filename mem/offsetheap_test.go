// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import (
	"math/rand"
	"testing"
)

func TestOffsetHeapBasic(t *testing.T) {
	h := NewOffsetHeap(1 << 16)

	a := h.Alloc(100, 1)
	if !a.Valid() {
		t.Fatal("alloc failed on empty heap")
	}
	if a.Offset != 0 || a.Size < 100 {
		t.Fatalf("first alloc: got (%d, %d)", a.Offset, a.Size)
	}
	if h.Used() != a.Size {
		t.Fatalf("Used: got %d, want %d", h.Used(), a.Size)
	}
	h.Free(a)
	if !h.Empty() {
		t.Fatal("heap not empty after freeing everything")
	}
	if h.FreeBlocks() != 1 {
		t.Fatalf("FreeBlocks: got %d, want 1", h.FreeBlocks())
	}
}

func TestOffsetHeapAlignmentDividesCapacity(t *testing.T) {
	// The alignment of an empty heap is the largest power of two dividing
	// the capacity, not merely one below it.
	for _, tc := range []struct{ cap, want uintptr }{
		{1 << 16, 1 << 16},
		{1000, 8},
		{3 << 20, 1 << 20},
		{4096 + 256, 256},
	} {
		h := NewOffsetHeap(tc.cap)
		if h.Alignment() != tc.want {
			t.Fatalf("cap %d: alignment got %d, want %d", tc.cap, h.Alignment(), tc.want)
		}
		a := h.Alloc(100, 1)
		h.Free(a)
		if h.Alignment() != tc.want {
			t.Fatalf("cap %d: alignment %d not restored on empty, want %d",
				tc.cap, h.Alignment(), tc.want)
		}
	}
}

func TestOffsetHeapAlignment(t *testing.T) {
	h := NewOffsetHeap(1 << 16)

	// Misalign the space with a small carve, then demand alignment.
	first := h.Alloc(3, 1)
	for _, align := range []uintptr{1, 4, 64, 256, 4096} {
		a := h.Alloc(50, align)
		if !a.Valid() {
			t.Fatalf("alloc(50, %d) failed", align)
		}
		if a.Offset%align != 0 {
			t.Fatalf("alloc(50, %d): offset %d misaligned", align, a.Offset)
		}
		if a.Size < 50 {
			t.Fatalf("alloc(50, %d): carved %d < requested", align, a.Size)
		}
		h.Free(a)
	}
	h.Free(first)
	if !h.Empty() {
		t.Fatal("heap should be empty")
	}
}

func TestOffsetHeapAccounting(t *testing.T) {
	const cap = 1 << 14
	h := NewOffsetHeap(cap)
	rng := rand.New(rand.NewSource(3))

	var live []Allocation
	for range 4096 {
		if len(live) > 0 && rng.Intn(2) == 0 {
			i := rng.Intn(len(live))
			h.Free(live[i])
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		} else {
			a := h.Alloc(uintptr(1+rng.Intn(200)), 1<<uint(rng.Intn(5)))
			if a.Valid() {
				live = append(live, a)
			}
		}
		if h.FreeBytes()+h.Used() != cap {
			t.Fatalf("free %d + used %d != cap %d", h.FreeBytes(), h.Used(), cap)
		}
		// Adjacent frees merge: free blocks never exceed live+1.
		if h.FreeBlocks() > len(live)+1 {
			t.Fatalf("%d free blocks with %d live allocations", h.FreeBlocks(), len(live))
		}
	}
	for _, a := range live {
		h.Free(a)
	}
	if !h.Empty() || h.FreeBlocks() != 1 {
		t.Fatalf("after draining: empty=%v blocks=%d", h.Empty(), h.FreeBlocks())
	}
}

// Churn: cycle sizes, free in reverse, expect a single (0, cap) block and a
// fully restored alignment. Runs over power-of-two and non-power-of-two
// capacities; the restored alignment is the capacity's own divisor.
func TestOffsetHeapChurn(t *testing.T) {
	sizes := []uintptr{1, 64, 1024}
	for _, cap := range []uintptr{1 << 21, 3 << 20, (1 << 21) + 512} {
		h := NewOffsetHeap(cap)

		allocs := make([]Allocation, 0, 1024)
		for i := range 1024 {
			a := h.Alloc(sizes[i%len(sizes)], 1)
			if !a.Valid() {
				t.Fatalf("cap %d: alloc %d failed", cap, i)
			}
			allocs = append(allocs, a)
		}
		for i := len(allocs) - 1; i >= 0; i-- {
			h.Free(allocs[i])
		}
		if !h.Empty() {
			t.Fatalf("cap %d: heap not empty after reverse frees", cap)
		}
		if h.FreeBlocks() != 1 {
			t.Fatalf("cap %d: FreeBlocks got %d, want 1", cap, h.FreeBlocks())
		}
		want := cap & -cap
		if h.Alignment() != want {
			t.Fatalf("cap %d: Alignment got %d, want %d", cap, h.Alignment(), want)
		}
	}
}

func TestOffsetHeapExhaustion(t *testing.T) {
	h := NewOffsetHeap(256)
	a := h.Alloc(256, 1)
	if !a.Valid() {
		t.Fatal("full-space alloc failed")
	}
	if b := h.Alloc(1, 1); b.Valid() {
		t.Fatalf("alloc on full heap succeeded: (%d, %d)", b.Offset, b.Size)
	}
	if !h.Full() {
		t.Fatal("heap should be full")
	}
	h.Free(a)
}
