// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "testing"

type poolObj struct {
	node  PoolNode
	value int
	ref   *int
}

func TestPoolAllocFree(t *testing.T) {
	p := NewPool[poolObj](4)

	a := p.Alloc()
	a.value = 42
	b := p.Alloc()
	if a == b {
		t.Fatal("distinct allocs share a slot")
	}
	p.Free(a)
	c := p.Alloc()
	if c != a {
		t.Fatalf("free list not LIFO: got %p, want %p", c, a)
	}
	if c.value != 0 {
		t.Fatalf("recycled object not zeroed: value %d", c.value)
	}
	p.Free(b)
	p.Free(c)
}

func TestPoolGrowth(t *testing.T) {
	p := NewPool[poolObj](4) // 3 payload slots per slab
	objs := make([]*poolObj, 100)
	seen := make(map[*poolObj]bool)
	for i := range objs {
		objs[i] = p.Alloc()
		if seen[objs[i]] {
			t.Fatalf("slot %d handed out twice", i)
		}
		seen[objs[i]] = true
		objs[i].value = i
	}
	for i, o := range objs {
		if o.value != i {
			t.Fatalf("object %d: value %d clobbered by growth", i, o.value)
		}
	}
	for _, o := range objs {
		p.Free(o)
	}
}

func TestPoolDoubleFreePanics(t *testing.T) {
	p := NewPool[poolObj](4)
	o := p.Alloc()
	p.Free(o)
	defer func() {
		if recover() == nil {
			t.Fatal("double free did not panic")
		}
	}()
	p.Free(o)
}

func TestPoolKeepsGoPointersAlive(t *testing.T) {
	p := NewPool[poolObj](4)
	o := p.Alloc()
	n := 7
	o.ref = &n
	if *o.ref != 7 {
		t.Fatal("pool slot lost its Go pointer")
	}
	p.Free(o)
}
