// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mem provides the memory infrastructure under the fiber runtime:
// the allocator capability, a virtual-memory system allocator, a slab arena,
// a per-worker buddy cache, a fiber-local region allocator, a tagged
// slab-object pool, an offset heap for logical address spaces, and a
// generational resource-handle slab.
//
// # The allocator capability
//
// Every allocator is reached through the single-method [Allocator] interface.
// One realloc entry point realizes the whole malloc family:
//
//	p := mem.Malloc(a, 64)        // Realloc(nil, 0, 64)
//	p = mem.Realloc(a, p, 64, 128)
//	mem.Free(a, p, 128)           // Realloc(p, 128, 0)
//
// Components receive an Allocator and may only use this contract; they never
// own the allocator they were given.
//
// # Heap discipline
//
// The arena, buddy regions and region-allocator overflow pages live outside
// the Go heap. Off-heap words only ever hold addresses of other off-heap
// memory; anything the garbage collector must see (control blocks holding
// futures, channel payloads) is stored in Go-heap chunks pinned by their
// owning pool. Mixing the two is a correctness bug, not a style choice.
package mem
