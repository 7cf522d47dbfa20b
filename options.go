// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"runtime"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"

	"code.hybscloud.com/fiber/mem"
)

// Options configures the runtime. The zero value of any field means "use
// the default". See [DefaultOptions] for the concrete defaults.
type Options struct {
	// Workers is the number of scheduler threads. Default: one per usable
	// CPU, honoring container CPU quota.
	Workers int

	// Fibers is the size of the preallocated fiber pool. Every fiber owns
	// one 64 KiB page for its lifetime. Default 512.
	Fibers int

	// JobQueueCap bounds the global job queue; rounds up to a power of two.
	// Default 8192.
	JobQueueCap int

	// ArenaSize is the contiguous reservation behind fiber pages and slab
	// allocations, in bytes. Default: sized to the fiber pool with headroom,
	// capped at an eighth of physical memory.
	ArenaSize uintptr

	// BuddyRegion is the per-worker buddy allocator region size. Default 8 MiB.
	BuddyRegion uintptr

	// BuddyMin is the smallest buddy block. Default 64.
	BuddyMin uintptr

	// Logger receives runtime events. Default: a disabled logger.
	Logger *zerolog.Logger
}

// DefaultOptions returns the defaults described on [Options].
func DefaultOptions() *Options {
	o := &Options{}
	o.fill()
	return o
}

func (o *Options) fill() {
	if o.Workers <= 0 {
		// automaxprocs aligns GOMAXPROCS with the cgroup CPU quota; a
		// worker per schedulable CPU, not per installed CPU.
		_, _ = maxprocs.Set()
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Fibers <= 0 {
		o.Fibers = 512
	}
	if o.JobQueueCap <= 0 {
		o.JobQueueCap = 8192
	}
	if o.BuddyRegion == 0 {
		o.BuddyRegion = 8 << 20
	}
	if o.BuddyMin == 0 {
		o.BuddyMin = 64
	}
	if o.ArenaSize == 0 {
		pages := uintptr(o.Fibers+o.Workers+32) * mem.ChunkSize
		o.ArenaSize = pages * 4
		if total := uintptr(memory.TotalMemory()); total != 0 && o.ArenaSize > total/8 {
			o.ArenaSize = total / 8
		}
		if o.ArenaSize < pages {
			o.ArenaSize = pages
		}
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// Builder configures and starts the runtime fluently:
//
//	err := fiber.Configure().Workers(4).Fibers(256).Init()
type Builder struct {
	opts Options
}

// Configure starts a runtime builder with all defaults.
func Configure() *Builder {
	return &Builder{}
}

// Workers sets the scheduler thread count.
func (b *Builder) Workers(n int) *Builder {
	b.opts.Workers = n
	return b
}

// Fibers sets the fiber pool size.
func (b *Builder) Fibers(n int) *Builder {
	b.opts.Fibers = n
	return b
}

// JobQueue sets the global job queue capacity.
func (b *Builder) JobQueue(n int) *Builder {
	b.opts.JobQueueCap = n
	return b
}

// Arena sets the arena reservation in bytes.
func (b *Builder) Arena(size uintptr) *Builder {
	b.opts.ArenaSize = size
	return b
}

// Logger sets the runtime logger.
func (b *Builder) Logger(l zerolog.Logger) *Builder {
	b.opts.Logger = &l
	return b
}

// Init starts the runtime with the built options.
func (b *Builder) Init() error {
	return Init(&b.opts)
}
