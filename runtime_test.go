// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/fiber"
)

// withRuntime boots a small runtime for one test.
func withRuntime(t *testing.T) {
	t.Helper()
	require.NoError(t, fiber.Init(&fiber.Options{Workers: 2, Fibers: 64}))
	t.Cleanup(fiber.Shutdown)
}

func TestInitShutdown(t *testing.T) {
	require.False(t, fiber.Running())
	require.NoError(t, fiber.Init(&fiber.Options{Workers: 2, Fibers: 16}))
	require.True(t, fiber.Running())
	require.Error(t, fiber.Init(nil), "second Init must fail")
	fiber.Shutdown()
	require.False(t, fiber.Running())

	// The runtime must come back up after a full shutdown.
	require.NoError(t, fiber.Init(&fiber.Options{Workers: 1, Fibers: 8}))
	require.Equal(t, int64(5), fiber.Await(fiber.Go(func(any) int64 { return 5 }, nil)))
	fiber.Shutdown()
}

func TestGoRunsOnFiber(t *testing.T) {
	withRuntime(t)

	require.Nil(t, fiber.Current(), "test goroutine is not a fiber")
	fut := fiber.Go(func(any) int64 {
		if fiber.Current() == nil {
			return -1
		}
		return 1
	}, nil)
	require.Equal(t, int64(1), fiber.Await(fut))
}

func TestJobArgument(t *testing.T) {
	withRuntime(t)

	type payload struct{ n int64 }
	fut := fiber.Go(func(arg any) int64 {
		return arg.(*payload).n * 2
	}, &payload{n: 21})
	require.Equal(t, int64(42), fiber.Await(fut))
}

func TestScratchAlloc(t *testing.T) {
	withRuntime(t)

	fut := fiber.Go(func(any) int64 {
		small := fiber.ScratchBytes(64)
		if small == nil {
			return -1
		}
		big := fiber.ScratchBytes(100000) // forces an overflow page
		if big == nil {
			return -2
		}
		small[0], small[63] = 1, 2
		big[0], big[99999] = 3, 4
		return int64(small[0]) + int64(big[99999])
	}, nil)
	require.Equal(t, int64(5), fiber.Await(fut))

	require.Nil(t, fiber.ScratchBytes(8), "scratch outside fiber context")
}

func TestYieldReschedules(t *testing.T) {
	withRuntime(t)

	fut := fiber.Go(func(any) int64 {
		sum := int64(0)
		for i := int64(1); i <= 10; i++ {
			sum += i
			fiber.Yield(nil)
		}
		return sum
	}, nil)
	require.Equal(t, int64(55), fiber.Await(fut))
}

// The single most important scheduler invariant: a lock passed to Yield is
// released by the scheduler after the switch completes, exactly once.
func TestYieldReleasesLock(t *testing.T) {
	withRuntime(t)

	var lk fiber.Lock
	entered := make(chan struct{})
	fut := fiber.Go(func(any) int64 {
		lk.Acquire()
		fiber.Ready(fiber.Current()) // arrange our own wake before parking
		close(entered)
		fiber.Yield(&lk)
		return 7
	}, nil)

	<-entered
	// Spins until the scheduler performs the deferred release.
	lk.Acquire()
	lk.Release()
	require.Equal(t, int64(7), fiber.Await(fut))
}

func TestAllocExposed(t *testing.T) {
	withRuntime(t)
	require.NotNil(t, fiber.Alloc())
}
