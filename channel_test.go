// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/fiber"
)

// Ping-pong: two fibers over a capacity-1 channel. A sends 1 then reads; B
// reads then sends 2. A must observe 2 and B must observe 1.
func TestChannelPingPong(t *testing.T) {
	withRuntime(t)

	ch := fiber.NewChannel(1)
	a := fiber.Go(func(any) int64 {
		if !ch.Put(1) {
			return -1
		}
		v, ok := ch.Get()
		if !ok {
			return -2
		}
		return int64(v.(int))
	}, nil)
	b := fiber.Go(func(any) int64 {
		v, ok := ch.Get()
		if !ok {
			return -3
		}
		if !ch.Put(2) {
			return -4
		}
		return int64(v.(int))
	}, nil)

	require.Equal(t, int64(2), fiber.Await(a), "A observes B's value")
	require.Equal(t, int64(1), fiber.Await(b), "B observes A's value")
	ch.Close()
}

func TestChannelCapacityBound(t *testing.T) {
	withRuntime(t)

	ch := fiber.NewChannel(3)
	require.Equal(t, 3, ch.Cap())
	for i := range 3 {
		require.True(t, ch.TryPut(i), "TryPut %d within capacity", i)
	}
	require.False(t, ch.TryPut(99), "TryPut beyond capacity")
	for i := range 3 {
		v, ok := ch.TryGet()
		require.True(t, ok)
		require.Equal(t, i, v.(int), "FIFO order")
	}
	_, ok := ch.TryGet()
	require.False(t, ok, "TryGet on empty")
	ch.Close()
}

func TestChannelCloseWakesWaiters(t *testing.T) {
	withRuntime(t)

	// A consumer parked on an empty channel.
	empty := fiber.NewChannel(1)
	waiter := fiber.Go(func(any) int64 {
		if _, ok := empty.Get(); ok {
			return -1
		}
		return 1 // closed is the expected, normal outcome
	}, nil)

	// A producer parked on a full channel no one drains.
	full := fiber.NewChannel(1)
	require.True(t, full.TryPut(0))
	blocked := fiber.Go(func(any) int64 {
		if full.Put(1) {
			return -2
		}
		return 2
	}, nil)

	time.Sleep(10 * time.Millisecond)
	empty.Close()
	full.Close()

	require.Equal(t, int64(1), fiber.Await(waiter))
	require.Equal(t, int64(2), fiber.Await(blocked))

	// Everything fails after close.
	require.False(t, full.TryPut(5))
	_, ok := full.TryGet()
	require.False(t, ok)
	require.False(t, full.Put(5))
	_, ok = empty.Get()
	require.False(t, ok)
	empty.Destroy()
	full.Destroy()
}

func TestChannelAsync(t *testing.T) {
	withRuntime(t)

	ch := fiber.NewChannel(2)
	require.Equal(t, int64(1), fiber.Await(ch.PutAsync(7)))
	var out any
	require.Equal(t, int64(1), fiber.Await(ch.GetAsync(&out)))
	require.Equal(t, 7, out.(int))
	ch.Close()
}

func TestChannelManyValues(t *testing.T) {
	withRuntime(t)

	const n = 1000
	ch := fiber.NewChannel(8)
	producer := fiber.Go(func(any) int64 {
		for i := range n {
			if !ch.Put(i) {
				return -1
			}
		}
		return 0
	}, nil)
	consumer := fiber.Go(func(any) int64 {
		sum := int64(0)
		for range n {
			v, ok := ch.Get()
			if !ok {
				return -1
			}
			sum += int64(v.(int))
		}
		return sum
	}, nil)

	require.Equal(t, int64(0), fiber.Await(producer))
	require.Equal(t, int64(n*(n-1)/2), fiber.Await(consumer))
	ch.Close()
}
