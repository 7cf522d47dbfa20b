// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package goid resolves the identity of the calling goroutine. The runtime
// uses it as the thread-local-storage equivalent: fiber and worker
// goroutines are registered by id once at startup, and the hot paths
// (yield, scratch allocation, future waits) resolve "current fiber" with a
// read-only map lookup.
package goid

import "github.com/petermattis/goid"

// Get returns the calling goroutine's id.
func Get() int64 {
	return goid.Get()
}
