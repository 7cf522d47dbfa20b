// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a non-blocking operation could not proceed. A
// control flow signal, not a failure. Alias of [iox.ErrWouldBlock] for
// ecosystem consistency. The channel methods do not return it: TryPut on a
// full channel and TryGet on an empty one report false.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClosed indicates an operation on a closed channel. Like a queue-full
// condition this is a normal outcome. The channel methods do not return it:
// they report a closed channel as a false result.
var ErrClosed = errors.New("fiber: channel closed")

// ErrNotRunning indicates the runtime has not been initialized (or has been
// shut down).
var ErrNotRunning = errors.New("fiber: runtime not running")

// IsWouldBlock reports whether err signals backpressure rather than failure.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
