// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

import "math/bits"

// nextPow2 rounds n up to the next power of 2. nextPow2(0) == 1.
func nextPow2(n uintptr) uintptr {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(uint64(n-1))
}

func isPow2(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// log2 of a power of two.
func log2(n uintptr) uint {
	return uint(bits.TrailingZeros64(uint64(n)))
}

// alignUp rounds n up to a multiple of align (a power of two).
func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// alignDivisor returns the largest power of two that divides n.
// For n == 0 (zero is divisible by anything) it falls back to the largest
// power of two dividing limit.
func alignDivisor(n, limit uintptr) uintptr {
	if n == 0 {
		n = limit
	}
	return n & -n
}
