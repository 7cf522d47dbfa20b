// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package fiber

// setAffinity is a no-op where the platform offers no per-thread pinning.
func setAffinity(int) {}
