// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !unix

package fiber

import "syscall"

// File open flags accepted by [Open].
const (
	FileRead   = syscall.O_RDONLY
	FileWrite  = syscall.O_WRONLY
	FileRW     = syscall.O_RDWR
	FileCreate = syscall.O_CREAT
	FileTrunc  = syscall.O_TRUNC
	FileAppend = syscall.O_APPEND
)

func errnoResult(err error) int64 {
	if err == nil {
		return 0
	}
	return notSupported
}

const notSupported = -int64(syscall.ENOSYS)

func unsupported() *Future {
	return submitIO(func() int64 { return notSupported })
}

// The descriptor-level operations need a real POSIX surface; on other
// platforms they complete with -ENOSYS. ScanDir, CopyFile and Spawn remain
// available everywhere.

func Open(string, int) *Future           { return unsupported() }
func Read(int64, []byte, int64) *Future  { return unsupported() }
func Write(int64, []byte, int64) *Future { return unsupported() }
func Close(int64) *Future                { return unsupported() }
func Mkdir(string) *Future               { return unsupported() }
func Rmdir(string) *Future               { return unsupported() }
func Rename(string, string) *Future      { return unsupported() }
func Link(string, string) *Future        { return unsupported() }
func Unlink(string) *Future              { return unsupported() }
