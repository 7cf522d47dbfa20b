// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package fiber

import (
	"errors"

	"golang.org/x/sys/unix"
)

// File open flags accepted by [Open].
const (
	FileRead   = unix.O_RDONLY
	FileWrite  = unix.O_WRONLY
	FileRW     = unix.O_RDWR
	FileCreate = unix.O_CREAT
	FileTrunc  = unix.O_TRUNC
	FileAppend = unix.O_APPEND
)

func errnoResult(err error) int64 {
	if err == nil {
		return 0
	}
	var e unix.Errno
	if errors.As(err, &e) {
		return -int64(e)
	}
	return -int64(unix.EIO)
}

// Open opens path with the File* flags. The result is the file descriptor,
// or -errno.
func Open(path string, flags int) *Future {
	return submitIO(func() int64 {
		fd, err := unix.Open(path, flags, 0o644)
		if err != nil {
			return errnoResult(err)
		}
		return int64(fd)
	})
}

// Read reads into buf at the given file offset. buf belongs to the
// operation until the future completes. The result is the byte count, or
// -errno.
func Read(fd int64, buf []byte, offset int64) *Future {
	return submitIO(func() int64 {
		n, err := unix.Pread(int(fd), buf, offset)
		if err != nil {
			return errnoResult(err)
		}
		return int64(n)
	})
}

// Write writes buf at the given file offset. The result is the byte count,
// or -errno.
func Write(fd int64, buf []byte, offset int64) *Future {
	return submitIO(func() int64 {
		n, err := unix.Pwrite(int(fd), buf, offset)
		if err != nil {
			return errnoResult(err)
		}
		return int64(n)
	})
}

// Close closes a descriptor. The result is 0 or -errno.
func Close(fd int64) *Future {
	return submitIO(func() int64 {
		return errnoResult(unix.Close(int(fd)))
	})
}

// Mkdir creates a directory. The result is 0 or -errno.
func Mkdir(path string) *Future {
	return submitIO(func() int64 {
		return errnoResult(unix.Mkdir(path, 0o755))
	})
}

// Rmdir removes an empty directory. The result is 0 or -errno.
func Rmdir(path string) *Future {
	return submitIO(func() int64 {
		return errnoResult(unix.Rmdir(path))
	})
}

// Rename moves path to newPath. The result is 0 or -errno.
func Rename(path, newPath string) *Future {
	return submitIO(func() int64 {
		return errnoResult(unix.Rename(path, newPath))
	})
}

// Link creates a hard link. The result is 0 or -errno.
func Link(path, newPath string) *Future {
	return submitIO(func() int64 {
		return errnoResult(unix.Link(path, newPath))
	})
}

// Unlink removes a file. The result is 0 or -errno.
func Unlink(path string) *Future {
	return submitIO(func() int64 {
		return errnoResult(unix.Unlink(path))
	})
}
