// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package fiber_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/fiber"
)

func TestAIOReadWriteRoundTrip(t *testing.T) {
	withRuntime(t)

	path := filepath.Join(t.TempDir(), "blob")
	payload := []byte("counter runtimes move bytes too")

	fd := fiber.Await(fiber.Open(path, fiber.FileRW|fiber.FileCreate))
	require.GreaterOrEqual(t, fd, int64(0), "open result is the fd")

	n := fiber.Await(fiber.Write(fd, payload, 0))
	require.Equal(t, int64(len(payload)), n)

	got := make([]byte, len(payload))
	n = fiber.Await(fiber.Read(fd, got, 0))
	require.Equal(t, int64(len(payload)), n)
	require.True(t, bytes.Equal(payload, got))

	require.Equal(t, int64(0), fiber.Await(fiber.Close(fd)))
}

func TestAIOFromFiber(t *testing.T) {
	withRuntime(t)

	path := filepath.Join(t.TempDir(), "from-fiber")
	fut := fiber.Go(func(any) int64 {
		fd := fiber.Await(fiber.Open(path, fiber.FileWrite|fiber.FileCreate))
		if fd < 0 {
			return fd
		}
		n := fiber.Await(fiber.Write(fd, []byte("hi"), 0))
		fiber.Await(fiber.Close(fd))
		return n
	}, nil)
	require.Equal(t, int64(2), fiber.Await(fut))
}

func TestAIOStat(t *testing.T) {
	withRuntime(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "stat-me")
	fd := fiber.Await(fiber.Open(path, fiber.FileWrite|fiber.FileCreate))
	require.GreaterOrEqual(t, fd, int64(0))
	require.Equal(t, int64(5), fiber.Await(fiber.Write(fd, []byte("12345"), 0)))
	fiber.Await(fiber.Close(fd))

	var st fiber.Stat
	require.Equal(t, int64(0), fiber.Await(fiber.StatPath(&st, path)))
	require.True(t, st.Exists)
	require.False(t, st.Dir)
	require.Equal(t, int64(5), st.Size)

	var missing fiber.Stat
	require.Equal(t, int64(0), fiber.Await(fiber.StatPath(&missing, filepath.Join(dir, "nope"))))
	require.False(t, missing.Exists)
}

func TestAIODirOps(t *testing.T) {
	withRuntime(t)

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.Equal(t, int64(0), fiber.Await(fiber.Mkdir(sub)))

	for _, name := range []string{"a", "b", "c"} {
		fd := fiber.Await(fiber.Open(filepath.Join(sub, name), fiber.FileWrite|fiber.FileCreate))
		require.GreaterOrEqual(t, fd, int64(0))
		fiber.Await(fiber.Close(fd))
	}

	var names []string
	require.Equal(t, int64(3), fiber.Await(fiber.ScanDir(sub, &names)))
	require.ElementsMatch(t, []string{"a", "b", "c"}, names)

	require.Equal(t, int64(0), fiber.Await(fiber.Rename(filepath.Join(sub, "a"), filepath.Join(sub, "z"))))
	require.Equal(t, int64(0), fiber.Await(fiber.Unlink(filepath.Join(sub, "z"))))
	require.Equal(t, int64(0), fiber.Await(fiber.Unlink(filepath.Join(sub, "b"))))
	require.Equal(t, int64(0), fiber.Await(fiber.Unlink(filepath.Join(sub, "c"))))
	require.Equal(t, int64(0), fiber.Await(fiber.Rmdir(sub)))

	require.Less(t, fiber.Await(fiber.Rmdir(filepath.Join(dir, "missing"))), int64(0),
		"errors surface as -errno")
}

func TestAIOCopyFile(t *testing.T) {
	withRuntime(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	fd := fiber.Await(fiber.Open(src, fiber.FileWrite|fiber.FileCreate))
	require.GreaterOrEqual(t, fd, int64(0))
	require.Equal(t, int64(4), fiber.Await(fiber.Write(fd, []byte("data"), 0)))
	fiber.Await(fiber.Close(fd))

	require.Equal(t, int64(4), fiber.Await(fiber.CopyFile(src, dst)))

	var st fiber.Stat
	fiber.Await(fiber.StatPath(&st, dst))
	require.True(t, st.Exists)
	require.Equal(t, int64(4), st.Size)
}
