// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fiber.toml")
	data := []byte("workers = 3\nfibers = 128\njob_queue = 2048\narena_size = 16777216\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	o, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if o.Workers != 3 || o.Fibers != 128 || o.JobQueueCap != 2048 || o.ArenaSize != 16777216 {
		t.Fatalf("LoadConfig: got %+v", o)
	}
}

func TestLoadConfigDefaultsApply(t *testing.T) {
	o, err := parseConfig([]byte("workers = 2\n"))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	o.fill()
	if o.Workers != 2 {
		t.Fatalf("explicit workers lost: got %d", o.Workers)
	}
	if o.Fibers == 0 || o.JobQueueCap == 0 || o.ArenaSize == 0 {
		t.Fatalf("defaults not filled: %+v", o)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	if _, err := parseConfig([]byte("wrokers = 2\n")); err == nil {
		t.Fatal("typo key accepted")
	}
}

func TestLoadConfigRejectsNegative(t *testing.T) {
	if _, err := parseConfig([]byte("fibers = -1\n")); err == nil {
		t.Fatal("negative value accepted")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.Workers < 1 || o.Fibers < 1 || o.JobQueueCap < 2 {
		t.Fatalf("bad defaults: %+v", o)
	}
	if o.ArenaSize < uintptr(o.Fibers+o.Workers)*1<<16 {
		t.Fatalf("arena default %d cannot hold the fiber pool", o.ArenaSize)
	}
}
