// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the TOML shape accepted by LoadConfig:
//
//	workers      = 4
//	fibers       = 256
//	job_queue    = 8192
//	arena_size   = 268435456
//	buddy_region = 8388608
//	buddy_min    = 64
type fileConfig struct {
	Workers     int   `toml:"workers"`
	Fibers      int   `toml:"fibers"`
	JobQueue    int   `toml:"job_queue"`
	ArenaSize   int64 `toml:"arena_size"`
	BuddyRegion int64 `toml:"buddy_region"`
	BuddyMin    int64 `toml:"buddy_min"`
}

// LoadConfig reads runtime options from a TOML file. Absent keys keep their
// defaults; unknown keys are rejected.
func LoadConfig(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fiber: read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*Options, error) {
	var fc fileConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("fiber: parse config: %w", err)
	}
	if fc.Workers < 0 || fc.Fibers < 0 || fc.JobQueue < 0 ||
		fc.ArenaSize < 0 || fc.BuddyRegion < 0 || fc.BuddyMin < 0 {
		return nil, fmt.Errorf("fiber: config values must be non-negative")
	}
	return &Options{
		Workers:     fc.Workers,
		Fibers:      fc.Fibers,
		JobQueueCap: fc.JobQueue,
		ArenaSize:   uintptr(fc.ArenaSize),
		BuddyRegion: uintptr(fc.BuddyRegion),
		BuddyMin:    uintptr(fc.BuddyMin),
	}, nil
}
