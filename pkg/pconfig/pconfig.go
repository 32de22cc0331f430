// Copyright 2024 The pevents-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pconfig loads the small set of tunables pevents exposes to
// integrators. None of them are required for correctness; they only bound
// or shape internal retry loops.
package pconfig

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds pevents' tunables.
type Config struct {
	// WaitAllLockRetryLimit bounds the "trylock all, release all on
	// collision, retry" loop used to atomically consume the events backing a
	// satisfied WaitAll. Under adversarial scheduling that loop can retry
	// indefinitely; capping it turns a misbehaving deployment into a
	// diagnosable panic instead of a silent livelock. Zero means unbounded.
	WaitAllLockRetryLimit int `yaml:"waitAllLockRetryLimit"`

	// CleanupSweepBatch bounds how many defunct wait records the dedicated
	// purge pass (run by an auto-reset Set, a WaitMultiple registration and
	// Close) removes from an event's registered-wait FIFO in one call. Other
	// walks of the FIFO still drop every defunct record they pass. Zero (the
	// default) lets the purge pass sweep the whole FIFO, matching upstream.
	CleanupSweepBatch int `yaml:"cleanupSweepBatch"`
}

// Default returns the configuration pevents uses when no file is supplied.
func Default() Config {
	return Config{
		WaitAllLockRetryLimit: 10000,
		CleanupSweepBatch:     0,
	}
}

// EnvVar is the environment variable pevents consults for a YAML config
// file path.
const EnvVar = "PEVENTS_CONFIG"

// Load returns the configuration named by the PEVENTS_CONFIG environment
// variable, falling back to Default() if the variable is unset. A set but
// unreadable or malformed file is a wrapped, stack-annotated error.
func Load() (Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads and parses the YAML configuration at path, filling in
// Default() for any field the file omits.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "pconfig: reading %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "pconfig: parsing %s", path)
	}
	return cfg, nil
}
