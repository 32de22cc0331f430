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

package pevents

import (
	"sync"

	"gvisor.dev/gvisor/pkg/pconfig"
)

var (
	configOnce   sync.Once
	activeConfig pconfig.Config
)

// currentConfig returns the process-wide tunables, loading them from
// PEVENTS_CONFIG on first use. The result is cached: WaitMultiple is
// exercised on hot paths, and re-reading a config file on every call would
// make an integrator's misplaced or slow filesystem the wait's latency
// floor.
func currentConfig() pconfig.Config {
	configOnce.Do(func() {
		cfg, err := pconfig.Load()
		if err != nil {
			pelog.WithError(err).Warn("pevents: falling back to default config")
			cfg = pconfig.Default()
		}
		activeConfig = cfg
	})
	return activeConfig
}
