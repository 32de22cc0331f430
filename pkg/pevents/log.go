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

import "github.com/sirupsen/logrus"

// pelog is the package-level structured logger. It defaults to logrus'
// standard logger with a component field, following the
// logrus.WithField/WithError idiom used throughout gvisor's shim services.
var pelog = logrus.WithField("component", "pevents")

// SetLogger replaces the logger pevents uses for diagnostics. Passing nil
// restores the default. Most integrators never need this; it exists so a
// host process can route pevents' Debug/Warn/Error output into its own
// logging pipeline instead of logrus' default output.
func SetLogger(entry *logrus.Entry) {
	if entry == nil {
		pelog = logrus.WithField("component", "pevents")
		return
	}
	pelog = entry.WithField("component", "pevents")
}

// debugEnabled gates the coordinator lifecycle trace (satisfied, timed out,
// destroyed). It is off by default because it runs on every WaitMultiple
// call, a hot path.
var debugEnabled = false

// SetDebug turns the coordinator lifecycle trace on or off.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

func debugf(format string, args ...any) {
	if debugEnabled {
		pelog.Debugf(format, args...)
	}
}
