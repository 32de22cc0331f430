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

import "github.com/pkg/errors"

// Result is the outcome of a blocking wait. Timeout is not an error: it is
// the dominant non-success return of a bounded wait.
type Result int

const (
	// Ok indicates the wait was satisfied.
	Ok Result = iota
	// TimedOut indicates the deadline passed before the wait was satisfied.
	TimedOut
	// Aborted indicates AbortableWait's abort event fired first.
	Aborted
)

// String implements fmt.Stringer.
func (r Result) String() string {
	switch r {
	case Ok:
		return "Ok"
	case TimedOut:
		return "TimedOut"
	case Aborted:
		return "Aborted"
	default:
		return "Result(?)"
	}
}

// Mode selects the semantics of a composite wait.
type Mode int

const (
	// ModeWaitAny wakes on the first event in the set that becomes signalled.
	ModeWaitAny Mode = iota
	// ModeWaitAll wakes only once every event in the set is simultaneously
	// signalled, and atomically consumes all of them.
	ModeWaitAll
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeWaitAll {
		return "WaitAll"
	}
	return "WaitAny"
}

// contractViolation reports a caller-contract violation: these are bugs in
// the caller, not runtime conditions this package can recover from.
// It logs at Error with a stack-annotated wrapped message, then panics, so a
// debug build surfaces the violation loudly instead of silently misbehaving.
func contractViolation(format string, args ...any) {
	err := errors.Errorf(format, args...)
	pelog.WithError(err).Error("pevents: caller contract violation")
	panic(err)
}
