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

import "time"

// Timeout is a relative wait duration expressed in milliseconds, matching
// the Win32 WaitForSingleObject/WaitForMultipleObjects family this package
// is modeled on.
type Timeout uint64

// Infinite is the sentinel Timeout value meaning "wait forever." It is
// represented as all-ones, matching the Win32 convention of an unsigned
// 64-bit millisecond count with an all-ones sentinel for "infinite."
const Infinite Timeout = ^Timeout(0)

// Zero is a convenience name for the zero-timeout, non-blocking probe.
const Zero Timeout = 0

// isInfinite reports whether t is the Infinite sentinel.
func (t Timeout) isInfinite() bool {
	return t == Infinite
}

// deadline computes the absolute wall-clock instant t milliseconds from now.
// It is called at most once per blocking wait; callers that loop on
// spurious wakeups reuse the same deadline instead of recomputing it, so a
// slow signalling thread cannot indefinitely extend a caller's timeout.
func (t Timeout) deadline() time.Time {
	return time.Now().Add(time.Duration(t) * time.Millisecond)
}
