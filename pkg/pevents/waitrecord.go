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

import "gvisor.dev/gvisor/pkg/ilist"

// waitRecord is the back-pointer an Event's registered-wait FIFO holds for
// each (event, coordinator) edge created by a composite wait. It embeds
// ilist.Entry so it can live directly in the FIFO with no separate
// allocation, the same way waiter.Entry embeds ilist.Entry in gvisor's
// pkg/waiter.
type waitRecord struct {
	ilist.Entry

	coord     *coordinator
	waitIndex int

	// signalled is the per-edge bit used in the waitAll path to distinguish
	// "this event has contributed to this coordinator's events_left count"
	// from "has not yet." It is mutated only while the owning event's mutex
	// is held, so state and signalled always flip together atomically.
	signalled bool
}
