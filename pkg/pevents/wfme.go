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

// WaitAny blocks until at least one of events is signalled or timeout
// elapses. It returns the result and, on Ok, the index of the event that
// satisfied the wait. Composing a dedicated manual-reset "abort" event as
// the last element is the idiomatic way to make an otherwise unbounded wait
// interruptible; see the package doc.
func WaitAny(events []*Event, timeout Timeout) (Result, int) {
	return waitMultiple(events, false, timeout)
}

// WaitAll blocks until every event in events is simultaneously signalled or
// timeout elapses. On Ok, every auto-reset event in the set has been
// atomically consumed as a unit: either all of them were, or (on TimedOut)
// none of them were. WaitAll returns no index; it has no single "which one
// fired" answer.
func WaitAll(events []*Event, timeout Timeout) Result {
	result, _ := waitMultiple(events, true, timeout)
	return result
}

// WaitMultiple is the general form behind WaitAny and WaitAll, selected by
// mode.
func WaitMultiple(events []*Event, mode Mode, timeout Timeout) (Result, int) {
	return waitMultiple(events, mode == ModeWaitAll, timeout)
}

// AbortableWait is WaitAny(append(events, abort), timeout) with abort
// winning translated into the distinguished Aborted result, so a caller
// does not have to compare the returned index against len(events) itself
// to tell "my work arrived" from "the group is shutting down" apart. This
// is the abort-event idiom every long-running worker in a WFME-based
// pipeline needs: race its own work against a shared shutdown signal.
func AbortableWait(events []*Event, abort *Event, timeout Timeout) (Result, int) {
	combined := make([]*Event, len(events)+1)
	copy(combined, events)
	combined[len(events)] = abort

	result, idx := WaitAny(combined, timeout)
	if result != Ok {
		return result, -1
	}
	if idx == len(events) {
		return Aborted, -1
	}
	return Ok, idx
}

func waitMultiple(events []*Event, waitAll bool, timeout Timeout) (Result, int) {
	if len(events) == 0 {
		contractViolation("pevents: WaitMultiple called with no events")
	}

	cfg := currentConfig()

	n := len(events)
	coord := newCoordinator(waitAll, n)

	done := false
	skipped := 0
	preSignalled := 0

	for i, ev := range events {
		if !waitAll && !coord.stillWaiting.Load() {
			// A concurrent Set() on an already-registered earlier event
			// claimed this waitAny coordinator while we were still
			// registering the rest. Nothing left to register.
			skipped = n - i
			break
		}

		if !waitAll && !ev.autoReset && ev.state.Load() {
			// Fast lock-free claim attempt: a manual-reset event observed
			// signalled needs no mutex to read, but claiming the
			// coordinator still has to go through its mutex so it cannot
			// race a concurrent Set() transferring an already-registered
			// edge onto the same coordinator.
			coord.mu.Lock()
			claimed := coord.stillWaiting.Load()
			if claimed {
				coord.firedIndex.Store(int32(i))
				coord.stillWaiting.Store(false)
			}
			coord.mu.Unlock()
			if claimed {
				done = true
				skipped = n - i
				break
			}
			skipped = n - i
			break
		}

		ev.mu.Lock()
		ev.purgeDefunctLocked()
		signalled := ev.state.Load()

		switch {
		case !waitAll && signalled:
			coord.mu.Lock()
			claimed := coord.stillWaiting.Load()
			if claimed {
				if ev.autoReset {
					ev.state.Store(false)
					ev.sweepAfterUnsignalLocked(nil)
				}
				coord.firedIndex.Store(int32(i))
				coord.stillWaiting.Store(false)
			}
			coord.mu.Unlock()
			ev.mu.Unlock()
			done = claimed
			skipped = n - i
		case waitAll && signalled:
			rec := &waitRecord{coord: coord, waitIndex: i, signalled: true}
			ev.waits.PushBack(rec)
			preSignalled++
			ev.mu.Unlock()
		default:
			rec := &waitRecord{coord: coord, waitIndex: i}
			ev.waits.PushBack(rec)
			ev.mu.Unlock()
		}
		if !waitAll && signalled {
			break
		}
	}

	// events_left is decremented once for every pre-signalled waitAll edge
	// found above, in a single atomic add rather than one op per iteration.
	if waitAll {
		if preSignalled > 0 {
			coord.eventsLeft.Add(int32(-preSignalled))
		}
		if coord.eventsLeft.Load() == 0 {
			done = true
		}
	}

	if skipped > 0 {
		coord.pendingSkippedRefs += int32(skipped)
	}

	// finish attempts the atomic all-or-nothing consume once the
	// coordinator's predicate looks satisfied. It reports whether the
	// coordinator is genuinely finished: for a plain waitAny claim there is
	// nothing left to do, but a waitAll coordinator is only finished once
	// atomicConsumeAll actually succeeds, since events_left reaching zero
	// only means every edge was *marked* signalled, not that the physical
	// events have been consumed yet.
	finish := func() bool {
		if !waitAll {
			return true
		}
		return atomicConsumeAll(events, coord, cfg.WaitAllLockRetryLimit)
	}

	result := Ok
	finished := false

	if done {
		finished = finish()
		done = finished
	}

	if !finished {
		if timeout == Zero {
			coord.markDone()
			// A concurrent Set may have claimed this waitAny coordinator
			// during registration; that signal is already consumed, so it
			// is reported rather than dropped.
			if waitAll || !coord.satisfied() {
				result = TimedOut
			}
		} else {
			var deadline time.Time
			if !timeout.isInfinite() {
				deadline = timeout.deadline()
			}

			coord.mu.Lock()
			for !finished {
				if coord.satisfied() {
					coord.mu.Unlock()
					finished = finish()
					coord.mu.Lock()
					if finished {
						break
					}
					// atomicConsumeAll's verification failed: some event
					// was stolen out from under us after events_left
					// reached zero. The thief's own consumption already
					// rolled events_left back up via
					// sweepAfterUnsignalLocked, so looping re-reads a
					// now-accurate predicate instead of spinning.
					continue
				}
				if deadline.IsZero() {
					waitDeadline(coord.cond, deadline)
					continue
				}
				if waitDeadline(coord.cond, deadline) && !coord.satisfied() {
					result = TimedOut
					break
				}
			}
			// Still holding coord.mu here regardless of which break fired
			// above (waitDeadline always returns with it re-acquired), so
			// this flip is the same atomic "decide and mark" step as the
			// timeout==Zero and already-finished cases.
			coord.stillWaiting.Store(false)
			coord.mu.Unlock()
		}
	} else {
		coord.markDone()
	}

	coord.release(1 + coord.pendingSkippedRefs)

	if result != Ok {
		debugf("pevents: WaitMultiple(mode=%v) timed out", coord.waitAll)
		return result, -1
	}
	if waitAll {
		debugf("pevents: WaitMultiple(mode=WaitAll) satisfied")
		return Ok, -1
	}
	idx := int(coord.firedIndex.Load())
	debugf("pevents: WaitMultiple(mode=WaitAny) satisfied by index %d", idx)
	return Ok, idx
}
