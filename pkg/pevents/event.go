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
	"time"

	"gvisor.dev/gvisor/pkg/atomicbitops"
	"gvisor.dev/gvisor/pkg/ilist"
)

// Event is a Win32-style signallable flag. A manual-reset Event stays
// signalled from the moment Set is called until an explicit Reset; an
// auto-reset Event is atomically un-signalled by the first successful Wait
// (or the first composite wait that consumes it).
//
// The zero value of Event is not usable; construct one with NewEvent,
// NewAutoResetEvent, or NewManualResetEvent.
type Event struct {
	mu   sync.Mutex
	cond *sync.Cond

	autoReset bool
	state     atomicbitops.Bool

	// waits is the FIFO of composite waits currently registered against
	// this event, oldest first. It is protected by mu. Entries are removed
	// either when a signal is transferred to them or lazily, the next time
	// any operation walks the FIFO and notices the owning coordinator has
	// stopped waiting (see purgeDefunctLocked).
	waits ilist.List
}

// NewEvent constructs an Event with the given reset behavior and initial
// state, mirroring pevents.cpp's CreateEvent(manualReset, initialState).
func NewEvent(manualReset, initialState bool) *Event {
	e := &Event{autoReset: !manualReset}
	e.cond = sync.NewCond(&e.mu)
	e.state.Store(initialState)
	return e
}

// NewAutoResetEvent constructs an initially-unsignalled auto-reset Event.
func NewAutoResetEvent() *Event {
	return NewEvent(false, false)
}

// NewManualResetEvent constructs a manual-reset Event with the given initial
// state.
func NewManualResetEvent(initialState bool) *Event {
	return NewEvent(true, initialState)
}

// Wait blocks until the event is signalled or timeout elapses, returning Ok
// or TimedOut. A zero timeout probes the event without blocking. An
// auto-reset event that becomes signalled while this call is waiting is
// consumed atomically as part of satisfying the wait.
func (e *Event) Wait(timeout Timeout) Result {
	if !e.state.Load() {
		if timeout == Zero {
			return TimedOut
		}
	} else if !e.autoReset {
		// Manual-reset fast path: the relaxed load already observed the
		// signal, and manual-reset events never need consuming.
		return Ok
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waitLocked(timeout)
}

// waitLocked implements Wait's slow path. e.mu must be held on entry and is
// held on return.
func (e *Event) waitLocked(timeout Timeout) Result {
	var deadline time.Time
	haveDeadline := false
	for {
		if e.state.Load() {
			if e.autoReset {
				e.state.Store(false)
				e.sweepAfterUnsignalLocked(nil)
			}
			return Ok
		}
		if timeout == Zero {
			return TimedOut
		}
		if !haveDeadline && !timeout.isInfinite() {
			deadline = timeout.deadline()
			haveDeadline = true
		}
		if haveDeadline {
			if waitDeadline(e.cond, deadline) && !e.state.Load() {
				return TimedOut
			}
		} else {
			waitDeadline(e.cond, time.Time{})
		}
	}
}

// Set signals the event. For a manual-reset event, it stays signalled until
// Reset. For an auto-reset event with no one waiting, exactly one future
// Wait (or composite wait) will consume it. For an auto-reset event with a
// waitAny composite wait already registered, the signal is transferred
// directly to that waiter under the event's mutex rather than ever becoming
// publicly observable as state==true, following the RegisteredWaits walk in
// pevents.cpp's SetEvent; registered waitAll waits only have their edges
// marked, and the event itself becomes signalled.
func (e *Event) Set() {
	e.mu.Lock()

	if e.autoReset {
		if claimed := e.transferAutoResetSignalLocked(); claimed {
			e.mu.Unlock()
			return
		}
	} else {
		e.notifyManualResetWaitersLocked()
	}

	e.state.Store(true)
	e.mu.Unlock()
	if e.autoReset {
		e.cond.Signal()
	} else {
		e.cond.Broadcast()
	}
}

// transferAutoResetSignalLocked walks the registered-wait FIFO looking for a
// waiter to hand the signal to directly. It reports whether a waitAny
// waiter claimed the signal outright, in which case Set must not also mark
// the event's own state (the signal already left in the waiter's hands), and
// any waitAll edges marked during the walk are rolled back. waitAll edges
// along the way that are not yet marked are marked signalled and their
// coordinator's events_left decremented, but the walk continues: satisfying
// a waitAll coordinator does not itself consume the event, so the event
// still falls through to state=true afterward unless a waitAny claimed it.
func (e *Event) transferAutoResetSignalLocked() (claimedByWaitAny bool) {
	e.purgeDefunctLocked()

	for it := e.waits.Front(); it != nil; {
		rec := it.(*waitRecord)
		next := it.Next()

		if !rec.coord.stillWaiting.Load() {
			e.waits.Remove(rec)
			rec.coord.release(1)
			it = next
			continue
		}

		coord := rec.coord
		coord.mu.Lock()
		if !coord.stillWaiting.Load() {
			coord.mu.Unlock()
			e.waits.Remove(rec)
			coord.release(1)
			it = next
			continue
		}

		if coord.waitAll {
			left := int32(-1)
			if !rec.signalled {
				rec.signalled = true
				left = coord.eventsLeft.Add(-1)
			}
			coord.mu.Unlock()
			if left == 0 {
				coord.cond.Broadcast()
			}
			it = next
			continue
		}

		coord.firedIndex.Store(int32(rec.waitIndex))
		coord.stillWaiting.Store(false)
		coord.mu.Unlock()
		coord.cond.Broadcast()
		e.waits.Remove(rec)
		coord.release(1)
		// The event stays unsignalled, so waitAll edges marked earlier in
		// this walk are rolled back.
		e.sweepAfterUnsignalLocked(nil)
		return true
	}
	return false
}

// notifyManualResetWaitersLocked walks the registered-wait FIFO for a
// manual-reset event being set. A waitAny edge is resolved outright and
// removed, same as the auto-reset path: once one of them claims the
// coordinator there is nothing left for the rest of that coordinator's
// edges to do. A waitAll edge is only marked signalled and left in place;
// removing it here (as an earlier version did, clearing the whole FIFO in
// one shot) meant a later Reset on this same event before the coordinator
// finished consuming the rest of its set found nothing to roll back in
// sweepAfterUnsignalLocked, leaving eventsLeft permanently short by one and
// the coordinator spinning on an atomicConsumeAll that can never succeed
// again. Leaving the edge registered lets sweepAfterUnsignalLocked find and
// undo it exactly the way it already does for auto-reset waitAll edges.
func (e *Event) notifyManualResetWaitersLocked() {
	for it := e.waits.Front(); it != nil; {
		rec := it.(*waitRecord)
		next := it.Next()
		coord := rec.coord

		coord.mu.Lock()
		if !coord.stillWaiting.Load() {
			coord.mu.Unlock()
			e.waits.Remove(rec)
			coord.release(1)
			it = next
			continue
		}

		if coord.waitAll {
			if !rec.signalled {
				rec.signalled = true
				coord.eventsLeft.Add(-1)
			}
			coord.mu.Unlock()
			coord.cond.Broadcast()
		} else {
			coord.firedIndex.Store(int32(rec.waitIndex))
			coord.stillWaiting.Store(false)
			coord.mu.Unlock()
			coord.cond.Broadcast()
			e.waits.Remove(rec)
			coord.release(1)
		}
		it = next
	}
}

// Reset clears a manual-reset event's signal. Calling it on an auto-reset
// event is legal but redundant, since a successful Wait already clears the
// state; pevents.cpp allows the same.
func (e *Event) Reset() {
	e.mu.Lock()
	e.state.Store(false)
	e.sweepAfterUnsignalLocked(nil)
	e.mu.Unlock()
}

// Pulse signals the event and then leaves it unsignalled, without making
// the signal observable to a Wait call that starts after Pulse returns. It
// is Set immediately followed by Reset, exactly as pevents.cpp's PulseEvent
// is. A waitAny composite wait registered on the event receives the signal
// directly from Set. A goroutine blocked in Wait is only woken by Set's
// signal/broadcast; if Reset takes the mutex again before that goroutine
// re-acquires it, the goroutine finds the event already cleared and loops
// back into its wait. Which blocked waiters observe a pulse is therefore not
// defined, and a waiter that has not yet reached its condition wait when
// Pulse runs sees nothing.
func (e *Event) Pulse() {
	e.Set()
	e.Reset()
}

// Close releases resources associated with the event: it purges the wait
// records of composite waits that have already finished. Destroying an event
// that still has live waiters (direct or composite) is a caller error and
// left undefined rather than a checked panic, so Close only best-effort-logs
// a warning when live composite-wait records remain instead of aborting the
// process, mirroring pevents.cpp's DestroyEvent, which does not check either.
func (e *Event) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.purgeDefunctLocked()
	if !e.waits.Empty() {
		pelog.Warn("pevents: closing an event with waiters still registered")
	}
}

// purgeDefunctLocked drops the FIFO entries of coordinators that have
// stopped waiting (satisfied or timed out) since they last touched this
// event. It is called from the paths pevents.cpp itself sweeps from
// (SetEvent and the WaitForMultipleEvents registration walk); Wait's own
// consume path does not need it, since a single Wait only ever inspects
// this event's own state.
//
// The walk stops early once it has removed CleanupSweepBatch entries, if
// that tunable is nonzero; the remainder is left for a later operation. The
// bound applies to this walk only: the FIFO walks in Set
// (transferAutoResetSignalLocked, notifyManualResetWaitersLocked) and
// sweepAfterUnsignalLocked visit every entry and drop each defunct record
// they pass.
func (e *Event) purgeDefunctLocked() {
	limit := currentConfig().CleanupSweepBatch
	removed := 0
	for it := e.waits.Front(); it != nil; {
		rec := it.(*waitRecord)
		next := it.Next()
		if !rec.coord.stillWaiting.Load() {
			e.waits.Remove(rec)
			rec.coord.release(1)
			removed++
			if limit > 0 && removed >= limit {
				return
			}
		}
		it = next
	}
}

// sweepAfterUnsignalLocked runs whenever this event's state transitions from
// true to false: a plain Wait consuming it, Reset clearing it, or a waitAll
// coordinator consuming it as part of atomicConsumeAll. Any other waitAll
// coordinator's edge on this event that had already been marked signalled
// (see transferAutoResetSignalLocked / notifyManualResetWaitersLocked) is
// now stale: the event it thought it had captured was actually claimed by
// someone else, so its bookkeeping is rolled back. exempt is the
// coordinator legitimately performing this consumption, if any, and is
// skipped so a waitAll coordinator never rolls back its own success.
func (e *Event) sweepAfterUnsignalLocked(exempt *coordinator) {
	for it := e.waits.Front(); it != nil; {
		rec := it.(*waitRecord)
		next := it.Next()

		if rec.coord == exempt {
			it = next
			continue
		}

		if !rec.coord.stillWaiting.Load() {
			e.waits.Remove(rec)
			rec.coord.release(1)
			it = next
			continue
		}

		if rec.signalled && rec.coord.waitAll {
			coord := rec.coord
			coord.mu.Lock()
			if coord.stillWaiting.Load() {
				rec.signalled = false
				coord.eventsLeft.Add(1)
			}
			coord.mu.Unlock()
		}
		it = next
	}
}
