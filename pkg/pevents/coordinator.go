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
	"math/rand"
	"runtime"
	"sync"

	"gvisor.dev/gvisor/pkg/atomicbitops"
	"gvisor.dev/gvisor/pkg/refcount"
)

// coordinator is the shared, transient state behind one WaitMultiple call.
// Every registered edge (one waitRecord per event) and the calling goroutine
// itself hold a reference; the coordinator is torn down the moment the last
// one lets go, whether that happens because the wait finished normally, it
// timed out, or a signaller stole an auto-reset event out from under it.
//
// coordinator is grounded on the wait-multiplexer half of pevents.cpp's
// WaitForMultipleObjects, restructured so that the crossing-waitAll
// consumption step (see atomicConsumeAll) is genuinely atomic rather than
// eagerly firing per-event as the upstream implementation does.
type coordinator struct {
	mu   sync.Mutex
	cond *sync.Cond

	waitAll bool

	// firedIndex is valid only in waitAny mode; -1 until an event claims it.
	firedIndex atomicbitops.Int32
	// eventsLeft is valid only in waitAll mode; counts down to 0.
	eventsLeft atomicbitops.Int32

	// stillWaiting flips to false exactly once, either when the coordinator
	// is satisfied or when it gives up (timeout). Every registered edge
	// probes this before touching the coordinator's mutex, so a signaller
	// racing a timed-out wait can back off without blocking.
	stillWaiting atomicbitops.Bool

	refs refcount.Refs

	// pendingSkippedRefs accumulates the reference count of edges that were
	// never pushed onto any event's FIFO (registration exited early, or a
	// manual-reset event was already signalled at registration time). It is
	// dropped in one shot alongside the caller's own reference once the
	// wait finishes, mirroring pevents.cpp's single "drop 1 +
	// skipped" release at the end of WaitForMultipleObjects.
	pendingSkippedRefs int32
}

func newCoordinator(waitAll bool, n int) *coordinator {
	c := &coordinator{waitAll: waitAll}
	c.cond = sync.NewCond(&c.mu)
	c.stillWaiting.Store(true)
	c.refs.Init(int32(1 + n))
	if waitAll {
		c.eventsLeft.Store(int32(n))
	} else {
		c.firedIndex.Store(-1)
	}
	return c
}

// release drops delta references, destroying the coordinator's backing state
// once the count reaches zero. There is nothing to actively free in Go (the
// garbage collector reclaims the struct once unreferenced), so destruction
// is limited to a debug trace; the method exists so every edge follows the
// same reference-counting discipline pevents.cpp uses, rather than relying
// on finalizers or ambient GC timing for correctness.
func (c *coordinator) release(delta int32) {
	c.refs.DecRef(delta, func() {
		debugf("pevents: coordinator destroyed (waitAll=%v)", c.waitAll)
	})
}

// satisfied reports whether the coordinator's wait predicate currently
// holds, without acquiring any lock. It is safe to call at any time; the
// blocking loop in waitMultiple re-checks it after every wakeup.
func (c *coordinator) satisfied() bool {
	if c.waitAll {
		return c.eventsLeft.Load() == 0
	}
	return c.firedIndex.Load() >= 0
}

// markDone flips stillWaiting to false under the coordinator's own mutex,
// whether the coordinator is finishing because it was satisfied or because
// it gave up. Any signaller that observes stillWaiting still true takes
// this same mutex before touching firedIndex/eventsLeft, so doing the flip
// outside the lock would leave a window where a concurrent Set could still
// deliver a signal to a coordinator that has already decided its own
// result and is about to return it.
func (c *coordinator) markDone() {
	c.mu.Lock()
	c.stillWaiting.Store(false)
	c.mu.Unlock()
}

// atomicConsumeAll implements the crossing-waitAll fix: once every event in
// a waitAll coordinator's set appears to have contributed (events_left hit
// zero), every event must be locked, re-verified, and consumed together, or
// not at all. Trying to lock a growing set of mutexes one at a time risks
// deadlocking against a second waitAll call racing over an overlapping set
// of events in a different order, so this instead tries to acquire every
// mutex without blocking and, on any collision, releases everything it
// already holds and retries from the top. retryLimit bounds that retry loop
// (see pconfig.Config.WaitAllLockRetryLimit); exceeding it indicates a
// caller-contract violation such as a permanently uncooperative competing
// locker, not a condition this package can wait out indefinitely.
func atomicConsumeAll(events []*Event, exempt *coordinator, retryLimit int) bool {
	n := len(events)
	locked := make([]bool, n)
	for attempt := 1; ; attempt++ {
		if retryLimit > 0 && attempt > retryLimit {
			contractViolation("pevents: WaitAll lock acquisition did not converge after %d attempts", retryLimit)
		}

		acquiredAll := true
		for i, ev := range events {
			if ev.mu.TryLock() {
				locked[i] = true
				continue
			}
			for j := 0; j < i; j++ {
				if locked[j] {
					events[j].mu.Unlock()
					locked[j] = false
				}
			}
			acquiredAll = false
			break
		}
		if !acquiredAll {
			// Yield (without sleeping) a varying number of times so the
			// goroutine holding the contended mutex can release it, and so
			// two waitAll calls colliding in opposite lock orders fall out
			// of step instead of colliding on every attempt.
			for k := rand.Intn(4); k >= 0; k-- {
				runtime.Gosched()
			}
			continue
		}

		allSignalled := true
		for _, ev := range events {
			if !ev.state.Load() {
				allSignalled = false
				break
			}
		}
		if !allSignalled {
			for _, ev := range events {
				ev.mu.Unlock()
			}
			return false
		}

		for _, ev := range events {
			if ev.autoReset {
				ev.state.Store(false)
				ev.sweepAfterUnsignalLocked(exempt)
			}
		}
		for _, ev := range events {
			ev.mu.Unlock()
		}
		return true
	}
}
