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
	"testing"
	"time"
)

func TestAutoResetEventConsumesOnWait(t *testing.T) {
	e := NewAutoResetEvent()
	e.Set()
	if got := e.Wait(Infinite); got != Ok {
		t.Fatalf("Wait: got %v, wanted Ok", got)
	}
	if got := e.Wait(Zero); got != TimedOut {
		t.Fatalf("second Wait: got %v, wanted TimedOut (auto-reset should have consumed the signal)", got)
	}
}

func TestManualResetEventStaysSignalled(t *testing.T) {
	e := NewManualResetEvent(false)
	e.Set()
	for i := 0; i < 3; i++ {
		if got := e.Wait(Zero); got != Ok {
			t.Fatalf("Wait #%d: got %v, wanted Ok", i, got)
		}
	}
	e.Reset()
	if got := e.Wait(Zero); got != TimedOut {
		t.Fatalf("Wait after Reset: got %v, wanted TimedOut", got)
	}
}

func TestZeroTimeoutProbeDoesNotBlock(t *testing.T) {
	e := NewAutoResetEvent()
	start := time.Now()
	if got := e.Wait(Zero); got != TimedOut {
		t.Fatalf("Wait(Zero): got %v, wanted TimedOut", got)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("Wait(Zero) took %v, wanted an immediate return", elapsed)
	}
}

func TestWaitTimesOut(t *testing.T) {
	e := NewAutoResetEvent()
	start := time.Now()
	if got := e.Wait(Timeout(50)); got != TimedOut {
		t.Fatalf("Wait: got %v, wanted TimedOut", got)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("Wait returned after %v, wanted at least 50ms", elapsed)
	}
}

func TestWaitWakesOnSet(t *testing.T) {
	e := NewAutoResetEvent()
	done := make(chan Result, 1)
	go func() {
		done <- e.Wait(Timeout(5000))
	}()
	time.Sleep(20 * time.Millisecond)
	e.Set()
	select {
	case got := <-done:
		if got != Ok {
			t.Fatalf("Wait: got %v, wanted Ok", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake up after Set")
	}
}

func TestAutoResetEventSingleWaiterWins(t *testing.T) {
	e := NewAutoResetEvent()
	const waiters = 8
	results := make(chan Result, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			results <- e.Wait(Timeout(200))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	e.Set()

	oks, timeouts := 0, 0
	for i := 0; i < waiters; i++ {
		switch <-results {
		case Ok:
			oks++
		case TimedOut:
			timeouts++
		default:
			t.Fatal("unexpected result")
		}
	}
	if oks != 1 {
		t.Fatalf("got %d winners, wanted exactly 1", oks)
	}
	if timeouts != waiters-1 {
		t.Fatalf("got %d timeouts, wanted %d", timeouts, waiters-1)
	}
}

// TestPulseLeavesEventUnsignalled checks that Pulse never leaves the event
// signalled. Whether the goroutine blocked in Wait observes the pulse is not
// defined (Reset may re-take the mutex before that goroutine does), so its
// result may be either Ok or TimedOut.
func TestPulseLeavesEventUnsignalled(t *testing.T) {
	e := NewAutoResetEvent()
	done := make(chan Result, 1)
	go func() {
		done <- e.Wait(Timeout(500))
	}()
	time.Sleep(20 * time.Millisecond)
	e.Pulse()

	select {
	case got := <-done:
		if got != Ok && got != TimedOut {
			t.Fatalf("Wait: got %v, wanted Ok or TimedOut", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return within its timeout after Pulse")
	}

	if got := e.Wait(Zero); got != TimedOut {
		t.Fatalf("Wait after Pulse: got %v, wanted TimedOut (Pulse must not leave the event signalled)", got)
	}
}

func TestCloseWarnsButDoesNotPanicWithLiveWaiters(t *testing.T) {
	e := NewAutoResetEvent()
	done := make(chan Result, 1)
	go func() {
		done <- WaitAll([]*Event{e}, Timeout(100))
	}()
	time.Sleep(20 * time.Millisecond)
	e.Close()
	<-done
}
