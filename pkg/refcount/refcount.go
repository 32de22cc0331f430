// Copyright 2020 The gVisor Authors.
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

// Package refcount implements plain atomic reference counting: no leak
// checker, no speculative TryIncRef. It exists for objects whose references
// are only ever handed out under a lock the caller already holds, so there is
// never a "resurrect this object from a bare pointer of unknown liveness"
// case to guard against.
package refcount

import "gvisor.dev/gvisor/pkg/atomicbitops"

// Refs is an atomically maintained reference count. The zero value is not
// usable; call Init before any other method.
type Refs struct {
	count atomicbitops.Int32
}

// Init sets r's reference count to n.
func (r *Refs) Init(n int32) {
	r.count.Store(n)
}

// IncRef adds delta references to r. delta must be positive.
func (r *Refs) IncRef(delta int32) {
	if delta <= 0 {
		panic("refcount: IncRef delta must be positive")
	}
	if v := r.count.Add(delta); v <= delta {
		panic("refcount: IncRef on a reference count that was not positive")
	}
}

// DecRef subtracts delta references from r and calls destroy, at most once,
// if the subtraction brings the count to zero. delta must be positive.
//
// The caller whose DecRef call observes the count reaching zero is the one
// that runs destroy; every other caller's DecRef returns without side
// effects. This is the single destruction gate a shared object needs.
func (r *Refs) DecRef(delta int32, destroy func()) {
	if delta <= 0 {
		panic("refcount: DecRef delta must be positive")
	}
	v := r.count.Add(-delta)
	switch {
	case v < 0:
		panic("refcount: DecRef brought count below zero")
	case v == 0:
		if destroy != nil {
			destroy()
		}
	}
}

// Load returns the current reference count. The result is inherently racy
// unless the caller has independent knowledge that no concurrent IncRef/
// DecRef can be in flight; it exists for diagnostics and tests only.
func (r *Refs) Load() int32 {
	return r.count.Load()
}
