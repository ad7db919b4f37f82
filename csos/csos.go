// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package csos defines the OS abstraction consumed by confstore's
// concurrency layer: a mutex and a binary semaphore, each with a
// millisecond-bounded Wait and a non-blocking Signal. This
// is treated as an external collaborator — confstore's reader/writer
// protocol (internal/csconcurrent) is written purely in terms of these two
// interfaces, with Real providing the only production implementation (a
// channel-based binary semaphore, in the style of
// github.com/grailbio/base/sync/ctxsync.Mutex, adapted from
// context-cancellation to a raw millisecond timeout).
package csos

import "time"

// Mutex is a lock that can be waited on with a bound and released with
// Signal. A Mutex starts available (an uncontended Wait succeeds
// immediately).
type Mutex interface {
	// Wait blocks for up to timeoutMS milliseconds attempting to acquire the
	// mutex. It returns true iff acquisition succeeded.
	Wait(timeoutMS int) bool
	// Signal releases the mutex. It must be called exactly once per
	// successful Wait.
	Signal()
}

// BinarySemaphore is a single-permit semaphore that starts with zero
// permits available; a Signal must be issued before the first successful
// Wait.
type BinarySemaphore interface {
	Wait(timeoutMS int) bool
	Signal()
}

// OS is the factory for mutexes and binary semaphores.
type OS interface {
	CreateMutex() Mutex
	CreateBinarySemaphore() BinarySemaphore
}

// Real is the production OS implementation, backed by buffered channels.
type Real struct{}

// CreateMutex implements OS.
func (Real) CreateMutex() Mutex { return newBinSem(true) }

// CreateBinarySemaphore implements OS.
func (Real) CreateBinarySemaphore() BinarySemaphore { return newBinSem(false) }

// binSem implements both Mutex and BinarySemaphore: a channel of capacity 1
// holding a single token when "available".
type binSem struct {
	ch chan struct{}
}

func newBinSem(available bool) *binSem {
	s := &binSem{ch: make(chan struct{}, 1)}
	if available {
		s.ch <- struct{}{}
	}
	return s
}

// Wait implements Mutex and BinarySemaphore.
func (s *binSem) Wait(timeoutMS int) bool {
	if timeoutMS <= 0 {
		select {
		case <-s.ch:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-s.ch:
		return true
	case <-timer.C:
		return false
	}
}

// Signal implements Mutex and BinarySemaphore. It is a non-blocking send:
// a Signal issued without a matching Wait (or a duplicate Signal) is
// dropped rather than panicking, since the protocol in
// internal/csconcurrent never issues unmatched signals in its steady
// state, but a dropped timeout-path Wait must not wedge a future Signal.
func (s *binSem) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}
