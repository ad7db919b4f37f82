// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package csconcurrent implements the reader/writer wrapper around
// internal/triecore's trie: multiple concurrent readers, a single
// exclusive writer, bounded-wait acquisition with no caller-visible
// cancellation beyond the timeout.
//
// The turn/empty/readers_mutex protocol here is the classic
// "readers-writers with writer priority" construction, implemented with
// the same channel-backed binary-semaphore primitive as
// github.com/grailbio/base/sync/ctxsync.Mutex (csos.Real), but
// bounded by a raw millisecond timeout per call rather than a
// context.Context — MUTEX_TIMEOUT_MS is a fixed budget, not a
// caller-supplied cancellation signal.
package csconcurrent

import (
	"errors"

	"github.com/grailbio/confstore/csos"
	"github.com/grailbio/confstore/internal/triecore"
)

// DefaultMutexTimeoutMS is the default bound, in milliseconds, for every
// trie-acquisition wait.
const DefaultMutexTimeoutMS = 100

// ErrTimeout is returned when a read or write could not acquire the trie
// within the configured timeout. This is deliberately not a cserr.Kind:
// a concurrency timeout is a "no result"/silent no-op outcome distinct
// from the API's formal error taxonomy, so callers that want to
// distinguish "timed out" from "key not found" or other documented
// errors can match on this sentinel with errors.Is.
var ErrTimeout = errors.New("csconcurrent: timed out acquiring trie access")

// Trie wraps a triecore.Trie[V] with the bounded-wait readers/writer
// protocol. The zero value is not usable; construct with New.
type Trie[V any] struct {
	trie *triecore.Trie[V]

	turn         csos.BinarySemaphore
	empty        csos.BinarySemaphore
	readersMutex csos.Mutex
	readers      int

	timeoutMS int
}

// New constructs an empty concurrent trie using os to create its
// mutex/semaphore primitives. timeoutMS <= 0 selects DefaultMutexTimeoutMS.
func New[V any](os csos.OS, timeoutMS int) *Trie[V] {
	if timeoutMS <= 0 {
		timeoutMS = DefaultMutexTimeoutMS
	}
	turn := os.CreateBinarySemaphore()
	turn.Signal() // make the turn token available
	empty := os.CreateBinarySemaphore()
	empty.Signal() // the trie starts out not in use by any reader
	return &Trie[V]{
		trie:         &triecore.Trie[V]{},
		turn:         turn,
		empty:        empty,
		readersMutex: os.CreateMutex(),
		timeoutMS:    timeoutMS,
	}
}

// Read runs fn with read access to the trie. It returns ErrTimeout if
// access could not be acquired within the timeout, in which case fn is not
// called.
func (c *Trie[V]) Read(fn func(t *triecore.Trie[V])) error {
	if !c.acquireRead() {
		return ErrTimeout
	}
	defer c.releaseRead()
	fn(c.trie)
	return nil
}

// Write runs fn with exclusive write access to the trie. It returns
// ErrTimeout if access could not be acquired within the timeout, in which
// case fn is not called.
func (c *Trie[V]) Write(fn func(t *triecore.Trie[V])) error {
	if !c.acquireWrite() {
		return ErrTimeout
	}
	defer c.releaseWrite()
	fn(c.trie)
	return nil
}

func (c *Trie[V]) acquireRead() bool {
	if !c.turn.Wait(c.timeoutMS) {
		return false
	}
	c.turn.Signal()
	if !c.readersMutex.Wait(c.timeoutMS) {
		return false
	}
	c.readers++
	becameFirst := c.readers == 1
	if becameFirst {
		if !c.empty.Wait(c.timeoutMS) {
			c.readers--
			c.readersMutex.Signal()
			return false
		}
	}
	c.readersMutex.Signal()
	return true
}

func (c *Trie[V]) releaseRead() {
	// The readers_mutex step of release is an uncontended, sub-microsecond
	// bookkeeping operation; it is retried across timeout windows rather
	// than left unreleased, since every successful acquireRead must be
	// matched by a release that actually runs.
	for !c.readersMutex.Wait(c.timeoutMS) {
	}
	c.readers--
	if c.readers == 0 {
		c.empty.Signal()
	}
	c.readersMutex.Signal()
}

func (c *Trie[V]) acquireWrite() bool {
	if !c.turn.Wait(c.timeoutMS) {
		return false
	}
	if !c.empty.Wait(c.timeoutMS) {
		c.turn.Signal()
		return false
	}
	return true
}

func (c *Trie[V]) releaseWrite() {
	c.empty.Signal()
	c.turn.Signal()
}
