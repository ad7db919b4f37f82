// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package csfile defines the file abstraction consumed by confstore's
// persistence codec (internal/persist): a handle that can be opened for
// read or for write, but never both at once, and that works strictly in
// lines; the persistence codec never calls a byte-at-a-time Read in
// steady state. This is treated as an external collaborator rather than
// an internal detail of the codec.
//
// Two implementations are provided:
//   - Real: production use, wraps *os.File with an advisory flock so a
//     save and a load on the same path cannot silently interleave.
//   - Fake: in-memory use for tests, with knobs to fail an open, a write,
//     or a close; corrupted or truncated files are set up by assigning
//     Content directly, and out-of-sequence calls return ErrInvalidState.
package csfile

import (
	"errors"
)

// ErrInvalidState is returned when a method is called out of sequence:
// opening a handle twice, reading or writing before opening, or opening
// for read while a write is in progress.
var ErrInvalidState = errors.New("csfile: invalid state")

// ErrEndOfFile marks the end of a ReadLine stream. It is distinct from
// io.EOF so that callers that accidentally treat csfile.File as an
// io.Reader don't get a false match; File.ReadLine never returns a partial
// line followed by ErrEndOfFile — a trailing line without a final newline
// is still returned in full, and ErrEndOfFile is only returned once there
// is nothing left to read.
var ErrEndOfFile = errors.New("csfile: end of file")

// File is the handle consumed by the persistence codec. Implementations
// need not be safe for concurrent use by multiple goroutines. The facade
// does not serialize save/load calls (its lifecycle mutex guards only the
// persistent-storage flag); overlapping calls surface as ErrInvalidState.
type File interface {
	// OpenForRead opens the handle for reading. It is an error to call this
	// if the handle is already open in any mode.
	OpenForRead() error
	// OpenForWrite opens the handle for writing; the content written
	// replaces any existing content once Close succeeds. It is an error to
	// call this if the handle is already open in any mode.
	OpenForWrite() error
	// ReadLine returns the next line, including its trailing newline if
	// present. It returns ErrEndOfFile (with an empty string) once the
	// stream is exhausted. ReadLine requires the handle to be open for
	// read.
	ReadLine() (string, error)
	// Write appends s to the handle. Write requires the handle to be open
	// for write.
	Write(s string) error
	// Close closes the handle, whichever mode it was opened in. Close on an
	// unopened or already-closed handle returns ErrInvalidState.
	Close() error
}
