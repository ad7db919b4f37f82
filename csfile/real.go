// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package csfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"github.com/natefinch/atomic"
)

// mode tracks which direction a Real handle is currently open in.
type mode int

const (
	modeClosed mode = iota
	modeRead
	modeWrite
)

// Real is the production File implementation, backed by *os.File for reads
// and by github.com/natefinch/atomic for writes: OpenForWrite accumulates
// lines in memory, and Close replaces the destination in a single
// write-then-rename so a reader never observes a partially written file. An
// advisory flock on a ".lock" sibling path is held for the duration of each
// open, in the style of github.com/grailbio/base/state.File and
// github.com/grailbio/base/flock, so that a save and a load issued
// concurrently from different processes fail loudly rather than
// interleaving.
type Real struct {
	path string

	mu      sync.Mutex
	mode    mode
	file    *os.File
	reader  *bufio.Reader
	writeBuf bytes.Buffer
	lockFD  int
}

// NewReal returns a File handle for the given path. The file need not
// exist yet; OpenForWrite will create it.
func NewReal(path string) *Real {
	return &Real{path: path}
}

// OpenForRead implements File.
func (r *Real) OpenForRead() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != modeClosed {
		return ErrInvalidState
	}
	if err := r.lock(); err != nil {
		return err
	}
	f, err := os.Open(r.path)
	if err != nil {
		r.unlock()
		return fmt.Errorf("csfile: open %s for read: %w", r.path, err)
	}
	r.file = f
	r.reader = bufio.NewReader(f)
	r.mode = modeRead
	return nil
}

// OpenForWrite implements File. Unlike OpenForRead, it does not touch the
// destination path yet: content is buffered in memory until Close, when it
// is published atomically.
func (r *Real) OpenForWrite() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != modeClosed {
		return ErrInvalidState
	}
	if err := r.lock(); err != nil {
		return err
	}
	r.writeBuf.Reset()
	r.mode = modeWrite
	return nil
}

// ReadLine implements File.
func (r *Real) ReadLine() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != modeRead {
		return "", ErrInvalidState
	}
	line, err := r.reader.ReadString('\n')
	if len(line) == 0 && err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrEndOfFile
		}
		return "", fmt.Errorf("csfile: read %s: %w", r.path, err)
	}
	// A final line with no trailing newline is still a complete line; only
	// a genuinely empty read at true EOF signals ErrEndOfFile.
	return line, nil
}

// Write implements File.
func (r *Real) Write(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != modeWrite {
		return ErrInvalidState
	}
	r.writeBuf.WriteString(s)
	return nil
}

// Close implements File. For a handle opened with OpenForWrite, Close is
// the moment the buffered content actually reaches disk: atomic.WriteFile
// writes it to a temp file in the same directory and renames it over path,
// so a concurrent reader either sees the old file in full or the new one,
// never a truncated write.
func (r *Real) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == modeClosed {
		return ErrInvalidState
	}
	var err error
	switch r.mode {
	case modeWrite:
		err = atomic.WriteFile(r.path, bytes.NewReader(r.writeBuf.Bytes()))
		r.writeBuf.Reset()
	case modeRead:
		err = r.file.Close()
		r.file = nil
		r.reader = nil
	}
	r.mode = modeClosed
	r.unlock()
	if err != nil {
		return fmt.Errorf("csfile: close %s: %w", r.path, err)
	}
	return nil
}

func (r *Real) lock() error {
	fd, err := syscall.Open(r.path+".lock", syscall.O_CREAT|syscall.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("csfile: open lock for %s: %w", r.path, err)
	}
	if err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("csfile: %s is locked by another save/load: %w", r.path, err)
	}
	r.lockFD = fd
	return nil
}

func (r *Real) unlock() {
	if r.lockFD != 0 {
		syscall.Flock(r.lockFD, syscall.LOCK_UN)
		syscall.Close(r.lockFD)
		r.lockFD = 0
	}
}
