// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package csfile

import (
	"strings"
)

// Fake is an in-memory File implementation for tests, grounded on the
// fault-injecting filesystem double pattern used by
// _examples/calvinalkan-agent-task/internal/fs (fs.Chaos): it lets a test
// set up corruption scenarios deterministically instead of writing real
// files to disk and flipping bytes in them.
type Fake struct {
	// Content is the backing store. Read opens see this slice; write opens
	// replace it on Close.
	Content []byte

	mode    mode
	lines   []string
	nextIdx int
	pending strings.Builder

	// FailOpenForRead, when non-nil, is returned by OpenForRead instead of
	// succeeding.
	FailOpenForRead error
	// FailOpenForWrite, when non-nil, is returned by OpenForWrite instead
	// of succeeding.
	FailOpenForWrite error
	// FailWrite, when non-nil, is returned by every Write call.
	FailWrite error
	// FailClose, when non-nil, is returned by Close instead of committing
	// pending writes.
	FailClose error
}

// OpenForRead implements File.
func (f *Fake) OpenForRead() error {
	if f.mode != modeClosed {
		return ErrInvalidState
	}
	if f.FailOpenForRead != nil {
		return f.FailOpenForRead
	}
	f.lines = splitKeepingNewlines(string(f.Content))
	f.nextIdx = 0
	f.mode = modeRead
	return nil
}

// OpenForWrite implements File.
func (f *Fake) OpenForWrite() error {
	if f.mode != modeClosed {
		return ErrInvalidState
	}
	if f.FailOpenForWrite != nil {
		return f.FailOpenForWrite
	}
	f.pending.Reset()
	f.mode = modeWrite
	return nil
}

// ReadLine implements File.
func (f *Fake) ReadLine() (string, error) {
	if f.mode != modeRead {
		return "", ErrInvalidState
	}
	if f.nextIdx >= len(f.lines) {
		return "", ErrEndOfFile
	}
	line := f.lines[f.nextIdx]
	f.nextIdx++
	return line, nil
}

// Write implements File.
func (f *Fake) Write(s string) error {
	if f.mode != modeWrite {
		return ErrInvalidState
	}
	if f.FailWrite != nil {
		return f.FailWrite
	}
	f.pending.WriteString(s)
	return nil
}

// Close implements File.
func (f *Fake) Close() error {
	if f.mode == modeClosed {
		return ErrInvalidState
	}
	wasWrite := f.mode == modeWrite
	f.mode = modeClosed
	if wasWrite {
		if f.FailClose != nil {
			return f.FailClose
		}
		f.Content = []byte(f.pending.String())
		f.pending.Reset()
	}
	return nil
}

// splitKeepingNewlines splits s into lines, each retaining its trailing
// "\n" except possibly the last line if s doesn't end in one. An empty s
// yields zero lines.
func splitKeepingNewlines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
