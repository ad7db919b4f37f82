// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package cslog provides the leveled logging shim used by confstore's
// internal diagnostics (registration key collisions during construction). It
// mirrors github.com/grailbio/base/log: output goes through a replaceable
// Outputter so a host application can redirect confstore's diagnostics into
// its own logging system, while the default outputter wraps the standard
// library "log" package.
package cslog

import (
	"fmt"
	golog "log"
)

// Level is a log verbosity level. Lower levels have higher priority.
type Level int

const (
	// Error outputs error messages; used for conditions that are logged
	// and ignored rather than surfaced as a fatal error (e.g. a
	// registration key collision).
	Error Level = iota
	// Info outputs informational messages.
	Info
)

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// An Outputter receives confstore's diagnostic output.
type Outputter interface {
	Output(level Level, s string)
}

type golibOutputter struct{}

func (golibOutputter) Output(level Level, s string) {
	golog.Printf("[confstore %s] %s", level, s)
}

var out Outputter = golibOutputter{}

// SetOutputter replaces the package's outputter and returns the previous
// one. Not safe to call concurrently with logging.
func SetOutputter(o Outputter) Outputter {
	prev := out
	out = o
	return prev
}

// Errorf formats a message in the manner of fmt.Sprintf and logs it at
// Error level.
func Errorf(format string, v ...interface{}) {
	out.Output(Error, fmt.Sprintf(format, v...))
}

// Infof formats a message in the manner of fmt.Sprintf and logs it at Info
// level.
func Infof(format string, v ...interface{}) {
	out.Output(Info, fmt.Sprintf(format, v...))
}
