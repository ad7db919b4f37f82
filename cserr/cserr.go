// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package cserr implements the Kind-tagged error type returned across the
// confstore API boundary. It is a trimmed-down cousin of
// github.com/grailbio/base/errors: a Kind classifies what went wrong, an
// optional wrapped error records the cause, and E constructs and chains
// errors from a small set of argument types.
package cserr

import (
	"errors"
	"fmt"
)

// Kind classifies a confstore error. The zero Kind is Other, which E
// assigns when no Kind argument is given; the API's own errors always name
// a specific Kind.
type Kind int

const (
	// Other indicates an unclassified error.
	Other Kind = iota
	// InvalidInput indicates a null/empty key, invalid permission bitmask,
	// invalid filter mode, or other malformed argument.
	InvalidInput
	// KeyNotFound indicates no entry exists under the given key.
	KeyNotFound
	// KeyExists indicates registration found an already-occupied slot.
	KeyExists
	// TypeMismatch indicates an operation's type differs from the entry's
	// type tag.
	TypeMismatch
	// BufferTooSmall indicates a string output buffer cannot fit the value.
	BufferTooSmall
	// Filesystem indicates an I/O failure, CRC mismatch, or codec parse
	// failure encountered while loading or storing settings.
	Filesystem
)

var kinds = map[Kind]string{
	Other:          "unknown error",
	InvalidInput:   "invalid input",
	KeyNotFound:    "key not found",
	KeyExists:      "key already exists",
	TypeMismatch:   "type mismatch",
	BufferTooSmall: "insufficient buffer size",
	Filesystem:     "settings filesystem error",
}

// String returns a human-readable explanation of k.
func (k Kind) String() string {
	if s, ok := kinds[k]; ok {
		return s
	}
	return kinds[Other]
}

// Error is the error type the confstore API returns for the failures in its
// error taxonomy; a trie-access timeout is returned as
// csconcurrent.ErrTimeout instead. It carries a Kind, an optional message,
// and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b []byte
	b = append(b, e.Kind.String()...)
	if e.Message != "" {
		b = append(b, ": "...)
		b = append(b, e.Message...)
	}
	if e.Err != nil {
		b = append(b, ": "...)
		b = append(b, e.Err.Error()...)
	}
	return string(b)
}

// Unwrap allows errors.Is/errors.As to traverse into the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// E constructs a new *Error from its arguments. Arguments are interpreted
// by their type:
//
//   - Kind: sets the Kind (the last one wins if more than one is given)
//   - string: appended to the Message (space separated)
//   - error: sets Err, the wrapped cause
//
// Any other argument type is a programmer error and panics, since E is only
// ever called with literal arguments internal to this module.
func E(args ...interface{}) error {
	e := &Error{Kind: Other}
	var msg []string
	for _, arg := range args {
		switch v := arg.(type) {
		case Kind:
			e.Kind = v
		case string:
			msg = append(msg, v)
		case error:
			e.Err = v
		default:
			panic(fmt.Sprintf("cserr.E: unsupported argument type %T", arg))
		}
	}
	if len(msg) > 0 {
		e.Message = joinSpace(msg)
	}
	return e
}

func joinSpace(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}

// Is reports whether the first *Error found in err's chain (err itself or
// a cause reached through Unwrap) has the given Kind. A *Error nested
// inside another *Error is not consulted.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
