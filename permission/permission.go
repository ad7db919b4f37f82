// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package permission implements the four-bit permission flag set and the
// four filter modes shared uniformly by confstore's listing and
// restore-defaults operations.
package permission

import "strings"

// Permission is a bitmask over {SYSTEM, ADMIN, USER, VOLATILE}.
type Permission uint8

const (
	// System marks a setting as system-owned.
	System Permission = 1 << iota
	// Admin marks a setting as admin-owned.
	Admin
	// User marks a setting as user-owned.
	User
	// Volatile marks an in-memory-only entry; such entries are skipped by
	// the persistence codec.
	Volatile
)

const (
	// All is the aggregate of the three persistable permission bits.
	All = System | Admin | User
	// AllVolatile is All plus Volatile: every defined permission bit. The
	// loader assigns Volatile alone to entries synthesized for unknown
	// on-disk keys.
	AllVolatile = All | Volatile
	// None is the empty permission set.
	None Permission = 0
)

// Valid reports whether p is a subset of AllVolatile, i.e. contains no bits
// outside {SYSTEM, ADMIN, USER, VOLATILE}.
func (p Permission) Valid() bool {
	return p&^AllVolatile == 0
}

// field widths for String's fixed-column rendering, in order
// SYSTEM | ADMIN | USER | VOLATILE.
var fieldNames = [4]string{"SYSTEM", "ADMIN", "USER", "VOLATILE"}
var fieldBits = [4]Permission{System, Admin, User, Volatile}

// renderedWidth is the length of the fully-populated rendering
// "SYSTEM | ADMIN | USER | VOLATILE", used as the minimum buffer size
// callers porting the original C signature should check for.
const renderedWidth = len("SYSTEM | ADMIN | USER | VOLATILE")

// String renders p as four fixed-width fields separated by " | ", in order
// SYSTEM/ADMIN/USER/VOLATILE: each field is either the capital-letter tag
// or spaces of identical width. String returns "" if p is not Valid; a Go
// string return has no fixed destination buffer to overflow, so the
// caller-supplied-buffer precondition this mirrors doesn't apply here.
func (p Permission) String() string {
	if !p.Valid() {
		return ""
	}
	var b strings.Builder
	for i, name := range fieldNames {
		if i > 0 {
			b.WriteString(" | ")
		}
		if p&fieldBits[i] != 0 {
			b.WriteString(name)
		} else {
			b.WriteString(strings.Repeat(" ", len(name)))
		}
	}
	return b.String()
}
