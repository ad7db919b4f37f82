// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package permission

// Filter is one of the four listing/restore-defaults filter modes. The
// zero value is not a valid Filter; use the exported constants.
type Filter int

const (
	// MatchAll selects entries whose permissions equal Q exactly.
	MatchAll Filter = 1 + iota
	// MatchAny selects entries whose permissions share at least one bit
	// with Q.
	MatchAny
	// ExcludeAll selects entries whose permissions are not exactly Q.
	ExcludeAll
	// ExcludeAny selects entries whose permissions share no bit with Q.
	ExcludeAny
)

// String implements fmt.Stringer, so callers (including the demo CLI) can
// print which filter mode is active.
func (f Filter) String() string {
	switch f {
	case MatchAll:
		return "MatchAll"
	case MatchAny:
		return "MatchAny"
	case ExcludeAll:
		return "ExcludeAll"
	case ExcludeAny:
		return "ExcludeAny"
	default:
		return "Invalid"
	}
}

// Valid reports whether f is one of the four defined filter modes.
func (f Filter) Valid() bool {
	switch f {
	case MatchAll, MatchAny, ExcludeAll, ExcludeAny:
		return true
	default:
		return false
	}
}

// Match reports whether entry permissions p pass this filter against
// query permissions q.
func (f Filter) Match(p, q Permission) bool {
	switch f {
	case MatchAll:
		return p == q
	case MatchAny:
		return p&q != 0
	case ExcludeAll:
		return p != q
	case ExcludeAny:
		return p&q == 0
	default:
		return false
	}
}
