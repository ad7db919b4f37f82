// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package permission

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPermissionValid(t *testing.T) {
	require.True(t, None.Valid())
	require.True(t, All.Valid())
	require.True(t, AllVolatile.Valid())
	require.True(t, User.Valid())
	require.False(t, Permission(0x10).Valid())
	require.False(t, Permission(0xFF).Valid())
}

func TestPermissionStringAllVolatile(t *testing.T) {
	require.Equal(t, "SYSTEM | ADMIN | USER | VOLATILE", AllVolatile.String())
}

func TestPermissionStringNone(t *testing.T) {
	got := None.String()
	require.Equal(t, len("SYSTEM | ADMIN | USER | VOLATILE"), len(got))
	require.Equal(t, "       |       |      |         ", got)
}

func TestPermissionStringInvalidReturnsEmpty(t *testing.T) {
	require.Equal(t, "", Permission(0x10).String())
}

func TestPermissionStringMixed(t *testing.T) {
	p := System | User
	require.Equal(t, "SYSTEM |       | USER |         ", p.String())
}

func TestFilterValid(t *testing.T) {
	require.True(t, MatchAll.Valid())
	require.True(t, MatchAny.Valid())
	require.True(t, ExcludeAll.Valid())
	require.True(t, ExcludeAny.Valid())
	require.False(t, Filter(0).Valid())
	require.False(t, Filter(5).Valid())
}

func TestFilterMatch(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		p, q   Permission
		want   bool
	}{
		{"match-all-equal", MatchAll, User, User, true},
		{"match-all-unequal", MatchAll, User, Admin, false},
		{"match-any-overlap", MatchAny, User | Admin, Admin, true},
		{"match-any-none", MatchAny, User, Admin, false},
		{"exclude-all-equal", ExcludeAll, User, User, false},
		{"exclude-all-unequal", ExcludeAll, User, Admin, true},
		{"exclude-any-overlap", ExcludeAny, User | Admin, Admin, false},
		{"exclude-any-none", ExcludeAny, User, Admin, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.filter.Match(c.p, c.q))
		})
	}
}
