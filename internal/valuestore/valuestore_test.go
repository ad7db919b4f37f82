// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package valuestore

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/confstore/cserr"
	"github.com/grailbio/confstore/csos"
	"github.com/grailbio/confstore/permission"
)

func newStore() *Store {
	return New(csos.Real{}, 100)
}

func TestRegisterAndGetReal(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterReal("menu1/volume", permission.User, 0.5))
	v, p, err := s.GetReal("menu1/volume")
	require.NoError(t, err)
	require.Equal(t, 0.5, v)
	require.Equal(t, permission.User, p)
}

func TestRegisterDuplicateKey(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterInt("k", permission.Admin, 1))
	err := s.RegisterInt("k", permission.Admin, 2)
	require.True(t, cserr.Is(err, cserr.KeyExists))
}

func TestRegisterInvalidKey(t *testing.T) {
	s := newStore()
	require.True(t, cserr.Is(s.RegisterInt("", permission.Admin, 1), cserr.InvalidInput))
	require.True(t, cserr.Is(s.RegisterInt(strings.Repeat("x", 129), permission.Admin, 1), cserr.InvalidInput))
	require.True(t, cserr.Is(s.RegisterInt("has\ttab", permission.Admin, 1), cserr.InvalidInput))
	require.True(t, cserr.Is(s.RegisterString("k", permission.Admin, "bad\nvalue"), cserr.InvalidInput))
}

func TestRegisterKeyAtMaxLenSucceeds(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterInt(strings.Repeat("x", 128), permission.Admin, 1))
}

func TestRegisterInvalidPermission(t *testing.T) {
	s := newStore()
	err := s.RegisterInt("k", permission.Permission(0xF0), 1)
	require.True(t, cserr.Is(err, cserr.InvalidInput))
}

func TestGetUnknownKey(t *testing.T) {
	s := newStore()
	_, _, err := s.GetReal("nope")
	require.True(t, cserr.Is(err, cserr.KeyNotFound))
}

func TestGetTypeMismatch(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterInt("k", permission.System, 3))
	_, _, err := s.GetReal("k")
	require.True(t, cserr.Is(err, cserr.TypeMismatch))
}

func TestPutAndGetString(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterString("label", permission.User, "hello"))
	require.NoError(t, s.PutString("label", "world"))
	v, _, err := s.GetString("label", 0)
	require.NoError(t, err)
	require.Equal(t, "world", v)
}

func TestGetStringBufferTooSmall(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterString("label", permission.User, "hello"))
	_, _, err := s.GetString("label", len("hello"))
	require.True(t, cserr.Is(err, cserr.BufferTooSmall))
	_, _, err = s.GetString("label", len("hello")+1)
	require.NoError(t, err)
}

func TestPutStringRejectsControlChars(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterString("label", permission.User, "hello"))
	err := s.PutString("label", "bad\ttab")
	require.True(t, cserr.Is(err, cserr.InvalidInput))
}

func TestGetDefaultUnaffectedByPut(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterInt("k", permission.User, 10))
	require.NoError(t, s.PutInt("k", 99))
	cur, _, _ := s.GetInt("k")
	def, _, _ := s.GetDefaultInt("k")
	require.Equal(t, int64(99), cur)
	require.Equal(t, int64(10), def)
}

func TestListPrefixAndPermissionFilter(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterInt("menu1/a", permission.System, 1))
	require.NoError(t, s.RegisterInt("menu1/b", permission.User, 2))
	require.NoError(t, s.RegisterInt("menu2/a", permission.User, 3))

	keys, err := s.List("menu1/", permission.All, permission.MatchAny)
	require.NoError(t, err)
	require.Equal(t, []string{"menu1/a", "menu1/b"}, keys)

	keys, err = s.List("", permission.System, permission.MatchAny)
	require.NoError(t, err)
	require.Equal(t, []string{"menu1/a"}, keys)

	keys, err = s.List("", permission.System, permission.ExcludeAny)
	require.NoError(t, err)
	require.Equal(t, []string{"menu1/b", "menu2/a"}, keys)
}

func TestListInvalidArgs(t *testing.T) {
	s := newStore()
	_, err := s.List("", permission.Permission(0xF0), permission.MatchAny)
	require.True(t, cserr.Is(err, cserr.InvalidInput))
	_, err = s.List("", permission.All, permission.Filter(99))
	require.True(t, cserr.Is(err, cserr.InvalidInput))
}

func TestRestoreDefaults(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterInt("menu1/a", permission.User, 1))
	require.NoError(t, s.RegisterInt("menu1/b", permission.Admin, 2))
	require.NoError(t, s.PutInt("menu1/a", 100))
	require.NoError(t, s.PutInt("menu1/b", 200))

	require.NoError(t, s.RestoreDefaults("menu1/", permission.User, permission.MatchAny))
	a, _, _ := s.GetInt("menu1/a")
	b, _, _ := s.GetInt("menu1/b")
	require.Equal(t, int64(1), a, "matched entry restored to default")
	require.Equal(t, int64(200), b, "non-matching entry left untouched")
}

func TestForEachOrderedVisitsInKeyOrder(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterInt("b", permission.User, 1))
	require.NoError(t, s.RegisterInt("a", permission.User, 2))
	require.NoError(t, s.RegisterInt("c", permission.User, 3))

	var keys []string
	require.NoError(t, s.ForEachOrdered(func(key string, snap Snapshot) {
		keys = append(keys, key)
	}))
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestForEachOrderedSnapshotsMatchRegisteredEntries(t *testing.T) {
	s := newStore()
	require.NoError(t, s.RegisterReal("menu1/volume", permission.User, 0.5))
	require.NoError(t, s.RegisterInt("menu1/count", permission.System, 7))

	got := map[string]Snapshot{}
	require.NoError(t, s.ForEachOrdered(func(key string, snap Snapshot) {
		got[key] = snap
	}))

	want := map[string]Snapshot{
		"menu1/volume": {Kind: KindReal, Current: Value{Real: 0.5}, Perms: permission.User},
		"menu1/count":  {Kind: KindInt, Current: Value{Int: 7}, Perms: permission.System},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSize(t *testing.T) {
	s := newStore()
	n, err := s.Size()
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.NoError(t, s.RegisterInt("k", permission.User, 1))
	n, err = s.Size()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
