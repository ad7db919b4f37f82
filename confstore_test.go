// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package confstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/confstore/cserr"
	"github.com/grailbio/confstore/csfile"
	"github.com/grailbio/confstore/permission"
)

func registerDemoSettings(s *Store) error {
	if err := s.RegisterReal("menu1/setting1", permission.User, 1.23); err != nil {
		return err
	}
	if err := s.RegisterInt("menu1/setting2", permission.User, 45); err != nil {
		return err
	}
	return s.RegisterString("menu2/setting3", permission.User, "string3")
}

func TestNewRunsCallbacksAndAllowsAccess(t *testing.T) {
	s, err := New(Options{Callbacks: []RegisterFunc{registerDemoSettings}})
	require.NoError(t, err)

	v, p, err := s.GetReal("menu1/setting1")
	require.NoError(t, err)
	require.Equal(t, 1.23, v)
	require.Equal(t, permission.User, p)

	require.False(t, s.IsPersistentStorageEnabled(), "no file handle was supplied")
}

func TestNewWithoutFileLeavesPersistenceDisabled(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)
	require.False(t, s.IsPersistentStorageEnabled())
}

// emptySettingsFile is a valid persisted file with no entries: just the
// trailer, whose CRC-32 over zero bytes is 0.
const emptySettingsFile = "\r0\n"

func TestSaveLoadRoundtrip(t *testing.T) {
	f := csfile.Fake{Content: []byte(emptySettingsFile)}
	s, err := New(Options{Callbacks: []RegisterFunc{registerDemoSettings}, File: &f})
	require.NoError(t, err)
	require.True(t, s.IsPersistentStorageEnabled())

	require.NoError(t, s.PutInt("menu1/setting2", 99))
	require.NoError(t, s.Save())

	fresh, err := New(Options{File: &f})
	require.NoError(t, err)
	v, _, err := fresh.GetInt("menu1/setting2")
	require.NoError(t, err)
	require.Equal(t, int64(99), v)
}

func TestNewSurfacesLoadFailureButStaysUsable(t *testing.T) {
	f := &csfile.Fake{Content: []byte("not a valid settings file\n")}
	s, err := New(Options{Callbacks: []RegisterFunc{registerDemoSettings}, File: f})
	require.Error(t, err)
	require.True(t, cserr.Is(err, cserr.Filesystem))
	require.NotNil(t, s)

	// The failed load triggered a restore-defaults; registered settings
	// are still readable at their defaults.
	v, _, getErr := s.GetReal("menu1/setting1")
	require.NoError(t, getErr)
	require.Equal(t, 1.23, v)
}

func TestDisablePersistentStorage(t *testing.T) {
	f := csfile.Fake{Content: []byte(emptySettingsFile)}
	s, err := New(Options{File: &f})
	require.NoError(t, err)
	require.True(t, s.IsPersistentStorageEnabled())
	require.True(t, s.DisablePersistentStorage())
	require.False(t, s.IsPersistentStorageEnabled())
}

func TestSaveWithoutFileHandleErrors(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)
	err = s.Save()
	require.True(t, cserr.Is(err, cserr.Filesystem))
}

func TestCallbackKeyCollisionIsLoggedAndIgnored(t *testing.T) {
	dup := func(s *Store) error {
		if err := s.RegisterInt("k", permission.User, 1); err != nil {
			return err
		}
		return s.RegisterInt("k", permission.Admin, 2)
	}
	s, err := New(Options{Callbacks: []RegisterFunc{dup}})
	require.NoError(t, err, "a registration collision is logged, not surfaced as a construction error")
	v, p, err := s.GetInt("k")
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
	require.Equal(t, permission.User, p)
}

func TestRestoreDefaultsWithPermissionFilter(t *testing.T) {
	s, err := New(Options{Callbacks: []RegisterFunc{registerDemoSettings}})
	require.NoError(t, err)
	require.NoError(t, s.PutReal("menu1/setting1", 9.9))
	require.NoError(t, s.PutInt("menu1/setting2", 100))
	require.NoError(t, s.PutString("menu2/setting3", "changed"))

	// All three settings carry permissions other than {SYSTEM}; excluding
	// an exact match against SYSTEM restores all of them.
	require.NoError(t, s.RestoreDefaults("", permission.System, permission.ExcludeAll))

	v1, _, _ := s.GetReal("menu1/setting1")
	v2, _, _ := s.GetInt("menu1/setting2")
	v3, _, _ := s.GetString("menu2/setting3", 0)
	require.Equal(t, 1.23, v1)
	require.Equal(t, int64(45), v2)
	require.Equal(t, "string3", v3)
}
