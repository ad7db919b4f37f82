// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package confstore implements the public storage facade: construction
// runs a list of registration callbacks against an empty store,
// optionally loads a persisted file, and then exposes typed
// get/put/register, prefix listing, restore-defaults, and explicit
// save/load, all backed by internal/valuestore and internal/persist.
package confstore

import (
	"github.com/grailbio/confstore/cserr"
	"github.com/grailbio/confstore/cslog"
	"github.com/grailbio/confstore/csfile"
	"github.com/grailbio/confstore/csos"
	"github.com/grailbio/confstore/internal/csconcurrent"
	"github.com/grailbio/confstore/internal/persist"
	"github.com/grailbio/confstore/internal/valuestore"
	"github.com/grailbio/confstore/permission"
)

// RegisterFunc is a registration callback invoked once, in order, during
// construction. It registers its settings against s via s.RegisterReal,
// s.RegisterInt, and s.RegisterString.
type RegisterFunc func(s *Store) error

// Options configures New.
type Options struct {
	// OS supplies the mutex/semaphore primitives for the concurrency
	// layer. If nil, csos.Real{} is used.
	OS csos.OS
	// MutexTimeoutMS bounds every trie acquisition and lifecycle-mutex
	// wait. If <= 0, csconcurrent.DefaultMutexTimeoutMS is used.
	MutexTimeoutMS int
	// Callbacks run in order against the empty store before any other
	// API is exposed.
	Callbacks []RegisterFunc
	// File, if non-nil, is loaded immediately after the callbacks run;
	// its presence also enables persistent storage.
	File csfile.File
	// ForceDisablePersistentStorage, if true, makes New behave as if File
	// were nil regardless of what was actually supplied: no load is
	// attempted, persistent storage is reported disabled, and Save/Load/
	// Close all act as though no file handle were configured. A
	// build-time escape hatch for environments that must never touch
	// disk.
	ForceDisablePersistentStorage bool
}

// Store is the public facade. The zero value is not usable; construct
// with New.
type Store struct {
	values *valuestore.Store
	file   csfile.File

	lifecycleMu       csos.Mutex
	timeoutMS         int
	persistentEnabled bool
}

// New constructs a Store: it creates an empty value store, runs every
// callback in opts.Callbacks in order, and, if opts.File is set and
// opts.ForceDisablePersistentStorage is false, loads it and enables
// persistent storage. If the load fails, New calls RestoreDefaults and
// returns the loader's error alongside a non-nil, usable Store: a failed
// load does not prevent the facade from coming up, it only surfaces the
// failure to the caller. If opts.ForceDisablePersistentStorage is true,
// opts.File is treated as absent regardless of its value.
func New(opts Options) (*Store, error) {
	osImpl := opts.OS
	if osImpl == nil {
		osImpl = csos.Real{}
	}
	timeoutMS := opts.MutexTimeoutMS
	if timeoutMS <= 0 {
		timeoutMS = csconcurrent.DefaultMutexTimeoutMS
	}
	file := opts.File
	if opts.ForceDisablePersistentStorage {
		file = nil
	}
	s := &Store{
		values:      valuestore.New(osImpl, timeoutMS),
		file:        file,
		lifecycleMu: osImpl.CreateMutex(),
		timeoutMS:   timeoutMS,
	}
	for _, cb := range opts.Callbacks {
		if cb == nil {
			continue
		}
		if err := cb(s); err != nil {
			if cserr.Is(err, cserr.KeyExists) {
				cslog.Errorf("confstore: registration callback attempted to re-register an existing key: %v", err)
				continue
			}
			return nil, err
		}
	}
	if file == nil {
		return s, nil
	}
	s.persistentEnabled = true
	if err := persist.Load(s.values, file); err != nil {
		s.values.RestoreDefaults("", permission.AllVolatile, permission.MatchAny)
		return s, err
	}
	return s, nil
}

// IsPersistentStorageEnabled reports whether persistent storage is
// currently enabled, acquiring the lifecycle mutex with the configured
// timeout. It returns false if the mutex could not be acquired in time.
func (s *Store) IsPersistentStorageEnabled() bool {
	if !s.lifecycleMu.Wait(s.timeoutMS) {
		return false
	}
	defer s.lifecycleMu.Signal()
	return s.persistentEnabled
}

// DisablePersistentStorage clears the persistent-storage-enabled flag and
// returns true, or returns false if the lifecycle mutex could not be
// acquired in time.
func (s *Store) DisablePersistentStorage() bool {
	if !s.lifecycleMu.Wait(s.timeoutMS) {
		return false
	}
	defer s.lifecycleMu.Signal()
	s.persistentEnabled = false
	return true
}

// RegisterReal registers a REAL setting with the given default and
// permissions.
func (s *Store) RegisterReal(key string, perms permission.Permission, def float64) error {
	return s.values.RegisterReal(key, perms, def)
}

// RegisterInt registers an INTEGER setting with the given default and
// permissions.
func (s *Store) RegisterInt(key string, perms permission.Permission, def int64) error {
	return s.values.RegisterInt(key, perms, def)
}

// RegisterString registers a STRING setting with the given default and
// permissions.
func (s *Store) RegisterString(key string, perms permission.Permission, def string) error {
	return s.values.RegisterString(key, perms, def)
}

// GetReal returns the current value and permissions of a REAL setting.
func (s *Store) GetReal(key string) (float64, permission.Permission, error) {
	return s.values.GetReal(key)
}

// GetInt returns the current value and permissions of an INTEGER setting.
func (s *Store) GetInt(key string) (int64, permission.Permission, error) {
	return s.values.GetInt(key)
}

// GetString returns the current value and permissions of a STRING
// setting. See valuestore.Store.GetString for the outSize contract.
func (s *Store) GetString(key string, outSize int) (string, permission.Permission, error) {
	return s.values.GetString(key, outSize)
}

// GetDefaultReal returns the default value and permissions of a REAL
// setting.
func (s *Store) GetDefaultReal(key string) (float64, permission.Permission, error) {
	return s.values.GetDefaultReal(key)
}

// GetDefaultInt returns the default value and permissions of an INTEGER
// setting.
func (s *Store) GetDefaultInt(key string) (int64, permission.Permission, error) {
	return s.values.GetDefaultInt(key)
}

// GetDefaultString returns the default value and permissions of a STRING
// setting. See valuestore.Store.GetString for the outSize contract.
func (s *Store) GetDefaultString(key string, outSize int) (string, permission.Permission, error) {
	return s.values.GetDefaultString(key, outSize)
}

// PutReal overwrites the current value of a REAL setting.
func (s *Store) PutReal(key string, v float64) error {
	return s.values.PutReal(key, v)
}

// PutInt overwrites the current value of an INTEGER setting.
func (s *Store) PutInt(key string, v int64) error {
	return s.values.PutInt(key, v)
}

// PutString overwrites the current value of a STRING setting.
func (s *Store) PutString(key string, v string) error {
	return s.values.PutString(key, v)
}

// List returns, in lexicographic order, every key starting with prefix
// whose permissions pass mode against perms.
func (s *Store) List(prefix string, perms permission.Permission, mode permission.Filter) ([]string, error) {
	return s.values.List(prefix, perms, mode)
}

// RestoreDefaults copies the default value over the current value for
// every entry matching prefix/perms/mode.
func (s *Store) RestoreDefaults(prefix string, perms permission.Permission, mode permission.Filter) error {
	return s.values.RestoreDefaults(prefix, perms, mode)
}

// Save serializes the live, non-volatile entry set to the file supplied
// at construction. It returns an error if no file was supplied.
func (s *Store) Save() error {
	if s.file == nil {
		return cserr.E(cserr.Filesystem, "no file handle configured")
	}
	return persist.Save(s.values, s.file)
}

// Load reads the file supplied at construction into the store, following
// the same verify-then-ingest contract as New's implicit load. It
// returns an error if no file was supplied.
func (s *Store) Load() error {
	if s.file == nil {
		return cserr.E(cserr.Filesystem, "no file handle configured")
	}
	return persist.Load(s.values, s.file)
}

// Close calls Close on the file handle, if one was supplied. Save and Load
// open and close the handle themselves, so outside of them the handle is
// already closed and Close returns the handle's error for closing an
// unopened handle (csfile.ErrInvalidState for csfile.Real and csfile.Fake).
func (s *Store) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
