// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package valuestore implements the typed entry store: registration,
// typed get/put, listing, and restore-defaults, all enforced with a
// fixed type discipline and the permission package's filter modes. It
// sits on top of internal/csconcurrent's reader/writer-guarded trie.
package valuestore

import (
	"strings"

	"github.com/grailbio/confstore/cserr"
	"github.com/grailbio/confstore/internal/csconcurrent"
	"github.com/grailbio/confstore/internal/triecore"
	"github.com/grailbio/confstore/csos"
	"github.com/grailbio/confstore/permission"
)

// Kind is a value's type tag. Ordinals match the on-disk encoding:
// REAL=0, INTEGER=1, STRING=2.
type Kind uint8

const (
	KindReal Kind = iota
	KindInt
	KindString
)

// MaxKeyLen is the maximum key length in bytes.
const MaxKeyLen = 128

// Value is the tagged union of a setting's payload.
type Value struct {
	Real float64
	Int  int64
	Str  string
}

// entry is the owned record under a key: type tag, current payload,
// default payload, and permission bitmask.
type entry struct {
	kind    Kind
	current Value
	deflt   Value
	perms   permission.Permission
}

// Snapshot is a read-only view of one entry, used by the persistence codec
// to iterate the live set in key order.
type Snapshot struct {
	Kind    Kind
	Current Value
	Perms   permission.Permission
}

// Store is the typed value store. The zero value is not usable; construct
// with New.
type Store struct {
	trie *csconcurrent.Trie[*entry]
}

// New constructs an empty Store backed by the given OS abstraction.
// timeoutMS <= 0 selects csconcurrent.DefaultMutexTimeoutMS.
func New(os csos.OS, timeoutMS int) *Store {
	return &Store{trie: csconcurrent.New[*entry](os, timeoutMS)}
}

func validateKeyBasic(key string) error {
	if key == "" {
		return cserr.E(cserr.InvalidInput, "empty key")
	}
	return nil
}

func validateKeyFull(key string) error {
	if key == "" {
		return cserr.E(cserr.InvalidInput, "empty key")
	}
	if len(key) > MaxKeyLen {
		return cserr.E(cserr.InvalidInput, "key exceeds maximum length")
	}
	if strings.ContainsAny(key, "\t\n") {
		return cserr.E(cserr.InvalidInput, "key contains tab or newline")
	}
	return nil
}

func validateStringValue(s string) error {
	if strings.ContainsAny(s, "\t\n") {
		return cserr.E(cserr.InvalidInput, "string value contains tab or newline")
	}
	return nil
}

func register(s *Store, key string, perms permission.Permission, kind Kind, def Value) error {
	if err := validateKeyFull(key); err != nil {
		return err
	}
	if !perms.Valid() {
		return cserr.E(cserr.InvalidInput, "invalid permissions")
	}
	if kind == KindString {
		if err := validateStringValue(def.Str); err != nil {
			return err
		}
	}
	e := &entry{kind: kind, current: def, deflt: def, perms: perms}
	var existed bool
	err := s.trie.Write(func(t *triecore.Trie[*entry]) {
		_, existed = t.InsertIfAbsent([]byte(key), e)
	})
	if err != nil {
		return err
	}
	if existed {
		return cserr.E(cserr.KeyExists, "key", key)
	}
	return nil
}

// RegisterReal registers key with a REAL default.
func (s *Store) RegisterReal(key string, perms permission.Permission, def float64) error {
	return register(s, key, perms, KindReal, Value{Real: def})
}

// RegisterInt registers key with an INTEGER default.
func (s *Store) RegisterInt(key string, perms permission.Permission, def int64) error {
	return register(s, key, perms, KindInt, Value{Int: def})
}

// RegisterString registers key with a STRING default.
func (s *Store) RegisterString(key string, perms permission.Permission, def string) error {
	return register(s, key, perms, KindString, Value{Str: def})
}

type readResult struct {
	val       Value
	perms     permission.Permission
	found     bool
	kindMatch bool
}

func get(s *Store, key string, wantKind Kind, useDefault bool) (readResult, error) {
	var r readResult
	if err := validateKeyBasic(key); err != nil {
		return r, err
	}
	err := s.trie.Read(func(t *triecore.Trie[*entry]) {
		e, ok := t.Search([]byte(key))
		if !ok {
			return
		}
		r.found = true
		r.perms = e.perms
		r.kindMatch = e.kind == wantKind
		if !r.kindMatch {
			return
		}
		if useDefault {
			r.val = e.deflt
		} else {
			r.val = e.current
		}
	})
	if err != nil {
		return r, err
	}
	if !r.found {
		return r, cserr.E(cserr.KeyNotFound, "key", key)
	}
	if !r.kindMatch {
		return r, cserr.E(cserr.TypeMismatch, "key", key)
	}
	return r, nil
}

// GetReal returns the current value and permissions for a REAL setting.
func (s *Store) GetReal(key string) (float64, permission.Permission, error) {
	r, err := get(s, key, KindReal, false)
	return r.val.Real, r.perms, err
}

// GetInt returns the current value and permissions for an INTEGER setting.
func (s *Store) GetInt(key string) (int64, permission.Permission, error) {
	r, err := get(s, key, KindInt, false)
	return r.val.Int, r.perms, err
}

// GetString returns the current value and permissions for a STRING
// setting. outSize mirrors the original C API's destination buffer size
// (including the terminator): if outSize > 0 and len(value) >= outSize,
// GetString returns a BufferTooSmall error instead of the value. Pass
// outSize <= 0 for "unbounded" (plain Go usage with no destination buffer
// to size).
func (s *Store) GetString(key string, outSize int) (string, permission.Permission, error) {
	r, err := get(s, key, KindString, false)
	if err != nil {
		return "", r.perms, err
	}
	if outSize > 0 && len(r.val.Str) >= outSize {
		return "", r.perms, cserr.E(cserr.BufferTooSmall, "key", key)
	}
	return r.val.Str, r.perms, nil
}

// GetDefaultReal returns the default value and permissions for a REAL
// setting.
func (s *Store) GetDefaultReal(key string) (float64, permission.Permission, error) {
	r, err := get(s, key, KindReal, true)
	return r.val.Real, r.perms, err
}

// GetDefaultInt returns the default value and permissions for an INTEGER
// setting.
func (s *Store) GetDefaultInt(key string) (int64, permission.Permission, error) {
	r, err := get(s, key, KindInt, true)
	return r.val.Int, r.perms, err
}

// GetDefaultString returns the default value and permissions for a STRING
// setting, with the same outSize contract as GetString.
func (s *Store) GetDefaultString(key string, outSize int) (string, permission.Permission, error) {
	r, err := get(s, key, KindString, true)
	if err != nil {
		return "", r.perms, err
	}
	if outSize > 0 && len(r.val.Str) >= outSize {
		return "", r.perms, cserr.E(cserr.BufferTooSmall, "key", key)
	}
	return r.val.Str, r.perms, nil
}

func put(s *Store, key string, wantKind Kind, v Value) error {
	if err := validateKeyBasic(key); err != nil {
		return err
	}
	var notFound, mismatch bool
	err := s.trie.Write(func(t *triecore.Trie[*entry]) {
		e, ok := t.Search([]byte(key))
		if !ok {
			notFound = true
			return
		}
		if e.kind != wantKind {
			mismatch = true
			return
		}
		e.current = v
	})
	if err != nil {
		return err
	}
	if notFound {
		return cserr.E(cserr.KeyNotFound, "key", key)
	}
	if mismatch {
		return cserr.E(cserr.TypeMismatch, "key", key)
	}
	return nil
}

// PutReal overwrites the current value of a REAL setting.
func (s *Store) PutReal(key string, v float64) error {
	return put(s, key, KindReal, Value{Real: v})
}

// PutInt overwrites the current value of an INTEGER setting.
func (s *Store) PutInt(key string, v int64) error {
	return put(s, key, KindInt, Value{Int: v})
}

// PutString overwrites the current value of a STRING setting.
func (s *Store) PutString(key string, v string) error {
	if err := validateStringValue(v); err != nil {
		return err
	}
	return put(s, key, KindString, Value{Str: v})
}

// List returns, in lexicographic order, every key starting with prefix
// (empty prefix matches all) whose permissions pass mode against perms.
func (s *Store) List(prefix string, perms permission.Permission, mode permission.Filter) ([]string, error) {
	if !perms.Valid() || !mode.Valid() {
		return nil, cserr.E(cserr.InvalidInput, "invalid permissions or filter mode")
	}
	var keys []string
	err := s.trie.Read(func(t *triecore.Trie[*entry]) {
		t.IteratePrefix([]byte(prefix), func(k []byte, e *entry) int {
			if mode.Match(e.perms, perms) {
				keys = append(keys, string(k))
			}
			return 0
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// RestoreDefaults copies each matching entry's default value over its
// current value. It calls List with the same arguments, then restores each
// returned key in turn.
func (s *Store) RestoreDefaults(prefix string, perms permission.Permission, mode permission.Filter) error {
	keys, err := s.List(prefix, perms, mode)
	if err != nil {
		return err
	}
	for _, key := range keys {
		err := s.trie.Write(func(t *triecore.Trie[*entry]) {
			if e, ok := t.Search([]byte(key)); ok {
				e.current = e.deflt
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ForEachOrdered calls fn once per entry in strict lexicographic key order,
// used by the persistence codec to serialize the live set. It holds the
// read lock for the whole traversal, so fn must not call back into s.
func (s *Store) ForEachOrdered(fn func(key string, snap Snapshot)) error {
	return s.trie.Read(func(t *triecore.Trie[*entry]) {
		t.IterateAll(func(k []byte, e *entry) int {
			fn(string(k), Snapshot{Kind: e.kind, Current: e.current, Perms: e.perms})
			return 0
		})
	})
}

// ForEachOrderedUntil calls fn once per entry in ascending key order,
// stopping as soon as fn returns a non-nil error and returning that error.
// Like ForEachOrdered it holds the read lock for the whole traversal.
func (s *Store) ForEachOrderedUntil(fn func(key string, snap Snapshot) error) error {
	var ferr error
	err := s.trie.Read(func(t *triecore.Trie[*entry]) {
		t.IterateAll(func(k []byte, e *entry) int {
			if err := fn(string(k), Snapshot{Kind: e.kind, Current: e.current, Perms: e.perms}); err != nil {
				ferr = err
				return 1
			}
			return 0
		})
	})
	if err != nil {
		return err
	}
	return ferr
}

// Size returns the number of registered (and loader-created volatile)
// entries.
func (s *Store) Size() (int, error) {
	var n int
	err := s.trie.Read(func(t *triecore.Trie[*entry]) {
		n = t.Size()
	})
	return n, err
}
