// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package persist implements the line-oriented, CRC-32-trailered
// persistence codec: Save serializes the live, non-volatile entry set to
// a csfile.File; Load runs a strict verify-then-ingest two-pass read,
// never touching in-memory state unless the trailer's checksum is
// confirmed first.
package persist

import (
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/grailbio/confstore/cserr"
	"github.com/grailbio/confstore/csfile"
	"github.com/grailbio/confstore/internal/valuestore"
	"github.com/grailbio/confstore/permission"
)

func formatValue(kind valuestore.Kind, v valuestore.Value) string {
	switch kind {
	case valuestore.KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case valuestore.KindInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Str
	}
}

// Save writes every non-volatile entry of store to f, in lexicographic key
// order, followed by the CRC-32 trailer line.
func Save(store *valuestore.Store, f csfile.File) error {
	if err := f.OpenForWrite(); err != nil {
		return cserr.E(cserr.Filesystem, err)
	}
	crc := crc32.NewIEEE()
	werr := store.ForEachOrderedUntil(func(key string, snap valuestore.Snapshot) error {
		if snap.Perms&permission.Volatile != 0 {
			return nil
		}
		line := key + "\t" + strconv.Itoa(int(snap.Kind)) + "\t" + formatValue(snap.Kind, snap.Current) + "\n"
		crc.Write([]byte(line))
		return f.Write(line)
	})
	if werr != nil {
		f.Close()
		return cserr.E(cserr.Filesystem, werr)
	}
	trailer := "\r" + strconv.FormatUint(uint64(crc.Sum32()), 10) + "\n"
	if err := f.Write(trailer); err != nil {
		f.Close()
		return cserr.E(cserr.Filesystem, err)
	}
	if err := f.Close(); err != nil {
		return cserr.E(cserr.Filesystem, err)
	}
	return nil
}

// Load reads f into store. It runs the verify pass to completion first: if
// the file lacks a well-formed trailer, or the computed CRC doesn't match
// it, store is left untouched and an error is returned. Only then does the
// ingest pass run, put-ing or registering (as VOLATILE) each entry found.
//
// The ingest pass does not roll back on a mid-file failure: entries
// mutated before the failing line remain mutated. Callers that want a
// clean slate on failure should call RestoreDefaults("", ...) after a
// failed Load.
func Load(store *valuestore.Store, f csfile.File) error {
	if err := verify(f); err != nil {
		return err
	}
	return ingest(store, f)
}

func verify(f csfile.File) error {
	if err := f.OpenForRead(); err != nil {
		return cserr.E(cserr.Filesystem, err)
	}
	defer f.Close()

	crc := crc32.NewIEEE()
	var expected uint32
	var haveTrailer bool
	for {
		line, err := f.ReadLine()
		if err == csfile.ErrEndOfFile {
			break
		}
		if err != nil {
			return cserr.E(cserr.Filesystem, err)
		}
		if haveTrailer {
			return cserr.E(cserr.Filesystem, "data follows the trailer line")
		}
		if strings.HasPrefix(line, "\r") {
			rest := strings.TrimSuffix(line[1:], "\n")
			v, err := strconv.ParseUint(rest, 10, 32)
			if err != nil {
				return cserr.E(cserr.Filesystem, "malformed trailer", err)
			}
			expected = uint32(v)
			haveTrailer = true
			continue
		}
		crc.Write([]byte(line))
	}
	if !haveTrailer {
		return cserr.E(cserr.Filesystem, "missing trailer")
	}
	if crc.Sum32() != expected {
		return cserr.E(cserr.Filesystem, "crc mismatch")
	}
	return nil
}

func ingest(store *valuestore.Store, f csfile.File) error {
	if err := f.OpenForRead(); err != nil {
		return cserr.E(cserr.Filesystem, err)
	}
	defer f.Close()

	for {
		line, err := f.ReadLine()
		if err == csfile.ErrEndOfFile {
			break
		}
		if err != nil {
			return cserr.E(cserr.Filesystem, err)
		}
		if strings.HasPrefix(line, "\r") {
			continue // trailer; checksum already confirmed by verify
		}
		if err := ingestLine(store, strings.TrimSuffix(line, "\n")); err != nil {
			return cserr.E(cserr.Filesystem, err)
		}
	}
	return nil
}

func ingestLine(store *valuestore.Store, body string) error {
	tab1 := strings.IndexByte(body, '\t')
	if tab1 <= 0 {
		return cserr.E(cserr.Filesystem, "missing or empty key")
	}
	key := body[:tab1]
	rest := body[tab1+1:]

	tab2 := strings.IndexByte(rest, '\t')
	if tab2 < 0 {
		return cserr.E(cserr.Filesystem, "missing value-type ordinal")
	}
	ordinal, err := strconv.Atoi(rest[:tab2])
	if err != nil || ordinal < 0 || ordinal > 2 {
		return cserr.E(cserr.Filesystem, "invalid value-type ordinal")
	}

	valueText := rest[tab2+1:]
	if valueText == "" {
		return cserr.E(cserr.Filesystem, "empty value text")
	}

	switch valuestore.Kind(ordinal) {
	case valuestore.KindReal:
		v, err := strconv.ParseFloat(valueText, 64)
		if err != nil {
			return cserr.E(cserr.Filesystem, "malformed real value", err)
		}
		return putOrRegisterReal(store, key, v)
	case valuestore.KindInt:
		v, err := strconv.ParseInt(valueText, 10, 64)
		if err != nil {
			return cserr.E(cserr.Filesystem, "malformed integer value", err)
		}
		return putOrRegisterInt(store, key, v)
	default:
		return putOrRegisterString(store, key, valueText)
	}
}

func putOrRegisterReal(store *valuestore.Store, key string, v float64) error {
	if err := store.PutReal(key, v); err != nil {
		if cserr.Is(err, cserr.KeyNotFound) {
			return store.RegisterReal(key, permission.Volatile, v)
		}
		return err
	}
	return nil
}

func putOrRegisterInt(store *valuestore.Store, key string, v int64) error {
	if err := store.PutInt(key, v); err != nil {
		if cserr.Is(err, cserr.KeyNotFound) {
			return store.RegisterInt(key, permission.Volatile, v)
		}
		return err
	}
	return nil
}

func putOrRegisterString(store *valuestore.Store, key string, v string) error {
	if err := store.PutString(key, v); err != nil {
		if cserr.Is(err, cserr.KeyNotFound) {
			return store.RegisterString(key, permission.Volatile, v)
		}
		return err
	}
	return nil
}
