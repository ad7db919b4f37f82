// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/confstore/permission"
)

func TestLoadConfigMissingPathReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigParsesJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.json")
	content := `{
		// a line comment, valid JSONC
		"settings_file": "demo.settings",
		"defaults": [
			{"key": "menu1/setting1", "kind": "real", "permission": ["USER"], "real": 1.23},
		],
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "demo.settings", cfg.SettingsFile)
	require.Len(t, cfg.Defaults, 1)
	require.Equal(t, "menu1/setting1", cfg.Defaults[0].Key)
}

func TestLoadConfigRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission([]string{"USER", "volatile"})
	require.NoError(t, err)
	require.Equal(t, permission.User|permission.Volatile, p)
}

func TestParsePermissionRejectsUnknown(t *testing.T) {
	_, err := ParsePermission([]string{"NOPE"})
	require.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("MatchAny")
	require.NoError(t, err)
	require.Equal(t, permission.MatchAny, f)

	_, err = ParseFilter("bogus")
	require.Error(t, err)
}
