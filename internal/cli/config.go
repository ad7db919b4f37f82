// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/grailbio/confstore/permission"
)

// Config is the JSON (JSONC, via hujson) bootstrap file read by the demo
// binary: which file backs persistent storage, and which settings to
// register before the store is handed to a command.
type Config struct {
	// SettingsFile is the path the store persists to. Empty disables
	// persistent storage for this run.
	SettingsFile string `json:"settings_file,omitempty"`
	// MutexTimeoutMS overrides csconcurrent.DefaultMutexTimeoutMS. Zero
	// selects the default.
	MutexTimeoutMS int `json:"mutex_timeout_ms,omitempty"`
	// Defaults lists the settings to register at startup.
	Defaults []SettingDefault `json:"defaults"`
}

// SettingDefault describes one setting to register at startup.
type SettingDefault struct {
	Key        string   `json:"key"`
	Kind       string   `json:"kind"` // "real", "int", or "string"
	Permission []string `json:"permission"`
	Real       float64  `json:"real,omitempty"`
	Int        int64    `json:"int,omitempty"`
	Str        string   `json:"str,omitempty"`
}

// DefaultConfig returns the bootstrap used when no config file is found: a
// handful of settings under two menus, mirroring the shape of a typical
// embedded settings tree.
func DefaultConfig() Config {
	return Config{
		SettingsFile: "confstore-demo.settings",
		Defaults: []SettingDefault{
			{Key: "menu1/setting1", Kind: "real", Permission: []string{"USER"}, Real: 1.23},
			{Key: "menu1/setting2", Kind: "int", Permission: []string{"USER"}, Int: 45},
			{Key: "menu2/setting3", Kind: "string", Permission: []string{"USER"}, Str: "string3"},
		},
	}
}

// LoadConfig reads and parses the bootstrap file at path. A missing file is
// not an error: DefaultConfig is returned instead, so the demo binary runs
// out of the box with no setup.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return cfg, nil
}

// ParsePermission turns names like {"USER","VOLATILE"} into a
// permission.Permission bitmask.
func ParsePermission(names []string) (permission.Permission, error) {
	var p permission.Permission
	for _, name := range names {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "SYSTEM":
			p |= permission.System
		case "ADMIN":
			p |= permission.Admin
		case "USER":
			p |= permission.User
		case "VOLATILE":
			p |= permission.Volatile
		default:
			return 0, fmt.Errorf("unknown permission %q", name)
		}
	}
	return p, nil
}

// ParseFilter turns a mode name ("matchall", "matchany", "excludeall",
// "excludeany", case-insensitive) into a permission.Filter.
func ParseFilter(name string) (permission.Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "matchall":
		return permission.MatchAll, nil
	case "matchany":
		return permission.MatchAny, nil
	case "excludeall":
		return permission.ExcludeAll, nil
	case "excludeany":
		return permission.ExcludeAny, nil
	default:
		return 0, fmt.Errorf("unknown filter mode %q", name)
	}
}

// registerFromConfig builds a callback over the registrar interface (see
// run.go, which wraps it in a confstore.RegisterFunc) that registers every
// entry in defaults.
func registerFromConfig(defaults []SettingDefault) func(reg registrar) error {
	return func(reg registrar) error {
		for _, d := range defaults {
			perms, err := ParsePermission(d.Permission)
			if err != nil {
				return fmt.Errorf("setting %s: %w", d.Key, err)
			}
			switch strings.ToLower(d.Kind) {
			case "real":
				if err := reg.RegisterReal(d.Key, perms, d.Real); err != nil {
					return err
				}
			case "int":
				if err := reg.RegisterInt(d.Key, perms, d.Int); err != nil {
					return err
				}
			case "string":
				if err := reg.RegisterString(d.Key, perms, d.Str); err != nil {
					return err
				}
			default:
				return fmt.Errorf("setting %s: unknown kind %q", d.Key, d.Kind)
			}
		}
		return nil
	}
}
