// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/grailbio/confstore"
)

// GetCmd returns the "get" subcommand, which prints a setting's current or
// default value and permission string.
func GetCmd(store *confstore.Store) *Command {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	kind := flags.String("type", "", "value type: real, int, or string (required)")
	wantDefault := flags.Bool("default", false, "read the default value instead of the current one")
	maxSize := flags.Int("max-size", 0, "for --type string, the destination buffer size to enforce (0 = unbounded)")

	return &Command{
		Flags: flags,
		Usage: "get <key> [flags]",
		Short: "read a setting's value and permission",
		Exec: func(o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("get requires exactly one key argument")
			}
			key := args[0]
			switch *kind {
			case "real":
				return getReal(o, store, key, *wantDefault)
			case "int":
				return getInt(o, store, key, *wantDefault)
			case "string":
				return getString(o, store, key, *wantDefault, *maxSize)
			default:
				return fmt.Errorf("--type is required and must be real, int, or string")
			}
		},
	}
}

func getReal(o *IO, store *confstore.Store, key string, wantDefault bool) error {
	getter := store.GetReal
	if wantDefault {
		getter = store.GetDefaultReal
	}
	v, p, err := getter(key)
	if err != nil {
		return err
	}
	o.Printf("%s = %g (%s)\n", key, v, p)
	return nil
}

func getInt(o *IO, store *confstore.Store, key string, wantDefault bool) error {
	getter := store.GetInt
	if wantDefault {
		getter = store.GetDefaultInt
	}
	v, p, err := getter(key)
	if err != nil {
		return err
	}
	o.Printf("%s = %d (%s)\n", key, v, p)
	return nil
}

func getString(o *IO, store *confstore.Store, key string, wantDefault bool, maxSize int) error {
	getter := store.GetString
	if wantDefault {
		getter = store.GetDefaultString
	}
	v, p, err := getter(key, maxSize)
	if err != nil {
		return err
	}
	o.Printf("%s = %q (%s)\n", key, v, p)
	return nil
}
