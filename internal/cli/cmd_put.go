// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/grailbio/confstore"
)

// PutCmd returns the "put" subcommand, which overwrites a setting's
// current value.
func PutCmd(store *confstore.Store) *Command {
	flags := flag.NewFlagSet("put", flag.ContinueOnError)
	kind := flags.String("type", "", "value type: real, int, or string (required)")

	return &Command{
		Flags: flags,
		Usage: "put <key> <value> [flags]",
		Short: "overwrite a setting's current value",
		Exec: func(o *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("put requires exactly a key and a value argument")
			}
			key, raw := args[0], args[1]
			switch *kind {
			case "real":
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("invalid real value %q: %w", raw, err)
				}
				return store.PutReal(key, v)
			case "int":
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid int value %q: %w", raw, err)
				}
				return store.PutInt(key, v)
			case "string":
				return store.PutString(key, raw)
			default:
				return fmt.Errorf("--type is required and must be real, int, or string")
			}
		},
	}
}
