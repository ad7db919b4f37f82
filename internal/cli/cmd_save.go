// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/grailbio/confstore"
)

// SaveCmd returns the "save" subcommand, which persists the live,
// non-volatile entry set to the configured settings file.
func SaveCmd(store *confstore.Store) *Command {
	flags := flag.NewFlagSet("save", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "save",
		Short: "persist current settings to the configured settings file",
		Exec: func(o *IO, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("save takes no arguments")
			}
			if !store.IsPersistentStorageEnabled() {
				return fmt.Errorf("persistent storage is not enabled; set settings_file in the bootstrap config")
			}
			if err := store.Save(); err != nil {
				return err
			}
			o.Println("settings saved")
			return nil
		},
	}
}
