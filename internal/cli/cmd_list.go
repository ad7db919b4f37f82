// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/grailbio/confstore"
)

// ListCmd returns the "list" subcommand, which prints every key matching a
// prefix and a permission filter.
func ListCmd(store *confstore.Store) *Command {
	flags := flag.NewFlagSet("list", flag.ContinueOnError)
	perm := flags.String("perm", "SYSTEM,ADMIN,USER,VOLATILE", "comma-separated permission query (SYSTEM,ADMIN,USER,VOLATILE)")
	mode := flags.String("mode", "matchany", "filter mode: matchall, matchany, excludeall, or excludeany")

	return &Command{
		Flags: flags,
		Usage: "list [prefix] [flags]",
		Short: "list keys under a prefix matching a permission filter",
		Exec: func(o *IO, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("list accepts at most one prefix argument")
			}
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			perms, err := ParsePermission(strings.Split(*perm, ","))
			if err != nil {
				return err
			}
			filter, err := ParseFilter(*mode)
			if err != nil {
				return err
			}
			keys, err := store.List(prefix, perms, filter)
			if err != nil {
				return err
			}
			for _, k := range keys {
				o.Println(k)
			}
			return nil
		},
	}
}
