// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package cli implements the confstore-demo command-line tool: a global
// flag set for locating the bootstrap config, dispatch to get/put/list/save
// subcommands, and the pflag-based Command type each of them is built from.
package cli

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/grailbio/confstore"
	"github.com/grailbio/confstore/csfile"
	"github.com/grailbio/confstore/permission"
)

// registrar is the subset of *confstore.Store that a bootstrap config needs
// to populate a fresh store. It exists so internal/cli/config.go does not
// need to import the confstore package directly.
type registrar interface {
	RegisterReal(key string, perms permission.Permission, def float64) error
	RegisterInt(key string, perms permission.Permission, def int64) error
	RegisterString(key string, perms permission.Permission, def string) error
}

// Run is the entry point invoked by cmd/confstore-demo/main.go. It returns
// an exit code.
func Run(out, errOut io.Writer, args []string) int {
	globalFlags := flag.NewFlagSet("confstore-demo", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(&strings.Builder{})
	flagHelp := globalFlags.BoolP("help", "h", false, "show help")
	flagConfig := globalFlags.StringP("config", "c", "", "bootstrap config `file` (JSONC); missing/unset uses built-in demo settings")

	if len(args) == 0 {
		args = []string{"confstore-demo"}
	}
	if err := globalFlags.Parse(args[1:]); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	cfg, err := LoadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	var file csfile.File
	if cfg.SettingsFile != "" {
		file = csfile.NewReal(cfg.SettingsFile)
	}

	store, err := confstore.New(confstore.Options{
		MutexTimeoutMS: cfg.MutexTimeoutMS,
		File:           file,
		Callbacks: []confstore.RegisterFunc{
			func(s *confstore.Store) error {
				return registerFromConfig(cfg.Defaults)(s)
			},
		},
	})
	if err != nil && store == nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if err != nil {
		// A failed load still leaves a usable store seeded with defaults
		// (see confstore.New); surface the problem but keep going.
		fmt.Fprintln(errOut, "warning: load failed, running with defaults:", err)
	}

	commands := allCommands(store)
	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()
	if *flagHelp {
		printUsage(out, commands)
		return 0
	}
	if len(commandAndArgs) == 0 {
		fmt.Fprintln(errOut, "error: no command provided")
		printUsage(errOut, commands)
		return 1
	}

	cmdName := commandAndArgs[0]
	cmd, ok := commandMap[cmdName]
	if !ok {
		fmt.Fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)
		return 1
	}

	cmdIO := NewIO(out, errOut)
	return cmd.Run(cmdIO, commandAndArgs[1:])
}

func allCommands(store *confstore.Store) []*Command {
	return []*Command{
		GetCmd(store),
		PutCmd(store),
		ListCmd(store),
		SaveCmd(store),
	}
}

func printUsage(w io.Writer, commands []*Command) {
	fmt.Fprintln(w, "confstore-demo - a typed, prefix-indexed settings store")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: confstore-demo [-c config.json] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintln(w, cmd.HelpLine())
	}
}
