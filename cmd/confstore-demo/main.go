// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command confstore-demo is a small reference CLI over the confstore
// library: it boots a store from a JSONC bootstrap file (or a built-in
// default) and exposes get/put/list/save subcommands.
package main

import (
	"os"

	"github.com/grailbio/confstore/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args))
}
