// SPDX-License-Identifier: Unlicense OR MIT

// Command vdsoctl exercises the vdso engine against the running host: it is
// packaging and manual/CI verification, not part of the engine's core
// surface.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/eliasnaur-labs/vdsohijack/vdso"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  list             print the patchable vdso time symbols on this host")
	fmt.Fprintln(os.Stderr, "  freeze           install a frozen-clock stub over clock_gettime and demonstrate it")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	m := vdso.NewManager()

	switch os.Args[1] {
	case "list":
		runList(m, os.Args[2:])
	case "freeze":
		runFreeze(m, os.Args[2:])
	default:
		usage()
	}
}

func runList(m *vdso.Manager, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)

	names := m.ListSymbols()
	if len(names) == 0 {
		log.Fatalf("no patchable vdso time symbol found on this host (vdso disabled?)")
	}
	for _, n := range names {
		fmt.Println(n)
	}
}
