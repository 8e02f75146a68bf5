// Command orbisloader is a diagnostic CLI over the Orbis module loader
// core: it can parse a single SELF/OELF file standalone (inspect), or
// drive a full load — root module, transitive dependency closure, HLE
// registry, symbol publication — and report the result (load).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zboralski/orbisloader/internal/log"
)

var (
	debug bool
)

func main() {
	root := &cobra.Command{
		Use:   "orbisloader",
		Short: "Inspect and load PS4 fake-SELF/OELF modules",
		Long: `orbisloader reconstructs fake SELF containers, parses the embedded
Orbis ELF, maps its segments into RWX host memory, walks its dependency
closure, and publishes a priority-arbitrated LLE/HLE symbol table.

It does not execute guest code: this is the loader core only.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&debug, "debug", "v", false, "verbose debug logging")

	root.AddCommand(newInspectCmd())
	root.AddCommand(newLoadCmd())
	root.AddCommand(newSymbolsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger() *log.Logger {
	return log.New(debug)
}
