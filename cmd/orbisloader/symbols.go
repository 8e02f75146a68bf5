package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zboralski/orbisloader/internal/symtab"
)

func newSymbolsCmd() *cobra.Command {
	var (
		ebootDir  string
		exeDir    string
		hleConfig string
		filter    string
	)

	cmd := &cobra.Command{
		Use:   "symbols <eboot path>",
		Short: "Load a root module and its dependencies, then list the published symbol table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, table, err := performLoad(args[0], ebootDir, exeDir, hleConfig, true)
			if err != nil {
				return err
			}
			printSymbols(table, filter)
			return nil
		},
	}
	cmd.Flags().StringVar(&ebootDir, "eboot-dir", "", "directory containing sce_module/ (defaults to the eboot's own directory)")
	cmd.Flags().StringVar(&exeDir, "exe-dir", "", "directory containing system/common/lib and system/priv/lib (defaults to the eboot's own directory)")
	cmd.Flags().StringVar(&hleConfig, "hle-config", "", "path to a YAML file overriding the built-in HLE registry")
	cmd.Flags().StringVar(&filter, "filter", "", "only print symbol names containing this substring")
	return cmd
}

func printSymbols(table *symtab.Table, filter string) {
	names := table.Names()
	sort.Strings(names)
	for _, name := range names {
		if filter != "" && !strings.Contains(name, filter) {
			continue
		}
		addr, _ := table.Lookup(name)
		stub := ""
		if addr == symtab.HLEStubSentinel {
			stub = " (hle-stub)"
		}
		fmt.Printf("%-60s %s%s\n", name, addr, stub)
	}
}
