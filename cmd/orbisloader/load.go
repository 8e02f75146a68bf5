package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zboralski/orbisloader/internal/hle"
	_ "github.com/zboralski/orbisloader/internal/hle/modules/libkernel"
	"github.com/zboralski/orbisloader/internal/loader"
	"github.com/zboralski/orbisloader/internal/publish"
	"github.com/zboralski/orbisloader/internal/report"
	"github.com/zboralski/orbisloader/internal/symtab"
)

func newLoadCmd() *cobra.Command {
	var (
		ebootDir  string
		exeDir    string
		hleConfig string
		noTUI     bool
	)

	cmd := &cobra.Command{
		Use:   "load <eboot path>",
		Short: "Load a root module, its transitive dependencies, and publish symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(args[0], ebootDir, exeDir, hleConfig, noTUI)
		},
	}
	cmd.Flags().StringVar(&ebootDir, "eboot-dir", "", "directory containing sce_module/ (defaults to the eboot's own directory)")
	cmd.Flags().StringVar(&exeDir, "exe-dir", "", "directory containing system/common/lib and system/priv/lib (defaults to the eboot's own directory)")
	cmd.Flags().StringVar(&hleConfig, "hle-config", "", "path to a YAML file overriding the built-in HLE registry")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "disable the progress bar and log plainly instead")
	return cmd
}

func runLoad(ebootPath, ebootDir, exeDir, hleConfig string, noTUI bool) error {
	rt, table, err := performLoad(ebootPath, ebootDir, exeDir, hleConfig, noTUI)
	if err != nil {
		return err
	}
	printReport(rt, table)
	return nil
}

// performLoad runs the full root-module load, dependency closure, and
// symbol publication sequence, shared by both the load and symbols
// subcommands.
func performLoad(ebootPath, ebootDir, exeDir, hleConfig string, noTUI bool) (*loader.Runtime, *symtab.Table, error) {
	if ebootDir == "" {
		ebootDir = dirOf(ebootPath)
	}
	if exeDir == "" {
		exeDir = dirOf(ebootPath)
	}

	rt := loader.New(ebootDir, exeDir, logger())

	registry := hle.DefaultRegistry
	if hleConfig != "" {
		registry = hle.New()
		registry.Modules = append(registry.Modules, hle.DefaultRegistry.Modules...)
		if err := hle.LoadConfig(registry, hleConfig); err != nil {
			return nil, nil, err
		}
	}

	work := func(updates chan<- loadProgressMsg) error {
		root, err := rt.LoadFile(ebootPath)
		if err != nil {
			return fmt.Errorf("loading root module: %w", err)
		}
		if updates != nil {
			updates <- loadProgressMsg{loaded: 1}
		}
		if err := rt.LoadAllDependencies(root); err != nil {
			return fmt.Errorf("resolving dependencies: %w", err)
		}
		if updates != nil {
			updates <- loadProgressMsg{loaded: len(rt.Modules())}
		}
		return nil
	}

	var err error
	if noTUI {
		err = work(nil)
	} else {
		err = runWithProgress(work)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := rt.LinkModules(); err != nil {
		return nil, nil, fmt.Errorf("linking modules: %w", err)
	}

	table := symtab.New()
	impls := map[string]uintptr{} // host HLE function bodies are an external collaborator; none wired here.
	if err := publish.Run(table, rt.Modules(), registry, impls, nil); err != nil {
		return nil, nil, fmt.Errorf("publishing symbols: %w", err)
	}

	return rt, table, nil
}

func printReport(rt *loader.Runtime, table *symtab.Table) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("load complete (run %s)", rt.RunID)))

	rows := report.Modules(rt.Modules())
	headerRow := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("%-20s %-20s %6s %5s %10s %10s %10s %10s", "name", "export", "id", "lib", "mapped", "code", "data", "relro"))
	fmt.Println(headerRow)
	for _, r := range rows {
		fmt.Printf("%-20s %-20s %6d %5t %10d %10d %10d %10d\n",
			r.Name, r.ExportName, r.ID, r.IsLib, r.MappedSize, r.CodeLen, r.DataLen, r.RelroLen)
	}

	counts := report.Count(table, rt.Modules())
	fmt.Println(headerStyle.Render("symbols"))
	fmt.Printf("  %s %d\n", keyStyle.Render("total"), table.Len())
	fmt.Printf("  %s %d\n", keyStyle.Render("lle"), counts.LLE)
	fmt.Printf("  %s %d\n", keyStyle.Render("hle-stub"), counts.HLEStub)
	fmt.Printf("  %s %d\n", keyStyle.Render("unencoded"), counts.Unencoded)
	fmt.Printf("  %s %d\n", keyStyle.Render("unmapped"), counts.Unmapped)

	if deps := report.Dependencies(rt.Modules()); len(deps) > 0 {
		fmt.Println(headerStyle.Render("dependencies"))
		for _, d := range deps {
			fmt.Printf("  %s\n", d)
		}
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if os.IsPathSeparator(path[i]) {
			return path[:i]
		}
	}
	return "."
}
