// Package publish drives the three-phase symbol publication sequence:
// once every module is loaded, it fills the process-global symbol table
// from the HLE policy registry and each module's raw LLE symbols, in the
// priority order described by the HLE module registry.
package publish

import (
	"fmt"
	"sort"

	"github.com/zboralski/orbisloader/internal/hle"
	"github.com/zboralski/orbisloader/internal/loader"
	"github.com/zboralski/orbisloader/internal/log"
	"github.com/zboralski/orbisloader/internal/nid"
	"github.com/zboralski/orbisloader/internal/oelf"
	"github.com/zboralski/orbisloader/internal/ptr"
	"github.com/zboralski/orbisloader/internal/symtab"
)

// Run executes the full publication sequence against table, given every
// loaded module and the HLE policy registry. HLE function addresses come
// from impls, a name->address map the host's reimplementations populate
// ("{func}#{module}#{library}" keys) before Run is called.
func Run(table *symtab.Table, modules []*loader.Module, registry *hle.Registry, impls map[string]uintptr, logger *log.Logger) error {
	if logger == nil {
		logger = log.NewNop()
	}

	lowPriorityPass(table, registry, impls, logger)

	if err := llePass(table, modules, registry, logger); err != nil {
		return err
	}

	highPriorityPass(table, registry, impls, logger)

	return nil
}

func syntheticName(fn, module, library string) string {
	return fmt.Sprintf("%s#%s#%s", fn, module, library)
}

func lowPriorityPass(table *symtab.Table, registry *hle.Registry, impls map[string]uintptr, logger *log.Logger) {
	for _, mod := range registry.Modules {
		for _, lib := range mod.Libraries {
			for _, fn := range lib.LowPriorityPublications() {
				name := syntheticName(fn, mod.Name, lib.Name)
				addr, ok := impls[name]
				if !ok {
					continue
				}
				table.Register(name, ptr.Addr(addr))
				logger.SymbolPublished("low-priority-hle", name, uint64(addr))
			}
		}
	}
}

func highPriorityPass(table *symtab.Table, registry *hle.Registry, impls map[string]uintptr, logger *log.Logger) {
	for _, mod := range registry.Modules {
		for _, lib := range mod.Libraries {
			for _, fn := range lib.HighPriorityPublications() {
				name := syntheticName(fn, mod.Name, lib.Name)
				addr, ok := impls[name]
				if !ok {
					continue
				}
				table.Register(name, ptr.Addr(addr))
				logger.SymbolPublished("high-priority-hle", name, uint64(addr))
			}
		}
	}
}

// llePass registers every module's raw symbols with a present address, in
// binding order (STB_WEAK before STB_GLOBAL, so globals overwrite weaks).
func llePass(table *symtab.Table, modules []*loader.Module, registry *hle.Registry, logger *log.Logger) error {
	for _, m := range modules {
		ordered := append([]loader.RawSymbol(nil), m.RawSymbols...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return bindingRank(ordered[i].Binding) < bindingRank(ordered[j].Binding)
		})

		for _, sym := range ordered {
			if !sym.HasAddress {
				continue
			}

			if !sym.IsEncoded {
				table.Register(sym.Name, sym.Address)
				logger.SymbolPublished("lle", sym.Name, uint64(sym.Address))
				continue
			}

			rec, err := nid.ReconstructFullNid(nid.DefaultTable, m, sym.Name)
			if err != nil {
				return fmt.Errorf("publish: module %q: %w", m.Name, err)
			}

			if registry.ShouldLoadLLE(rec.SymbolName, rec.ModuleName, rec.LibraryName) {
				table.Register(rec.FullName, sym.Address)
				logger.SymbolPublished("lle", rec.FullName, uint64(sym.Address))
			} else {
				table.Register(rec.FullName, symtab.HLEStubSentinel)
				logger.SymbolPublished("lle-stub", rec.FullName, 0)
			}
		}
	}
	return nil
}

func bindingRank(binding uint8) int {
	switch binding {
	case oelf.STBWeak:
		return 0
	case oelf.STBGlobal:
		return 1
	default:
		return 2
	}
}

