// Package report builds the summary rows cmd/orbisloader renders after a
// load: one row per registered module, plus symbol counts per publication
// outcome. It only reads fields internal/loader and internal/symtab already
// populate — nothing here changes loader behavior.
package report

import (
	"sort"

	"github.com/zboralski/orbisloader/internal/loader"
	"github.com/zboralski/orbisloader/internal/nid"
	"github.com/zboralski/orbisloader/internal/symtab"
)

// ModuleRow is one line of the module table: name, stable id, mapped
// size, and the three section extents carved out of the module's RWX
// region.
type ModuleRow struct {
	Name       string
	ExportName string
	ID         uint16
	IsLib      bool
	MappedSize int
	CodeLen    int
	DataLen    int
	RelroLen   int
}

// Modules builds one ModuleRow per loaded module, in registry order (index
// 0 is always the root module).
func Modules(modules []*loader.Module) []ModuleRow {
	rows := make([]ModuleRow, len(modules))
	for i, m := range modules {
		rows[i] = ModuleRow{
			Name:       m.Name,
			ExportName: m.ExportName,
			ID:         m.ID,
			IsLib:      m.IsLib,
			MappedSize: len(m.Data.Data),
			CodeLen:    len(m.CodeSection),
			DataLen:    len(m.DataSection),
			RelroLen:   len(m.RelroSection),
		}
	}
	return rows
}

// SymbolCounts tallies how many of a module's raw symbols fall into each
// publication outcome once table has been fully populated by
// internal/publish. Unmapped counts symbols with no address in the OELF,
// encoded names that fail to decode, and decoded names absent from table;
// Unencoded counts plain-named symbols with an address. Of the encoded
// symbols found in table, HLEStub counts those mapped to the stub sentinel
// and LLE counts every other address, including an HLE address the
// high-priority pass published over the stub.
type SymbolCounts struct {
	LLE       int
	HLEStub   int
	Unmapped  int
	Unencoded int
}

// Count walks every module's raw symbols and classifies each one by
// looking its published address up in table. It does not re-run the NID
// decode policy; it only observes the outcome publish.Run already
// committed.
func Count(table *symtab.Table, modules []*loader.Module) SymbolCounts {
	var c SymbolCounts
	for _, m := range modules {
		for _, sym := range m.RawSymbols {
			if !sym.HasAddress {
				c.Unmapped++
				continue
			}
			if !sym.IsEncoded {
				c.Unencoded++
				continue
			}
			rec, err := nid.ReconstructFullNid(nid.DefaultTable, m, sym.Name)
			if err != nil {
				c.Unmapped++
				continue
			}
			addr, ok := table.Lookup(rec.FullName)
			switch {
			case !ok:
				c.Unmapped++
			case addr == symtab.HLEStubSentinel:
				c.HLEStub++
			default:
				c.LLE++
			}
		}
	}
	return c
}

// Dependencies returns the deduplicated, sorted set of dependency names
// declared across every loaded module — useful as a quick "did everything
// this title needs actually get found" sanity check.
func Dependencies(modules []*loader.Module) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range modules {
		for _, d := range m.Dependencies {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Strings(out)
	return out
}
