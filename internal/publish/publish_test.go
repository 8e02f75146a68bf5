package publish_test

import (
	"testing"

	"github.com/zboralski/orbisloader/internal/hle"
	"github.com/zboralski/orbisloader/internal/loader"
	"github.com/zboralski/orbisloader/internal/oelf"
	"github.com/zboralski/orbisloader/internal/ptr"
	"github.com/zboralski/orbisloader/internal/publish"
	"github.com/zboralski/orbisloader/internal/symtab"
)

// testLibkernelRegistry mirrors the self-registering production libkernel policy:
// sceKernelMapNamedFlexibleMemory is high_priority, sceKernelIsNeoMode
// falls on the low-priority/complement side, __stack_chk_guard is an
// explicit lle_symbols override.
func testLibkernelRegistry() *hle.Registry {
	r := hle.New()
	r.Add(hle.Module{
		Name:        "libkernel",
		DefaultMode: hle.HLE,
		Libraries: []hle.Library{
			{
				Name:        "libkernel",
				DefaultMode: hle.HLE,
				Functions:   []string{"sceKernelIsNeoMode", "sceKernelMapNamedFlexibleMemory"},
				HighPriority: []string{
					"sceKernelMapNamedFlexibleMemory",
				},
				LleSymbols: []string{"__stack_chk_guard"},
			},
		},
	})
	return r
}

func TestRunS6Scenario(t *testing.T) {
	registry := testLibkernelRegistry()
	table := symtab.New()

	impls := map[string]uintptr{
		"sceKernelIsNeoMode#libkernel#libkernel":              0xAAAA, // low-priority HLE addr
		"sceKernelMapNamedFlexibleMemory#libkernel#libkernel": 0xBBBB, // high-priority HLE addr
	}

	m := &loader.Module{
		Name:                "eboot",
		ImportModuleNames:   map[uint16]string{1: "libkernel"},
		ImportLibraryNames:  map[uint16]string{1: "libkernel"},
		RawSymbols: []loader.RawSymbol{
			{
				// hash for sceKernelIsNeoMode, from the default NID table.
				Name: "9BcDykPmo1I#B#B", IsEncoded: true, Binding: oelf.STBGlobal,
				Address: ptr.Addr(0xCCCC), HasAddress: true,
			},
			{
				// hash for sceKernelMapNamedFlexibleMemory.
				Name: "6xVpIoqDt6A#B#B", IsEncoded: true, Binding: oelf.STBGlobal,
				Address: ptr.Addr(0xDDDD), HasAddress: true,
			},
		},
	}

	if err := publish.Run(table, []*loader.Module{m}, registry, impls, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lowPriorityKey := "sceKernelIsNeoMode#libkernel#libkernel"
	if got, ok := table.Lookup(lowPriorityKey); !ok || got != ptr.Addr(0xCCCC) {
		t.Errorf("low-priority symbol = (%v,%v), want LLE address 0xCCCC", got, ok)
	}

	highPriorityKey := "sceKernelMapNamedFlexibleMemory#libkernel#libkernel"
	if got, ok := table.Lookup(highPriorityKey); !ok || got != ptr.Addr(0xBBBB) {
		t.Errorf("high-priority symbol = (%v,%v), want HLE address 0xBBBB", got, ok)
	}
}

func TestRunS6ScenarioHighPriorityDeclaredInstead(t *testing.T) {
	registry := hle.New()
	registry.Add(hle.Module{
		Name:        "libkernel",
		DefaultMode: hle.HLE,
		Libraries: []hle.Library{
			{
				Name:         "libkernel",
				DefaultMode:  hle.HLE,
				Functions:    []string{"sceKernelIsNeoMode"},
				HighPriority: []string{"sceKernelIsNeoMode"},
			},
		},
	})
	table := symtab.New()
	impls := map[string]uintptr{"sceKernelIsNeoMode#libkernel#libkernel": 0xAAAA}

	m := &loader.Module{
		ImportModuleNames:  map[uint16]string{1: "libkernel"},
		ImportLibraryNames: map[uint16]string{1: "libkernel"},
		RawSymbols: []loader.RawSymbol{
			{Name: "9BcDykPmo1I#B#B", IsEncoded: true, Binding: oelf.STBGlobal, Address: ptr.Addr(0xCCCC), HasAddress: true},
		},
	}

	if err := publish.Run(table, []*loader.Module{m}, registry, impls, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, ok := table.Lookup("sceKernelIsNeoMode#libkernel#libkernel")
	if !ok || got != ptr.Addr(0xAAAA) {
		t.Errorf("high-priority symbol = (%v,%v), want HLE address 0xAAAA", got, ok)
	}
}

// TestRunLowPriorityDeclaredLibrarySymmetry exercises the yaml-documented
// "low_priority" library shape end to end: the function named under
// low_priority must end up at its real LLE address (overwritable, per
// §4.10 phase 1/2), and its unlisted Functions sibling — the symmetric
// high-priority complement phase 3 publishes — must end up at its real
// HLE address, never a permanent hleStub.
func TestRunLowPriorityDeclaredLibrarySymmetry(t *testing.T) {
	registry := hle.New()
	registry.Add(hle.Module{
		Name:        "libkernel",
		DefaultMode: hle.HLE,
		Libraries: []hle.Library{
			{
				Name:        "libkernel",
				DefaultMode: hle.HLE,
				Functions:   []string{"sceKernelIsNeoMode", "sceKernelMapNamedFlexibleMemory"},
				LowPriority: []string{"sceKernelIsNeoMode"},
			},
		},
	})
	table := symtab.New()

	impls := map[string]uintptr{
		"sceKernelIsNeoMode#libkernel#libkernel":              0xAAAA, // low-priority HLE addr, overwritable
		"sceKernelMapNamedFlexibleMemory#libkernel#libkernel": 0xBBBB, // complement: real high-priority HLE addr
	}

	m := &loader.Module{
		ImportModuleNames:  map[uint16]string{1: "libkernel"},
		ImportLibraryNames: map[uint16]string{1: "libkernel"},
		RawSymbols: []loader.RawSymbol{
			{
				// hash for sceKernelIsNeoMode, from the default NID table.
				Name: "9BcDykPmo1I#B#B", IsEncoded: true, Binding: oelf.STBGlobal,
				Address: ptr.Addr(0xCCCC), HasAddress: true,
			},
		},
	}

	if err := publish.Run(table, []*loader.Module{m}, registry, impls, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lowPriorityKey := "sceKernelIsNeoMode#libkernel#libkernel"
	if got, ok := table.Lookup(lowPriorityKey); !ok || got != ptr.Addr(0xCCCC) {
		t.Errorf("low_priority-named symbol = (%v,%v), want the real guest LLE address 0xCCCC to win", got, ok)
	}

	complementKey := "sceKernelMapNamedFlexibleMemory#libkernel#libkernel"
	if got, ok := table.Lookup(complementKey); !ok || got != ptr.Addr(0xBBBB) {
		t.Errorf("low_priority complement = (%v,%v), want the real HLE address 0xBBBB, not a stub", got, ok)
	}
	if got, _ := table.Lookup(complementKey); got == symtab.HLEStubSentinel {
		t.Errorf("low_priority complement must never be left as the permanent hleStub sentinel")
	}
}

func TestRunBindingOrderGlobalOverwritesWeak(t *testing.T) {
	registry := hle.New()
	table := symtab.New()

	m := &loader.Module{
		RawSymbols: []loader.RawSymbol{
			{Name: "dup", Binding: oelf.STBGlobal, Address: ptr.Addr(2), HasAddress: true},
			{Name: "dup", Binding: oelf.STBWeak, Address: ptr.Addr(1), HasAddress: true},
		},
	}

	if err := publish.Run(table, []*loader.Module{m}, registry, nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, ok := table.Lookup("dup")
	if !ok || got != ptr.Addr(2) {
		t.Errorf("dup = (%v,%v), want the global binding's address (2) to win", got, ok)
	}
}

func TestRunSkipsSymbolsWithoutAnAddress(t *testing.T) {
	registry := hle.New()
	table := symtab.New()

	m := &loader.Module{
		RawSymbols: []loader.RawSymbol{
			{Name: "undefined_import", Binding: oelf.STBGlobal, HasAddress: false},
		},
	}

	if err := publish.Run(table, []*loader.Module{m}, registry, nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (undefined import should not be published)", table.Len())
	}
}
