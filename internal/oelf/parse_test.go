package oelf_test

import (
	"bytes"
	"testing"

	"github.com/zboralski/orbisloader/internal/oelf"
	"github.com/zboralski/orbisloader/internal/oelftest"
)

func s1Config() oelftest.Config {
	return oelftest.Config{
		ElfType: oelftest.ETSceDynamic,
		Segments: []oelftest.Segment{
			{
				Type:  oelftest.PTLoad,
				Flags: oelftest.PFRead | oelftest.PFExec,
				Vaddr: 0x0,
				Memsz: 0x1000,
				Align: 0x1000,
				Data:  bytes.Repeat([]byte{0xCC}, 0x10),
			},
			{
				Type:  oelftest.PTSceRelro,
				Flags: oelftest.PFRead,
				Vaddr: 0x1000,
				Memsz: 0x1000,
				Align: 0x1000,
				Data:  nil,
			},
			{
				Type:  oelftest.PTLoad,
				Flags: oelftest.PFRead,
				Vaddr: 0x2000,
				Memsz: 0x1000,
				Align: 0x1000,
				Data:  []byte("DATA0000"),
			},
		},
		ExportModules: []oelftest.ModuleRef{{Name: "self", VersionMajor: 1, ID: 0}},
		ImportModules: []oelftest.ModuleRef{{Name: "libkernel", VersionMajor: 1, ID: 1}},
		ExportLibs:    []oelftest.LibraryRef{{Name: "self", ID: 0}},
		ImportLibs:    []oelftest.LibraryRef{{Name: "libkernel", ID: 1}},
		NeededFiles:   []string{"libkernel.sprx"},
		Symbols: []oelftest.Symbol{
			{Name: "exported_func", Type: 2, Binding: oelf.STBGlobal, Value: 0x0},
		},
	}
}

func TestParseS1Scenario(t *testing.T) {
	buf := oelftest.Build(s1Config())

	p, err := oelf.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.MappedSize != 0x3000 {
		t.Errorf("MappedSize = 0x%x, want 0x3000", p.MappedSize)
	}
	if p.LoadAddrBegin != 0 || p.LoadAddrEnd != 0x3000 {
		t.Errorf("load range = [0x%x, 0x%x), want [0x0, 0x3000)", p.LoadAddrBegin, p.LoadAddrEnd)
	}

	if len(p.NeededFiles) != 1 || p.NeededFiles[0] != "libkernel.sprx" {
		t.Errorf("NeededFiles = %v, want [libkernel.sprx]", p.NeededFiles)
	}
	if len(p.ImportModules) != 1 || p.ImportModules[0].Name != "libkernel" {
		t.Errorf("ImportModules = %+v", p.ImportModules)
	}
	if len(p.ExportModules) != 1 || p.ExportModules[0].Name != "self" {
		t.Errorf("ExportModules = %+v", p.ExportModules)
	}
	if len(p.ImportLibs) != 1 || p.ImportLibs[0].ID() != 1 {
		t.Errorf("ImportLibs = %+v", p.ImportLibs)
	}

	if len(p.SymTab) != 1 {
		t.Fatalf("SymTab len = %d, want 1", len(p.SymTab))
	}
	name, err := p.StringAt(uint64(p.SymTab[0].NameOff))
	if err != nil {
		t.Fatalf("StringAt: %v", err)
	}
	if name != "exported_func" {
		t.Errorf("symbol name = %q, want exported_func", name)
	}
	if p.SymTab[0].Binding() != oelf.STBGlobal {
		t.Errorf("symbol binding = %d, want STBGlobal", p.SymTab[0].Binding())
	}

	if len(p.Progs) != 5 { // PT_DYNAMIC + PT_SCE_DYNLIBDATA + 3 segments
		t.Errorf("Progs len = %d, want 5", len(p.Progs))
	}
}

func TestParseBadMagic(t *testing.T) {
	buf := oelftest.Build(s1Config())
	buf[0] = 0x00
	if _, err := oelf.Parse(buf); err != oelf.ErrBadMagic {
		t.Errorf("Parse with bad magic = %v, want ErrBadMagic", err)
	}
}

func TestParseTruncatedBuffer(t *testing.T) {
	buf := oelftest.Build(s1Config())
	if _, err := oelf.Parse(buf[:32]); err == nil {
		t.Fatalf("Parse on truncated buffer should fail")
	}
}

func TestParseMissingDynamic(t *testing.T) {
	cfg := s1Config()
	buf := oelftest.Build(cfg)

	// Corrupt the PT_DYNAMIC program header's type field in place so Parse
	// never finds a PT_DYNAMIC segment, without disturbing any offsets.
	const phoff = 64
	buf[phoff+0] = 0xFF
	buf[phoff+1] = 0xFF
	buf[phoff+2] = 0xFF
	buf[phoff+3] = 0xFF

	if _, err := oelf.Parse(buf); err != oelf.ErrCouldntFindDynamic {
		t.Errorf("Parse with no PT_DYNAMIC = %v, want ErrCouldntFindDynamic", err)
	}
}
