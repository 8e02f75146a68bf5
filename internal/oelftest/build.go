// Package oelftest builds synthetic OELF byte buffers for tests in
// internal/oelf and internal/loader.
// It is a plain (non-_test.go) package so more than one package's tests
// can share one fixture builder instead of each hand-rolling binary
// layout bytes; nothing here is imported by non-test code.
package oelftest

import (
	"bytes"
	"encoding/binary"
)

// Sony/ELF constants duplicated from internal/oelf so this package has no
// import on it (avoids a test-only package depending on the thing under
// test's internal constants, which are unexported anyway).
const (
	PTLoad          = 1
	PTDynamic       = 2
	PTSceDynlibData = 0x61000000
	PTSceRelro      = 0x61000010

	PFExec  = 1
	PFWrite = 2
	PFRead  = 4

	dtNeeded          = 0x00000001
	dtSceModuleInfo   = 0x6100000D
	dtSceNeededModule = 0x6100000F
	dtSceExportLib    = 0x61000013
	dtSceImportLib    = 0x61000015
	dtSceStrtab       = 0x61000035
	dtSceStrsz        = 0x61000037
	dtSceSymtab       = 0x61000039
	dtSceSymtabsz     = 0x6100003F
	dtSceRela         = 0x6100002F
	dtSceRelasz       = 0x61000031
	dtSceJmprel       = 0x61000029
	dtScePltrelsz     = 0x6100002D

	ETSceDynamic = 0xFE18
)

// Segment describes one loadable program header the builder emits,
// alongside PT_DYNAMIC and PT_SCE_DYNLIBDATA which Build always adds.
type Segment struct {
	Type   uint32
	Flags  uint32
	Vaddr  uint64
	Memsz  uint64
	Align  uint64
	Data   []byte // Filesz is len(Data)
}

// ModuleRef is one export/import module entry: a name plus the version
// and id fields packModuleValue encodes alongside its string-table offset.
type ModuleRef struct {
	Name        string
	VersionMinor, VersionMajor uint8
	ID          uint16
}

// LibraryRef is one export/import library entry.
type LibraryRef struct {
	Name    string
	Version uint16
	ID      uint16
}

// Symbol is one Elf64_Sym the builder emits into the symbol table.
type Symbol struct {
	Name    string
	Type    uint8 // STT_*, low 4 bits of st_info
	Binding uint8 // STB_*, high 4 bits of st_info
	Value   uint64
}

// Config is the full set of inputs Build assembles into a byte buffer.
type Config struct {
	ElfType  uint16
	Entry    uint64
	Segments []Segment

	NeededFiles   []string
	ExportModules []ModuleRef
	ImportModules []ModuleRef
	ExportLibs    []LibraryRef
	ImportLibs    []LibraryRef
	Symbols       []Symbol
}

type stringTable struct {
	buf     bytes.Buffer
	offsets map[string]uint32
}

func newStringTable() *stringTable {
	st := &stringTable{offsets: make(map[string]uint32)}
	st.buf.WriteByte(0) // offset 0 is the empty string, like a real strtab
	return st
}

func (st *stringTable) add(s string) uint32 {
	if off, ok := st.offsets[s]; ok {
		return off
	}
	off := uint32(st.buf.Len())
	st.buf.WriteString(s)
	st.buf.WriteByte(0)
	st.offsets[s] = off
	return off
}

func packModuleValue(nameOff uint32, verMinor, verMajor uint8, id uint16) uint64 {
	return uint64(nameOff) | uint64(verMinor)<<32 | uint64(verMajor)<<40 | uint64(id)<<48
}

func packLibraryValue(nameOff uint32, version, id uint16) uint64 {
	return uint64(nameOff) | uint64(version)<<32 | uint64(id)<<48
}

func putDynEntry(w *bytes.Buffer, tag int64, val uint64) {
	binary.Write(w, binary.LittleEndian, uint64(tag))
	binary.Write(w, binary.LittleEndian, val)
}

// Build assembles cfg into a standalone OELF byte buffer, ready for
// internal/oelf.Parse. Program-header file offsets are chosen by the
// builder itself; Config only specifies what Parse is expected to observe
// (vaddrs, sizes, flags, dynamic-entry-derived lists).
func Build(cfg Config) []byte {
	const (
		elfHeaderSize = 64
		phEntrySize   = 56
		symEntrySize  = 24
		relaEntrySize = 24
	)

	strtab := newStringTable()

	type moduleEntry struct {
		nameOff uint32
		value   uint64
	}
	buildModules := func(refs []ModuleRef) []moduleEntry {
		out := make([]moduleEntry, len(refs))
		for i, r := range refs {
			off := strtab.add(r.Name)
			out[i] = moduleEntry{nameOff: off, value: packModuleValue(off, r.VersionMinor, r.VersionMajor, r.ID)}
		}
		return out
	}
	buildLibs := func(refs []LibraryRef) []moduleEntry {
		out := make([]moduleEntry, len(refs))
		for i, r := range refs {
			off := strtab.add(r.Name)
			out[i] = moduleEntry{nameOff: off, value: packLibraryValue(off, r.Version, r.ID)}
		}
		return out
	}

	exportModules := buildModules(cfg.ExportModules)
	importModules := buildModules(cfg.ImportModules)
	exportLibs := buildLibs(cfg.ExportLibs)
	importLibs := buildLibs(cfg.ImportLibs)

	neededOffsets := make([]uint32, len(cfg.NeededFiles))
	for i, n := range cfg.NeededFiles {
		neededOffsets[i] = strtab.add(n)
	}

	// Symbol table bytes; each symbol name is added to the string table
	// here unless an earlier entry already registered it.
	var symtab bytes.Buffer
	for _, s := range cfg.Symbols {
		off := strtab.add(s.Name)
		binary.Write(&symtab, binary.LittleEndian, off)
		symtab.WriteByte(s.Type | s.Binding<<4)
		symtab.WriteByte(0)
		binary.Write(&symtab, binary.LittleEndian, uint16(0))
		binary.Write(&symtab, binary.LittleEndian, s.Value)
		binary.Write(&symtab, binary.LittleEndian, uint64(0))
	}

	// Dynamic entries: counted lists first (order doesn't matter to
	// Parse), then the mandatory unique scalar tags.
	var dyn bytes.Buffer
	for _, off := range neededOffsets {
		putDynEntry(&dyn, dtNeeded, uint64(off))
	}
	for _, m := range exportModules {
		putDynEntry(&dyn, dtSceModuleInfo, m.value)
	}
	for _, m := range importModules {
		putDynEntry(&dyn, dtSceNeededModule, m.value)
	}
	for _, l := range exportLibs {
		putDynEntry(&dyn, dtSceExportLib, l.value)
	}
	for _, l := range importLibs {
		putDynEntry(&dyn, dtSceImportLib, l.value)
	}

	// dynlib blob layout: symtab, then strtab, then rela (empty), then
	// jmprel (empty) — offsets below are relative to the dynlib base.
	symtabOff := uint64(0)
	strtabOff := uint64(symtab.Len())
	relaOff := strtabOff + uint64(strtab.buf.Len())
	jmprelOff := relaOff // empty rela table

	putDynEntry(&dyn, dtSceSymtab, symtabOff)
	putDynEntry(&dyn, dtSceSymtabsz, uint64(symtab.Len()))
	putDynEntry(&dyn, dtSceStrtab, strtabOff)
	putDynEntry(&dyn, dtSceStrsz, uint64(strtab.buf.Len()))
	putDynEntry(&dyn, dtSceRela, relaOff)
	putDynEntry(&dyn, dtSceRelasz, 0)
	putDynEntry(&dyn, dtSceJmprel, jmprelOff)
	putDynEntry(&dyn, dtScePltrelsz, 0)

	numProgHeaders := 2 + len(cfg.Segments)
	phoff := uint64(elfHeaderSize)
	dynFileOff := phoff + uint64(numProgHeaders)*phEntrySize
	dynlibFileOff := dynFileOff + uint64(dyn.Len())

	segFileOffs := make([]uint64, len(cfg.Segments))
	cursor := dynlibFileOff + strtabOff + uint64(strtab.buf.Len()) // past symtab+strtab (rela/jmprel are empty)
	for i, seg := range cfg.Segments {
		segFileOffs[i] = cursor
		cursor += uint64(len(seg.Data))
	}

	total := cursor
	buf := make([]byte, total)
	le := binary.LittleEndian

	// ELF header.
	buf[0], buf[1], buf[2], buf[3] = 0x7F, 'E', 'L', 'F'
	le.PutUint16(buf[16:], cfg.ElfType)
	le.PutUint64(buf[24:], cfg.Entry)
	le.PutUint64(buf[32:], phoff)
	le.PutUint16(buf[54:], phEntrySize)
	le.PutUint16(buf[56:], uint16(numProgHeaders))

	putPH := func(idx int, typ, flags uint32, offset, vaddr, filesz, memsz, align uint64) {
		b := buf[phoff+uint64(idx)*phEntrySize:]
		le.PutUint32(b[0:], typ)
		le.PutUint32(b[4:], flags)
		le.PutUint64(b[8:], offset)
		le.PutUint64(b[16:], vaddr)
		le.PutUint64(b[24:], vaddr) // paddr, unused
		le.PutUint64(b[32:], filesz)
		le.PutUint64(b[40:], memsz)
		le.PutUint64(b[48:], align)
	}

	putPH(0, PTDynamic, 0, dynFileOff, 0, uint64(dyn.Len()), uint64(dyn.Len()), 8)
	putPH(1, PTSceDynlibData, 0, dynlibFileOff, 0, cursor-dynlibFileOff, cursor-dynlibFileOff, 8)
	copy(buf[dynFileOff:], dyn.Bytes())
	copy(buf[dynlibFileOff:], symtab.Bytes())
	copy(buf[dynlibFileOff+strtabOff:], strtab.buf.Bytes())

	for i, seg := range cfg.Segments {
		putPH(2+i, seg.Type, seg.Flags, segFileOffs[i], seg.Vaddr, uint64(len(seg.Data)), seg.Memsz, seg.Align)
		copy(buf[segFileOffs[i]:], seg.Data)
	}

	return buf
}
