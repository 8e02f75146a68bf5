package oelf

import (
	"fmt"

	"github.com/zboralski/orbisloader/internal/align"
)

// Parsed is the result of Parse. StrTab is a zero-copy view into the
// single buffer the caller handed in; Progs, SymTab, Rela and JmpRel are
// decoded copies of the records in it, not views. Ownership of buf
// transfers to Parsed; callers must not mutate it afterward.
type Parsed struct {
	Header Header
	Progs  []ProgramHeader

	LoadAddrBegin uint64
	LoadAddrEnd   uint64
	MappedSize    uint64

	DynlibBase uint64

	SymTab []Sym
	StrTab []byte
	Rela   []Rela
	JmpRel []Rela

	NeededFiles   []string
	ExportModules []ModuleRef
	ImportModules []ModuleRef
	ExportLibs    []LibraryRef
	ImportLibs    []LibraryRef

	InitProcOffset  uint64
	HasInitProc     bool
	ProcParamOffset uint64
	HasProcParam    bool

	buf []byte
}

// Parse implements the OELF parsing algorithm: validate the ELF header,
// find the unique PT_DYNAMIC/PT_SCE_DYNLIBDATA segments, materialise the
// symbol/string/rela/jmprel tables they point at, and collect the counted
// dependency, export and import lists.
func Parse(buf []byte) (*Parsed, error) {
	hdr, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}

	progs, err := ReadProgramHeaders(buf, hdr)
	if err != nil {
		return nil, err
	}

	p := &Parsed{Header: hdr, Progs: progs, buf: buf}

	var (
		dynSeg    *ProgramHeader
		dynlibSeg *ProgramHeader

		haveSymTab, haveSymTabSz  bool
		haveStrTab, haveStrSz     bool
		haveRela, haveRelaSz      bool
		haveJmpRel, havePltRelaSz bool
		symTabOff, symTabSz       uint64
		strTabOff, strTabSz       uint64
		relaOff, relaSz           uint64
		jmpRelOff, pltRelaSz      uint64

		loadBegin = ^uint64(0)
		loadEnd   uint64
		sawLoad   bool

		dynEntries []DynEntry
	)

	for i := range progs {
		ph := &progs[i]

		switch {
		case ph.Type == PTLoad || uint32(ph.Type) == PTSceRelro:
			begin := ph.Vaddr
			end := align.Down(ph.Vaddr+ph.Memsz, ph.Align)
			if begin < loadBegin {
				loadBegin = begin
			}
			if end > loadEnd {
				loadEnd = end
			}
			sawLoad = true

		case ph.Type == PTDynamic:
			if dynSeg != nil {
				return nil, ErrMoreThanOneDynamic
			}
			dynSeg = ph

		case uint32(ph.Type) == PTSceDynlibData:
			if dynlibSeg != nil {
				return nil, ErrMoreThanOneDynlib
			}
			dynlibSeg = ph
		}
	}

	if dynSeg == nil {
		return nil, ErrCouldntFindDynamic
	}
	if dynlibSeg == nil {
		return nil, ErrCouldntFindDynlib
	}

	dynBytes, err := sliceAt(buf, dynSeg.Offset, dynSeg.Filesz)
	if err != nil {
		return nil, fmt.Errorf("oelf: reading PT_DYNAMIC: %w", err)
	}
	for off := 0; off+dynEntrySize <= len(dynBytes); off += dynEntrySize {
		e := parseDynEntry(dynBytes[off:])
		dynEntries = append(dynEntries, e)

		switch int64(e.Tag) {
		case dtSceSymtab:
			if haveSymTab {
				return nil, ErrMoreThanOneSymTab
			}
			symTabOff, haveSymTab = e.Val, true
		case dtSceSymtabsz:
			if haveSymTabSz {
				return nil, ErrMoreThanOneSymTabSz
			}
			symTabSz, haveSymTabSz = e.Val, true
		case dtSceStrtab:
			if haveStrTab {
				return nil, ErrMoreThanOneStrTab
			}
			strTabOff, haveStrTab = e.Val, true
		case dtSceStrsz:
			if haveStrSz {
				return nil, ErrMoreThanOneStrSz
			}
			strTabSz, haveStrSz = e.Val, true
		case dtSceRela:
			if haveRela {
				return nil, ErrMoreThanOneRela
			}
			relaOff, haveRela = e.Val, true
		case dtSceRelasz:
			if haveRelaSz {
				return nil, ErrMoreThanOneRelaSz
			}
			relaSz, haveRelaSz = e.Val, true
		case dtSceJmprel:
			if haveJmpRel {
				return nil, ErrMoreThanOneJmpRel
			}
			jmpRelOff, haveJmpRel = e.Val, true
		case dtScePltrelsz:
			if havePltRelaSz {
				return nil, ErrMoreThanOnePltRelaSz
			}
			pltRelaSz, havePltRelaSz = e.Val, true
		case dtSceInitProcOffset:
			p.InitProcOffset, p.HasInitProc = e.Val, true
		case dtSceProcParamOffset:
			p.ProcParamOffset, p.HasProcParam = e.Val, true
		}
	}

	if !haveSymTab {
		return nil, ErrCouldntFindSymTab
	}
	if !haveSymTabSz {
		return nil, ErrCouldntFindSymTabSz
	}
	if !haveStrTab {
		return nil, ErrCouldntFindStrTab
	}
	if !haveStrSz {
		return nil, ErrCouldntFindStrSz
	}
	if !haveRela {
		return nil, ErrCouldntFindRela
	}
	if !haveRelaSz {
		return nil, ErrCouldntFindRelaSz
	}
	if !haveJmpRel {
		return nil, ErrCouldntFindJmpRel
	}
	if !havePltRelaSz {
		return nil, ErrCouldntFindPltRelaSz
	}

	if sawLoad {
		p.LoadAddrBegin = loadBegin
		p.LoadAddrEnd = loadEnd
	}
	p.MappedSize = p.LoadAddrEnd - p.LoadAddrBegin

	p.DynlibBase = dynlibSeg.Offset

	symBytes, err := sliceAt(buf, p.DynlibBase+symTabOff, symTabSz)
	if err != nil {
		return nil, fmt.Errorf("oelf: reading symbol table: %w", err)
	}
	p.SymTab = make([]Sym, 0, symTabSz/SymSize)
	for off := 0; off+SymSize <= len(symBytes); off += SymSize {
		p.SymTab = append(p.SymTab, parseSym(symBytes[off:]))
	}

	p.StrTab, err = sliceAt(buf, p.DynlibBase+strTabOff, strTabSz)
	if err != nil {
		return nil, fmt.Errorf("oelf: reading string table: %w", err)
	}

	relaBytes, err := sliceAt(buf, p.DynlibBase+relaOff, relaSz)
	if err != nil {
		return nil, fmt.Errorf("oelf: reading rela table: %w", err)
	}
	p.Rela = make([]Rela, 0, relaSz/RelaSize)
	for off := 0; off+RelaSize <= len(relaBytes); off += RelaSize {
		p.Rela = append(p.Rela, parseRela(relaBytes[off:]))
	}

	jmpRelBytes, err := sliceAt(buf, p.DynlibBase+jmpRelOff, pltRelaSz)
	if err != nil {
		return nil, fmt.Errorf("oelf: reading jmprel table: %w", err)
	}
	p.JmpRel = make([]Rela, 0, pltRelaSz/RelaSize)
	for off := 0; off+RelaSize <= len(jmpRelBytes); off += RelaSize {
		p.JmpRel = append(p.JmpRel, parseRela(jmpRelBytes[off:]))
	}

	for _, e := range dynEntries {
		switch int64(e.Tag) {
		case dtNeeded:
			name, err := p.stringAt(e.Val)
			if err != nil {
				return nil, err
			}
			p.NeededFiles = append(p.NeededFiles, name)
		case dtSceModuleInfo:
			ref, err := p.moduleRef(e.Val)
			if err != nil {
				return nil, err
			}
			p.ExportModules = append(p.ExportModules, ref)
		case dtSceNeededModule:
			ref, err := p.moduleRef(e.Val)
			if err != nil {
				return nil, err
			}
			p.ImportModules = append(p.ImportModules, ref)
		case dtSceExportLib:
			ref, err := p.libraryRef(e.Val)
			if err != nil {
				return nil, err
			}
			p.ExportLibs = append(p.ExportLibs, ref)
		case dtSceImportLib:
			ref, err := p.libraryRef(e.Val)
			if err != nil {
				return nil, err
			}
			p.ImportLibs = append(p.ImportLibs, ref)
		}
	}

	return p, nil
}

func (p *Parsed) moduleRef(val uint64) (ModuleRef, error) {
	ref := ModuleRef{Value: val}
	name, err := p.stringAt(uint64(ref.NameOffset()))
	if err != nil {
		return ModuleRef{}, err
	}
	ref.Name = name
	return ref, nil
}

func (p *Parsed) libraryRef(val uint64) (LibraryRef, error) {
	ref := LibraryRef{Value: val}
	name, err := p.stringAt(uint64(ref.NameOffset()))
	if err != nil {
		return LibraryRef{}, err
	}
	ref.Name = name
	return ref, nil
}

// stringAt reads a NUL-terminated string out of the string table at offset.
func (p *Parsed) stringAt(offset uint64) (string, error) {
	if offset > uint64(len(p.StrTab)) {
		return "", fmt.Errorf("oelf: string offset %d out of range (table size %d)", offset, len(p.StrTab))
	}
	rest := p.StrTab[offset:]
	for i, b := range rest {
		if b == 0 {
			return string(rest[:i]), nil
		}
	}
	return string(rest), nil
}

// StringAt is the exported form of stringAt, used by callers (the module
// loader) that need to look up symbol names directly.
func (p *Parsed) StringAt(offset uint64) (string, error) { return p.stringAt(offset) }

// RawBuffer returns the whole buffer Parse was given. Program header
// offsets (p_offset) are relative to it, not to DynlibBase.
func (p *Parsed) RawBuffer() []byte { return p.buf }

// ReadHeader validates the ELF magic and parses the fixed-size Elf64
// header. The SELF reconstructor uses it directly, ahead of a full Parse,
// to learn the embedded OELF's own program-header geometry.
func ReadHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize || buf[0] != Magic[0] || buf[1] != Magic[1] || buf[2] != Magic[2] || buf[3] != Magic[3] {
		return Header{}, ErrBadMagic
	}
	return parseHeader(buf), nil
}

// ReadProgramHeaders slices out hdr.Phnum program headers at hdr.Phoff.
func ReadProgramHeaders(buf []byte, hdr Header) ([]ProgramHeader, error) {
	return sliceProgramHeaders(buf, hdr)
}

func sliceProgramHeaders(buf []byte, hdr Header) ([]ProgramHeader, error) {
	progs := make([]ProgramHeader, 0, hdr.Phnum)
	for i := uint16(0); i < hdr.Phnum; i++ {
		off := hdr.Phoff + uint64(i)*uint64(progHeaderSize)
		b, err := sliceAt(buf, off, progHeaderSize)
		if err != nil {
			return nil, fmt.Errorf("oelf: reading program header %d: %w", i, err)
		}
		progs = append(progs, parseProgramHeader(b))
	}
	return progs, nil
}

func sliceAt(buf []byte, offset, length uint64) ([]byte, error) {
	if offset > uint64(len(buf)) || length > uint64(len(buf))-offset {
		return nil, fmt.Errorf("oelf: range [%d, %d) out of bounds (buffer size %d)", offset, offset+length, len(buf))
	}
	return buf[offset : offset+length], nil
}
