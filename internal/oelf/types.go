package oelf

import "encoding/binary"

// Magic is the standard ELF magic every OELF still begins with.
var Magic = [4]byte{0x7F, 'E', 'L', 'F'}

// Header is the fixed-size Elf64 file header.
type Header struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

const HeaderSize = 64

func parseHeader(b []byte) Header {
	var h Header
	copy(h.Ident[:], b[0:16])
	le := binary.LittleEndian
	h.Type = le.Uint16(b[16:])
	h.Machine = le.Uint16(b[18:])
	h.Version = le.Uint32(b[20:])
	h.Entry = le.Uint64(b[24:])
	h.Phoff = le.Uint64(b[32:])
	h.Shoff = le.Uint64(b[40:])
	h.Flags = le.Uint32(b[48:])
	h.Ehsize = le.Uint16(b[52:])
	h.Phentsize = le.Uint16(b[54:])
	h.Phnum = le.Uint16(b[56:])
	h.Shentsize = le.Uint16(b[58:])
	h.Shnum = le.Uint16(b[60:])
	h.Shstrndx = le.Uint16(b[62:])
	return h
}

// ProgType identifies the interpretation of a program header.
type ProgType uint32

const (
	PTNull    ProgType = 0
	PTLoad    ProgType = 1
	PTDynamic ProgType = 2
	PTInterp  ProgType = 3
)

// ProgFlags are the standard PF_R/PF_W/PF_X bits.
type ProgFlags uint32

const (
	PFExec  ProgFlags = 1
	PFWrite ProgFlags = 2
	PFRead  ProgFlags = 4
)

// ProgramHeader is one Elf64_Phdr entry.
type ProgramHeader struct {
	Type   ProgType
	Flags  ProgFlags
	Offset uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

const progHeaderSize = 56

func parseProgramHeader(b []byte) ProgramHeader {
	le := binary.LittleEndian
	return ProgramHeader{
		Type:   ProgType(le.Uint32(b[0:])),
		Flags:  ProgFlags(le.Uint32(b[4:])),
		Offset: le.Uint64(b[8:]),
		Vaddr:  le.Uint64(b[16:]),
		Paddr:  le.Uint64(b[24:]),
		Filesz: le.Uint64(b[32:]),
		Memsz:  le.Uint64(b[40:]),
		Align:  le.Uint64(b[48:]),
	}
}

// DynTag is an Elf64_Dyn tag.
type DynTag int64

// DynEntry is one Elf64_Dyn entry: {tag, val} as a plain 16-byte pair.
type DynEntry struct {
	Tag DynTag
	Val uint64
}

const dynEntrySize = 16

func parseDynEntry(b []byte) DynEntry {
	le := binary.LittleEndian
	return DynEntry{Tag: DynTag(le.Uint64(b[0:])), Val: le.Uint64(b[8:])}
}

// Sym is one 24-byte Elf64_Sym record.
type Sym struct {
	NameOff uint32
	Info    uint8
	Other   uint8
	Shndx   uint16
	Value   uint64
	Size    uint64
}

const SymSize = 24

func parseSym(b []byte) Sym {
	le := binary.LittleEndian
	return Sym{
		NameOff: le.Uint32(b[0:]),
		Info:    b[4],
		Other:   b[5],
		Shndx:   le.Uint16(b[6:]),
		Value:   le.Uint64(b[8:]),
		Size:    le.Uint64(b[16:]),
	}
}

// Type returns the symbol's STT_* type (low 4 bits of Info).
func (s Sym) Type() uint8 { return s.Info & 0xF }

// Binding returns the symbol's STB_* binding (high 4 bits of Info).
func (s Sym) Binding() uint8 { return s.Info >> 4 }

// Symbol binding constants used by the publication order in §4.10.
const (
	STBLocal  = 0
	STBGlobal = 1
	STBWeak   = 2
)

// Rela is one 24-byte Elf64_Rela relocation entry.
type Rela struct {
	Offset uint64
	Info   uint64
	Addend int64
}

const RelaSize = 24

func parseRela(b []byte) Rela {
	le := binary.LittleEndian
	return Rela{
		Offset: le.Uint64(b[0:]),
		Info:   le.Uint64(b[8:]),
		Addend: int64(le.Uint64(b[16:])),
	}
}

// Symbol returns the relocation's symbol table index.
func (r Rela) Symbol() uint32 { return uint32(r.Info >> 32) }

// Type returns the relocation type (R_X86_64_*).
func (r Rela) Type() uint32 { return uint32(r.Info) }

// ModuleRef describes one export or import module reference: a name plus
// the packed 64-bit value Sony stores in a DT_SCE_MODULE_INFO /
// DT_SCE_NEEDED_MODULE dynamic entry — {name_offset:u32, version_minor:u8,
// version_major:u8, id:u16}.
type ModuleRef struct {
	Name  string
	Value uint64
}

func (m ModuleRef) NameOffset() uint32  { return uint32(m.Value) }
func (m ModuleRef) VersionMinor() uint8 { return uint8(m.Value >> 32) }
func (m ModuleRef) VersionMajor() uint8 { return uint8(m.Value >> 40) }
func (m ModuleRef) ID() uint16          { return uint16(m.Value >> 48) }

// LibraryRef describes one export or import library reference: a name
// plus the packed 64-bit value from a DT_SCE_EXPORT_LIB /
// DT_SCE_IMPORT_LIB entry — {name_offset:u32, version:u16, id:u16}.
type LibraryRef struct {
	Name  string
	Value uint64
}

func (l LibraryRef) NameOffset() uint32 { return uint32(l.Value) }
func (l LibraryRef) Version() uint16    { return uint16(l.Value >> 32) }
func (l LibraryRef) ID() uint16         { return uint16(l.Value >> 48) }
