// Package selfelf reconstructs the embedded OELF from a "fake SELF"
// container: a SELF whose segments have already been decrypted by the
// console and merely wrapped back in the original header/entry-table
// layout. Reconstruct walks that layout and produces a contiguous OELF
// buffer suitable for internal/oelf.Parse.
package selfelf

import "encoding/binary"

// Magic identifies a (fake) SELF container.
var Magic = [4]byte{0x4F, 0x15, 0x3D, 0x1D}

// fakePtype is the only mode byte Reconstruct accepts: a SELF whose
// segments were decrypted ahead of time and repacked verbatim.
const fakePtype = 0x1

// CommonHeader is the 8-byte SELF preamble.
type CommonHeader struct {
	Magic   [4]byte
	Version uint8
	Mode    uint8
	Endian  uint8
	Attribs uint8
}

const commonHeaderSize = 8

func parseCommonHeader(b []byte) CommonHeader {
	var h CommonHeader
	copy(h.Magic[:], b[0:4])
	h.Version = b[4]
	h.Mode = b[5]
	h.Endian = b[6]
	h.Attribs = b[7]
	return h
}

// ExtendedHeader is the 32-byte header following CommonHeader.
type ExtendedHeader struct {
	KeyType    uint32
	HeaderSize uint16
	MetaSize   uint16
	FileSize   uint64
	NumEntries uint16
	Flags      uint16
	_          [4]byte
}

const extendedHeaderSize = 32

func parseExtendedHeader(b []byte) ExtendedHeader {
	le := binary.LittleEndian
	return ExtendedHeader{
		KeyType:    le.Uint32(b[0:]),
		HeaderSize: le.Uint16(b[4:]),
		MetaSize:   le.Uint16(b[6:]),
		FileSize:   le.Uint64(b[8:]),
		NumEntries: le.Uint16(b[16:]),
		Flags:      le.Uint16(b[18:]),
	}
}

// Entry describes one SELF segment entry. Blocked entries (Props&0x800
// set) carry real ELF segment data; the rest are signature/key metadata.
type Entry struct {
	Props  uint64
	Offset uint64
	Filesz uint64
	Memsz  uint64
}

const entrySize = 32

func parseEntry(b []byte) Entry {
	le := binary.LittleEndian
	return Entry{
		Props:  le.Uint64(b[0:]),
		Offset: le.Uint64(b[8:]),
		Filesz: le.Uint64(b[16:]),
		Memsz:  le.Uint64(b[24:]),
	}
}

const blockedBit = 0x800

// Blocked reports whether this entry carries real segment data.
func (e Entry) Blocked() bool { return e.Props&blockedBit != 0 }

// ProgramHeaderIndex extracts the index this entry's data belongs to.
func (e Entry) ProgramHeaderIndex() uint32 { return uint32(e.Props>>20) & 0xFFF }
