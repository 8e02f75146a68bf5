package selfelf_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/zboralski/orbisloader/internal/ostream"
	"github.com/zboralski/orbisloader/internal/selfelf"
)

const (
	commonHeaderSize   = 8
	extendedHeaderSize = 32
	entrySize          = 32
	elfHeaderSize      = 64
	phEntrySize        = 56
)

func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putU64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

// buildFakeSelf assembles a fake SELF container with 3 entries (2 blocked,
// carrying the two PT_LOAD segments' real bytes) wrapping a 2-segment OELF.
func buildFakeSelf(t *testing.T) (container []byte, seg0, seg1 []byte, phOff0, phOff1 uint64) {
	t.Helper()

	seg0 = bytes.Repeat([]byte{0xCC}, 0x10) // code segment, program header 0
	seg1 = []byte("DATA0000")               // data segment, program header 1

	// Embedded ELF layout: header, then 2 program headers, then the two
	// segments placed back to back right after the header table.
	phOff0 = elfHeaderSize + 2*phEntrySize
	phOff1 = phOff0 + uint64(len(seg0))
	elfSize := phOff1 + uint64(len(seg1))

	elf := make([]byte, elfSize)
	elf[0], elf[1], elf[2], elf[3] = 0x7F, 'E', 'L', 'F'
	putU64(elf[32:], elfHeaderSize) // phoff
	putU16(elf[54:], phEntrySize)
	putU16(elf[56:], 2) // phnum

	putPH := func(idx int, offset, vaddr, filesz, memsz uint64) {
		b := elf[elfHeaderSize+uint64(idx)*phEntrySize:]
		putU32(b[0:], 1) // PT_LOAD
		putU32(b[4:], 5) // PF_R|PF_X
		putU64(b[8:], offset)
		putU64(b[16:], vaddr)
		putU64(b[24:], vaddr)
		putU64(b[32:], filesz)
		putU64(b[40:], memsz)
		putU64(b[48:], 0x1000)
	}
	putPH(0, phOff0, 0x0, uint64(len(seg0)), 0x1000)
	putPH(1, phOff1, 0x1000, uint64(len(seg1)), 0x1000)

	entries := make([]selfelfEntry, 3)
	entries[0] = selfelfEntry{props: 0, offset: 0, filesz: 0, memsz: 0} // unblocked metadata entry
	entries[1] = selfelfEntry{props: 0x800 | (0 << 20), offset: 0x1000, filesz: uint64(len(seg0)), memsz: 0x1000}
	entries[2] = selfelfEntry{props: 0x800 | (1 << 20), offset: 0x2000, filesz: uint64(len(seg1)), memsz: 0x1000}

	// Real segment bytes are stored out-of-line in the container at the
	// offsets entries[1]/entries[2] name, exactly like an actual fake SELF.
	const blockedBase = 0x1000
	containerSize := blockedBase + 0x1000 + 0x1000
	container = make([]byte, containerSize)

	container[0], container[1], container[2], container[3] = selfelf.Magic[0], selfelf.Magic[1], selfelf.Magic[2], selfelf.Magic[3]
	container[4] = 1 // version
	container[5] = 1 // mode: fakePtype
	container[6] = 1 // endian
	container[7] = 0 // attribs

	ext := container[commonHeaderSize:]
	putU32(ext[0:], 0)                                     // key type
	putU16(ext[4:], commonHeaderSize+extendedHeaderSize)    // header size
	putU16(ext[6:], 0)                                      // meta size
	putU64(ext[8:], uint64(containerSize))                  // file size
	putU16(ext[16:], uint16(len(entries)))                  // num entries

	entryTableOff := commonHeaderSize + extendedHeaderSize
	for i, e := range entries {
		b := container[entryTableOff+i*entrySize:]
		putU64(b[0:], e.props)
		putU64(b[8:], e.offset)
		putU64(b[16:], e.filesz)
		putU64(b[24:], e.memsz)
	}

	elfOffset := entryTableOff + len(entries)*entrySize
	copy(container[elfOffset:], elf)

	copy(container[int(entries[1].offset):], seg0)
	copy(container[int(entries[2].offset):], seg1)

	return container, seg0, seg1, phOff0, phOff1
}

type selfelfEntry struct {
	props, offset, filesz, memsz uint64
}

func TestReconstructS2Scenario(t *testing.T) {
	container, seg0, seg1, phOff0, phOff1 := buildFakeSelf(t)

	stream := ostream.NewFileStream(bytes.NewReader(container))
	out, err := selfelf.Reconstruct(stream)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}

	if !bytes.Equal(out[phOff0:phOff0+uint64(len(seg0))], seg0) {
		t.Errorf("segment 0 bytes mismatch at offset 0x%x", phOff0)
	}
	if !bytes.Equal(out[phOff1:phOff1+uint64(len(seg1))], seg1) {
		t.Errorf("segment 1 bytes mismatch at offset 0x%x", phOff1)
	}
}

func TestReconstructRejectsBadMagic(t *testing.T) {
	container, _, _, _, _ := buildFakeSelf(t)
	container[0] = 0x00

	stream := ostream.NewFileStream(bytes.NewReader(container))
	if _, err := selfelf.Reconstruct(stream); err != selfelf.ErrInvalidFakeSelf {
		t.Errorf("Reconstruct with bad magic = %v, want ErrInvalidFakeSelf", err)
	}
}

func TestReconstructRejectsNonFakePtype(t *testing.T) {
	container, _, _, _, _ := buildFakeSelf(t)
	container[5] = 0x00 // mode byte, no longer fakePtype

	stream := ostream.NewFileStream(bytes.NewReader(container))
	if _, err := selfelf.Reconstruct(stream); err == nil {
		t.Fatalf("Reconstruct with non-fake ptype should fail")
	}
}
