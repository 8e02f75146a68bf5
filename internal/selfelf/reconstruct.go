package selfelf

import (
	"fmt"

	"github.com/zboralski/orbisloader/internal/oelf"
	"github.com/zboralski/orbisloader/internal/ostream"
)

// Reconstruct walks a fake SELF container and returns the contiguous OELF
// buffer embedded inside it, ready for oelf.Parse. Offset 0 of s must be
// the start of the container; Reconstruct reads through s via absolute
// offsets and does not assume any particular starting seek position.
func Reconstruct(s ostream.Stream) ([]byte, error) {
	preamble := make([]byte, commonHeaderSize+extendedHeaderSize)
	if _, err := s.ReadAt(preamble, 0); err != nil {
		return nil, fmt.Errorf("selfelf: reading headers: %w", err)
	}

	common := parseCommonHeader(preamble[:commonHeaderSize])
	if common.Magic != Magic {
		return nil, ErrInvalidFakeSelf
	}
	if common.Mode != fakePtype {
		return nil, fmt.Errorf("%w: ptype 0x%x is not a fake SELF", ErrInvalidFakeSelf, common.Mode)
	}
	ext := parseExtendedHeader(preamble[commonHeaderSize:])

	entriesOffset := int64(commonHeaderSize + extendedHeaderSize)
	entryTableSize := int64(ext.NumEntries) * entrySize
	entryBytes := make([]byte, entryTableSize)
	if _, err := s.ReadAt(entryBytes, entriesOffset); err != nil {
		return nil, fmt.Errorf("selfelf: reading entry table: %w", err)
	}
	entries := make([]Entry, ext.NumEntries)
	for i := range entries {
		entries[i] = parseEntry(entryBytes[i*entrySize:])
	}

	elfOffset := entriesOffset + entryTableSize
	elfStream := ostream.NewOffsetStream(s, elfOffset)

	elfHeaderBuf := make([]byte, oelf.HeaderSize)
	if _, err := elfStream.ReadAt(elfHeaderBuf, 0); err != nil {
		return nil, fmt.Errorf("selfelf: reading ELF header: %w", err)
	}
	elfHdr, err := oelf.ReadHeader(elfHeaderBuf)
	if err != nil {
		return nil, fmt.Errorf("selfelf: %w", err)
	}

	phTableEnd := elfHdr.Phoff + uint64(elfHdr.Phnum)*uint64(elfHdr.Phentsize)
	headerRegion := make([]byte, phTableEnd)
	if _, err := elfStream.ReadAt(headerRegion, 0); err != nil {
		return nil, fmt.Errorf("selfelf: reading program header table: %w", err)
	}
	progs, err := oelf.ReadProgramHeaders(headerRegion, elfHdr)
	if err != nil {
		return nil, fmt.Errorf("selfelf: %w", err)
	}

	var elfSize uint64
	var minOffset uint64
	haveMinOffset := false
	for _, ph := range progs {
		if end := ph.Offset + ph.Filesz; end > elfSize {
			elfSize = end
		}
		if ph.Offset > 0 && (!haveMinOffset || ph.Offset < minOffset) {
			minOffset, haveMinOffset = ph.Offset, true
		}
	}
	if !haveMinOffset {
		minOffset = elfSize
	}

	var clamp uint64
	if ext.FileSize > uint64(elfOffset) {
		clamp = ext.FileSize - uint64(elfOffset)
	}
	if clamp < minOffset {
		minOffset = clamp
	}

	elfData := make([]byte, elfSize)
	if minOffset > 0 {
		if _, err := elfStream.ReadAt(elfData[:minOffset], 0); err != nil {
			return nil, fmt.Errorf("selfelf: copying header prefix: %w", err)
		}
	}

	for _, e := range entries {
		if !e.Blocked() {
			continue
		}
		idx := e.ProgramHeaderIndex()
		if int(idx) >= len(progs) {
			return nil, fmt.Errorf("selfelf: entry references program header %d, only %d present", idx, len(progs))
		}
		ph := progs[idx]
		dst := elfData[ph.Offset:]
		if uint64(len(dst)) < e.Filesz {
			return nil, fmt.Errorf("selfelf: segment %d overruns reconstructed buffer", idx)
		}
		if _, err := s.ReadAt(dst[:e.Filesz], int64(e.Offset)); err != nil {
			return nil, fmt.Errorf("selfelf: copying segment %d: %w", idx, err)
		}
	}

	return elfData, nil
}
