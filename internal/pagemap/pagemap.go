// Package pagemap allocates and frees page-aligned host memory regions
// with controllable read/write/execute protection. It is the only part of
// the loader that talks to the OS virtual memory manager: the module
// loader asks it for an RWX region sized to a module's mapped_size and
// copies segment bytes into the returned slice.
package pagemap

import (
	"errors"
	"fmt"
	"os"

	"github.com/zboralski/orbisloader/internal/align"
)

// Prot is a protection bitmask requested for a region.
type Prot uint8

const (
	ProtRead Prot = 1 << iota
	ProtWrite
	ProtExec
)

// RWX is the protection every loaded module segment ultimately needs: the
// loader never knows in advance which bytes of a section will be executed
// versus read, so it maps the whole region RWX rather than splitting it
// per-segment like a production linker would.
const RWX = ProtRead | ProtWrite | ProtExec

func (p Prot) String() string {
	s := [3]byte{'-', '-', '-'}
	if p&ProtRead != 0 {
		s[0] = 'r'
	}
	if p&ProtWrite != 0 {
		s[1] = 'w'
	}
	if p&ProtExec != 0 {
		s[2] = 'x'
	}
	return string(s[:])
}

// ErrAlloc is returned, wrapped with OS-specific detail, when the host
// refuses to hand back a region.
var ErrAlloc = errors.New("pagemap: allocation failed")

// Region is a page-aligned slice of host memory. Len reports the
// originally requested size (not the page-rounded size actually reserved)
// so callers can slice Data without accounting for trailing alignment
// padding.
type Region struct {
	Data []byte
	Len  int

	// platform holds the handle(s) needed to release the mapping; see
	// pagemap_unix.go / pagemap_windows.go.
	platform platformRegion
}

// PageSize is the host's allocation granularity.
var PageSize = os.Getpagesize()

// Alloc reserves a region of at least len bytes with the given protection.
// The returned Region.Data has length len; the underlying reservation is
// rounded up to a PageSize multiple.
func Alloc(length int, prot Prot) (*Region, error) {
	if length <= 0 {
		return nil, fmt.Errorf("pagemap: invalid length %d", length)
	}
	rounded := int(align.Up(uint64(length), uint64(PageSize)))
	r, err := allocPlatform(rounded, prot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlloc, err)
	}
	r.Len = length
	// Keep the full rounded capacity around (Free needs it to unmap the
	// entire reservation) while exposing only the requested length.
	r.Data = r.Data[:length]
	return r, nil
}

// Free releases the entire region in one call. Slices taken from
// Region.Data must not be used afterward.
func Free(r *Region) error {
	if r == nil {
		return nil
	}
	return freePlatform(r)
}
