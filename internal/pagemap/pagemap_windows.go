//go:build windows

package pagemap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// platformRegion remembers the VirtualAlloc base so Free can VirtualFree
// the whole reservation regardless of how Data got sliced afterward.
type platformRegion struct {
	base uintptr
}

// protToWindows implements the §4.1 table: any combination containing both
// write and execute collapses to PAGE_EXECUTE_READWRITE, since Windows has
// no independent RWX-minus-one-bit protection constant.
func protToWindows(p Prot) uint32 {
	switch {
	case p&ProtWrite != 0 && p&ProtExec != 0:
		return windows.PAGE_EXECUTE_READWRITE
	case p&ProtExec != 0 && p&ProtRead != 0:
		return windows.PAGE_EXECUTE_READ
	case p&ProtExec != 0:
		return windows.PAGE_EXECUTE
	case p&ProtWrite != 0:
		return windows.PAGE_READWRITE
	case p&ProtRead != 0:
		return windows.PAGE_READONLY
	default:
		return windows.PAGE_NOACCESS
	}
}

func allocPlatform(length int, prot Prot) (*Region, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(length), windows.MEM_COMMIT|windows.MEM_RESERVE, protToWindows(prot))
	if err != nil {
		return nil, fmt.Errorf("VirtualAlloc %d bytes prot=%s: %w", length, prot, err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	return &Region{Data: data, platform: platformRegion{base: addr}}, nil
}

func freePlatform(r *Region) error {
	if err := windows.VirtualFree(r.platform.base, 0, windows.MEM_RELEASE); err != nil {
		return fmt.Errorf("VirtualFree: %w", err)
	}
	return nil
}
