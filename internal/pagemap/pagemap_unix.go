//go:build linux || darwin

package pagemap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// platformRegion holds nothing extra on POSIX: unix.Munmap only needs the
// slice it was handed back by Mmap.
type platformRegion struct{}

func protToUnix(p Prot) int {
	var prot int
	if p&ProtRead != 0 {
		prot |= unix.PROT_READ
	}
	if p&ProtWrite != 0 {
		prot |= unix.PROT_WRITE
	}
	if p&ProtExec != 0 {
		prot |= unix.PROT_EXEC
	}
	return prot
}

func allocPlatform(length int, prot Prot) (*Region, error) {
	data, err := unix.Mmap(-1, 0, length, protToUnix(prot), unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes prot=%s: %w", length, prot, err)
	}
	return &Region{Data: data}, nil
}

func freePlatform(r *Region) error {
	full := r.Data[:cap(r.Data)]
	if err := unix.Munmap(full); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
