// Package libkernel self-registers the HLE policy for libkernel, the PS4
// system call and memory-management library every title links against.
// Importing this package for its side effect (init) is enough to make the
// policy visible to hle.DefaultRegistry.
package libkernel

import "github.com/zboralski/orbisloader/internal/hle"

func init() {
	hle.Register(hle.Module{
		Name:        "libkernel",
		DefaultMode: hle.HLE,
		Libraries: []hle.Library{
			{
				Name:        "libkernel",
				DefaultMode: hle.HLE,
				Functions: []string{
					"sceKernelIsNeoMode",
					"sceKernelGetCompiledSdkVersion",
					"sceKernelGetProcParam",
					"sceKernelAllocateDirectMemory",
					"sceKernelMapDirectMemory",
					"sceKernelMapNamedFlexibleMemory",
				},
				HighPriority: []string{
					"sceKernelAllocateDirectMemory",
					"sceKernelMapDirectMemory",
					"sceKernelMapNamedFlexibleMemory",
				},
				// __stack_chk_guard is process state the guest itself
				// initializes at startup; forcing a host value here would
				// desynchronize it from the canary the guest compares
				// against, so the guest's own LLE definition always wins.
				LleSymbols: []string{
					"__stack_chk_guard",
				},
			},
		},
	})
}
