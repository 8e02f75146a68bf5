// Package oelf parses Orbis ELF (OELF) files: standard Elf64 containers
// extended with Sony's dynamic-linking tags and program header types.
// Parse never mutates its input. The string table it returns is a
// zero-copy view into the caller-owned buffer; the program headers, symbol
// table and relocation tables are decoded into Go structs, so they are
// copies rather than views.
package oelf

// Sony program header types, beyond the standard PT_LOAD/PT_DYNAMIC/etc.
const (
	PTSceDynlibData = 0x61000000
	PTSceRelro      = 0x61000010
)

// ELF type for a Sony dynamic object (shared module), as opposed to a
// plain executable.
const ETSceDynamic = 0xFE18

// Sony dynamic tags. Each entry notes the counted list or unique scalar
// it feeds.
const (
	dtNeeded          = 0x00000001 // standard DT_NEEDED
	dtSceModuleInfo   = 0x6100000D
	dtSceNeededModule = 0x6100000F
	dtSceExportLib    = 0x61000013
	dtSceImportLib    = 0x61000015

	dtSceExportLibAttr = 0x61000017
	dtSceImportLibAttr = 0x61000019

	dtSceStrtab   = 0x61000035
	dtSceStrsz    = 0x61000037
	dtSceSymtab   = 0x61000039
	dtSceSymtabsz = 0x6100003F

	dtSceRela     = 0x6100002F
	dtSceRelasz   = 0x61000031
	dtSceJmprel   = 0x61000029
	dtScePltrelsz = 0x6100002D

	// dtSceInitProcOffset and dtSceProcParamOffset are carried from the
	// richer OELF variant mentioned in the dynamic-entry layout; no public
	// PS4 toolchain documents a stable tag number for them, so these are
	// placeholders reserved in the SCE vendor tag range pending real values.
	dtSceInitProcOffset  = 0x61000057
	dtSceProcParamOffset = 0x61000061
)
