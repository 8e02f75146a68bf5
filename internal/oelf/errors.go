package oelf

import "errors"

// Sentinel errors for Parse. Each CouldntFind error names the dynamic
// table or tag that Parse expected but never saw; each MoreThanOne error
// names a segment or tag that is only ever allowed to appear once.
var (
	ErrBadMagic = errors.New("oelf: bad ELF magic")

	ErrCouldntFindDynamic   = errors.New("oelf: no PT_DYNAMIC segment")
	ErrCouldntFindDynlib    = errors.New("oelf: no PT_SCE_DYNLIBDATA segment")
	ErrCouldntFindSymTab    = errors.New("oelf: no DT_SCE_SYMTAB entry")
	ErrCouldntFindSymTabSz  = errors.New("oelf: no DT_SCE_SYMTABSZ entry")
	ErrCouldntFindStrTab    = errors.New("oelf: no DT_SCE_STRTAB entry")
	ErrCouldntFindStrSz     = errors.New("oelf: no DT_SCE_STRSZ entry")
	ErrCouldntFindRela      = errors.New("oelf: no DT_SCE_RELA entry")
	ErrCouldntFindJmpRel    = errors.New("oelf: no DT_SCE_JMPREL entry")
	ErrCouldntFindRelaSz    = errors.New("oelf: no DT_SCE_RELASZ entry")
	ErrCouldntFindPltRelaSz = errors.New("oelf: no DT_SCE_PLTRELSZ entry")

	ErrMoreThanOneDynamic   = errors.New("oelf: more than one PT_DYNAMIC segment")
	ErrMoreThanOneDynlib    = errors.New("oelf: more than one PT_SCE_DYNLIBDATA segment")
	ErrMoreThanOneSymTab    = errors.New("oelf: more than one DT_SCE_SYMTAB entry")
	ErrMoreThanOneSymTabSz  = errors.New("oelf: more than one DT_SCE_SYMTABSZ entry")
	ErrMoreThanOneStrTab    = errors.New("oelf: more than one DT_SCE_STRTAB entry")
	ErrMoreThanOneStrSz     = errors.New("oelf: more than one DT_SCE_STRSZ entry")
	ErrMoreThanOneRela      = errors.New("oelf: more than one DT_SCE_RELA entry")
	ErrMoreThanOneJmpRel    = errors.New("oelf: more than one DT_SCE_JMPREL entry")
	ErrMoreThanOneRelaSz    = errors.New("oelf: more than one DT_SCE_RELASZ entry")
	ErrMoreThanOnePltRelaSz = errors.New("oelf: more than one DT_SCE_PLTRELSZ entry")
)
