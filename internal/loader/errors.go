package loader

import "errors"

var (
	ErrInvalidSelfOrOElf        = errors.New("loader: file is neither a fake SELF nor an OELF")
	ErrNothingToLoad            = errors.New("loader: mapped size is zero")
	ErrNoModuleInfo             = errors.New("loader: no export modules present")
	ErrImportModuleIdNotDefined = errors.New("loader: import module id 0 is not permitted")
	ErrNotAllSectionsArePresent = errors.New("loader: code, data and relro sections must all be present")

	ErrMoreThanOneCodeSection  = errors.New("loader: more than one code section")
	ErrMoreThanOneDataSection  = errors.New("loader: more than one data section")
	ErrMoreThanOneRelroSection = errors.New("loader: more than one relro section")

	ErrSegmentOutOfRange = errors.New("loader: segment offset/size exceeds the file or mapped region")
	ErrSymbolOutOfRange  = errors.New("loader: symbol value exceeds the mapped region")
)
