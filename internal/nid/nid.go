// Package nid decodes Sony's short "NID" symbol names, as described in
// ps4libdoc and reconstructed by every PS4 homebrew loader: a guest symbol
// table entry like "abcdefghijk#B#B" packs an 11-character hash of the
// real name together with a 1-character module id and a 1-character
// library id, each drawn from a base64-like alphabet.
package nid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNid is returned when an encoded name does not split into
// exactly three '#'-separated parts.
var ErrInvalidNid = errors.New("nid: invalid encoded name")

// ErrInvalidEncodedValue is returned by DecodeValue when its input exceeds
// the 11-character limit of a single encoded field, or contains a
// character outside the encoding alphabet.
var ErrInvalidEncodedValue = errors.New("nid: invalid encoded value")

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+-"

var charIndex [256]int8

func init() {
	for i := range charIndex {
		charIndex[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		charIndex[alphabet[i]] = int8(i)
	}
}

// IsEncodedSymbol reports whether name has the shape of an encoded NID:
// exactly 15 characters, with '#' at positions 11 and 13, splitting it
// into an 11-char hash, a 1-char module id and a 1-char library id.
func IsEncodedSymbol(name string) bool {
	return len(name) == 15 && name[11] == '#' && name[13] == '#'
}

// DecodeValue decodes a base64-like field into its 64-bit accumulator.
// Each character contributes 6 bits (shift-left-6, OR index), except that
// a full 11-character field — the length of an encoded hash, where 10
// characters at 6 bits plus one at 4 bits lands exactly on 64 bits — folds
// its final character down to 4 bits (shift-left-4, OR index>>2) instead.
// Shorter fields, such as the 1-character module/library ids, never hit
// that fold: every one of their characters uses the plain 6-bit rule.
// Fields longer than 11 characters cannot occur in a real NID and are
// rejected.
func DecodeValue(s string) (uint64, error) {
	if len(s) > 11 {
		return 0, fmt.Errorf("%w: %q (%d chars)", ErrInvalidEncodedValue, s, len(s))
	}
	foldLast := len(s) == 11
	var acc uint64
	for i := 0; i < len(s); i++ {
		idx := charIndex[s[i]]
		if idx < 0 {
			return 0, fmt.Errorf("%w: invalid character %q in %q", ErrInvalidEncodedValue, s[i], s)
		}
		if foldLast && i == len(s)-1 {
			acc = acc<<4 | uint64(idx)>>2
		} else {
			acc = acc<<6 | uint64(idx)
		}
	}
	return acc, nil
}

// decodeID decodes a 1-character module/library id field to its 16-bit id.
func decodeID(s string) (uint16, error) {
	v, err := DecodeValue(s)
	if err != nil {
		return 0, err
	}
	return uint16(v & 0xFFFF), nil
}

// Table looks up a canonical symbol name from its 11-character NID hash,
// falling back to the hash itself on a miss (see StaticTable in table.go).
type Table interface {
	Lookup(hash string) string
}

// ImportResolver supplies a loaded module's import-module and
// import-library id-to-name maps. internal/loader's Module implements it.
type ImportResolver interface {
	ImportModuleName(id uint16) (string, bool)
	ImportLibraryName(id uint16) (string, bool)
}

// Reconstructed holds the three parts of a full NID-derived symbol name,
// all pointing into the single FullName allocation.
type Reconstructed struct {
	FullName    string
	SymbolName  string
	ModuleName  string
	LibraryName string
}

// ReconstructFullNid splits an encoded name into its hash/module-id/
// library-id parts, resolves each through table and resolver, and returns
// the assembled "{symbol}#{module}#{library}" name.
func ReconstructFullNid(table Table, resolver ImportResolver, encoded string) (Reconstructed, error) {
	parts := strings.Split(encoded, "#")
	if len(parts) != 3 {
		return Reconstructed{}, fmt.Errorf("%w: %q", ErrInvalidNid, encoded)
	}

	symbolName := parts[0]
	if table != nil {
		symbolName = table.Lookup(parts[0])
	}

	moduleName := parts[1]
	if id, err := decodeID(parts[1]); err == nil {
		if name, ok := resolver.ImportModuleName(id); ok {
			moduleName = name
		}
	}

	libraryName := parts[2]
	if id, err := decodeID(parts[2]); err == nil {
		if name, ok := resolver.ImportLibraryName(id); ok {
			libraryName = name
		}
	}

	full := symbolName + "#" + moduleName + "#" + libraryName
	modStart := len(symbolName) + 1
	libStart := modStart + len(moduleName) + 1
	return Reconstructed{
		FullName:    full,
		SymbolName:  full[:len(symbolName)],
		ModuleName:  full[modStart : modStart+len(moduleName)],
		LibraryName: full[libStart:],
	}, nil
}
