package nid

import "testing"

func TestIsEncodedSymbol(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		// 11-char hash + '#' + 1-char module id + '#' + 1-char library id:
		// exactly 15 characters with '#' at positions 11 and 13.
		{"canonical shape", "abcdefghijk#B#B", true},
		{"wrong length, too long", "abcdefghijk#Bg#Bg", false},
		{"wrong length, too short", "abcdefghij#B#B", false},
		{"right length, hash in wrong spot", "abcdefghijklmno", false},
		{"plain name", "sceKernelIsNeoMode", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEncodedSymbol(tt.in); got != tt.want {
				t.Errorf("IsEncodedSymbol(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue("BC")
	if err != nil {
		t.Fatalf("DecodeValue(BC): %v", err)
	}
	if want := uint64((1 << 6) | 2); v != want {
		t.Errorf("DecodeValue(BC) = 0x%x, want 0x%x", v, want)
	}

	v, err = DecodeValue("A")
	if err != nil {
		t.Fatalf("DecodeValue(A): %v", err)
	}
	if v != 0 {
		t.Errorf("DecodeValue(A) = 0x%x, want 0", v)
	}

	_, err = DecodeValue("AAAAAAAAAAAA")
	if err == nil {
		t.Fatalf("DecodeValue(12 chars) should fail")
	}
}

type fakeResolver struct {
	modules   map[uint16]string
	libraries map[uint16]string
}

func (f fakeResolver) ImportModuleName(id uint16) (string, bool) {
	name, ok := f.modules[id]
	return name, ok
}

func (f fakeResolver) ImportLibraryName(id uint16) (string, bool) {
	name, ok := f.libraries[id]
	return name, ok
}

func TestReconstructFullNid(t *testing.T) {
	table := NewStaticTable(map[string]string{"abcdefghijk": "sceKernelFoo"})
	resolver := fakeResolver{
		modules:   map[uint16]string{1: "libkernel"},
		libraries: map[uint16]string{1: "libkernel"},
	}

	rec, err := ReconstructFullNid(table, resolver, "abcdefghijk#B#B")
	if err != nil {
		t.Fatalf("ReconstructFullNid: %v", err)
	}
	if want := "sceKernelFoo#libkernel#libkernel"; rec.FullName != want {
		t.Errorf("FullName = %q, want %q", rec.FullName, want)
	}
	if rec.SymbolName != "sceKernelFoo" || rec.ModuleName != "libkernel" || rec.LibraryName != "libkernel" {
		t.Errorf("unexpected parts: %+v", rec)
	}
}

func TestReconstructFullNidFallsBackOnMiss(t *testing.T) {
	table := NewStaticTable(nil)
	resolver := fakeResolver{}

	rec, err := ReconstructFullNid(table, resolver, "unknownhash1#XX#YY")
	if err != nil {
		t.Fatalf("ReconstructFullNid: %v", err)
	}
	if rec.SymbolName != "unknownhash1" {
		t.Errorf("SymbolName = %q, want fallback to hash", rec.SymbolName)
	}
	if rec.ModuleName != "XX" || rec.LibraryName != "YY" {
		t.Errorf("unexpected fallback parts: %+v", rec)
	}
}

func TestReconstructFullNidRejectsWrongPartCount(t *testing.T) {
	table := NewStaticTable(nil)
	resolver := fakeResolver{}
	if _, err := ReconstructFullNid(table, resolver, "onlyonepart"); err == nil {
		t.Fatalf("expected error for malformed encoded name")
	}
}

func TestDefaultTableLookup(t *testing.T) {
	if got := DefaultTable.Lookup("9BcDykPmo1I"); got != "sceKernelIsNeoMode" {
		t.Errorf("DefaultTable.Lookup = %q, want sceKernelIsNeoMode", got)
	}
	if got := DefaultTable.Lookup("not-a-real-hash"); got != "not-a-real-hash" {
		t.Errorf("DefaultTable.Lookup miss = %q, want input echoed back", got)
	}
}
