package pagemap_test

import (
	"testing"

	"github.com/zboralski/orbisloader/internal/pagemap"
)

func TestAllocFreeRoundTrip(t *testing.T) {
	region, err := pagemap.Alloc(0x10, pagemap.RWX)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(region.Data) != 0x10 {
		t.Errorf("Data len = %d, want 0x10", len(region.Data))
	}

	region.Data[0] = 0xCC
	region.Data[0xF] = 0xDD
	if region.Data[0] != 0xCC || region.Data[0xF] != 0xDD {
		t.Errorf("region memory is not writable as expected")
	}

	if err := pagemap.Free(region); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestAllocRoundsUpToPageSize(t *testing.T) {
	region, err := pagemap.Alloc(1, pagemap.RWX)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	defer pagemap.Free(region)

	if len(region.Data) != 1 {
		t.Errorf("Data len = %d, want 1 (requested length, not page-rounded)", len(region.Data))
	}
}

func TestAllocRejectsZeroLength(t *testing.T) {
	if _, err := pagemap.Alloc(0, pagemap.RWX); err == nil {
		t.Fatalf("Alloc(0, ...) should fail")
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	if err := pagemap.Free(nil); err != nil {
		t.Errorf("Free(nil) = %v, want nil", err)
	}
}

func TestProtString(t *testing.T) {
	if got := pagemap.RWX.String(); got != "rwx" {
		t.Errorf("RWX.String() = %q, want rwx", got)
	}
	if got := pagemap.ProtRead.String(); got != "r--" {
		t.Errorf("ProtRead.String() = %q, want r--", got)
	}
}
