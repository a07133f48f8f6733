package numicro

import (
	"errors"
	"testing"
)

func TestPartByID(t *testing.T) {
	tests := []struct {
		id   uint32
		name string
	}{
		{0x00005A00, "M0516LAN"},
		{0x10024018, "NUC240VE3AE"},
		{0x00205100, "MINI51LAN"},
		{0x00000000, "UNKNOWN"},
	}

	for _, test := range tests {
		part, err := PartByID(test.id)
		if err != nil {
			t.Fatalf("PartByID(0x%08x): %v", test.id, err)
		}
		if part.Name != test.name {
			t.Errorf("PartByID(0x%08x) = %s, want %s", test.id, part.Name, test.name)
		}
		if part.ID != test.id {
			t.Errorf("PartByID(0x%08x) returned entry with ID 0x%08x", test.id, part.ID)
		}
	}
}

func TestPartByIDUnknown(t *testing.T) {
	if _, err := PartByID(0xDEADBEEF); !errors.Is(err, ErrorUnknownDevice) {
		t.Fatalf("expected ErrorUnknownDevice, got %v", err)
	}
}

func TestPartByIDFirstMatchWins(t *testing.T) {
	for i := range parts {
		part, err := PartByID(parts[i].ID)
		if err != nil {
			t.Fatalf("table entry %s not found by its own ID", parts[i].Name)
		}

		/* the first table entry carrying this ID must be the one returned */
		for j := range parts {
			if parts[j].ID == parts[i].ID {
				if part != &parts[j] {
					t.Errorf("PartByID(0x%08x) = %s, want %s", parts[i].ID, part.Name, parts[j].Name)
				}
				break
			}
		}
	}
}

func TestRegionForBase(t *testing.T) {
	part, err := PartByID(0x00005A00) /* M0516LAN */
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		base uint32
		size uint32
	}{
		{APROMBase, 64 * 1024},
		{DataBase, 4 * 1024},
		{LDROMBase, 4 * 1024},
		{ConfigBase, 4},
	}
	for _, test := range tests {
		size, err := part.RegionForBase(test.base)
		if err != nil {
			t.Fatalf("RegionForBase(0x%08x): %v", test.base, err)
		}
		if size != test.size {
			t.Errorf("RegionForBase(0x%08x) = %d, want %d", test.base, size, test.size)
		}
	}

	if _, err := part.RegionForBase(0x1234); !errors.Is(err, ErrorUnknownRegion) {
		t.Errorf("expected ErrorUnknownRegion for an unmapped base, got %v", err)
	}
}
