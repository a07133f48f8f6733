package dap

import (
	"errors"
	"testing"

	"github.com/fanoush/openocd/target"
)

func testProbe() *Probe {
	return &Probe{
		config: Config{
			WorkAreaBase: 0x20000000,
			WorkAreaSize: 0x1000,
		},
		packetSize: 64,
	}
}

func TestAllocWorkingArea(t *testing.T) {
	p := testProbe()

	a, err := p.AllocWorkingArea(64)
	if err != nil {
		t.Fatal(err)
	}
	if a.Address != 0x20000000 || a.Size != 64 {
		t.Errorf("first area at 0x%08x size %d, want 0x20000000 size 64", a.Address, a.Size)
	}

	b, err := p.AllocWorkingArea(0x100)
	if err != nil {
		t.Fatal(err)
	}
	if b.Address != 0x20000040 {
		t.Errorf("second area at 0x%08x, want 0x20000040", b.Address)
	}
}

func TestAllocWorkingAreaFirstFit(t *testing.T) {
	p := testProbe()

	a, _ := p.AllocWorkingArea(64)
	b, _ := p.AllocWorkingArea(64)

	/* freeing the first reservation opens a gap at the base */
	p.FreeWorkingArea(a)
	c, err := p.AllocWorkingArea(32)
	if err != nil {
		t.Fatal(err)
	}
	if c.Address != 0x20000000 {
		t.Errorf("gap fill at 0x%08x, want 0x20000000", c.Address)
	}

	/* a larger request than the gap goes after the last reservation */
	d, err := p.AllocWorkingArea(128)
	if err != nil {
		t.Fatal(err)
	}
	if d.Address != b.Address+b.Size {
		t.Errorf("area at 0x%08x, want 0x%08x", d.Address, b.Address+b.Size)
	}
}

func TestAllocWorkingAreaRounding(t *testing.T) {
	p := testProbe()

	a, err := p.AllocWorkingArea(5)
	if err != nil {
		t.Fatal(err)
	}
	if a.Size != 8 {
		t.Errorf("size %d, want 8 after word rounding", a.Size)
	}
}

func TestAllocWorkingAreaExhausted(t *testing.T) {
	p := testProbe()

	if _, err := p.AllocWorkingArea(0x2000); !errors.Is(err, ErrorNoWorkingArea) {
		t.Fatalf("expected ErrorNoWorkingArea, got %v", err)
	}

	a, err := p.AllocWorkingArea(0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.AllocWorkingArea(4); !errors.Is(err, ErrorNoWorkingArea) {
		t.Fatalf("expected ErrorNoWorkingArea with the range full, got %v", err)
	}

	p.FreeWorkingArea(a)
	if _, err := p.AllocWorkingArea(4); err != nil {
		t.Fatalf("allocation after free failed: %v", err)
	}
}

func TestAllocWorkingAreaDisabled(t *testing.T) {
	p := &Probe{}
	if _, err := p.AllocWorkingArea(4); !errors.Is(err, ErrorNoWorkingArea) {
		t.Fatalf("expected ErrorNoWorkingArea with no range configured, got %v", err)
	}
}

func TestFreeWorkingAreaUnknown(t *testing.T) {
	p := testProbe()
	a, _ := p.AllocWorkingArea(64)

	/* freeing something never allocated must not disturb the list */
	p.FreeWorkingArea(&target.WorkingArea{Address: 0x20000000, Size: 64})
	if len(p.areas) != 1 || p.areas[0] != a {
		t.Errorf("reservation list corrupted: %v", p.areas)
	}
}
