package numicro

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// newProbedBank builds a bank over the mock, identified as an M0516LAN
// with a 64 KiB APROM.
func newProbedBank(t *testing.T, m *mockTarget, base uint32) *Bank {
	t.Helper()

	m.regs[sysBase] = 0x00005A00
	b := NewBank(m, base, Config{})
	if err := b.Probe(); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestProbeGeometry(t *testing.T) {
	m := newMockTarget()
	b := newProbedBank(t, m, APROMBase)

	if b.Part().Name != "M0516LAN" {
		t.Errorf("detected part %s, want M0516LAN", b.Part().Name)
	}
	if b.Size() != 64*1024 {
		t.Errorf("bank size %d, want %d", b.Size(), 64*1024)
	}

	sectors := b.Sectors()
	if len(sectors) != 64*1024/SectorSize {
		t.Fatalf("sector count %d, want %d", len(sectors), 64*1024/SectorSize)
	}

	var offset, total uint32
	for i, s := range sectors {
		if s.Offset != offset {
			t.Fatalf("sector %d at offset 0x%08x, want 0x%08x", i, s.Offset, offset)
		}
		if s.Size != SectorSize {
			t.Fatalf("sector %d size %d, want %d", i, s.Size, SectorSize)
		}
		if s.Erased != EraseStateUnknown {
			t.Fatalf("sector %d erase state %d, want unknown", i, s.Erased)
		}
		if s.Protected {
			t.Fatalf("sector %d protected before any protect check", i)
		}
		offset += s.Size
		total += s.Size
	}
	if total != b.Size() {
		t.Errorf("sector sizes sum to %d, bank size is %d", total, b.Size())
	}
}

func TestProbeUnknownDevice(t *testing.T) {
	m := newMockTarget()
	m.regs[sysBase] = 0x12345678

	b := NewBank(m, APROMBase, Config{})
	if err := b.Probe(); !errors.Is(err, ErrorUnknownDevice) {
		t.Fatalf("expected ErrorUnknownDevice, got %v", err)
	}
}

func TestProbeBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		id   uint32
		base uint32
	}{
		/* MINI51LAN has no fixed DataFlash, the size reads as zero */
		{"zero size", 0x00205100, DataBase},
		/* the config words are 4 bytes, not a whole sector */
		{"not sector multiple", 0x00005A00, ConfigBase},
	}

	for _, test := range tests {
		m := newMockTarget()
		m.regs[sysBase] = test.id

		b := NewBank(m, test.base, Config{})
		if err := b.Probe(); !errors.Is(err, ErrorBadGeometry) {
			t.Errorf("%s: expected ErrorBadGeometry, got %v", test.name, err)
		}
	}
}

func TestAutoProbeIdempotent(t *testing.T) {
	m := newMockTarget()
	b := newProbedBank(t, m, APROMBase)

	/* a second auto-probe must not touch the ID register again */
	m.regs[sysBase] = 0xDEADBEEF
	if err := b.AutoProbe(); err != nil {
		t.Fatal(err)
	}
	if b.Part().Name != "M0516LAN" {
		t.Errorf("auto-probe re-identified the device")
	}
}

func TestEraseTraffic(t *testing.T) {
	m := newMockTarget()
	b := newProbedBank(t, m, APROMBase)

	m.ops = nil
	if err := b.Erase(2, 3); err != nil {
		t.Fatal(err)
	}

	/* one command write, then per sector an address and a trigger */
	cmds := m.opsTo(fmcISPCmd)
	wantCmds := []string{fmt.Sprintf("w32 %08x %08x", uint32(fmcISPCmd), uint32(CmdPageErase))}
	if !reflect.DeepEqual(cmds, wantCmds) {
		t.Errorf("command writes = %v, want %v", cmds, wantCmds)
	}

	wantAddrs := []string{
		fmt.Sprintf("w32 %08x %08x", uint32(fmcISPAdr), uint32(2*SectorSize)),
		fmt.Sprintf("w32 %08x %08x", uint32(fmcISPAdr), uint32(3*SectorSize)),
	}
	if got := m.opsTo(fmcISPAdr); !reflect.DeepEqual(got, wantAddrs) {
		t.Errorf("address writes = %v, want %v", got, wantAddrs)
	}

	if got := m.opsTo(fmcISPTrg); len(got) != 2 {
		t.Errorf("trigger writes = %v, want 2 of them", got)
	}
	if m.trgReads < 2 {
		t.Errorf("trigger polled %d times, want at least one poll per sector", m.trgReads)
	}
}

func TestEraseRangeChecks(t *testing.T) {
	m := newMockTarget()
	b := newProbedBank(t, m, APROMBase)

	for _, r := range [][2]int{{-1, 0}, {5, 4}, {0, len(b.Sectors())}} {
		if err := b.Erase(r[0], r[1]); err == nil {
			t.Errorf("Erase(%d, %d) accepted an invalid range", r[0], r[1])
		}
	}
}

func TestEraseNotProbed(t *testing.T) {
	m := newMockTarget()
	b := NewBank(m, APROMBase, Config{})

	if err := b.Erase(0, 0); !errors.Is(err, ErrorNotProbed) {
		t.Fatalf("expected ErrorNotProbed, got %v", err)
	}
}

func TestEraseNotHalted(t *testing.T) {
	m := newMockTarget()
	b := newProbedBank(t, m, APROMBase)

	m.halted = false
	if err := b.Erase(0, 0); !errors.Is(err, ErrorNotHalted) {
		t.Fatalf("expected ErrorNotHalted, got %v", err)
	}
}

func TestWriteAlignment(t *testing.T) {
	m := newMockTarget()
	b := newProbedBank(t, m, APROMBase)
	m.ops = nil

	tests := []struct {
		offset uint32
		length int
	}{
		{1, 4},
		{2, 4},
		{0, 3},
		{4, 6},
	}
	for _, test := range tests {
		err := b.Write(test.offset, make([]byte, test.length))
		if !errors.Is(err, ErrorAlignment) {
			t.Errorf("Write(0x%x, %d bytes): expected ErrorAlignment, got %v", test.offset, test.length, err)
		}
	}

	/* alignment is validated before anything is sent to the device */
	if len(m.ops) != 0 {
		t.Errorf("register traffic for rejected writes: %v", m.ops)
	}
}

func TestWriteNotProbed(t *testing.T) {
	m := newMockTarget()
	b := NewBank(m, APROMBase, Config{})

	if err := b.Write(0, make([]byte, 4)); !errors.Is(err, ErrorNotProbed) {
		t.Fatalf("expected ErrorNotProbed, got %v", err)
	}
}

func TestProtectCheck(t *testing.T) {
	tests := []struct {
		config0 uint32
		locked  bool
	}{
		{0xFFFFFFFF, false},                    /* erased config, lock bit set */
		{0xFFFFFFFF &^ config0LockMask, true},  /* lock bit cleared */
		{config0LockMask, false},               /* only the lock bit */
	}

	for _, test := range tests {
		m := newMockTarget()
		b := newProbedBank(t, m, APROMBase)
		m.flash[config0Addr] = test.config0
		m.flash[config1Addr] = 0xFFFFFFFF

		if err := b.ProtectCheck(); err != nil {
			t.Fatal(err)
		}
		for i, s := range b.Sectors() {
			if s.Protected != test.locked {
				t.Fatalf("config0 0x%08x: sector %d protected = %v, want %v",
					test.config0, i, s.Protected, test.locked)
			}
		}
	}
}

func TestProtectCheckNotProbed(t *testing.T) {
	m := newMockTarget()
	b := NewBank(m, APROMBase, Config{})

	if err := b.ProtectCheck(); !errors.Is(err, ErrorNotProbed) {
		t.Fatalf("expected ErrorNotProbed, got %v", err)
	}
}

func TestChipErase(t *testing.T) {
	m := newMockTarget()
	b := newProbedBank(t, m, APROMBase)

	m.ops = nil
	if err := b.ChipErase(); err != nil {
		t.Fatal(err)
	}

	want := fmt.Sprintf("w32 %08x %08x", uint32(fmcISPCmd), uint32(CmdChipErase))
	if got := m.opsTo(fmcISPCmd); !reflect.DeepEqual(got, []string{want}) {
		t.Errorf("command writes = %v, want %v", got, []string{want})
	}
}
