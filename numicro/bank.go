// Package numicro programs the on-chip flash of Nuvoton NuMicro
// microcontrollers through their ISP register interface, using a debug
// probe while the CPU is halted.
package numicro

import (
	"errors"
	"fmt"

	"github.com/fanoush/openocd/target"
)

// EraseState is the tri-state erased flag of a sector.
type EraseState int8

const (
	EraseStateUnknown   EraseState = -1
	EraseStateNotErased EraseState = 0
	EraseStateErased    EraseState = 1
)

type Sector struct {
	Offset    uint32
	Size      uint32
	Erased    EraseState
	Protected bool
}

type Config struct {
	LogFunc LogFunc
}

// Bank is one addressable flash region under management. It is created
// unprobed; Probe resolves the part and materializes the sector list.
type Bank struct {
	t      target.Target
	isp    *ISP
	config Config

	base    uint32
	size    uint32
	sectors []Sector

	probed bool
	part   *Part
}

func NewBank(t target.Target, base uint32, config Config) *Bank {
	return &Bank{
		t:      t,
		isp:    NewISP(t, config.LogFunc),
		config: config,
		base:   base,
	}
}

func (b *Bank) Base() uint32      { return b.base }
func (b *Bank) Size() uint32      { return b.size }
func (b *Bank) Part() *Part       { return b.part }
func (b *Bank) Sectors() []Sector { return b.sectors }
func (b *Bank) ISP() *ISP         { return b.isp }

// Identify reads the part ID register and resolves it against the part
// table. An ID that matches no table entry is a detection failure.
func Identify(t target.Target) (*Part, error) {
	id, err := t.ReadU32(sysBase)
	if err != nil {
		return nil, err
	}
	part, err := PartByID(id)
	if err != nil {
		return nil, fmt.Errorf("device ID 0x%08x: %w", id, err)
	}
	return part, nil
}

// Probe identifies the device and rebuilds the sector list from the flash
// region matching the bank base. It can be called again to re-probe.
func (b *Bank) Probe() error {
	part, err := Identify(b.t)
	if err != nil {
		b.isp.logf(1, "failed to detect a known part: %v", err)
		return err
	}
	b.isp.logf(1, "device: %s (ID 0x%08x)", part.Name, part.ID)

	size, err := part.RegionForBase(b.base)
	if err != nil {
		b.isp.logf(1, "failed to detect flash size for bank base 0x%08x", b.base)
		return err
	}
	if size == 0 || size%SectorSize != 0 {
		return ErrorBadGeometry
	}
	b.isp.logf(1, "bank base 0x%08x, size 0x%08x", b.base, size)

	numSectors := size / SectorSize
	b.sectors = make([]Sector, numSectors)
	for i, offset := 0, uint32(0); i < int(numSectors); i++ {
		b.sectors[i] = Sector{
			Offset: offset,
			Size:   SectorSize,
			Erased: EraseStateUnknown,
		}
		offset += SectorSize
	}

	b.size = size
	b.part = part
	b.probed = true
	return nil
}

// AutoProbe probes the bank once; it is a no-op when already probed.
func (b *Bank) AutoProbe() error {
	if b.probed {
		return nil
	}
	return b.Probe()
}

// Erase erases sectors first through last inclusive.
func (b *Bank) Erase(first, last int) error {
	if !b.probed {
		return ErrorNotProbed
	}
	if first < 0 || last < first || last >= len(b.sectors) {
		return fmt.Errorf("sector range %d..%d out of bounds", first, last)
	}
	if !b.t.Halted() {
		return ErrorNotHalted
	}

	b.isp.logf(1, "sector erase (%d to %d)", first, last)

	if err := b.isp.Init(); err != nil {
		return err
	}

	if err := b.t.WriteU32(fmcISPCmd, CmdPageErase); err != nil {
		return err
	}

	for i := first; i <= last; i++ {
		b.isp.logf(3, "erasing sector %d at address 0x%08x", i, b.base+b.sectors[i].Offset)

		if err := b.t.WriteU32(fmcISPAdr, b.base+b.sectors[i].Offset); err != nil {
			return err
		}
		if err := b.t.WriteU32(fmcISPTrg, ispTrgGo); err != nil {
			return err
		}

		/* this loop wants the whole trigger register at zero, not just
		 * the GO bit */
		err := pollUntil(func() (uint32, error) {
			return b.t.ReadU32(fmcISPTrg)
		}, func(status uint32) bool {
			return status == 0
		}, pollIterations, pollInterval)
		if err != nil {
			return err
		}

		if err := b.isp.checkFailFlag(); err != nil {
			return err
		}
	}

	b.isp.logf(2, "erase done")
	return nil
}

// Write programs data at the given offset into the bank. Offset and length
// must be word aligned. It prefers the block accelerator and falls back to
// single-word ISP writes when no working area can be reserved.
func (b *Bank) Write(offset uint32, data []byte) error {
	if offset%4 != 0 || len(data)%4 != 0 {
		return ErrorAlignment
	}
	if !b.probed {
		return ErrorNotProbed
	}
	if !b.t.Halted() {
		return ErrorNotHalted
	}

	b.isp.logf(1, "flash write of %d bytes at offset 0x%08x", len(data), offset)

	if err := b.isp.Init(); err != nil {
		return err
	}

	if err := b.t.WriteU32(fmcISPCmd, CmdProgram); err != nil {
		return err
	}

	err := b.writeBlock(data, offset, uint32(len(data)/4))
	if errors.Is(err, ErrorNoWorkingArea) {
		b.isp.logf(2, "couldn't use block writes, falling back to single memory accesses")
		err = b.writeWords(data, offset)
	}
	if err != nil {
		return err
	}

	return b.isp.checkFailFlag()
}

// writeWords is the slow path: one ISP program command per word.
func (b *Bank) writeWords(data []byte, offset uint32) error {
	for i := 0; i < len(data); i += 4 {
		b.isp.logf(3, "write longword @ 0x%08x", offset+uint32(i))

		if err := b.t.WriteU32(fmcISPAdr, b.base+offset+uint32(i)); err != nil {
			return err
		}
		if err := b.t.WriteMemory(fmcISPDat, data[i:i+4]); err != nil {
			return err
		}
		if err := b.t.WriteU32(fmcISPTrg, ispTrgGo); err != nil {
			return err
		}

		err := pollUntil(func() (uint32, error) {
			return b.t.ReadU32(fmcISPTrg)
		}, func(status uint32) bool {
			return status == 0
		}, pollIterations, pollInterval)
		if err != nil {
			return err
		}
	}
	return nil
}

// ProtectCheck reads the user configuration words and derives the lock
// state of the bank. The lock bit covers the whole flash, so every sector
// gets the same flag.
func (b *Bank) ProtectCheck() error {
	if !b.probed {
		return ErrorNotProbed
	}
	if !b.t.Halted() {
		return ErrorNotHalted
	}

	if err := b.isp.Init(); err != nil {
		return err
	}

	config0, err := b.isp.Command(CmdRead, config0Addr, 0)
	if err != nil {
		return err
	}
	config1, err := b.isp.Command(CmdRead, config1Addr, 0)
	if err != nil {
		return err
	}
	b.isp.logf(3, "CONFIG0: 0x%08x, CONFIG1: 0x%08x", config0, config1)

	if config0&config0CBSMask == 0 {
		b.isp.logf(1, "CBS=0: boot from LDROM")
	} else {
		b.isp.logf(1, "CBS=1: boot from APROM")
	}

	locked := config0&config0LockMask == 0
	if locked {
		b.isp.logf(1, "flash is secure locked, chip erase is required to unlock")
	} else {
		b.isp.logf(1, "flash is not locked")
	}

	for i := range b.sectors {
		b.sectors[i].Protected = locked
	}
	return nil
}

// ChipErase issues the undocumented whole-chip erase command. It clears the
// secure lock along with all flash contents.
func (b *Bank) ChipErase() error {
	if err := b.isp.Init(); err != nil {
		return err
	}
	_, err := b.isp.Command(CmdChipErase, 0, 0)
	return err
}
