package dap

import (
	"time"
)

// ARMv7-M core debug registers.
const (
	scsDHCSR = 0xE000EDF0
	scsDCRSR = 0xE000EDF4
	scsDCRDR = 0xE000EDF8

	dhcsrDbgKey   = 0xA05F0000
	dhcsrCDebugEn = 1 << 0
	dhcsrCHalt    = 1 << 1
	dhcsrSRegRdy  = 1 << 16
	dhcsrSHalt    = 1 << 17

	dcrsrWrite = 1 << 16

	regSP   = 13
	regPC   = 15
	regXPSR = 16

	xpsrThumb = 1 << 24
)

// Halted reports whether the core is stopped in debug state.
func (p *Probe) Halted() bool {
	dhcsr, err := p.ReadU32(scsDHCSR)
	return err == nil && dhcsr&dhcsrSHalt != 0
}

// Halt requests a core halt and waits for it to take effect.
func (p *Probe) Halt() error {
	if err := p.WriteU32(scsDHCSR, dhcsrDbgKey|dhcsrCDebugEn|dhcsrCHalt); err != nil {
		return err
	}
	return p.waitHalt(time.Second)
}

// Resume lets the core run from the current program counter.
func (p *Probe) Resume() error {
	return p.WriteU32(scsDHCSR, dhcsrDbgKey|dhcsrCDebugEn)
}

func (p *Probe) waitHalt(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		dhcsr, err := p.ReadU32(scsDHCSR)
		if err != nil {
			return err
		}
		if dhcsr&dhcsrSHalt != 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrorTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *Probe) waitRegReady() error {
	for n := 0; n < 100; n++ {
		dhcsr, err := p.ReadU32(scsDHCSR)
		if err != nil {
			return err
		}
		if dhcsr&dhcsrSRegRdy != 0 {
			return nil
		}
	}
	return ErrorTimeout
}

func (p *Probe) readCoreReg(reg int) (uint32, error) {
	if err := p.WriteU32(scsDCRSR, uint32(reg)); err != nil {
		return 0, err
	}
	if err := p.waitRegReady(); err != nil {
		return 0, err
	}
	return p.ReadU32(scsDCRDR)
}

func (p *Probe) writeCoreReg(reg int, value uint32) error {
	if err := p.WriteU32(scsDCRDR, value); err != nil {
		return err
	}
	if err := p.WriteU32(scsDCRSR, dcrsrWrite|uint32(reg)); err != nil {
		return err
	}
	return p.waitRegReady()
}

// RunAlgorithm executes previously uploaded code at entry. The three args
// are loaded into r0..r2, the stack pointer is parked at the top of the
// working area range, and the core runs until the code hits a breakpoint.
// It returns the value left in r0.
func (p *Probe) RunAlgorithm(entry uint32, args [3]uint32, timeout time.Duration) (uint32, error) {
	if !p.Halted() {
		return 0, ErrorNotHalted
	}

	for reg, value := range args {
		if err := p.writeCoreReg(reg, value); err != nil {
			return 0, err
		}
	}
	if err := p.writeCoreReg(regSP, p.config.WorkAreaBase+p.config.WorkAreaSize); err != nil {
		return 0, err
	}
	if err := p.writeCoreReg(regXPSR, xpsrThumb); err != nil {
		return 0, err
	}
	if err := p.writeCoreReg(regPC, entry|1); err != nil {
		return 0, err
	}

	p.logf(3, "running algorithm at 0x%08x (r0=0x%08x r1=0x%08x r2=0x%08x)",
		entry, args[0], args[1], args[2])

	if err := p.Resume(); err != nil {
		return 0, err
	}

	if err := p.waitHalt(timeout); err != nil {
		/* regain control so the next operation starts from a sane state */
		p.Halt()
		return 0, err
	}

	return p.readCoreReg(0)
}
