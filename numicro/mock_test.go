package numicro

import (
	"errors"
	"fmt"
	"time"

	"github.com/fanoush/openocd/target"
)

// mockTarget emulates just enough of a halted NuMicro for the protocol
// tests: registers read back what was last written, the ISP read command
// returns words from a fake flash map, the trigger bit self-clears and
// working areas come from a bump allocator. Every mutating call is
// recorded in ops so tests can assert on the exact register traffic.
type mockTarget struct {
	halted bool

	regs map[uint32]uint32
	ops  []string

	// words returned through ISPDAT after an ISP read command
	flash map[uint32]uint32

	// trigger bit never clears, forces poll timeouts
	trgStuck bool
	trgReads int

	workSize   uint32
	nextAddr   uint32
	allocLimit uint32 // allocations above this size fail, 0 = no limit
	allocated  []*target.WorkingArea
	freed      int

	algoResult uint32
	algoErr    error
	algoCalls  [][3]uint32
}

func newMockTarget() *mockTarget {
	return &mockTarget{
		halted:   true,
		regs:     map[uint32]uint32{},
		flash:    map[uint32]uint32{},
		workSize: 0x4000,
		nextAddr: 0x20000000,
	}
}

func (m *mockTarget) ReadU32(addr uint32) (uint32, error) {
	switch addr {
	case fmcISPTrg:
		m.trgReads++
		if m.trgStuck {
			return ispTrgGo, nil
		}
		return 0, nil

	case fmcISPDat:
		if m.regs[fmcISPCmd] == CmdRead {
			return m.flash[m.regs[fmcISPAdr]], nil
		}
	}
	return m.regs[addr], nil
}

func (m *mockTarget) WriteU32(addr uint32, value uint32) error {
	m.ops = append(m.ops, fmt.Sprintf("w32 %08x %08x", addr, value))

	switch addr {
	case sysWRProt:
		// the register reads back lock status, not the written key
		if value == regKey3 {
			m.regs[sysWRProt] = 1
		}
		return nil

	case fmcISPCon:
		// the fail flag is write-one-to-clear
		value &^= ispConISPFF
	}

	m.regs[addr] = value
	return nil
}

func (m *mockTarget) ReadMemory(addr uint32, buf []byte) error {
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func (m *mockTarget) WriteMemory(addr uint32, buf []byte) error {
	m.ops = append(m.ops, fmt.Sprintf("mem %08x %x", addr, buf))
	return nil
}

func (m *mockTarget) Halted() bool { return m.halted }

func (m *mockTarget) WorkingAreaSize() uint32 { return m.workSize }

func (m *mockTarget) AllocWorkingArea(size uint32) (*target.WorkingArea, error) {
	if m.allocLimit != 0 && size > m.allocLimit {
		return nil, errors.New("no working area")
	}
	area := &target.WorkingArea{Address: m.nextAddr, Size: size}
	m.nextAddr += size
	m.allocated = append(m.allocated, area)
	return area, nil
}

func (m *mockTarget) FreeWorkingArea(area *target.WorkingArea) {
	for i, a := range m.allocated {
		if a == area {
			m.allocated = append(m.allocated[:i], m.allocated[i+1:]...)
			m.freed++
			return
		}
	}
}

func (m *mockTarget) RunAlgorithm(entry uint32, args [3]uint32, timeout time.Duration) (uint32, error) {
	m.ops = append(m.ops, fmt.Sprintf("run %08x %08x %08x %08x", entry, args[0], args[1], args[2]))
	m.algoCalls = append(m.algoCalls, args)
	if m.algoErr != nil {
		return 0, m.algoErr
	}
	return m.algoResult, nil
}

// opsTo returns the recorded writes addressed to reg.
func (m *mockTarget) opsTo(reg uint32) []string {
	var out []string
	prefix := fmt.Sprintf("w32 %08x ", reg)
	for _, op := range m.ops {
		if len(op) >= len(prefix) && op[:len(prefix)] == prefix {
			out = append(out, op)
		}
	}
	return out
}
