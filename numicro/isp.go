package numicro

import (
	"time"

	"github.com/fanoush/openocd/target"
)

type LogFunc func(level int, format string, param ...interface{})

const (
	pollIterations = 100
	pollInterval   = time.Millisecond
)

// ISP drives the In-System-Programming register interface of a halted
// NuMicro target. All flash commands funnel through Command.
type ISP struct {
	t   target.Target
	log LogFunc
}

func NewISP(t target.Target, log LogFunc) *ISP {
	return &ISP{t: t, log: log}
}

func (i *ISP) logf(level int, format string, param ...interface{}) {
	if i.log != nil {
		i.log(level, format, param...)
	}
}

// pollUntil reads a register until done accepts the value, for at most
// maxIter iterations with sleep between polls.
func pollUntil(read func() (uint32, error), done func(uint32) bool, maxIter int, sleep time.Duration) error {
	for n := 0; n < maxIter; n++ {
		status, err := read()
		if err != nil {
			return err
		}
		if done(status) {
			return nil
		}
		time.Sleep(sleep)
	}
	return ErrorTimeout
}

// regUnlock disables the system register write protection by writing the
// three-key sequence. The result of the unlock is only reported, not
// enforced: some parts keep reading as locked yet accept ISP traffic.
func (i *ISP) regUnlock() error {
	isProtected, err := i.t.ReadU32(sysWRProt)
	if err != nil {
		return err
	}

	i.logf(3, "WRPROT = 0x%08x", isProtected)
	if isProtected == 0 { /* locked, write the key sequence */
		for _, key := range []uint32{regKey1, regKey2, regKey3} {
			if err := i.t.WriteU32(sysWRProt, key); err != nil {
				return err
			}
		}
	}

	isProtected, err = i.t.ReadU32(sysWRProt)
	if err != nil {
		return err
	}
	if isProtected == 1 {
		i.logf(3, "register protection removed")
	} else {
		i.logf(2, "registers still protected after unlock")
	}

	return nil
}

// Init unlocks the system registers, enables the ISP/SRAM/Tick clocks and
// the ISP subsystem. It only ever sets bits, so it is safe to call before
// every operation.
func (i *ISP) Init() error {
	if !i.t.Halted() {
		return ErrorNotHalted
	}

	if err := i.regUnlock(); err != nil {
		return err
	}

	stat, err := i.t.ReadU32(clkAHBClk)
	if err != nil {
		return err
	}
	stat |= ahbClkISPEn | ahbClkSRAMEn | ahbClkTickEn
	if err := i.t.WriteU32(clkAHBClk, stat); err != nil {
		return err
	}

	stat, err = i.t.ReadU32(fmcISPCon)
	if err != nil {
		return err
	}
	stat |= ispConISPFF | ispConLDUEn | ispConAPUEn | ispConCfgUEn | ispConISPEn
	if err := i.t.WriteU32(fmcISPCon, stat); err != nil {
		return err
	}

	return i.t.WriteU32(fmcCheat, 1)
}

// Command issues a single ISP command and waits for the trigger bit to
// self-clear. The returned word is the ISPDAT register content, meaningful
// for the read commands and ignored by callers of write-only ones.
func (i *ISP) Command(cmd, addr, wdata uint32) (uint32, error) {
	if err := i.t.WriteU32(fmcISPCmd, cmd); err != nil {
		return 0, err
	}
	if err := i.t.WriteU32(fmcISPDat, wdata); err != nil {
		return 0, err
	}
	if err := i.t.WriteU32(fmcISPAdr, addr); err != nil {
		return 0, err
	}
	/* the trigger write launches the operation, so it must come last */
	if err := i.t.WriteU32(fmcISPTrg, ispTrgGo); err != nil {
		return 0, err
	}

	err := pollUntil(func() (uint32, error) {
		return i.t.ReadU32(fmcISPTrg)
	}, func(status uint32) bool {
		return status&ispTrgGo == 0
	}, pollIterations, pollInterval)
	if err != nil {
		return 0, err
	}

	return i.t.ReadU32(fmcISPDat)
}

// checkFailFlag reads the sticky ISP fail flag and clears it when set. The
// flag signals that the last flash operation was refused by the hardware,
// but clearing it does not fail the surrounding call.
func (i *ISP) checkFailFlag() error {
	status, err := i.t.ReadU32(fmcISPCon)
	if err != nil {
		return err
	}
	if status&ispConISPFF != 0 {
		i.logf(2, "ISP fail flag set: 0x%08x, clearing it", status)
		/* write one to the flag bit to clear it */
		return i.t.WriteU32(fmcISPCon, status|ispConISPFF)
	}
	return nil
}
