package numicro

// NuMicro register locations. These are identical across the whole M051,
// MINI51, NANO1xx, NUC1xx and NUC2xx families handled here.
const (
	sysBase   = 0x50000000
	sysWRProt = 0x50000100

	clkAHBClk = 0x50000204

	fmcISPCon = 0x5000C000
	fmcISPAdr = 0x5000C004
	fmcISPDat = 0x5000C008
	fmcISPCmd = 0x5000C00C
	fmcISPTrg = 0x5000C010
	fmcCheat  = 0x5000C01C /* undocumented, needed for reliable ISP on some parts */

	config0Addr = 0x5000C000
	config1Addr = 0x5000C004
)

// Flash region base addresses used by the part table.
const (
	APROMBase  = 0x00000000
	DataBase   = 0x0001F000
	LDROMBase  = 0x00100000
	ConfigBase = 0x00300000
)

const (
	ahbClkISPEn  = 1 << 2
	ahbClkSRAMEn = 1 << 4
	ahbClkTickEn = 1 << 5

	ispConISPEn  = 1 << 0
	ispConBS     = 1 << 1
	ispConAPUEn  = 1 << 3
	ispConCfgUEn = 1 << 4
	ispConLDUEn  = 1 << 5
	ispConISPFF  = 1 << 6

	ispTrgGo = 1 << 0

	config0LockMask = 1 << 1
	config0CBSMask  = 1 << 7
)

// ISP command codes, written to ISPCMD before triggering an operation.
const (
	CmdRead      = 0x00
	CmdProgram   = 0x21
	CmdPageErase = 0x22
	CmdChipErase = 0x26 /* undocumented */
	CmdReadUID   = 0x04
	CmdReadCID   = 0x0B
	CmdReadDID   = 0x0C
	CmdVecMap    = 0x2E
)

// Register write-protect unlock key sequence.
const (
	regKey1 = 0x59
	regKey2 = 0x16
	regKey3 = 0x88
)

// SectorSize is the flash page size, fixed across the family.
const SectorSize = 512
