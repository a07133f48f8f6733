package numicro

// Region is one flash region of a part: APROM, DataFlash, LDROM or the
// user configuration words. A DataFlash size of zero means the actual size
// depends on the configuration settings rather than being fixed.
type Region struct {
	Base uint32
	Size uint32
}

// Part maps a hardware part ID to the flash layout of that device.
type Part struct {
	Name    string
	ID      uint32
	Regions [4]Region
}

// RegionForBase returns the size of the region whose base address matches
// base, or ErrorUnknownRegion if the part has no region there.
func (p *Part) RegionForBase(base uint32) (uint32, error) {
	for _, r := range p.Regions {
		if r.Base == base {
			return r.Size, nil
		}
	}
	return 0, ErrorUnknownRegion
}

func banksGeneral(apromSize, dataSize, ldromSize, configSize uint32) [4]Region {
	return [4]Region{
		{APROMBase, apromSize},
		{DataBase, dataSize},
		{LDROMBase, ldromSize},
		{ConfigBase, configSize},
	}
}

// PartByID scans the part table for an exact ID match, first match wins.
// The UNKNOWN entry at the end only matches an ID of zero.
func PartByID(id uint32) (*Part, error) {
	for i := range parts {
		if parts[i].ID == id {
			return &parts[i], nil
		}
	}
	return nil, ErrorUnknownDevice
}

var parts = []Part{

	// M051AN
	{"M052LAN", 0x00005200, banksGeneral(8 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M054LAN", 0x00005400, banksGeneral(16 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M058LAN", 0x00005800, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M0516LAN", 0x00005A00, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M052ZAN", 0x00005203, banksGeneral(8 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M054ZAN", 0x00005403, banksGeneral(16 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M058ZAN", 0x00005803, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M0516ZAN", 0x00005A03, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},

	// M051BN
	{"M052LBN", 0x10005200, banksGeneral(8 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M054LBN", 0x10005400, banksGeneral(16 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M058LBN", 0x10005800, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M0516LBN", 0x10005A00, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M052ZBN", 0x10005203, banksGeneral(8 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M054ZBN", 0x10005403, banksGeneral(16 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M058ZBN", 0x10005803, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M0516ZBN", 0x10005A03, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},

	// M051DN
	{"M0516LDN", 0x20005A00, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M0516ZDN", 0x20005A03, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M052LDN", 0x20005200, banksGeneral(8 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M052ZDN", 0x20005203, banksGeneral(8 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M054LDN", 0x20005400, banksGeneral(16 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M054ZDN", 0x20005403, banksGeneral(16 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M058LDN", 0x20005800, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M058ZDN", 0x20005803, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},

	// M051DE
	{"M0516LDE", 0x30005A00, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M0516ZDE", 0x30005A03, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M052LDE", 0x30005200, banksGeneral(8 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M052ZDE", 0x30005203, banksGeneral(8 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M054LDE", 0x30005400, banksGeneral(16 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M054ZDE", 0x30005403, banksGeneral(16 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M058LDE", 0x30005800, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"M058ZDE", 0x30005803, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},

	// M0518
	{"M0518LC2AE", 0x10051803, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"M0518LD2AE", 0x10051800, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"M0518SC2AE", 0x10051813, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"M0518SD2AE", 0x10051810, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},

	// M0519
	{"M0519LD3AE", 0x00051902, banksGeneral(64 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"M0519LE3AE", 0x00051900, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},
	{"M0519SD3AE", 0x00051922, banksGeneral(64 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"M0519SE3AE", 0x00051920, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},
	{"M0519VE3AE", 0x00051930, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},

	// M058S
	{"M058SFAN", 0x00005818, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"M058SLAN", 0x00005810, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"M058SSAN", 0x00005816, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"M058SZAN", 0x00005813, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},

	// MINI51AN
	{"MINI51LAN", 0x00205100, banksGeneral(4 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI51TAN", 0x00205104, banksGeneral(4 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI51ZAN", 0x00205103, banksGeneral(4 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI52LAN", 0x00205200, banksGeneral(8 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI52TAN", 0x00205204, banksGeneral(8 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI52ZAN", 0x00205203, banksGeneral(8 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI54LAN", 0x00205400, banksGeneral(16 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI54TAN", 0x00205404, banksGeneral(16 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI54ZAN", 0x00205403, banksGeneral(16 * 1024, 0 * 1024, 2 * 1024, 8)},

	// MINI51DE
	{"MINI51FDE", 0x20205105, banksGeneral(4 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI51LDE", 0x20205100, banksGeneral(4 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI51TDE", 0x20205104, banksGeneral(4 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI51ZDE", 0x20205103, banksGeneral(4 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI52FDE", 0x20205205, banksGeneral(8 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI52LDE", 0x20205200, banksGeneral(8 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI52TDE", 0x20205204, banksGeneral(8 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI52ZDE", 0x20205203, banksGeneral(8 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI54FDE", 0x20205405, banksGeneral(16 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI54LDE", 0x20205400, banksGeneral(16 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI54TDE", 0x20205404, banksGeneral(16 * 1024, 0 * 1024, 2 * 1024, 8)},
	{"MINI54ZDE", 0x20205403, banksGeneral(16 * 1024, 0 * 1024, 2 * 1024, 8)},

	// MINI55
	{"MINI55LDE", 0x00505500, banksGeneral(35 * 512, 0 * 1024, 2 * 1024, 8)},
	{"MINI55ZDE", 0x00505503, banksGeneral(35 * 512, 0 * 1024, 2 * 1024, 8)},

	// MINI58
	{"MINI58FDE", 0x00A05805, banksGeneral(32 * 1024, 0 * 1024, 5 * 512, 8)},
	{"MINI58LDE", 0x00A05800, banksGeneral(32 * 1024, 0 * 1024, 5 * 512, 8)},
	{"MINI58TDE", 0x00A05804, banksGeneral(32 * 1024, 0 * 1024, 5 * 512, 8)},
	{"MINI58ZDE", 0x00A05803, banksGeneral(32 * 1024, 0 * 1024, 5 * 512, 8)},

	// NANO100AN
	{"NANO100LC2AN", 0x00110025, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100LD2AN", 0x00110019, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100LD3AN", 0x00110018, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100SC2AN", 0x00110023, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100SD2AN", 0x00110016, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100SD3AN", 0x00110015, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100VD2AN", 0x00110013, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100VD3AN", 0x00110012, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100ZC2AN", 0x00110029, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100ZD2AN", 0x00110028, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100ZD3AN", 0x00110027, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120LC2AN", 0x00112025, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120LD2AN", 0x00112019, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120LD3AN", 0x00112018, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120SC2AN", 0x00112023, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120SD2AN", 0x00112016, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120SD3AN", 0x00112015, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120VD2AN", 0x00112013, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120VD3AN", 0x00112012, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120ZC2AN", 0x00112029, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120ZD2AN", 0x00112028, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120ZD3AN", 0x00112027, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},

	// NANO100BN
	{"NANO100KC2BN", 0x00110040, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100KD2BN", 0x00110039, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100KD3BN", 0x00110038, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100KE3BN", 0x00110030, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100LC2BN", 0x00110043, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100LD2BN", 0x0011003F, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100LD3BN", 0x0011003E, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100LE3BN", 0x00110036, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100ND2BN", 0x00110046, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100ND3BN", 0x00110045, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100NE3BN", 0x00110044, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100SC2BN", 0x00110042, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100SD2BN", 0x0011003D, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100SD3BN", 0x0011003C, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO100SE3BN", 0x00110034, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110KC2BN", 0x00111040, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110KD2BN", 0x00111039, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110KD3BN", 0x00111038, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110KE3BN", 0x00111030, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110RC2BN", 0x00111043, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110RD2BN", 0x00111044, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110RD3BN", 0x00111045, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110SC2BN", 0x00111042, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110SD2BN", 0x0011103D, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110SD3BN", 0x0011103C, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO110SE3BN", 0x00111034, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120KC2BN", 0x00112040, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120KD2BN", 0x00112039, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120KD3BN", 0x00112038, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120KE3BN", 0x00112030, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120LC2BN", 0x00112043, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120LD2BN", 0x0011203F, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120LD3BN", 0x0011203E, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120LE3BN", 0x00112036, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120SC2BN", 0x00112042, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120SD2BN", 0x0011203D, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120SD3BN", 0x0011203C, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO120SE3BN", 0x00112034, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO130KC2BN", 0x00113040, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO130KD2BN", 0x00113039, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO130KD3BN", 0x00113038, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO130KE3BN", 0x00113030, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO130SC2BN", 0x00113042, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO130SD2BN", 0x0011303D, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO130SD3BN", 0x0011303C, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO130SE3BN", 0x00113034, banksGeneral(123 * 1024, 0 * 1024, 4 * 1024, 8)},

	// NANO103
	{"NANO103SD3AE", 0x00110301, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO103LD3AE", 0x00110304, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO103ZD3AE", 0x00110307, banksGeneral(64 * 1024, 0 * 1024, 4 * 1024, 8)},

	// NANO112AN
	{"NANO102LB1AN", 0x00110206, banksGeneral(16 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO102LC2AN", 0x00110208, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO102SC2AN", 0x00110212, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO102ZB1AN", 0x00110202, banksGeneral(16 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO102ZC2AN", 0x00110204, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO112LB1AN", 0x00111202, banksGeneral(16 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO112LC2AN", 0x00111204, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO112RB1AN", 0x00111210, banksGeneral(16 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO112RC2AN", 0x00111212, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO112SB1AN", 0x00111206, banksGeneral(16 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO112SC2AN", 0x00111208, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NANO112VC2AN", 0x00111216, banksGeneral(32 * 1024, 0 * 1024, 4 * 1024, 8)},

	// NUC029AN
	{"NUC029LAN", 0x00295A00, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 4)},
	{"NUC029TAN", 0x00295804, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 4)},

	// NUC029AE
	{"NUC029FAE", 0x00295415, banksGeneral(16 * 1024, 0 * 1024, 2 * 1024, 8)},

	// NUC100AN
	{"NUC100LD3AN", 0x00010003, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100LE3AN", 0x00010000, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC100RD3AN", 0x00010012, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100RE3AN", 0x00010009, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC100VD2AN", 0x00010022, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100VD3AN", 0x00010021, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100VE3AN", 0x00100018, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC120LD3AN", 0x00012003, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120LE3AN", 0x00120000, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC120RD3AN", 0x00012012, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120RE3AN", 0x00012009, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC120VD2AN", 0x00012022, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120VD3AN", 0x00012021, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120VE3AN", 0x00012018, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},

	// NUC100BN
	{"NUC100LC1BN", 0x10010008, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100LD1BN", 0x10010005, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100LD2BN", 0x10010004, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100RC1BN", 0x10010017, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100RD1BN", 0x10010014, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100RD2BN", 0x10010013, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120LC1BN", 0x10012008, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120LD1BN", 0x10012005, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120LD2BN", 0x10012004, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120RC1BN", 0x10012017, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120RD1BN", 0x10012014, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120RD2BN", 0x10012013, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},

	// NUC100CN
	{"NUC130LC1CN", 0x20013008, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC130LD2CN", 0x20013004, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC130LE3CN", 0x20013000, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC130RC1CN", 0x20013017, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC130RD2CN", 0x20013013, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC130RE3CN", 0x20013009, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC130VE3CN", 0x20013018, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC140LC1CN", 0x20014008, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC140LD2CN", 0x20014004, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC140LE3CN", 0x20014000, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC140RC1CN", 0x20014017, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC140RD2CN", 0x20014013, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC140RE3CN", 0x20014009, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC140VE3CN", 0x20014018, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},

	// NUC100DN
	{"NUC100LC1DN", 0x30010008, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100LD1DN", 0x30010005, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100LD2DN", 0x30010004, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100LD3DN", 0x30010003, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100LE3DN", 0x30010000, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC100RC1DN", 0x30010017, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100RD1DN", 0x30010014, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100RD2DN", 0x30010013, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100RD3DN", 0x30010012, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100RE3DN", 0x30010009, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC100VD2DN", 0x30010022, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100VD3DN", 0x30010021, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC100VE3DN", 0x30010018, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC120LC1DN", 0x30012008, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120LD1DN", 0x30012005, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120LD2DN", 0x30012004, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120LD3DN", 0x30012003, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120LE3DN", 0x30012000, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC120RC1DN", 0x30012035, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120RD1DN", 0x30012032, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120RD2DN", 0x30012031, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120RD3DN", 0x30012030, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120RE3DN", 0x30012027, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC120VD2DN", 0x30012022, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120VD3DN", 0x30012021, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC120VE3DN", 0x30012018, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},

	// NUC121
	{"NUC121SC2AE", 0x00012105, banksGeneral(32 * 1024, 0 * 1024, 9 * 512, 8)},
	{"NUC121LC2AE", 0x00012125, banksGeneral(32 * 1024, 0 * 1024, 9 * 512, 8)},
	{"NUC121ZC2AE", 0x00012145, banksGeneral(32 * 1024, 0 * 1024, 9 * 512, 8)},
	{"NUC125SC2AE", 0x00012505, banksGeneral(32 * 1024, 0 * 1024, 9 * 512, 8)},
	{"NUC125LC2AE", 0x00012525, banksGeneral(32 * 1024, 0 * 1024, 9 * 512, 8)},
	{"NUC125ZC2AE", 0x00012545, banksGeneral(32 * 1024, 0 * 1024, 9 * 512, 8)},

	// NUC122
	{"NUC122LC1AN", 0x00012208, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC122LD2AN", 0x00012204, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC122SC1AN", 0x00012226, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC122SD2AN", 0x00012222, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC122ZC1AN", 0x00012235, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC122ZD2AN", 0x00012231, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},

	// NUC123AN
	{"NUC123LC2AN1", 0x00012325, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123LD4AN0", 0x00012335, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123SC2AN1", 0x00012305, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123SD4AN0", 0x00012315, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123ZC2AN1", 0x00012345, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123ZD4AN0", 0x00012355, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},

	// NUC123AE
	{"NUC123LC2AE1", 0x10012325, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123LD4AE0", 0x10012335, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123SC2AE1", 0x10012305, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123SD4AE0", 0x10012315, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123ZC2AE1", 0x10012345, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC123ZD4AE0", 0x10012355, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},

	// NUC131AE
	{"NUC131LC2AE", 0x10013103, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC131LD2AE", 0x10013100, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC131SC2AE", 0x10013113, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC131SD2AE", 0x10013110, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},

	// NUC200/220AN
	{"NUC200LC2AN", 0x00020007, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC200LD2AN", 0x00020004, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC200LE3AN", 0x00020000, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC200SC2AN", 0x00020034, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC200SD2AN", 0x00020031, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC200SE3AN", 0x00020027, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC200VE3AN", 0x00020018, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC220LC2AN", 0x00022007, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC220LD2AN", 0x00022004, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC220LE3AN", 0x00022000, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC220SC2AN", 0x00022034, banksGeneral(32 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC220SD2AN", 0x00022031, banksGeneral(64 * 1024, 4 * 1024, 4 * 1024, 8)},
	{"NUC220SE3AN", 0x00022027, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},
	{"NUC220VE3AN", 0x00022018, banksGeneral(128 * 1024, 0 * 1024, 4 * 1024, 8)},

	// NUC230/240AE
	{"NUC230LC2AE", 0x10023007, banksGeneral(32 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"NUC230LD2AE", 0x10023004, banksGeneral(64 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"NUC230LE3AE", 0x10023000, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},
	{"NUC230SC2AE", 0x10023034, banksGeneral(32 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"NUC230SD2AE", 0x10023031, banksGeneral(64 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"NUC230SE3AE", 0x10023027, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},
	{"NUC230VE3AE", 0x10023018, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},
	{"NUC240LC2AE", 0x10024007, banksGeneral(32 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"NUC240LD2AE", 0x10024004, banksGeneral(64 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"NUC240LE3AE", 0x10024000, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},
	{"NUC240SC2AE", 0x10024034, banksGeneral(32 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"NUC240SD2AE", 0x10024031, banksGeneral(64 * 1024, 4 * 1024, 8 * 1024, 8)},
	{"NUC240SE3AE", 0x10024027, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},
	{"NUC240VE3AE", 0x10024018, banksGeneral(128 * 1024, 0 * 1024, 8 * 1024, 8)},
	{"UNKNOWN", 0x00000000, banksGeneral(128 * 1024, 0 * 1024, 16 * 1024, 8)},
}
