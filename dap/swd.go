package dap

import (
	"encoding/binary"
)

// SWD transfer request bits.
const (
	reqAPnDP = 0x01
	reqRnW   = 0x02

	ackOK = 0x01
)

// Debug port registers.
const (
	dpAbort    = 0x00
	dpCtrlStat = 0x04
	dpSelect   = 0x08
)

// MEM-AP registers, all in bank 0.
const (
	apCSW = 0x00
	apTAR = 0x04
	apDRW = 0x0C
)

const (
	abortClearStickies = 0x0000001E

	ctrlStatPowerReq = 0x50000000 /* CSYSPWRUPREQ | CDBGPWRUPREQ */
	ctrlStatPowerAck = 0xA0000000 /* CSYSPWRUPACK | CDBGPWRUPACK */

	/* basic mode, 32-bit accesses, auto increment single */
	cswWordAutoInc = 0x23000052

	/* TAR auto increment wraps at 1 KiB boundaries */
	autoIncBoundary = 0x400
)

func dpRead(reg byte) byte  { return reqRnW | reg&0x0C }
func dpWrite(reg byte) byte { return reg & 0x0C }
func apRead(reg byte) byte  { return reqAPnDP | reqRnW | reg&0x0C }
func apWrite(reg byte) byte { return reqAPnDP | reg&0x0C }

type xfer struct {
	req   byte
	value uint32 /* ignored for reads */
}

// transferSeq runs a sequence of register transfers in one DAP_Transfer
// command and returns the values of the read transfers in order.
func (p *Probe) transferSeq(seq []xfer) ([]uint32, error) {
	cmd := []byte{cmdTransfer, 0x00, byte(len(seq))}
	for _, x := range seq {
		cmd = append(cmd, x.req)
		if x.req&reqRnW == 0 {
			cmd = binary.LittleEndian.AppendUint32(cmd, x.value)
		}
	}

	resp, err := p.command(cmd)
	if err != nil {
		return nil, err
	}
	if len(resp) < 3 {
		return nil, ErrorInvalidResponse
	}
	if int(resp[1]) != len(seq) || resp[2]&0x07 != ackOK {
		p.logf(2, "transfer failed: count %d ack 0x%02x", resp[1], resp[2])
		return nil, ErrorTransferFault
	}

	var values []uint32
	data := resp[3:]
	for _, x := range seq {
		if x.req&reqRnW == 0 {
			continue
		}
		if len(data) < 4 {
			return nil, ErrorInvalidResponse
		}
		values = append(values, binary.LittleEndian.Uint32(data))
		data = data[4:]
	}
	return values, nil
}

func (p *Probe) dpReadReg(reg byte) (uint32, error) {
	values, err := p.transferSeq([]xfer{{req: dpRead(reg)}})
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

func (p *Probe) dpWriteReg(reg byte, value uint32) error {
	_, err := p.transferSeq([]xfer{{req: dpWrite(reg), value: value}})
	return err
}

// initDebugPort powers up the debug domain and configures the MEM-AP for
// word accesses.
func (p *Probe) initDebugPort() error {
	idcode, err := p.dpReadReg(0x00)
	if err != nil {
		return err
	}
	p.logf(2, "DP IDCODE: 0x%08x", idcode)

	if err := p.dpWriteReg(dpAbort, abortClearStickies); err != nil {
		return err
	}
	if err := p.dpWriteReg(dpSelect, 0); err != nil {
		return err
	}
	if err := p.dpWriteReg(dpCtrlStat, ctrlStatPowerReq); err != nil {
		return err
	}

	for n := 0; ; n++ {
		stat, err := p.dpReadReg(dpCtrlStat)
		if err != nil {
			return err
		}
		if stat&ctrlStatPowerAck == ctrlStatPowerAck {
			break
		}
		if n >= 100 {
			return ErrorConnectFailed
		}
	}

	_, err = p.transferSeq([]xfer{{req: apWrite(apCSW), value: cswWordAutoInc}})
	return err
}

// ReadU32 reads one word from the target address space.
func (p *Probe) ReadU32(addr uint32) (uint32, error) {
	values, err := p.transferSeq([]xfer{
		{req: apWrite(apTAR), value: addr},
		{req: apRead(apDRW)},
	})
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// WriteU32 writes one word to the target address space.
func (p *Probe) WriteU32(addr uint32, value uint32) error {
	_, err := p.transferSeq([]xfer{
		{req: apWrite(apTAR), value: addr},
		{req: apWrite(apDRW), value: value},
	})
	return err
}

// chunkWords limits a block transfer so it stays inside one DAP packet and
// does not cross a TAR auto-increment boundary.
func (p *Probe) chunkWords(addr uint32, words, overhead int) int {
	max := (p.packetSize - overhead) / 4
	if words > max {
		words = max
	}
	if boundary := int(autoIncBoundary - addr%autoIncBoundary); words*4 > boundary {
		words = boundary / 4
	}
	return words
}

// ReadMemory reads len(buf) bytes from the target. Address and length must
// be word aligned.
func (p *Probe) ReadMemory(addr uint32, buf []byte) error {
	if addr%4 != 0 || len(buf)%4 != 0 {
		return ErrorUnaligned
	}

	for len(buf) > 0 {
		words := p.chunkWords(addr, len(buf)/4, 4)

		if _, err := p.transferSeq([]xfer{{req: apWrite(apTAR), value: addr}}); err != nil {
			return err
		}

		cmd := []byte{cmdTransferBlock, 0x00}
		cmd = binary.LittleEndian.AppendUint16(cmd, uint16(words))
		cmd = append(cmd, apRead(apDRW))

		resp, err := p.command(cmd)
		if err != nil {
			return err
		}
		if len(resp) < 4+words*4 || resp[3]&0x07 != ackOK {
			return ErrorTransferFault
		}
		copy(buf, resp[4:4+words*4])

		buf = buf[words*4:]
		addr += uint32(words * 4)
	}
	return nil
}

// WriteMemory writes buf to the target. Address and length must be word
// aligned.
func (p *Probe) WriteMemory(addr uint32, buf []byte) error {
	if addr%4 != 0 || len(buf)%4 != 0 {
		return ErrorUnaligned
	}

	for len(buf) > 0 {
		words := p.chunkWords(addr, len(buf)/4, 5)

		if _, err := p.transferSeq([]xfer{{req: apWrite(apTAR), value: addr}}); err != nil {
			return err
		}

		cmd := []byte{cmdTransferBlock, 0x00}
		cmd = binary.LittleEndian.AppendUint16(cmd, uint16(words))
		cmd = append(cmd, apWrite(apDRW))
		cmd = append(cmd, buf[:words*4]...)

		resp, err := p.command(cmd)
		if err != nil {
			return err
		}
		if len(resp) < 4 || resp[3]&0x07 != ackOK {
			return ErrorTransferFault
		}

		buf = buf[words*4:]
		addr += uint32(words * 4)
	}
	return nil
}
