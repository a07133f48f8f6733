// Package dap implements a CMSIS-DAP debug probe speaking SWD over USB HID.
// It exposes the connected Cortex-M device through the target.Target
// interface: raw memory access, halt state, working areas and on-target
// algorithm execution.
package dap

import (
	"encoding/binary"
	"strings"

	"github.com/fanoush/openocd/target"
	"github.com/sstallion/go-hid"
)

type LogFunc func(level int, format string, param ...interface{})

type Config struct {
	// Clock is the SWD clock in Hz. 0 selects 1 MHz.
	Clock uint32

	// WorkAreaBase and WorkAreaSize describe the target RAM range that may
	// be used for flash algorithm code and staging buffers.
	WorkAreaBase uint32
	WorkAreaSize uint32

	LogFunc LogFunc
}

// Probe is one open CMSIS-DAP device with an active SWD connection.
// It implements target.Target.
type Probe struct {
	dev        *hid.Device
	config     Config
	packetSize int

	areas []*target.WorkingArea
}

// CMSIS-DAP commands.
const (
	cmdInfo              = 0x00
	cmdConnect           = 0x02
	cmdDisconnect        = 0x03
	cmdTransferConfigure = 0x04
	cmdTransfer          = 0x05
	cmdTransferBlock     = 0x06
	cmdSWJClock          = 0x11
	cmdSWJSequence       = 0x12

	infoPacketSize = 0xFF
	connectSWD     = 0x01
	dapOK          = 0x00
)

// Enumerate visits every HID interface that identifies itself as a
// CMSIS-DAP probe.
func Enumerate(vid, pid uint16, found func(info *hid.DeviceInfo) error) error {
	return hid.Enumerate(vid, pid, func(info *hid.DeviceInfo) error {
		if !strings.Contains(info.ProductStr, "CMSIS-DAP") {
			return nil
		}
		return found(info)
	})
}

// Open opens the probe and brings up the SWD link.
func Open(vid, pid uint16, serial string, config Config) (*Probe, error) {
	if config.Clock == 0 {
		config.Clock = 1000000
	}

	dev, err := hid.Open(vid, pid, serial)
	if err != nil {
		return nil, err
	}

	p := &Probe{
		dev:        dev,
		config:     config,
		packetSize: 64,
	}

	if err := p.connect(); err != nil {
		dev.Close()
		return nil, err
	}

	return p, nil
}

func (p *Probe) Close() error {
	p.command([]byte{cmdDisconnect})
	return p.dev.Close()
}

func (p *Probe) logf(level int, format string, param ...interface{}) {
	if p.config.LogFunc != nil {
		p.config.LogFunc(level, format, param...)
	}
}

// command sends one DAP command packet and returns the response payload
// starting at the echoed command byte.
func (p *Probe) command(req []byte) ([]byte, error) {
	out := make([]byte, p.packetSize+1)
	out[0] = 0 /* report ID */
	copy(out[1:], req)

	if _, err := p.dev.Write(out); err != nil {
		return nil, err
	}

	in := make([]byte, p.packetSize)
	n, err := p.dev.Read(in)
	if err != nil {
		return nil, err
	}

	if n < 1 || in[0] != req[0] {
		return nil, ErrorInvalidResponse
	}
	return in[:n], nil
}

func (p *Probe) connect() error {
	/* learn the real packet size first, using the conservative default */
	resp, err := p.command([]byte{cmdInfo, infoPacketSize})
	if err != nil {
		return err
	}
	if len(resp) >= 4 && resp[1] == 2 {
		if size := int(binary.LittleEndian.Uint16(resp[2:])); size >= 8 {
			p.packetSize = size
		}
	}
	p.logf(3, "probe packet size: %d", p.packetSize)

	resp, err = p.command([]byte{cmdConnect, connectSWD})
	if err != nil {
		return err
	}
	if len(resp) < 2 || resp[1] != connectSWD {
		return ErrorConnectFailed
	}

	clock := make([]byte, 5)
	clock[0] = cmdSWJClock
	binary.LittleEndian.PutUint32(clock[1:], p.config.Clock)
	if _, err := p.command(clock); err != nil {
		return err
	}

	/* no idle cycles, generous WAIT retry, no value matching */
	if _, err := p.command([]byte{cmdTransferConfigure, 0x00, 0x40, 0x00, 0x00, 0x00}); err != nil {
		return err
	}

	if err := p.lineReset(); err != nil {
		return err
	}

	return p.initDebugPort()
}

// lineReset drives the SWD line reset plus JTAG-to-SWD switch sequence and
// leaves the line idle.
func (p *Probe) lineReset() error {
	seq := []byte{
		cmdSWJSequence, 136,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, /* 56 ones */
		0x9E, 0xE7, /* JTAG-to-SWD select */
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, /* 56 ones */
		0x00, /* idle */
	}
	resp, err := p.command(seq)
	if err != nil {
		return err
	}
	if len(resp) < 2 || resp[1] != dapOK {
		return ErrorConnectFailed
	}
	return nil
}
