package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sigurn/crc16"

	"github.com/fanoush/openocd/numicro"
)

type ProbeCmd struct {
}

func (p *ProbeCmd) Run(c *Context) error {
	if err := c.bank.Probe(); err != nil {
		return err
	}

	part := c.bank.Part()
	fmt.Printf("Device:  %s (ID 0x%08x)\n", part.Name, part.ID)
	fmt.Printf("Bank:    base 0x%08x, size %d bytes, %d sectors of %d bytes\n",
		c.bank.Base(), c.bank.Size(), len(c.bank.Sectors()), numicro.SectorSize)

	fmt.Println("Regions:")
	for _, r := range part.Regions {
		size := fmt.Sprintf("%d", r.Size)
		if r.Size == 0 {
			size = "config dependent"
		}
		fmt.Printf("  base 0x%08x  size %s\n", r.Base, size)
	}
	return nil
}

type InfoCmd struct {
}

func (i *InfoCmd) Run(c *Context) error {
	part, err := numicro.Identify(c.probe)
	if err != nil {
		return err
	}
	fmt.Printf("Device:     %s (ID 0x%08x)\n", part.Name, part.ID)

	if err := c.isp.Init(); err != nil {
		return err
	}

	cid, err := c.isp.Command(numicro.CmdReadCID, 0, 0)
	if err != nil {
		return err
	}
	did, err := c.isp.Command(numicro.CmdReadDID, 0, 0)
	if err != nil {
		return err
	}
	fmt.Printf("Company ID: 0x%08x\n", cid)
	fmt.Printf("Device ID:  0x%08x\n", did)

	fmt.Printf("Unique ID: ")
	for n := uint32(0); n < 3; n++ {
		uid, err := c.isp.Command(numicro.CmdReadUID, n*4, 0)
		if err != nil {
			return err
		}
		fmt.Printf(" %08x", uid)
	}
	fmt.Println()
	return nil
}

type EraseCmd struct {
	First int `arg help:"First sector to erase."`
	Last  int `arg help:"Last sector to erase (inclusive)."`
}

func (e *EraseCmd) Run(c *Context) error {
	if err := c.bank.AutoProbe(); err != nil {
		return err
	}
	if err := c.bank.Erase(e.First, e.Last); err != nil {
		return err
	}
	fmt.Printf("Erased sectors %d to %d.\n", e.First, e.Last)
	return nil
}

type WriteFileCmd struct {
	Offset   int    `arg type:"hex" help:"Destination offset inside the bank."`
	Filename string `arg help:"File to program."`

	Erase  bool `optional help:"Erase the covered sectors first."`
	Verify bool `optional help:"Read back and verify the written data."`
}

func (w *WriteFileCmd) Run(c *Context) error {
	data, err := os.ReadFile(w.Filename)
	if err != nil {
		return err
	}

	/* the ISP programs whole words, pad with the erased value */
	for len(data)%4 != 0 {
		data = append(data, 0xFF)
	}

	if err := c.bank.AutoProbe(); err != nil {
		return err
	}

	offset := uint32(w.Offset)

	if w.Erase {
		first := int(offset) / numicro.SectorSize
		last := (int(offset) + len(data) - 1) / numicro.SectorSize
		if err := c.bank.Erase(first, last); err != nil {
			return err
		}
	}

	if err := c.bank.Write(offset, data); err != nil {
		return err
	}
	fmt.Printf("Wrote %d bytes at 0x%08x.\n", len(data), c.bank.Base()+offset)

	if w.Verify {
		readback := make([]byte, len(data))
		if err := c.probe.ReadMemory(c.bank.Base()+offset, readback); err != nil {
			return err
		}

		crcTab := crc16.MakeTable(crc16.CRC16_XMODEM)
		want := crc16.Update(0, data, crcTab)
		got := crc16.Update(0, readback, crcTab)
		if want != got {
			color.Red("Verification FAILED: CRC %04x != %04x", got, want)
			return fmt.Errorf("flash contents do not match %s", w.Filename)
		}
		color.Green("Verification OK (CRC %04x).", got)
	}

	return nil
}

type ProtectCheckCmd struct {
}

func (p *ProtectCheckCmd) Run(c *Context) error {
	if err := c.bank.AutoProbe(); err != nil {
		return err
	}
	if err := c.bank.ProtectCheck(); err != nil {
		return err
	}

	sectors := c.bank.Sectors()
	if len(sectors) > 0 && sectors[0].Protected {
		color.Red("Flash is secure locked. Run chip-erase to unlock it.")
	} else {
		color.Green("Flash is not locked.")
	}
	return nil
}
