package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fanoush/openocd/dap"
	"github.com/fanoush/openocd/numicro"
	"github.com/sstallion/go-hid"
)

type Context struct {
	probe *dap.Probe
	bank  *numicro.Bank
	isp   *numicro.ISP
}

var CLI struct {
	VID      int    `optional type:"hex" help:"The USB Vendor ID of the probe."`
	PID      int    `optional type:"hex" help:"The USB Product ID of the probe."`
	Serial   string `optional help:"The USB serial of the probe."`
	LogLevel int    `optional help:"Higher values give more output."`

	BankBase     int `optional type:"hex" help:"Flash bank base address." default:"0"`
	WorkAreaBase int `optional type:"hex" help:"Target RAM usable as working area." default:"20000000"`
	WorkAreaSize int `optional type:"hex" help:"Working area size in bytes." default:"4000"`
	Clock        int `optional help:"SWD clock in Hz." default:"1000000"`

	ListDev ListDevCmd `cmd name:"list-dev" help:"List CMSIS-DAP probes."`

	Probe        ProbeCmd        `cmd help:"Identify the device and report flash geometry."`
	Info         InfoCmd         `cmd help:"Read company/device/unique IDs through ISP."`
	Erase        EraseCmd        `cmd help:"Erase a range of flash sectors."`
	WriteFile    WriteFileCmd    `cmd name:"write-file" help:"Program a file into flash."`
	ProtectCheck ProtectCheckCmd `cmd name:"protect-check" help:"Report the flash secure-lock state."`

	Read      ReadCmd      `cmd help:"Read and dump target memory."`
	ReadISP   ReadISPCmd   `cmd name:"read-isp" help:"Read flash through ISP."`
	WriteISP  WriteISPCmd  `cmd name:"write-isp" help:"Write flash through ISP."`
	ChipErase ChipEraseCmd `cmd name:"chip-erase" help:"Chip erase through ISP."`
}

func logFunc(level int, format string, param ...interface{}) {
	if level > CLI.LogLevel {
		return
	}
	str := fmt.Sprintf(format, param...)
	fmt.Printf("ISP(%d): %s\n", level, str)
}

func main() {
	k, err := kong.New(&CLI,
		kong.NamedMapper("int", intMapper{}),
		kong.NamedMapper("hex", intMapper{base: 16}))
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, err := k.Parse(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		return
	}

	hid.Init()
	defer hid.Exit()

	c := &Context{}
	if ctx.Command() != "list-dev" {
		probe, err := OpenProbe()
		if err != nil {
			fmt.Println("Failed to open probe", err)
			return
		}
		defer probe.Close()

		/* ISP traffic needs a stopped CPU */
		if err := probe.Halt(); err != nil {
			fmt.Println("Failed to halt target", err)
			return
		}

		c.probe = probe
		c.bank = numicro.NewBank(probe, uint32(CLI.BankBase), numicro.Config{
			LogFunc: logFunc,
		})
		c.isp = c.bank.ISP()
	}

	err = ctx.Run(c)
	ctx.FatalIfErrorf(err)
}
