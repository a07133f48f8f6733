package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fanoush/openocd/dap"
	"github.com/sstallion/go-hid"
)

func SearchProbe(foundHandler func(info *hid.DeviceInfo) error) error {
	return dap.Enumerate(uint16(CLI.VID), uint16(CLI.PID), func(info *hid.DeviceInfo) error {
		if CLI.Serial != "" && info.SerialNbr != CLI.Serial {
			return nil
		}
		return foundHandler(info)
	})
}

func OpenProbe() (*dap.Probe, error) {
	config := dap.Config{
		Clock:        uint32(CLI.Clock),
		WorkAreaBase: uint32(CLI.WorkAreaBase),
		WorkAreaSize: uint32(CLI.WorkAreaSize),
		LogFunc:      logFunc,
	}

	var probe *dap.Probe
	err := SearchProbe(func(info *hid.DeviceInfo) error {
		p, err := dap.Open(info.VendorID, info.ProductID, info.SerialNbr, config)
		if err == nil {
			probe = p
			return errors.New("Done")
		}
		return err
	})
	if probe != nil {
		return probe, nil
	}
	if err == nil {
		err = os.ErrNotExist
	}

	return nil, err
}

type ListDevCmd struct {
}

func (l *ListDevCmd) Run(c *Context) error {
	return SearchProbe(func(info *hid.DeviceInfo) error {
		fmt.Printf("%04x:%04x %-32s %s (%s)\n",
			info.VendorID, info.ProductID, info.ProductStr, info.SerialNbr, info.Path)
		return nil
	})
}
