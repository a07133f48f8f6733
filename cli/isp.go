package main

import (
	"fmt"

	"github.com/fanoush/openocd/numicro"
)

type ReadISPCmd struct {
	Addr int `arg type:"hex" help:"Flash address to read."`
}

func (r *ReadISPCmd) Run(c *Context) error {
	if err := c.isp.Init(); err != nil {
		return err
	}

	data, err := c.isp.Command(numicro.CmdRead, uint32(r.Addr), 0)
	if err != nil {
		return err
	}

	fmt.Printf("0x%08x: 0x%08x\n", r.Addr, data)
	return nil
}

type WriteISPCmd struct {
	Addr  int `arg type:"hex" help:"Flash address to write."`
	Value int `arg type:"hex" help:"Word value to write."`
}

func (w *WriteISPCmd) Run(c *Context) error {
	if err := c.isp.Init(); err != nil {
		return err
	}

	_, err := c.isp.Command(numicro.CmdProgram, uint32(w.Addr), uint32(w.Value))
	if err != nil {
		return err
	}

	fmt.Printf("0x%08x: 0x%08x\n", w.Addr, w.Value)
	return nil
}

type ChipEraseCmd struct {
}

func (e *ChipEraseCmd) Run(c *Context) error {
	if err := c.bank.ChipErase(); err != nil {
		fmt.Println("chip erase failed")
		return err
	}

	fmt.Println("chip erase complete")
	return nil
}
