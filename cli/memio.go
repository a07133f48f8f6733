package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/inancgumus/screen"
)

type ReadCmd struct {
	Addr   int `arg type:"hex" help:"Target address to read."`
	Amount int `arg optional default:"0" help:"Number of bytes to read."`

	Loop     int    `optional help:"0=Perform once, 1=Mark changes since start, 2=Mark changes since previous iteration."`
	Filename string `optional help:"File to write dump to."`
}

func (l *ReadCmd) Run(c *Context) error {
	if l.Loop < 0 || l.Loop > 2 {
		return errors.New("Loop flag out of range")
	}

	if l.Amount == 0 {
		l.Amount = 256
	}
	/* transfers are word sized */
	l.Amount = (l.Amount + 3) &^ 3

	var oldBuf []byte
	var mark []bool
	for {
		startTime := time.Now()
		if l.Loop == 2 || mark == nil {
			mark = make([]bool, l.Amount)
		}

		buf := make([]byte, l.Amount)
		if err := c.probe.ReadMemory(uint32(l.Addr), buf); err != nil {
			return fmt.Errorf("Read error: %s", err.Error())
		}

		if l.Filename != "" {
			return os.WriteFile(l.Filename, buf, 0644)
		}

		if l.Loop != 0 {
			screen.Clear()
			screen.MoveTopLeft()
			if oldBuf != nil {
				for i, m := range oldBuf {
					if m != buf[i] {
						mark[i] = true
					}
				}
			}
		}
		fmt.Println(hexdump(l.Addr, buf, mark))

		oldBuf = buf

		if l.Loop == 0 {
			break
		}
		d := time.Since(startTime)
		td := 200 * time.Millisecond
		if d < td {
			time.Sleep(td - d)
		}
	}

	return nil
}
