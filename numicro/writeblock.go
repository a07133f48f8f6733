package numicro

import (
	"time"

	"github.com/fanoush/openocd/target"
)

const (
	defaultStagingSize = 1024
	minStagingSize     = 256
	algorithmTimeout   = 100 * time.Second
)

// flashWriteCode is a Thumb program executed on the target CPU. It streams
// words from a RAM staging buffer into flash through the ISP registers,
// spinning on the trigger bit after each word, and ends with a breakpoint.
//
// Calling convention:
//
//	r0 - staging buffer address, fail flag on return
//	r1 - destination flash address
//	r2 - word count
var flashWriteCode = []byte{
	0x04, 0x1C, /* mov   r4, r0          */
	0x00, 0x23, /* mov   r3, #0          */
	0x0D, 0x1A, /* sub   r5, r1, r0      */
	0x67, 0x19, /* add   r7, r4, r5      */
	0x93, 0x42, /* cmp   r3, r2          */
	0x0C, 0xD0, /* beq   done            */
	0x08, 0x4E, /* ldr   r6, =ISPADR     */
	0x37, 0x60, /* str   r7, [r6]        */
	0x80, 0xCC, /* ldmia r4!, {r7}       */
	0x08, 0x4D, /* ldr   r5, =ISPDAT     */
	0x2F, 0x60, /* str   r7, [r5]        */
	0x08, 0x4D, /* ldr   r5, =ISPTRG     */
	0x01, 0x26, /* mov   r6, #1          */
	0x2E, 0x60, /* str   r6, [r5]        */
	0x2F, 0x68, /* busy: ldr r7, [r5]    */
	0xFF, 0x07, /* lsl   r7, r7, #31     */
	0xFC, 0xD4, /* bmi   busy            */
	0x01, 0x33, /* add   r3, r3, #1      */
	0xEE, 0xE7, /* b     loop            */
	0x05, 0x4B, /* done: ldr r3, =ISPCON */
	0x18, 0x68, /* ldr   r0, [r3]        */
	0x40, 0x21, /* mov   r1, #64         */
	0x08, 0x40, /* and   r0, r1          */
	0x00, 0xBE, /* bkpt  #0              */
	0x04, 0xC0, 0x00, 0x50, /* .word ISPADR */
	0x08, 0xC0, 0x00, 0x50, /* .word ISPDAT */
	0x10, 0xC0, 0x00, 0x50, /* .word ISPTRG */
	0x00, 0xC0, 0x00, 0x50, /* .word ISPCON */
}

// writeBlock programs wordCount words from data at the given bank offset by
// uploading flashWriteCode and invoking it chunk by chunk. It returns
// ErrorNoWorkingArea when the target cannot spare enough RAM, which the
// caller treats as the signal to fall back to single-word writes.
func (b *Bank) writeBlock(data []byte, offset uint32, wordCount uint32) error {
	t := b.t

	if offset&0x1 != 0 {
		b.isp.logf(2, "offset 0x%08x breaks required 2-byte alignment", offset)
		return ErrorAlignment
	}

	stagingSize := uint32(defaultStagingSize)
	if half := t.WorkingAreaSize() / 2; stagingSize < half {
		stagingSize = half
	}

	algorithm, err := t.AllocWorkingArea(uint32(len(flashWriteCode)))
	if err != nil {
		b.isp.logf(2, "no working area available, can't do block memory writes")
		return ErrorNoWorkingArea
	}
	defer t.FreeWorkingArea(algorithm)

	if err := t.WriteMemory(algorithm.Address, flashWriteCode); err != nil {
		return err
	}

	var staging *target.WorkingArea
	for {
		staging, err = t.AllocWorkingArea(stagingSize)
		if err == nil {
			break
		}
		stagingSize /= 4
		if stagingSize <= minStagingSize {
			b.isp.logf(2, "no large enough working area available, can't do block memory writes")
			return ErrorNoWorkingArea
		}
	}
	defer t.FreeWorkingArea(staging)

	address := b.base + offset
	for wordCount > 0 {
		run := wordCount
		if max := staging.Size / 4; run > max {
			run = max
		}

		if err := t.WriteMemory(staging.Address, data[:run*4]); err != nil {
			return err
		}

		result, err := t.RunAlgorithm(algorithm.Address, [3]uint32{staging.Address, address, run}, algorithmTimeout)
		if err != nil {
			b.isp.logf(1, "error executing flash programming algorithm: %v", err)
			return ErrorAlgorithmFailed
		}
		if result != 0 {
			/* the hardware fail flag is checked and cleared by the caller */
			b.isp.logf(2, "programming algorithm reported fail flag 0x%08x", result)
		}

		data = data[run*4:]
		address += run * 4
		wordCount -= run
	}

	return nil
}
