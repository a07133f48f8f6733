package dap

import "testing"

func TestRequestEncoding(t *testing.T) {
	tests := []struct {
		name string
		got  byte
		want byte
	}{
		{"DP read IDCODE", dpRead(0x00), 0x02},
		{"DP read CTRL/STAT", dpRead(dpCtrlStat), 0x06},
		{"DP write ABORT", dpWrite(dpAbort), 0x00},
		{"DP write SELECT", dpWrite(dpSelect), 0x08},
		{"AP read DRW", apRead(apDRW), 0x0F},
		{"AP write TAR", apWrite(apTAR), 0x05},
		{"AP write CSW", apWrite(apCSW), 0x01},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("%s: request 0x%02x, want 0x%02x", test.name, test.got, test.want)
		}
	}
}

func TestChunkWords(t *testing.T) {
	p := &Probe{packetSize: 64}

	/* a 64 byte packet with 4 bytes of header carries 15 words */
	if got := p.chunkWords(0x20000000, 100, 4); got != 15 {
		t.Errorf("chunk = %d words, want 15", got)
	}

	/* short transfers pass through unchanged */
	if got := p.chunkWords(0x20000000, 3, 4); got != 3 {
		t.Errorf("chunk = %d words, want 3", got)
	}

	/* the TAR auto increment wraps at 1 KiB, stop at the boundary */
	if got := p.chunkWords(0x200003FC, 100, 4); got != 1 {
		t.Errorf("chunk at boundary = %d words, want 1", got)
	}
	if got := p.chunkWords(0x200003F0, 100, 4); got != 4 {
		t.Errorf("chunk near boundary = %d words, want 4", got)
	}
}
