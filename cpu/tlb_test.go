package cpu

import "testing"

func TestClassifySegments(t *testing.T) {
	cases := []struct {
		addr uint32
		want segment
	}{
		{0x00000000, segKuseg},
		{0x7fffffff, segKuseg},
		{0x80000000, segKseg0},
		{0x9fffffff, segKseg0},
		{0xa0000000, segKseg1},
		{0xbfffffff, segKseg1},
		{0xc0000000, segKseg2},
		{0xdfffffff, segKseg2},
		{0xe0000000, segKseg3},
		{0xffffffff, segKseg3},
	}
	for _, tc := range cases {
		if got := classify(tc.addr); got != tc.want {
			t.Errorf("classify(%#08x): got %v wanted %v", tc.addr, got, tc.want)
		}
	}
}

func TestTranslateKseg0SubtractsKseg0Base(t *testing.T) {
	c, _ := newTestCPU(16)
	c.cp0[cp0Status] = statusERL // force privileged access regardless of KSU
	paddr, f := c.translate(0x80001000, accessLoad)
	if f != faultNone {
		t.Fatalf("unexpected fault: %v", f)
	}
	if paddr != 0x00001000 {
		t.Errorf("kseg0 physical: got %#x wanted %#x", paddr, 0x00001000)
	}
}

func TestTranslateKseg1SubtractsKseg1Base(t *testing.T) {
	c, _ := newTestCPU(16)
	c.cp0[cp0Status] = statusERL
	paddr, f := c.translate(0xA0001000, accessLoad)
	if f != faultNone {
		t.Fatalf("unexpected fault: %v", f)
	}
	if paddr != 0x00001000 {
		t.Errorf("kseg1 physical: got %#x wanted %#x", paddr, 0x00001000)
	}
}

func TestTranslateKusegMissesWithoutTLBEntry(t *testing.T) {
	c, _ := newTestCPU(16)
	_, f := c.translate(0x00001000, accessLoad)
	if f != faultTLBLRefill {
		t.Errorf("got fault %v wanted TLBLRefill", f)
	}
}

func TestTranslateKusegHitsAfterTLBWrite(t *testing.T) {
	c, _ := newTestCPU(16)
	c.cp0[cp0EntryHi] = 0x00001000 // VPN2 for a 4KB page at 0x1000, ASID 0
	c.cp0[cp0PageMask] = 0
	c.cp0[cp0EntryLo0] = (0x00000000 >> 6) | 0x2 // PFN 0, valid
	c.cp0[cp0EntryLo1] = (0x00001000 >> 6) | 0x2 // PFN for odd sub-page
	c.cp0[cp0Index] = 0
	c.tlbWriteIndexed()

	paddr, f := c.translate(0x00001000, accessLoad)
	if f != faultNone {
		t.Fatalf("unexpected fault: %v", f)
	}
	if paddr != 0x00001000 {
		t.Errorf("got %#x wanted %#x", paddr, 0x00001000)
	}
}

func TestTranslateKusegHitsWithNonzeroPageOffset(t *testing.T) {
	c, _ := newTestCPU(16)
	c.cp0[cp0EntryHi] = 0x00002000 // VPN2 for the 4KB page at 0x2000
	c.cp0[cp0PageMask] = 0
	c.cp0[cp0EntryLo0] = (0x00003000 >> 6) | 0x2 // PFN 0x3000, valid
	c.cp0[cp0EntryLo1] = (0x00004000 >> 6) | 0x2
	c.tlbWriteIndexed()

	// vaddr 0x2abc has a non-zero in-page offset; a VPN2 mask that
	// includes the offset bits would spuriously miss this lookup.
	paddr, f := c.translate(0x00002abc, accessLoad)
	if f != faultNone {
		t.Fatalf("unexpected fault: %v", f)
	}
	if want := uint32(0x00003abc); paddr != want {
		t.Errorf("got %#x wanted %#x", paddr, want)
	}
}

func TestTranslateStoreToCleanPageFaultsMod(t *testing.T) {
	c, _ := newTestCPU(16)
	c.cp0[cp0EntryHi] = 0x00001000
	c.cp0[cp0PageMask] = 0
	c.cp0[cp0EntryLo0] = (0x00000000 >> 6) | 0x2 // valid, not dirty
	c.cp0[cp0EntryLo1] = (0x00001000 >> 6) | 0x2
	c.tlbWriteIndexed()

	_, f := c.translate(0x00001000, accessStore)
	if f != faultMod {
		t.Errorf("got fault %v wanted Mod", f)
	}
}

func TestTLBProbeReportsMiss(t *testing.T) {
	c, _ := newTestCPU(16)
	c.cp0[cp0EntryHi] = 0x00001000
	c.tlbProbe()
	if c.cp0[cp0Index] != tlbProbeNoMatch {
		t.Errorf("Index after miss: got %#x wanted %#x", c.cp0[cp0Index], tlbProbeNoMatch)
	}
}

func TestTLBProbeFindsWrittenEntry(t *testing.T) {
	c, _ := newTestCPU(16)
	c.cp0[cp0EntryHi] = 0x00002000
	c.cp0[cp0PageMask] = 0
	c.cp0[cp0EntryLo0] = 0x2
	c.cp0[cp0EntryLo1] = 0x2
	c.cp0[cp0Index] = 5
	c.tlbWriteIndexed()

	c.cp0[cp0EntryHi] = 0x00002000
	c.tlbProbe()
	if c.cp0[cp0Index] != 5 {
		t.Errorf("Index: got %d wanted 5", c.cp0[cp0Index])
	}
}

func TestIsLegalPageMask(t *testing.T) {
	legal := []uint32{0, 0x00006000, 0x01FFE000}
	for _, m := range legal {
		if !isLegalPageMask(m) {
			t.Errorf("isLegalPageMask(%#x) = false, want true", m)
		}
	}
	if isLegalPageMask(0x00001234) {
		t.Errorf("isLegalPageMask(0x1234) = true, want false")
	}
}
