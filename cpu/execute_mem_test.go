package cpu

import "testing"

// Base registers in these tests hold a kseg0 address (0x8000_0000 +
// offset) so the unaligned-access path can translate without needing
// a TLB entry set up first.

func TestLWLMergesHighBytesBigEndian(t *testing.T) {
	c, bus := newTestCPU(1024)
	putWord(bus, 0, 0x11223344)
	c.setReg(2, 0xAAAAAAAA)
	c.setReg(1, 0x80000001) // unaligned: vaddr&3 == 1
	putWord(bus, 4, (opLWL<<26)|(1<<21)|(2<<16)|0) // lwl r2, 0(r1)
	c.SetPC(0x80000004)
	runOne(c)
	// b=1: rt = (rt & lwlMask[1]) | (word << lwlShift[1]) = (0xAAAAAAAA & 0xff) | (0x11223344 << 8)
	word := uint32(0x11223344)
	want := (uint32(0xAAAAAAAA) & 0xff) | (word << 8)
	if c.reg(2) != want {
		t.Errorf("got %#x wanted %#x", c.reg(2), want)
	}
}

func TestLWRMergesLowBytesBigEndian(t *testing.T) {
	c, bus := newTestCPU(1024)
	putWord(bus, 0, 0x11223344)
	c.setReg(2, 0xAAAAAAAA)
	c.setReg(1, 0x80000001)
	putWord(bus, 4, (opLWR<<26)|(1<<21)|(2<<16)|0) // lwr r2, 0(r1)
	c.SetPC(0x80000004)
	runOne(c)
	want := (uint32(0xAAAAAAAA) & 0xffff0000) | (uint32(0x11223344) >> 16)
	if c.reg(2) != want {
		t.Errorf("got %#x wanted %#x", c.reg(2), want)
	}
}

func TestLWLAtWordBoundaryProducesFullAlignedWord(t *testing.T) {
	c, bus := newTestCPU(1024)
	putWord(bus, 0, 0xCAFEBABE)
	c.setReg(1, 0x80000000)
	putWord(bus, 4, (opLWL<<26)|(1<<21)|(2<<16)|0) // lwl r2, 0(r1) -> vaddr&3==0, b=0
	c.SetPC(0x80000004)
	runOne(c)
	want := uint32(0xCAFEBABE)
	if c.reg(2) != want {
		t.Errorf("LWL at a word boundary should equal an aligned load: got %#x wanted %#x", c.reg(2), want)
	}
}
