package cpu

import "testing"

func TestMTC0ThenMFC0RoundTrip(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.setReg(1, 0x1234)
	// mtc0 r1, Wired(6)
	putWord(bus, 0, (opCOP0<<26)|(cop0MT<<21)|(1<<16)|(cp0Wired<<11))
	// mfc0 r2, Wired(6)
	putWord(bus, 4, (opCOP0<<26)|(cop0MF<<21)|(2<<16)|(cp0Wired<<11))

	runOne(c)
	runOne(c)
	if c.reg(2) != 0x1234 {
		t.Errorf("got %#x wanted %#x", c.reg(2), 0x1234)
	}
}

func TestMTC0ToRandomIsIgnored(t *testing.T) {
	c, bus := newTestCPU(1024)
	before := c.cp0[cp0Random]
	c.setReg(1, 0)
	putWord(bus, 0, (opCOP0<<26)|(cop0MT<<21)|(1<<16)|(cp0Random<<11))
	runOne(c)
	// The step's own tickRandom still decrements Random once; had the
	// write of 0 landed, tickRandom would have wrapped it back to 47.
	if c.cp0[cp0Random] != before-1 {
		t.Errorf("Random should be read-only: got %d wanted %d", c.cp0[cp0Random], before-1)
	}
}

func TestCOP0UnusableRaisesCpU(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.cp0[cp0Status] = ksuUser << 3 // user mode, CU0=0, EXL=0, ERL=0
	// User mode cannot fetch from kseg0, so map kuseg page 0 onto
	// physical 0 through TLB entry 0 and run from there.
	c.cp0[cp0EntryLo0] = 0x2 // PFN 0, valid
	c.tlbWriteIndexed()
	c.SetPC(0)
	putWord(bus, 0, (opCOP0<<26)|(cop0MF<<21)|(2<<16)|(cp0Wired<<11))
	runOne(c)
	if c.excCode() != excCpU {
		t.Errorf("ExcCode: got %d wanted %d (CpU)", c.excCode(), excCpU)
	}
}

func TestMTC0IllegalPageMaskIsZeroed(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.setReg(1, 0x00001234) // not one of the enumerated legal page sizes
	putWord(bus, 0, (opCOP0<<26)|(cop0MT<<21)|(1<<16)|(cp0PageMask<<11))
	runOne(c)
	if c.cp0[cp0PageMask] != 0 {
		t.Errorf("illegal PageMask should read back 0: got %#x", c.cp0[cp0PageMask])
	}
}

func TestMTC0WiredResetsRandomToTop(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.cp0[cp0Random] = 3
	c.setReg(1, 10)
	putWord(bus, 0, (opCOP0<<26)|(cop0MT<<21)|(1<<16)|(cp0Wired<<11))
	runOne(c)
	// Reset to 47 by the write, then decremented once by the step's
	// tickRandom; without the reset, 3 <= Wired would have wrapped to 47.
	if c.cp0[cp0Random] != maxTLBIndex-1 {
		t.Errorf("Random: got %d wanted %d", c.cp0[cp0Random], maxTLBIndex-1)
	}
}

func TestMTC0CompareClearsPendingTimerInterrupt(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.setIPBit(7, true)
	c.setReg(1, 0x1000)
	putWord(bus, 0, (opCOP0<<26)|(cop0MT<<21)|(1<<16)|(cp0Compare<<11))
	runOne(c)
	if c.causeIP()&(1<<7) != 0 {
		t.Errorf("writing Compare should clear Cause.IP7")
	}
}

func TestERETDeregistersLLReservation(t *testing.T) {
	c, _ := newTestCPU(1024)
	c.llbit = true
	c.lladdr = 0x40
	c.llWatch.register(c, c.lladdr)
	c.cp0[cp0EPC] = 0x80004000

	f := c.execERET()
	if f != faultNone {
		t.Fatalf("unexpected fault: %v", f)
	}
	if c.llbit {
		t.Errorf("llbit should be cleared by ERET")
	}
	c.llWatch.lock()
	_, stillHeld := c.llWatch.holders[c.lladdr][c]
	c.llWatch.unlock()
	if stillHeld {
		t.Errorf("ERET should deregister the reservation from the shared watchlist")
	}
}

func TestERETRestoresPCAndClearsEXL(t *testing.T) {
	c, _ := newTestCPU(1024)
	c.cp0[cp0EPC] = 0x80004000
	c.setStatusEXL(true)
	f := c.execERET()
	if f != faultNone {
		t.Fatalf("unexpected fault: %v", f)
	}
	if c.PC() != 0x80004000 {
		t.Errorf("pc: got %#x wanted %#x", c.PC(), 0x80004000)
	}
	if c.statusEXL() {
		t.Errorf("EXL should be cleared after ERET")
	}
}
