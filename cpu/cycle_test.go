package cpu

import "testing"

func TestInterruptSampledWhenEnabledAndUnmasked(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.cp0[cp0Status] = statusIE | (0xff << 8) // IE=1, all IM bits unmasked
	putWord(bus, 0, (opADDIU<<26)|(0<<21)|(1<<16)|1) // addiu r1, r0, 1 (nop-ish)

	c.InterruptUp(2)
	f := runOne(c)
	if f != faultInt {
		t.Errorf("Step should report the sampled interrupt: got %v", f)
	}
	if c.excCode() != excInt {
		t.Errorf("ExcCode: got %d wanted %d (Int)", c.excCode(), excInt)
	}
	if counts := c.InterruptCounts(); counts[2] != 1 {
		t.Errorf("InterruptCounts[2]: got %d wanted 1", counts[2])
	}
}

func TestInterruptNotSampledWhenDisabled(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.cp0[cp0Status] = 0 // IE=0
	putWord(bus, 0, (opADDIU<<26)|(0<<21)|(1<<16)|1)

	c.InterruptUp(2)
	f := runOne(c)
	if f != faultNone {
		t.Errorf("no interrupt should be sampled while IE=0: got %v", f)
	}
}

func TestCompareMatchSetsTimerIPBit(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.cp0[cp0Status] = 0
	c.cp0[cp0Compare] = c.cp0[cp0Count] + 1
	putWord(bus, 0, (opADDIU<<26)|(0<<21)|(1<<16)|1)
	runOne(c)
	if c.causeIP()&(1<<7) == 0 {
		t.Errorf("Compare match should set Cause.IP7")
	}
}

func TestWaitStallsFetchUntilInterruptWakesIt(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.cp0[cp0Status] = statusIE | (0xff << 8)
	putWord(bus, 0, (opCOP0<<26)|(cop0CO<<21)|coWAIT)       // wait
	putWord(bus, 4, (opADDIU<<26)|(0<<21)|(1<<16)|1)        // would run once woken

	runOne(c) // executes wait, enters standby
	if !c.standby {
		t.Fatalf("CPU should be in standby after WAIT")
	}
	wantPC := c.PC()
	runOne(c) // still asleep, no interrupt pending: PC must not move
	if c.PC() != wantPC {
		t.Errorf("pc advanced while in standby: got %#x wanted %#x", c.PC(), wantPC)
	}
	if c.reg(1) != 0 {
		t.Errorf("instruction stream must not advance while in standby: r1 = %d", c.reg(1))
	}

	c.InterruptUp(2)
	f := runOne(c)
	if f != faultInt {
		t.Fatalf("expected the interrupt to be sampled: got %v", f)
	}
	if c.standby {
		t.Errorf("standby should be cleared once an interrupt wakes the CPU")
	}
	// EPC must point past WAIT (wantPC+4), not at WAIT itself, so ERET
	// does not re-execute it.
	if c.cp0[cp0EPC] != wantPC+4 {
		t.Errorf("EPC: got %#x wanted %#x", c.cp0[cp0EPC], wantPC+4)
	}
}

func TestCompareMatchInterruptFiresOneStepLater(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.cp0[cp0Status] = statusIE | (0xff << 8)
	c.cp0[cp0Compare] = c.cp0[cp0Count] + 1
	putWord(bus, 0, (opADDIU<<26)|(0<<21)|(1<<16)|1)
	putWord(bus, 4, (opADDIU<<26)|(0<<21)|(2<<16)|1)

	// This step's endCycle samples interrupts before incrementing
	// Count, so the Compare match it causes must not be visible until
	// the following step.
	if f := runOne(c); f != faultNone {
		t.Fatalf("interrupt fired a step too early: %v", f)
	}
	if f := runOne(c); f != faultInt {
		t.Fatalf("expected the timer interrupt on the following step: got %v", f)
	}
}

func TestKernelCyclesAccrueWhenPrivileged(t *testing.T) {
	c, bus := newTestCPU(1024)
	before := c.KernelCycles()
	putWord(bus, 0, (opADDIU<<26)|(0<<21)|(1<<16)|1)
	runOne(c)
	if c.KernelCycles() != before+1 {
		t.Errorf("KernelCycles: got %d wanted %d", c.KernelCycles(), before+1)
	}
}
