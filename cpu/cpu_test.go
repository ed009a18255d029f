package cpu

import "testing"

// fakeBus is a flat in-memory implementation of Bus for tests, with
// no devices and no address-space limit beyond its backing slice.
type fakeBus struct {
	mem []byte
}

func newFakeBus(size int) *fakeBus {
	return &fakeBus{mem: make([]byte, size)}
}

func (b *fakeBus) ReadByte(addr uint32) (byte, bool) {
	if int(addr) >= len(b.mem) {
		return 0, false
	}
	return b.mem[addr], true
}

func (b *fakeBus) WriteByte(addr uint32, v byte) bool {
	if int(addr) >= len(b.mem) {
		return false
	}
	b.mem[addr] = v
	return true
}

func (b *fakeBus) ReadHalf(addr uint32) (uint16, bool) {
	hi, ok := b.ReadByte(addr)
	if !ok {
		return 0, false
	}
	lo, ok := b.ReadByte(addr + 1)
	if !ok {
		return 0, false
	}
	return uint16(hi)<<8 | uint16(lo), true
}

func (b *fakeBus) WriteHalf(addr uint32, v uint16) bool {
	if !b.WriteByte(addr, byte(v>>8)) {
		return false
	}
	return b.WriteByte(addr+1, byte(v))
}

func (b *fakeBus) ReadWord(addr uint32) (uint32, bool) {
	hi, ok := b.ReadHalf(addr)
	if !ok {
		return 0, false
	}
	lo, ok := b.ReadHalf(addr + 2)
	if !ok {
		return 0, false
	}
	return uint32(hi)<<16 | uint32(lo), true
}

func (b *fakeBus) WriteWord(addr uint32, v uint32) bool {
	if !b.WriteHalf(addr, uint16(v>>16)) {
		return false
	}
	return b.WriteHalf(addr+2, uint16(v))
}

// newTestCPU builds a CPU over a fakeBus, with Status.BEV cleared and
// KSU forced to kernel mode and EXL/ERL cleared so kseg0/kseg1 and
// ordinary execution both work without extra setup, and PC pointed at
// the start of RAM instead of the ROM reset vector.
func newTestCPU(memSize int) (*CPU, *fakeBus) {
	bus := newFakeBus(memSize)
	c := NewCPU(bus)
	c.cp0[cp0Status] = 0
	c.SetPC(0x80000000)
	return c, bus
}

func putWord(b *fakeBus, paddr uint32, w uint32) {
	b.WriteWord(paddr, w)
}

// runOne steps the CPU through exactly one retired instruction.
// Step's return value reports only whether an interrupt was sampled
// at the end of the cycle; an instruction fault is delivered by
// vectoring the PC and setting Cause.ExcCode, not by the return value,
// so callers check excCode/PC instead.
func runOne(c *CPU) fault {
	return c.Step()
}

func (c *CPU) excCode() uint32 {
	return (c.cp0[cp0Cause] & causeExcCodeMask) >> causeExcCodeShift
}

func TestResetState(t *testing.T) {
	bus := newFakeBus(1024)
	c := NewCPU(bus)
	if c.PC() != resetVector {
		t.Errorf("pc after reset: got %08x wanted %08x", c.PC(), resetVector)
	}
	if c.cp0[cp0Random] != uint32(maxTLBIndex) {
		t.Errorf("random after reset: got %d wanted %d", c.cp0[cp0Random], maxTLBIndex)
	}
	if !c.statusBEV() || !c.statusERL() {
		t.Errorf("status after reset should have BEV and ERL set: %08x", c.cp0[cp0Status])
	}
}

func TestR0HardwiredZero(t *testing.T) {
	c, bus := newTestCPU(1024)
	putWord(bus, 0, (opADDIU<<26)|(0<<21)|(0<<16)|5) // addiu r0, r0, 5
	if err := runOne(c); err != faultNone {
		t.Fatalf("unexpected fault: %v", err)
	}
	if c.reg(0) != 0 {
		t.Errorf("r0 was written: got %d wanted 0", c.reg(0))
	}
}

func TestBranchDelaySlotExecutesBeforeTarget(t *testing.T) {
	c, bus := newTestCPU(1024)
	// beq r0, r0, 2          ; always taken, target = pc+4+(2<<2) = pc+12
	// addiu r1, r0, 1        ; delay slot, must still execute
	// addiu r2, r0, 2        ; skipped
	// addiu r3, r0, 3        ; branch target
	putWord(bus, 0, (opBEQ<<26)|(0<<21)|(0<<16)|2)
	putWord(bus, 4, (opADDIU<<26)|(0<<21)|(1<<16)|1)
	putWord(bus, 8, (opADDIU<<26)|(0<<21)|(2<<16)|2)
	putWord(bus, 12, (opADDIU<<26)|(0<<21)|(3<<16)|3)

	runOne(c) // branch
	runOne(c) // delay slot
	if c.reg(1) != 1 {
		t.Errorf("delay slot did not execute: r1 = %d", c.reg(1))
	}
	if c.PC() != 0x80000000+12 {
		t.Errorf("pc after delay slot: got %08x wanted %08x", c.PC(), 0x80000000+12)
	}
	runOne(c) // branch target
	if c.reg(3) != 3 {
		t.Errorf("branch target did not execute: r3 = %d", c.reg(3))
	}
	if c.reg(2) != 0 {
		t.Errorf("instruction at the skipped address ran: r2 = %d", c.reg(2))
	}
}

func TestUnalignedLoadRaisesAdEL(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.setReg(1, 1) // base register holds an odd address
	putWord(bus, 0, (opLW<<26)|(1<<21)|(2<<16)|0) // lw r2, 0(r1)
	runOne(c)
	if c.excCode() != excAdEL {
		t.Errorf("ExcCode: got %d wanted %d (AdEL)", c.excCode(), excAdEL)
	}
}

func TestAddOverflowTraps(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.setReg(1, 0x7fffffff)
	c.setReg(2, 1)
	putWord(bus, 0, (opSpecial<<26)|(1<<21)|(2<<16)|(3<<11)|fnADD) // add r3, r1, r2
	runOne(c)
	if c.excCode() != excOv {
		t.Errorf("ExcCode: got %d wanted %d (Ov)", c.excCode(), excOv)
	}
	if c.reg(3) != 0 {
		t.Errorf("destination register should be untouched on overflow: r3 = %#x", c.reg(3))
	}
}

func TestLLSCRoundTrip(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.setReg(1, 0x80000000) // base, maps to physical 0
	putWord(bus, 0, (opLL<<26)|(1<<21)|(2<<16)|0)   // ll r2, 0(r1)
	putWord(bus, 4, (opSC<<26)|(1<<21)|(3<<16)|0)   // sc r3, 0(r1)

	if f := runOne(c); f != faultNone {
		t.Fatalf("LL faulted: %v", f)
	}
	c.setReg(3, 0x1234)
	if f := runOne(c); f != faultNone {
		t.Fatalf("SC faulted: %v", f)
	}
	if c.reg(3) != 1 {
		t.Errorf("SC should report success: got %d", c.reg(3))
	}
	v, _ := bus.ReadWord(0)
	if v != 0x1234 {
		t.Errorf("SC did not store: got %#x", v)
	}
}

func TestSCFailsWithoutReservation(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.setReg(1, 0x80000000)
	putWord(bus, 0, (opSC<<26)|(1<<21)|(3<<16)|0)
	c.setReg(3, 0x99)
	if f := runOne(c); f != faultNone {
		t.Fatalf("unexpected fault: %v", f)
	}
	if c.reg(3) != 0 {
		t.Errorf("SC without reservation should report failure: got %d", c.reg(3))
	}
}

func TestExceptionSetsEPCAndVector(t *testing.T) {
	c, bus := newTestCPU(1024)
	c.setReg(1, 0) // div by zero path is not a fault; use a syscall instead
	_ = bus
	putWord(bus, 0, (opSpecial<<26)|fnSYSCALL)
	pcBefore := c.PC()
	runOne(c)
	if c.cp0[cp0EPC] != pcBefore {
		t.Errorf("EPC: got %08x wanted %08x", c.cp0[cp0EPC], pcBefore)
	}
	if !c.statusEXL() {
		t.Errorf("EXL should be set after exception")
	}
	wantVector := normalExcBase + generalOffset
	if c.PC() != wantVector {
		t.Errorf("pc after exception: got %08x wanted %08x", c.PC(), wantVector)
	}
	code := (c.cp0[cp0Cause] & causeExcCodeMask) >> causeExcCodeShift
	if code != excSys {
		t.Errorf("ExcCode: got %d wanted %d", code, excSys)
	}
}

func TestRandomWrapsToWiredRange(t *testing.T) {
	c, _ := newTestCPU(1024)
	c.cp0[cp0Wired] = 4
	c.cp0[cp0Random] = 5
	c.tickRandom()
	if c.cp0[cp0Random] != 4 {
		t.Errorf("got %d wanted 4", c.cp0[cp0Random])
	}
	c.tickRandom()
	if c.cp0[cp0Random] != uint32(maxTLBIndex) {
		t.Errorf("random should wrap to %d, got %d", maxTLBIndex, c.cp0[cp0Random])
	}
}
