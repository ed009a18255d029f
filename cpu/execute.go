/*
   Execute unit dispatch and the external bus API (components E, H).

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL THE
   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package cpu

// execFunc is one entry of the dispatch table: an instruction family
// handler that mutates CPU state and returns a fault (faultNone on
// success). Built once per CPU at construction, mirroring a table
// built once at init in the style this package generalizes from.
type execFunc func(*CPU, *Decoded) fault

// buildTable wires the primary-opcode dispatch table. SPECIAL,
// REGIMM, and COP0 opcodes fan out to a secondary switch inside their
// handler instead of a second table, since their sub-fields (funct,
// rt, rs) don't share a uniform width.
func (c *CPU) buildTable() {
	c.table[opSpecial] = (*CPU).execSpecial
	c.table[opSpecial2] = (*CPU).execSpecial2
	c.table[opRegimm] = (*CPU).execRegimm
	c.table[opCOP0] = (*CPU).execCOP0

	c.table[opJ] = (*CPU).execJ
	c.table[opJAL] = (*CPU).execJAL
	c.table[opBEQ] = (*CPU).execBEQ
	c.table[opBNE] = (*CPU).execBNE
	c.table[opBLEZ] = (*CPU).execBLEZ
	c.table[opBGTZ] = (*CPU).execBGTZ

	c.table[opADDI] = (*CPU).execADDI
	c.table[opADDIU] = (*CPU).execADDIU
	c.table[opSLTI] = (*CPU).execSLTI
	c.table[opSLTIU] = (*CPU).execSLTIU
	c.table[opANDI] = (*CPU).execANDI
	c.table[opORI] = (*CPU).execORI
	c.table[opXORI] = (*CPU).execXORI
	c.table[opLUI] = (*CPU).execLUI

	c.table[opLB] = (*CPU).execLB
	c.table[opLH] = (*CPU).execLH
	c.table[opLWL] = (*CPU).execLWL
	c.table[opLW] = (*CPU).execLW
	c.table[opLBU] = (*CPU).execLBU
	c.table[opLHU] = (*CPU).execLHU
	c.table[opLWR] = (*CPU).execLWR
	c.table[opSB] = (*CPU).execSB
	c.table[opSH] = (*CPU).execSH
	c.table[opSWL] = (*CPU).execSWL
	c.table[opSW] = (*CPU).execSW
	c.table[opSWR] = (*CPU).execSWR
	c.table[opLL] = (*CPU).execLL
	c.table[opSC] = (*CPU).execSC
}

// Step fetches, decodes, executes, and retires exactly one
// instruction, including any pending delay-slot completion and the
// cycle manager's end-of-step bookkeeping (spec.md §4.8). It is the
// entire external bus API surface a host embedder drives.
func (c *CPU) Step() fault {
	if c.halted {
		return faultNone
	}
	c.snapshotShadow()

	curPC := c.pc
	inDelaySlot := c.branch == branchPassed

	var f fault
	if !c.standby {
		word, ferr := c.fetchIns(curPC)
		if ferr != faultNone {
			f = ferr
		} else {
			d := Decode(word)
			fn := c.table[d.Op]
			if fn == nil {
				f = faultRI
			} else {
				f = fn(c, &d)
			}
		}
		// WAIT leaves the PC on itself and ERET has already loaded it
		// from EPC/ErrorEPC; every other instruction moves on.
		if !c.standby && c.pc == curPC {
			c.advancePC()
		}
	}

	if f != faultNone {
		c.raise(f, curPC, inDelaySlot)
	}

	return c.endCycle()
}

// advancePC implements the one-instruction delay-slot mechanics:
// branchCond (set by a taken branch/jump this Step) defers the jump
// by exactly one Step, branchPassed completes it.
func (c *CPU) advancePC() {
	switch c.branch {
	case branchCond:
		c.branch = branchPassed
		c.pc = c.pcNext
		c.pcNext = c.pc + 4
	case branchPassed:
		c.pc = c.branchTarget
		c.pcNext = c.pc + 4
		c.branch = branchNone
	default:
		c.pc = c.pcNext
		c.pcNext = c.pc + 4
	}
}

// takeBranch schedules target to become PC after the delay slot
// executes, per spec.md's branch-delay invariant.
func (c *CPU) takeBranch(target uint32) {
	c.branchTarget = target
	c.branch = branchCond
}

// fetchIns translates and reads one instruction word. Instruction
// fetches are never compared against the watch address.
func (c *CPU) fetchIns(vaddr uint32) (uint32, fault) {
	paddr, f := c.translate(vaddr, accessFetch)
	if f != faultNone {
		return 0, f
	}
	word, ok := c.bus.ReadWord(paddr)
	if !ok {
		return 0, faultAdEL
	}
	return word, faultNone
}

// readWord and writeWord are the word-sized data paths used by LW and
// SW; they apply the watch check before the bus access. A hit while
// EXL=1 is recorded in c.watch and the access goes ahead. The halfword
// and byte paths below, and the LWL/LWR/SWL/SWR and LL/SC handlers,
// which call the bus directly, do not check the watch address.
func (c *CPU) readWord(vaddr uint32) (uint32, fault) {
	paddr, f := c.translate(vaddr, accessLoad)
	if f != faultNone {
		return 0, f
	}
	if c.watchReadEnabled() && paddr&^0x7 == c.watchAddr() {
		if !c.statusEXL() {
			return 0, faultWatch
		}
		c.watch = watchPending{pending: true, excAddr: c.pc, addr: c.watchAddr()}
	}
	word, ok := c.bus.ReadWord(paddr)
	if !ok {
		return 0, faultAdEL
	}
	return word, faultNone
}

func (c *CPU) writeWord(vaddr, val uint32) fault {
	paddr, f := c.translate(vaddr, accessStore)
	if f != faultNone {
		return f
	}
	if c.watchWriteEnabled() && paddr&^0x7 == c.watchAddr() {
		if !c.statusEXL() {
			return faultWatch
		}
		c.watch = watchPending{pending: true, excAddr: c.pc, addr: c.watchAddr()}
	}
	if !c.bus.WriteWord(paddr, val) {
		return faultAdES
	}
	c.llWatch.breakOthers(c, paddr&^0x3)
	return faultNone
}

func (c *CPU) readHalf(vaddr uint32) (uint16, fault) {
	paddr, f := c.translate(vaddr, accessLoad)
	if f != faultNone {
		return 0, f
	}
	v, ok := c.bus.ReadHalf(paddr)
	if !ok {
		return 0, faultAdEL
	}
	return v, faultNone
}

func (c *CPU) writeHalf(vaddr uint32, val uint16) fault {
	paddr, f := c.translate(vaddr, accessStore)
	if f != faultNone {
		return f
	}
	if !c.bus.WriteHalf(paddr, val) {
		return faultAdES
	}
	c.llWatch.breakOthers(c, paddr&^0x3)
	return faultNone
}

func (c *CPU) readByte(vaddr uint32) (byte, fault) {
	paddr, f := c.translate(vaddr, accessLoad)
	if f != faultNone {
		return 0, f
	}
	v, ok := c.bus.ReadByte(paddr)
	if !ok {
		return 0, faultAdEL
	}
	return v, faultNone
}

func (c *CPU) writeByte(vaddr uint32, val byte) fault {
	paddr, f := c.translate(vaddr, accessStore)
	if f != faultNone {
		return f
	}
	if !c.bus.WriteByte(paddr, val) {
		return faultAdES
	}
	c.llWatch.breakOthers(c, paddr&^0x3)
	return faultNone
}

// reg reads general register n; r0 is hardwired to zero (spec.md
// §3.1).
func (c *CPU) reg(n uint32) uint32 {
	return c.regs[n]
}

// setReg writes general register n, silently discarding writes to r0.
func (c *CPU) setReg(n uint32, v uint32) {
	if n != 0 {
		c.regs[n] = v
	}
}

// --- External bus API (component H) ---

// ReadMem reads a data word through translation, for console `md`
// and debugger memory inspection. It does not apply watch semantics
// (those only fire for guest-issued loads/stores).
func (c *CPU) ReadMem(vaddr uint32) (uint32, bool) {
	paddr, f := c.translate(vaddr, accessLoad)
	if f != faultNone {
		return 0, false
	}
	return c.bus.ReadWord(paddr)
}

// ReadIns reads an instruction word through translation, for the
// console's `id` raw instruction dump.
func (c *CPU) ReadIns(vaddr uint32) (uint32, bool) {
	paddr, f := c.translate(vaddr, accessFetch)
	if f != faultNone {
		return 0, false
	}
	return c.bus.ReadWord(paddr)
}

// SetBreakpoint registers a PC at which the host embedder's run loop
// should stop before executing (spec.md §6.4 `break`).
func (c *CPU) SetBreakpoint(pc uint32, kind breakKind) {
	for i := range c.breakpoints {
		if c.breakpoints[i].PC == pc {
			return
		}
	}
	c.breakpoints = append(c.breakpoints, Breakpoint{PC: pc, Kind: kind})
}

// ClearBreakpoint removes a previously-set breakpoint.
func (c *CPU) ClearBreakpoint(pc uint32) {
	for i := range c.breakpoints {
		if c.breakpoints[i].PC == pc {
			c.breakpoints = append(c.breakpoints[:i], c.breakpoints[i+1:]...)
			return
		}
	}
}

// AtBreakpoint reports whether the current PC matches a registered
// breakpoint, bumping its hit counter. The host embedder's run loop
// calls this between Step calls, never inside one.
func (c *CPU) AtBreakpoint() (Breakpoint, bool) {
	for i := range c.breakpoints {
		if c.breakpoints[i].PC == c.pc {
			c.breakpoints[i].Hits++
			return c.breakpoints[i], true
		}
	}
	return Breakpoint{}, false
}

// Breakpoints returns the current breakpoint list.
func (c *CPU) Breakpoints() []Breakpoint {
	return c.breakpoints
}

// RegisterDelta names one changed general register, or HI/LO, since the
// last snapshot, for the console's post-step changed-register trace.
type RegisterDelta struct {
	Name string
	Old  uint32
	New  uint32
}

var gprNames = [32]string{
	"r0", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// snapshotShadow captures the register file into the shadow copy used
// by Snapshot. Called at the start of every Step and by Reset.
func (c *CPU) snapshotShadow() {
	c.prevRegs = c.regs
	c.prevCP0 = c.cp0
	c.prevHI = c.hi
	c.prevLO = c.lo
}

// Snapshot reports every general register, and HI and LO, that differs
// between the current state and the prior snapshot point — the
// "changed register" trace a console prints after each step (spec.md
// §3.1). CP0 registers are not compared. It does not itself advance
// the snapshot point; Step does that on entry, via snapshotShadow.
func (c *CPU) Snapshot() []RegisterDelta {
	var deltas []RegisterDelta
	for i := 1; i < 32; i++ {
		if c.regs[i] != c.prevRegs[i] {
			deltas = append(deltas, RegisterDelta{gprNames[i], c.prevRegs[i], c.regs[i]})
		}
	}
	if c.hi != c.prevHI {
		deltas = append(deltas, RegisterDelta{"hi", c.prevHI, c.hi})
	}
	if c.lo != c.prevLO {
		deltas = append(deltas, RegisterDelta{"lo", c.prevLO, c.lo})
	}
	return deltas
}

// Regs returns a copy of the general register file for the console's
// `rd` command.
func (c *CPU) Regs() [32]uint32 { return c.regs }

// HiLo returns the HI/LO register pair.
func (c *CPU) HiLo() (uint32, uint32) { return c.hi, c.lo }

// CP0Regs returns a copy of the CP0 register file for the console's
// `cp0d` command.
func (c *CPU) CP0Regs() [32]uint32 { return c.cp0 }
