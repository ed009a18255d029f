/*
   Cycle manager (component G): per-step bookkeeping that runs after
   every instruction regardless of whether it faulted.

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

// endCycle runs the per-cycle bookkeeping common to every Step call:
// Count increment and Compare match, Random decay, cycle-class
// accounting, and interrupt sampling (spec.md §4.7).
func (c *CPU) endCycle() fault {
	f := c.sampleInterrupt()

	c.cp0[cp0Count]++
	if c.cp0[cp0Count] == c.cp0[cp0Compare] {
		c.setIPBit(7, true)
	}
	c.tickRandom()

	if c.statusKSU() == ksuKernel || c.statusEXL() || c.statusERL() {
		c.kernelCycles++
	} else {
		c.userCycles++
	}
	if c.standby {
		c.waitCycles++
	}

	return f
}

// sampleInterrupt implements spec.md §4.7's interrupt gating: an
// interrupt is taken only when IE=1, EXL=0, ERL=0, and at least one
// unmasked Cause.IP bit is set. Sampling follows every instruction, so
// an interrupt can be taken between a taken branch and its delay slot;
// raise then points EPC back at the branch and sets Cause.BD.
func (c *CPU) sampleInterrupt() fault {
	if !c.statusIE() || c.statusEXL() || c.statusERL() {
		return faultNone
	}
	pending := c.causeIP() & c.statusIM()
	if pending == 0 {
		return faultNone
	}
	for line := uint32(0); line < 8; line++ {
		if pending&(1<<line) != 0 {
			c.irqCounts[line]++
			break
		}
	}
	wasStandby := c.standby
	c.standby = false
	pc := c.pc
	if wasStandby {
		pc += 4 // wake past WAIT rather than re-executing it
	}
	c.raise(faultInt, pc, c.branch == branchPassed)
	return faultInt
}

// InterruptUp raises interrupt request line (0-1 are the software
// lines MTC0 Cause can also set, 2-7 the hardware lines) on Cause.IP.
func (c *CPU) InterruptUp(line uint32) {
	c.setIPBit(line, true)
}

// InterruptDown clears a previously-raised interrupt line.
func (c *CPU) InterruptDown(line uint32) {
	c.setIPBit(line, false)
}

// KernelCycles, UserCycles, and WaitCycles report the cycle-class
// counters named in spec.md §3.1, for the console's `rd` report.
func (c *CPU) KernelCycles() uint64 { return c.kernelCycles }
func (c *CPU) UserCycles() uint64   { return c.userCycles }
func (c *CPU) WaitCycles() uint64   { return c.waitCycles }

// InterruptCounts reports how many interrupts have been taken for each
// of the 8 Cause.IP lines. When several unmasked lines are pending at
// once, only the lowest-numbered one is counted.
func (c *CPU) InterruptCounts() [8]uint64 { return c.irqCounts }
