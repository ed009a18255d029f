/*
   Exception pipeline (component F).

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

// fault is the small integer enum every primitive that can fail
// returns instead of panicking. Step is the only place that turns a
// non-faultNone value into a vectored jump.
type fault int

const (
	faultNone fault = iota
	faultAdEL
	faultAdES
	faultTLBL
	faultTLBLRefill
	faultTLBS
	faultTLBSRefill
	faultMod
	faultInt
	faultSys
	faultBp
	faultRI
	faultCpU
	faultOv
	faultTr
	faultWatch
	faultReset
)

// excCode maps a fault to the Cause.ExcCode value delivered to guest
// software (spec.md §4.6). Refill variants share TLBL/TLBS's code;
// only the vector differs.
func (f fault) excCode() uint32 {
	switch f {
	case faultAdEL:
		return excAdEL
	case faultAdES:
		return excAdES
	case faultTLBL, faultTLBLRefill:
		return excTLBL
	case faultTLBS, faultTLBSRefill:
		return excTLBS
	case faultMod:
		return excMod
	case faultInt:
		return excInt
	case faultSys:
		return excSys
	case faultBp:
		return excBp
	case faultRI:
		return excRI
	case faultCpU:
		return excCpU
	case faultOv:
		return excOv
	case faultTr:
		return excTr
	case faultWatch:
		return excWATCH
	default:
		return excInt
	}
}

// isRefill reports whether f uses the dedicated TLB-refill vector
// rather than the general exception vector (spec.md §6.1).
func (f fault) isRefill() bool {
	return f == faultTLBLRefill || f == faultTLBSRefill
}

// raise delivers fault f: it sets Cause, BadVAddr/EntryHi/Context (for
// address-related faults, already done by translate), saves EPC
// (accounting for a delay slot), sets EXL, and redirects the PC to the
// appropriate vector (spec.md §4.6).
//
// currentPC is the address of the faulting instruction (not PC_next);
// inDelaySlot reports whether currentPC sits in a branch-delay slot.
func (c *CPU) raise(f fault, currentPC uint32, inDelaySlot bool) {
	if f == faultReset {
		c.Reset()
		return
	}

	if f == faultWatch && c.statusEXL() {
		c.watch = watchPending{pending: true, excAddr: currentPC, addr: c.watchAddr()}
		return
	}

	if !c.statusEXL() {
		if inDelaySlot {
			c.cp0[cp0EPC] = currentPC - 4
			c.setCauseBD(true)
		} else {
			c.cp0[cp0EPC] = currentPC
			c.setCauseBD(false)
		}
	}

	c.setExcCode(f.excCode())
	wasEXL := c.statusEXL()
	c.setStatusEXL(true)

	vector := c.vectorFor(f, wasEXL)
	c.SetPC(vector)
	c.standby = false
}

// vectorFor computes the exception entry point per spec.md §6.1: the
// boot-exception base while BEV=1, the dedicated refill vector for a
// TLB refill miss outside EXL, otherwise the general vector (base +
// 0x180). Resets never reach it; raise handles them with Reset.
func (c *CPU) vectorFor(f fault, wasEXL bool) uint32 {
	base := normalExcBase
	if c.statusBEV() {
		base = bootExcBase
	}
	if f.isRefill() && !wasEXL {
		return base
	}
	return base + generalOffset
}
