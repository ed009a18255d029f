/*
   COP0 dispatch: MFC0/MTC0, the TLB maintenance instructions, ERET,
   and WAIT.

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

// execCOP0 fans out the COP0 opcode: MFC0/MTC0 by rs, the CO-format
// TLB/ERET/WAIT instructions by funct (spec.md §4.4, §4.5).
func (c *CPU) execCOP0(d *Decoded) fault {
	if !c.cu0Usable() {
		return faultCpU
	}

	if d.Rs&0x10 != 0 {
		switch d.Funct {
		case coTLBR:
			return c.tlbRead()
		case coTLBWI:
			return c.tlbWriteIndexed()
		case coTLBWR:
			return c.tlbWriteRandom()
		case coTLBP:
			return c.tlbProbe()
		case coERET:
			return c.execERET()
		case coWAIT:
			c.standby = true
			return faultNone
		default:
			return faultRI
		}
	}

	switch d.Rs {
	case cop0MF:
		c.setReg(d.Rt, c.cp0[d.Rd])
	case cop0MT:
		c.writeCP0(d.Rd, c.reg(d.Rt))
	default:
		return faultRI
	}
	return faultNone
}

// writeCP0 applies MTC0's per-register write semantics: registers
// hardware alone maintains (Random, PRId, BadVAddr, CacheErr) ignore
// the write, Cause exposes only its two software interrupt bits,
// PageMask is validated against the legal size table, Index keeps only
// its probe-failure bit and index field, Wired also resets Random to
// 47, Compare also clears Cause.IP7, and everything else is a plain
// store (spec.md §4.4).
func (c *CPU) writeCP0(idx uint32, val uint32) {
	switch idx {
	case cp0Cause:
		c.cp0[cp0Cause] = (c.cp0[cp0Cause] &^ (0x3 << 8)) | (val & (0x3 << 8))
	case cp0Random, cp0PRId, cp0BadVAddr, cp0CacheErr:
		// read-only
	case cp0PageMask:
		if !isLegalPageMask(val) {
			c.log.Warn("illegal PageMask write", "value", val)
			val = 0
		}
		c.cp0[cp0PageMask] = val
	case cp0Index:
		c.cp0[cp0Index] = val & 0x8000003f
	case cp0Wired:
		c.cp0[cp0Wired] = val
		c.cp0[cp0Random] = maxTLBIndex
	case cp0Compare:
		c.cp0[cp0Compare] = val
		c.setIPBit(7, false)
	default:
		c.cp0[idx] = val
	}
}

// execERET restores PC and clears EXL/ERL (spec.md §4.4): from
// ErrorEPC if ERL was set (a cold/cache error return), otherwise from
// EPC. A reservation never survives an exception return.
func (c *CPU) execERET() fault {
	if c.branch == branchPassed {
		c.log.Warn("ERET executed in a branch-delay slot")
	}
	if c.statusERL() {
		c.SetPC(c.cp0[cp0ErrorEPC])
		c.setStatusERL(false)
	} else {
		c.SetPC(c.cp0[cp0EPC])
		c.setStatusEXL(false)
	}
	if c.llbit {
		c.llWatch.deregister(c, c.lladdr)
	}
	c.llbit = false
	return faultNone
}
