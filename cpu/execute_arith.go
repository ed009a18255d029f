/*
   SPECIAL-opcode dispatch and integer arithmetic/logical instructions.

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

import "math/bits"

// execSpecial fans out SPECIAL-opcode instructions by funct field.
// Unrecognized funct values raise RI rather than panicking (spec.md
// §4.5 "no 64-bit/doubleword instructions": DSLL/DADD/etc fall
// through to the default case).
func (c *CPU) execSpecial(d *Decoded) fault {
	switch d.Funct {
	case fnSLL:
		c.setReg(d.Rd, c.reg(d.Rt)<<d.Shamt)
	case fnSRL:
		c.setReg(d.Rd, c.reg(d.Rt)>>d.Shamt)
	case fnSRA:
		c.setReg(d.Rd, uint32(int32(c.reg(d.Rt))>>d.Shamt))
	case fnSLLV:
		c.setReg(d.Rd, c.reg(d.Rt)<<(c.reg(d.Rs)&0x1f))
	case fnSRLV:
		c.setReg(d.Rd, c.reg(d.Rt)>>(c.reg(d.Rs)&0x1f))
	case fnSRAV:
		c.setReg(d.Rd, uint32(int32(c.reg(d.Rt))>>(c.reg(d.Rs)&0x1f)))
	case fnJR:
		return c.execJR(d)
	case fnJALR:
		return c.execJALR(d)
	case fnSYSCALL:
		return faultSys
	case fnBREAK:
		return faultBp
	case fnMFHI:
		c.setReg(d.Rd, c.hi)
	case fnMTHI:
		c.hi = c.reg(d.Rs)
	case fnMFLO:
		c.setReg(d.Rd, c.lo)
	case fnMTLO:
		c.lo = c.reg(d.Rs)
	case fnMULT:
		return c.execMULT(d)
	case fnMULTU:
		return c.execMULTU(d)
	case fnDIV:
		return c.execDIV(d)
	case fnDIVU:
		return c.execDIVU(d)
	case fnADD:
		return c.execADD(d)
	case fnADDU:
		c.setReg(d.Rd, c.reg(d.Rs)+c.reg(d.Rt))
	case fnSUB:
		return c.execSUB(d)
	case fnSUBU:
		c.setReg(d.Rd, c.reg(d.Rs)-c.reg(d.Rt))
	case fnAND:
		c.setReg(d.Rd, c.reg(d.Rs)&c.reg(d.Rt))
	case fnOR:
		c.setReg(d.Rd, c.reg(d.Rs)|c.reg(d.Rt))
	case fnXOR:
		c.setReg(d.Rd, c.reg(d.Rs)^c.reg(d.Rt))
	case fnNOR:
		c.setReg(d.Rd, ^(c.reg(d.Rs) | c.reg(d.Rt)))
	case fnSLT:
		c.setReg(d.Rd, boolBit(int32(c.reg(d.Rs)) < int32(c.reg(d.Rt)), 0))
	case fnSLTU:
		c.setReg(d.Rd, boolBit(c.reg(d.Rs) < c.reg(d.Rt), 0))
	default:
		return faultRI
	}
	return faultNone
}

// execADD and execSUB trap to Ov on signed overflow (spec.md §4.5);
// their unsigned counterparts never do, which is why ADDU/SUBU are
// handled inline above instead of sharing this path.
func (c *CPU) execADD(d *Decoded) fault {
	a, b := int32(c.reg(d.Rs)), int32(c.reg(d.Rt))
	sum := a + b
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return faultOv
	}
	c.setReg(d.Rd, uint32(sum))
	return faultNone
}

func (c *CPU) execSUB(d *Decoded) fault {
	a, b := int32(c.reg(d.Rs)), int32(c.reg(d.Rt))
	diff := a - b
	if (a >= 0) != (b >= 0) && (diff >= 0) != (a >= 0) {
		return faultOv
	}
	c.setReg(d.Rd, uint32(diff))
	return faultNone
}

// execSpecial2 fans out the SPECIAL2 opcode: MUL and the
// multiply-accumulate/count instructions (spec.md §4.5, §9).
func (c *CPU) execSpecial2(d *Decoded) fault {
	switch d.Funct {
	case fn2MUL:
		p := int64(int32(c.reg(d.Rs))) * int64(int32(c.reg(d.Rt)))
		c.setReg(d.Rd, uint32(p))
	case fn2MADD:
		acc := int64(uint64(c.hi)<<32 | uint64(c.lo))
		acc += int64(int32(c.reg(d.Rs))) * int64(int32(c.reg(d.Rt)))
		c.hi = uint32(uint64(acc) >> 32)
		c.lo = uint32(acc)
	case fn2MADDU:
		acc := uint64(c.hi)<<32 | uint64(c.lo)
		acc += uint64(c.reg(d.Rs)) * uint64(c.reg(d.Rt))
		c.hi = uint32(acc >> 32)
		c.lo = uint32(acc)
	case fn2MSUB:
		acc := int64(uint64(c.hi)<<32 | uint64(c.lo))
		acc -= int64(int32(c.reg(d.Rs))) * int64(int32(c.reg(d.Rt)))
		c.hi = uint32(uint64(acc) >> 32)
		c.lo = uint32(acc)
	case fn2MSUBU:
		acc := uint64(c.hi)<<32 | uint64(c.lo)
		acc -= uint64(c.reg(d.Rs)) * uint64(c.reg(d.Rt))
		c.hi = uint32(acc >> 32)
		c.lo = uint32(acc)
	case fn2CLZ:
		c.setReg(d.Rd, uint32(bits.LeadingZeros32(c.reg(d.Rs))))
	case fn2CLO:
		c.setReg(d.Rd, uint32(bits.LeadingZeros32(^c.reg(d.Rs))))
	default:
		return faultRI
	}
	return faultNone
}

// execMULT/execMULTU/execDIV/execDIVU target HI/LO, not a GPR, per
// spec.md §4.5.
func (c *CPU) execMULT(d *Decoded) fault {
	p := int64(int32(c.reg(d.Rs))) * int64(int32(c.reg(d.Rt)))
	c.lo = uint32(p)
	c.hi = uint32(p >> 32)
	return faultNone
}

func (c *CPU) execMULTU(d *Decoded) fault {
	p := uint64(c.reg(d.Rs)) * uint64(c.reg(d.Rt))
	c.lo = uint32(p)
	c.hi = uint32(p >> 32)
	return faultNone
}

func (c *CPU) execDIV(d *Decoded) fault {
	a, b := int32(c.reg(d.Rs)), int32(c.reg(d.Rt))
	if b == 0 {
		c.lo, c.hi = 0, 0
		return faultNone
	}
	c.lo = uint32(a / b)
	c.hi = uint32(a % b)
	return faultNone
}

func (c *CPU) execDIVU(d *Decoded) fault {
	a, b := c.reg(d.Rs), c.reg(d.Rt)
	if b == 0 {
		c.lo, c.hi = 0, 0
		return faultNone
	}
	c.lo = a / b
	c.hi = a % b
	return faultNone
}

// --- immediate-form arithmetic/logical (primary opcodes) ---

func (c *CPU) execADDI(d *Decoded) fault {
	a, b := int32(c.reg(d.Rs)), d.SImm
	sum := a + b
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return faultOv
	}
	c.setReg(d.Rt, uint32(sum))
	return faultNone
}

func (c *CPU) execADDIU(d *Decoded) fault {
	c.setReg(d.Rt, c.reg(d.Rs)+d.signExtImm())
	return faultNone
}

func (c *CPU) execSLTI(d *Decoded) fault {
	c.setReg(d.Rt, boolBit(int32(c.reg(d.Rs)) < d.SImm, 0))
	return faultNone
}

func (c *CPU) execSLTIU(d *Decoded) fault {
	c.setReg(d.Rt, boolBit(c.reg(d.Rs) < d.signExtImm(), 0))
	return faultNone
}

func (c *CPU) execANDI(d *Decoded) fault {
	c.setReg(d.Rt, c.reg(d.Rs)&d.zeroExtImm())
	return faultNone
}

func (c *CPU) execORI(d *Decoded) fault {
	c.setReg(d.Rt, c.reg(d.Rs)|d.zeroExtImm())
	return faultNone
}

func (c *CPU) execXORI(d *Decoded) fault {
	c.setReg(d.Rt, c.reg(d.Rs)^d.zeroExtImm())
	return faultNone
}

func (c *CPU) execLUI(d *Decoded) fault {
	c.setReg(d.Rt, d.zeroExtImm()<<16)
	return faultNone
}
