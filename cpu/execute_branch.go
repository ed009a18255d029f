/*
   Jump and branch instructions (REGIMM dispatch plus J/JAL/BEQ/BNE/
   BLEZ/BGTZ/JR/JALR).

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

// branchTargetPC computes a PC-relative branch target: the delay
// slot's address plus the sign-extended, word-aligned offset.
func (c *CPU) branchTargetPC(d *Decoded) uint32 {
	return c.pc + 4 + uint32(d.SImm<<2)
}

func (c *CPU) execJ(d *Decoded) fault {
	c.takeBranch((c.pc & 0xf0000000) | (d.Target << 2))
	return faultNone
}

func (c *CPU) execJAL(d *Decoded) fault {
	c.setReg(31, c.pc+8)
	c.takeBranch((c.pc & 0xf0000000) | (d.Target << 2))
	return faultNone
}

func (c *CPU) execJR(d *Decoded) fault {
	c.takeBranch(c.reg(d.Rs))
	return faultNone
}

func (c *CPU) execJALR(d *Decoded) fault {
	target := c.reg(d.Rs)
	rd := d.Rd
	if rd == 0 {
		rd = 31
	}
	c.setReg(rd, c.pc+8)
	c.takeBranch(target)
	return faultNone
}

func (c *CPU) execBEQ(d *Decoded) fault {
	if c.reg(d.Rs) == c.reg(d.Rt) {
		c.takeBranch(c.branchTargetPC(d))
	}
	return faultNone
}

func (c *CPU) execBNE(d *Decoded) fault {
	if c.reg(d.Rs) != c.reg(d.Rt) {
		c.takeBranch(c.branchTargetPC(d))
	}
	return faultNone
}

func (c *CPU) execBLEZ(d *Decoded) fault {
	if int32(c.reg(d.Rs)) <= 0 {
		c.takeBranch(c.branchTargetPC(d))
	}
	return faultNone
}

func (c *CPU) execBGTZ(d *Decoded) fault {
	if int32(c.reg(d.Rs)) > 0 {
		c.takeBranch(c.branchTargetPC(d))
	}
	return faultNone
}

// execRegimm fans out the REGIMM opcode (BLTZ/BGEZ/BLTZAL/BGEZAL) by
// rt field.
func (c *CPU) execRegimm(d *Decoded) fault {
	taken := false
	switch d.Rt {
	case riBLTZ:
		taken = int32(c.reg(d.Rs)) < 0
	case riBGEZ:
		taken = int32(c.reg(d.Rs)) >= 0
	case riBLTZAL:
		taken = int32(c.reg(d.Rs)) < 0
		c.setReg(31, c.pc+8)
	case riBGEZAL:
		taken = int32(c.reg(d.Rs)) >= 0
		c.setReg(31, c.pc+8)
	default:
		return faultRI
	}
	if taken {
		c.takeBranch(c.branchTargetPC(d))
	}
	return faultNone
}
