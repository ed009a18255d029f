/*
   Load/store instructions, including the unaligned LWL/LWR/SWL/SWR
   merge tables and the LL/SC atomic pair.

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

// Big-endian merge tables for the unaligned word accesses (spec.md
// §6.3), indexed by vAddr&3. LWL/LWR meet in the middle of a word;
// SWL/SWR are each other's mirror image.
var (
	lwlShift = [4]uint32{0, 8, 16, 24}
	lwlMask  = [4]uint32{0x00000000, 0x000000ff, 0x0000ffff, 0x00ffffff}
	lwrShift = [4]uint32{24, 16, 8, 0}
	lwrMask  = [4]uint32{0xffffff00, 0xffff0000, 0xff000000, 0x00000000}

	swlShift = [4]uint32{0, 8, 16, 24}
	swlMask  = [4]uint32{0x00000000, 0xff000000, 0xffff0000, 0xffffff00}
	swrShift = [4]uint32{24, 16, 8, 0}
	swrMask  = [4]uint32{0x00ffffff, 0x0000ffff, 0x000000ff, 0x00000000}
)

func (c *CPU) execLB(d *Decoded) fault {
	v, f := c.readByte(c.reg(d.Rs) + d.signExtImm())
	if f != faultNone {
		return f
	}
	c.setReg(d.Rt, uint32(int32(int8(v))))
	return faultNone
}

func (c *CPU) execLBU(d *Decoded) fault {
	v, f := c.readByte(c.reg(d.Rs) + d.signExtImm())
	if f != faultNone {
		return f
	}
	c.setReg(d.Rt, uint32(v))
	return faultNone
}

func (c *CPU) execLH(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	if vaddr&0x1 != 0 {
		return faultAdEL
	}
	v, f := c.readHalf(vaddr)
	if f != faultNone {
		return f
	}
	c.setReg(d.Rt, uint32(int32(int16(v))))
	return faultNone
}

func (c *CPU) execLHU(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	if vaddr&0x1 != 0 {
		return faultAdEL
	}
	v, f := c.readHalf(vaddr)
	if f != faultNone {
		return f
	}
	c.setReg(d.Rt, uint32(v))
	return faultNone
}

func (c *CPU) execLW(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	if vaddr&0x3 != 0 {
		return faultAdEL
	}
	v, f := c.readWord(vaddr)
	if f != faultNone {
		return f
	}
	c.setReg(d.Rt, v)
	return faultNone
}

func (c *CPU) execSB(d *Decoded) fault {
	return c.writeByte(c.reg(d.Rs)+d.signExtImm(), byte(c.reg(d.Rt)))
}

func (c *CPU) execSH(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	if vaddr&0x1 != 0 {
		return faultAdES
	}
	return c.writeHalf(vaddr, uint16(c.reg(d.Rt)))
}

func (c *CPU) execSW(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	if vaddr&0x3 != 0 {
		return faultAdES
	}
	return c.writeWord(vaddr, c.reg(d.Rt))
}

func (c *CPU) execLWL(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	paddr, f := c.translate(vaddr, accessLoad)
	if f != faultNone {
		return f
	}
	word, ok := c.bus.ReadWord(paddr &^ 0x3)
	if !ok {
		return faultAdEL
	}
	b := vaddr & 0x3
	c.setReg(d.Rt, (c.reg(d.Rt)&lwlMask[b])|(word<<lwlShift[b]))
	return faultNone
}

func (c *CPU) execLWR(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	paddr, f := c.translate(vaddr, accessLoad)
	if f != faultNone {
		return f
	}
	word, ok := c.bus.ReadWord(paddr &^ 0x3)
	if !ok {
		return faultAdEL
	}
	b := vaddr & 0x3
	c.setReg(d.Rt, (c.reg(d.Rt)&lwrMask[b])|(word>>lwrShift[b]))
	return faultNone
}

func (c *CPU) execSWL(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	paddr, f := c.translate(vaddr, accessStore)
	if f != faultNone {
		return f
	}
	aligned := paddr &^ 0x3
	word, ok := c.bus.ReadWord(aligned)
	if !ok {
		return faultAdES
	}
	b := vaddr & 0x3
	word = (word & swlMask[b]) | (c.reg(d.Rt) >> swlShift[b])
	if !c.bus.WriteWord(aligned, word) {
		return faultAdES
	}
	c.llWatch.breakOthers(c, aligned)
	return faultNone
}

func (c *CPU) execSWR(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	paddr, f := c.translate(vaddr, accessStore)
	if f != faultNone {
		return f
	}
	aligned := paddr &^ 0x3
	word, ok := c.bus.ReadWord(aligned)
	if !ok {
		return faultAdES
	}
	b := vaddr & 0x3
	word = (word & swrMask[b]) | (c.reg(d.Rt) << swrShift[b])
	if !c.bus.WriteWord(aligned, word) {
		return faultAdES
	}
	c.llWatch.breakOthers(c, aligned)
	return faultNone
}

// execLL implements Load Linked: an ordinary load plus registering
// this CPU's reservation on the physical address (spec.md §4.5).
func (c *CPU) execLL(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	if vaddr&0x3 != 0 {
		return faultAdEL
	}
	paddr, f := c.translate(vaddr, accessLoad)
	if f != faultNone {
		return f
	}
	word, ok := c.bus.ReadWord(paddr)
	if !ok {
		return faultAdEL
	}
	c.setReg(d.Rt, word)
	c.llbit = true
	c.lladdr = paddr &^ 0x3
	c.llWatch.register(c, c.lladdr)
	return faultNone
}

// execSC implements Store Conditional: the store only takes effect if
// llbit is still set, and rt is rewritten to report success (1) or
// failure (0) in either case (spec.md §4.5).
func (c *CPU) execSC(d *Decoded) fault {
	vaddr := c.reg(d.Rs) + d.signExtImm()
	if vaddr&0x3 != 0 {
		return faultAdES
	}
	if !c.llbit {
		c.setReg(d.Rt, 0)
		return faultNone
	}
	paddr, f := c.translate(vaddr, accessStore)
	if f != faultNone {
		return f
	}
	if paddr&^0x3 != c.lladdr {
		c.log.Warn("SC address differs from LL reservation", "ll", c.lladdr, "sc", paddr&^0x3)
	}
	ok := c.bus.WriteWord(paddr, c.reg(d.Rt))
	c.llWatch.deregister(c, c.lladdr)
	c.llbit = false
	if !ok {
		return faultAdES
	}
	c.llWatch.breakOthers(c, paddr&^0x3)
	c.setReg(d.Rt, 1)
	return faultNone
}
