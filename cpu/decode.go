/*
   Instruction decoder (component A).

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

// Opcode field values relevant to dispatch (component E keys off these).
const (
	opSpecial  = 0x00
	opRegimm   = 0x01
	opJ        = 0x02
	opJAL      = 0x03
	opBEQ      = 0x04
	opBNE      = 0x05
	opBLEZ     = 0x06
	opBGTZ     = 0x07
	opADDI     = 0x08
	opADDIU    = 0x09
	opSLTI     = 0x0A
	opSLTIU    = 0x0B
	opANDI     = 0x0C
	opORI      = 0x0D
	opXORI     = 0x0E
	opLUI      = 0x0F
	opCOP0     = 0x10
	opBEQL     = 0x14
	opBNEL     = 0x15
	opBLEZL    = 0x16
	opBGTZL    = 0x17
	opSpecial2 = 0x1C
	opLB       = 0x20
	opLH       = 0x21
	opLWL      = 0x22
	opLW       = 0x23
	opLBU      = 0x24
	opLHU      = 0x25
	opLWR      = 0x26
	opSB       = 0x28
	opSH       = 0x29
	opSWL      = 0x2A
	opSW       = 0x2B
	opSWR      = 0x2E
	opLL       = 0x30
	opSC       = 0x38
)

// SPECIAL (opcode 0) funct field values.
const (
	fnSLL     = 0x00
	fnSRL     = 0x02
	fnSRA     = 0x03
	fnSLLV    = 0x04
	fnSRLV    = 0x06
	fnSRAV    = 0x07
	fnJR      = 0x08
	fnJALR    = 0x09
	fnSYSCALL = 0x0C
	fnBREAK   = 0x0D
	fnMFHI    = 0x10
	fnMTHI    = 0x11
	fnMFLO    = 0x12
	fnMTLO    = 0x13
	fnMULT    = 0x18
	fnMULTU   = 0x19
	fnDIV     = 0x1A
	fnDIVU    = 0x1B
	fnADD     = 0x20
	fnADDU    = 0x21
	fnSUB     = 0x22
	fnSUBU    = 0x23
	fnAND     = 0x24
	fnOR      = 0x25
	fnXOR     = 0x26
	fnNOR     = 0x27
	fnSLT     = 0x2A
	fnSLTU    = 0x2B
)

// SPECIAL2 (opcode 0x1C) funct field values.
const (
	fn2MADD  = 0x00
	fn2MADDU = 0x01
	fn2MUL   = 0x02
	fn2MSUB  = 0x04
	fn2MSUBU = 0x05
	fn2CLZ   = 0x20
	fn2CLO   = 0x21
)

// REGIMM (opcode 1) rt field values.
const (
	riBLTZ   = 0x00
	riBGEZ   = 0x01
	riBLTZAL = 0x10
	riBGEZAL = 0x11
)

// COP0 (opcode 0x10) rs field values and CO-bit funct values.
const (
	cop0MF   = 0x00
	cop0MT   = 0x04
	cop0CO   = 0x10
	coTLBR   = 0x01
	coTLBWI  = 0x02
	coTLBWR  = 0x06
	coTLBP   = 0x08
	coERET   = 0x18
	coWAIT   = 0x20
)

// Decoded is the fully-parsed form of one 32-bit instruction word.
// Decode has no receiver: it owns no state and depends on nothing but
// its argument.
type Decoded struct {
	Word   uint32
	Op     uint32
	Rs     uint32
	Rt     uint32
	Rd     uint32
	Shamt  uint32
	Funct  uint32
	Imm    uint16
	SImm   int32
	Target uint32
}

// Decode splits a 32-bit instruction word into its fixed-format
// fields. It never fails: an unrecognized opcode/funct combination is
// a decoder no-op, left for the execute unit to reject with RI.
func Decode(word uint32) Decoded {
	d := Decoded{
		Word:  word,
		Op:    word >> 26,
		Rs:    (word >> 21) & 0x1f,
		Rt:    (word >> 16) & 0x1f,
		Rd:    (word >> 11) & 0x1f,
		Shamt: (word >> 6) & 0x1f,
		Funct: word & 0x3f,
		Imm:   uint16(word),
	}
	d.SImm = int32(int16(d.Imm))
	d.Target = word & 0x03ffffff
	return d
}

func (d *Decoded) zeroExtImm() uint32 { return uint32(d.Imm) }
func (d *Decoded) signExtImm() uint32 { return uint32(d.SImm) }
