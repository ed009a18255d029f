/*
   CP0 system coprocessor: register indices, bitfield accessors, and
   the architectural constants from spec.md §6.

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

// CP0 register indices (spec.md §3.1, §6.2).
const (
	cp0Index = iota
	cp0Random
	cp0EntryLo0
	cp0EntryLo1
	cp0Context
	cp0PageMask
	cp0Wired
	cp0Reserved7
	cp0BadVAddr
	cp0Count
	cp0EntryHi
	cp0Compare
	cp0Status
	cp0Cause
	cp0EPC
	cp0PRId
	cp0Config
	cp0LLAddr
	cp0WatchLo
	cp0WatchHi
	cp0Reserved20
	cp0Reserved21
	cp0Reserved22
	cp0Reserved23
	cp0Reserved24
	cp0Reserved25
	cp0CacheErr
	cp0TagLo
	cp0TagHi
	cp0ErrorEPC
	cp0Reserved30
	cp0Reserved31
)

// Status register fields.
const (
	statusIE  uint32 = 1 << 0
	statusEXL uint32 = 1 << 1
	statusERL uint32 = 1 << 2
	statusKSU uint32 = 0x3 << 3
	statusIM  uint32 = 0xff << 8
	statusDE  uint32 = 1 << 16
	statusCE  uint32 = 1 << 17 // unused on R4000, reserved here
	statusTS  uint32 = 1 << 21
	statusBEV uint32 = 1 << 22
	statusCU0 uint32 = 1 << 28
	statusCU1 uint32 = 1 << 29
	statusCU2 uint32 = 1 << 30
	statusCU3 uint32 = 1 << 31

	ksuKernel     uint32 = 0
	ksuSupervisor uint32 = 1
	ksuUser       uint32 = 2
)

// Cause register fields.
const (
	causeExcCodeShift = 2
	causeExcCodeMask  = 0x1f << causeExcCodeShift
	causeIPShift      = 8
	causeIPMask       = 0xff << causeIPShift
	causeCEShift      = 28
	causeCEMask       = 0x3 << causeCEShift
	causeBD           = 1 << 31
)

// ExcCode values delivered into Cause (spec.md §4.6).
const (
	excInt    = 0
	excMod    = 1
	excTLBL   = 2
	excTLBS   = 3
	excAdEL   = 4
	excAdES   = 5
	excSys    = 8
	excBp     = 9
	excRI     = 10
	excCpU    = 11
	excOv     = 12
	excTr     = 13
	excWATCH  = 23
	excReset  = -1 // delivered via SetPC(resetVector) directly, never through Cause
)

// Architectural constants (spec.md §6.1).
const (
	resetVector  uint32 = 0xBFC00000
	bootExcBase  uint32 = 0xBFC00200
	normalExcBase uint32 = 0x80000000
	generalOffset uint32 = 0x180

	numTLBEntries = 48
	maxTLBIndex   = numTLBEntries - 1

	tlbProbeNoMatch uint32 = 0x80000000
)

// isLegalPageMask reports whether m is one of the 7 enumerated page
// sizes from spec.md §6.1, expressed as the raw upper bits a real
// PageMask register holds (bits 24:13).
func isLegalPageMask(m uint32) bool {
	switch m {
	case 0, 0x00006000, 0x0001E000, 0x0007E000, 0x001FE000, 0x007FE000, 0x01FFE000:
		return true
	default:
		return false
	}
}

// --- Status accessors ---

func (c *CPU) statusIE() bool  { return c.cp0[cp0Status]&statusIE != 0 }
func (c *CPU) statusEXL() bool { return c.cp0[cp0Status]&statusEXL != 0 }
func (c *CPU) statusERL() bool { return c.cp0[cp0Status]&statusERL != 0 }
func (c *CPU) statusBEV() bool { return c.cp0[cp0Status]&statusBEV != 0 }
func (c *CPU) statusTS() bool  { return c.cp0[cp0Status]&statusTS != 0 }

func (c *CPU) statusKSU() uint32 { return (c.cp0[cp0Status] & statusKSU) >> 3 }

func (c *CPU) setStatusEXL(v bool) {
	if v {
		c.cp0[cp0Status] |= statusEXL
	} else {
		c.cp0[cp0Status] &^= statusEXL
	}
}

func (c *CPU) setStatusERL(v bool) {
	if v {
		c.cp0[cp0Status] |= statusERL
	} else {
		c.cp0[cp0Status] &^= statusERL
	}
}

// cu0Usable implements spec.md §4.4: CP0 is usable iff Status.CU0=1
// OR the CPU is currently in kernel mode (or EXL or ERL forces
// kernel privilege).
func (c *CPU) cu0Usable() bool {
	if c.cp0[cp0Status]&statusCU0 != 0 {
		return true
	}
	if c.statusEXL() || c.statusERL() {
		return true
	}
	return c.statusKSU() == ksuKernel
}

// --- Cause accessors ---

func (c *CPU) setExcCode(code uint32) {
	c.cp0[cp0Cause] = (c.cp0[cp0Cause] &^ causeExcCodeMask) | ((code << causeExcCodeShift) & causeExcCodeMask)
}

func (c *CPU) setCauseBD(v bool) {
	if v {
		c.cp0[cp0Cause] |= causeBD
	} else {
		c.cp0[cp0Cause] &^= causeBD
	}
}

func (c *CPU) causeIP() uint32 { return (c.cp0[cp0Cause] & causeIPMask) >> causeIPShift }

func (c *CPU) setIPBit(line uint32, v bool) {
	bit := uint32(1) << (causeIPShift + line)
	if v {
		c.cp0[cp0Cause] |= bit
	} else {
		c.cp0[cp0Cause] &^= bit
	}
}

func (c *CPU) statusIM() uint32 { return (c.cp0[cp0Status] & statusIM) >> causeIPShift }

// --- EntryHi / EntryLo / Context / PageMask accessors ---

func (c *CPU) entryHiASID() uint32 { return c.cp0[cp0EntryHi] & 0xff }
func (c *CPU) entryHiVPN2() uint32 { return c.cp0[cp0EntryHi] &^ 0x1fff }

func (c *CPU) setEntryHiVPN2(vpn2 uint32) {
	c.cp0[cp0EntryHi] = (c.cp0[cp0EntryHi] & 0x1fff) | (vpn2 &^ 0x1fff)
}

func (c *CPU) setContextBadVPN2(vpn2 uint32) {
	c.cp0[cp0Context] = (c.cp0[cp0Context] & 0xff800000) | ((vpn2 >> 9) & 0x007ffff0)
}

// --- WatchLo / WatchHi ---

// watchAddr recomputes the cached 8-byte-aligned watch address from
// WatchLo/WatchHi, per spec.md §4.4 ("MTC0 WatchLo/Hi: recompute the
// cached watch address").
func (c *CPU) watchAddr() uint32 {
	return ((c.cp0[cp0WatchHi] & 0xf) << 28) | (c.cp0[cp0WatchLo] &^ 0x7)
}

func (c *CPU) watchReadEnabled() bool  { return c.cp0[cp0WatchLo]&0x2 != 0 }
func (c *CPU) watchWriteEnabled() bool { return c.cp0[cp0WatchLo]&0x1 != 0 }
