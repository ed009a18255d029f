/*
   TLB-backed address translator (component B).

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

// tlbEntry is one of the 48 software TLB entries: a pair of even/odd
// sub-pages sharing a VPN2/ASID/PageMask/global tag (spec.md §3.2).
type tlbEntry struct {
	vpn2     uint32
	pageMask uint32
	asid     uint32
	global   bool

	pfn  [2]uint32 // physical frame number, even/odd sub-page
	valid [2]bool
	dirty [2]bool
}

// segment classifies a 32-bit virtual address into one of the fixed
// kuseg/kseg0/kseg1/kseg2/kseg3 regions (spec.md §6.1).
type segment int

const (
	segKuseg segment = iota
	segKseg0
	segKseg1
	segKseg2
	segKseg3
)

func classify(vaddr uint32) segment {
	switch {
	case vaddr < 0x80000000:
		return segKuseg
	case vaddr < 0xA0000000:
		return segKseg0
	case vaddr < 0xC0000000:
		return segKseg1
	case vaddr < 0xE0000000:
		return segKseg2
	default:
		return segKseg3
	}
}

// accessKind distinguishes why an address is being translated, so the
// translator can raise AdEL vs AdES and TLBL vs TLBS on a miss.
type accessKind int

const (
	accessLoad accessKind = iota
	accessStore
	accessFetch
)

// translate converts a virtual address to a physical address per
// spec.md §4.2. kseg0/kseg1 are direct-mapped (no TLB lookup); kuseg,
// kseg2, and kseg3 require a TLB hit, subject to privilege checks.
func (c *CPU) translate(vaddr uint32, kind accessKind) (uint32, fault) {
	if vaddr&0x3 != 0 && kind == accessFetch {
		return 0, faultAdEL
	}

	seg := classify(vaddr)
	switch seg {
	case segKseg0:
		if c.statusKSU() != ksuKernel && !c.statusEXL() && !c.statusERL() {
			return 0, addrFault(kind)
		}
		return vaddr - 0x80000000, faultNone
	case segKseg1:
		if c.statusKSU() != ksuKernel && !c.statusEXL() && !c.statusERL() {
			return 0, addrFault(kind)
		}
		return vaddr - 0xA0000000, faultNone
	case segKuseg:
		// kuseg is reachable from any privilege level.
	case segKseg2, segKseg3:
		if c.statusKSU() != ksuKernel && !c.statusEXL() && !c.statusERL() {
			return 0, addrFault(kind)
		}
	}

	idx, sub, ok := c.tlbLookup(vaddr)
	if !ok {
		c.cp0[cp0BadVAddr] = vaddr
		c.setContextBadVPN2(vaddr &^ 0x1fff)
		c.setEntryHiVPN2(vaddr &^ 0x1fff)
		if kind == accessStore {
			return 0, faultTLBSRefill
		}
		return 0, faultTLBLRefill
	}
	e := &c.tlb[idx]
	if !e.valid[sub] {
		c.cp0[cp0BadVAddr] = vaddr
		c.setContextBadVPN2(vaddr &^ 0x1fff)
		c.setEntryHiVPN2(vaddr &^ 0x1fff)
		if kind == accessStore {
			return 0, faultTLBS
		}
		return 0, faultTLBL
	}
	if kind == accessStore && !e.dirty[sub] {
		c.cp0[cp0BadVAddr] = vaddr
		c.setContextBadVPN2(vaddr &^ 0x1fff)
		c.setEntryHiVPN2(vaddr &^ 0x1fff)
		return 0, faultMod
	}

	pageSize := (e.pageMask | 0x1fff) + 1
	offset := vaddr & (pageSize/2 - 1)
	return (e.pfn[sub] &^ (pageSize/2 - 1)) | offset, faultNone
}

func addrFault(kind accessKind) fault {
	if kind == accessStore {
		return faultAdES
	}
	return faultAdEL
}

// tlbLookup finds the entry (and even/odd sub-page) matching vaddr
// under the current ASID, honoring each entry's PageMask and global
// bit. Returns ok=false on a miss.
func (c *CPU) tlbLookup(vaddr uint32) (index int, sub int, ok bool) {
	asid := c.entryHiASID()
	for i := range c.tlb {
		e := &c.tlb[i]
		if e.pfn[0] == 0 && e.pfn[1] == 0 && !e.valid[0] && !e.valid[1] && e.vpn2 == 0 && !e.global {
			continue
		}
		pageSize := (e.pageMask | 0x1fff) + 1
		mask := ^(pageSize - 1)
		if (vaddr & mask) != (e.vpn2 & mask) {
			continue
		}
		if !e.global && e.asid != asid {
			continue
		}
		subPage := 0
		if vaddr&(pageSize/2) != 0 {
			subPage = 1
		}
		return i, subPage, true
	}
	return 0, 0, false
}

// tlbWriteIndexed implements TLBWI (spec.md §4.5): writes EntryHi/
// EntryLo0/EntryLo1/PageMask into tlb[Index]. An Index above
// maxTLBIndex writes nothing and logs a warning.
func (c *CPU) tlbWriteIndexed() fault {
	idx := int(c.cp0[cp0Index] & 0x3f)
	c.tlbWrite(idx)
	return faultNone
}

// tlbWriteRandom implements TLBWR: writes into tlb[Random].
func (c *CPU) tlbWriteRandom() fault {
	idx := int(c.cp0[cp0Random] & 0x3f)
	c.tlbWrite(idx)
	return faultNone
}

func (c *CPU) tlbWrite(idx int) {
	if idx > maxTLBIndex {
		c.log.Warn("TLB write index out of range", "index", idx)
		return
	}
	if !isLegalPageMask(c.cp0[cp0PageMask]) {
		c.log.Warn("illegal PageMask on TLB write", "pagemask", c.cp0[cp0PageMask], "index", idx)
	}
	e := &c.tlb[idx]
	e.vpn2 = c.entryHiVPN2()
	e.pageMask = c.cp0[cp0PageMask]
	e.asid = c.entryHiASID()
	e.global = c.cp0[cp0EntryLo0]&0x1 != 0 && c.cp0[cp0EntryLo1]&0x1 != 0
	e.pfn[0] = (c.cp0[cp0EntryLo0] &^ 0x3f) << 6
	e.valid[0] = c.cp0[cp0EntryLo0]&0x2 != 0
	e.dirty[0] = c.cp0[cp0EntryLo0]&0x4 != 0
	e.pfn[1] = (c.cp0[cp0EntryLo1] &^ 0x3f) << 6
	e.valid[1] = c.cp0[cp0EntryLo1]&0x2 != 0
	e.dirty[1] = c.cp0[cp0EntryLo1]&0x4 != 0
}

// tlbRead implements TLBR: loads tlb[Index] back into EntryHi/Lo0/
// Lo1/PageMask. An Index above maxTLBIndex zeroes all four registers.
func (c *CPU) tlbRead() fault {
	idx := int(c.cp0[cp0Index] & 0x3f)
	if idx > maxTLBIndex {
		c.cp0[cp0EntryHi], c.cp0[cp0PageMask] = 0, 0
		c.cp0[cp0EntryLo0], c.cp0[cp0EntryLo1] = 0, 0
		return faultNone
	}
	e := &c.tlb[idx]
	c.setEntryHiVPN2(e.vpn2)
	c.cp0[cp0EntryHi] = (c.cp0[cp0EntryHi] &^ 0xff) | e.asid
	c.cp0[cp0PageMask] = e.pageMask

	g := uint32(0)
	if e.global {
		g = 0x1
	}
	c.cp0[cp0EntryLo0] = (e.pfn[0] >> 6) | boolBit(e.valid[0], 1) | boolBit(e.dirty[0], 2) | g
	c.cp0[cp0EntryLo1] = (e.pfn[1] >> 6) | boolBit(e.valid[1], 1) | boolBit(e.dirty[1], 2) | g
	return faultNone
}

// tlbProbe implements TLBP: sets Index to the matching entry or the
// sign bit if no entry matches (spec.md §4.5).
func (c *CPU) tlbProbe() fault {
	idx, _, ok := c.tlbLookup(c.entryHiVPN2())
	if !ok {
		c.cp0[cp0Index] = tlbProbeNoMatch
		return faultNone
	}
	c.cp0[cp0Index] = uint32(idx)
	return faultNone
}

func boolBit(b bool, shift uint) uint32 {
	if b {
		return 1 << shift
	}
	return 0
}

// TLBEntrySnapshot reports one TLB slot's contents for the console's
// `tlbd` command.
type TLBEntrySnapshot struct {
	Index    int
	VPN2     uint32
	PageMask uint32
	ASID     uint32
	Global   bool
	PFN      [2]uint32
	Valid    [2]bool
	Dirty    [2]bool
}

// TLBEntries returns every TLB slot's contents, in index order.
func (c *CPU) TLBEntries() []TLBEntrySnapshot {
	out := make([]TLBEntrySnapshot, numTLBEntries)
	for i := range c.tlb {
		e := &c.tlb[i]
		out[i] = TLBEntrySnapshot{
			Index: i, VPN2: e.vpn2, PageMask: e.pageMask, ASID: e.asid,
			Global: e.global, PFN: e.pfn, Valid: e.valid, Dirty: e.dirty,
		}
	}
	return out
}

// tickRandom decrements the Random register toward Wired each cycle,
// wrapping to maxTLBIndex, per spec.md §3.1 ("Random cycles through
// [Wired,47]").
func (c *CPU) tickRandom() {
	wired := c.cp0[cp0Wired] & 0x3f
	r := c.cp0[cp0Random]
	if r <= wired {
		r = maxTLBIndex
	} else {
		r--
	}
	c.cp0[cp0Random] = r
}
