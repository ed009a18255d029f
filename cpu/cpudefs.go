/*
   R4000 CPU definitions.

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

// Package cpu implements the R4000 fetch/decode/execute engine: the
// instruction decoder, TLB-backed address translator, CP0 system
// coprocessor, execute unit, exception pipeline, and per-cycle
// bookkeeping. Every architectural fact observable by guest software
// lives on a *CPU value; the only package-level mutable state is the
// shared LL/SC reservation registry (sharedLL), so multiple cores can
// be stepped independently.
package cpu

import "log/slog"

// Bus is the memory-mapped data/instruction path a CPU is wired to.
// Implemented by *membus.Bus; kept as an interface here so this
// package never imports membus (membus is the leaf, cpu is its
// consumer).
type Bus interface {
	ReadByte(paddr uint32) (byte, bool)
	WriteByte(paddr uint32, v byte) bool
	ReadHalf(paddr uint32) (uint16, bool)
	WriteHalf(paddr uint32, v uint16) bool
	ReadWord(paddr uint32) (uint32, bool)
	WriteWord(paddr uint32, v uint32) bool
}

// branchState tracks the two-cycle delay-slot countdown described in
// spec.md §3.1.
type branchState uint8

const (
	branchNone branchState = iota
	branchCond
	branchPassed
)

// breakKind distinguishes a watchpoint/breakpoint set by the
// simulator's own console from one set by an attached debugger.
type breakKind uint8

const (
	BreakSimulator breakKind = iota
	BreakDebugger
)

// Breakpoint is one entry in a CPU's per-instance breakpoint list.
type Breakpoint struct {
	PC   uint32
	Hits uint64
	Kind breakKind
}

// llWatch is a process-wide registry of CPUs holding an active
// load-linked reservation on a physical address, so a store from any
// core can break another core's reservation. Spec.md §5 calls this
// out explicitly as the one piece of state shared across CPU
// instances; it is guarded by a mutex because, unlike everything
// else, it can be touched by more than one core's goroutine when an
// embedder round-robins multiple *CPU values from multiple
// goroutines.
type llWatch struct {
	mu      chan struct{} // 1-buffered channel used as a cheap mutex
	holders map[uint32]map[*CPU]struct{}
}

func newLLWatch() *llWatch {
	w := &llWatch{mu: make(chan struct{}, 1), holders: make(map[uint32]map[*CPU]struct{})}
	w.mu <- struct{}{}
	return w
}

func (w *llWatch) lock()   { <-w.mu }
func (w *llWatch) unlock() { w.mu <- struct{}{} }

func (w *llWatch) register(cpu *CPU, paddr uint32) {
	w.lock()
	defer w.unlock()
	set, ok := w.holders[paddr]
	if !ok {
		set = make(map[*CPU]struct{})
		w.holders[paddr] = set
	}
	set[cpu] = struct{}{}
}

func (w *llWatch) deregister(cpu *CPU, paddr uint32) {
	w.lock()
	defer w.unlock()
	if set, ok := w.holders[paddr]; ok {
		delete(set, cpu)
		if len(set) == 0 {
			delete(w.holders, paddr)
		}
	}
}

// breakOthers clears llbit on every CPU other than writer that holds
// a reservation on paddr, the way a store from another core would
// invalidate a LL reservation on real hardware.
func (w *llWatch) breakOthers(writer *CPU, paddr uint32) {
	w.lock()
	holders := w.holders[paddr]
	delete(w.holders, paddr)
	w.unlock()
	for c := range holders {
		if c != writer {
			c.llbit = false
		}
	}
}

// watchPending captures a WATCH exception that fired while EXL=1 and
// was deferred per spec.md §4.3 / §9 (the "wpending" field). Nothing
// replays a deferred watch once EXL clears.
type watchPending struct {
	pending bool
	excAddr uint32
	addr    uint32
}

// CPU holds one R4000 core's entire architectural state: general
// registers, HI/LO, PC/PC_next, CP0, TLB, LL/SC tracking, breakpoints,
// cycle counters, and the shadow register file used for the
// "changed register" trace. Nothing here is package-global; an
// embedder constructs as many CPUs as it wants multi-core simulation.
type CPU struct {
	id int

	regs [32]uint32
	hi   uint32
	lo   uint32

	pc     uint32
	pcNext uint32

	branch       branchState
	branchTarget uint32
	excAddr      uint32

	cp0 [32]uint32

	tlb      [numTLBEntries]tlbEntry
	tlbHint  int
	randSeed int

	standby bool

	llbit   bool
	lladdr  uint32
	llWatch *llWatch

	watch watchPending

	kernelCycles uint64
	userCycles   uint64
	waitCycles   uint64

	irqCounts [8]uint64

	breakpoints []Breakpoint

	prevRegs [32]uint32
	prevCP0  [32]uint32
	prevHI   uint32
	prevLO   uint32

	bus Bus
	log *slog.Logger

	halted bool // host-owned cooperative halt flag, spec.md §5

	table [64]execFunc
}

// Option configures a CPU at construction time.
type Option func(*CPU)

// WithLogger directs diagnostic warnings at a specific logger instead
// of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *CPU) { c.log = l }
}

// WithID tags a CPU with an index, purely for log attribution in a
// multi-core configuration.
func WithID(id int) Option {
	return func(c *CPU) { c.id = id }
}

var sharedLL = newLLWatch()

// NewCPU constructs a CPU wired to bus and immediately resets it to
// the power-on state described in spec.md §6.1.
func NewCPU(bus Bus, opts ...Option) *CPU {
	c := &CPU{bus: bus, log: slog.Default(), llWatch: sharedLL}
	for _, o := range opts {
		o(c)
	}
	c.buildTable()
	c.Reset()
	return c
}

// ID returns the index this CPU was constructed with.
func (c *CPU) ID() int { return c.id }

// Reset restores hardware reset values (spec.md §6.1): PC at the
// reset vector, Status = ERL|BEV, PRId, Random=47, Wired=0.
func (c *CPU) Reset() {
	for i := range c.regs {
		c.regs[i] = 0
	}
	c.hi, c.lo = 0, 0
	c.pc = resetVector
	c.pcNext = resetVector + 4
	c.branch = branchNone
	c.excAddr = 0

	for i := range c.cp0 {
		c.cp0[i] = 0
	}
	c.cp0[cp0Status] = statusERL | statusBEV
	c.cp0[cp0PRId] = 0x00000400
	c.cp0[cp0Random] = uint32(maxTLBIndex)
	c.cp0[cp0Wired] = 0

	for i := range c.tlb {
		c.tlb[i] = tlbEntry{}
	}
	c.tlbHint = 0
	c.randSeed = maxTLBIndex

	c.standby = false
	c.llbit = false
	c.lladdr = 0
	c.watch = watchPending{}

	c.kernelCycles, c.userCycles, c.waitCycles = 0, 0, 0
	for i := range c.irqCounts {
		c.irqCounts[i] = 0
	}
	c.breakpoints = nil
	c.halted = false

	c.snapshotShadow()
}

// SetPC resets PC and PC_next synchronously (component H, spec.md
// §4.8): used by the console's `goto` command and by IPL.
func (c *CPU) SetPC(addr uint32) {
	c.pc = addr
	c.pcNext = addr + 4
	c.branch = branchNone
}

// PC returns the current program counter.
func (c *CPU) PC() uint32 { return c.pc }

// Halt requests a cooperative stop, observed at the next Step
// boundary (spec.md §5 Cancellation). Safe to call from any
// goroutine; it only ever sets a bool.
func (c *CPU) Halt() { c.halted = true }

// Halted reports whether a halt request is pending.
func (c *CPU) Halted() bool { return c.halted }

// Resume clears a pending halt request.
func (c *CPU) Resume() { c.halted = false }
