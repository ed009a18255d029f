/*
   Engine run loop: the goroutine wrapper around one or more CPUs, the
   shared memory bus, and the event scheduler.

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

// Package engine drives a set of cpu.CPU instances: a single goroutine
// that round-robins Step() across cores while running, advances the
// event scheduler between steps, and applies commands from the
// console over a channel. The console never touches CPU state
// directly; it only ever talks to Core through Command.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/r4000sim/r4000sim/cpu"
	"github.com/r4000sim/r4000sim/events"
	"github.com/r4000sim/r4000sim/membus"
)

// CommandKind selects the operation a Command requests.
type CommandKind int

const (
	CmdRun CommandKind = iota
	CmdStop
	CmdStep
	CmdGoto
	CmdSetBreak
	CmdClearBreak
)

// Command is the sole channel of control the console has over a
// running Core.
type Command struct {
	Kind  CommandKind
	CPU   int
	Addr  uint32
	Count int
}

// StopReason explains why the run loop left the running state, for
// the console to report back to the user.
type StopReason int

const (
	StopNone StopReason = iota
	StopRequested
	StopBreakpoint
	StopStepCount
	StopHalted
)

// Core owns every cpu.CPU instance in a configuration plus the shared
// bus and event list. Nothing outside the run goroutine ever touches
// CPU state once Start has been called.
type Core struct {
	cpus []*cpu.CPU
	bus  *membus.Bus
	evs  *events.List
	log  *slog.Logger

	cmd  chan Command
	done chan struct{}
	wg   sync.WaitGroup

	running       bool
	stepRemaining int
	cur           int
	lastStop      StopReason
	lastStopCPU   int

	active atomic.Bool // mirrors running for cross-goroutine polling
}

// NewCore constructs a Core over an already-configured set of CPUs
// sharing bus and evs.
func NewCore(cpus []*cpu.CPU, bus *membus.Bus, evs *events.List, log *slog.Logger) *Core {
	if log == nil {
		log = slog.Default()
	}
	return &Core{
		cpus: cpus,
		bus:  bus,
		evs:  evs,
		log:  log,
		cmd:  make(chan Command, 16),
		done: make(chan struct{}),
	}
}

// Commands returns the channel the console sends Commands on.
func (e *Core) Commands() chan<- Command { return e.cmd }

// LastStop reports why the engine most recently left the running
// state, and which CPU triggered it (for StopBreakpoint/StopHalted).
func (e *Core) LastStop() (StopReason, int) { return e.lastStop, e.lastStopCPU }

// Active reports whether the run loop is currently stepping CPUs or
// still has a queued Command to apply, safe to poll from any goroutine
// (the console uses it to block a `continue` command until the engine
// stops on its own).
func (e *Core) Active() bool { return len(e.cmd) > 0 || e.active.Load() }

// CPUs exposes the underlying CPU instances for the console's
// register/TLB/CP0 dump commands, which read state but never mutate
// it outside a Command.
func (e *Core) CPUs() []*cpu.CPU { return e.cpus }

// Start launches the run loop in its own goroutine.
func (e *Core) Start() {
	e.wg.Add(1)
	go e.run()
}

// Stop requests shutdown and waits (bounded) for the run goroutine to
// exit.
func (e *Core) Stop() {
	close(e.done)
	waited := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		e.log.Warn("engine shutdown timed out")
	}
}

func (e *Core) run() {
	defer e.wg.Done()
	for {
		if e.running {
			e.stepOnce()
		} else if e.evs.Pending() {
			e.evs.Advance(1)
		}
		e.active.Store(e.running)

		select {
		case <-e.done:
			e.log.Info("engine shut down")
			return
		default:
		}
		// active goes up before the command leaves the queue, so Active
		// never reads false between a send and the command's effect.
		if len(e.cmd) > 0 {
			e.active.Store(true)
			e.apply(<-e.cmd)
			e.active.Store(e.running)
		}
	}
}

func (e *Core) stepOnce() {
	if len(e.cpus) == 0 {
		e.running = false
		return
	}
	c := e.cpus[e.cur]
	if bp, hit := c.AtBreakpoint(); hit {
		e.running = false
		e.lastStop = StopBreakpoint
		e.lastStopCPU = e.cur
		e.log.Info("breakpoint hit", "cpu", e.cur, "pc", bp.PC)
		return
	}

	c.Step()
	e.evs.Advance(1)

	if c.Halted() {
		e.running = false
		e.lastStop = StopHalted
		e.lastStopCPU = e.cur
	}

	e.cur = (e.cur + 1) % len(e.cpus)

	if e.running && e.stepRemaining > 0 {
		e.stepRemaining--
		if e.stepRemaining == 0 {
			e.running = false
			e.lastStop = StopStepCount
		}
	}
}

func (e *Core) apply(c Command) {
	switch c.Kind {
	case CmdRun:
		e.running = true
		e.stepRemaining = 0
	case CmdStop:
		e.running = false
		e.lastStop = StopRequested
	case CmdStep:
		e.stepRemaining = c.Count
		if e.stepRemaining <= 0 {
			e.stepRemaining = 1
		}
		e.running = true
	case CmdGoto:
		if c.CPU >= 0 && c.CPU < len(e.cpus) {
			e.cpus[c.CPU].SetPC(c.Addr)
		}
	case CmdSetBreak:
		if c.CPU >= 0 && c.CPU < len(e.cpus) {
			e.cpus[c.CPU].SetBreakpoint(c.Addr, cpu.BreakSimulator)
		}
	case CmdClearBreak:
		if c.CPU >= 0 && c.CPU < len(e.cpus) {
			e.cpus[c.CPU].ClearBreakpoint(c.Addr)
		}
	}
}
