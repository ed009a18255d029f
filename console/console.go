/*
   Interactive console: the command surface a host operator drives
   the engine with. Deliberately a flat verb switch over
   whitespace-split tokens, not a tokenizer/grammar.

   Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
*/

package console

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/r4000sim/r4000sim/engine"
)

var verbs = []string{
	"step", "continue", "break", "bd", "br", "md", "id", "rd", "cp0d", "tlbd", "goto", "quit",
}

// REPL reads commands from stdin via liner and drives core through
// its Command channel. It targets one CPU at a time (cpu 0 by
// default); `cpu N` switches the target for later commands.
type REPL struct {
	core   *engine.Core
	target int
	in     *liner.State
	out    io.Writer
}

// NewREPL constructs a console over core, writing output to out.
func NewREPL(core *engine.Core, out io.Writer) *REPL {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		var matches []string
		for _, v := range verbs {
			if strings.HasPrefix(v, line) {
				matches = append(matches, v)
			}
		}
		return matches
	})
	return &REPL{core: core, in: ln, out: out}
}

// Run reads and dispatches commands until `quit`, EOF, or an
// unrecoverable read error.
func (r *REPL) Run() error {
	defer r.in.Close()
	for {
		line, err := r.in.Prompt("r4000sim> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.in.AppendHistory(line)
		if quit := r.dispatch(line); quit {
			return nil
		}
	}
}

func (r *REPL) dispatch(line string) (quit bool) {
	fields := strings.Fields(line)
	verb := fields[0]
	args := fields[1:]

	switch verb {
	case "quit", "exit":
		return true
	case "step":
		r.cmdStep(args)
	case "continue":
		r.cmdContinue()
	case "break":
		r.cmdBreak(args)
	case "bd":
		r.cmdBranchReport(args)
	case "br":
		r.cmdBreakDelete(args)
	case "md":
		r.cmdMemDump(args)
	case "id":
		r.cmdInsDump(args)
	case "rd":
		r.cmdRegDump()
	case "cp0d":
		r.cmdCP0Dump()
	case "tlbd":
		r.cmdTLBDump()
	case "goto":
		r.cmdGoto(args)
	case "cpu":
		r.cmdTargetCPU(args)
	default:
		fmt.Fprintf(r.out, "unknown command %q\n", verb)
	}
	return false
}

func (r *REPL) cmdTargetCPU(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: cpu <index>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 || n >= len(r.core.CPUs()) {
		fmt.Fprintf(r.out, "invalid cpu index %q\n", args[0])
		return
	}
	r.target = n
}

func (r *REPL) cmdStep(args []string) {
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintf(r.out, "invalid step count %q\n", args[0])
			return
		}
		count = n
	}
	r.core.Commands() <- engine.Command{Kind: engine.CmdStep, CPU: r.target, Count: count}
	r.waitIdle()
	r.reportStop()
}

// cmdContinue runs free until a breakpoint, halt, or the operator
// hits Ctrl-C, captured by putting the terminal into raw mode and
// polling stdin on its own goroutine so it doesn't fight liner's own
// input model.
func (r *REPL) cmdContinue() {
	r.core.Commands() <- engine.Command{Kind: engine.CmdRun}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		r.waitIdle()
		r.reportStop()
		return
	}
	defer term.Restore(fd, oldState)

	interrupted := make(chan struct{}, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 && buf[0] == 0x03 {
				interrupted <- struct{}{}
				return
			}
		}
	}()

	for r.core.Active() {
		select {
		case <-interrupted:
			r.core.Commands() <- engine.Command{Kind: engine.CmdStop}
			r.waitIdle()
			r.reportStop()
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
	r.reportStop()
}

func (r *REPL) waitIdle() {
	for r.core.Active() {
		time.Sleep(time.Millisecond)
	}
}

func (r *REPL) reportStop() {
	reason, idx := r.core.LastStop()
	switch reason {
	case engine.StopBreakpoint:
		fmt.Fprintf(r.out, "stopped at breakpoint, cpu %d, pc %08x\n", idx, r.core.CPUs()[idx].PC())
	case engine.StopHalted:
		fmt.Fprintf(r.out, "cpu %d halted\n", idx)
	case engine.StopRequested:
		fmt.Fprintln(r.out, "stopped")
	}
}

func (r *REPL) cmdBreak(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: break <addr>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	r.core.Commands() <- engine.Command{Kind: engine.CmdSetBreak, CPU: r.target, Addr: addr}
}

func (r *REPL) cmdBreakDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: br <addr>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	r.core.Commands() <- engine.Command{Kind: engine.CmdClearBreak, CPU: r.target, Addr: addr}
}

// cmdBranchReport prints the breakpoint list, or a single entry's hit
// count when an address is given (spec.md §6.4 `bd`).
func (r *REPL) cmdBranchReport(args []string) {
	cpus := r.core.CPUs()
	if r.target >= len(cpus) {
		return
	}
	bps := cpus[r.target].Breakpoints()
	if len(args) == 1 {
		addr, err := parseAddr(args[0])
		if err != nil {
			fmt.Fprintln(r.out, err)
			return
		}
		for _, bp := range bps {
			if bp.PC == addr {
				fmt.Fprintf(r.out, "%08x hits=%d\n", bp.PC, bp.Hits)
				return
			}
		}
		fmt.Fprintln(r.out, "no such breakpoint")
		return
	}
	for _, bp := range bps {
		fmt.Fprintf(r.out, "%08x hits=%d\n", bp.PC, bp.Hits)
	}
}

func (r *REPL) cmdGoto(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: goto <addr>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	r.core.Commands() <- engine.Command{Kind: engine.CmdGoto, CPU: r.target, Addr: addr}
}

func (r *REPL) cmdMemDump(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: md <addr>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	cpus := r.core.CPUs()
	if r.target >= len(cpus) {
		return
	}
	var words []uint32
	for i := uint32(0); i < 4; i++ {
		w, ok := cpus[r.target].ReadMem(addr + i*4)
		if !ok {
			fmt.Fprintln(r.out, "unmapped address")
			return
		}
		words = append(words, w)
	}
	var sb strings.Builder
	FormatWord(&sb, words)
	fmt.Fprintf(r.out, "%08x: %s\n", addr, sb.String())
}

func (r *REPL) cmdInsDump(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: id <addr>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	cpus := r.core.CPUs()
	if r.target >= len(cpus) {
		return
	}
	w, ok := cpus[r.target].ReadIns(addr)
	if !ok {
		fmt.Fprintln(r.out, "unmapped address")
		return
	}
	var sb strings.Builder
	FormatWord(&sb, []uint32{w})
	fmt.Fprintf(r.out, "%08x: %s\n", addr, sb.String())
}

func (r *REPL) cmdRegDump() {
	cpus := r.core.CPUs()
	if r.target >= len(cpus) {
		return
	}
	c := cpus[r.target]
	regs := c.Regs()
	hi, lo := c.HiLo()
	for i := 0; i < 32; i += 4 {
		var sb strings.Builder
		FormatWord(&sb, regs[i:i+4])
		fmt.Fprintf(r.out, "r%-2d: %s\n", i, sb.String())
	}
	fmt.Fprintf(r.out, "hi=%08x lo=%08x pc=%08x\n", hi, lo, c.PC())
	fmt.Fprintf(r.out, "kernel=%d user=%d wait=%d\n", c.KernelCycles(), c.UserCycles(), c.WaitCycles())
}

func (r *REPL) cmdCP0Dump() {
	cpus := r.core.CPUs()
	if r.target >= len(cpus) {
		return
	}
	cp0 := cpus[r.target].CP0Regs()
	for i := 0; i < 32; i += 4 {
		var sb strings.Builder
		FormatWord(&sb, cp0[i:i+4])
		fmt.Fprintf(r.out, "cp0[%-2d]: %s\n", i, sb.String())
	}
}

func (r *REPL) cmdTLBDump() {
	cpus := r.core.CPUs()
	if r.target >= len(cpus) {
		return
	}
	for _, e := range cpus[r.target].TLBEntries() {
		if !e.Valid[0] && !e.Valid[1] {
			continue
		}
		fmt.Fprintf(r.out, "[%2d] vpn2=%08x mask=%08x asid=%02x g=%v pfn0=%08x v0=%v d0=%v pfn1=%08x v1=%v d1=%v\n",
			e.Index, e.VPN2, e.PageMask, e.ASID, e.Global,
			e.PFN[0], e.Valid[0], e.Dirty[0], e.PFN[1], e.Valid[1], e.Dirty[1])
	}
}

func parseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "0x")
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(n), nil
}
