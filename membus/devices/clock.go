/*
   Clock device: a free-running counter plus a compare register that
   raises a host interrupt line through the event scheduler.

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

package devices

import "github.com/r4000sim/r4000sim/events"

const (
	clockCounterOffset = 0
	clockCompareOffset = 4
	tickPeriod         = 1000 // cycles between self-rescheduled ticks
)

// Raiser is the one method Clock needs from a CPU to deliver its
// interrupt; cpu.CPU satisfies it via InterruptUp.
type Raiser interface {
	InterruptUp(line uint32)
	InterruptDown(line uint32)
}

// Clock is a free-running counter, MMIO-readable, that raises
// irqLine through cpu whenever it matches its compare register, then
// keeps counting. It self-reschedules on evs rather than being
// polled every cycle by the CPU, exercising events.List end to end.
type Clock struct {
	base    uint32
	cpu     Raiser
	evs     *events.List
	irqLine uint32

	counter uint32
	compare uint32
}

// NewClock constructs a Clock claiming an 8-byte window at base and
// schedules its first tick on evs.
func NewClock(base uint32, cpu Raiser, evs *events.List, irqLine uint32) *Clock {
	c := &Clock{base: base, cpu: cpu, evs: evs, irqLine: irqLine}
	evs.Add(c, c.tick, tickPeriod, 0)
	return c
}

func (c *Clock) tick(int) {
	c.counter++
	if c.counter == c.compare {
		c.cpu.InterruptUp(c.irqLine)
	}
	c.evs.Add(c, c.tick, tickPeriod, 0)
}

func (c *Clock) Name() string { return "clock" }
func (c *Clock) Base() uint32 { return c.base }
func (c *Clock) Size() uint32 { return 8 }

func (c *Clock) ReadByte(addr uint32) (byte, bool) {
	off := addr - c.base
	switch {
	case off < 4:
		return byte(c.counter >> (8 * (3 - off))), true
	case off < 8:
		return byte(c.compare >> (8 * (7 - off))), true
	default:
		return 0, true
	}
}

func (c *Clock) WriteByte(addr uint32, v byte) bool {
	off := addr - c.base
	switch {
	case off < 4:
		// the counter window is read-only; only compare is settable
		return true
	case off < 8:
		shift := 8 * (7 - off)
		c.compare = (c.compare &^ (0xff << shift)) | (uint32(v) << shift)
		c.cpu.InterruptDown(c.irqLine)
		return true
	default:
		return true
	}
}
