/*
   Console device: a one-byte-in, one-byte-out MMIO register pair
   standing in for the host terminal.

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

// Package devices holds the two reference MMIO peripherals a boot
// image can rely on: a console UART-like register pair and a clock
// with a programmable compare interrupt.
package devices

import (
	"bufio"
	"io"
)

const (
	consoleStatusOffset = 0 // bit 0: input ready, bit 1: output idle (always 1)
	consoleDataOffset   = 4
)

// Console is a minimal memory-mapped terminal: a status byte and a
// data byte, polled rather than interrupt-driven, enough to exercise
// the bus contract without modeling real UART timing.
type Console struct {
	base uint32
	in   *bufio.Reader
	out  io.Writer

	pending byte
	hasByte bool
}

// NewConsole constructs a Console claiming an 8-byte window starting
// at base, reading from in and writing to out.
func NewConsole(base uint32, in io.Reader, out io.Writer) *Console {
	return &Console{base: base, in: bufio.NewReader(in), out: out}
}

func (c *Console) Name() string  { return "console" }
func (c *Console) Base() uint32  { return c.base }
func (c *Console) Size() uint32  { return 8 }

func (c *Console) poll() {
	if c.hasByte {
		return
	}
	b, err := c.in.ReadByte()
	if err == nil {
		c.pending = b
		c.hasByte = true
	}
}

func (c *Console) ReadByte(addr uint32) (byte, bool) {
	switch addr - c.base {
	case consoleStatusOffset:
		c.poll()
		status := byte(0x2)
		if c.hasByte {
			status |= 0x1
		}
		return status, true
	case consoleDataOffset:
		c.poll()
		if !c.hasByte {
			return 0, true
		}
		b := c.pending
		c.hasByte = false
		return b, true
	default:
		return 0, true
	}
}

func (c *Console) WriteByte(addr uint32, v byte) bool {
	if addr-c.base == consoleDataOffset {
		_, _ = c.out.Write([]byte{v})
	}
	return true
}
