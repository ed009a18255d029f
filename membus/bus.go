/*
   Memory bus: flat RAM plus a registry of memory-mapped devices.

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

// Package membus implements the physical memory bus a cpu.CPU reads
// and writes through: a flat RAM region plus an ordered registry of
// memory-mapped devices, dispatched by claimed address window. It
// never imports cpu; cpu depends on it through the small Bus
// interface cpu.CPU declares for itself.
package membus

import "log/slog"

// Device is a memory-mapped peripheral. Read/Write take an address
// already relative to the bus (physical, not virtual) and report
// whether the access landed inside the device's claimed window.
type Device interface {
	Name() string
	Base() uint32
	Size() uint32
	ReadByte(addr uint32) (byte, bool)
	WriteByte(addr uint32, v byte) bool
}

// Bus owns the flat RAM array and the device registry. A single Bus
// can be shared by reference across multiple cpu.CPU instances in a
// multi-core configuration.
type Bus struct {
	ram     []byte
	devices []Device
	log     *slog.Logger
}

// NewBus allocates memKB kilobytes of RAM starting at physical address
// 0 and returns an empty device registry ready for Register calls.
func NewBus(memKB int, log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{ram: make([]byte, memKB*1024), log: log}
}

// Register claims dev's address window. Overlapping windows are
// rejected by returning false; the caller decides whether that is
// fatal.
func (b *Bus) Register(dev Device) bool {
	lo, hi := dev.Base(), dev.Base()+dev.Size()
	for _, d := range b.devices {
		dlo, dhi := d.Base(), d.Base()+d.Size()
		if lo < dhi && dlo < hi {
			return false
		}
	}
	b.devices = append(b.devices, dev)
	return true
}

// deviceFor returns the device claiming addr, if any.
func (b *Bus) deviceFor(addr uint32) Device {
	for _, d := range b.devices {
		if addr >= d.Base() && addr < d.Base()+d.Size() {
			return d
		}
	}
	return nil
}

func (b *Bus) ReadByte(addr uint32) (byte, bool) {
	if dev := b.deviceFor(addr); dev != nil {
		return dev.ReadByte(addr)
	}
	if int(addr) >= len(b.ram) {
		return 0, false
	}
	return b.ram[addr], true
}

func (b *Bus) WriteByte(addr uint32, v byte) bool {
	if dev := b.deviceFor(addr); dev != nil {
		return dev.WriteByte(addr, v)
	}
	if int(addr) >= len(b.ram) {
		return false
	}
	b.ram[addr] = v
	return true
}

func (b *Bus) ReadHalf(addr uint32) (uint16, bool) {
	hi, ok := b.ReadByte(addr)
	if !ok {
		return 0, false
	}
	lo, ok := b.ReadByte(addr + 1)
	if !ok {
		return 0, false
	}
	return uint16(hi)<<8 | uint16(lo), true
}

func (b *Bus) WriteHalf(addr uint32, v uint16) bool {
	if !b.WriteByte(addr, byte(v>>8)) {
		return false
	}
	return b.WriteByte(addr+1, byte(v))
}

func (b *Bus) ReadWord(addr uint32) (uint32, bool) {
	hi, ok := b.ReadHalf(addr)
	if !ok {
		return 0, false
	}
	lo, ok := b.ReadHalf(addr + 2)
	if !ok {
		return 0, false
	}
	return uint32(hi)<<16 | uint32(lo), true
}

func (b *Bus) WriteWord(addr uint32, v uint32) bool {
	if !b.WriteHalf(addr, uint16(v>>16)) {
		return false
	}
	return b.WriteHalf(addr+2, uint16(v))
}

// LoadImage copies data into RAM starting at physical address base,
// for the boot-image loader in main.go. It fails if the image runs
// past the end of RAM.
func (b *Bus) LoadImage(base uint32, data []byte) bool {
	if int(base)+len(data) > len(b.ram) {
		return false
	}
	copy(b.ram[base:], data)
	return true
}

// Size reports the RAM region's size in bytes.
func (b *Bus) Size() int { return len(b.ram) }
