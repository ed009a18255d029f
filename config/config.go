/*
   Simulator configuration: CLI-flag-populated directives plus a
   trimmed directive-file reader for the handful of keywords this
   simulator needs.

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

// Package config holds the simulator's run-time directives, populated
// from CLI flags and optionally layered with a directive file using
// the same bare-keyword, #-comment convention as the teacher's
// configuration reader, trimmed to this simulator's handful of
// keywords.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/r4000sim/r4000sim/hosterr"
)

// Directives holds everything main.go needs to bring up one
// simulator instance.
type Directives struct {
	MemKB     int
	CPUs      int
	BootImage string
	BootAddr  uint32
	LogFile   string
	Debug     bool
}

// Default returns the directives a bare `r4000sim` invocation uses
// with no flags or directive file.
func Default() Directives {
	return Directives{MemKB: 4096, CPUs: 1, BootAddr: 0xA0000000}
}

// LoadFile layers directives from a line-oriented file on top of d:
// blank lines and lines starting with '#' are ignored, every other
// line is `keyword value`. Unknown keywords are a host error rather
// than being silently ignored, so a typo in a directive file is
// caught immediately instead of being misread as "use the default".
func LoadFile(d Directives, path string) (Directives, error) {
	f, err := os.Open(path)
	if err != nil {
		return d, hosterr.Wrap(hosterr.IO, err)
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		key := strings.ToLower(fields[0])
		var val string
		if len(fields) > 1 {
			val = fields[1]
		}
		if err := d.apply(key, val); err != nil {
			return d, hosterr.New(hosterr.PARM, "%s:%d: %v", path, lineNo, err)
		}
	}
	if err := scan.Err(); err != nil {
		return d, hosterr.Wrap(hosterr.IO, err)
	}
	return d, nil
}

func (d *Directives) apply(key, val string) error {
	switch key {
	case "mem":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		d.MemKB = n
	case "cpus":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		d.CPUs = n
	case "boot":
		d.BootImage = val
	case "bootaddr":
		n, err := strconv.ParseUint(val, 0, 32)
		if err != nil {
			return err
		}
		d.BootAddr = uint32(n)
	case "log":
		d.LogFile = val
	case "debug":
		d.Debug = true
	default:
		return hosterr.New(hosterr.PARM, "unknown directive %q", key)
	}
	return nil
}

// Validate reports a host error for a directive combination that
// cannot produce a runnable simulator (spec.md §7.2): non-positive
// memory or CPU counts.
func (d Directives) Validate() error {
	if d.MemKB <= 0 {
		return hosterr.New(hosterr.MEM, "mem must be positive, got %d", d.MemKB)
	}
	if d.CPUs <= 0 {
		return hosterr.New(hosterr.PARM, "cpus must be positive, got %d", d.CPUs)
	}
	return nil
}
