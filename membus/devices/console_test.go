package devices

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleReadsInput(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(0x1000, strings.NewReader("A"), &out)

	status, _ := c.ReadByte(0x1000 + consoleStatusOffset)
	if status&0x1 == 0 {
		t.Fatalf("status should report a byte ready: %#x", status)
	}
	data, _ := c.ReadByte(0x1000 + consoleDataOffset)
	if data != 'A' {
		t.Errorf("data: got %q wanted 'A'", data)
	}
	status, _ = c.ReadByte(0x1000 + consoleStatusOffset)
	if status&0x1 != 0 {
		t.Errorf("status should report empty after the byte was consumed: %#x", status)
	}
}

func TestConsoleWritesOutput(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(0x1000, strings.NewReader(""), &out)
	c.WriteByte(0x1000+consoleDataOffset, 'z')
	if out.String() != "z" {
		t.Errorf("got %q wanted %q", out.String(), "z")
	}
}

func TestConsoleStatusOutputAlwaysIdle(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(0x1000, strings.NewReader(""), &out)
	status, _ := c.ReadByte(0x1000 + consoleStatusOffset)
	if status&0x2 == 0 {
		t.Errorf("output-idle bit should always be set: %#x", status)
	}
}
