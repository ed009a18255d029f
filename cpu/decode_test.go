package cpu

import "testing"

func TestDecodeFields(t *testing.T) {
	// addiu r9, r8, -4   => op=9 rs=8 rt=9 imm=0xfffc
	word := uint32(opADDIU)<<26 | 8<<21 | 9<<16 | 0xfffc
	d := Decode(word)
	if d.Op != opADDIU {
		t.Errorf("Op: got %d wanted %d", d.Op, opADDIU)
	}
	if d.Rs != 8 {
		t.Errorf("Rs: got %d wanted 8", d.Rs)
	}
	if d.Rt != 9 {
		t.Errorf("Rt: got %d wanted 9", d.Rt)
	}
	if d.SImm != -4 {
		t.Errorf("SImm: got %d wanted -4", d.SImm)
	}
}

func TestDecodeRType(t *testing.T) {
	// add r3, r1, r2 => op=0 rs=1 rt=2 rd=3 shamt=0 funct=0x20
	word := uint32(opSpecial)<<26 | 1<<21 | 2<<16 | 3<<11 | fnADD
	d := Decode(word)
	if d.Rd != 3 || d.Shamt != 0 || d.Funct != fnADD {
		t.Errorf("got rd=%d shamt=%d funct=%#x", d.Rd, d.Shamt, d.Funct)
	}
}

func TestDecodeJType(t *testing.T) {
	word := uint32(opJ)<<26 | 0x3ffffff
	d := Decode(word)
	if d.Target != 0x3ffffff {
		t.Errorf("Target: got %#x wanted %#x", d.Target, 0x3ffffff)
	}
}

func TestZeroAndSignExtendImm(t *testing.T) {
	d := Decode(uint32(opANDI)<<26 | 0x8000)
	if d.zeroExtImm() != 0x8000 {
		t.Errorf("zeroExtImm: got %#x wanted %#x", d.zeroExtImm(), 0x8000)
	}
	if d.signExtImm() != 0xffff8000 {
		t.Errorf("signExtImm: got %#x wanted %#x", d.signExtImm(), 0xffff8000)
	}
}

func TestUnknownOpcodeDecodesWithoutPanicking(t *testing.T) {
	d := Decode(0xffffffff)
	if d.Op != 0x3f {
		t.Errorf("Op: got %#x wanted 0x3f", d.Op)
	}
}
