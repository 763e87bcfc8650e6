package cpu

import (
	"testing"

	"github.com/hallowmere/goemerald/diag"
	"github.com/hallowmere/goemerald/interrupt"
)

type fakeBus struct {
	mem [0x1000]byte
}

func (b *fakeBus) Read8(a uint32) uint8    { return b.mem[a&0xFFF] }
func (b *fakeBus) Write8(a uint32, v uint8) { b.mem[a&0xFFF] = v }
func (b *fakeBus) Read16(a uint32) uint16 {
	a &= 0xFFF
	return uint16(b.mem[a]) | uint16(b.mem[a+1])<<8
}
func (b *fakeBus) Write16(a uint32, v uint16) {
	a &= 0xFFF
	b.mem[a] = uint8(v)
	b.mem[a+1] = uint8(v >> 8)
}
func (b *fakeBus) Read32(a uint32) uint32 {
	return uint32(b.Read16(a)) | uint32(b.Read16(a+2))<<16
}
func (b *fakeBus) Write32(a uint32, v uint32) {
	b.Write16(a, uint16(v))
	b.Write16(a+2, uint16(v>>16))
}

func (b *fakeBus) putARM(addr uint32, word uint32) { b.Write32(addr, word) }
func (b *fakeBus) putThumb(addr uint32, half uint16) { b.Write16(addr, half) }

func newTestCPU() (*CPU, *fakeBus) {
	bus := &fakeBus{}
	irqc := interrupt.New()
	c := New(bus, irqc, diag.New())
	c.Reset(0)
	return c, bus
}

func TestShiftLSLEdgeCases(t *testing.T) {
	if r, carry := Shift(1, ShiftLSL, 0, true); r != 1 || carry != true {
		t.Fatalf("LSL#0 should preserve carry in: got %d %v", r, carry)
	}
	if r, carry := Shift(1, ShiftLSL, 32, false); r != 0 || carry != true {
		t.Fatalf("LSL#32 should emit bit 0 as carry: got %d %v", r, carry)
	}
	if r, carry := Shift(1, ShiftLSL, 33, false); r != 0 || carry != false {
		t.Fatalf("LSL>32 should emit 0 carry: got %d %v", r, carry)
	}
}

func TestShiftRRX(t *testing.T) {
	r, carry := Shift(0x00000001, ShiftROR, 0, true)
	if r != 0x80000000 || carry != true {
		t.Fatalf("RRX with carry-in should rotate carry into bit31: got %#x %v", r, carry)
	}
}

func TestConditionCodes(t *testing.T) {
	if !CondEQ.Evaluate(false, true, false, false) {
		t.Fatalf("EQ should hold when Z set")
	}
	if CondEQ.Evaluate(false, false, false, false) {
		t.Fatalf("EQ should not hold when Z clear")
	}
	if !CondAL.Evaluate(false, false, false, false) {
		t.Fatalf("AL should always hold")
	}
}

func TestARMMovImmediate(t *testing.T) {
	c, bus := newTestCPU()
	c.Regs.SetPC(8) // R15 rests at instrAddr+8; instruction is at 0
	// MOV R0, #5  (cond=AL, op=MOV, I=1, Rd=0, imm=5)
	bus.putARM(0, 0xE3A00005)
	c.Step()
	if got := c.Regs.R(0); got != 5 {
		t.Fatalf("R0 = %d, want 5", got)
	}
}

func TestARMAddSetsFlags(t *testing.T) {
	c, bus := newTestCPU()
	c.Regs.SetR(1, 0xFFFFFFFF)
	// ADDS R0, R1, #1
	bus.putARM(0, 0xE2910001)
	c.Step()
	if got := c.Regs.R(0); got != 0 {
		t.Fatalf("R0 = %#x, want 0", got)
	}
	if !c.Regs.Z() || !c.Regs.C() {
		t.Fatalf("expected Z and C set after 0xFFFFFFFF+1 overflow")
	}
}

func TestARMBranchWithLink(t *testing.T) {
	c, bus := newTestCPU()
	c.Regs.SetPC(0x108) // instruction is at 0x100
	// BL with zero offset: target = PC+8 = 0x108; R15 then rests at
	// target+8 = 0x110 per invariant P1.
	bus.putARM(0x100, 0xEB000000)
	c.Step()
	if got := c.Regs.PC(); got != 0x110 {
		t.Fatalf("PC = %#x, want 0x110", got)
	}
	if got := c.Regs.R(14); got != 0x104 {
		t.Fatalf("LR = %#x, want 0x104", got)
	}
}

func TestARMBXSwitchesToThumb(t *testing.T) {
	c, bus := newTestCPU()
	c.Regs.SetR(0, 0x201)
	c.Regs.SetPC(8) // instruction is at 0
	// BX R0
	bus.putARM(0, 0xE12FFF10)
	c.Step()
	if !c.Regs.Thumb() {
		t.Fatalf("expected Thumb state after BX with bit0 set")
	}
	if got := c.Regs.PC(); got != 0x204 {
		t.Fatalf("PC = %#x, want 0x204", got)
	}
}

func TestThumbMovImmediate(t *testing.T) {
	c, bus := newTestCPU()
	c.Regs.SetThumb(true)
	c.Regs.SetPC(4) // instruction is at 0
	// MOV R0, #7  (format 3)
	bus.putThumb(0, 0x2007)
	c.Step()
	if got := c.Regs.R(0); got != 7 {
		t.Fatalf("R0 = %d, want 7", got)
	}
}

func TestThumbLongBranchLink(t *testing.T) {
	c, bus := newTestCPU()
	c.Regs.SetThumb(true)
	c.Regs.SetPC(0x204) // instruction is at 0x200
	// First half: F000 (H=0, offset11=0)
	bus.putThumb(0x200, 0xF000)
	// Second half: F801 (H=1, offset11=1 -> +2 bytes)
	bus.putThumb(0x202, 0xF801)

	c.Step() // first half
	c.Step() // second half

	if got := c.Regs.PC(); got == 0 {
		t.Fatalf("expected PC to have branched")
	}
	if c.Regs.R(14)&1 == 0 {
		t.Fatalf("expected LR bit0 set for Thumb return address")
	}
}

func TestIRQEntryAndReturn(t *testing.T) {
	c, _ := newTestCPU()
	c.Regs.SetPC(0x1008) // next instruction to resume at 0x1000
	c.Regs.SetIRQDisabled(false)

	irqc := interrupt.New()
	c.irq = irqc
	c.Regs.SetCPSR(c.Regs.CPSR() &^ (1 << 7)) // enable IRQ (I=0)
	irqc.WriteIE(1)
	irqc.WriteIME(1)
	irqc.Raise(1)

	c.Step()
	if c.Regs.Mode() != ModeIRQ {
		t.Fatalf("expected IRQ mode after exception entry, got %#x", c.Regs.Mode())
	}
	if c.Regs.PC() != 0x20 {
		t.Fatalf("PC = %#x, want 0x20", c.Regs.PC())
	}

	c.Regs.SetR(14, 0x1008)
	c.ReturnFromIRQ()
	if c.Regs.PC() != 0x100C {
		t.Fatalf("PC after return = %#x, want 0x100C", c.Regs.PC())
	}
}
