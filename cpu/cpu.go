package cpu

import (
	"github.com/hallowmere/goemerald/diag"
	"github.com/hallowmere/goemerald/interrupt"
)

// Bus is the memory surface the CPU executes against.
type Bus interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, v uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, v uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
}

// Config toggles robustness/debug behavior, grounded on the functional
// options the teacher uses for its own serial sink.
type Config struct {
	// SkipInvalidPCWrites is consulted only by branchTo, which no
	// instruction calls: PC writes go through refillPC unchecked, so this
	// flag has no effect on execution.
	SkipInvalidPCWrites bool
	// HLEBios enables the high-level-emulation SWI handlers; when false,
	// SWI is a no-op (matching "unrecognized SWIs return unchanged").
	HLEBios bool
}

// DefaultConfig matches the documented robustness defaults.
func DefaultConfig() Config {
	return Config{SkipInvalidPCWrites: true, HLEBios: true}
}

// Option configures a CPU at construction time.
type Option func(*CPU)

// WithConfig overrides the default Config.
func WithConfig(c Config) Option {
	return func(cpu *CPU) { cpu.cfg = c }
}

// CPU is the ARM7TDMI interpreter core: register file plus a Step method
// that fetches, decodes and executes exactly one instruction.
type CPU struct {
	Regs *Registers
	bus  Bus
	irq  *interrupt.Controller
	diag *diag.Sink

	cfg Config

	Halted bool
	Cycles uint64

	// pcWritten is set by refillPC whenever the instruction currently
	// dispatching wrote R15 itself (branch, BX, PC-destination data
	// processing/load, exception entry/return). stepARM/stepThumb check it
	// after dispatch to decide whether their own sequential advance should
	// run, so a branch's refill is never immediately overwritten.
	pcWritten bool
}

// New creates a CPU wired to bus and the shared interrupt controller.
func New(bus Bus, irq *interrupt.Controller, d *diag.Sink, opts ...Option) *CPU {
	cpu := &CPU{
		Regs: NewRegisters(),
		bus:  bus,
		irq:  irq,
		diag: d,
		cfg:  DefaultConfig(),
	}
	for _, opt := range opts {
		opt(cpu)
	}
	return cpu
}

// Reset reinitializes registers to the post-BIOS entry state and clears
// Halted, per the "reset preserves loaded ROM" lifecycle rule owned by the
// caller (goemerald.Core). entryPC is the address of the first instruction
// to run; R15 itself is left holding entryPC+8 (ARM always, since the BIOS
// always hands off in ARM state) per invariant P1, so callers and tests must
// not assume Regs.PC() reads back entryPC.
func (c *CPU) Reset(entryPC uint32) {
	c.Regs = NewRegisters()
	c.Regs.SetPC(entryPC + 8)
	c.Regs.SetR(13, 0x03007F00) // system-mode stack, matches the real BIOS handoff
	c.Halted = false
	c.Cycles = 0
}

// Step fetches, decodes and executes one instruction, first servicing a
// pending IRQ if interrupts are unmasked. Returns the number of cycles
// consumed (an approximation, always >= 1) used to drive the frame
// schedule.
func (c *CPU) Step() int {
	cycles := c.step()
	c.Cycles += uint64(cycles)
	return cycles
}

func (c *CPU) step() int {
	if c.irq.Pending() && !c.Regs.IRQDisabled() {
		c.enterIRQ()
		return 3
	}

	if c.Halted {
		return 1
	}

	if c.Regs.Thumb() {
		return c.stepThumb()
	}
	return c.stepARM()
}

// refillPC writes an absolute target into R15, applying the pipeline
// prefetch offset so the physical register's resting value always matches
// real ARM7TDMI silicon: PC == target + 8 in ARM state, target + 4 in Thumb
// state (invariant P1). Every instruction that redirects control flow -
// B/BL, BX, a data-processing/load/LDM writing Rd==15, SWI's SoftReset, IRQ
// entry and return - must go through this rather than Regs.SetPC, so
// stepARM/stepThumb's generic sequential advance knows not to also run.
func (c *CPU) refillPC(target uint32) {
	c.pcWritten = true
	if c.Regs.Thumb() {
		c.Regs.SetPC((target &^ 1) + 4)
	} else {
		c.Regs.SetPC((target &^ 3) + 8)
	}
}

// branchTo sets PC, applying the robustness policy from §4.2.7: when
// SkipInvalidPCWrites is set and the destination is in the open, unmapped
// hole (region 0x0A-0x0B-0x0D-0x0F-style addresses with nothing behind
// them), the write is dropped for that instruction rather than left to
// fault on the next fetch. The bus' own unmapped-read behavior (return 0)
// already protects against most of this; this hook exists for callers
// that want to additionally classify a target as "no device at all" via
// isMapped. Nothing calls branchTo: every instruction and exception that
// redirects control flow uses refillPC, which performs no such check.
func (c *CPU) branchTo(addr uint32, isMapped func(uint32) bool) {
	if c.cfg.SkipInvalidPCWrites && isMapped != nil && !isMapped(addr) {
		if c.diag != nil {
			c.diag.Report(diag.ClassInvalidPC, "branch to unmapped address", "pc", addr)
		}
		return
	}
	c.refillPC(addr)
}

// enterIRQ performs exception entry per §4.2.6: SPSR_irq<-CPSR, mode<-IRQ,
// I<-1, LR_irq<-return PC, thumb<-false, PC<-0x18. Also clears Halted,
// since a pending interrupt always wakes a halted CPU.
func (c *CPU) enterIRQ() {
	c.Halted = false

	pipelineOffset := uint32(8)
	if c.Regs.Thumb() {
		pipelineOffset = 4
	}
	nextInstrAddr := c.Regs.PC() - pipelineOffset

	returnPC := nextInstrAddr
	if c.Regs.Thumb() {
		returnPC += 2
	}

	oldCPSR := c.Regs.CPSR()
	c.Regs.SetCPSR((oldCPSR &^ 0x1F) | uint32(ModeIRQ))
	c.Regs.SetSPSR(oldCPSR)
	c.Regs.SetR(14, returnPC+4)
	c.Regs.SetThumb(false)
	c.Regs.SetIRQDisabled(true)
	c.refillPC(0x00000018)
}

// ReturnFromIRQ implements the "SUBS PC, LR, #4" return idiom used by the
// IRQ handler epilogue: PC<-LR-4, CPSR<-SPSR.
func (c *CPU) ReturnFromIRQ() {
	lr := c.Regs.R(14)
	spsr := c.Regs.SPSR()
	c.Regs.SetCPSR(spsr)
	c.refillPC(lr - 4)
}
