// Package goemerald ties the bus, CPU, PPU, DMA engine, timers, interrupt
// controller and cartridge together behind the external API in §6.1:
// init/reset/step_frame/read_memory/write_memory/save_state/load_state.
// Grounded on the teacher's Emulator/DMG struct (jeebie/core.go,
// jeebie/emulator.go): one owning struct, a frame-budget loop driven by
// cycle counting, timers advanced alongside CPU steps.
package goemerald

import (
	"log/slog"
	"time"

	"github.com/hallowmere/goemerald/bus"
	"github.com/hallowmere/goemerald/cart"
	"github.com/hallowmere/goemerald/cpu"
	"github.com/hallowmere/goemerald/diag"
	"github.com/hallowmere/goemerald/interrupt"
	"github.com/hallowmere/goemerald/savestate"
	"github.com/hallowmere/goemerald/video"
)

// entryPoint is the address real hardware hands off to after BIOS boot,
// and where a cartridge's reset vector lives.
const entryPoint = 0x08000000

// cyclesPerScanline and scanlinesPerFrame fix the 280896-cycle/frame budget
// (1232 cycles * 228 scanlines) from the frame driver pseudocode in §4.8.
const (
	cyclesPerScanline = 1232
	scanlinesPerFrame = 228
	visibleScanlines  = 160
)

// Core is the top-level emulator handle: §6.1's init/reset/step_frame API
// surface. The interrupt controller is owned here and threaded by reference
// into every subsystem that raises or acks interrupts, per §5's shared
// mutable borrow requirement.
type Core struct {
	bus *bus.Bus
	cpu *cpu.CPU
	ppu *video.PPU
	irq *interrupt.Controller
	dg  *diag.Sink

	header    cart.Header
	romLoaded bool

	frameCount uint64
}

// Option configures a Core at construction time, grounded on the teacher's
// functional-options style (jeebie/memory.LogSinkOption, cpu.Option).
type Option func(*Core)

// WithCPUConfig overrides the CPU's robustness/HLE configuration.
func WithCPUConfig(cfg cpu.Config) Option {
	return func(c *Core) { c.cpu = cpu.New(c.bus, c.irq, c.dg, cpu.WithConfig(cfg)) }
}

// WithDiagOptions overrides the diagnostics sink's options (log limit,
// logger). Options run in the order given, and this one rebuilds the bus
// and CPU around the new sink, replacing a CPU set up by an earlier
// WithCPUConfig.
func WithDiagOptions(opts ...diag.Option) Option {
	return func(c *Core) {
		c.dg = diag.New(opts...)
		c.bus = bus.New(c.irq, c.dg)
		c.cpu = cpu.New(c.bus, c.irq, c.dg)
	}
}

// New creates a Core with no ROM attached. LoadROM must be called before
// StepFrame will do anything useful.
func New(opts ...Option) *Core {
	d := diag.New()
	irq := interrupt.New()
	b := bus.New(irq, d)
	c := &Core{
		bus: b,
		cpu: cpu.New(b, irq, d),
		ppu: video.NewPPU(),
		irq: irq,
		dg:  d,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadROM validates rom's size, parses its header (logging, not failing, on
// a checksum mismatch per the RomInvalid diagnostic-only policy) and resets
// the core to run it from its entry point.
func (c *Core) LoadROM(rom []byte) error {
	if err := cart.ValidateSize(rom); err != nil {
		return err
	}

	c.header = cart.ParseHeader(rom)
	if !c.header.Valid {
		slog.Warn("rom header checksum mismatch", "game_code", c.header.GameCode, "checksum", c.header.Checksum)
	}

	c.bus.AttachROM(rom)
	c.wireRTC()
	c.romLoaded = true
	c.Reset()
	return nil
}

// wireRTC points the cartridge RTC's clock source at the host's wall clock,
// per §6.2's "base timestamp from host clock at init/reset" contract.
func (c *Core) wireRTC() {
	g := c.bus.GPIO()
	if g == nil {
		return
	}
	rtc := g.RTC()
	if rtc == nil {
		return
	}
	rtc.Now = func() (uint8, uint8, uint8, uint8, uint8, uint8, uint8) {
		now := time.Now()
		return uint8(now.Year() % 100), uint8(now.Month()), uint8(now.Day()),
			uint8(now.Weekday()), uint8(now.Hour()), uint8(now.Minute()), uint8(now.Second())
	}
}

// Reset reinitializes the CPU, interrupt controller, DMA engine and timers
// to their post-boot state, preserving the loaded ROM and its backing
// device, per the "reset preserves loaded ROM" lifecycle rule.
func (c *Core) Reset() {
	c.cpu.Reset(entryPoint)
	c.irq.Reset()
	c.bus.DMA.Reset()
	c.bus.Timer.Reset()
	c.bus.SetVCount(0)
	c.frameCount = 0
}

// ReadMemory performs a bus-level byte read, honoring I/O register
// semantics (§6.1's read_memory).
func (c *Core) ReadMemory(address uint32) uint8 { return c.bus.Read8(address) }

// WriteMemory performs a bus-level byte write, honoring I/O register
// semantics (§6.1's write_memory).
func (c *Core) WriteMemory(address uint32, v uint8) { c.bus.Write8(address, v) }

// FrameCount returns the number of frames StepFrame has completed.
func (c *Core) FrameCount() uint64 { return c.frameCount }

// CPUCycles returns the cumulative number of CPU cycles consumed since the
// last Reset.
func (c *Core) CPUCycles() uint64 { return c.cpu.Cycles }

// Header returns the parsed ROM header, valid once LoadROM has run.
func (c *Core) Header() cart.Header { return c.header }

// Loaded reports whether a ROM has been attached via LoadROM.
func (c *Core) Loaded() bool { return c.romLoaded }

// StepFrame runs exactly one 228-scanline frame and returns the resulting
// framebuffer, applying buttons as the host's per-frame input snapshot.
// Ordering within each scanline follows §5 exactly: VCount update ->
// VBlank/HBlank DMA trigger -> CPU execution -> timer ticks (interleaved
// with CPU steps) -> scanline render -> affine reference advance, with
// the HBlank flag and IRQ raised after each visible scanline is rendered
// and the flag cleared again at the next scanline's start.
//
// cpu.Step already services a pending, unmasked interrupt (and wakes a
// halted CPU doing so) before fetching the next instruction, so the
// unconditional cycle-budget loop below implements both halves of §4.8's
// pseudocode -- the normal execution loop and the "burn remaining cycles,
// waking on interrupt" halted case -- without a separate branch.
//
// A direct HALTCNT register write (distinct from the HLE SWI halt path)
// is drained into cpu.Halted once per cycle-budget iteration, since the
// bus has no other way to reach across into the CPU it doesn't own.
func (c *Core) StepFrame(buttons uint16) *video.FrameBuffer {
	c.bus.SetKeyInput(buttons)

	for ly := 0; ly < scanlinesPerFrame; ly++ {
		c.bus.SetVCount(uint8(ly))
		c.irq.OnScanlineStart(&c.bus.VState, uint8(ly))
		c.bus.VState.OnHBlankEnd()

		if ly == visibleScanlines {
			c.bus.DMA.OnVBlank()
		}
		if ly < visibleScanlines {
			c.bus.DMA.OnHBlank()
		}

		cyclesLeft := cyclesPerScanline
		for cyclesLeft > 0 {
			if c.bus.Halted() {
				c.cpu.Halted = true
				c.bus.ClearHalt()
			}
			spent := c.cpu.Step()
			c.bus.Timer.Tick(uint32(spent))
			cyclesLeft -= spent
		}

		if ly < visibleScanlines {
			c.ppu.RenderScanline(c.bus, uint8(ly))
			c.irq.OnHBlankStart(&c.bus.VState)
		} else {
			c.ppu.AdvanceAffineRefs()
		}
	}

	c.frameCount++
	return c.ppu.FrameBuffer()
}

// SaveState serializes the full core state per §6.4's field order. The ROM
// itself is not included; the cartridge's game code is stamped into the
// blob so a later LoadState can refuse a mismatched ROM.
func (c *Core) SaveState() []byte {
	return savestate.Encode(savestate.Sources{
		CPU:        c.cpu,
		Bus:        c.bus,
		DMA:        c.bus.DMA,
		Timer:      c.bus.Timer,
		IRQ:        c.irq,
		VState:     &c.bus.VState,
		FrameCount: &c.frameCount,
		GameCode:   c.header.GameCode,
	})
}

// LoadState restores the core from a previously captured SaveState blob.
// On error the core is left exactly as it was; a blob recorded against a
// different cartridge is rejected with a GameCodeMismatchError rather than
// silently applied.
func (c *Core) LoadState(data []byte) error {
	return savestate.Decode(data, savestate.Sources{
		CPU:        c.cpu,
		Bus:        c.bus,
		DMA:        c.bus.DMA,
		Timer:      c.bus.Timer,
		IRQ:        c.irq,
		VState:     &c.bus.VState,
		FrameCount: &c.frameCount,
		GameCode:   c.header.GameCode,
	})
}
