// Package bus implements the GBA's unified memory map: region decoding,
// mirroring and alignment rules, and the I/O register side effects that tie
// the CPU, PPU, DMA engine, timers, interrupt controller and cartridge
// together. Grounded on the teacher's MMU (region-map switch over a fixed
// byte table, with region buffers owned directly by the bus), generalized
// from the Game Boy's 16-bit address space to the GBA's 32-bit one.
package bus

import (
	"github.com/hallowmere/goemerald/bit"
	"github.com/hallowmere/goemerald/cart"
	"github.com/hallowmere/goemerald/diag"
	"github.com/hallowmere/goemerald/dma"
	"github.com/hallowmere/goemerald/interrupt"
	"github.com/hallowmere/goemerald/timer"
)

type region uint8

const (
	regionBIOS region = iota
	regionEWRAM
	regionIWRAM
	regionIO
	regionPalette
	regionVRAM
	regionOAM
	regionROM
	regionSRAM
	regionUnmapped
)

const (
	biosSize    = 16 * 1024
	ewramSize   = 256 * 1024
	iwramSize   = 32 * 1024
	paletteSize = 1024
	vramSize    = 96 * 1024
	oamSize     = 1024

	// aiInputOffset is the EWRAM byte offset the input subsystem writes the
	// host button mask to; it behaves as ordinary EWRAM to the CPU and only
	// exists as a well-known location higher layers read from.
	aiInputOffset = 0x3CF64
)

// Bus is the GBA's unified address space. It owns every region buffer
// directly (invariant B1: the bus is the sole owner of region buffers) and
// forwards to the subsystems that own targeted I/O side effects.
type Bus struct {
	bios    []byte
	ewram   []byte
	iwram   []byte
	palette []byte
	vram    []byte
	oam     []byte
	rom     []byte
	backing *cart.Backing
	gpio    *cart.GPIO

	IRQ    *interrupt.Controller
	DMA    *dma.Engine
	Timer  *timer.Unit
	VState interrupt.VBlankState

	diag *diag.Sink

	io       []byte // raw backing for I/O registers with no targeted side effect
	vcount   uint8
	keyinput uint16 // active-low button state, synthesized by the input subsystem
	postflg  uint8
	waitcnt  uint16
	haltcnt  uint8
}

// SetVCount updates the VCOUNT register, driven by the frame driver at the
// start of each scanline.
func (b *Bus) SetVCount(ly uint8) { b.vcount = ly }

// VCount returns the current VCOUNT value.
func (b *Bus) VCount() uint8 { return b.vcount }

// Halted reports whether the CPU halt-stop register (HALTCNT) was written,
// for subsystems outside the CPU that want to know without importing cpu.
func (b *Bus) Halted() bool { return b.haltcnt != 0 }

// ClearHalt resets HALTCNT, called once the frame driver wakes the CPU on a
// pending interrupt.
func (b *Bus) ClearHalt() { b.haltcnt = 0 }

// New creates a Bus with all RAM regions zeroed and no ROM attached. Callers
// must call AttachROM before running the CPU.
func New(irq *interrupt.Controller, d *diag.Sink) *Bus {
	b := &Bus{
		bios:     make([]byte, biosSize),
		ewram:    make([]byte, ewramSize),
		iwram:    make([]byte, iwramSize),
		palette:  make([]byte, paletteSize),
		vram:     make([]byte, vramSize),
		oam:      make([]byte, oamSize),
		IRQ:      irq,
		diag:     d,
		keyinput: 0x03FF,
	}
	b.Timer = timer.New(irq.Raise)
	b.DMA = dma.New(b, irq.Raise)
	return b
}

// AttachROM loads rom bytes as the cartridge ROM and creates the matching
// save-device backing (SRAM or flash, auto-detected from the ROM's save-type
// marker string) and GPIO+RTC block.
func (b *Bus) AttachROM(rom []byte) {
	b.rom = rom
	b.backing = cart.NewBacking(cart.DetectBackingKind(rom))
	b.gpio = cart.NewGPIO()
}

// SetBIOS loads the 16 KiB BIOS image used to service the exception vectors.
func (b *Bus) SetBIOS(image []byte) {
	n := copy(b.bios, image)
	for i := n; i < len(b.bios); i++ {
		b.bios[i] = 0
	}
}

// SetKeyInput updates the active-low KEYINPUT register from a host button
// mask (bit i = 1 means pressed) and mirrors it into the AI-input EWRAM byte
// per the host-driven-input contract.
func (b *Bus) SetKeyInput(buttons uint16) {
	b.keyinput = ^buttons & 0x03FF
	if aiInputOffset+1 < len(b.ewram) {
		b.ewram[aiInputOffset] = uint8(buttons)
		b.ewram[aiInputOffset+1] = uint8(buttons >> 8)
	}
}

// VRAM, OAM and Palette expose the raw region slices for the PPU's bulk tile
// and sprite reads, per invariant B1's carve-out for borrowed reads.
func (b *Bus) VRAM() []byte    { return b.vram }
func (b *Bus) OAM() []byte     { return b.oam }
func (b *Bus) Palette() []byte { return b.palette }
func (b *Bus) EWRAM() []byte   { return b.ewram }
func (b *Bus) IWRAM() []byte   { return b.iwram }
func (b *Bus) ROM() []byte     { return b.rom }

// IOBuffer exposes the raw I/O register backing store for the save-state
// codec; it lazily allocates on first use, same as every internal caller.
func (b *Bus) IOBuffer() []byte { return b.ioBuf() }

// GPIO exposes the attached GPIO+RTC block for the save-state codec. It is
// nil until AttachROM has run.
func (b *Bus) GPIO() *cart.GPIO { return b.gpio }

// State is a flat, serializable copy of the bus's scalar registers not
// already covered by a region buffer or an owned subsystem's own Snapshot,
// used by the save-state codec.
type State struct {
	VCount   uint8
	KeyInput uint16
	PostFlg  uint8
	WaitCnt  uint16
	HaltCnt  uint8
}

// Snapshot captures the bus's scalar register state.
func (b *Bus) Snapshot() State {
	return State{
		VCount:   b.vcount,
		KeyInput: b.keyinput,
		PostFlg:  b.postflg,
		WaitCnt:  b.waitcnt,
		HaltCnt:  b.haltcnt,
	}
}

// Restore replaces the bus's scalar register state with a previously
// captured State.
func (b *Bus) Restore(s State) {
	b.vcount = s.VCount
	b.keyinput = s.KeyInput
	b.postflg = s.PostFlg
	b.waitcnt = s.WaitCnt
	b.haltcnt = s.HaltCnt
}

func classify(address uint32) region {
	switch (address >> 24) & 0xFF {
	case 0x00:
		return regionBIOS
	case 0x02:
		return regionEWRAM
	case 0x01, 0x03:
		return regionIWRAM
	case 0x04:
		return regionIO
	case 0x05:
		return regionPalette
	case 0x06:
		return regionVRAM
	case 0x07:
		return regionOAM
	case 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D:
		return regionROM
	case 0x0E, 0x0F:
		return regionSRAM
	default:
		return regionUnmapped
	}
}

// vramOffset implements the 128 KiB mirror window with its 96-to-32 KiB
// submirror quirk: the last 32 KiB of each 128 KiB block mirrors the 32 KiB
// immediately before it (0x06010000-0x06017FFF), rather than the whole 96
// KiB region repeating cleanly.
func vramOffset(address uint32) uint32 {
	off := address % (128 * 1024)
	if off >= 0x18000 {
		off -= 0x8000
	}
	return off
}

// Read8 reads a single byte, honoring each region's mirror rule.
func (b *Bus) Read8(address uint32) uint8 {
	switch classify(address) {
	case regionBIOS:
		return b.bios[address%biosSize]
	case regionEWRAM:
		return b.ewram[address%ewramSize]
	case regionIWRAM:
		return b.iwram[address%iwramSize]
	case regionIO:
		return uint8(b.readIO(address&^1) >> ((address & 1) * 8))
	case regionPalette:
		return b.palette[address%paletteSize]
	case regionVRAM:
		return b.vram[vramOffset(address)]
	case regionOAM:
		return b.oam[address%oamSize]
	case regionROM:
		return b.readROM8(address)
	case regionSRAM:
		if b.backing == nil {
			return 0xFF
		}
		return b.backing.Read(address)
	default:
		if b.diag != nil {
			b.diag.Report(diag.ClassUnmappedRead, "unmapped byte read", "addr", address)
		}
		return 0
	}
}

// Write8 writes a single byte. Palette RAM and VRAM only accept 16/32-bit
// writes on real hardware; an 8-bit write to either replicates the byte into
// both halves of the containing 16-bit halfword, the documented hardware
// behavior rather than a silent drop.
func (b *Bus) Write8(address uint32, v uint8) {
	switch classify(address) {
	case regionBIOS:
		// read-only
	case regionEWRAM:
		b.ewram[address%ewramSize] = v
	case regionIWRAM:
		b.iwram[address%iwramSize] = v
	case regionIO:
		b.writeIO8(address, v)
	case regionPalette:
		b.Write16(address&^1, uint16(v)|uint16(v)<<8)
	case regionVRAM:
		b.Write16(address&^1, uint16(v)|uint16(v)<<8)
	case regionOAM:
		// 8-bit writes to OAM are ignored on real hardware (no partial
		// sprite-attribute corruption from a stray byte store).
	case regionROM:
		b.writeGPIO(address, uint16(v))
	case regionSRAM:
		if b.backing != nil {
			b.backing.Write(address, v)
		}
	default:
		if b.diag != nil {
			b.diag.Report(diag.ClassUnmappedWrite, "unmapped byte write", "addr", address, "value", v)
		}
	}
}

// Read16 reads a halfword, aligning the address down to an even boundary.
func (b *Bus) Read16(address uint32) uint16 {
	address &^= 1
	switch classify(address) {
	case regionBIOS:
		return bit.Combine(b.bios[(address+1)%biosSize], b.bios[address%biosSize])
	case regionEWRAM:
		return bit.Combine(b.ewram[(address+1)%ewramSize], b.ewram[address%ewramSize])
	case regionIWRAM:
		return bit.Combine(b.iwram[(address+1)%iwramSize], b.iwram[address%iwramSize])
	case regionIO:
		return b.readIO(address)
	case regionPalette:
		lo := address % paletteSize
		return bit.Combine(b.palette[lo+1], b.palette[lo])
	case regionVRAM:
		off := vramOffset(address)
		return bit.Combine(b.vram[off+1], b.vram[off])
	case regionOAM:
		lo := address % oamSize
		return bit.Combine(b.oam[lo+1], b.oam[lo])
	case regionROM:
		if address&0xFFFFFF >= 0xC4 && address&0xFFFFFF <= 0xC9 {
			return b.readGPIO(address)
		}
		return bit.Combine(b.readROM8(address+1), b.readROM8(address))
	case regionSRAM:
		v := uint16(b.Read8(address))
		return v | v<<8
	default:
		if b.diag != nil {
			b.diag.Report(diag.ClassUnmappedRead, "unmapped halfword read", "addr", address)
		}
		return 0
	}
}

// Write16 writes a halfword, aligning the address down to an even boundary.
func (b *Bus) Write16(address uint32, v uint16) {
	address &^= 1
	switch classify(address) {
	case regionBIOS:
	case regionEWRAM:
		b.ewram[address%ewramSize] = uint8(v)
		b.ewram[(address+1)%ewramSize] = uint8(v >> 8)
	case regionIWRAM:
		b.iwram[address%iwramSize] = uint8(v)
		b.iwram[(address+1)%iwramSize] = uint8(v >> 8)
	case regionIO:
		b.writeIO(address, v)
	case regionPalette:
		lo := address % paletteSize
		b.palette[lo] = uint8(v)
		b.palette[lo+1] = uint8(v >> 8)
	case regionVRAM:
		off := vramOffset(address)
		b.vram[off] = uint8(v)
		b.vram[off+1] = uint8(v >> 8)
	case regionOAM:
		lo := address % oamSize
		b.oam[lo] = uint8(v)
		b.oam[lo+1] = uint8(v >> 8)
	case regionROM:
		b.writeGPIO(address, v)
	case regionSRAM:
		b.Write8(address, uint8(v))
	default:
		if b.diag != nil {
			b.diag.Report(diag.ClassUnmappedWrite, "unmapped halfword write", "addr", address, "value", v)
		}
	}
}

// Read32 reads a word, aligning the address down to a 4-byte boundary. A
// misaligned CPU request (address not a multiple of 4) gets the aligned
// word rotated right by (address&3)*8 bits, the documented ARM LDR
// behavior rather than a silent realignment.
func (b *Bus) Read32(address uint32) uint32 {
	aligned := address &^ 3
	lo := b.Read16(aligned)
	hi := b.Read16(aligned + 2)
	word := uint32(lo) | uint32(hi)<<16
	rot := (address & 3) * 8
	if rot == 0 {
		return word
	}
	return bit.RotateRight32(word, uint(rot))
}

// Write32 writes a word, aligning the address down to a 4-byte boundary.
// DMA source/destination registers are 32-bit on real hardware and are
// latched as a single unit when written this way, rather than as two
// independent halfword writes.
func (b *Bus) Write32(address uint32, v uint32) {
	aligned := address &^ 3
	if classify(aligned) == regionIO && isDMASrcDstRegister(aligned) {
		b.writeDMA(aligned, uint16(v), v, true)
		return
	}
	b.Write16(aligned, uint16(v))
	b.Write16(aligned+2, uint16(v>>16))
}

func (b *Bus) readROM8(address uint32) uint8 {
	off := address & 0x01FFFFFF
	if int(off) >= len(b.rom) {
		return 0
	}
	return b.rom[off]
}

func (b *Bus) readGPIO(address uint32) uint16 {
	if b.gpio == nil || (!b.gpio.Visible() && (address&0xF) != 0x6 && (address&0xF) != 0x8) {
		return uint16(b.readROM8(address)) | uint16(b.readROM8(address+1))<<8
	}
	return b.gpio.Read16(address)
}

func (b *Bus) writeGPIO(address uint32, v uint16) {
	off := address & 0xFFFFFF
	if b.gpio == nil || off < 0xC4 || off > 0xC9 {
		return // ROM writes outside the GPIO window are no-ops
	}
	b.gpio.Write16(address, v)
}
