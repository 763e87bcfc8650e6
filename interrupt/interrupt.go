// Package interrupt implements the GBA's interrupt controller: the IE, IF
// and IME registers and the bookkeeping that raises VBlank/HBlank/VCount
// interrupts as the PPU crosses scanline boundaries.
package interrupt

import "github.com/hallowmere/goemerald/addr"

// Controller owns IE/IF/IME and is shared by reference across the CPU, PPU,
// DMA engine and timers, replacing the teacher's single-callback
// (RequestInterrupt) injection with an owned struct any subsystem can raise
// against directly.
type Controller struct {
	ie  uint16
	iff uint16
	ime bool
}

// New returns a Controller with all sources masked and IME disabled, the
// post-reset state of real hardware.
func New() *Controller {
	return &Controller{}
}

// Reset clears IE/IF and disables IME.
func (c *Controller) Reset() {
	c.ie = 0
	c.iff = 0
	c.ime = false
}

// Raise sets the IF bits for the given source(s). Multiple sources may be
// OR'd together, e.g. for a DMA channel completing during HBlank.
func (c *Controller) Raise(sources addr.Interrupt) {
	c.iff |= uint16(sources)
}

// Pending reports whether any enabled, requested, unmasked interrupt is
// outstanding: IME set, and (IE & IF) != 0.
func (c *Controller) Pending() bool {
	return c.ime && (c.ie&c.iff) != 0
}

// ReadIE returns the current IE register value.
func (c *Controller) ReadIE() uint16 { return c.ie }

// WriteIE sets the IE register. Only the low 14 bits are meaningful; the
// bus is responsible for masking before calling this if it cares.
func (c *Controller) WriteIE(value uint16) { c.ie = value }

// ReadIF returns the current IF register value.
func (c *Controller) ReadIF() uint16 { return c.iff }

// WriteIF clears the IF bits set in the written value (write-1-to-clear),
// matching real hardware; IRQ entry itself leaves IF untouched.
func (c *Controller) WriteIF(value uint16) {
	c.iff &^= value
}

// ReadIME returns IME as a 0/1 word, matching the register's bus width.
func (c *Controller) ReadIME() uint16 {
	if c.ime {
		return 1
	}
	return 0
}

// WriteIME sets IME from the register's low bit.
func (c *Controller) WriteIME(value uint16) {
	c.ime = value&1 != 0
}

// RestoreIF directly overwrites the IF register, bypassing the
// write-1-to-clear semantics WriteIF applies to CPU-facing writes. Used
// only by the save-state codec.
func (c *Controller) RestoreIF(value uint16) { c.iff = value }

// IME reports whether the master interrupt enable is currently set.
func (c *Controller) IME() bool { return c.ime }

// SetIME is a direct setter, used by the save-state codec to restore IME.
func (c *Controller) SetIME(on bool) { c.ime = on }

// VBlankState tracks the scanline-granularity state needed to raise
// VBlank/HBlank/VCount-match interrupts and populate DISPSTAT, per the
// scanline-granularity decision for the DISPSTAT open question.
type VBlankState struct {
	vblank    bool
	hblank    bool
	vcounter  bool
	lyc       uint8
	vblankIRQ bool
	hblankIRQ bool
	vcountIRQ bool
}

// OnScanlineStart is called by the frame driver at the beginning of each scanline
// (ly in 0..227) to update DISPSTAT flags and raise interrupts.
func (c *Controller) OnScanlineStart(v *VBlankState, ly uint8) {
	v.vblank = ly >= 160 && ly != 227
	v.vcounter = ly == v.lyc

	if ly == 160 && v.vblankIRQ {
		c.Raise(addr.IRQVBlank)
	}
	if v.vcounter && v.vcountIRQ {
		c.Raise(addr.IRQVCount)
	}
}

// OnHBlankStart is called by the frame driver once a visible scanline has
// been rendered, i.e. the start of its horizontal blank.
func (c *Controller) OnHBlankStart(v *VBlankState) {
	v.hblank = true
	if v.hblankIRQ {
		c.Raise(addr.IRQHBlank)
	}
}

// OnHBlankEnd clears the HBlank flag ahead of the next scanline.
func (v *VBlankState) OnHBlankEnd() {
	v.hblank = false
}

// VBlankSnapshot is a flat, serializable copy of VBlankState, used by the
// save-state codec.
type VBlankSnapshot struct {
	Vblank, Hblank, Vcounter        bool
	Lyc                             uint8
	VblankIRQ, HblankIRQ, VcountIRQ bool
}

// Snapshot captures the scanline-status state.
func (v *VBlankState) Snapshot() VBlankSnapshot {
	return VBlankSnapshot{
		Vblank: v.vblank, Hblank: v.hblank, Vcounter: v.vcounter, Lyc: v.lyc,
		VblankIRQ: v.vblankIRQ, HblankIRQ: v.hblankIRQ, VcountIRQ: v.vcountIRQ,
	}
}

// Restore replaces the scanline-status state with a previously captured
// VBlankSnapshot.
func (v *VBlankState) Restore(s VBlankSnapshot) {
	v.vblank, v.hblank, v.vcounter, v.lyc = s.Vblank, s.Hblank, s.Vcounter, s.Lyc
	v.vblankIRQ, v.hblankIRQ, v.vcountIRQ = s.VblankIRQ, s.HblankIRQ, s.VcountIRQ
}

// DISPSTAT returns the DISPSTAT register value driven by this state: bit0
// VBlank, bit1 HBlank, bit2 VCounter match, bits 3-5 IRQ enables, bits 8-15
// the LYC compare value.
func (v *VBlankState) DISPSTAT() uint16 {
	var out uint16
	if v.vblank {
		out |= 1 << 0
	}
	if v.hblank {
		out |= 1 << 1
	}
	if v.vcounter {
		out |= 1 << 2
	}
	if v.vblankIRQ {
		out |= 1 << 3
	}
	if v.hblankIRQ {
		out |= 1 << 4
	}
	if v.vcountIRQ {
		out |= 1 << 5
	}
	out |= uint16(v.lyc) << 8
	return out
}

// SetDISPSTAT applies a write to DISPSTAT, updating the IRQ-enable bits and
// the LYC compare value while leaving the read-only status bits (0-2) alone.
func (v *VBlankState) SetDISPSTAT(value uint16) {
	v.vblankIRQ = value&(1<<3) != 0
	v.hblankIRQ = value&(1<<4) != 0
	v.vcountIRQ = value&(1<<5) != 0
	v.lyc = uint8(value >> 8)
}
