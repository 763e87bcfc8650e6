package video

import "github.com/hallowmere/goemerald/addr"

// Bus is the minimal memory surface the PPU needs: raw VRAM/OAM/palette
// slices for bulk tile/sprite/color lookups, and register reads for the
// per-scanline BG/affine/window/blend context. goemerald's bus package
// satisfies this structurally without either package importing the other.
type Bus interface {
	VRAM() []byte
	OAM() []byte
	Palette() []byte
	Read16(address uint32) uint16
}

// bgLayer is the per-scanline decode of one background's BGxCNT/HOFS/VOFS,
// grounded on the LCDC-flag-accessor idiom the teacher uses for its own
// single-background Game Boy registers, generalized to four independently
// configured layers.
type bgLayer struct {
	priority    uint8
	charBase    uint32 // byte offset into VRAM
	mosaic      bool
	is8bpp      bool
	screenBase  uint32 // byte offset into VRAM
	affineWrap  bool
	screenSize  uint8 // 0-3, meaning depends on text vs affine
	hofs, vofs  uint16
}

func readBGLayer(bus Bus, cntAddr, hofsAddr, vofsAddr uint32) bgLayer {
	cnt := bus.Read16(cntAddr)
	l := bgLayer{
		priority:   uint8(cnt & 0x3),
		charBase:   uint32(cnt>>2&0x3) * 0x4000,
		mosaic:     cnt&(1<<6) != 0,
		is8bpp:     cnt&(1<<7) != 0,
		screenBase: uint32(cnt>>8&0x1F) * 0x800,
		affineWrap: cnt&(1<<13) != 0,
		screenSize: uint8(cnt >> 14 & 0x3),
	}
	if hofsAddr != 0 {
		l.hofs = bus.Read16(hofsAddr) & 0x1FF
		l.vofs = bus.Read16(vofsAddr) & 0x1FF
	}
	return l
}

// affineParams holds one affine background's per-scanline PA/PB/PC/PD and
// its live 28-bit signed fixed-point reference point. PA/PC step the
// sampled texture coordinate across a scanline's 240 columns; PB/PD step
// the reference point itself between scanlines (applied by
// PPU.AdvanceAffineRefs).
type affineParams struct {
	pa, pb, pc, pd int32 // 16-bit values sign-extended, 8.8 fixed point
	refX, refY     int32 // 28-bit values sign-extended, 19.8 fixed point
}

func readAffineCoeff(bus Bus, address uint32) int32 {
	v := bus.Read16(address)
	return int32(int16(v))
}

func readAffineRef(bus Bus, loAddr uint32) int32 {
	lo := uint32(bus.Read16(loAddr))
	hi := uint32(bus.Read16(loAddr + 2))
	raw := lo | hi<<16
	// sign-extend from bit 27
	raw <<= 4
	return int32(raw) >> 4
}

// dispControl is the per-scanline decode of DISPCNT.
type dispControl struct {
	mode        uint8
	frameSelect uint8
	obj1D       bool
	forceBlank  bool
	bgEnable    [4]bool
	objEnable   bool
	win0Enable  bool
	win1Enable  bool
	winObjEnable bool
}

func readDispControl(bus Bus) dispControl {
	v := bus.Read16(addr.DISPCNT)
	var d dispControl
	d.mode = uint8(v & 0x7)
	d.frameSelect = uint8(v >> 4 & 1)
	d.obj1D = v&(1<<6) != 0
	d.forceBlank = v&(1<<7) != 0
	for i := 0; i < 4; i++ {
		d.bgEnable[i] = v&(1<<(8+uint(i))) != 0
	}
	d.objEnable = v&(1<<12) != 0
	d.win0Enable = v&(1<<13) != 0
	d.win1Enable = v&(1<<14) != 0
	d.winObjEnable = v&(1<<15) != 0
	return d
}

// blendControl is the per-scanline decode of BLDCNT/BLDALPHA/BLDY.
type blendControl struct {
	mode               uint8 // 0 none, 1 alpha, 2 brighten, 3 darken
	firstTarget        [6]bool // BG0-3, OBJ, backdrop
	secondTarget       [6]bool
	eva, evb, evy      uint8
}

func readBlendControl(bus Bus) blendControl {
	cnt := bus.Read16(addr.BLDCNT)
	alpha := bus.Read16(addr.BLDALPHA)
	evy := bus.Read16(addr.BLDY)
	var b blendControl
	b.mode = uint8(cnt >> 6 & 0x3)
	for i := 0; i < 6; i++ {
		b.firstTarget[i] = cnt&(1<<uint(i)) != 0
		b.secondTarget[i] = cnt&(1<<uint(i+8)) != 0
	}
	b.eva = clampEV(uint8(alpha & 0x1F))
	b.evb = clampEV(uint8(alpha >> 8 & 0x1F))
	b.evy = clampEV(uint8(evy & 0x1F))
	return b
}

func clampEV(v uint8) uint8 {
	if v > 16 {
		return 16
	}
	return v
}

// windowConfig is the per-scanline decode of WIN0H/V, WIN1H/V, WININ/WINOUT.
type windowConfig struct {
	win0Left, win0Right, win0Top, win0Bottom uint8
	win1Left, win1Right, win1Top, win1Bottom uint8
	win0Enable                                [6]bool
	win1Enable                                [6]bool
	outEnable                                  [6]bool
	objWinEnable                               [6]bool
}

func readWindowConfig(bus Bus) windowConfig {
	win0h := bus.Read16(addr.WIN0H)
	win0v := bus.Read16(addr.WIN0V)
	win1h := bus.Read16(addr.WIN1H)
	win1v := bus.Read16(addr.WIN1V)
	winin := bus.Read16(addr.WININ)
	winout := bus.Read16(addr.WINOUT)

	var w windowConfig
	w.win0Left, w.win0Right = uint8(win0h>>8), uint8(win0h)
	w.win0Top, w.win0Bottom = uint8(win0v>>8), uint8(win0v)
	w.win1Left, w.win1Right = uint8(win1h>>8), uint8(win1h)
	w.win1Top, w.win1Bottom = uint8(win1v>>8), uint8(win1v)
	for i := 0; i < 6; i++ {
		w.win0Enable[i] = winin&(1<<uint(i)) != 0
		w.win1Enable[i] = winin&(1<<uint(i+8)) != 0
		w.outEnable[i] = winout&(1<<uint(i)) != 0
		w.objWinEnable[i] = winout&(1<<uint(i+8)) != 0
	}
	return w
}

// insideWindow reports whether v falls within a window's [lo, hi) span on
// one axis, wrapping like real hardware when hi < lo.
func insideWindow(v, lo, hi uint8) bool {
	if lo <= hi {
		return v >= lo && v < hi
	}
	return v >= lo || v < hi
}
