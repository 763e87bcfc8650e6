package video

import (
	"testing"

	"github.com/hallowmere/goemerald/addr"
)

// fakeBus is a minimal in-memory Bus for exercising the pixel-lookup
// helpers without pulling in the bus package.
type fakeBus struct {
	vram, oam, pal []byte
	io             map[uint32]uint16
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		vram: make([]byte, 96*1024),
		oam:  make([]byte, 1024),
		pal:  make([]byte, 1024),
		io:   make(map[uint32]uint16),
	}
}

func (b *fakeBus) VRAM() []byte    { return b.vram }
func (b *fakeBus) OAM() []byte     { return b.oam }
func (b *fakeBus) Palette() []byte { return b.pal }
func (b *fakeBus) Read16(address uint32) uint16 {
	return b.io[address]
}

func TestReadBGLayerDecodesFields(t *testing.T) {
	bus := newFakeBus()
	// priority=2, charBase=1*0x4000, mosaic=1, 8bpp=1, screenBase=3*0x800,
	// affineWrap=1, screenSize=2
	cnt := uint16(2) | 1<<2 | 1<<6 | 1<<7 | 3<<8 | 1<<13 | 2<<14
	bus.io[addr.BG0CNT] = cnt
	bus.io[addr.BG0HOFS] = 300 // masked to 9 bits
	bus.io[addr.BG0VOFS] = 10

	bg := readBGLayer(bus, addr.BG0CNT, addr.BG0HOFS, addr.BG0VOFS)
	if bg.priority != 2 || bg.charBase != 0x4000 || !bg.mosaic || !bg.is8bpp ||
		bg.screenBase != 3*0x800 || !bg.affineWrap || bg.screenSize != 2 {
		t.Fatalf("unexpected bgLayer decode: %+v", bg)
	}
	if bg.hofs != 300&0x1FF || bg.vofs != 10 {
		t.Errorf("unexpected scroll offsets: hofs=%d vofs=%d", bg.hofs, bg.vofs)
	}
}

func TestReadAffineRefSignExtends(t *testing.T) {
	bus := newFakeBus()
	// A negative 28-bit reference: -1 in 28-bit two's complement is
	// 0x0FFFFFFF.
	raw := uint32(0x0FFFFFFF)
	bus.io[addr.BG2X] = uint16(raw)
	bus.io[addr.BG2X+2] = uint16(raw >> 16)

	got := readAffineRef(bus, addr.BG2X)
	if got != -1 {
		t.Errorf("readAffineRef() = %d, want -1", got)
	}
}

func TestReadAffineCoeffSignExtends16(t *testing.T) {
	bus := newFakeBus()
	bus.io[addr.BG2PA] = 0xFF00 // -256 in 8.8 fixed point
	if got := readAffineCoeff(bus, addr.BG2PA); got != -256 {
		t.Errorf("readAffineCoeff() = %d, want -256", got)
	}
}

func TestInsideWindowWraps(t *testing.T) {
	if !insideWindow(5, 0, 10) {
		t.Error("expected 5 inside [0,10)")
	}
	if insideWindow(20, 0, 10) {
		t.Error("expected 20 outside [0,10)")
	}
	// wraparound: lo > hi means the window spans the edge
	if !insideWindow(250, 200, 50) {
		t.Error("expected 250 inside wrapping window [200,50)")
	}
	if !insideWindow(10, 200, 50) {
		t.Error("expected 10 inside wrapping window [200,50)")
	}
	if insideWindow(100, 200, 50) {
		t.Error("expected 100 outside wrapping window [200,50)")
	}
}

func TestReadDispControlDecodesBGEnables(t *testing.T) {
	bus := newFakeBus()
	bus.io[addr.DISPCNT] = 0x5 | 1<<10 | 1<<12
	d := readDispControl(bus)
	if d.mode != 5 {
		t.Errorf("mode = %d, want 5", d.mode)
	}
	if !d.bgEnable[2] || d.bgEnable[0] || d.bgEnable[1] || d.bgEnable[3] {
		t.Errorf("unexpected bgEnable: %+v", d.bgEnable)
	}
	if !d.objEnable {
		t.Error("expected objEnable")
	}
}
