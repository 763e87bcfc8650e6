package video

import (
	"testing"

	"github.com/hallowmere/goemerald/addr"
)

func TestRenderScanlineForceBlankIsWhite(t *testing.T) {
	bus := newFakeBus()
	bus.io[addr.DISPCNT] = 1 << 7 // force blank

	p := NewPPU()
	p.RenderScanline(bus, 0)

	for x := 0; x < FramebufferWidth; x++ {
		if got := p.FrameBuffer().GetPixel(x, 0); got != 0xFFFF {
			t.Fatalf("pixel (%d,0) = %#04x, want 0xffff under force blank", x, got)
		}
	}
}

func TestRenderScanlineMode3BitmapPixel(t *testing.T) {
	bus := newFakeBus()
	bus.io[addr.DISPCNT] = 3 | 1<<10 // mode 3, BG2 enabled
	bus.io[addr.BG2PA] = 0x0100
	bus.io[addr.BG2PD] = 0x0100
	bus.vram[0] = 0x34
	bus.vram[1] = 0x12

	p := NewPPU()
	p.RenderScanline(bus, 0)

	want := BGR555ToRGB565(0x1234)
	if got := p.FrameBuffer().GetPixel(0, 0); got != want {
		t.Errorf("pixel(0,0) = %#04x, want %#04x", got, want)
	}
}

func TestRenderScanlineFallsBackToBackdropWhenNoLayerVisible(t *testing.T) {
	bus := newFakeBus()
	bus.io[addr.DISPCNT] = 0 // mode 0, no BGs/OBJ enabled
	bus.pal[0] = 0xFF
	bus.pal[1] = 0x7F // backdrop = white

	p := NewPPU()
	p.RenderScanline(bus, 0)

	want := BGR555ToRGB565(0x7FFF)
	if got := p.FrameBuffer().GetPixel(0, 0); got != want {
		t.Errorf("pixel(0,0) = %#04x, want backdrop %#04x", got, want)
	}
}

func TestRenderScanlineOBJWinsOverLowerPriorityBG(t *testing.T) {
	bus := newFakeBus()
	bus.io[addr.DISPCNT] = 1<<8 | 1<<12 // mode 0, BG0 + OBJ enabled

	// BG0: priority 3 (lowest), tile 1 with opaque index 9 at (0,0).
	bus.io[addr.BG0CNT] = 3
	bus.vram[0] = 1 // screen entry tile 1
	bus.vram[1*32] = 9

	// Sprite 0: priority 0 (highest), opaque index 2 at (0,0).
	const objTileBase = 0x10000
	putSpriteAttrs(bus.oam, 0, 0, 0, 0) // y=0, x=0, tile 0, priority 0
	bus.vram[objTileBase] = 2

	bus.pal[bgPaletteBase+9*2] = 0x11
	bus.pal[objPaletteBase+2*2] = 0x22

	p := NewPPU()
	p.RenderScanline(bus, 0)

	want := BGR555ToRGB565(objColor(bus.pal, 0, 2))
	if got := p.FrameBuffer().GetPixel(0, 0); got != want {
		t.Errorf("pixel(0,0) = %#04x, want OBJ color %#04x", got, want)
	}
}

func TestAdvanceAffineRefsAccumulatesPerScanline(t *testing.T) {
	bus := newFakeBus()
	bus.io[addr.DISPCNT] = 3 | 1<<10
	bus.io[addr.BG2PA] = 0x0100
	bus.io[addr.BG2PD] = 0x0100 // refY advances by 1.0 per scanline

	p := NewPPU()
	p.RenderScanline(bus, 0)
	if p.affine[0].refY != 0x100 {
		t.Errorf("refY after scanline 0 = %#x, want 0x100", p.affine[0].refY)
	}
	p.RenderScanline(bus, 1)
	if p.affine[0].refY != 0x200 {
		t.Errorf("refY after scanline 1 = %#x, want 0x200", p.affine[0].refY)
	}
}
