package video

// objSizeTable maps (shape, size) to a sprite's (width, height) in pixels,
// per the OBJ size table in §3.4. shape 3 is reserved and never indexed.
var objSizeTable = [3][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},    // square
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},    // wide
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},    // tall
}

// objMode identifies an OAM entry's composition behavior, decoded from
// attr0 bits 10-11.
type objMode uint8

const (
	objNormal objMode = iota
	objSemitransparent
	objWindow
	objDisabledMode
)

// sprite is one OAM entry's decoded attributes.
type sprite struct {
	y, x           int
	width, height  int
	is8bpp         bool
	tileNum        uint16
	paletteBank    uint8
	priority       uint8
	hFlip, vFlip   bool
	mode           objMode
	affine         bool
	visible        bool
}

// parseSprite decodes OAM entry i (8 bytes starting at i*8) from the raw OAM
// buffer. Affine (rotation/scaling) sprites are decoded but marked
// non-visible: their attr1 field repurposes the flip bits as an affine
// parameter select, which this PPU doesn't implement (no per-sprite affine
// matrix support, matching the OAM field list in §3.4 which names H/V flip
// and tile mapping but no rotation parameters).
func parseSprite(oam []byte, i int) sprite {
	base := i * 8
	attr0 := uint16(oam[base]) | uint16(oam[base+1])<<8
	attr1 := uint16(oam[base+2]) | uint16(oam[base+3])<<8
	attr2 := uint16(oam[base+4]) | uint16(oam[base+5])<<8

	affine := attr0&(1<<8) != 0
	disabled := !affine && attr0&(1<<9) != 0

	y := int(attr0 & 0xFF)
	if y >= 160 {
		y -= 256
	}
	x := int(attr1 & 0x1FF)
	if x >= 240 {
		x -= 512
	}

	shape := (attr0 >> 14) & 0x3
	size := (attr1 >> 14) & 0x3
	w, h := 8, 8
	if shape < 3 {
		dims := objSizeTable[shape][size]
		w, h = dims[0], dims[1]
	}

	s := sprite{
		y: y, x: x, width: w, height: h,
		is8bpp:      attr0&(1<<13) != 0,
		tileNum:     attr2 & 0x3FF,
		paletteBank: uint8(attr2 >> 12 & 0xF),
		priority:    uint8(attr2 >> 10 & 0x3),
		mode:        objMode(attr0 >> 10 & 0x3),
		affine:      affine,
		visible:     !disabled && !affine && shape != 3,
	}
	if !affine {
		s.hFlip = attr1&(1<<12) != 0
		s.vFlip = attr1&(1<<13) != 0
	}
	return s
}

// onScanline reports whether sprite s covers scanline ly.
func (s sprite) onScanline(ly int) bool {
	return s.visible && ly >= s.y && ly < s.y+s.height
}

// objPixel resolves sprite s's color at screen column x on scanline ly
// under the active tile-mapping mode, per the 1D/2D addressing rules in
// §4.6. ok is false outside the sprite's horizontal span or at a
// transparent (index 0) pixel.
func objPixel(bus Bus, s sprite, obj1D bool, x, ly int) (color uint16, ok bool) {
	if x < s.x || x >= s.x+s.width {
		return 0, false
	}

	px, py := x-s.x, ly-s.y
	if s.hFlip {
		px = s.width - 1 - px
	}
	if s.vFlip {
		py = s.height - 1 - py
	}

	tileX, tileY := px/8, py/8
	tilesPerRow := s.width / 8

	var tileNum int
	if obj1D {
		stride := tilesPerRow
		if s.is8bpp {
			stride *= 2
		}
		tileNum = int(s.tileNum) + tileY*stride + tileX
	} else {
		const mapTilesPerRow = 32
		rowStep := 1
		if s.is8bpp {
			rowStep = 2
		}
		tileNum = int(s.tileNum) + tileY*mapTilesPerRow + tileX*rowStep
	}

	vram := bus.VRAM()
	const objTileBase = 0x10000
	inTileX, inTileY := px%8, py%8

	var index uint8
	if s.is8bpp {
		off := objTileBase + tileNum*64 + inTileY*8 + inTileX
		if off >= len(vram) {
			return 0, false
		}
		index = vram[off]
	} else {
		off := objTileBase + tileNum*32 + inTileY*4 + inTileX/2
		if off >= len(vram) {
			return 0, false
		}
		b := vram[off]
		if inTileX%2 == 0 {
			index = b & 0xF
		} else {
			index = b >> 4
		}
	}

	if index == 0 {
		return 0, false
	}
	if s.is8bpp {
		return objColor(bus.Palette(), 0, index), true
	}
	return objColor(bus.Palette(), s.paletteBank, index), true
}

// computeObjLine resolves every sprite's contribution to scanline ly in one
// pass, walking OAM entries in reverse (index 127 down to 0) so that a
// lower OAM index wins ties within the same priority class, matching
// hardware's OAM-order tiebreak. An OBJ-window sprite contributes no color,
// only a window mask.
func computeObjLine(bus Bus, sprites []sprite, obj1D bool, ly int) (color [FramebufferWidth]uint16, priority [FramebufferWidth]uint8, semi [FramebufferWidth]bool, winMask [FramebufferWidth]bool) {
	for i := range priority {
		priority[i] = 4
	}
	for i := len(sprites) - 1; i >= 0; i-- {
		s := sprites[i]
		if !s.onScanline(ly) {
			continue
		}
		for x := s.x; x < s.x+s.width; x++ {
			if x < 0 || x >= FramebufferWidth {
				continue
			}
			c, ok := objPixel(bus, s, obj1D, x, ly)
			if !ok {
				continue
			}
			if s.mode == objWindow {
				winMask[x] = true
				continue
			}
			if s.priority <= priority[x] {
				color[x] = c
				priority[x] = s.priority
				semi[x] = s.mode == objSemitransparent
			}
		}
	}
	return
}
