package video

// textBGMapDims returns the layer's tile-map dimensions in tiles for a text
// background, per the four size codes in BGxCNT bits 14-15.
func textBGMapDims(size uint8) (widthTiles, heightTiles int) {
	switch size {
	case 0:
		return 32, 32
	case 1:
		return 64, 32
	case 2:
		return 32, 64
	default:
		return 64, 64
	}
}

// textPixel resolves background layer bg's color at screen column x on the
// current scanline, per the text-BG pixel lookup procedure: wrap the
// scrolled coordinate into the map, pick the correct 256x256 screen block
// for wide/tall maps, decode the 16-bit screen entry, then index into the
// tile's 4bpp or 8bpp bitmap. ok is false for a transparent (palette index
// 0) pixel.
func textPixel(bus Bus, bg bgLayer, x, scanline int) (color uint16, ok bool) {
	widthTiles, heightTiles := textBGMapDims(bg.screenSize)
	mapWidthPx := widthTiles * 8
	mapHeightPx := heightTiles * 8

	mx := (x + int(bg.hofs)) % mapWidthPx
	my := (scanline + int(bg.vofs)) % mapHeightPx
	if mx < 0 {
		mx += mapWidthPx
	}
	if my < 0 {
		my += mapHeightPx
	}

	tileX, tileY := mx/8, my/8
	blockX, blockY := tileX/32, tileY/32

	var blockIndex int
	switch bg.screenSize {
	case 0:
		blockIndex = 0
	case 1:
		blockIndex = blockX
	case 2:
		blockIndex = blockY
	default:
		blockIndex = blockY*2 + blockX
	}

	vram := bus.VRAM()
	entryAddr := int(bg.screenBase) + blockIndex*0x800 + (tileY%32)*64 + (tileX%32)*2
	if entryAddr+1 >= len(vram) {
		return 0, false
	}
	entry := uint16(vram[entryAddr]) | uint16(vram[entryAddr+1])<<8

	tileNum := entry & 0x3FF
	hFlip := entry&(1<<10) != 0
	vFlip := entry&(1<<11) != 0
	palBank := uint8(entry >> 12 & 0xF)

	px, py := mx%8, my%8
	if hFlip {
		px = 7 - px
	}
	if vFlip {
		py = 7 - py
	}

	var index uint8
	if bg.is8bpp {
		off := int(bg.charBase) + int(tileNum)*64 + py*8 + px
		if off >= len(vram) {
			return 0, false
		}
		index = vram[off]
	} else {
		off := int(bg.charBase) + int(tileNum)*32 + py*4 + px/2
		if off >= len(vram) {
			return 0, false
		}
		b := vram[off]
		if px%2 == 0 {
			index = b & 0xF
		} else {
			index = b >> 4
		}
	}

	if index == 0 {
		return 0, false
	}
	if bg.is8bpp {
		return bgColor(bus.Palette(), 0, index), true
	}
	return bgColor(bus.Palette(), palBank, index), true
}
