package video

// affineBGMapSize returns an affine background's square map size in pixels
// for its screen-size code (0-3): 128, 256, 512 or 1024.
func affineBGMapSize(size uint8) int {
	return 128 << uint(size)
}

// affinePixel resolves affine background bg's color at screen column x,
// sampling the rotated/scaled texture coordinate `(refX + x*PA, refY +
// x*PC)` (both 8.8 fixed point) computed from the scanline's live reference
// point; the reference point itself advances by (PB, PD) between
// scanlines. Affine BGs have no scroll registers and always use an 8bpp,
// 1-byte-per-tile map. ok is false for an out-of-range (non-wrapping) or
// palette-index-0 (transparent) pixel.
func affinePixel(bus Bus, bg bgLayer, aff affineParams, x int) (color uint16, ok bool) {
	sampleX := aff.refX + int32(x)*aff.pa
	sampleY := aff.refY + int32(x)*aff.pc

	texX := int(sampleX >> 8)
	texY := int(sampleY >> 8)

	mapSize := affineBGMapSize(bg.screenSize)
	if bg.affineWrap {
		texX = ((texX % mapSize) + mapSize) % mapSize
		texY = ((texY % mapSize) + mapSize) % mapSize
	} else if texX < 0 || texX >= mapSize || texY < 0 || texY >= mapSize {
		return 0, false
	}

	mapSizeTiles := mapSize / 8
	tileX, tileY := texX/8, texY/8
	vram := bus.VRAM()

	mapOff := int(bg.screenBase) + tileY*mapSizeTiles + tileX
	if mapOff >= len(vram) {
		return 0, false
	}
	tileNum := vram[mapOff]

	px, py := texX%8, texY%8
	tileOff := int(bg.charBase) + int(tileNum)*64 + py*8 + px
	if tileOff >= len(vram) {
		return 0, false
	}
	index := vram[tileOff]
	if index == 0 {
		return 0, false
	}
	return bgColor(bus.Palette(), 0, index), true
}
