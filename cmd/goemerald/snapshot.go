package main

import (
	"fmt"
	"os"

	"github.com/hallowmere/goemerald/video"
)

// pixelToShade buckets an RGB565 pixel into one of four brightness levels,
// generalized from the Game Boy renderer's four fixed shades (which mapped
// exact RGBA32 constants to 0-3) to a GBA framebuffer's full RGB565 range.
func pixelToShade(pixel uint16) int {
	r := (pixel >> 11) & 0x1F
	g := (pixel >> 5) & 0x3F
	b := pixel & 0x1F
	// Scale to a common 0-31 range before averaging so green's extra bit
	// doesn't skew brightness.
	lum := (int(r) + int(g>>1) + int(b)) / 3
	switch {
	case lum < 4:
		return 0
	case lum < 12:
		return 1
	case lum < 24:
		return 2
	default:
		return 3
	}
}

// halfBlockChar picks a Unicode half-block glyph for a pair of vertically
// stacked shades, same rule the teacher's GetHalfBlockChar uses: same shade
// collapses to a full block, otherwise split top/bottom.
func halfBlockChar(top, bottom int) rune {
	switch {
	case top == bottom:
		return '█'
	case top >= bottom:
		return '▀'
	default:
		return '▄'
	}
}

// renderFrameToHalfBlocks converts an RGB565 framebuffer to one text line
// per two pixel rows, retargeting render.RenderFrameToHalfBlocks to the
// GBA's 240x160 output and 16-bit pixel format.
func renderFrameToHalfBlocks(fb *video.FrameBuffer) []string {
	const width, height = video.FramebufferWidth, video.FramebufferHeight
	lines := make([]string, height/2)

	for row := range lines {
		line := make([]rune, width)
		topRow := row * 2
		bottomRow := topRow + 1
		for x := 0; x < width; x++ {
			top := pixelToShade(fb.GetPixel(x, topRow))
			bottom := pixelToShade(fb.GetPixel(x, bottomRow))
			line[x] = halfBlockChar(top, bottom)
		}
		lines[row] = string(line)
	}

	return lines
}

func saveFrameSnapshot(fb *video.FrameBuffer, frameNum int, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "# goemerald frame snapshot (half-block rendering)\n")
	fmt.Fprintf(file, "# Frame: %d\n", frameNum)
	fmt.Fprintf(file, "# Resolution: %dx%d pixels -> %dx%d text rows\n",
		video.FramebufferWidth, video.FramebufferHeight, video.FramebufferWidth, video.FramebufferHeight/2)
	fmt.Fprintf(file, "# Characters: ▀ ▄ █ (upper half, lower half, full block)\n#\n")

	for _, line := range renderFrameToHalfBlocks(fb) {
		fmt.Fprintf(file, "%s\n", line)
	}

	return nil
}
