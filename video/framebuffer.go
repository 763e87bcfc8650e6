// Package video implements the GBA's scanline PPU: per-scanline background
// and sprite rendering plus the priority/blend compositor, generalized from
// the teacher's Game Boy tile/sprite/framebuffer model to the GBA's four
// background layers, affine transforms, bitmap modes and alpha blending.
package video

// FramebufferWidth and FramebufferHeight are the GBA's fixed output
// dimensions.
const (
	FramebufferWidth  = 240
	FramebufferHeight = 160
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

// FrameBuffer holds one rendered frame as RGB565 pixels, row-major, matching
// the host pixel format (§6.5).
type FrameBuffer struct {
	buffer []uint16
}

// NewFrameBuffer creates a black FrameBuffer of the fixed GBA dimensions.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{buffer: make([]uint16, FramebufferSize)}
}

// SetPixel stores a pixel already converted to RGB565.
func (fb *FrameBuffer) SetPixel(x, y int, color uint16) {
	fb.buffer[y*FramebufferWidth+x] = color
}

// GetPixel returns the RGB565 pixel at (x, y).
func (fb *FrameBuffer) GetPixel(x, y int) uint16 {
	return fb.buffer[y*FramebufferWidth+x]
}

// ToSlice returns the raw row-major RGB565 buffer for the host to consume.
func (fb *FrameBuffer) ToSlice() []uint16 {
	return fb.buffer
}

// Clear resets every pixel to black.
func (fb *FrameBuffer) Clear() {
	for i := range fb.buffer {
		fb.buffer[i] = 0
	}
}
