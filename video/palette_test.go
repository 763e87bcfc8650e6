package video

import "testing"

func TestBGR555ToRGB565(t *testing.T) {
	tests := []struct {
		name     string
		in       uint16
		expected uint16
	}{
		{"black", 0x0000, 0x0000},
		{"white", 0x7FFF, 0xFFFF},
		{"pure red", 0x001F, 0xF800},
		{"pure blue", 0x7C00, 0x001F},
		{"pure green", 0x03E0, 0x07E0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BGR555ToRGB565(tt.in); got != tt.expected {
				t.Errorf("BGR555ToRGB565(%#04x) = %#04x, want %#04x", tt.in, got, tt.expected)
			}
		})
	}
}

func TestBGColorReadsPaletteEntry(t *testing.T) {
	pal := make([]byte, 1024)
	// BG palette bank 1, index 2 -> offset 0x20 + 4 = 0x24
	pal[0x24] = 0x34
	pal[0x25] = 0x12

	got := bgColor(pal, 1, 2)
	if want := uint16(0x1234); got != want {
		t.Errorf("bgColor(bank 1, index 2) = %#04x, want %#04x", got, want)
	}
}

func TestObjColorUsesUpperPaletteHalf(t *testing.T) {
	pal := make([]byte, 1024)
	pal[objPaletteBase] = 0xAD
	pal[objPaletteBase+1] = 0xDE

	got := objColor(pal, 0, 0)
	if want := uint16(0xDEAD); got != want {
		t.Errorf("objColor(bank 0, index 0) = %#04x, want %#04x", got, want)
	}
}

func TestBackdropColorReadsPaletteOrigin(t *testing.T) {
	pal := make([]byte, 1024)
	pal[0] = 0xFF
	pal[1] = 0x7F

	if got := backdropColor(pal); got != 0x7FFF {
		t.Errorf("backdropColor() = %#04x, want 0x7fff", got)
	}
}
