package bit

import "testing"

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		a, b             uint8
		expectedResult   uint8
		expectedOverflow bool
	}{
		{0b11111111, 0b00000001, 0, true},
		{0b11111111, 0b11111111, 254, true},
		{0b00000001, 0b00000001, 2, false},
		{0b10000000, 0b00000000, 128, false},
	}

	for _, tt := range tests {
		result, overflow := CheckedAdd(tt.a, tt.b)
		if result != tt.expectedResult || overflow != tt.expectedOverflow {
			t.Errorf("CheckedAdd(%d, %d) = (%d, %v); want (%d, %v)", tt.a, tt.b, result, overflow, tt.expectedResult, tt.expectedOverflow)
		}
	}
}

func TestCheckedSub(t *testing.T) {
	tests := []struct {
		a, b           uint8
		expectedResult uint8
		expectedBorrow bool
	}{
		{0b00000000, 0b00000001, 255, true},
		{0b00000001, 0b00000001, 0, false},
		{0b10000000, 0b00000000, 128, false},
		{0b11111111, 0b11111111, 0, false},
	}

	for _, tt := range tests {
		result, borrow := CheckedSub(tt.a, tt.b)
		if result != tt.expectedResult || borrow != tt.expectedBorrow {
			t.Errorf("CheckedSub(%d, %d) = (%d, %v); want (%d, %v)", tt.a, tt.b, result, borrow, tt.expectedResult, tt.expectedBorrow)
		}
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		b        uint8
		index    uint8
		expected bool
	}{
		{0b10101010, 0, false},
		{0b10101010, 1, true},
		{0b10101010, 2, false},
		{0b10101010, 7, true},
	}

	for _, tt := range tests {
		result := IsSet(tt.index, tt.b)
		if result != tt.expected {
			t.Errorf("IsSet(%d, %08b) = %v; want %v", tt.index, tt.b, result, tt.expected)
		}
	}
}

func TestSetClearReset(t *testing.T) {
	if Set(0, 0b10101010) != 0b10101011 {
		t.Errorf("Set(0) failed")
	}
	if Reset(1, 0b10101011) != 0b10101001 {
		t.Errorf("Reset(1) failed")
	}
	if Clear(7, 0b10101011) != 0b00101011 {
		t.Errorf("Clear(7) failed")
	}
}

func TestLowHigh(t *testing.T) {
	if Low(0xABCD) != 0xCD {
		t.Errorf("Low failed")
	}
	if High(0xABCD) != 0xAB {
		t.Errorf("High failed")
	}
}

func TestExtractBits(t *testing.T) {
	got := ExtractBits(0b11010110, 6, 4)
	if got != 0b101 {
		t.Errorf("ExtractBits = %b; want %b", got, 0b101)
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		value uint32
		bits  uint8
		want  int32
	}{
		{0x7F, 8, 127},
		{0x80, 8, -128},
		{0xFFF, 12, -1},
		{0x800, 12, -2048},
	}
	for _, tt := range tests {
		if got := SignExtend(tt.value, tt.bits); got != tt.want {
			t.Errorf("SignExtend(0x%X, %d) = %d; want %d", tt.value, tt.bits, got, tt.want)
		}
	}
}

func TestRotateRight32(t *testing.T) {
	tests := []struct {
		value  uint32
		amount uint
		want   uint32
	}{
		{0x00000001, 0, 0x00000001},
		{0x00000001, 1, 0x80000000},
		{0x80000000, 1, 0x40000000},
		{0xF0000000, 4, 0x0F000000},
		{0x12345678, 32, 0x12345678},
	}
	for _, tt := range tests {
		if got := RotateRight32(tt.value, tt.amount); got != tt.want {
			t.Errorf("RotateRight32(0x%X, %d) = 0x%X; want 0x%X", tt.value, tt.amount, got, tt.want)
		}
	}
}
