package cpu

import "github.com/hallowmere/goemerald/bit"

// armPSRTransfer implements MRS (PSR -> register) and MSR (register/
// immediate -> PSR, honoring the field mask bits 16-19 and clamping the
// mode field to a valid value on writes to CPSR's control byte).
func (c *CPU) armPSRTransfer(word uint32) int {
	isMSR := word&0x0DB0F000 == 0x0120F000
	toSPSR := word&(1<<22) != 0

	if !isMSR {
		rd := int((word >> 12) & 0xF)
		if toSPSR {
			c.Regs.SetR(rd, c.Regs.SPSR())
		} else {
			c.Regs.SetR(rd, c.Regs.CPSR())
		}
		return 1
	}

	var value uint32
	if word&(1<<25) != 0 {
		imm := word & 0xFF
		rot := (word >> 8) & 0xF
		value = bit.RotateRight32(imm, uint(rot*2))
	} else {
		rm := int(word & 0xF)
		value = c.Regs.R(rm)
	}

	fieldMask := (word >> 16) & 0xF
	var mask uint32
	if fieldMask&0x1 != 0 {
		mask |= 0x000000FF // control field (c): mode bits, T, I, F
	}
	if fieldMask&0x2 != 0 {
		mask |= 0x0000FF00 // extension (x), unused on ARMv4T
	}
	if fieldMask&0x4 != 0 {
		mask |= 0x00FF0000 // status (s), unused on ARMv4T
	}
	if fieldMask&0x8 != 0 {
		mask |= 0xFF000000 // flags (f): N/Z/C/V
	}

	if toSPSR {
		cur := c.Regs.SPSR()
		c.Regs.SetSPSR((cur &^ mask) | (value & mask))
		return 1
	}

	cur := c.Regs.CPSR()
	newVal := (cur &^ mask) | (value & mask)
	if mask&0xFF != 0 {
		// writing the control byte: clamp an invalid mode back to the
		// current one rather than letting the CPU wedge itself.
		newMode := Mode(newVal & 0x1F)
		if !ValidMode(newMode) {
			newVal = (newVal &^ 0x1F) | uint32(cur&0x1F)
		}
	}
	c.Regs.SetCPSR(newVal)
	return 1
}
