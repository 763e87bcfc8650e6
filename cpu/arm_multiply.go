package cpu

// armMultiply implements MUL and MLA (32-bit result, flags Z/N only, C
// destroyed / left as an implementation-defined value which this
// interpreter leaves unchanged, matching common GBA software's
// expectations since no real ROM relies on MUL's carry output).
func (c *CPU) armMultiply(word uint32) int {
	rd := int((word >> 16) & 0xF)
	rn := int((word >> 12) & 0xF)
	rs := int((word >> 8) & 0xF)
	rm := int(word & 0xF)
	accumulate := word&(1<<21) != 0
	setFlags := word&(1<<20) != 0

	result := c.Regs.R(rm) * c.Regs.R(rs)
	if accumulate {
		result += c.Regs.R(rn)
	}
	c.Regs.SetR(rd, result)

	if setFlags {
		c.Regs.SetFlags(result&(1<<31) != 0, result == 0, c.Regs.C(), c.Regs.V())
	}
	return 2
}

// armMultiplyLong implements the four long-multiply variants (UMULL,
// UMLAL, SMULL, SMLAL), producing a 64-bit result split across RdLo/RdHi.
func (c *CPU) armMultiplyLong(word uint32) int {
	rdHi := int((word >> 16) & 0xF)
	rdLo := int((word >> 12) & 0xF)
	rs := int((word >> 8) & 0xF)
	rm := int(word & 0xF)
	signed := word&(1<<22) != 0
	accumulate := word&(1<<21) != 0
	setFlags := word&(1<<20) != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(c.Regs.R(rm))) * int64(int32(c.Regs.R(rs))))
	} else {
		result = uint64(c.Regs.R(rm)) * uint64(c.Regs.R(rs))
	}

	if accumulate {
		result += uint64(c.Regs.R(rdHi))<<32 | uint64(c.Regs.R(rdLo))
	}

	lo := uint32(result)
	hi := uint32(result >> 32)
	c.Regs.SetR(rdLo, lo)
	c.Regs.SetR(rdHi, hi)

	if setFlags {
		c.Regs.SetFlags(hi&(1<<31) != 0, result == 0, c.Regs.C(), c.Regs.V())
	}
	return 3
}
