package cpu

import "github.com/hallowmere/goemerald/bit"

// armBranch implements B/BL: a 24-bit signed word offset (shifted left 2)
// relative to PC+8; BL additionally stores the return address (PC+4,
// i.e. the address of the instruction after the branch) in R14.
func (c *CPU) armBranch(word, r15 uint32) int {
	link := word&(1<<24) != 0
	offset := bit.SignExtend(word&0xFFFFFF, 24) << 2

	if link {
		c.Regs.SetR(14, r15-4)
	}

	c.refillPC(uint32(int64(r15) + int64(offset)))
	return 3
}

// armSWI dispatches to the high-level BIOS implementation, or is a no-op
// when HLE is disabled or the SWI number is unrecognized (per the "must
// not crash" robustness requirement).
func (c *CPU) armSWI(word uint32) int {
	if !c.cfg.HLEBios {
		return 3
	}
	swiNumber := uint8((word >> 16) & 0xFF)
	c.dispatchSWI(swiNumber)
	return 3
}
