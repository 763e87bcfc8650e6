package cpu

// stepThumb fetches, decodes and executes one 16-bit Thumb instruction. R15
// is left holding instrAddr+4 throughout (invariant P1), already sitting in
// PC on entry from the previous step's refill; see stepARM for the full
// rationale, shared verbatim here for the halfword case.
func (c *CPU) stepThumb() int {
	instrAddr := c.Regs.PC() - 4
	word := c.bus.Read16(instrAddr &^ 1)

	c.pcWritten = false
	r15 := c.Regs.PC()
	cycles := c.executeThumb(word, r15)

	if !c.pcWritten {
		c.Regs.SetPC(instrAddr + 2 + 4)
	}
	return cycles
}

// executeThumb dispatches a 16-bit Thumb opcode to its format handler,
// matching on the fixed-width prefix each format is encoded with.
func (c *CPU) executeThumb(op uint16, r15 uint32) int {
	switch {
	case op&0xF800 == 0x1800: // format 2: add/subtract
		return c.thumbAddSubtract(op)
	case op&0xE000 == 0x0000: // format 1: move shifted register
		return c.thumbMoveShifted(op)
	case op&0xE000 == 0x2000: // format 3: move/compare/add/subtract immediate
		return c.thumbImmediateOp(op)
	case op&0xFC00 == 0x4000: // format 4: ALU operations
		return c.thumbALU(op)
	case op&0xFC00 == 0x4400: // format 5: hi register ops / BX
		return c.thumbHiRegOps(op, r15)
	case op&0xF800 == 0x4800: // format 6: PC-relative load
		return c.thumbPCRelativeLoad(op, r15)
	case op&0xF000 == 0x5000: // format 7/8: register-offset load/store
		return c.thumbRegOffsetLoadStore(op)
	case op&0xE000 == 0x6000: // format 9: immediate-offset load/store (word/byte)
		return c.thumbImmOffsetLoadStore(op)
	case op&0xF000 == 0x8000: // format 10: load/store halfword
		return c.thumbHalfwordLoadStore(op)
	case op&0xF000 == 0x9000: // format 11: SP-relative load/store
		return c.thumbSPRelativeLoadStore(op)
	case op&0xF000 == 0xA000: // format 12: load address
		return c.thumbLoadAddress(op, r15)
	case op&0xFF00 == 0xB000: // format 13: add offset to SP
		return c.thumbAddOffsetToSP(op)
	case op&0xF600 == 0xB400: // format 14: push/pop
		return c.thumbPushPop(op)
	case op&0xF000 == 0xC000: // format 15: multiple load/store
		return c.thumbMultipleLoadStore(op)
	case op&0xFF00 == 0xDF00: // format 17: SWI
		return c.thumbSWI(op)
	case op&0xF000 == 0xD000: // format 16: conditional branch
		return c.thumbConditionalBranch(op, r15)
	case op&0xF800 == 0xE000: // format 18: unconditional branch
		return c.thumbUnconditionalBranch(op, r15)
	case op&0xF000 == 0xF000: // format 19: long branch with link
		return c.thumbLongBranchLink(op, r15)
	default:
		return 1
	}
}
