package cpu

import "github.com/hallowmere/goemerald/bit"

// thumbMoveShifted: format 1 — LSL/LSR/ASR Rd, Rs, #offset5.
func (c *CPU) thumbMoveShifted(op uint16) int {
	shiftType := ShiftType((op >> 11) & 0x3)
	amount := uint32((op >> 6) & 0x1F)
	rs := int((op >> 3) & 0x7)
	rd := int(op & 0x7)

	val := c.Regs.R(rs)
	if amount == 0 && shiftType != ShiftLSL {
		amount = 32
	}
	result, carryOut := Shift(val, shiftType, amount, c.Regs.C())
	c.Regs.SetR(rd, result)
	updateFlagsLogical(c.Regs, result, carryOut, true)
	return 1
}

// thumbAddSubtract: format 2 — ADD/SUB Rd, Rs, Rn|#imm3.
func (c *CPU) thumbAddSubtract(op uint16) int {
	immediate := op&(1<<10) != 0
	isSub := op&(1<<9) != 0
	rnOrImm := uint32((op >> 6) & 0x7)
	rs := int((op >> 3) & 0x7)
	rd := int(op & 0x7)

	a := c.Regs.R(rs)
	var b uint32
	if immediate {
		b = rnOrImm
	} else {
		b = c.Regs.R(int(rnOrImm))
	}

	var result uint32
	if isSub {
		result = updateFlagsSub(c.Regs, a, b, true)
	} else {
		result = updateFlagsAdd(c.Regs, a, b, 0, true)
	}
	c.Regs.SetR(rd, result)
	return 1
}

// thumbImmediateOp: format 3 — MOV/CMP/ADD/SUB Rd, #imm8.
func (c *CPU) thumbImmediateOp(op uint16) int {
	kind := (op >> 11) & 0x3
	rd := int((op >> 8) & 0x7)
	imm := uint32(op & 0xFF)

	switch kind {
	case 0: // MOV
		c.Regs.SetR(rd, imm)
		updateFlagsLogical(c.Regs, imm, c.Regs.C(), true)
	case 1: // CMP
		updateFlagsSub(c.Regs, c.Regs.R(rd), imm, true)
	case 2: // ADD
		c.Regs.SetR(rd, updateFlagsAdd(c.Regs, c.Regs.R(rd), imm, 0, true))
	case 3: // SUB
		c.Regs.SetR(rd, updateFlagsSub(c.Regs, c.Regs.R(rd), imm, true))
	}
	return 1
}

// thumbALU: format 4 — the sixteen two-operand ALU operations.
func (c *CPU) thumbALU(op uint16) int {
	opcode := (op >> 6) & 0xF
	rs := int((op >> 3) & 0x7)
	rd := int(op & 0x7)

	dst := c.Regs.R(rd)
	src := c.Regs.R(rs)

	switch opcode {
	case 0x0: // AND
		r := dst & src
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, c.Regs.C(), true)
	case 0x1: // EOR
		r := dst ^ src
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, c.Regs.C(), true)
	case 0x2: // LSL
		amount := src & 0xFF
		r, carry := Shift(dst, ShiftLSL, amount, c.Regs.C())
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, carry, true)
	case 0x3: // LSR
		amount := src & 0xFF
		r, carry := Shift(dst, ShiftLSR, amount, c.Regs.C())
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, carry, true)
	case 0x4: // ASR
		amount := src & 0xFF
		r, carry := Shift(dst, ShiftASR, amount, c.Regs.C())
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, carry, true)
	case 0x5: // ADC
		c.Regs.SetR(rd, updateFlagsAdd(c.Regs, dst, src, carryBit(c.Regs.C()), true))
	case 0x6: // SBC
		c.Regs.SetR(rd, updateFlagsSub2(c.Regs, dst, src, true))
	case 0x7: // ROR
		amount := src & 0xFF
		r, carry := Shift(dst, ShiftROR, amount, c.Regs.C())
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, carry, true)
	case 0x8: // TST
		r := dst & src
		updateFlagsLogical(c.Regs, r, c.Regs.C(), true)
	case 0x9: // NEG
		c.Regs.SetR(rd, updateFlagsSub(c.Regs, 0, src, true))
	case 0xA: // CMP
		updateFlagsSub(c.Regs, dst, src, true)
	case 0xB: // CMN
		updateFlagsAdd(c.Regs, dst, src, 0, true)
	case 0xC: // ORR
		r := dst | src
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, c.Regs.C(), true)
	case 0xD: // MUL
		r := dst * src
		c.Regs.SetR(rd, r)
		c.Regs.SetFlags(r&(1<<31) != 0, r == 0, c.Regs.C(), c.Regs.V())
	case 0xE: // BIC
		r := dst &^ src
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, c.Regs.C(), true)
	case 0xF: // MVN
		r := ^src
		c.Regs.SetR(rd, r)
		updateFlagsLogical(c.Regs, r, c.Regs.C(), true)
	}
	return 1
}

// thumbHiRegOps: format 5 — ADD/CMP/MOV on any register pair (at least one
// outside R0-R7), and BX. Opcode 3 always branches without linking; the
// BLX register form is not decoded separately.
func (c *CPU) thumbHiRegOps(op uint16, r15 uint32) int {
	opcode := (op >> 8) & 0x3
	h1 := op&(1<<7) != 0
	h2 := op&(1<<6) != 0
	rs := int((op >> 3) & 0x7)
	rd := int(op & 0x7)
	if h2 {
		rs += 8
	}
	if h1 {
		rd += 8
	}

	readRs := func() uint32 {
		if rs == 15 {
			return r15 &^ 1
		}
		return c.Regs.R(rs)
	}

	switch opcode {
	case 0x0: // ADD
		result := c.Regs.R(rd)
		if rd == 15 {
			result = r15
		}
		result += readRs()
		if rd == 15 {
			c.refillPC(result)
		} else {
			c.Regs.SetR(rd, result)
		}
	case 0x1: // CMP
		a := c.Regs.R(rd)
		if rd == 15 {
			a = r15
		}
		updateFlagsSub(c.Regs, a, readRs(), true)
	case 0x2: // MOV
		if rd == 15 {
			c.refillPC(readRs())
		} else {
			c.Regs.SetR(rd, readRs())
		}
	case 0x3: // BX
		target := readRs()
		c.Regs.SetThumb(target&1 != 0)
		c.refillPC(target)
	}
	return 2
}

// thumbPCRelativeLoad: format 6 — LDR Rd, [PC, #imm8<<2], base word-aligned.
func (c *CPU) thumbPCRelativeLoad(op uint16, r15 uint32) int {
	rd := int((op >> 8) & 0x7)
	imm := uint32(op&0xFF) << 2
	base := (r15 &^ 3) + imm
	c.Regs.SetR(rd, c.bus.Read32(base))
	return 3
}

// thumbRegOffsetLoadStore: formats 7/8 — [Rb, Ro] addressed load/store of
// word/byte (format 7) or halfword/sign-extended byte/halfword (format 8).
func (c *CPU) thumbRegOffsetLoadStore(op uint16) int {
	ro := int((op >> 6) & 0x7)
	rb := int((op >> 3) & 0x7)
	rd := int(op & 0x7)
	address := c.Regs.R(rb) + c.Regs.R(ro)

	if op&(1<<9) == 0 {
		// format 7: L,B select LDR/STR word or byte
		load := op&(1<<11) != 0
		byteAccess := op&(1<<10) != 0
		if load {
			if byteAccess {
				c.Regs.SetR(rd, uint32(c.bus.Read8(address)))
			} else {
				c.Regs.SetR(rd, c.bus.Read32(address&^3))
			}
		} else {
			if byteAccess {
				c.bus.Write8(address, uint8(c.Regs.R(rd)))
			} else {
				c.bus.Write32(address&^3, c.Regs.R(rd))
			}
		}
	} else {
		// format 8: H,S select halfword/sign-extend variants
		hBit := op&(1<<11) != 0
		sBit := op&(1<<10) != 0
		switch {
		case !sBit && !hBit: // STRH
			c.bus.Write16(address&^1, uint16(c.Regs.R(rd)))
		case !sBit && hBit: // LDRH
			c.Regs.SetR(rd, uint32(c.bus.Read16(address&^1)))
		case sBit && !hBit: // LDRSB
			c.Regs.SetR(rd, uint32(bit.SignExtend8(c.bus.Read8(address))))
		default: // LDRSH
			c.Regs.SetR(rd, uint32(bit.SignExtend(uint32(c.bus.Read16(address&^1)), 16)))
		}
	}
	return 3
}

// thumbImmOffsetLoadStore: format 9 — [Rb, #imm5] word/byte load/store.
func (c *CPU) thumbImmOffsetLoadStore(op uint16) int {
	byteAccess := op&(1<<12) != 0
	load := op&(1<<11) != 0
	imm := uint32((op >> 6) & 0x1F)
	rb := int((op >> 3) & 0x7)
	rd := int(op & 0x7)

	var address uint32
	if byteAccess {
		address = c.Regs.R(rb) + imm
	} else {
		address = c.Regs.R(rb) + imm*4
	}

	if load {
		if byteAccess {
			c.Regs.SetR(rd, uint32(c.bus.Read8(address)))
		} else {
			c.Regs.SetR(rd, c.bus.Read32(address&^3))
		}
	} else {
		if byteAccess {
			c.bus.Write8(address, uint8(c.Regs.R(rd)))
		} else {
			c.bus.Write32(address&^3, c.Regs.R(rd))
		}
	}
	return 3
}

// thumbHalfwordLoadStore: format 10 — [Rb, #imm5<<1] halfword load/store.
func (c *CPU) thumbHalfwordLoadStore(op uint16) int {
	load := op&(1<<11) != 0
	imm := uint32((op>>6)&0x1F) << 1
	rb := int((op >> 3) & 0x7)
	rd := int(op & 0x7)
	address := c.Regs.R(rb) + imm

	if load {
		c.Regs.SetR(rd, uint32(c.bus.Read16(address&^1)))
	} else {
		c.bus.Write16(address&^1, uint16(c.Regs.R(rd)))
	}
	return 3
}

// thumbSPRelativeLoadStore: format 11 — [SP, #imm8<<2].
func (c *CPU) thumbSPRelativeLoadStore(op uint16) int {
	load := op&(1<<11) != 0
	rd := int((op >> 8) & 0x7)
	imm := uint32(op&0xFF) << 2
	address := c.Regs.R(13) + imm

	if load {
		c.Regs.SetR(rd, c.bus.Read32(address&^3))
	} else {
		c.bus.Write32(address&^3, c.Regs.R(rd))
	}
	return 3
}

// thumbLoadAddress: format 12 — ADD Rd, PC|SP, #imm8<<2.
func (c *CPU) thumbLoadAddress(op uint16, r15 uint32) int {
	usesSP := op&(1<<11) != 0
	rd := int((op >> 8) & 0x7)
	imm := uint32(op&0xFF) << 2

	var base uint32
	if usesSP {
		base = c.Regs.R(13)
	} else {
		base = r15 &^ 3
	}
	c.Regs.SetR(rd, base+imm)
	return 1
}

// thumbAddOffsetToSP: format 13 — ADD/SUB SP, #imm7<<2.
func (c *CPU) thumbAddOffsetToSP(op uint16) int {
	negative := op&(1<<7) != 0
	imm := uint32(op&0x7F) << 2
	if negative {
		c.Regs.SetR(13, c.Regs.R(13)-imm)
	} else {
		c.Regs.SetR(13, c.Regs.R(13)+imm)
	}
	return 1
}

// thumbPushPop: format 14 — PUSH {Rlist, LR} / POP {Rlist, PC}.
func (c *CPU) thumbPushPop(op uint16) int {
	load := op&(1<<11) != 0
	extra := op&(1<<8) != 0
	list := uint8(op & 0xFF)

	count := 0
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
		}
	}
	if extra {
		count++
	}

	sp := c.Regs.R(13)

	if load { // POP
		addr := sp
		for i := 0; i < 8; i++ {
			if list&(1<<uint(i)) != 0 {
				c.Regs.SetR(i, c.bus.Read32(addr))
				addr += 4
			}
		}
		if extra {
			pc := c.bus.Read32(addr)
			c.refillPC(pc)
			addr += 4
		}
		c.Regs.SetR(13, addr)
	} else { // PUSH
		addr := sp - uint32(count)*4
		base := addr
		for i := 0; i < 8; i++ {
			if list&(1<<uint(i)) != 0 {
				c.bus.Write32(base, c.Regs.R(i))
				base += 4
			}
		}
		if extra {
			c.bus.Write32(base, c.Regs.R(14))
		}
		c.Regs.SetR(13, addr)
	}
	return 2 + count
}

// thumbMultipleLoadStore: format 15 — STMIA/LDMIA Rb!, {Rlist}.
func (c *CPU) thumbMultipleLoadStore(op uint16) int {
	load := op&(1<<11) != 0
	rb := int((op >> 8) & 0x7)
	list := uint8(op & 0xFF)

	addr := c.Regs.R(rb)
	count := 0
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
			if load {
				c.Regs.SetR(i, c.bus.Read32(addr))
			} else {
				c.bus.Write32(addr, c.Regs.R(i))
			}
			addr += 4
		}
	}
	c.Regs.SetR(rb, addr)
	return 2 + count
}

// thumbConditionalBranch: format 16 — signed 8-bit offset<<1 if cond holds.
func (c *CPU) thumbConditionalBranch(op uint16, r15 uint32) int {
	cond := Condition((op >> 8) & 0xF)
	if !cond.Evaluate(c.Regs.N(), c.Regs.Z(), c.Regs.C(), c.Regs.V()) {
		return 1
	}
	offset := bit.SignExtend(uint32(op&0xFF), 8) << 1
	c.refillPC(uint32(int64(r15) + int64(offset)))
	return 3
}

// thumbSWI: format 17.
func (c *CPU) thumbSWI(op uint16) int {
	if !c.cfg.HLEBios {
		return 3
	}
	c.dispatchSWI(uint8(op & 0xFF))
	return 3
}

// thumbUnconditionalBranch: format 18 — signed 11-bit offset<<1.
func (c *CPU) thumbUnconditionalBranch(op uint16, r15 uint32) int {
	offset := bit.SignExtend(uint32(op&0x7FF), 11) << 1
	c.refillPC(uint32(int64(r15) + int64(offset)))
	return 3
}

// thumbLongBranchLink: format 19 — two half-instructions, each executed as
// its own Step. The first half (H=0) stores PC + (offset11<<12) in LR; the
// second half (H=1) computes the final target from LR + (offset11<<1), sets
// PC and stores the return address (address of the instruction after the
// second half, bit0 set) in LR. The CPU stays in Thumb state: the BLX-form
// second half (0xE800 prefix) is not decoded and executes as a no-op.
func (c *CPU) thumbLongBranchLink(op uint16, r15 uint32) int {
	high := op&(1<<11) != 0
	offset11 := uint32(op & 0x7FF)

	if !high {
		signed := bit.SignExtend(offset11, 11) << 12
		c.Regs.SetR(14, uint32(int64(r15)+int64(signed)))
		return 2
	}

	lr := c.Regs.R(14)
	target := lr + (offset11 << 1)
	nextInstr := r15 - 2 // address of the instruction after this half
	c.Regs.SetR(14, nextInstr|1)
	c.refillPC(target)
	return 3
}
