package cpu

// dataProcessingOp is the 4-bit opcode field of a data-processing instruction.
type dataProcessingOp uint8

const (
	opAND dataProcessingOp = iota
	opEOR
	opSUB
	opRSB
	opADD
	opADC
	opSBC
	opRSC
	opTST
	opTEQ
	opCMP
	opCMN
	opORR
	opMOV
	opBIC
	opMVN
)

// armDataProcessing implements the sixteen ALU opcodes (AND..MVN), operand 2
// decode (immediate-with-rotate or register-with-shift), and the PC-as-
// destination exception-return special case from §4.2.4 item 6.
func (c *CPU) armDataProcessing(word, r15 uint32) int {
	rd := int((word >> 12) & 0xF)
	rn := int((word >> 16) & 0xF)
	setFlags := word&(1<<20) != 0
	op := dataProcessingOp((word >> 21) & 0xF)

	regRead := func(n int) uint32 {
		if n == 15 {
			return r15
		}
		return c.Regs.R(n)
	}

	op2, shiftCarry := operand2(word, r15, regRead, c.Regs.C())

	rnVal := regRead(rn)

	var result uint32
	isCompare := false
	isLogical := false

	switch op {
	case opAND:
		result = rnVal & op2
		isLogical = true
	case opEOR:
		result = rnVal ^ op2
		isLogical = true
	case opSUB:
		result = updateFlagsSub(c.Regs, rnVal, op2, setFlags)
	case opRSB:
		result = updateFlagsSub(c.Regs, op2, rnVal, setFlags)
	case opADD:
		result = updateFlagsAdd(c.Regs, rnVal, op2, 0, setFlags)
	case opADC:
		result = updateFlagsAdd(c.Regs, rnVal, op2, carryBit(c.Regs.C()), setFlags)
	case opSBC:
		result = updateFlagsSub2(c.Regs, rnVal, op2, setFlags)
	case opRSC:
		result = updateFlagsSub2(c.Regs, op2, rnVal, setFlags)
	case opTST:
		result = rnVal & op2
		isLogical = true
		isCompare = true
	case opTEQ:
		result = rnVal ^ op2
		isLogical = true
		isCompare = true
	case opCMP:
		result = updateFlagsSub(c.Regs, rnVal, op2, setFlags)
		isCompare = true
	case opCMN:
		result = updateFlagsAdd(c.Regs, rnVal, op2, 0, setFlags)
		isCompare = true
	case opORR:
		result = rnVal | op2
		isLogical = true
	case opMOV:
		result = op2
		isLogical = true
	case opBIC:
		result = rnVal &^ op2
		isLogical = true
	case opMVN:
		result = ^op2
		isLogical = true
	}

	if isLogical {
		updateFlagsLogical(c.Regs, result, shiftCarry, setFlags)
	}

	if isCompare {
		return 1
	}

	if rd == 15 {
		if setFlags {
			// Exception-return idiom: writing PC with S set restores CPSR
			// from SPSR, per §4.2.4 item 6.
			c.Regs.SetCPSR(c.Regs.SPSR())
		}
		c.refillPC(result)
		return 2
	}

	c.Regs.SetR(rd, result)
	return 1
}

func carryBit(c bool) uint32 {
	if c {
		return 1
	}
	return 0
}

// updateFlagsSub2 is SBC/RSC's carry-aware subtract: result = a - b - (1-C).
func updateFlagsSub2(r *Registers, a, b uint32, setFlags bool) uint32 {
	borrow := uint32(0)
	if !r.C() {
		borrow = 1
	}
	result, c, v := addWithCarryOverflow(a, ^b, 1-borrow)
	if setFlags {
		r.SetFlags(result&(1<<31) != 0, result == 0, c, v)
	}
	return result
}
