package cpu

import "github.com/hallowmere/goemerald/bit"

// stepARM fetches, decodes and executes one 32-bit ARM instruction. R15 is
// left holding instrAddr+8 throughout (invariant P1): that value is already
// sitting in PC on entry (the previous step's refill), so it's read directly
// as r15 with no separate derivation. Only if the instruction itself didn't
// redirect PC (via refillPC) does the generic sequential advance run.
func (c *CPU) stepARM() int {
	instrAddr := c.Regs.PC() - 8
	word := c.bus.Read32(instrAddr &^ 3)

	c.pcWritten = false
	cycles := 1

	cond := Condition((word >> 28) & 0xF)
	if cond.Evaluate(c.Regs.N(), c.Regs.Z(), c.Regs.C(), c.Regs.V()) {
		r15 := c.Regs.PC()
		cycles = c.executeARM(word, r15)
	}

	if !c.pcWritten {
		c.Regs.SetPC(instrAddr + 4 + 8)
	}
	return cycles
}

// executeARM dispatches word to the appropriate instruction class, checked
// in the priority order from §4.2.4.
func (c *CPU) executeARM(word, r15 uint32) int {
	switch {
	case isBX(word):
		return c.armBX(word)
	case isPSRTransfer(word):
		return c.armPSRTransfer(word)
	case isMultiply(word):
		return c.armMultiply(word)
	case isMultiplyLong(word):
		return c.armMultiplyLong(word)
	case isSwap(word):
		return c.armSwap(word)
	case isHalfwordTransfer(word):
		return c.armHalfwordTransfer(word, r15)
	case isBranch(word):
		return c.armBranch(word, r15)
	case isSWI(word):
		return c.armSWI(word)
	case isBlockTransfer(word):
		return c.armBlockTransfer(word)
	case isCoprocessor(word):
		return 1 // accepted and ignored, per §4.2.4 item 11
	case isSingleTransfer(word):
		return c.armSingleTransfer(word, r15)
	default:
		return c.armDataProcessing(word, r15)
	}
}

func isBX(word uint32) bool {
	return word&0x0FFFFFF0 == 0x012FFF10
}

func isPSRTransfer(word uint32) bool {
	// MRS: cond 00010 R 001111 ... ; MSR: cond 00 I 10 R 10 ...
	if word&0x0FBF0000 == 0x010F0000 {
		return true // MRS
	}
	if word&0x0DB0F000 == 0x0120F000 {
		return true // MSR
	}
	return false
}

func isMultiply(word uint32) bool {
	return word&0x0FC000F0 == 0x00000090
}

func isMultiplyLong(word uint32) bool {
	return word&0x0F8000F0 == 0x00800090
}

func isSwap(word uint32) bool {
	return word&0x0FB00FF0 == 0x01000090
}

func isHalfwordTransfer(word uint32) bool {
	return word&0x0E000090 == 0x00000090 && word&0x60 != 0
}

func isBranch(word uint32) bool {
	return word&0x0E000000 == 0x0A000000
}

func isSWI(word uint32) bool {
	return word&0x0F000000 == 0x0F000000
}

func isBlockTransfer(word uint32) bool {
	return word&0x0E000000 == 0x08000000
}

func isCoprocessor(word uint32) bool {
	top := word & 0x0E000000
	return top == 0x0C000000 || top == 0x0E000000
}

func isSingleTransfer(word uint32) bool {
	return word&0x0C000000 == 0x04000000
}

// operand2 decodes a data-processing operand 2 field, returning its value
// and the shifter carry-out used by logical-op flag updates.
func operand2(word, r15 uint32, regRead func(int) uint32, carryIn bool) (value uint32, carryOut bool) {
	if word&(1<<25) != 0 {
		imm := word & 0xFF
		rot := (word >> 8) & 0xF
		if rot == 0 {
			return imm, carryIn
		}
		rotated := bit.RotateRight32(imm, uint(rot*2))
		return rotated, rotated&(1<<31) != 0
	}

	rm := int(word & 0xF)
	shiftType := ShiftType((word >> 5) & 0x3)
	var amount uint32
	var val uint32
	if word&(1<<4) != 0 {
		rs := int((word >> 8) & 0xF)
		amount = regRead(rs) & 0xFF
		val = regRead(rm)
		if rm == 15 {
			val = r15 + 4 // register-specified shift adds one more cycle of prefetch
		}
		if amount == 0 {
			return val, carryIn
		}
	} else {
		amount = (word >> 7) & 0x1F
		val = regRead(rm)
		if rm == 15 {
			val = r15
		}
		if amount == 0 && shiftType != ShiftLSL {
			amount = 32
		}
	}
	return Shift(val, shiftType, amount, carryIn)
}

func (c *CPU) armBX(word uint32) int {
	rm := int(word & 0xF)
	target := c.Regs.R(rm)
	c.Regs.SetThumb(target&1 != 0)
	c.refillPC(target)
	return 2
}

func updateFlagsLogical(r *Registers, result uint32, carryOut bool, setFlags bool) {
	if !setFlags {
		return
	}
	r.SetFlags(result&(1<<31) != 0, result == 0, carryOut, r.V())
}

func addWithCarryOverflow(a, b uint32, carryIn uint32) (result uint32, carryOut, overflow bool) {
	sum := uint64(a) + uint64(b) + uint64(carryIn)
	result = uint32(sum)
	carryOut = sum > 0xFFFFFFFF
	signA, signB, signR := a&(1<<31) != 0, b&(1<<31) != 0, result&(1<<31) != 0
	overflow = signA == signB && signR != signA
	return
}

func updateFlagsAdd(r *Registers, a, b uint32, carryIn uint32, setFlags bool) uint32 {
	result, c, v := addWithCarryOverflow(a, b, carryIn)
	if setFlags {
		r.SetFlags(result&(1<<31) != 0, result == 0, c, v)
	}
	return result
}

func updateFlagsSub(r *Registers, a, b uint32, setFlags bool) uint32 {
	result, c, v := addWithCarryOverflow(a, ^b, 1)
	if setFlags {
		r.SetFlags(result&(1<<31) != 0, result == 0, c, v)
	}
	return result
}
