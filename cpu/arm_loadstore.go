package cpu

import "github.com/hallowmere/goemerald/bit"

// armSingleTransfer implements LDR/STR with pre/post index, up/down,
// byte/word, and base writeback, including the rotated-read behavior for
// non-word-aligned LDR addresses per the bus's alignment rule.
func (c *CPU) armSingleTransfer(word, r15 uint32) int {
	immediate := word&(1<<25) == 0
	pre := word&(1<<24) != 0
	up := word&(1<<23) != 0
	byteAccess := word&(1<<22) != 0
	writeback := word&(1<<21) != 0
	load := word&(1<<20) != 0
	rn := int((word >> 16) & 0xF)
	rd := int((word >> 12) & 0xF)

	var offset uint32
	if immediate {
		offset = word & 0xFFF
	} else {
		rm := int(word & 0xF)
		shiftType := ShiftType((word >> 5) & 0x3)
		amount := (word >> 7) & 0x1F
		val := c.Regs.R(rm)
		if amount == 0 && shiftType != ShiftLSL {
			amount = 32
		}
		offset, _ = Shift(val, shiftType, amount, c.Regs.C())
	}

	base := c.Regs.R(rn)
	if rn == 15 {
		base = r15
	}

	var transferAddr uint32
	if pre {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
	} else {
		transferAddr = base
	}

	if load {
		var value uint32
		if byteAccess {
			value = uint32(c.bus.Read8(transferAddr))
		} else {
			value = c.bus.Read32(transferAddr &^ 3)
			rot := (transferAddr & 3) * 8
			if rot != 0 {
				value = bit.RotateRight32(value, uint(rot))
			}
		}
		if rd == 15 {
			c.refillPC(value)
		} else {
			c.Regs.SetR(rd, value)
		}
	} else {
		value := c.Regs.R(rd)
		if rd == 15 {
			value = r15
		}
		if byteAccess {
			c.bus.Write8(transferAddr, uint8(value))
		} else {
			c.bus.Write32(transferAddr&^3, value)
		}
	}

	if !pre {
		var writebackAddr uint32
		if up {
			writebackAddr = base + offset
		} else {
			writebackAddr = base - offset
		}
		if rn != 15 {
			c.Regs.SetR(rn, writebackAddr)
		}
	} else if writeback && rn != 15 {
		c.Regs.SetR(rn, transferAddr)
	}

	return 3
}

// armHalfwordTransfer implements LDRH/STRH/LDRSB/LDRSH with immediate or
// register offset, pre/post index and writeback.
func (c *CPU) armHalfwordTransfer(word, r15 uint32) int {
	pre := word&(1<<24) != 0
	up := word&(1<<23) != 0
	immediate := word&(1<<22) != 0
	writeback := word&(1<<21) != 0
	load := word&(1<<20) != 0
	rn := int((word >> 16) & 0xF)
	rd := int((word >> 12) & 0xF)
	sBit := word&(1<<6) != 0
	hBit := word&(1<<5) != 0

	var offset uint32
	if immediate {
		offset = ((word >> 4) & 0xF0) | (word & 0xF)
	} else {
		rm := int(word & 0xF)
		offset = c.Regs.R(rm)
	}

	base := c.Regs.R(rn)
	if rn == 15 {
		base = r15
	}

	var transferAddr uint32
	if pre {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
	} else {
		transferAddr = base
	}

	if load {
		var value uint32
		switch {
		case sBit && hBit: // LDRSH
			raw := c.bus.Read16(transferAddr &^ 1)
			value = uint32(bit.SignExtend(uint32(raw), 16))
		case sBit && !hBit: // LDRSB
			raw := c.bus.Read8(transferAddr)
			value = uint32(bit.SignExtend8(raw))
		default: // LDRH
			value = uint32(c.bus.Read16(transferAddr &^ 1))
		}
		c.Regs.SetR(rd, value)
	} else {
		value := uint16(c.Regs.R(rd))
		c.bus.Write16(transferAddr&^1, value)
	}

	if !pre {
		var writebackAddr uint32
		if up {
			writebackAddr = base + offset
		} else {
			writebackAddr = base - offset
		}
		c.Regs.SetR(rn, writebackAddr)
	} else if writeback {
		c.Regs.SetR(rn, transferAddr)
	}

	return 3
}

// armSwap implements SWP/SWPB: an atomic (from the CPU's point of view;
// this interpreter has no concurrent bus access) read-then-write at [Rn].
func (c *CPU) armSwap(word uint32) int {
	byteAccess := word&(1<<22) != 0
	rn := int((word >> 16) & 0xF)
	rd := int((word >> 12) & 0xF)
	rm := int(word & 0xF)

	address := c.Regs.R(rn)
	if byteAccess {
		old := c.bus.Read8(address)
		c.bus.Write8(address, uint8(c.Regs.R(rm)))
		c.Regs.SetR(rd, uint32(old))
	} else {
		old := c.bus.Read32(address &^ 3)
		c.bus.Write32(address&^3, c.Regs.R(rm))
		c.Regs.SetR(rd, old)
	}
	return 4
}

// armBlockTransfer implements LDM/STM with base-writeback, up/down and
// pre/post index. The S bit only takes effect on an LDM whose register list
// includes PC, where it copies SPSR into CPSR; there is no user-bank
// transfer, so every other S-bit form uses the current mode's registers.
func (c *CPU) armBlockTransfer(word uint32) int {
	pre := word&(1<<24) != 0
	up := word&(1<<23) != 0
	sBit := word&(1<<22) != 0
	writeback := word&(1<<21) != 0
	load := word&(1<<20) != 0
	rn := int((word >> 16) & 0xF)
	list := uint16(word & 0xFFFF)

	regs := make([]int, 0, 16)
	for i := 0; i < 16; i++ {
		if list&(1<<uint(i)) != 0 {
			regs = append(regs, i)
		}
	}

	count := uint32(len(regs))
	base := c.Regs.R(rn)

	var start uint32
	if up {
		start = base
	} else {
		start = base - count*4
	}

	addr := start
	if (up && pre) || (!up && !pre) {
		addr += 4
	}

	loadedPC := false
	for _, r := range regs {
		if load {
			value := c.bus.Read32(addr &^ 3)
			if r == 15 {
				c.refillPC(value)
				loadedPC = true
			} else {
				c.Regs.SetR(r, value)
			}
		} else {
			value := c.Regs.R(r)
			if r == 15 {
				value = c.Regs.PC() + 4
			}
			c.bus.Write32(addr&^3, value)
		}
		addr += 4
	}

	if sBit && load && loadedPC {
		c.Regs.SetCPSR(c.Regs.SPSR())
	}

	if writeback {
		if up {
			c.Regs.SetR(rn, base+count*4)
		} else {
			c.Regs.SetR(rn, base-count*4)
		}
	}

	return 2 + int(count)
}
