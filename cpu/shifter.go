package cpu

// ShiftType is the two-bit shift-type field shared by data-processing
// register operands and the LSL/LSR/ASR/ROR mnemonics.
type ShiftType uint8

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// Shift implements the ARM barrel shifter, bit-exact per the documented
// LSL/LSR/ASR/ROR/RRX edge cases: LSL#0 passes the carry through unchanged,
// LSL#32 emits bit 0, LSL>32 emits 0 with carry 0; LSR/ASR#0 (register-form
// only) are encoded as #32; ROR#0 means RRX (rotate right through carry).
func Shift(value uint32, shiftType ShiftType, amount uint32, carryIn bool) (result uint32, carryOut bool) {
	switch shiftType {
	case ShiftLSL:
		switch {
		case amount == 0:
			return value, carryIn
		case amount < 32:
			return value << amount, (value>>(32-amount))&1 != 0
		case amount == 32:
			return 0, value&1 != 0
		default:
			return 0, false
		}
	case ShiftLSR:
		switch {
		case amount == 0 || amount == 32:
			return 0, value&(1<<31) != 0
		case amount < 32:
			return value >> amount, (value>>(amount-1))&1 != 0
		default:
			return 0, false
		}
	case ShiftASR:
		signed := int32(value)
		switch {
		case amount == 0 || amount >= 32:
			if signed < 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		default:
			return uint32(signed >> amount), (value>>(amount-1))&1 != 0
		}
	case ShiftROR:
		if amount == 0 {
			// RRX: rotate right by 1 through the carry flag.
			out := value&1 != 0
			res := value >> 1
			if carryIn {
				res |= 1 << 31
			}
			return res, out
		}
		amount &= 31
		if amount == 0 {
			return value, value&(1<<31) != 0
		}
		res := (value >> amount) | (value << (32 - amount))
		return res, res&(1<<31) != 0
	}
	return value, carryIn
}
