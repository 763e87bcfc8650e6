// Package cpu implements an ARM7TDMI interpreter: register banking, PSR
// handling, the barrel shifter, and ARM/Thumb instruction decode/execute.
package cpu

// Mode is one of the seven CPU operating modes, encoded in CPSR bits 0-4.
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

// ValidMode reports whether m is one of the seven legal CPU modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem:
		return true
	default:
		return false
	}
}

// CPSR flag bit positions.
const (
	flagN = 31
	flagZ = 30
	flagC = 29
	flagV = 28
	flagI = 7
	flagF = 6
	flagT = 5
)

// Registers holds the sixteen general-purpose registers, the banked copies
// used by FIQ/IRQ/Supervisor/Abort/Undefined modes, and CPSR/SPSR.
//
// Banking follows the real hardware layout: User and System share one bank;
// FIQ has its own R8-R14; the other four privileged modes bank only R13-R14.
type Registers struct {
	r [16]uint32

	bankFIQ        [7]uint32 // fiq-private r8-r14
	userBank8to12  [5]uint32 // user/system r8-r12, parked here while in FIQ mode
	bankIRQ        [2]uint32 // r13-r14
	bankSupervisor [2]uint32
	bankAbort      [2]uint32
	bankUndefined  [2]uint32

	cpsr uint32
	spsr [5]uint32 // indexed by spsrIndex(mode); user/system have no SPSR
}

func spsrIndex(m Mode) int {
	switch m {
	case ModeFIQ:
		return 0
	case ModeIRQ:
		return 1
	case ModeSupervisor:
		return 2
	case ModeAbort:
		return 3
	case ModeUndefined:
		return 4
	default:
		return -1
	}
}

// NewRegisters returns Registers in the post-BIOS reset state: System mode,
// IRQ/FIQ disabled, ARM state, PC at the ROM entry point (0x08000000, set by
// the caller after construction).
func NewRegisters() *Registers {
	regs := &Registers{}
	regs.cpsr = uint32(ModeSystem) | (1 << flagI) | (1 << flagF)
	return regs
}

// Mode returns the current CPU mode from CPSR bits 0-4.
func (r *Registers) Mode() Mode { return Mode(r.cpsr & 0x1F) }

// Thumb reports whether the CPU is in Thumb execution state (CPSR bit 5),
// which per invariant P2 is the sole source of truth for instruction width.
func (r *Registers) Thumb() bool { return r.cpsr&(1<<flagT) != 0 }

// SetThumb sets or clears the Thumb state bit.
func (r *Registers) SetThumb(on bool) {
	if on {
		r.cpsr |= 1 << flagT
	} else {
		r.cpsr &^= 1 << flagT
	}
}

// CPSR returns the raw CPSR value.
func (r *Registers) CPSR() uint32 { return r.cpsr }

// SetCPSR overwrites the whole CPSR, re-banking registers if the mode
// changed as a side effect (used by exception entry/return and MSR).
func (r *Registers) SetCPSR(value uint32) {
	oldMode := r.Mode()
	newMode := Mode(value & 0x1F)
	if !ValidMode(newMode) {
		newMode = oldMode
		value = (value &^ 0x1F) | uint32(oldMode)
	}
	if newMode != oldMode {
		r.switchMode(oldMode, newMode)
	}
	r.cpsr = value
}

// Flag readers.
func (r *Registers) N() bool { return r.cpsr&(1<<flagN) != 0 }
func (r *Registers) Z() bool { return r.cpsr&(1<<flagZ) != 0 }
func (r *Registers) C() bool { return r.cpsr&(1<<flagC) != 0 }
func (r *Registers) V() bool { return r.cpsr&(1<<flagV) != 0 }
func (r *Registers) IRQDisabled() bool { return r.cpsr&(1<<flagI) != 0 }

// SetFlags writes N/Z/C/V in one call; used after every flag-setting ALU op.
func (r *Registers) SetFlags(n, z, c, v bool) {
	set := func(bit uint, on bool) {
		if on {
			r.cpsr |= 1 << bit
		} else {
			r.cpsr &^= 1 << bit
		}
	}
	set(flagN, n)
	set(flagZ, z)
	set(flagC, c)
	set(flagV, v)
}

// SetIRQDisabled sets or clears CPSR bit 7 (I).
func (r *Registers) SetIRQDisabled(on bool) {
	if on {
		r.cpsr |= 1 << flagI
	} else {
		r.cpsr &^= 1 << flagI
	}
}

// R returns general-purpose register n (0-15). R15 returns the raw stored
// program counter value, which per invariant P1 is kept at
// address-of-current-instruction + 8 (ARM) / + 4 (Thumb) at all times - the
// decode loop (cpu.go's refillPC) is what maintains that, not this accessor.
func (r *Registers) R(n int) uint32 { return r.r[n] }

// SetR writes general-purpose register n. Writing R15 directly bypasses the
// pipeline-offset bookkeeping refillPC applies; callers that redirect
// control flow should go through CPU.refillPC instead.
func (r *Registers) SetR(n int, v uint32) { r.r[n] = v }

// PC is a convenience accessor for R15.
func (r *Registers) PC() uint32 { return r.r[15] }

// SetPC is a low-level setter for R15 used by Reset and refillPC; it does
// not itself apply the prefetch offset.
func (r *Registers) SetPC(v uint32) { r.r[15] = v }

// SPSR returns the saved PSR for the current mode, or the CPSR itself in
// User/System mode (which have no SPSR banking; MSR/MRS to SPSR there is
// defined as a no-op/undefined by real hardware, modeled here as reading
// back CPSR so callers never dereference an unbanked value).
func (r *Registers) SPSR() uint32 {
	idx := spsrIndex(r.Mode())
	if idx < 0 {
		return r.cpsr
	}
	return r.spsr[idx]
}

// SetSPSR writes the saved PSR for the current mode; a no-op in User/System.
func (r *Registers) SetSPSR(value uint32) {
	idx := spsrIndex(r.Mode())
	if idx < 0 {
		return
	}
	r.spsr[idx] = value
}

// Snapshot is a flat, serializable copy of every register and PSR,
// including the banked sets not reachable through R/SetR, used by the
// save-state codec.
type Snapshot struct {
	R              [16]uint32
	BankFIQ        [7]uint32
	UserBank8to12  [5]uint32
	BankIRQ        [2]uint32
	BankSupervisor [2]uint32
	BankAbort      [2]uint32
	BankUndefined  [2]uint32
	CPSR           uint32
	SPSR           [5]uint32
}

// Snapshot captures the full register file.
func (r *Registers) Snapshot() Snapshot {
	return Snapshot{
		R:              r.r,
		BankFIQ:        r.bankFIQ,
		UserBank8to12:  r.userBank8to12,
		BankIRQ:        r.bankIRQ,
		BankSupervisor: r.bankSupervisor,
		BankAbort:      r.bankAbort,
		BankUndefined:  r.bankUndefined,
		CPSR:           r.cpsr,
		SPSR:           r.spsr,
	}
}

// Restore replaces the full register file with a previously captured
// Snapshot.
func (r *Registers) Restore(s Snapshot) {
	r.r = s.R
	r.bankFIQ = s.BankFIQ
	r.userBank8to12 = s.UserBank8to12
	r.bankIRQ = s.BankIRQ
	r.bankSupervisor = s.BankSupervisor
	r.bankAbort = s.BankAbort
	r.bankUndefined = s.BankUndefined
	r.cpsr = s.CPSR
	r.spsr = s.SPSR
}

// switchMode banks out the old mode's R8-R14 (or R13-R14) into its private
// storage and banks in the new mode's, mirroring the real register file.
// FIQ additionally banks R8-R12, which every other mode shares with
// User/System; that shared set is parked in userBank8to12 while FIQ is
// active and restored when FIQ is left.
func (r *Registers) switchMode(old, new Mode) {
	if old == ModeFIQ && new != ModeFIQ {
		copy(r.bankFIQ[0:5], r.r[8:13])
		copy(r.r[8:13], r.userBank8to12[:])
	} else if old != ModeFIQ && new == ModeFIQ {
		copy(r.userBank8to12[:], r.r[8:13])
		copy(r.r[8:13], r.bankFIQ[0:5])
	}

	r.saveLowBank(old)
	r.loadLowBank(new)
}

// saveLowBank stores the outgoing mode's R13-R14 into its bank.
func (r *Registers) saveLowBank(m Mode) {
	switch m {
	case ModeFIQ:
		r.bankFIQ[5], r.bankFIQ[6] = r.r[13], r.r[14]
	case ModeIRQ:
		r.bankIRQ[0], r.bankIRQ[1] = r.r[13], r.r[14]
	case ModeSupervisor:
		r.bankSupervisor[0], r.bankSupervisor[1] = r.r[13], r.r[14]
	case ModeAbort:
		r.bankAbort[0], r.bankAbort[1] = r.r[13], r.r[14]
	case ModeUndefined:
		r.bankUndefined[0], r.bankUndefined[1] = r.r[13], r.r[14]
	}
}

func (r *Registers) loadLowBank(m Mode) {
	switch m {
	case ModeFIQ:
		r.r[13], r.r[14] = r.bankFIQ[5], r.bankFIQ[6]
	case ModeIRQ:
		r.r[13], r.r[14] = r.bankIRQ[0], r.bankIRQ[1]
	case ModeSupervisor:
		r.r[13], r.r[14] = r.bankSupervisor[0], r.bankSupervisor[1]
	case ModeAbort:
		r.r[13], r.r[14] = r.bankAbort[0], r.bankAbort[1]
	case ModeUndefined:
		r.r[13], r.r[14] = r.bankUndefined[0], r.bankUndefined[1]
	}
}
