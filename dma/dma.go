// Package dma implements the GBA's four DMA channels: immediate, VBlank,
// HBlank and special (audio FIFO / video capture) triggered block transfers.
package dma

import "github.com/hallowmere/goemerald/addr"

// StartTiming identifies when a channel's transfer begins, decoded from
// DMAxCNT_H bits 12-13.
type StartTiming uint8

const (
	TimingImmediate StartTiming = iota
	TimingVBlank
	TimingHBlank
	TimingSpecial
)

// AddrControl identifies how a source or destination address advances after
// each unit transferred, decoded from DMAxCNT_H bits 5-6 (dest) / 7-8 (src).
type AddrControl uint8

const (
	AddrIncrement AddrControl = iota
	AddrDecrement
	AddrFixed
	AddrIncrementReload // destination only: increment, reload to start at transfer end
)

// Bus is the minimal memory surface a DMA channel needs to perform a
// transfer; goemerald's bus package satisfies it.
type Bus interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, v uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, v uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
}

// Channel is one of the four DMA units.
type Channel struct {
	src, dst uint32
	count    uint16
	control  uint16

	srcLatch, dstLatch uint32
	countLatch         uint16
	active             bool
}

func (c *Channel) timing() StartTiming  { return StartTiming((c.control >> 12) & 0x3) }
func (c *Channel) destControl() AddrControl { return AddrControl((c.control >> 5) & 0x3) }
func (c *Channel) srcControl() AddrControl  { return AddrControl((c.control >> 7) & 0x3) }
func (c *Channel) repeat() bool         { return c.control&(1<<9) != 0 }
func (c *Channel) wordWide() bool       { return c.control&(1<<10) != 0 } // 32 bit transfer unit when set, else 16 bit
func (c *Channel) irqEnable() bool      { return c.control&(1<<14) != 0 }
func (c *Channel) enabled() bool        { return c.control&(1<<15) != 0 }

var channelIRQ = [4]addr.Interrupt{addr.IRQDMA0, addr.IRQDMA1, addr.IRQDMA2, addr.IRQDMA3}

// countMax is the "count field == 0 means max" value per channel: channel 3
// has a 16-bit count field (max 0x10000), the others a 14-bit field (max
// 0x4000).
var countMax = [4]uint32{0x4000, 0x4000, 0x4000, 0x10000}

// Engine ties together the four channels and the bus/interrupt controller
// they transfer through.
type Engine struct {
	channels [4]Channel
	bus      Bus
	raise    func(addr.Interrupt)
}

// New creates an Engine with all channels stopped.
func New(bus Bus, raise func(addr.Interrupt)) *Engine {
	return &Engine{bus: bus, raise: raise}
}

// Reset stops all channels.
func (e *Engine) Reset() {
	for i := range e.channels {
		e.channels[i] = Channel{}
	}
}

// Read handles a register read from one of the sixteen DMA registers.
// Source/destination registers are write-only on real hardware; reads
// return the open-bus pattern of 0, matching the common emulator convention.
func (e *Engine) Read(address uint32) uint16 {
	for i, base := range channelBase {
		if address == base+0xA {
			return e.channels[i].control
		}
	}
	return 0
}

var channelBase = [4]uint32{addr.DMA0SAD, addr.DMA1SAD, addr.DMA2SAD, addr.DMA3SAD}

// Write handles a register write to one of the sixteen DMA registers. A
// write to DMAxCNT_H with the enable bit transitioning 0->1 latches the
// channel's source/dest/count and, if the timing mode is Immediate,
// triggers the transfer synchronously.
func (e *Engine) Write(address uint32, value uint16, fullValue32 uint32, is32 bool) {
	for i, base := range channelBase {
		ch := &e.channels[i]
		switch address {
		case base:
			if is32 {
				ch.src = fullValue32 & 0x0FFFFFFF
			} else {
				ch.src = (ch.src &^ 0xFFFF) | uint32(value)
			}
			return
		case base + 2:
			ch.src = (ch.src &^ 0xFFFF0000) | (uint32(value) << 16)
			return
		case base + 4:
			if is32 {
				ch.dst = fullValue32 & 0x0FFFFFFF
			} else {
				ch.dst = (ch.dst &^ 0xFFFF) | uint32(value)
			}
			return
		case base + 6:
			ch.dst = (ch.dst &^ 0xFFFF0000) | (uint32(value) << 16)
			return
		case base + 8:
			ch.count = value
			return
		case base + 0xA:
			wasEnabled := ch.enabled()
			ch.control = value
			if !wasEnabled && ch.enabled() {
				e.latch(i)
				if ch.timing() == TimingImmediate {
					e.run(i)
				}
			}
			return
		}
	}
}

// ChannelState is a flat, serializable copy of one channel's registers and
// in-flight latch state, used by the save-state codec.
type ChannelState struct {
	Src, Dst           uint32
	Count, Control     uint16
	SrcLatch, DstLatch uint32
	CountLatch         uint16
	Active             bool
}

// Snapshot captures all four channels' register and latch state.
func (e *Engine) Snapshot() [4]ChannelState {
	var out [4]ChannelState
	for i, c := range e.channels {
		out[i] = ChannelState{
			Src: c.src, Dst: c.dst, Count: c.count, Control: c.control,
			SrcLatch: c.srcLatch, DstLatch: c.dstLatch, CountLatch: c.countLatch,
			Active: c.active,
		}
	}
	return out
}

// Restore replaces all four channels' state with a previously captured
// Snapshot.
func (e *Engine) Restore(s [4]ChannelState) {
	for i, cs := range s {
		e.channels[i] = Channel{
			src: cs.Src, dst: cs.Dst, count: cs.Count, control: cs.Control,
			srcLatch: cs.SrcLatch, dstLatch: cs.DstLatch, countLatch: cs.CountLatch,
			active: cs.Active,
		}
	}
}

func (e *Engine) latch(i int) {
	ch := &e.channels[i]
	ch.srcLatch = ch.src
	ch.dstLatch = ch.dst
	n := uint32(ch.count)
	if n == 0 {
		n = countMax[i]
	}
	ch.countLatch = uint16(n)
	ch.active = true
}

// OnVBlank runs every channel armed for VBlank-start timing.
func (e *Engine) OnVBlank() {
	for i := range e.channels {
		if e.channels[i].active && e.channels[i].timing() == TimingVBlank {
			e.run(i)
		}
	}
}

// OnHBlank runs every channel armed for HBlank-start timing.
func (e *Engine) OnHBlank() {
	for i := range e.channels {
		if e.channels[i].active && e.channels[i].timing() == TimingHBlank {
			e.run(i)
		}
	}
}

// run performs channel i's latched transfer in full (no wait-state/cycle
// accounting, per the non-goal on cycle-accurate timing).
func (e *Engine) run(i int) {
	ch := &e.channels[i]
	if !ch.active {
		return
	}

	unit := uint32(2)
	if ch.wordWide() {
		unit = 4
	}

	// countLatch is 16 bits wide, so channel 3's 0x10000 maximum latches as 0.
	count := uint32(ch.countLatch)
	if count == 0 {
		count = countMax[i]
	}
	src, dst := ch.srcLatch, ch.dstLatch
	for n := uint32(0); n < count; n++ {
		if ch.wordWide() {
			e.bus.Write32(dst, e.bus.Read32(src))
		} else {
			e.bus.Write16(dst, e.bus.Read16(src))
		}
		src = advance(src, ch.srcControl(), unit)
		dst = advance(dst, ch.destControl(), unit)
	}

	ch.srcLatch = src
	if ch.destControl() == AddrIncrementReload {
		ch.dstLatch = ch.dst
	} else {
		ch.dstLatch = dst
	}

	if ch.irqEnable() && e.raise != nil {
		e.raise(channelIRQ[i])
	}

	if ch.repeat() && ch.timing() != TimingImmediate {
		n := uint32(ch.count)
		if n == 0 {
			n = countMax[i]
		}
		ch.countLatch = uint16(n)
	} else {
		ch.active = false
		ch.control &^= 1 << 15
	}
}

func advance(a uint32, ctl AddrControl, unit uint32) uint32 {
	switch ctl {
	case AddrIncrement, AddrIncrementReload:
		return a + unit
	case AddrDecrement:
		return a - unit
	default: // AddrFixed
		return a
	}
}
