// Package timer implements the GBA's four 16-bit timer/counter channels:
// prescaled free-running counters that can cascade off one another and
// raise an interrupt on overflow.
package timer

import "github.com/hallowmere/goemerald/addr"

// prescalerCycles maps a TMxCNT_H prescaler selector (bits 0-1) to the
// number of CPU cycles per counter increment.
var prescalerCycles = [4]uint32{1, 64, 256, 1024}

// Channel is one of the four timer units.
type Channel struct {
	reload  uint16
	counter uint16
	control uint16 // cached TMxCNT_H, bits: 0-1 prescaler, 2 cascade, 6 irq enable, 7 start

	accumulated uint32 // sub-tick cycle accumulator for the prescaler
	overflowed  bool   // set for one Tick when this channel wraps, consumed by cascade
}

func (c *Channel) prescaler() uint32 {
	return prescalerCycles[c.control&0x3]
}

func (c *Channel) cascade() bool { return c.control&(1<<2) != 0 }
func (c *Channel) irqEnable() bool { return c.control&(1<<6) != 0 }
func (c *Channel) enabled() bool   { return c.control&(1<<7) != 0 }

// Unit ties together the four channels and the shared interrupt controller.
// raise is injected rather than importing interrupt.Controller directly,
// so this package doesn't need to know about the controller's full surface.
type Unit struct {
	channels [4]Channel
	raise    func(addr.Interrupt)
}

// New creates a Unit with all four channels stopped.
func New(raise func(addr.Interrupt)) *Unit {
	return &Unit{raise: raise}
}

// Reset stops and zeroes all four channels.
func (u *Unit) Reset() {
	for i := range u.channels {
		u.channels[i] = Channel{}
	}
}

var channelIRQ = [4]addr.Interrupt{addr.IRQTimer0, addr.IRQTimer1, addr.IRQTimer2, addr.IRQTimer3}

// ChannelState is a flat, serializable copy of one timer channel, used by
// the save-state codec.
type ChannelState struct {
	Reload, Counter, Control uint16
	Accumulated              uint32
	Overflowed               bool
}

// Snapshot captures all four channels' state.
func (u *Unit) Snapshot() [4]ChannelState {
	var out [4]ChannelState
	for i, c := range u.channels {
		out[i] = ChannelState{
			Reload: c.reload, Counter: c.counter, Control: c.control,
			Accumulated: c.accumulated, Overflowed: c.overflowed,
		}
	}
	return out
}

// Restore replaces all four channels' state with a previously captured
// Snapshot.
func (u *Unit) Restore(s [4]ChannelState) {
	for i, cs := range s {
		u.channels[i] = Channel{
			reload: cs.Reload, counter: cs.Counter, control: cs.Control,
			accumulated: cs.Accumulated, overflowed: cs.Overflowed,
		}
	}
}

// Tick advances every enabled channel by cycles CPU cycles, in channel order
// so cascade chaining (channel N+1 counts channel N's overflows) sees this
// tick's overflow within the same call.
func (u *Unit) Tick(cycles uint32) {
	for i := range u.channels {
		ch := &u.channels[i]
		ch.overflowed = false
		if !ch.enabled() {
			continue
		}

		if ch.cascade() {
			if i > 0 && u.channels[i-1].overflowed {
				u.stepOnce(i)
			}
			continue
		}

		ch.accumulated += cycles
		step := ch.prescaler()
		for ch.accumulated >= step {
			ch.accumulated -= step
			u.stepOnce(i)
		}
	}
}

// stepOnce increments channel i's counter by one tick, handling overflow:
// reload from the reload register and raise its IRQ if enabled.
func (u *Unit) stepOnce(i int) {
	ch := &u.channels[i]
	ch.counter++
	if ch.counter == 0 {
		ch.counter = ch.reload
		ch.overflowed = true
		if ch.irqEnable() && u.raise != nil {
			u.raise(channelIRQ[i])
		}
	}
}

// Read handles a 16-bit read from one of the eight timer registers.
func (u *Unit) Read(address uint32) uint16 {
	switch address {
	case addr.TM0CNT_L:
		return u.channels[0].counter
	case addr.TM0CNT_H:
		return u.channels[0].control
	case addr.TM1CNT_L:
		return u.channels[1].counter
	case addr.TM1CNT_H:
		return u.channels[1].control
	case addr.TM2CNT_L:
		return u.channels[2].counter
	case addr.TM2CNT_H:
		return u.channels[2].control
	case addr.TM3CNT_L:
		return u.channels[3].counter
	case addr.TM3CNT_H:
		return u.channels[3].control
	default:
		return 0
	}
}

// Write handles a 16-bit write to one of the eight timer registers. Writing
// TMxCNT_L sets the reload value (the live counter is unaffected until the
// channel is (re)started); writing TMxCNT_H with the start bit transitioning
// 0->1 loads the counter from the reload value immediately.
func (u *Unit) Write(address uint32, value uint16) {
	switch address {
	case addr.TM0CNT_L:
		u.channels[0].reload = value
	case addr.TM0CNT_H:
		u.writeControl(0, value)
	case addr.TM1CNT_L:
		u.channels[1].reload = value
	case addr.TM1CNT_H:
		u.writeControl(1, value)
	case addr.TM2CNT_L:
		u.channels[2].reload = value
	case addr.TM2CNT_H:
		u.writeControl(2, value)
	case addr.TM3CNT_L:
		u.channels[3].reload = value
	case addr.TM3CNT_H:
		u.writeControl(3, value)
	}
}

func (u *Unit) writeControl(i int, value uint16) {
	ch := &u.channels[i]
	wasEnabled := ch.enabled()
	ch.control = value & 0x00C7
	if !wasEnabled && ch.enabled() {
		ch.counter = ch.reload
		ch.accumulated = 0
	}
}
