package timer

import (
	"testing"

	"github.com/hallowmere/goemerald/addr"
)

func TestTimerOverflowReloadsAndRaisesIRQ(t *testing.T) {
	var raised []addr.Interrupt
	u := New(func(i addr.Interrupt) { raised = append(raised, i) })

	u.Write(addr.TM0CNT_L, 0xFFFE)
	u.Write(addr.TM0CNT_H, 0x00C0) // start, irq enable, prescaler /1

	u.Tick(1)
	if got := u.Read(addr.TM0CNT_L); got != 0xFFFF {
		t.Fatalf("counter after 1 tick = %#x, want 0xFFFF", got)
	}
	if len(raised) != 0 {
		t.Fatalf("unexpected IRQ before overflow")
	}

	u.Tick(1)
	if got := u.Read(addr.TM0CNT_L); got != 0xFFFE {
		t.Fatalf("counter after overflow = %#x, want reload 0xFFFE", got)
	}
	if len(raised) != 1 || raised[0] != addr.IRQTimer0 {
		t.Fatalf("expected one IRQTimer0, got %v", raised)
	}
}

func TestTimerPrescaler(t *testing.T) {
	u := New(nil)
	u.Write(addr.TM0CNT_L, 0)
	u.Write(addr.TM0CNT_H, 0x0081) // start, prescaler /64

	u.Tick(63)
	if got := u.Read(addr.TM0CNT_L); got != 0 {
		t.Fatalf("counter ticked early: %#x", got)
	}
	u.Tick(1)
	if got := u.Read(addr.TM0CNT_L); got != 1 {
		t.Fatalf("counter = %#x, want 1", got)
	}
}

func TestTimerCascade(t *testing.T) {
	var raised []addr.Interrupt
	u := New(func(i addr.Interrupt) { raised = append(raised, i) })

	// channel 0: start, irq enable, prescaler /1, overflow immediately on next tick
	u.Write(addr.TM0CNT_L, 0xFFFF)
	u.Write(addr.TM0CNT_H, 0x00C0)
	// channel 1: cascade off channel 0
	u.Write(addr.TM1CNT_L, 0)
	u.Write(addr.TM1CNT_H, 0x00C4) // start, irq enable, cascade bit2

	u.Tick(1)
	if got := u.Read(addr.TM1CNT_L); got != 1 {
		t.Fatalf("cascaded counter = %#x, want 1", got)
	}

	u.Write(addr.TM1CNT_L, 0xFFFF)
	u.channels[1].counter = 0xFFFF
	u.Write(addr.TM0CNT_L, 0xFFFF)
	u.channels[0].counter = 0xFFFF
	raised = nil
	u.Tick(1)
	found0, found1 := false, false
	for _, r := range raised {
		if r == addr.IRQTimer0 {
			found0 = true
		}
		if r == addr.IRQTimer1 {
			found1 = true
		}
	}
	if !found0 || !found1 {
		t.Fatalf("expected both timer0 and timer1 IRQs on cascaded overflow, got %v", raised)
	}
}

func TestTimerStartLoadsReload(t *testing.T) {
	u := New(nil)
	u.Write(addr.TM2CNT_L, 0x1234)
	u.Write(addr.TM2CNT_H, 0x0080)
	if got := u.Read(addr.TM2CNT_L); got != 0x1234 {
		t.Fatalf("counter after start = %#x, want 0x1234", got)
	}
}
