package interrupt

import (
	"testing"

	"github.com/hallowmere/goemerald/addr"
)

func TestPendingRequiresIMEAndMask(t *testing.T) {
	c := New()
	c.Raise(addr.IRQVBlank)
	if c.Pending() {
		t.Fatalf("IME disabled: Pending should be false")
	}

	c.WriteIME(1)
	if c.Pending() {
		t.Fatalf("IE not enabled for the raised source: Pending should be false")
	}

	c.WriteIE(uint16(addr.IRQVBlank))
	if !c.Pending() {
		t.Fatalf("IME set, IE enabled, IF raised: Pending should be true")
	}
}

func TestWriteIFIsWriteOneToClear(t *testing.T) {
	c := New()
	c.Raise(addr.IRQVBlank | addr.IRQHBlank)

	c.WriteIF(uint16(addr.IRQVBlank))
	if c.ReadIF() != uint16(addr.IRQHBlank) {
		t.Fatalf("writing 1 to IF should clear only that bit: got %#x", c.ReadIF())
	}
}

func TestRestoreIFBypassesClearSemantics(t *testing.T) {
	c := New()
	c.RestoreIF(uint16(addr.IRQVBlank | addr.IRQVCount))
	if c.ReadIF() != uint16(addr.IRQVBlank|addr.IRQVCount) {
		t.Fatalf("RestoreIF should set IF directly: got %#x", c.ReadIF())
	}
}

func TestResetClearsEverything(t *testing.T) {
	c := New()
	c.WriteIE(0xFFFF)
	c.Raise(addr.IRQVBlank)
	c.WriteIME(1)

	c.Reset()

	if c.ReadIE() != 0 || c.ReadIF() != 0 || c.IME() {
		t.Fatalf("Reset should zero IE/IF and disable IME: ie=%#x if=%#x ime=%v", c.ReadIE(), c.ReadIF(), c.IME())
	}
}

func TestOnScanlineStartRaisesVBlankOnce(t *testing.T) {
	c := New()
	v := &VBlankState{}
	v.SetDISPSTAT(1 << 3) // enable VBlank IRQ

	c.OnScanlineStart(v, 159)
	if c.ReadIF() != 0 {
		t.Fatalf("VBlank should not be raised before scanline 160: if=%#x", c.ReadIF())
	}

	c.OnScanlineStart(v, 160)
	if c.ReadIF() != uint16(addr.IRQVBlank) {
		t.Fatalf("VBlank should be raised exactly at scanline 160: if=%#x", c.ReadIF())
	}
	if !v.vblank {
		t.Fatalf("VBlankState.vblank should be set from scanline 160")
	}
}

func TestOnScanlineStartVCountMatch(t *testing.T) {
	c := New()
	v := &VBlankState{}
	v.SetDISPSTAT((1 << 5) | (42 << 8)) // enable VCount IRQ, LYC=42

	c.OnScanlineStart(v, 41)
	if c.ReadIF() != 0 {
		t.Fatalf("VCount should not fire before the matching line: if=%#x", c.ReadIF())
	}

	c.OnScanlineStart(v, 42)
	if c.ReadIF() != uint16(addr.IRQVCount) {
		t.Fatalf("VCount should fire on the matching line: if=%#x", c.ReadIF())
	}
}

func TestOnHBlankStartAndEnd(t *testing.T) {
	c := New()
	v := &VBlankState{}
	v.SetDISPSTAT(1 << 4) // enable HBlank IRQ

	c.OnHBlankStart(v)
	if !v.hblank {
		t.Fatalf("hblank flag should be set")
	}
	if c.ReadIF() != uint16(addr.IRQHBlank) {
		t.Fatalf("HBlank IRQ should be raised: if=%#x", c.ReadIF())
	}

	v.OnHBlankEnd()
	if v.hblank {
		t.Fatalf("hblank flag should clear at scanline's end")
	}
}

func TestVBlankStateSnapshotRoundTrip(t *testing.T) {
	v := &VBlankState{}
	v.SetDISPSTAT((1 << 3) | (1 << 4) | (1 << 5) | (7 << 8))
	v.vblank = true
	v.hblank = true

	snap := v.Snapshot()

	other := &VBlankState{}
	other.Restore(snap)

	if other.DISPSTAT() != v.DISPSTAT() {
		t.Fatalf("restored state should reproduce the same DISPSTAT value: got %#x want %#x", other.DISPSTAT(), v.DISPSTAT())
	}
}
