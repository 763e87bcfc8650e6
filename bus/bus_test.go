package bus

import (
	"testing"

	"github.com/hallowmere/goemerald/addr"
	"github.com/hallowmere/goemerald/diag"
	"github.com/hallowmere/goemerald/interrupt"
)

func newTestBus() *Bus {
	irq := interrupt.New()
	b := New(irq, diag.New())
	b.AttachROM(make([]byte, 0x1000))
	return b
}

func TestEWRAMMirrors(t *testing.T) {
	b := newTestBus()
	b.Write8(0x02000000, 0x42)
	if got := b.Read8(0x02040000); got != 0x42 {
		t.Fatalf("EWRAM mirror at +256KiB = %#x, want 0x42", got)
	}
}

func TestIWRAMMirrors(t *testing.T) {
	b := newTestBus()
	b.Write8(0x03000000, 0x7F)
	if got := b.Read8(0x03008000); got != 0x7F {
		t.Fatalf("IWRAM mirror at +32KiB = %#x, want 0x7F", got)
	}
}

func TestVRAMSubmirrorQuirk(t *testing.T) {
	b := newTestBus()
	b.Write8(0x06010000, 0x11)
	if got := b.Read8(0x06018000); got != 0x11 {
		t.Fatalf("VRAM 96-128KiB window should mirror the last 32KiB: got %#x, want 0x11", got)
	}
}

func TestMisalignedWordLoadRotates(t *testing.T) {
	b := newTestBus()
	b.Write32(0x02000000, 0x12345678)
	got := b.Read32(0x02000001)
	want := uint32(0x78123456) // rotated right by 8 bits
	if got != want {
		t.Fatalf("misaligned Read32 = %#x, want %#x", got, want)
	}
}

func TestPaletteByteWriteReplicates(t *testing.T) {
	b := newTestBus()
	b.Write8(0x05000000, 0xAB)
	if got := b.Read16(0x05000000); got != 0xABAB {
		t.Fatalf("8-bit palette write should replicate into both bytes: got %#x", got)
	}
}

func TestOAMByteWriteIgnored(t *testing.T) {
	b := newTestBus()
	b.Write16(0x07000000, 0x1234)
	b.Write8(0x07000000, 0xFF)
	if got := b.Read16(0x07000000); got != 0x1234 {
		t.Fatalf("8-bit OAM write should be ignored: got %#x, want 0x1234", got)
	}
}

func TestIEIFWriteOneToClear(t *testing.T) {
	b := newTestBus()
	b.Write16(addr.IE, 0xFFFF)
	b.IRQ.Raise(addr.IRQVBlank | addr.IRQTimer0)
	b.Write16(addr.IF, uint16(addr.IRQVBlank))
	if got := b.Read16(addr.IF); got&uint16(addr.IRQVBlank) != 0 {
		t.Fatalf("IF bit should have cleared after write-1-to-clear")
	}
	if got := b.Read16(addr.IF); got&uint16(addr.IRQTimer0) == 0 {
		t.Fatalf("unrelated IF bit should survive a write-1-to-clear")
	}
}

func TestVCountWritesIgnored(t *testing.T) {
	b := newTestBus()
	b.SetVCount(42)
	b.Write16(addr.VCOUNT, 0)
	if got := b.Read16(addr.VCOUNT); got != 42 {
		t.Fatalf("VCOUNT write should be a no-op: got %d, want 42", got)
	}
}

func TestKeyInputIsReadOnlyFromCPU(t *testing.T) {
	b := newTestBus()
	b.SetKeyInput(0x0001)
	b.Write16(addr.KEYINPUT, 0xFFFF)
	if got := b.Read16(addr.KEYINPUT); got != 0x03FE {
		t.Fatalf("KEYINPUT write from CPU should be ignored: got %#x", got)
	}
}

func TestDMAEnableTriggersImmediateTransfer(t *testing.T) {
	b := newTestBus()
	b.Write32(0x02000000, 0xCAFEBABE)
	b.Write32(addr.DMA0SAD, 0x02000000)
	b.Write32(addr.DMA0DAD, 0x02001000)
	b.Write16(addr.DMA0CNT_L, 1)
	b.Write16(addr.DMA0CNT_H, 1<<15|1<<10) // enable, 32-bit transfer, immediate
	if got := b.Read32(0x02001000); got != 0xCAFEBABE {
		t.Fatalf("immediate DMA write should have run on enable: got %#x", got)
	}
}

func TestROMGPIOWindowRoundTrips(t *testing.T) {
	b := newTestBus()
	b.Write16(addr.GPIOCNT, 1) // make GPIO readable
	b.Write16(addr.GPIODIR, 0x0007)
	b.Write16(addr.GPIODATA, 0x0005)
	if got := b.Read16(addr.GPIODIR); got != 0x0007 {
		t.Fatalf("GPIODIR readback = %#x, want 0x0007", got)
	}
}

func TestSaveBackingByteProgramRoundTrips(t *testing.T) {
	b := newTestBus()
	b.Write8(0x0E005555, 0xAA)
	b.Write8(0x0E002AAA, 0x55)
	b.Write8(0x0E005555, 0xA0)
	b.Write8(0x0E000010, 0x42)
	if got := b.Read8(0x0E000010); got != 0x42 {
		t.Fatalf("save-device byte write = %#x, want 0x42", got)
	}
}

func TestUnmappedReadReturnsZero(t *testing.T) {
	b := newTestBus()
	if got := b.Read32(0xF0000000); got != 0 {
		t.Fatalf("unmapped read = %#x, want 0", got)
	}
}
