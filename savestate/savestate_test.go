package savestate

import (
	"testing"

	"github.com/hallowmere/goemerald/bus"
	"github.com/hallowmere/goemerald/cpu"
	"github.com/hallowmere/goemerald/diag"
	"github.com/hallowmere/goemerald/interrupt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRig() (*cpu.CPU, *bus.Bus, *interrupt.Controller, *uint64) {
	irq := interrupt.New()
	d := diag.New()
	b := bus.New(irq, d)
	c := cpu.New(b, irq, d)
	frames := uint64(0)
	return c, b, irq, &frames
}

const testGameCode = "TEST"

func sourcesFor(c *cpu.CPU, b *bus.Bus, irq *interrupt.Controller, frames *uint64) Sources {
	return Sources{
		CPU:        c,
		Bus:        b,
		DMA:        b.DMA,
		Timer:      b.Timer,
		IRQ:        irq,
		VState:     &b.VState,
		FrameCount: frames,
		GameCode:   testGameCode,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c, b, irq, frames := newRig()

	c.Reset(0x08000000)
	c.Regs.SetR(0, 0xDEADBEEF)
	c.Halted = true
	*frames = 42

	b.EWRAM()[0] = 0xAB
	b.VRAM()[100] = 0x7F
	irq.WriteIE(0x0021)
	irq.WriteIF(0x0001)
	irq.WriteIME(1)

	blob := Encode(sourcesFor(c, b, irq, frames))
	require.NotEmpty(t, blob)

	c2, b2, irq2, frames2 := newRig()
	err := Decode(blob, sourcesFor(c2, b2, irq2, frames2))
	require.NoError(t, err)

	assert.Equal(t, c.Regs.R(0), c2.Regs.R(0))
	assert.Equal(t, c.Halted, c2.Halted)
	assert.Equal(t, uint64(42), *frames2)
	assert.Equal(t, uint8(0xAB), b2.EWRAM()[0])
	assert.Equal(t, uint8(0x7F), b2.VRAM()[100])
	assert.Equal(t, irq.ReadIE(), irq2.ReadIE())
	assert.Equal(t, irq.ReadIF(), irq2.ReadIF())
	assert.Equal(t, irq.IME(), irq2.IME())
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	c, b, irq, frames := newRig()
	blob := Encode(sourcesFor(c, b, irq, frames))
	blob[0] ^= 0xFF

	err := Decode(blob, sourcesFor(c, b, irq, frames))
	require.Error(t, err)
	var magicErr MagicMismatchError
	require.ErrorAs(t, err, &magicErr)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	c, b, irq, frames := newRig()
	blob := Encode(sourcesFor(c, b, irq, frames))
	// Version is the second little-endian uint32, right after the magic.
	blob[4] = 0xFF

	err := Decode(blob, sourcesFor(c, b, irq, frames))
	require.Error(t, err)
	var versionErr VersionMismatchError
	require.ErrorAs(t, err, &versionErr)
	assert.Equal(t, Version, versionErr.Want)
}

func TestDecodeRejectsMismatchedGameCode(t *testing.T) {
	c, b, irq, frames := newRig()
	blob := Encode(sourcesFor(c, b, irq, frames))

	dst := sourcesFor(c, b, irq, frames)
	dst.GameCode = "OTHR"

	err := Decode(blob, dst)
	require.Error(t, err)
	var codeErr GameCodeMismatchError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, testGameCode, codeErr.Got)
	assert.Equal(t, "OTHR", codeErr.Want)
}

func TestDecodeLeavesDestinationUntouchedOnTruncatedInput(t *testing.T) {
	c, b, irq, frames := newRig()
	c.Regs.SetR(0, 0x11111111)
	*frames = 7

	blob := Encode(sourcesFor(c, b, irq, frames))
	truncated := blob[:16]

	err := Decode(truncated, sourcesFor(c, b, irq, frames))
	require.Error(t, err)
	assert.Equal(t, uint32(0x11111111), c.Regs.R(0))
	assert.Equal(t, uint64(7), *frames)
}
