package goemerald

import (
	"testing"

	"github.com/hallowmere/goemerald/cart"
	"github.com/hallowmere/goemerald/savestate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// infiniteBranchROM builds a minimal ROM whose entry instruction is the ARM
// "B +0" encoding (branch to self): cond=AL, L=0, offset=-2 words, so the
// branch target equals the instruction's own address.
func infiniteBranchROM() []byte {
	rom := make([]byte, 0x200)
	rom[0], rom[1], rom[2], rom[3] = 0xFE, 0xFF, 0xFF, 0xEA
	return rom
}

func TestLoadROMRejectsUndersizedInput(t *testing.T) {
	c := New()
	err := c.LoadROM(make([]byte, 4))
	require.Error(t, err)
	var invalid cart.ErrRomInvalid
	require.ErrorAs(t, err, &invalid)
	assert.False(t, c.Loaded())
}

func TestStepFrameBootBaseline(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadROM(infiniteBranchROM()))

	fb := c.StepFrame(0)

	assert.False(t, c.cpu.Regs.Thumb(), "CPU should remain in ARM state")
	assert.Equal(t, uint32(entryPoint+8), c.cpu.Regs.PC(), "R15 rests at target+pipeline-offset, per invariant P1")
	assert.Equal(t, uint64(1), c.FrameCount())

	for y := 0; y < 160; y++ {
		for x := 0; x < 240; x++ {
			assert.Equal(t, uint16(0), fb.GetPixel(x, y), "backdrop should be black with a zeroed palette")
		}
	}
}

func TestResetPreservesLoadedROM(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadROM(infiniteBranchROM()))
	c.StepFrame(0)

	c.Reset()

	assert.True(t, c.Loaded())
	assert.Equal(t, uint64(0), c.FrameCount())
	assert.Equal(t, uint32(entryPoint+8), c.cpu.Regs.PC())
}

func TestSaveStateRoundTrip(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadROM(infiniteBranchROM()))
	c.StepFrame(0)
	c.StepFrame(0)

	blob := c.SaveState()
	require.NotEmpty(t, blob)

	fresh := New()
	require.NoError(t, fresh.LoadROM(infiniteBranchROM()))

	require.NoError(t, fresh.LoadState(blob))
	assert.Equal(t, c.FrameCount(), fresh.FrameCount())
	assert.Equal(t, c.cpu.Regs.PC(), fresh.cpu.Regs.PC())
}

func TestLoadStateRejectsForeignBlob(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadROM(infiniteBranchROM()))

	err := c.LoadState([]byte("not a save state"))
	require.Error(t, err)
}

func TestLoadStateRejectsMismatchedCartridge(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadROM(infiniteBranchROM()))
	blob := c.SaveState()

	otherROM := infiniteBranchROM()
	copy(otherROM[0xAC:0xB0], []byte("BPEE"))
	other := New()
	require.NoError(t, other.LoadROM(otherROM))

	err := other.LoadState(blob)
	require.Error(t, err)
	var mismatch savestate.GameCodeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestReadWriteMemoryRoundTrip(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadROM(infiniteBranchROM()))

	c.WriteMemory(0x02000000, 0x42)
	assert.Equal(t, uint8(0x42), c.ReadMemory(0x02000000))
}
