// Package savestate implements goemerald's save state codec: a versioned,
// field-by-field binary encoding of every piece of mutable core state,
// per the ordering fixed by the external save state format (§6.4).
package savestate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hallowmere/goemerald/bus"
	"github.com/hallowmere/goemerald/cart"
	"github.com/hallowmere/goemerald/cpu"
	"github.com/hallowmere/goemerald/dma"
	"github.com/hallowmere/goemerald/interrupt"
	"github.com/hallowmere/goemerald/timer"
)

// Magic identifies a goemerald save state blob: ASCII "EMER".
const Magic uint32 = 0x454D4552

// Version is the current codec version. A save state written by a future,
// incompatible version is rejected rather than partially decoded.
const Version uint32 = 1

// VersionMismatchError reports a save state whose version field the running
// codec doesn't know how to decode.
type VersionMismatchError struct {
	Got, Want uint32
}

func (e VersionMismatchError) Error() string {
	return fmt.Sprintf("save state version mismatch: got %d, want %d", e.Got, e.Want)
}

// MagicMismatchError reports a blob that doesn't start with the save state
// magic number, i.e. isn't a goemerald save state at all.
type MagicMismatchError struct {
	Got uint32
}

func (e MagicMismatchError) Error() string {
	return fmt.Sprintf("save state magic mismatch: got 0x%08X, want 0x%08X", e.Got, Magic)
}

// GameCodeMismatchError reports a save state recorded against a different
// cartridge than the one currently loaded. Per §6.4, the ROM itself is
// never serialized; the loader is expected to re-attach an identical ROM
// first, and this is the check that catches a mismatched one.
type GameCodeMismatchError struct {
	Got, Want string
}

func (e GameCodeMismatchError) Error() string {
	return fmt.Sprintf("save state game code mismatch: got %q, want %q", e.Got, e.Want)
}

// Sources bundles every subsystem a save state reads from and writes to. The
// codec only depends on the narrow Snapshot/Restore and buffer-accessor
// surface each package already exposes, not their full APIs.
type Sources struct {
	CPU        *cpu.CPU
	Bus        *bus.Bus
	DMA        *dma.Engine
	Timer      *timer.Unit
	IRQ        *interrupt.Controller
	VState     *interrupt.VBlankState
	FrameCount *uint64
	// GameCode identifies the cartridge currently attached, so Decode can
	// refuse a save state recorded against a different ROM (§6.4's "ROM is
	// not serialized; loader must re-attach an identical ROM").
	GameCode string
}

func gameCodeBytes(s string) [4]byte {
	var out [4]byte
	copy(out[:], s)
	return out
}

// Encode serializes src into a save state blob per the §6.4 field order:
// magic, version, game code, frame count, CPU state, bus buffers followed
// by the bus's scalar registers, DMA state, timer state, interrupt
// controller state, GPIO+RTC state.
func Encode(src Sources) []byte {
	var buf bytes.Buffer

	binary.Write(&buf, binary.LittleEndian, Magic)
	binary.Write(&buf, binary.LittleEndian, Version)
	binary.Write(&buf, binary.LittleEndian, gameCodeBytes(src.GameCode))
	binary.Write(&buf, binary.LittleEndian, *src.FrameCount)

	writeCPU(&buf, src.CPU)
	writeBusBuffers(&buf, src.Bus)
	writeDMA(&buf, src.DMA)
	writeTimer(&buf, src.Timer)
	writeInterrupt(&buf, src.IRQ, src.VState)
	writeGPIO(&buf, src.Bus.GPIO())

	return buf.Bytes()
}

// Decode parses a save state blob produced by Encode and applies it to dst
// in place. On any error dst is left exactly as it was: every field is
// decoded into a local value first and only written back to dst once the
// whole blob has parsed successfully.
func Decode(data []byte, dst Sources) error {
	r := bytes.NewReader(data)

	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if magic != Magic {
		return MagicMismatchError{Got: magic}
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if version != Version {
		return VersionMismatchError{Got: version, Want: Version}
	}

	var gameCode [4]byte
	if err := binary.Read(r, binary.LittleEndian, &gameCode); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if gotCode := string(gameCode[:]); gotCode != dst.GameCode {
		return GameCodeMismatchError{Got: gotCode, Want: dst.GameCode}
	}

	var frameCount uint64
	if err := binary.Read(r, binary.LittleEndian, &frameCount); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	cpuState, err := readCPU(r)
	if err != nil {
		return fmt.Errorf("save state: cpu: %w", err)
	}
	busBuffers, err := readBusBuffers(r, dst.Bus)
	if err != nil {
		return fmt.Errorf("save state: bus: %w", err)
	}
	busScalars, err := readBusScalars(r)
	if err != nil {
		return fmt.Errorf("save state: bus: %w", err)
	}
	dmaState, err := readDMA(r)
	if err != nil {
		return fmt.Errorf("save state: dma: %w", err)
	}
	timerState, err := readTimer(r)
	if err != nil {
		return fmt.Errorf("save state: timer: %w", err)
	}
	ie, iff, ime, vblank, err := readInterrupt(r)
	if err != nil {
		return fmt.Errorf("save state: interrupt: %w", err)
	}
	gpioState, err := readGPIO(r)
	if err != nil {
		return fmt.Errorf("save state: gpio: %w", err)
	}

	*dst.FrameCount = frameCount
	dst.CPU.Regs.Restore(cpuState.regs)
	dst.CPU.Halted = cpuState.halted
	dst.CPU.Cycles = cpuState.cycles

	copy(dst.Bus.EWRAM(), busBuffers.ewram)
	copy(dst.Bus.IWRAM(), busBuffers.iwram)
	copy(dst.Bus.IOBuffer(), busBuffers.io)
	copy(dst.Bus.Palette(), busBuffers.pal)
	copy(dst.Bus.VRAM(), busBuffers.vram)
	copy(dst.Bus.OAM(), busBuffers.oam)
	dst.Bus.Restore(busScalars)

	dst.DMA.Restore(dmaState)
	dst.Timer.Restore(timerState)

	dst.IRQ.WriteIE(ie)
	dst.IRQ.RestoreIF(iff)
	dst.IRQ.SetIME(ime)
	dst.VState.Restore(vblank)

	if g := dst.Bus.GPIO(); g != nil {
		g.Restore(gpioState)
	}

	return nil
}

type cpuState struct {
	regs   cpu.Snapshot
	halted bool
	cycles uint64
}

func writeCPU(buf *bytes.Buffer, c *cpu.CPU) {
	snap := c.Regs.Snapshot()
	binary.Write(buf, binary.LittleEndian, snap)
	binary.Write(buf, binary.LittleEndian, c.Halted)
	binary.Write(buf, binary.LittleEndian, c.Cycles)
}

func readCPU(r *bytes.Reader) (cpuState, error) {
	var s cpuState
	if err := binary.Read(r, binary.LittleEndian, &s.regs); err != nil {
		return s, err
	}
	if err := binary.Read(r, binary.LittleEndian, &s.halted); err != nil {
		return s, err
	}
	if err := binary.Read(r, binary.LittleEndian, &s.cycles); err != nil {
		return s, err
	}
	return s, nil
}

type busBufferState struct {
	ewram, iwram, io, pal, vram, oam []byte
}

func writeBusBuffers(buf *bytes.Buffer, b *bus.Bus) {
	buf.Write(b.EWRAM())
	buf.Write(b.IWRAM())
	buf.Write(b.IOBuffer())
	buf.Write(b.Palette())
	buf.Write(b.VRAM())
	buf.Write(b.OAM())
	binary.Write(buf, binary.LittleEndian, b.Snapshot())
}

func readBusBuffers(r *bytes.Reader, b *bus.Bus) (busBufferState, error) {
	var s busBufferState
	read := func(n int) ([]byte, error) {
		out := make([]byte, n)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var err error
	if s.ewram, err = read(len(b.EWRAM())); err != nil {
		return s, err
	}
	if s.iwram, err = read(len(b.IWRAM())); err != nil {
		return s, err
	}
	if s.io, err = read(len(b.IOBuffer())); err != nil {
		return s, err
	}
	if s.pal, err = read(len(b.Palette())); err != nil {
		return s, err
	}
	if s.vram, err = read(len(b.VRAM())); err != nil {
		return s, err
	}
	if s.oam, err = read(len(b.OAM())); err != nil {
		return s, err
	}
	return s, nil
}

func readBusScalars(r *bytes.Reader) (bus.State, error) {
	var s bus.State
	err := binary.Read(r, binary.LittleEndian, &s)
	return s, err
}

func writeDMA(buf *bytes.Buffer, e *dma.Engine) {
	snap := e.Snapshot()
	binary.Write(buf, binary.LittleEndian, snap)
}

func readDMA(r *bytes.Reader) ([4]dma.ChannelState, error) {
	var s [4]dma.ChannelState
	err := binary.Read(r, binary.LittleEndian, &s)
	return s, err
}

func writeTimer(buf *bytes.Buffer, u *timer.Unit) {
	snap := u.Snapshot()
	binary.Write(buf, binary.LittleEndian, snap)
}

func readTimer(r *bytes.Reader) ([4]timer.ChannelState, error) {
	var s [4]timer.ChannelState
	err := binary.Read(r, binary.LittleEndian, &s)
	return s, err
}

func writeInterrupt(buf *bytes.Buffer, c *interrupt.Controller, v *interrupt.VBlankState) {
	binary.Write(buf, binary.LittleEndian, c.ReadIE())
	binary.Write(buf, binary.LittleEndian, c.ReadIF())
	binary.Write(buf, binary.LittleEndian, c.IME())
	binary.Write(buf, binary.LittleEndian, v.Snapshot())
}

func readInterrupt(r *bytes.Reader) (ie, iff uint16, ime bool, vblank interrupt.VBlankSnapshot, err error) {
	if err = binary.Read(r, binary.LittleEndian, &ie); err != nil {
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &iff); err != nil {
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &ime); err != nil {
		return
	}
	err = binary.Read(r, binary.LittleEndian, &vblank)
	return
}

func writeGPIO(buf *bytes.Buffer, g *cart.GPIO) {
	var snap cart.GPIOSnapshot
	if g != nil {
		snap = g.Snapshot()
	}
	binary.Write(buf, binary.LittleEndian, snap)
}

func readGPIO(r *bytes.Reader) (cart.GPIOSnapshot, error) {
	var s cart.GPIOSnapshot
	err := binary.Read(r, binary.LittleEndian, &s)
	return s, err
}
