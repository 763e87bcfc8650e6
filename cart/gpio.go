package cart

// RTC models the GBA's serial real-time-clock device, addressed through
// three GPIO-mapped lines (SCK, SIO, CS) per the GPIO+RTC protocol.
type RTC struct {
	data, direction, control uint16

	cs, sck, sio bool

	bitIndex  int
	command   byte
	gotCmd    bool
	buffer    [8]byte
	bufferPos int
	reading   bool

	// Now supplies the current wall-clock time used to compute BCD
	// date/time responses; defaults to a fixed epoch so save states stay
	// deterministic across hosts (injected rather than time.Now()-backed
	// so tests don't depend on wall-clock time).
	Now func() (year, month, day, weekday, hour, min, sec uint8)
}

// NewRTC creates an RTC with all lines low and a zero epoch clock.
func NewRTC() *RTC {
	return &RTC{
		Now: func() (uint8, uint8, uint8, uint8, uint8, uint8, uint8) {
			return 0, 0, 0, 0, 0, 0, 0
		},
	}
}

const (
	gpioBitSCK = 0
	gpioBitSIO = 1
	gpioBitCS  = 2
)

// ReadData returns the current GPIODATA value, reflecting the RTC's output
// bit when the direction bit for SIO is configured as input.
func (r *RTC) ReadData() uint16 {
	v := r.data
	if r.direction&(1<<gpioBitSIO) == 0 && r.reading {
		if r.sio {
			v |= 1 << gpioBitSIO
		} else {
			v &^= 1 << gpioBitSIO
		}
	}
	return v
}

// WriteData applies a GPIODATA write. Only bits configured as output in
// GPIODIR actually drive the RTC; input-configured bits are ignored.
func (r *RTC) WriteData(value uint16) {
	r.data = value
	if r.direction&(1<<gpioBitCS) != 0 {
		r.setCS(value&(1<<gpioBitCS) != 0)
	}
	if r.direction&(1<<gpioBitSCK) != 0 {
		r.setSCK(value&(1<<gpioBitSCK) != 0)
	}
	if r.direction&(1<<gpioBitSIO) != 0 {
		r.sio = value&(1<<gpioBitSIO) != 0
	}
}

func (r *RTC) setCS(high bool) {
	if high && !r.cs {
		r.bitIndex = 0
		r.gotCmd = false
		r.bufferPos = 0
		r.reading = false
	}
	r.cs = high
}

func (r *RTC) setSCK(high bool) {
	rising := high && !r.sck
	r.sck = high
	if !rising || !r.cs {
		return
	}

	if !r.gotCmd {
		r.command = (r.command << 1) | boolBit(r.sio)
		r.bitIndex++
		if r.bitIndex == 8 {
			r.gotCmd = true
			r.bitIndex = 0
			r.dispatchCommand()
		}
		return
	}

	if r.reading {
		byteIdx := r.bitIndex / 8
		bitInByte := 7 - r.bitIndex%8
		if byteIdx < len(r.buffer) {
			r.sio = r.buffer[byteIdx]&(1<<bitInByte) != 0
		}
		r.bitIndex++
	}
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// dispatchCommand decodes the 8-bit command byte shifted in from SIO:
// bits 7-4 select the command (reset=0x6, status=0x6 sub, datetime=0x6,
// time-only=0x6 per the real MX8025 command layout this models at a
// register level: 0x60 reset, 0x62 status, 0x64 datetime, 0x66 time), and
// bit 0 selects read (1) vs write (0).
func (r *RTC) dispatchCommand() {
	readMode := r.command&0x01 != 0
	switch r.command &^ 0x01 {
	case 0x60: // reset
		r.bufferPos = 0
	case 0x62: // status register
		r.buffer[0] = 0x00
		r.reading = readMode
	case 0x64: // full date + time, 7 bytes BCD
		y, mo, d, wd, h, mi, s := r.Now()
		r.buffer[0] = toBCD(y)
		r.buffer[1] = toBCD(mo)
		r.buffer[2] = toBCD(d)
		r.buffer[3] = toBCD(wd)
		r.buffer[4] = toBCD(h)
		r.buffer[5] = toBCD(mi)
		r.buffer[6] = toBCD(s)
		r.reading = readMode
	case 0x66: // time only, 3 bytes BCD
		_, _, _, _, h, mi, s := r.Now()
		r.buffer[0] = toBCD(h)
		r.buffer[1] = toBCD(mi)
		r.buffer[2] = toBCD(s)
		r.reading = readMode
	}
}

func toBCD(v uint8) uint8 {
	return ((v / 10) << 4) | (v % 10)
}

// RTCSnapshot is a flat, serializable copy of an RTC's protocol state,
// used by the save-state codec. Now is not part of the snapshot: it is a
// host-supplied clock source re-injected by the caller on load.
type RTCSnapshot struct {
	Data, Direction, Control uint16
	CS, SCK, SIO             bool
	BitIndex                 int32
	Command                  byte
	GotCmd                   bool
	Buffer                   [8]byte
	BufferPos                int32
	Reading                  bool
}

// Snapshot captures the RTC's protocol state.
func (r *RTC) Snapshot() RTCSnapshot {
	return RTCSnapshot{
		Data: r.data, Direction: r.direction, Control: r.control,
		CS: r.cs, SCK: r.sck, SIO: r.sio,
		BitIndex: int32(r.bitIndex), Command: r.command, GotCmd: r.gotCmd,
		Buffer: r.buffer, BufferPos: int32(r.bufferPos), Reading: r.reading,
	}
}

// Restore replaces the RTC's protocol state with a previously captured
// RTCSnapshot, preserving the existing Now clock source.
func (r *RTC) Restore(s RTCSnapshot) {
	r.data, r.direction, r.control = s.Data, s.Direction, s.Control
	r.cs, r.sck, r.sio = s.CS, s.SCK, s.SIO
	r.bitIndex, r.command, r.gotCmd = int(s.BitIndex), s.Command, s.GotCmd
	r.buffer, r.bufferPos, r.reading = s.Buffer, int(s.BufferPos), s.Reading
}

// GPIO bundles the three pak-mapped registers and the RTC device they
// drive. GPIOCNT bit 0 controls whether GPIODATA is readable from the bus;
// GPIODIR and GPIOCNT stay readable either way.
type GPIO struct {
	direction uint16
	control   uint16
	rtc       *RTC
}

// NewGPIO creates a GPIO block with an attached RTC, all lines as inputs.
func NewGPIO() *GPIO {
	return &GPIO{rtc: NewRTC()}
}

// Visible reports whether GPIOCNT's read-enable bit is set.
func (g *GPIO) Visible() bool { return g.control&1 != 0 }

// RTC returns the GPIO block's attached RTC device, for callers (the core's
// clock-source wiring) that need to inject a Now function.
func (g *GPIO) RTC() *RTC { return g.rtc }

// Read16 handles a read from one of the three GPIO registers.
func (g *GPIO) Read16(address uint32) uint16 {
	switch address & 0xF {
	case 0x4:
		return g.rtc.ReadData()
	case 0x6:
		return g.direction
	case 0x8:
		return g.control
	default:
		return 0
	}
}

// Write16 handles a write to one of the three GPIO registers.
func (g *GPIO) Write16(address uint32, value uint16) {
	switch address & 0xF {
	case 0x4:
		g.rtc.direction = g.direction
		g.rtc.WriteData(value)
	case 0x6:
		g.direction = value
	case 0x8:
		g.control = value
	}
}

// GPIOSnapshot is a flat, serializable copy of the GPIO block and its
// attached RTC, used by the save-state codec.
type GPIOSnapshot struct {
	Direction, Control uint16
	RTC                RTCSnapshot
}

// Snapshot captures the GPIO block's register state and its RTC's.
func (g *GPIO) Snapshot() GPIOSnapshot {
	return GPIOSnapshot{Direction: g.direction, Control: g.control, RTC: g.rtc.Snapshot()}
}

// Restore replaces the GPIO block's state with a previously captured
// GPIOSnapshot.
func (g *GPIO) Restore(s GPIOSnapshot) {
	g.direction, g.control = s.Direction, s.Control
	g.rtc.Restore(s.RTC)
}
