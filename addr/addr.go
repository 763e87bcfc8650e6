// Package addr holds the GBA I/O register address table and the interrupt
// bit-flag constants shared by the bus, cpu, video, dma, timer and interrupt
// packages.
package addr

// LCD I/O registers (0x0400_0000 - 0x0400_005F).
const (
	DISPCNT  uint32 = 0x04000000 // LCD control
	DISPSTAT uint32 = 0x04000004 // general LCD status
	VCOUNT   uint32 = 0x04000006 // vertical counter, read-only

	BG0CNT uint32 = 0x04000008
	BG1CNT uint32 = 0x0400000A
	BG2CNT uint32 = 0x0400000C
	BG3CNT uint32 = 0x0400000E

	BG0HOFS uint32 = 0x04000010
	BG0VOFS uint32 = 0x04000012
	BG1HOFS uint32 = 0x04000014
	BG1VOFS uint32 = 0x04000016
	BG2HOFS uint32 = 0x04000018
	BG2VOFS uint32 = 0x0400001A
	BG3HOFS uint32 = 0x0400001C
	BG3VOFS uint32 = 0x0400001E

	BG2PA uint32 = 0x04000020
	BG2PB uint32 = 0x04000022
	BG2PC uint32 = 0x04000024
	BG2PD uint32 = 0x04000026
	BG2X  uint32 = 0x04000028 // 32 bit reference point
	BG2Y  uint32 = 0x0400002C

	BG3PA uint32 = 0x04000030
	BG3PB uint32 = 0x04000032
	BG3PC uint32 = 0x04000034
	BG3PD uint32 = 0x04000036
	BG3X  uint32 = 0x04000038
	BG3Y  uint32 = 0x0400003C

	WIN0H uint32 = 0x04000040
	WIN1H uint32 = 0x04000042
	WIN0V uint32 = 0x04000044
	WIN1V uint32 = 0x04000046
	WININ uint32 = 0x04000048
	WINOUT uint32 = 0x0400004A

	MOSAIC uint32 = 0x0400004C

	BLDCNT   uint32 = 0x04000050
	BLDALPHA uint32 = 0x04000052
	BLDY     uint32 = 0x04000054
)

// Keypad registers.
const (
	KEYINPUT uint32 = 0x04000130 // read-only button state, active low
	KEYCNT   uint32 = 0x04000132
)

// Serial/SIO and GPIO-shared registers (only the subset relevant to RTC/flash
// handshakes is used here; the rest of the link hardware is out of scope).
const (
	RCNT uint32 = 0x04000134
)

// Timer registers (0x0400_0100 - 0x0400_010F), four channels of
// {counter/reload, control}.
const (
	TM0CNT_L uint32 = 0x04000100
	TM0CNT_H uint32 = 0x04000102
	TM1CNT_L uint32 = 0x04000104
	TM1CNT_H uint32 = 0x04000106
	TM2CNT_L uint32 = 0x04000108
	TM2CNT_H uint32 = 0x0400010A
	TM3CNT_L uint32 = 0x0400010C
	TM3CNT_H uint32 = 0x0400010E
)

// DMA channel registers (0x0400_00B0 - 0x0400_00DF), four channels of
// {source, destination, count, control}.
const (
	DMA0SAD uint32 = 0x040000B0
	DMA0DAD uint32 = 0x040000B4
	DMA0CNT_L uint32 = 0x040000B8
	DMA0CNT_H uint32 = 0x040000BA

	DMA1SAD uint32 = 0x040000BC
	DMA1DAD uint32 = 0x040000C0
	DMA1CNT_L uint32 = 0x040000C4
	DMA1CNT_H uint32 = 0x040000C6

	DMA2SAD uint32 = 0x040000C8
	DMA2DAD uint32 = 0x040000CC
	DMA2CNT_L uint32 = 0x040000D0
	DMA2CNT_H uint32 = 0x040000D2

	DMA3SAD uint32 = 0x040000D4
	DMA3DAD uint32 = 0x040000D8
	DMA3CNT_L uint32 = 0x040000DC
	DMA3CNT_H uint32 = 0x040000DE
)

// Interrupt controller registers.
const (
	IE       uint32 = 0x04000200
	IF       uint32 = 0x04000202
	WAITCNT  uint32 = 0x04000204
	IME      uint32 = 0x04000208
)

// Misc system control registers.
const (
	POSTFLG uint32 = 0x04000300
	HALTCNT uint32 = 0x04000301
)

// GPIO pak registers, memory-mapped at the top of the ROM window. GPIODATA
// reads only reach the device once GPIOCNT bit 0 enables reading; GPIODIR
// and GPIOCNT are always readable, and writes to all three are always
// accepted.
const (
	GPIODATA uint32 = 0x080000C4
	GPIODIR  uint32 = 0x080000C6
	GPIOCNT  uint32 = 0x080000C8
)

// Interrupt is a bit-flag identifying one of the fourteen GBA interrupt
// sources, matching the bit layout of the IE/IF registers.
type Interrupt uint16

const (
	IRQVBlank  Interrupt = 1 << 0
	IRQHBlank  Interrupt = 1 << 1
	IRQVCount  Interrupt = 1 << 2
	IRQTimer0  Interrupt = 1 << 3
	IRQTimer1  Interrupt = 1 << 4
	IRQTimer2  Interrupt = 1 << 5
	IRQTimer3  Interrupt = 1 << 6
	IRQSerial  Interrupt = 1 << 7
	IRQDMA0    Interrupt = 1 << 8
	IRQDMA1    Interrupt = 1 << 9
	IRQDMA2    Interrupt = 1 << 10
	IRQDMA3    Interrupt = 1 << 11
	IRQKeypad  Interrupt = 1 << 12
	IRQGamePak Interrupt = 1 << 13
)
