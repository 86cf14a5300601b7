// Package ioregs implements the memory-mapped I/O register window at
// 0x04000000-0x040003FF: a single source of truth for cross-component state
// (DISPCNT, DISPSTAT, the DMA/timer control words, IE/IF/IME, ...) shared by
// the bus, the PPU, the APU, the DMA engine and the timers.
//
// Every register is stored as its raw little-endian integer representation
// in a flat 1KiB byte array; named accessor pairs recover the packed-struct
// view documented by the hardware manual. This mirrors the "packed
// bitfields" and "union types" design notes: never rely on a host
// bitfield layout, always go through an explicit (raw uN, mask) pair.
package ioregs

import "encoding/binary"

// Size is the width, in bytes, of the I/O register window.
const Size = 0x400

// Offsets of every register named in the reference hardware manual that
// this engine reads or writes directly. Registers not listed here are
// still addressable through the raw Read/Write methods below. Some listed
// registers exist in real hardware but this engine never interprets their
// bits itself (e.g. SIOCNT, RCNT -- link-cable registers, out of scope per
// spec.md Non-goals).
const (
	DISPCNT   = 0x000
	GREENSWP  = 0x002
	DISPSTAT  = 0x004
	VCOUNT    = 0x006
	BG0CNT    = 0x008
	BG1CNT    = 0x00A
	BG2CNT    = 0x00C
	BG3CNT    = 0x00E
	BG0HOFS   = 0x010
	BG0VOFS   = 0x012
	BG1HOFS   = 0x014
	BG1VOFS   = 0x016
	BG2HOFS   = 0x018
	BG2VOFS   = 0x01A
	BG3HOFS   = 0x01C
	BG3VOFS   = 0x01E
	BG2PA     = 0x020
	BG2PB     = 0x022
	BG2PC     = 0x024
	BG2PD     = 0x026
	BG2X      = 0x028
	BG2Y      = 0x02C
	BG3PA     = 0x030
	BG3PB     = 0x032
	BG3PC     = 0x034
	BG3PD     = 0x036
	BG3X      = 0x038
	BG3Y      = 0x03C
	WIN0H     = 0x040
	WIN1H     = 0x042
	WIN0V     = 0x044
	WIN1V     = 0x046
	WININ     = 0x048
	WINOUT    = 0x04A
	MOSAIC    = 0x04C
	BLDCNT    = 0x050
	BLDALPHA  = 0x052
	BLDY      = 0x054
	SOUND1CNT_L = 0x060
	SOUND1CNT_H = 0x062
	SOUND1CNT_X = 0x064
	SOUND2CNT_L = 0x068
	SOUND2CNT_H = 0x06C
	SOUND3CNT_L = 0x070
	SOUND3CNT_H = 0x072
	SOUND3CNT_X = 0x074
	SOUND4CNT_L = 0x078
	SOUND4CNT_H = 0x07C
	SOUNDCNT_L  = 0x080
	SOUNDCNT_H  = 0x082
	SOUNDCNT_X  = 0x084
	SOUNDBIAS   = 0x088
	WAVE_RAM0   = 0x090
	FIFO_A      = 0x0A0
	FIFO_B      = 0x0A4
	DMA0SAD   = 0x0B0
	DMA0DAD   = 0x0B4
	DMA0CNT_L = 0x0B8
	DMA0CNT_H = 0x0BA
	DMA1SAD   = 0x0BC
	DMA1DAD   = 0x0C0
	DMA1CNT_L = 0x0C4
	DMA1CNT_H = 0x0C6
	DMA2SAD   = 0x0C8
	DMA2DAD   = 0x0CC
	DMA2CNT_L = 0x0D0
	DMA2CNT_H = 0x0D2
	DMA3SAD   = 0x0D4
	DMA3DAD   = 0x0D8
	DMA3CNT_L = 0x0DC
	DMA3CNT_H = 0x0DE
	TM0CNT_L  = 0x100
	TM0CNT_H  = 0x102
	TM1CNT_L  = 0x104
	TM1CNT_H  = 0x106
	TM2CNT_L  = 0x108
	TM2CNT_H  = 0x10A
	TM3CNT_L  = 0x10C
	TM3CNT_H  = 0x10E
	SIOCNT    = 0x128
	RCNT      = 0x134
	KEYINPUT  = 0x130
	KEYCNT    = 0x132
	IE        = 0x200
	IF        = 0x202
	WAITCNT   = 0x204
	IME       = 0x208
	POSTFLG   = 0x300
	HALTCNT   = 0x301
)

// Registers is the flat 1KiB memory-mapped I/O window.
type Registers struct {
	raw [Size]byte
}

// New returns a Registers block in its post-BIOS-reset state: KEYINPUT
// reads all-1s (no key pressed, active-low) and every other register is
// zero, matching real hardware after the BIOS has run.
func New() *Registers {
	r := &Registers{}
	r.Reset()
	return r
}

// Reset restores the power-on-reset values of every register.
func (r *Registers) Reset() {
	for i := range r.raw {
		r.raw[i] = 0
	}
	r.Write16(KEYINPUT, 0x3FF)
}

// Read8 returns the byte at offset off within the I/O window.
func (r *Registers) Read8(off uint32) uint8 {
	return r.raw[off&(Size-1)]
}

// Write8 stores v at offset off within the I/O window.
func (r *Registers) Write8(off uint32, v uint8) {
	r.raw[off&(Size-1)] = v
}

// Read16 returns the little-endian half-word at offset off.
func (r *Registers) Read16(off uint32) uint16 {
	off &= Size - 2
	return binary.LittleEndian.Uint16(r.raw[off : off+2])
}

// Write16 stores the little-endian half-word v at offset off.
func (r *Registers) Write16(off uint32, v uint16) {
	off &= Size - 2
	binary.LittleEndian.PutUint16(r.raw[off:off+2], v)
}

// Read32 returns the little-endian word at offset off.
func (r *Registers) Read32(off uint32) uint32 {
	off &= Size - 4
	return binary.LittleEndian.Uint32(r.raw[off : off+4])
}

// Write32 stores the little-endian word v at offset off.
func (r *Registers) Write32(off uint32, v uint32) {
	off &= Size - 4
	binary.LittleEndian.PutUint32(r.raw[off:off+4], v)
}

func getBits(raw uint32, lo, hi uint) uint32 {
	mask := uint32((1 << (hi - lo)) - 1)
	return (raw >> lo) & mask
}

func setBits(raw uint32, lo, hi uint, v uint32) uint32 {
	mask := uint32((1 << (hi - lo)) - 1)
	raw &^= mask << lo
	raw |= (v & mask) << lo
	return raw
}
