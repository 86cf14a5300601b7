package bus

import (
	"encoding/binary"

	"github.com/hades-go/goba/bus/gpio"
	"github.com/hades-go/goba/errors"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/logger"
)

// romRegion maps an address in [Rom0Start, SramStart) to the ROM wait-state
// region index (0, 1 or 2) it belongs to; all three regions mirror the same
// underlying ROM bytes, differing only in wait-state configuration.
func romRegion(addr uint32) int {
	switch {
	case addr < Rom1Start:
		return 0
	case addr < Rom2Start:
		return 1
	default:
		return 2
	}
}

func (b *Bus) romOffset(addr uint32) uint32 {
	return addr & 0x01FF_FFFF
}

// Read8 reads one byte at addr, returning the value and the access's cycle
// cost given access.
func (b *Bus) Read8(addr uint32, access AccessType) (uint8, uint32) {
	switch {
	case addr <= BiosEnd:
		return b.bios[addr&(BiosSize-1)], 1
	case addr >= EwramStart && addr <= EwramEnd:
		return b.ewram[addr&(EwramSize-1)], 3
	case addr >= IwramStart && addr <= IwramEnd:
		return b.iwram[addr&(IwramSize-1)], 1
	case addr >= IoStart && addr <= IoEnd:
		return b.io.Read8(addr & 0x3FF), 1
	case addr >= PalStart && addr <= PalEnd:
		return b.pal[addr&(PalSize-1)], 1
	case addr >= VramStart && addr <= VramEnd:
		return b.vram[vramOffset(addr)], 1
	case addr >= OamStart && addr <= OamEnd:
		return b.oam[addr&(OamSize-1)], 1
	case addr >= Rom0Start && addr < SramStart:
		hw, cycles := b.Read16(addr&^1, access)
		if addr&1 != 0 {
			return uint8(hw >> 8), cycles
		}
		return uint8(hw), cycles
	case addr >= SramStart:
		return b.readBackup8(addr)
	default:
		logger.Logf("bus", errors.UnmappedRead, addr)
		return uint8(b.openBus16()), 1
	}
}

// Read16 reads one half-word at addr.
func (b *Bus) Read16(addr uint32, access AccessType) (uint16, uint32) {
	addr &^= 1
	switch {
	case addr <= BiosEnd:
		return binary.LittleEndian.Uint16(b.bios[addr&(BiosSize-1):]), 1
	case addr >= EwramStart && addr <= EwramEnd:
		off := addr & (EwramSize - 1)
		return binary.LittleEndian.Uint16(b.ewram[off:]), 3
	case addr >= IwramStart && addr <= IwramEnd:
		off := addr & (IwramSize - 1)
		return binary.LittleEndian.Uint16(b.iwram[off:]), 1
	case addr >= IoStart && addr <= IoEnd:
		return b.io.Read16(addr & 0x3FF), 1
	case addr >= PalStart && addr <= PalEnd:
		off := addr & (PalSize - 1)
		return binary.LittleEndian.Uint16(b.pal[off:]), 1
	case addr >= VramStart && addr <= VramEnd:
		off := vramOffset(addr)
		return binary.LittleEndian.Uint16(b.vram[off:]), 1
	case addr >= OamStart && addr <= OamEnd:
		off := addr & (OamSize - 1)
		return binary.LittleEndian.Uint16(b.oam[off:]), 1
	case addr >= Rom0Start && addr < SramStart:
		if b.gpio.Enabled() && gpio.Intercepts(b.romOffset(addr)) {
			return b.gpio.Read16(b.romOffset(addr)), 1
		}

		v := b.readROM16(addr)
		b.lastFetch = uint32(v)

		if b.prefetch.Hit(addr) {
			return v, 1
		}

		n, s := b.romWaitStates(addr, 16)
		cycles := n
		if access == Sequential {
			cycles = s
		}
		b.prefetch.Flush(addr + 2)
		return v, cycles
	case addr >= SramStart:
		lo, _ := b.readBackup8(addr)
		return uint16(lo) | uint16(lo)<<8, 1
	default:
		logger.Logf("bus", errors.UnmappedRead, addr)
		return b.openBus16(), 1
	}
}

// Read32 reads one word at addr, handling unaligned addresses by rotating
// the result the way the real bus does.
func (b *Bus) Read32(addr uint32, access AccessType) (uint32, uint32) {
	aligned := addr &^ 3
	lo, c1 := b.Read16(aligned, access)
	hi, c2 := b.Read16(aligned+2, Sequential)

	v := uint32(lo) | uint32(hi)<<16
	rot := (addr & 3) * 8
	if rot != 0 {
		v = (v >> rot) | (v << (32 - rot))
	}
	return v, c1 + c2
}

// Write8 writes one byte at addr. Byte writes to OBJ tile data in VRAM and
// to OAM are ignored; byte writes to palette RAM and to the background
// part of VRAM are expanded to the containing half-word; byte writes to
// the backup window store the single byte.
func (b *Bus) Write8(addr uint32, v uint8, access AccessType) uint32 {
	switch {
	case addr >= PalStart && addr <= PalEnd:
		hw := uint16(v) | uint16(v)<<8
		return b.writeHalfAt(addr, hw, access, writePal)
	case addr >= VramStart && addr <= VramEnd:
		// The background part of VRAM ends at 0x10000 in tile modes (0-2)
		// and at 0x14000 in bitmap modes (3-5); OBJ tiles lie above it.
		bgEnd := uint32(0x10000)
		if b.io.BGMode() >= 3 {
			bgEnd = 0x14000
		}
		if vramOffset(addr) >= bgEnd {
			return 1 // ignored
		}
		hw := uint16(v) | uint16(v)<<8
		return b.writeHalfAt(addr, hw, access, writeVram)
	case addr >= OamStart && addr <= OamEnd:
		return 1 // ignored
	case addr >= SramStart:
		b.writeBackup8(addr, v)
		return 1
	case addr >= IoStart && addr <= IoEnd:
		b.io.Write8(addr&0x3FF, v)
		return 1
	case addr >= EwramStart && addr <= EwramEnd:
		b.ewram[addr&(EwramSize-1)] = v
		return 3
	case addr >= IwramStart && addr <= IwramEnd:
		b.iwram[addr&(IwramSize-1)] = v
		return 1
	default:
		logger.Logf("bus", errors.UnmappedWrite, addr)
		return 1
	}
}

type halfWriter func(b *Bus, off uint32, v uint16)

func writePal(b *Bus, off uint32, v uint16) { binary.LittleEndian.PutUint16(b.pal[off&(PalSize-1):], v) }
func writeVram(b *Bus, off uint32, v uint16) {
	binary.LittleEndian.PutUint16(b.vram[vramOffset(off):], v)
}

func (b *Bus) writeHalfAt(addr uint32, v uint16, access AccessType, w halfWriter) uint32 {
	w(b, addr&^1, v)
	return 1
}

// Write16 writes one half-word at addr; half-word writes to VRAM/palette/
// OAM are mirrored verbatim (no splitting needed, they are already
// half-word granular).
func (b *Bus) Write16(addr uint32, v uint16, access AccessType) uint32 {
	addr &^= 1
	switch {
	case addr >= EwramStart && addr <= EwramEnd:
		binary.LittleEndian.PutUint16(b.ewram[addr&(EwramSize-1):], v)
		return 3
	case addr >= IwramStart && addr <= IwramEnd:
		binary.LittleEndian.PutUint16(b.iwram[addr&(IwramSize-1):], v)
		return 1
	case addr >= IoStart && addr <= IoEnd:
		b.io.Write16(addr&0x3FF, v)
		if addr&0x3FF == ioregs.WAITCNT {
			b.prefetch.Flush(b.prefetch.base)
		}
		if addr >= soundRegionStart && addr <= soundRegionEnd && b.onSoundWrite != nil {
			b.onSoundWrite(addr&0x3FF, v)
		}
		if addr >= dmaRegionStart && addr <= dmaRegionEnd && b.onDMAWrite != nil {
			b.onDMAWrite(addr&0x3FF, v)
		}
		if addr >= timerRegionStart && addr <= timerRegionEnd && b.onTimerWrite != nil {
			b.onTimerWrite(addr&0x3FF, v)
		}
		return 1
	case addr >= PalStart && addr <= PalEnd:
		binary.LittleEndian.PutUint16(b.pal[addr&(PalSize-1):], v)
		return 1
	case addr >= VramStart && addr <= VramEnd:
		binary.LittleEndian.PutUint16(b.vram[vramOffset(addr):], v)
		return 1
	case addr >= OamStart && addr <= OamEnd:
		binary.LittleEndian.PutUint16(b.oam[addr&(OamSize-1):], v)
		return 1
	case addr >= Rom0Start && addr < SramStart:
		if b.gpio.Enabled() && gpio.Intercepts(b.romOffset(addr)) {
			b.gpio.Write16(b.romOffset(addr), v)
			return 1
		}
		logger.Logf("bus", errors.UnmappedWrite, addr)
		return 1
	case addr >= SramStart:
		b.writeBackup8(addr, uint8(v))
		return 1
	default:
		logger.Logf("bus", errors.UnmappedWrite, addr)
		return 1
	}
}

// Write32 writes one word at addr as two half-word writes. A write aligned
// to FifoAAddr/FifoBAddr is additionally forwarded whole to onFIFOWrite;
// the FIFO registers hold no stored state in the I/O window, so the two
// half-word writes above just land on ordinary (unused) storage.
func (b *Bus) Write32(addr uint32, v uint32, access AccessType) uint32 {
	aligned := addr &^ 3
	c1 := b.Write16(aligned, uint16(v), access)
	c2 := b.Write16(aligned+2, uint16(v>>16), Sequential)
	if (aligned == FifoAAddr || aligned == FifoBAddr) && b.onFIFOWrite != nil {
		b.onFIFOWrite(aligned, v)
	}
	return c1 + c2
}

// vramOffset maps a VRAM address into the 96KiB region, mirroring the
// 32KiB gap between the two 64KiB halves the way real VRAM does (the top
// 32KiB of the upper bank repeats the top 32KiB of OBJ tile data).
func vramOffset(addr uint32) uint32 {
	off := addr & 0x1FFFF
	if off >= VramSize {
		off -= 0x8000
	}
	return off
}

func (b *Bus) readROM16(addr uint32) uint16 {
	off := b.romOffset(addr)
	if int(off)+1 >= len(b.rom) {
		if int(off) >= len(b.rom) {
			return uint16(b.openBus16())
		}
		return uint16(b.rom[off])
	}
	return binary.LittleEndian.Uint16(b.rom[off:])
}

func (b *Bus) openBus16() uint16 {
	return uint16(b.lastFetch)
}

func (b *Bus) readBackup8(addr uint32) (uint8, uint32) {
	if b.backup == nil {
		return 0xFF, 1
	}
	return b.backup.Read8(addr), 1
}

func (b *Bus) writeBackup8(addr uint32, v uint8) {
	if b.backup == nil {
		return
	}
	b.backup.Write8(addr, v)
}
