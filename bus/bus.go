// Package bus implements the memory bus: address decode across BIOS,
// on-chip/on-board WRAM, palette RAM, VRAM, OAM, cartridge ROM and backup
// storage, together with the wait-state table, the ROM prefetch buffer and
// open-bus semantics. It is the one place in the engine that turns a
// 32-bit address into a byte, half-word or word value and a cycle cost.
package bus

import (
	"github.com/hades-go/goba/bus/backup"
	"github.com/hades-go/goba/bus/gpio"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/scheduler"
)

// AccessType distinguishes a sequential bus access (the address follows
// directly from the previous one, charged the cheaper "S" wait-state) from
// a non-sequential one (a jump or the first access of a burst, charged the
// "N" wait-state).
type AccessType int

const (
	NonSequential AccessType = iota
	Sequential
)

// Region boundaries, as fixed addresses within the 32-bit address space.
const (
	BiosStart  = 0x0000_0000
	BiosEnd    = 0x0000_3FFF
	EwramStart = 0x0200_0000
	EwramEnd   = 0x0203_FFFF
	IwramStart = 0x0300_0000
	IwramEnd   = 0x0300_7FFF
	IoStart    = 0x0400_0000
	IoEnd      = 0x0400_03FF
	PalStart   = 0x0500_0000
	PalEnd     = 0x0500_03FF
	VramStart  = 0x0600_0000
	VramEnd    = 0x0601_7FFF
	OamStart   = 0x0700_0000
	OamEnd     = 0x0700_03FF
	Rom0Start  = 0x0800_0000
	Rom1Start  = 0x0A00_0000
	Rom2Start  = 0x0C00_0000
	RomEnd     = 0x0DFF_FFFF
	SramStart  = 0x0E00_0000
	SramEnd    = 0x0FFF_FFFF

	BiosSize  = 16 * 1024
	EwramSize = 256 * 1024
	IwramSize = 32 * 1024
	PalSize   = 1 * 1024
	VramSize  = 96 * 1024
	OamSize   = 1 * 1024
	RomMax    = 32 * 1024 * 1024

	// FifoAAddr and FifoBAddr are the two DMA-fed sound FIFO registers; a
	// 32-bit write here is also forwarded whole to onFIFOWrite. The copy
	// Write32 leaves in the I/O window is never read back: as on the real
	// hardware, the FIFO is a write-only 32-byte queue inside the APU.
	FifoAAddr = IoStart + ioregs.FIFO_A
	FifoBAddr = IoStart + ioregs.FIFO_B

	// soundRegionStart/End bound the sound-control registers (SOUND1CNT_L
	// through SOUNDBIAS); a 16-bit write anywhere in this range is also
	// forwarded to onSoundWrite so the APU can see the write that landed,
	// not just its resulting stored value (needed to detect the write-only
	// "restart channel" trigger bits).
	soundRegionStart = IoStart + ioregs.SOUND1CNT_L
	soundRegionEnd   = IoStart + ioregs.SOUNDBIAS

	// dmaRegionStart/End and timerRegionStart/End bound the DMA and timer
	// control register blocks; a 16-bit write anywhere in these ranges is
	// forwarded to onDMAWrite/onTimerWrite in addition to being stored, so
	// the dma/timer packages -- which the bus cannot import without a
	// cycle -- can arm/cancel their scheduler events on the write that
	// configures them.
	dmaRegionStart   = IoStart + ioregs.DMA0SAD
	dmaRegionEnd     = IoStart + ioregs.DMA3CNT_H
	timerRegionStart = IoStart + ioregs.TM0CNT_L
	timerRegionEnd   = IoStart + ioregs.TM3CNT_H
)

// Bus owns every flat memory region and dispatches accesses to them.
type Bus struct {
	sched *scheduler.Scheduler
	io    *ioregs.Registers

	bios  [BiosSize]byte
	ewram [EwramSize]byte
	iwram [IwramSize]byte
	pal   [PalSize]byte
	vram  [VramSize]byte
	oam   [OamSize]byte
	rom   []byte

	backup backup.Storage

	biosLatch uint32
	lastFetch uint32

	prefetch Prefetch

	gamepakBusInUse bool
	dmaRunning      bool

	gpio gpio.Port

	onFIFOWrite  func(addr uint32, v uint32)
	onSoundWrite func(offset uint32, v uint16)
	onDMAWrite   func(offset uint32, v uint16)
	onTimerWrite func(offset uint32, v uint16)
}

// New creates a Bus wired to the given scheduler and I/O register file. ROM
// and BIOS images are installed by Reset.
func New(sched *scheduler.Scheduler, io *ioregs.Registers) *Bus {
	return &Bus{sched: sched, io: io}
}

// SetFIFOWriteHook installs the callback fired whenever a 32-bit write
// lands on FifoAAddr or FifoBAddr, so the APU can push the four bytes into
// the matching DMA-fed FIFO without the bus importing the apu package.
func (b *Bus) SetFIFOWriteHook(fn func(addr uint32, v uint32)) { b.onFIFOWrite = fn }

// SetSoundWriteHook installs the callback fired after every 16-bit write
// inside the sound-control register range, for the same
// injected-capability reason as SetFIFOWriteHook.
func (b *Bus) SetSoundWriteHook(fn func(offset uint32, v uint16)) { b.onSoundWrite = fn }

// SetDMAWriteHook installs the callback fired after every 16-bit write
// inside the DMA control register block (DMA0SAD through DMA3CNT_H), so
// dma.Controller can see the write that armed, retimed or cancelled a
// channel without the bus importing the dma package.
func (b *Bus) SetDMAWriteHook(fn func(offset uint32, v uint16)) { b.onDMAWrite = fn }

// SetTimerWriteHook installs the callback fired after every 16-bit write
// inside the timer control register block (TM0CNT_L through TM3CNT_H), for
// the same injected-capability reason as SetDMAWriteHook.
func (b *Bus) SetTimerWriteHook(fn func(offset uint32, v uint16)) { b.onTimerWrite = fn }

// Reset installs a new ROM/BIOS image and backup storage variant, clearing
// every RAM region and the prefetch buffer, as happens on a RESET message.
// rtc enables the cartridge's real-time-clock GPIO device, matching a
// ResetConfig.RTC of true; most cartridges carry no RTC hardware at all,
// in which case the GPIO port stays disabled and reads/writes to its
// register window fall through to ordinary ROM behaviour.
func (b *Bus) Reset(rom, bios []byte, backupType backup.Type, backupData []byte, rtc bool) {
	for i := range b.ewram {
		b.ewram[i] = 0
	}
	for i := range b.iwram {
		b.iwram[i] = 0
	}
	for i := range b.pal {
		b.pal[i] = 0
	}
	for i := range b.vram {
		b.vram[i] = 0
	}
	for i := range b.oam {
		b.oam[i] = 0
	}

	for i := range b.bios {
		b.bios[i] = 0
	}
	copy(b.bios[:], bios)

	if len(rom) > RomMax {
		rom = rom[:RomMax]
	}
	b.rom = rom

	b.backup = backup.New(backupType, backupData)
	b.biosLatch = 0
	b.lastFetch = 0
	b.prefetch.Reset()
	b.gamepakBusInUse = false
	b.dmaRunning = false
	b.gpio = gpio.Port{}
	b.gpio.Reset(rtc)
}

// SetDMARunning records whether a DMA transfer is currently draining the
// bus, disabling the prefetch buffer for its duration.
func (b *Bus) SetDMARunning(running bool) { b.dmaRunning = running }

// SetGamepakBusInUse records whether the CPU is using the gamepak bus for a
// data access, which also disables prefetching.
func (b *Bus) SetGamepakBusInUse(inUse bool) { b.gamepakBusInUse = inUse }

// Idle advances the bus's passive state by n cycles: it steps the prefetch
// buffer forward when eligible. The scheduler's own cycle counter is
// advanced by the caller (the CPU's idle loop), not here.
func (b *Bus) Idle(n uint32) {
	if b.io.PrefetchEnabled() && !b.gamepakBusInUse && !b.dmaRunning {
		b.prefetch.Step(b, n)
	}
}
