// Package dma implements the GBA's four-channel DMA engine: arm-on-write
// semantics, immediate/VBlank/HBlank/special timing classes, and the
// NON_SEQUENTIAL-then-SEQUENTIAL transfer loop with FIFO and video-capture
// special cases.
package dma

import (
	"github.com/hades-go/goba/bus"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/scheduler"
)

// Timing is the DMA_CNT_H start-timing field.
type Timing uint8

const (
	TimingNow Timing = iota
	TimingVBlank
	TimingHBlank
	TimingSpecial
)

// AddrControl is the 2-bit source/destination address control field.
type AddrControl uint8

const (
	AddrIncrement AddrControl = iota
	AddrDecrement
	AddrFixed
	AddrIncrementReload // destination only
)

var srcMask = [4]uint32{0x07FFFFFF, 0x0FFFFFFF, 0x0FFFFFFF, 0x0FFFFFFF}
var dstMask = [4]uint32{0x07FFFFFF, 0x07FFFFFF, 0x07FFFFFF, 0x0FFFFFFF}
var countMask = [4]uint32{0x3FFF, 0x3FFF, 0x3FFF, 0xFFFF}

// ewramStart mirrors bus.EwramStart; below this address a DMA source read
// is treated as open bus and costs an idle cycle instead of a real access,
// matching the real hardware's inability to DMA out of the BIOS region.
const ewramStart = bus.EwramStart

type Control struct {
	DstControl AddrControl
	SrcControl AddrControl
	Repeat     bool
	Unit32     bool
	GamepakDRQ bool // channel 3 only
	Timing     Timing
	IRQOnEnd   bool
	Enable     bool
}

// Channel is one of the four DMA channels.
type Channel struct {
	index int

	SrcAddr  uint32
	DstAddr  uint32
	Count    uint16
	Control  Control

	internalSrc   uint32
	internalDst   uint32
	internalCount uint32

	isFIFO   bool
	isVideo  bool

	enableEventHandle scheduler.Handle
	hasEnableEvent    bool

	bus uint32 // last value latched on the internal DMA bus, for open-bus reads
}

// Controller owns all four DMA channels and the shared "pending" state used
// to interleave channel execution exactly like the scheduled hardware loop.
type Controller struct {
	Channels [4]Channel

	sched *scheduler.Scheduler
	bus   *bus.Bus
	io    *ioregs.Registers

	pending          uint8
	isRunning        bool
	reenterLoop      bool
	vcount           func() uint16
	raiseIRQ         func(channel int)
}

// New constructs a Controller. raiseIRQ is called with the channel index
// when a transfer completes with its end-of-transfer IRQ enabled; vcount
// reports the current scanline, used by video-capture (channel 3, Special
// timing) repeat reload gating.
func New(sched *scheduler.Scheduler, b *bus.Bus, io *ioregs.Registers, vcount func() uint16, raiseIRQ func(channel int)) *Controller {
	c := &Controller{sched: sched, bus: b, io: io, vcount: vcount, raiseIRQ: raiseIRQ}
	for i := range c.Channels {
		c.Channels[i].index = i
	}
	return c
}

// WriteControl applies a new DMA_CNT_H value for channel idx, implementing
// the 0->1 arm and 1->0 cancel transitions.
func (c *Controller) WriteControl(idx int, raw uint16) {
	ch := &c.Channels[idx]
	old := ch.Control.Enable
	ch.Control = decodeControl(raw, idx)
	newEnable := ch.Control.Enable

	if !old && newEnable {
		ch.isFIFO = idx >= 1 && idx <= 2 && ch.Control.Timing == TimingSpecial
		ch.isVideo = idx == 3 && ch.Control.Timing == TimingSpecial

		if ch.isFIFO {
			ch.internalCount = 4
		} else {
			ch.internalCount = uint32(ch.Count) & countMask[idx]
			if ch.internalCount == 0 {
				ch.internalCount = countMask[idx] + 1
			}
		}

		unitMask := uint32(1)
		if ch.Control.Unit32 {
			unitMask = 3
		}
		ch.internalSrc = ch.SrcAddr &^ unitMask & srcMask[idx]
		ch.internalDst = ch.DstAddr &^ unitMask & dstMask[idx]

		if ch.Control.Timing == TimingNow {
			c.scheduleFor(idx, TimingNow)
		}
	} else if old && !newEnable {
		if ch.hasEnableEvent {
			c.sched.Cancel(ch.enableEventHandle)
			ch.hasEnableEvent = false
		}
		c.pending &^= 1 << uint(idx)
		if c.isRunning {
			c.reenterLoop = true
		}
	}
}

// WriteRegister applies a 16-bit write landing on one of the DMA0SAD
// through DMA3CNT_H I/O offsets to the matching channel's SAD/DAD/CNT_L
// latch or, for CNT_H, through WriteControl's arm/cancel logic. offset is
// already masked to the I/O window (bus.Bus forwards addr&0x3FF).
func (c *Controller) WriteRegister(offset uint32, v uint16) {
	if offset < ioregs.DMA0SAD || offset > ioregs.DMA3CNT_H {
		return
	}
	rel := offset - ioregs.DMA0SAD
	idx := int(rel / 12)
	reg := rel % 12
	ch := &c.Channels[idx]

	switch {
	case reg == 0:
		ch.SrcAddr = ch.SrcAddr&0xFFFF0000 | uint32(v)
	case reg == 2:
		ch.SrcAddr = ch.SrcAddr&0x0000FFFF | uint32(v)<<16
	case reg == 4:
		ch.DstAddr = ch.DstAddr&0xFFFF0000 | uint32(v)
	case reg == 6:
		ch.DstAddr = ch.DstAddr&0x0000FFFF | uint32(v)<<16
	case reg == 8:
		ch.Count = v
	case reg == 10:
		c.WriteControl(idx, v)
	}
}

func decodeControl(raw uint16, idx int) Control {
	ctl := Control{
		DstControl: AddrControl((raw >> 5) & 0x3),
		SrcControl: AddrControl((raw >> 7) & 0x3),
		Repeat:     raw&(1<<9) != 0,
		Unit32:     raw&(1<<10) != 0,
		Timing:     Timing((raw >> 12) & 0x3),
		IRQOnEnd:   raw&(1<<14) != 0,
		Enable:     raw&(1<<15) != 0,
	}
	if idx == 3 {
		ctl.GamepakDRQ = raw&(1<<11) != 0
	}
	return ctl
}

// scheduleFor arms channel idx into the pending set two cycles from now if
// it is enabled and waiting for the given timing, mirroring the original
// event-based hand-off between "the write landed" and "the transfer runs".
func (c *Controller) scheduleFor(idx int, timing Timing) {
	ch := &c.Channels[idx]
	if !ch.Control.Enable || ch.Control.Timing != timing {
		return
	}
	ch.hasEnableEvent = true
	ch.enableEventHandle = c.sched.Add(scheduler.Event{
		At:       c.sched.Cycles() + 2,
		Callback: func(engine interface{}, args scheduler.Args) { c.addToPending(int(args[0])) },
		Args:     scheduler.Args{uint32(idx)},
	})
}

func (c *Controller) addToPending(idx int) {
	c.Channels[idx].hasEnableEvent = false
	c.pending |= 1 << uint(idx)
	if c.isRunning {
		c.reenterLoop = true
	}
}

// ScheduleAll arms every enabled channel waiting for timing; called by the
// PPU at VBlank/HBlank start and by the FIFO/video trigger paths.
func (c *Controller) ScheduleAll(timing Timing) {
	for i := range c.Channels {
		c.scheduleFor(i, timing)
	}
}

// ScheduleFor arms a single channel waiting for timing without touching
// the other three; used by the PPU's video-capture trigger (channel 3,
// Special timing) and by the APU's FIFO refill requests (channels 1 and 2,
// Special timing).
func (c *Controller) ScheduleFor(idx int, timing Timing) {
	c.scheduleFor(idx, timing)
}

// RunPending executes every pending DMA channel to completion, in channel
// priority order (0 highest), re-evaluating the pending set after each
// transfer in case a write during the transfer cancels or arms another
// channel.
func (c *Controller) RunPending() {
	if c.pending == 0 {
		return
	}

	c.isRunning = true
	c.bus.SetDMARunning(true)
	c.bus.Idle(1)

	for c.pending != 0 {
		c.reenterLoop = false
		for i := range c.Channels {
			if c.pending&(1<<uint(i)) == 0 {
				continue
			}
			c.runChannel(&c.Channels[i])
			break
		}
	}

	c.bus.Idle(1)
	c.bus.SetDMARunning(false)
	c.isRunning = false
}

func (c *Controller) runChannel(ch *Channel) {
	unitSize := uint32(2)
	if ch.Control.Unit32 {
		unitSize = 4
	}

	var srcStep, dstStep int32
	if ch.isFIFO {
		dstStep = 0
	} else {
		switch ch.Control.DstControl {
		case AddrIncrement, AddrIncrementReload:
			dstStep = int32(unitSize)
		case AddrDecrement:
			dstStep = -int32(unitSize)
		case AddrFixed:
			dstStep = 0
		}
	}
	switch ch.Control.SrcControl {
	case AddrIncrement:
		srcStep = int32(unitSize)
	case AddrDecrement:
		srcStep = -int32(unitSize)
	default:
		srcStep = 0
	}

	access := bus.NonSequential
	for ch.internalCount > 0 && !c.reenterLoop {
		if unitSize == 4 {
			if ch.internalSrc >= ewramStart {
				v, _ := c.bus.Read32(ch.internalSrc, access)
				ch.bus = v
			} else {
				c.bus.Idle(1)
			}
			c.bus.Write32(ch.internalDst, ch.bus, access)
		} else {
			if ch.internalSrc >= ewramStart {
				v, _ := c.bus.Read16(ch.internalSrc, access)
				ch.bus = (ch.bus << 16) | uint32(v)
			} else {
				c.bus.Idle(1)
			}
			c.bus.Write16(ch.internalDst, uint16(ch.bus), access)
		}

		ch.internalSrc = uint32(int32(ch.internalSrc) + srcStep)
		ch.internalDst = uint32(int32(ch.internalDst) + dstStep)
		ch.internalCount--
		access = bus.Sequential
	}

	if c.reenterLoop {
		return
	}

	c.pending &^= 1 << uint(ch.index)
	if ch.Control.IRQOnEnd && c.raiseIRQ != nil {
		c.raiseIRQ(ch.index)
	}

	if !ch.Control.Repeat {
		ch.Control.Enable = false
		return
	}

	switch {
	case ch.isFIFO:
		ch.internalCount = 4
	case ch.isVideo:
		if c.vcount == nil || c.vcount() < 228 {
			ch.internalCount = uint32(ch.Count) & countMask[ch.index]
			if ch.Control.DstControl == AddrIncrementReload {
				ch.internalDst = ch.DstAddr &^ unitMaskFor(ch.Control.Unit32) & dstMask[ch.index]
			}
		} else {
			ch.Control.Enable = false
		}
	default:
		ch.internalCount = uint32(ch.Count) & countMask[ch.index]
		if ch.internalCount == 0 {
			ch.internalCount = countMask[ch.index] + 1
		}
		if ch.Control.DstControl == AddrIncrementReload {
			ch.internalDst = ch.DstAddr &^ unitMaskFor(ch.Control.Unit32) & dstMask[ch.index]
		}
	}
}

func unitMaskFor(unit32 bool) uint32 {
	if unit32 {
		return 3
	}
	return 1
}

// InternalCount exposes the channel's live transfer counter, chiefly for
// tests; the hardware has no register that lets software observe it.
func (ch *Channel) InternalCount() uint32 { return ch.internalCount }

// IsFIFO reports whether channel idx is currently configured to feed the
// given FIFO address in Special-timing mode, used by the APU to decide
// whether a timer overflow should request a DMA refill.
func (c *Controller) IsFIFO(idx int, fifoAddr uint32) bool {
	ch := &c.Channels[idx]
	return ch.Control.Enable && ch.Control.Timing == TimingSpecial && ch.DstAddr == fifoAddr
}
