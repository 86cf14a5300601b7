// Package apu implements the GBA's audio processing unit: four
// Game-Boy-inherited PSG channels (two pulse, one programmable wave, one
// noise), two DMA-fed 8-bit digital FIFOs, a 512Hz frame sequencer driving
// each channel's length/envelope/sweep units, and a resampler mixing
// everything down to a host-rate stereo stream in a RingBuffer.
//
// There is no APU source anywhere in this engine's original reference
// material; this package is grounded directly on spec.md's own component
// description (four legacy channels, two DMA-fed FIFOs, a sequencer, a
// resampler) and on the well-documented Game Boy PSG these channels are
// inherited from, following the same scheduler-driven event style as
// timer.Bank and ppu.PPU rather than being polled once per instruction.
package apu

import (
	"github.com/go-audio/audio"

	"github.com/hades-go/goba/bus"
	"github.com/hades-go/goba/dma"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/scheduler"
)

// cyclesPerSecond is the GBA system clock (2^24 Hz) every scheduled event
// in this engine, including this package's own, is timed against.
const cyclesPerSecond = 1 << 24

// sequencerRate is the frame sequencer's fixed clock, inherited unchanged
// from the Game Boy sound hardware.
const sequencerRate = 512

// toneClockDivider and waveClockDivider and noiseClockDivider scale the
// Game Boy PSG's own cycle-based frequency timer formulas (defined at the
// GB's ~4.19MHz clock) up to this engine's 4x-faster GBA clock, so the
// same (2048-freq) register arithmetic produces the same audible pitch.
const (
	toneClockDivider  = 16
	waveClockDivider  = 8
	noiseClockDivider = 4
)

// defaultSampleRate is used when a RESET message's AudioFrequency is zero.
const defaultSampleRate = 32768

// APU owns the four PSG channels, the two DMA FIFOs and the scheduler
// events that clock and resample them.
type APU struct {
	sched *scheduler.Scheduler
	io    *ioregs.Registers
	dma   *dma.Controller

	ch1 pulseChannel
	ch2 pulseChannel
	ch3 waveChannel
	ch4 noiseChannel

	fifoA dmaFIFO
	fifoB dmaFIFO

	ring *RingBuffer

	seqHandle      scheduler.Handle
	seqStep        int
	resampleHandle scheduler.Handle
	resamplePeriod uint64
	hasEvents      bool
}

// New constructs an APU wired to the shared scheduler, I/O registers and
// DMA controller. Call Reset before use.
func New(sched *scheduler.Scheduler, io *ioregs.Registers, dmac *dma.Controller) *APU {
	a := &APU{sched: sched, io: io, dma: dmac, ring: NewRingBuffer(defaultSampleRate)}
	a.ch1.hasSweep = true
	a.ch3.io = io
	return a
}

// Reset clears every channel and FIFO and (re-)arms the sequencer and
// resampler scheduler events, as happens on a RESET message (the
// scheduler's own Reset discards every previously armed event, this one
// included).
func (a *APU) Reset(sampleRate uint32) {
	a.ch1.reset()
	a.ch2.reset()
	a.ch3.reset()
	a.ch4.reset()
	a.fifoA.reset()
	a.fifoB.reset()

	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}
	a.ring = NewRingBuffer(int(sampleRate))

	a.seqStep = 0
	a.resamplePeriod = cyclesPerSecond / uint64(sampleRate)

	a.seqHandle = a.sched.Add(scheduler.Event{
		Repeat:   true,
		At:       cyclesPerSecond / sequencerRate,
		Period:   cyclesPerSecond / sequencerRate,
		Callback: func(engine interface{}, args scheduler.Args) { a.clockSequencer() },
	})
	a.resampleHandle = a.sched.Add(scheduler.Event{
		Repeat:   true,
		At:       a.resamplePeriod,
		Period:   a.resamplePeriod,
		Callback: func(engine interface{}, args scheduler.Args) { a.resample() },
	})
	a.hasEvents = true
}

// clockSequencer advances the 8-step, 512Hz frame sequencer: steps 0/2/4/6
// clock every channel's length counter, steps 2/6 additionally clock
// channel 1's sweep, and step 7 clocks every channel's envelope -- the
// standard Game Boy frame sequencer schedule.
func (a *APU) clockSequencer() {
	switch a.seqStep {
	case 0, 4:
		a.clockLength()
	case 2, 6:
		a.clockLength()
		a.ch1.clockSweep()
	case 7:
		a.ch1.clockEnvelope()
		a.ch2.clockEnvelope()
		a.ch4.clockEnvelope()
	}
	a.seqStep = (a.seqStep + 1) % 8
}

func (a *APU) clockLength() {
	a.ch1.clockLength()
	a.ch2.clockLength()
	a.ch3.clockLength()
	a.ch4.clockLength()
}

// resample produces exactly one stereo output frame, mixing the four PSG
// channels (scaled by SOUNDCNT_L's per-channel enable bits and master
// volume, then SOUNDCNT_H's PSG ratio) with the two FIFOs (added directly,
// per real hardware bypassing the PSG master volume).
func (a *APU) resample() {
	if a.io.Read16(ioregs.SOUNDCNT_X)&(1<<7) == 0 {
		a.ring.push(0, 0)
		return
	}

	c1 := int(a.ch1.sample(a.resamplePeriod)) - 8
	c2 := int(a.ch2.sample(a.resamplePeriod)) - 8
	c3 := int(a.ch3.sample(a.resamplePeriod)) - 8
	c4 := int(a.ch4.sample(a.resamplePeriod)) - 8

	cntL := a.io.Read16(ioregs.SOUNDCNT_L)
	rightVol := int(cntL&0x7) + 1
	leftVol := int((cntL>>4)&0x7) + 1

	var left, right int
	mix := func(sample int, rightBit, leftBit uint) {
		if cntL&(1<<rightBit) != 0 {
			right += sample * rightVol
		}
		if cntL&(1<<leftBit) != 0 {
			left += sample * leftVol
		}
	}
	mix(c1, 8, 12)
	mix(c2, 9, 13)
	mix(c3, 10, 14)
	mix(c4, 11, 15)

	cntH := a.io.Read16(ioregs.SOUNDCNT_H)
	switch cntH & 0x3 {
	case 0:
		left, right = left/4, right/4
	case 1:
		left, right = left/2, right/2
	}

	if a.fifoA.enableRight {
		right += a.fifoA.sample()
	}
	if a.fifoA.enableLeft {
		left += a.fifoA.sample()
	}
	if a.fifoB.enableRight {
		right += a.fifoB.sample()
	}
	if a.fifoB.enableLeft {
		left += a.fifoB.sample()
	}

	const scale = 64
	a.ring.push(clampInt16(left*scale), clampInt16(right*scale))
}

func clampInt16(v int) int {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return v
	}
}

// WriteRegister is wired as the bus's sound-register write hook, called
// after every 16-bit write landing between SOUND1CNT_L and SOUNDBIAS; it
// is this package's only way to observe the write-only trigger bits that
// restart a channel.
func (a *APU) WriteRegister(offset uint32, v uint16) {
	switch offset {
	case ioregs.SOUND1CNT_L:
		a.ch1.writeSweep(v)
	case ioregs.SOUND1CNT_H:
		a.ch1.writeLenEnv(v)
	case ioregs.SOUND1CNT_X:
		a.ch1.writeFreqTrigger(v)
	case ioregs.SOUND2CNT_L:
		a.ch2.writeLenEnv(v)
	case ioregs.SOUND2CNT_H:
		a.ch2.writeFreqTrigger(v)
	case ioregs.SOUND3CNT_L:
		a.ch3.writeBankEnable(v)
	case ioregs.SOUND3CNT_H:
		a.ch3.writeLenVol(v)
	case ioregs.SOUND3CNT_X:
		a.ch3.writeFreqTrigger(v)
	case ioregs.SOUND4CNT_L:
		a.ch4.writeLenEnv(v)
	case ioregs.SOUND4CNT_H:
		a.ch4.writeFreqTrigger(v)
	case ioregs.SOUNDCNT_H:
		a.writeFIFOControl(v)
	}
}

func (a *APU) writeFIFOControl(v uint16) {
	a.fifoA.fullVolume = v&(1<<2) != 0
	a.fifoA.enableRight = v&(1<<8) != 0
	a.fifoA.enableLeft = v&(1<<9) != 0
	a.fifoA.timerIndex = 0
	if v&(1<<10) != 0 {
		a.fifoA.timerIndex = 1
	}
	if v&(1<<11) != 0 {
		a.fifoA.reset()
	}

	a.fifoB.fullVolume = v&(1<<3) != 0
	a.fifoB.enableRight = v&(1<<12) != 0
	a.fifoB.enableLeft = v&(1<<13) != 0
	a.fifoB.timerIndex = 0
	if v&(1<<14) != 0 {
		a.fifoB.timerIndex = 1
	}
	if v&(1<<15) != 0 {
		a.fifoB.reset()
	}
}

// PushFIFO is wired as the bus's FIFO-write hook, called whenever a 32-bit
// write lands on bus.FifoAAddr or bus.FifoBAddr; it decodes the word into
// four signed bytes and appends them to the matching queue.
func (a *APU) PushFIFO(addr uint32, v uint32) {
	samples := []int8{int8(v), int8(v >> 8), int8(v >> 16), int8(v >> 24)}
	switch addr {
	case bus.FifoAAddr:
		a.fifoA.push(samples)
	case bus.FifoBAddr:
		a.fifoB.push(samples)
	}
}

// TickFIFO is wired as timer.Bank's fifoTick hook, called on every
// overflow of timer 0 or 1. Each FIFO configured to follow timerIdx pops
// its next sample and, once it has drained to half capacity, arms its
// feeding DMA channel (1 or 2, whichever dma.Controller reports as
// currently targeting that FIFO's address) for a refill.
func (a *APU) TickFIFO(timerIdx int) {
	a.tickOneFIFO(&a.fifoA, timerIdx, bus.FifoAAddr)
	a.tickOneFIFO(&a.fifoB, timerIdx, bus.FifoBAddr)
}

func (a *APU) tickOneFIFO(f *dmaFIFO, timerIdx int, addr uint32) {
	if f.timerIndex != timerIdx {
		return
	}
	f.pop()
	if !f.needsRefill() || a.dma == nil {
		return
	}
	for _, idx := range [2]int{1, 2} {
		if a.dma.IsFIFO(idx, addr) {
			a.dma.ScheduleFor(idx, dma.TimingSpecial)
		}
	}
}

// LockAudio acquires the ring buffer and returns the samples accumulated
// since the last Release, in go-audio IntBuffer form.
func (a *APU) LockAudio() *audio.IntBuffer { return a.ring.Lock() }

// ReleaseAudio empties the ring buffer (retaining its allocation) and
// releases the lock taken by LockAudio.
func (a *APU) ReleaseAudio() {
	a.ring.Drain()
	a.ring.Unlock()
}
