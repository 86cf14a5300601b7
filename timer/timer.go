// Package timer implements the GBA's four cascading 16-bit timers: a
// scheduler-driven overflow event per non-count-up timer, count-up
// cascading through a chain of overflows, and the read-back counter
// reconstruction used when software polls TMxCNT_L of a running timer.
package timer

import (
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/scheduler"
)

var scalers = [4]uint64{0, 6, 8, 10}

const invalidHandle = scheduler.Handle(-1)

type Control struct {
	Prescaler uint8 // 0..3, indexes scalers
	CountUp   bool  // ignored for timer 0
	IRQ       bool
	Enable    bool
}

type Timer struct {
	index int

	Reload  uint16
	Control Control

	counter    uint16
	handler    scheduler.Handle
	startCycle uint64 // scheduler.Cycles() at the moment this run began
}

// Bank is the set of four timers plus the hooks into the rest of the
// engine a timer overflow must reach: the interrupt flag register and the
// APU's FIFO-refill trigger.
type Bank struct {
	Timers [4]Timer

	sched      *scheduler.Scheduler
	raiseIRQ   func(timerIdx int)
	fifoTick   func(timerIdx int)
}

// New constructs a Bank. raiseIRQ sets the corresponding IF bit; fifoTick
// is called for timer 0 and 1 overflows so the APU can pull a FIFO sample
// into the DMA-fed channels when that timer drives one.
func New(sched *scheduler.Scheduler, raiseIRQ func(int), fifoTick func(int)) *Bank {
	b := &Bank{sched: sched, raiseIRQ: raiseIRQ, fifoTick: fifoTick}
	for i := range b.Timers {
		b.Timers[i] = Timer{index: i, handler: invalidHandle}
	}
	return b
}

// WriteControl applies a new TMxCNT_H value, starting or stopping the
// timer's overflow event as the enable bit transitions.
func (b *Bank) WriteControl(idx int, raw uint16) {
	t := &b.Timers[idx]
	wasEnabled := t.Control.Enable
	t.Control = Control{
		Prescaler: uint8(raw & 0x3),
		CountUp:   raw&(1<<2) != 0 && idx != 0,
		IRQ:       raw&(1<<6) != 0,
		Enable:    raw&(1<<7) != 0,
	}

	if !wasEnabled && t.Control.Enable {
		b.scheduleStart(idx)
	} else if wasEnabled && !t.Control.Enable {
		b.scheduleStop(idx)
	}
}

// WriteRegister applies a 16-bit write landing on one of the TM0CNT_L
// through TM3CNT_H I/O offsets: TMxCNT_L latches the reload value, TMxCNT_H
// goes through WriteControl's start/stop logic. offset is already masked to
// the I/O window (bus.Bus forwards addr&0x3FF).
func (b *Bank) WriteRegister(offset uint32, v uint16) {
	if offset < ioregs.TM0CNT_L || offset > ioregs.TM3CNT_H {
		return
	}
	rel := offset - ioregs.TM0CNT_L
	idx := int(rel / 4)
	if rel%4 == 0 {
		b.Timers[idx].Reload = v
		return
	}
	b.WriteControl(idx, v)
}

func (b *Bank) scheduleStart(idx int) {
	t := &b.Timers[idx]
	t.counter = t.Reload

	if t.Control.CountUp {
		t.handler = invalidHandle
		return
	}

	period := uint64(0x10000-uint32(t.counter)) << scalers[t.Control.Prescaler]
	t.startCycle = b.sched.Cycles() + 2
	t.handler = b.sched.Add(scheduler.Event{
		Repeat:   true,
		At:       t.startCycle + period,
		Period:   period,
		Callback: func(engine interface{}, args scheduler.Args) { b.overflow(int(args[0])) },
		Args:     scheduler.Args{uint32(idx)},
	})
}

func (b *Bank) scheduleStop(idx int) {
	t := &b.Timers[idx]
	t.counter = b.updateCounter(idx)
	if t.handler != invalidHandle {
		b.sched.Cancel(t.handler)
		t.handler = invalidHandle
	}
}

func (b *Bank) overflow(idx int) {
	t := &b.Timers[idx]
	t.counter = t.Reload
	t.startCycle = b.sched.Cycles()

	if t.Control.IRQ && b.raiseIRQ != nil {
		b.raiseIRQ(idx)
	}
	if (idx == 0 || idx == 1) && b.fifoTick != nil {
		b.fifoTick(idx)
	}

	if idx < 3 {
		next := &b.Timers[idx+1]
		if next.Control.Enable && next.Control.CountUp {
			newVal := uint32(next.counter) + 1
			if newVal == 0x10000 {
				b.overflow(idx + 1)
			} else {
				next.counter = uint16(newVal)
			}
		}
	}
}

// updateCounter reconstructs a running, non-count-up timer's live value
// from the scheduler's cycle counter and the run's start cycle.
func (b *Bank) updateCounter(idx int) uint16 {
	t := &b.Timers[idx]
	elapsed := b.sched.Cycles() - t.startCycle
	return t.Reload + uint16(elapsed>>scalers[t.Control.Prescaler])
}

// Counter exposes the timer's raw stored counter value (not reconstructed
// from elapsed cycles); chiefly useful in tests right after an overflow.
func (t *Timer) Counter() uint16 { return t.counter }

// ReadCounter returns TMxCNT_L's live value.
func (b *Bank) ReadCounter(idx int) uint16 {
	t := &b.Timers[idx]
	if t.Control.Enable && !t.Control.CountUp {
		return b.updateCounter(idx)
	}
	return t.counter
}
