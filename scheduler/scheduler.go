// Package scheduler implements the engine's discrete-event scheduler: a flat
// vector of event slots driven by a monotonically increasing master cycle
// counter. Every recurring piece of hardware timing in this emulator --
// PPU HDraw/HBlank, timer overflow, DMA arming -- is expressed as a
// scheduled callback rather than being polled every instruction.
package scheduler

import (
	"math"

	"github.com/hades-go/goba/logger"
)

// Args is the small tagged union of primitive words passed to a callback.
// Four words is enough for every event this engine schedules (a DMA channel
// index, a timer index, nothing at all).
type Args [4]uint32

// Callback is invoked when a scheduled event's time arrives. engine is passed
// back as an untyped handle so callbacks can reach whatever
// subsystem they need without the scheduler importing it.
type Callback func(engine interface{}, args Args)

// Handle is a stable index into the event table, returned by Add and
// consumed by Cancel.
type Handle int

// event is one scheduled callback.
type event struct {
	active   bool
	repeat   bool
	at       uint64
	period   uint64
	callback Callback
	args     Args
}

// Event is the caller-facing description of a new scheduled callback.
type Event struct {
	Repeat   bool
	At       uint64
	Period   uint64
	Callback Callback
	Args     Args
}

// Scheduler owns the master cycle counter and the event table.
type Scheduler struct {
	cycles    uint64
	nextEvent uint64
	events    []event
}

// New creates an empty scheduler with its cycle counter at zero.
func New() *Scheduler {
	return &Scheduler{nextEvent: math.MaxUint64}
}

// Reset zeroes the cycle counter and discards every scheduled event, as
// happens on a RESET message.
func (s *Scheduler) Reset() {
	s.cycles = 0
	s.nextEvent = math.MaxUint64
	s.events = s.events[:0]
}

// Cycles returns the current master cycle count.
func (s *Scheduler) Cycles() uint64 { return s.cycles }

// Advance charges n master cycles to the counter and, if the new count has
// reached the next due event, drains the event table. This is the entry
// point used by the bus and CPU idle loop to account for wait states and
// idle cycles.
func (s *Scheduler) Advance(engine interface{}, n uint64) {
	s.cycles += n
	if s.cycles >= s.nextEvent {
		s.ProcessEvents(engine)
	}
}

// Add stores event in the first inactive slot, growing the table by five
// slots if none is free, and returns a stable handle to it.
func (s *Scheduler) Add(e Event) Handle {
	if e.Repeat && e.Period == 0 {
		logger.Logf("scheduler", "repeating event added with a zero period")
	}

	slot := event{
		active:   true,
		repeat:   e.Repeat,
		at:       e.At,
		period:   e.Period,
		callback: e.Callback,
		args:     e.Args,
	}

	for i := range s.events {
		if !s.events[i].active {
			s.events[i] = slot
			if e.At < s.nextEvent {
				s.nextEvent = e.At
			}
			return Handle(i)
		}
	}

	s.events = append(s.events, make([]event, 5)...)
	idx := len(s.events) - 5
	s.events[idx] = slot
	if e.At < s.nextEvent {
		s.nextEvent = e.At
	}
	return Handle(idx)
}

// Cancel deactivates the event at handle, if it is still active. The slot
// becomes reusable by a later Add.
func (s *Scheduler) Cancel(handle Handle) {
	if int(handle) < 0 || int(handle) >= len(s.events) {
		return
	}
	s.events[handle].active = false
}

// Active reports whether handle still refers to an active, undispatched
// event.
func (s *Scheduler) Active(handle Handle) bool {
	if int(handle) < 0 || int(handle) >= len(s.events) {
		return false
	}
	return s.events[handle].active
}

// EventAt returns the scheduled timestamp of the event at handle, and
// whether it is still active.
func (s *Scheduler) EventAt(handle Handle) (uint64, bool) {
	if int(handle) < 0 || int(handle) >= len(s.events) || !s.events[handle].active {
		return 0, false
	}
	return s.events[handle].at, true
}

// ProcessEvents repeatedly dispatches the active event with the smallest
// due timestamp, ties broken by slot order, until no active event is due.
// Before each callback the cycle counter is rewound to the event's
// timestamp and restored once the callback returns, so that a callback
// always observes cycles == the time it was scheduled for.
func (s *Scheduler) ProcessEvents(engine interface{}) {
	for {
		var due *event
		next := uint64(math.MaxUint64)

		for i := range s.events {
			e := &s.events[i]
			if !e.active {
				continue
			}
			if e.at <= s.cycles {
				if due == nil || e.at < due.at {
					due = e
				}
			} else if e.at < next {
				next = e.at
			}
		}

		s.nextEvent = next
		if due == nil {
			return
		}

		delay := s.cycles - due.at
		s.cycles -= delay

		if due.repeat {
			due.at += due.period
			if due.at < s.nextEvent {
				s.nextEvent = due.at
			}
		} else {
			due.active = false
		}

		cb := due.callback
		args := due.args
		cb(engine, args)

		s.cycles += delay
	}
}

// Stepper is whatever the scheduler drives to advance cycles; in this
// module it is the CPU core. Step performs exactly one fetch/execute cycle,
// charging its own cost to the scheduler via Advance. Stopped reports
// whether the core is in its STOP state, where a zero-cycle step is
// expected rather than a livelock.
type Stepper interface {
	Step()
	Stopped() bool
}

// RunFor steps cpu until budget master cycles have elapsed or paused
// returns true. A step that advances zero cycles outside of STOP is a
// livelock: it is logged and the loop aborts early to avoid spinning
// forever on a broken decode path.
func (s *Scheduler) RunFor(cpu Stepper, budget uint64, paused func() bool) {
	target := s.cycles + budget
	for s.cycles < target {
		if paused != nil && paused() {
			return
		}

		before := s.cycles
		cpu.Step()
		if s.cycles == before && !cpu.Stopped() {
			logger.Log("scheduler", "no cycles elapsed during run_for, aborting frame to avoid livelock")
			return
		}
	}
}
