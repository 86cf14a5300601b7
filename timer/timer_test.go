package timer_test

import (
	"testing"

	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/scheduler"
	"github.com/hades-go/goba/test"
	"github.com/hades-go/goba/timer"
)

func newBank(t *testing.T) (*timer.Bank, *scheduler.Scheduler, *[]int, *[]int) {
	t.Helper()
	sched := scheduler.New()
	irqs := []int{}
	fifos := []int{}
	b := timer.New(sched, func(idx int) { irqs = append(irqs, idx) }, func(idx int) { fifos = append(fifos, idx) })
	return b, sched, &irqs, &fifos
}

func TestTimerOverflowRaisesIRQAndReloads(t *testing.T) {
	b, sched, irqs, _ := newBank(t)
	b.Timers[0].Reload = 0xFFF0
	b.WriteControl(0, 1<<7|1<<6) // enable, IRQ

	sched.Advance(nil, 0x10+2+1)
	test.Equate(t, len(*irqs), 1)
	test.Equate(t, (*irqs)[0], 0)
	test.Equate(t, b.Timers[0].Counter(), uint16(0xFFF0))
}

func TestTimer0OverflowTriggersFIFOHook(t *testing.T) {
	b, sched, _, fifos := newBank(t)
	b.Timers[0].Reload = 0xFFFF
	b.WriteControl(0, 1<<7)

	// first overflow after (1<<0)+2 cycles; one more cycle would overflow again
	sched.Advance(nil, 1+2)
	test.Equate(t, len(*fifos), 1)
	test.Equate(t, (*fifos)[0], 0)
}

func TestCountUpCascade(t *testing.T) {
	b, sched, _, _ := newBank(t)
	b.Timers[0].Reload = 0xFFFF
	b.Timers[1].Reload = 0x0000
	b.WriteControl(1, 1<<7|1<<2) // timer 1 enabled, count-up
	b.WriteControl(0, 1<<7)      // timer 0 enabled, free-running

	// first overflow after (1<<0)+2 cycles; one more cycle would overflow again
	sched.Advance(nil, 1+2)
	test.Equate(t, b.Timers[1].Counter(), uint16(1))
}

func TestReadCounterReflectsElapsedCycles(t *testing.T) {
	b, sched, _, _ := newBank(t)
	b.Timers[0].Reload = 0
	b.WriteControl(0, 1<<7) // prescaler 0

	sched.Advance(nil, 10)
	test.Equate(t, b.ReadCounter(0) >= uint16(5), true)
}

func TestWriteRegisterLatchesReloadAndArms(t *testing.T) {
	b, sched, irqs, _ := newBank(t)

	b.WriteRegister(ioregs.TM0CNT_L, 0xFFF0)
	b.WriteRegister(ioregs.TM0CNT_H, 1<<7|1<<6) // enable, IRQ

	sched.Advance(nil, 0x10+2+1)
	test.Equate(t, len(*irqs), 1)
	test.Equate(t, (*irqs)[0], 0)
	test.Equate(t, b.Timers[0].Counter(), uint16(0xFFF0))
}
