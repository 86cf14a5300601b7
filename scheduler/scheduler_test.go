package scheduler_test

import (
	"testing"

	"github.com/hades-go/goba/scheduler"
	"github.com/hades-go/goba/test"
)

func TestAddAndDispatch(t *testing.T) {
	s := scheduler.New()

	fired := false
	s.Add(scheduler.Event{
		At: 10,
		Callback: func(engine interface{}, args scheduler.Args) {
			fired = true
			test.Equate(t, s.Cycles(), uint64(10))
		},
	})

	s.Advance(nil, 10)
	test.ExpectSuccess(t, fired)
}

func TestCancelPreventsDispatch(t *testing.T) {
	s := scheduler.New()

	fired := false
	h := s.Add(scheduler.Event{
		At: 5,
		Callback: func(engine interface{}, args scheduler.Args) {
			fired = true
		},
	})
	s.Cancel(h)
	test.Equate(t, s.Active(h), false)

	s.Advance(nil, 5)
	test.Equate(t, fired, false)
}

func TestRepeatingEventReschedules(t *testing.T) {
	s := scheduler.New()

	count := 0
	s.Add(scheduler.Event{
		Repeat: true,
		At:     4,
		Period: 4,
		Callback: func(engine interface{}, args scheduler.Args) {
			count++
		},
	})

	s.Advance(nil, 20)
	test.Equate(t, count, 5)
}

func TestOrderingTiesBrokenByInsertionOrder(t *testing.T) {
	s := scheduler.New()

	var order []int
	s.Add(scheduler.Event{At: 1, Callback: func(engine interface{}, args scheduler.Args) {
		order = append(order, 1)
	}})
	s.Add(scheduler.Event{At: 1, Callback: func(engine interface{}, args scheduler.Args) {
		order = append(order, 2)
	}})

	s.Advance(nil, 1)
	test.Equate(t, order, []int{1, 2})
}

type countingStepper struct {
	n      int
	cycles []uint64
	s      *scheduler.Scheduler
}

func (c *countingStepper) Step() {
	c.n++
	c.s.Advance(nil, 1)
}

func (c *countingStepper) Stopped() bool { return false }

func TestRunForStopsAtBudget(t *testing.T) {
	s := scheduler.New()
	cpu := &countingStepper{s: s}

	s.RunFor(cpu, 100, nil)
	test.Equate(t, s.Cycles(), uint64(100))
	test.Equate(t, cpu.n, 100)
}

type deadStepper struct{}

func (deadStepper) Step()         {}
func (deadStepper) Stopped() bool { return false }

func TestRunForAbortsOnLivelock(t *testing.T) {
	s := scheduler.New()
	s.RunFor(deadStepper{}, 100, nil)
	test.Equate(t, s.Cycles(), uint64(0))
}
