package dma_test

import (
	"testing"

	"github.com/hades-go/goba/bus"
	"github.com/hades-go/goba/bus/backup"
	"github.com/hades-go/goba/dma"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/scheduler"
	"github.com/hades-go/goba/test"
)

func newController(t *testing.T) (*dma.Controller, *bus.Bus, *scheduler.Scheduler) {
	t.Helper()
	io := ioregs.New()
	sched := scheduler.New()
	b := bus.New(sched, io)
	b.Reset(make([]byte, 256), make([]byte, bus.BiosSize), backup.None, nil, false)
	irqs := 0
	c := dma.New(sched, b, io, func() uint16 { return 0 }, func(ch int) { irqs++ })
	return c, b, sched
}

func TestImmediateTransferCopiesWords(t *testing.T) {
	c, b, sched := newController(t)

	b.Write32(bus.EwramStart, 0xDEADBEEF, bus.NonSequential)

	c.Channels[0].SrcAddr = bus.EwramStart
	c.Channels[0].DstAddr = bus.EwramStart + 0x100
	c.Channels[0].Count = 1
	c.WriteControl(0, 0x8000|uint16(1<<10)) // enable, 32-bit unit, timing=Now

	sched.Advance(nil, 3) // let the 2-cycle arm event fire
	c.RunPending()

	v, _ := b.Read32(bus.EwramStart+0x100, bus.NonSequential)
	test.Equate(t, v, uint32(0xDEADBEEF))
	test.Equate(t, c.Channels[0].Control.Enable, false)
}

func TestRepeatKeepsChannelEnabled(t *testing.T) {
	c, b, sched := newController(t)
	b.Write32(bus.EwramStart, 0x11111111, bus.NonSequential)

	c.Channels[0].SrcAddr = bus.EwramStart
	c.Channels[0].DstAddr = bus.EwramStart + 0x200
	c.Channels[0].Count = 1
	c.WriteControl(0, 0x8000|uint16(1<<10)|uint16(1<<9)) // enable, 32-bit, repeat

	sched.Advance(nil, 3)
	c.RunPending()

	test.Equate(t, c.Channels[0].Control.Enable, true)
}

func TestDisableCancelsPendingChannel(t *testing.T) {
	c, _, sched := newController(t)
	c.Channels[0].Count = 1
	c.WriteControl(0, 0x8000|uint16(1<<10))
	sched.Advance(nil, 3)
	c.WriteControl(0, 0x0000)
	c.RunPending()
	test.Equate(t, c.Channels[0].Control.Enable, false)
}

func TestFIFOChannelForcesCountOfFour(t *testing.T) {
	c, _, _ := newController(t)
	// channel 1, special timing, enable, 32-bit
	raw := uint16(1<<15) | uint16(1<<10) | uint16(3<<12)
	c.WriteControl(1, raw)
	test.Equate(t, c.Channels[1].InternalCount(), uint32(4))
}

func TestWriteRegisterAssemblesAddressesAndArms(t *testing.T) {
	c, b, sched := newController(t)
	b.Write32(bus.EwramStart, 0xCAFEF00D, bus.NonSequential)

	c.WriteRegister(ioregs.DMA0SAD, uint16(bus.EwramStart&0xFFFF))
	c.WriteRegister(ioregs.DMA0SAD+2, uint16(bus.EwramStart>>16))
	c.WriteRegister(ioregs.DMA0DAD, uint16((bus.EwramStart+0x300)&0xFFFF))
	c.WriteRegister(ioregs.DMA0DAD+2, uint16((bus.EwramStart+0x300)>>16))
	c.WriteRegister(ioregs.DMA0CNT_L, 1)
	c.WriteRegister(ioregs.DMA0CNT_H, 0x8000|uint16(1<<10))

	test.Equate(t, c.Channels[0].SrcAddr, uint32(bus.EwramStart))
	test.Equate(t, c.Channels[0].DstAddr, uint32(bus.EwramStart+0x300))

	sched.Advance(nil, 3)
	c.RunPending()

	v, _ := b.Read32(bus.EwramStart+0x300, bus.NonSequential)
	test.Equate(t, v, uint32(0xCAFEF00D))
}
