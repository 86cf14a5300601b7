package ppu_test

import (
	"testing"

	"github.com/hades-go/goba/bus"
	"github.com/hades-go/goba/bus/backup"
	"github.com/hades-go/goba/dma"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/ppu"
	"github.com/hades-go/goba/scheduler"
	"github.com/hades-go/goba/test"
)

func newPPU(t *testing.T) (*ppu.PPU, *bus.Bus, *ioregs.Registers, *scheduler.Scheduler, *[]uint) {
	t.Helper()
	io := ioregs.New()
	sched := scheduler.New()
	b := bus.New(sched, io)
	b.Reset(make([]byte, 1024), make([]byte, bus.BiosSize), backup.None, nil, false)
	dmac := dma.New(sched, b, io, func() uint16 { return io.GetVCount() }, nil)
	irqs := []uint{}
	p := ppu.New(sched, b, io, dmac, func(irq uint) { irqs = append(irqs, irq) })
	p.Init()
	return p, b, io, sched, &irqs
}

func TestHDrawAdvancesVCount(t *testing.T) {
	_, _, io, sched, _ := newPPU(t)
	test.Equate(t, io.GetVCount(), uint16(0))
	sched.Advance(nil, 4*308+1)
	test.Equate(t, io.GetVCount(), uint16(1))
}

func TestVBlankFlagAndIRQSetAtLine160(t *testing.T) {
	_, _, io, sched, irqs := newPPU(t)
	io.Write16(ioregs.DISPSTAT, 1<<3) // VBlank IRQ enable

	for i := 0; i < 160; i++ {
		sched.Advance(nil, 4*308)
	}
	test.Equate(t, io.GetVCount(), uint16(160))
	test.Equate(t, io.VBlank(), true)
	test.Equate(t, *irqs, []uint{ioregs.IRQVBlank})
}

func TestMode3BitmapPixelReachesFramebuffer(t *testing.T) {
	p, b, io, sched, _ := newPPU(t)

	io.Write16(ioregs.DISPCNT, 3|(1<<10)) // mode 3, BG2 enabled
	b.Write16(bus.VramStart, 0x7FFF, bus.NonSequential)

	// the finished frame is copied to the front buffer when VCOUNT reaches 160
	sched.Advance(nil, 160*4*308)

	front := p.LockFrontend()
	defer p.UnlockFrontend()
	test.Equate(t, front[0], uint32(0xFFFFFFFF))
}

func TestForcedBlankProducesWhiteBackdrop(t *testing.T) {
	p, _, io, sched, _ := newPPU(t)
	io.Write16(ioregs.DISPCNT, 1<<7) // forced blank

	// the finished frame is copied to the front buffer when VCOUNT reaches 160
	sched.Advance(nil, 160*4*308)

	front := p.LockFrontend()
	defer p.UnlockFrontend()
	test.Equate(t, front[0], uint32(0xFFFFFFFF))
}
