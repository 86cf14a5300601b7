// Package ppu implements the GBA's picture processing unit: a line
// renderer driven by two repeating scheduler events (HDraw and HBlank)
// that advance VCOUNT, raise the VBlank/HBlank/VCount interrupts, trigger
// the matching DMA timing classes, and -- once per visible line -- compose
// a scanline from up to four backgrounds and the sprite layer into a
// double-buffered RGBA framebuffer the frontend reads through a mutex.
package ppu

import (
	"math"
	"sync"

	"github.com/hades-go/goba/bus"
	"github.com/hades-go/goba/dma"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/scheduler"
)

// PPU owns the renderer's working state and the two long-lived scheduler
// events that drive it.
type PPU struct {
	bus   *bus.Bus
	io    *ioregs.Registers
	sched *scheduler.Scheduler
	dma   *dma.Controller
	engine interface{}

	raiseIRQ func(irq uint)

	affine       [2]affineState
	reloadAffine bool

	windowMask   [ScreenWidth]uint8
	windowActive bool
	objWindow    [ScreenWidth]bool

	// back is the frame currently being drawn into, line by line; front is
	// the last complete frame, exposed to the rest of the engine through
	// Lock/Framebuffer/Unlock. They are swapped (by copy) once per frame at
	// the VCOUNT==160 boundary, matching the teardown-avoidance the
	// original engine documents at the same point.
	back       [ScreenWidth * ScreenHeight]uint32
	front      [ScreenWidth * ScreenHeight]uint32
	frontendMu sync.Mutex

	ColorCorrection bool
	FrameCount      uint64
}

// New constructs a PPU wired to the shared bus, I/O registers, scheduler
// and DMA controller. raiseIRQ sets the corresponding IF bit (ioregs.IRQ*).
func New(sched *scheduler.Scheduler, b *bus.Bus, io *ioregs.Registers, dmac *dma.Controller, raiseIRQ func(irq uint)) *PPU {
	return &PPU{sched: sched, bus: b, io: io, dma: dmac, raiseIRQ: raiseIRQ}
}

// SetEngine records the opaque handle passed back to scheduler callbacks.
func (p *PPU) SetEngine(engine interface{}) { p.engine = engine }

// Init registers the HDraw and HBlank repeating events, as happens once at
// engine start (and again on RESET). HDraw first fires at the end of one
// full scanline (it is what *starts* the next line); HBlank fires partway
// through the current line once HDraw's pixels have been drawn.
func (p *PPU) Init() {
	p.sched.Add(scheduler.Event{
		Repeat:   true,
		At:       cyclesPerPixel * screenRealWidth,
		Period:   cyclesPerPixel * screenRealWidth,
		Callback: func(engine interface{}, args scheduler.Args) { p.hdraw() },
	})
	p.sched.Add(scheduler.Event{
		Repeat:   true,
		At:       cyclesPerPixel*ScreenWidth + 46,
		Period:   cyclesPerPixel * screenRealWidth,
		Callback: func(engine interface{}, args scheduler.Args) { p.hblank() },
	})
}

// NotifyAffineWrite marks both affine backgrounds' internal reference
// points for reload at the next HDraw. Nothing in this module calls it:
// writes to BG2X/Y or BG3X/Y do not trigger a reload, and the reference
// points are reloaded only at the start of VBlank.
func (p *PPU) NotifyAffineWrite() { p.reloadAffine = true }

// hdraw is the HDraw scheduler callback: it advances VCOUNT, swaps the
// framebuffer at the top of VBlank, updates DISPSTAT, and raises the
// VBlank/VCount interrupts and VBlank DMA as appropriate.
func (p *PPU) hdraw() {
	line := p.io.GetVCount() + 1
	if line >= screenRealHeight {
		line = 0
		p.FrameCount++
	} else if line == ScreenHeight {
		p.frontendMu.Lock()
		p.front = p.back
		p.frontendMu.Unlock()
	}
	p.io.SetVCount(line)

	p.io.SetVCountMatch(line == p.io.VCountTarget())
	vblank := line >= ScreenHeight && line < screenRealHeight-1
	p.io.SetVBlank(vblank)
	p.io.SetHBlank(false)

	if line == ScreenHeight {
		if p.io.VBlankIRQEnabled() && p.raiseIRQ != nil {
			p.raiseIRQ(ioregs.IRQVBlank)
		}
		if p.dma != nil {
			p.dma.ScheduleAll(dma.TimingVBlank)
		}
		p.reloadAffine = true
	}

	if p.reloadAffine {
		p.reloadAffineRegisters(0)
		p.reloadAffineRegisters(1)
		p.reloadAffine = false
	}

	if line == p.io.VCountTarget() && p.io.VCountIRQEnabled() && p.raiseIRQ != nil {
		p.raiseIRQ(ioregs.IRQVCount)
	}
}

// hblank is the HBlank scheduler callback: on a visible line it renders and
// composes the just-finished scanline into the back buffer, then raises
// the HBlank interrupt and HBlank/video-capture DMA.
func (p *PPU) hblank() {
	line := p.io.GetVCount()

	if line < ScreenHeight {
		var sl scanline
		p.initializeScanline(&sl)

		if !p.io.ForcedBlank() {
			p.buildWindowMasks(line)
			p.prerenderOAM(&sl, line)
			p.renderScanline(&sl, line)
		}

		if p.ColorCorrection {
			p.drawScanlineCorrected(&sl, line)
		} else {
			p.drawScanline(&sl, line)
		}

		p.stepAffineRegisters()
	}

	p.io.SetHBlank(true)

	if p.io.HBlankIRQEnabled() && p.raiseIRQ != nil {
		p.raiseIRQ(ioregs.IRQHBlank)
	}

	if p.dma != nil {
		if line < ScreenHeight {
			p.dma.ScheduleAll(dma.TimingHBlank)
		}
		if line >= 2 && line < ScreenHeight+2 {
			p.dma.ScheduleFor(3, dma.TimingSpecial)
		}
	}
}

// renderScanline dispatches to the right background/sprite composition for
// the active BG mode, in back-to-front priority order: each priority level
// draws its backgrounds (lowest bg index merges last, ending up on top)
// then that priority's sprite layer.
func (p *PPU) renderScanline(sl *scanline, y uint16) {
	mode := p.io.BGMode()

	for prio := 3; prio >= 0; prio-- {
		switch mode {
		case 0:
			for bg := 3; bg >= 0; bg-- {
				if p.io.BGEnabled(bg) && int(p.io.BGPriority(bg)) == prio {
					p.renderBackgroundText(sl, y, bg)
					p.mergeLayer(sl, sl.bg[:])
				}
			}
		case 1:
			for bg := 2; bg >= 0; bg-- {
				if !p.io.BGEnabled(bg) || int(p.io.BGPriority(bg)) != prio {
					continue
				}
				if bg == 2 {
					p.renderBackgroundAffine(sl, y, bg)
				} else {
					p.renderBackgroundText(sl, y, bg)
				}
				p.mergeLayer(sl, sl.bg[:])
			}
		case 2:
			for bg := 3; bg >= 2; bg-- {
				if p.io.BGEnabled(bg) && int(p.io.BGPriority(bg)) == prio {
					p.renderBackgroundAffine(sl, y, bg)
					p.mergeLayer(sl, sl.bg[:])
				}
			}
		case 3:
			if p.io.BGEnabled(2) && int(p.io.BGPriority(2)) == prio {
				p.renderBackgroundBitmap(sl, y, false)
				p.mergeLayer(sl, sl.bg[:])
			}
		case 4:
			if p.io.BGEnabled(2) && int(p.io.BGPriority(2)) == prio {
				p.renderBackgroundBitmap(sl, y, true)
				p.mergeLayer(sl, sl.bg[:])
			}
		case 5:
			if p.io.BGEnabled(2) && int(p.io.BGPriority(2)) == prio && y < 128 {
				p.renderBackgroundBitmapSmall(sl, y)
				p.mergeLayer(sl, sl.bg[:])
			}
		}

		sl.topIdx = 4
		p.mergeLayer(sl, sl.oam[prio][:])
	}
}

// drawScanline writes scanline.result into the back buffer verbatim,
// expanding each 5-bit channel to 8-bit the way the real LCD does.
func (p *PPU) drawScanline(sl *scanline, y uint16) {
	row := int(y) * ScreenWidth
	for x := 0; x < ScreenWidth; x++ {
		c := sl.result[x]
		p.back[row+x] = packARGB(expand5to8(c.red), expand5to8(c.green), expand5to8(c.blue))
	}
}

// drawScanlineCorrected applies the same LCD colour-correction curve the
// reference emulator offers as an optional display mode: gamma 4.0 in,
// gamma 2.0 out, with a small cross-channel mix approximating a real GBA
// panel's colour response.
func (p *PPU) drawScanlineCorrected(sl *scanline, y uint16) {
	row := int(y) * ScreenWidth
	for x := 0; x < ScreenWidth; x++ {
		c := sl.result[x]
		r := float64(c.red) * float64(c.red) * float64(c.red) * float64(c.red) / (31.0 * 31.0 * 31.0 * 31.0)
		g := float64(c.green) * float64(c.green) * float64(c.green) * float64(c.green) / (31.0 * 31.0 * 31.0 * 31.0)
		b := float64(c.blue) * float64(c.blue) * float64(c.blue) * float64(c.blue) / (31.0 * 31.0 * 31.0 * 31.0)

		rr := uint32(math.Sqrt(0.196*g+1.000*r) * 213.0)
		gg := uint32(math.Sqrt(0.118*b+0.902*g+0.039*r) * 240.0)
		bb := uint32(math.Sqrt(0.863*b+0.039*g+0.196*r) * 232.0)
		p.back[row+x] = packARGB(rr, gg, bb)
	}
}

// LockFrontend locks and returns the most recently completed frame, as
// RGBA pixels (red in bits 0-7, green 8-15, blue 16-23, alpha 24-31) in
// row-major order; callers must call UnlockFrontend when
// done reading it.
func (p *PPU) LockFrontend() []uint32 {
	p.frontendMu.Lock()
	return p.front[:]
}

// UnlockFrontend releases the lock taken by LockFrontend.
func (p *PPU) UnlockFrontend() { p.frontendMu.Unlock() }

// RenderBlackScreen clears the front buffer, used when the CPU enters STOP
// and the real LCD would show nothing.
func (p *PPU) RenderBlackScreen() {
	p.frontendMu.Lock()
	for i := range p.front {
		p.front[i] = 0xFF000000
	}
	p.frontendMu.Unlock()
}
