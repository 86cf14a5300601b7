package ppu

// ScreenWidth and ScreenHeight are the visible GBA LCD dimensions.
const (
	ScreenWidth  = 240
	ScreenHeight = 160
	// screenRealHeight includes the 68 VBlank lines the scheduler still
	// ticks VCOUNT through.
	screenRealHeight = 228
	screenRealWidth  = 308
	cyclesPerPixel   = 4

	// CyclesPerFrame is the master-clock cost of one full frame (visible
	// lines plus VBlank), the budget the engine loop passes to
	// scheduler.RunFor once per iteration.
	CyclesPerFrame = cyclesPerPixel * screenRealWidth * screenRealHeight
)

// scanline accumulates one line's worth of composition state: the running
// result, the top and bottom layers the blend stage compares, and one
// OAM buffer per priority (sprites are prerendered once per line, then
// merged in the same priority loop as the backgrounds).
type scanline struct {
	result [ScreenWidth]richColor
	bg     [ScreenWidth]richColor
	bot    [ScreenWidth]richColor
	oam    [4][ScreenWidth]richColor
	topIdx int
}

// initializeScanline seeds result with the backdrop colour (palette entry
// 0, or pure white if forced blank) and, when a brightness effect is
// active, primes scanline.bot with the backdrop so prio-3's merge sees a
// sane "previous layer" to blend against.
func (p *PPU) initializeScanline(sl *scanline) {
	backdrop := richColor{visible: true, idx: 5}
	if p.io.ForcedBlank() {
		backdrop.red, backdrop.green, backdrop.blue = 31, 31, 31
	} else {
		backdrop = colorFromPalette(p.bus.PaletteHalf(0), 5)
	}

	for x := range sl.result {
		sl.result[x] = backdrop
	}

	mode := p.blendMode()
	if mode == blendLight || mode == blendDark {
		sl.topIdx = 5
		sl.bg = sl.result
		sl.bot = sl.result
		p.mergeLayer(sl, sl.bg[:])
		sl.topIdx = 0
	}
}
