package ppu

import "github.com/hades-go/goba/ioregs"

// windowRect decodes one WINxH/WINxV pair: (left, right) or (top, bottom),
// inclusive-exclusive like the real hardware, with the "right/bottom before
// left/top" wraparound the manual documents as meaning "to the edge".
func windowRect(raw uint16, span uint16) (lo, hi uint16) {
	hi = raw & 0xFF
	lo = (raw >> 8) & 0xFF
	if hi > span || hi < lo {
		hi = span
	}
	return lo, hi
}

func inRange(v, lo, hi uint16) bool {
	if lo <= hi {
		return v >= lo && v < hi
	}
	return v >= lo || v < hi
}

// buildWindowMasks precomputes, for the current scanline y, which layers
// are visible and whether blending is allowed at each column -- the same
// per-pixel mask real hardware derives by checking WIN0 first, then WIN1,
// then the OBJ window, falling back to WINOUT outside all of them.
func (p *PPU) buildWindowMasks(y uint16) {
	win0 := p.io.WindowEnabled(0)
	win1 := p.io.WindowEnabled(1)
	winObj := p.io.WindowEnabled(2)

	if !win0 && !win1 && !winObj {
		for x := range p.windowMask {
			p.windowMask[x] = 0x3F // every layer visible, blending allowed
		}
		p.windowActive = false
		return
	}
	p.windowActive = true

	winIn := p.io.Read16(ioregs.WININ)
	winOut := p.io.Read16(ioregs.WINOUT)

	var x0lo, x0hi, y0lo, y0hi uint16
	var x1lo, x1hi, y1lo, y1hi uint16
	if win0 {
		x0lo, x0hi = windowRect(p.io.Read16(ioregs.WIN0H), ScreenWidth)
		y0lo, y0hi = windowRect(p.io.Read16(ioregs.WIN0V), ScreenHeight)
	}
	if win1 {
		x1lo, x1hi = windowRect(p.io.Read16(ioregs.WIN1H), ScreenWidth)
		y1lo, y1hi = windowRect(p.io.Read16(ioregs.WIN1V), ScreenHeight)
	}

	win0In := uint8(winIn & 0x3F)
	win1In := uint8((winIn >> 8) & 0x3F)
	winObjIn := uint8(winOut >> 8 & 0x3F)
	winOutMask := uint8(winOut & 0x3F)

	in0Y := win0 && inRange(y, y0lo, y0hi)
	in1Y := win1 && inRange(y, y1lo, y1hi)

	for x := uint16(0); x < ScreenWidth; x++ {
		switch {
		case in0Y && inRange(x, x0lo, x0hi):
			p.windowMask[x] = win0In
		case in1Y && inRange(x, x1lo, x1hi):
			p.windowMask[x] = win1In
		case winObj && p.objWindow[x]:
			p.windowMask[x] = winObjIn
		default:
			p.windowMask[x] = winOutMask
		}
	}
}

// findTopWindow looks up the precomputed per-pixel mask built by
// buildWindowMasks; bits 0-3 gate BG0-3, bit 4 gates OBJ, bit 5 allows
// blending.
func (p *PPU) findTopWindow(x int) uint8 {
	return p.windowMask[x]
}
