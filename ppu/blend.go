package ppu

import "github.com/hades-go/goba/ioregs"

type blendMode uint16

const (
	blendOff blendMode = iota
	blendAlpha
	blendLight
	blendDark
)

func (p *PPU) blendMode() blendMode {
	return blendMode((p.io.Read16(ioregs.BLDCNT) >> 6) & 0x3)
}

func bitSet(raw uint16, bit int) bool { return raw&(1<<uint(bit)) != 0 }

// mergeLayer blends layer into scanline, following exactly the precedence
// rules real hardware applies: window visibility first, then a sprite's
// own force-blend flag, then BLDCNT's configured mode.
func (p *PPU) mergeLayer(sl *scanline, layer []richColor) {
	bldcnt := p.io.Read16(ioregs.BLDCNT)
	bldalpha := p.io.Read16(ioregs.BLDALPHA)
	bldy := p.io.Read16(ioregs.BLDY)

	eva := min(16, uint32(bldalpha&0x1F))
	evb := min(16, uint32((bldalpha>>8)&0x1F))
	evy := min(16, uint32(bldy&0x1F))

	for x := 0; x < ScreenWidth; x++ {
		topc := layer[x]
		if !topc.visible {
			continue
		}
		botc := sl.bot[x]

		mode := p.blendMode()
		botEnabled := bitSet(bldcnt, botc.idx+8)

		if sl.topIdx <= 4 && p.windowActive {
			winOpts := p.findTopWindow(x)
			if winOpts&(1<<uint(sl.topIdx)) == 0 {
				continue
			}
			if winOpts&(1<<5) == 0 {
				mode = blendOff
			}
		}

		if topc.forceBlend && botEnabled {
			mode = blendAlpha
		}

		sl.bot[x] = layer[x]

		switch mode {
		case blendOff:
			sl.result[x] = topc
		case blendAlpha:
			topEnabled := bitSet(bldcnt, sl.topIdx) || topc.forceBlend
			if topEnabled && botEnabled && botc.visible {
				r := min(31, (uint32(topc.red)*eva+uint32(botc.red)*evb)>>4)
				g := min(31, (uint32(topc.green)*eva+uint32(botc.green)*evb)>>4)
				b := min(31, (uint32(topc.blue)*eva+uint32(botc.blue)*evb)>>4)
				sl.result[x] = richColor{red: uint8(r), green: uint8(g), blue: uint8(b), visible: true, idx: sl.topIdx}
			} else {
				sl.result[x] = topc
			}
		case blendLight:
			if bitSet(bldcnt, sl.topIdx) {
				r := uint32(topc.red) + ((31-uint32(topc.red))*evy)>>4
				g := uint32(topc.green) + ((31-uint32(topc.green))*evy)>>4
				b := uint32(topc.blue) + ((31-uint32(topc.blue))*evy)>>4
				sl.result[x] = richColor{red: uint8(r), green: uint8(g), blue: uint8(b), visible: true, idx: topc.idx}
			} else {
				sl.result[x] = topc
			}
		case blendDark:
			if bitSet(bldcnt, sl.topIdx) {
				r := uint32(topc.red) - (uint32(topc.red)*evy)>>4
				g := uint32(topc.green) - (uint32(topc.green)*evy)>>4
				b := uint32(topc.blue) - (uint32(topc.blue)*evy)>>4
				sl.result[x] = richColor{red: uint8(r), green: uint8(g), blue: uint8(b), visible: true, idx: topc.idx}
			} else {
				sl.result[x] = topc
			}
		}
	}
}
