package ppu

import "github.com/hades-go/goba/ioregs"

// objShapeSize maps (shape, size) from attr0 bits 14-15 / attr1 bits 14-15
// to a sprite's (width, height) in pixels. Affine (rotation/scaling)
// sprites are not modelled; they are skipped during prerender the same way
// a disabled sprite would be, a deliberate simplification over real
// hardware noted alongside this package.
var objShapeSize = [3][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},   // square
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},   // horizontal
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},   // vertical
}

const objVRAMBase = 0x10000

// prerenderOAM walks all 128 OAM entries back-to-front (so entry 0 draws
// on top of later entries at equal priority, matching real hardware's
// sprite priority-by-index rule) and fills scanline.oam[priority] with any
// sprite pixel touching row y.
func (p *PPU) prerenderOAM(sl *scanline, y uint16) {
	for i := range sl.oam {
		for x := range sl.oam[i] {
			sl.oam[i][x] = richColor{}
		}
	}
	for x := range p.objWindow {
		p.objWindow[x] = false
	}

	if !p.io.OBJEnabled() {
		return
	}

	obj1D := p.io.Read16(ioregs.DISPCNT)&(1<<6) != 0 // DISPCNT.6: 1D vs 2D OBJ mapping

	for i := 127; i >= 0; i-- {
		base := uint32(i * 8)
		attr0 := p.bus.OAMHalf(base)
		if attr0&(1<<9) != 0 && attr0&(1<<8) == 0 {
			continue // disabled (non-affine, double-size bit repurposed as disable)
		}
		affine := attr0&(1<<8) != 0
		if affine {
			continue // rotation/scaling sprites unsupported, see objShapeSize doc
		}

		attr1 := p.bus.OAMHalf(base + 2)
		attr2 := p.bus.OAMHalf(base + 4)

		shape := int((attr0 >> 14) & 0x3)
		size := int((attr1 >> 14) & 0x3)
		if shape == 3 {
			continue
		}
		w, h := objShapeSize[shape][size][0], objShapeSize[shape][size][1]

		objY := int(attr0 & 0xFF)
		if objY >= 160 {
			objY -= 256
		}
		row := int(y) - objY
		if row < 0 || row >= h {
			continue
		}

		objX := int(attr1 & 0x1FF)
		if objX >= 240 {
			objX -= 512
		}

		vFlip := attr1&(1<<13) != 0
		hFlip := attr1&(1<<12) != 0
		mode := int((attr0 >> 10) & 0x3)
		mosaic := attr0&(1<<12) != 0
		_ = mosaic
		is8bpp := attr0&(1<<13) != 0
		priority := int((attr2 >> 10) & 0x3)
		tileNum := int(attr2 & 0x3FF)
		palette := int((attr2 >> 12) & 0xF)

		ty := row
		if vFlip {
			ty = h - 1 - row
		}
		tileRow := ty / 8
		pixRow := ty % 8

		tilesWide := w / 8
		unitsPerTile := 1 // a tile-unit is 32 bytes (one 4bpp tile); an 8bpp tile spans two units
		if is8bpp {
			unitsPerTile = 2
		}

		for col := 0; col < w; col++ {
			screenX := objX + col
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}

			tx := col
			if hFlip {
				tx = w - 1 - col
			}
			tileCol := tx / 8
			pixCol := tx % 8

			// 1D mapping lays consecutive sprite rows end to end; 2D mapping
			// treats OBJ VRAM as a fixed 32-tile-unit-wide character sheet.
			var tIdx int
			if obj1D {
				tIdx = tileNum + (tileRow*tilesWide+tileCol)*unitsPerTile
			} else {
				tIdx = tileNum + tileRow*32 + tileCol*unitsPerTile
			}

			var colorIdx int
			if is8bpp {
				addr := uint32(objVRAMBase + tIdx*32 + pixRow*8 + pixCol)
				colorIdx = int(p.bus.VRAMByte(addr))
			} else {
				addr := uint32(objVRAMBase + tIdx*32 + pixRow*4 + pixCol/2)
				b := p.bus.VRAMByte(addr)
				if pixCol%2 == 0 {
					colorIdx = int(b & 0xF)
				} else {
					colorIdx = int(b >> 4)
				}
			}
			if colorIdx == 0 {
				continue
			}

			if mode == 2 {
				p.objWindow[screenX] = true
				continue
			}

			var paletteOff uint32
			if is8bpp {
				paletteOff = 0x200 + uint32(colorIdx)*2
			} else {
				paletteOff = 0x200 + uint32(palette*16+colorIdx)*2
			}
			c := colorFromPalette(p.bus.PaletteHalf(paletteOff), 4)
			c.forceBlend = mode == 1
			sl.oam[priority][screenX] = c
		}
	}
}
