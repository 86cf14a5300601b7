package ppu

import "github.com/hades-go/goba/ioregs"

func bgOffsetRegs(bg int) (hofsOff, vofsOff uint32) {
	base := uint32(ioregs.BG0HOFS + bg*4)
	return base, base + 2
}

// textMapSizes gives the tile-grid dimensions (in tiles) for BGxCNT's
// screen-size field in text mode.
var textMapSizes = [4][2]int{{32, 32}, {64, 32}, {32, 64}, {64, 64}}

// screenBlockFor returns which of the up to four 2KiB screen blocks a
// (tileX, tileY) tile coordinate falls into for the given text-mode size.
func screenBlockFor(size, tileX, tileY int) int {
	switch size {
	case 0:
		return 0
	case 1:
		return tileX / 32
	case 2:
		return tileY / 32
	default:
		return (tileY/32)*2 + tileX/32
	}
}

// renderBackgroundText rasterises one scanline of a tile-mode (regular)
// background into scanline.bg, replacing its previous contents entirely.
func (p *PPU) renderBackgroundText(sl *scanline, y uint16, bg int) {
	for x := range sl.bg {
		sl.bg[x] = richColor{}
	}

	hofsOff, vofsOff := bgOffsetRegs(bg)
	hofs := p.io.Read16(hofsOff) & 0x1FF
	vofs := p.io.Read16(vofsOff) & 0x1FF

	size := int(p.io.BGScreenSize(bg))
	mapW, mapH := textMapSizes[size][0], textMapSizes[size][1]
	charBase := uint32(p.io.BGCharBase(bg)) * 0x4000
	screenBase := uint32(p.io.BGScreenBase(bg)) * 0x800
	is8bpp := p.io.BG256Colour(bg)

	effY := (int(y) + int(vofs)) % (mapH * 8)
	tileY := effY / 8
	py := effY % 8

	for x := 0; x < ScreenWidth; x++ {
		effX := (x + int(hofs)) % (mapW * 8)
		tileX := effX / 8

		block := screenBlockFor(size, tileX, tileY)
		localTileX, localTileY := tileX%32, tileY%32
		entryAddr := screenBase + uint32(block)*0x800 + uint32(localTileY*32+localTileX)*2
		entry := p.bus.VRAMHalf(entryAddr)

		tileNum := entry & 0x3FF
		hFlip := entry&(1<<10) != 0
		vFlip := entry&(1<<11) != 0
		palette := int((entry >> 12) & 0xF)

		px := effX % 8
		tpy := py
		if vFlip {
			tpy = 7 - tpy
		}
		tpx := px
		if hFlip {
			tpx = 7 - tpx
		}

		var colorIdx int
		var paletteOff uint32
		if is8bpp {
			addr := charBase + uint32(tileNum)*64 + uint32(tpy*8+tpx)
			colorIdx = int(p.bus.VRAMByte(addr))
			paletteOff = uint32(colorIdx) * 2
		} else {
			addr := charBase + uint32(tileNum)*32 + uint32(tpy*4+tpx/2)
			b := p.bus.VRAMByte(addr)
			if tpx%2 == 0 {
				colorIdx = int(b & 0xF)
			} else {
				colorIdx = int(b >> 4)
			}
			paletteOff = uint32(palette*16+colorIdx) * 2
		}

		if colorIdx == 0 {
			continue
		}
		sl.bg[x] = colorFromPalette(p.bus.PaletteHalf(paletteOff), bg)
	}
}

// affineMapSizes gives the pixel width/height of an affine background for
// its BGxCNT screen-size field (always square, 8bpp, single screen block).
var affineMapSizes = [4]int{128, 256, 512, 1024}

// renderBackgroundAffine rasterises one scanline of BG2 or BG3 in affine
// mode using that background's live internal reference-point registers,
// which ppu.go steps forward by PB/PD once per scanline.
func (p *PPU) renderBackgroundAffine(sl *scanline, y uint16, bg int) {
	idx := bg - 2
	if idx < 0 || idx > 1 {
		return
	}
	aff := &p.affine[idx]

	size := affineMapSizes[p.io.BGScreenSize(bg)]
	charBase := uint32(p.io.BGCharBase(bg)) * 0x4000
	screenBase := uint32(p.io.BGScreenBase(bg)) * 0x800
	wrap := p.io.BGAffineWrap(bg)

	for x := 0; x < ScreenWidth; x++ {
		texX := (aff.x + int64(aff.pa)*int64(x)) >> 8
		texY := (aff.y + int64(aff.pc)*int64(x)) >> 8

		if wrap {
			texX = ((texX % int64(size)) + int64(size)) % int64(size)
			texY = ((texY % int64(size)) + int64(size)) % int64(size)
		} else if texX < 0 || texY < 0 || texX >= int64(size) || texY >= int64(size) {
			continue
		}

		tileX, tileY := int(texX)/8, int(texY)/8
		tilesPerRow := size / 8
		entryAddr := screenBase + uint32(tileY*tilesPerRow+tileX)
		tileNum := p.bus.VRAMByte(entryAddr)

		px, py := int(texX)%8, int(texY)%8
		addr := charBase + uint32(tileNum)*64 + uint32(py*8+px)
		colorIdx := p.bus.VRAMByte(addr)
		if colorIdx == 0 {
			continue
		}
		sl.bg[x] = colorFromPalette(p.bus.PaletteHalf(uint32(colorIdx)*2), bg)
	}
}

// renderBackgroundBitmap rasterises BG2 in mode 3 (direct 15-bit colour,
// single-buffered) or mode 4 (8bpp indexed, double-buffered by DISPCNT.4).
func (p *PPU) renderBackgroundBitmap(sl *scanline, y uint16, indexed bool) {
	aff := &p.affine[0]
	frameOffset := uint32(0)
	if indexed && p.io.Read16(ioregs.DISPCNT)&(1<<4) != 0 {
		frameOffset = 0xA000
	}

	for x := 0; x < ScreenWidth; x++ {
		texX := (aff.x + int64(aff.pa)*int64(x)) >> 8
		texY := (aff.y + int64(aff.pc)*int64(x)) >> 8
		if texX < 0 || texY < 0 || texX >= ScreenWidth || texY >= ScreenHeight {
			continue
		}

		if indexed {
			addr := frameOffset + uint32(int(texY)*ScreenWidth+int(texX))
			colorIdx := p.bus.VRAMByte(addr)
			if colorIdx == 0 {
				continue
			}
			sl.bg[x] = colorFromPalette(p.bus.PaletteHalf(uint32(colorIdx)*2), 2)
		} else {
			addr := uint32((int(texY)*ScreenWidth + int(texX)) * 2)
			raw := p.bus.VRAMHalf(addr)
			sl.bg[x] = colorFromPalette(raw, 2)
		}
	}
}

// renderBackgroundBitmapSmall rasterises BG2 in mode 5: a 160x128
// double-buffered 15-bit bitmap, smaller than the visible screen.
func (p *PPU) renderBackgroundBitmapSmall(sl *scanline, y uint16) {
	const w, h = 160, 128
	aff := &p.affine[0]
	frameOffset := uint32(0)
	if p.io.Read16(ioregs.DISPCNT)&(1<<4) != 0 {
		frameOffset = 0xA000
	}

	for x := 0; x < ScreenWidth; x++ {
		texX := (aff.x + int64(aff.pa)*int64(x)) >> 8
		texY := (aff.y + int64(aff.pc)*int64(x)) >> 8
		if texX < 0 || texY < 0 || texX >= w || texY >= h {
			continue
		}
		addr := frameOffset + uint32((int(texY)*w+int(texX))*2)
		raw := p.bus.VRAMHalf(addr)
		sl.bg[x] = colorFromPalette(raw, 2)
	}
}
