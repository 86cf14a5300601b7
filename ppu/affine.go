package ppu

import "github.com/hades-go/goba/ioregs"

// affineState holds one affine background's live reference-point
// registers: X/Y are 20.8 fixed-point, reloaded from BG2X/Y (or BG3X/Y) at
// the start of VBlank (or at the next HDraw after NotifyAffineWrite), then
// stepped forward every scanline by
// PB/PD so per-pixel rendering only needs to add PA/PC times the column.
type affineState struct {
	x, y       int64
	pa, pb, pc, pd int32
}

func signExtend28(v uint32) int64 {
	if v&(1<<27) != 0 {
		return int64(v) - (1 << 28)
	}
	return int64(v)
}

func signExtend16(v uint16) int32 {
	return int32(int16(v))
}

// reloadAffineRegisters reloads BG2 (idx 0) or BG3 (idx 1)'s internal
// reference point from its X/Y/PA-PD registers; called at VBlank start and
// at the next HDraw after NotifyAffineWrite.
func (p *PPU) reloadAffineRegisters(idx int) {
	var xOff, yOff, paOff, pbOff, pcOff, pdOff uint32
	if idx == 0 {
		xOff, yOff = ioregs.BG2X, ioregs.BG2Y
		paOff, pbOff, pcOff, pdOff = ioregs.BG2PA, ioregs.BG2PB, ioregs.BG2PC, ioregs.BG2PD
	} else {
		xOff, yOff = ioregs.BG3X, ioregs.BG3Y
		paOff, pbOff, pcOff, pdOff = ioregs.BG3PA, ioregs.BG3PB, ioregs.BG3PC, ioregs.BG3PD
	}

	aff := &p.affine[idx]
	aff.x = signExtend28(p.io.Read32(xOff) & 0x0FFFFFFF)
	aff.y = signExtend28(p.io.Read32(yOff) & 0x0FFFFFFF)
	aff.pa = signExtend16(p.io.Read16(paOff))
	aff.pb = signExtend16(p.io.Read16(pbOff))
	aff.pc = signExtend16(p.io.Read16(pcOff))
	aff.pd = signExtend16(p.io.Read16(pdOff))
}

// stepAffineRegisters advances both affine backgrounds' reference points by
// one scanline's worth of PB/PD, called once per HBlank.
func (p *PPU) stepAffineRegisters() {
	for i := range p.affine {
		p.affine[i].x += int64(p.affine[i].pb)
		p.affine[i].y += int64(p.affine[i].pd)
	}
}
