package bus

import "encoding/binary"

// The PPU and APU read VRAM, palette RAM and OAM over their own internal
// bus, distinct from the CPU's; these accessors skip the access-cycle
// bookkeeping Read8/Read16/Read32 perform, matching that separation.

// VRAMByte returns the byte at VRAM offset off (wrapped into the 96KiB
// window the same way a CPU access would be).
func (b *Bus) VRAMByte(off uint32) byte { return b.vram[vramOffset(off)] }

// VRAMHalf returns the little-endian half-word at VRAM offset off.
func (b *Bus) VRAMHalf(off uint32) uint16 {
	o := vramOffset(off &^ 1)
	return binary.LittleEndian.Uint16(b.vram[o:])
}

// PaletteHalf returns the little-endian half-word at palette RAM offset off.
func (b *Bus) PaletteHalf(off uint32) uint16 {
	o := off & (PalSize - 1) &^ 1
	return binary.LittleEndian.Uint16(b.pal[o:])
}

// OAMHalf returns the little-endian half-word at OAM offset off.
func (b *Bus) OAMHalf(off uint32) uint16 {
	o := off & (OamSize - 1) &^ 1
	return binary.LittleEndian.Uint16(b.oam[o:])
}
