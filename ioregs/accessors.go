package ioregs

// This file recovers the packed-struct view of the registers whose bit
// layouts matter to the engine's own logic (everything the CPU/PPU/APU/DMA
// code branches on), via pure accessor pairs over the raw integer storage.
// Registers not named here (SIOCNT, RCNT, ...) are still reachable through
// Read16/Write16 but are never decomposed into fields because nothing in
// this engine interprets their bits.

// DISPCNT ------------------------------------------------------------

// BGMode returns DISPCNT.{0-2}, the background mode (0..5).
func (r *Registers) BGMode() uint16 { return uint16(getBits(uint32(r.Read16(DISPCNT)), 0, 3)) }

// BGEnabled reports whether background layer bg (0..3) is enabled via
// DISPCNT.8+bg.
func (r *Registers) BGEnabled(bg int) bool {
	return getBits(uint32(r.Read16(DISPCNT)), uint(8+bg), uint(9+bg)) != 0
}

// OBJEnabled reports DISPCNT.12, the sprite layer enable bit.
func (r *Registers) OBJEnabled() bool {
	return getBits(uint32(r.Read16(DISPCNT)), 12, 13) != 0
}

// ForcedBlank reports DISPCNT.7.
func (r *Registers) ForcedBlank() bool {
	return getBits(uint32(r.Read16(DISPCNT)), 7, 8) != 0
}

// WindowEnabled reports whether window 0, window 1 or the OBJ window (idx
// 0, 1, 2) is enabled via DISPCNT.13+idx.
func (r *Registers) WindowEnabled(idx int) bool {
	return getBits(uint32(r.Read16(DISPCNT)), uint(13+idx), uint(14+idx)) != 0
}

// DISPSTAT -------------------------------------------------------------

// SetVBlank sets or clears DISPSTAT.0.
func (r *Registers) SetVBlank(on bool) { r.setDispstatBit(0, on) }

// VBlank reports DISPSTAT.0.
func (r *Registers) VBlank() bool { return r.dispstatBit(0) }

// SetHBlank sets or clears DISPSTAT.1.
func (r *Registers) SetHBlank(on bool) { r.setDispstatBit(1, on) }

// HBlank reports DISPSTAT.1.
func (r *Registers) HBlank() bool { return r.dispstatBit(1) }

// SetVCountMatch sets or clears DISPSTAT.2.
func (r *Registers) SetVCountMatch(on bool) { r.setDispstatBit(2, on) }

// VBlankIRQEnabled reports DISPSTAT.3.
func (r *Registers) VBlankIRQEnabled() bool { return r.dispstatBit(3) }

// HBlankIRQEnabled reports DISPSTAT.4.
func (r *Registers) HBlankIRQEnabled() bool { return r.dispstatBit(4) }

// VCountIRQEnabled reports DISPSTAT.5.
func (r *Registers) VCountIRQEnabled() bool { return r.dispstatBit(5) }

// VCountTarget returns DISPSTAT.{8-15}, the VCOUNT value to compare against.
func (r *Registers) VCountTarget() uint16 {
	return uint16(getBits(uint32(r.Read16(DISPSTAT)), 8, 16))
}

func (r *Registers) dispstatBit(bit uint) bool {
	return getBits(uint32(r.Read16(DISPSTAT)), bit, bit+1) != 0
}

func (r *Registers) setDispstatBit(bit uint, on bool) {
	v := uint32(r.Read16(DISPSTAT))
	if on {
		v = setBits(v, bit, bit+1, 1)
	} else {
		v = setBits(v, bit, bit+1, 0)
	}
	r.Write16(DISPSTAT, uint16(v))
}

// VCOUNT -----------------------------------------------------------------

// SetVCount stores the current scanline number.
func (r *Registers) SetVCount(line uint16) { r.Write16(VCOUNT, line&0x1FF) }

// GetVCount returns the current scanline number.
func (r *Registers) GetVCount() uint16 { return r.Read16(VCOUNT) & 0x1FF }

// BGxCNT -------------------------------------------------------------

// bgCntOffset returns the register offset for background layer bg (0..3).
func bgCntOffset(bg int) uint32 {
	return uint32(BG0CNT + bg*2)
}

// BGPriority returns BGxCNT.{0-1}.
func (r *Registers) BGPriority(bg int) uint16 {
	return uint16(getBits(uint32(r.Read16(bgCntOffset(bg))), 0, 2))
}

// BGCharBase returns BGxCNT.{2-3} in units of 16KiB.
func (r *Registers) BGCharBase(bg int) uint16 {
	return uint16(getBits(uint32(r.Read16(bgCntOffset(bg))), 2, 4))
}

// BGMosaic reports BGxCNT.6.
func (r *Registers) BGMosaic(bg int) bool {
	return getBits(uint32(r.Read16(bgCntOffset(bg))), 6, 7) != 0
}

// BG256Colour reports BGxCNT.7 (0=16/16, 1=256/1).
func (r *Registers) BG256Colour(bg int) bool {
	return getBits(uint32(r.Read16(bgCntOffset(bg))), 7, 8) != 0
}

// BGScreenBase returns BGxCNT.{8-12} in units of 2KiB.
func (r *Registers) BGScreenBase(bg int) uint16 {
	return uint16(getBits(uint32(r.Read16(bgCntOffset(bg))), 8, 13))
}

// BGAffineWrap reports BGxCNT.13 (affine BGs only).
func (r *Registers) BGAffineWrap(bg int) bool {
	return getBits(uint32(r.Read16(bgCntOffset(bg))), 13, 14) != 0
}

// BGScreenSize returns BGxCNT.{14-15}.
func (r *Registers) BGScreenSize(bg int) uint16 {
	return uint16(getBits(uint32(r.Read16(bgCntOffset(bg))), 14, 16))
}

// WAITCNT -----------------------------------------------------------------

// SRAMWaitControl returns WAITCNT.{0-1}.
func (r *Registers) SRAMWaitControl() uint16 {
	return uint16(getBits(uint32(r.Read16(WAITCNT)), 0, 2))
}

// ROMWaitControl returns the (first, second) wait-control fields for ROM
// region idx (0..2): WAITCNT bits {2-3, 4}, {5-6, 7}, {8-9, 10} respectively.
func (r *Registers) ROMWaitControl(region int) (first, second uint16) {
	v := uint32(r.Read16(WAITCNT))
	switch region {
	case 0:
		return uint16(getBits(v, 2, 4)), uint16(getBits(v, 4, 5))
	case 1:
		return uint16(getBits(v, 5, 7)), uint16(getBits(v, 7, 8))
	default:
		return uint16(getBits(v, 8, 10)), uint16(getBits(v, 10, 11))
	}
}

// PrefetchEnabled reports WAITCNT.14.
func (r *Registers) PrefetchEnabled() bool {
	return getBits(uint32(r.Read16(WAITCNT)), 14, 15) != 0
}

// Interrupts --------------------------------------------------------------

// InterruptEnable returns IE.
func (r *Registers) InterruptEnable() uint16 { return r.Read16(IE) }

// InterruptFlags returns IF.
func (r *Registers) InterruptFlags() uint16 { return r.Read16(IF) }

// RaiseInterrupt sets bit irq of IF.
func (r *Registers) RaiseInterrupt(irq uint) {
	r.Write16(IF, r.Read16(IF)|(1<<irq))
}

// AckInterrupt clears bit irq of IF; real hardware acknowledges an
// interrupt by writing a 1 to the bit, which clears it.
func (r *Registers) AckInterrupt(irq uint) {
	r.Write16(IF, r.Read16(IF)&^(1<<irq))
}

// MasterInterruptEnabled returns IME.0.
func (r *Registers) MasterInterruptEnabled() bool {
	return r.Read16(IME)&1 != 0
}

// InterruptPending reports whether the master interrupt line is asserted:
// (IE & IF) != 0 && IME.0, per spec.md's invariant. CPSR.I is checked by
// the CPU, not here.
func (r *Registers) InterruptPending() bool {
	return r.InterruptEnable()&r.InterruptFlags() != 0 && r.MasterInterruptEnabled()
}

// Interrupt bit indices, in IE/IF bit order.
const (
	IRQVBlank = iota
	IRQHBlank
	IRQVCount
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQTimer3
	IRQSerial
	IRQDMA0
	IRQDMA1
	IRQDMA2
	IRQDMA3
	IRQKeypad
	IRQGamepak
)

// Keypad -------------------------------------------------------------

// SetKey sets or clears a KEYINPUT bit (active low: 0 == pressed).
func (r *Registers) SetKey(bit uint, pressed bool) {
	v := r.Read16(KEYINPUT)
	if pressed {
		v &^= 1 << bit
	} else {
		v |= 1 << bit
	}
	r.Write16(KEYINPUT, v)
}

// KeyPressed reports whether bit of KEYINPUT reads as pressed.
func (r *Registers) KeyPressed(bit uint) bool {
	return r.Read16(KEYINPUT)&(1<<bit) == 0
}

// KeypadIRQCondition evaluates KEYCNT against the current KEYINPUT state.
// Bit 14 arms the condition; bit 15 selects AND (every selected key must be
// pressed) vs OR (any selected key pressed). Bits 0-9 select which keys
// participate.
func (r *Registers) KeypadIRQCondition() bool {
	cnt := r.Read16(KEYCNT)
	if cnt&(1<<14) == 0 {
		return false
	}

	selected := cnt & 0x3FF
	pressedMask := (^r.Read16(KEYINPUT)) & 0x3FF

	if cnt&(1<<15) != 0 {
		return selected != 0 && pressedMask&selected == selected
	}
	return pressedMask&selected != 0
}
