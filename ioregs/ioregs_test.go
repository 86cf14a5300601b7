package ioregs_test

import (
	"testing"

	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/test"
)

func TestResetState(t *testing.T) {
	r := ioregs.New()
	test.Equate(t, r.Read16(ioregs.KEYINPUT), uint16(0x3FF))
	test.Equate(t, r.Read16(ioregs.DISPCNT), uint16(0))
}

func TestReadWriteWidths(t *testing.T) {
	r := ioregs.New()

	r.Write32(ioregs.BG2X, 0x12345678)
	test.Equate(t, r.Read32(ioregs.BG2X), uint32(0x12345678))
	test.Equate(t, r.Read16(ioregs.BG2X), uint16(0x5678))
	test.Equate(t, r.Read8(ioregs.BG2X), uint8(0x78))
}

func TestBGModeAndEnable(t *testing.T) {
	r := ioregs.New()
	r.Write16(ioregs.DISPCNT, 0x0103) // mode 3, bg0 enabled (bit 8)
	test.Equate(t, r.BGMode(), uint16(3))
	test.Equate(t, r.BGEnabled(0), true)
	test.Equate(t, r.BGEnabled(1), false)
}

func TestDispstatBits(t *testing.T) {
	r := ioregs.New()
	r.SetVBlank(true)
	test.Equate(t, r.VBlank(), true)
	r.SetVBlank(false)
	test.Equate(t, r.VBlank(), false)

	r.SetHBlank(true)
	test.Equate(t, r.HBlank(), true)
}

func TestInterruptPending(t *testing.T) {
	r := ioregs.New()
	test.Equate(t, r.InterruptPending(), false)

	r.Write16(ioregs.IE, 1<<ioregs.IRQVBlank)
	r.RaiseInterrupt(ioregs.IRQVBlank)
	r.Write16(ioregs.IME, 1)
	test.Equate(t, r.InterruptPending(), true)

	r.AckInterrupt(ioregs.IRQVBlank)
	test.Equate(t, r.InterruptPending(), false)
}

func TestKeyRoundTrip(t *testing.T) {
	r := ioregs.New()
	test.Equate(t, r.KeyPressed(0), false)

	r.SetKey(0, true)
	test.Equate(t, r.KeyPressed(0), true)
	test.Equate(t, r.Read16(ioregs.KEYINPUT), uint16(0x3FE))

	r.SetKey(0, false)
	test.Equate(t, r.Read16(ioregs.KEYINPUT), uint16(0x3FF))
}

func TestKeypadIRQCondition(t *testing.T) {
	r := ioregs.New()

	// require A (bit0) AND B (bit1), armed, AND mode
	r.Write16(ioregs.KEYCNT, (1<<14)|(1<<15)|0b11)
	test.Equate(t, r.KeypadIRQCondition(), false)

	r.SetKey(0, true)
	test.Equate(t, r.KeypadIRQCondition(), false)

	r.SetKey(1, true)
	test.Equate(t, r.KeypadIRQCondition(), true)
}
