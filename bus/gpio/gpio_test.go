package gpio_test

import (
	"testing"

	"github.com/hades-go/goba/bus/gpio"
	"github.com/hades-go/goba/test"
)

const (
	pinSCK = 1 << 0
	pinSIO = 1 << 1
	pinCS  = 1 << 2
)

func encode(sck, sio, cs bool) uint16 {
	var v uint16
	if sck {
		v |= pinSCK
	}
	if sio {
		v |= pinSIO
	}
	if cs {
		v |= pinCS
	}
	return v
}

// sendByte shifts b into the RTC one bit at a time, MSB first, toggling
// SCK low then high (a rising edge) for every bit while CS stays asserted.
func sendByte(p *gpio.Port, b byte) {
	for i := 7; i >= 0; i-- {
		bit := (b>>uint(i))&1 != 0
		p.Write16(gpio.DataOffset, encode(false, bit, true))
		p.Write16(gpio.DataOffset, encode(true, bit, true))
	}
}

// readByte reconstructs one byte the RTC is shifting out over SIO, MSB
// first; the first output bit is already valid on entry (set by the
// preceding command byte's own decode), each subsequent bit requires one
// more SCK rising edge.
func readByte(p *gpio.Port) byte {
	var b byte
	for i := 0; i < 8; i++ {
		if p.Read16(gpio.DataOffset)&pinSIO != 0 {
			b |= 1 << uint(7-i)
		}
		p.Write16(gpio.DataOffset, encode(false, false, true))
		p.Write16(gpio.DataOffset, encode(true, false, true))
	}
	return b
}

func TestDisabledPortIgnoresAccess(t *testing.T) {
	var p gpio.Port
	p.Reset(false)
	test.Equate(t, p.Enabled(), false)

	p.Write16(gpio.ControlOffset, 1)
	sendByte(&p, 0x62)
	test.Equate(t, p.Read16(gpio.DataOffset), uint16(0))
}

func TestRTCControlWriteReadRoundTrip(t *testing.T) {
	var p gpio.Port
	p.Reset(true)
	test.Equate(t, p.Enabled(), true)

	p.Write16(gpio.ControlOffset, 1) // register window readable

	// write CONTROL (register 1): command 0110 001 0 = 0x62, payload 0x40.
	sendByte(&p, 0x62)
	sendByte(&p, 0x40)
	p.Write16(gpio.DataOffset, encode(false, false, false)) // CS low, end transaction

	// read CONTROL back: command 0110 001 1 = 0x63.
	sendByte(&p, 0x63)
	got := readByte(&p)
	p.Write16(gpio.DataOffset, encode(false, false, false))

	test.Equate(t, got, byte(0x40))
}

func TestRTCResetClearsControl(t *testing.T) {
	var p gpio.Port
	p.Reset(true)
	p.Write16(gpio.ControlOffset, 1)

	sendByte(&p, 0x62)
	sendByte(&p, 0x40)
	p.Write16(gpio.DataOffset, encode(false, false, false))

	// RESET is register 0, no payload: command 0110 000 0 = 0x60.
	sendByte(&p, 0x60)
	p.Write16(gpio.DataOffset, encode(false, false, false))

	sendByte(&p, 0x63)
	got := readByte(&p)
	p.Write16(gpio.DataOffset, encode(false, false, false))

	test.Equate(t, got, byte(0))
}
