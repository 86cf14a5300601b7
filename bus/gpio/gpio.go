// Package gpio implements the cartridge-side GPIO register window a small
// number of cartridges expose at the top of ROM0 (0x080000C4-0x080000C8)
// to bit-bang a peripheral -- in this engine's case, the real-time-clock
// chip carried by a ResetConfig.RTC cartridge. Most cartridges have no
// such hardware at all; Port stays disabled and every access falls
// through to ordinary ROM behaviour.
//
// Grounded on the register layout in the reference libgba gpio.h header
// (GPIO_REG_DATA/DIRECTION/CTRL, the RTC command/register encoding) and,
// for the serial protocol itself, on this engine's own bus/backup/eeprom.go
// bit-serial state machine -- except the RTC's transaction boundary is an
// SCK clock edge observed across successive writes to GPIO_REG_DATA,
// rather than one bit per backup-window access the way EEPROM's address
// bus naturally provides.
package gpio

// Register offsets, relative to the start of ROM (Rom0Start in the bus
// package), matching GPIO_REG_DATA/DIRECTION/CTRL.
const (
	DataOffset      = 0x00C4
	DirectionOffset = 0x00C6
	ControlOffset   = 0x00C8
)

const (
	pinSCK = 1 << 0
	pinSIO = 1 << 1
	pinCS  = 1 << 2
)

// Port is the GPIO register file plus the one peripheral this engine
// models behind it.
type Port struct {
	direction uint16 // bit i: 1 = GBA drives pin i, 0 = peripheral drives it
	data      uint16 // last pin levels written by software
	readable  bool   // GPIO_REG_CTRL.0: register window readable by the cartridge

	rtc rtc
}

// Reset reinitialises the port. present mirrors ResetConfig.RTC: when
// false the peripheral is absent and every register access is a no-op,
// matching a cartridge with no GPIO hardware at all.
func (p *Port) Reset(present bool) {
	*p = Port{}
	p.rtc.reset(present)
}

// Enabled reports whether this cartridge carries the modelled peripheral.
func (p *Port) Enabled() bool { return p.rtc.present }

// Intercepts reports whether off -- an offset from the start of ROM -- is
// one of the GPIO register half-words.
func Intercepts(off uint32) bool {
	off &^= 1
	return off == DataOffset || off == DirectionOffset || off == ControlOffset
}

// Read16 returns the GPIO register at off. Only called once Intercepts
// has reported true.
func (p *Port) Read16(off uint32) uint16 {
	if !p.rtc.present || !p.readable {
		return 0
	}
	switch off &^ 1 {
	case DataOffset:
		return p.pinsRead()
	case DirectionOffset:
		return p.direction
	case ControlOffset:
		return 1
	default:
		return 0
	}
}

// Write16 stores v into the GPIO register at off, driving the RTC's
// serial state machine forward on a write to the data register.
func (p *Port) Write16(off uint32, v uint16) {
	if !p.rtc.present {
		return
	}
	switch off &^ 1 {
	case DataOffset:
		p.data = v & 0xF
		p.rtc.clock(p.data&pinSCK != 0, p.data&pinSIO != 0, p.data&pinCS != 0)
	case DirectionOffset:
		p.direction = v & 0xF
	case ControlOffset:
		p.readable = v&1 != 0
	}
}

// pinsRead recombines the stored pin register with the RTC's own output:
// a pin the GBA configured as input (direction bit clear) reads back
// whatever the peripheral is currently driving rather than the last value
// software wrote.
func (p *Port) pinsRead() uint16 {
	v := p.data
	if p.direction&pinSIO == 0 {
		v &^= pinSIO
		if p.rtc.sioOut {
			v |= pinSIO
		}
	}
	return v
}
