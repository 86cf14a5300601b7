package cpu

import "strings"

// Mode is one of the ARM7TDMI's seven privileged/user execution modes.
type Mode uint32

const (
	ModeUsr Mode = 0b10000
	ModeFIQ Mode = 0b10001
	ModeIRQ Mode = 0b10010
	ModeSVC Mode = 0b10011
	ModeABT Mode = 0b10111
	ModeUND Mode = 0b11011
	ModeSYS Mode = 0b11111
)

// Status holds the NZCV condition flags plus the I/F/T control bits and the
// current privilege mode -- the bits of CPSR/SPSR this engine actually
// interprets. Unlike a Cortex-M CPSR, there is no IT-block state: the
// ARM7TDMI has no Thumb-2 IT instruction.
type Status struct {
	Negative bool
	Zero     bool
	Carry    bool
	Overflow bool

	IRQDisable bool
	FIQDisable bool
	Thumb      bool
	Mode       Mode
}

// Raw packs the status into its 32-bit CPSR/SPSR representation.
func (s Status) Raw() uint32 {
	var v uint32
	if s.Negative {
		v |= 1 << 31
	}
	if s.Zero {
		v |= 1 << 30
	}
	if s.Carry {
		v |= 1 << 29
	}
	if s.Overflow {
		v |= 1 << 28
	}
	if s.IRQDisable {
		v |= 1 << 7
	}
	if s.FIQDisable {
		v |= 1 << 6
	}
	if s.Thumb {
		v |= 1 << 5
	}
	v |= uint32(s.Mode) & 0x1F
	return v
}

// FromRaw unpacks a 32-bit CPSR/SPSR value into a Status.
func FromRaw(v uint32) Status {
	return Status{
		Negative:   v&(1<<31) != 0,
		Zero:       v&(1<<30) != 0,
		Carry:      v&(1<<29) != 0,
		Overflow:   v&(1<<28) != 0,
		IRQDisable: v&(1<<7) != 0,
		FIQDisable: v&(1<<6) != 0,
		Thumb:      v&(1<<5) != 0,
		Mode:       Mode(v & 0x1F),
	}
}

// condFlagsNibble returns the NZCV flags as a 4-bit value (N in bit 3, V in
// bit 0); the condition LUT lookup shifts it into its index's top nibble.
func (s Status) condFlagsNibble() uint8 {
	var v uint8
	if s.Negative {
		v |= 1 << 3
	}
	if s.Zero {
		v |= 1 << 2
	}
	if s.Carry {
		v |= 1 << 1
	}
	if s.Overflow {
		v |= 1 << 0
	}
	return v
}

func (s Status) String() string {
	var b strings.Builder
	flag := func(on bool, c, n byte) {
		if on {
			b.WriteByte(c)
		} else {
			b.WriteByte(n)
		}
	}
	flag(s.Negative, 'N', 'n')
	flag(s.Zero, 'Z', 'z')
	flag(s.Carry, 'C', 'c')
	flag(s.Overflow, 'V', 'v')
	flag(s.IRQDisable, 'I', 'i')
	flag(s.FIQDisable, 'F', 'f')
	flag(s.Thumb, 'T', 't')
	return b.String()
}

func isNegative32(v uint32) bool { return v&0x8000_0000 != 0 }
func isZero32(v uint32) bool     { return v == 0 }

// addCarry reports the carry-out of a + b + carryIn as an unsigned 32-bit
// addition.
func addCarry(a, b uint32, carryIn uint32) bool {
	return uint64(a)+uint64(b)+uint64(carryIn) > 0xFFFF_FFFF
}

// addOverflow reports the signed overflow of a + b + carryIn.
func addOverflow(a, b uint32, carryIn uint32) bool {
	r := a + b + carryIn
	signA := a & 0x8000_0000
	signB := b & 0x8000_0000
	signR := r & 0x8000_0000
	return signA == signB && signR != signA
}

// subCarry reports the carry-out (i.e. NOT borrow) of a - b - borrowIn,
// following the ARM convention that subtraction is addition of the two's
// complement: carry == no borrow occurred.
func subCarry(a, b uint32, borrowIn uint32) bool {
	return uint64(a) >= uint64(b)+uint64(borrowIn)
}

func subOverflow(a, b uint32, borrowIn uint32) bool {
	r := a - b - borrowIn
	signA := a & 0x8000_0000
	signB := b & 0x8000_0000
	signR := r & 0x8000_0000
	return signA != signB && signR != signA
}
