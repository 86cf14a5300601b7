package backup_test

import (
	"testing"

	"github.com/hades-go/goba/bus/backup"
	"github.com/hades-go/goba/test"
)

func TestSRAMReadWrite(t *testing.T) {
	s := backup.New(backup.SRAM, nil)
	s.Write8(0x100, 0x42)
	test.Equate(t, s.Read8(0x100), uint8(0x42))
	test.Equate(t, s.Dirty(), true)
}

func TestFlash64KChipID(t *testing.T) {
	f := backup.New(backup.Flash64K, nil)

	f.Write8(0x5555, 0xAA)
	f.Write8(0x2AAA, 0x55)
	f.Write8(0x5555, 0x90)

	test.Equate(t, f.Read8(0x0000), uint8(0x32))
	test.Equate(t, f.Read8(0x0001), uint8(0x1B))

	f.Write8(0x5555, 0xAA)
	f.Write8(0x2AAA, 0x55)
	f.Write8(0x5555, 0xF0)

	f.Write8(0x5555, 0xAA)
	f.Write8(0x2AAA, 0x55)
	f.Write8(0x5555, 0xA0)
	f.Write8(0x0010, 0x77)

	test.Equate(t, f.Read8(0x0010), uint8(0x77))
}

func TestFlash64KChipErase(t *testing.T) {
	f := backup.New(backup.Flash64K, nil)

	f.Write8(0x5555, 0xAA)
	f.Write8(0x2AAA, 0x55)
	f.Write8(0x5555, 0xA0)
	f.Write8(0x0000, 0x11)
	test.Equate(t, f.Read8(0x0000), uint8(0x11))

	f.Write8(0x5555, 0xAA)
	f.Write8(0x2AAA, 0x55)
	f.Write8(0x5555, 0x80)
	f.Write8(0x5555, 0xAA)
	f.Write8(0x2AAA, 0x55)
	f.Write8(0x5555, 0x10)

	test.Equate(t, f.Read8(0x0000), uint8(0xFF))
}

func TestEEPROMWriteReadRoundTrip(t *testing.T) {
	e := backup.New(backup.EEPROM4K, nil)

	writeBits := func(bits ...uint8) {
		for _, b := range bits {
			e.Write8(0, b)
		}
	}

	// opcode 10 (write), 6-bit address 0, then 64 data bits; no trailing
	// bit is sent.
	bits := []uint8{1, 0}
	for i := 0; i < 6; i++ {
		bits = append(bits, 0)
	}
	for i := 0; i < 64; i++ {
		bit := uint8(0)
		if i == 63 {
			bit = 1
		}
		bits = append(bits, bit)
	}
	writeBits(bits...)
	test.Equate(t, e.Dirty(), true)

	// opcode 11 (read), 6-bit address 0, one filler bit, then read out.
	readBits := []uint8{1, 1}
	for i := 0; i < 6; i++ {
		readBits = append(readBits, 0)
	}
	readBits = append(readBits, 0) // filler bit
	writeBits(readBits...)

	for i := 0; i < 4; i++ {
		_ = e.Read8(0) // dummy bits
	}

	var out uint64
	for i := 0; i < 64; i++ {
		out = (out << 1) | uint64(e.Read8(0))
	}
	test.Equate(t, out, uint64(1))
}
