package cpu_test

import (
	"testing"

	"github.com/hades-go/goba/bus"
	"github.com/hades-go/goba/bus/backup"
	"github.com/hades-go/goba/cpu"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/scheduler"
	"github.com/hades-go/goba/test"
)

func newCPU(t *testing.T) (*cpu.CPU, *bus.Bus) {
	t.Helper()
	io := ioregs.New()
	sched := scheduler.New()
	b := bus.New(sched, io)
	rom := make([]byte, 1024)
	b.Reset(rom, make([]byte, bus.BiosSize), backup.None, nil, false)
	c := cpu.New(b, sched)
	c.Reset()
	return c, b
}

func TestResetState(t *testing.T) {
	c, _ := newCPU(t)
	test.Equate(t, c.CPSR.Mode, cpu.ModeSVC)
	test.Equate(t, c.CPSR.Thumb, false)
	test.Equate(t, c.Stopped(), false)
}

func TestStatusRawRoundTrip(t *testing.T) {
	s := cpu.Status{Negative: true, Carry: true, Thumb: true, Mode: cpu.ModeIRQ}
	got := cpu.FromRaw(s.Raw())
	test.Equate(t, got.Negative, true)
	test.Equate(t, got.Zero, false)
	test.Equate(t, got.Carry, true)
	test.Equate(t, got.Thumb, true)
	test.Equate(t, got.Mode, cpu.ModeIRQ)
}

// ARM MOV R0, #0x12 immediate data-processing encoding: cond=AL, op=MOV(0xD),
// S=0, Rd=0, rotate=0, imm=0x12.
func TestARMMovImmediate(t *testing.T) {
	c, b := newCPU(t)
	c.Reset()
	c.CPSR.Thumb = false
	c.Reg[15] = bus.IwramStart // BIOS ignores writes, so run from IWRAM

	instr := uint32(0xE3A00012) // MOV R0, #0x12
	b.Write32(bus.IwramStart, instr, bus.NonSequential)

	c.Step() // fetch MOV
	c.Step() // fetch the next word, execute MOV
	c.Step() // execute the following word
	test.Equate(t, c.Reg[0], uint32(0x12))
}

// Thumb MOV R1, #0x7F: format 3, op=00, Rd=1, imm=0x7F.
func TestThumbMovImmediate(t *testing.T) {
	c, b := newCPU(t)
	c.CPSR.Thumb = true
	c.CPSR.Mode = cpu.ModeSVC
	c.Reg[15] = bus.IwramStart // BIOS ignores writes, so run from IWRAM

	instr := uint16(0x217F) // MOV R1, #0x7F
	b.Write16(bus.IwramStart, instr, bus.NonSequential)

	c.Step()
	c.Step()
	c.Step()
	test.Equate(t, c.Reg[1], uint32(0x7F))
}

func TestHaltResumesOnIRQ(t *testing.T) {
	c, _ := newCPU(t)
	c.Halt()
	test.Equate(t, c.Stopped(), true)
	c.IRQLine = true
	c.CPSR.IRQDisable = false
	c.Step()
	test.Equate(t, c.Stopped(), false)
}
