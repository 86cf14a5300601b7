package cpu

import (
	"github.com/hades-go/goba/bus"
	"github.com/hades-go/goba/logger"
	"github.com/hades-go/goba/scheduler"
)

// RunState is the CPU's top-level execution state, checked once per Step
// before anything else runs.
type RunState int

const (
	Running RunState = iota
	Halted           // HALTCNT write; resumes on any enabled interrupt
	Stopped          // STOP instruction semantics; resumes on keypad/reset
)

const (
	AccessNonSequential = bus.NonSequential
	AccessSequential    = bus.Sequential
)

// pcReg is the conventional index of the program counter within the
// unbanked register file.
const (
	lrReg = 14
	pcReg = 15
)

// CPU holds the full ARM7TDMI programmer-visible state: the sixteen
// general-purpose registers as seen by the current mode, the banked copies
// belonging to other modes, CPSR, one SPSR per privileged mode and the
// two-stage fetch pipeline that makes PC always read two instructions
// ahead of the one being executed.
type CPU struct {
	Reg [16]uint32
	CPSR Status

	// bankedFIQ holds r8-r12 for FIQ mode while the System/User bank sits in
	// Reg; all other modes share r8-r12 with User/System.
	bankedFIQ [5]uint32
	usrR8_12  [5]uint32

	// bankedLR/bankedSP hold r14/r13 for every mode that banks them
	// (FIQ, IRQ, SVC, ABT, UND); index by bankIndex(mode).
	bankedSP [6]uint32
	bankedLR [6]uint32

	spsr [6]Status // indexed by bankIndex(mode); SPSR_usr/sys unused (index 0)

	pipeline    [2]uint32
	pipelineAT  [2]bus.AccessType
	pipelineLen int // 0, 1 or 2 valid pipeline slots; <2 right after a branch

	State RunState

	bus   *bus.Bus
	sched *scheduler.Scheduler
	// engine is passed back to the scheduler as the opaque handle delivered
	// to event callbacks (the owning gba.Engine); set once via SetEngine.
	engine interface{}

	IRQLine bool // level-triggered, driven by the interrupt controller each cycle

	cycles uint64
}

// bankIndex maps a privileged mode to its banked-register slot; User and
// System share slot 0 (only used for SPSR, which they don't have).
func bankIndex(m Mode) int {
	switch m {
	case ModeFIQ:
		return 1
	case ModeIRQ:
		return 2
	case ModeSVC:
		return 3
	case ModeABT:
		return 4
	case ModeUND:
		return 5
	default:
		return 0
	}
}

// New constructs a CPU wired to b and sched; call Reset before stepping.
func New(b *bus.Bus, sched *scheduler.Scheduler) *CPU {
	return &CPU{bus: b, sched: sched}
}

// SetEngine records the value passed back to scheduler callbacks as their
// opaque engine handle; call once after the owning gba.Engine exists.
func (c *CPU) SetEngine(engine interface{}) { c.engine = engine }

// Reset puts the CPU in supervisor mode with IRQ/FIQ disabled, ARM state,
// PC at the reset vector, and an empty pipeline -- mirroring the real
// ARM7TDMI reset sequence (the BIOS itself performs further setup once it
// starts executing).
func (c *CPU) Reset() {
	c.Reg = [16]uint32{}
	c.bankedFIQ = [5]uint32{}
	c.usrR8_12 = [5]uint32{}
	c.bankedSP = [6]uint32{}
	c.bankedLR = [6]uint32{}
	c.spsr = [6]Status{}

	c.CPSR = Status{IRQDisable: true, FIQDisable: true, Mode: ModeSVC}
	c.State = Running
	c.pipelineLen = 0
	c.cycles = 0

	c.Reg[pcReg] = 0x0000_0000
	c.flushPipeline()
}

// Stopped reports whether the CPU is in a non-running state, satisfying
// scheduler.Stepper; STOP is driven back to Running only by the keypad
// interrupt path, HALT by any enabled interrupt reaching the core.
func (c *CPU) Stopped() bool { return c.State != Running }

// SkipBIOS places the CPU directly in the state the reference BIOS leaves
// it in just before jumping to cartridge code, for a RESET message with
// SkipBIOS set: System mode, IRQs enabled, PC at the cartridge entry point,
// and the three banked stack pointers the BIOS itself sets up before
// handing off control. Must be called after Reset.
func (c *CPU) SkipBIOS() {
	c.bankedSP[bankIndex(ModeSVC)] = 0x0300_7FE0
	c.bankedSP[bankIndex(ModeIRQ)] = 0x0300_7FA0
	c.Reg[13] = 0x0300_7F00 // System/User SP

	c.CPSR = Status{Mode: ModeSYS}
	c.Reg[pcReg] = 0x0800_0000
	c.flushPipeline()
}

// switchMode swaps the banked register set for a mode transition, copying
// the outgoing mode's live r8-r14 into its bank and the incoming mode's
// bank into the live registers. CPSR.Mode itself is the caller's
// responsibility to set before or after calling this.
func (c *CPU) switchMode(from, to Mode) {
	if from == to {
		return
	}

	// Save outgoing r8-r12.
	if from == ModeFIQ {
		copy(c.bankedFIQ[:], c.Reg[8:13])
	} else {
		copy(c.usrR8_12[:], c.Reg[8:13])
	}
	// Save outgoing r13/r14 (User and System share one slot, index 0).
	fromIdx := bankIndex(from)
	c.bankedSP[fromIdx] = c.Reg[13]
	c.bankedLR[fromIdx] = c.Reg[14]

	// Load incoming r8-r12.
	if to == ModeFIQ {
		copy(c.Reg[8:13], c.bankedFIQ[:])
	} else {
		copy(c.Reg[8:13], c.usrR8_12[:])
	}
	// Load incoming r13/r14.
	toIdx := bankIndex(to)
	c.Reg[13] = c.bankedSP[toIdx]
	c.Reg[14] = c.bankedLR[toIdx]
}

// setMode changes CPSR.Mode, switching banked registers accordingly. It
// does not touch SPSR; use enterException for exception entry, which also
// saves the return address and SPSR.
func (c *CPU) setMode(to Mode) {
	from := c.CPSR.Mode
	c.switchMode(from, to)
	c.CPSR.Mode = to
}

// CurrentSPSR returns a pointer to the SPSR banked for the current mode,
// or nil in User/System mode where no SPSR exists.
func (c *CPU) CurrentSPSR() *Status {
	idx := bankIndex(c.CPSR.Mode)
	if idx == 0 {
		return nil
	}
	return &c.spsr[idx]
}

func (c *CPU) fetchWidth() uint32 {
	if c.CPSR.Thumb {
		return 2
	}
	return 4
}

// flushPipeline discards any prefetched instructions; the next Step after
// a branch only fetches the first slot without executing, and the one
// after it fetches the second slot and then executes, matching the real
// core's refill-after-branch cost.
func (c *CPU) flushPipeline() {
	c.pipelineLen = 0
}

// advance charges n cycles to both the CPU's own running total and the
// shared scheduler cycle counter, driving any due events (PPU line
// transitions, timer overflows, DMA arming) before returning.
func (c *CPU) advance(n uint32) {
	c.cycles += uint64(n)
	c.sched.Advance(c.engine, uint64(n))
}

// Cycles returns the CPU's live cycle counter.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Step executes exactly one pipeline advance: if HALTed or STOPped it
// consumes one idle cycle, samples the IRQ line and returns; otherwise it
// fetches (refilling the two-deep pipeline as needed), decodes and executes
// a single instruction, advancing PC unless the instruction itself branched.
func (c *CPU) Step() {
	if c.State != Running {
		c.advance(1)
		c.bus.Idle(1)
		c.checkIRQ()
		return
	}

	width := c.fetchWidth()

	// Refill the pipeline to two valid entries before executing; a branch
	// leaves pipelineLen at 0, so the next Step only fetches one slot and
	// the Step after it fetches the second slot and executes.
	for c.pipelineLen < 2 {
		at := AccessSequential
		if c.pipelineLen == 0 {
			at = AccessNonSequential
		}
		pc := c.Reg[pcReg]
		var instr uint32
		var cycles uint32
		if c.CPSR.Thumb {
			v, cy := c.bus.Read16(pc, at)
			instr, cycles = uint32(v), cy
		} else {
			instr, cycles = c.bus.Read32(pc, at)
		}
		c.pipeline[c.pipelineLen] = instr
		c.pipelineAT[c.pipelineLen] = at
		c.pipelineLen++
		c.Reg[pcReg] = pc + width
		c.advance(cycles)
		if c.pipelineLen < 2 {
			return
		}
	}

	instr := c.pipeline[0]
	c.pipeline[0] = c.pipeline[1]
	c.pipelineAT[0] = c.pipelineAT[1]
	c.pipelineLen = 1

	pcBefore := c.Reg[pcReg]
	if c.CPSR.Thumb {
		c.executeThumb(uint16(instr))
	} else {
		c.executeARM(instr)
	}

	// A branch or mode-changing instruction rewrites PC directly and flushes
	// the pipeline (pipelineLen reset to 0 inside branchTo); anything else
	// leaves PC exactly where the fetch loop left it.
	_ = pcBefore

	c.checkIRQ()
}

// branchTo redirects the PC and discards the stale pipeline contents; ARM
// PC must land word-aligned, Thumb PC half-word-aligned.
func (c *CPU) branchTo(addr uint32) {
	if c.CPSR.Thumb {
		addr &^= 1
	} else {
		addr &^= 3
	}
	c.Reg[pcReg] = addr
	c.flushPipeline()
}

// checkIRQ samples the level-triggered IRQ line and, if unmasked, vectors
// to the IRQ exception; called once per Step after instruction execution
// rather than mid-instruction, matching the core's lack of mid-instruction
// interrupt points (data abort aside, which this engine does not model).
func (c *CPU) checkIRQ() {
	if c.State == Stopped {
		return
	}
	if !c.IRQLine || c.CPSR.IRQDisable {
		if c.IRQLine && c.State == Halted {
			c.State = Running
		}
		return
	}
	c.State = Running
	c.enterException(ModeIRQ, 0x18, 4)
}

// enterException performs the shared exception-entry sequence: bank into
// the handler mode, save CPSR to the new bank's SPSR, set LR to the return
// address, disable IRQ (and FIQ for reset/FIQ entry, handled by the
// caller), force ARM state, and branch to the vector.
func (c *CPU) enterException(mode Mode, vector uint32, lrOffset uint32) {
	returnAddr := c.Reg[pcReg] - c.pcAdjustForPipeline() + lrOffset
	savedCPSR := c.CPSR

	c.setMode(mode)
	*c.CurrentSPSR() = savedCPSR
	c.Reg[lrReg] = returnAddr

	c.CPSR.Thumb = false
	c.CPSR.IRQDisable = true
	if mode == ModeFIQ {
		c.CPSR.FIQDisable = true
	}

	c.branchTo(vector)
}

// pcAdjustForPipeline returns how far ahead of the executing instruction PC
// currently sits (two instructions, the pipeline depth) in the current
// instruction width.
func (c *CPU) pcAdjustForPipeline() uint32 {
	return 2 * c.fetchWidth()
}

// raiseSoftwareInterrupt is invoked by the SWI handlers; it performs the
// same exception entry as a hardware IRQ but to the SWI vector and without
// consulting CPSR.IRQDisable. LR holds the address of the instruction
// after the SWI.
func (c *CPU) raiseSoftwareInterrupt() {
	c.enterException(ModeSVC, 0x08, c.fetchWidth())
}

// raiseUndefined vectors to the undefined-instruction handler; reached
// when the decode tables have no entry for an opcode.
func (c *CPU) raiseUndefined() {
	logger.Logf("cpu", "undefined instruction at 0x%08X", c.Reg[pcReg]-c.pcAdjustForPipeline())
	c.enterException(ModeUND, 0x04, 4)
}

// Halt puts the CPU into the HALT low-power state; it resumes as soon as
// any enabled interrupt source becomes pending, checked in checkIRQ.
func (c *CPU) Halt() { c.State = Halted }

// StopRequest puts the CPU into the STOP low-power state.
func (c *CPU) StopRequest() { c.State = Stopped }

// Resume clears STOP, used by the keypad-interrupt wakeup path.
func (c *CPU) Resume() {
	if c.State == Stopped {
		c.State = Running
	}
}
