package cpu

// ARM (32-bit) instruction decoding and execution. Every ARM instruction is
// conditionally executed; evalCondition gates the whole dispatch before any
// state is touched, matching the real core's behaviour of still costing a
// fetch cycle even when the condition fails.

func (c *CPU) executeARM(instr uint32) {
	cond := uint8(instr >> 28)
	if !c.evalCondition(cond) {
		return
	}

	switch {
	case instr&0x0FFFFFF0 == 0x012FFF10: // BX / BLX(2)
		c.armBranchExchange(instr)
	case instr&0x0E000000 == 0x0A000000: // B, BL
		c.armBranch(instr)
	case instr&0x0FB00000 == 0x01000000 && instr&0x00000010 == 0: // MRS
		c.armMRS(instr)
	case instr&0x0FB00000 == 0x03200000 || (instr&0x0FB00000 == 0x01200000 && instr&0x00000010 == 0): // MSR
		c.armMSR(instr)
	case instr&0x0FC000F0 == 0x00000090: // MUL/MLA
		c.armMultiply(instr)
	case instr&0x0F8000F0 == 0x00800090: // UMULL/UMLAL/SMULL/SMLAL
		c.armMultiplyLong(instr)
	case instr&0x0FB00FF0 == 0x01000090: // SWP/SWPB
		c.armSwap(instr)
	case instr&0x0E000090 == 0x00000090 && instr&0x00000060 != 0: // halfword/signed transfer
		c.armHalfwordTransfer(instr)
	case instr&0x0C000000 == 0x00000000: // data processing
		c.armDataProcessing(instr)
	case instr&0x0C000000 == 0x04000000: // single data transfer (LDR/STR)
		c.armSingleDataTransfer(instr)
	case instr&0x0E000000 == 0x08000000: // block data transfer (LDM/STM)
		c.armBlockDataTransfer(instr)
	case instr&0x0F000000 == 0x0F000000: // SWI
		c.raiseSoftwareInterrupt()
	default:
		c.raiseUndefined()
	}
}

// armOperand2 evaluates the shifter operand of a data-processing instruction,
// returning the operand value and its carry-out (used only when S is set).
func (c *CPU) armOperand2(instr uint32) (uint32, bool) {
	if instr&0x02000000 != 0 {
		// immediate: 8-bit value rotated right by 2*rotate
		imm := instr & 0xFF
		rotate := (instr >> 8) & 0xF
		if rotate == 0 {
			return imm, c.CPSR.Carry
		}
		return shift(ShiftROR, rotate*2, imm, c.CPSR.Carry)
	}

	rm := instr & 0xF
	typ := ShiftType((instr >> 5) & 0x3)

	var amount uint32
	if instr&0x10 != 0 {
		// shift amount in bottom byte of a register; PC read as +12 in this
		// form since it's a three-register operation
		rs := (instr >> 8) & 0xF
		amount = c.Reg[rs] & 0xFF
		value := c.regOperand(rm, 12)
		if amount == 0 {
			return value, c.CPSR.Carry
		}
		return shift(typ, amount, value, c.CPSR.Carry)
	}

	amount = (instr >> 7) & 0x1F
	value := c.regOperand(rm, 8)
	return shift(typ, amount, value, c.CPSR.Carry)
}

// regOperand reads a register operand, applying the ARM convention that
// reading PC mid-instruction yields PC + pcBias (8 normally, 12 when the
// shift amount itself comes from a register read one cycle later).
func (c *CPU) regOperand(reg uint32, pcBias uint32) uint32 {
	if reg == pcReg {
		return c.Reg[pcReg] + (pcBias - 2*c.fetchWidth())
	}
	return c.Reg[reg]
}

func (c *CPU) armDataProcessing(instr uint32) {
	setFlags := instr&0x00100000 != 0
	op := (instr >> 21) & 0xF
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF

	op2, shiftCarry := c.armOperand2(instr)
	lhs := c.regOperand(rn, 8)

	var result uint32
	writesResult := true

	switch op {
	case 0x0: // AND
		result = lhs & op2
	case 0x1: // EOR
		result = lhs ^ op2
	case 0x2: // SUB
		result = lhs - op2
		if setFlags {
			c.CPSR.Carry = subCarry(lhs, op2, 0)
			c.CPSR.Overflow = subOverflow(lhs, op2, 0)
		}
	case 0x3: // RSB
		result = op2 - lhs
		if setFlags {
			c.CPSR.Carry = subCarry(op2, lhs, 0)
			c.CPSR.Overflow = subOverflow(op2, lhs, 0)
		}
	case 0x4: // ADD
		result = lhs + op2
		if setFlags {
			c.CPSR.Carry = addCarry(lhs, op2, 0)
			c.CPSR.Overflow = addOverflow(lhs, op2, 0)
		}
	case 0x5: // ADC
		carryIn := uint32(0)
		if c.CPSR.Carry {
			carryIn = 1
		}
		result = lhs + op2 + carryIn
		if setFlags {
			c.CPSR.Carry = addCarry(lhs, op2, carryIn)
			c.CPSR.Overflow = addOverflow(lhs, op2, carryIn)
		}
	case 0x6: // SBC
		borrowIn := uint32(1)
		if c.CPSR.Carry {
			borrowIn = 0
		}
		result = lhs - op2 - borrowIn
		if setFlags {
			c.CPSR.Carry = subCarry(lhs, op2, borrowIn)
			c.CPSR.Overflow = subOverflow(lhs, op2, borrowIn)
		}
	case 0x7: // RSC
		borrowIn := uint32(1)
		if c.CPSR.Carry {
			borrowIn = 0
		}
		result = op2 - lhs - borrowIn
		if setFlags {
			c.CPSR.Carry = subCarry(op2, lhs, borrowIn)
			c.CPSR.Overflow = subOverflow(op2, lhs, borrowIn)
		}
	case 0x8: // TST
		result = lhs & op2
		writesResult = false
		if setFlags {
			c.CPSR.Carry = shiftCarry
		}
	case 0x9: // TEQ
		result = lhs ^ op2
		writesResult = false
		if setFlags {
			c.CPSR.Carry = shiftCarry
		}
	case 0xA: // CMP
		result = lhs - op2
		writesResult = false
		if setFlags {
			c.CPSR.Carry = subCarry(lhs, op2, 0)
			c.CPSR.Overflow = subOverflow(lhs, op2, 0)
		}
	case 0xB: // CMN
		result = lhs + op2
		writesResult = false
		if setFlags {
			c.CPSR.Carry = addCarry(lhs, op2, 0)
			c.CPSR.Overflow = addOverflow(lhs, op2, 0)
		}
	case 0xC: // ORR
		result = lhs | op2
	case 0xD: // MOV
		result = op2
	case 0xE: // BIC
		result = lhs &^ op2
	case 0xF: // MVN
		result = ^op2
	}

	if op == 0x0 || op == 0x1 || op == 0xC || op == 0xD || op == 0xE || op == 0xF {
		if setFlags {
			c.CPSR.Carry = shiftCarry
		}
	}

	if writesResult {
		c.Reg[rd] = result
		if rd == pcReg {
			if setFlags {
				if spsr := c.CurrentSPSR(); spsr != nil {
					c.CPSR = *spsr
				}
			}
			c.branchTo(result)
			return
		}
	}

	if setFlags {
		if rd == pcReg {
			if spsr := c.CurrentSPSR(); spsr != nil {
				c.CPSR = *spsr
			}
		} else {
			c.setNZ(result)
		}
	}
}

func (c *CPU) armMRS(instr uint32) {
	rd := (instr >> 12) & 0xF
	fromSPSR := instr&0x00400000 != 0
	if fromSPSR {
		if spsr := c.CurrentSPSR(); spsr != nil {
			c.Reg[rd] = spsr.Raw()
		}
	} else {
		c.Reg[rd] = c.CPSR.Raw()
	}
}

func (c *CPU) armMSR(instr uint32) {
	toSPSR := instr&0x00400000 != 0
	flagsOnly := instr&0x00010000 == 0

	var value uint32
	if instr&0x02000000 != 0 {
		imm := instr & 0xFF
		rotate := (instr >> 8) & 0xF
		value, _ = shift(ShiftROR, rotate*2, imm, false)
	} else {
		value = c.Reg[instr&0xF]
	}

	target := &c.CPSR
	if toSPSR {
		target = c.CurrentSPSR()
		if target == nil {
			return
		}
	}

	if flagsOnly {
		updated := FromRaw(value)
		target.Negative = updated.Negative
		target.Zero = updated.Zero
		target.Carry = updated.Carry
		target.Overflow = updated.Overflow
		return
	}

	if target == &c.CPSR {
		from := c.CPSR.Mode
		updated := FromRaw(value)
		c.switchMode(from, updated.Mode)
		c.CPSR = updated
	} else {
		*target = FromRaw(value)
	}
}

func (c *CPU) armMultiply(instr uint32) {
	accumulate := instr&0x00200000 != 0
	setFlags := instr&0x00100000 != 0
	rd := (instr >> 16) & 0xF
	rn := (instr >> 12) & 0xF
	rs := (instr >> 8) & 0xF
	rm := instr & 0xF

	result := c.Reg[rm] * c.Reg[rs]
	if accumulate {
		result += c.Reg[rn]
	}
	c.Reg[rd] = result
	if setFlags {
		c.setNZ(result)
	}
}

func (c *CPU) armMultiplyLong(instr uint32) {
	signed := instr&0x00400000 != 0
	accumulate := instr&0x00200000 != 0
	setFlags := instr&0x00100000 != 0
	rdHi := (instr >> 16) & 0xF
	rdLo := (instr >> 12) & 0xF
	rs := (instr >> 8) & 0xF
	rm := instr & 0xF

	var result uint64
	if signed {
		result = uint64(int64(int32(c.Reg[rm])) * int64(int32(c.Reg[rs])))
	} else {
		result = uint64(c.Reg[rm]) * uint64(c.Reg[rs])
	}
	if accumulate {
		result += uint64(c.Reg[rdHi])<<32 | uint64(c.Reg[rdLo])
	}
	c.Reg[rdLo] = uint32(result)
	c.Reg[rdHi] = uint32(result >> 32)
	if setFlags {
		c.CPSR.Zero = result == 0
		c.CPSR.Negative = result&0x8000_0000_0000_0000 != 0
	}
}

func (c *CPU) armSwap(instr uint32) {
	byteSwap := instr&0x00400000 != 0
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF
	rm := instr & 0xF

	addr := c.Reg[rn]
	if byteSwap {
		old, cy := c.bus.Read8(addr, AccessNonSequential)
		c.advance(cy)
		c.advance(c.bus.Write8(addr, uint8(c.Reg[rm]), AccessNonSequential))
		c.Reg[rd] = uint32(old)
	} else {
		old, cy := c.bus.Read32(addr, AccessNonSequential)
		c.advance(cy)
		c.advance(c.bus.Write32(addr, c.Reg[rm], AccessNonSequential))
		c.Reg[rd] = old
	}
}

func (c *CPU) armBranchExchange(instr uint32) {
	rm := instr & 0xF
	target := c.Reg[rm]
	c.CPSR.Thumb = target&1 != 0
	c.branchTo(target)
}

func (c *CPU) armBranch(instr uint32) {
	link := instr&0x01000000 != 0
	offset := int32(instr&0x00FFFFFF) << 8 >> 8 // sign-extend 24-bit value
	if link {
		c.Reg[lrReg] = c.Reg[pcReg] - 4
	}
	c.branchTo(uint32(int32(c.Reg[pcReg]) + offset*4))
}

// shifterOffset computes a register-specified, shifted offset for a single
// data transfer instruction (LDR/STR with a register offset form).
func (c *CPU) shifterOffset(instr uint32) uint32 {
	rm := instr & 0xF
	typ := ShiftType((instr >> 5) & 0x3)
	amount := (instr >> 7) & 0x1F
	v, _ := shift(typ, amount, c.Reg[rm], c.CPSR.Carry)
	return v
}

func (c *CPU) armSingleDataTransfer(instr uint32) {
	immediateOffset := instr&0x02000000 == 0
	preIndex := instr&0x01000000 != 0
	addOffset := instr&0x00800000 != 0
	byteTransfer := instr&0x00400000 != 0
	writeBack := instr&0x00200000 != 0
	load := instr&0x00100000 != 0
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF

	var offset uint32
	if immediateOffset {
		offset = instr & 0xFFF
	} else {
		offset = c.shifterOffset(instr)
	}

	base := c.Reg[rn]
	var addr uint32
	if addOffset {
		addr = base + offset
	} else {
		addr = base - offset
	}

	effective := base
	if preIndex {
		effective = addr
	}

	if load {
		if byteTransfer {
			v, cy := c.bus.Read8(effective, AccessNonSequential)
			c.Reg[rd] = uint32(v)
			c.advance(cy)
		} else {
			v, cy := c.bus.Read32(effective, AccessNonSequential)
			c.Reg[rd] = v
			c.advance(cy)
			if rd == pcReg {
				c.branchTo(v)
			}
		}
	} else {
		if byteTransfer {
			c.advance(c.bus.Write8(effective, uint8(c.Reg[rd]), AccessNonSequential))
		} else {
			c.advance(c.bus.Write32(effective, c.Reg[rd], AccessNonSequential))
		}
	}

	if !preIndex || writeBack {
		c.Reg[rn] = addr
	}
}

func (c *CPU) armHalfwordTransfer(instr uint32) {
	preIndex := instr&0x01000000 != 0
	addOffset := instr&0x00800000 != 0
	immediateOffset := instr&0x00400000 != 0
	writeBack := instr&0x00200000 != 0
	load := instr&0x00100000 != 0
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF
	sh := (instr >> 5) & 0x3

	var offset uint32
	if immediateOffset {
		offset = ((instr >> 8) & 0xF << 4) | (instr & 0xF)
	} else {
		offset = c.Reg[instr&0xF]
	}

	base := c.Reg[rn]
	var addr uint32
	if addOffset {
		addr = base + offset
	} else {
		addr = base - offset
	}

	effective := base
	if preIndex {
		effective = addr
	}

	if load {
		switch sh {
		case 0b01: // LDRH
			v, cy := c.bus.Read16(effective, AccessNonSequential)
			c.Reg[rd] = uint32(v)
			c.advance(cy)
		case 0b10: // LDRSB
			v, cy := c.bus.Read8(effective, AccessNonSequential)
			c.Reg[rd] = uint32(int32(int8(v)))
			c.advance(cy)
		case 0b11: // LDRSH
			v, cy := c.bus.Read16(effective, AccessNonSequential)
			c.Reg[rd] = uint32(int32(int16(v)))
			c.advance(cy)
		}
	} else if sh == 0b01 { // STRH
		c.advance(c.bus.Write16(effective, uint16(c.Reg[rd]), AccessNonSequential))
	}

	if !preIndex || writeBack {
		c.Reg[rn] = addr
	}
}

func (c *CPU) armBlockDataTransfer(instr uint32) {
	preIndex := instr&0x01000000 != 0
	addOffset := instr&0x00800000 != 0
	userBankTransfer := instr&0x00400000 != 0
	writeBack := instr&0x00200000 != 0
	load := instr&0x00100000 != 0
	rn := (instr >> 16) & 0xF
	regList := instr & 0xFFFF

	count := 0
	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) != 0 {
			count++
		}
	}

	base := c.Reg[rn]
	start := base
	if !addOffset {
		start = base - uint32(count)*4
	}

	if userBankTransfer && c.CPSR.Mode != ModeUsr && c.CPSR.Mode != ModeSYS {
		c.switchMode(c.CPSR.Mode, ModeUsr)
		defer c.switchMode(ModeUsr, c.CPSR.Mode)
	}

	addr := start
	if (preIndex && addOffset) || (!preIndex && !addOffset) {
		addr += 4
	}

	at := AccessNonSequential
	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) == 0 {
			continue
		}
		if load {
			v, cy := c.bus.Read32(addr, at)
			c.Reg[i] = v
			c.advance(cy)
			if i == pcReg {
				c.branchTo(v)
			}
		} else {
			c.advance(c.bus.Write32(addr, c.Reg[i], at))
		}
		addr += 4
		at = AccessSequential
	}

	if writeBack {
		if addOffset {
			c.Reg[rn] = base + uint32(count)*4
		} else {
			c.Reg[rn] = base - uint32(count)*4
		}
	}
}
