package cpu

// Thumb instruction decoding and execution. The format classification and
// per-format bit layout follows Figure 5-1 of the ARM7TDMI Data Sheet, the
// same table the bank-switching Harmony coprocessor decoder works from.

func (c *CPU) executeThumb(opcode uint16) {
	switch {
	case opcode&0xf800 == 0x1800:
		c.thumbAddSubtract(opcode)
	case opcode&0xe000 == 0x0000:
		c.thumbMoveShiftedRegister(opcode)
	case opcode&0xe000 == 0x2000:
		c.thumbMovCmpAddSubImm(opcode)
	case opcode&0xfc00 == 0x4000:
		c.thumbALUOperations(opcode)
	case opcode&0xfc00 == 0x4400:
		c.thumbHiRegisterOps(opcode)
	case opcode&0xf800 == 0x4800:
		c.thumbPCRelativeLoad(opcode)
	case opcode&0xf200 == 0x5000:
		c.thumbLoadStoreRegisterOffset(opcode)
	case opcode&0xf200 == 0x5200:
		c.thumbLoadStoreSignExtended(opcode)
	case opcode&0xe000 == 0x6000:
		c.thumbLoadStoreImmOffset(opcode)
	case opcode&0xf000 == 0x8000:
		c.thumbLoadStoreHalfword(opcode)
	case opcode&0xf000 == 0x9000:
		c.thumbSPRelativeLoadStore(opcode)
	case opcode&0xf000 == 0xa000:
		c.thumbLoadAddress(opcode)
	case opcode&0xff00 == 0xb000:
		c.thumbAddOffsetToSP(opcode)
	case opcode&0xf600 == 0xb400:
		c.thumbPushPopRegisters(opcode)
	case opcode&0xf000 == 0xc000:
		c.thumbMultipleLoadStore(opcode)
	case opcode&0xff00 == 0xdf00:
		c.raiseSoftwareInterrupt()
	case opcode&0xf000 == 0xd000:
		c.thumbConditionalBranch(opcode)
	case opcode&0xf800 == 0xe000:
		c.thumbUnconditionalBranch(opcode)
	case opcode&0xf000 == 0xf000:
		c.thumbLongBranchWithLink(opcode)
	default:
		c.raiseUndefined()
	}
}

func (c *CPU) setNZ(v uint32) {
	c.CPSR.Negative = isNegative32(v)
	c.CPSR.Zero = isZero32(v)
}

// format 1 - move shifted register
func (c *CPU) thumbMoveShiftedRegister(opcode uint16) {
	op := ShiftType((opcode & 0x1800) >> 11)
	amount := uint32((opcode & 0x07c0) >> 6)
	src := (opcode & 0x0038) >> 3
	dst := opcode & 0x0007

	result, carry := shift(op, amount, c.Reg[src], c.CPSR.Carry)
	c.Reg[dst] = result
	c.CPSR.Carry = carry
	c.setNZ(result)
}

// format 2 - add/subtract
func (c *CPU) thumbAddSubtract(opcode uint16) {
	immediate := opcode&0x0400 != 0
	subtract := opcode&0x0200 != 0
	operand := uint32((opcode & 0x01c0) >> 6)
	src := (opcode & 0x0038) >> 3
	dst := opcode & 0x0007

	rhs := operand
	if !immediate {
		rhs = c.Reg[operand]
	}

	lhs := c.Reg[src]
	var result uint32
	if subtract {
		result = lhs - rhs
		c.CPSR.Carry = subCarry(lhs, rhs, 0)
		c.CPSR.Overflow = subOverflow(lhs, rhs, 0)
	} else {
		result = lhs + rhs
		c.CPSR.Carry = addCarry(lhs, rhs, 0)
		c.CPSR.Overflow = addOverflow(lhs, rhs, 0)
	}
	c.Reg[dst] = result
	c.setNZ(result)
}

// format 3 - move/compare/add/subtract immediate
func (c *CPU) thumbMovCmpAddSubImm(opcode uint16) {
	op := (opcode & 0x1800) >> 11
	dst := (opcode & 0x0700) >> 8
	imm := uint32(opcode & 0x00ff)

	switch op {
	case 0b00: // MOV
		c.Reg[dst] = imm
		c.setNZ(imm)
	case 0b01: // CMP
		lhs := c.Reg[dst]
		result := lhs - imm
		c.CPSR.Carry = subCarry(lhs, imm, 0)
		c.CPSR.Overflow = subOverflow(lhs, imm, 0)
		c.setNZ(result)
	case 0b10: // ADD
		lhs := c.Reg[dst]
		result := lhs + imm
		c.CPSR.Carry = addCarry(lhs, imm, 0)
		c.CPSR.Overflow = addOverflow(lhs, imm, 0)
		c.Reg[dst] = result
		c.setNZ(result)
	case 0b11: // SUB
		lhs := c.Reg[dst]
		result := lhs - imm
		c.CPSR.Carry = subCarry(lhs, imm, 0)
		c.CPSR.Overflow = subOverflow(lhs, imm, 0)
		c.Reg[dst] = result
		c.setNZ(result)
	}
}

// format 4 - ALU operations
func (c *CPU) thumbALUOperations(opcode uint16) {
	op := (opcode & 0x03c0) >> 6
	src := (opcode & 0x0038) >> 3
	dst := opcode & 0x0007

	d := c.Reg[dst]
	s := c.Reg[src]

	switch op {
	case 0b0000: // AND
		c.Reg[dst] = d & s
		c.setNZ(c.Reg[dst])
	case 0b0001: // EOR
		c.Reg[dst] = d ^ s
		c.setNZ(c.Reg[dst])
	case 0b0010: // LSL
		r, carry := shift(ShiftLSL, s&0xff, d, c.CPSR.Carry)
		if s&0xff > 0 {
			c.Reg[dst] = r
			c.CPSR.Carry = carry
		}
		c.setNZ(c.Reg[dst])
	case 0b0011: // LSR
		r, carry := shift(ShiftLSR, s&0xff, d, c.CPSR.Carry)
		if s&0xff > 0 {
			c.Reg[dst] = r
			c.CPSR.Carry = carry
		}
		c.setNZ(c.Reg[dst])
	case 0b0100: // ASR
		r, carry := shift(ShiftASR, s&0xff, d, c.CPSR.Carry)
		if s&0xff > 0 {
			c.Reg[dst] = r
			c.CPSR.Carry = carry
		}
		c.setNZ(c.Reg[dst])
	case 0b0101: // ADC
		carryIn := uint32(0)
		if c.CPSR.Carry {
			carryIn = 1
		}
		result := d + s + carryIn
		c.CPSR.Carry = addCarry(d, s, carryIn)
		c.CPSR.Overflow = addOverflow(d, s, carryIn)
		c.Reg[dst] = result
		c.setNZ(result)
	case 0b0110: // SBC
		borrowIn := uint32(1)
		if c.CPSR.Carry {
			borrowIn = 0
		}
		result := d - s - borrowIn
		c.CPSR.Carry = subCarry(d, s, borrowIn)
		c.CPSR.Overflow = subOverflow(d, s, borrowIn)
		c.Reg[dst] = result
		c.setNZ(result)
	case 0b0111: // ROR
		r, carry := shift(ShiftROR, s&0xff, d, c.CPSR.Carry)
		if s&0xff > 0 {
			c.Reg[dst] = r
			c.CPSR.Carry = carry
		}
		c.setNZ(c.Reg[dst])
	case 0b1000: // TST
		c.setNZ(d & s)
	case 0b1001: // NEG
		result := uint32(0) - s
		c.CPSR.Carry = subCarry(0, s, 0)
		c.CPSR.Overflow = subOverflow(0, s, 0)
		c.Reg[dst] = result
		c.setNZ(result)
	case 0b1010: // CMP
		result := d - s
		c.CPSR.Carry = subCarry(d, s, 0)
		c.CPSR.Overflow = subOverflow(d, s, 0)
		c.setNZ(result)
	case 0b1011: // CMN
		result := d + s
		c.CPSR.Carry = addCarry(d, s, 0)
		c.CPSR.Overflow = addOverflow(d, s, 0)
		c.setNZ(result)
	case 0b1100: // ORR
		c.Reg[dst] = d | s
		c.setNZ(c.Reg[dst])
	case 0b1101: // MUL
		c.Reg[dst] = d * s
		c.setNZ(c.Reg[dst])
	case 0b1110: // BIC
		c.Reg[dst] = d &^ s
		c.setNZ(c.Reg[dst])
	case 0b1111: // MVN
		c.Reg[dst] = ^s
		c.setNZ(c.Reg[dst])
	}
}

// format 5 - Hi register operations/branch exchange
func (c *CPU) thumbHiRegisterOps(opcode uint16) {
	op := (opcode & 0x0300) >> 8
	hi1 := opcode&0x0080 != 0
	hi2 := opcode&0x0040 != 0
	src := (opcode & 0x0038) >> 3
	dst := opcode & 0x0007

	if hi1 {
		dst += 8
	}
	if hi2 {
		src += 8
	}

	switch op {
	case 0b00: // ADD
		c.Reg[dst] += c.Reg[src]
		if dst == pcReg {
			c.branchTo(c.Reg[pcReg])
		}
	case 0b01: // CMP
		d, s := c.Reg[dst], c.Reg[src]
		result := d - s
		c.CPSR.Carry = subCarry(d, s, 0)
		c.CPSR.Overflow = subOverflow(d, s, 0)
		c.setNZ(result)
	case 0b10: // MOV
		c.Reg[dst] = c.Reg[src]
		if dst == pcReg {
			c.branchTo(c.Reg[pcReg])
		}
	case 0b11: // BX / BLX
		target := c.Reg[src]
		if src == pcReg {
			target = c.Reg[pcReg]
		}
		c.CPSR.Thumb = target&1 != 0
		c.branchTo(target)
	}
}

// format 6 - PC-relative load
func (c *CPU) thumbPCRelativeLoad(opcode uint16) {
	dst := (opcode & 0x0700) >> 8
	imm := uint32(opcode&0x00ff) << 2
	addr := (c.Reg[pcReg] &^ 3) + imm
	v, cycles := c.bus.Read32(addr, AccessNonSequential)
	c.Reg[dst] = v
	c.advance(cycles)
}

// format 7 - load/store with register offset
func (c *CPU) thumbLoadStoreRegisterOffset(opcode uint16) {
	load := opcode&0x0800 != 0
	byteTransfer := opcode&0x0400 != 0
	offsetReg := (opcode & 0x01c0) >> 6
	base := (opcode & 0x0038) >> 3
	dst := opcode & 0x0007

	addr := c.Reg[base] + c.Reg[offsetReg]
	if load {
		if byteTransfer {
			v, cy := c.bus.Read8(addr, AccessNonSequential)
			c.Reg[dst] = uint32(v)
			c.advance(cy)
		} else {
			v, cy := c.bus.Read32(addr, AccessNonSequential)
			c.Reg[dst] = v
			c.advance(cy)
		}
	} else {
		if byteTransfer {
			c.advance(c.bus.Write8(addr, uint8(c.Reg[dst]), AccessNonSequential))
		} else {
			c.advance(c.bus.Write32(addr, c.Reg[dst], AccessNonSequential))
		}
	}
}

// format 8 - load/store sign-extended byte/halfword
func (c *CPU) thumbLoadStoreSignExtended(opcode uint16) {
	hFlag := opcode&0x0800 != 0
	signExtend := opcode&0x0400 != 0
	offsetReg := (opcode & 0x01c0) >> 6
	base := (opcode & 0x0038) >> 3
	dst := opcode & 0x0007

	addr := c.Reg[base] + c.Reg[offsetReg]

	switch {
	case !signExtend && !hFlag: // STRH
		c.advance(c.bus.Write16(addr, uint16(c.Reg[dst]), AccessNonSequential))
	case !signExtend && hFlag: // LDRH
		v, cy := c.bus.Read16(addr, AccessNonSequential)
		c.Reg[dst] = uint32(v)
		c.advance(cy)
	case signExtend && !hFlag: // LDSB
		v, cy := c.bus.Read8(addr, AccessNonSequential)
		c.Reg[dst] = uint32(int32(int8(v)))
		c.advance(cy)
	default: // LDSH
		v, cy := c.bus.Read16(addr, AccessNonSequential)
		c.Reg[dst] = uint32(int32(int16(v)))
		c.advance(cy)
	}
}

// format 9 - load/store with immediate offset
func (c *CPU) thumbLoadStoreImmOffset(opcode uint16) {
	byteTransfer := opcode&0x1000 != 0
	load := opcode&0x0800 != 0
	offset := uint32((opcode & 0x07c0) >> 6)
	base := (opcode & 0x0038) >> 3
	dst := opcode & 0x0007

	if !byteTransfer {
		offset <<= 2
	}
	addr := c.Reg[base] + offset

	if load {
		if byteTransfer {
			v, cy := c.bus.Read8(addr, AccessNonSequential)
			c.Reg[dst] = uint32(v)
			c.advance(cy)
		} else {
			v, cy := c.bus.Read32(addr, AccessNonSequential)
			c.Reg[dst] = v
			c.advance(cy)
		}
	} else {
		if byteTransfer {
			c.advance(c.bus.Write8(addr, uint8(c.Reg[dst]), AccessNonSequential))
		} else {
			c.advance(c.bus.Write32(addr, c.Reg[dst], AccessNonSequential))
		}
	}
}

// format 10 - load/store halfword
func (c *CPU) thumbLoadStoreHalfword(opcode uint16) {
	load := opcode&0x0800 != 0
	offset := uint32((opcode&0x07c0)>>6) << 1
	base := (opcode & 0x0038) >> 3
	dst := opcode & 0x0007

	addr := c.Reg[base] + offset
	if load {
		v, cy := c.bus.Read16(addr, AccessNonSequential)
		c.Reg[dst] = uint32(v)
		c.advance(cy)
	} else {
		c.advance(c.bus.Write16(addr, uint16(c.Reg[dst]), AccessNonSequential))
	}
}

// format 11 - SP-relative load/store
func (c *CPU) thumbSPRelativeLoadStore(opcode uint16) {
	load := opcode&0x0800 != 0
	dst := (opcode & 0x0700) >> 8
	imm := uint32(opcode&0x00ff) << 2

	addr := c.Reg[13] + imm
	if load {
		v, cy := c.bus.Read32(addr, AccessNonSequential)
		c.Reg[dst] = v
		c.advance(cy)
	} else {
		c.advance(c.bus.Write32(addr, c.Reg[dst], AccessNonSequential))
	}
}

// format 12 - load address
func (c *CPU) thumbLoadAddress(opcode uint16) {
	sp := opcode&0x0800 != 0
	dst := (opcode & 0x0700) >> 8
	imm := uint32(opcode&0x00ff) << 2

	if sp {
		c.Reg[dst] = c.Reg[13] + imm
	} else {
		c.Reg[dst] = (c.Reg[pcReg] &^ 3) + imm
	}
}

// format 13 - add offset to stack pointer
func (c *CPU) thumbAddOffsetToSP(opcode uint16) {
	negative := opcode&0x0080 != 0
	imm := uint32(opcode&0x007f) << 2
	if negative {
		c.Reg[13] -= imm
	} else {
		c.Reg[13] += imm
	}
}

// format 14 - push/pop registers
func (c *CPU) thumbPushPopRegisters(opcode uint16) {
	load := opcode&0x0800 != 0
	includePCLR := opcode&0x0100 != 0
	regList := opcode & 0x00ff

	if load {
		for i := 0; i < 8; i++ {
			if regList&(1<<uint(i)) != 0 {
				v, cy := c.bus.Read32(c.Reg[13], AccessSequential)
				c.Reg[i] = v
				c.Reg[13] += 4
				c.advance(cy)
			}
		}
		if includePCLR {
			v, cy := c.bus.Read32(c.Reg[13], AccessSequential)
			c.Reg[13] += 4
			c.advance(cy)
			c.branchTo(v &^ 1)
		}
	} else {
		if includePCLR {
			c.Reg[13] -= 4
			c.advance(c.bus.Write32(c.Reg[13], c.Reg[lrReg], AccessNonSequential))
		}
		for i := 7; i >= 0; i-- {
			if regList&(1<<uint(i)) != 0 {
				c.Reg[13] -= 4
				c.advance(c.bus.Write32(c.Reg[13], c.Reg[i], AccessSequential))
			}
		}
	}
}

// format 15 - multiple load/store
func (c *CPU) thumbMultipleLoadStore(opcode uint16) {
	load := opcode&0x0800 != 0
	base := (opcode & 0x0700) >> 8
	regList := opcode & 0x00ff

	addr := c.Reg[base]
	at := AccessNonSequential
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) == 0 {
			continue
		}
		if load {
			v, cy := c.bus.Read32(addr, at)
			c.Reg[i] = v
			c.advance(cy)
		} else {
			c.advance(c.bus.Write32(addr, c.Reg[i], at))
		}
		addr += 4
		at = AccessSequential
	}
	c.Reg[base] = addr
}

// format 16 - conditional branch
func (c *CPU) thumbConditionalBranch(opcode uint16) {
	cond := uint8((opcode & 0x0f00) >> 8)
	offset := int32(int8(opcode & 0x00ff)) * 2

	if !c.evalCondition(cond) {
		return
	}
	c.branchTo(uint32(int32(c.Reg[pcReg]) + offset))
}

// format 17 handled via raiseSoftwareInterrupt in the dispatch switch.

// format 18 - unconditional branch
func (c *CPU) thumbUnconditionalBranch(opcode uint16) {
	offset := int32(opcode&0x07ff) << 1
	offset = (offset << 20) >> 20 // sign-extend 12-bit value
	c.branchTo(uint32(int32(c.Reg[pcReg]) + offset))
}

// format 19 - long branch with link, executed as two consecutive Thumb
// halfwords: the first stashes a partial target in LR, the second combines
// it with LR's prior value and branches.
func (c *CPU) thumbLongBranchWithLink(opcode uint16) {
	low := opcode&0x0800 != 0
	offset := uint32(opcode & 0x07ff)

	if !low {
		signed := int32(offset<<21) >> 21
		c.Reg[lrReg] = uint32(int32(c.Reg[pcReg]) + (signed << 12))
		return
	}

	next := c.Reg[lrReg] + (offset << 1)
	c.Reg[lrReg] = (c.Reg[pcReg] - 2) | 1
	c.branchTo(next)
}
