package rv32

import "fmt"

// CpuState enumerates the fetch/decode/execute protocol states. The
// machine exists so that an out-of-order call from a driver bug is
// detectable, not as a functional pipeline: this scalar interpreter
// always advances one state transition per call, in lockstep with the
// three CPU.* methods below.
type CpuState uint8

const (
	StateReset CpuState = iota
	StateFetch
	StateDecode
	StateExecute
)

func (s CpuState) String() string {
	switch s {
	case StateReset:
		return "Reset"
	case StateFetch:
		return "Fetch"
	case StateDecode:
		return "Decode"
	case StateExecute:
		return "Execute"
	default:
		return fmt.Sprintf("CpuState(%d)", uint8(s))
	}
}

// CPU is the register file, program counter and fetch/decode/execute
// state machine. It never holds a reference to the Ram, Bus or device
// list it operates on; those are passed in by the Driver on every call.
type CPU struct {
	Regs  RegisterFile
	PC    ProgramCounter
	State CpuState
	Step  uint64
}

// Reset zeroes the register file and PC and puts the state machine
// back in CpuState Reset.
func (c *CPU) Reset() {
	c.Regs.Reset()
	c.PC = ProgramCounter{}
	c.State = StateReset
	c.Step = 0
}

// Fetch reads the 32-bit word at PC directly from ram (instruction
// fetch is never routed through the MMIO bus) and returns it without
// yet advancing PC. Legal only from CpuState Reset or Execute.
func (c *CPU) Fetch(ram *Ram) (uint32, error) {
	switch c.State {
	case StateReset, StateExecute:
	default:
		return 0, fmt.Errorf("%w: fetch called in state %s", ErrProtocol, c.State)
	}
	c.State = StateFetch

	pc := c.PC.Load()
	if pc >= ram.Size() {
		return 0, fmt.Errorf("%w: PC 0x%08x out of bounds", ErrBounds, pc)
	}
	word, err := ram.Load32(pc)
	if err != nil {
		return 0, err
	}
	return word, nil
}

// DecodeStep decodes a fetched word. Legal only from CpuState Fetch.
func (c *CPU) DecodeStep(word uint32) (Instruction, error) {
	if c.State != StateFetch {
		return Instruction{}, fmt.Errorf("%w: decode called in state %s", ErrProtocol, c.State)
	}
	c.State = StateDecode
	return Decode(word)
}

// RamWrite records one byte written to RAM (not to an MMIO device) by
// an Execute call, for the step log.
type RamWrite struct {
	Addr  uint32
	Value uint8
}

func addOffset(base uint32, offset int32) uint32 {
	return uint32(int64(base) + int64(offset))
}

// Execute runs the decoded instruction against bus, updating registers
// and PC and returning the list of byte writes that landed in RAM
// (writes absorbed by an MMIO device are not recorded). Legal only
// from CpuState Decode.
func (c *CPU) Execute(ins Instruction, bus *Bus) ([]RamWrite, error) {
	if c.State != StateDecode {
		return nil, fmt.Errorf("%w: execute called in state %s", ErrProtocol, c.State)
	}
	c.State = StateExecute

	var writes []RamWrite

	loadReg := func(idx int) (uint32, error) { return c.Regs.Load(idx) }
	storeReg := func(idx int, v uint32) error { return c.Regs.Store(idx, v) }

	switch ins.Op {
	case OpADD, OpSUB, OpAND, OpOR, OpXOR, OpSLL, OpSRL, OpSRA, OpSLT, OpSLTU:
		rs1, err := loadReg(ins.Rs1)
		if err != nil {
			return nil, err
		}
		rs2, err := loadReg(ins.Rs2)
		if err != nil {
			return nil, err
		}
		var result uint32
		switch ins.Op {
		case OpADD:
			result = rs1 + rs2
		case OpSUB:
			result = rs1 - rs2
		case OpAND:
			result = rs1 & rs2
		case OpOR:
			result = rs1 | rs2
		case OpXOR:
			result = rs1 ^ rs2
		case OpSLL:
			result = rs1 << (rs2 & 0x1f)
		case OpSRL:
			result = rs1 >> (rs2 & 0x1f)
		case OpSRA:
			result = uint32(int32(rs1) >> (rs2 & 0x1f))
		case OpSLT:
			result = boolToWord(int32(rs1) < int32(rs2))
		case OpSLTU:
			result = boolToWord(rs1 < rs2)
		}
		if err := storeReg(ins.Rd, result); err != nil {
			return nil, err
		}
		c.PC.Increment()

	case OpADDI, OpANDI, OpORI, OpXORI, OpSLTI, OpSLTIU:
		rs1, err := loadReg(ins.Rs1)
		if err != nil {
			return nil, err
		}
		var result uint32
		switch ins.Op {
		case OpADDI:
			result = uint32(int32(rs1) + ins.Imm)
		case OpANDI:
			result = uint32(int32(rs1) & ins.Imm)
		case OpORI:
			result = uint32(int32(rs1) | ins.Imm)
		case OpXORI:
			result = uint32(int32(rs1) ^ ins.Imm)
		case OpSLTI:
			result = boolToWord(int32(rs1) < ins.Imm)
		case OpSLTIU:
			// The immediate is sign-extended to 32 bits by the decoder,
			// then reinterpreted as unsigned, per the ISA manual.
			result = boolToWord(rs1 < uint32(ins.Imm))
		}
		if err := storeReg(ins.Rd, result); err != nil {
			return nil, err
		}
		c.PC.Increment()

	case OpSLLI, OpSRLI, OpSRAI:
		rs1, err := loadReg(ins.Rs1)
		if err != nil {
			return nil, err
		}
		var result uint32
		switch ins.Op {
		case OpSLLI:
			result = rs1 << ins.Shamt
		case OpSRLI:
			result = rs1 >> ins.Shamt
		case OpSRAI:
			result = uint32(int32(rs1) >> ins.Shamt)
		}
		if err := storeReg(ins.Rd, result); err != nil {
			return nil, err
		}
		c.PC.Increment()

	case OpLB, OpLBU, OpLH, OpLHU, OpLW:
		rs1, err := loadReg(ins.Rs1)
		if err != nil {
			return nil, err
		}
		addr := addOffset(rs1, ins.Offset)
		var result uint32
		switch ins.Op {
		case OpLB:
			b, err := bus.Load8(addr)
			if err != nil {
				return nil, err
			}
			result = uint32(int32(int8(b)))
		case OpLBU:
			b, err := bus.Load8(addr)
			if err != nil {
				return nil, err
			}
			result = uint32(b)
		case OpLH:
			h, err := bus.Load16(addr)
			if err != nil {
				return nil, err
			}
			result = uint32(int32(int16(h)))
		case OpLHU:
			h, err := bus.Load16(addr)
			if err != nil {
				return nil, err
			}
			result = uint32(h)
		case OpLW:
			result, err = bus.Load32(addr)
			if err != nil {
				return nil, err
			}
		}
		if err := storeReg(ins.Rd, result); err != nil {
			return nil, err
		}
		c.PC.Increment()

	case OpSB, OpSH, OpSW:
		rs1, err := loadReg(ins.Rs1)
		if err != nil {
			return nil, err
		}
		rs2, err := loadReg(ins.Rs2)
		if err != nil {
			return nil, err
		}
		addr := addOffset(rs1, ins.Offset)
		switch ins.Op {
		case OpSB:
			value := uint8(rs2)
			hitRam, err := bus.Store8(addr, value)
			if err != nil {
				return nil, err
			}
			if hitRam {
				writes = append(writes, RamWrite{Addr: addr, Value: value})
			}
		case OpSH:
			value := uint16(rs2)
			hitRam, err := bus.Store16(addr, value)
			if err != nil {
				return nil, err
			}
			if hitRam {
				writes = append(writes,
					RamWrite{Addr: addr, Value: uint8(value)},
					RamWrite{Addr: addr + 1, Value: uint8(value >> 8)})
			}
		case OpSW:
			value := rs2
			hitRam, err := bus.Store32(addr, value)
			if err != nil {
				return nil, err
			}
			if hitRam {
				writes = append(writes,
					RamWrite{Addr: addr, Value: uint8(value)},
					RamWrite{Addr: addr + 1, Value: uint8(value >> 8)},
					RamWrite{Addr: addr + 2, Value: uint8(value >> 16)},
					RamWrite{Addr: addr + 3, Value: uint8(value >> 24)})
			}
		}
		c.PC.Increment()

	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		rs1, err := loadReg(ins.Rs1)
		if err != nil {
			return nil, err
		}
		rs2, err := loadReg(ins.Rs2)
		if err != nil {
			return nil, err
		}
		var taken bool
		switch ins.Op {
		case OpBEQ:
			taken = rs1 == rs2
		case OpBNE:
			taken = rs1 != rs2
		case OpBLT:
			taken = int32(rs1) < int32(rs2)
		case OpBGE:
			taken = int32(rs1) >= int32(rs2)
		case OpBLTU:
			taken = rs1 < rs2
		case OpBGEU:
			taken = rs1 >= rs2
		}
		pc := c.PC.Load()
		if taken {
			c.PC.Store(addOffset(pc, ins.Offset))
		} else {
			c.PC.Store(pc + 4)
		}

	case OpJAL:
		pc := c.PC.Load()
		if err := storeReg(ins.Rd, pc+4); err != nil {
			return nil, err
		}
		c.PC.Store(addOffset(pc, ins.Offset))

	case OpJALR:
		rs1, err := loadReg(ins.Rs1)
		if err != nil {
			return nil, err
		}
		linkAddr := c.PC.Load() + 4
		target := addOffset(rs1, ins.Offset) &^ 1
		if err := storeReg(ins.Rd, linkAddr); err != nil {
			return nil, err
		}
		c.PC.Store(target)

	case OpLUI:
		if err := storeReg(ins.Rd, ins.Uimm); err != nil {
			return nil, err
		}
		c.PC.Increment()

	case OpAUIPC:
		if err := storeReg(ins.Rd, c.PC.Load()+ins.Uimm); err != nil {
			return nil, err
		}
		c.PC.Increment()

	case OpFENCE:
		return nil, fmt.Errorf("%w: fence (pred 0x%x, succ 0x%x)", ErrUnsupportedTrap, ins.Pred, ins.Succ)
	case OpECALL:
		return nil, fmt.Errorf("%w: ecall", ErrUnsupportedTrap)
	case OpEBREAK:
		return nil, fmt.Errorf("%w: ebreak", ErrUnsupportedTrap)

	default:
		return nil, fmt.Errorf("%w: unhandled op %s", ErrDecode, ins.Op)
	}

	return writes, nil
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
