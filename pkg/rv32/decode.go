package rv32

import "fmt"

// The following constants are the primary 7-bit opcodes RV32I uses to
// select an instruction format. LUI and AUIPC deliberately use
// 0b0110111 and 0b0010111 respectively — an earlier revision of this
// decoder matched LUI on 0b110111 (missing the leading zero), which
// collides with nothing but simply never matches a real LUI encoding.
// See SPEC_FULL.md's Open Question notes.
const (
	opcodeR      = 0b0110011 // R-type ALU
	opcodeALUImm = 0b0010011 // I-type ALU-immediate
	opcodeLoad   = 0b0000011 // I-type loads
	opcodeJALR   = 0b1100111 // I-type JALR
	opcodeStore  = 0b0100011 // S-type
	opcodeBranch = 0b1100011 // B-type
	opcodeLUI    = 0b0110111 // U-type
	opcodeAUIPC  = 0b0010111 // U-type
	opcodeJAL    = 0b1101111 // J-type
	opcodeFence  = 0b0001111
	opcodeSystem = 0b1110011
)

func signExtend(value uint32, bitWidth uint) int32 {
	shift := 32 - bitWidth
	return int32(value<<shift) >> shift
}

func decodeIImm(word uint32) int32 {
	return signExtend((word>>20)&0xfff, 12)
}

func decodeSImm(word uint32) int32 {
	bits := ((word>>25)&0x7f)<<5 | ((word >> 7) & 0x1f)
	return signExtend(bits, 12)
}

func decodeBImm(word uint32) int32 {
	bits := ((word>>31)&0x1)<<12 |
		((word>>7)&0x1)<<11 |
		((word>>25)&0x3f)<<5 |
		((word>>8)&0xf)<<1
	return signExtend(bits, 13)
}

func decodeUImm(word uint32) uint32 {
	return word & 0xfffff000
}

func decodeJImm(word uint32) int32 {
	bits := ((word>>31)&0x1)<<20 |
		((word>>12)&0xff)<<12 |
		((word>>20)&0x1)<<11 |
		((word>>21)&0x3ff)<<1
	return signExtend(bits, 21)
}

// Decode recovers a typed Instruction from a 32-bit fetched word. An
// unrecognized opcode, or an opcode/funct3/funct7 combination this ISA
// does not define, is a fatal ErrDecode.
func Decode(word uint32) (Instruction, error) {
	opcode := word & 0x7f
	rd := int((word >> 7) & 0x1f)
	funct3 := (word >> 12) & 0x7
	rs1 := int((word >> 15) & 0x1f)
	rs2 := int((word >> 20) & 0x1f)
	funct7 := (word >> 25) & 0x7f

	switch opcode {
	case opcodeR:
		op, err := decodeRFunct(funct3, funct7)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2}, nil

	case opcodeALUImm:
		imm := decodeIImm(word)
		shamt := uint32(imm) & 0x1f
		switch funct3 {
		case 0b000:
			return Instruction{Op: OpADDI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 0b111:
			return Instruction{Op: OpANDI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 0b110:
			return Instruction{Op: OpORI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 0b100:
			return Instruction{Op: OpXORI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 0b010:
			return Instruction{Op: OpSLTI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 0b011:
			return Instruction{Op: OpSLTIU, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 0b001:
			if funct7 != 0b0000000 {
				return Instruction{}, fmt.Errorf("%w: illegal SLLI funct7 0x%x", ErrDecode, funct7)
			}
			return Instruction{Op: OpSLLI, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
		case 0b101:
			switch funct7 {
			case 0b0000000:
				return Instruction{Op: OpSRLI, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			case 0b0100000:
				return Instruction{Op: OpSRAI, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			default:
				return Instruction{}, fmt.Errorf("%w: illegal shift-immediate funct7 0x%x", ErrDecode, funct7)
			}
		}
		return Instruction{}, fmt.Errorf("%w: illegal ALU-immediate funct3 0x%x", ErrDecode, funct3)

	case opcodeLoad:
		offset := decodeIImm(word)
		switch funct3 {
		case 0b000:
			return Instruction{Op: OpLB, Rd: rd, Rs1: rs1, Offset: offset}, nil
		case 0b100:
			return Instruction{Op: OpLBU, Rd: rd, Rs1: rs1, Offset: offset}, nil
		case 0b001:
			return Instruction{Op: OpLH, Rd: rd, Rs1: rs1, Offset: offset}, nil
		case 0b101:
			return Instruction{Op: OpLHU, Rd: rd, Rs1: rs1, Offset: offset}, nil
		case 0b010:
			return Instruction{Op: OpLW, Rd: rd, Rs1: rs1, Offset: offset}, nil
		}
		return Instruction{}, fmt.Errorf("%w: illegal load funct3 0x%x", ErrDecode, funct3)

	case opcodeJALR:
		if funct3 != 0b000 {
			return Instruction{}, fmt.Errorf("%w: illegal JALR funct3 0x%x", ErrDecode, funct3)
		}
		return Instruction{Op: OpJALR, Rd: rd, Rs1: rs1, Offset: decodeIImm(word)}, nil

	case opcodeStore:
		offset := decodeSImm(word)
		switch funct3 {
		case 0b000:
			return Instruction{Op: OpSB, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		case 0b001:
			return Instruction{Op: OpSH, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		case 0b010:
			return Instruction{Op: OpSW, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		}
		return Instruction{}, fmt.Errorf("%w: illegal store funct3 0x%x", ErrDecode, funct3)

	case opcodeBranch:
		offset := decodeBImm(word)
		switch funct3 {
		case 0b000:
			return Instruction{Op: OpBEQ, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		case 0b001:
			return Instruction{Op: OpBNE, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		case 0b100:
			return Instruction{Op: OpBLT, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		case 0b101:
			return Instruction{Op: OpBGE, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		case 0b110:
			return Instruction{Op: OpBLTU, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		case 0b111:
			return Instruction{Op: OpBGEU, Rs1: rs1, Rs2: rs2, Offset: offset}, nil
		}
		return Instruction{}, fmt.Errorf("%w: illegal branch funct3 0x%x", ErrDecode, funct3)

	case opcodeLUI:
		return Instruction{Op: OpLUI, Rd: rd, Uimm: decodeUImm(word)}, nil

	case opcodeAUIPC:
		return Instruction{Op: OpAUIPC, Rd: rd, Uimm: decodeUImm(word)}, nil

	case opcodeJAL:
		return Instruction{Op: OpJAL, Rd: rd, Offset: decodeJImm(word)}, nil

	case opcodeFence:
		if funct3 != 0b000 {
			return Instruction{}, fmt.Errorf("%w: illegal FENCE funct3 0x%x", ErrDecode, funct3)
		}
		pred := uint8((word >> 24) & 0xf)
		succ := uint8((word >> 20) & 0xf)
		return Instruction{Op: OpFENCE, Pred: pred, Succ: succ}, nil

	case opcodeSystem:
		if funct3 != 0b000 {
			return Instruction{}, fmt.Errorf("%w: illegal SYSTEM funct3 0x%x", ErrDecode, funct3)
		}
		imm := (word >> 20) & 0xfff
		switch imm {
		case 0:
			return Instruction{Op: OpECALL}, nil
		case 1:
			return Instruction{Op: OpEBREAK}, nil
		}
		return Instruction{}, fmt.Errorf("%w: illegal SYSTEM immediate 0x%x", ErrDecode, imm)
	}

	return Instruction{}, fmt.Errorf("%w: unknown opcode 0x%x", ErrDecode, opcode)
}

func decodeRFunct(funct3, funct7 uint32) (Op, error) {
	switch {
	case funct3 == 0b000 && funct7 == 0b0000000:
		return OpADD, nil
	case funct3 == 0b000 && funct7 == 0b0100000:
		return OpSUB, nil
	case funct3 == 0b111 && funct7 == 0b0000000:
		return OpAND, nil
	case funct3 == 0b110 && funct7 == 0b0000000:
		return OpOR, nil
	case funct3 == 0b100 && funct7 == 0b0000000:
		return OpXOR, nil
	case funct3 == 0b001 && funct7 == 0b0000000:
		return OpSLL, nil
	case funct3 == 0b101 && funct7 == 0b0000000:
		return OpSRL, nil
	case funct3 == 0b101 && funct7 == 0b0100000:
		return OpSRA, nil
	case funct3 == 0b010 && funct7 == 0b0000000:
		return OpSLT, nil
	case funct3 == 0b011 && funct7 == 0b0000000:
		return OpSLTU, nil
	}
	return 0, fmt.Errorf("%w: illegal R-type funct3/funct7 0x%x/0x%x", ErrDecode, funct3, funct7)
}

// Encode re-assembles a decoded Instruction into its 32-bit word. It is
// the left inverse of Decode: Encode(Decode(w)) == w for every encoding
// Decode accepts, except FENCE, ECALL and EBREAK words with non-zero
// bits in the fields Decode ignores (rd, rs1 and, for FENCE, fm), which
// Encode writes as zero.
func Encode(ins Instruction) (uint32, error) {
	switch ins.Op {
	case OpADD:
		return encodeR(opcodeR, ins.Rd, 0b000, ins.Rs1, ins.Rs2, 0b0000000), nil
	case OpSUB:
		return encodeR(opcodeR, ins.Rd, 0b000, ins.Rs1, ins.Rs2, 0b0100000), nil
	case OpAND:
		return encodeR(opcodeR, ins.Rd, 0b111, ins.Rs1, ins.Rs2, 0b0000000), nil
	case OpOR:
		return encodeR(opcodeR, ins.Rd, 0b110, ins.Rs1, ins.Rs2, 0b0000000), nil
	case OpXOR:
		return encodeR(opcodeR, ins.Rd, 0b100, ins.Rs1, ins.Rs2, 0b0000000), nil
	case OpSLL:
		return encodeR(opcodeR, ins.Rd, 0b001, ins.Rs1, ins.Rs2, 0b0000000), nil
	case OpSRL:
		return encodeR(opcodeR, ins.Rd, 0b101, ins.Rs1, ins.Rs2, 0b0000000), nil
	case OpSRA:
		return encodeR(opcodeR, ins.Rd, 0b101, ins.Rs1, ins.Rs2, 0b0100000), nil
	case OpSLT:
		return encodeR(opcodeR, ins.Rd, 0b010, ins.Rs1, ins.Rs2, 0b0000000), nil
	case OpSLTU:
		return encodeR(opcodeR, ins.Rd, 0b011, ins.Rs1, ins.Rs2, 0b0000000), nil

	case OpADDI:
		return encodeI(opcodeALUImm, ins.Rd, 0b000, ins.Rs1, ins.Imm), nil
	case OpANDI:
		return encodeI(opcodeALUImm, ins.Rd, 0b111, ins.Rs1, ins.Imm), nil
	case OpORI:
		return encodeI(opcodeALUImm, ins.Rd, 0b110, ins.Rs1, ins.Imm), nil
	case OpXORI:
		return encodeI(opcodeALUImm, ins.Rd, 0b100, ins.Rs1, ins.Imm), nil
	case OpSLTI:
		return encodeI(opcodeALUImm, ins.Rd, 0b010, ins.Rs1, ins.Imm), nil
	case OpSLTIU:
		return encodeI(opcodeALUImm, ins.Rd, 0b011, ins.Rs1, ins.Imm), nil
	case OpSLLI:
		return encodeR(opcodeALUImm, ins.Rd, 0b001, ins.Rs1, int(ins.Shamt), 0b0000000), nil
	case OpSRLI:
		return encodeR(opcodeALUImm, ins.Rd, 0b101, ins.Rs1, int(ins.Shamt), 0b0000000), nil
	case OpSRAI:
		return encodeR(opcodeALUImm, ins.Rd, 0b101, ins.Rs1, int(ins.Shamt), 0b0100000), nil

	case OpLB:
		return encodeI(opcodeLoad, ins.Rd, 0b000, ins.Rs1, ins.Offset), nil
	case OpLBU:
		return encodeI(opcodeLoad, ins.Rd, 0b100, ins.Rs1, ins.Offset), nil
	case OpLH:
		return encodeI(opcodeLoad, ins.Rd, 0b001, ins.Rs1, ins.Offset), nil
	case OpLHU:
		return encodeI(opcodeLoad, ins.Rd, 0b101, ins.Rs1, ins.Offset), nil
	case OpLW:
		return encodeI(opcodeLoad, ins.Rd, 0b010, ins.Rs1, ins.Offset), nil
	case OpJALR:
		return encodeI(opcodeJALR, ins.Rd, 0b000, ins.Rs1, ins.Offset), nil

	case OpSB:
		return encodeS(0b000, ins.Rs1, ins.Rs2, ins.Offset), nil
	case OpSH:
		return encodeS(0b001, ins.Rs1, ins.Rs2, ins.Offset), nil
	case OpSW:
		return encodeS(0b010, ins.Rs1, ins.Rs2, ins.Offset), nil

	case OpBEQ:
		return encodeB(0b000, ins.Rs1, ins.Rs2, ins.Offset), nil
	case OpBNE:
		return encodeB(0b001, ins.Rs1, ins.Rs2, ins.Offset), nil
	case OpBLT:
		return encodeB(0b100, ins.Rs1, ins.Rs2, ins.Offset), nil
	case OpBGE:
		return encodeB(0b101, ins.Rs1, ins.Rs2, ins.Offset), nil
	case OpBLTU:
		return encodeB(0b110, ins.Rs1, ins.Rs2, ins.Offset), nil
	case OpBGEU:
		return encodeB(0b111, ins.Rs1, ins.Rs2, ins.Offset), nil

	case OpLUI:
		return ins.Uimm&0xfffff000 | uint32(ins.Rd)<<7 | opcodeLUI, nil
	case OpAUIPC:
		return ins.Uimm&0xfffff000 | uint32(ins.Rd)<<7 | opcodeAUIPC, nil

	case OpJAL:
		return encodeJ(ins.Rd, ins.Offset), nil

	case OpFENCE:
		return uint32(ins.Pred&0xf)<<24 | uint32(ins.Succ&0xf)<<20 | opcodeFence, nil
	case OpECALL:
		return opcodeSystem, nil
	case OpEBREAK:
		return uint32(1)<<20 | opcodeSystem, nil
	}
	return 0, fmt.Errorf("%w: cannot encode op %s", ErrDecode, ins.Op)
}

func encodeR(opcode uint32, rd int, funct3 uint32, rs1, rs2 int, funct7 uint32) uint32 {
	return funct7<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
		funct3<<12 | uint32(rd&0x1f)<<7 | opcode
}

func encodeI(opcode uint32, rd int, funct3 uint32, rs1 int, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | uint32(rs1&0x1f)<<15 | funct3<<12 | uint32(rd&0x1f)<<7 | opcode
}

func encodeS(funct3 uint32, rs1, rs2 int, imm int32) uint32 {
	u := uint32(imm)
	imm4_0 := u & 0x1f
	imm11_5 := (u >> 5) & 0x7f
	return imm11_5<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
		funct3<<12 | imm4_0<<7 | opcodeStore
}

func encodeB(funct3 uint32, rs1, rs2 int, imm int32) uint32 {
	u := uint32(imm)
	imm11 := (u >> 11) & 0x1
	imm4_1 := (u >> 1) & 0xf
	imm10_5 := (u >> 5) & 0x3f
	imm12 := (u >> 12) & 0x1
	return imm12<<31 | imm10_5<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
		funct3<<12 | imm4_1<<8 | imm11<<7 | opcodeBranch
}

func encodeJ(rd int, imm int32) uint32 {
	u := uint32(imm)
	imm20 := (u >> 20) & 0x1
	imm10_1 := (u >> 1) & 0x3ff
	imm11 := (u >> 11) & 0x1
	imm19_12 := (u >> 12) & 0xff
	return imm20<<31 | imm10_1<<21 | imm11<<20 | imm19_12<<12 | uint32(rd&0x1f)<<7 | opcodeJAL
}
