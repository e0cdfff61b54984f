package rv32

import "fmt"

// Op identifies a decoded RV32I instruction variant.
type Op uint8

// The following constants enumerate every RV32I operation this core
// supports, exhaustively per spec §4.4. There is deliberately no
// "invalid" sentinel: an unrecognized encoding is a decode error, not
// an Instruction value.
const (
	OpADD Op = iota
	OpSUB
	OpAND
	OpOR
	OpXOR
	OpSLL
	OpSRL
	OpSRA
	OpSLT
	OpSLTU
	OpADDI
	OpANDI
	OpORI
	OpXORI
	OpSLLI
	OpSRLI
	OpSRAI
	OpSLTI
	OpSLTIU
	OpLB
	OpLBU
	OpLH
	OpLHU
	OpLW
	OpSB
	OpSH
	OpSW
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpJAL
	OpJALR
	OpLUI
	OpAUIPC
	OpFENCE
	OpECALL
	OpEBREAK
)

var opNames = [...]string{
	"add", "sub", "and", "or", "xor", "sll", "srl", "sra", "slt", "sltu",
	"addi", "andi", "ori", "xori", "slli", "srli", "srai", "slti", "sltiu",
	"lb", "lbu", "lh", "lhu", "lw", "sb", "sh", "sw",
	"beq", "bne", "blt", "bge", "bltu", "bgeu",
	"jal", "jalr", "lui", "auipc", "fence", "ecall", "ebreak",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Instruction is a decoded RV32I instruction. Only the fields relevant
// to Op are meaningful; the rest are zero. Register indices are plain
// ints in [0, 32). Imm carries the sign-extended I-type immediate of the
// ALU-immediate ops ADDI, ANDI, ORI, XORI, SLTI and SLTIU (its signed
// range fits an int16, widened here to int32 for uniform arithmetic).
// Uimm carries the already-shifted U-type immediate. Offset carries the
// (already sign-extended) displacement of loads, stores, branches, JAL
// and JALR; for those ops Imm is left zero. It is named separately to
// match the semantics table in spec §4.4, where loads/stores/branches/
// JALR talk about an "offset".
type Instruction struct {
	Op     Op     `json:"op"`
	Rd     int    `json:"rd"`
	Rs1    int    `json:"rs1"`
	Rs2    int    `json:"rs2"`
	Imm    int32  `json:"imm"`
	Uimm   uint32 `json:"uimm"`
	Shamt  uint32 `json:"shamt"`
	Offset int32  `json:"offset"`
	Pred   uint8  `json:"pred"`
	Succ   uint8  `json:"succ"`
}

// String renders the instruction the way a disassembly listing would,
// e.g. "addi x1 x0 1" or "beq x1 x2 -8".
func (ins Instruction) String() string {
	switch ins.Op {
	case OpADD, OpSUB, OpAND, OpOR, OpXOR, OpSLL, OpSRL, OpSRA, OpSLT, OpSLTU:
		return fmt.Sprintf("%s x%d x%d x%d", ins.Op, ins.Rd, ins.Rs1, ins.Rs2)
	case OpADDI, OpANDI, OpORI, OpXORI, OpSLTI:
		return fmt.Sprintf("%s x%d x%d %d", ins.Op, ins.Rd, ins.Rs1, ins.Imm)
	case OpSLTIU:
		return fmt.Sprintf("%s x%d x%d %d", ins.Op, ins.Rd, ins.Rs1, uint32(ins.Imm))
	case OpSLLI, OpSRLI, OpSRAI:
		return fmt.Sprintf("%s x%d x%d %d", ins.Op, ins.Rd, ins.Rs1, ins.Shamt)
	case OpLB, OpLBU, OpLH, OpLHU, OpLW:
		return fmt.Sprintf("%s x%d %d(x%d)", ins.Op, ins.Rd, ins.Offset, ins.Rs1)
	case OpSB, OpSH, OpSW:
		return fmt.Sprintf("%s x%d %d(x%d)", ins.Op, ins.Rs2, ins.Offset, ins.Rs1)
	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		return fmt.Sprintf("%s x%d x%d %d", ins.Op, ins.Rs1, ins.Rs2, ins.Offset)
	case OpJAL:
		return fmt.Sprintf("jal x%d %d", ins.Rd, ins.Offset)
	case OpJALR:
		return fmt.Sprintf("jalr x%d x%d %d", ins.Rd, ins.Rs1, ins.Offset)
	case OpLUI, OpAUIPC:
		return fmt.Sprintf("%s x%d %d", ins.Op, ins.Rd, ins.Uimm)
	case OpFENCE:
		return fmt.Sprintf("fence %#x %#x", ins.Pred, ins.Succ)
	case OpECALL:
		return "ecall"
	case OpEBREAK:
		return "ebreak"
	default:
		return fmt.Sprintf("<unknown op %d>", ins.Op)
	}
}
