package rv32

import "errors"

// The following sentinel errors classify the fatal conditions a step
// can raise. All stepping errors are fatal: the driver surfaces them to
// its caller, no instruction is retried and no state is rolled back.
var (
	// ErrDecode indicates an unknown opcode or an illegal funct3/funct7
	// combination.
	ErrDecode = errors.New("rv32: decode error")

	// ErrProtocol indicates a CPU operation was invoked in the wrong
	// state, i.e. out of the Reset->Fetch->Decode->Execute sequence.
	ErrProtocol = errors.New("rv32: protocol error")

	// ErrBounds indicates PC >= RAM size on fetch, or a register index
	// outside [0, NumRegisters) was requested.
	ErrBounds = errors.New("rv32: bounds error")

	// ErrUnsupportedTrap indicates ECALL, EBREAK or FENCE was reached.
	// This core provides no system-call ABI, so these are fatal traps
	// rather than handled environment calls.
	ErrUnsupportedTrap = errors.New("rv32: unsupported trap")
)
