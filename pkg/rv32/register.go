// Package rv32 implements a functional emulator for the base integer
// (RV32I) variant of the RISC-V instruction set.
//
// The package is organized around five collaborating pieces:
//
//  1. Register / RegisterFile — the 32 general purpose registers plus PC.
//  2. Ram / Bus — a flat little-endian address space with MMIO overlays.
//  3. Device — the MMIO device interface and the two concrete devices.
//  4. Decode/Instruction — the 32-bit word decoder and instruction model.
//  5. CPU/Driver — the fetch/decode/execute state machine and outer loop.
//
// None of these hold a back-reference to their owner: the Driver is the
// sole owner of the CPU, the Ram, the device list and the step log.
package rv32

import "fmt"

// NumRegisters is the number of general purpose registers, x0..x31.
const NumRegisters = 32

// Register is a 32-bit unsigned word with load/store semantics.
type Register struct {
	value uint32
}

// Load returns the register's current value.
func (r *Register) Load() uint32 {
	return r.value
}

// Store overwrites the register's value.
func (r *Register) Store(value uint32) {
	r.value = value
}

func (r Register) String() string {
	return fmt.Sprintf("0x%08x", r.value)
}

// ProgramCounter is a Register with wrapping increment-by-4 semantics.
type ProgramCounter struct {
	Register
}

// Increment advances the program counter by 4, wrapping to 0 on overflow.
// uint32 addition already wraps modulo 2^32, so this is a plain add.
func (pc *ProgramCounter) Increment() {
	pc.value += 4
}

// RegisterFile is the ordered sequence of 32 general purpose registers.
// Register 0 (x0) is hardwired to zero: writes are accepted and silently
// dropped, reads always return 0.
type RegisterFile struct {
	regs [NumRegisters]Register
}

// Load returns the value at index. Index must be in [0, NumRegisters);
// out-of-range access is a programmer error reported via ErrBounds.
func (rf *RegisterFile) Load(index int) (uint32, error) {
	if index < 0 || index >= NumRegisters {
		return 0, fmt.Errorf("%w: register index %d out of range", ErrBounds, index)
	}
	return rf.regs[index].Load(), nil
}

// Store writes value at index. Writes to index 0 are silently dropped.
func (rf *RegisterFile) Store(index int, value uint32) error {
	if index < 0 || index >= NumRegisters {
		return fmt.Errorf("%w: register index %d out of range", ErrBounds, index)
	}
	if index == 0 {
		return nil
	}
	rf.regs[index].Store(value)
	return nil
}

// Reset zeroes every register.
func (rf *RegisterFile) Reset() {
	rf.regs = [NumRegisters]Register{}
}
