package rv32

import (
	"errors"
	"testing"
)

func newTestBus(size uint32) *Bus {
	return NewBus(NewRam(size))
}

func step(t *testing.T, cpu *CPU, bus *Bus) ([]RamWrite, Instruction) {
	t.Helper()
	word, err := cpu.Fetch(bus.Ram)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	ins, err := cpu.DecodeStep(word)
	if err != nil {
		t.Fatalf("DecodeStep: %v", err)
	}
	writes, err := cpu.Execute(ins, bus)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return writes, ins
}

func TestCPUProtocolRejectsOutOfOrderCalls(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(16)
	nop, _ := Encode(Instruction{Op: OpADDI, Rd: 0, Rs1: 0, Imm: 0})
	bus.Ram.Store32(0, nop)
	// Decode before Fetch is illegal.
	if _, err := cpu.DecodeStep(0); !errors.Is(err, ErrProtocol) {
		t.Fatalf("DecodeStep before Fetch: err = %v, want ErrProtocol", err)
	}
	word, err := cpu.Fetch(bus.Ram)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// Execute before Decode is illegal.
	if _, err := cpu.Execute(Instruction{}, bus); !errors.Is(err, ErrProtocol) {
		t.Fatalf("Execute before Decode: err = %v, want ErrProtocol", err)
	}
	if _, err := cpu.DecodeStep(word); err != nil {
		t.Fatalf("DecodeStep: %v", err)
	}
}

func TestCPUAddiThenAdd(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(16)
	// addi x1, x0, -5
	addi, _ := Encode(Instruction{Op: OpADDI, Rd: 1, Rs1: 0, Imm: -5})
	// add x2, x1, x1
	add, _ := Encode(Instruction{Op: OpADD, Rd: 2, Rs1: 1, Rs2: 1})
	bus.Ram.Store32(0, addi)
	bus.Ram.Store32(4, add)

	step(t, &cpu, bus)
	cpu.State = StateExecute // allow the next Fetch
	x1, _ := cpu.Regs.Load(1)
	if int32(x1) != -5 {
		t.Fatalf("x1 = %d, want -5", int32(x1))
	}

	step(t, &cpu, bus)
	x2, _ := cpu.Regs.Load(2)
	if int32(x2) != -10 {
		t.Fatalf("x2 = %d, want -10", int32(x2))
	}
	if cpu.PC.Load() != 8 {
		t.Fatalf("PC = %d, want 8", cpu.PC.Load())
	}
}

func TestCPUSub(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(16)
	cpu.Regs.Store(1, 10)
	cpu.Regs.Store(2, 3)
	sub, _ := Encode(Instruction{Op: OpSUB, Rd: 3, Rs1: 1, Rs2: 2})
	bus.Ram.Store32(0, sub)

	step(t, &cpu, bus)
	x3, _ := cpu.Regs.Load(3)
	if x3 != 7 {
		t.Fatalf("x3 = %d, want 7", x3)
	}
}

func TestCPUStoreThenLoadByteSignedAndUnsigned(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(32)
	cpu.Regs.Store(1, 16) // base address
	cpu.Regs.Store(2, 0xffffffff) // -1

	sb, _ := Encode(Instruction{Op: OpSB, Rs1: 1, Rs2: 2, Offset: 0})
	bus.Ram.Store32(0, sb)
	writes, _ := step(t, &cpu, bus)
	if len(writes) != 1 || writes[0].Addr != 16 || writes[0].Value != 0xff {
		t.Fatalf("writes = %+v, want one byte 0xff at addr 16", writes)
	}

	cpu.State = StateExecute
	lb, _ := Encode(Instruction{Op: OpLB, Rd: 3, Rs1: 1, Offset: 0})
	bus.Ram.Store32(4, lb)
	step(t, &cpu, bus)
	x3, _ := cpu.Regs.Load(3)
	if int32(x3) != -1 {
		t.Fatalf("lb result = %d, want -1", int32(x3))
	}

	cpu.State = StateExecute
	lbu, _ := Encode(Instruction{Op: OpLBU, Rd: 4, Rs1: 1, Offset: 0})
	bus.Ram.Store32(8, lbu)
	step(t, &cpu, bus)
	x4, _ := cpu.Regs.Load(4)
	if x4 != 0xff {
		t.Fatalf("lbu result = 0x%x, want 0xff", x4)
	}
}

func TestCPUJalForward(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(32)
	jal, _ := Encode(Instruction{Op: OpJAL, Rd: 1, Offset: 16})
	bus.Ram.Store32(0, jal)

	step(t, &cpu, bus)
	ra, _ := cpu.Regs.Load(1)
	if ra != 4 {
		t.Fatalf("ra = %d, want 4", ra)
	}
	if cpu.PC.Load() != 16 {
		t.Fatalf("PC = %d, want 16", cpu.PC.Load())
	}
}

func TestCPUSltVsSltu(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(16)
	cpu.Regs.Store(1, 0xffffffff) // int32 -1
	cpu.Regs.Store(2, 1)

	slt, _ := Encode(Instruction{Op: OpSLT, Rd: 3, Rs1: 1, Rs2: 2})
	bus.Ram.Store32(0, slt)
	step(t, &cpu, bus)
	x3, _ := cpu.Regs.Load(3)
	if x3 != 1 {
		t.Fatalf("slt(-1, 1) = %d, want 1 (signed -1 < 1)", x3)
	}

	cpu.State = StateExecute
	sltu, _ := Encode(Instruction{Op: OpSLTU, Rd: 4, Rs1: 1, Rs2: 2})
	bus.Ram.Store32(4, sltu)
	step(t, &cpu, bus)
	x4, _ := cpu.Regs.Load(4)
	if x4 != 0 {
		t.Fatalf("sltu(0xffffffff, 1) = %d, want 0 (unsigned 0xffffffff >= 1)", x4)
	}
}

func TestCPUStepCausesX0WritesToBeDropped(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(16)
	addi, _ := Encode(Instruction{Op: OpADDI, Rd: 0, Rs1: 0, Imm: 99})
	bus.Ram.Store32(0, addi)
	step(t, &cpu, bus)
	x0, _ := cpu.Regs.Load(0)
	if x0 != 0 {
		t.Fatalf("x0 = %d, want 0", x0)
	}
}

func TestCPUStepAdvancesStepIndexStrictlyIncreasing(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(16)
	nop, _ := Encode(Instruction{Op: OpADDI, Rd: 0, Rs1: 0, Imm: 0})
	bus.Ram.Store32(0, nop)
	bus.Ram.Store32(4, nop)

	if cpu.Step != 0 {
		t.Fatalf("initial Step = %d, want 0", cpu.Step)
	}
	driver := &Driver{CPU: cpu, Bus: bus}
	driver.Log = Log{InitCpuState: NewCpuStateLog(&driver.CPU)}
	if err := driver.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if driver.CPU.Step != 1 {
		t.Fatalf("Step after one iteration = %d, want 1", driver.CPU.Step)
	}
	if err := driver.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if driver.CPU.Step != 2 {
		t.Fatalf("Step after two iterations = %d, want 2", driver.CPU.Step)
	}
}

func TestCPUFenceEcallEbreakAreUnsupportedTraps(t *testing.T) {
	var cpu CPU
	cpu.Reset()
	bus := newTestBus(16)

	for _, ins := range []Instruction{
		{Op: OpFENCE, Pred: 0xf, Succ: 0x3},
		{Op: OpECALL},
		{Op: OpEBREAK},
	} {
		cpu.State = StateDecode
		if _, err := cpu.Execute(ins, bus); !errors.Is(err, ErrUnsupportedTrap) {
			t.Fatalf("Execute(%s): err = %v, want ErrUnsupportedTrap", ins.Op, err)
		}
	}
}
