package rv32

// CpuStateLog is a full named-register snapshot plus pc/state, using
// the standard RISC-V ABI register names so a trace reads like a
// calling-convention-aware debugger would print it.
type CpuStateLog struct {
	Zero uint32 `json:"zero"`
	Ra   uint32 `json:"ra"`
	Sp   uint32 `json:"sp"`
	Gp   uint32 `json:"gp"`
	Tp   uint32 `json:"tp"`
	T0   uint32 `json:"t0"`
	T1   uint32 `json:"t1"`
	T2   uint32 `json:"t2"`
	S0   uint32 `json:"s0"`
	S1   uint32 `json:"s1"`
	A0   uint32 `json:"a0"`
	A1   uint32 `json:"a1"`
	A2   uint32 `json:"a2"`
	A3   uint32 `json:"a3"`
	A4   uint32 `json:"a4"`
	A5   uint32 `json:"a5"`
	A6   uint32 `json:"a6"`
	A7   uint32 `json:"a7"`
	S2   uint32 `json:"s2"`
	S3   uint32 `json:"s3"`
	S4   uint32 `json:"s4"`
	S5   uint32 `json:"s5"`
	S6   uint32 `json:"s6"`
	S7   uint32 `json:"s7"`
	S8   uint32 `json:"s8"`
	S9   uint32 `json:"s9"`
	S10  uint32 `json:"s10"`
	S11  uint32 `json:"s11"`
	T3   uint32 `json:"t3"`
	T4   uint32 `json:"t4"`
	T5   uint32 `json:"t5"`
	T6   uint32 `json:"t6"`
	PC    uint32   `json:"pc"`
	State CpuState `json:"state"`
}

// NewCpuStateLog snapshots cpu's register file, PC and state. The
// result is a copy, not a view: later mutations of cpu do not change it.
func NewCpuStateLog(cpu *CPU) CpuStateLog {
	regs := &cpu.Regs
	load := func(i int) uint32 {
		v, _ := regs.Load(i)
		return v
	}
	return CpuStateLog{
		Zero: load(0), Ra: load(1), Sp: load(2), Gp: load(3), Tp: load(4),
		T0: load(5), T1: load(6), T2: load(7), S0: load(8), S1: load(9),
		A0: load(10), A1: load(11), A2: load(12), A3: load(13), A4: load(14),
		A5: load(15), A6: load(16), A7: load(17),
		S2: load(18), S3: load(19), S4: load(20), S5: load(21), S6: load(22),
		S7: load(23), S8: load(24), S9: load(25), S10: load(26), S11: load(27),
		T3: load(28), T4: load(29), T5: load(30), T6: load(31),
		PC: cpu.PC.Load(), State: cpu.State,
	}
}

// CpuStep is one fetch/decode/execute iteration's record.
type CpuStep struct {
	Step               uint64      `json:"step"`
	FetchedInstruction uint32      `json:"fetched_instruction"`
	DecodedInstruction Instruction `json:"decoded_instruction"`
	CpuState           CpuStateLog `json:"cpu_state"`
	RamWrites          []RamWrite  `json:"ram_writes"`
}

// DeviceRequestLog pairs the step index at which a device raised a
// request with the request itself.
type DeviceRequestLog struct {
	Step    uint64        `json:"step"`
	Request DeviceRequest `json:"req"`
}

// Log is the full structured execution trace: the initial snapshot,
// every completed step, and every device request observed.
type Log struct {
	InitCpuState CpuStateLog        `json:"init_cpu_state"`
	InitRam      []byte             `json:"init_ram"`
	Steps        []CpuStep          `json:"steps"`
	DevReqs      []DeviceRequestLog `json:"dev_reqs"`
}
