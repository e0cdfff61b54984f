package rv32

import "log"

// Driver owns the CPU, the Bus (RAM + devices) and the step log. None
// of its components hold a back-reference to the Driver. The main loop
// polls devices before every fetch so that a store whose side effect
// is termination is observed on the following iteration — the
// instruction that caused it is fully committed and logged first.
type Driver struct {
	CPU CPU
	Bus *Bus
	Log Log

	exitCode uint8

	// InstructionLog, when true, prints one line per completed step via
	// the standard logger, mirroring the teacher's verbose-mode dump.
	InstructionLog bool
}

// NewDriver constructs a Driver over ram with no devices registered.
// Devices must be registered (via Driver.Bus.Register) before Reset.
func NewDriver(ram *Ram) *Driver {
	return &Driver{Bus: NewBus(ram)}
}

// Reset zeroes the CPU and snapshots the initial CPU/RAM state into the
// log, per the trace schema's init_cpu_state/init_ram fields.
func (d *Driver) Reset() {
	d.CPU.Reset()
	d.exitCode = 0
	d.Log = Log{
		InitCpuState: NewCpuStateLog(&d.CPU),
		InitRam:      append([]byte(nil), d.Bus.Ram.Bytes()...),
	}
}

// step runs one fetch/decode/execute iteration and appends its record
// to the log.
func (d *Driver) step() error {
	word, err := d.CPU.Fetch(d.Bus.Ram)
	if err != nil {
		return err
	}
	ins, err := d.CPU.DecodeStep(word)
	if err != nil {
		return err
	}
	writes, err := d.CPU.Execute(ins, d.Bus)
	if err != nil {
		return err
	}

	cpuStep := CpuStep{
		Step:               d.CPU.Step,
		FetchedInstruction: word,
		DecodedInstruction: ins,
		CpuState:           NewCpuStateLog(&d.CPU),
		RamWrites:          writes,
	}
	d.CPU.Step++
	d.Log.Steps = append(d.Log.Steps, cpuStep)

	if d.InstructionLog {
		log.Printf("0x%08x 0x%08x %s", cpuStep.CpuState.PC, word, ins)
	}

	return nil
}

// Run executes the driver's main loop until a device requests Exit, PC
// steps past the end of RAM, or a fatal error occurs. It returns the
// exit code (0 if none was ever latched), the completed trace, and any
// fatal error — the log contains every step completed before the error.
func (d *Driver) Run() (uint8, *Log, error) {
	for {
		exited := false
		for _, dev := range d.Bus.Devices {
			req := dev.PollRequest()
			if req == nil {
				continue
			}
			d.Log.DevReqs = append(d.Log.DevReqs, DeviceRequestLog{
				Step:    d.CPU.Step,
				Request: *req,
			})
			if req.Exit {
				d.exitCode = req.Code
				exited = true
			}
			break
		}
		if exited {
			return d.exitCode, &d.Log, nil
		}

		if err := d.step(); err != nil {
			return d.exitCode, &d.Log, err
		}

		if d.CPU.PC.Load() >= d.Bus.Ram.Size() {
			return d.exitCode, &d.Log, nil
		}
	}
}
