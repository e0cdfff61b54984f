package rv32

import (
	"fmt"
	"io"
	"os"
)

// DefaultDebugExitAddr is the default base address of the DebugExit device.
const DefaultDebugExitAddr = 0x000000f4

// DefaultSimpleUartAddr is the default base address of the SimpleUart
// device, at the traditional COM1 offset.
const DefaultSimpleUartAddr = 0x000003f8

// DebugExit is a 1-byte write-triggered termination device. A byte
// store at offset 0 latches the stored value as the exit code; the
// next PollRequest call then returns an Exit request. All loads
// return 0.
type DebugExit struct {
	deviceBase
	exitCode    uint8
	exitLatched bool
	out         io.Writer
}

// NewDebugExit constructs a DebugExit at baseAddr, printing its
// "Exited with 0x.." message to out.
func NewDebugExit(baseAddr uint32, out io.Writer) *DebugExit {
	return &DebugExit{
		deviceBase: deviceBase{name: "debug-exit", baseAddr: baseAddr, length: 1},
		out:        out,
	}
}

// NewDefaultDebugExit constructs a DebugExit at its default address,
// writing its exit message to os.Stdout.
func NewDefaultDebugExit() *DebugExit {
	return NewDebugExit(DefaultDebugExitAddr, os.Stdout)
}

func (d *DebugExit) Load8(uint32) uint8 { return 0 }

func (d *DebugExit) Store8(offset uint32, value uint8) {
	if offset == 0 {
		fmt.Fprintf(d.out, "[%s]: Exited with 0x%x\n", d.Name(), value)
		d.exitCode = value
		d.exitLatched = true
	}
}

func (d *DebugExit) Load16(uint32) uint16   { return 0 }
func (d *DebugExit) Store16(uint32, uint16) {}
func (d *DebugExit) Load32(uint32) uint32   { return 0 }
func (d *DebugExit) Store32(uint32, uint32) {}

// PollRequest returns an Exit request once a byte has been latched.
func (d *DebugExit) PollRequest() *DeviceRequest {
	if !d.exitLatched {
		return nil
	}
	return &DeviceRequest{Exit: true, Code: d.exitCode}
}

var _ Device = (*DebugExit)(nil)

// SimpleUart is a 5-byte COM1-shaped device that emits a stdout
// character on every byte store at offset 0. Other offsets in its
// window are reserved and ignored. It never raises a poll request.
type SimpleUart struct {
	deviceBase
	out io.Writer
}

// NewSimpleUart constructs a SimpleUart at baseAddr, writing emitted
// bytes to out.
func NewSimpleUart(baseAddr uint32, out io.Writer) *SimpleUart {
	return &SimpleUart{
		deviceBase: deviceBase{name: "simple-uart", baseAddr: baseAddr, length: 5},
		out:        out,
	}
}

// NewDefaultSimpleUart constructs a SimpleUart at its default address,
// writing to os.Stdout.
func NewDefaultSimpleUart() *SimpleUart {
	return NewSimpleUart(DefaultSimpleUartAddr, os.Stdout)
}

func (u *SimpleUart) Load8(uint32) uint8 { return 0 }

func (u *SimpleUart) Store8(offset uint32, value uint8) {
	if offset == 0 {
		fmt.Fprintf(u.out, "%c", value)
	}
}

func (u *SimpleUart) Load16(uint32) uint16   { return 0 }
func (u *SimpleUart) Store16(uint32, uint16) {}
func (u *SimpleUart) Load32(uint32) uint32   { return 0 }
func (u *SimpleUart) Store32(uint32, uint32) {}

// PollRequest never returns a request: the UART is a sequential,
// unbuffered output sink with no background activity.
func (u *SimpleUart) PollRequest() *DeviceRequest { return nil }

var _ Device = (*SimpleUart)(nil)
