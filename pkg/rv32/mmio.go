package rv32

// DeviceRequest is a termination (or other) request a device can raise
// from its poll step. Exit is the only request kind this core supports.
type DeviceRequest struct {
	Exit bool
	Code uint8
}

// Device is the uniform interface every MMIO peripheral exposes. Bus
// dispatch is a linear scan over the registered devices in registration
// order; the first device whose window contains the address wins.
type Device interface {
	// Name returns a human readable device name, used in logs/traces.
	Name() string

	// BaseAddr returns the device's base address in the flat address space.
	BaseAddr() uint32

	// Len returns the size in bytes of the device's MMIO window.
	Len() uint32

	// IsAvailableAddr reports whether addr falls in [BaseAddr, BaseAddr+Len).
	IsAvailableAddr(addr uint32) bool

	Load8(offset uint32) uint8
	Store8(offset uint32, value uint8)
	Load16(offset uint32) uint16
	Store16(offset uint32, value uint16)
	Load32(offset uint32) uint32
	Store32(offset uint32, value uint32)

	// PollRequest is called once per driver iteration, before fetch. It
	// returns a non-nil request only when the device wants to signal
	// termination (or another future request kind).
	PollRequest() *DeviceRequest
}

// deviceBase carries the fields shared by every concrete Device.
type deviceBase struct {
	name     string
	baseAddr uint32
	length   uint32
}

func (d *deviceBase) Name() string     { return d.name }
func (d *deviceBase) BaseAddr() uint32 { return d.baseAddr }
func (d *deviceBase) Len() uint32      { return d.length }

func (d *deviceBase) IsAvailableAddr(addr uint32) bool {
	return addr >= d.baseAddr && addr < d.baseAddr+d.length
}

// Bus routes byte/half/word accesses either to a registered Device, when
// the address falls in its window, or to the underlying Ram otherwise.
// Devices are probed in registration order; the first match wins. No
// overlap check is performed between device windows and RAM regions.
type Bus struct {
	Ram     *Ram
	Devices []Device
}

// NewBus builds a Bus over ram with no devices registered yet.
func NewBus(ram *Ram) *Bus {
	return &Bus{Ram: ram}
}

// Register appends a device to the probe list. Registration order
// defines MMIO probe order and must happen before Reset.
func (b *Bus) Register(d Device) {
	b.Devices = append(b.Devices, d)
}

func (b *Bus) findDevice(addr uint32) Device {
	for _, d := range b.Devices {
		if d.IsAvailableAddr(addr) {
			return d
		}
	}
	return nil
}

// Load8 reads one byte, routing through any matching device window.
func (b *Bus) Load8(addr uint32) (uint8, error) {
	if d := b.findDevice(addr); d != nil {
		return d.Load8(addr - d.BaseAddr()), nil
	}
	return b.Ram.Load8(addr)
}

// Store8 writes one byte, routing through any matching device window.
// It reports whether the write landed in RAM (true) or was absorbed by
// a device (false), so callers can build an accurate ram_writes trace.
func (b *Bus) Store8(addr uint32, value uint8) (hitRam bool, err error) {
	if d := b.findDevice(addr); d != nil {
		d.Store8(addr-d.BaseAddr(), value)
		return false, nil
	}
	if err := b.Ram.Store8(addr, value); err != nil {
		return false, err
	}
	return true, nil
}

// Load16 reads a little-endian halfword, routing through any matching device.
func (b *Bus) Load16(addr uint32) (uint16, error) {
	if d := b.findDevice(addr); d != nil {
		return d.Load16(addr - d.BaseAddr()), nil
	}
	return b.Ram.Load16(addr)
}

// Store16 writes a little-endian halfword, routing through any matching device.
func (b *Bus) Store16(addr uint32, value uint16) (hitRam bool, err error) {
	if d := b.findDevice(addr); d != nil {
		d.Store16(addr-d.BaseAddr(), value)
		return false, nil
	}
	if err := b.Ram.Store16(addr, value); err != nil {
		return false, err
	}
	return true, nil
}

// Load32 reads a little-endian word, routing through any matching device.
func (b *Bus) Load32(addr uint32) (uint32, error) {
	if d := b.findDevice(addr); d != nil {
		return d.Load32(addr - d.BaseAddr()), nil
	}
	return b.Ram.Load32(addr)
}

// Store32 writes a little-endian word, routing through any matching device.
func (b *Bus) Store32(addr uint32, value uint32) (hitRam bool, err error) {
	if d := b.findDevice(addr); d != nil {
		d.Store32(addr-d.BaseAddr(), value)
		return false, nil
	}
	if err := b.Ram.Store32(addr, value); err != nil {
		return false, err
	}
	return true, nil
}
